package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/gamesurge/gsdb"
)

const shellHelp = `ls [PATH]            list the records of an object
get PATH             print a value
set PATH VALUE...    store a string, or a list if several values are given
del PATH             delete a node
save                 write the database file
quit                 leave (asks again if there are unsaved changes)
`

func (a *app) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell FILE",
		Short: "Edit a database interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.readDB(args[0], true)
			if err != nil {
				return err
			}
			sh := &shell{a: a, db: db, file: args[0]}
			if isTerminal(a.in) && isTerminal(a.out) {
				return sh.interactive()
			}
			return sh.script(a.in)
		},
	}
}

type shell struct {
	a      *app
	db     *gsdb.Database
	file   string
	dirty  bool
	warned bool
}

var errQuit = errors.New("quit")

func (sh *shell) prompt() string {
	p, ok := sh.a.cfg.Expand("prompt", sh.db.Name())
	if !ok {
		p = sh.db.Name() + "> "
	}
	return p
}

func (sh *shell) interactive() error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(sh.complete)

	histPath, hasHist := sh.a.cfg.Str("shell/history")
	if hasHist {
		if f, err := os.Open(histPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	for {
		input, err := line.Prompt(sh.prompt())
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		if err := sh.exec(input); errors.Is(err, errQuit) {
			break
		} else if err != nil {
			sh.a.failf("%v\n", err)
		}
	}

	if hasHist {
		if f, err := os.Create(histPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}
	return nil
}

// script runs commands read from r, one per line, stopping at the first
// error.
func (sh *shell) script(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		err := sh.exec(scanner.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (sh *shell) exec(input string) error {
	args := strings.Fields(input)
	if len(args) == 0 || strings.HasPrefix(args[0], "#") {
		return nil
	}
	root := sh.db.Root()
	cmd, args := args[0], args[1:]
	switch cmd {
	case "help", "?":
		fmt.Fprint(sh.a.out, shellHelp)
	case "ls":
		obj := root
		if len(args) > 0 {
			obj = root.FetchObject(args[0])
			if obj == nil {
				return fmt.Errorf("%s: not an object", args[0])
			}
		}
		for key, v := range obj.All() {
			fmt.Fprintf(sh.a.out, "%s = %s\n", key, inline(v))
		}
	case "get":
		if len(args) != 1 {
			return errors.New("usage: get PATH")
		}
		return sh.a.printNode(root, args[0])
	case "set":
		if len(args) < 2 {
			return errors.New("usage: set PATH VALUE...")
		}
		v := gsdb.StringValue(args[1])
		if len(args) > 2 {
			v = gsdb.ListValue(slices.Clone(args[1:])...)
		}
		if err := root.SetPath(args[0], v); err != nil {
			return err
		}
		sh.dirty = true
	case "del":
		if len(args) != 1 {
			return errors.New("usage: del PATH")
		}
		if !root.DeletePath(args[0]) {
			return notFound(args[0])
		}
		sh.dirty = true
	case "save":
		return sh.save()
	case "quit", "exit":
		if sh.dirty && !sh.warned {
			sh.warned = true
			return errors.New("unsaved changes; save first or quit again to discard them")
		}
		return errQuit
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return nil
}

func (sh *shell) save() error {
	err := sh.a.locked(sh.file, func() error {
		if _, loaded := sh.db.Checksum(); loaded {
			changed, err := sh.db.Changed()
			if err != nil {
				return err
			}
			if changed {
				return fmt.Errorf("%s was changed by someone else since it was loaded", sh.file)
			}
		}
		return sh.db.Save()
	})
	if err != nil {
		return err
	}
	sh.dirty, sh.warned = false, false
	fmt.Fprintf(sh.a.out, "%s: saved\n", sh.file)
	return nil
}

var shellCommands = []string{"del ", "exit", "get ", "help", "ls ", "quit", "save", "set "}

// complete offers command names for the first word and node paths for the
// second.
func (sh *shell) complete(input string) []string {
	cmd, partial, hasArg := strings.Cut(input, " ")
	if !hasArg {
		var out []string
		for _, c := range shellCommands {
			if strings.HasPrefix(c, input) {
				out = append(out, c)
			}
		}
		return out
	}
	if strings.Contains(partial, " ") {
		return nil
	}

	var out []string
	prefix := strings.ToLower(partial)
	var visit func(base string, obj *gsdb.Object)
	visit = func(base string, obj *gsdb.Object) {
		for key, v := range obj.All() {
			path := base + key
			candidate := path
			if v.Kind() == gsdb.KindObject {
				candidate += "/"
			}
			lower := strings.ToLower(candidate)
			if strings.HasPrefix(lower, prefix) {
				out = append(out, cmd+" "+candidate)
			}
			if v.Kind() == gsdb.KindObject && strings.HasPrefix(prefix, lower) {
				visit(candidate, v.Object())
			}
		}
	}
	visit("", sh.db.Root())
	return out
}
