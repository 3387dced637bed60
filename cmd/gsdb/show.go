package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"

	"github.com/gamesurge/gsdb"
)

func (a *app) dumpCmd() *cobra.Command {
	var escaped, stats bool
	cmd := &cobra.Command{
		Use:   "dump FILE",
		Short: "Print a debugging listing of every node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := a.load(args[0])
			if err != nil {
				return err
			}
			var f gsdb.DumpFlags
			if escaped {
				f |= gsdb.DumpEscaped
			}
			if stats {
				f |= gsdb.DumpStats
			}
			return gsdb.Dump(a.out, root, f)
		},
	}
	cmd.Flags().BoolVarP(&escaped, "escaped", "e", false, "quote strings")
	cmd.Flags().BoolVarP(&stats, "stats", "s", false, "print node counts")
	return cmd
}

func (a *app) fmtCmd() *cobra.Command {
	var write, list bool
	cmd := &cobra.Command{
		Use:   "fmt FILE...",
		Short: "Print or rewrite databases in canonical form",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if err := a.format(path, write, list); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "rewrite files that are not in canonical form")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list files that are not in canonical form")
	return cmd
}

func (a *app) format(path string, write, list bool) error {
	orig, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	root, err := gsdb.Parse(path, orig)
	if err != nil {
		return err
	}
	text, err := gsdb.Marshal(root)
	if err != nil {
		return err
	}
	same := bytes.Equal(orig, text)
	if list && !same {
		fmt.Fprintln(a.out, path)
	}
	if !write {
		if !list {
			_, err = a.out.Write(text)
		}
		return err
	}
	if same {
		return nil
	}
	return a.edit(path, false, func(*gsdb.Object) error { return nil })
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get FILE PATH",
		Short: "Print the value at a slash-delimited path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := a.load(args[0])
			if err != nil {
				return err
			}
			return a.printNode(root, args[1])
		},
	}
}

func notFound(path string) error {
	return fmt.Errorf("%s: %w", path, gsdb.ErrNotFound)
}

// printNode prints a string as is, a list one item per line, and an object
// as database records.
func (a *app) printNode(root *gsdb.Object, path string) error {
	var v *gsdb.Value
	if path == "" || path == "/" {
		v = gsdb.ObjectValue(root)
	} else {
		v = root.Fetch(path)
	}
	switch v.Kind() {
	case gsdb.KindString:
		fmt.Fprintln(a.out, v.Str())
	case gsdb.KindStringList:
		for _, s := range v.List() {
			fmt.Fprintln(a.out, s)
		}
	case gsdb.KindObject:
		text, err := gsdb.Marshal(v.Object())
		if err != nil {
			return err
		}
		a.out.Write(text)
	default:
		return notFound(path)
	}
	return nil
}

func (a *app) setCmd() *cobra.Command {
	var asList bool
	cmd := &cobra.Command{
		Use:   "set FILE PATH VALUE...",
		Short: "Store a string, or a string list if several values are given",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, key, values := args[0], args[1], args[2:]
			v := gsdb.StringValue(values[0])
			if asList || len(values) > 1 {
				v = gsdb.ListValue(values...)
			}
			return a.edit(path, true, func(root *gsdb.Object) error {
				return root.SetPath(key, v)
			})
		},
	}
	cmd.Flags().BoolVarP(&asList, "list", "l", false, "store a string list even for a single value")
	return cmd
}

func (a *app) delCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "del FILE PATH",
		Short: "Delete the node at a path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(args[0], false, func(root *gsdb.Object) error {
				if !root.DeletePath(args[1]) {
					return notFound(args[1])
				}
				return nil
			})
		},
	}
}

func (a *app) findCmd() *cobra.Command {
	var ignoreCase, pathsOnly bool
	cmd := &cobra.Command{
		Use:   "find FILE PATTERN",
		Short: "List strings and lists whose path matches a glob pattern",
		Long: `List strings and lists whose path matches a glob pattern.
A * matches within one path element, ** matches across elements, and
{a,b} matches either alternative.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := a.load(args[0])
			if err != nil {
				return err
			}
			pattern := args[1]
			if ignoreCase {
				pattern = strings.ToLower(pattern)
			}
			g, err := glob.Compile(pattern, '/')
			if err != nil {
				return fmt.Errorf("bad pattern %q: %w", args[1], err)
			}
			found := 0
			root.Walk(func(path string, v *gsdb.Value) bool {
				subject := path
				if ignoreCase {
					subject = strings.ToLower(path)
				}
				if !g.Match(subject) {
					return true
				}
				found++
				if pathsOnly {
					fmt.Fprintln(a.out, path)
				} else {
					fmt.Fprintf(a.out, "%s = %s\n", path, inline(v))
				}
				return true
			})
			if found == 0 {
				return errSilent
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&ignoreCase, "ignore-case", "i", false, "match paths case-insensitively")
	cmd.Flags().BoolVarP(&pathsOnly, "paths", "p", false, "print only the matching paths")
	return cmd
}

// inline renders a string or list the way it appears in a database file.
func inline(v *gsdb.Value) string {
	switch v.Kind() {
	case gsdb.KindString:
		return gsdb.Quote(v.Str())
	case gsdb.KindStringList:
		items := make([]string, len(v.List()))
		for i, s := range v.List() {
			items[i] = gsdb.Quote(s)
		}
		return "(" + strings.Join(items, ", ") + ")"
	case gsdb.KindObject:
		return "{ ... }"
	default:
		return "?"
	}
}
