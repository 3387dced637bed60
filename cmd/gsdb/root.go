package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/juju/fslock"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/gamesurge/gsdb"
	"github.com/gamesurge/gsdb/conf"
	"github.com/gamesurge/gsdb/history"
)

var lockTimeout = 10 * time.Second

// errSilent makes the command exit with status 1 without printing anything
// more; the command has already reported the problem.
var errSilent = errors.New("failed")

type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configPath  string
	historyPath string
	debug       bool
	noColors    bool

	cfg    *conf.Config
	logger *slog.Logger
	hist   *history.Store

	bad  *color.Color
	good *color.Color
	dim  *color.Color
}

func run(args []string, in io.Reader, out, errOut io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{in: in, out: out, errOut: errOut}
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	err := cmd.ExecuteContext(ctx)
	if cerr := a.close(); err == nil {
		err = cerr
	}
	if err != nil {
		if !errors.Is(err, errSilent) {
			a.failf("error: %v\n", err)
		}
		return 1
	}
	return 0
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gsdb",
		Short:         "Inspect and edit GameSurge text databases",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "configuration file (default $"+conf.EnvPath+" or ~/"+conf.DefaultFileName+")")
	pf.StringVar(&a.historyPath, "history", "", "revision history database (default from history/path in the config)")
	pf.BoolVar(&a.debug, "debug", false, "log debugging information")
	pf.BoolVar(&a.noColors, "no-colors", false, "disable colored output")

	cmd.AddCommand(
		a.checkCmd(),
		a.dumpCmd(),
		a.fmtCmd(),
		a.getCmd(),
		a.setCmd(),
		a.delCmd(),
		a.findCmd(),
		a.diffCmd(),
		a.exportCmd(),
		a.historyCmd(),
		a.shellCmd(),
	)
	return cmd
}

func (a *app) setup() error {
	var err error
	if a.configPath != "" {
		a.cfg, err = conf.Load(a.configPath)
	} else {
		a.cfg, err = conf.LoadOptional(conf.DefaultPath(), gsdb.Options{})
	}
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if s, ok := a.cfg.Str("log/level"); ok {
		if err := level.UnmarshalText([]byte(s)); err != nil {
			return fmt.Errorf("%s: log/level: %w", a.cfg.Path(), err)
		}
	}
	if a.debug {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))

	a.bad = color.New(color.FgRed, color.Bold)
	a.good = color.New(color.FgGreen)
	a.dim = color.New(color.Faint)
	if !a.colorful() {
		a.bad.DisableColor()
		a.good.DisableColor()
		a.dim.DisableColor()
	}
	return nil
}

func (a *app) colorful() bool {
	if a.noColors {
		return false
	}
	if s, ok := a.cfg.Str("colors"); ok && conf.FalseString(s) {
		return false
	}
	return isTerminal(a.out)
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (a *app) close() error {
	if a.hist == nil {
		return nil
	}
	err := a.hist.Close()
	a.hist = nil
	return err
}

func (a *app) failf(format string, args ...any) {
	if a.bad == nil {
		fmt.Fprintf(a.errOut, format, args...)
		return
	}
	a.bad.Fprintf(a.errOut, format, args...)
}

// historyStore opens the configured revision store, or returns nil when
// none is configured.
func (a *app) historyStore() (*history.Store, error) {
	if a.hist != nil {
		return a.hist, nil
	}
	path := a.historyPath
	if path == "" {
		path = a.cfg.StrDefault("history/path", "")
	}
	if path == "" {
		return nil, nil
	}
	s, err := history.OpenBolt(path, history.Options{
		Logger:  a.logger,
		Verbose: a.debug,
		Keep:    a.cfg.Int("history/keep", 0),
	})
	if err != nil {
		return nil, err
	}
	a.hist = s
	return s, nil
}

func (a *app) requireHistory() (*history.Store, error) {
	s, err := a.historyStore()
	if err == nil && s == nil {
		err = errors.New("no revision history configured (set history/path or use --history)")
	}
	return s, err
}

// dbName derives a database name from its file name: "local.db" is "local".
func dbName(path string) string {
	base := filepath.Base(path)
	if name := strings.TrimSuffix(base, ".db"); name != "" {
		return name
	}
	return base
}

// openDB returns a handle for the database file at path. Writes go through
// ".<file>.tmp" next to it and are recorded in the revision history, if
// one is configured.
func (a *app) openDB(path string) (*gsdb.Database, error) {
	opt := gsdb.Options{
		Dir:          filepath.Dir(path),
		FileName:     filepath.Base(path),
		TempFileName: "." + filepath.Base(path) + ".tmp",
		Logger:       a.logger,
		Verbose:      a.debug,
	}
	hist, err := a.historyStore()
	if err != nil {
		return nil, err
	}
	if hist != nil {
		opt.History = hist
	}
	return gsdb.New(dbName(path), opt), nil
}

// readDB opens and reads the database at path. A missing file yields an
// empty tree when create is set.
func (a *app) readDB(path string, create bool) (*gsdb.Database, error) {
	db, err := a.openDB(path)
	if err != nil {
		return nil, err
	}
	err = db.Read(false)
	if create && errors.Is(err, os.ErrNotExist) {
		db.SetRoot(gsdb.NewObject())
		return db, nil
	}
	if err != nil {
		return nil, err
	}
	return db, nil
}

func (a *app) load(path string) (*gsdb.Object, error) {
	return gsdb.LoadOptions(path, gsdb.Options{Logger: a.logger, Verbose: a.debug})
}

// locked runs fn while holding the advisory lock of the database file at
// path.
func (a *app) locked(path string, fn func() error) error {
	lock := fslock.New(path + ".lock")
	if err := lock.LockWithTimeout(lockTimeout); err != nil {
		if errors.Is(err, fslock.ErrTimeout) {
			return fmt.Errorf("%s is locked by another process", path)
		}
		return fmt.Errorf("cannot lock %s: %w", path, err)
	}
	defer lock.Unlock()
	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "locked", slog.String("file", path))
	return fn()
}

// edit reads the database at path under lock, applies fn to its tree and
// saves the result.
func (a *app) edit(path string, create bool, fn func(root *gsdb.Object) error) error {
	return a.locked(path, func() error {
		db, err := a.readDB(path, create)
		if err != nil {
			return err
		}
		if err := fn(db.Root()); err != nil {
			return err
		}
		return db.Save()
	})
}
