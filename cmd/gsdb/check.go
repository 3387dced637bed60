package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func (a *app) checkCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "Validate database files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				if !a.check(path) {
					failed++
				}
			}
			if watch {
				return a.watch(cmd.Context(), args, func(path string) { a.check(path) })
			}
			if failed > 0 {
				return errSilent
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "W", false, "re-check files whenever they change")
	return cmd
}

func (a *app) check(path string) bool {
	root, err := a.load(path)
	if err != nil {
		a.bad.Fprintf(a.out, "%v\n", err)
		return false
	}
	a.good.Fprintf(a.out, "%s: ok", path)
	a.dim.Fprintf(a.out, " (%d records)\n", root.Len())
	return true
}

// watch calls changed with the path of every file in files that is written
// or replaced, until ctx is done. Parent directories are watched so that
// files replaced by rename are still noticed.
func (a *app) watch(ctx context.Context, files []string, changed func(path string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	byPath := make(map[string]string)
	var dirs []string
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		byPath[abs] = f
		if dir := filepath.Dir(abs); !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("cannot watch %s: %w", dir, err)
		}
	}
	a.logger.LogAttrs(ctx, slog.LevelDebug, "watching", slog.Any("dirs", dirs))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if f, found := byPath[filepath.Clean(ev.Name)]; found {
				changed(f)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			a.logger.LogAttrs(ctx, slog.LevelWarn, "watch error", slog.Any("err", err))
		}
	}
}
