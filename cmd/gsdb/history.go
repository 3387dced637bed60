package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/gamesurge/gsdb/history"
)

func (a *app) historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse and restore past revisions of databases",
	}
	cmd.AddCommand(
		a.historyListCmd(),
		a.historyShowCmd(),
		a.historyRestoreCmd(),
		a.historyPruneCmd(),
	)
	return cmd
}

func parseSeq(s string) (uint64, error) {
	seq, err := strconv.ParseUint(s, 10, 64)
	if err != nil || seq == 0 {
		return 0, fmt.Errorf("invalid revision number %q", s)
	}
	return seq, nil
}

func (a *app) historyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [DB]",
		Short: "List databases with history, or the revisions of one database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.requireHistory()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				return a.listDatabases(s)
			}
			return a.listRevisions(s, args[0])
		},
	}
}

func (a *app) listDatabases(s *history.Store) error {
	stats, err := s.Stats()
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(a.out)
	table.Header("Database", "Revisions", "Latest", "Written", "Size")
	for _, ds := range stats {
		err = table.Append([]string{
			ds.Database,
			strconv.Itoa(ds.Revisions),
			fmt.Sprintf("%s@%d", ds.Database, ds.Latest),
			ds.Last.Format(time.DateTime),
			strconv.Itoa(ds.EncSize),
		})
		if err != nil {
			return err
		}
	}
	return table.Render()
}

func (a *app) listRevisions(s *history.Store, db string) error {
	revs, err := s.List(db)
	if err != nil {
		return err
	}
	if len(revs) == 0 {
		return notFound(db)
	}
	table := tablewriter.NewWriter(a.out)
	table.Header("Revision", "ID", "Written", "Size", "Checksum")
	for _, r := range revs {
		err := table.Append([]string{
			r.Name(),
			r.ShortID(),
			r.Time.Format(time.DateTime),
			strconv.Itoa(len(r.Text)),
			fmt.Sprintf("%016x", r.Checksum),
		})
		if err != nil {
			return err
		}
	}
	return table.Render()
}

func (a *app) historyShowCmd() *cobra.Command {
	var showDiff bool
	cmd := &cobra.Command{
		Use:   "show DB [REVISION]",
		Short: "Print a revision, the latest one by default",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.requireHistory()
			if err != nil {
				return err
			}
			rev, err := a.revision(s, args)
			if err != nil {
				return err
			}
			if !showDiff {
				_, err = a.out.Write(rev.Text)
				return err
			}
			var prev string
			if rev.Seq > 1 {
				p, err := previousRevision(s, rev)
				if err != nil {
					return err
				}
				if p != nil {
					prev = string(p.Text)
				}
			}
			a.printDiff(lineDiff(prev, string(rev.Text)))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&showDiff, "diff", "d", false, "show the changes since the previous revision")
	return cmd
}

func (a *app) revision(s *history.Store, args []string) (*history.Revision, error) {
	if len(args) < 2 {
		return s.Latest(args[0])
	}
	seq, err := parseSeq(args[1])
	if err != nil {
		return nil, err
	}
	return s.Get(args[0], seq)
}

// previousRevision returns the newest stored revision older than rev, or
// nil if older ones have been pruned.
func previousRevision(s *history.Store, rev *history.Revision) (*history.Revision, error) {
	revs, err := s.List(rev.Database)
	if err != nil {
		return nil, err
	}
	var prev *history.Revision
	for _, r := range revs {
		if r.Seq >= rev.Seq {
			break
		}
		prev = r
	}
	return prev, nil
}

func (a *app) historyRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore FILE REVISION",
		Short: "Rewrite a database file with the contents of a past revision",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			seq, err := parseSeq(args[1])
			if err != nil {
				return err
			}
			s, err := a.requireHistory()
			if err != nil {
				return err
			}
			rev, err := s.Get(dbName(path), seq)
			if err != nil {
				return err
			}
			old, err := rev.Root()
			if err != nil {
				return fmt.Errorf("%s is damaged: %w", rev.Name(), err)
			}
			err = a.locked(path, func() error {
				db, err := a.openDB(path)
				if err != nil {
					return err
				}
				db.SetRoot(old)
				return db.Save()
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s: restored %s\n", path, rev.Name())
			return nil
		},
	}
}

func (a *app) historyPruneCmd() *cobra.Command {
	var keep int
	var all bool
	cmd := &cobra.Command{
		Use:   "prune DB",
		Short: "Delete old revisions of a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.requireHistory()
			if err != nil {
				return err
			}
			if all {
				return s.Drop(args[0])
			}
			n, err := s.Prune(args[0], keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s: deleted %d revisions\n", args[0], n)
			return nil
		},
	}
	cmd.Flags().IntVarP(&keep, "keep", "k", 10, "number of newest revisions to keep")
	cmd.Flags().BoolVar(&all, "all", false, "delete every revision")
	return cmd
}
