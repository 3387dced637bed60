package main

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/gamesurge/gsdb"
)

type diffOp int8

const (
	diffSame diffOp = iota
	diffAdded
	diffRemoved
)

type diffLine struct {
	op   diffOp
	text string
}

// lineDiff compares two texts line by line.
func lineDiff(a, b string) []diffLine {
	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	var result []diffLine
	for _, d := range diffs {
		var op diffOp
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = diffAdded
		case diffmatchpatch.DiffDelete:
			op = diffRemoved
		default:
			op = diffSame
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line != "" {
				result = append(result, diffLine{op, strings.TrimSuffix(line, "\n")})
			}
		}
	}
	return result
}

func changed(lines []diffLine) bool {
	for _, l := range lines {
		if l.op != diffSame {
			return true
		}
	}
	return false
}

func (a *app) printDiff(lines []diffLine) {
	for _, l := range lines {
		switch l.op {
		case diffAdded:
			a.good.Fprintf(a.out, "+%s\n", l.text)
		case diffRemoved:
			a.bad.Fprintf(a.out, "-%s\n", l.text)
		default:
			a.dim.Fprintf(a.out, " %s\n", l.text)
		}
	}
}

// canonical returns the text form of root with formatting and comments
// normalized away.
func canonical(root *gsdb.Object) (string, error) {
	text, err := gsdb.Marshal(root)
	return string(text), err
}

func (a *app) diffCmd() *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "diff FILE1 FILE2",
		Short: "Compare the canonical forms of two databases",
		Long: `Compare the canonical forms of two databases line by line.
Formatting and comments are ignored. Exits with status 1 if the
databases differ.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var texts [2]string
			for i, path := range args {
				root, err := a.load(path)
				if err != nil {
					return err
				}
				if texts[i], err = canonical(root); err != nil {
					return err
				}
			}
			lines := lineDiff(texts[0], texts[1])
			if !changed(lines) {
				return nil
			}
			if !quiet {
				a.dim.Fprintf(a.out, "--- %s\n+++ %s\n", args[0], args[1])
				a.printDiff(lines)
			}
			return errSilent
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only set the exit status")
	return cmd
}
