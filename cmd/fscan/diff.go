package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sadopc/fscan/internal/model"
	"github.com/sadopc/fscan/internal/ops"
	"github.com/sadopc/fscan/internal/util"
)

func newDiffCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "diff OLD.json NEW.json",
		Short: "Show entries added, removed or changed between two exports",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			older, err := ops.ImportJSON(args[0])
			if err != nil {
				return fmt.Errorf("error importing %s: %w", args[0], err)
			}
			newer, err := ops.ImportJSON(args[1])
			if err != nil {
				return fmt.Errorf("error importing %s: %w", args[1], err)
			}
			printDelta(stdout, ops.Diff(older.Entries, newer.Entries))
			return nil
		},
	}
}

func printDelta(out io.Writer, d ops.Delta) {
	if d.Empty() {
		fmt.Fprintln(out, "No differences")
		return
	}
	for _, e := range d.Added {
		fmt.Fprintf(out, "+ %s%s\n", e.Path, sizeSuffix(e))
	}
	for _, e := range d.Removed {
		fmt.Fprintf(out, "- %s%s\n", e.Path, sizeSuffix(e))
	}
	for _, e := range d.Changed {
		fmt.Fprintf(out, "~ %s%s\n", e.Path, sizeSuffix(e))
	}
	fmt.Fprintf(out, "%d added, %d removed, %d changed\n", len(d.Added), len(d.Removed), len(d.Changed))
}

func sizeSuffix(e model.Entry) string {
	if e.Dir {
		return "/"
	}
	return " (" + util.FormatSize(e.Size) + ")"
}
