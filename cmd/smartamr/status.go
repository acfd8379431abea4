package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/scttfrdmn/smartamr-go/pkg/bvbrc"
	"github.com/spf13/cobra"
)

var statusFailedOnly bool

var statusCmd = &cobra.Command{
	Use:   "status <genomeId>",
	Short: "Show recorded fetch outcomes for a genome",
	Long: `Read back the fetch journal (--journal) for a genome: the last recorded
outcome of each of its files.

Example:
  smartamr status 1280.10 --journal fetches.db --failed`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.GetString(keyJournal)
		if path == "" {
			return fmt.Errorf("no journal configured (use --journal or SMARTAMR_JOURNAL)")
		}
		j, err := bvbrc.OpenJournal(path)
		if err != nil {
			return err
		}
		defer j.Close()

		var entries []bvbrc.JournalEntry
		if statusFailedOnly {
			entries, err = j.Failures(args[0])
		} else {
			entries, err = j.Entries(args[0])
		}
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintf(os.Stderr, "No journal entries for %s\n", args[0])
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "FILE\tKIND\tSTATUS\tBYTES\tFINISHED\tRUN")
		for _, e := range entries {
			status := "ok"
			if !e.OK {
				status = "failed: " + e.Error
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
				e.Filename, e.Kind, status, e.Bytes,
				e.Finished().Format("2006-01-02 15:04:05"), e.RunID)
		}
		return w.Flush()
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusFailedOnly, "failed", false, "Only show failed fetches")
}
