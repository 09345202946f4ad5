package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent conversion runs.",
	Args:  exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := current
		if a.runs == nil {
			return errors.New("job log is unavailable")
		}
		runs, err := a.runs.ListRuns(cmd.Context(), runsLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("no runs recorded")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tSOURCE\tCHUNKS\tMERGED\tOUTCOME")
		for _, r := range runs {
			merged := "no"
			if r.Merged {
				merged = "yes"
			}
			outcome := r.Outcome
			if r.Error != "" {
				outcome += ": " + r.Error
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				r.StartedAt.Local().Format(time.DateTime), r.Source, r.Chunks, merged, outcome)
		}
		return w.Flush()
	},
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "maximum number of runs to list")
	rootCmd.AddCommand(runsCmd)
}
