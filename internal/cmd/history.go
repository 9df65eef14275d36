package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/exlogic/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var (
		unit  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent capture outcomes",
		Long: `List capture outcomes recorded by previous runs, newest first.

Examples:
  exlogic history
  exlogic history --unit "Bicep Curl" -n 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			store, err := history.Open(cc.Config.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), unit, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cc.Styles.Muted.Render("No runs recorded."))
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "WHEN\tUNIT\tSTATUS\tCODE\tRUN")
			for _, e := range entries {
				run := e.RunID
				if len(run) > 8 {
					run = run[:8]
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					e.At.Local().Format(time.DateTime), e.Unit, e.Status, e.Code, run)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&unit, "unit", "", "only show this exercise")
	cmd.Flags().IntVarP(&limit, "lines", "n", 20, "number of entries to show")
	return cmd
}
