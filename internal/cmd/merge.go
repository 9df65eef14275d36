package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/exlogic/internal/catalog"
	"github.com/felixgeelhaar/exlogic/internal/errors"
)

func newMergeCmd() *cobra.Command {
	var root, out string
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Combine exercise metadata and captures into one document per exercise",
		Long: `For every exercise directory under --root holding both exercise.json and
exercise.logic.json, write <sanitized name>.json containing
{"metadata": ..., "logic": ...} into --out. Directories without a capture are
skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			report, err := catalog.Merge(root, out, cc.Logger)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, f := range report.Failures {
				fmt.Fprintf(w, "%s %s: %s\n", cc.Styles.Error.Render("✗"), f.Path, firstLine(f.Err))
			}
			fmt.Fprintf(w, "%s merged %d, skipped %d, failed %d → %s\n",
				cc.Styles.Title.Render("Summary:"), len(report.Written), len(report.Skipped), len(report.Failures), out)

			if len(report.Failures) > 0 {
				return errors.Wrap(errors.ErrCodeUnitFailed,
					fmt.Sprintf("%d exercise directories could not be merged", len(report.Failures)),
					report.Failures[0].Err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", "exercises", "folder containing exercise directories")
	cmd.Flags().StringVar(&out, "out", "merged", "output folder for merged documents")
	return cmd
}
