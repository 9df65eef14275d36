package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/exlogic/internal/catalog"
	"github.com/felixgeelhaar/exlogic/internal/errors"
)

func newCompileCmd() *cobra.Command {
	var (
		src, out, signalMap, schemaPath string
		check, noSchema                 bool
	)
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile merged documents into exercise logic definitions",
		Long: `Compile every merged document in --src into <id>.json, plus manifest.json and
manifest.lock.json, in --out. The rep signal for each exercise comes from the
signal map when listed there and from its name otherwise.

With --check nothing is written; the fresh compile is compared with the lock
file and any drift fails the command.

Examples:
  exlogic compile --src merged --out definitions
  exlogic compile --src merged --out definitions --check`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			if signalMap == "" {
				signalMap = filepath.Join(src, catalog.SignalMapFile)
			}
			overrides, err := catalog.LoadSignalMap(signalMap)
			if err != nil {
				return err
			}

			schemaCfg := cc.Config.Schema
			if schemaPath != "" {
				schemaCfg.Path = schemaPath
			}
			schemaCfg.Disabled = schemaCfg.Disabled || noSchema
			validator, err := loadValidator(schemaCfg)
			if err != nil {
				return err
			}

			report, err := catalog.Compile(src, out, catalog.CompileOptions{
				Overrides: overrides,
				Validator: validator,
				Check:     check,
				Logger:    cc.Logger,
			})
			if report != nil {
				printCompileReport(cmd, cc, report, check)
			}
			if err != nil {
				return err
			}
			if len(report.Failures) > 0 {
				return errors.Wrap(errors.ErrCodeUnitFailed,
					fmt.Sprintf("%d documents could not be compiled", len(report.Failures)),
					report.Failures[0].Err)
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&src, "src", "merged", "folder of merged exercise documents")
	fl.StringVar(&out, "out", "definitions", "output folder for definitions and manifest")
	fl.StringVar(&signalMap, "signal-map", "", "signal override file (default <src>/signal_map.json)")
	fl.BoolVar(&check, "check", false, "verify definitions against manifest.lock.json without writing")
	fl.StringVar(&schemaPath, "schema", "", "OpenAPI document whose components validate the output")
	fl.BoolVar(&noSchema, "no-schema", false, "skip schema validation")
	cmd.MarkFlagsMutuallyExclusive("schema", "no-schema")
	return cmd
}

func printCompileReport(cmd *cobra.Command, cc *CommandContext, report *catalog.CompileReport, check bool) {
	w := cmd.OutOrStdout()
	s := cc.Styles
	for _, f := range report.Failures {
		fmt.Fprintf(w, "%s %s: %s\n", s.Error.Render("✗"), filepath.Base(f.Path), firstLine(f.Err))
	}
	for _, d := range report.Drift {
		fmt.Fprintf(w, "%s %s: %s\n", s.Error.Render("drift"), d.ID, d.Reason)
	}

	verb := "compiled"
	if check {
		verb = "checked"
	}
	fmt.Fprintf(w, "%s %s %d, failed %d, drifted %d (default %q)\n",
		s.Title.Render("Summary:"), verb, len(report.Compiled), len(report.Failures), len(report.Drift),
		report.Manifest.DefaultExerciseID)
}
