package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "exlogic",
		Short: "Exercise logic compiler",
		Long: `exlogic turns a pair of reference photographs of an exercise (start and end
pose) into a validated biomechanics capture, and compiles a catalog of captures
into declarative exercise logic definitions for a rep-counting runtime.

Typical flow:
  exlogic capture --root exercises/       # exercise.logic.json per exercise
  exlogic merge --root exercises/ --out merged/
  exlogic compile --src merged/ --out definitions/`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "config file (default .exlogic/config.yaml)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().String("log-format", "", "log format: text or json")

	root.AddCommand(
		newCaptureCmd(),
		newMergeCmd(),
		newCompileCmd(),
		newHistoryCmd(),
		newConfigCmd(),
		newDoctorCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with a cancellable context
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
