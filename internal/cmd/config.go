package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/exlogic/internal/config"
	"github.com/felixgeelhaar/exlogic/internal/errors"
	"github.com/felixgeelhaar/exlogic/internal/fsutil"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "View or create exlogic configuration",
		Long: `Manage exlogic configuration stored at .exlogic/config.yaml.

Settings are resolved in this order, later sources winning:
  • built-in defaults
  • .exlogic/config.yaml (or --config)
  • .env and EXLOGIC_* environment variables
  • command flags

Examples:
  # Show the effective configuration
  exlogic config view

  # Write a config file with the defaults
  exlogic config init`,
	}

	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "Display the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			path := configPath(cmd)
			source := "defaults (file not found)"
			if fsutil.Exists(path) {
				source = path
			}
			data, err := yaml.Marshal(cc.Config)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s %s\n\n", cc.Styles.Muted.Render("Configuration:"), source)
			fmt.Fprint(w, string(data))
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath(cmd)
			if fsutil.Exists(path) && !force {
				return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("%s already exists", path)).
					WithSuggestion("Pass --force to overwrite it")
			}
			if err := config.Default().Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), configPath(cmd))
		},
	}

	configCmd.AddCommand(viewCmd, initCmd, pathCmd)
	return configCmd
}

func configPath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return p
	}
	return config.DefaultPath
}
