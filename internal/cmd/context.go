package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/exlogic/internal/config"
	"github.com/felixgeelhaar/exlogic/internal/log"
	"github.com/felixgeelhaar/exlogic/internal/tui"
	"github.com/felixgeelhaar/exlogic/internal/version"
)

// CommandContext holds the loaded configuration and the logger for one
// command invocation, so commands share no global state.
type CommandContext struct {
	Config *config.Config
	Logger *log.Logger
	Styles tui.Styles
}

// NewCommandContext loads configuration and builds the logger from the
// persistent flags. Commands call this first in RunE:
//
//	func runCommand(cmd *cobra.Command, args []string) error {
//		cc, err := NewCommandContext(cmd)
//		if err != nil {
//			return err
//		}
//		cc.Logger.Info(...)
//	}
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfgPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	levelFlag, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}
	if levelFlag != "" {
		cfg.Logging.Level = levelFlag
	}
	format, err := cmd.Flags().GetString("log-format")
	if err != nil {
		return nil, err
	}
	if format != "" {
		cfg.Logging.Format = format
	}

	level := log.ParseLevel(cfg.Logging.Level)
	logger := log.New(log.Config{
		Level:          level,
		Format:         log.ParseFormat(cfg.Logging.Format),
		Output:         cmd.ErrOrStderr(),
		AddSource:      level == log.LevelDebug,
		ServiceVersion: version.Version,
	})

	return &CommandContext{
		Config: cfg,
		Logger: logger,
		Styles: tui.DefaultStyles(),
	}, nil
}
