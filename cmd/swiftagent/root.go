package main

import (
	"github.com/spf13/cobra"

	"github.com/swiftagentkit/agentkit-go/pkg/logger"
)

// rootFlags holds the flags shared by every subcommand.
type rootFlags struct {
	configPath string
	debug      bool
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "swiftagent",
		Short:         "Connect to MCP servers described by a session config and inspect/call their tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", defaultConfigPath(), "path to the session configuration JSON file")
	cmd.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "enable debug-level logging to stderr")

	cmd.AddCommand(
		newVersionCommand(),
		newConfigCommand(flags),
		newToolsCommand(flags),
	)

	return cmd
}

func newLogger(flags *rootFlags) *logger.Logger {
	level := logger.INFO
	if flags.debug {
		level = logger.DEBUG
	}
	return logger.New(nil, level)
}
