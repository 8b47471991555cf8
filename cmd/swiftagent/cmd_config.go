package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swiftagentkit/agentkit-go/pkg/session"
)

func newConfigCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the session configuration",
	}
	cmd.AddCommand(newConfigValidateCommand(flags))
	return cmd
}

func newConfigValidateCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and print the session configuration, failing with exit code 1 on malformed JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := session.Load(flags.configPath)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			fmt.Fprintf(cmd.OutOrStdout(), "%d server boot call(s), %d remote server(s)\n",
				len(cfg.ServerBootCalls), len(cfg.RemoteServers))
			return nil
		},
	}
}
