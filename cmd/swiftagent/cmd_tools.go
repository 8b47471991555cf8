package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swiftagentkit/agentkit-go/pkg/session"
	"github.com/swiftagentkit/agentkit-go/pkg/toolproxy"
)

func newToolsCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect and call tools exposed by the configured MCP servers",
	}
	cmd.AddCommand(newToolsListCommand(flags), newToolsCallCommand(flags))
	return cmd
}

// buildProxy loads the session config, connects every configured MCP
// server, and wraps each connected client as a toolproxy.ToolProvider so
// the proxy's aggregation/routing logic (spec.md §4.9) runs over the live
// runtime. The caller is responsible for closing the returned Runtime.
func buildProxy(ctx context.Context, flags *rootFlags) (*toolproxy.Proxy, *session.Runtime, error) {
	log := newLogger(flags)

	cfg, err := session.Load(flags.configPath)
	if err != nil {
		return nil, nil, err
	}

	rt, err := session.Build(ctx, log, cfg)
	if err != nil {
		return nil, nil, err
	}

	clients := rt.Clients()
	providers := make([]toolproxy.ToolProvider, 0, len(clients))
	for _, client := range clients {
		providers = append(providers, toolproxy.NewMCPProvider(client))
	}

	return toolproxy.New(log, providers), rt, nil
}

func newToolsListCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Connect to every configured MCP server and print the aggregated tool catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			proxy, rt, err := buildProxy(ctx, flags)
			if err != nil {
				return err
			}
			defer rt.Close()

			defs, err := proxy.Definitions(ctx)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(defs, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func newToolsCallCommand(flags *rootFlags) *cobra.Command {
	var argsJSON string

	cmd := &cobra.Command{
		Use:   "call <tool-name>",
		Short: "Dispatch a single tool call through the proxy and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			arguments := map[string]any{}
			if argsJSON != "" {
				if err := json.Unmarshal([]byte(argsJSON), &arguments); err != nil {
					return session.ConfigError("tool-args", err)
				}
			}

			proxy, rt, err := buildProxy(ctx, flags)
			if err != nil {
				return err
			}
			defer rt.Close()

			knownNames, err := proxy.KnownNames(ctx)
			if err != nil {
				return err
			}
			if !knownNames[name] {
				return fmt.Errorf("no registered tool named %q", name)
			}

			result := proxy.Dispatch(ctx, toolCall(name, arguments))
			if !result.Success {
				fmt.Fprintf(cmd.ErrOrStderr(), "tool call failed: %s\n", result.Error)
				return fmt.Errorf("tool call failed: %s", result.Error)
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Content)
			return nil
		},
	}

	cmd.Flags().StringVar(&argsJSON, "args", "", "JSON object of arguments to pass to the tool")
	return cmd
}
