package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the swiftagent version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := version
			if gitCommit != "" {
				v = fmt.Sprintf("%s (%s)", v, gitCommit)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "swiftagent %s\n", v)
			return nil
		},
	}
}
