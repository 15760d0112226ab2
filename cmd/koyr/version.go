package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cristianoliveira/koyr/cmd"
	"github.com/cristianoliveira/koyr/internal/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(c *cobra.Command, args []string) {
			fmt.Fprintf(c.OutOrStdout(), "koyr version %s\n", version.String())
		},
	}
}

func init() {
	cmd.RootCmd.AddCommand(NewVersionCmd())
}
