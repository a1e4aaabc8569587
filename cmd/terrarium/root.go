package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"terrarium/commands"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "terrarium",
		Short:         "Tick-driven sandbox for autonomous agents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newCatalogCmd())
	return root
}

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the world verb catalogue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), commands.Catalogue)
			return err
		},
	}
}
