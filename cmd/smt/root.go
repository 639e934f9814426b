package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "smt",
		Short:         "Surrogate modeling toolbox",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newModelsCmd(), newRunCmd())
	return root
}
