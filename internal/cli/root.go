package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand assembles the catchflow command tree: run and graph.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "catchflow",
		Short:         "Deterministic per-reach catchment scheduler",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCommand())
	root.AddCommand(newGraphCommand())
	return root
}
