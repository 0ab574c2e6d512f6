package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xlandscape/catchflow/internal/ioload"
)

type graphOptions struct {
	reachPath  string
	outputPath string
}

func newGraphCommand() *cobra.Command {
	opts := &graphOptions{}
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render a reach table's topology as Graphviz DOT",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(opts)
		},
	}
	cmd.Flags().StringVar(&opts.reachPath, "reaches", "", "Path to the reach table YAML file. Required.")
	cmd.Flags().StringVar(&opts.outputPath, "output", "", "Path to write the DOT file (default stdout).")
	return cmd
}

func runGraph(opts *graphOptions) error {
	if strings.TrimSpace(opts.reachPath) == "" {
		return invalidInvocationf("--reaches is required")
	}

	table, err := ioload.LoadReachTable(opts.reachPath)
	if err != nil {
		return configErrorf("%v", err)
	}
	catch, err := ioload.BuildCatchment(table)
	if err != nil {
		return configErrorf("%v", err)
	}

	dot := catch.DOTGraph()
	if opts.outputPath == "" {
		fmt.Fprint(os.Stdout, dot)
		return nil
	}
	return os.WriteFile(opts.outputPath, []byte(dot), 0644)
}
