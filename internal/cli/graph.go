package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/madebygps/functions-cosmos-inventory/internal/export"
)

var (
	graphTemplateName string
	graphParams       map[string]string
	graphParamsFile   string
)

var graphCmd = &cobra.Command{
	Use:   "graph [template-file]",
	Short: "Output the dependency graph in DOT format",
	Long: `Generates a visual representation of the resource dependency graph
in Graphviz DOT format. Pipe the output to 'dot' to generate an image:

  inventoryctl graph | dot -Tpng > graph.png`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGraph,
}

func init() {
	graphCmd.Flags().StringVar(&graphTemplateName, "template", "main", "Built-in template to graph")
	graphCmd.Flags().StringToStringVarP(&graphParams, "param", "p", nil, "Set parameters (format: key=value)")
	graphCmd.Flags().StringVar(&graphParamsFile, "params-file", "", "JSON file with parameter values")
}

func runGraph(cmd *cobra.Command, args []string) error {
	reg, _, err := newRegistry()
	if err != nil {
		return err
	}

	t, err := selectTemplate(cmd.Context(), reg, graphTemplateName, args)
	if err != nil {
		return err
	}

	supplied, err := gatherParameters(t, graphParamsFile, graphParams)
	if err != nil {
		return err
	}

	g, err := resolveTemplate(reg, t, supplied)
	if err != nil {
		return err
	}

	dot, err := export.DOT(g)
	if err != nil {
		return err
	}
	fmt.Print(dot)
	return nil
}
