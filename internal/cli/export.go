package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/madebygps/functions-cosmos-inventory/internal/export"
)

var (
	exportTemplateName string
	exportParams       map[string]string
	exportParamsFile   string
	exportOut          string
)

var exportCmd = &cobra.Command{
	Use:   "export [template-file]",
	Short: "Render the resolved graph as an ARM deployment template",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportTemplateName, "template", "main", "Built-in template to export")
	exportCmd.Flags().StringToStringVarP(&exportParams, "param", "p", nil, "Set parameters (format: key=value)")
	exportCmd.Flags().StringVar(&exportParamsFile, "params-file", "", "JSON file with parameter values")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Write the template to a file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	reg, cat, err := newRegistry()
	if err != nil {
		return err
	}

	t, err := selectTemplate(cmd.Context(), reg, exportTemplateName, args)
	if err != nil {
		return err
	}

	supplied, err := gatherParameters(t, exportParamsFile, exportParams)
	if err != nil {
		return err
	}

	g, err := resolveTemplate(reg, t, supplied)
	if err != nil {
		return err
	}

	doc, err := export.ARMTemplate(g, cat)
	if err != nil {
		return err
	}

	if exportOut != "" {
		if err := os.WriteFile(exportOut, doc, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", exportOut, err)
		}
		fmt.Printf("Wrote %s\n", exportOut)
		return nil
	}

	fmt.Print(string(doc))
	return nil
}
