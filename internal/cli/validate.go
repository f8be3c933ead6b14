package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	validateTemplate   string
	validateParams     map[string]string
	validateParamsFile string
)

var validateCmd = &cobra.Command{
	Use:   "validate [template-file]",
	Short: "Validate a template and its parameters",
	Long: `Resolves the template without applying anything. Parameter
violations, dangling references, duplicate names and dependency cycles
are reported as errors.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateTemplate, "template", "main", "Built-in template to validate")
	validateCmd.Flags().StringToStringVarP(&validateParams, "param", "p", nil, "Set parameters (format: key=value)")
	validateCmd.Flags().StringVar(&validateParamsFile, "params-file", "", "JSON file with parameter values")
}

func runValidate(cmd *cobra.Command, args []string) error {
	reg, _, err := newRegistry()
	if err != nil {
		return err
	}

	t, err := selectTemplate(cmd.Context(), reg, validateTemplate, args)
	if err != nil {
		return err
	}

	supplied, err := gatherParameters(t, validateParamsFile, validateParams)
	if err != nil {
		return err
	}

	g, err := resolveTemplate(reg, t, supplied)
	if err != nil {
		return err
	}

	fmt.Printf("Template %q is valid: %d resources, %d outputs.\n", t.Name, len(g.Nodes), len(g.Outputs))
	return nil
}
