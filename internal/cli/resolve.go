package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/madebygps/functions-cosmos-inventory/internal/resolve"
)

var (
	resolveTemplateName string
	resolveParams       map[string]string
	resolveParamsFile   string
	resolveJSON         bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [template-file]",
	Short: "Resolve a template and print the creation order",
	Long: `Resolves the template into its dependency graph and prints the
node addresses in creation order. With --json the full graph is printed,
with secure parameter values masked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveTemplateName, "template", "main", "Built-in template to resolve")
	resolveCmd.Flags().StringToStringVarP(&resolveParams, "param", "p", nil, "Set parameters (format: key=value)")
	resolveCmd.Flags().StringVar(&resolveParamsFile, "params-file", "", "JSON file with parameter values")
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "Print the full graph as JSON")
}

func runResolve(cmd *cobra.Command, args []string) error {
	reg, _, err := newRegistry()
	if err != nil {
		return err
	}

	t, err := selectTemplate(cmd.Context(), reg, resolveTemplateName, args)
	if err != nil {
		return err
	}

	supplied, err := gatherParameters(t, resolveParamsFile, resolveParams)
	if err != nil {
		return err
	}

	r := resolve.New(reg)
	g, err := r.Resolve(t, supplied)
	if err != nil {
		return err
	}

	if resolveJSON {
		// Round-trip through JSON so the redactor sees plain maps and
		// slices rather than node structs.
		raw, err := json.Marshal(map[string]any{
			"template": g.Template,
			"nodes":    g.Nodes,
			"outputs":  maskedOutputs(g),
		})
		if err != nil {
			return fmt.Errorf("failed to serialize graph: %w", err)
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("failed to serialize graph: %w", err)
		}
		data, err := json.MarshalIndent(r.Redactor().Mask(doc), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize graph: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Creation order for %q:\n", g.Template)
	for i, n := range g.Nodes {
		fmt.Printf("  %2d. %s\n", i+1, n.Address)
	}
	return nil
}
