package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/madebygps/functions-cosmos-inventory/internal/record"
)

var (
	outputJSON        bool
	outputShowSecrets bool
)

var outputCmd = &cobra.Command{
	Use:   "output [name]",
	Short: "Show output values from the deployment record",
	Long: `Reads output values from the deployment record.

If no name is given, all outputs are displayed. If a name is given,
only that output's value is printed. Secure outputs are masked unless
--show-secrets is set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOutput,
}

func init() {
	outputCmd.Flags().BoolVar(&outputJSON, "json", false, "Output in JSON format")
	outputCmd.Flags().BoolVar(&outputShowSecrets, "show-secrets", false, "Print secure output values instead of masking them")
}

func runOutput(cmd *cobra.Command, args []string) error {
	path, err := recordPath()
	if err != nil {
		return err
	}

	rec, err := record.NewManager(path).Read()
	if err != nil {
		return fmt.Errorf("failed to read record: %w", err)
	}

	if len(args) > 0 {
		name := args[0]
		o, ok := rec.Outputs[name]
		if !ok {
			return fmt.Errorf("output %q not found", name)
		}
		val := displayValue(o, outputShowSecrets)
		if outputJSON {
			data, _ := json.Marshal(val)
			fmt.Println(string(data))
		} else {
			fmt.Println(val)
		}
		return nil
	}

	if len(rec.Outputs) == 0 {
		fmt.Println("No outputs recorded.")
		return nil
	}

	if outputJSON {
		vals := make(map[string]any, len(rec.Outputs))
		for name, o := range rec.Outputs {
			vals[name] = displayValue(o, outputShowSecrets)
		}
		data, _ := json.MarshalIndent(vals, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	renderOutputs(rec.Outputs, outputShowSecrets)
	return nil
}
