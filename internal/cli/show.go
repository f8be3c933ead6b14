package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/madebygps/functions-cosmos-inventory/internal/record"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the deployment record",
	Long: `Prints the last written deployment record: serial, lineage,
applied resources and their reported outputs. Secure template outputs
are masked.`,
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	path, err := recordPath()
	if err != nil {
		return err
	}

	rec, err := record.NewManager(path).Read()
	if err != nil {
		return fmt.Errorf("failed to read record: %w", err)
	}

	masked := map[string]any{
		"version":      rec.Version,
		"serial":       rec.Serial,
		"lineage":      rec.Lineage,
		"deploymentId": rec.DeploymentID,
		"timestamp":    rec.Timestamp,
		"template":     rec.Template,
		"resources":    rec.Resources,
	}
	outputs := make(map[string]any, len(rec.Outputs))
	for name, o := range rec.Outputs {
		outputs[name] = displayValue(o, false)
	}
	masked["outputs"] = outputs

	data, err := json.MarshalIndent(masked, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
