package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a deployment directory",
	Long:  `Creates the .inventoryctl directory and a starter parameters file.`,
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(".inventoryctl", 0755); err != nil {
		return fmt.Errorf("failed to create .inventoryctl directory: %w", err)
	}

	paramsFile := "params.json"
	if _, err := os.Stat(paramsFile); os.IsNotExist(err) {
		content := `{
  "namePrefix": "inventory",
  "location": "eastus",
  "runtime": "python",
  "containers": [
    {"name": "data"}
  ],
  "tags": {
    "environment": "dev"
  }
}
`
		if err := os.WriteFile(paramsFile, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to create %s: %w", paramsFile, err)
		}
		fmt.Printf("Created %s\n", paramsFile)
	}

	fmt.Println("\nInitialized successfully!")
	fmt.Println("Next steps:")
	fmt.Println("  1. Edit params.json to fit your deployment")
	fmt.Println("  2. Run 'inventoryctl resolve --params-file params.json' to inspect the graph")
	fmt.Println("  3. Run 'inventoryctl apply --params-file params.json' to deploy")

	return nil
}
