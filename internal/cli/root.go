// Package cli implements the inventoryctl command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/madebygps/functions-cosmos-inventory/internal/logging"
)

var (
	logLevel      string
	templateProps map[string]string
)

var rootCmd = &cobra.Command{
	Use:   "inventoryctl",
	Short: "Declarative provisioning for the inventory Functions workload",
	Long: `Inventoryctl resolves declarative deployment templates for the
inventory API on Azure Functions: a storage account with optional blob
containers, a Linux function app with a system-assigned identity, the
monitoring stack, and the role assignment binding them together.

Templates are resolved into a dependency graph before anything is
applied, so dangling references, cycles and parameter violations are
reported up front.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(logLevel)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringToStringVar(&templateProps, "prop", nil, "External properties exposed to PKL templates (format: key=value)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(outputCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(versionCmd)
}
