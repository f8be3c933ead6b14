package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version and Commit are set at build time via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("inventoryctl %s (commit %s, %s/%s, %s)\n",
			Version, Commit, runtime.GOOS, runtime.GOARCH, runtime.Version())
	},
}
