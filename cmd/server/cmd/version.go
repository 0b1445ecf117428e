package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set through -ldflags at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "mrintern server %s\n", Version)
		fmt.Fprintf(out, "  commit:   %s\n", GitCommit)
		fmt.Fprintf(out, "  built:    %s\n", BuildDate)
		fmt.Fprintf(out, "  go:       %s\n", runtime.Version())
		fmt.Fprintf(out, "  platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}
