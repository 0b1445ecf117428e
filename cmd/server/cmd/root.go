package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	logLevel  string
	logFormat string

	rootCmd = &cobra.Command{
		Use:   "server",
		Short: "Mr.Intern server: internship listings, saved-filter alerts and application tracking",
		Long: `Mr.Intern serves the internship board: listings with filters, saved filters
with email and web push alerts, an application tracker, company reviews, resume
feedback and an advice board.

Running the binary without a subcommand starts the HTTP server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveCmd.RunE(cmd, args)
		},
	}
)

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default: LOG_LEVEL or info)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: json or console (default: LOG_FORMAT or json)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(healthcheckCmd)
}
