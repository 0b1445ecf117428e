package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrintern/server/internal/config"
	"github.com/mrintern/server/internal/jobs"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Saved-filter alert tools",
}

var alertsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the alert check once and print the report",
	Long: `Checks every enabled alert preference for listings created since its last
notification, sends the email and push notifications, and prints a JSON report.

This is the same run the scheduled job and POST /api/check-alerts perform.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		logger := config.NewLogger(cfg.Logging)

		ctx := cmd.Context()
		repo, closeDB, err := openRepository(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeDB()

		report, err := newAlertChecker(cfg, repo, logger).Run(ctx, jobs.TriggerCLI)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	rootCmd.AddCommand(alertsCmd)
	alertsCmd.AddCommand(alertsCheckCmd)
}
