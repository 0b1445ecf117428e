package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrintern/server/internal/config"
	"github.com/mrintern/server/internal/email"
)

var emailCmd = &cobra.Command{
	Use:   "email",
	Short: "Email delivery tools",
}

var emailTestCmd = &cobra.Command{
	Use:   "test <address>",
	Short: "Send a test message through the configured provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		logger := config.NewLogger(cfg.Logging)
		svc, err := email.NewService(cfg.Email, cfg.Server.BaseURL, logger)
		if err != nil {
			return err
		}
		if !svc.Enabled() {
			return fmt.Errorf("email is disabled; set EMAIL_ENABLED=true")
		}
		if err := svc.SendTest(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "test email sent to %s via %s\n", args[0], cfg.Email.Provider)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(emailCmd)
	emailCmd.AddCommand(emailTestCmd)
}
