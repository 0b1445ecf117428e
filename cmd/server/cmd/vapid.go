package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrintern/server/internal/push"
)

var vapidCmd = &cobra.Command{
	Use:   "vapid",
	Short: "Web push key tools",
}

var vapidGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Print a new VAPID key pair as environment assignments",
	RunE: func(cmd *cobra.Command, args []string) error {
		public, private, err := push.GenerateVAPIDKeys()
		if err != nil {
			return fmt.Errorf("generate vapid keys: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "VAPID_PUBLIC_KEY=%s\n", public)
		fmt.Fprintf(out, "VAPID_PRIVATE_KEY=%s\n", private)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(vapidCmd)
	vapidCmd.AddCommand(vapidGenerateCmd)
}
