// gentoken prints a session token for poking at the API locally.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrintern/server/internal/testauth"
)

func main() {
	var cfg testauth.Config
	var baseURL string

	cmd := &cobra.Command{
		Use:          "gentoken",
		Short:        "Sign a development session token",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := testauth.NewAuthenticator(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, a.Token())
			fmt.Fprintln(out)
			fmt.Fprintf(out, "curl -H 'Authorization: Bearer %s' %s/api/auth/session\n", a.Token(), baseURL)
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.UserID, "user", "", "user id (subject)")
	cmd.Flags().StringVar(&cfg.Role, "role", "admin", "admin or student")
	cmd.Flags().StringVar(&cfg.Email, "email", "", "email claim")
	cmd.Flags().StringVar(&cfg.Secret, "secret", "", "signing secret (default $JWT_SECRET, then the dev secret)")
	cmd.Flags().StringVar(&cfg.Issuer, "issuer", "", "issuer claim (default mrintern)")
	cmd.Flags().DurationVar(&cfg.TTL, "ttl", 0, "token lifetime (default 24h)")
	cmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:8080", "server base URL for the curl hint")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
