package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrintern/server/internal/domain/internships"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the sample listing if it is missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		repo, closeDB, err := openRepository(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeDB()

		listing, created, err := internships.NewService(repo.Internships()).Seed(cmd.Context())
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		verb := "already present"
		if created {
			verb = "created"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "sample listing %s: %s at %s (%s)\n", verb, listing.Title, listing.Company, listing.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
