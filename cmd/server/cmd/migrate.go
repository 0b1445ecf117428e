package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/mrintern/server/internal/storage/postgres"
)

var (
	migrateDatabaseURL string
	migrationsPath     string
	migrateSteps       int
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
	Long: `Apply or roll back schema migrations with golang-migrate and create the
River job queue tables.

Examples:
  server migrate up
  server migrate down --steps 1
  server migrate status`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations and the job queue schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := databaseURL(migrateDatabaseURL)
		if err != nil {
			return err
		}
		if err := postgres.MigrateUp(url, migrationsPath); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		pool, err := pgxpool.New(ctx, url)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		if err := postgres.MigrateRiver(ctx, pool); err != nil {
			return err
		}
		return printMigrationStatus(cmd, url)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := databaseURL(migrateDatabaseURL)
		if err != nil {
			return err
		}
		if err := postgres.MigrateDown(url, migrationsPath, migrateSteps); err != nil {
			return err
		}
		return printMigrationStatus(cmd, url)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the applied schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := databaseURL(migrateDatabaseURL)
		if err != nil {
			return err
		}
		return printMigrationStatus(cmd, url)
	},
}

func printMigrationStatus(cmd *cobra.Command, url string) error {
	version, dirty, err := postgres.MigrationVersion(url, migrationsPath)
	if err != nil {
		return err
	}
	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (%s)\n", version, state)
	return nil
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)

	migrateCmd.PersistentFlags().StringVar(&migrateDatabaseURL, "database-url", "", "database URL (default: DATABASE_URL)")
	migrateCmd.PersistentFlags().StringVar(&migrationsPath, "path", postgres.DefaultMigrationsPath, "migrations directory")
	migrateDownCmd.Flags().IntVar(&migrateSteps, "steps", 1, "number of migrations to roll back")
}
