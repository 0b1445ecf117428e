package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/mrintern/server/internal/alerts"
	"github.com/mrintern/server/internal/config"
	"github.com/mrintern/server/internal/domain/subscriptions"
	"github.com/mrintern/server/internal/domain/users"
	"github.com/mrintern/server/internal/email"
	"github.com/mrintern/server/internal/push"
	"github.com/mrintern/server/internal/storage/postgres"
)

// loadConfig reads the environment and applies the global logging flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}

// databaseURL resolves the connection string for commands that only need
// the database: flag first, then DATABASE_URL from the environment or .env.
func databaseURL(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	_ = godotenv.Load()
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url, nil
	}
	return "", fmt.Errorf("DATABASE_URL is not set (use --database-url or .env)")
}

func openRepository(ctx context.Context, cfg config.Config) (*postgres.Repository, func(), error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := postgres.NewPool(connectCtx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	repo, err := postgres.NewRepository(pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return repo, pool.Close, nil
}

// cliLogger writes human-readable logs to stderr so command output on stdout
// stays machine-readable.
func cliLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil || logLevel == "" {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()
}

// newAlertChecker wires the checker the same way the server does. Channels
// that fail to configure are left out and logged.
func newAlertChecker(cfg config.Config, repo *postgres.Repository, logger zerolog.Logger) *alerts.Checker {
	subs := subscriptions.NewService(repo.Subscriptions())

	var mailer alerts.Mailer
	svc, err := email.NewService(cfg.Email, cfg.Server.BaseURL, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("email disabled for this run")
	} else {
		mailer = svc
	}

	pusher := push.NewSender(cfg.Push, subs, logger)
	return alerts.NewChecker(repo.Alerts(), mailer, subs, pusher, cfg.Jobs.AlertLookback, logger)
}

// bootstrapAdmin creates or promotes the ADMIN_EMAIL account.
func bootstrapAdmin(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, logger zerolog.Logger) error {
	b := cfg.AdminBootstrap
	if b.Email == "" || b.Password == "" {
		logger.Debug().Msg("ADMIN_EMAIL or ADMIN_PASSWORD unset; skipping admin bootstrap")
		return nil
	}
	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return err
	}
	created, err := users.NewService(repo.Users(), logger).EnsureAdmin(ctx, b.Name, b.Email, b.Password)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		event := logger.Info()
		if cfg.Environment != "production" {
			event = event.Str("email", b.Email)
		}
		event.Msg("bootstrapped admin user")
	}
	return nil
}
