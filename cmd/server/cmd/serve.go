package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mrintern/server/internal/api"
	"github.com/mrintern/server/internal/config"
	"github.com/mrintern/server/internal/metrics"
	"github.com/mrintern/server/internal/storage/postgres"
	"github.com/mrintern/server/internal/telemetry"
)

var (
	serverHost  string
	serverPort  int
	autoMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and background workers",
	Long: `Start the HTTP server.

The server:
- loads configuration from the environment (a .env file is read when present)
- optionally applies pending migrations (--migrate)
- creates or promotes the admin account from ADMIN_EMAIL / ADMIN_PASSWORD
- starts River workers for the scheduled alert check and listing imports
- shuts down gracefully on SIGINT/SIGTERM

Examples:
  server serve
  server serve --host 127.0.0.1 --port 9090 --log-format console
  server serve --migrate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverHost, "host", "", "listen address (default: SERVER_HOST or 0.0.0.0)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "listen port (default: SERVER_PORT or 8080)")
	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", false, "apply schema and job queue migrations before serving")
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Str("version", Version).Str("environment", cfg.Environment).Msg("starting mrintern server")
	metrics.Init(Version, GitCommit, BuildDate)

	shutdownTracing, err := telemetry.InitTracing(context.Background(), cfg.Tracing, Version, cfg.Environment)
	if err != nil {
		logger.Error().Err(err).Msg("tracing disabled")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(ctx); err != nil {
				logger.Error().Err(err).Msg("tracing shutdown error")
			}
		}()
	}

	poolCtx, poolCancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := postgres.NewPool(poolCtx, cfg.Database)
	poolCancel()
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	if autoMigrate {
		if err := postgres.MigrateUp(cfg.Database.URL, postgres.DefaultMigrationsPath); err != nil {
			return err
		}
		if err := postgres.MigrateRiver(context.Background(), pool); err != nil {
			return err
		}
		logger.Info().Msg("migrations applied")
	}

	bootstrapCtx, bootstrapCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := bootstrapAdmin(bootstrapCtx, cfg, pool, logger); err != nil {
		logger.Error().Err(err).Msg("admin bootstrap failed")
	}
	bootstrapCancel()

	if err := metrics.Registry.Register(metrics.NewPoolCollector(pool)); err != nil {
		logger.Warn().Err(err).Msg("pool metrics not registered")
	}

	routerWithClient := api.NewRouter(cfg, logger, pool, Version, GitCommit, BuildDate)

	if routerWithClient.RiverClient != nil {
		riverCtx, riverCancel := context.WithCancel(context.Background())
		defer riverCancel()
		if err := routerWithClient.RiverClient.Start(riverCtx); err != nil {
			return fmt.Errorf("river workers failed to start: %w", err)
		}
		logger.Info().Msg("river workers started")
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer stopCancel()
			if err := routerWithClient.RiverClient.Stop(stopCtx); err != nil {
				logger.Error().Err(err).Msg("river workers shutdown error")
			} else {
				logger.Info().Msg("river workers stopped")
			}
		}()
	} else {
		logger.Warn().Msg("river client not initialized; scheduled alert checks will not run")
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           routerWithClient.Handler,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second, // inline alert checks can run long
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	return gracefulShutdown(server, errCh, logger)
}

func gracefulShutdown(server *http.Server, errCh <-chan error, logger zerolog.Logger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
