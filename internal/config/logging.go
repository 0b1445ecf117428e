package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewLogger builds the process logger and installs it as the zerolog global.
func NewLogger(cfg LoggingConfig) zerolog.Logger {
	return newLogger(cfg, os.Stdout)
}

func newLogger(cfg LoggingConfig, out io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	output := out
	if strings.EqualFold(cfg.Format, "console") {
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "mrintern").Logger()
	log.Logger = logger
	return logger
}

// NewSlogLogger returns a log/slog logger for libraries that only accept slog
// (the River job client), honouring the same level and format settings.
func NewSlogLogger(cfg LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "trace", "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error", "fatal", "panic":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "console") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts)).With("component", "jobs")
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts)).With("component", "jobs")
}
