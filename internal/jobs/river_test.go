package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	"github.com/mrintern/server/internal/metrics"
)

func TestNewRetryPolicy(t *testing.T) {
	policy := NewRetryPolicy()

	if policy.Default.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("Default.MaxAttempts = %d, want %d", policy.Default.MaxAttempts, DefaultMaxAttempts)
	}

	tests := []struct {
		kind        string
		maxAttempts int
		baseDelay   time.Duration
		maxDelay    time.Duration
	}{
		{JobKindAlertCheck, AlertCheckMaxAttempts, 5 * time.Minute, time.Hour},
		{JobKindImportSources, ImportSourcesMaxAttempts, 15 * time.Minute, 15 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			cfg, ok := policy.ByKind[tt.kind]
			if !ok {
				t.Fatalf("no retry config for %q", tt.kind)
			}
			if cfg.MaxAttempts != tt.maxAttempts {
				t.Errorf("MaxAttempts = %d, want %d", cfg.MaxAttempts, tt.maxAttempts)
			}
			if cfg.BaseDelay != tt.baseDelay {
				t.Errorf("BaseDelay = %v, want %v", cfg.BaseDelay, tt.baseDelay)
			}
			if cfg.MaxDelay != tt.maxDelay {
				t.Errorf("MaxDelay = %v, want %v", cfg.MaxDelay, tt.maxDelay)
			}
		})
	}
}

func TestRetryPolicy_NextRetry(t *testing.T) {
	policy := NewRetryPolicy()
	attemptedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{"first attempt", 1, 5 * time.Minute},
		{"second attempt doubles", 2, 10 * time.Minute},
		{"capped at max delay", 6, time.Hour},
		{"zero attempt treated as first", 0, 5 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &rivertype.JobRow{Kind: JobKindAlertCheck, Attempt: tt.attempt, AttemptedAt: &attemptedAt}
			got := policy.NextRetry(job)
			if want := attemptedAt.Add(tt.want); !got.Equal(want) {
				t.Errorf("NextRetry() = %v, want %v", got, want)
			}
		})
	}
}

func TestRetryPolicy_UnknownKindUsesDefault(t *testing.T) {
	policy := NewRetryPolicy()
	attemptedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	job := &rivertype.JobRow{Kind: "something_else", Attempt: 1, AttemptedAt: &attemptedAt}

	if got, want := policy.NextRetry(job), attemptedAt.Add(30*time.Second); !got.Equal(want) {
		t.Errorf("NextRetry() = %v, want %v", got, want)
	}
}

func TestInsertOptsForKind(t *testing.T) {
	opts := InsertOptsForKind(JobKindAlertCheck)
	if opts.MaxAttempts != AlertCheckMaxAttempts {
		t.Errorf("alert check MaxAttempts = %d, want %d", opts.MaxAttempts, AlertCheckMaxAttempts)
	}
	if opts.Queue != "" {
		t.Errorf("alert check Queue = %q, want default", opts.Queue)
	}

	opts = InsertOptsForKind(JobKindImportSources)
	if opts.Queue != QueueImports {
		t.Errorf("import Queue = %q, want %q", opts.Queue, QueueImports)
	}
}

func TestNewClientConfig(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	workers := NewWorkers(Deps{})
	cfg := NewClientConfig(workers, 5, logger, nil, nil, NewPeriodicJobs(Schedule{AlertCheck: time.Hour}))

	if cfg.Workers != workers {
		t.Error("Workers not set")
	}
	if got := cfg.Queues[river.QueueDefault].MaxWorkers; got != 5 {
		t.Errorf("default queue MaxWorkers = %d, want 5", got)
	}
	if _, ok := cfg.Queues[QueueImports]; !ok {
		t.Errorf("missing %q queue", QueueImports)
	}
	if cfg.ErrorHandler == nil {
		t.Error("ErrorHandler not set")
	}
	if len(cfg.PeriodicJobs) != 1 {
		t.Errorf("PeriodicJobs = %d, want 1", len(cfg.PeriodicJobs))
	}
	if cfg.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("MaxAttempts = %d, want %d", cfg.MaxAttempts, DefaultMaxAttempts)
	}
}

func TestNewClientConfig_InsertOnly(t *testing.T) {
	cfg := NewClientConfig(nil, 0, nil, nil, nil, nil)
	if cfg.Workers != nil || cfg.Queues != nil {
		t.Error("insert-only config should have no workers or queues")
	}
	if cfg.ErrorHandler != nil {
		t.Error("ErrorHandler should be nil without a logger")
	}
}

func TestNewPeriodicJobs(t *testing.T) {
	tests := []struct {
		name     string
		schedule Schedule
		want     int
	}{
		{"disabled", Schedule{}, 0},
		{"alerts only", Schedule{AlertCheck: 24 * time.Hour}, 1},
		{"alerts and imports", Schedule{AlertCheck: 24 * time.Hour, Import: 6 * time.Hour}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(NewPeriodicJobs(tt.schedule)); got != tt.want {
				t.Errorf("len(NewPeriodicJobs()) = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFailureHandler(t *testing.T) {
	var seen []error
	h := NewFailureHandler(slog.New(slog.DiscardHandler), func(_ context.Context, _ *rivertype.JobRow, err error) {
		seen = append(seen, err)
	})
	job := &rivertype.JobRow{ID: 7, Kind: JobKindAlertCheck, Attempt: 1, MaxAttempts: AlertCheckMaxAttempts}
	before := testutil.ToFloat64(metrics.JobFailuresTotal.WithLabelValues(JobKindAlertCheck))

	if res := h.HandleError(context.Background(), job, errors.New("boom")); res != nil {
		t.Errorf("HandleError() = %v, want nil", res)
	}
	if res := h.HandlePanic(context.Background(), job, "kaboom", "trace"); res != nil {
		t.Errorf("HandlePanic() = %v, want nil", res)
	}
	if len(seen) != 2 {
		t.Fatalf("callback ran %d times, want 2", len(seen))
	}
	if seen[1].Error() != "panic: kaboom" {
		t.Errorf("panic error = %q", seen[1])
	}
	if got := testutil.ToFloat64(metrics.JobFailuresTotal.WithLabelValues(JobKindAlertCheck)); got != before+2 {
		t.Errorf("failures counted = %v, want %v", got, before+2)
	}
}

func TestFailureHandler_NoLoggerNoCallback(t *testing.T) {
	h := NewFailureHandler(nil, nil)
	h.HandleError(context.Background(), &rivertype.JobRow{Kind: JobKindImportSources, Attempt: 2, MaxAttempts: 2}, errors.New("x"))
}

var _ river.ClientRetryPolicy = (*RetryPolicy)(nil)
