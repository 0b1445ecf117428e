package jobs

import (
	"log/slog"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
)

const (
	JobKindAlertCheck    = "alert_check"
	JobKindImportSources = "import_sources"
)

const (
	AlertCheckMaxAttempts    = 3
	ImportSourcesMaxAttempts = 2
	DefaultMaxAttempts       = 5
)

// QueueImports runs importer jobs one at a time so career sites see a single
// crawler.
const QueueImports = "imports"

// RetryConfig controls per-kind retry behavior.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RetryPolicy implements River's ClientRetryPolicy with per-kind exponential backoff.
type RetryPolicy struct {
	Default RetryConfig
	ByKind  map[string]RetryConfig
}

// NewRetryPolicy returns the default retry policy configuration.
func NewRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		Default: RetryConfig{
			MaxAttempts: DefaultMaxAttempts,
			BaseDelay:   30 * time.Second,
			MaxDelay:    30 * time.Minute,
		},
		ByKind: map[string]RetryConfig{
			JobKindAlertCheck: {
				MaxAttempts: AlertCheckMaxAttempts,
				BaseDelay:   5 * time.Minute,
				MaxDelay:    1 * time.Hour,
			},
			JobKindImportSources: {
				MaxAttempts: ImportSourcesMaxAttempts,
				BaseDelay:   15 * time.Minute,
				MaxDelay:    15 * time.Minute,
			},
		},
	}
}

// NextRetry determines the next retry time for a failed job.
func (p *RetryPolicy) NextRetry(job *rivertype.JobRow) time.Time {
	config := p.configFor(job.Kind)
	if config.BaseDelay == 0 {
		return time.Now()
	}

	attempt := job.Attempt
	if attempt < 1 {
		attempt = 1
	}

	delay := time.Duration(float64(config.BaseDelay) * math.Pow(2, float64(attempt-1)))
	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}

	if job.AttemptedAt != nil {
		return job.AttemptedAt.Add(delay)
	}
	return time.Now().Add(delay)
}

// InsertOptsForKind returns default insert options for a job kind.
func InsertOptsForKind(kind string) river.InsertOpts {
	config := NewRetryPolicy().configFor(kind)
	opts := river.InsertOpts{MaxAttempts: config.MaxAttempts}
	if kind == JobKindImportSources {
		opts.Queue = QueueImports
	}
	return opts
}

// NewClientConfig builds a River client configuration with retry policy.
// A nil workers value yields an insert-only client. maxWorkers sizes the
// default queue.
func NewClientConfig(workers *river.Workers, maxWorkers int, logger *slog.Logger, onFailure FailureFunc, hooks []rivertype.Hook, periodicJobs []*river.PeriodicJob) *river.Config {
	policy := NewRetryPolicy()
	config := &river.Config{
		RetryPolicy:  policy,
		MaxAttempts:  policy.Default.MaxAttempts,
		PeriodicJobs: periodicJobs,
		Hooks:        hooks,
	}
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	if workers != nil {
		config.Workers = workers
		config.Queues = map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: maxWorkers},
			QueueImports:       {MaxWorkers: 1},
		}
	}
	if logger != nil {
		config.Logger = logger
		config.ErrorHandler = NewFailureHandler(logger, onFailure)
	}
	return config
}

// NewClient creates a River client using pgx v5.
func NewClient(pool *pgxpool.Pool, workers *river.Workers, maxWorkers int, logger *slog.Logger, onFailure FailureFunc, hooks []rivertype.Hook, periodicJobs []*river.PeriodicJob) (*river.Client[pgx.Tx], error) {
	return river.NewClient(riverpgxv5.New(pool), NewClientConfig(workers, maxWorkers, logger, onFailure, hooks, periodicJobs))
}

// Schedule sets the periodic job intervals. A zero interval disables that job.
type Schedule struct {
	AlertCheck time.Duration
	Import     time.Duration
}

// NewPeriodicJobs creates the periodic job schedule.
func NewPeriodicJobs(s Schedule) []*river.PeriodicJob {
	var out []*river.PeriodicJob
	if s.AlertCheck > 0 {
		out = append(out, river.NewPeriodicJob(
			river.PeriodicInterval(s.AlertCheck),
			func() (river.JobArgs, *river.InsertOpts) {
				opts := InsertOptsForKind(JobKindAlertCheck)
				return AlertCheckArgs{Trigger: TriggerSchedule}, &opts
			},
			&river.PeriodicJobOpts{RunOnStart: false},
		))
	}
	if s.Import > 0 {
		out = append(out, river.NewPeriodicJob(
			river.PeriodicInterval(s.Import),
			func() (river.JobArgs, *river.InsertOpts) {
				opts := InsertOptsForKind(JobKindImportSources)
				return ImportSourcesArgs{}, &opts
			},
			&river.PeriodicJobOpts{RunOnStart: false},
		))
	}
	return out
}

func (p *RetryPolicy) configFor(kind string) RetryConfig {
	if p == nil {
		return RetryConfig{MaxAttempts: DefaultMaxAttempts, BaseDelay: 1 * time.Minute, MaxDelay: 1 * time.Hour}
	}
	if config, ok := p.ByKind[kind]; ok {
		return config
	}
	return p.Default
}
