package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"go.opentelemetry.io/otel/trace"

	"github.com/mrintern/server/internal/alerts"
	"github.com/mrintern/server/internal/scraper"
	"github.com/mrintern/server/internal/telemetry"
)

// Alert check triggers, recorded in metrics and logs.
const (
	TriggerSchedule = "schedule"
	TriggerAPI      = "api"
	TriggerCLI      = "cli"
)

// AlertRunner runs one pass of the alert matcher.
type AlertRunner interface {
	Run(ctx context.Context, trigger string) (alerts.Report, error)
}

// SourceImporter imports every configured listing source.
type SourceImporter interface {
	ImportAll(ctx context.Context, opts scraper.Options) ([]scraper.Result, error)
}

type AlertCheckArgs struct {
	Trigger string `json:"trigger"`
}

func (AlertCheckArgs) Kind() string { return JobKindAlertCheck }

// AlertCheckWorker runs the alert matcher. A run that could not load
// preferences returns an error so River retries it.
type AlertCheckWorker struct {
	river.WorkerDefaults[AlertCheckArgs]
	Alerts AlertRunner
}

func (AlertCheckWorker) Kind() string { return JobKindAlertCheck }

func (AlertCheckWorker) Timeout(*river.Job[AlertCheckArgs]) time.Duration { return 30 * time.Minute }

func (w AlertCheckWorker) Work(ctx context.Context, job *river.Job[AlertCheckArgs]) (err error) {
	if job == nil {
		return fmt.Errorf("alert check job missing")
	}
	if w.Alerts == nil {
		return fmt.Errorf("alert checker not configured")
	}
	ctx, span := startSpan(ctx, JobKindAlertCheck, job.JobRow)
	defer func() { telemetry.EndSpan(span, err) }()

	trigger := job.Args.Trigger
	if trigger == "" {
		trigger = TriggerSchedule
	}
	if _, err := w.Alerts.Run(ctx, trigger); err != nil {
		return fmt.Errorf("alert check: %w", err)
	}
	return nil
}

type ImportSourcesArgs struct {
	SourcesDir string `json:"sources_dir,omitempty"`
}

func (ImportSourcesArgs) Kind() string { return JobKindImportSources }

// ImportSourcesWorker imports all enabled sources. Per-source failures are
// reported in the results and do not fail the job.
type ImportSourcesWorker struct {
	river.WorkerDefaults[ImportSourcesArgs]
	Importer SourceImporter
}

func (ImportSourcesWorker) Kind() string { return JobKindImportSources }

func (ImportSourcesWorker) Timeout(*river.Job[ImportSourcesArgs]) time.Duration { return 20 * time.Minute }

func (w ImportSourcesWorker) Work(ctx context.Context, job *river.Job[ImportSourcesArgs]) (err error) {
	if job == nil {
		return fmt.Errorf("import job missing")
	}
	if w.Importer == nil {
		return fmt.Errorf("importer not configured")
	}
	ctx, span := startSpan(ctx, JobKindImportSources, job.JobRow)
	defer func() { telemetry.EndSpan(span, err) }()

	results, err := w.Importer.ImportAll(ctx, scraper.Options{SourcesDir: job.Args.SourcesDir})
	if err != nil && len(results) == 0 {
		return fmt.Errorf("import sources: %w", err)
	}
	return nil
}

// startSpan accepts a nil row for jobs built outside a River client.
func startSpan(ctx context.Context, kind string, row *rivertype.JobRow) (context.Context, trace.Span) {
	var id int64
	var attempt int
	if row != nil {
		id, attempt = row.ID, row.Attempt
	}
	return telemetry.StartJobSpan(ctx, kind, id, attempt)
}

// Deps are the services the workers call into. A nil Importer leaves the
// import worker unregistered.
type Deps struct {
	Alerts   AlertRunner
	Importer SourceImporter
}

// NewWorkers registers every worker backed by deps.
func NewWorkers(deps Deps) *river.Workers {
	workers := river.NewWorkers()
	river.AddWorker[AlertCheckArgs](workers, AlertCheckWorker{Alerts: deps.Alerts})
	if deps.Importer != nil {
		river.AddWorker[ImportSourcesArgs](workers, ImportSourcesWorker{Importer: deps.Importer})
	}
	return workers
}

// Inserter is the slice of the River client the enqueuer needs.
type Inserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// Enqueuer queues jobs on behalf of HTTP handlers and the CLI.
type Enqueuer struct {
	client Inserter
}

func NewEnqueuer(client Inserter) *Enqueuer {
	return &Enqueuer{client: client}
}

var ErrQueueUnavailable = errors.New("job queue unavailable")

// EnqueueAlertCheck queues an alert check and returns its job id.
func (e *Enqueuer) EnqueueAlertCheck(ctx context.Context, trigger string) (int64, error) {
	return e.insert(ctx, AlertCheckArgs{Trigger: trigger})
}

// EnqueueImport queues an import of every enabled source.
func (e *Enqueuer) EnqueueImport(ctx context.Context, sourcesDir string) (int64, error) {
	return e.insert(ctx, ImportSourcesArgs{SourcesDir: sourcesDir})
}

func (e *Enqueuer) insert(ctx context.Context, args river.JobArgs) (int64, error) {
	if e == nil || e.client == nil {
		return 0, ErrQueueUnavailable
	}
	opts := InsertOptsForKind(args.Kind())
	res, err := e.client.Insert(ctx, args, &opts)
	if err != nil {
		return 0, fmt.Errorf("enqueue %s: %w", args.Kind(), err)
	}
	return res.Job.ID, nil
}

var _ Inserter = (*river.Client[pgx.Tx])(nil)
