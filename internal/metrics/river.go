package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

var (
	JobsEnqueued = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "enqueued_total",
			Help:      "Background jobs inserted, by kind.",
		},
		[]string{"kind"},
	)

	JobsRunning = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "running",
			Help:      "Background jobs currently being worked.",
		},
		[]string{"kind"},
	)

	JobRunSeconds = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "run_seconds",
			Help:      "Wall time of a single job attempt.",
			Buckets:   []float64{0.05, 0.25, 1, 5, 15, 60, 180, 600},
		},
		[]string{"kind"},
	)

	// outcome: ok, retry (attempts remain), exhausted.
	JobAttempts = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "attempts_total",
			Help:      "Finished job attempts by outcome.",
		},
		[]string{"kind", "outcome"},
	)
)

// JobHook feeds the jobs_* metrics from River's insert and work lifecycle.
type JobHook struct {
	river.HookDefaults
	now func() time.Time
}

func NewJobHook() *JobHook {
	return &JobHook{now: time.Now}
}

func (h *JobHook) InsertBegin(_ context.Context, params *rivertype.JobInsertParams) error {
	JobsEnqueued.WithLabelValues(params.Kind).Inc()
	return nil
}

func (h *JobHook) WorkBegin(_ context.Context, job *rivertype.JobRow) error {
	JobsRunning.WithLabelValues(job.Kind).Inc()
	return nil
}

func (h *JobHook) WorkEnd(_ context.Context, job *rivertype.JobRow, err error) error {
	JobsRunning.WithLabelValues(job.Kind).Dec()
	if job.AttemptedAt != nil {
		JobRunSeconds.WithLabelValues(job.Kind).Observe(h.now().Sub(*job.AttemptedAt).Seconds())
	}
	JobAttempts.WithLabelValues(job.Kind, attemptOutcome(job, err)).Inc()
	return nil
}

func attemptOutcome(job *rivertype.JobRow, err error) string {
	switch {
	case err == nil:
		return "ok"
	case job.Attempt >= job.MaxAttempts:
		return "exhausted"
	default:
		return "retry"
	}
}
