package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	"github.com/mrintern/server/internal/metrics"
)

// FailureFunc observes a failed or panicked job attempt.
type FailureFunc func(ctx context.Context, job *rivertype.JobRow, err error)

// FailureHandler is River's ErrorHandler. Every failure is counted; retries log
// at warn and the last attempt logs at error.
type FailureHandler struct {
	logger    *slog.Logger
	onFailure FailureFunc
}

func NewFailureHandler(logger *slog.Logger, onFailure FailureFunc) *FailureHandler {
	return &FailureHandler{logger: logger, onFailure: onFailure}
}

func (h *FailureHandler) HandleError(ctx context.Context, job *rivertype.JobRow, err error) *river.ErrorHandlerResult {
	h.record(ctx, job, err, "job attempt failed")
	return nil
}

func (h *FailureHandler) HandlePanic(ctx context.Context, job *rivertype.JobRow, panicVal any, trace string) *river.ErrorHandlerResult {
	err := fmt.Errorf("panic: %v", panicVal)
	h.record(ctx, job, err, "job panicked", "trace", trace)
	return nil
}

func (h *FailureHandler) record(ctx context.Context, job *rivertype.JobRow, err error, msg string, extra ...any) {
	metrics.JobFailuresTotal.WithLabelValues(job.Kind).Inc()

	if h.logger != nil {
		level := slog.LevelWarn
		if job.Attempt >= job.MaxAttempts {
			level = slog.LevelError
		}
		args := append([]any{"job_id", job.ID, "kind", job.Kind, "attempt", job.Attempt, "max_attempts", job.MaxAttempts, "error", err}, extra...)
		h.logger.Log(ctx, level, msg, args...)
	}
	if h.onFailure != nil {
		h.onFailure(ctx, job, err)
	}
}
