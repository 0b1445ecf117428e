package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// HealthDB is the slice of the connection pool the health checks need.
type HealthDB interface {
	Ping(ctx context.Context) error
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// HealthReport is the readiness body.
type HealthReport struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

type CheckResult struct {
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

const (
	checkPass = "pass"
	checkWarn = "warn"
	checkFail = "fail"
)

// checkTimeout bounds each check so one slow dependency cannot starve the rest.
const checkTimeout = 2 * time.Second

// HealthChecker serves liveness, readiness and the database connectivity check.
type HealthChecker struct {
	db        HealthDB
	queue     bool
	version   string
	gitCommit string
	now       func() time.Time
}

// NewHealthChecker builds the checks. queue reports whether a job queue client
// is running in this process.
func NewHealthChecker(db HealthDB, queue bool, version, gitCommit string) *HealthChecker {
	return &HealthChecker{db: db, queue: queue, version: version, gitCommit: gitCommit, now: time.Now}
}

type statusBody struct {
	Status string `json:"status"`
}

// Healthz answers as long as the process is serving.
func (h *HealthChecker) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusBody{Status: "ok"})
}

// Readyz reports 503 when any dependency check fails. A warning degrades the
// status but keeps the instance in rotation.
func (h *HealthChecker) Readyz(w http.ResponseWriter, r *http.Request) {
	if r.Context().Err() != nil {
		writeJSON(w, http.StatusServiceUnavailable, statusBody{Status: "shutting_down"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]CheckResult{
		"database":   h.checkDatabase(ctx),
		"migrations": h.checkMigrations(ctx),
		"job_queue":  h.checkJobQueue(ctx),
	}

	status, code := "healthy", http.StatusOK
	for _, c := range checks {
		if c.Status == checkFail {
			status, code = "unhealthy", http.StatusServiceUnavailable
			break
		}
		if c.Status == checkWarn {
			status = "degraded"
		}
	}

	writeJSON(w, code, HealthReport{
		Status:    status,
		Version:   h.version,
		GitCommit: h.gitCommit,
		Checks:    checks,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

type dbTestResponse struct {
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

// DBTest is the plain connectivity check served at /api/test.
func (h *HealthChecker) DBTest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	if h.db == nil {
		writeJSON(w, http.StatusInternalServerError, dbTestResponse{Message: "Database connection failed", Error: "database not configured"})
		return
	}
	if err := h.db.Ping(ctx); err != nil {
		writeJSON(w, http.StatusInternalServerError, dbTestResponse{Message: "Database connection failed", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, dbTestResponse{Message: "Database connection successful!", Status: "connected"})
}

func (h *HealthChecker) checkDatabase(ctx context.Context) CheckResult {
	if h.db == nil {
		return CheckResult{Status: checkFail, Message: "Database pool not initialized"}
	}
	start := h.now()
	dbCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	var one int
	err := h.db.QueryRow(dbCtx, "SELECT 1").Scan(&one)
	latency := h.now().Sub(start).Milliseconds()
	if err != nil {
		return CheckResult{
			Status:    checkFail,
			Message:   databaseFailure(err, dbCtx),
			LatencyMs: latency,
			Details:   map[string]any{"error": err.Error()},
		}
	}
	return CheckResult{Status: checkPass, Message: "PostgreSQL connection successful", LatencyMs: latency}
}

func databaseFailure(err error, ctx context.Context) string {
	msg := err.Error()
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "Database query timed out"
	case strings.Contains(msg, "connection refused"):
		return "Database connection refused"
	case strings.Contains(msg, "authentication failed"):
		return "Database authentication failed"
	case strings.Contains(msg, "does not exist"):
		return "Database does not exist"
	default:
		return "Database query failed"
	}
}

// checkMigrations fails when schema_migrations is missing or dirty.
func (h *HealthChecker) checkMigrations(ctx context.Context) CheckResult {
	if h.db == nil {
		return CheckResult{Status: checkFail, Message: "Database pool not initialized"}
	}
	start := h.now()
	migCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	var (
		version int64
		dirty   bool
	)
	err := h.db.QueryRow(migCtx, `SELECT version, dirty FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version, &dirty)
	latency := h.now().Sub(start).Milliseconds()
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return CheckResult{Status: checkFail, Message: "No migrations applied", LatencyMs: latency,
			Details: map[string]any{"remediation": "run: server migrate up"}}
	case err != nil:
		message := "Failed to query migration version"
		if strings.Contains(err.Error(), "does not exist") {
			message = "Migrations table not found"
		}
		return CheckResult{Status: checkFail, Message: message, LatencyMs: latency,
			Details: map[string]any{"error": err.Error(), "remediation": "run: server migrate up"}}
	case dirty:
		return CheckResult{Status: checkFail, Message: "Database in dirty migration state", LatencyMs: latency,
			Details: map[string]any{"version": version, "dirty": true}}
	}
	return CheckResult{
		Status:    checkPass,
		Message:   fmt.Sprintf("Migrations applied (version %d)", version),
		LatencyMs: latency,
		Details:   map[string]any{"version": version},
	}
}

// checkJobQueue warns when this process runs without a queue; alerts still
// work through the CLI.
func (h *HealthChecker) checkJobQueue(ctx context.Context) CheckResult {
	if !h.queue {
		return CheckResult{Status: checkWarn, Message: "Job queue not running in this process"}
	}
	if h.db == nil {
		return CheckResult{Status: checkFail, Message: "Database pool not initialized"}
	}
	start := h.now()
	jobCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	var active int64
	err := h.db.QueryRow(jobCtx, `SELECT COUNT(*) FROM river_job WHERE state = ANY($1)`,
		[]string{"available", "running", "retryable"}).Scan(&active)
	latency := h.now().Sub(start).Milliseconds()
	if err != nil {
		message := "Failed to query job queue"
		if strings.Contains(err.Error(), "does not exist") {
			message = "River job queue table not found"
		}
		return CheckResult{Status: checkFail, Message: message, LatencyMs: latency,
			Details: map[string]any{"error": err.Error()}}
	}
	return CheckResult{
		Status:    checkPass,
		Message:   "River job queue operational",
		LatencyMs: latency,
		Details:   map[string]any{"active_jobs": active},
	}
}
