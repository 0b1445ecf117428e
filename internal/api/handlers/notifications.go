package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/mrintern/server/internal/alerts"
	"github.com/mrintern/server/internal/api/middleware"
	"github.com/mrintern/server/internal/api/problem"
	"github.com/mrintern/server/internal/audit"
	"github.com/mrintern/server/internal/domain/internships"
	"github.com/mrintern/server/internal/email"
	"github.com/mrintern/server/internal/jobs"
	"github.com/mrintern/server/internal/validation"
)

// AlertEnqueuer queues background alert checks.
type AlertEnqueuer interface {
	EnqueueAlertCheck(ctx context.Context, trigger string) (int64, error)
}

// AlertMailer sends alert digests.
type AlertMailer interface {
	SendAlert(ctx context.Context, alert alerts.Alert) error
}

// NotificationsHandler triggers alert checks and test emails.
type NotificationsHandler struct {
	runner   jobs.AlertRunner
	enqueuer AlertEnqueuer
	mailer   AlertMailer
	audit    *audit.Logger
	env      string
}

func NewNotificationsHandler(runner jobs.AlertRunner, enqueuer AlertEnqueuer, mailer AlertMailer, auditLogger *audit.Logger, env string) *NotificationsHandler {
	return &NotificationsHandler{
		runner:   runner,
		enqueuer: enqueuer,
		mailer:   mailer,
		audit:    auditLogger,
		env:      env,
	}
}

type checkAlertsResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	JobID   int64          `json:"jobId,omitempty"`
	Report  *alerts.Report `json:"report,omitempty"`
}

type testEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,max=100"`
}

// testEmailFilter is the filter description shown in test alerts.
const testEmailFilter = "Test Filter: Tech, San Francisco"

// CheckAlerts queues an alert check and answers 202 with the job id. With
// ?wait=true, or when no queue is available, the check runs inline and the
// report is returned.
func (h *NotificationsHandler) CheckAlerts(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserID(r)
	wait, _ := strconv.ParseBool(queryParam(r, "wait"))

	if !wait && h.enqueuer != nil {
		jobID, err := h.enqueuer.EnqueueAlertCheck(r.Context(), jobs.TriggerAPI)
		switch {
		case err == nil:
			h.audit.FromRequest(r, actor, "alerts.check", "job", strconv.FormatInt(jobID, 10), audit.StatusSuccess,
				map[string]string{"mode": "queued"})
			writeJSON(w, http.StatusAccepted, checkAlertsResponse{Success: true, Message: "Alert check queued", JobID: jobID})
			return
		case errors.Is(err, jobs.ErrQueueUnavailable):
			zerolog.Ctx(r.Context()).Warn().Msg("job queue unavailable, running alert check inline")
		default:
			h.audit.FromRequest(r, actor, "alerts.check", "job", "", audit.StatusFailure, nil)
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeInternal, "Failed to run alert check", err, h.env)
			return
		}
	}

	if h.runner == nil {
		problem.Write(w, r, http.StatusServiceUnavailable, problem.TypeUnavailable, "Alert checks are not configured", jobs.ErrQueueUnavailable, h.env)
		return
	}
	report, err := h.runner.Run(r.Context(), jobs.TriggerAPI)
	if err != nil {
		h.audit.FromRequest(r, actor, "alerts.check", "job", "", audit.StatusFailure, nil)
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeInternal, "Failed to run alert check", err, h.env)
		return
	}
	h.audit.FromRequest(r, actor, "alerts.check", "job", "", audit.StatusSuccess, map[string]string{
		"mode":    "inline",
		"matched": strconv.Itoa(report.Matched),
		"emailed": strconv.Itoa(report.Emailed),
	})
	writeJSON(w, http.StatusOK, checkAlertsResponse{Success: true, Message: "Alert check completed successfully", Report: &report})
}

// TestEmail sends a sample alert so users can check delivery.
func (h *NotificationsHandler) TestEmail(w http.ResponseWriter, r *http.Request) {
	var input testEmailRequest
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, r, err, h.env)
		return
	}
	if input.Email == "" || input.Name == "" {
		writeRequired(w, r, "email", "Email and name are required", h.env)
		return
	}
	if err := validation.Struct(input); err != nil {
		writeError(w, r, err, h.env)
		return
	}
	if h.mailer == nil {
		problem.Write(w, r, http.StatusServiceUnavailable, problem.TypeUnavailable, "Email delivery is not configured", email.ErrDisabled, h.env)
		return
	}

	err := h.mailer.SendAlert(r.Context(), alerts.Alert{
		To:         input.Email,
		Name:       input.Name,
		FilterName: testEmailFilter,
		Listings:   sampleAlertListings(),
	})
	switch {
	case errors.Is(err, email.ErrDisabled):
		problem.Write(w, r, http.StatusServiceUnavailable, problem.TypeUnavailable, "Email delivery is not configured", err, h.env)
		return
	case err != nil:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeInternal, "Failed to send test email", err, h.env)
		return
	}
	writeJSON(w, http.StatusOK, success{Success: true, Message: "Test email sent successfully"})
}

func sampleAlertListings() []internships.Internship {
	return []internships.Internship{{
		Title:     "Software Engineering Intern",
		Company:   "Test Company",
		Location:  "San Francisco, CA",
		Industry:  internships.IndustryTech,
		ApplyLink: "https://example.com/apply",
	}}
}
