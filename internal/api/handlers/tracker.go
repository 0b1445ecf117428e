package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/mrintern/server/internal/api/middleware"
	"github.com/mrintern/server/internal/domain/tracker"
)

// TrackerService covers saved internships, applications and analytics.
type TrackerService interface {
	ListSaved(ctx context.Context, userID string) ([]tracker.SavedInternship, error)
	Save(ctx context.Context, userID, internshipID string) (*tracker.SavedInternship, error)
	Unsave(ctx context.Context, userID, internshipID string) error
	ListApplications(ctx context.Context, userID string) ([]tracker.Application, error)
	Track(ctx context.Context, userID string, input tracker.ApplicationInput) (*tracker.Application, bool, error)
	Untrack(ctx context.Context, userID, internshipID string) error
	Analytics(ctx context.Context, userID string) (tracker.Analytics, error)
}

type TrackerHandler struct {
	service TrackerService
	env     string
}

func NewTrackerHandler(service TrackerService, env string) *TrackerHandler {
	return &TrackerHandler{service: service, env: env}
}

type savedListResponse struct {
	SavedInternships []tracker.SavedInternship `json:"savedInternships"`
}

type applicationListResponse struct {
	Applications []tracker.Application `json:"applications"`
}

type applicationResponse struct {
	Message     string               `json:"message"`
	Application *tracker.Application `json:"application"`
}

type internshipRef struct {
	InternshipID string `json:"internshipId"`
}

func (h *TrackerHandler) ListSaved(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListSaved(r.Context(), middleware.UserID(r))
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	if items == nil {
		items = []tracker.SavedInternship{}
	}
	writeJSON(w, http.StatusOK, savedListResponse{SavedInternships: items})
}

func (h *TrackerHandler) Save(w http.ResponseWriter, r *http.Request) {
	var input internshipRef
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, r, err, h.env)
		return
	}
	if input.InternshipID == "" {
		writeRequired(w, r, "internshipId", "Internship ID is required", h.env)
		return
	}
	if _, err := h.service.Save(r.Context(), middleware.UserID(r), input.InternshipID); err != nil {
		writeError(w, r, err, h.env)
		return
	}
	writeJSON(w, http.StatusCreated, message{Message: "Internship saved successfully"})
}

func (h *TrackerHandler) Unsave(w http.ResponseWriter, r *http.Request) {
	internshipID := queryParam(r, "internshipId")
	if internshipID == "" {
		writeRequired(w, r, "internshipId", "Internship ID is required", h.env)
		return
	}
	if err := h.service.Unsave(r.Context(), middleware.UserID(r), internshipID); err != nil {
		writeError(w, r, err, h.env)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Internship removed successfully"})
}

func (h *TrackerHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListApplications(r.Context(), middleware.UserID(r))
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	if items == nil {
		items = []tracker.Application{}
	}
	writeJSON(w, http.StatusOK, applicationListResponse{Applications: items})
}

// Track creates the caller's application for a listing, or updates its status
// and notes when one exists.
func (h *TrackerHandler) Track(w http.ResponseWriter, r *http.Request) {
	var input tracker.ApplicationInput
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, r, err, h.env)
		return
	}
	if strings.TrimSpace(input.InternshipID) == "" || strings.TrimSpace(input.Status) == "" {
		writeRequired(w, r, "status", "Internship ID and status are required", h.env)
		return
	}
	app, created, err := h.service.Track(r.Context(), middleware.UserID(r), input)
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	if created {
		writeJSON(w, http.StatusCreated, applicationResponse{Message: "Application created successfully", Application: app})
		return
	}
	writeJSON(w, http.StatusOK, applicationResponse{Message: "Application updated successfully", Application: app})
}

func (h *TrackerHandler) Untrack(w http.ResponseWriter, r *http.Request) {
	internshipID := queryParam(r, "internshipId")
	if internshipID == "" {
		writeRequired(w, r, "internshipId", "Internship ID is required", h.env)
		return
	}
	if err := h.service.Untrack(r.Context(), middleware.UserID(r), internshipID); err != nil {
		writeError(w, r, err, h.env)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Application removed successfully"})
}

func (h *TrackerHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.service.Analytics(r.Context(), middleware.UserID(r))
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}
