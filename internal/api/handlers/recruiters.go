package handlers

import (
	"context"
	"net/http"

	"github.com/mrintern/server/internal/api/middleware"
	"github.com/mrintern/server/internal/audit"
	"github.com/mrintern/server/internal/domain/internships"
	"github.com/mrintern/server/internal/domain/recruiters"
)

// RecruiterService manages recruiter profiles and their postings.
type RecruiterService interface {
	Profile(ctx context.Context, userID string) (*recruiters.Recruiter, error)
	CreateProfile(ctx context.Context, userID string, input recruiters.ProfileInput) (*recruiters.Recruiter, error)
	ListPostings(ctx context.Context, userID string) ([]internships.Internship, error)
	CreatePosting(ctx context.Context, userID string, input internships.CreateInput) (*internships.Internship, error)
	UpdatePosting(ctx context.Context, userID, internshipID string, patch internships.UpdateInput) (*internships.Internship, error)
	DeletePosting(ctx context.Context, userID, internshipID string) error
}

type RecruitersHandler struct {
	service RecruiterService
	audit   *audit.Logger
	env     string
}

func NewRecruitersHandler(service RecruiterService, auditLogger *audit.Logger, env string) *RecruitersHandler {
	return &RecruitersHandler{service: service, audit: auditLogger, env: env}
}

type postingUpdateRequest struct {
	InternshipID string `json:"internshipId"`
	internships.UpdateInput
}

func (h *RecruitersHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Profile(r.Context(), middleware.UserID(r))
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *RecruitersHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var input recruiters.ProfileInput
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, r, err, h.env)
		return
	}
	userID := middleware.UserID(r)
	profile, err := h.service.CreateProfile(r.Context(), userID, input)
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	h.audit.FromRequest(r, userID, "recruiter.create", "recruiter", profile.ID, audit.StatusSuccess,
		map[string]string{"company": profile.CompanyName})
	writeJSON(w, http.StatusCreated, profile)
}

func (h *RecruitersHandler) ListPostings(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListPostings(r.Context(), middleware.UserID(r))
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	if items == nil {
		items = []internships.Internship{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *RecruitersHandler) CreatePosting(w http.ResponseWriter, r *http.Request) {
	var input internships.CreateInput
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, r, err, h.env)
		return
	}
	userID := middleware.UserID(r)
	item, err := h.service.CreatePosting(r.Context(), userID, input)
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	h.audit.FromRequest(r, userID, "internship.create", "internship", item.ID, audit.StatusSuccess, nil)
	writeJSON(w, http.StatusCreated, item)
}

func (h *RecruitersHandler) UpdatePosting(w http.ResponseWriter, r *http.Request) {
	var input postingUpdateRequest
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, r, err, h.env)
		return
	}
	if input.InternshipID == "" {
		writeRequired(w, r, "internshipId", "Internship ID is required", h.env)
		return
	}
	userID := middleware.UserID(r)
	item, err := h.service.UpdatePosting(r.Context(), userID, input.InternshipID, input.UpdateInput)
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	h.audit.FromRequest(r, userID, "internship.update", "internship", item.ID, audit.StatusSuccess, nil)
	writeJSON(w, http.StatusOK, item)
}

func (h *RecruitersHandler) DeletePosting(w http.ResponseWriter, r *http.Request) {
	id := queryParam(r, "id")
	if id == "" {
		writeRequired(w, r, "id", "Internship ID is required", h.env)
		return
	}
	userID := middleware.UserID(r)
	if err := h.service.DeletePosting(r.Context(), userID, id); err != nil {
		writeError(w, r, err, h.env)
		return
	}
	h.audit.FromRequest(r, userID, "internship.delete", "internship", id, audit.StatusSuccess, nil)
	writeJSON(w, http.StatusOK, message{Message: "Internship deleted successfully"})
}
