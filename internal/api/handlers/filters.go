package handlers

import (
	"context"
	"net/http"

	"github.com/mrintern/server/internal/api/middleware"
	"github.com/mrintern/server/internal/domain/filters"
)

// FilterService manages saved filters and their alert preferences.
type FilterService interface {
	List(ctx context.Context, userID string) ([]filters.SavedFilter, error)
	Save(ctx context.Context, userID string, criteria filters.Criteria) (*filters.SavedFilter, bool, error)
	Delete(ctx context.Context, userID, id string) error
	ListAlerts(ctx context.Context, userID string) ([]filters.AlertPreference, error)
	EnableAlert(ctx context.Context, userID, filterID string) (*filters.AlertPreference, error)
	DisableAlert(ctx context.Context, userID, filterID string) error
}

type FiltersHandler struct {
	service FilterService
	env     string
}

func NewFiltersHandler(service FilterService, env string) *FiltersHandler {
	return &FiltersHandler{service: service, env: env}
}

type filterListResponse struct {
	Success bool                  `json:"success"`
	Filters []filters.SavedFilter `json:"filters"`
}

type filterResponse struct {
	Success   bool                 `json:"success"`
	Filter    *filters.SavedFilter `json:"filter"`
	Duplicate bool                 `json:"duplicate,omitempty"`
}

type alertListResponse struct {
	Success bool                      `json:"success"`
	Alerts  []filters.AlertPreference `json:"alerts"`
}

type alertResponse struct {
	Success bool                     `json:"success"`
	Alert   *filters.AlertPreference `json:"alert"`
}

type alertRequest struct {
	FilterID string `json:"filterId"`
}

// List returns the caller's filters. Anonymous callers get an empty list so the
// filter sidebar renders without a session.
func (h *FiltersHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	if userID == "" {
		writeJSON(w, http.StatusOK, filterListResponse{Success: true, Filters: []filters.SavedFilter{}})
		return
	}
	items, err := h.service.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	if items == nil {
		items = []filters.SavedFilter{}
	}
	writeJSON(w, http.StatusOK, filterListResponse{Success: true, Filters: items})
}

func (h *FiltersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input filters.CriteriaInput
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, r, err, h.env)
		return
	}
	criteria, err := input.Criteria()
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}

	filter, duplicate, err := h.service.Save(r.Context(), middleware.UserID(r), criteria)
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	status := http.StatusCreated
	if duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, filterResponse{Success: true, Filter: filter, Duplicate: duplicate})
}

func (h *FiltersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := queryParam(r, "id")
	if id == "" {
		writeRequired(w, r, "id", "Filter ID is required", h.env)
		return
	}
	if err := h.service.Delete(r.Context(), middleware.UserID(r), id); err != nil {
		writeError(w, r, err, h.env)
		return
	}
	writeJSON(w, http.StatusOK, success{Success: true})
}

func (h *FiltersHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListAlerts(r.Context(), middleware.UserID(r))
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	if items == nil {
		items = []filters.AlertPreference{}
	}
	writeJSON(w, http.StatusOK, alertListResponse{Success: true, Alerts: items})
}

func (h *FiltersHandler) EnableAlert(w http.ResponseWriter, r *http.Request) {
	var input alertRequest
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, r, err, h.env)
		return
	}
	if input.FilterID == "" {
		writeRequired(w, r, "filterId", "Filter ID is required", h.env)
		return
	}
	pref, err := h.service.EnableAlert(r.Context(), middleware.UserID(r), input.FilterID)
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	writeJSON(w, http.StatusCreated, alertResponse{Success: true, Alert: pref})
}

func (h *FiltersHandler) DisableAlert(w http.ResponseWriter, r *http.Request) {
	filterID := queryParam(r, "filterId")
	if filterID == "" {
		writeRequired(w, r, "filterId", "Filter ID is required", h.env)
		return
	}
	if err := h.service.DisableAlert(r.Context(), middleware.UserID(r), filterID); err != nil {
		writeError(w, r, err, h.env)
		return
	}
	writeJSON(w, http.StatusOK, success{Success: true})
}
