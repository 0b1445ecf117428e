package handlers

import (
	"context"
	"net/http"

	"github.com/mrintern/server/internal/api/middleware"
	"github.com/mrintern/server/internal/audit"
	"github.com/mrintern/server/internal/domain/internships"
)

// InternshipService reads and writes listings.
type InternshipService interface {
	List(ctx context.Context, filters internships.Filters) ([]internships.Internship, error)
	Get(ctx context.Context, id string) (*internships.Internship, error)
	Create(ctx context.Context, input internships.CreateInput, recruiterID string) (*internships.Internship, error)
	Seed(ctx context.Context) (*internships.Internship, bool, error)
}

type InternshipsHandler struct {
	service InternshipService
	audit   *audit.Logger
	env     string
}

func NewInternshipsHandler(service InternshipService, auditLogger *audit.Logger, env string) *InternshipsHandler {
	return &InternshipsHandler{service: service, audit: auditLogger, env: env}
}

type dataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type seedResponse struct {
	Success bool                    `json:"success"`
	Data    *internships.Internship `json:"data"`
	Created bool                    `json:"created"`
}

func (h *InternshipsHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, err := internships.ParseFilters(r.URL.Query())
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	items, err := h.service.List(r.Context(), filters)
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	if items == nil {
		items = []internships.Internship{}
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: items})
}

func (h *InternshipsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: item})
}

// Create publishes an admin listing. Admin listings have no recruiter.
func (h *InternshipsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input internships.CreateInput
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, r, err, h.env)
		return
	}
	item, err := h.service.Create(r.Context(), input, "")
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	h.audit.FromRequest(r, middleware.UserID(r), "internship.create", "internship", item.ID, audit.StatusSuccess,
		map[string]string{"company": item.Company})
	writeJSON(w, http.StatusCreated, dataResponse{Success: true, Data: item})
}

// Seed inserts the sample listing unless it already exists.
func (h *InternshipsHandler) Seed(w http.ResponseWriter, r *http.Request) {
	item, created, err := h.service.Seed(r.Context())
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
		h.audit.FromRequest(r, middleware.UserID(r), "internship.seed", "internship", item.ID, audit.StatusSuccess, nil)
	}
	writeJSON(w, status, seedResponse{Success: true, Data: item, Created: created})
}
