package handlers

import (
	"context"
	"net/http"

	"github.com/mrintern/server/internal/api/middleware"
	"github.com/mrintern/server/internal/domain/reviews"
)

// ReviewService manages company reviews.
type ReviewService interface {
	List(ctx context.Context, query reviews.Query) ([]reviews.Review, error)
	Create(ctx context.Context, userID string, input reviews.CreateInput) (*reviews.Review, error)
	Update(ctx context.Context, userID string, sel reviews.Selector, input reviews.UpdateInput) (*reviews.Review, error)
	Delete(ctx context.Context, userID, id string) error
}

type ReviewsHandler struct {
	service ReviewService
	env     string
}

func NewReviewsHandler(service ReviewService, env string) *ReviewsHandler {
	return &ReviewsHandler{service: service, env: env}
}

func (h *ReviewsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), reviews.Query{
		Company:      queryParam(r, "company"),
		InternshipID: queryParam(r, "internshipId"),
	})
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	if items == nil {
		items = []reviews.Review{}
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: items})
}

func (h *ReviewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input reviews.CreateInput
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, r, err, h.env)
		return
	}
	review, err := h.service.Create(r.Context(), middleware.UserID(r), input)
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	writeJSON(w, http.StatusCreated, dataResponse{Success: true, Data: review})
}

// Update patches one of the caller's reviews, selected by ?id= or
// ?internshipId=.
func (h *ReviewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	sel := reviews.Selector{ID: queryParam(r, "id"), InternshipID: queryParam(r, "internshipId")}
	if sel.ID == "" && sel.InternshipID == "" {
		writeRequired(w, r, "id", "Provide id or internshipId", h.env)
		return
	}
	var input reviews.UpdateInput
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, r, err, h.env)
		return
	}
	review, err := h.service.Update(r.Context(), middleware.UserID(r), sel, input)
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: review})
}

func (h *ReviewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := queryParam(r, "id")
	if id == "" {
		writeRequired(w, r, "id", "Review id is required", h.env)
		return
	}
	if err := h.service.Delete(r.Context(), middleware.UserID(r), id); err != nil {
		writeError(w, r, err, h.env)
		return
	}
	writeJSON(w, http.StatusOK, success{Success: true})
}
