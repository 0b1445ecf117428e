package reviews

import (
	"context"
	"strings"

	"github.com/mrintern/server/internal/domain/ids"
	"github.com/mrintern/server/internal/domain/internships"
	"github.com/mrintern/server/internal/sanitize"
	"github.com/mrintern/server/internal/validation"
)

type Service struct {
	repo     Repository
	listings Listings
}

func NewService(repo Repository, listings Listings) *Service {
	return &Service{repo: repo, listings: listings}
}

type CreateInput struct {
	Company      string `json:"company" validate:"required,max=200"`
	InternshipID string `json:"internshipId"`
	Rating       int    `json:"rating" validate:"required,gte=1,lte=5"`
	Pros         string `json:"pros" validate:"required,max=2000"`
	Cons         string `json:"cons" validate:"required,max=2000"`
	Advice       string `json:"advice" validate:"max=2000"`
}

type UpdateInput struct {
	Rating *int    `json:"rating" validate:"omitempty,gte=1,lte=5"`
	Pros   *string `json:"pros" validate:"omitempty,max=2000"`
	Cons   *string `json:"cons" validate:"omitempty,max=2000"`
	Advice *string `json:"advice" validate:"omitempty,max=2000"`
}

func (s *Service) List(ctx context.Context, query Query) ([]Review, error) {
	query.Company = strings.TrimSpace(query.Company)
	query.InternshipID = strings.TrimSpace(query.InternshipID)
	if query.InternshipID != "" && !ids.IsID(query.InternshipID) {
		return []Review{}, nil
	}
	return s.repo.List(ctx, query)
}

func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*Review, error) {
	input.Company = sanitize.Text(input.Company)
	input.Pros = sanitize.Text(input.Pros)
	input.Cons = sanitize.Text(input.Cons)
	input.Advice = sanitize.Text(input.Advice)
	input.InternshipID = strings.TrimSpace(input.InternshipID)
	if input.Rating != 0 && (input.Rating < 1 || input.Rating > 5) {
		return nil, validation.FieldError{Field: "rating", Message: "must be between 1 and 5"}
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	if input.InternshipID != "" {
		ok, err := s.listings.Exists(ctx, input.InternshipID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, internships.ErrNotFound
		}
	}

	return s.repo.Create(ctx, Review{
		UserID:       userID,
		Company:      input.Company,
		InternshipID: input.InternshipID,
		Rating:       input.Rating,
		Pros:         input.Pros,
		Cons:         input.Cons,
		Advice:       input.Advice,
	})
}

func (s *Service) Update(ctx context.Context, userID string, sel Selector, input UpdateInput) (*Review, error) {
	sel.ID = strings.TrimSpace(sel.ID)
	sel.InternshipID = strings.TrimSpace(sel.InternshipID)
	if sel.ID == "" && sel.InternshipID == "" {
		return nil, validation.FieldError{Field: "id", Message: "provide id or internshipId"}
	}
	if input.Rating != nil && (*input.Rating < 1 || *input.Rating > 5) {
		return nil, validation.FieldError{Field: "rating", Message: "must be between 1 and 5"}
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if (sel.ID != "" && !ids.IsID(sel.ID)) || (sel.ID == "" && !ids.IsID(sel.InternshipID)) {
		return nil, ErrNotFound
	}
	return s.repo.Update(ctx, userID, sel, Changes{
		Rating: input.Rating,
		Pros:   sanitize.TextPtr(input.Pros),
		Cons:   sanitize.TextPtr(input.Cons),
		Advice: sanitize.TextPtr(input.Advice),
	})
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if !ids.IsID(id) {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, userID, id)
}

// CompanyRating summarizes reviews for the internship detail page.
func (s *Service) CompanyRating(ctx context.Context, company string) (float64, int, error) {
	return s.repo.AverageRating(ctx, company)
}
