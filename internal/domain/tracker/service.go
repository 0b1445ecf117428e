package tracker

import (
	"context"
	"strings"

	"github.com/mrintern/server/internal/domain/ids"
	"github.com/mrintern/server/internal/domain/internships"
	"github.com/mrintern/server/internal/validation"
)

type Service struct {
	repo     Repository
	listings Listings
}

func NewService(repo Repository, listings Listings) *Service {
	return &Service{repo: repo, listings: listings}
}

func (s *Service) requireListing(ctx context.Context, internshipID string) error {
	if strings.TrimSpace(internshipID) == "" {
		return validation.FieldError{Field: "internshipId", Message: "is required"}
	}
	ok, err := s.listings.Exists(ctx, internshipID)
	if err != nil {
		return err
	}
	if !ok {
		return internships.ErrNotFound
	}
	return nil
}

func (s *Service) ListSaved(ctx context.Context, userID string) ([]SavedInternship, error) {
	return s.repo.ListSaved(ctx, userID)
}

func (s *Service) Save(ctx context.Context, userID, internshipID string) (*SavedInternship, error) {
	if err := s.requireListing(ctx, internshipID); err != nil {
		return nil, err
	}
	return s.repo.Save(ctx, userID, internshipID)
}

func (s *Service) Unsave(ctx context.Context, userID, internshipID string) error {
	if !ids.IsID(internshipID) {
		return ErrNotSaved
	}
	return s.repo.Unsave(ctx, userID, internshipID)
}

type ApplicationInput struct {
	InternshipID string `json:"internshipId" validate:"required"`
	Status       string `json:"status" validate:"required,oneof=Saved Applied Interviewing Offer Rejected"`
	Notes        string `json:"notes" validate:"max=500"`
}

func (s *Service) ListApplications(ctx context.Context, userID string) ([]Application, error) {
	return s.repo.ListApplications(ctx, userID)
}

// Track creates or updates the user's application for a listing and reports
// whether it was newly created.
func (s *Service) Track(ctx context.Context, userID string, input ApplicationInput) (*Application, bool, error) {
	input.InternshipID = strings.TrimSpace(input.InternshipID)
	input.Status = strings.TrimSpace(input.Status)
	input.Notes = strings.TrimSpace(input.Notes)
	if err := validation.Struct(input); err != nil {
		return nil, false, err
	}
	if err := s.requireListing(ctx, input.InternshipID); err != nil {
		return nil, false, err
	}
	return s.repo.UpsertApplication(ctx, userID, input.InternshipID, Status(input.Status), input.Notes)
}

func (s *Service) Untrack(ctx context.Context, userID, internshipID string) error {
	if !ids.IsID(internshipID) {
		return ErrApplicationNotFound
	}
	return s.repo.DeleteApplication(ctx, userID, internshipID)
}

func (s *Service) Analytics(ctx context.Context, userID string) (Analytics, error) {
	apps, err := s.repo.ListApplications(ctx, userID)
	if err != nil {
		return Analytics{}, err
	}
	return Summarize(apps), nil
}
