package recruiters

import (
	"context"
	"errors"
	"strings"

	"github.com/mrintern/server/internal/domain/ids"
	"github.com/mrintern/server/internal/domain/internships"
	"github.com/mrintern/server/internal/validation"
)

// Postings is the listing catalogue as seen by recruiters.
type Postings interface {
	Create(ctx context.Context, input internships.CreateInput, recruiterID string) (*internships.Internship, error)
	Get(ctx context.Context, id string) (*internships.Internship, error)
	Apply(internship *internships.Internship, patch internships.UpdateInput) error
	Update(ctx context.Context, internship internships.Internship) (*internships.Internship, error)
	Delete(ctx context.Context, id string) error
	ListByRecruiter(ctx context.Context, recruiterID string) ([]internships.Internship, error)
}

type Service struct {
	repo     Repository
	postings Postings
}

func NewService(repo Repository, postings Postings) *Service {
	return &Service{repo: repo, postings: postings}
}

type ProfileInput struct {
	CompanyName string `json:"companyName" validate:"required,max=100"`
	Website     string `json:"website" validate:"required,max=200"`
}

func (s *Service) Profile(ctx context.Context, userID string) (*Recruiter, error) {
	return s.repo.GetByUser(ctx, userID)
}

func (s *Service) CreateProfile(ctx context.Context, userID string, input ProfileInput) (*Recruiter, error) {
	input.CompanyName = strings.TrimSpace(input.CompanyName)
	input.Website = strings.TrimSpace(input.Website)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := validation.ValidateURL(validation.NormalizeURL(input.Website), "website"); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, userID, input.CompanyName, input.Website)
}

func (s *Service) recruiter(ctx context.Context, userID string) (*Recruiter, error) {
	rec, err := s.repo.GetByUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotRecruiter
	}
	return rec, err
}

func (s *Service) ListPostings(ctx context.Context, userID string) ([]internships.Internship, error) {
	rec, err := s.recruiter(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.postings.ListByRecruiter(ctx, rec.ID)
}

func (s *Service) CreatePosting(ctx context.Context, userID string, input internships.CreateInput) (*internships.Internship, error) {
	rec, err := s.recruiter(ctx, userID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Industry) == "" {
		return nil, validation.FieldError{Field: "industry", Message: "is required"}
	}
	verified := true
	input.Verified = &verified
	return s.postings.Create(ctx, input, rec.ID)
}

// owned loads a listing only when it belongs to the recruiter; anything else
// is reported as not found.
func (s *Service) owned(ctx context.Context, rec *Recruiter, internshipID string) (*internships.Internship, error) {
	if !ids.IsID(internshipID) {
		return nil, internships.ErrNotFound
	}
	listing, err := s.postings.Get(ctx, internshipID)
	if err != nil {
		return nil, err
	}
	if listing.RecruiterID != rec.ID {
		return nil, internships.ErrNotFound
	}
	return listing, nil
}

func (s *Service) UpdatePosting(ctx context.Context, userID, internshipID string, patch internships.UpdateInput) (*internships.Internship, error) {
	rec, err := s.recruiter(ctx, userID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(internshipID) == "" {
		return nil, validation.FieldError{Field: "internshipId", Message: "is required"}
	}
	listing, err := s.owned(ctx, rec, internshipID)
	if err != nil {
		return nil, err
	}
	if err := s.postings.Apply(listing, patch); err != nil {
		return nil, err
	}
	return s.postings.Update(ctx, *listing)
}

func (s *Service) DeletePosting(ctx context.Context, userID, internshipID string) error {
	rec, err := s.recruiter(ctx, userID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(internshipID) == "" {
		return validation.FieldError{Field: "id", Message: "is required"}
	}
	listing, err := s.owned(ctx, rec, internshipID)
	if err != nil {
		return err
	}
	return s.postings.Delete(ctx, listing.ID)
}
