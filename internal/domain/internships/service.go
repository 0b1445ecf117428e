package internships

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mrintern/server/internal/domain/ids"
	"github.com/mrintern/server/internal/validation"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CreateInput is the request body for admin and recruiter postings.
type CreateInput struct {
	Title          string `json:"title" validate:"required,max=200"`
	Company        string `json:"company" validate:"required,max=200"`
	Location       string `json:"location" validate:"max=200"`
	Industry       string `json:"industry"`
	GraduationYear *int   `json:"graduationYear" validate:"omitempty,gte=1900,lte=2100"`
	Season         string `json:"season" validate:"max=100"`
	Deadline       string `json:"deadline"`
	ApplyLink      string `json:"applyLink" validate:"max=2048"`
	Verified       *bool  `json:"verified"`
	Featured       bool   `json:"featured"`
}

// UpdateInput is a partial update; nil fields are left unchanged and an empty
// deadline clears it.
type UpdateInput struct {
	Title          *string `json:"title" validate:"omitempty,min=1,max=200"`
	Company        *string `json:"company" validate:"omitempty,min=1,max=200"`
	Location       *string `json:"location" validate:"omitempty,max=200"`
	Industry       *string `json:"industry"`
	GraduationYear *int    `json:"graduationYear" validate:"omitempty,gte=1900,lte=2100"`
	Season         *string `json:"season" validate:"omitempty,max=100"`
	Deadline       *string `json:"deadline"`
	ApplyLink      *string `json:"applyLink" validate:"omitempty,max=2048"`
	Featured       *bool   `json:"featured"`
}

func (s *Service) List(ctx context.Context, filters Filters) ([]Internship, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id string) (*Internship, error) {
	if !ids.IsID(id) {
		return nil, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Exists reports whether an internship with id is stored.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Create stores a new posting. Unknown industries fall back to Other.
func (s *Service) Create(ctx context.Context, input CreateInput, recruiterID string) (*Internship, error) {
	params, err := s.BuildParams(input)
	if err != nil {
		return nil, err
	}
	params.RecruiterID = recruiterID
	return s.repo.Create(ctx, params)
}

// BuildParams validates and normalizes input into repository parameters.
func (s *Service) BuildParams(input CreateInput) (CreateParams, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Company = strings.TrimSpace(input.Company)
	input.ApplyLink = strings.TrimSpace(input.ApplyLink)
	if err := validation.Struct(input); err != nil {
		return CreateParams{}, err
	}
	if err := validation.ValidateURL(input.ApplyLink, "applyLink"); err != nil {
		return CreateParams{}, err
	}
	deadline, err := ParseDeadline(input.Deadline, s.now())
	if err != nil {
		return CreateParams{}, err
	}
	verified := true
	if input.Verified != nil {
		verified = *input.Verified
	}
	return CreateParams{
		Title:          input.Title,
		Company:        input.Company,
		Location:       strings.TrimSpace(input.Location),
		Industry:       NormalizeIndustry(strings.TrimSpace(input.Industry)),
		GraduationYear: input.GraduationYear,
		Season:         strings.TrimSpace(input.Season),
		Deadline:       deadline,
		ApplyLink:      input.ApplyLink,
		Verified:       verified,
		Featured:       input.Featured,
	}, nil
}

// Apply merges a partial update into internship.
func (s *Service) Apply(internship *Internship, patch UpdateInput) error {
	if err := validation.Struct(patch); err != nil {
		return err
	}
	if patch.Title != nil {
		internship.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Company != nil {
		internship.Company = strings.TrimSpace(*patch.Company)
	}
	if patch.Location != nil {
		internship.Location = strings.TrimSpace(*patch.Location)
	}
	if patch.Industry != nil {
		internship.Industry = NormalizeIndustry(strings.TrimSpace(*patch.Industry))
	}
	if patch.GraduationYear != nil {
		year := *patch.GraduationYear
		internship.GraduationYear = &year
	}
	if patch.Season != nil {
		internship.Season = strings.TrimSpace(*patch.Season)
	}
	if patch.Deadline != nil {
		deadline, err := ParseDeadline(*patch.Deadline, s.now())
		if err != nil {
			return err
		}
		internship.Deadline = deadline
	}
	if patch.ApplyLink != nil {
		link := strings.TrimSpace(*patch.ApplyLink)
		if err := validation.ValidateURL(link, "applyLink"); err != nil {
			return err
		}
		internship.ApplyLink = link
	}
	if patch.Featured != nil {
		internship.Featured = *patch.Featured
	}
	if internship.Title == "" || internship.Company == "" {
		return validation.FieldError{Field: "title", Message: "title and company cannot be empty"}
	}
	return nil
}

func (s *Service) Update(ctx context.Context, internship Internship) (*Internship, error) {
	return s.repo.Update(ctx, internship)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListByRecruiter(ctx context.Context, recruiterID string) ([]Internship, error) {
	return s.repo.ListByRecruiter(ctx, recruiterID)
}

// Upsert stores params unless an internship with the same title, company and
// apply link exists. It reports whether a row was created.
func (s *Service) Upsert(ctx context.Context, params CreateParams) (*Internship, bool, error) {
	existing, err := s.repo.FindDuplicate(ctx, params.Title, params.Company, params.ApplyLink)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, fmt.Errorf("find duplicate: %w", err)
	}
	created, err := s.repo.Create(ctx, params)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

// SampleListing is the listing inserted by Seed.
func SampleListing() CreateParams {
	year := 2026
	deadline := time.Date(2025, time.November, 15, 0, 0, 0, 0, time.UTC)
	return CreateParams{
		Title:          "Software Engineering Intern",
		Company:        "Google",
		Location:       "New York, NY",
		Industry:       IndustryTech,
		GraduationYear: &year,
		Season:         "Summer 2026",
		Deadline:       &deadline,
		ApplyLink:      "https://careers.google.com",
		Verified:       true,
		Source:         "seed",
	}
}

// Seed inserts the sample listing if no listing with its title and company exists.
func (s *Service) Seed(ctx context.Context) (*Internship, bool, error) {
	sample := SampleListing()
	existing, err := s.repo.FindDuplicate(ctx, sample.Title, sample.Company, "")
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}
	created, err := s.repo.Create(ctx, sample)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}
