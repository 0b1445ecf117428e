package filters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/mrintern/server/internal/domain/ids"
	"github.com/mrintern/server/internal/validation"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CriteriaInput is the request body for saving a filter. The graduation year
// may arrive as a number or a numeric string from HTML forms.
type CriteriaInput struct {
	GraduationYear json.RawMessage `json:"graduationYear"`
	Season         string          `json:"season"`
	Location       string          `json:"location"`
	Industry       string          `json:"industry"`
}

// Criteria normalizes the input. Blank strings and zero years mean "any".
func (in CriteriaInput) Criteria() (Criteria, error) {
	year, err := parseYear(in.GraduationYear)
	if err != nil {
		return Criteria{}, err
	}
	c := Criteria{
		GraduationYear: year,
		Season:         strings.TrimSpace(in.Season),
		Location:       strings.TrimSpace(in.Location),
		Industry:       strings.TrimSpace(in.Industry),
	}
	if len(c.Season) > 100 || len(c.Location) > 200 || len(c.Industry) > 100 {
		return Criteria{}, validation.FieldError{Field: "criteria", Message: "filter values are too long"}
	}
	return c, nil
}

func parseYear(raw json.RawMessage) (*int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, validation.FieldError{Field: "graduationYear", Message: "must be a number"}
		}
	} else {
		text = string(raw)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	year, err := strconv.Atoi(text)
	if err != nil {
		return nil, validation.FieldError{Field: "graduationYear", Message: "must be a number"}
	}
	if year == 0 {
		return nil, nil
	}
	return &year, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]SavedFilter, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Save stores the criteria unless the user already has a filter with exactly
// the same criteria, in which case that filter is returned with duplicate=true.
func (s *Service) Save(ctx context.Context, userID string, criteria Criteria) (*SavedFilter, bool, error) {
	existing, err := s.repo.FindByCriteria(ctx, userID, criteria)
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}
	created, err := s.repo.Create(ctx, userID, criteria)
	if err != nil {
		return nil, false, err
	}
	return created, false, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if !ids.IsID(id) {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, userID, id)
}

func (s *Service) Get(ctx context.Context, userID, id string) (*SavedFilter, error) {
	if !ids.IsID(id) {
		return nil, ErrNotFound
	}
	return s.repo.Get(ctx, userID, id)
}

func (s *Service) ListAlerts(ctx context.Context, userID string) ([]AlertPreference, error) {
	return s.repo.ListActiveAlerts(ctx, userID)
}

// EnableAlert turns on alerts for one of the user's own filters.
func (s *Service) EnableAlert(ctx context.Context, userID, filterID string) (*AlertPreference, error) {
	filter, err := s.Get(ctx, userID, filterID)
	if err != nil {
		return nil, err
	}
	pref, err := s.repo.UpsertAlert(ctx, userID, filter.ID)
	if err != nil {
		return nil, err
	}
	pref.Filter = filter
	return pref, nil
}

func (s *Service) DisableAlert(ctx context.Context, userID, filterID string) error {
	if !ids.IsID(filterID) {
		return ErrAlertNotFound
	}
	return s.repo.DeleteAlert(ctx, userID, filterID)
}
