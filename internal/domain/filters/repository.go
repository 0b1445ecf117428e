package filters

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("filter not found")
	ErrAlertNotFound = errors.New("alert preference not found")
)

// Criteria is the set of listing attributes a saved filter pins. Empty fields
// are unconstrained.
type Criteria struct {
	GraduationYear *int   `json:"graduationYear,omitempty"`
	Season         string `json:"season,omitempty"`
	Location       string `json:"location,omitempty"`
	Industry       string `json:"industry,omitempty"`
}

type SavedFilter struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Criteria
	CreatedAt time.Time `json:"createdAt"`
}

type AlertPreference struct {
	ID             string       `json:"id"`
	UserID         string       `json:"userId"`
	FilterID       string       `json:"filterId"`
	Active         bool         `json:"active"`
	LastNotifiedAt *time.Time   `json:"lastNotifiedAt,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	Filter         *SavedFilter `json:"filter,omitempty"`
}

type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]SavedFilter, error)
	FindByCriteria(ctx context.Context, userID string, criteria Criteria) (*SavedFilter, error)
	Create(ctx context.Context, userID string, criteria Criteria) (*SavedFilter, error)
	Get(ctx context.Context, userID, id string) (*SavedFilter, error)
	// Delete removes the filter and its alert preference.
	Delete(ctx context.Context, userID, id string) error

	ListActiveAlerts(ctx context.Context, userID string) ([]AlertPreference, error)
	UpsertAlert(ctx context.Context, userID, filterID string) (*AlertPreference, error)
	DeleteAlert(ctx context.Context, userID, filterID string) error
}
