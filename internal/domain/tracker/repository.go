package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/mrintern/server/internal/domain/internships"
)

var (
	ErrAlreadySaved        = errors.New("internship already saved")
	ErrNotSaved            = errors.New("saved internship not found")
	ErrApplicationNotFound = errors.New("application not found")
)

type Status string

const (
	StatusSaved        Status = "Saved"
	StatusApplied      Status = "Applied"
	StatusInterviewing Status = "Interviewing"
	StatusOffer        Status = "Offer"
	StatusRejected     Status = "Rejected"
)

// Statuses lists application statuses in pipeline order.
var Statuses = []Status{StatusSaved, StatusApplied, StatusInterviewing, StatusOffer, StatusRejected}

func ParseStatus(value string) (Status, bool) {
	for _, s := range Statuses {
		if string(s) == value {
			return s, true
		}
	}
	return "", false
}

type SavedInternship struct {
	ID           string                  `json:"id"`
	UserID       string                  `json:"userId"`
	InternshipID string                  `json:"internshipId"`
	CreatedAt    time.Time               `json:"createdAt"`
	Internship   *internships.Internship `json:"internship,omitempty"`
}

type Application struct {
	ID           string                  `json:"id"`
	UserID       string                  `json:"userId"`
	InternshipID string                  `json:"internshipId"`
	Status       Status                  `json:"status"`
	Notes        string                  `json:"notes,omitempty"`
	CreatedAt    time.Time               `json:"createdAt"`
	UpdatedAt    time.Time               `json:"updatedAt"`
	Internship   *internships.Internship `json:"internship,omitempty"`
}

type Repository interface {
	ListSaved(ctx context.Context, userID string) ([]SavedInternship, error)
	Save(ctx context.Context, userID, internshipID string) (*SavedInternship, error)
	Unsave(ctx context.Context, userID, internshipID string) error

	ListApplications(ctx context.Context, userID string) ([]Application, error)
	// UpsertApplication reports whether a new row was created.
	UpsertApplication(ctx context.Context, userID, internshipID string, status Status, notes string) (*Application, bool, error)
	DeleteApplication(ctx context.Context, userID, internshipID string) error
}

// Listings is the part of the internship catalogue the tracker needs.
type Listings interface {
	Exists(ctx context.Context, id string) (bool, error)
}
