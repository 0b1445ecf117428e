package reviews

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("review not found")
	ErrDuplicate = errors.New("you have already reviewed this internship")
)

type Review struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	UserName     string    `json:"userName,omitempty"`
	Company      string    `json:"company"`
	InternshipID string    `json:"internshipId,omitempty"`
	Rating       int       `json:"rating"`
	Pros         string    `json:"pros"`
	Cons         string    `json:"cons"`
	Advice       string    `json:"advice,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Query struct {
	Company      string
	InternshipID string
}

// Selector picks one of the caller's reviews either by id or by internship.
type Selector struct {
	ID           string
	InternshipID string
}

// Changes is a partial update. A non-nil empty Advice clears it.
type Changes struct {
	Rating *int
	Pros   *string
	Cons   *string
	Advice *string
}

type Repository interface {
	List(ctx context.Context, query Query) ([]Review, error)
	// Create returns ErrDuplicate when the user already reviewed the internship.
	Create(ctx context.Context, review Review) (*Review, error)
	Update(ctx context.Context, userID string, sel Selector, changes Changes) (*Review, error)
	Delete(ctx context.Context, userID, id string) error
	// AverageRating returns the mean rating and count for a company.
	AverageRating(ctx context.Context, company string) (float64, int, error)
}

// Listings is the part of the internship catalogue reviews need.
type Listings interface {
	Exists(ctx context.Context, id string) (bool, error)
}
