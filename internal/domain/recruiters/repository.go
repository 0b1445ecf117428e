package recruiters

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("recruiter profile not found")
	ErrProfileExists = errors.New("recruiter profile already exists")
	ErrNotRecruiter  = errors.New("recruiter profile required")
)

type Recruiter struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	CompanyName string    `json:"companyName"`
	Website     string    `json:"website"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Repository interface {
	GetByUser(ctx context.Context, userID string) (*Recruiter, error)
	// Create returns ErrProfileExists when the user already has a profile.
	Create(ctx context.Context, userID, companyName, website string) (*Recruiter, error)
}
