package storage

import (
	"context"

	"github.com/mrintern/server/internal/domain/advice"
	"github.com/mrintern/server/internal/domain/filters"
	"github.com/mrintern/server/internal/domain/internships"
	"github.com/mrintern/server/internal/domain/recruiters"
	"github.com/mrintern/server/internal/domain/resumes"
	"github.com/mrintern/server/internal/domain/reviews"
	"github.com/mrintern/server/internal/domain/subscriptions"
	"github.com/mrintern/server/internal/domain/tracker"
	"github.com/mrintern/server/internal/domain/users"
)

// Repository groups data access by domain.
type Repository interface {
	Users() users.Repository
	Internships() internships.Repository
	Filters() filters.Repository
	Tracker() tracker.Repository
	Recruiters() recruiters.Repository
	Reviews() reviews.Repository
	Resumes() resumes.Repository
	Advice() advice.Repository
	Subscriptions() subscriptions.Repository

	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
}
