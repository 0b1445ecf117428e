package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mrintern/server/internal/domain/advice"
	"github.com/mrintern/server/internal/domain/filters"
	"github.com/mrintern/server/internal/domain/internships"
	"github.com/mrintern/server/internal/domain/recruiters"
	"github.com/mrintern/server/internal/domain/resumes"
	"github.com/mrintern/server/internal/domain/reviews"
	"github.com/mrintern/server/internal/domain/subscriptions"
	"github.com/mrintern/server/internal/domain/tracker"
	"github.com/mrintern/server/internal/domain/users"
	"github.com/mrintern/server/internal/storage"
)

var _ storage.Repository = (*Repository)(nil)

// Repository implements storage.Repository with a PostgreSQL backend.
type Repository struct {
	conn
}

func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool cannot be nil")
	}
	return &Repository{conn: conn{pool: pool}}, nil
}

func (r *Repository) Pool() *pgxpool.Pool { return r.pool }

func (r *Repository) Users() users.Repository {
	return &UserRepository{conn: r.conn}
}

func (r *Repository) Internships() internships.Repository {
	return &InternshipRepository{conn: r.conn}
}

func (r *Repository) Filters() filters.Repository {
	return &FilterRepository{conn: r.conn}
}

func (r *Repository) Tracker() tracker.Repository {
	return &TrackerRepository{conn: r.conn}
}

func (r *Repository) Recruiters() recruiters.Repository {
	return &RecruiterRepository{conn: r.conn}
}

func (r *Repository) Reviews() reviews.Repository {
	return &ReviewRepository{conn: r.conn}
}

func (r *Repository) Resumes() resumes.Repository {
	return &ResumeRepository{conn: r.conn}
}

func (r *Repository) Advice() advice.Repository {
	return &AdviceRepository{conn: r.conn}
}

func (r *Repository) Subscriptions() subscriptions.Repository {
	return &SubscriptionRepository{conn: r.conn}
}

// Alerts returns the store the alert checker reads candidates from.
func (r *Repository) Alerts() *AlertStore {
	return &AlertStore{conn: r.conn}
}

// Imports returns the import batch log.
func (r *Repository) Imports() *ImportRepository {
	return &ImportRepository{conn: r.conn}
}

// WithTx executes fn within a database transaction. Nested calls reuse the
// open transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, storage.Repository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txRepo := &Repository{conn: conn{pool: r.pool, tx: tx}}
	if err := fn(ctx, txRepo); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback after error %v: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
