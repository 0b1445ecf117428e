package postgres

import (
	"context"
	"fmt"

	"github.com/mrintern/server/internal/domain/filters"
)

var _ filters.Repository = (*FilterRepository)(nil)

type FilterRepository struct {
	conn
}

const filterColumns = `f.id, f.user_id, f.graduation_year, f.season, f.location, f.industry, f.created_at`

func scanFilter(row interface{ Scan(...any) error }) (*filters.SavedFilter, error) {
	var f filters.SavedFilter
	if err := row.Scan(&f.ID, &f.UserID, &f.GraduationYear, &f.Season, &f.Location, &f.Industry, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FilterRepository) ListByUser(ctx context.Context, userID string) ([]filters.SavedFilter, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT `+filterColumns+`
  FROM saved_filters f
 WHERE f.user_id = $1
 ORDER BY f.created_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list saved filters: %w", err)
	}
	defer rows.Close()

	out := make([]filters.SavedFilter, 0)
	for rows.Next() {
		f, err := scanFilter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan saved filter: %w", err)
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// FindByCriteria looks for a filter with exactly the same criteria, treating
// NULL years as equal.
func (r *FilterRepository) FindByCriteria(ctx context.Context, userID string, c filters.Criteria) (*filters.SavedFilter, error) {
	f, err := scanFilter(r.queryer().QueryRow(ctx, `
SELECT `+filterColumns+`
  FROM saved_filters f
 WHERE f.user_id = $1
   AND f.graduation_year IS NOT DISTINCT FROM $2::int
   AND f.season = $3
   AND f.location = $4
   AND f.industry = $5
 LIMIT 1
`, userID, c.GraduationYear, c.Season, c.Location, c.Industry))
	if err != nil {
		if isNoRows(err) {
			return nil, filters.ErrNotFound
		}
		return nil, fmt.Errorf("find saved filter: %w", err)
	}
	return f, nil
}

func (r *FilterRepository) Create(ctx context.Context, userID string, c filters.Criteria) (*filters.SavedFilter, error) {
	f, err := scanFilter(r.queryer().QueryRow(ctx, `
WITH f AS (
  INSERT INTO saved_filters (user_id, graduation_year, season, location, industry)
  VALUES ($1, $2, $3, $4, $5)
  RETURNING *
)
SELECT `+filterColumns+` FROM f
`, userID, c.GraduationYear, c.Season, c.Location, c.Industry))
	if err != nil {
		return nil, fmt.Errorf("create saved filter: %w", err)
	}
	return f, nil
}

func (r *FilterRepository) Get(ctx context.Context, userID, id string) (*filters.SavedFilter, error) {
	f, err := scanFilter(r.queryer().QueryRow(ctx, `
SELECT `+filterColumns+` FROM saved_filters f WHERE f.id = $1 AND f.user_id = $2
`, id, userID))
	if err != nil {
		if isNoRows(err) {
			return nil, filters.ErrNotFound
		}
		return nil, fmt.Errorf("get saved filter: %w", err)
	}
	return f, nil
}

// Delete removes the filter; its alert preference goes with it through the
// foreign key cascade.
func (r *FilterRepository) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM saved_filters WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete saved filter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return filters.ErrNotFound
	}
	return nil
}

func (r *FilterRepository) ListActiveAlerts(ctx context.Context, userID string) ([]filters.AlertPreference, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT a.id, a.user_id, a.filter_id, a.active, a.last_notified_at, a.created_at,
       `+filterColumns+`
  FROM alert_preferences a
  JOIN saved_filters f ON f.id = a.filter_id
 WHERE a.user_id = $1 AND a.active
 ORDER BY a.created_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list alert preferences: %w", err)
	}
	defer rows.Close()

	out := make([]filters.AlertPreference, 0)
	for rows.Next() {
		var (
			p filters.AlertPreference
			f filters.SavedFilter
		)
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.FilterID, &p.Active, &p.LastNotifiedAt, &p.CreatedAt,
			&f.ID, &f.UserID, &f.GraduationYear, &f.Season, &f.Location, &f.Industry, &f.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan alert preference: %w", err)
		}
		p.Filter = &f
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertAlert activates alerts for the filter, keeping last_notified_at so
// re-enabling does not resend old matches.
func (r *FilterRepository) UpsertAlert(ctx context.Context, userID, filterID string) (*filters.AlertPreference, error) {
	var p filters.AlertPreference
	err := r.queryer().QueryRow(ctx, `
INSERT INTO alert_preferences (user_id, filter_id, active)
VALUES ($1, $2, true)
ON CONFLICT (user_id, filter_id) DO UPDATE SET active = true
RETURNING id, user_id, filter_id, active, last_notified_at, created_at
`, userID, filterID).Scan(&p.ID, &p.UserID, &p.FilterID, &p.Active, &p.LastNotifiedAt, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert alert preference: %w", err)
	}
	return &p, nil
}

func (r *FilterRepository) DeleteAlert(ctx context.Context, userID, filterID string) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM alert_preferences WHERE user_id = $1 AND filter_id = $2`, userID, filterID)
	if err != nil {
		return fmt.Errorf("delete alert preference: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return filters.ErrAlertNotFound
	}
	return nil
}
