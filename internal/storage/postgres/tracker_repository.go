package postgres

import (
	"context"
	"fmt"

	"github.com/mrintern/server/internal/domain/tracker"
)

var _ tracker.Repository = (*TrackerRepository)(nil)

// TrackerRepository stores saved listings and application statuses.
type TrackerRepository struct {
	conn
}

func (r *TrackerRepository) ListSaved(ctx context.Context, userID string) ([]tracker.SavedInternship, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT s.id, s.user_id, s.internship_id, s.created_at, `+internshipColumns+`
  FROM saved_internships s
  JOIN internships i ON i.id = s.internship_id
 WHERE s.user_id = $1
 ORDER BY s.created_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list saved internships: %w", err)
	}
	defer rows.Close()

	out := make([]tracker.SavedInternship, 0)
	for rows.Next() {
		var s tracker.SavedInternship
		item, err := scanInternship(prefixScanner{row: rows, prefix: []any{&s.ID, &s.UserID, &s.InternshipID, &s.CreatedAt}})
		if err != nil {
			return nil, fmt.Errorf("scan saved internship: %w", err)
		}
		s.Internship = item
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *TrackerRepository) Save(ctx context.Context, userID, internshipID string) (*tracker.SavedInternship, error) {
	var s tracker.SavedInternship
	err := r.queryer().QueryRow(ctx, `
INSERT INTO saved_internships (user_id, internship_id)
VALUES ($1, $2)
RETURNING id, user_id, internship_id, created_at
`, userID, internshipID).Scan(&s.ID, &s.UserID, &s.InternshipID, &s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, tracker.ErrAlreadySaved
		}
		return nil, fmt.Errorf("save internship: %w", err)
	}
	return &s, nil
}

func (r *TrackerRepository) Unsave(ctx context.Context, userID, internshipID string) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM saved_internships WHERE user_id = $1 AND internship_id = $2`, userID, internshipID)
	if err != nil {
		return fmt.Errorf("unsave internship: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tracker.ErrNotSaved
	}
	return nil
}

func (r *TrackerRepository) ListApplications(ctx context.Context, userID string) ([]tracker.Application, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT a.id, a.user_id, a.internship_id, a.status, a.notes, a.created_at, a.updated_at, `+internshipColumns+`
  FROM applications a
  JOIN internships i ON i.id = a.internship_id
 WHERE a.user_id = $1
 ORDER BY a.updated_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	out := make([]tracker.Application, 0)
	for rows.Next() {
		var (
			a      tracker.Application
			status string
		)
		item, err := scanInternship(prefixScanner{row: rows, prefix: []any{
			&a.ID, &a.UserID, &a.InternshipID, &status, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
		}})
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		a.Status = tracker.Status(status)
		a.Internship = item
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpsertApplication relies on xmax = 0 to tell inserted rows from updated ones.
func (r *TrackerRepository) UpsertApplication(ctx context.Context, userID, internshipID string, status tracker.Status, notes string) (*tracker.Application, bool, error) {
	var (
		a        tracker.Application
		stored   string
		inserted bool
	)
	err := r.queryer().QueryRow(ctx, `
INSERT INTO applications (user_id, internship_id, status, notes)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, internship_id)
DO UPDATE SET status = EXCLUDED.status, notes = EXCLUDED.notes, updated_at = now()
RETURNING id, user_id, internship_id, status, notes, created_at, updated_at, (xmax = 0)
`, userID, internshipID, string(status), notes).Scan(
		&a.ID, &a.UserID, &a.InternshipID, &stored, &a.Notes, &a.CreatedAt, &a.UpdatedAt, &inserted,
	)
	if err != nil {
		return nil, false, fmt.Errorf("upsert application: %w", err)
	}
	a.Status = tracker.Status(stored)
	return &a, inserted, nil
}

func (r *TrackerRepository) DeleteApplication(ctx context.Context, userID, internshipID string) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM applications WHERE user_id = $1 AND internship_id = $2`, userID, internshipID)
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tracker.ErrApplicationNotFound
	}
	return nil
}

// prefixScanner scans leading columns into prefix and hands the rest to the
// wrapped scan call, so joined rows can reuse scanInternship.
type prefixScanner struct {
	row    interface{ Scan(...any) error }
	prefix []any
}

func (p prefixScanner) Scan(dest ...any) error {
	all := make([]any, 0, len(p.prefix)+len(dest))
	all = append(all, p.prefix...)
	all = append(all, dest...)
	return p.row.Scan(all...)
}
