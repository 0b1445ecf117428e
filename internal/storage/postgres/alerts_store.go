package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/mrintern/server/internal/alerts"
	"github.com/mrintern/server/internal/domain/filters"
	"github.com/mrintern/server/internal/domain/internships"
	"github.com/mrintern/server/internal/domain/users"
	"github.com/mrintern/server/internal/metrics"
)

var _ alerts.Store = (*AlertStore)(nil)

// AlertStore feeds the alert checker. Preferences whose user or filter row is
// gone come back with a nil User or Filter so the checker can report them.
type AlertStore struct {
	conn
}

func (s *AlertStore) ActiveCandidates(ctx context.Context) ([]alerts.Candidate, error) {
	start := time.Now()
	rows, err := s.queryer().Query(ctx, `
SELECT a.id, a.user_id, a.filter_id, a.active, a.last_notified_at, a.created_at,
       u.id, u.name, u.email,
       f.id, f.graduation_year, f.season, f.location, f.industry, f.created_at
  FROM alert_preferences a
  LEFT JOIN users u ON u.id = a.user_id
  LEFT JOIN saved_filters f ON f.id = a.filter_id
 WHERE a.active
 ORDER BY a.created_at
`)
	if err != nil {
		metrics.RecordQuery("alert candidates", start, err)
		return nil, fmt.Errorf("list alert candidates: %w", err)
	}
	defer rows.Close()

	out := make([]alerts.Candidate, 0)
	for rows.Next() {
		var (
			pref                                 filters.AlertPreference
			userID, userName, userEmail          *string
			filterID, season, location, industry *string
			year                                 *int
			filterCreated                        *time.Time
		)
		if err := rows.Scan(
			&pref.ID, &pref.UserID, &pref.FilterID, &pref.Active, &pref.LastNotifiedAt, &pref.CreatedAt,
			&userID, &userName, &userEmail,
			&filterID, &year, &season, &location, &industry, &filterCreated,
		); err != nil {
			return nil, fmt.Errorf("scan alert candidate: %w", err)
		}

		cand := alerts.Candidate{Preference: pref}
		if userID != nil {
			cand.User = &users.User{ID: *userID, Name: derefString(userName), Email: derefString(userEmail)}
		}
		if filterID != nil {
			cand.Filter = &filters.SavedFilter{
				ID:     *filterID,
				UserID: pref.UserID,
				Criteria: filters.Criteria{
					GraduationYear: year,
					Season:         derefString(season),
					Location:       derefString(location),
					Industry:       derefString(industry),
				},
			}
			if filterCreated != nil {
				cand.Filter.CreatedAt = *filterCreated
			}
		}
		cand.Preference.Filter = cand.Filter
		out = append(out, cand)
	}
	err = rows.Err()
	metrics.RecordQuery("alert candidates", start, err)
	return out, err
}

func (s *AlertStore) ListCreatedSince(ctx context.Context, match internships.Match, since time.Time) ([]internships.Internship, error) {
	return (&InternshipRepository{conn: s.conn}).ListCreatedSince(ctx, match, since)
}

func (s *AlertStore) MarkNotified(ctx context.Context, preferenceID string, at time.Time) error {
	_, err := s.queryer().Exec(ctx, `UPDATE alert_preferences SET last_notified_at = $2 WHERE id = $1`, preferenceID, at)
	if err != nil {
		return fmt.Errorf("mark alert notified: %w", err)
	}
	return nil
}
