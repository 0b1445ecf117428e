package postgres

import (
	"context"
	"fmt"

	"github.com/mrintern/server/internal/domain/recruiters"
)

var _ recruiters.Repository = (*RecruiterRepository)(nil)

type RecruiterRepository struct {
	conn
}

func (r *RecruiterRepository) GetByUser(ctx context.Context, userID string) (*recruiters.Recruiter, error) {
	var rec recruiters.Recruiter
	err := r.queryer().QueryRow(ctx, `
SELECT id, user_id, company_name, website, created_at FROM recruiters WHERE user_id = $1
`, userID).Scan(&rec.ID, &rec.UserID, &rec.CompanyName, &rec.Website, &rec.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, recruiters.ErrNotFound
		}
		return nil, fmt.Errorf("get recruiter: %w", err)
	}
	return &rec, nil
}

func (r *RecruiterRepository) Create(ctx context.Context, userID, companyName, website string) (*recruiters.Recruiter, error) {
	var rec recruiters.Recruiter
	err := r.queryer().QueryRow(ctx, `
INSERT INTO recruiters (user_id, company_name, website)
VALUES ($1, $2, $3)
RETURNING id, user_id, company_name, website, created_at
`, userID, companyName, website).Scan(&rec.ID, &rec.UserID, &rec.CompanyName, &rec.Website, &rec.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, recruiters.ErrProfileExists
		}
		return nil, fmt.Errorf("create recruiter: %w", err)
	}
	return &rec, nil
}
