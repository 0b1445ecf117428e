package postgres

import (
	"context"
	"fmt"

	"github.com/mrintern/server/internal/domain/reviews"
)

var _ reviews.Repository = (*ReviewRepository)(nil)

type ReviewRepository struct {
	conn
}

const reviewColumns = `r.id, r.user_id, COALESCE(u.name, ''), r.company, r.internship_id, r.rating,
       r.pros, r.cons, r.advice, r.created_at`

func scanReview(row interface{ Scan(...any) error }) (*reviews.Review, error) {
	var (
		rv           reviews.Review
		internshipID *string
	)
	if err := row.Scan(
		&rv.ID, &rv.UserID, &rv.UserName, &rv.Company, &internshipID, &rv.Rating,
		&rv.Pros, &rv.Cons, &rv.Advice, &rv.CreatedAt,
	); err != nil {
		return nil, err
	}
	rv.InternshipID = derefString(internshipID)
	return &rv, nil
}

func (r *ReviewRepository) List(ctx context.Context, q reviews.Query) ([]reviews.Review, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT `+reviewColumns+`
  FROM reviews r
  LEFT JOIN users u ON u.id = r.user_id
 WHERE ($1 = '' OR lower(r.company) = lower($1))
   AND ($2::uuid IS NULL OR r.internship_id = $2)
 ORDER BY r.created_at DESC
`, q.Company, nullUUID(q.InternshipID))
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	out := make([]reviews.Review, 0)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, *rv)
	}
	return out, rows.Err()
}

func (r *ReviewRepository) Create(ctx context.Context, in reviews.Review) (*reviews.Review, error) {
	rv, err := scanReview(r.queryer().QueryRow(ctx, `
WITH r AS (
  INSERT INTO reviews (user_id, company, internship_id, rating, pros, cons, advice)
  VALUES ($1, $2, $3, $4, $5, $6, $7)
  RETURNING *
)
SELECT `+reviewColumns+`
  FROM r
  LEFT JOIN users u ON u.id = r.user_id
`, in.UserID, in.Company, nullUUID(in.InternshipID), in.Rating, in.Pros, in.Cons, in.Advice))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, reviews.ErrDuplicate
		}
		return nil, fmt.Errorf("create review: %w", err)
	}
	return rv, nil
}

// Update applies the non-nil changes to the caller's review picked by id or
// by internship.
func (r *ReviewRepository) Update(ctx context.Context, userID string, sel reviews.Selector, c reviews.Changes) (*reviews.Review, error) {
	rv, err := scanReview(r.queryer().QueryRow(ctx, `
WITH r AS (
  UPDATE reviews
     SET rating = COALESCE($4, rating),
         pros   = COALESCE($5, pros),
         cons   = COALESCE($6, cons),
         advice = COALESCE($7, advice)
   WHERE user_id = $1
     AND (($2::uuid IS NOT NULL AND id = $2) OR ($2::uuid IS NULL AND internship_id = $3::uuid))
  RETURNING *
)
SELECT `+reviewColumns+`
  FROM r
  LEFT JOIN users u ON u.id = r.user_id
`, userID, nullUUID(sel.ID), nullUUID(sel.InternshipID), c.Rating, c.Pros, c.Cons, c.Advice))
	if err != nil {
		if isNoRows(err) {
			return nil, reviews.ErrNotFound
		}
		return nil, fmt.Errorf("update review: %w", err)
	}
	return rv, nil
}

func (r *ReviewRepository) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM reviews WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return reviews.ErrNotFound
	}
	return nil
}

func (r *ReviewRepository) AverageRating(ctx context.Context, company string) (float64, int, error) {
	var (
		avg   float64
		count int
	)
	err := r.queryer().QueryRow(ctx, `
SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*)
  FROM reviews
 WHERE lower(company) = lower($1)
`, company).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("average rating: %w", err)
	}
	return avg, count, nil
}
