package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/mrintern/server/internal/domain/internships"
	"github.com/mrintern/server/internal/metrics"
)

var _ internships.Repository = (*InternshipRepository)(nil)

type InternshipRepository struct {
	conn
}

const internshipColumns = `i.id, i.title, i.company, i.location, i.industry, i.graduation_year, i.season,
       i.deadline, i.apply_link, i.verified, i.featured, i.recruiter_id, i.source,
       i.created_at, i.updated_at`

func scanInternship(row interface{ Scan(...any) error }) (*internships.Internship, error) {
	var (
		item        internships.Internship
		industry    string
		recruiterID *string
	)
	if err := row.Scan(
		&item.ID,
		&item.Title,
		&item.Company,
		&item.Location,
		&industry,
		&item.GraduationYear,
		&item.Season,
		&item.Deadline,
		&item.ApplyLink,
		&item.Verified,
		&item.Featured,
		&recruiterID,
		&item.Source,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	item.Industry = internships.Industry(industry)
	item.RecruiterID = derefString(recruiterID)
	return &item, nil
}

func (r *InternshipRepository) collect(ctx context.Context, op string, sql string, args ...any) ([]internships.Internship, error) {
	start := time.Now()
	rows, err := r.queryer().Query(ctx, sql, args...)
	if err != nil {
		metrics.RecordQuery(op, start, err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	items := make([]internships.Internship, 0)
	for rows.Next() {
		item, err := scanInternship(rows)
		if err != nil {
			return nil, fmt.Errorf("scan internship: %w", err)
		}
		items = append(items, *item)
	}
	err = rows.Err()
	metrics.RecordQuery(op, start, err)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// List returns featured listings first, then newest.
func (r *InternshipRepository) List(ctx context.Context, filters internships.Filters) ([]internships.Internship, error) {
	return r.collect(ctx, "list internships", `
SELECT `+internshipColumns+`
  FROM internships i
 WHERE ($1::int IS NULL OR i.graduation_year = $1)
   AND ($2 = '' OR i.season ILIKE $2 ESCAPE '\')
   AND ($3 = '' OR i.location ILIKE $3 ESCAPE '\')
   AND ($4 = '' OR i.industry = $4)
   AND (NOT $5 OR i.featured)
 ORDER BY i.featured DESC, i.created_at DESC
`,
		filters.GraduationYear,
		containsPattern(filters.Season),
		containsPattern(filters.Location),
		string(filters.Industry),
		filters.FeaturedOnly,
	)
}

func (r *InternshipRepository) Get(ctx context.Context, id string) (*internships.Internship, error) {
	item, err := scanInternship(r.queryer().QueryRow(ctx, `SELECT `+internshipColumns+` FROM internships i WHERE i.id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, internships.ErrNotFound
		}
		return nil, fmt.Errorf("get internship: %w", err)
	}
	return item, nil
}

func (r *InternshipRepository) Create(ctx context.Context, p internships.CreateParams) (*internships.Internship, error) {
	row := r.queryer().QueryRow(ctx, `
WITH i AS (
  INSERT INTO internships (title, company, location, industry, graduation_year, season, deadline,
                           apply_link, verified, featured, recruiter_id, source)
  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
  RETURNING *
)
SELECT `+internshipColumns+` FROM i
`,
		p.Title, p.Company, p.Location, string(p.Industry), p.GraduationYear, p.Season, p.Deadline,
		p.ApplyLink, p.Verified, p.Featured, nullUUID(p.RecruiterID), p.Source,
	)
	item, err := scanInternship(row)
	if err != nil {
		return nil, fmt.Errorf("create internship: %w", err)
	}
	return item, nil
}

func (r *InternshipRepository) Update(ctx context.Context, in internships.Internship) (*internships.Internship, error) {
	row := r.queryer().QueryRow(ctx, `
WITH i AS (
  UPDATE internships
     SET title = $2, company = $3, location = $4, industry = $5, graduation_year = $6,
         season = $7, deadline = $8, apply_link = $9, verified = $10, featured = $11,
         updated_at = now()
   WHERE id = $1
  RETURNING *
)
SELECT `+internshipColumns+` FROM i
`,
		in.ID, in.Title, in.Company, in.Location, string(in.Industry), in.GraduationYear,
		in.Season, in.Deadline, in.ApplyLink, in.Verified, in.Featured,
	)
	item, err := scanInternship(row)
	if err != nil {
		if isNoRows(err) {
			return nil, internships.ErrNotFound
		}
		return nil, fmt.Errorf("update internship: %w", err)
	}
	return item, nil
}

func (r *InternshipRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM internships WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete internship: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return internships.ErrNotFound
	}
	return nil
}

func (r *InternshipRepository) ListByRecruiter(ctx context.Context, recruiterID string) ([]internships.Internship, error) {
	return r.collect(ctx, "list recruiter internships", `
SELECT `+internshipColumns+`
  FROM internships i
 WHERE i.recruiter_id = $1
 ORDER BY i.created_at DESC
`, recruiterID)
}

func (r *InternshipRepository) FindDuplicate(ctx context.Context, title, company, applyLink string) (*internships.Internship, error) {
	item, err := scanInternship(r.queryer().QueryRow(ctx, `
SELECT `+internshipColumns+`
  FROM internships i
 WHERE lower(i.title) = lower($1)
   AND lower(i.company) = lower($2)
   AND ($3 = '' OR i.apply_link = $3)
 ORDER BY i.created_at
 LIMIT 1
`, title, company, applyLink))
	if err != nil {
		if isNoRows(err) {
			return nil, internships.ErrNotFound
		}
		return nil, fmt.Errorf("find duplicate internship: %w", err)
	}
	return item, nil
}

// ListCreatedSince matches every set criterion exactly.
func (r *InternshipRepository) ListCreatedSince(ctx context.Context, match internships.Match, since time.Time) ([]internships.Internship, error) {
	return r.collect(ctx, "list new internships", `
SELECT `+internshipColumns+`
  FROM internships i
 WHERE i.created_at >= $1
   AND ($2::int IS NULL OR i.graduation_year = $2)
   AND ($3 = '' OR i.season = $3)
   AND ($4 = '' OR i.location = $4)
   AND ($5 = '' OR i.industry = $5)
 ORDER BY i.created_at DESC
`,
		since,
		match.GraduationYear,
		match.Season,
		match.Location,
		string(match.Industry),
	)
}
