package postgres

import (
	"context"
	"fmt"

	"github.com/mrintern/server/internal/domain/resumes"
)

var _ resumes.Repository = (*ResumeRepository)(nil)

type ResumeRepository struct {
	conn
}

const resumeSelect = `
SELECT r.id, r.user_id, COALESCE(u.name, ''), COALESCE(u.email, ''), r.resume_url, r.title,
       r.storage_key, r.content_type, r.preview,
       (SELECT COUNT(*) FROM resume_comments c WHERE c.resume_id = r.id),
       r.created_at
  FROM resumes r
  LEFT JOIN users u ON u.id = r.user_id`

func scanResume(row interface{ Scan(...any) error }) (*resumes.Resume, error) {
	var rs resumes.Resume
	if err := row.Scan(
		&rs.ID, &rs.UserID, &rs.UserName, &rs.UserEmail, &rs.ResumeURL, &rs.Title,
		&rs.StorageKey, &rs.ContentType, &rs.Preview, &rs.CommentCount, &rs.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &rs, nil
}

// List returns every resume, or only userID's when it is set.
func (r *ResumeRepository) List(ctx context.Context, userID string) ([]resumes.Resume, error) {
	rows, err := r.queryer().Query(ctx, resumeSelect+`
 WHERE ($1::uuid IS NULL OR r.user_id = $1)
 ORDER BY r.created_at DESC
`, nullUUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}
	defer rows.Close()

	out := make([]resumes.Resume, 0)
	for rows.Next() {
		rs, err := scanResume(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resume: %w", err)
		}
		out = append(out, *rs)
	}
	return out, rows.Err()
}

func (r *ResumeRepository) Get(ctx context.Context, id string) (*resumes.Resume, error) {
	return r.getBy(ctx, "r.id", id)
}

func (r *ResumeRepository) GetByUser(ctx context.Context, userID string) (*resumes.Resume, error) {
	return r.getBy(ctx, "r.user_id", userID)
}

func (r *ResumeRepository) getBy(ctx context.Context, column, value string) (*resumes.Resume, error) {
	rs, err := scanResume(r.queryer().QueryRow(ctx, resumeSelect+` WHERE `+column+` = $1`, value))
	if err != nil {
		if isNoRows(err) {
			return nil, resumes.ErrNotFound
		}
		return nil, fmt.Errorf("get resume: %w", err)
	}
	return rs, nil
}

func (r *ResumeRepository) Upsert(ctx context.Context, in resumes.Resume) (*resumes.Resume, bool, error) {
	var (
		id       string
		inserted bool
	)
	err := r.queryer().QueryRow(ctx, `
INSERT INTO resumes (user_id, resume_url, title, storage_key, content_type, preview)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id) DO UPDATE
   SET resume_url = EXCLUDED.resume_url,
       title = EXCLUDED.title,
       storage_key = EXCLUDED.storage_key,
       content_type = EXCLUDED.content_type,
       preview = EXCLUDED.preview,
       created_at = now()
RETURNING id, (xmax = 0)
`, in.UserID, in.ResumeURL, in.Title, in.StorageKey, in.ContentType, in.Preview).Scan(&id, &inserted)
	if err != nil {
		return nil, false, fmt.Errorf("upsert resume: %w", err)
	}
	saved, err := r.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return saved, inserted, nil
}

func (r *ResumeRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM resumes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete resume: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return resumes.ErrNotFound
	}
	return nil
}

const resumeCommentSelect = `
SELECT c.id, c.resume_id, c.user_id, COALESCE(u.name, ''), COALESCE(u.email, ''), c.comment, c.created_at
  FROM resume_comments c
  LEFT JOIN users u ON u.id = c.user_id`

func scanResumeComment(row interface{ Scan(...any) error }) (*resumes.Comment, error) {
	var c resumes.Comment
	if err := row.Scan(&c.ID, &c.ResumeID, &c.UserID, &c.UserName, &c.UserEmail, &c.Comment, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ResumeRepository) ListComments(ctx context.Context, resumeID string) ([]resumes.Comment, error) {
	rows, err := r.queryer().Query(ctx, resumeCommentSelect+`
 WHERE c.resume_id = $1
 ORDER BY c.created_at ASC
`, resumeID)
	if err != nil {
		return nil, fmt.Errorf("list resume comments: %w", err)
	}
	defer rows.Close()

	out := make([]resumes.Comment, 0)
	for rows.Next() {
		c, err := scanResumeComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resume comment: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *ResumeRepository) CreateComment(ctx context.Context, resumeID, userID, text string) (*resumes.Comment, error) {
	var id string
	err := r.queryer().QueryRow(ctx, `
INSERT INTO resume_comments (resume_id, user_id, comment) VALUES ($1, $2, $3) RETURNING id
`, resumeID, userID, text).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create resume comment: %w", err)
	}
	return r.GetComment(ctx, id)
}

func (r *ResumeRepository) GetComment(ctx context.Context, id string) (*resumes.Comment, error) {
	c, err := scanResumeComment(r.queryer().QueryRow(ctx, resumeCommentSelect+` WHERE c.id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, resumes.ErrCommentNotFound
		}
		return nil, fmt.Errorf("get resume comment: %w", err)
	}
	return c, nil
}

func (r *ResumeRepository) DeleteComment(ctx context.Context, id string) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM resume_comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete resume comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return resumes.ErrCommentNotFound
	}
	return nil
}
