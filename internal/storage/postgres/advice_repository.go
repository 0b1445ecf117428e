package postgres

import (
	"context"
	"fmt"

	"github.com/mrintern/server/internal/domain/advice"
)

var _ advice.Repository = (*AdviceRepository)(nil)

type AdviceRepository struct {
	conn
}

const postSelect = `
SELECT p.id, p.user_id, COALESCE(u.name, ''), COALESCE(u.email, ''), p.title, p.content,
       (SELECT COUNT(*) FROM advice_comments c WHERE c.post_id = p.id),
       p.created_at
  FROM advice_posts p
  LEFT JOIN users u ON u.id = p.user_id`

func scanPost(row interface{ Scan(...any) error }) (*advice.Post, error) {
	var p advice.Post
	if err := row.Scan(&p.ID, &p.UserID, &p.UserName, &p.UserEmail, &p.Title, &p.Content, &p.CommentCount, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *AdviceRepository) ListPosts(ctx context.Context) ([]advice.Post, error) {
	rows, err := r.queryer().Query(ctx, postSelect+` ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list advice posts: %w", err)
	}
	defer rows.Close()

	out := make([]advice.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan advice post: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *AdviceRepository) GetPost(ctx context.Context, id string) (*advice.Post, error) {
	p, err := scanPost(r.queryer().QueryRow(ctx, postSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, advice.ErrPostNotFound
		}
		return nil, fmt.Errorf("get advice post: %w", err)
	}
	return p, nil
}

func (r *AdviceRepository) CreatePost(ctx context.Context, userID, title, content string) (*advice.Post, error) {
	var id string
	err := r.queryer().QueryRow(ctx, `
INSERT INTO advice_posts (user_id, title, content) VALUES ($1, $2, $3) RETURNING id
`, userID, title, content).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create advice post: %w", err)
	}
	return r.GetPost(ctx, id)
}

func (r *AdviceRepository) DeletePost(ctx context.Context, id string) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM advice_posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete advice post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return advice.ErrPostNotFound
	}
	return nil
}

const adviceCommentSelect = `
SELECT c.id, c.post_id, c.user_id, COALESCE(u.name, ''), COALESCE(u.email, ''), c.comment, c.created_at
  FROM advice_comments c
  LEFT JOIN users u ON u.id = c.user_id`

func scanAdviceComment(row interface{ Scan(...any) error }) (*advice.Comment, error) {
	var c advice.Comment
	if err := row.Scan(&c.ID, &c.PostID, &c.UserID, &c.UserName, &c.UserEmail, &c.Comment, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *AdviceRepository) ListComments(ctx context.Context, postID string) ([]advice.Comment, error) {
	rows, err := r.queryer().Query(ctx, adviceCommentSelect+`
 WHERE c.post_id = $1
 ORDER BY c.created_at ASC
`, postID)
	if err != nil {
		return nil, fmt.Errorf("list advice comments: %w", err)
	}
	defer rows.Close()

	out := make([]advice.Comment, 0)
	for rows.Next() {
		c, err := scanAdviceComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan advice comment: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *AdviceRepository) GetComment(ctx context.Context, id string) (*advice.Comment, error) {
	c, err := scanAdviceComment(r.queryer().QueryRow(ctx, adviceCommentSelect+` WHERE c.id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, advice.ErrCommentNotFound
		}
		return nil, fmt.Errorf("get advice comment: %w", err)
	}
	return c, nil
}

func (r *AdviceRepository) CreateComment(ctx context.Context, postID, userID, text string) (*advice.Comment, error) {
	var id string
	err := r.queryer().QueryRow(ctx, `
INSERT INTO advice_comments (post_id, user_id, comment) VALUES ($1, $2, $3) RETURNING id
`, postID, userID, text).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create advice comment: %w", err)
	}
	return r.GetComment(ctx, id)
}

func (r *AdviceRepository) DeleteComment(ctx context.Context, id string) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM advice_comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete advice comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return advice.ErrCommentNotFound
	}
	return nil
}
