package advice

import (
	"context"
	"strings"

	"github.com/mrintern/server/internal/domain/ids"
	"github.com/mrintern/server/internal/sanitize"
	"github.com/mrintern/server/internal/validation"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type PostInput struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required,max=5000"`
}

type CommentInput struct {
	PostID  string `json:"postId" validate:"required"`
	Comment string `json:"comment" validate:"required,max=1000"`
}

func (s *Service) ListPosts(ctx context.Context) ([]Post, error) {
	return s.repo.ListPosts(ctx)
}

func (s *Service) GetPost(ctx context.Context, id string) (*Post, error) {
	if !ids.IsID(id) {
		return nil, ErrPostNotFound
	}
	return s.repo.GetPost(ctx, id)
}

// CreatePost validates lengths on the submitted text, then stores the
// sanitized form.
func (s *Service) CreatePost(ctx context.Context, userID string, input PostInput) (*Post, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Content = strings.TrimSpace(input.Content)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	title := sanitize.Text(input.Title)
	content := sanitize.Post(input.Content)
	if title == "" || content == "" {
		return nil, validation.FieldError{Field: "content", Message: "title and content are required"}
	}
	return s.repo.CreatePost(ctx, userID, title, content)
}

func (s *Service) DeletePost(ctx context.Context, userID, id string) error {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return ErrForbidden
	}
	return s.repo.DeletePost(ctx, post.ID)
}

func (s *Service) Comments(ctx context.Context, postID string) ([]Comment, error) {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return nil, validation.FieldError{Field: "postId", Message: "is required"}
	}
	if !ids.IsID(postID) {
		return []Comment{}, nil
	}
	return s.repo.ListComments(ctx, postID)
}

func (s *Service) AddComment(ctx context.Context, userID string, input CommentInput) (*Comment, error) {
	input.PostID = strings.TrimSpace(input.PostID)
	input.Comment = strings.TrimSpace(input.Comment)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	post, err := s.GetPost(ctx, input.PostID)
	if err != nil {
		return nil, err
	}
	text := sanitize.Text(input.Comment)
	if text == "" {
		return nil, validation.FieldError{Field: "comment", Message: "is required"}
	}
	return s.repo.CreateComment(ctx, post.ID, userID, text)
}

func (s *Service) DeleteComment(ctx context.Context, userID, id string) error {
	if !ids.IsID(id) {
		return ErrCommentNotFound
	}
	comment, err := s.repo.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if comment.UserID != userID {
		return ErrForbidden
	}
	return s.repo.DeleteComment(ctx, id)
}
