package advice

import (
	"context"
	"errors"
	"time"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrForbidden       = errors.New("not allowed to delete this content")
)

type Post struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	UserName     string    `json:"userName,omitempty"`
	UserEmail    string    `json:"userEmail,omitempty"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	CommentCount int       `json:"commentCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName,omitempty"`
	UserEmail string    `json:"userEmail,omitempty"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

type Repository interface {
	ListPosts(ctx context.Context) ([]Post, error)
	GetPost(ctx context.Context, id string) (*Post, error)
	CreatePost(ctx context.Context, userID, title, content string) (*Post, error)
	// DeletePost removes the post and its comments.
	DeletePost(ctx context.Context, id string) error

	ListComments(ctx context.Context, postID string) ([]Comment, error)
	GetComment(ctx context.Context, id string) (*Comment, error)
	CreateComment(ctx context.Context, postID, userID, text string) (*Comment, error)
	DeleteComment(ctx context.Context, id string) error
}
