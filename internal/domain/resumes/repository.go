package resumes

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("resume not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrForbidden       = errors.New("not allowed to modify this resource")
	ErrUploadsDisabled = errors.New("resume uploads are not configured")
)

type Resume struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	UserName     string    `json:"userName,omitempty"`
	UserEmail    string    `json:"userEmail,omitempty"`
	ResumeURL    string    `json:"resumeUrl"`
	Title        string    `json:"title"`
	StorageKey   string    `json:"-"`
	ContentType  string    `json:"contentType,omitempty"`
	Preview      string    `json:"preview,omitempty"`
	CommentCount int       `json:"commentCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Comment struct {
	ID        string    `json:"id"`
	ResumeID  string    `json:"resumeId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName,omitempty"`
	UserEmail string    `json:"userEmail,omitempty"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

type Repository interface {
	List(ctx context.Context, userID string) ([]Resume, error)
	Get(ctx context.Context, id string) (*Resume, error)
	GetByUser(ctx context.Context, userID string) (*Resume, error)
	// Upsert keeps one resume per user, refreshing created_at on update. It
	// reports whether a new row was created.
	Upsert(ctx context.Context, resume Resume) (*Resume, bool, error)
	// Delete removes the resume and its comments.
	Delete(ctx context.Context, id string) error

	ListComments(ctx context.Context, resumeID string) ([]Comment, error)
	CreateComment(ctx context.Context, resumeID, userID, text string) (*Comment, error)
	GetComment(ctx context.Context, id string) (*Comment, error)
	DeleteComment(ctx context.Context, id string) error
}

// FileStore persists uploaded resume documents.
type FileStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

// TextExtractor validates a document and returns its plain text.
type TextExtractor interface {
	Extract(filename string, data []byte) (contentType string, text string, err error)
}
