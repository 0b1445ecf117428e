package resumes

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mrintern/server/internal/domain/ids"
	"github.com/mrintern/server/internal/sanitize"
	"github.com/mrintern/server/internal/validation"
	"github.com/rs/zerolog"
)

const (
	// MaxUploadBytes bounds uploaded resume files.
	MaxUploadBytes = 5 << 20
	previewRunes   = 600
)

type Service struct {
	repo      Repository
	files     FileStore
	extractor TextExtractor
}

// NewService wires the resume board. files and extractor may be nil, which
// disables uploads.
func NewService(repo Repository, files FileStore, extractor TextExtractor) *Service {
	return &Service{repo: repo, files: files, extractor: extractor}
}

type SubmitInput struct {
	ResumeURL string `json:"resumeUrl" validate:"required,max=2048"`
	Title     string `json:"title" validate:"required,max=200"`
}

func (s *Service) List(ctx context.Context, userID string) ([]Resume, error) {
	userID = strings.TrimSpace(userID)
	if userID != "" && !ids.IsID(userID) {
		return []Resume{}, nil
	}
	return s.repo.List(ctx, userID)
}

// Submit records a link to a hosted resume, replacing the user's previous one.
func (s *Service) Submit(ctx context.Context, userID string, input SubmitInput) (*Resume, bool, error) {
	input.ResumeURL = strings.TrimSpace(input.ResumeURL)
	input.Title = sanitize.Text(input.Title)
	if err := validation.Struct(input); err != nil {
		return nil, false, err
	}
	if err := validation.ValidateURL(input.ResumeURL, "resumeUrl"); err != nil {
		return nil, false, err
	}
	previous, err := s.current(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	saved, created, err := s.repo.Upsert(ctx, Resume{UserID: userID, ResumeURL: input.ResumeURL, Title: input.Title})
	if err != nil {
		return nil, false, err
	}
	s.dropStoredFile(ctx, previous)
	return saved, created, nil
}

// current returns the user's resume, or nil when they have none.
func (s *Service) current(ctx context.Context, userID string) (*Resume, error) {
	previous, err := s.repo.GetByUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load current resume: %w", err)
	}
	return previous, nil
}

// UploadsEnabled reports whether file uploads are configured.
func (s *Service) UploadsEnabled() bool {
	return s.files != nil && s.extractor != nil
}

// Upload stores a PDF or DOCX resume and records it with a text preview.
func (s *Service) Upload(ctx context.Context, userID, title, filename string, data []byte) (*Resume, bool, error) {
	if !s.UploadsEnabled() {
		return nil, false, ErrUploadsDisabled
	}
	if len(data) == 0 {
		return nil, false, validation.FieldError{Field: "file", Message: "is required"}
	}
	if len(data) > MaxUploadBytes {
		return nil, false, validation.FieldError{Field: "file", Message: "must be 5 MB or smaller"}
	}
	title = sanitize.Text(title)
	if title == "" {
		title = strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	}
	if utf8.RuneCountInString(title) > 200 {
		return nil, false, validation.FieldError{Field: "title", Message: "must be at most 200 characters"}
	}

	contentType, text, err := s.extractor.Extract(filename, data)
	if err != nil {
		return nil, false, validation.FieldError{Field: "file", Message: err.Error()}
	}

	previous, err := s.current(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	key := fmt.Sprintf("resumes/%s/%s%s", userID, uuid.NewString(), strings.ToLower(path.Ext(filename)))
	url, err := s.files.Put(ctx, key, contentType, data)
	if err != nil {
		return nil, false, fmt.Errorf("store resume: %w", err)
	}

	saved, created, err := s.repo.Upsert(ctx, Resume{
		UserID:      userID,
		ResumeURL:   url,
		Title:       title,
		StorageKey:  key,
		ContentType: contentType,
		Preview:     Preview(text),
	})
	if err != nil {
		if delErr := s.files.Delete(ctx, key); delErr != nil {
			zerolog.Ctx(ctx).Warn().Err(delErr).Str("key", key).Msg("failed to remove orphaned resume upload")
		}
		return nil, false, err
	}
	s.dropStoredFile(ctx, previous)
	return saved, created, nil
}

func (s *Service) dropStoredFile(ctx context.Context, previous *Resume) {
	if previous == nil || previous.StorageKey == "" || s.files == nil {
		return
	}
	if err := s.files.Delete(ctx, previous.StorageKey); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", previous.StorageKey).Msg("failed to delete replaced resume file")
	}
}

// Preview collapses whitespace and truncates text for display.
func Preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:previewRunes])) + "…"
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if !ids.IsID(id) {
		return ErrNotFound
	}
	resume, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if resume.UserID != userID {
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.dropStoredFile(ctx, resume)
	return nil
}

type CommentInput struct {
	ResumeID string `json:"resumeId" validate:"required"`
	Comment  string `json:"comment" validate:"required,max=1000"`
}

func (s *Service) Comments(ctx context.Context, resumeID string) ([]Comment, error) {
	resumeID = strings.TrimSpace(resumeID)
	if resumeID == "" {
		return nil, validation.FieldError{Field: "resumeId", Message: "is required"}
	}
	if !ids.IsID(resumeID) {
		return []Comment{}, nil
	}
	return s.repo.ListComments(ctx, resumeID)
}

func (s *Service) AddComment(ctx context.Context, userID string, input CommentInput) (*Comment, error) {
	input.ResumeID = strings.TrimSpace(input.ResumeID)
	input.Comment = sanitize.Text(input.Comment)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if !ids.IsID(input.ResumeID) {
		return nil, ErrNotFound
	}
	if _, err := s.repo.Get(ctx, input.ResumeID); err != nil {
		return nil, err
	}
	return s.repo.CreateComment(ctx, input.ResumeID, userID, input.Comment)
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
