package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/mrintern/server/internal/api/middleware"
	"github.com/mrintern/server/internal/api/problem"
	"github.com/mrintern/server/internal/audit"
	"github.com/mrintern/server/internal/domain/resumes"
)

// ResumeService manages shared resumes and their review comments.
type ResumeService interface {
	List(ctx context.Context, userID string) ([]resumes.Resume, error)
	Submit(ctx context.Context, userID string, input resumes.SubmitInput) (*resumes.Resume, bool, error)
	Upload(ctx context.Context, userID, title, filename string, data []byte) (*resumes.Resume, bool, error)
	UploadsEnabled() bool
	Delete(ctx context.Context, userID, id string) error
	Comments(ctx context.Context, resumeID string) ([]resumes.Comment, error)
	AddComment(ctx context.Context, userID string, input resumes.CommentInput) (*resumes.Comment, error)
	DeleteComment(ctx context.Context, userID, id string) error
}

type ResumesHandler struct {
	service ResumeService
	audit   *audit.Logger
	env     string
}

func NewResumesHandler(service ResumeService, auditLogger *audit.Logger, env string) *ResumesHandler {
	return &ResumesHandler{service: service, audit: auditLogger, env: env}
}

// uploadMemory is how much of a multipart form is buffered in memory before
// spilling to temp files.
const uploadMemory = 1 << 20

func (h *ResumesHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), queryParam(r, "userId"))
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	if items == nil {
		items = []resumes.Resume{}
	}
	writeJSON(w, http.StatusOK, items)
}

// Submit records a hosted resume link. Each user has one resume, so a second
// submission replaces the first and answers 200.
func (h *ResumesHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var input resumes.SubmitInput
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, r, err, h.env)
		return
	}
	resume, created, err := h.service.Submit(r.Context(), middleware.UserID(r), input)
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	writeJSON(w, resumeStatus(created), resume)
}

// Upload accepts a multipart form with a "file" part (PDF or DOCX) and an
// optional "title" field.
func (h *ResumesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if !h.service.UploadsEnabled() {
		writeError(w, r, resumes.ErrUploadsDisabled, h.env)
		return
	}
	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypeTooLarge, "Resume file too large", err, h.env)
			return
		}
		problem.Write(w, r, http.StatusUnsupportedMediaType, problem.TypeUnsupportedType, "Expected multipart form data", err, h.env)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeRequired(w, r, "file", "Resume file is required", h.env)
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, resumes.MaxUploadBytes+1))
	if err != nil {
		writeDecodeError(w, r, err, h.env)
		return
	}

	userID := middleware.UserID(r)
	resume, created, err := h.service.Upload(r.Context(), userID, r.FormValue("title"), header.Filename, data)
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	h.audit.FromRequest(r, userID, "resume.upload", "resume", resume.ID, audit.StatusSuccess,
		map[string]string{"content_type": resume.ContentType})
	writeJSON(w, resumeStatus(created), resume)
}

func (h *ResumesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := queryParam(r, "id")
	if id == "" {
		writeRequired(w, r, "id", "Resume ID is required", h.env)
		return
	}
	if err := h.service.Delete(r.Context(), middleware.UserID(r), id); err != nil {
		writeError(w, r, err, h.env)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Resume deleted successfully"})
}

func (h *ResumesHandler) Comments(w http.ResponseWriter, r *http.Request) {
	resumeID := queryParam(r, "resumeId")
	if resumeID == "" {
		writeRequired(w, r, "resumeId", "Resume ID is required", h.env)
		return
	}
	items, err := h.service.Comments(r.Context(), resumeID)
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	if items == nil {
		items = []resumes.Comment{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ResumesHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var input resumes.CommentInput
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, r, err, h.env)
		return
	}
	comment, err := h.service.AddComment(r.Context(), middleware.UserID(r), input)
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (h *ResumesHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id := queryParam(r, "id")
	if id == "" {
		writeRequired(w, r, "id", "Comment ID is required", h.env)
		return
	}
	if err := h.service.DeleteComment(r.Context(), middleware.UserID(r), id); err != nil {
		writeError(w, r, err, h.env)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Comment deleted successfully"})
}

func resumeStatus(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}
