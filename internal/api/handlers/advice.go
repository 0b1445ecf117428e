package handlers

import (
	"context"
	"net/http"

	"github.com/mrintern/server/internal/api/middleware"
	"github.com/mrintern/server/internal/domain/advice"
)

// AdviceService manages advice board posts and comments.
type AdviceService interface {
	ListPosts(ctx context.Context) ([]advice.Post, error)
	CreatePost(ctx context.Context, userID string, input advice.PostInput) (*advice.Post, error)
	DeletePost(ctx context.Context, userID, id string) error
	Comments(ctx context.Context, postID string) ([]advice.Comment, error)
	AddComment(ctx context.Context, userID string, input advice.CommentInput) (*advice.Comment, error)
	DeleteComment(ctx context.Context, userID, id string) error
}

type AdviceHandler struct {
	service AdviceService
	env     string
}

func NewAdviceHandler(service AdviceService, env string) *AdviceHandler {
	return &AdviceHandler{service: service, env: env}
}

func (h *AdviceHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListPosts(r.Context())
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	if posts == nil {
		posts = []advice.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *AdviceHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var input advice.PostInput
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, r, err, h.env)
		return
	}
	post, err := h.service.CreatePost(r.Context(), middleware.UserID(r), input)
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (h *AdviceHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id := queryParam(r, "id")
	if id == "" {
		writeRequired(w, r, "id", "Post ID is required", h.env)
		return
	}
	if err := h.service.DeletePost(r.Context(), middleware.UserID(r), id); err != nil {
		writeError(w, r, err, h.env)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Post deleted successfully"})
}

func (h *AdviceHandler) Comments(w http.ResponseWriter, r *http.Request) {
	postID := queryParam(r, "postId")
	if postID == "" {
		writeRequired(w, r, "postId", "Post ID is required", h.env)
		return
	}
	comments, err := h.service.Comments(r.Context(), postID)
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	if comments == nil {
		comments = []advice.Comment{}
	}
	writeJSON(w, http.StatusOK, comments)
}

func (h *AdviceHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var input advice.CommentInput
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

func (h *AdviceHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
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
