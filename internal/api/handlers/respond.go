package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mrintern/server/internal/api/problem"
	"github.com/mrintern/server/internal/domain/advice"
	"github.com/mrintern/server/internal/domain/filters"
	"github.com/mrintern/server/internal/domain/internships"
	"github.com/mrintern/server/internal/domain/recruiters"
	"github.com/mrintern/server/internal/domain/resumes"
	"github.com/mrintern/server/internal/domain/reviews"
	"github.com/mrintern/server/internal/domain/subscriptions"
	"github.com/mrintern/server/internal/domain/tracker"
	"github.com/mrintern/server/internal/domain/users"
	"github.com/mrintern/server/internal/validation"
)

// errMalformedBody is reported when a request body is not valid JSON.
var errMalformedBody = errors.New("request body must be valid JSON")

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func pathParam(r *http.Request, key string) string {
	if r == nil {
		return ""
	}
	return r.PathValue(key)
}

func queryParam(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return tooLarge
	}
	return fmt.Errorf("%w: %v", errMalformedBody, err)
}

// writeDecodeError reports a body that could not be read.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error, env string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypeTooLarge, "Request body too large", err, env)
		return
	}
	problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request body", errMalformedBody, env)
}

// writeRequired reports a missing required parameter.
func writeRequired(w http.ResponseWriter, r *http.Request, field, message, env string) {
	err := validation.FieldError{Field: field, Message: message}
	problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, message, err, env,
		problem.WithErrors(map[string]any{field: message}))
}

// mapError translates a domain error into a status, problem type and title.
func mapError(err error) (int, string, string) {
	switch {
	case validation.IsValidation(err):
		return http.StatusBadRequest, problem.TypeValidation, "Invalid request"
	case errors.Is(err, users.ErrInvalidCredentials):
		return http.StatusUnauthorized, problem.TypeUnauthorized, "Invalid email or password"
	case errors.Is(err, users.ErrEmailTaken):
		return http.StatusConflict, problem.TypeConflict, "Email already registered"
	case errors.Is(err, reviews.ErrDuplicate):
		return http.StatusConflict, problem.TypeConflict, "Review already exists"
	case errors.Is(err, tracker.ErrAlreadySaved):
		return http.StatusBadRequest, problem.TypeValidation, "Internship already saved"
	case errors.Is(err, recruiters.ErrProfileExists):
		return http.StatusBadRequest, problem.TypeValidation, "Recruiter profile already exists"
	case errors.Is(err, recruiters.ErrNotRecruiter):
		return http.StatusForbidden, problem.TypeForbidden, "Recruiter profile required"
	case errors.Is(err, resumes.ErrForbidden), errors.Is(err, advice.ErrForbidden), errors.Is(err, problem.ErrForbidden):
		return http.StatusForbidden, problem.TypeForbidden, "Forbidden"
	case errors.Is(err, resumes.ErrUploadsDisabled):
		return http.StatusServiceUnavailable, problem.TypeUnavailable, "Resume uploads are not configured"
	case errors.Is(err, users.ErrNotFound),
		errors.Is(err, internships.ErrNotFound),
		errors.Is(err, filters.ErrNotFound),
		errors.Is(err, filters.ErrAlertNotFound),
		errors.Is(err, tracker.ErrNotSaved),
		errors.Is(err, tracker.ErrApplicationNotFound),
		errors.Is(err, recruiters.ErrNotFound),
		errors.Is(err, reviews.ErrNotFound),
		errors.Is(err, resumes.ErrNotFound),
		errors.Is(err, resumes.ErrCommentNotFound),
		errors.Is(err, advice.ErrPostNotFound),
		errors.Is(err, advice.ErrCommentNotFound),
		errors.Is(err, subscriptions.ErrNotFound),
		errors.Is(err, problem.ErrNotFound):
		return http.StatusNotFound, problem.TypeNotFound, "Not found"
	default:
		return http.StatusInternalServerError, problem.TypeInternal, "Internal server error"
	}
}

// writeError renders err as a problem response, attaching field errors when
// err is a validation failure.
func writeError(w http.ResponseWriter, r *http.Request, err error, env string) {
	status, typ, title := mapError(err)
	var opts []problem.Option
	if fields, ok := validation.AsFields(err); ok {
		opts = append(opts, problem.WithErrors(fields))
	}
	problem.Write(w, r, status, typ, title, err, env, opts...)
}

// message is the plain acknowledgement body used by delete endpoints.
type message struct {
	Message string `json:"message"`
}

// success is the acknowledgement body of endpoints that report a success flag.
type success struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
