package problem

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

const contentType = "application/problem+json"

const typeBase = "https://mrintern.app/problems/"

// Problem type URIs.
const (
	TypeValidation      = typeBase + "validation-error"
	TypeUnauthorized    = typeBase + "unauthorized"
	TypeForbidden       = typeBase + "forbidden"
	TypeNotFound        = typeBase + "not-found"
	TypeConflict        = typeBase + "conflict"
	TypeTooLarge        = typeBase + "payload-too-large"
	TypeUnsupportedType = typeBase + "unsupported-media-type"
	TypeRateLimited     = typeBase + "rate-limited"
	TypeCSRF            = typeBase + "csrf-failure"
	TypeUnavailable     = typeBase + "service-unavailable"
	TypeInternal        = typeBase + "internal-error"
)

// ProblemDetails is an RFC 7807 body. Success is always false so clients that
// branch on the success flag keep working.
type ProblemDetails struct {
	Success  bool           `json:"success"`
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Status   int            `json:"status"`
	Detail   string         `json:"detail,omitempty"`
	Instance string         `json:"instance,omitempty"`
	Errors   map[string]any `json:"errors,omitempty"`
}

type Option func(*ProblemDetails)

func WithDetail(detail string) Option {
	return func(p *ProblemDetails) {
		p.Detail = detail
	}
}

func WithErrors(errs map[string]any) Option {
	return func(p *ProblemDetails) {
		p.Errors = errs
	}
}

// Write renders a problem response. Client errors carry err's message as the
// detail; server error details are only shown in development and test.
func Write(w http.ResponseWriter, r *http.Request, status int, typ, title string, err error, env string, opts ...Option) {
	problem := ProblemDetails{
		Type:   typ,
		Title:  title,
		Status: status,
	}
	for _, opt := range opts {
		opt(&problem)
	}

	if problem.Detail == "" && err != nil {
		switch {
		case status < 500:
			problem.Detail = err.Error()
		case env == "development" || env == "test":
			problem.Detail = err.Error()
		default:
			problem.Detail = http.StatusText(status)
		}
	}
	if problem.Instance == "" && r != nil {
		problem.Instance = r.URL.Path
	}

	if err != nil && r != nil {
		logger := zerolog.Ctx(r.Context())
		event := logger.Warn()
		if status >= 500 {
			event = logger.Error()
		}
		event.Err(err).Int("status", status).Str("type", typ).Msg(title)
	}

	WriteProblem(w, problem)
}

func WriteProblem(w http.ResponseWriter, problem ProblemDetails) {
	problem.Success = false
	payload, err := json.Marshal(problem)
	if err != nil {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"type":"about:blank","title":"Internal Server Error","status":500}`))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(problem.Status)
	_, _ = w.Write(payload)
}

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)
