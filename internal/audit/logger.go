package audit

import (
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Entry records one privileged action: an admin trigger or a change made on
// someone's behalf.
type Entry struct {
	Timestamp    time.Time
	Action       string
	Actor        string
	ResourceType string
	ResourceID   string
	IPAddress    string
	Status       string
	Details      map[string]string
}

// Logger writes audit entries as structured log lines tagged audit=true so
// they can be routed separately.
type Logger struct {
	logger zerolog.Logger
	now    func() time.Time
}

func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{
		logger: logger.With().Bool("audit", true).Logger(),
		now:    time.Now,
	}
}

func (l *Logger) Log(entry Entry) {
	if l == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now().UTC()
	}
	event := l.logger.Info()
	if entry.Status == StatusFailure {
		event = l.logger.Warn()
	}
	event = event.
		Time("at", entry.Timestamp).
		Str("action", entry.Action).
		Str("actor", entry.Actor).
		Str("status", entry.Status).
		Str("ip", entry.IPAddress)
	if entry.ResourceType != "" {
		event = event.Str("resource_type", entry.ResourceType).Str("resource_id", entry.ResourceID)
	}
	if len(entry.Details) > 0 {
		dict := zerolog.Dict()
		for k, v := range entry.Details {
			dict = dict.Str(k, v)
		}
		event = event.Dict("details", dict)
	}
	event.Msg("audit")
}

// FromRequest logs an action taken through the HTTP API by actor.
func (l *Logger) FromRequest(r *http.Request, actor, action, resourceType, resourceID, status string, details map[string]string) {
	l.Log(Entry{
		Action:       action,
		Actor:        actor,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    remoteIP(r),
		Status:       status,
		Details:      details,
	})
}

func remoteIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
