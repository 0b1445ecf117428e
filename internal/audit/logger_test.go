package audit

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.New(&buf))
	logger.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }

	logger.Log(Entry{
		Action:       "internship.create",
		Actor:        "admin@example.com",
		ResourceType: "internship",
		ResourceID:   "0b4a7f5e-5a36-4cf6-9c39-1d1d2bb8d0a1",
		IPAddress:    "192.0.2.1",
		Status:       StatusSuccess,
		Details:      map[string]string{"company": "Google"},
	})

	line := decodeLine(t, &buf)
	assert.Equal(t, true, line["audit"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "internship.create", line["action"])
	assert.Equal(t, "admin@example.com", line["actor"])
	assert.Equal(t, "internship", line["resource_type"])
	assert.Equal(t, map[string]any{"company": "Google"}, line["details"])
	assert.Equal(t, "2026-03-01T09:00:00Z", line["at"])
}

func TestLogger_FailureLogsAtWarn(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(zerolog.New(&buf)).Log(Entry{Action: "alerts.check", Status: StatusFailure})

	line := decodeLine(t, &buf)
	assert.Equal(t, "warn", line["level"])
	assert.NotContains(t, line, "resource_type")
}

func TestLogger_FromRequest(t *testing.T) {
	var buf bytes.Buffer
	req := httptest.NewRequest(http.MethodPost, "/api/check-alerts", nil)
	req.RemoteAddr = "203.0.113.4:51000"

	NewLogger(zerolog.New(&buf)).FromRequest(req, "admin-id", "alerts.check", "", "", StatusSuccess, nil)

	line := decodeLine(t, &buf)
	assert.Equal(t, "203.0.113.4", line["ip"])
	assert.Equal(t, "admin-id", line["actor"])
}

func TestLogger_NilIsNoop(t *testing.T) {
	var logger *Logger
	logger.Log(Entry{Action: "noop"})
}
