package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getVersion(t *testing.T, h http.Handler) buildInfo {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var info buildInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	return info
}

func TestVersionHandler_Stamped(t *testing.T) {
	info := getVersion(t, VersionHandler("1.4.0", "abc123def456", "2026-09-30T12:00:00Z"))

	assert.Equal(t, buildInfo{
		Version:   "1.4.0",
		GitCommit: "abc123def456",
		BuildDate: "2026-09-30T12:00:00Z",
		GoVersion: runtime.Version(),
	}, info)
}

func TestVersionHandler_Defaults(t *testing.T) {
	info := getVersion(t, VersionHandler("", "", ""))

	assert.Equal(t, "dev", info.Version)
	// Test binaries carry no VCS stamp, so the fallbacks apply.
	assert.NotEmpty(t, info.GitCommit)
	assert.NotEmpty(t, info.BuildDate)
}

func TestVersionHandler_Methods(t *testing.T) {
	h := VersionHandler("1.0.0", "abc", "today")
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/version", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
		assert.Equal(t, "GET, HEAD", rec.Header().Get("Allow"))
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/version", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
