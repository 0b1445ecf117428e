package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"runtime/debug"
)

type buildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// VersionHandler serves build metadata set through ldflags. When the commit
// or date were not stamped, the VCS settings recorded by the Go toolchain are
// used instead.
func VersionHandler(version, gitCommit, buildDate string) http.Handler {
	info := buildInfo{
		Version:   orDefault(version, "dev"),
		GitCommit: gitCommit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
	}
	if info.GitCommit == "" || info.BuildDate == "" {
		revision, modified := vcsSettings()
		if info.GitCommit == "" {
			info.GitCommit = revision
		}
		if info.BuildDate == "" {
			info.BuildDate = modified
		}
	}
	info.GitCommit = orDefault(info.GitCommit, "unknown")
	info.BuildDate = orDefault(info.BuildDate, "unknown")

	body, _ := json.Marshal(info)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	})
}

func vcsSettings() (revision, timestamp string) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.time":
			timestamp = s.Value
		}
	}
	return revision, timestamp
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
