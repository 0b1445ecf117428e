// Package web holds the embedded page templates and static assets.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Templates returns the page templates rooted at the templates directory.
func Templates() fs.FS {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// StaticHandler serves /static/ assets.
func StaticHandler() http.Handler {
	return http.StripPrefix("/static/", cached(http.FileServerFS(mustSub(staticFS, "static")), "public, max-age=3600, must-revalidate"))
}

// RobotsTxtHandler serves robots.txt.
func RobotsTxtHandler() http.Handler {
	return file("static/robots.txt", "text/plain; charset=utf-8", "public, max-age=86400")
}

// ServiceWorkerHandler serves the push service worker from the site root so
// its scope covers every page.
func ServiceWorkerHandler() http.Handler {
	return file("static/sw.js", "text/javascript; charset=utf-8", "no-cache")
}

func file(name, contentType, cacheControl string) http.Handler {
	body, err := staticFS.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", cacheControl)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	})
}

func cached(next http.Handler, cacheControl string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", cacheControl)
		next.ServeHTTP(w, r)
	})
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
