package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/mrintern/server/internal/domain/internships"
	"github.com/mrintern/server/internal/domain/tracker"
)

// Page is the data every template receives. Data carries page-specific values.
type Page struct {
	Title     string
	SignedIn  bool
	UserName  string
	CSRFField string
	CSRFToken string
	Flash     string
	Data      any
}

// Renderer executes page templates wrapped in the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"date":       formatDate,
	"stars":      stars,
	"industries": industries,
	"ratings":    func() []int { return []int{5, 4, 3, 2, 1} },
	"statuses":   func() []tracker.Status { return tracker.Statuses },
}

// New parses layout.html together with each other *.html file in fsys. Pages
// are looked up by file name without the extension.
func New(fsys fs.FS) (*Renderer, error) {
	names, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range names {
		if name == "layout.html" {
			continue
		}
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(fsys, "layout.html", name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[strings.TrimSuffix(name, ".html")] = tmpl
	}
	if len(r.pages) == 0 {
		return nil, fmt.Errorf("no page templates found")
	}
	return r, nil
}

// Render writes the page with the given status. The page is executed into a
// buffer first so a template error never leaves a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, page Page) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", page); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

func formatDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format("Jan 2, 2006")
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.Format("Jan 2, 2006")
	default:
		return ""
	}
}

// stars renders a 1..5 rating, rounding averages to the nearest star.
func stars(v any) string {
	var n int
	switch r := v.(type) {
	case int:
		n = r
	case float64:
		n = int(r + 0.5)
	}
	n = max(0, min(n, 5))
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

func industries() []string {
	out := make([]string, 0, len(internships.Industries))
	for _, i := range internships.Industries {
		out = append(out, string(i))
	}
	return out
}
