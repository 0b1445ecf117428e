package render

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mrintern/server/internal/domain/internships"
	"github.com/mrintern/server/web"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New(web.Templates())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return r
}

func TestRenderHome(t *testing.T) {
	r := newRenderer(t)
	rec := httptest.NewRecorder()

	data := struct {
		Featured []internships.Internship
		Latest   []internships.Internship
	}{
		Featured: []internships.Internship{{ID: "a", Title: "Software Engineering Intern", Company: "Google", Featured: true}},
		Latest:   []internships.Internship{{ID: "b", Title: "Analyst Intern", Company: "Acme", CreatedAt: time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)}},
	}
	err := r.Render(rec, http.StatusOK, "home", Page{Title: "Home", Data: data})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "<!DOCTYPE html>") {
		t.Error("Missing DOCTYPE")
	}
	if !strings.Contains(body, `href="/internships/a"`) {
		t.Error("Missing featured listing link")
	}
	if !strings.Contains(body, "Mar 4, 2026") {
		t.Error("Missing formatted date")
	}
	if got := rec.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
}

func TestRenderEscapesUserContent(t *testing.T) {
	r := newRenderer(t)
	rec := httptest.NewRecorder()

	data := struct {
		Posts []struct {
			ID, Title, Content, UserName string
			CommentCount                 int
			CreatedAt                    time.Time
		}
	}{}
	data.Posts = append(data.Posts, struct {
		ID, Title, Content, UserName string
		CommentCount                 int
		CreatedAt                    time.Time
	}{Title: "<script>alert('xss')</script>", Content: "<img src=x onerror=alert(1)>"})

	if err := r.Render(rec, http.StatusOK, "advice", Page{Title: "Advice", Data: data}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	body := rec.Body.String()
	if strings.Contains(body, "<script>alert") {
		t.Error("script tag was not escaped")
	}
	if strings.Contains(body, "<img src=x") {
		t.Error("img tag was not escaped")
	}
}

func TestRenderIncludesCSRFFieldForSignedInUsers(t *testing.T) {
	r := newRenderer(t)

	data := struct {
		Posts []struct{}
	}{}
	page := Page{Title: "Advice", SignedIn: true, UserName: "Ada", CSRFField: "csrf_token", CSRFToken: "tok123", Data: data}

	rec := httptest.NewRecorder()
	if err := r.Render(rec, http.StatusOK, "advice", page); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `name="csrf_token" value="tok123"`) {
		t.Error("Missing CSRF hidden field")
	}

	page.SignedIn = false
	rec = httptest.NewRecorder()
	if err := r.Render(rec, http.StatusOK, "advice", page); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if strings.Contains(rec.Body.String(), "csrf_token") {
		t.Error("Anonymous page should not render the post form")
	}
}

func TestRenderUnknownPage(t *testing.T) {
	r := newRenderer(t)
	rec := httptest.NewRecorder()

	if err := r.Render(rec, http.StatusOK, "missing", Page{}); err == nil {
		t.Fatal("expected error for unknown page")
	}
	if rec.Body.Len() != 0 {
		t.Error("nothing should be written for an unknown page")
	}
}

func TestStars(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{5, "★★★★★"},
		{3, "★★★☆☆"},
		{4.4, "★★★★☆"},
		{4.5, "★★★★★"},
		{0, "☆☆☆☆☆"},
		{9, "★★★★★"},
	}
	for _, tt := range tests {
		if got := stars(tt.in); got != tt.want {
			t.Errorf("stars(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC)
	if got := formatDate(d); got != "Nov 15, 2025" {
		t.Errorf("formatDate(time) = %q", got)
	}
	if got := formatDate(&d); got != "Nov 15, 2025" {
		t.Errorf("formatDate(*time) = %q", got)
	}
	var nilTime *time.Time
	if got := formatDate(nilTime); got != "" {
		t.Errorf("formatDate(nil) = %q", got)
	}
}
