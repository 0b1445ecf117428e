package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/mrintern/server/internal/api/middleware"
	"github.com/mrintern/server/internal/audit"
	"github.com/mrintern/server/internal/domain/tracker"
	"github.com/mrintern/server/internal/domain/users"
	"github.com/mrintern/server/internal/validation"
)

const dashboardPath = "/dashboard"

type accountFormData struct {
	Name  string
	Email string
	Next  string
	Error string
}

type dashboardData struct {
	Saved        []tracker.SavedInternship
	Applications []tracker.Application
	Statuses     []tracker.Status
}

// LoginPage renders the sign-in form. Signed-in visitors go to the dashboard.
func (h *PagesHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"))
	if middleware.UserID(r) != "" {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "login", "Sign in", accountFormData{Next: next})
}

// Login checks the submitted credentials and starts a session cookie.
func (h *PagesHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid form", "The form could not be read.")
		return
	}
	form := accountFormData{
		Email: strings.TrimSpace(r.PostForm.Get("email")),
		Next:  safeNext(r.PostForm.Get("next")),
	}
	password := r.PostForm.Get("password")
	if form.Email == "" || password == "" {
		form.Error = "Email and password are required"
		h.render(w, r, http.StatusBadRequest, "login", "Sign in", form)
		return
	}

	user, err := h.sessions.users.Authenticate(r.Context(), form.Email, password)
	if err != nil {
		h.sessions.audit.FromRequest(r, form.Email, "user.login", "user", "", audit.StatusFailure, nil)
		if errors.Is(err, users.ErrInvalidCredentials) {
			form.Error = "Invalid email or password"
			h.render(w, r, http.StatusUnauthorized, "login", "Sign in", form)
			return
		}
		h.renderFailure(w, r, err)
		return
	}
	h.sessions.audit.FromRequest(r, user.ID, "user.login", "user", user.ID, audit.StatusSuccess, nil)
	if _, _, err := h.sessions.setSessionCookie(w, user); err != nil {
		h.renderFailure(w, r, err)
		return
	}
	http.Redirect(w, r, form.Next, http.StatusSeeOther)
}

// RegisterPage renders the sign-up form.
func (h *PagesHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if middleware.UserID(r) != "" {
		http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "register", "Create account", accountFormData{})
}

// Register creates a student account and signs it in.
func (h *PagesHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid form", "The form could not be read.")
		return
	}
	form := accountFormData{
		Name:  strings.TrimSpace(r.PostForm.Get("name")),
		Email: strings.TrimSpace(r.PostForm.Get("email")),
	}
	user, err := h.sessions.users.Register(r.Context(), users.RegisterInput{
		Name:     form.Name,
		Email:    form.Email,
		Password: r.PostForm.Get("password"),
	})
	if err != nil {
		status, _, title := mapError(err)
		if status >= http.StatusInternalServerError {
			h.renderFailure(w, r, err)
			return
		}
		form.Error = title
		if fields, ok := validation.AsFields(err); ok {
			form.Error = describeFields(fields)
		}
		h.render(w, r, status, "register", "Create account", form)
		return
	}
	h.sessions.audit.FromRequest(r, user.ID, "user.register", "user", user.ID, audit.StatusSuccess, nil)
	if _, _, err := h.sessions.setSessionCookie(w, user); err != nil {
		h.renderFailure(w, r, err)
		return
	}
	http.Redirect(w, r, dashboardPath+"?welcome=1", http.StatusSeeOther)
}

// Logout clears the session cookie and returns home.
func (h *PagesHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.clearSessionCookie(w)
	if userID := middleware.UserID(r); userID != "" {
		h.sessions.audit.FromRequest(r, userID, "user.logout", "user", userID, audit.StatusSuccess, nil)
	}
	http.Redirect(w, r, "/?signedout=1", http.StatusSeeOther)
}

// Dashboard lists the caller's saved internships and tracked applications.
func (h *PagesHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	if userID == "" {
		http.Redirect(w, r, "/login?next="+url.QueryEscape(dashboardPath), http.StatusSeeOther)
		return
	}
	saved, err := h.tracker.ListSaved(r.Context(), userID)
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	apps, err := h.tracker.ListApplications(r.Context(), userID)
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "dashboard", "Dashboard", dashboardData{
		Saved:        saved,
		Applications: apps,
		Statuses:     tracker.Statuses,
	})
}

// TrackApplication handles the status form on the dashboard and detail pages.
func (h *PagesHandler) TrackApplication(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid form", "The form could not be read.")
		return
	}
	_, _, err := h.tracker.Track(r.Context(), userID, tracker.ApplicationInput{
		InternshipID: r.PostForm.Get("internshipId"),
		Status:       r.PostForm.Get("status"),
		Notes:        r.PostForm.Get("notes"),
	})
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	http.Redirect(w, r, dashboardPath+"?updated=1", http.StatusSeeOther)
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return dashboardPath
	}
	return next
}

func describeFields(fields map[string]interface{}) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s %v", name, fields[name]))
	}
	return strings.Join(parts, "; ")
}
