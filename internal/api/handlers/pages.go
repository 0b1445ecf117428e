package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrintern/server/internal/api/middleware"
	"github.com/mrintern/server/internal/api/render"
	"github.com/mrintern/server/internal/domain/advice"
	"github.com/mrintern/server/internal/domain/filters"
	"github.com/mrintern/server/internal/domain/internships"
	"github.com/mrintern/server/internal/domain/reviews"
	"github.com/mrintern/server/internal/domain/tracker"
)

// PageReviews is what the detail page needs from the reviews service.
type PageReviews interface {
	List(ctx context.Context, query reviews.Query) ([]reviews.Review, error)
	Create(ctx context.Context, userID string, input reviews.CreateInput) (*reviews.Review, error)
	CompanyRating(ctx context.Context, company string) (float64, int, error)
}

// PageFilters is what the "save this filter" form needs.
type PageFilters interface {
	Save(ctx context.Context, userID string, criteria filters.Criteria) (*filters.SavedFilter, bool, error)
	EnableAlert(ctx context.Context, userID, filterID string) (*filters.AlertPreference, error)
}

// PageAdvice is what the advice board and post pages need.
type PageAdvice interface {
	ListPosts(ctx context.Context) ([]advice.Post, error)
	GetPost(ctx context.Context, id string) (*advice.Post, error)
	CreatePost(ctx context.Context, userID string, input advice.PostInput) (*advice.Post, error)
	Comments(ctx context.Context, postID string) ([]advice.Comment, error)
	AddComment(ctx context.Context, userID string, input advice.CommentInput) (*advice.Comment, error)
}

// PageTracker is what the dashboard needs from the tracker service.
type PageTracker interface {
	ListSaved(ctx context.Context, userID string) ([]tracker.SavedInternship, error)
	ListApplications(ctx context.Context, userID string) ([]tracker.Application, error)
	Track(ctx context.Context, userID string, input tracker.ApplicationInput) (*tracker.Application, bool, error)
}

// PageServices are the services behind the HTML pages. Sessions signs the
// same cookie the JSON auth endpoints do.
type PageServices struct {
	Internships InternshipService
	Reviews     PageReviews
	Filters     PageFilters
	Advice      PageAdvice
	Tracker     PageTracker
	Sessions    *AuthHandler
}

// PagesHandler serves the server-rendered HTML pages and their form posts.
type PagesHandler struct {
	internships InternshipService
	reviews     PageReviews
	filters     PageFilters
	advice      PageAdvice
	tracker     PageTracker
	sessions    *AuthHandler
	renderer    *render.Renderer
	env         string
}

func NewPagesHandler(services PageServices, renderer *render.Renderer, env string) *PagesHandler {
	return &PagesHandler{
		internships: services.Internships,
		reviews:     services.Reviews,
		filters:     services.Filters,
		advice:      services.Advice,
		tracker:     services.Tracker,
		sessions:    services.Sessions,
		renderer:    renderer,
		env:         env,
	}
}

const (
	homeFeaturedLimit = 5
	homeLatestLimit   = 10
)

type homeData struct {
	Featured []internships.Internship
	Latest   []internships.Internship
}

type listData struct {
	Filters internships.Filters
	Items   []internships.Internship
}

type detailData struct {
	Internship    *internships.Internship
	Reviews       []reviews.Review
	AverageRating float64
	ReviewCount   int
}

type adviceData struct {
	Posts []advice.Post
}

type advicePostData struct {
	Post     *advice.Post
	Comments []advice.Comment
}

type errorData struct {
	Message string
	SignIn  bool
}

func (h *PagesHandler) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.renderError(w, r, http.StatusNotFound, "Page not found", "We couldn't find that page.")
		return
	}
	featured, err := h.internships.List(r.Context(), internships.Filters{FeaturedOnly: true})
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	latest, err := h.internships.List(r.Context(), internships.Filters{})
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "home", "Home", homeData{
		Featured: firstN(featured, homeFeaturedLimit),
		Latest:   firstN(latest, homeLatestLimit),
	})
}

func (h *PagesHandler) Internships(w http.ResponseWriter, r *http.Request) {
	f, err := internships.ParseFilters(r.URL.Query())
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid filters", err.Error())
		return
	}
	items, err := h.internships.List(r.Context(), f)
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "internships", "Internships", listData{Filters: f, Items: items})
}

func (h *PagesHandler) Internship(w http.ResponseWriter, r *http.Request) {
	item, err := h.internships.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	list, err := h.reviews.List(r.Context(), reviews.Query{Company: item.Company})
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	avg, count, err := h.reviews.CompanyRating(r.Context(), item.Company)
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "internship", item.Title, detailData{
		Internship:    item,
		Reviews:       list,
		AverageRating: avg,
		ReviewCount:   count,
	})
}

func (h *PagesHandler) Advice(w http.ResponseWriter, r *http.Request) {
	posts, err := h.advice.ListPosts(r.Context())
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "advice", "Advice board", adviceData{Posts: posts})
}

// AdvicePost shows one post with its comments.
func (h *PagesHandler) AdvicePost(w http.ResponseWriter, r *http.Request) {
	post, err := h.advice.GetPost(r.Context(), pathParam(r, "id"))
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	comments, err := h.advice.Comments(r.Context(), post.ID)
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "advice_post", post.Title, advicePostData{Post: post, Comments: comments})
}

// SaveFilter handles the "save this filter" form and redirects back to the
// filtered list.
func (h *PagesHandler) SaveFilter(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid form", "The form could not be read.")
		return
	}
	input := filters.CriteriaInput{
		Season:   r.PostForm.Get("season"),
		Location: r.PostForm.Get("location"),
		Industry: r.PostForm.Get("industry"),
	}
	if year := strings.TrimSpace(r.PostForm.Get("graduationYear")); year != "" {
		input.GraduationYear = json.RawMessage(strconv.Quote(year))
	}
	criteria, err := input.Criteria()
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid filter", err.Error())
		return
	}

	saved, _, err := h.filters.Save(r.Context(), userID, criteria)
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	if r.PostForm.Get("alert") == "true" {
		if _, err := h.filters.EnableAlert(r.Context(), userID, saved.ID); err != nil {
			h.renderFailure(w, r, err)
			return
		}
	}

	query := criteria.Filters().Query()
	query.Set("saved", "1")
	http.Redirect(w, r, "/internships?"+query.Encode(), http.StatusSeeOther)
}

// CreateReview handles the review form on the detail page.
func (h *PagesHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	item, err := h.internships.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid form", "The form could not be read.")
		return
	}
	rating, _ := strconv.Atoi(r.PostForm.Get("rating"))
	_, err = h.reviews.Create(r.Context(), userID, reviews.CreateInput{
		Company:      item.Company,
		InternshipID: item.ID,
		Rating:       rating,
		Pros:         r.PostForm.Get("pros"),
		Cons:         r.PostForm.Get("cons"),
		Advice:       r.PostForm.Get("advice"),
	})
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	http.Redirect(w, r, "/internships/"+url.PathEscape(item.ID)+"?reviewed=1", http.StatusSeeOther)
}

// CreatePost handles the advice board form.
func (h *PagesHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid form", "The form could not be read.")
		return
	}
	_, err := h.advice.CreatePost(r.Context(), userID, advice.PostInput{
		Title:   r.PostForm.Get("title"),
		Content: r.PostForm.Get("content"),
	})
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	http.Redirect(w, r, "/advice?posted=1", http.StatusSeeOther)
}

// CreateComment handles the comment form on a post page.
func (h *PagesHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid form", "The form could not be read.")
		return
	}
	postID := pathParam(r, "id")
	_, err := h.advice.AddComment(r.Context(), userID, advice.CommentInput{
		PostID:  postID,
		Comment: r.PostForm.Get("comment"),
	})
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	http.Redirect(w, r, "/advice/"+url.PathEscape(postID)+"?commented=1", http.StatusSeeOther)
}

func (h *PagesHandler) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.UserID(r)
	if userID == "" {
		h.render(w, r, http.StatusUnauthorized, "error", "Sign in required",
			errorData{Message: "Please sign in to continue.", SignIn: true})
		return "", false
	}
	return userID, true
}

func (h *PagesHandler) page(r *http.Request, title string, data any) render.Page {
	p := render.Page{
		Title:     title,
		CSRFField: middleware.CSRFFieldName,
		CSRFToken: middleware.CSRFToken(r),
		Flash:     flashFor(r.URL.Query()),
		Data:      data,
	}
	if claims := middleware.Claims(r); claims != nil {
		p.SignedIn = true
		p.UserName = claims.Name
		if p.UserName == "" {
			p.UserName = claims.Email
		}
	}
	return p
}

func flashFor(q url.Values) string {
	switch {
	case q.Get("saved") == "1":
		return "Filter saved."
	case q.Get("reviewed") == "1":
		return "Thanks for your review."
	case q.Get("posted") == "1":
		return "Your post is live."
	case q.Get("commented") == "1":
		return "Comment added."
	case q.Get("welcome") == "1":
		return "Welcome to Mr.Intern!"
	case q.Get("updated") == "1":
		return "Application updated."
	case q.Get("signedout") == "1":
		return "You have been signed out."
	}
	return ""
}

func (h *PagesHandler) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	if err := h.renderer.Render(w, status, name, h.page(r, title, data)); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("page", name).Msg("page render failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *PagesHandler) renderError(w http.ResponseWriter, r *http.Request, status int, title, msg string) {
	h.render(w, r, status, "error", title, errorData{Message: msg})
}

// renderFailure renders a domain error with the same status the JSON API
// would use. Server errors hide their cause outside development.
func (h *PagesHandler) renderFailure(w http.ResponseWriter, r *http.Request, err error) {
	status, _, title := mapError(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("page request failed")
		if h.env != "development" && h.env != "test" {
			msg = "Something went wrong. Please try again."
		}
	}
	switch {
	case errors.Is(err, internships.ErrNotFound):
		title = "Internship not found"
	case errors.Is(err, advice.ErrPostNotFound):
		title = "Post not found"
	}
	h.renderError(w, r, status, title, msg)
}

func firstN(items []internships.Internship, n int) []internships.Internship {
	if len(items) > n {
		return items[:n]
	}
	return items
}
