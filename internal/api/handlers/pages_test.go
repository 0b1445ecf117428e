package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mrintern/server/internal/api/render"
	"github.com/mrintern/server/internal/auth"
	"github.com/mrintern/server/internal/domain/advice"
	"github.com/mrintern/server/internal/domain/filters"
	"github.com/mrintern/server/internal/domain/internships"
	"github.com/mrintern/server/internal/domain/reviews"
	"github.com/mrintern/server/web"
)

const listingID = "0b9b5c9e-7f57-4a55-9a57-2d2c8f1c6a10"

type pageMocks struct {
	listings *MockInternshipService
	reviews  *MockReviewService
	filters  *MockFilterService
	advice   *MockAdviceService
	tracker  *MockTrackerService
	users    *MockUserService
	jwt      *auth.JWTManager
}

func newPagesHandler(t *testing.T) (*PagesHandler, pageMocks) {
	t.Helper()
	renderer, err := render.New(web.Templates())
	require.NoError(t, err)
	m := pageMocks{
		listings: new(MockInternshipService),
		reviews:  new(MockReviewService),
		filters:  new(MockFilterService),
		advice:   new(MockAdviceService),
		tracker:  new(MockTrackerService),
		users:    new(MockUserService),
	}
	var sessions *AuthHandler
	sessions, m.jwt = newAuthHandler(m.users)
	return NewPagesHandler(PageServices{
		Internships: m.listings,
		Reviews:     m.reviews,
		Filters:     m.filters,
		Advice:      m.advice,
		Tracker:     m.tracker,
		Sessions:    sessions,
	}, renderer, testEnv), m
}

func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestPagesHandler_Home(t *testing.T) {
	h, m := newPagesHandler(t)
	featured := make([]internships.Internship, 7)
	for i := range featured {
		featured[i] = internships.Internship{ID: "f" + string(rune('a'+i)), Title: "Featured", Featured: true}
	}
	m.listings.On("List", mock.Anything, internships.Filters{FeaturedOnly: true}).Return(featured, nil)
	m.listings.On("List", mock.Anything, internships.Filters{}).Return([]internships.Internship{{ID: "l1", Title: "Latest role"}}, nil)

	rec := httptest.NewRecorder()
	h.Home(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Latest role")
	assert.Contains(t, body, `href="/internships/fe"`)
	assert.NotContains(t, body, `href="/internships/ff"`, "home shows at most five featured listings")
}

func TestPagesHandler_HomeUnknownPath(t *testing.T) {
	h, m := newPagesHandler(t)

	rec := httptest.NewRecorder()
	h.Home(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page not found")
	m.listings.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestPagesHandler_Internships(t *testing.T) {
	h, m := newPagesHandler(t)
	m.listings.On("List", mock.Anything, internships.Filters{Industry: internships.IndustryFinance}).
		Return([]internships.Internship{{ID: "i1", Title: "Quant Intern", Company: "Fund", Industry: internships.IndustryFinance}}, nil)

	rec := httptest.NewRecorder()
	h.Internships(rec, withUser(httptest.NewRequest(http.MethodGet, "/internships?industry=Finance", nil), testUserID, "student"))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Quant Intern")
	assert.Contains(t, body, `<option value="Finance" selected>`)
	assert.Contains(t, body, "Save this filter")
}

func TestPagesHandler_Internship(t *testing.T) {
	t.Run("detail with reviews", func(t *testing.T) {
		h, m := newPagesHandler(t)
		item := &internships.Internship{ID: listingID, Title: "SWE Intern", Company: "Google"}
		m.listings.On("Get", mock.Anything, listingID).Return(item, nil)
		m.reviews.On("List", mock.Anything, reviews.Query{Company: "Google"}).
			Return([]reviews.Review{{Rating: 4, Pros: "great mentors", Cons: "long hours"}}, nil)
		m.reviews.On("CompanyRating", mock.Anything, "Google").Return(4.0, 1, nil)

		req := httptest.NewRequest(http.MethodGet, "/internships/"+listingID, nil)
		req.SetPathValue("id", listingID)
		rec := httptest.NewRecorder()
		h.Internship(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "great mentors")
		assert.Contains(t, body, "4.0 from 1 review(s)")
		assert.NotContains(t, body, "Write a review")
	})

	t.Run("not found", func(t *testing.T) {
		h, m := newPagesHandler(t)
		m.listings.On("Get", mock.Anything, "missing").Return(nil, internships.ErrNotFound)

		req := httptest.NewRequest(http.MethodGet, "/internships/missing", nil)
		req.SetPathValue("id", "missing")
		rec := httptest.NewRecorder()
		h.Internship(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "Internship not found")
	})
}

func TestPagesHandler_RenderFailureHidesCauseInProduction(t *testing.T) {
	renderer, err := render.New(web.Templates())
	require.NoError(t, err)
	listings := new(MockInternshipService)
	listings.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("pq: password authentication failed"))
	h := NewPagesHandler(PageServices{Internships: listings}, renderer, "production")

	rec := httptest.NewRecorder()
	h.Internships(rec, httptest.NewRequest(http.MethodGet, "/internships", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password authentication")
}

func TestPagesHandler_SaveFilter(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		h, m := newPagesHandler(t)
		rec := httptest.NewRecorder()
		h.SaveFilter(rec, formRequest("/internships/filters", url.Values{"season": {"Summer"}}))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "create an account")
		m.filters.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("saves and enables alert", func(t *testing.T) {
		h, m := newPagesHandler(t)
		year := 2027
		criteria := filters.Criteria{GraduationYear: &year, Season: "Summer"}
		m.filters.On("Save", mock.Anything, testUserID, criteria).Return(&filters.SavedFilter{ID: "f1", Criteria: criteria}, false, nil)
		m.filters.On("EnableAlert", mock.Anything, testUserID, "f1").Return(&filters.AlertPreference{ID: "a1"}, nil)

		form := url.Values{"graduationYear": {"2027"}, "season": {"Summer"}, "alert": {"true"}}
		rec := httptest.NewRecorder()
		h.SaveFilter(rec, withUser(formRequest("/internships/filters", form), testUserID, "student"))

		require.Equal(t, http.StatusSeeOther, rec.Code)
		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "/internships", loc.Path)
		assert.Equal(t, "1", loc.Query().Get("saved"))
		assert.Equal(t, "2027", loc.Query().Get("graduationYear"))
		m.filters.AssertExpectations(t)
	})

	t.Run("bad year", func(t *testing.T) {
		h, _ := newPagesHandler(t)
		rec := httptest.NewRecorder()
		h.SaveFilter(rec, withUser(formRequest("/internships/filters", url.Values{"graduationYear": {"soon"}}), testUserID, "student"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPagesHandler_CreateReview(t *testing.T) {
	h, m := newPagesHandler(t)
	m.listings.On("Get", mock.Anything, listingID).Return(&internships.Internship{ID: listingID, Company: "Google"}, nil)
	m.reviews.On("Create", mock.Anything, testUserID, reviews.CreateInput{
		Company: "Google", InternshipID: listingID, Rating: 5, Pros: "food", Cons: "commute",
	}).Return(&reviews.Review{ID: "r1"}, nil)

	req := withUser(formRequest("/internships/"+listingID+"/reviews",
		url.Values{"rating": {"5"}, "pros": {"food"}, "cons": {"commute"}}), testUserID, "student")
	req.SetPathValue("id", listingID)
	rec := httptest.NewRecorder()
	h.CreateReview(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/internships/"+listingID+"?reviewed=1", rec.Header().Get("Location"))
}

func TestPagesHandler_CreateReviewDuplicate(t *testing.T) {
	h, m := newPagesHandler(t)
	m.listings.On("Get", mock.Anything, listingID).Return(&internships.Internship{ID: listingID, Company: "Google"}, nil)
	m.reviews.On("Create", mock.Anything, testUserID, mock.Anything).Return(nil, reviews.ErrDuplicate)

	req := withUser(formRequest("/internships/"+listingID+"/reviews",
		url.Values{"rating": {"5"}, "pros": {"a"}, "cons": {"b"}}), testUserID, "student")
	req.SetPathValue("id", listingID)
	rec := httptest.NewRecorder()
	h.CreateReview(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPagesHandler_Advice(t *testing.T) {
	h, m := newPagesHandler(t)
	m.advice.On("ListPosts", mock.Anything).Return([]advice.Post{{ID: "p1", Title: "Cold emails work", Content: "Really"}}, nil)
	m.advice.On("CreatePost", mock.Anything, testUserID, advice.PostInput{Title: "Hi", Content: "There"}).
		Return(&advice.Post{ID: "p2"}, nil)

	rec := httptest.NewRecorder()
	h.Advice(rec, httptest.NewRequest(http.MethodGet, "/advice?posted=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cold emails work")
	assert.Contains(t, rec.Body.String(), "Your post is live.")

	rec = httptest.NewRecorder()
	h.CreatePost(rec, withUser(formRequest("/advice", url.Values{"title": {"Hi"}, "content": {"There"}}), testUserID, "student"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/advice?posted=1", rec.Header().Get("Location"))
}

func TestPagesHandler_AdvicePost(t *testing.T) {
	t.Run("post with comments", func(t *testing.T) {
		h, m := newPagesHandler(t)
		m.advice.On("GetPost", mock.Anything, "p1").Return(&advice.Post{ID: "p1", Title: "Cold emails work", Content: "Really"}, nil)
		m.advice.On("Comments", mock.Anything, "p1").Return([]advice.Comment{{ID: "c1", Comment: "Agreed, got two replies"}}, nil)

		req := withUser(httptest.NewRequest(http.MethodGet, "/advice/p1?commented=1", nil), testUserID, "student")
		req.SetPathValue("id", "p1")
		rec := httptest.NewRecorder()
		h.AdvicePost(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "Cold emails work")
		assert.Contains(t, body, "Agreed, got two replies")
		assert.Contains(t, body, `action="/advice/p1/comments"`)
		assert.Contains(t, body, "Comment added.")
	})

	t.Run("anonymous sees sign in link", func(t *testing.T) {
		h, m := newPagesHandler(t)
		m.advice.On("GetPost", mock.Anything, "p1").Return(&advice.Post{ID: "p1", Title: "Hi"}, nil)
		m.advice.On("Comments", mock.Anything, "p1").Return([]advice.Comment{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/advice/p1", nil)
		req.SetPathValue("id", "p1")
		rec := httptest.NewRecorder()
		h.AdvicePost(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), `action="/advice/p1/comments"`)
		assert.Contains(t, rec.Body.String(), "to comment.")
	})

	t.Run("not found", func(t *testing.T) {
		h, m := newPagesHandler(t)
		m.advice.On("GetPost", mock.Anything, "missing").Return(nil, advice.ErrPostNotFound)

		req := httptest.NewRequest(http.MethodGet, "/advice/missing", nil)
		req.SetPathValue("id", "missing")
		rec := httptest.NewRecorder()
		h.AdvicePost(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "Post not found")
	})
}

func TestPagesHandler_CreateComment(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		h, m := newPagesHandler(t)
		req := formRequest("/advice/p1/comments", url.Values{"comment": {"hi"}})
		req.SetPathValue("id", "p1")
		rec := httptest.NewRecorder()
		h.CreateComment(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		m.advice.AssertNotCalled(t, "AddComment", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("adds comment", func(t *testing.T) {
		h, m := newPagesHandler(t)
		m.advice.On("AddComment", mock.Anything, testUserID, advice.CommentInput{PostID: "p1", Comment: "Great tip"}).
			Return(&advice.Comment{ID: "c1", PostID: "p1"}, nil)

		req := withUser(formRequest("/advice/p1/comments", url.Values{"comment": {"Great tip"}}), testUserID, "student")
		req.SetPathValue("id", "p1")
		rec := httptest.NewRecorder()
		h.CreateComment(rec, req)

		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/advice/p1?commented=1", rec.Header().Get("Location"))
	})
}
