package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mrintern/server/internal/alerts"
	"github.com/mrintern/server/internal/api/middleware"
	"github.com/mrintern/server/internal/audit"
	"github.com/mrintern/server/internal/auth"
	"github.com/mrintern/server/internal/domain/advice"
	"github.com/mrintern/server/internal/domain/filters"
	"github.com/mrintern/server/internal/domain/internships"
	"github.com/mrintern/server/internal/domain/recruiters"
	"github.com/mrintern/server/internal/domain/resumes"
	"github.com/mrintern/server/internal/domain/reviews"
	"github.com/mrintern/server/internal/domain/subscriptions"
	"github.com/mrintern/server/internal/domain/tracker"
	"github.com/mrintern/server/internal/domain/users"
	"github.com/mrintern/server/internal/push"
)

const (
	testUserID  = "0b9b5c9e-7f57-4a55-9a57-2d2c8f1c6a01"
	testAdminID = "0b9b5c9e-7f57-4a55-9a57-2d2c8f1c6a02"
	testEnv     = "test"
)

// withUser attaches session claims the way the Session middleware would.
func withUser(r *http.Request, userID, role string) *http.Request {
	claims := &auth.Claims{Email: "ada@example.com", Name: "Ada", Role: role}
	claims.Subject = userID
	return r.WithContext(middleware.ContextWithClaims(r.Context(), claims))
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func nopAudit() *audit.Logger {
	return audit.NewLogger(zerolog.Nop())
}

type MockUserService struct{ mock.Mock }

func (m *MockUserService) Register(ctx context.Context, input users.RegisterInput) (*users.User, error) {
	args := m.Called(ctx, input)
	u, _ := args.Get(0).(*users.User)
	return u, args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*users.User, error) {
	args := m.Called(ctx, email, password)
	u, _ := args.Get(0).(*users.User)
	return u, args.Error(1)
}

type MockInternshipService struct{ mock.Mock }

func (m *MockInternshipService) List(ctx context.Context, f internships.Filters) ([]internships.Internship, error) {
	args := m.Called(ctx, f)
	items, _ := args.Get(0).([]internships.Internship)
	return items, args.Error(1)
}

func (m *MockInternshipService) Get(ctx context.Context, id string) (*internships.Internship, error) {
	args := m.Called(ctx, id)
	item, _ := args.Get(0).(*internships.Internship)
	return item, args.Error(1)
}

func (m *MockInternshipService) Create(ctx context.Context, input internships.CreateInput, recruiterID string) (*internships.Internship, error) {
	args := m.Called(ctx, input, recruiterID)
	item, _ := args.Get(0).(*internships.Internship)
	return item, args.Error(1)
}

func (m *MockInternshipService) Seed(ctx context.Context) (*internships.Internship, bool, error) {
	args := m.Called(ctx)
	item, _ := args.Get(0).(*internships.Internship)
	return item, args.Bool(1), args.Error(2)
}

type MockFilterService struct{ mock.Mock }

func (m *MockFilterService) List(ctx context.Context, userID string) ([]filters.SavedFilter, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]filters.SavedFilter)
	return items, args.Error(1)
}

func (m *MockFilterService) Save(ctx context.Context, userID string, c filters.Criteria) (*filters.SavedFilter, bool, error) {
	args := m.Called(ctx, userID, c)
	f, _ := args.Get(0).(*filters.SavedFilter)
	return f, args.Bool(1), args.Error(2)
}

func (m *MockFilterService) Delete(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockFilterService) ListAlerts(ctx context.Context, userID string) ([]filters.AlertPreference, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]filters.AlertPreference)
	return items, args.Error(1)
}

func (m *MockFilterService) EnableAlert(ctx context.Context, userID, filterID string) (*filters.AlertPreference, error) {
	args := m.Called(ctx, userID, filterID)
	p, _ := args.Get(0).(*filters.AlertPreference)
	return p, args.Error(1)
}

func (m *MockFilterService) DisableAlert(ctx context.Context, userID, filterID string) error {
	return m.Called(ctx, userID, filterID).Error(0)
}

type MockTrackerService struct{ mock.Mock }

func (m *MockTrackerService) ListSaved(ctx context.Context, userID string) ([]tracker.SavedInternship, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]tracker.SavedInternship)
	return items, args.Error(1)
}

func (m *MockTrackerService) Save(ctx context.Context, userID, internshipID string) (*tracker.SavedInternship, error) {
	args := m.Called(ctx, userID, internshipID)
	s, _ := args.Get(0).(*tracker.SavedInternship)
	return s, args.Error(1)
}

func (m *MockTrackerService) Unsave(ctx context.Context, userID, internshipID string) error {
	return m.Called(ctx, userID, internshipID).Error(0)
}

func (m *MockTrackerService) ListApplications(ctx context.Context, userID string) ([]tracker.Application, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]tracker.Application)
	return items, args.Error(1)
}

func (m *MockTrackerService) Track(ctx context.Context, userID string, input tracker.ApplicationInput) (*tracker.Application, bool, error) {
	args := m.Called(ctx, userID, input)
	a, _ := args.Get(0).(*tracker.Application)
	return a, args.Bool(1), args.Error(2)
}

func (m *MockTrackerService) Untrack(ctx context.Context, userID, internshipID string) error {
	return m.Called(ctx, userID, internshipID).Error(0)
}

func (m *MockTrackerService) Analytics(ctx context.Context, userID string) (tracker.Analytics, error) {
	args := m.Called(ctx, userID)
	a, _ := args.Get(0).(tracker.Analytics)
	return a, args.Error(1)
}

type MockRecruiterService struct{ mock.Mock }

func (m *MockRecruiterService) Profile(ctx context.Context, userID string) (*recruiters.Recruiter, error) {
	args := m.Called(ctx, userID)
	r, _ := args.Get(0).(*recruiters.Recruiter)
	return r, args.Error(1)
}

func (m *MockRecruiterService) CreateProfile(ctx context.Context, userID string, input recruiters.ProfileInput) (*recruiters.Recruiter, error) {
	args := m.Called(ctx, userID, input)
	r, _ := args.Get(0).(*recruiters.Recruiter)
	return r, args.Error(1)
}

func (m *MockRecruiterService) ListPostings(ctx context.Context, userID string) ([]internships.Internship, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]internships.Internship)
	return items, args.Error(1)
}

func (m *MockRecruiterService) CreatePosting(ctx context.Context, userID string, input internships.CreateInput) (*internships.Internship, error) {
	args := m.Called(ctx, userID, input)
	item, _ := args.Get(0).(*internships.Internship)
	return item, args.Error(1)
}

func (m *MockRecruiterService) UpdatePosting(ctx context.Context, userID, internshipID string, patch internships.UpdateInput) (*internships.Internship, error) {
	args := m.Called(ctx, userID, internshipID, patch)
	item, _ := args.Get(0).(*internships.Internship)
	return item, args.Error(1)
}

func (m *MockRecruiterService) DeletePosting(ctx context.Context, userID, internshipID string) error {
	return m.Called(ctx, userID, internshipID).Error(0)
}

type MockReviewService struct{ mock.Mock }

func (m *MockReviewService) List(ctx context.Context, q reviews.Query) ([]reviews.Review, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]reviews.Review)
	return items, args.Error(1)
}

func (m *MockReviewService) Create(ctx context.Context, userID string, input reviews.CreateInput) (*reviews.Review, error) {
	args := m.Called(ctx, userID, input)
	r, _ := args.Get(0).(*reviews.Review)
	return r, args.Error(1)
}

func (m *MockReviewService) Update(ctx context.Context, userID string, sel reviews.Selector, input reviews.UpdateInput) (*reviews.Review, error) {
	args := m.Called(ctx, userID, sel, input)
	r, _ := args.Get(0).(*reviews.Review)
	return r, args.Error(1)
}

func (m *MockReviewService) Delete(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockReviewService) CompanyRating(ctx context.Context, company string) (float64, int, error) {
	args := m.Called(ctx, company)
	return args.Get(0).(float64), args.Int(1), args.Error(2)
}

type MockResumeService struct{ mock.Mock }

func (m *MockResumeService) List(ctx context.Context, userID string) ([]resumes.Resume, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]resumes.Resume)
	return items, args.Error(1)
}

func (m *MockResumeService) Submit(ctx context.Context, userID string, input resumes.SubmitInput) (*resumes.Resume, bool, error) {
	args := m.Called(ctx, userID, input)
	r, _ := args.Get(0).(*resumes.Resume)
	return r, args.Bool(1), args.Error(2)
}

func (m *MockResumeService) Upload(ctx context.Context, userID, title, filename string, data []byte) (*resumes.Resume, bool, error) {
	args := m.Called(ctx, userID, title, filename, data)
	r, _ := args.Get(0).(*resumes.Resume)
	return r, args.Bool(1), args.Error(2)
}

func (m *MockResumeService) UploadsEnabled() bool {
	return m.Called().Bool(0)
}

func (m *MockResumeService) Delete(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockResumeService) Comments(ctx context.Context, resumeID string) ([]resumes.Comment, error) {
	args := m.Called(ctx, resumeID)
	items, _ := args.Get(0).([]resumes.Comment)
	return items, args.Error(1)
}

func (m *MockResumeService) AddComment(ctx context.Context, userID string, input resumes.CommentInput) (*resumes.Comment, error) {
	args := m.Called(ctx, userID, input)
	c, _ := args.Get(0).(*resumes.Comment)
	return c, args.Error(1)
}

func (m *MockResumeService) DeleteComment(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

type MockAdviceService struct{ mock.Mock }

func (m *MockAdviceService) ListPosts(ctx context.Context) ([]advice.Post, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]advice.Post)
	return items, args.Error(1)
}

func (m *MockAdviceService) GetPost(ctx context.Context, id string) (*advice.Post, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*advice.Post)
	return p, args.Error(1)
}

func (m *MockAdviceService) CreatePost(ctx context.Context, userID string, input advice.PostInput) (*advice.Post, error) {
	args := m.Called(ctx, userID, input)
	p, _ := args.Get(0).(*advice.Post)
	return p, args.Error(1)
}

func (m *MockAdviceService) DeletePost(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockAdviceService) Comments(ctx context.Context, postID string) ([]advice.Comment, error) {
	args := m.Called(ctx, postID)
	items, _ := args.Get(0).([]advice.Comment)
	return items, args.Error(1)
}

func (m *MockAdviceService) AddComment(ctx context.Context, userID string, input advice.CommentInput) (*advice.Comment, error) {
	args := m.Called(ctx, userID, input)
	c, _ := args.Get(0).(*advice.Comment)
	return c, args.Error(1)
}

func (m *MockAdviceService) DeleteComment(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

type MockSubscriptionService struct{ mock.Mock }

func (m *MockSubscriptionService) Subscribe(ctx context.Context, userID string, input subscriptions.SubscribeInput) (*subscriptions.Subscription, bool, error) {
	args := m.Called(ctx, userID, input)
	s, _ := args.Get(0).(*subscriptions.Subscription)
	return s, args.Bool(1), args.Error(2)
}

func (m *MockSubscriptionService) Unsubscribe(ctx context.Context, userID, endpoint string) error {
	return m.Called(ctx, userID, endpoint).Error(0)
}

func (m *MockSubscriptionService) ForUser(ctx context.Context, userID string) ([]subscriptions.Subscription, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]subscriptions.Subscription)
	return items, args.Error(1)
}

type MockPushSender struct{ mock.Mock }

func (m *MockPushSender) Enabled() bool     { return m.Called().Bool(0) }
func (m *MockPushSender) PublicKey() string { return m.Called().String(0) }

func (m *MockPushSender) SendToAll(ctx context.Context, subs []subscriptions.Subscription, payload push.Payload) push.Result {
	return m.Called(ctx, subs, payload).Get(0).(push.Result)
}

type MockAlertEnqueuer struct{ mock.Mock }

func (m *MockAlertEnqueuer) EnqueueAlertCheck(ctx context.Context, trigger string) (int64, error) {
	args := m.Called(ctx, trigger)
	return args.Get(0).(int64), args.Error(1)
}

type MockAlertRunner struct{ mock.Mock }

func (m *MockAlertRunner) Run(ctx context.Context, trigger string) (alerts.Report, error) {
	args := m.Called(ctx, trigger)
	return args.Get(0).(alerts.Report), args.Error(1)
}

type MockAlertMailer struct{ mock.Mock }

func (m *MockAlertMailer) SendAlert(ctx context.Context, alert alerts.Alert) error {
	return m.Called(ctx, alert).Error(0)
}
