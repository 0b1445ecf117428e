package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mrintern/server/internal/domain/internships"
	"github.com/mrintern/server/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubListings map[string]bool

func (s stubListings) Exists(_ context.Context, id string) (bool, error) { return s[id], nil }

type stubRepo struct {
	saveFn   func(ctx context.Context, userID, internshipID string) (*SavedInternship, error)
	upsertFn func(ctx context.Context, userID, internshipID string, status Status, notes string) (*Application, bool, error)
	apps     []Application
}

func (s stubRepo) ListSaved(context.Context, string) ([]SavedInternship, error) { return nil, nil }
func (s stubRepo) Save(ctx context.Context, userID, internshipID string) (*SavedInternship, error) {
	return s.saveFn(ctx, userID, internshipID)
}
func (s stubRepo) Unsave(context.Context, string, string) error { return ErrNotSaved }
func (s stubRepo) ListApplications(context.Context, string) ([]Application, error) {
	return s.apps, nil
}
func (s stubRepo) UpsertApplication(ctx context.Context, userID, internshipID string, status Status, notes string) (*Application, bool, error) {
	return s.upsertFn(ctx, userID, internshipID, status, notes)
}
func (s stubRepo) DeleteApplication(context.Context, string, string) error { return nil }

func TestSaveChecksListing(t *testing.T) {
	known := uuid.NewString()
	repo := stubRepo{saveFn: func(_ context.Context, userID, internshipID string) (*SavedInternship, error) {
		return &SavedInternship{ID: uuid.NewString(), UserID: userID, InternshipID: internshipID}, nil
	}}
	svc := NewService(repo, stubListings{known: true})

	_, err := svc.Save(context.Background(), "u1", "")
	assert.True(t, validation.IsValidation(err))

	_, err = svc.Save(context.Background(), "u1", uuid.NewString())
	require.ErrorIs(t, err, internships.ErrNotFound)

	saved, err := svc.Save(context.Background(), "u1", known)
	require.NoError(t, err)
	assert.Equal(t, known, saved.InternshipID)

	require.ErrorIs(t, svc.Unsave(context.Background(), "u1", "bad-id"), ErrNotSaved)
}

func TestTrackValidatesStatusAndNotes(t *testing.T) {
	known := uuid.NewString()
	var gotStatus Status
	repo := stubRepo{upsertFn: func(_ context.Context, _, internshipID string, status Status, notes string) (*Application, bool, error) {
		gotStatus = status
		return &Application{InternshipID: internshipID, Status: status, Notes: notes}, true, nil
	}}
	svc := NewService(repo, stubListings{known: true})

	_, _, err := svc.Track(context.Background(), "u1", ApplicationInput{InternshipID: known, Status: "Ghosted"})
	fields, ok := validation.AsFields(err)
	require.True(t, ok)
	assert.Contains(t, fields["status"], "must be one of")

	long := make([]byte, 501)
	for i := range long {
		long[i] = 'x'
	}
	_, _, err = svc.Track(context.Background(), "u1", ApplicationInput{InternshipID: known, Status: "Applied", Notes: string(long)})
	fields, ok = validation.AsFields(err)
	require.True(t, ok)
	assert.Contains(t, fields, "notes")

	_, _, err = svc.Track(context.Background(), "u1", ApplicationInput{InternshipID: known, Status: "  "})
	fields, ok = validation.AsFields(err)
	require.True(t, ok)
	assert.Contains(t, fields, "status")
	assert.Empty(t, gotStatus, "missing status never reaches the repository")

	app, created, err := svc.Track(context.Background(), "u1", ApplicationInput{InternshipID: known, Status: "Saved"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, StatusSaved, gotStatus)
	assert.Equal(t, StatusSaved, app.Status)

	_, _, err = svc.Track(context.Background(), "u1", ApplicationInput{InternshipID: uuid.NewString(), Status: "Applied"})
	require.ErrorIs(t, err, internships.ErrNotFound)
}

func TestSummarize(t *testing.T) {
	tech := &internships.Internship{Title: "SWE Intern", Company: "Acme", Industry: internships.IndustryTech}
	fin := &internships.Internship{Title: "Analyst", Company: "Bank", Industry: internships.IndustryFinance}
	at := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 10, 0, 0, 0, time.UTC) }

	apps := []Application{
		{ID: "a1", Status: StatusApplied, CreatedAt: at(2026, time.January, 5), Internship: tech},
		{ID: "a2", Status: StatusApplied, CreatedAt: at(2025, time.December, 20), Internship: tech},
		{ID: "a3", Status: StatusOffer, CreatedAt: at(2026, time.February, 1), Internship: fin},
		{ID: "a4", Status: StatusRejected, CreatedAt: at(2026, time.January, 28)},
	}

	got := Summarize(apps)

	assert.Equal(t, 4, got.TotalApplications)
	assert.Equal(t, 2, got.StatusCounts[StatusApplied])
	require.Len(t, got.StatusData, 5)
	assert.Equal(t, StatusSlice{Name: StatusSaved, Value: 0, Color: "#7C3AED"}, got.StatusData[0])
	assert.Equal(t, 2, got.StatusData[1].Value)

	assert.Equal(t, []MonthCount{
		{Month: "Dec 2025", Count: 1},
		{Month: "Jan 2026", Count: 2},
		{Month: "Feb 2026", Count: 1},
	}, got.ApplicationsOverTime)

	assert.Equal(t, IndustryCount{Industry: "Tech", Count: 2}, got.IndustryData[0])
	assert.Len(t, got.IndustryData, 3)

	require.Len(t, got.RecentApplications, 4)
	assert.Equal(t, "a3", got.RecentApplications[0].ID)
	assert.Equal(t, "Bank", got.RecentApplications[0].Company)
	assert.Equal(t, "a2", got.RecentApplications[3].ID)
}

func TestSummarizeEmpty(t *testing.T) {
	got := Summarize(nil)

	assert.Zero(t, got.TotalApplications)
	assert.NotNil(t, got.ApplicationsOverTime)
	assert.NotNil(t, got.RecentApplications)
	assert.Len(t, got.StatusData, 5)
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus("Interviewing")
	assert.True(t, ok)
	assert.Equal(t, StatusInterviewing, s)
	_, ok = ParseStatus("interviewing")
	assert.False(t, ok)
}
