package recruiters

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mrintern/server/internal/domain/internships"
	"github.com/mrintern/server/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRecruiters map[string]*Recruiter

func (m memoryRecruiters) GetByUser(_ context.Context, userID string) (*Recruiter, error) {
	if r, ok := m[userID]; ok {
		return r, nil
	}
	return nil, ErrNotFound
}

func (m memoryRecruiters) Create(_ context.Context, userID, company, website string) (*Recruiter, error) {
	if _, ok := m[userID]; ok {
		return nil, ErrProfileExists
	}
	r := &Recruiter{ID: uuid.NewString(), UserID: userID, CompanyName: company, Website: website, CreatedAt: time.Now()}
	m[userID] = r
	return r, nil
}

type memoryListings map[string]*internships.Internship

func (m memoryListings) List(context.Context, internships.Filters) ([]internships.Internship, error) {
	return nil, nil
}
func (m memoryListings) Get(_ context.Context, id string) (*internships.Internship, error) {
	if in, ok := m[id]; ok {
		copied := *in
		return &copied, nil
	}
	return nil, internships.ErrNotFound
}
func (m memoryListings) Create(_ context.Context, p internships.CreateParams) (*internships.Internship, error) {
	in := &internships.Internship{ID: uuid.NewString(), Title: p.Title, Company: p.Company, Industry: p.Industry,
		RecruiterID: p.RecruiterID, Verified: p.Verified, Featured: p.Featured, Deadline: p.Deadline}
	m[in.ID] = in
	return in, nil
}
func (m memoryListings) Update(_ context.Context, in internships.Internship) (*internships.Internship, error) {
	m[in.ID] = &in
	return &in, nil
}
func (m memoryListings) Delete(_ context.Context, id string) error {
	delete(m, id)
	return nil
}
func (m memoryListings) ListByRecruiter(_ context.Context, recruiterID string) ([]internships.Internship, error) {
	var out []internships.Internship
	for _, in := range m {
		if in.RecruiterID == recruiterID {
			out = append(out, *in)
		}
	}
	return out, nil
}
func (m memoryListings) FindDuplicate(context.Context, string, string, string) (*internships.Internship, error) {
	return nil, internships.ErrNotFound
}
func (m memoryListings) ListCreatedSince(context.Context, internships.Match, time.Time) ([]internships.Internship, error) {
	return nil, nil
}

func newTestService() (*Service, memoryRecruiters, memoryListings) {
	recs := memoryRecruiters{}
	listings := memoryListings{}
	return NewService(recs, internships.NewService(listings)), recs, listings
}

func TestCreateProfile(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateProfile(ctx, "u1", ProfileInput{CompanyName: "Acme"})
	fields, ok := validation.AsFields(err)
	require.True(t, ok)
	assert.Equal(t, "is required", fields["website"])

	_, err = svc.CreateProfile(ctx, "u1", ProfileInput{CompanyName: strings.Repeat("a", 101), Website: "acme.com"})
	fields, ok = validation.AsFields(err)
	require.True(t, ok)
	assert.Contains(t, fields, "companyName")

	rec, err := svc.CreateProfile(ctx, "u1", ProfileInput{CompanyName: " Acme ", Website: " acme.com "})
	require.NoError(t, err)
	assert.Equal(t, "Acme", rec.CompanyName)
	assert.Equal(t, "acme.com", rec.Website)

	_, err = svc.CreateProfile(ctx, "u1", ProfileInput{CompanyName: "Acme", Website: "acme.com"})
	require.ErrorIs(t, err, ErrProfileExists)
}

func TestPostingsRequireProfile(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.ListPostings(ctx, "student")
	require.ErrorIs(t, err, ErrNotRecruiter)
	_, err = svc.CreatePosting(ctx, "student", internships.CreateInput{Title: "x", Company: "y", Industry: "Tech"})
	require.ErrorIs(t, err, ErrNotRecruiter)
	require.ErrorIs(t, svc.DeletePosting(ctx, "student", uuid.NewString()), ErrNotRecruiter)
}

func TestPostingLifecycleScopedToRecruiter(t *testing.T) {
	svc, _, listings := newTestService()
	ctx := context.Background()
	_, err := svc.CreateProfile(ctx, "alice", ProfileInput{CompanyName: "Acme", Website: "https://acme.com"})
	require.NoError(t, err)
	_, err = svc.CreateProfile(ctx, "bob", ProfileInput{CompanyName: "Beta", Website: "https://beta.com"})
	require.NoError(t, err)

	_, err = svc.CreatePosting(ctx, "alice", internships.CreateInput{Title: "Intern", Company: "Acme"})
	fields, ok := validation.AsFields(err)
	require.True(t, ok)
	assert.Contains(t, fields, "industry")

	posting, err := svc.CreatePosting(ctx, "alice", internships.CreateInput{
		Title: "Intern", Company: "Acme", Industry: "Tech", Deadline: "2026-12-01",
	})
	require.NoError(t, err)
	assert.True(t, posting.Verified)
	require.NotNil(t, posting.Deadline)

	title := "Senior Intern"
	_, err = svc.UpdatePosting(ctx, "bob", posting.ID, internships.UpdateInput{Title: &title})
	require.ErrorIs(t, err, internships.ErrNotFound)

	updated, err := svc.UpdatePosting(ctx, "alice", posting.ID, internships.UpdateInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Senior Intern", updated.Title)
	assert.Equal(t, "Acme", updated.Company)

	list, err := svc.ListPostings(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.ErrorIs(t, svc.DeletePosting(ctx, "bob", posting.ID), internships.ErrNotFound)
	require.NoError(t, svc.DeletePosting(ctx, "alice", posting.ID))
	assert.Empty(t, listings)
}
