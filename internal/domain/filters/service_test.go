package filters

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mrintern/server/internal/domain/internships"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	filters []SavedFilter
	alerts  map[string]*AlertPreference
}

func newMockRepository() *mockRepository {
	return &mockRepository{alerts: map[string]*AlertPreference{}}
}

func sameYear(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (m *mockRepository) ListByUser(_ context.Context, userID string) ([]SavedFilter, error) {
	var out []SavedFilter
	for _, f := range m.filters {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *mockRepository) FindByCriteria(_ context.Context, userID string, c Criteria) (*SavedFilter, error) {
	for _, f := range m.filters {
		if f.UserID == userID && sameYear(f.GraduationYear, c.GraduationYear) &&
			f.Season == c.Season && f.Location == c.Location && f.Industry == c.Industry {
			found := f
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepository) Create(_ context.Context, userID string, c Criteria) (*SavedFilter, error) {
	f := SavedFilter{ID: uuid.NewString(), UserID: userID, Criteria: c, CreatedAt: time.Now()}
	m.filters = append(m.filters, f)
	return &f, nil
}

func (m *mockRepository) Get(_ context.Context, userID, id string) (*SavedFilter, error) {
	for _, f := range m.filters {
		if f.ID == id && f.UserID == userID {
			found := f
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepository) Delete(_ context.Context, userID, id string) error {
	for i, f := range m.filters {
		if f.ID == id && f.UserID == userID {
			m.filters = append(m.filters[:i], m.filters[i+1:]...)
			delete(m.alerts, id)
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockRepository) ListActiveAlerts(_ context.Context, userID string) ([]AlertPreference, error) {
	var out []AlertPreference
	for _, a := range m.alerts {
		if a.UserID == userID && a.Active {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockRepository) UpsertAlert(_ context.Context, userID, filterID string) (*AlertPreference, error) {
	if a, ok := m.alerts[filterID]; ok {
		a.Active = true
		return a, nil
	}
	a := &AlertPreference{ID: uuid.NewString(), UserID: userID, FilterID: filterID, Active: true}
	m.alerts[filterID] = a
	return a, nil
}

func (m *mockRepository) DeleteAlert(_ context.Context, userID, filterID string) error {
	if a, ok := m.alerts[filterID]; ok && a.UserID == userID {
		delete(m.alerts, filterID)
		return nil
	}
	return ErrAlertNotFound
}

func intPtr(v int) *int { return &v }

func TestDescribe(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		want     string
	}{
		{"empty", Criteria{}, "All internships"},
		{"all fields", Criteria{GraduationYear: intPtr(2026), Season: "Summer", Location: "NYC", Industry: "Tech"},
			"Year: 2026, Season: Summer, Location: NYC, Industry: Tech"},
		{"partial", Criteria{Location: "Remote", Industry: "Finance"}, "Location: Remote, Industry: Finance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.criteria.Describe())
		})
	}
}

func TestCriteriaMatchAndFilters(t *testing.T) {
	c := Criteria{GraduationYear: intPtr(2027), Industry: "Tech", Season: "Fall"}

	match := c.Match()
	assert.Equal(t, internships.IndustryTech, match.Industry)
	assert.Equal(t, 2027, *match.GraduationYear)

	f := Criteria{Industry: "Bogus"}.Filters()
	assert.Empty(t, f.Industry)
	assert.True(t, Criteria{}.IsEmpty())
}

func TestCriteriaInputAcceptsStringOrNumberYear(t *testing.T) {
	var in CriteriaInput
	require.NoError(t, json.Unmarshal([]byte(`{"graduationYear":"2026","season":" Summer "}`), &in))
	c, err := in.Criteria()
	require.NoError(t, err)
	assert.Equal(t, 2026, *c.GraduationYear)
	assert.Equal(t, "Summer", c.Season)

	require.NoError(t, json.Unmarshal([]byte(`{"graduationYear":2025}`), &in))
	c, err = in.Criteria()
	require.NoError(t, err)
	assert.Equal(t, 2025, *c.GraduationYear)

	in = CriteriaInput{GraduationYear: json.RawMessage(`""`)}
	c, err = in.Criteria()
	require.NoError(t, err)
	assert.Nil(t, c.GraduationYear)

	in = CriteriaInput{GraduationYear: json.RawMessage(`"soon"`)}
	_, err = in.Criteria()
	require.Error(t, err)
}

func TestSaveDeduplicates(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()
	c := Criteria{Season: "Summer", Industry: "Tech"}

	first, dup, err := svc.Save(ctx, "u1", c)
	require.NoError(t, err)
	assert.False(t, dup)

	second, dup, err := svc.Save(ctx, "u1", c)
	require.NoError(t, err)
	assert.True(t, dup)
	assert.Equal(t, first.ID, second.ID)

	_, dup, err = svc.Save(ctx, "u2", c)
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestEnableAlertRequiresOwnFilter(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	filter, _, err := svc.Save(ctx, "owner", Criteria{Location: "NYC"})
	require.NoError(t, err)

	_, err = svc.EnableAlert(ctx, "intruder", filter.ID)
	require.ErrorIs(t, err, ErrNotFound)

	pref, err := svc.EnableAlert(ctx, "owner", filter.ID)
	require.NoError(t, err)
	assert.True(t, pref.Active)
	assert.Equal(t, filter.ID, pref.Filter.ID)

	again, err := svc.EnableAlert(ctx, "owner", filter.ID)
	require.NoError(t, err)
	assert.Equal(t, pref.ID, again.ID)
}

func TestDeleteFilterRemovesAlert(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	filter, _, err := svc.Save(ctx, "owner", Criteria{Location: "NYC"})
	require.NoError(t, err)
	_, err = svc.EnableAlert(ctx, "owner", filter.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "owner", filter.ID))
	alerts, err := svc.ListAlerts(ctx, "owner")
	require.NoError(t, err)
	assert.Empty(t, alerts)

	require.ErrorIs(t, svc.Delete(ctx, "owner", filter.ID), ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, "owner", "bogus"), ErrNotFound)
	require.ErrorIs(t, svc.DisableAlert(ctx, "owner", filter.ID), ErrAlertNotFound)
}
