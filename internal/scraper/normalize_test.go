package scraper

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrintern/server/internal/domain/internships"
)

var refNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func acmeSource() SourceConfig {
	cfg := DefaultSourceConfig()
	cfg.Name = "Acme Careers"
	cfg.URL = "https://careers.acme.test"
	return cfg
}

func TestNormalizeJobPostingFull(t *testing.T) {
	raw := json.RawMessage(`{
		"@context": "https://schema.org",
		"@type": "JobPosting",
		"title": "Software Engineering Intern &amp; <b>Summer 2026</b>",
		"hiringOrganization": {"@type": "Organization", "name": "Acme Corp"},
		"jobLocation": {"@type": "Place", "address": {"@type": "PostalAddress", "addressLocality": "Austin", "addressRegion": "TX", "addressCountry": "US"}},
		"validThrough": "2026-11-15T23:59:00Z",
		"url": "https://careers.acme.test/jobs/42",
		"industry": "Computer Software",
		"employmentType": ["INTERN", "FULL_TIME"]
	}`)

	params, err := NormalizeJobPosting(raw, acmeSource(), refNow)
	require.NoError(t, err)

	assert.Equal(t, "Software Engineering Intern & Summer 2026", params.Title)
	assert.Equal(t, "Acme Corp", params.Company)
	assert.Equal(t, "Austin, TX", params.Location)
	assert.Equal(t, internships.IndustryTech, params.Industry)
	assert.Equal(t, "Summer 2026", params.Season)
	require.NotNil(t, params.Deadline)
	assert.Equal(t, time.Date(2026, time.November, 15, 23, 59, 0, 0, time.UTC), *params.Deadline)
	assert.Equal(t, "https://careers.acme.test/jobs/42", params.ApplyLink)
	assert.Equal(t, "import:acme-careers", params.Source)
	assert.False(t, params.Verified)
	assert.Nil(t, params.GraduationYear)
}

func TestNormalizeJobPostingDefaults(t *testing.T) {
	source := acmeSource()
	source.Company = "Acme"
	source.Defaults = ListingDefault{
		Industry:       "Finance",
		Season:         "Fall 2026",
		GraduationYear: 2027,
		Location:       "New York, NY",
	}
	raw := json.RawMessage(`{"@type":"JobPosting","title":"Analyst Intern"}`)

	params, err := NormalizeJobPosting(raw, source, refNow)
	require.NoError(t, err)
	assert.Equal(t, "Acme", params.Company)
	assert.Equal(t, "New York, NY", params.Location)
	assert.Equal(t, internships.IndustryFinance, params.Industry)
	assert.Equal(t, "Fall 2026", params.Season)
	require.NotNil(t, params.GraduationYear)
	assert.Equal(t, 2027, *params.GraduationYear)
	assert.Nil(t, params.Deadline)
}

func TestNormalizeJobPostingRemote(t *testing.T) {
	raw := json.RawMessage(`{
		"@type":"JobPosting","title":"Design Intern",
		"hiringOrganization":"Studio",
		"jobLocation":{"address":{"addressLocality":"Berlin"}},
		"jobLocationType":"TELECOMMUTE"
	}`)
	params, err := NormalizeJobPosting(raw, acmeSource(), refNow)
	require.NoError(t, err)
	assert.Equal(t, "Remote", params.Location)
	assert.Equal(t, "Studio", params.Company)
}

func TestNormalizeJobPostingErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"invalid json", `{`, "unmarshal job posting"},
		{"no title", `{"@type":"JobPosting","hiringOrganization":"Acme"}`, "no title"},
		{"no company", `{"@type":"JobPosting","title":"Intern"}`, "no hiring organization"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NormalizeJobPosting(json.RawMessage(tc.raw), acmeSource(), refNow)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestNormalizeJobPostingInternshipsOnly(t *testing.T) {
	raw := json.RawMessage(`{"@type":"JobPosting","title":"Senior Staff Engineer","hiringOrganization":"Acme","employmentType":"FULL_TIME"}`)

	_, err := NormalizeJobPosting(raw, acmeSource(), refNow)
	require.ErrorIs(t, err, ErrNotInternship)

	source := acmeSource()
	source.InternshipsOnly = false
	params, err := NormalizeJobPosting(raw, source, refNow)
	require.NoError(t, err)
	assert.Equal(t, "Senior Staff Engineer", params.Title)
}

func TestNormalizeJobPostingDropsUnsafeLinksAndBadDeadlines(t *testing.T) {
	raw := json.RawMessage(`{
		"@type":"JobPosting","title":"Intern","hiringOrganization":{"name":"Acme"},
		"url":"javascript:alert(1)",
		"validThrough":"whenever we feel like it"
	}`)
	params, err := NormalizeJobPosting(raw, acmeSource(), refNow)
	require.NoError(t, err)
	assert.Empty(t, params.ApplyLink)
	assert.Nil(t, params.Deadline)
}

func TestNormalizeRawPosting(t *testing.T) {
	source := acmeSource()
	source.Tier = 1
	source.Company = "Fallback Co"

	params, err := NormalizeRawPosting(RawPosting{
		Title:    "Winter '27 Co-op",
		Location: " Waterloo, ON ",
		Deadline: "2026-10-01",
		URL:      "https://careers.acme.test/jobs/7",
	}, source, refNow)
	require.NoError(t, err)
	assert.Equal(t, "Fallback Co", params.Company)
	assert.Equal(t, "Waterloo, ON", params.Location)
	assert.Equal(t, "Winter 2027", params.Season)
	assert.Equal(t, internships.IndustryOther, params.Industry)
	require.NotNil(t, params.Deadline)
	assert.Equal(t, "2026-10-01", params.Deadline.Format(time.DateOnly))

	_, err = NormalizeRawPosting(RawPosting{Title: "  "}, source, refNow)
	require.Error(t, err)
}

func TestGuessSeason(t *testing.T) {
	deadline := time.Date(2027, time.January, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		title    string
		deadline *time.Time
		want     string
	}{
		{"Summer 2026 Intern", nil, "Summer 2026"},
		{"Intern (autumn)", nil, "Fall"},
		{"Spring Intern", &deadline, "Spring 2027"},
		{"SUMMER '26 Analyst", nil, "Summer 2026"},
		{"Software Intern", &deadline, ""},
	}
	for _, tc := range tests {
		t.Run(tc.title, func(t *testing.T) {
			assert.Equal(t, tc.want, guessSeason(tc.title, tc.deadline))
		})
	}
}

func TestGuessIndustry(t *testing.T) {
	assert.Equal(t, internships.IndustryHealthcare, guessIndustry("Healthcare"))
	assert.Equal(t, internships.IndustryFinance, guessIndustry("Investment Banking"))
	assert.Equal(t, internships.IndustryGovernment, guessIndustry("Public Sector"))
	assert.Equal(t, internships.IndustryOther, guessIndustry("Mining"))
	assert.Equal(t, internships.IndustryOther, guessIndustry(""))
}

func TestParseJobLocation(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"string", `"Remote, US"`, "Remote, US"},
		{"flat address", `{"addressLocality":"Paris","addressCountry":"FR"}`, "Paris"},
		{"string address", `{"address":"1 Infinite Loop, Cupertino"}`, "1 Infinite Loop, Cupertino"},
		{"name only", `{"@type":"Place","name":"HQ"}`, "HQ"},
		{"country object", `{"address":{"addressCountry":{"@type":"Country","name":"Canada"}}}`, "Canada"},
		{"array uses first", `[{"address":{"addressLocality":"Oslo"}},{"address":{"addressLocality":"Bergen"}}]`, "Oslo"},
		{"null", `null`, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseJobLocation(json.RawMessage(tc.raw)))
		})
	}
}

func TestExtractStringValue(t *testing.T) {
	assert.Equal(t, "plain", extractStringValue(json.RawMessage(`"plain"`)))
	assert.Equal(t, "typed", extractStringValue(json.RawMessage(`{"@value":"typed"}`)))
	assert.Equal(t, "", extractStringValue(json.RawMessage(`42`)))
	assert.Equal(t, "", extractStringValue(nil))
}
