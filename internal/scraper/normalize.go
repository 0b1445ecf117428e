package scraper

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mrintern/server/internal/domain/internships"
	"github.com/mrintern/server/internal/sanitize"
	"github.com/mrintern/server/internal/validation"
)

// ErrNotInternship marks postings dropped by a source's internships_only flag.
var ErrNotInternship = errors.New("posting is not an internship")

// jobPosting holds the schema.org JobPosting fields the importer reads. Most
// properties may be a string, a typed object or an array in the wild.
type jobPosting struct {
	Title              json.RawMessage `json:"title"`
	Name               json.RawMessage `json:"name"`
	HiringOrganization json.RawMessage `json:"hiringOrganization"`
	JobLocation        json.RawMessage `json:"jobLocation"`
	JobLocationType    json.RawMessage `json:"jobLocationType"`
	ValidThrough       json.RawMessage `json:"validThrough"`
	URL                json.RawMessage `json:"url"`
	SameAs             json.RawMessage `json:"sameAs"`
	Industry           json.RawMessage `json:"industry"`
	EmploymentType     json.RawMessage `json:"employmentType"`
}

// NormalizeJobPosting converts a JSON-LD JobPosting into listing parameters.
// now anchors relative deadlines.
func NormalizeJobPosting(raw json.RawMessage, source SourceConfig, now time.Time) (internships.CreateParams, error) {
	var jp jobPosting
	if err := json.Unmarshal(raw, &jp); err != nil {
		return internships.CreateParams{}, fmt.Errorf("unmarshal job posting: %w", err)
	}

	title := sanitize.Text(extractStringValue(jp.Title))
	if title == "" {
		title = sanitize.Text(extractStringValue(jp.Name))
	}
	if title == "" {
		return internships.CreateParams{}, errors.New("job posting has no title")
	}

	if source.InternshipsOnly && !isInternship(title, parseStringOrArray(jp.EmploymentType)) {
		return internships.CreateParams{}, fmt.Errorf("%q: %w", title, ErrNotInternship)
	}

	location := parseJobLocation(jp.JobLocation)
	if isRemote(jp.JobLocationType) {
		location = "Remote"
	}

	link := extractStringValue(jp.URL)
	if link == "" {
		link = firstString(jp.SameAs)
	}

	return buildParams(listingFields{
		Title:    title,
		Company:  parseOrganization(jp.HiringOrganization),
		Location: location,
		Deadline: parseDate(jp.ValidThrough),
		Link:     link,
		Industry: extractStringValue(firstElement(jp.Industry)),
	}, source, now)
}

// NormalizeRawPosting converts a selector-scraped card into listing parameters.
func NormalizeRawPosting(raw RawPosting, source SourceConfig, now time.Time) (internships.CreateParams, error) {
	title := sanitize.Text(raw.Title)
	if title == "" {
		return internships.CreateParams{}, errors.New("raw posting has no title")
	}
	if source.InternshipsOnly && !isInternship(title, nil) {
		return internships.CreateParams{}, fmt.Errorf("%q: %w", title, ErrNotInternship)
	}
	return buildParams(listingFields{
		Title:    title,
		Company:  raw.Company,
		Location: raw.Location,
		Deadline: raw.Deadline,
		Link:     raw.URL,
	}, source, now)
}

type listingFields struct {
	Title    string
	Company  string
	Location string
	Deadline string
	Link     string
	Industry string
}

func buildParams(f listingFields, source SourceConfig, now time.Time) (internships.CreateParams, error) {
	company := sanitize.Text(f.Company)
	if company == "" {
		company = sanitize.Text(source.Company)
	}
	if company == "" {
		return internships.CreateParams{}, fmt.Errorf("%q has no hiring organization", f.Title)
	}

	location := sanitize.Text(f.Location)
	if location == "" {
		location = source.Defaults.Location
	}

	// A deadline we cannot read is dropped rather than failing the listing.
	deadline, err := internships.ParseDeadline(f.Deadline, now)
	if err != nil {
		deadline = nil
	}

	link := strings.TrimSpace(f.Link)
	if validation.ValidateURL(link, "applyLink") != nil {
		link = ""
	}

	industry := internships.NormalizeIndustry(source.Defaults.Industry)
	if source.Defaults.Industry == "" {
		industry = guessIndustry(f.Industry)
	}

	season := source.Defaults.Season
	if season == "" {
		season = guessSeason(f.Title, deadline)
	}

	params := internships.CreateParams{
		Title:     f.Title,
		Company:   company,
		Location:  location,
		Industry:  industry,
		Season:    season,
		Deadline:  deadline,
		ApplyLink: link,
		Source:    sourceTag(source),
	}
	if y := source.Defaults.GraduationYear; y != 0 {
		params.GraduationYear = &y
	}
	return params, nil
}

func sourceTag(source SourceConfig) string {
	return "import:" + strings.ToLower(strings.Join(strings.Fields(source.Name), "-"))
}

var internWord = regexp.MustCompile(`(?i)\b(intern|internship|co-?op|placement)s?\b`)

func isInternship(title string, employmentTypes []string) bool {
	for _, t := range employmentTypes {
		if strings.EqualFold(strings.TrimSpace(t), "INTERN") {
			return true
		}
	}
	return internWord.MatchString(title)
}

var seasonPattern = regexp.MustCompile(`(?i)\b(spring|summer|fall|autumn|winter)\b(?:\s+(\d{4}|'?\d{2})\b)?`)

// guessSeason reads "Summer 2026" style hints from the title. Without a year
// in the title the deadline's year is used.
func guessSeason(title string, deadline *time.Time) string {
	m := seasonPattern.FindStringSubmatch(title)
	if m == nil {
		return ""
	}
	name := strings.ToUpper(m[1][:1]) + strings.ToLower(m[1][1:])
	if name == "Autumn" {
		name = "Fall"
	}
	year := strings.TrimPrefix(m[2], "'")
	switch {
	case len(year) == 2:
		year = "20" + year
	case year == "" && deadline != nil:
		year = deadline.Format("2006")
	}
	if year == "" {
		return name
	}
	return name + " " + year
}

var industryKeywords = []struct {
	industry internships.Industry
	words    []string
}{
	{internships.IndustryTech, []string{"software", "technology", "information technology", "internet", "computer"}},
	{internships.IndustryFinance, []string{"finance", "financial", "bank", "investment", "insurance"}},
	{internships.IndustryMarketing, []string{"marketing", "advertising", "media"}},
	{internships.IndustryHealthcare, []string{"health", "hospital", "medical", "pharma"}},
	{internships.IndustryConsulting, []string{"consulting", "professional services"}},
	{internships.IndustryEducation, []string{"education", "university", "school"}},
	{internships.IndustryGovernment, []string{"government", "public sector", "public administration"}},
}

// guessIndustry maps a free-form schema.org industry onto the fixed list.
func guessIndustry(value string) internships.Industry {
	if industry, ok := internships.ParseIndustry(value); ok {
		return industry
	}
	lower := strings.ToLower(value)
	for _, k := range industryKeywords {
		for _, w := range k.words {
			if strings.Contains(lower, w) {
				return k.industry
			}
		}
	}
	return internships.IndustryOther
}

// parseDate reads a plain string or a typed {"@value": "..."} date.
func parseDate(raw json.RawMessage) string {
	return extractStringValue(firstElement(raw))
}

// parseOrganization returns the hiring organization's name. The value may be
// a plain string, an Organization object or an array of either.
func parseOrganization(raw json.RawMessage) string {
	raw = firstElement(raw)
	if raw == nil {
		return ""
	}
	if s := extractStringValue(raw); s != "" {
		return s
	}
	var org struct {
		Name json.RawMessage `json:"name"`
	}
	if err := json.Unmarshal(raw, &org); err != nil {
		return ""
	}
	return extractStringValue(org.Name)
}

// parseJobLocation renders a Place as "Locality, Region", falling back to the
// place name or country.
func parseJobLocation(raw json.RawMessage) string {
	raw = firstElement(raw)
	if raw == nil {
		return ""
	}
	if s := extractStringValue(raw); s != "" {
		return s
	}

	type address struct {
		AddressLocality json.RawMessage `json:"addressLocality"`
		AddressRegion   json.RawMessage `json:"addressRegion"`
		AddressCountry  json.RawMessage `json:"addressCountry"`
	}
	var place struct {
		Name    json.RawMessage `json:"name"`
		Address json.RawMessage `json:"address"`
		address
	}
	if err := json.Unmarshal(raw, &place); err != nil {
		return ""
	}

	addr := place.address
	if len(place.Address) > 0 && string(place.Address) != "null" {
		if s := extractStringValue(place.Address); s != "" {
			return s
		}
		var nested address
		if err := json.Unmarshal(place.Address, &nested); err == nil {
			addr = nested
		}
	}

	var parts []string
	for _, v := range []json.RawMessage{addr.AddressLocality, addr.AddressRegion} {
		if s := strings.TrimSpace(extractStringValue(v)); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	if name := extractStringValue(place.Name); name != "" {
		return name
	}
	return countryName(addr.AddressCountry)
}

// countryName reads addressCountry as text or as a Country object.
func countryName(raw json.RawMessage) string {
	if s := extractStringValue(raw); s != "" {
		return s
	}
	var country struct {
		Name json.RawMessage `json:"name"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &country) != nil {
		return ""
	}
	return extractStringValue(country.Name)
}

func isRemote(raw json.RawMessage) bool {
	for _, v := range parseStringOrArray(raw) {
		if strings.EqualFold(v, "TELECOMMUTE") {
			return true
		}
	}
	return false
}

// parseStringOrArray reads a string or an array of strings.
func parseStringOrArray(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) > 0 {
		return arr
	}
	return nil
}

func firstString(raw json.RawMessage) string {
	if values := parseStringOrArray(raw); len(values) > 0 {
		return values[0]
	}
	return ""
}

// extractStringValue reads a JSON string or a {"@value": "..."} object.
func extractStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Value string `json:"@value"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Value
	}
	return ""
}

// firstElement returns the first entry of a JSON array, or raw itself when it
// is not an array. An empty array yields nil.
func firstElement(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if !strings.HasPrefix(strings.TrimSpace(string(raw)), "[") {
		return raw
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil || len(arr) == 0 {
		return nil
	}
	return arr[0]
}
