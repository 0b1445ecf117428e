package filters

import (
	"strconv"
	"strings"

	"github.com/mrintern/server/internal/domain/internships"
)

// Describe renders criteria for email subjects and lists, e.g.
// "Year: 2026, Season: Summer, Location: NYC, Industry: Tech".
func (c Criteria) Describe() string {
	parts := make([]string, 0, 4)
	if c.GraduationYear != nil {
		parts = append(parts, "Year: "+strconv.Itoa(*c.GraduationYear))
	}
	if c.Season != "" {
		parts = append(parts, "Season: "+c.Season)
	}
	if c.Location != "" {
		parts = append(parts, "Location: "+c.Location)
	}
	if c.Industry != "" {
		parts = append(parts, "Industry: "+c.Industry)
	}
	if len(parts) == 0 {
		return "All internships"
	}
	return strings.Join(parts, ", ")
}

// Match converts the criteria into an exact-match listing query.
func (c Criteria) Match() internships.Match {
	return internships.Match{
		GraduationYear: c.GraduationYear,
		Season:         c.Season,
		Location:       c.Location,
		Industry:       internships.Industry(c.Industry),
	}
}

// Filters converts the criteria into the public listing filters so a saved
// filter can be re-applied on the listing page.
func (c Criteria) Filters() internships.Filters {
	f := internships.Filters{
		GraduationYear: c.GraduationYear,
		Season:         c.Season,
		Location:       c.Location,
	}
	if industry, ok := internships.ParseIndustry(c.Industry); ok {
		f.Industry = industry
	}
	return f
}

// IsEmpty reports whether no criterion is set.
func (c Criteria) IsEmpty() bool {
	return c.GraduationYear == nil && c.Season == "" && c.Location == "" && c.Industry == ""
}
