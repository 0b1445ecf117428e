package internships

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/mrintern/server/internal/validation"
)

// ParseFilters reads listing filters from a query string. An unknown industry
// is ignored rather than rejected.
func ParseFilters(values url.Values) (Filters, error) {
	filters := Filters{
		Season:   strings.TrimSpace(values.Get("season")),
		Location: strings.TrimSpace(values.Get("location")),
	}

	if raw := strings.TrimSpace(values.Get("graduationYear")); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return filters, validation.FieldError{Field: "graduationYear", Message: "must be a number"}
		}
		filters.GraduationYear = &year
	}

	if industry, ok := ParseIndustry(strings.TrimSpace(values.Get("industry"))); ok {
		filters.Industry = industry
	}

	filters.FeaturedOnly = values.Get("featured") == "true"
	return filters, nil
}

// Query renders the filters back into query parameters for links.
func (f Filters) Query() url.Values {
	values := url.Values{}
	if f.GraduationYear != nil {
		values.Set("graduationYear", strconv.Itoa(*f.GraduationYear))
	}
	if f.Season != "" {
		values.Set("season", f.Season)
	}
	if f.Location != "" {
		values.Set("location", f.Location)
	}
	if f.Industry != "" {
		values.Set("industry", string(f.Industry))
	}
	if f.FeaturedOnly {
		values.Set("featured", "true")
	}
	return values
}
