package internships

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("internship not found")

type Industry string

const (
	IndustryTech       Industry = "Tech"
	IndustryFinance    Industry = "Finance"
	IndustryMarketing  Industry = "Marketing"
	IndustryHealthcare Industry = "Healthcare"
	IndustryConsulting Industry = "Consulting"
	IndustryEducation  Industry = "Education"
	IndustryGovernment Industry = "Government"
	IndustryOther      Industry = "Other"
)

// Industries lists the accepted industries in display order.
var Industries = []Industry{
	IndustryTech,
	IndustryFinance,
	IndustryMarketing,
	IndustryHealthcare,
	IndustryConsulting,
	IndustryEducation,
	IndustryGovernment,
	IndustryOther,
}

// ParseIndustry matches value exactly against the accepted industries.
func ParseIndustry(value string) (Industry, bool) {
	for _, industry := range Industries {
		if string(industry) == value {
			return industry, true
		}
	}
	return "", false
}

// NormalizeIndustry returns the industry for value, falling back to Other.
func NormalizeIndustry(value string) Industry {
	if industry, ok := ParseIndustry(value); ok {
		return industry
	}
	return IndustryOther
}

type Internship struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Company        string     `json:"company"`
	Location       string     `json:"location,omitempty"`
	Industry       Industry   `json:"industry"`
	GraduationYear *int       `json:"graduationYear,omitempty"`
	Season         string     `json:"season,omitempty"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	ApplyLink      string     `json:"applyLink,omitempty"`
	Verified       bool       `json:"verified"`
	Featured       bool       `json:"featured"`
	RecruiterID    string     `json:"recruiterId,omitempty"`
	Source         string     `json:"source,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Filters narrows the public listing. Season and Location are
// case-insensitive substring matches, the rest are exact.
type Filters struct {
	GraduationYear *int
	Season         string
	Location       string
	Industry       Industry
	FeaturedOnly   bool
}

// Match selects internships whose fields equal every non-empty criterion.
type Match struct {
	GraduationYear *int
	Season         string
	Location       string
	Industry       Industry
}

type CreateParams struct {
	Title          string
	Company        string
	Location       string
	Industry       Industry
	GraduationYear *int
	Season         string
	Deadline       *time.Time
	ApplyLink      string
	Verified       bool
	Featured       bool
	RecruiterID    string
	Source         string
}

type Repository interface {
	List(ctx context.Context, filters Filters) ([]Internship, error)
	Get(ctx context.Context, id string) (*Internship, error)
	Create(ctx context.Context, params CreateParams) (*Internship, error)
	Update(ctx context.Context, internship Internship) (*Internship, error)
	Delete(ctx context.Context, id string) error
	ListByRecruiter(ctx context.Context, recruiterID string) ([]Internship, error)
	// FindDuplicate matches title and company case-insensitively, and the apply
	// link too when it is non-empty.
	FindDuplicate(ctx context.Context, title, company, applyLink string) (*Internship, error)
	ListCreatedSince(ctx context.Context, match Match, since time.Time) ([]Internship, error)
}
