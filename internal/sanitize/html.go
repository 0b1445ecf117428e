package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// strictPolicy removes all HTML tags and attributes.
	strictPolicy = bluemonday.StrictPolicy()

	// postPolicy permits light formatting in advice posts: paragraphs,
	// emphasis, lists and links that open with rel="nofollow".
	postPolicy = newPostPolicy()
)

func newPostPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "b", "strong", "i", "em", "ul", "ol", "li", "blockquote", "code")
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Text strips all markup and returns trimmed plain text. Entities are decoded
// so the value can be escaped once at render time.
// Use for: names, review pros/cons, comments, filter values.
func Text(input string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(input)))
}

// Post sanitizes advice post bodies, keeping the formatting postPolicy allows.
func Post(input string) string {
	return strings.TrimSpace(postPolicy.Sanitize(input))
}

// TextPtr sanitizes an optional field; nil stays nil.
func TextPtr(input *string) *string {
	if input == nil {
		return nil
	}
	out := Text(*input)
	return &out
}
