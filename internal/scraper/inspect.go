package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// InspectResult summarizes a career page so an operator can decide between a
// tier 0 and a tier 1 source, and pick selectors for the latter.
type InspectResult struct {
	URL         string
	StatusCode  int
	BodyBytes   int
	JobPostings int          // JSON-LD JobPostings on the page
	TopClasses  []ClassCount // most frequent CSS classes
	JobLinks    []string     // hrefs that look like job detail pages
	SampleCards []SampleCard // first few likely job containers
}

// ClassCount is a CSS class name and how often it appeared.
type ClassCount struct {
	Name  string
	Count int
}

// SampleCard is a snippet of a candidate job container.
type SampleCard struct {
	Selector string
	HTML     string
}

var (
	jobLinkHints = []string{"/job", "/career", "/position", "/opening", "intern"}
	jobCardHints = []string{"job", "posting", "opening", "position", "role", "vacanc", "card", "listing"}
)

// Inspect fetches rawURL and summarizes its DOM.
func Inspect(ctx context.Context, rawURL string) (*InspectResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("inspect: build request: %w", err)
	}
	req.Header.Set("User-Agent", importerUserAgent)

	resp, err := noRedirectClient(fetchTimeout).Do(req)
	if err != nil {
		return nil, fmt.Errorf("inspect: fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("inspect: read body: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("inspect: parse HTML: %w", err)
	}

	result := &InspectResult{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		BodyBytes:   len(body),
		JobPostings: len(postingsFromDocument(ctx, doc)),
	}

	classCounts := map[string]int{}
	doc.Find("[class]").Each(func(_ int, s *goquery.Selection) {
		cls, _ := s.Attr("class")
		for _, part := range strings.Fields(cls) {
			classCounts[part]++
		}
	})
	result.TopClasses = topN(classCounts, 20)

	seen := map[string]bool{}
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if !seen[href] && containsAny(strings.ToLower(href), jobLinkHints) {
			seen[href] = true
			result.JobLinks = append(result.JobLinks, href)
		}
		return len(result.JobLinks) < 20
	})

	cardSeen := map[string]bool{}
	for _, tag := range []string{"article", "li", "div", "tr"} {
		doc.Find(tag + "[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			cls, _ := s.Attr("class")
			if !containsAny(strings.ToLower(cls), jobCardHints) {
				return true
			}
			sel := tag + "." + strings.Fields(cls)[0]
			if cardSeen[sel] {
				return true
			}
			cardSeen[sel] = true
			h, _ := goquery.OuterHtml(s)
			if len(h) > 300 {
				h = h[:300] + "…"
			}
			result.SampleCards = append(result.SampleCards, SampleCard{Selector: sel, HTML: h})
			return len(result.SampleCards) < 8
		})
		if len(result.SampleCards) >= 8 {
			break
		}
	}

	return result, nil
}

// FormatInspectResult renders r for a terminal.
func FormatInspectResult(r *InspectResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "URL:          %s\n", r.URL)
	fmt.Fprintf(&b, "Status:       %d\n", r.StatusCode)
	fmt.Fprintf(&b, "Size:         %d bytes\n", r.BodyBytes)
	fmt.Fprintf(&b, "JobPostings:  %d", r.JobPostings)
	if r.JobPostings > 0 {
		b.WriteString(" (use tier 0)")
	}
	b.WriteString("\n\n")

	b.WriteString("Top CSS classes\n")
	for _, c := range r.TopClasses {
		fmt.Fprintf(&b, "  %-40s %d\n", c.Name, c.Count)
	}

	if len(r.JobLinks) > 0 {
		b.WriteString("\nJob links (sample)\n")
		for _, l := range r.JobLinks {
			fmt.Fprintf(&b, "  %s\n", l)
		}
	}

	if len(r.SampleCards) > 0 {
		b.WriteString("\nCandidate job containers\n")
		for _, card := range r.SampleCards {
			fmt.Fprintf(&b, "\n  selector: %s\n  html:     %s\n", card.Selector, card.HTML)
		}
	}
	return b.String()
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// topN returns the n most frequent entries, ties broken by name.
func topN(m map[string]int, n int) []ClassCount {
	out := make([]ClassCount, 0, len(m))
	for k, v := range m {
		out = append(out, ClassCount{Name: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
