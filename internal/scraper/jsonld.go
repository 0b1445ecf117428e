package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/temoto/robotstxt"
)

const (
	importerUserAgent = "MrIntern-Importer/1.0 (+https://mrintern.app/about)"
	fetchTimeout      = 30 * time.Second
	robotsTimeout     = 10 * time.Second
	maxPageBytes      = 10 << 20
)

// ErrDisallowed is returned when robots.txt forbids fetching a page.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// noRedirectClient refuses to follow redirects so a career page cannot bounce
// the importer onto an internal address.
func noRedirectClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// FetchJobPostings fetches rawURL and returns every schema.org JobPosting
// found in its JSON-LD blocks.
func FetchJobPostings(ctx context.Context, rawURL string) ([]json.RawMessage, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL %q: missing scheme or host", rawURL)
	}

	allowed, robotsErr := RobotsAllowed(ctx, rawURL, importerUserAgent)
	if robotsErr != nil {
		zerolog.Ctx(ctx).Warn().Err(robotsErr).Str("url", rawURL).Msg("importer: robots.txt unreachable, proceeding")
		allowed = true
	}
	if !allowed {
		return nil, fmt.Errorf("%q: %w", rawURL, ErrDisallowed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %q: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", importerUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := noRedirectClient(fetchTimeout).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %q: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching %q", resp.StatusCode, rawURL)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML from %q: %w", rawURL, err)
	}
	return postingsFromDocument(ctx, doc), nil
}

// postingsFromDocument collects JobPostings from every ld+json script. A
// malformed block is logged and skipped.
func postingsFromDocument(ctx context.Context, doc *goquery.Document) []json.RawMessage {
	var postings []json.RawMessage
	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}
		found, err := extractPostings([]byte(raw))
		if err != nil {
			zerolog.Ctx(ctx).Debug().Err(err).Int("block", i).Msg("importer: skipping malformed JSON-LD")
			return
		}
		postings = append(postings, found...)
	})
	return postings
}

// extractPostings walks one JSON-LD block. It understands a bare JobPosting,
// a top-level array, an @graph container and an ItemList of ListItems.
func extractPostings(data []byte) ([]json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}
		return walkNodes(items)
	}
	return walkNode(data)
}

func walkNodes(nodes []json.RawMessage) ([]json.RawMessage, error) {
	var out []json.RawMessage
	for _, node := range nodes {
		found, err := walkNode(node)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}

func walkNode(data json.RawMessage) ([]json.RawMessage, error) {
	var envelope struct {
		Type            json.RawMessage   `json:"@type"`
		Graph           []json.RawMessage `json:"@graph"`
		ItemListElement []json.RawMessage `json:"itemListElement"`
		Item            json.RawMessage   `json:"item"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}

	if len(envelope.Graph) > 0 {
		return walkNodes(envelope.Graph)
	}

	switch jsonTypeString(envelope.Type) {
	case "JobPosting":
		return []json.RawMessage{data}, nil
	case "ItemList":
		return walkNodes(envelope.ItemListElement)
	case "ListItem":
		if len(envelope.Item) == 0 {
			return nil, nil
		}
		return walkNode(envelope.Item)
	}
	return nil, nil
}

// jsonTypeString reads @type as a string or the first entry of an array,
// without any schema.org prefix.
func jsonTypeString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return stripSchemaPrefix(s)
	}
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) > 0 {
		return stripSchemaPrefix(arr[0])
	}
	return ""
}

func stripSchemaPrefix(s string) string {
	for _, prefix := range []string{"https://schema.org/", "http://schema.org/"} {
		if after, ok := strings.CutPrefix(s, prefix); ok {
			return after
		}
	}
	return s
}

// RobotsAllowed reports whether userAgent may fetch rawURL. A missing
// robots.txt or one that fails to parse allows everything; network errors are
// returned so callers can decide.
func RobotsAllowed(ctx context.Context, rawURL string, userAgent string) (bool, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("parsing URL %q: %w", rawURL, err)
	}
	robotsURL := (&url.URL{Scheme: parsedURL.Scheme, Host: parsedURL.Host, Path: "/robots.txt"}).String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return false, fmt.Errorf("building robots.txt request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := noRedirectClient(robotsTimeout).Do(req)
	if err != nil {
		return false, fmt.Errorf("fetching %q: %w", robotsURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return true, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return false, fmt.Errorf("reading robots.txt body: %w", err)
	}
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return true, nil
	}

	path := parsedURL.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, userAgent), nil
}
