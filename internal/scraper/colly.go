package scraper

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog"
)

// RawPosting is one job card scraped with CSS selectors, before normalization.
type RawPosting struct {
	Title    string
	Company  string
	Location string
	Deadline string
	URL      string
}

// CollyExtractor scrapes tier 1 sources by CSS selector.
type CollyExtractor struct {
	userAgent string
	rateLimit time.Duration
	logger    zerolog.Logger
}

// NewCollyExtractor returns an extractor that waits one second between
// requests to the same domain.
func NewCollyExtractor(logger zerolog.Logger) *CollyExtractor {
	return &CollyExtractor{
		userAgent: importerUserAgent,
		rateLimit: time.Second,
		logger:    logger,
	}
}

// ScrapeWithSelectors visits source.URL and follows pagination links up to
// source.MaxPages, collecting one RawPosting per job card that has a title.
// robots.txt is honoured. Cancelling ctx returns what was collected so far.
func (e *CollyExtractor) ScrapeWithSelectors(ctx context.Context, source SourceConfig) ([]RawPosting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u, err := url.Parse(source.URL)
	if err != nil {
		return nil, err
	}

	var (
		mu       sync.Mutex
		postings []RawPosting
		pages    int
	)

	maxPages := source.MaxPages
	if maxPages <= 0 {
		maxPages = 5
	}

	c := colly.NewCollector(
		colly.UserAgent(e.userAgent),
		colly.AllowedDomains(u.Hostname()),
	)
	c.IgnoreRobotsTxt = false
	if err := c.Limit(&colly.LimitRule{DomainGlob: "*", Delay: e.rateLimit}); err != nil {
		e.logger.Warn().Err(err).Msg("colly: failed to set rate limit rule")
	}

	sel := source.Selectors
	c.OnHTML(sel.JobList, func(h *colly.HTMLElement) {
		if ctx.Err() != nil {
			return
		}
		raw := RawPosting{
			Title:    childText(h, sel.Title),
			Company:  childText(h, sel.Company),
			Location: childText(h, sel.Location),
			Deadline: childDate(h, sel.Deadline),
		}
		if sel.URL != "" {
			if href := h.ChildAttr(sel.URL, "href"); href != "" {
				raw.URL = h.Request.AbsoluteURL(href)
			}
		}
		if raw.Title == "" {
			return
		}
		mu.Lock()
		postings = append(postings, raw)
		mu.Unlock()
	})

	if sel.Pagination != "" {
		c.OnHTML(sel.Pagination, func(h *colly.HTMLElement) {
			if ctx.Err() != nil {
				return
			}
			mu.Lock()
			done := pages >= maxPages
			mu.Unlock()
			if done {
				return
			}

			href := h.Attr("href")
			if href == "" {
				href = h.ChildAttr("a", "href")
			}
			next := h.Request.AbsoluteURL(href)
			if href == "" || next == "" {
				return
			}
			if err := c.Visit(next); err != nil {
				e.logger.Debug().Err(err).Str("url", next).Msg("colly: pagination link not followed")
			}
		})
	}

	c.OnRequest(func(r *colly.Request) {
		mu.Lock()
		pages++
		page := pages
		mu.Unlock()
		if page > maxPages || ctx.Err() != nil {
			r.Abort()
			return
		}
		e.logger.Debug().Str("url", r.URL.String()).Int("page", page).Msg("colly: visiting page")
	})

	c.OnError(func(r *colly.Response, err error) {
		if ctx.Err() != nil {
			return
		}
		e.logger.Warn().
			Str("url", r.Request.URL.String()).
			Int("status", r.StatusCode).
			Err(err).
			Msg("colly: request error")
	})

	if err := c.Visit(source.URL); err != nil {
		if ctx.Err() != nil {
			return postings, nil
		}
		return nil, err
	}
	c.Wait()

	return postings, nil
}

func childText(h *colly.HTMLElement, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.Join(strings.Fields(h.ChildText(selector)), " ")
}

// childDate prefers the datetime attribute of a <time> element over its text.
func childDate(h *colly.HTMLElement, selector string) string {
	if selector == "" {
		return ""
	}
	if dt := h.ChildAttr(selector, "datetime"); dt != "" {
		return strings.TrimSpace(dt)
	}
	return childText(h, selector)
}
