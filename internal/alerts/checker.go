// Package alerts matches newly posted internships against users' saved
// filters and notifies them by email and push.
package alerts

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/mrintern/server/internal/domain/filters"
	"github.com/mrintern/server/internal/domain/internships"
	"github.com/mrintern/server/internal/domain/subscriptions"
	"github.com/mrintern/server/internal/domain/users"
	"github.com/mrintern/server/internal/metrics"
	"github.com/mrintern/server/internal/push"
	"github.com/rs/zerolog"
)

// DefaultLookback is how far back a run looks for new listings.
const DefaultLookback = 24 * time.Hour

// Candidate is an active alert preference with its owner and filter. User or
// Filter is nil when the referenced row no longer exists.
type Candidate struct {
	Preference filters.AlertPreference
	User       *users.User
	Filter     *filters.SavedFilter
}

type Store interface {
	ActiveCandidates(ctx context.Context) ([]Candidate, error)
	ListCreatedSince(ctx context.Context, match internships.Match, since time.Time) ([]internships.Internship, error)
	MarkNotified(ctx context.Context, preferenceID string, at time.Time) error
}

// Alert is one email summarizing new listings for a saved filter.
type Alert struct {
	To         string
	Name       string
	FilterName string
	Listings   []internships.Internship
}

type Mailer interface {
	SendAlert(ctx context.Context, alert Alert) error
}

type Subscriptions interface {
	ForUser(ctx context.Context, userID string) ([]subscriptions.Subscription, error)
}

type Pusher interface {
	Enabled() bool
	SendToAll(ctx context.Context, subs []subscriptions.Subscription, payload push.Payload) push.Result
}

// Report summarizes one run.
type Report struct {
	Checked int `json:"checked"`
	Skipped int `json:"skipped"`
	Matched int `json:"matched"`
	Emailed int `json:"emailed"`
	Pushed  int `json:"pushed"`
	Failed  int `json:"failed"`
}

type Checker struct {
	store    Store
	mailer   Mailer
	subs     Subscriptions
	pusher   Pusher
	lookback time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

// NewChecker builds a checker. mailer, subs and pusher may be nil to disable
// that channel.
func NewChecker(store Store, mailer Mailer, subs Subscriptions, pusher Pusher, lookback time.Duration, logger zerolog.Logger) *Checker {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &Checker{
		store:    store,
		mailer:   mailer,
		subs:     subs,
		pusher:   pusher,
		lookback: lookback,
		now:      time.Now,
		logger:   logger.With().Str("component", "alerts").Logger(),
	}
}

// Run checks every active preference once. A failing preference is counted
// and logged; only a failure to load preferences aborts the run.
func (c *Checker) Run(ctx context.Context, trigger string) (Report, error) {
	start := c.now()
	var report Report
	defer func() { metrics.AlertCheckDuration.Observe(time.Since(start).Seconds()) }()

	candidates, err := c.store.ActiveCandidates(ctx)
	if err != nil {
		metrics.AlertChecksTotal.WithLabelValues(trigger, "error").Inc()
		return report, fmt.Errorf("load alert preferences: %w", err)
	}
	c.logger.Info().Int("preferences", len(candidates)).Str("trigger", trigger).Msg("alert check started")

	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			metrics.AlertChecksTotal.WithLabelValues(trigger, "error").Inc()
			return report, err
		}
		report.Checked++
		c.check(ctx, cand, start, &report)
	}

	metrics.AlertChecksTotal.WithLabelValues(trigger, "success").Inc()
	c.logger.Info().
		Int("checked", report.Checked).
		Int("skipped", report.Skipped).
		Int("matched", report.Matched).
		Int("emailed", report.Emailed).
		Int("pushed", report.Pushed).
		Int("failed", report.Failed).
		Dur("duration", time.Since(start)).
		Msg("alert check completed")
	return report, nil
}

func (c *Checker) check(ctx context.Context, cand Candidate, now time.Time, report *Report) {
	log := c.logger.With().Str("preference_id", cand.Preference.ID).Logger()
	if cand.User == nil || cand.Filter == nil {
		log.Warn().Msg("skipping alert preference with missing user or filter")
		report.Skipped++
		return
	}

	since := now.Add(-c.lookback)
	if last := cand.Preference.LastNotifiedAt; last != nil && last.After(since) {
		since = *last
	}

	listings, err := c.store.ListCreatedSince(ctx, cand.Filter.Match(), since)
	if err != nil {
		log.Error().Err(err).Msg("failed to query matching internships")
		report.Failed++
		return
	}
	if len(listings) == 0 {
		return
	}
	report.Matched++
	metrics.AlertPreferencesMatched.Inc()

	filterName := cand.Filter.Describe()
	delivered := false

	if c.mailer != nil {
		err := c.mailer.SendAlert(ctx, Alert{
			To:         cand.User.Email,
			Name:       cand.User.Name,
			FilterName: filterName,
			Listings:   listings,
		})
		if err != nil {
			log.Error().Err(err).Str("user_id", cand.User.ID).Msg("failed to send alert email")
		} else {
			report.Emailed++
			delivered = true
		}
	}

	if c.subs != nil && c.pusher != nil && c.pusher.Enabled() {
		subs, err := c.subs.ForUser(ctx, cand.User.ID)
		if err != nil {
			log.Error().Err(err).Str("user_id", cand.User.ID).Msg("failed to load push subscriptions")
		} else if len(subs) > 0 {
			result := c.pusher.SendToAll(ctx, subs, push.NewPayload(
				"New internships for you",
				pushBody(len(listings), filterName),
			))
			report.Pushed += result.Sent
			if result.Sent > 0 {
				delivered = true
			}
		}
	}

	if !delivered {
		report.Failed++
		return
	}
	if err := c.store.MarkNotified(ctx, cand.Preference.ID, now); err != nil {
		log.Error().Err(err).Msg("failed to record notification time")
		report.Failed++
	}
}

func pushBody(count int, filterName string) string {
	noun := "internships match"
	if count == 1 {
		noun = "internship matches"
	}
	return strconv.Itoa(count) + " new " + noun + " your filter: " + filterName
}
