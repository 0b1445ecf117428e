package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrintern/server/internal/domain/ids"
	"github.com/mrintern/server/internal/domain/internships"
	"github.com/mrintern/server/internal/metrics"
)

// DefaultSourcesDir is where ImportAll looks for source files.
const DefaultSourcesDir = "configs/sources"

// Listings stores normalized listings, skipping duplicates.
type Listings interface {
	Upsert(ctx context.Context, params internships.CreateParams) (*internships.Internship, bool, error)
}

// BatchLog records one row per import run. Failures to log never fail the run.
type BatchLog interface {
	StartBatch(ctx context.Context, id, source string, startedAt time.Time) error
	FinishBatch(ctx context.Context, id string, created, duplicates, failed int, finishedAt time.Time) error
}

// Options controls an import run.
type Options struct {
	DryRun     bool
	Limit      int // 0 means no limit
	SourcesDir string
}

// Result summarizes one source.
type Result struct {
	BatchID    string          `json:"batchId,omitempty"`
	SourceName string          `json:"source"`
	SourceURL  string          `json:"url"`
	Tier       int             `json:"tier"`
	Found      int             `json:"found"`
	Skipped    int             `json:"skipped"`
	Created    int             `json:"created"`
	Duplicates int             `json:"duplicates"`
	Failed     int             `json:"failed"`
	DryRun     bool            `json:"dryRun"`
	Preview    []PreviewRecord `json:"preview,omitempty"`
	Error      error           `json:"-"`
}

// PreviewRecord is what a dry run would have stored.
type PreviewRecord struct {
	Title     string `json:"title"`
	Company   string `json:"company"`
	Location  string `json:"location,omitempty"`
	Season    string `json:"season,omitempty"`
	ApplyLink string `json:"applyLink,omitempty"`
}

// Importer fetches career pages and stores the postings as internships.
type Importer struct {
	listings Listings
	batches  BatchLog
	colly    *CollyExtractor
	logger   zerolog.Logger
	now      func() time.Time
}

// NewImporter builds an Importer. batches may be nil.
func NewImporter(listings Listings, batches BatchLog, logger zerolog.Logger) *Importer {
	return &Importer{
		listings: listings,
		batches:  batches,
		colly:    NewCollyExtractor(logger),
		logger:   logger,
		now:      time.Now,
	}
}

// ImportURL imports JSON-LD JobPostings from an ad-hoc URL. The source is
// named after the host.
func (im *Importer) ImportURL(ctx context.Context, rawURL string, opts Options) (Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return Result{SourceURL: rawURL}, fmt.Errorf("invalid URL %q", rawURL)
	}
	source := DefaultSourceConfig()
	source.Name = u.Hostname()
	source.URL = rawURL
	return im.ImportSource(ctx, source, opts)
}

// ImportAll imports every enabled source in opts.SourcesDir. A source that
// fails is reported in its Result and does not stop the others.
func (im *Importer) ImportAll(ctx context.Context, opts Options) ([]Result, error) {
	dir := opts.SourcesDir
	if dir == "" {
		dir = DefaultSourcesDir
	}
	sources, err := LoadSourceConfigs(dir)
	if err != nil && len(sources) == 0 {
		return nil, err
	}
	if err != nil {
		im.logger.Warn().Err(err).Msg("importer: some source files were skipped")
	}

	var results []Result
	for _, source := range sources {
		if ctx.Err() != nil {
			break
		}
		if !source.Enabled {
			continue
		}
		result, runErr := im.ImportSource(ctx, source, opts)
		if runErr != nil {
			result.Error = runErr
		}
		results = append(results, result)
	}
	return results, ctx.Err()
}

// ImportSource runs one source end to end.
func (im *Importer) ImportSource(ctx context.Context, source SourceConfig, opts Options) (Result, error) {
	result := Result{
		SourceName: source.Name,
		SourceURL:  source.URL,
		Tier:       source.Tier,
		DryRun:     opts.DryRun,
	}
	log := im.logger.With().Str("source", source.Name).Int("tier", source.Tier).Logger()
	ctx = log.WithContext(ctx)

	if !opts.DryRun {
		result.BatchID = im.startBatch(ctx, source.Name)
	}

	params, found, skipped, err := im.collect(ctx, source)
	result.Found = found
	result.Skipped = skipped
	if err != nil {
		result.Error = err
		im.finishBatch(ctx, result)
		return result, err
	}
	if opts.Limit > 0 && len(params) > opts.Limit {
		params = params[:opts.Limit]
	}

	for _, p := range params {
		if opts.DryRun {
			result.Preview = append(result.Preview, PreviewRecord{
				Title:     p.Title,
				Company:   p.Company,
				Location:  p.Location,
				Season:    p.Season,
				ApplyLink: p.ApplyLink,
			})
			continue
		}

		_, created, err := im.listings.Upsert(ctx, p)
		switch {
		case err != nil:
			result.Failed++
			metrics.ListingsImportedTotal.WithLabelValues(source.Name, "invalid").Inc()
			log.Warn().Err(err).Str("title", p.Title).Msg("importer: listing rejected")
		case created:
			result.Created++
			metrics.ListingsImportedTotal.WithLabelValues(source.Name, "created").Inc()
		default:
			result.Duplicates++
			metrics.ListingsImportedTotal.WithLabelValues(source.Name, "duplicate").Inc()
		}
	}

	im.finishBatch(ctx, result)
	log.Info().
		Int("found", result.Found).
		Int("created", result.Created).
		Int("duplicates", result.Duplicates).
		Int("failed", result.Failed).
		Bool("dry_run", opts.DryRun).
		Msg("importer: source complete")
	return result, nil
}

// collect fetches and normalizes a source. It returns the listings plus the
// number of raw postings found and how many were dropped.
func (im *Importer) collect(ctx context.Context, source SourceConfig) ([]internships.CreateParams, int, int, error) {
	now := im.now()
	log := zerolog.Ctx(ctx)

	var (
		out     []internships.CreateParams
		skipped int
	)
	keep := func(p internships.CreateParams, err error) {
		if err != nil {
			skipped++
			if !errors.Is(err, ErrNotInternship) {
				log.Debug().Err(err).Msg("importer: posting skipped")
			}
			return
		}
		out = append(out, p)
	}

	switch source.Tier {
	case 0:
		raw, err := FetchJobPostings(ctx, source.URL)
		if err != nil {
			return nil, 0, 0, err
		}
		for _, r := range raw {
			keep(NormalizeJobPosting(r, source, now))
		}
		return out, len(raw), skipped, nil
	case 1:
		raw, err := im.colly.ScrapeWithSelectors(ctx, source)
		if err != nil {
			return nil, 0, 0, err
		}
		for _, r := range raw {
			keep(NormalizeRawPosting(r, source, now))
		}
		return out, len(raw), skipped, nil
	default:
		return nil, 0, 0, fmt.Errorf("unsupported tier %d", source.Tier)
	}
}

func (im *Importer) startBatch(ctx context.Context, source string) string {
	if im.batches == nil {
		return ""
	}
	id, err := ids.NewULID()
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("importer: batch id")
		return ""
	}
	if err := im.batches.StartBatch(ctx, id, source, im.now()); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("importer: failed to record batch start")
		return ""
	}
	return id
}

func (im *Importer) finishBatch(ctx context.Context, result Result) {
	if im.batches == nil || result.BatchID == "" {
		return
	}
	if err := im.batches.FinishBatch(ctx, result.BatchID, result.Created, result.Duplicates, result.Failed, im.now()); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("importer: failed to record batch finish")
	}
}

// MarshalPreview renders a dry-run result for the CLI.
func MarshalPreview(result Result) ([]byte, error) {
	return json.MarshalIndent(result, "", "  ")
}
