package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pevans/newsarchive/archive"
	"github.com/pevans/newsarchive/dom"
	"github.com/pevans/newsarchive/scraper"
	"github.com/pevans/newsarchive/teaser"
)

// ErrNotArchivePage is returned when a fetched page lacks the archive
// headline that marks it as an archive listing.
var ErrNotArchivePage = errors.New("page is not an archive listing")

// Fetcher retrieves a parsed page. *dom.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (dom.Element, error)
}

// Config holds the discovery service settings.
type Config struct {
	// Maximum number of teasers processed in parallel; 1 is sequential
	Concurrency int
	// Timeout for a single article fetch during tag enrichment
	FetchTimeout time.Duration
	Selectors    scraper.Selectors
	Site         scraper.Site
}

// DefaultConfig returns sequential processing with a 10 second article
// timeout and the tagesschau.de selectors.
func DefaultConfig() Config {
	return Config{
		Concurrency:  1,
		FetchTimeout: 10 * time.Second,
		Selectors:    scraper.DefaultSelectors(),
		Site:         scraper.DefaultSite(),
	}
}

// Service scrapes archive pages into validated teaser records.
type Service struct {
	fetcher Fetcher
	config  Config
	logger  *slog.Logger
}

// NewService creates a discovery service. A nil logger discards output.
func NewService(fetcher Fetcher, config Config, logger *slog.Logger) *Service {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	config.Selectors = config.Selectors.Merge(scraper.DefaultSelectors())
	if config.Site.Origin == "" {
		config.Site = scraper.DefaultSite()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Service{fetcher: fetcher, config: config, logger: logger}
}

// Stage names a step of teaser processing.
type Stage string

const (
	StageExtract   Stage = "extract"
	StageEnrich    Stage = "enrich"
	StageNormalize Stage = "normalize"
	StageValidate  Stage = "validate"
	StageStore     Stage = "store"
)

// TeaserError records why one teaser was dropped. It never aborts the page.
type TeaserError struct {
	Index int
	Stage Stage
	Link  string
	Err   error
}

func (e *TeaserError) Error() string {
	return fmt.Sprintf("teaser %d (%s): %v", e.Index, e.Stage, e.Err)
}

func (e *TeaserError) Unwrap() error {
	return e.Err
}

// PageResult is the outcome of scraping one archive page.
type PageResult struct {
	URL  string
	Info archive.Info
	// Found is the number of teaser blocks on the page
	Found int
	// Records holds the valid teasers in page order
	Records []teaser.Record
	Errors  []TeaserError
	// Omitted counts records kept without tags because enrichment failed
	Omitted int
	// Aborted counts teasers dropped because the scrape was cancelled
	Aborted int
}

// sink receives each valid record as soon as it is complete. Calls are
// serialized.
type sink func(ctx context.Context, index int, record teaser.Record) error

// ScrapeArchive fetches the archive page at url and runs every teaser
// through extraction, tag enrichment, normalization and validation. A
// failed page fetch or a page without archive headline is returned as an
// error; failures of single teasers are collected in the result.
//
// When ctx is cancelled no further teasers are started and the partial
// result is returned together with the context error.
func (s *Service) ScrapeArchive(ctx context.Context, url string) (*PageResult, error) {
	return s.scrape(ctx, url, nil)
}

type outcome struct {
	record  teaser.Record
	valid   bool
	omitted bool
	aborted bool
	err     *TeaserError
}

func (s *Service) scrape(ctx context.Context, url string, emit sink) (*PageResult, error) {
	logger := s.logger.With(slog.String("url", url))

	doc, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch archive page: %w", err)
	}

	if _, ok := doc.FindOne(s.config.Selectors.ArchiveHeadline); !ok {
		return nil, fmt.Errorf("%w: %s has no %q element", ErrNotArchivePage, url, s.config.Selectors.ArchiveHeadline)
	}

	info, err := archive.ParseInfo(doc, s.config.Selectors)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotArchivePage, err)
	}

	blocks := doc.FindAll(s.config.Selectors.Teaser)
	logger.Info("Scraping archive page",
		slog.String("headline", info.Headline),
		slog.Int("teasers", len(blocks)))

	outcomes := make([]outcome, len(blocks))
	semaphore := make(chan struct{}, s.config.Concurrency)
	var wg sync.WaitGroup
	var emitMu sync.Mutex

	cancelled := false
	scheduled := 0
	for i, block := range blocks {
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		select {
		case <-ctx.Done():
			cancelled = true
		case semaphore <- struct{}{}: // Acquire semaphore
			scheduled++
			wg.Add(1)
			go func(i int, block dom.Element) {
				defer wg.Done()
				defer func() { <-semaphore }() // Release semaphore

				o := s.processTeaser(ctx, logger, i, block)
				if o.valid && emit != nil {
					emitMu.Lock()
					err := emit(ctx, i, o.record)
					emitMu.Unlock()
					if err != nil {
						o.valid = false
						o.err = &TeaserError{Index: i, Stage: StageStore, Link: o.record.Link, Err: err}
					}
				}
				outcomes[i] = o
			}(i, block)
		}

		if cancelled {
			break
		}
	}
	wg.Wait()

	result := &PageResult{URL: url, Info: info, Found: len(blocks)}
	// Teasers never started count as aborted
	result.Aborted = len(blocks) - scheduled
	for _, o := range outcomes[:scheduled] {
		switch {
		case o.aborted:
			result.Aborted++
		case o.err != nil:
			logger.Warn("Dropped teaser",
				slog.Int("index", o.err.Index),
				slog.String("stage", string(o.err.Stage)),
				slog.String("link", o.err.Link),
				slog.String("error", o.err.Err.Error()))
			result.Errors = append(result.Errors, *o.err)
		case o.valid:
			result.Records = append(result.Records, o.record)
		}
		if o.omitted && o.valid {
			result.Omitted++
		}
	}

	logger.Info("Scraped archive page",
		slog.Int("found", result.Found),
		slog.Int("valid", len(result.Records)),
		slog.Int("dropped", len(result.Errors)),
		slog.Int("tags_omitted", result.Omitted))

	if cancelled || ctx.Err() != nil {
		return result, ctx.Err()
	}
	return result, nil
}

// processTeaser runs the four stages on one teaser block. Each stage gets
// the record returned by the previous one.
func (s *Service) processTeaser(ctx context.Context, logger *slog.Logger, index int, block dom.Element) outcome {
	extracted, err := teaser.Extract(block, s.config.Selectors, s.config.Site)
	if err != nil {
		return outcome{err: &TeaserError{Index: index, Stage: StageExtract, Err: err}}
	}

	enrichment := s.Enrich(ctx, extracted.Link)
	if enrichment.Status == Aborted {
		return outcome{aborted: true}
	}

	enriched := extracted
	switch enrichment.Status {
	case TagsFound, NoTags:
		enriched = extracted.WithTags(enrichment.Tags.String())
	case Omitted:
		if enrichment.Err != nil {
			logger.Warn("Omitting tags of teaser",
				slog.Int("index", index),
				slog.String("link", extracted.Link),
				slog.String("error", enrichment.Err.Error()))
		}
	}

	normalized, err := enriched.Normalize()
	if err != nil {
		return outcome{err: &TeaserError{Index: index, Stage: StageNormalize, Link: enriched.Link, Err: err}}
	}

	if err := normalized.Validate(); err != nil {
		return outcome{err: &TeaserError{Index: index, Stage: StageValidate, Link: normalized.Link, Err: err}}
	}

	logger.Debug("Extracted teaser",
		slog.Int("index", index),
		slog.String("id", normalized.ID),
		slog.String("headline", normalized.Headline))

	return outcome{record: normalized, valid: true, omitted: enrichment.Status == Omitted}
}
