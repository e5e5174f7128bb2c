package discovery

import (
	"context"

	"github.com/pevans/newsarchive/article"
)

// EnrichmentStatus classifies the outcome of fetching a teaser's article.
type EnrichmentStatus int

const (
	// TagsFound means the article listed at least one tag
	TagsFound EnrichmentStatus = iota
	// NoTags means the article was fetched but lists no tags
	NoTags
	// Omitted means the article could not be fetched; the teaser proceeds
	// without tags
	Omitted
	// Aborted means the scrape was cancelled; the teaser is dropped
	Aborted
)

func (s EnrichmentStatus) String() string {
	switch s {
	case TagsFound:
		return "tags_found"
	case NoTags:
		return "no_tags"
	case Omitted:
		return "omitted"
	case Aborted:
		return "aborted"
	}
	return "unknown"
}

// Enrichment is the typed result of tag enrichment.
type Enrichment struct {
	Status EnrichmentStatus
	Tags   article.Tags
	// Err is the fetch error behind Omitted and Aborted
	Err error
}

// Enrich fetches the article at link and extracts its tags. Every fetch
// failure, including the per-fetch timeout, yields Omitted. Only the
// cancellation of ctx itself yields Aborted.
func (s *Service) Enrich(ctx context.Context, link string) Enrichment {
	if err := ctx.Err(); err != nil {
		return Enrichment{Status: Aborted, Err: err}
	}
	if link == "" {
		return Enrichment{Status: Omitted}
	}

	fetchCtx := ctx
	if s.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.config.FetchTimeout)
		defer cancel()
	}

	doc, err := s.fetcher.Fetch(fetchCtx, link)
	if err != nil {
		if ctx.Err() != nil {
			return Enrichment{Status: Aborted, Err: err}
		}
		return Enrichment{Status: Omitted, Err: err}
	}

	tags := article.ExtractTags(doc, s.config.Selectors)
	if len(tags) == 0 {
		return Enrichment{Status: NoTags, Tags: tags}
	}
	return Enrichment{Status: TagsFound, Tags: tags}
}
