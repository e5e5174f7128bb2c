package discovery

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pevans/newsarchive/archive"
	"github.com/pevans/newsarchive/dom"
	"github.com/pevans/newsarchive/store"
	"github.com/pevans/newsarchive/teaser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	archiveURL = "https://www.tagesschau.de/archiv/?datum=2022-03-01"
	linkA      = "https://www.tagesschau.de/inland/a.html"
	linkB      = "https://www.tagesschau.de/inland/b.html"
	linkC      = "https://www.tagesschau.de/inland/c.html"
	linkD      = "https://www.tagesschau.de/ausland/d.html"
)

// fakeFetcher serves pages from memory. URLs without a page fail like a
// 404 response.
type fakeFetcher struct {
	mu      sync.Mutex
	pages   map[string]string
	errs    map[string]error
	block   map[string]bool
	onFetch func(url string)
	fetched []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (dom.Element, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, url)
	page, ok := f.pages[url]
	err := f.errs[url]
	block := f.block[url]
	hook := f.onFetch
	f.mu.Unlock()

	if hook != nil {
		hook(url)
	}
	if block {
		<-ctx.Done()
		return nil, fmt.Errorf("%w: %w", dom.ErrFetch, ctx.Err())
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: unexpected status code: 404", dom.ErrFetch)
	}
	return dom.ParseString(page)
}

func (f *fakeFetcher) fetchedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetched...)
}

// Test helper: render one teaser block; empty fields are left out
func teaserBlock(date, headline, shorttext, href string) string {
	var b strings.Builder
	b.WriteString(`<div class="teaser-right twelve">`)
	fmt.Fprintf(&b, `<a class="teaser-right__link" href="%s">`, href)
	b.WriteString(`<span class="teaser-right__topline">Topline</span>`)
	fmt.Fprintf(&b, `<span class="teaser-right__headline">%s</span>`, headline)
	if shorttext != "" {
		fmt.Fprintf(&b, `<p class="teaser-right__shorttext">%s</p>`, shorttext)
	}
	b.WriteString(`</a>`)
	fmt.Fprintf(&b, `<div class="teaser-right__date">%s</div>`, date)
	b.WriteString(`</div>`)
	return b.String()
}

// Test helper: render an archive listing around the given teasers
func archivePage(blocks ...string) string {
	return fmt.Sprintf(`<html><body>
<h2 class="archive__headline">1. März 2022</h2>
<span class="ergebnisse__anzahl">%d</span>
%s
</body></html>`, len(blocks), strings.Join(blocks, "\n"))
}

func articlePage(tags ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><p class="textabsatz">Text</p>`)
	if len(tags) > 0 {
		b.WriteString(`<div class="taglist">`)
		for _, tag := range tags {
			fmt.Fprintf(&b, `<a class="tag-btn tag-btn--light-grey">%s</a>`, tag)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

// Test helper: an archive with four teasers. A has tags, B's article fails
// to load, C has no shorttext and D links absolutely to an untagged article.
func newFixtureFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages: map[string]string{
			archiveURL: archivePage(
				teaserBlock("01.03.2022 - 18:54 Uhr", "A", "Text A", "/inland/a.html"),
				teaserBlock("01.03.2022 - 17:00 Uhr", "B", "Text B", "/inland/b.html"),
				teaserBlock("01.03.2022 - 16:00 Uhr", "C", "", "/inland/c.html"),
				teaserBlock("01.03.2022 - 15:00 Uhr", "D", "Text D", linkD),
			),
			linkA: articlePage("DAX", "Börse", "DAX"),
			linkC: articlePage("Inland"),
			linkD: articlePage(),
		},
		errs: map[string]error{
			linkB: fmt.Errorf("%w: stopped after 10 redirects", dom.ErrFetch),
		},
	}
}

func newTestService(fetcher Fetcher, concurrency int) *Service {
	config := DefaultConfig()
	config.Concurrency = concurrency
	config.FetchTimeout = time.Second
	return NewService(fetcher, config, nil)
}

// Test helper: create a test store with schema
func createTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.OpenWithSchema(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func headlines(records []teaser.Record) []string {
	var out []string
	for _, r := range records {
		out = append(out, r.Headline)
	}
	return out
}

// TestScrapeArchive_ProcessesAllTeasers verifies that a failing article
// fetch or an invalid teaser never stops its siblings
func TestScrapeArchive_ProcessesAllTeasers(t *testing.T) {
	service := newTestService(newFixtureFetcher(), 1)

	result, err := service.ScrapeArchive(context.Background(), archiveURL)
	require.NoError(t, err)

	assert.Equal(t, "1. März 2022", result.Info.Headline)
	assert.Equal(t, "4", result.Info.TeaserCount)
	assert.Equal(t, 4, result.Found)
	assert.Equal(t, []string{"A", "B", "D"}, headlines(result.Records), "valid teasers in page order")
	assert.Equal(t, 1, result.Omitted)
	assert.Equal(t, 0, result.Aborted)

	a := result.Records[0]
	assert.Equal(t, teaser.HashID(linkA), a.ID)
	assert.Equal(t, "2022-03-01 18:54:00", a.Timestamp())
	require.NotNil(t, a.Tags)
	assert.Equal(t, "Börse,DAX", *a.Tags)

	b := result.Records[1]
	assert.Equal(t, linkB, b.Link)
	assert.Nil(t, b.Tags, "tags omitted after fetch failure")

	d := result.Records[2]
	assert.Equal(t, linkD, d.Link, "absolute link kept as is")
	require.NotNil(t, d.Tags)
	assert.Equal(t, "", *d.Tags)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, 2, result.Errors[0].Index)
	assert.Equal(t, StageValidate, result.Errors[0].Stage)
	assert.Equal(t, linkC, result.Errors[0].Link)
	assert.ErrorIs(t, &result.Errors[0], teaser.ErrMissingFields)
}

// TestScrapeArchive_Concurrent verifies parallel processing keeps page order
func TestScrapeArchive_Concurrent(t *testing.T) {
	fetcher := newFixtureFetcher()
	service := newTestService(fetcher, 4)

	result, err := service.ScrapeArchive(context.Background(), archiveURL)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "D"}, headlines(result.Records))
	assert.Len(t, result.Errors, 1)
	assert.Len(t, fetcher.fetchedURLs(), 5, "archive page plus one fetch per teaser")
}

// TestScrapeArchive_FetchTimeout verifies a timed-out article fetch is
// treated like any other fetch failure
func TestScrapeArchive_FetchTimeout(t *testing.T) {
	fetcher := &fakeFetcher{
		pages: map[string]string{
			archiveURL: archivePage(
				teaserBlock("01.03.2022 - 18:54 Uhr", "A", "Text A", "/inland/a.html"),
				teaserBlock("01.03.2022 - 17:00 Uhr", "B", "Text B", "/inland/b.html"),
			),
			linkB: articlePage("Tag"),
		},
		block: map[string]bool{linkA: true},
	}
	config := DefaultConfig()
	config.FetchTimeout = 50 * time.Millisecond
	service := NewService(fetcher, config, nil)

	result, err := service.ScrapeArchive(context.Background(), archiveURL)
	require.NoError(t, err)

	require.Len(t, result.Records, 2)
	assert.Nil(t, result.Records[0].Tags)
	require.NotNil(t, result.Records[1].Tags)
	assert.Equal(t, "Tag", *result.Records[1].Tags)
	assert.Equal(t, 1, result.Omitted)
}

// TestScrapeArchive_PageFetchFails verifies page-level fetch errors propagate
func TestScrapeArchive_PageFetchFails(t *testing.T) {
	service := newTestService(&fakeFetcher{}, 1)

	result, err := service.ScrapeArchive(context.Background(), archiveURL)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, dom.ErrFetch)
}

// TestScrapeArchive_NotArchivePage verifies the validation element is required
func TestScrapeArchive_NotArchivePage(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		archiveURL: `<html><body>` + teaserBlock("01.03.2022 - 18:54 Uhr", "A", "Text A", "/inland/a.html") + `</body></html>`,
	}}
	service := newTestService(fetcher, 1)

	result, err := service.ScrapeArchive(context.Background(), archiveURL)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrNotArchivePage)
	assert.Len(t, fetcher.fetchedURLs(), 1, "no teaser may be processed")
}

// TestScrapeArchive_MissingTeaserCount verifies a missing count is fatal too
func TestScrapeArchive_MissingTeaserCount(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		archiveURL: `<html><body><h2 class="archive__headline">1. März 2022</h2></body></html>`,
	}}
	service := newTestService(fetcher, 1)

	_, err := service.ScrapeArchive(context.Background(), archiveURL)
	assert.ErrorIs(t, err, ErrNotArchivePage)
	assert.ErrorIs(t, err, archive.ErrElementNotFound)
}

// TestScrapeArchive_Cancelled verifies cancellation stops scheduling and
// keeps the records completed so far
func TestScrapeArchive_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := newFixtureFetcher()
	fetcher.onFetch = func(url string) {
		if url == linkA {
			cancel()
		}
	}
	service := newTestService(fetcher, 1)

	result, err := service.ScrapeArchive(ctx, archiveURL)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Equal(t, []string{"A"}, headlines(result.Records))
	assert.Equal(t, 3, result.Aborted)
	assert.NotContains(t, fetcher.fetchedURLs(), linkB)
}

// TestEnrich_Statuses verifies the typed enrichment outcomes
func TestEnrich_Statuses(t *testing.T) {
	service := newTestService(newFixtureFetcher(), 1)
	ctx := context.Background()

	found := service.Enrich(ctx, linkA)
	assert.Equal(t, TagsFound, found.Status)
	assert.Equal(t, "Börse,DAX", found.Tags.String())

	none := service.Enrich(ctx, linkD)
	assert.Equal(t, NoTags, none.Status)
	assert.Empty(t, none.Tags)

	omitted := service.Enrich(ctx, linkB)
	assert.Equal(t, Omitted, omitted.Status)
	assert.ErrorIs(t, omitted.Err, dom.ErrFetch)

	assert.Equal(t, Omitted, service.Enrich(ctx, "").Status)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	aborted := service.Enrich(cancelled, linkA)
	assert.Equal(t, Aborted, aborted.Status)
	assert.ErrorIs(t, aborted.Err, context.Canceled)
}

// TestEnrichmentStatus_String verifies status names used in logs
func TestEnrichmentStatus_String(t *testing.T) {
	assert.Equal(t, "tags_found", TagsFound.String())
	assert.Equal(t, "no_tags", NoTags.String())
	assert.Equal(t, "omitted", Omitted.String())
	assert.Equal(t, "aborted", Aborted.String())
}

// TestSyncArchive_StoresValidTeasers verifies inserts, idempotency and the
// run log
func TestSyncArchive_StoresValidTeasers(t *testing.T) {
	st := createTestStore(t)
	service := newTestService(newFixtureFetcher(), 2)
	ctx := context.Background()
	date := time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)

	first, err := service.SyncArchive(ctx, date, archive.All, st)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Run.Stored)
	assert.Equal(t, 4, first.Run.Found)
	assert.Equal(t, 3, first.Run.Valid)
	assert.Equal(t, 1, first.Run.Failed)
	assert.Nil(t, first.Run.Error)

	count, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	stored, err := st.Get(ctx, teaser.HashID(linkB))
	require.NoError(t, err)
	assert.Nil(t, stored.Tags)

	second, err := service.SyncArchive(ctx, date, archive.All, st)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Run.Stored, "duplicates are ignored")

	count, err = st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	runs, err := st.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, archiveURL, runs[0].ArchiveURL)
	assert.Equal(t, "2022-03-01", runs[0].ArchiveDate)
	assert.Equal(t, "all", runs[0].Category)
	require.NotNil(t, runs[0].Headline)
	assert.Equal(t, "1. März 2022", *runs[0].Headline)
}

// TestSyncArchive_PageError verifies failed pages are recorded in the run log
func TestSyncArchive_PageError(t *testing.T) {
	st := createTestStore(t)
	service := newTestService(&fakeFetcher{}, 1)
	ctx := context.Background()

	result, err := service.SyncArchive(ctx, time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC), archive.All, st)
	assert.ErrorIs(t, err, dom.ErrFetch)
	require.NotNil(t, result)
	assert.Nil(t, result.Page)

	runs, err := st.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.NotNil(t, runs[0].Error)
	assert.Contains(t, *runs[0].Error, "failed to fetch archive page")
}

// TestSyncArchive_InvalidCategory verifies URL construction errors
func TestSyncArchive_InvalidCategory(t *testing.T) {
	st := createTestStore(t)
	service := newTestService(newFixtureFetcher(), 1)

	_, err := service.SyncArchive(context.Background(), time.Now(), archive.Category("sport"), st)
	assert.ErrorIs(t, err, archive.ErrInvalidCategory)
}

// TestSyncArchive_CancelledKeepsInserted verifies rows stored before
// cancellation stay
func TestSyncArchive_CancelledKeepsInserted(t *testing.T) {
	st := createTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := newFixtureFetcher()
	fetcher.onFetch = func(url string) {
		if url == linkA {
			cancel()
		}
	}
	service := newTestService(fetcher, 1)

	result, err := service.SyncArchive(ctx, time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC), archive.All, st)
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, result)
	assert.Equal(t, 1, result.Run.Stored)

	count, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	runs, err := st.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1, "cancelled runs are still logged")
}

// failingStore rejects every insert
type failingStore struct {
	runs []store.Run
}

func (f *failingStore) Insert(context.Context, teaser.Record) (bool, error) {
	return false, errors.New("disk full")
}

func (f *failingStore) RecordRun(_ context.Context, run store.Run) error {
	f.runs = append(f.runs, run)
	return nil
}

// TestSyncArchive_InsertFailure verifies store errors drop only the teaser
func TestSyncArchive_InsertFailure(t *testing.T) {
	st := &failingStore{}
	service := newTestService(newFixtureFetcher(), 1)

	result, err := service.SyncArchive(context.Background(), time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC), archive.All, st)
	require.NoError(t, err)

	assert.Empty(t, result.Page.Records)
	assert.Len(t, result.Page.Errors, 4)
	assert.Equal(t, StageStore, result.Page.Errors[0].Stage)
	require.Len(t, st.runs, 1)
	assert.Equal(t, 0, st.runs[0].Stored)
	assert.Equal(t, 4, st.runs[0].Failed)
}
