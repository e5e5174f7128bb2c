package dom

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// ErrFetch wraps every failure to turn a URL into a parsed document.
var ErrFetch = errors.New("fetch failed")

// DefaultUserAgent identifies the scraper to the archive site.
const DefaultUserAgent = "newsarchive/1.0 (news archive scraper)"

// MaxRedirects caps how many redirects a single fetch follows.
const MaxRedirects = 10

// FetcherConfig holds the knobs of a Fetcher. Zero values fall back to the
// defaults from DefaultFetcherConfig.
type FetcherConfig struct {
	// Timeout per request, including reading the body
	Timeout time.Duration
	// Minimum spacing between two requests; zero disables throttling
	RequestInterval time.Duration
	UserAgent       string
}

// DefaultFetcherConfig returns the configuration used when none is given.
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		Timeout:         10 * time.Second,
		RequestInterval: 500 * time.Millisecond,
		UserAgent:       DefaultUserAgent,
	}
}

// Fetcher retrieves HTML pages and parses them into Elements.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewFetcher creates a fetcher with the given configuration.
func NewFetcher(config FetcherConfig) *Fetcher {
	defaults := DefaultFetcherConfig()
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}

	limit := rate.Inf
	if config.RequestInterval > 0 {
		limit = rate.Every(config.RequestInterval)
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: config.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= MaxRedirects {
					return fmt.Errorf("stopped after %d redirects", MaxRedirects)
				}
				return nil
			},
		},
		limiter:   rate.NewLimiter(limit, 1),
		userAgent: config.UserAgent,
	}
}

// Fetch downloads url and parses the response body as HTML. Any failure,
// including a timeout, is returned wrapped in ErrFetch.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Element, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, url, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrFetch, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: HTTP error: %s", ErrFetch, url, resp.Status)
	}

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: failed to detect charset: %w", ErrFetch, url, err)
	}

	doc, err := Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, url, err)
	}

	return doc, nil
}
