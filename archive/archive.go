package archive

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pevans/newsarchive/dom"
	"github.com/pevans/newsarchive/scraper"
)

// Custom errors for archive operations
var (
	ErrInvalidCategory = errors.New("category must be wirtschaft, inland, ausland, or all")
	ErrElementNotFound = errors.New("element not found")
	ErrInvalidHeadline = errors.New("invalid archive headline date")
)

// BaseURL is the archive listing endpoint.
const BaseURL = "https://www.tagesschau.de/archiv/"

// Category filters the archive by news department ("Ressort").
type Category string

const (
	Wirtschaft Category = "wirtschaft"
	Inland     Category = "inland"
	Ausland    Category = "ausland"
	All        Category = "all"
)

// Categories lists every accepted category.
var Categories = []Category{Wirtschaft, Inland, Ausland, All}

// ParseCategory validates a category name.
func ParseCategory(name string) (Category, error) {
	category := Category(name)
	if !slices.Contains(Categories, category) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, name)
	}
	return category, nil
}

// BuildURL returns the archive URL listing the articles of the given day,
// optionally restricted to one category.
func BuildURL(date time.Time, category Category) (string, error) {
	if _, err := ParseCategory(string(category)); err != nil {
		return "", err
	}

	query := url.Values{}
	query.Set("datum", date.Format("2006-01-02"))
	if category != All {
		query.Set("ressort", string(category))
	}

	// Encode sorts keys, which keeps datum before ressort
	return BaseURL + "?" + query.Encode(), nil
}

// monthNames is indexed by time.Month; index 0 is unused.
var monthNames = [13]string{
	"", "Januar", "Februar", "März", "April", "Mai", "Juni",
	"Juli", "August", "September", "Oktober", "November", "Dezember",
}

// DateToHeadline renders a date the way the archive headline shows it, e.g.
// "1. März 2022".
func DateToHeadline(date time.Time) string {
	return fmt.Sprintf("%d. %s %d", date.Day(), monthNames[date.Month()], date.Year())
}

// HeadlineToDate parses an archive headline such as "1. März 2022". The
// returned date is at midnight UTC.
func HeadlineToDate(headline string) (time.Time, error) {
	parts := strings.Fields(headline)
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidHeadline, headline)
	}

	day, err := strconv.Atoi(strings.TrimSuffix(parts[0], "."))
	if err != nil || !strings.HasSuffix(parts[0], ".") {
		return time.Time{}, fmt.Errorf("%w: bad day in %q", ErrInvalidHeadline, headline)
	}

	month := slices.Index(monthNames[:], parts[1])
	if month < 1 {
		return time.Time{}, fmt.Errorf("%w: unknown month %q", ErrInvalidHeadline, parts[1])
	}

	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad year in %q", ErrInvalidHeadline, headline)
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow; "31. Februar" must not become March
	if date.Day() != day || date.Month() != time.Month(month) {
		return time.Time{}, fmt.Errorf("%w: no such day %q", ErrInvalidHeadline, headline)
	}

	return date, nil
}

// DatesInInterval returns every day from start to end inclusive. It returns
// nil if end is before start.
func DatesInInterval(start, end time.Time) []time.Time {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)

	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// Info is the page-level metadata of one archive page.
type Info struct {
	Headline    string `json:"headline"`
	TeaserCount string `json:"num_teaser"`
}

// Date parses the day encoded in the headline.
func (i Info) Date() (time.Time, error) {
	return HeadlineToDate(i.Headline)
}

// Count parses the teaser count.
func (i Info) Count() (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(i.TeaserCount))
	if err != nil {
		return 0, fmt.Errorf("invalid teaser count %q: %w", i.TeaserCount, err)
	}
	return n, nil
}

// ParseInfo extracts the headline and teaser count from an archive page.
func ParseInfo(doc dom.Element, selectors scraper.Selectors) (Info, error) {
	headline, err := requireText(doc, selectors.ArchiveHeadline)
	if err != nil {
		return Info{}, err
	}

	count, err := requireText(doc, selectors.TeaserCount)
	if err != nil {
		return Info{}, err
	}

	return Info{Headline: headline, TeaserCount: count}, nil
}

func requireText(doc dom.Element, classSelector string) (string, error) {
	el, ok := doc.FindOne(classSelector)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrElementNotFound, classSelector)
	}
	return dom.CleanText(el), nil
}
