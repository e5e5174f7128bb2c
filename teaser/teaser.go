package teaser

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pevans/newsarchive/dom"
	"github.com/pevans/newsarchive/scraper"
	"github.com/tomakado/containers/set"
)

// Custom errors for teaser processing
var (
	ErrMalformedLink = errors.New("teaser link has no href")
	ErrInvalidDate   = errors.New("invalid teaser date")
	ErrMissingFields = errors.New("teaser is missing required fields")
)

// Field names as they appear in the teaser selectors and in Fields.
const (
	FieldDate      = "date"
	FieldTopline   = "topline"
	FieldHeadline  = "headline"
	FieldShorttext = "shorttext"
	FieldLink      = "link"
	FieldTags      = "tags"
	FieldID        = "id"
)

// RequiredFields must all be present for a record to be stored.
var RequiredFields = []string{FieldDate, FieldHeadline, FieldShorttext, FieldLink}

// TimestampLayout is the canonical stored form of a teaser date.
const TimestampLayout = "2006-01-02 15:04:05"

// Record is one news teaser from an archive page. Records are values: every
// processing stage returns a new Record instead of changing its input.
type Record struct {
	ID string
	// RawDate is the date text as shown on the page
	RawDate string
	// Date is set by Normalize; zero until then
	Date      time.Time
	Topline   *string
	Headline  string
	Shorttext string
	Link      string
	// Tags is nil when enrichment did not produce a tag list and "" when
	// the article has no tags
	Tags *string
}

// Extract reads the raw fields of a single teaser block.
func Extract(el dom.Element, selectors scraper.Selectors, site scraper.Site) (Record, error) {
	text := func(field string) string {
		found, ok := el.FindOne(selectors.TeaserField(field))
		if !ok {
			return ""
		}
		return dom.CleanText(found)
	}

	record := Record{
		RawDate:   text(FieldDate),
		Headline:  text(FieldHeadline),
		Shorttext: text(FieldShorttext),
	}
	if topline := text(FieldTopline); topline != "" {
		record.Topline = &topline
	}

	if linkEl, ok := el.FindOne(selectors.TeaserField(FieldLink)); ok {
		href, ok := linkEl.Attr("href")
		if !ok {
			return Record{}, ErrMalformedLink
		}
		record.Link = AbsoluteLink(strings.TrimSpace(href), site)
	}

	return record, nil
}

// AbsoluteLink keeps hrefs that already carry the site's domain marker and
// prefixes everything else with the site origin. The href bytes are kept
// verbatim since the record id is derived from the link.
func AbsoluteLink(href string, site scraper.Site) string {
	if site.DomainMarker != "" && strings.Contains(href, site.DomainMarker) {
		return href
	}

	origin := strings.TrimSuffix(site.Origin, "/")
	if href == "" || strings.HasPrefix(href, "/") {
		return origin + href
	}
	return origin + "/" + href
}

// WithTags returns a copy of r carrying the given joined tag list.
func (r Record) WithTags(tags string) Record {
	r.Tags = &tags
	return r
}

// Normalize returns a copy of r with its ID derived from the link and its
// date parsed. A record without date text keeps a zero Date, which
// Validate reports.
func (r Record) Normalize() (Record, error) {
	if r.Link != "" {
		r.ID = HashID(r.Link)
	}

	if r.RawDate != "" {
		date, err := ParseDateTime(r.RawDate)
		if err != nil {
			return Record{}, err
		}
		r.Date = date
	}

	return r, nil
}

// Fields returns the names of the fields that carry a value.
func (r Record) Fields() []string {
	var fields []string
	if r.ID != "" {
		fields = append(fields, FieldID)
	}
	if !r.Date.IsZero() {
		fields = append(fields, FieldDate)
	}
	if r.Topline != nil {
		fields = append(fields, FieldTopline)
	}
	if r.Headline != "" {
		fields = append(fields, FieldHeadline)
	}
	if r.Shorttext != "" {
		fields = append(fields, FieldShorttext)
	}
	if r.Link != "" {
		fields = append(fields, FieldLink)
	}
	if r.Tags != nil {
		fields = append(fields, FieldTags)
	}
	return fields
}

// Validate checks that every required field is present.
func (r Record) Validate() error {
	present := set.New(r.Fields()...)

	var missing []string
	for _, field := range RequiredFields {
		if !present.Contains(field) {
			missing = append(missing, field)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}
	return nil
}

// Timestamp renders Date in the canonical stored form.
func (r Record) Timestamp() string {
	return FormatTimestamp(r.Date)
}

// HashID returns the stable identifier of a link: the hex SHA-1 digest.
func HashID(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ParseDateTime parses teaser dates such as "30.01.2021 - 18:04 Uhr". The
// wall clock time is kept as is, in UTC.
func ParseDateTime(s string) (time.Time, error) {
	datePart, timePart, ok := strings.Cut(s, "-")
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}

	clock := strings.Fields(timePart)
	if len(clock) == 0 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}

	t, err := time.Parse("2.1.2006 15:04", strings.TrimSpace(datePart)+" "+clock[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %w", ErrInvalidDate, s, err)
	}

	return t, nil
}

// FormatTimestamp renders t as "2006-01-02 15:04:05".
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
