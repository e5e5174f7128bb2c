package scraper

// Selectors lists the class selectors used to locate content on the archive
// site. A class selector is a space-separated list of classes that must all
// be present on the element.
type Selectors struct {
	ArchiveHeadline string `yaml:"archive_headline" json:"archive_headline"`
	TeaserCount     string `yaml:"teaser_count" json:"teaser_count"`
	Teaser          string `yaml:"teaser" json:"teaser"`
	// TeaserFieldPrefix is joined with a field name, e.g. "teaser-right__date"
	TeaserFieldPrefix string `yaml:"teaser_field_prefix" json:"teaser_field_prefix"`
	TagList           string `yaml:"tag_list" json:"tag_list"`
	TagButton         string `yaml:"tag_button" json:"tag_button"`
}

// Site describes where relative links on the archive site point to.
type Site struct {
	// Origin is prefixed to links that are not already absolute
	Origin string `yaml:"origin" json:"origin"`
	// DomainMarker identifies links that already carry a host
	DomainMarker string `yaml:"domain_marker" json:"domain_marker"`
}

// DefaultSelectors returns the selectors of the tagesschau.de archive.
func DefaultSelectors() Selectors {
	return Selectors{
		ArchiveHeadline:   "archive__headline",
		TeaserCount:       "ergebnisse__anzahl",
		Teaser:            "teaser-right twelve",
		TeaserFieldPrefix: "teaser-right__",
		TagList:           "taglist",
		TagButton:         "tag-btn tag-btn--light-grey",
	}
}

// DefaultSite returns the tagesschau.de site description.
func DefaultSite() Site {
	return Site{
		Origin:       "https://www.tagesschau.de",
		DomainMarker: "www.",
	}
}

// TeaserField returns the class selector for a teaser sub-element.
func (s Selectors) TeaserField(field string) string {
	return s.TeaserFieldPrefix + field
}

// Merge returns s with every empty selector replaced by the value from
// defaults.
func (s Selectors) Merge(defaults Selectors) Selectors {
	pick := func(value, fallback string) string {
		if value == "" {
			return fallback
		}
		return value
	}

	return Selectors{
		ArchiveHeadline:   pick(s.ArchiveHeadline, defaults.ArchiveHeadline),
		TeaserCount:       pick(s.TeaserCount, defaults.TeaserCount),
		Teaser:            pick(s.Teaser, defaults.Teaser),
		TeaserFieldPrefix: pick(s.TeaserFieldPrefix, defaults.TeaserFieldPrefix),
		TagList:           pick(s.TagList, defaults.TagList),
		TagButton:         pick(s.TagButton, defaults.TagButton),
	}
}
