package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestTeaserField verifies field selector construction
func TestTeaserField(t *testing.T) {
	selectors := DefaultSelectors()

	assert.Equal(t, "teaser-right__date", selectors.TeaserField("date"))
	assert.Equal(t, "teaser-right__link", selectors.TeaserField("link"))
}

// TestMerge_FillsEmpty verifies empty selectors fall back to defaults
func TestMerge_FillsEmpty(t *testing.T) {
	custom := Selectors{Teaser: "teaser-xs"}

	merged := custom.Merge(DefaultSelectors())

	assert.Equal(t, "teaser-xs", merged.Teaser, "should keep custom value")
	assert.Equal(t, "archive__headline", merged.ArchiveHeadline)
	assert.Equal(t, "tag-btn tag-btn--light-grey", merged.TagButton)
}
