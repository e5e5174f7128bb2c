package article

import (
	"sort"
	"strings"

	"github.com/pevans/newsarchive/dom"
	"github.com/pevans/newsarchive/scraper"
	"github.com/samber/lo"
)

// Tags is the sorted, duplicate-free list of topic tags of an article.
type Tags []string

// NewTags normalizes arbitrary tag strings: blanks are dropped, duplicates
// removed and the rest sorted.
func NewTags(raw ...string) Tags {
	trimmed := lo.Map(raw, func(tag string, _ int) string {
		return strings.TrimSpace(tag)
	})
	tags := lo.Uniq(lo.Filter(trimmed, func(tag string, _ int) bool {
		return tag != ""
	}))
	sort.Strings(tags)
	return tags
}

// String joins the tags with commas, the stored form.
func (t Tags) String() string {
	return strings.Join(t, ",")
}

// ExtractTags collects the topic tags of an article page. A page without a
// tag list yields an empty Tags.
func ExtractTags(doc dom.Element, selectors scraper.Selectors) Tags {
	list, ok := doc.FindOne(selectors.TagList)
	if !ok {
		return Tags{}
	}

	buttons := list.FindAll(selectors.TagButton)
	return NewTags(lo.Map(buttons, func(button dom.Element, _ int) string {
		return dom.CleanText(button)
	})...)
}
