package article

import (
	"slices"
	"strings"

	"github.com/pevans/newsarchive/dom"
)

// DefaultRemoveTags are the non-content regions dropped before conversion.
var DefaultRemoveTags = []string{"header", "footer", "nav", "aside"}

// ParagraphClass marks body paragraphs of an article.
const ParagraphClass = "textabsatz"

// rawTextTags hold script or template text that never belongs to the
// document.
var rawTextTags = []string{"script", "style", "noscript", "template"}

// Converter renders article pages as a lightweight markdown document.
type Converter struct {
	// RemoveTags lists tag names whose subtrees are dropped before the walk
	RemoveTags []string
}

// NewConverter returns a converter removing DefaultRemoveTags.
func NewConverter() *Converter {
	return &Converter{RemoveTags: slices.Clone(DefaultRemoveTags)}
}

// Convert walks the document in order and concatenates the markdown of
// every node. The input is not modified.
func (c *Converter) Convert(doc dom.Element) string {
	root := doc.Prune(c.RemoveTags...)
	if bodies := root.FindTag("body"); len(bodies) > 0 {
		root = bodies[0]
	}

	var b strings.Builder
	root.Walk(func(n dom.Node) bool {
		if n.IsText() {
			b.WriteString(n.Text)
			return true
		}

		markdown, matched := convertElement(n.Element)
		if matched {
			b.WriteString(markdown)
			return false
		}
		return !slices.Contains(rawTextTags, n.Element.TagName())
	})

	return b.String()
}

// convertElement applies the element rules. It reports false for elements
// without a rule, whose children are visited instead.
func convertElement(el dom.Element) (string, bool) {
	switch {
	case el.HasClass(ParagraphClass):
		return convertParagraph(el), true
	case el.TagName() == "h1":
		return convertTitle(el), true
	case el.TagName() == "h2":
		return "\n\n## " + flatten(el.Text()) + "\n\n", true
	}
	return "", false
}

func convertParagraph(el dom.Element) string {
	for _, tag := range []string{"strong", "b"} {
		if bold := el.FindTag(tag); len(bold) > 0 {
			return " **" + bold[0].Text() + "** "
		}
	}
	return strings.TrimSpace(el.Text())
}

// convertTitle renders "# topline - headline" when the heading is split
// into spans and "# heading" otherwise.
func convertTitle(el dom.Element) string {
	spans := el.FindTag("span")
	if len(spans) >= 2 {
		topline := flatten(strings.TrimSpace(spans[0].Text()))
		headline := flatten(strings.TrimSpace(spans[1].Text()))
		return "# " + topline + " - " + headline
	}
	return "# " + flatten(el.Text()) + "\n\n"
}

func flatten(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}

// IsSiteURL reports whether url points at the archive site.
func IsSiteURL(url string) bool {
	return strings.Contains(url, "www.tagesschau.de")
}
