package dom

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Element is the read-only view of a parsed HTML node that the extractors
// work against. All selector logic in this module goes through it.
type Element interface {
	// TagName returns the lower-case tag name, or "" for the document root.
	TagName() string
	// Classes returns the entries of the class attribute in order.
	Classes() []string
	HasClass(class string) bool
	// Text returns the raw concatenated text of all descendant text nodes.
	Text() string
	Attr(name string) (string, bool)
	Children() []Element
	// FindOne returns the first descendant matching the class selector.
	FindOne(classSelector string) (Element, bool)
	// FindAll returns every descendant matching the class selector in
	// document order.
	FindAll(classSelector string) []Element
	// FindTag returns every descendant element with the given tag name.
	FindTag(tag string) []Element
	// Walk visits the descendants of the element in document order.
	Walk(fn Visitor)
	// Prune returns a deep copy with every subtree rooted at one of the
	// given tag names removed. The receiver is left untouched.
	Prune(tags ...string) Element
}

// Node is a single stop of a Walk: either a text node (Element is nil) or an
// element.
type Node struct {
	Text    string
	Element Element
}

// IsText reports whether the node is a text node.
func (n Node) IsText() bool {
	return n.Element == nil
}

// Visitor is called for every node visited by Walk. Returning false for an
// element skips its descendants.
type Visitor func(n Node) bool

// selection implements Element on top of a single-node goquery selection.
type selection struct {
	s *goquery.Selection
}

// Parse reads an HTML document and returns its root element.
func Parse(r io.Reader) (Element, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &selection{s: doc.Selection}, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(markup string) (Element, error) {
	return Parse(strings.NewReader(markup))
}

// FromSelection wraps the first node of a goquery selection.
func FromSelection(s *goquery.Selection) Element {
	return &selection{s: s.First()}
}

func (e *selection) node() *html.Node {
	if len(e.s.Nodes) == 0 {
		return nil
	}
	return e.s.Nodes[0]
}

func (e *selection) TagName() string {
	n := e.node()
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	return n.Data
}

func (e *selection) Classes() []string {
	class, ok := e.s.Attr("class")
	if !ok {
		return nil
	}
	return strings.Fields(class)
}

func (e *selection) HasClass(class string) bool {
	return slices.Contains(e.Classes(), class)
}

func (e *selection) Text() string {
	return e.s.Text()
}

func (e *selection) Attr(name string) (string, bool) {
	return e.s.Attr(name)
}

func (e *selection) Children() []Element {
	return wrapAll(e.s.Children())
}

func (e *selection) FindOne(classSelector string) (Element, bool) {
	css, ok := classCSS(classSelector)
	if !ok {
		return nil, false
	}
	found := e.s.Find(css).First()
	if found.Length() == 0 {
		return nil, false
	}
	return &selection{s: found}, true
}

func (e *selection) FindAll(classSelector string) []Element {
	css, ok := classCSS(classSelector)
	if !ok {
		return nil
	}
	return wrapAll(e.s.Find(css))
}

func (e *selection) FindTag(tag string) []Element {
	return wrapAll(e.s.Find(tag))
}

func (e *selection) Walk(fn Visitor) {
	n := e.node()
	if n == nil {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func (e *selection) Prune(tags ...string) Element {
	clone := e.s.Clone()
	if len(tags) > 0 {
		clone.Find(strings.Join(tags, ", ")).Remove()
	}
	return &selection{s: clone}
}

func walk(n *html.Node, fn Visitor) {
	switch n.Type {
	case html.TextNode:
		fn(Node{Text: n.Data})
	case html.ElementNode:
		el := &selection{s: goquery.NewDocumentFromNode(n).Selection}
		if !fn(Node{Element: el}) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, fn)
		}
	}
}

func wrapAll(s *goquery.Selection) []Element {
	elements := make([]Element, 0, s.Length())
	s.Each(func(_ int, item *goquery.Selection) {
		elements = append(elements, &selection{s: item})
	})
	return elements
}

// classCSS turns "teaser-right twelve" into ".teaser-right.twelve".
func classCSS(classSelector string) (string, bool) {
	classes := strings.Fields(classSelector)
	if len(classes) == 0 {
		return "", false
	}
	return "." + strings.Join(classes, "."), true
}

// CleanText returns the text of every descendant text node, each trimmed,
// joined with single spaces and with internal whitespace collapsed.
func CleanText(e Element) string {
	var parts []string
	e.Walk(func(n Node) bool {
		if n.IsText() {
			if text := strings.TrimSpace(n.Text); text != "" {
				parts = append(parts, text)
			}
		}
		return true
	})
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
