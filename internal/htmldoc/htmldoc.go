// Package htmldoc wraps a parsed HTML tree with the node queries used by the
// TOC and section extractors.
package htmldoc

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is a parsed HTML document. It is not modified after Parse and may
// be shared between goroutines.
type Document struct {
	doc *goquery.Document
}

// Parse parses an HTML document from r.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{doc: doc}, nil
}

// ParseString parses an HTML document held in memory.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Find returns the elements matching a CSS selector, in document order.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Title returns the trimmed text of the <title> element.
func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// ElementByID returns the first element whose id attribute equals id exactly.
// The selection is empty when there is no such element.
func (d *Document) ElementByID(id string) *goquery.Selection {
	return d.doc.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("id")
		return v == id
	}).First()
}

// AnchorByName returns the first <a> element whose name attribute equals name.
func (d *Document) AnchorByName(name string) *goquery.Selection {
	return d.doc.Find("a[name]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("name")
		return v == name
	}).First()
}

// NextHeading returns the first h1-h6 element after sel in document order.
// Descendants of sel come after its start tag and are therefore eligible.
func (d *Document) NextHeading(sel *goquery.Selection) *goquery.Selection {
	start := sel.Get(0)
	if start == nil {
		return sel.Slice(0, 0)
	}
	for n := nextInOrder(start); n != nil; n = nextInOrder(n) {
		if n.Type == html.ElementNode && levelOf(n.Data) > 0 {
			return d.doc.FindNodes(n)
		}
	}
	return sel.Slice(0, 0)
}

// nextInOrder returns the node following n in a pre-order walk.
func nextInOrder(n *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for ; n != nil; n = n.Parent {
		if n.NextSibling != nil {
			return n.NextSibling
		}
	}
	return nil
}

// TagName returns the lower-cased element name of the first node in sel.
func TagName(sel *goquery.Selection) string {
	return goquery.NodeName(sel)
}

// HeadingLevel returns 1-6 for h1-h6 and 0 for anything else.
func HeadingLevel(sel *goquery.Selection) int {
	return levelOf(TagName(sel))
}

func levelOf(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

// IsContainer reports whether sel is a structural section/div container.
func IsContainer(sel *goquery.Selection) bool {
	switch TagName(sel) {
	case "section", "div":
		return true
	}
	return false
}

// IsAnchor reports whether sel is an <a> element.
func IsAnchor(sel *goquery.Selection) bool {
	return TagName(sel) == "a"
}

// OuterHTML renders the first node of sel including its own tag.
func OuterHTML(sel *goquery.Selection) (string, error) {
	return goquery.OuterHtml(sel)
}

// Text returns the text of sel with whitespace runs collapsed and trimmed.
func Text(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}
