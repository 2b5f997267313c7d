// Package section extracts the content of one section of a specification
// document as markdown.
package section

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hpungsan/ldspec/internal/htmldoc"
	"github.com/hpungsan/ldspec/internal/markdown"
)

// ErrNotFound is returned when no element resolves for the section id.
var ErrNotFound = errors.New("section not found")

// resolve finds the node of interest for id: an element carrying the id, or
// failing that the parent of an <a name=id> anchor.
func resolve(doc *htmldoc.Document, id string) (*goquery.Selection, bool) {
	if sel := doc.ElementByID(id); sel.Length() > 0 {
		return sel, true
	}
	if anchor := doc.AnchorByName(id); anchor.Length() > 0 {
		if parent := anchor.Parent(); parent.Length() > 0 {
			return parent, true
		}
	}
	return nil, false
}

// CollectHTML returns the HTML fragment belonging to section id.
func CollectHTML(doc *htmldoc.Document, id string) (string, error) {
	node, ok := resolve(doc, id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	switch {
	case htmldoc.IsContainer(node):
		return htmldoc.OuterHTML(node)
	case htmldoc.HeadingLevel(node) > 0:
		return collectHeading(node)
	case htmldoc.IsAnchor(node):
		if next := doc.NextHeading(node); next.Length() > 0 {
			return collectHeading(next)
		}
	}
	return htmldoc.OuterHTML(node)
}

// collectHeading returns the heading plus its following element siblings, up
// to but excluding the first sibling heading of the same or a higher level.
func collectHeading(heading *goquery.Selection) (string, error) {
	level := htmldoc.HeadingLevel(heading)

	var sb strings.Builder
	first, err := htmldoc.OuterHTML(heading)
	if err != nil {
		return "", err
	}
	sb.WriteString(first)

	var walkErr error
	heading.NextAll().EachWithBreak(func(_ int, sib *goquery.Selection) bool {
		if l := htmldoc.HeadingLevel(sib); l > 0 && l <= level {
			return false
		}
		part, err := htmldoc.OuterHTML(sib)
		if err != nil {
			walkErr = err
			return false
		}
		sb.WriteString(part)
		return true
	})
	if walkErr != nil {
		return "", walkErr
	}
	return sb.String(), nil
}

// Extract returns the markdown content of section id, rendered with r.
// It returns an error wrapping ErrNotFound when the id does not resolve.
func Extract(doc *htmldoc.Document, id string, r markdown.Renderer) (string, error) {
	fragment, err := CollectHTML(doc, id)
	if err != nil {
		return "", err
	}
	out, err := markdown.Convert(r, fragment)
	if err != nil {
		return "", fmt.Errorf("render section %s: %w", id, err)
	}
	return out, nil
}
