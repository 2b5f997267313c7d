// Package toc recovers a nested table of contents from specification HTML.
package toc

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hpungsan/ldspec/internal/htmldoc"
)

// Entry is one section in a table of contents.
// A child's Depth is always its parent's Depth + 1; roots have Depth 1.
type Entry struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Depth    int     `json:"depth"`
	Anchor   *string `json:"anchor,omitempty"`
	Children []Entry `json:"children,omitempty"`
}

// FlatItem is an Entry without its children, as produced by Flatten.
type FlatItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Depth int    `json:"depth"`
}

// containerMatcher locates a TOC container by one structural convention.
type containerMatcher struct {
	name  string
	match func(*htmldoc.Document) *goquery.Selection
}

func bySelector(selector string) containerMatcher {
	return containerMatcher{
		name: selector,
		match: func(d *htmldoc.Document) *goquery.Selection {
			return d.Find(selector).First()
		},
	}
}

// containerMatchers are tried in order; the first non-empty match is used.
var containerMatchers = []containerMatcher{
	bySelector("nav#toc"),
	bySelector("table#toc"),
	bySelector("div#toc"),
	bySelector("div.toc"),
	bySelector("section#toc"),
}

// findContainer returns the first matching TOC container, or false.
func findContainer(doc *htmldoc.Document) (*goquery.Selection, bool) {
	for _, m := range containerMatchers {
		if sel := m.match(doc); sel.Length() > 0 {
			return sel, true
		}
	}
	return nil, false
}

// Extract returns the root entries of the document's table of contents.
// The result is empty (not an error) when no TOC container is recognized.
func Extract(doc *htmldoc.Document) []Entry {
	container, ok := findContainer(doc)
	if !ok {
		return []Entry{}
	}
	list := container.Find("ol, ul").First()
	if list.Length() == 0 {
		return []Entry{}
	}
	return parseList(list, 1)
}

// parseList converts the direct <li> children of list into entries at depth.
func parseList(list *goquery.Selection, depth int) []Entry {
	entries := []Entry{}
	list.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		link := li.ChildrenFiltered("a").First()
		if link.Length() == 0 {
			link = li.Find("a").First()
		}
		if link.Length() == 0 {
			return
		}

		title := htmldoc.Text(link)
		entry := Entry{Title: title, Depth: depth}

		href, _ := link.Attr("href")
		if frag, ok := strings.CutPrefix(href, "#"); ok && frag != "" {
			entry.ID = frag
			entry.Anchor = &frag
		} else {
			entry.ID = Slugify(title)
		}

		if nested := li.ChildrenFiltered("ol, ul").First(); nested.Length() > 0 {
			entry.Children = parseList(nested, depth+1)
		}

		entries = append(entries, entry)
	})
	return entries
}

var nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases title, replaces every run of non-alphanumerics with a
// single hyphen and trims hyphens from both ends.
func Slugify(title string) string {
	return strings.Trim(nonSlugRe.ReplaceAllString(strings.ToLower(title), "-"), "-")
}

// Flatten walks entries depth-first in pre-order. Entries deeper than
// maxDepth are not visited; maxDepth <= 0 means no limit.
func Flatten(entries []Entry, maxDepth int) []FlatItem {
	items := []FlatItem{}
	var walk func([]Entry)
	walk = func(level []Entry) {
		for _, e := range level {
			if maxDepth > 0 && e.Depth > maxDepth {
				continue
			}
			items = append(items, FlatItem{ID: e.ID, Title: e.Title, Depth: e.Depth})
			walk(e.Children)
		}
	}
	walk(entries)
	return items
}

// IDs returns the ids of items, optionally truncated to limit (0 = all).
func IDs(items []FlatItem, limit int) []string {
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

// ToMarkdown renders items as "[title](id)" lines indented by one tab per level.
func ToMarkdown(items []FlatItem) string {
	var sb strings.Builder
	for i, it := range items {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strings.Repeat("\t", max(it.Depth-1, 0)))
		sb.WriteString("[" + it.Title + "](" + it.ID + ")")
	}
	return sb.String()
}
