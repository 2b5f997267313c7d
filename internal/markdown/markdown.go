// Package markdown turns HTML fragments into normalized markdown.
package markdown

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
)

// Renderer converts an HTML fragment to markdown.
type Renderer interface {
	Render(html string) (string, error)
}

// Converter is the html-to-markdown backed Renderer.
type Converter struct {
	converter *md.Converter
}

// NewConverter creates a Converter with GitHub-flavored output (tables,
// strikethrough, task lists).
func NewConverter() *Converter {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &Converter{converter: converter}
}

// Render converts html to markdown. The input is not sanitized; callers use
// Sanitize first.
func (c *Converter) Render(html string) (string, error) {
	return c.converter.ConvertString(html)
}

// nbspReplacer maps non-breaking space variants, literal and as entities, to a
// plain space. The converter chokes on some of these byte sequences.
var nbspReplacer = strings.NewReplacer(
	"\u00a0", " ",
	"\u2007", " ",
	"\u202f", " ",
	"\u2060", "",
	"&nbsp;", " ",
	"&#160;", " ",
	"&#xa0;", " ",
	"&#xA0;", " ",
)

// Sanitize replaces characters known to trip up the converter.
func Sanitize(html string) string {
	return nbspReplacer.Replace(html)
}

var (
	trailingSpaceRe = regexp.MustCompile(`(?m)[ \t]+$`)
	blankRunRe      = regexp.MustCompile(`\n{3,}`)
)

// Normalize trims md and collapses every run of blank lines to a single blank line.
func Normalize(md string) string {
	md = strings.ReplaceAll(md, "\r\n", "\n")
	md = trailingSpaceRe.ReplaceAllString(md, "")
	md = blankRunRe.ReplaceAllString(md, "\n\n")
	return strings.TrimSpace(md)
}

// Convert runs the full pipeline: Sanitize, Render, Normalize.
func Convert(r Renderer, html string) (string, error) {
	out, err := r.Render(Sanitize(html))
	if err != nil {
		return "", err
	}
	return Normalize(out), nil
}
