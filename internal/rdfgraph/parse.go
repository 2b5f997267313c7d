package rdfgraph

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"regexp"
	"strings"

	"github.com/knakk/rdf"
)

// ErrUnsupportedFormat is returned for payloads that are not Turtle,
// N-Triples or RDF/XML.
var ErrUnsupportedFormat = errors.New("unsupported RDF format")

// formatNames labels formats in error messages.
var formatNames = map[rdf.Format]string{
	rdf.Turtle:   "turtle",
	rdf.NTriples: "n-triples",
	rdf.RDFXML:   "rdf/xml",
}

// DetectFormat picks a serialization from the Content-Type header, falling
// back to sniffing the body.
func DetectFormat(contentType string, body []byte) (rdf.Format, error) {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mt {
		case "text/turtle", "application/x-turtle", "text/n3", "text/rdf+n3":
			return rdf.Turtle, nil
		case "application/n-triples":
			return rdf.NTriples, nil
		case "application/rdf+xml", "application/xml", "text/xml":
			return rdf.RDFXML, nil
		case "application/ld+json", "application/json":
			return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mt)
		}
	}

	head := strings.ToLower(string(bytes.TrimSpace(body[:min(len(body), 512)])))
	switch {
	case strings.HasPrefix(head, "<?xml"), strings.HasPrefix(head, "<rdf:rdf"):
		return rdf.RDFXML, nil
	case strings.HasPrefix(head, "<!doctype html"), strings.HasPrefix(head, "<html"):
		return 0, fmt.Errorf("%w: html document", ErrUnsupportedFormat)
	case strings.HasPrefix(head, "{"), strings.HasPrefix(head, "["):
		return 0, fmt.Errorf("%w: json", ErrUnsupportedFormat)
	}
	return rdf.Turtle, nil
}

// Parse reads an RDF document into a graph with StandardNamespaces bound,
// followed by the prefixes the document itself declares. The format is
// detected from contentType and the content itself.
func Parse(r io.Reader, contentType string) (*Graph, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read rdf: %w", err)
	}

	format, err := DetectFormat(contentType, body)
	if err != nil {
		return nil, err
	}

	g := NewGraph()
	dec := rdf.NewTripleDecoder(bytes.NewReader(body), format)
	for {
		t, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", formatNames[format], err)
		}
		g.Add(t)
	}
	for _, b := range DeclaredPrefixes(body, format) {
		g.Bind(b.Prefix, b.Namespace)
	}
	return g, nil
}

var (
	turtlePrefixRE = regexp.MustCompile(`(?im)^[ \t]*(?:@prefix|prefix)[ \t]+([A-Za-z](?:[\w.-]*[\w-])?):[ \t]*<([^>\s]*)>`)
	xmlnsRE        = regexp.MustCompile(`\sxmlns:([A-Za-z_][\w.-]*)\s*=\s*(?:"([^"]*)"|'([^']*)')`)
)

// DeclaredPrefixes returns the named prefix declarations of a Turtle or
// RDF/XML document in document order. Empty prefixes and relative namespace
// IRIs are skipped. The decoder resolves prefixed names but does not report
// the declarations, so they are read from the text.
func DeclaredPrefixes(body []byte, format rdf.Format) []Binding {
	var out []Binding
	add := func(prefix, ns string) {
		if u, err := url.Parse(ns); err != nil || !u.IsAbs() {
			return
		}
		out = append(out, Binding{Prefix: prefix, Namespace: ns})
	}
	switch format {
	case rdf.Turtle:
		for _, m := range turtlePrefixRE.FindAllSubmatch(body, -1) {
			add(string(m[1]), string(m[2]))
		}
	case rdf.RDFXML:
		for _, m := range xmlnsRE.FindAllSubmatch(body, -1) {
			ns := string(m[2])
			if ns == "" {
				ns = string(m[3])
			}
			add(string(m[1]), ns)
		}
	}
	return out
}
