package rdfgraph

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/knakk/rdf"
)

// SerializeTurtle renders the graph as Turtle. See WriteTurtle.
func (g *Graph) SerializeTurtle() (string, error) {
	var buf bytes.Buffer
	if err := g.WriteTurtle(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteTurtle writes the graph as Turtle in canonical order: subjects sorted,
// rdf:type first within a subject (written as "a"), then the remaining
// predicates and objects sorted. IRIs under a bound namespace are written as
// prefixed names when the local part is a valid Turtle name, and a prefix is
// declared only when some term uses it.
func (g *Graph) WriteTurtle(w io.Writer) error {
	tw := &turtleWriter{bindings: g.bindings, used: make(map[string]bool)}

	var body strings.Builder
	var subj, pred string
	for _, t := range g.canonical() {
		s, p, o := tw.term(t.Subj), tw.predicate(t.Pred), tw.term(t.Obj)
		switch {
		case s != subj:
			if subj != "" {
				body.WriteString(" .\n\n")
			}
			body.WriteString(s + " " + p + " " + o)
		case p != pred:
			body.WriteString(" ;\n    " + p + " " + o)
		default:
			body.WriteString(", " + o)
		}
		subj, pred = s, p
	}
	if subj != "" {
		body.WriteString(" .\n")
	}

	bw := bufio.NewWriter(w)
	declared := false
	for _, b := range g.bindings {
		if tw.used[b.Prefix] {
			fmt.Fprintf(bw, "@prefix %s: <%s> .\n", b.Prefix, b.Namespace)
			declared = true
		}
	}
	if declared && subj != "" {
		bw.WriteString("\n")
	}
	bw.WriteString(body.String())
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write turtle: %w", err)
	}
	return nil
}

type turtleWriter struct {
	bindings []Binding
	used     map[string]bool
}

func (w *turtleWriter) predicate(t rdf.Term) string {
	if t.Type() == rdf.TermIRI && t.String() == RDFType {
		return "a"
	}
	return w.term(t)
}

func (w *turtleWriter) term(t rdf.Term) string {
	switch t.Type() {
	case rdf.TermIRI:
		return w.iri(t.String())
	case rdf.TermLiteral:
		return w.literal(t.(rdf.Literal))
	default:
		return t.Serialize(rdf.Turtle)
	}
}

// iri abbreviates with the longest matching binding, or writes <iri>.
func (w *turtleWriter) iri(iri string) string {
	best := -1
	for i, b := range w.bindings {
		local, ok := strings.CutPrefix(iri, b.Namespace)
		if !ok || !turtleLocal(local) {
			continue
		}
		if best < 0 || len(b.Namespace) > len(w.bindings[best].Namespace) {
			best = i
		}
	}
	if best < 0 {
		return "<" + iri + ">"
	}
	b := w.bindings[best]
	w.used[b.Prefix] = true
	return b.Prefix + ":" + strings.TrimPrefix(iri, b.Namespace)
}

// literal uses the knakk Turtle form, abbreviating the datatype IRI.
func (w *turtleWriter) literal(l rdf.Literal) string {
	s := l.Serialize(rdf.Turtle)
	dt := "^^" + l.DataType.Serialize(rdf.Turtle)
	if base, ok := strings.CutSuffix(s, dt); ok {
		return base + "^^" + w.iri(l.DataType.String())
	}
	return s
}

// turtleLocal reports whether local can follow "prefix:" without escaping.
func turtleLocal(local string) bool {
	if local == "" || strings.HasSuffix(local, ".") {
		return false
	}
	for i, r := range local {
		switch {
		case unicode.IsLetter(r), r == '_':
		case i > 0 && (unicode.IsDigit(r) || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}
