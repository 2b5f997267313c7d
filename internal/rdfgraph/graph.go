// Package rdfgraph is an indexed in-memory RDF graph with namespace prefix
// bindings, built on knakk/rdf terms.
package rdfgraph

import (
	"sort"
	"strings"

	"github.com/knakk/rdf"
)

// Well-known vocabulary IRIs.
const (
	RDFNamespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFType      = RDFNamespace + "type"
)

// Binding maps a prefix to a namespace IRI.
type Binding struct {
	Prefix    string
	Namespace string
}

// StandardNamespaces are bound on every graph created with NewGraph.
var StandardNamespaces = []Binding{
	{"rdf", RDFNamespace},
	{"rdfs", "http://www.w3.org/2000/01/rdf-schema#"},
	{"owl", "http://www.w3.org/2002/07/owl#"},
	{"sh", "http://www.w3.org/ns/shacl#"},
	{"skos", "http://www.w3.org/2004/02/skos/core#"},
	{"prov", "http://www.w3.org/ns/prov#"},
	{"xsd", "http://www.w3.org/2001/XMLSchema#"},
}

// Graph is a set of triples kept in insertion order, indexed by subject,
// predicate and object. It is safe for concurrent readers once populated.
type Graph struct {
	triples     []rdf.Triple
	seen        map[string]struct{}
	bySubject   map[string][]int
	byPredicate map[string][]int
	byObject    map[string][]int
	subjects    []rdf.Subject
	bindings    []Binding
}

// New returns an empty graph with no prefix bindings.
func New() *Graph {
	return &Graph{
		seen:        make(map[string]struct{}),
		bySubject:   make(map[string][]int),
		byPredicate: make(map[string][]int),
		byObject:    make(map[string][]int),
	}
}

// NewGraph returns an empty graph with StandardNamespaces bound.
func NewGraph() *Graph {
	g := New()
	for _, b := range StandardNamespaces {
		g.Bind(b.Prefix, b.Namespace)
	}
	return g
}

// termKey identifies a term independently of its serialization details.
func termKey(t rdf.Term) string {
	switch t.Type() {
	case rdf.TermIRI:
		return "I:" + t.String()
	case rdf.TermBlank:
		return "B:" + t.String()
	default:
		return "L:" + t.Serialize(rdf.NTriples)
	}
}

func iriKey(iri string) string { return "I:" + iri }

func tripleKey(t rdf.Triple) string {
	return termKey(t.Subj) + "\x00" + termKey(t.Pred) + "\x00" + termKey(t.Obj)
}

// Add inserts t. Duplicate triples are ignored.
func (g *Graph) Add(t rdf.Triple) {
	key := tripleKey(t)
	if _, dup := g.seen[key]; dup {
		return
	}
	g.seen[key] = struct{}{}

	idx := len(g.triples)
	g.triples = append(g.triples, t)

	sk := termKey(t.Subj)
	if _, known := g.bySubject[sk]; !known {
		g.subjects = append(g.subjects, t.Subj)
	}
	g.bySubject[sk] = append(g.bySubject[sk], idx)
	pk := termKey(t.Pred)
	g.byPredicate[pk] = append(g.byPredicate[pk], idx)
	ok := termKey(t.Obj)
	g.byObject[ok] = append(g.byObject[ok], idx)
}

// Len returns the number of triples.
func (g *Graph) Len() int {
	return len(g.triples)
}

// Triples returns a copy of all triples in insertion order.
func (g *Graph) Triples() []rdf.Triple {
	return append([]rdf.Triple(nil), g.triples...)
}

// Subjects returns the distinct subjects in first-seen order.
func (g *Graph) Subjects() []rdf.Subject {
	return append([]rdf.Subject(nil), g.subjects...)
}

func (g *Graph) collect(idx []int) []rdf.Triple {
	out := make([]rdf.Triple, len(idx))
	for i, n := range idx {
		out[i] = g.triples[n]
	}
	return out
}

// BySubject returns the triples whose subject is the IRI iri.
func (g *Graph) BySubject(iri string) []rdf.Triple {
	return g.collect(g.bySubject[iriKey(iri)])
}

// ByPredicate returns the triples whose predicate is the IRI iri.
func (g *Graph) ByPredicate(iri string) []rdf.Triple {
	return g.collect(g.byPredicate[iriKey(iri)])
}

// ByObject returns the triples whose object is the IRI iri.
func (g *Graph) ByObject(iri string) []rdf.Triple {
	return g.collect(g.byObject[iriKey(iri)])
}

// Has reports whether g contains t.
func (g *Graph) Has(t rdf.Triple) bool {
	_, ok := g.seen[tripleKey(t)]
	return ok
}

// Objects returns the objects of (subject, predicate, *) in insertion order.
func (g *Graph) Objects(subject rdf.Term, predicate string) []rdf.Object {
	var out []rdf.Object
	for _, n := range g.bySubject[termKey(subject)] {
		t := g.triples[n]
		if t.Pred.Type() == rdf.TermIRI && t.Pred.String() == predicate {
			out = append(out, t.Obj)
		}
	}
	return out
}

// Bind associates prefix with namespace, replacing an earlier binding of prefix.
func (g *Graph) Bind(prefix, namespace string) {
	for i, b := range g.bindings {
		if b.Prefix == prefix {
			g.bindings[i].Namespace = namespace
			return
		}
	}
	g.bindings = append(g.bindings, Binding{Prefix: prefix, Namespace: namespace})
}

// Bindings returns the prefix bindings in bind order.
func (g *Graph) Bindings() []Binding {
	return append([]Binding(nil), g.bindings...)
}

// QName renders iri as prefix:local using the longest bound namespace that
// leaves a usable local part. Unmatched IRIs are returned unchanged.
func (g *Graph) QName(iri string) string {
	best := -1
	for i, b := range g.bindings {
		local, ok := strings.CutPrefix(iri, b.Namespace)
		if !ok || !validLocal(local) {
			continue
		}
		if best < 0 || len(b.Namespace) > len(g.bindings[best].Namespace) {
			best = i
		}
	}
	if best < 0 {
		return iri
	}
	b := g.bindings[best]
	return b.Prefix + ":" + strings.TrimPrefix(iri, b.Namespace)
}

func validLocal(local string) bool {
	return local != "" && !strings.ContainsAny(local, "/#?: \t\n")
}

// TermQName renders t with QName for IRIs and its plain string otherwise.
func (g *Graph) TermQName(t rdf.Term) string {
	if t.Type() == rdf.TermIRI {
		return g.QName(t.String())
	}
	return t.String()
}

// Subgraph returns an empty graph carrying the same prefix bindings.
func (g *Graph) Subgraph() *Graph {
	sub := New()
	sub.bindings = g.Bindings()
	return sub
}

// sortKey orders predicates with rdf:type first.
func predicateSortKey(p rdf.Term) string {
	if p.Type() == rdf.TermIRI && p.String() == RDFType {
		return ""
	}
	return termKey(p)
}

// canonical returns the triples sorted by subject, predicate (rdf:type first) and object.
func (g *Graph) canonical() []rdf.Triple {
	ts := g.Triples()
	sort.SliceStable(ts, func(i, j int) bool {
		si, sj := termKey(ts[i].Subj), termKey(ts[j].Subj)
		if si != sj {
			return si < sj
		}
		pi, pj := predicateSortKey(ts[i].Pred), predicateSortKey(ts[j].Pred)
		if pi != pj {
			return pi < pj
		}
		return termKey(ts[i].Obj) < termKey(ts[j].Obj)
	})
	return ts
}
