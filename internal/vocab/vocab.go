// Package vocab enumerates the resources a namespace defines inside an RDF
// graph and serializes individual resource definitions.
package vocab

import (
	"fmt"
	"sort"
	"strings"

	"github.com/knakk/rdf"

	"github.com/hpungsan/ldspec/internal/rdfgraph"
)

// OtherGroup collects resources without an rdf:type.
const OtherGroup = "Other"

// Resource is a subject defined under a namespace.
type Resource struct {
	Name        string  `json:"name"`
	PrimaryType *string `json:"primary_type,omitempty"`
}

// Group is a set of resource names sharing a primary type.
type Group struct {
	Type  string   `json:"type"`
	Names []string `json:"names"`
}

// SchemeVariants returns ns followed by its http/https counterpart. Other
// schemes have no counterpart.
func SchemeVariants(ns string) []string {
	switch {
	case strings.HasPrefix(ns, "https://"):
		return []string{ns, "http://" + strings.TrimPrefix(ns, "https://")}
	case strings.HasPrefix(ns, "http://"):
		return []string{ns, "https://" + strings.TrimPrefix(ns, "http://")}
	default:
		return []string{ns}
	}
}

// localName returns the remainder of iri after the first variant it starts with.
func localName(iri string, variants []string) (string, bool) {
	for _, v := range variants {
		if rest, ok := strings.CutPrefix(iri, v); ok {
			return rest, true
		}
	}
	return "", false
}

// Resources lists every IRI subject of g under ns or its scheme counterpart.
// The namespace IRI itself is excluded. When a subject carries several
// rdf:type values the first one added to the graph is used.
func Resources(g *rdfgraph.Graph, ns string) []Resource {
	variants := SchemeVariants(ns)

	out := []Resource{}
	for _, subj := range g.Subjects() {
		if subj.Type() != rdf.TermIRI {
			continue
		}
		name, ok := localName(subj.String(), variants)
		if !ok || name == "" {
			continue
		}
		r := Resource{Name: name}
		if types := g.Objects(subj, rdfgraph.RDFType); len(types) > 0 {
			qn := g.TermQName(types[0])
			r.PrimaryType = &qn
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return typeOf(out[i]) < typeOf(out[j])
	})
	return out
}

func typeOf(r Resource) string {
	if r.PrimaryType == nil {
		return ""
	}
	return *r.PrimaryType
}

// GroupByType buckets resources by primary type, sorted by type name.
// Untyped resources go to OtherGroup. Names keep their input order.
func GroupByType(resources []Resource) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, r := range resources {
		t := OtherGroup
		if r.PrimaryType != nil {
			t = *r.PrimaryType
		}
		i, ok := index[t]
		if !ok {
			i = len(groups)
			index[t] = i
			groups = append(groups, Group{Type: t})
		}
		groups[i].Names = append(groups[i].Names, r.Name)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Type < groups[j].Type })
	return groups
}

// Names returns the resource names in order.
func Names(resources []Resource) []string {
	names := make([]string, len(resources))
	for i, r := range resources {
		names[i] = r.Name
	}
	return names
}

// Definition serializes the triples describing ns+name as Turtle without
// prefix declarations. With includeReferences, triples using the resource as
// predicate or object are included as well. An empty string means the
// resource has no triples.
func Definition(g *rdfgraph.Graph, ns, name string, includeReferences bool) (string, error) {
	sub := g.Subgraph()
	for _, v := range SchemeVariants(ns) {
		uri := v + name
		for _, t := range g.BySubject(uri) {
			sub.Add(t)
		}
		if includeReferences {
			for _, t := range g.ByPredicate(uri) {
				sub.Add(t)
			}
			for _, t := range g.ByObject(uri) {
				sub.Add(t)
			}
		}
	}
	if sub.Len() == 0 {
		return "", nil
	}

	ttl, err := sub.SerializeTurtle()
	if err != nil {
		return "", fmt.Errorf("serialize %s: %w", name, err)
	}
	return StripPrefixes(ttl), nil
}

// StripPrefixes removes prefix and base declarations from Turtle text and
// trims surrounding whitespace.
func StripPrefixes(ttl string) string {
	lines := strings.Split(ttl, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if isDirective(strings.TrimSpace(line)) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func isDirective(line string) bool {
	lower := strings.ToLower(line)
	for _, d := range []string{"@prefix", "prefix ", "@base", "base "} {
		if strings.HasPrefix(lower, d) {
			return true
		}
	}
	return false
}
