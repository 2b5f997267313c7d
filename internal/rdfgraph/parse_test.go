package rdfgraph

import (
	"errors"
	"strings"
	"testing"

	"github.com/knakk/rdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTurtle = `@prefix rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix owl: <http://www.w3.org/2002/07/owl#> .

<http://example.org/ns#Widget> a owl:Class ;
    rdfs:label "Widget" ;
    rdfs:subClassOf <http://example.org/ns#Thing> .

<http://example.org/ns#Thing> a owl:Class .
`

const sampleRDFXML = `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#">
  <rdf:Description rdf:about="http://example.org/ns#Widget">
    <rdfs:label>Widget</rdfs:label>
  </rdf:Description>
</rdf:RDF>
`

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        rdf.Format
		wantErr     bool
	}{
		{name: "turtle header", contentType: "text/turtle; charset=utf-8", body: "", want: rdf.Turtle},
		{name: "n-triples header", contentType: "application/n-triples", want: rdf.NTriples},
		{name: "rdf/xml header", contentType: "application/rdf+xml", want: rdf.RDFXML},
		{name: "generic xml header", contentType: "application/xml", want: rdf.RDFXML},
		{name: "json-ld rejected", contentType: "application/ld+json", wantErr: true},
		{name: "sniff xml declaration", contentType: "text/plain", body: "  <?xml version=\"1.0\"?><rdf:RDF/>", want: rdf.RDFXML},
		{name: "sniff rdf root", body: "<rdf:RDF xmlns:rdf=\"x\"/>", want: rdf.RDFXML},
		{name: "sniff html rejected", contentType: "text/html", body: "<!DOCTYPE html><html></html>", wantErr: true},
		{name: "sniff json rejected", body: `{"@context": {}}`, wantErr: true},
		{name: "default turtle", contentType: "application/octet-stream", body: "@prefix ex: <x#> .", want: rdf.Turtle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.contentType, []byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnsupportedFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Turtle(t *testing.T) {
	g, err := Parse(strings.NewReader(sampleTurtle), "text/turtle")
	require.NoError(t, err)

	assert.Equal(t, 4, g.Len())
	types := g.Objects(iri(t, ex+"Widget"), RDFType)
	require.Len(t, types, 1)
	assert.Equal(t, "owl:Class", g.QName(types[0].String()))
	assert.Len(t, g.ByObject(ex+"Thing"), 1)
}

func TestParse_RDFXML(t *testing.T) {
	g, err := Parse(strings.NewReader(sampleRDFXML), "")
	require.NoError(t, err)

	triples := g.BySubject(ex + "Widget")
	require.Len(t, triples, 1)
	assert.Equal(t, "rdfs:label", g.QName(triples[0].Pred.String()))
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := Parse(strings.NewReader("<http://example.org/a> <http://example.org/b> ."), "text/turtle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse turtle")
}

func TestParse_RejectsHTML(t *testing.T) {
	_, err := Parse(strings.NewReader("<html><body>moved</body></html>"), "text/html")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

const dctermsTurtle = `@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix dct: <http://purl.org/dc/terms/> .
@prefix ex: <http://example.org/ns#> .

ex:Widget a dct:AgentClass ;
    dct:description "A widget." ;
    rdfs:isDefinedBy <http://www.w3.org/2004/02/skos/core> .
`

func TestDeclaredPrefixes_Turtle(t *testing.T) {
	body := []byte(`@prefix dct: <http://purl.org/dc/terms/> .
  PREFIX vann: <http://purl.org/vocab/vann/>
@prefix : <http://example.org/default#> .
@prefix rel: <relative/> .
@prefix a.b-c: <http://example.org/abc#> .
`)
	got := DeclaredPrefixes(body, rdf.Turtle)
	assert.Equal(t, []Binding{
		{"dct", "http://purl.org/dc/terms/"},
		{"vann", "http://purl.org/vocab/vann/"},
		{"a.b-c", "http://example.org/abc#"},
	}, got)
}

func TestDeclaredPrefixes_RDFXML(t *testing.T) {
	body := []byte(`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
  xmlns='http://example.org/default#'
  xmlns:dct='http://purl.org/dc/terms/'
  xmlns:owl="&owl;">`)
	got := DeclaredPrefixes(body, rdf.RDFXML)
	assert.Equal(t, []Binding{
		{"rdf", RDFNamespace},
		{"dct", "http://purl.org/dc/terms/"},
	}, got)
	assert.Empty(t, DeclaredPrefixes(body, rdf.NTriples))
}

func TestParse_BindsDocumentPrefixes(t *testing.T) {
	g, err := Parse(strings.NewReader(dctermsTurtle), "text/turtle")
	require.NoError(t, err)

	prefixes := make([]string, 0)
	for _, b := range g.Bindings() {
		prefixes = append(prefixes, b.Prefix)
	}
	assert.Equal(t, []string{"rdf", "rdfs", "owl", "sh", "skos", "prov", "xsd", "dct", "ex"}, prefixes,
		"standard bindings first, then the document's own")

	types := g.Objects(iri(t, ex+"Widget"), RDFType)
	require.Len(t, types, 1)
	assert.Equal(t, "dct:AgentClass", g.TermQName(types[0]))

	out, err := g.SerializeTurtle()
	require.NoError(t, err)
	assert.Contains(t, out, "@prefix dct: <http://purl.org/dc/terms/> .")
	assert.Contains(t, out, `dct:description "A widget."`)
	assert.True(t, strings.Contains(out, "ex:Widget a dct:AgentClass ;\n"), out)
	assert.NotContains(t, out, "ns0:")
	assertPrefixesDeclared(t, out)
}
