package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/ldspec/internal/catalog"
	"github.com/hpungsan/ldspec/internal/config"
	"github.com/hpungsan/ldspec/internal/db"
	"github.com/hpungsan/ldspec/internal/fetch"
	"github.com/hpungsan/ldspec/internal/ops"
)

const testSpecHTML = `<html><body>
<nav id="toc"><ol>
  <li><a href="#intro">1. Introduction</a><ol><li><a href="#goals">1.1 Goals</a></li></ol></li>
  <li><a href="#model">2. Model</a></li>
</ol></nav>
<h2 id="intro">1. Introduction</h2><p>Intro text.</p>
<h3 id="goals">1.1 Goals</h3><p>Goals text.</p>
<h2 id="model">2. Model</h2><p>Model text.</p>
</body></html>`

const testVocab = `@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix owl: <http://www.w3.org/2002/07/owl#> .
<%[1]sWidget> a owl:Class ; rdfs:comment "A widget." .
<%[1]ssize> a owl:DatatypeProperty ; rdfs:domain <%[1]sWidget> .
`

// setupRuntime builds a runtime whose catalog points at a local upstream.
func setupRuntime(t *testing.T, persist bool) *runtime {
	t.Helper()

	var upstream *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/spec", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, testSpecHTML)
	})
	mux.HandleFunc("/ns", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/turtle")
		_, _ = fmt.Fprintf(w, testVocab, upstream.URL+"/ns#")
	})
	upstream = httptest.NewServer(mux)
	t.Cleanup(upstream.Close)

	cat, err := catalog.Parse([]byte(fmt.Sprintf(`
families:
  - key: DEMO
    comment: Demo family.
    specifications:
      - {key: demo, label: Demo, comment: Demo spec., uri: "%[1]s/spec"}
    namespaces:
      - {key: ex, label: Example, comment: Example terms., uri: "%[1]s/ns#"}
`, upstream.URL)))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rt := &runtime{
		cfg:      config.DefaultConfig(),
		registry: prometheus.NewRegistry(),
		logger:   logger,
	}
	if persist {
		database, err := db.Init(t.TempDir())
		require.NoError(t, err)
		t.Cleanup(func() { database.Close() })
		rt.db = database
	}
	rt.svc = ops.NewService(ops.Options{
		Catalog: cat,
		Fetcher: fetch.New(fetch.Options{}),
		Logger:  logger,
		DB:      rt.db,
	})
	return rt
}

// runCLI runs the app with args and returns stdout.
func runCLI(t *testing.T, rt *runtime, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	app := newCLIApp(rt)
	app.Writer = &buf
	err := app.Run(append([]string{"ldspec"}, args...))
	return buf.String(), err
}

func TestCLIFamilies(t *testing.T) {
	rt := setupRuntime(t, false)

	out, err := runCLI(t, rt, "families")
	require.NoError(t, err)
	assert.Contains(t, out, "# Linked Data Specifications")
	assert.Contains(t, out, "- DEMO (1 spec, 1 namespace): Demo family.")

	out, err = runCLI(t, rt, "families", "demo")
	require.NoError(t, err)
	assert.Contains(t, out, "## Specifications\n- `demo`: Demo spec.")
	assert.Contains(t, out, "## Namespaces\n- `ex`: Example terms.")
}

func TestCLIFamilies_Unknown(t *testing.T) {
	rt := setupRuntime(t, false)

	_, err := runCLI(t, rt, "families", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[UNKNOWN_KEY]")
	assert.Contains(t, err.Error(), "available: DEMO")
}

func TestCLISections(t *testing.T) {
	rt := setupRuntime(t, false)

	out, err := runCLI(t, rt, "sections", "demo")
	require.NoError(t, err)
	assert.Contains(t, out, "# demo\n\n[1. Introduction](intro)\n\t[1.1 Goals](goals)\n[2. Model](model)")
	assert.Contains(t, out, "Hint: Use `get_section(spec_key, section_id)`")

	out, err = runCLI(t, rt, "sections", "--depth", "1", "demo")
	require.NoError(t, err)
	assert.NotContains(t, out, "(goals)")
}

func TestCLISections_JSON(t *testing.T) {
	rt := setupRuntime(t, false)

	out, err := runCLI(t, rt, "sections", "--json", "demo")
	require.NoError(t, err)

	var result ops.ListSectionsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "demo", result.SpecKey)
	assert.Equal(t, 2, result.Depth)
	assert.Len(t, result.Sections, 3)
}

func TestCLISections_Errors(t *testing.T) {
	rt := setupRuntime(t, false)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing spec", []string{"sections"}, "[INVALID_REQUEST]"},
		{"zero depth", []string{"sections", "--depth", "0", "demo"}, "[INVALID_REQUEST]"},
		{"unknown spec", []string{"sections", "nope"}, "[UNKNOWN_KEY]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, rt, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCLISection(t *testing.T) {
	rt := setupRuntime(t, false)

	out, err := runCLI(t, rt, "section", "demo", "intro")
	require.NoError(t, err)
	assert.Contains(t, out, "Intro text.")
	assert.Contains(t, out, "Goals text.")
	assert.NotContains(t, out, "Model text.")

	_, err = runCLI(t, rt, "section", "demo", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[NOT_FOUND] Section 'missing' not found")
	assert.Contains(t, err.Error(), "available: intro, goals, model")
}

func TestCLIResources(t *testing.T) {
	rt := setupRuntime(t, false)

	out, err := runCLI(t, rt, "resources", "ex")
	require.NoError(t, err)
	assert.Contains(t, out, "## owl:Class\nWidget")
	assert.Contains(t, out, "## owl:DatatypeProperty\nsize")
}

func TestCLIResource(t *testing.T) {
	rt := setupRuntime(t, false)

	out, err := runCLI(t, rt, "resource", "ex", "Widget")
	require.NoError(t, err)
	assert.Contains(t, out, `"A widget."`)
	assert.NotContains(t, out, "@prefix")
	assert.NotContains(t, out, "ns#size")

	out, err = runCLI(t, rt, "resource", "--refs", "ex", "Widget")
	require.NoError(t, err)
	assert.Contains(t, out, "ns#size")

	_, err = runCLI(t, rt, "resource", "ex")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[INVALID_REQUEST]")
}

func TestCLICacheClear(t *testing.T) {
	rt := setupRuntime(t, true)

	_, err := runCLI(t, rt, "resources", "ex")
	require.NoError(t, err)

	n, err := db.CountDocuments(rt.db)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	out, err := runCLI(t, rt, "cache", "clear", "--json")
	require.NoError(t, err)

	var result ops.ClearCacheOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 1, result.Entries)
	assert.Equal(t, int64(1), result.Documents)

	out, err = runCLI(t, rt, "cache", "clear")
	require.NoError(t, err)
	assert.Equal(t, "Cleared 0 cached entries and 0 stored documents.\n", out)
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level string
		debug bool
		info  bool
	}{
		{"debug", true, true},
		{"", false, true},
		{"info", false, true},
		{"WARN", false, false},
		{"error", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(tt.level, &buf)
			logger.Debug("debug line")
			logger.Info("info line")
			assert.Equal(t, tt.debug, strings.Contains(buf.String(), "debug line"))
			assert.Equal(t, tt.info, strings.Contains(buf.String(), "info line"))
		})
	}
}

func TestIsCLIMode(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })

	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"ldspec"}, false},
		{[]string{"ldspec", "sections", "rdf12-primer"}, true},
		{[]string{"ldspec", "cache", "clear"}, true},
		{[]string{"ldspec", "--version"}, true},
		{[]string{"ldspec", "--stdio"}, false},
	}
	for _, tt := range tests {
		os.Args = tt.args
		if got := isCLIMode(); got != tt.want {
			t.Errorf("isCLIMode(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}
