package web

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hpungsan/ldspec/internal/cache"
	"github.com/hpungsan/ldspec/internal/catalog"
	"github.com/hpungsan/ldspec/internal/fetch"
	"github.com/hpungsan/ldspec/internal/ops"
)

const specHTML = `<html><body>
<nav id="toc"><ol>
  <li><a href="#intro">1. Introduction</a><ol><li><a href="#goals">1.1 Goals</a></li></ol></li>
  <li><a href="#model">2. Model</a></li>
</ol></nav>
<h2 id="intro">1. Introduction</h2><p>Intro <em>text</em>.</p>
<h3 id="goals">1.1 Goals</h3><p>Goals text.</p>
<h2 id="model">2. Model</h2><p>Model text.</p>
</body></html>`

const vocabTurtle = `@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix owl: <http://www.w3.org/2002/07/owl#> .
<%[1]sWidget> a owl:Class ; rdfs:comment "A widget." .
<%[1]ssize> a owl:DatatypeProperty ; rdfs:domain <%[1]sWidget> .
`

type testEnv struct {
	handler http.Handler
	reg     *prometheus.Registry
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()

	var upstream *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/spec", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, specHTML)
	})
	mux.HandleFunc("/ns", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/turtle")
		_, _ = fmt.Fprintf(w, vocabTurtle, upstream.URL+"/ns#")
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
	if err != nil {
		t.Fatalf("catalog.Parse: %v", err)
	}

	reg := prometheus.NewRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := ops.NewService(ops.Options{
		Catalog: cat,
		Fetcher: fetch.New(fetch.Options{}),
		Cache:   cache.New(cache.DefaultTTL, cache.WithMetrics(cache.NewMetrics(reg))),
		Logger:  logger,
	})

	handler, err := NewRouter(svc, Options{Version: "test", Gatherer: reg, Logger: logger})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return &testEnv{handler: handler, reg: reg}
}

func (e *testEnv) do(t *testing.T, method, target string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// --- pages ---

func TestHandleFamilies(t *testing.T) {
	env := setupTest(t)

	rec := env.do(t, "GET", "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `href="/families/DEMO"`) {
		t.Error("expected family link in overview")
	}
	if !strings.Contains(body, "Demo family.") {
		t.Error("expected family comment in overview")
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

func TestHandleFamily(t *testing.T) {
	env := setupTest(t)

	rec := env.do(t, "GET", "/families/demo", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`href="/specs/demo"`, `href="/ns/ex"`, "Example terms."} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in family page", want)
		}
	}
}

func TestHandleFamily_Unknown(t *testing.T) {
	env := setupTest(t)

	rec := env.do(t, "GET", "/families/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Error 404") {
		t.Error("expected error page")
	}
	if !strings.Contains(body, "Available: DEMO") {
		t.Error("expected available family keys on error page")
	}
}

func TestHandleSections(t *testing.T) {
	env := setupTest(t)

	rec := env.do(t, "GET", "/specs/demo", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `href="/specs/demo/sections/goals"`) {
		t.Error("expected nested section at default depth")
	}

	rec = env.do(t, "GET", "/specs/demo?depth=1", nil)
	if strings.Contains(rec.Body.String(), "sections/goals") {
		t.Error("depth=1 should hide nested sections")
	}
}

func TestHandleSections_InvalidDepth(t *testing.T) {
	env := setupTest(t)

	for _, depth := range []string{"abc", "-1"} {
		rec := env.do(t, "GET", "/specs/demo?depth="+depth, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("depth=%s: status = %d, want 400", depth, rec.Code)
		}
	}
}

func TestHandleSections_JSON(t *testing.T) {
	env := setupTest(t)

	rec := env.do(t, "GET", "/specs/demo", map[string]string{"Accept": "application/json"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var out ops.ListSectionsOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.SpecKey != "demo" || out.Depth != 2 || len(out.Sections) != 3 {
		t.Errorf("unexpected output: %+v", out)
	}
}

func TestHandleSection(t *testing.T) {
	env := setupTest(t)

	rec := env.do(t, "GET", "/specs/demo/sections/intro", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<em>text</em>") {
		t.Errorf("expected rendered markdown emphasis, got: %s", body)
	}
	if !strings.Contains(body, "Goals text.") {
		t.Error("expected nested subsection content")
	}
	if strings.Contains(body, "Model text.") {
		t.Error("did not expect the following section")
	}
}

func TestHandleSection_AlwaysFullPage(t *testing.T) {
	env := setupTest(t)

	for _, headers := range []map[string]string{nil, {"HX-Request": "true"}} {
		rec := env.do(t, "GET", "/specs/demo/sections/model", headers)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "<!DOCTYPE html>") {
			t.Errorf("headers %v: expected the full layout", headers)
		}
		if !strings.Contains(body, "Model text.") {
			t.Errorf("headers %v: expected section content", headers)
		}
	}
}

func TestHandleSection_NotFoundJSON(t *testing.T) {
	env := setupTest(t)

	rec := env.do(t, "GET", "/specs/demo/sections/missing?format=json", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var payload struct {
		Error struct {
			Code      string   `json:"code"`
			Message   string   `json:"message"`
			Available []string `json:"available"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Error.Code != "NOT_FOUND" {
		t.Errorf("code = %q, want NOT_FOUND", payload.Error.Code)
	}
	if payload.Error.Message != "Section 'missing' not found" {
		t.Errorf("message = %q", payload.Error.Message)
	}
	if len(payload.Error.Available) != 3 || payload.Error.Available[0] != "intro" {
		t.Errorf("available = %v", payload.Error.Available)
	}
}

func TestHandleResources(t *testing.T) {
	env := setupTest(t)

	rec := env.do(t, "GET", "/ns/ex", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"owl:Class", "owl:DatatypeProperty", `href="/ns/ex/Widget"`, "2 resources"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in resources page", want)
		}
	}
}

func TestHandleResource(t *testing.T) {
	env := setupTest(t)

	rec := env.do(t, "GET", "/ns/ex/Widget", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "A widget.") {
		t.Error("expected definition in resource page")
	}
	if strings.Contains(body, "ns#size") {
		t.Error("references should be hidden by default")
	}

	rec = env.do(t, "GET", "/ns/ex/Widget?refs=true", nil)
	if !strings.Contains(rec.Body.String(), "ns#size") {
		t.Error("expected referencing triples with refs=true")
	}
}

func TestHandleResource_NotFound(t *testing.T) {
	env := setupTest(t)

	rec := env.do(t, "GET", "/ns/ex/Nothing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Resource &#39;Nothing&#39; not found in ex") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

// --- endpoints ---

func TestHandleClearCache(t *testing.T) {
	env := setupTest(t)
	env.do(t, "GET", "/specs/demo", nil)

	rec := env.do(t, "POST", "/cache/clear", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var out ops.ClearCacheOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Entries != 2 {
		t.Errorf("entries = %d, want 2 (document and toc)", out.Entries)
	}

	if rec := env.do(t, "GET", "/cache/clear", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /cache/clear status = %d, want 405", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	env := setupTest(t)

	rec := env.do(t, "GET", "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"status":"ok"}` {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTest(t)
	env.do(t, "GET", "/specs/demo", nil)
	env.do(t, "GET", "/specs/demo", nil)

	rec := env.do(t, "GET", "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "ldspec_cache_hits_total") {
		t.Error("expected cache hit counter in metrics output")
	}
	if !strings.Contains(body, "ldspec_cache_misses_total") {
		t.Error("expected cache miss counter in metrics output")
	}
}

func TestStaticFiles(t *testing.T) {
	env := setupTest(t)

	rec := env.do(t, "GET", "/static/style.css", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRenderMarkdown_EscapesRawHTML(t *testing.T) {
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		t.Fatalf("template sub-FS: %v", err)
	}
	r := NewRenderer(templateSub, "test", nil)
	got := string(r.renderMarkdown("hello <script>alert(1)</script>"))
	if strings.Contains(got, "<script>") {
		t.Errorf("raw HTML should not pass through: %s", got)
	}
}
