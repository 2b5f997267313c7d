package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/hpungsan/ldspec/internal/catalog"
	"github.com/hpungsan/ldspec/internal/errors"
	"github.com/hpungsan/ldspec/internal/ops"
	"github.com/hpungsan/ldspec/internal/toc"
	"github.com/hpungsan/ldspec/internal/vocab"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	Nav     string // active nav item: "specs", "namespaces"
}

// FamiliesPageData is the template data for the overview page.
type FamiliesPageData struct {
	PageData
	Families []ops.FamilySummary
}

// FamilyPageData is the template data for one family.
type FamilyPageData struct {
	PageData
	Family *catalog.Family
}

// SectionsPageData is the template data for a table of contents.
type SectionsPageData struct {
	PageData
	SpecKey  string
	Depth    int
	Sections []toc.FlatItem
}

// SectionPageData is the template data for one rendered section.
type SectionPageData struct {
	PageData
	SpecKey      string
	SectionID    string
	RenderedHTML template.HTML
}

// ResourcesPageData is the template data for a namespace listing.
type ResourcesPageData struct {
	PageData
	NsKey  string
	Total  int
	Groups []vocab.Group
}

// ResourcePageData is the template data for one resource definition.
type ResourcePageData struct {
	PageData
	NsKey      string
	Resource   string
	References bool
	Turtle     string
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
	Available  []string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
	markdown  goldmark.Markdown
	logger    *slog.Logger
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string, logger *slog.Logger) *Renderer {
	funcMap := template.FuncMap{
		"indent": func(depth int) int { return max(depth-1, 0) },
		"join":   strings.Join,
	}

	// Parse layout as the base template
	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"families":  "families.html",
		"family":    "family.html",
		"sections":  "sections.html",
		"section":   "section.html",
		"resources": "resources.html",
		"resource":  "resource.html",
		"error":     "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Renderer{
		templates: templates,
		version:   version,
		markdown:  goldmark.New(goldmark.WithExtensions(extension.GFM)),
		logger:    logger,
	}
}

// page builds the common page fields.
func (r *Renderer) page(title, nav string) PageData {
	return PageData{Title: title, Version: r.version, Nav: nav}
}

// renderPage renders a named page template with the given data and HTTP 200 status.
func (r *Renderer) renderPage(w http.ResponseWriter, name string, data any) {
	r.renderPageStatus(w, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template inside the layout with the
// given data and HTTP status code.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		r.logger.Error("template not found", "template", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.logger.Error("template execution error", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders an error response with content negotiation.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	ldErr, ok := errors.As(err)
	if !ok {
		ldErr = errors.NewInternal(err)
	}

	status := ldErr.Status
	message := ldErr.Message
	if ldErr.Code == errors.ErrInternal {
		r.logger.Error("request failed", "path", req.URL.Path, "error", err)
		message = "an internal error occurred"
	}

	var available []string
	if ldErr.Code != errors.ErrInternal {
		if v, ok := ldErr.Details["available"].([]string); ok {
			available = v
		}
	}

	if wantsJSON(req) {
		errorObj := map[string]any{
			"code":    string(ldErr.Code),
			"message": message,
			"status":  status,
		}
		if available != nil {
			errorObj["available"] = available
		}
		renderJSON(w, status, map[string]any{"error": errorObj})
		return
	}

	// Full error page
	r.renderPageStatus(w, status, "error", ErrorPageData{
		PageData:   r.page(fmt.Sprintf("Error %d", status), ""),
		StatusCode: status,
		Message:    message,
		Available:  available,
	})
}

// wantsJSON reports whether the client asked for JSON.
func wantsJSON(req *http.Request) bool {
	return req.URL.Query().Get("format") == "json" ||
		strings.Contains(req.Header.Get("Accept"), "application/json")
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderMarkdown converts section markdown to HTML.
func (r *Renderer) renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(md), &buf); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(md) + "</pre>")
	}
	return template.HTML(buf.String())
}
