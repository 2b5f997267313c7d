package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hpungsan/ldspec/internal/errors"
	"github.com/hpungsan/ldspec/internal/ops"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	svc      *ops.Service
	renderer *Renderer
}

// HandleFamilies handles GET / with an overview of the catalog.
func (h *Handlers) HandleFamilies(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListSpecifications(ops.ListSpecificationsInput{})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, "families", FamiliesPageData{
		PageData: h.renderer.page("Specifications", "specs"),
		Families: result.Families,
	})
}

// HandleFamily handles GET /families/{family}.
func (h *Handlers) HandleFamily(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListSpecifications(ops.ListSpecificationsInput{Family: chi.URLParam(r, "family")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, "family", FamilyPageData{
		PageData: h.renderer.page(strings.ToUpper(result.Family.Key), "specs"),
		Family:   result.Family,
	})
}

// HandleSections handles GET /specs/{spec} with the table of contents.
func (h *Handlers) HandleSections(w http.ResponseWriter, r *http.Request) {
	depth, err := parseIntParam(r, "depth", 0)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := h.svc.ListSections(r.Context(), ops.ListSectionsInput{
		SpecKey: chi.URLParam(r, "spec"),
		Depth:   depth,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, "sections", SectionsPageData{
		PageData: h.renderer.page(result.SpecKey, "specs"),
		SpecKey:  result.SpecKey,
		Depth:    result.Depth,
		Sections: result.Sections,
	})
}

// HandleSection handles GET /specs/{spec}/sections/{id}.
func (h *Handlers) HandleSection(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetSection(r.Context(), ops.GetSectionInput{
		SpecKey:   chi.URLParam(r, "spec"),
		SectionID: chi.URLParam(r, "id"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, "section", SectionPageData{
		PageData:     h.renderer.page(result.SpecKey+" § "+result.SectionID, "specs"),
		SpecKey:      result.SpecKey,
		SectionID:    result.SectionID,
		RenderedHTML: h.renderer.renderMarkdown(result.Markdown),
	})
}

// HandleResources handles GET /ns/{ns} with the resources of a namespace.
func (h *Handlers) HandleResources(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListResources(r.Context(), ops.ListResourcesInput{NsKey: chi.URLParam(r, "ns")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, "resources", ResourcesPageData{
		PageData: h.renderer.page(result.NsKey, "namespaces"),
		NsKey:    result.NsKey,
		Total:    result.Total,
		Groups:   result.Groups,
	})
}

// HandleResource handles GET /ns/{ns}/{name}. ?refs=true adds references.
func (h *Handlers) HandleResource(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetResource(r.Context(), ops.GetResourceInput{
		NsKey:             chi.URLParam(r, "ns"),
		Resource:          chi.URLParam(r, "name"),
		IncludeReferences: parseBoolParam(r, "refs"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, "resource", ResourcePageData{
		PageData:   h.renderer.page(result.NsKey+":"+result.Resource, "namespaces"),
		NsKey:      result.NsKey,
		Resource:   result.Resource,
		References: result.IncludeReferences,
		Turtle:     result.Turtle,
	})
}

// HandleClearCache handles POST /cache/clear.
func (h *Handlers) HandleClearCache(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ClearCache()
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseIntParam reads an integer query parameter, returning def when absent.
func parseIntParam(r *http.Request, key string, def int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.NewInvalidRequest(key + " must be an integer")
	}
	return n, nil
}

// parseBoolParam reads a boolean query parameter ("true", "1", "on").
func parseBoolParam(r *http.Request, key string) bool {
	switch strings.ToLower(r.URL.Query().Get(key)) {
	case "true", "1", "on":
		return true
	}
	return false
}
