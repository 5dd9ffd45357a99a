package site

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/zlormann/giveaway-linux/internal/config"
	"github.com/zlormann/giveaway-linux/internal/ops"
)

// Handlers contains HTTP route handlers for the preview server.
type Handlers struct {
	layout   ops.Layout
	cfg      *config.Config
	renderer *Renderer
}

// HandleArchive handles GET /archive: the archive page rendered live from the data files.
func (h *Handlers) HandleArchive(w http.ResponseWriter, r *http.Request) {
	entries, err := ops.ArchiveEntries(h.layout, h.cfg)
	if err != nil {
		h.renderer.renderError(w, r, h.cfg, err)
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.RenderArchive(&buf, h.cfg, entries); err != nil {
		h.renderer.renderError(w, r, h.cfg, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// HandleToday handles GET /api/today: the current pick, resolved.
func (h *Handlers) HandleToday(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Latest(h.layout, h.cfg)
	if err != nil {
		h.renderer.renderError(w, r, h.cfg, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleCatalog handles GET /api/catalog: the retained picks with pagination.
func (h *Handlers) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	input := ops.CatalogInput{
		Limit:  parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset: parseIntParam(r, "offset", 0),
	}

	result, err := ops.Catalog(h.layout, h.cfg, input)
	if err != nil {
		h.renderer.renderError(w, r, h.cfg, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleValidate handles GET /api/validate: a validation report of the data files.
func (h *Handlers) HandleValidate(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Validate(h.layout, h.cfg)
	if err != nil {
		h.renderer.renderError(w, r, h.cfg, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
