package web

import (
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/glancehq/glance/internal/capture"
	"github.com/glancehq/glance/internal/errors"
	"github.com/glancehq/glance/internal/store"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	store    *store.Store
	renderer *Renderer
}

// HandleList handles GET /captures — the capture history.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 0)

	items, err := h.store.ListRecentCaptures(r.Context(), limit)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, map[string]any{
			"captures": items,
			"count":    len(items),
		})
		return
	}

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData: PageData{
			Title:   "Captures",
			Version: h.renderer.version,
		},
		Items: items,
		Limit: limit,
	})
}

// HandleDetail handles GET /captures/{id} — view a single capture.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("capture ID is required"))
		return
	}

	record, err := h.store.GetCapture(r.Context(), id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if record == nil {
		h.renderer.renderError(w, r, errors.NewNotFound(id))
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, record)
		return
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData: PageData{
			Title:   displayTitle(record),
			Version: h.renderer.version,
		},
		Capture:      record,
		RenderedHTML: renderMarkdown(record.Response),
	})
}

// HandleBlob handles GET /captures/{id}/blob/{kind} — stream an attachment.
func (h *Handlers) HandleBlob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	kind := r.PathValue("kind")
	if id == "" || kind == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("capture ID and attachment kind are required"))
		return
	}

	record, err := h.store.GetCapture(r.Context(), id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if record == nil {
		h.renderer.renderError(w, r, errors.NewNotFound(id))
		return
	}

	data, err := h.store.GetBlob(r.Context(), id, kind)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if data == nil {
		h.renderer.renderError(w, r, errors.NewNotFound(capture.BlobKey(id, kind)))
		return
	}

	contentType := "application/octet-stream"
	if att, ok := record.Attachments[kind]; ok && att.MIMEType != "" {
		contentType = att.MIMEType
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// HandleDelete handles DELETE /captures/{id}.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("capture ID is required"))
		return
	}

	if err := h.store.DeleteCapture(r.Context(), id); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// HTMX request: redirect via HX-Redirect header
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/captures")
		w.WriteHeader(http.StatusOK)
		return
	}

	// JSON request
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, map[string]any{"deleted": id})
		return
	}

	// Default: redirect
	http.Redirect(w, r, "/captures", http.StatusFound)
}

// HandlePurge handles POST /captures/purge — run a retention sweep.
func (h *Handlers) HandlePurge(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	var override *capture.RetentionPolicy
	maxEntries := r.FormValue("max_entries")
	maxAgeDays := r.FormValue("max_age_days")
	if maxEntries != "" || maxAgeDays != "" {
		override = &capture.RetentionPolicy{}
		if maxEntries != "" {
			n, err := strconv.Atoi(maxEntries)
			if err != nil {
				h.renderer.renderError(w, r, errors.NewInvalidRequest("max_entries must be an integer"))
				return
			}
			override.MaxEntries = &n
		}
		if maxAgeDays != "" {
			d, err := strconv.ParseFloat(maxAgeDays, 64)
			if err != nil {
				h.renderer.renderError(w, r, errors.NewInvalidRequest("max_age_days must be a number"))
				return
			}
			override.MaxAgeDays = &d
		}
	}

	removed, err := h.store.EnforceRetention(r.Context(), override)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// HTMX request: return HTML fragment
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		msg := strconv.Itoa(removed) + " capture(s) removed"
		_, _ = w.Write([]byte(`<div class="purge-result">` + template.HTMLEscapeString(msg) + `</div>`))
		return
	}

	// JSON request
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, map[string]any{"removed": removed})
		return
	}

	// Default: redirect
	http.Redirect(w, r, "/captures", http.StatusFound)
}

// HandleClear handles POST /captures/clear — delete everything.
func (h *Handlers) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}
	if r.FormValue("confirm") != "true" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("confirm parameter must be \"true\""))
		return
	}

	if err := h.store.ClearAll(r.Context()); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/captures")
		w.WriteHeader(http.StatusOK)
		return
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, map[string]any{"cleared": true})
		return
	}
	http.Redirect(w, r, "/captures", http.StatusFound)
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

// displayTitle builds a page title from the prompt, or a truncated ID.
func displayTitle(c *capture.Capture) string {
	if c.Prompt != "" {
		return truncate(c.Prompt, 60)
	}
	if len(c.ID) > 10 {
		return c.ID[:10] + "..."
	}
	return c.ID
}
