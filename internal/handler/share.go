package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/bite/internal/apperror"
	"github.com/sakif/bite/internal/preview"
	"github.com/sakif/bite/internal/service"
)

// ShareHandler serves the public share pages under /b/: the composed live
// preview, the rendered README, and highlighted source listings. These are
// HTML endpoints, not JSON — they are what a shared bite link opens.
type ShareHandler struct {
	bites  *service.BiteService
	logger *slog.Logger
}

func NewShareHandler(bites *service.BiteService, logger *slog.Logger) *ShareHandler {
	return &ShareHandler{bites: bites, logger: logger}
}

// fileContents indexes a bite's files by name, last occurrence winning.
func fileContents(detail *service.BiteDetail) map[string]string {
	m := make(map[string]string, len(detail.Files))
	for _, f := range detail.Files {
		m[f.Filename] = f.Content
	}
	return m
}

// HandlePreview serves the composed standalone preview of a bite and counts
// the visit as a download. The counter update is best-effort: a failed bump
// never breaks the page.
//
// HTTP: GET /b/{biteId}
func (h *ShareHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	biteID := r.PathValue("biteId")

	detail, err := h.bites.GetByID(r.Context(), biteID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		writeError(w, err)
		return
	}

	if err := h.bites.RecordDownload(r.Context(), biteID); err != nil {
		h.logger.Warn("failed to record download",
			slog.String("biteId", biteID),
			slog.String("error", err.Error()),
		)
	}

	files := fileContents(detail)
	custom := preview.CustomizationFromBiteJSON(files["bite.json"])
	doc := preview.Compose(files["index.html"], files["style.css"], files["script.js"], custom)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(doc))
}

// HandleReadme serves a bite's README rendered to HTML.
//
// HTTP: GET /b/{biteId}/readme
func (h *ShareHandler) HandleReadme(w http.ResponseWriter, r *http.Request) {
	biteID := r.PathValue("biteId")

	detail, err := h.bites.GetByID(r.Context(), biteID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		writeError(w, err)
		return
	}

	readme, ok := fileContents(detail)["README.md"]
	if !ok {
		http.NotFound(w, r)
		return
	}

	rendered, err := preview.RenderMarkdown(readme)
	if err != nil {
		h.logger.Error("failed to render readme",
			slog.String("biteId", biteID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "failed to render readme", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(rendered))
}

// HandleSource serves one file of a bite as syntax-highlighted HTML.
//
// HTTP: GET /b/{biteId}/src/{filename}
func (h *ShareHandler) HandleSource(w http.ResponseWriter, r *http.Request) {
	biteID := r.PathValue("biteId")
	filename := r.PathValue("filename")

	detail, err := h.bites.GetByID(r.Context(), biteID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		writeError(w, err)
		return
	}

	content, ok := fileContents(detail)[filename]
	if !ok {
		http.NotFound(w, r)
		return
	}

	highlighted, err := preview.Highlight(filename, content)
	if err != nil {
		h.logger.Error("failed to highlight source",
			slog.String("biteId", biteID),
			slog.String("filename", filename),
			slog.String("error", err.Error()),
		)
		http.Error(w, "failed to render source", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(highlighted))
}
