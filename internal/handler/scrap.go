package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/msomdec/clip/internal/service"
)

// ScrapHandler serves the scrap JSON API and stored images.
type ScrapHandler struct {
	scraps *service.ScrapService
}

// NewScrapHandler creates a new ScrapHandler.
func NewScrapHandler(scraps *service.ScrapService) *ScrapHandler {
	return &ScrapHandler{scraps: scraps}
}

// HandleList returns a category's scraps, newest first. With ?grouped=true
// the response is bucketed by type.
// GET /api/categories/{id}/scraps
func (h *ScrapHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.scraps.ListByCategory(r.Context(), IdentityFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "list scraps")
		return
	}

	if grouped, _ := strconv.ParseBool(r.URL.Query().Get("grouped")); grouped {
		writeJSON(w, http.StatusOK, map[string]any{"groups": toScrapGroupDTOs(service.OrderedGroups(list))})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scraps": toScrapDTOs(list)})
}

// HandleCreate adds a scrap to a category.
// POST /api/categories/{id}/scraps
// Request: {"type":"link","url":"...","title":"...","memo":"..."}
func (h *ScrapHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req service.ScrapInput
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	s, err := h.scraps.Add(r.Context(), IdentityFromContext(r.Context()), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(w, err, "create scrap")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"scrap": toScrapDTO(*s)})
}

// HandleDelete removes one of the caller's scraps.
// DELETE /api/scraps/{id}
func (h *ScrapHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.scraps.Delete(r.Context(), IdentityFromContext(r.Context()), r.PathValue("id")); err != nil {
		writeServiceError(w, err, "delete scrap")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUploadImage stores a multipart "image" file and returns its URL.
// POST /api/images
// Response: {"url": "/files/scrap_images/..."}
func (h *ScrapHandler) HandleUploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 11<<20)
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "File too large.")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No image file provided.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusBadRequest, "File too large.")
			return
		}
		slog.Error("read upload", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	// Detect content type from file bytes (more reliable than multipart header).
	contentType := http.DetectContentType(data)

	url, err := h.scraps.UploadImage(r.Context(), IdentityFromContext(r.Context()), header.Filename, contentType, data)
	if err != nil {
		writeServiceError(w, err, "upload image")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}

// HandleServeFile serves stored image bytes with correct Content-Type.
// GET /files/{key...}
func (h *ScrapHandler) HandleServeFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := h.scraps.OpenImage(r.Context(), IdentityFromContext(r.Context()), r.PathValue("key"))
	if err != nil {
		writeServiceError(w, err, "serve image")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}
