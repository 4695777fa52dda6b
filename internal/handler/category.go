package handler

import (
	"net/http"

	"github.com/msomdec/clip/internal/service"
)

// CategoryHandler serves the category JSON API.
type CategoryHandler struct {
	categories *service.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(categories *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// HandleList returns the caller's categories, oldest first.
// GET /api/categories
func (h *CategoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.categories.List(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err, "list categories")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": toCategoryDTOs(list)})
}

// HandleCreate adds a category.
// POST /api/categories
// Request: {"name":"..."}
func (h *CategoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	c, err := h.categories.Create(r.Context(), IdentityFromContext(r.Context()), req.Name)
	if err != nil {
		writeServiceError(w, err, "create category")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"category": toCategoryDTO(*c)})
}

// HandleDelete deletes a category after moving its scraps to ?moveTo=.
// DELETE /api/categories/{id}?moveTo={targetId}
// Response: {"moved": n}
func (h *CategoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	moved, err := h.categories.DeleteWithReassignment(r.Context(),
		IdentityFromContext(r.Context()), r.PathValue("id"), r.URL.Query().Get("moveTo"))
	if err != nil {
		writeServiceError(w, err, "delete category")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"moved": moved})
}

// HandleDefaults lists suggested category names the caller does not have.
// GET /api/categories/defaults
func (h *CategoryHandler) HandleDefaults(w http.ResponseWriter, r *http.Request) {
	names, err := h.categories.AvailableDefaults(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err, "list default categories")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"names": names})
}
