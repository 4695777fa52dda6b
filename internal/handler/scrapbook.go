package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/msomdec/clip/internal/domain"
	"github.com/msomdec/clip/internal/service"
	"github.com/msomdec/clip/internal/view"
	"github.com/starfederation/datastar-go/datastar"
)

// ScrapbookHandler serves the Datastar UI backed by a per-identity
// ScrapbookView.
type ScrapbookHandler struct {
	views  *service.ViewRegistry
	broker *service.Broker
}

// NewScrapbookHandler creates a new ScrapbookHandler.
func NewScrapbookHandler(views *service.ViewRegistry, broker *service.Broker) *ScrapbookHandler {
	return &ScrapbookHandler{views: views, broker: broker}
}

func (h *ScrapbookHandler) view(r *http.Request) *service.ScrapbookView {
	return h.views.Get(IdentityFromContext(r.Context()))
}

// HandlePage renders the full scrapbook page.
// GET /{$}
func (h *ScrapbookHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	v := h.view(r)
	if err := v.Load(r.Context()); err != nil {
		slog.Error("load scrapbook", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	email := ""
	if user := UserFromContext(r.Context()); user != nil {
		email = user.Email
	}
	view.ScrapbookPage(email, v.Snapshot()).Render(r.Context(), w)
}

// HandleStream keeps an SSE connection open and re-renders the scrapbook
// after every change event for the caller's identity.
// GET /scrapbook/stream
func (h *ScrapbookHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	ident := IdentityFromContext(r.Context())
	events, cancel := h.broker.Subscribe(ident.UserID)
	defer cancel()

	sse := datastar.NewSSE(w, r)
	v := h.views.Get(ident)
	if err := v.Refresh(r.Context()); err != nil {
		slog.Error("refresh scrapbook", "error", err)
	}
	h.patchScrapbook(sse, v)

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			// Keep the registry entry warm while the tab is open.
			v = h.views.Get(ident)
			if err := v.Refresh(r.Context()); err != nil {
				slog.Error("refresh scrapbook", "error", err, "kind", ev.Kind)
				continue
			}
			if err := h.patchScrapbook(sse, v); err != nil {
				return
			}
		}
	}
}

// HandleSelect switches the selected category.
// POST /scrapbook/select/{id}
func (h *ScrapbookHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	v := h.view(r)
	err := v.Select(r.Context(), r.PathValue("id"))
	h.respond(w, r, v, err, "select category")
}

// HandleAddScrap adds a scrap to the selected category from form fields.
// POST /scrapbook/scraps
func (h *ScrapbookHandler) HandleAddScrap(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	v := h.view(r)
	_, err := v.AddScrap(r.Context(), service.ScrapInput{
		Type:  domain.ScrapType(r.FormValue("type")),
		URL:   r.FormValue("url"),
		Title: r.FormValue("title"),
		Memo:  r.FormValue("memo"),
	})
	h.respond(w, r, v, err, "add scrap")
}

// HandleDeleteScrap deletes a scrap.
// POST /scrapbook/scraps/{id}/delete
func (h *ScrapbookHandler) HandleDeleteScrap(w http.ResponseWriter, r *http.Request) {
	v := h.view(r)
	err := v.DeleteScrap(r.Context(), r.PathValue("id"))
	h.respond(w, r, v, err, "delete scrap")
}

// HandleAddCategory creates a category from the "name" form field.
// POST /scrapbook/categories
func (h *ScrapbookHandler) HandleAddCategory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	v := h.view(r)
	_, err := v.AddCategory(r.Context(), r.FormValue("name"))
	h.respond(w, r, v, err, "add category")
}

// HandleDeleteCategory deletes a category, moving its scraps into the
// "moveTo" form field's category.
// POST /scrapbook/categories/{id}/delete
func (h *ScrapbookHandler) HandleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	v := h.view(r)
	_, err := v.DeleteCategory(r.Context(), r.PathValue("id"), r.FormValue("moveTo"))
	h.respond(w, r, v, err, "delete category")
}

// respond patches the scrapbook after a successful action, or the flash area
// with a user-facing message when the action was rejected.
func (h *ScrapbookHandler) respond(w http.ResponseWriter, r *http.Request, v *service.ScrapbookView, err error, op string) {
	if err != nil {
		status, message := statusFor(err)
		if status == http.StatusInternalServerError {
			slog.Error(op, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if errors.Is(err, domain.ErrNotFound) {
			message = "That item no longer exists."
		}
		sse := datastar.NewSSE(w, r)
		sse.PatchElementTempl(view.Flash(message))
		return
	}

	sse := datastar.NewSSE(w, r)
	sse.PatchElementTempl(view.Flash(""))
	h.patchScrapbook(sse, v)
}

func (h *ScrapbookHandler) patchScrapbook(sse *datastar.ServerSentEventGenerator, v *service.ScrapbookView) error {
	return sse.PatchElementTempl(
		view.Scrapbook(v.Snapshot()),
		datastar.WithSelectorID(view.ScrapbookID),
	)
}
