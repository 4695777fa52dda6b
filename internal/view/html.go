// Package view renders the scrapbook UI as templ components. Fragments carry
// stable element ids so handlers can patch them over Datastar SSE.
package view

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Element ids patched by the SSE handlers.
const (
	ScrapbookID    = "scrapbook"
	CategoryListID = "category-list"
	ScrapPanelID   = "scrap-panel"
	FlashID        = "flash"
)

// writer accumulates the first write error so components read top to bottom.
type writer struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (h *writer) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *writer) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *writer) attr(name, value string) {
	h.raw(" " + name + "=\"" + templ.EscapeString(value) + "\"")
}

func (h *writer) component(c templ.Component) {
	if h.err == nil {
		h.err = c.Render(h.ctx, h.w)
	}
}

func component(fn func(h *writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &writer{ctx: ctx, w: w}
		fn(h)
		return h.err
	})
}
