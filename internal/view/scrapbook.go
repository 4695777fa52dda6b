package view

import (
	"fmt"

	"github.com/a-h/templ"
	"github.com/msomdec/clip/internal/domain"
	"github.com/msomdec/clip/internal/service"
)

var typeLabels = map[domain.ScrapType]string{
	domain.ScrapTypeLink:    "Links",
	domain.ScrapTypeImage:   "Images",
	domain.ScrapTypeText:    "Notes",
	domain.ScrapTypeVideo:   "Videos",
	domain.ScrapTypeSNS:     "Social",
	domain.ScrapTypeDefault: "Other",
}

// TypeLabel returns the heading used for a scrap type group.
func TypeLabel(t domain.ScrapType) string {
	if label, ok := typeLabels[t]; ok {
		return label
	}
	return typeLabels[domain.ScrapTypeDefault]
}

// ScrapbookPage is the full document. The body subscribes to the change
// stream on load.
func ScrapbookPage(email string, snap service.ScrapbookSnapshot) templ.Component {
	return component(func(h *writer) {
		h.raw(`<!DOCTYPE html><html lang="ko"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>Clip</title>`)
		h.raw(`<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"></script>`)
		h.raw(`</head><body data-init="@get('/scrapbook/stream')">`)
		h.raw(`<header class="topbar"><h1>Clip</h1>`)
		if email != "" {
			h.raw(`<span class="account">`)
			h.text(email)
			h.raw(`</span>`)
		} else {
			h.raw(`<span class="account">Guest session</span>`)
		}
		h.raw(`</header>`)
		h.raw(`<div`)
		h.attr("id", FlashID)
		h.raw(`></div>`)
		h.component(Scrapbook(snap))
		h.raw(`</body></html>`)
	})
}

// Scrapbook is the main two-pane layout.
func Scrapbook(snap service.ScrapbookSnapshot) templ.Component {
	return component(func(h *writer) {
		h.raw(`<main`)
		h.attr("id", ScrapbookID)
		h.attr("data-state", snap.State.String())
		h.raw(`>`)
		h.component(CategoryList(snap))
		h.component(ScrapPanel(snap))
		h.raw(`</main>`)
	})
}

// CategoryList is the sidebar with selection buttons, per-category delete
// forms and the add-category form.
func CategoryList(snap service.ScrapbookSnapshot) templ.Component {
	return component(func(h *writer) {
		h.raw(`<nav`)
		h.attr("id", CategoryListID)
		h.raw(`><ul>`)
		for _, c := range snap.Categories {
			h.raw(`<li`)
			h.attr("id", "category-"+c.ID)
			if c.ID == snap.SelectedID {
				h.attr("class", "selected")
			}
			h.raw(`><button type="button"`)
			h.attr("data-on:click", fmt.Sprintf("@post('/scrapbook/select/%s')", c.ID))
			h.raw(`>`)
			h.text(c.Name)
			h.raw(`</button>`)
			if len(snap.Categories) > 1 {
				h.component(deleteCategoryForm(c, snap.Categories))
			}
			h.raw(`</li>`)
		}
		h.raw(`</ul>`)
		h.raw(`<form data-on:submit="@post('/scrapbook/categories', {contentType: 'form'})">`)
		h.raw(`<input name="name" maxlength="50" placeholder="New category" required>`)
		h.raw(`<button type="submit">Add</button></form>`)
		h.raw(`</nav>`)
	})
}

func deleteCategoryForm(c domain.Category, all []domain.Category) templ.Component {
	return component(func(h *writer) {
		h.raw(`<form class="delete-category"`)
		h.attr("data-on:submit", fmt.Sprintf("@post('/scrapbook/categories/%s/delete', {contentType: 'form'})", c.ID))
		h.raw(`><select name="moveTo" aria-label="Move scraps to">`)
		for _, target := range all {
			if target.ID == c.ID {
				continue
			}
			h.raw(`<option`)
			h.attr("value", target.ID)
			h.raw(`>`)
			h.text(target.Name)
			h.raw(`</option>`)
		}
		h.raw(`</select><button type="submit">Delete</button></form>`)
	})
}

// ScrapPanel lists the selected category's scraps grouped by type.
func ScrapPanel(snap service.ScrapbookSnapshot) templ.Component {
	return component(func(h *writer) {
		h.raw(`<section`)
		h.attr("id", ScrapPanelID)
		h.raw(`>`)

		selected, ok := snap.Selected()
		switch {
		case !ok && len(snap.Categories) == 0:
			h.raw(`<p class="empty">Create a category to start clipping.</p>`)
		case !ok:
			h.raw(`<p class="empty">Select a category.</p>`)
		default:
			h.raw(`<h2>`)
			h.text(selected.Name)
			h.raw(`</h2>`)
			h.component(addScrapForm())
			if snap.State == service.StateScrapsLoading {
				h.raw(`<p class="loading">Loading…</p>`)
			} else if len(snap.Groups) == 0 {
				h.raw(`<p class="empty">No scraps yet.</p>`)
			}
			for _, g := range snap.Groups {
				h.component(ScrapGroup(g))
			}
		}

		h.raw(`</section>`)
	})
}

func addScrapForm() templ.Component {
	return component(func(h *writer) {
		h.raw(`<form class="add-scrap" data-on:submit="@post('/scrapbook/scraps', {contentType: 'form'})">`)
		h.raw(`<select name="type">`)
		for _, t := range []domain.ScrapType{domain.ScrapTypeLink, domain.ScrapTypeImage, domain.ScrapTypeText, domain.ScrapTypeVideo, domain.ScrapTypeSNS} {
			h.raw(`<option`)
			h.attr("value", string(t))
			h.raw(`>`)
			h.text(TypeLabel(t))
			h.raw(`</option>`)
		}
		h.raw(`</select>`)
		h.raw(`<input name="url" type="text" maxlength="2048" placeholder="https://">`)
		h.raw(`<input name="title" maxlength="200" placeholder="Title">`)
		h.raw(`<textarea name="memo" maxlength="2000" placeholder="Memo"></textarea>`)
		h.raw(`<button type="submit">Clip</button></form>`)
	})
}

// ScrapGroup renders one type bucket.
func ScrapGroup(g service.ScrapGroup) templ.Component {
	return component(func(h *writer) {
		h.raw(`<div class="scrap-group"`)
		h.attr("id", "group-"+string(g.Type))
		h.raw(`><h3>`)
		h.text(TypeLabel(g.Type))
		h.raw(`</h3><ul>`)
		for _, s := range g.Scraps {
			h.component(ScrapItem(s))
		}
		h.raw(`</ul></div>`)
	})
}

// ScrapItem renders a single scrap card.
func ScrapItem(s domain.Scrap) templ.Component {
	return component(func(h *writer) {
		h.raw(`<li class="scrap"`)
		h.attr("id", "scrap-"+s.ID)
		h.raw(`>`)
		switch {
		case s.Type == domain.ScrapTypeImage && s.Data.URL != "":
			h.raw(`<img loading="lazy"`)
			h.attr("src", string(templ.URL(s.Data.URL)))
			h.attr("alt", s.Data.Title)
			h.raw(`>`)
		case s.Data.URL != "":
			h.raw(`<a target="_blank" rel="noopener noreferrer"`)
			h.attr("href", string(templ.URL(s.Data.URL)))
			h.raw(`>`)
			h.text(s.Data.Title)
			h.raw(`</a>`)
		case s.Data.Title != "":
			h.raw(`<strong>`)
			h.text(s.Data.Title)
			h.raw(`</strong>`)
		}
		if s.Data.Memo != "" {
			h.raw(`<p class="memo">`)
			h.text(s.Data.Memo)
			h.raw(`</p>`)
		}
		h.raw(`<time`)
		h.attr("datetime", s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
		h.raw(`>`)
		h.text(s.CreatedAt.Format("2006.01.02"))
		h.raw(`</time>`)
		h.raw(`<button type="button"`)
		h.attr("data-on:click", fmt.Sprintf("@post('/scrapbook/scraps/%s/delete')", s.ID))
		h.raw(`>Delete</button></li>`)
	})
}

// Flash shows a single message in the flash area. An empty message clears it.
func Flash(message string) templ.Component {
	return component(func(h *writer) {
		h.raw(`<div`)
		h.attr("id", FlashID)
		if message != "" {
			h.attr("class", "flash error")
			h.attr("role", "alert")
		}
		h.raw(`>`)
		h.text(message)
		h.raw(`</div>`)
	})
}
