package view_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/msomdec/clip/internal/domain"
	"github.com/msomdec/clip/internal/service"
	"github.com/msomdec/clip/internal/view"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var sb strings.Builder
	if err := c.Render(context.Background(), &sb); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return sb.String()
}

func testSnapshot() service.ScrapbookSnapshot {
	scraps := []domain.Scrap{
		{ID: "scr-1", Type: domain.ScrapTypeLink, Data: domain.ScrapData{URL: "https://a.example", Title: "<b>A</b>"}, CreatedAt: time.Now()},
		{ID: "scr-2", Type: domain.ScrapTypeText, Data: domain.ScrapData{Memo: "note"}, CreatedAt: time.Now()},
	}
	return service.ScrapbookSnapshot{
		State:      service.StateScrapsReady,
		Categories: []domain.Category{{ID: "cat-1", Name: "여행"}, {ID: "cat-2", Name: "알바"}},
		SelectedID: "cat-1",
		Scraps:     scraps,
		Groups:     service.OrderedGroups(scraps),
	}
}

func TestScrapbookPage_RendersFragments(t *testing.T) {
	html := render(t, view.ScrapbookPage("me@example.com", testSnapshot()))

	for _, want := range []string{
		`id="scrapbook"`,
		`id="category-list"`,
		`id="scrap-panel"`,
		`@get('/scrapbook/stream')`,
		`class="selected"`,
		"여행",
		`id="scrap-scr-1"`,
		`id="group-text"`,
		"me@example.com",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected page to contain %q", want)
		}
	}
}

func TestScrapItem_EscapesContent(t *testing.T) {
	html := render(t, view.ScrapItem(domain.Scrap{
		ID:   "scr-x",
		Type: domain.ScrapTypeLink,
		Data: domain.ScrapData{URL: "javascript:alert(1)", Title: "<script>x</script>"},
	}))

	if strings.Contains(html, "<script>") {
		t.Fatal("expected title to be escaped")
	}
	if strings.Contains(html, "javascript:") {
		t.Fatal("expected unsafe URL to be sanitized")
	}
}

func TestCategoryList_DeleteOnlyWithTarget(t *testing.T) {
	snap := service.ScrapbookSnapshot{Categories: []domain.Category{{ID: "cat-1", Name: "Only"}}, SelectedID: "cat-1"}
	if html := render(t, view.CategoryList(snap)); strings.Contains(html, "delete-category") {
		t.Fatal("last category should not offer delete")
	}

	html := render(t, view.CategoryList(testSnapshot()))
	if !strings.Contains(html, `/scrapbook/categories/cat-1/delete`) || !strings.Contains(html, `value="cat-2"`) {
		t.Fatal("expected delete form with move target")
	}
}

func TestScrapPanel_EmptyStates(t *testing.T) {
	if html := render(t, view.ScrapPanel(service.ScrapbookSnapshot{})); !strings.Contains(html, "Create a category") {
		t.Fatalf("unexpected empty panel: %s", html)
	}
}

func TestFlash(t *testing.T) {
	if html := render(t, view.Flash("boom")); !strings.Contains(html, `role="alert"`) {
		t.Fatalf("expected alert role, got %s", html)
	}
	if html := render(t, view.Flash("")); strings.Contains(html, "alert") {
		t.Fatalf("expected cleared flash, got %s", html)
	}
}
