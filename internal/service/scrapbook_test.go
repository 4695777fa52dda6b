package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/msomdec/clip/internal/domain"
	"github.com/msomdec/clip/internal/service"
)

func newTestScrapbookView(t *testing.T, ident domain.Identity) (*service.ScrapbookView, *service.CategoryService, *service.ScrapService) {
	t.Helper()
	categories, scraps, _ := newTestCategoryService(t)
	return service.NewScrapbookView(ident, categories, scraps), categories, scraps
}

func TestScrapbookView_LoadEmpty(t *testing.T) {
	view, _, _ := newTestScrapbookView(t, anonymousIdentity("anon-view"))

	if got := view.Snapshot().State; got != service.StateUninitialized {
		t.Fatalf("expected uninitialized, got %s", got)
	}
	if err := view.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	snap := view.Snapshot()
	if snap.State != service.StateCategoriesReady {
		t.Fatalf("expected categories_ready, got %s", snap.State)
	}
	if snap.SelectedID != "" || len(snap.Categories) != 0 {
		t.Fatalf("expected empty view, got %+v", snap)
	}
}

func TestScrapbookView_AutoSelectsFirst(t *testing.T) {
	ctx := context.Background()
	ident := anonymousIdentity("anon-view")
	view, categories, scraps := newTestScrapbookView(t, ident)

	first, _ := categories.Create(ctx, ident, "First")
	categories.Create(ctx, ident, "Second")
	scraps.Add(ctx, ident, first.ID, service.ScrapInput{URL: "https://a.example"})

	if err := view.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	snap := view.Snapshot()
	if snap.State != service.StateScrapsReady {
		t.Fatalf("expected scraps_ready, got %s", snap.State)
	}
	if snap.SelectedID != first.ID {
		t.Fatalf("expected first category selected, got %s", snap.SelectedID)
	}
	if len(snap.Scraps) != 1 || len(snap.Groups) != 1 {
		t.Fatalf("expected 1 scrap in 1 group, got %d/%d", len(snap.Scraps), len(snap.Groups))
	}
	if sel, ok := snap.Selected(); !ok || sel.Name != "First" {
		t.Fatalf("unexpected selected category %+v", sel)
	}
}

func TestScrapbookView_SelectAndMutate(t *testing.T) {
	ctx := context.Background()
	ident := anonymousIdentity("anon-view")
	view, categories, _ := newTestScrapbookView(t, ident)

	categories.Create(ctx, ident, "First")
	second, _ := categories.Create(ctx, ident, "Second")
	if err := view.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := view.Select(ctx, second.ID); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := view.Select(ctx, "cat-unknown"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound selecting unknown category, got %v", err)
	}

	s, err := view.AddScrap(ctx, service.ScrapInput{URL: "https://b.example"})
	if err != nil {
		t.Fatalf("AddScrap: %v", err)
	}
	snap := view.Snapshot()
	if snap.SelectedID != second.ID || len(snap.Scraps) != 1 || snap.Scraps[0].CategoryID != second.ID {
		t.Fatalf("expected scrap in second category, got %+v", snap)
	}

	if err := view.DeleteScrap(ctx, s.ID); err != nil {
		t.Fatalf("DeleteScrap: %v", err)
	}
	if n := len(view.Snapshot().Scraps); n != 0 {
		t.Fatalf("expected re-fetch to drop the scrap, got %d", n)
	}
}

func TestScrapbookView_DeleteSelectedFallsBack(t *testing.T) {
	ctx := context.Background()
	ident := anonymousIdentity("anon-view")
	view, categories, _ := newTestScrapbookView(t, ident)

	first, _ := categories.Create(ctx, ident, "First")
	second, _ := categories.Create(ctx, ident, "Second")
	view.Load(ctx)
	if err := view.Select(ctx, second.ID); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if _, err := view.AddScrap(ctx, service.ScrapInput{URL: "https://moved.example"}); err != nil {
		t.Fatalf("AddScrap: %v", err)
	}

	moved, err := view.DeleteCategory(ctx, second.ID, first.ID)
	if err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	if moved != 1 {
		t.Fatalf("expected 1 moved scrap, got %d", moved)
	}

	snap := view.Snapshot()
	if snap.SelectedID != first.ID {
		t.Fatalf("expected fallback to first category, got %s", snap.SelectedID)
	}
	if len(snap.Scraps) != 1 {
		t.Fatalf("expected moved scrap to be listed, got %d", len(snap.Scraps))
	}
}

func TestScrapbookView_AddScrapWithoutSelection(t *testing.T) {
	view, _, _ := newTestScrapbookView(t, anonymousIdentity("anon-view"))
	view.Load(context.Background())

	_, err := view.AddScrap(context.Background(), service.ScrapInput{URL: "https://x.example"})
	if !errors.Is(err, domain.ErrPrecondition) {
		t.Fatalf("expected ErrPrecondition, got %v", err)
	}
}

func TestScrapbookView_AddCategorySelectsWhenEmpty(t *testing.T) {
	ctx := context.Background()
	view, _, _ := newTestScrapbookView(t, anonymousIdentity("anon-view"))
	view.Load(ctx)

	c, err := view.AddCategory(ctx, "New")
	if err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	if got := view.Snapshot().SelectedID; got != c.ID {
		t.Fatalf("expected new category to be selected, got %s", got)
	}
}

// blockingScraps serves ListByCategory from a fixed map, holding calls for
// one category until released.
type blockingScraps struct {
	service.ScrapAccessor
	byCategory map[string][]domain.Scrap
	blockOn    string
	started    chan struct{}
	release    chan struct{}
}

func (b *blockingScraps) ListByCategory(ctx context.Context, ident domain.Identity, categoryID string) ([]domain.Scrap, error) {
	if categoryID == b.blockOn {
		close(b.started)
		<-b.release
	}
	return b.byCategory[categoryID], nil
}

type staticCategories struct {
	service.CategoryAccessor
	list []domain.Category
}

func (s staticCategories) List(context.Context, domain.Identity) ([]domain.Category, error) {
	return s.list, nil
}

func TestScrapbookView_DiscardsStaleFetch(t *testing.T) {
	ctx := context.Background()
	cats := staticCategories{list: []domain.Category{{ID: "cat-a"}, {ID: "cat-b"}}}
	scraps := &blockingScraps{
		byCategory: map[string][]domain.Scrap{
			"cat-a": {{ID: "scr-a", CategoryID: "cat-a"}},
			"cat-b": {{ID: "scr-b", CategoryID: "cat-b"}},
		},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	view := service.NewScrapbookView(anonymousIdentity("anon-race"), cats, scraps)
	if err := view.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Slow fetch for A starts first, fast fetch for B finishes first.
	scraps.blockOn = "cat-a"
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := view.Select(ctx, "cat-a"); err != nil {
			t.Errorf("Select a: %v", err)
		}
	}()
	<-scraps.started

	if err := view.Select(ctx, "cat-b"); err != nil {
		t.Fatalf("Select b: %v", err)
	}
	close(scraps.release)
	wg.Wait()

	snap := view.Snapshot()
	if snap.SelectedID != "cat-b" {
		t.Fatalf("expected cat-b to stay selected, got %s", snap.SelectedID)
	}
	if len(snap.Scraps) != 1 || snap.Scraps[0].ID != "scr-b" {
		t.Fatalf("stale result overwrote newer state: %+v", snap.Scraps)
	}
	if snap.State != service.StateScrapsReady {
		t.Fatalf("expected scraps_ready, got %s", snap.State)
	}
}

func TestViewRegistry_ReusesAndEvicts(t *testing.T) {
	categories, scraps, _ := newTestCategoryService(t)
	reg := service.NewViewRegistry(categories, scraps, 30*time.Minute)

	a := anonymousIdentity("anon-a")
	v1 := reg.Get(a)
	v2 := reg.Get(a)
	if v1 != v2 {
		t.Fatal("expected the same view for the same identity")
	}
	reg.Get(anonymousIdentity("anon-b"))
	if reg.Len() != 2 {
		t.Fatalf("expected 2 views, got %d", reg.Len())
	}

	if n := reg.Sweep(time.Now().Add(10 * time.Minute)); n != 0 {
		t.Fatalf("expected nothing evicted yet, got %d", n)
	}
	if n := reg.Sweep(time.Now().Add(31 * time.Minute)); n != 2 {
		t.Fatalf("expected 2 idle views evicted, got %d", n)
	}
	if reg.Get(a) == v1 {
		t.Fatal("expected a fresh view after eviction")
	}
}
