package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/msomdec/clip/internal/domain"
)

// ViewState is the loading phase of a ScrapbookView.
type ViewState int

const (
	StateUninitialized ViewState = iota
	StateCategoriesLoading
	StateCategoriesReady
	StateScrapsLoading
	StateScrapsReady
)

func (s ViewState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateCategoriesLoading:
		return "categories_loading"
	case StateCategoriesReady:
		return "categories_ready"
	case StateScrapsLoading:
		return "scraps_loading"
	case StateScrapsReady:
		return "scraps_ready"
	}
	return fmt.Sprintf("ViewState(%d)", int(s))
}

// CategoryAccessor is the category surface a ScrapbookView drives.
type CategoryAccessor interface {
	List(ctx context.Context, ident domain.Identity) ([]domain.Category, error)
	Create(ctx context.Context, ident domain.Identity, name string) (*domain.Category, error)
	DeleteWithReassignment(ctx context.Context, ident domain.Identity, categoryID, targetID string) (int, error)
}

// ScrapAccessor is the scrap surface a ScrapbookView drives.
type ScrapAccessor interface {
	Add(ctx context.Context, ident domain.Identity, categoryID string, in ScrapInput) (*domain.Scrap, error)
	ListByCategory(ctx context.Context, ident domain.Identity, categoryID string) ([]domain.Scrap, error)
	Delete(ctx context.Context, ident domain.Identity, scrapID string) error
}

// ScrapbookSnapshot is a point-in-time copy of a ScrapbookView.
type ScrapbookSnapshot struct {
	State      ViewState
	Categories []domain.Category
	SelectedID string
	Scraps     []domain.Scrap
	Groups     []ScrapGroup
}

// Selected returns the selected category, if any.
func (s ScrapbookSnapshot) Selected() (domain.Category, bool) {
	for _, c := range s.Categories {
		if c.ID == s.SelectedID {
			return c, true
		}
	}
	return domain.Category{}, false
}

// ScrapbookView holds one identity's selected category and scrap list. Every
// mutation is followed by a re-fetch of the affected list. Each fetch takes a
// sequence number; a result that comes back after a newer fetch of the same
// list was issued is dropped.
type ScrapbookView struct {
	ident      domain.Identity
	categories CategoryAccessor
	scraps     ScrapAccessor

	mu          sync.Mutex
	state       ViewState
	catList     []domain.Category
	selectedID  string
	scrapList   []domain.Scrap
	categorySeq uint64
	scrapSeq    uint64
	lastUsed    time.Time
}

// NewScrapbookView creates an uninitialized view for ident.
func NewScrapbookView(ident domain.Identity, categories CategoryAccessor, scraps ScrapAccessor) *ScrapbookView {
	return &ScrapbookView{
		ident:      ident,
		categories: categories,
		scraps:     scraps,
		lastUsed:   time.Now(),
	}
}

// Identity returns the owner this view is scoped to.
func (v *ScrapbookView) Identity() domain.Identity {
	return v.ident
}

// Load fetches categories, keeps or repairs the selection, and fetches the
// selected category's scraps.
func (v *ScrapbookView) Load(ctx context.Context) error {
	if err := v.loadCategories(ctx); err != nil {
		return err
	}
	return v.loadScraps(ctx)
}

// Refresh re-fetches everything. It is what change notifications trigger.
func (v *ScrapbookView) Refresh(ctx context.Context) error {
	return v.Load(ctx)
}

// Select switches to categoryID and fetches its scraps.
func (v *ScrapbookView) Select(ctx context.Context, categoryID string) error {
	v.mu.Lock()
	known := slices.ContainsFunc(v.catList, func(c domain.Category) bool { return c.ID == categoryID })
	if !known {
		v.mu.Unlock()
		return domain.ErrNotFound
	}
	v.selectedID = categoryID
	v.mu.Unlock()

	return v.loadScraps(ctx)
}

// AddScrap adds a scrap to the selected category and re-fetches its scraps.
func (v *ScrapbookView) AddScrap(ctx context.Context, in ScrapInput) (*domain.Scrap, error) {
	categoryID := v.selected()
	if categoryID == "" {
		return nil, fmt.Errorf("%w: no category selected", domain.ErrPrecondition)
	}
	scrap, err := v.scraps.Add(ctx, v.ident, categoryID, in)
	if err != nil {
		return nil, err
	}
	return scrap, v.loadScraps(ctx)
}

// DeleteScrap deletes a scrap and re-fetches the selected category's scraps.
func (v *ScrapbookView) DeleteScrap(ctx context.Context, scrapID string) error {
	if err := v.scraps.Delete(ctx, v.ident, scrapID); err != nil {
		return err
	}
	return v.loadScraps(ctx)
}

// AddCategory creates a category and re-fetches everything.
func (v *ScrapbookView) AddCategory(ctx context.Context, name string) (*domain.Category, error) {
	category, err := v.categories.Create(ctx, v.ident, name)
	if err != nil {
		return nil, err
	}
	return category, v.Load(ctx)
}

// DeleteCategory deletes categoryID, moving its scraps into targetID, and
// re-fetches everything. A deleted selection falls back to the first
// remaining category.
func (v *ScrapbookView) DeleteCategory(ctx context.Context, categoryID, targetID string) (int, error) {
	moved, err := v.categories.DeleteWithReassignment(ctx, v.ident, categoryID, targetID)
	if err != nil {
		return 0, err
	}
	return moved, v.Load(ctx)
}

// Snapshot copies the current state.
func (v *ScrapbookView) Snapshot() ScrapbookSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return ScrapbookSnapshot{
		State:      v.state,
		Categories: slices.Clone(v.catList),
		SelectedID: v.selectedID,
		Scraps:     slices.Clone(v.scrapList),
		Groups:     OrderedGroups(v.scrapList),
	}
}

func (v *ScrapbookView) selected() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selectedID
}

func (v *ScrapbookView) touch(now time.Time) {
	v.mu.Lock()
	v.lastUsed = now
	v.mu.Unlock()
}

func (v *ScrapbookView) idleSince() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastUsed
}

func (v *ScrapbookView) loadCategories(ctx context.Context) error {
	v.mu.Lock()
	v.categorySeq++
	seq := v.categorySeq
	prev := v.state
	v.state = StateCategoriesLoading
	v.mu.Unlock()

	list, err := v.categories.List(ctx, v.ident)

	v.mu.Lock()
	defer v.mu.Unlock()
	if seq != v.categorySeq {
		return nil
	}
	if err != nil {
		v.state = prev
		return fmt.Errorf("load categories: %w", err)
	}

	v.catList = list
	if !slices.ContainsFunc(list, func(c domain.Category) bool { return c.ID == v.selectedID }) {
		v.selectedID = ""
		if len(list) > 0 {
			v.selectedID = list[0].ID
		}
		v.scrapList = nil
	}
	v.state = StateCategoriesReady
	return nil
}

func (v *ScrapbookView) loadScraps(ctx context.Context) error {
	v.mu.Lock()
	v.scrapSeq++
	seq := v.scrapSeq
	categoryID := v.selectedID
	if categoryID == "" {
		v.scrapList = nil
		v.state = StateCategoriesReady
		v.mu.Unlock()
		return nil
	}
	v.state = StateScrapsLoading
	v.mu.Unlock()

	list, err := v.scraps.ListByCategory(ctx, v.ident, categoryID)

	v.mu.Lock()
	defer v.mu.Unlock()
	if seq != v.scrapSeq {
		return nil
	}
	if err != nil {
		v.state = StateCategoriesReady
		return fmt.Errorf("load scraps: %w", err)
	}

	v.scrapList = list
	v.state = StateScrapsReady
	return nil
}

// ViewRegistry keeps one ScrapbookView per identity and forgets views that
// have been idle longer than its TTL.
type ViewRegistry struct {
	categories CategoryAccessor
	scraps     ScrapAccessor
	idleTTL    time.Duration

	mu    sync.Mutex
	views map[string]*ScrapbookView
}

// NewViewRegistry creates a registry. idleTTL <= 0 means 30 minutes.
func NewViewRegistry(categories CategoryAccessor, scraps ScrapAccessor, idleTTL time.Duration) *ViewRegistry {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	return &ViewRegistry{
		categories: categories,
		scraps:     scraps,
		idleTTL:    idleTTL,
		views:      make(map[string]*ScrapbookView),
	}
}

// Get returns the identity's view, creating it on first use. Idle views of
// other identities are swept on the way.
func (r *ViewRegistry) Get(ident domain.Identity) *ScrapbookView {
	now := time.Now()
	r.Sweep(now)

	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[ident.UserID]
	if !ok {
		v = NewScrapbookView(ident, r.categories, r.scraps)
		r.views[ident.UserID] = v
	}
	v.touch(now)
	return v
}

// Sweep drops views idle at now and returns how many were dropped.
func (r *ViewRegistry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := now.Add(-r.idleTTL)
	n := 0
	for key, v := range r.views {
		if v.idleSince().Before(cutoff) {
			delete(r.views, key)
			n++
		}
	}
	return n
}

// Len returns the number of live views.
func (r *ViewRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}
