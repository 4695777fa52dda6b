package service_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/msomdec/clip/internal/domain"
	"github.com/msomdec/clip/internal/repository/sqlite"
	"github.com/msomdec/clip/internal/service"
)

func newTestCategoryService(t *testing.T) (*service.CategoryService, *service.ScrapService, *sqlite.DB) {
	t.Helper()
	db := newTestDB(t)
	broker := service.NewBroker(nil)
	t.Cleanup(broker.Close)
	categories := service.NewCategoryService(db.Categories(), db.Users(), broker)
	scraps := service.NewScrapService(db.Scraps(), db.Categories(), db.FileStore(), broker)
	return categories, scraps, db
}

func seedUserForTest(t *testing.T, db *sqlite.DB, email string) domain.Identity {
	t.Helper()
	user := &domain.User{Email: email, PasswordHash: "hash"}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return domain.Identity{UserID: user.ID}
}

func anonymousIdentity(id string) domain.Identity {
	return domain.Identity{UserID: id, Anonymous: true}
}

func TestCategoryService_Create_TrimsAndAllowsDuplicates(t *testing.T) {
	svc, _, _ := newTestCategoryService(t)
	ctx := context.Background()
	ident := anonymousIdentity("anon-1")

	first, err := svc.Create(ctx, ident, "  Travel  ")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.Name != "Travel" {
		t.Fatalf("expected trimmed name, got %q", first.Name)
	}
	if _, err := svc.Create(ctx, ident, "Travel"); err != nil {
		t.Fatalf("duplicate Create: %v", err)
	}

	list, err := svc.List(ctx, ident)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(list))
	}
}

func TestCategoryService_Create_Validation(t *testing.T) {
	svc, _, _ := newTestCategoryService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, anonymousIdentity("anon-1"), "   "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank name, got %v", err)
	}
	if _, err := svc.Create(ctx, domain.Identity{}, "Travel"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for missing identity, got %v", err)
	}
}

func TestCategoryService_List_EmptyIsNotAnError(t *testing.T) {
	svc, _, _ := newTestCategoryService(t)

	list, err := svc.List(context.Background(), anonymousIdentity("anon-empty"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty non-nil list, got %v", list)
	}
}

func TestCategoryService_CreateInitial(t *testing.T) {
	svc, _, db := newTestCategoryService(t)
	ctx := context.Background()
	ident := seedUserForTest(t, db, "init@example.com")

	created, err := svc.CreateInitial(ctx, ident, []string{"여행", " 알바 ", "여행", "주식"})
	if err != nil {
		t.Fatalf("CreateInitial: %v", err)
	}

	var names []string
	for _, c := range created {
		names = append(names, c.Name)
		if !c.CreatedAt.Equal(created[0].CreatedAt) {
			t.Fatalf("expected shared timestamp, got %v and %v", c.CreatedAt, created[0].CreatedAt)
		}
	}
	if !slices.Equal(names, []string{"여행", "알바", "주식"}) {
		t.Fatalf("unexpected names %v", names)
	}

	user, err := db.Users().GetByID(ctx, ident.UserID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !user.HasCompletedOnboarding {
		t.Fatal("expected onboarding to be complete")
	}
}

func TestCategoryService_CreateInitial_AllOrNothing(t *testing.T) {
	svc, _, _ := newTestCategoryService(t)
	ctx := context.Background()
	ident := anonymousIdentity("anon-batch")

	_, err := svc.CreateInitial(ctx, ident, []string{"Travel", ""})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.CreateInitial(ctx, ident, nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty batch, got %v", err)
	}

	list, _ := svc.List(ctx, ident)
	if len(list) != 0 {
		t.Fatalf("expected no categories after rejected batch, got %d", len(list))
	}
}

func TestCategoryService_DeleteWithReassignment(t *testing.T) {
	categories, scraps, _ := newTestCategoryService(t)
	ctx := context.Background()
	ident := anonymousIdentity("anon-del")

	a, _ := categories.Create(ctx, ident, "A")
	b, _ := categories.Create(ctx, ident, "B")
	for _, u := range []string{"https://one.example", "https://two.example"} {
		if _, err := scraps.Add(ctx, ident, a.ID, service.ScrapInput{URL: u}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if _, err := scraps.Add(ctx, ident, b.ID, service.ScrapInput{URL: "https://three.example"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	moved, err := categories.DeleteWithReassignment(ctx, ident, a.ID, b.ID)
	if err != nil {
		t.Fatalf("DeleteWithReassignment: %v", err)
	}
	if moved != 2 {
		t.Fatalf("expected 2 moved, got %d", moved)
	}

	if _, err := categories.Get(ctx, ident, a.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected deleted category to be gone, got %v", err)
	}
	list, err := scraps.ListByCategory(ctx, ident, b.ID)
	if err != nil {
		t.Fatalf("ListByCategory: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 scraps in target, got %d", len(list))
	}
}

func TestCategoryService_DeleteWithReassignment_Rejections(t *testing.T) {
	categories, _, _ := newTestCategoryService(t)
	ctx := context.Background()
	ident := anonymousIdentity("anon-rej")

	only, _ := categories.Create(ctx, ident, "Only")

	if _, err := categories.DeleteWithReassignment(ctx, ident, only.ID, only.ID); !errors.Is(err, domain.ErrPrecondition) {
		t.Fatalf("expected ErrPrecondition for same target, got %v", err)
	}
	if _, err := categories.DeleteWithReassignment(ctx, ident, only.ID, "cat-missing"); !errors.Is(err, domain.ErrPrecondition) {
		t.Fatalf("expected ErrPrecondition for last category, got %v", err)
	}
	if _, err := categories.DeleteWithReassignment(ctx, ident, only.ID, ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing target, got %v", err)
	}

	list, _ := categories.List(ctx, ident)
	if len(list) != 1 {
		t.Fatalf("expected category to survive rejected deletes, got %d", len(list))
	}
}

func TestCategoryService_AvailableDefaults(t *testing.T) {
	svc, _, _ := newTestCategoryService(t)
	ctx := context.Background()
	ident := anonymousIdentity("anon-defaults")

	if _, err := svc.Create(ctx, ident, "여행"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	available, err := svc.AvailableDefaults(ctx, ident)
	if err != nil {
		t.Fatalf("AvailableDefaults: %v", err)
	}
	if slices.Contains(available, "여행") {
		t.Fatal("expected existing name to be excluded")
	}
	if len(available) != len(service.DefaultCategoryNames)-1 {
		t.Fatalf("expected %d defaults, got %v", len(service.DefaultCategoryNames)-1, available)
	}
}

func TestCategoryService_PublishesChanges(t *testing.T) {
	db := newTestDB(t)
	broker := service.NewBroker(nil)
	defer broker.Close()
	svc := service.NewCategoryService(db.Categories(), db.Users(), broker)
	ident := anonymousIdentity("anon-events")

	events, cancel := broker.Subscribe(ident.UserID)
	defer cancel()

	if _, err := svc.Create(context.Background(), ident, "Travel"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Kind != service.ChangeCategories {
			t.Fatalf("expected categories event, got %s", ev.Kind)
		}
	default:
		t.Fatal("expected an event to be published synchronously")
	}
}
