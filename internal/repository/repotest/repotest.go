// Package repotest holds a conformance suite every domain.Store backend must pass.
package repotest

import (
	"context"
	"errors"
	"testing"

	"github.com/msomdec/clip/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewStore returns a freshly migrated, empty store owned by t.
type NewStore func(t *testing.T) domain.Store

// Run executes the conformance suite against stores built by newStore.
func Run(t *testing.T, newStore NewStore) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("CategoriesOrderedAndScoped", func(t *testing.T) { testCategoriesOrderedAndScoped(t, newStore(t)) })
	t.Run("CreateManySharesTimestamp", func(t *testing.T) { testCreateMany(t, newStore(t)) })
	t.Run("ScrapsOrderedAndScoped", func(t *testing.T) { testScrapsOrderedAndScoped(t, newStore(t)) })
	t.Run("ScrapRoundTrip", func(t *testing.T) { testScrapRoundTrip(t, newStore(t)) })
	t.Run("ScrapDeleteChecksOwner", func(t *testing.T) { testScrapDelete(t, newStore(t)) })
	t.Run("DeleteWithReassignment", func(t *testing.T) { testDeleteWithReassignment(t, newStore(t)) })
	t.Run("DeleteLastCategoryRejected", func(t *testing.T) { testDeleteLastCategory(t, newStore(t)) })
	t.Run("DeleteRejections", func(t *testing.T) { testDeleteRejections(t, newStore(t)) })
	t.Run("FileStore", func(t *testing.T) { testFileStore(t, newStore(t)) })
}

func mustCategories(t *testing.T, store domain.Store, userID string, names ...string) []*domain.Category {
	t.Helper()
	out := make([]*domain.Category, len(names))
	for i, name := range names {
		out[i] = &domain.Category{UserID: userID, Name: name}
		require.NoError(t, store.Categories().Create(context.Background(), out[i]))
	}
	return out
}

func mustScrap(t *testing.T, store domain.Store, userID, categoryID, url string) *domain.Scrap {
	t.Helper()
	s := &domain.Scrap{
		UserID:     userID,
		CategoryID: categoryID,
		Type:       domain.ScrapTypeLink,
		Data:       domain.ScrapData{URL: url, Title: url},
	}
	require.NoError(t, store.Scraps().Create(context.Background(), s))
	return s
}

func testUsers(t *testing.T, store domain.Store) {
	ctx := context.Background()
	users := store.Users()

	u := &domain.User{Email: "a@example.com", PasswordHash: "hash"}
	require.NoError(t, users.Create(ctx, u))
	require.NotEmpty(t, u.ID)

	err := users.Create(ctx, &domain.User{Email: "a@example.com", PasswordHash: "other"})
	assert.True(t, errors.Is(err, domain.ErrDuplicateEmail), "got %v", err)

	byEmail, err := users.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	flipped, err := users.CompleteOnboarding(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, flipped)

	flipped, err = users.CompleteOnboarding(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, flipped, "onboarding flag flips exactly once")

	byID, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, byID.HasCompletedOnboarding)

	_, err = users.CompleteOnboarding(ctx, "usr-missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)

	_, err = users.GetByID(ctx, "usr-missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)
}

func testCategoriesOrderedAndScoped(t *testing.T, store domain.Store) {
	ctx := context.Background()

	empty, err := store.Categories().ListByUser(ctx, "usr-a")
	require.NoError(t, err)
	assert.Empty(t, empty)

	mustCategories(t, store, "usr-a", "First", "Second", "First")
	mustCategories(t, store, "usr-b", "Other")
	mustCategories(t, store, "usr-a", "Third")

	list, err := store.Categories().ListByUser(ctx, "usr-a")
	require.NoError(t, err)
	require.Len(t, list, 4)

	names := make([]string, len(list))
	for i, c := range list {
		assert.Equal(t, "usr-a", c.UserID)
		names[i] = c.Name
		if i > 0 {
			assert.False(t, c.CreatedAt.Before(list[i-1].CreatedAt), "categories must be ordered by creation time")
		}
	}
	assert.Equal(t, []string{"First", "Second", "First", "Third"}, names)

	count, err := store.Categories().CountByUser(ctx, "usr-a")
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	_, err = store.Categories().GetByID(ctx, "usr-b", list[0].ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "foreign category must not be visible")
}

func testCreateMany(t *testing.T, store domain.Store) {
	ctx := context.Background()
	batch := []*domain.Category{
		{UserID: "usr-a", Name: "Travel"},
		{UserID: "usr-a", Name: "Jobs"},
		{UserID: "usr-a", Name: "Stocks"},
	}
	require.NoError(t, store.Categories().CreateMany(ctx, batch))

	for _, c := range batch {
		assert.NotEmpty(t, c.ID)
		assert.True(t, c.CreatedAt.Equal(batch[0].CreatedAt), "batch must share one timestamp")
	}

	list, err := store.Categories().ListByUser(ctx, "usr-a")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Travel", list[0].Name)
	assert.Equal(t, "Jobs", list[1].Name)
	assert.Equal(t, "Stocks", list[2].Name)
}

func testScrapsOrderedAndScoped(t *testing.T, store domain.Store) {
	ctx := context.Background()
	a := mustCategories(t, store, "usr-a", "A")[0]
	other := mustCategories(t, store, "usr-a", "Other")[0]

	s1 := mustScrap(t, store, "usr-a", a.ID, "https://one.test")
	mustScrap(t, store, "usr-a", other.ID, "https://elsewhere.test")
	s2 := mustScrap(t, store, "usr-a", a.ID, "https://two.test")
	// Same category ID under another user must never leak.
	mustScrap(t, store, "usr-b", a.ID, "https://intruder.test")
	s3 := mustScrap(t, store, "usr-a", a.ID, "https://three.test")

	list, err := store.Scraps().ListByCategory(ctx, "usr-a", a.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)

	for i, s := range list {
		assert.Equal(t, "usr-a", s.UserID)
		assert.Equal(t, a.ID, s.CategoryID)
		if i > 0 {
			assert.False(t, s.CreatedAt.After(list[i-1].CreatedAt), "scraps must be newest first")
		}
	}
	assert.Equal(t, []string{s3.ID, s2.ID, s1.ID}, []string{list[0].ID, list[1].ID, list[2].ID})

	count, err := store.Scraps().CountByCategory(ctx, "usr-a", a.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	none, err := store.Scraps().ListByCategory(ctx, "usr-c", a.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testScrapRoundTrip(t *testing.T, store domain.Store) {
	ctx := context.Background()
	c := mustCategories(t, store, "usr-a", "Reading")[0]

	s := &domain.Scrap{
		UserID:     "usr-a",
		CategoryID: c.ID,
		Type:       domain.ScrapTypeText,
		Data:       domain.ScrapData{URL: "https://memo.test", Title: "A title", Memo: "remember this"},
	}
	require.NoError(t, store.Scraps().Create(ctx, s))
	require.NotEmpty(t, s.ID)
	require.False(t, s.CreatedAt.IsZero())

	list, err := store.Scraps().ListByCategory(ctx, "usr-a", c.ID)
	require.NoError(t, err)

	matches := 0
	for _, got := range list {
		if got.ID == s.ID {
			matches++
			assert.Equal(t, s.Type, got.Type)
			assert.Equal(t, s.Data, got.Data)
		}
	}
	assert.Equal(t, 1, matches, "new scrap must be listed exactly once")

	got, err := store.Scraps().GetByID(ctx, "usr-a", s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Data, got.Data)

	_, err = store.Scraps().GetByID(ctx, "usr-b", s.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)
}

func testScrapDelete(t *testing.T, store domain.Store) {
	ctx := context.Background()
	c := mustCategories(t, store, "usr-a", "A")[0]
	s := mustScrap(t, store, "usr-a", c.ID, "https://keep.test")

	err := store.Scraps().Delete(ctx, "usr-b", s.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "foreign delete must fail, got %v", err)

	_, err = store.Scraps().GetByID(ctx, "usr-a", s.ID)
	require.NoError(t, err, "scrap must survive a foreign delete")

	require.NoError(t, store.Scraps().Delete(ctx, "usr-a", s.ID))

	list, err := store.Scraps().ListByCategory(ctx, "usr-a", c.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	err = store.Scraps().Delete(ctx, "usr-a", s.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)
}

func testDeleteWithReassignment(t *testing.T, store domain.Store) {
	ctx := context.Background()
	cats := mustCategories(t, store, "usr-a", "A", "B")
	a, b := cats[0], cats[1]

	s1 := mustScrap(t, store, "usr-a", a.ID, "https://s1.test")
	s2 := mustScrap(t, store, "usr-a", a.ID, "https://s2.test")
	s3 := mustScrap(t, store, "usr-a", b.ID, "https://s3.test")

	moved, err := store.Categories().DeleteWithReassignment(ctx, "usr-a", a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, moved)

	_, err = store.Categories().GetByID(ctx, "usr-a", a.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "category A must be gone")

	list, err := store.Categories().ListByUser(ctx, "usr-a")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)

	scraps, err := store.Scraps().ListByCategory(ctx, "usr-a", b.ID)
	require.NoError(t, err)
	ids := make([]string, len(scraps))
	for i, s := range scraps {
		assert.Equal(t, b.ID, s.CategoryID)
		ids[i] = s.ID
	}
	assert.ElementsMatch(t, []string{s1.ID, s2.ID, s3.ID}, ids)

	left, err := store.Scraps().ListByCategory(ctx, "usr-a", a.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func testDeleteLastCategory(t *testing.T, store domain.Store) {
	ctx := context.Background()
	c := mustCategories(t, store, "usr-a", "Only")[0]
	s := mustScrap(t, store, "usr-a", c.ID, "https://only.test")

	_, err := store.Categories().DeleteWithReassignment(ctx, "usr-a", c.ID, "cat-nowhere")
	assert.True(t, errors.Is(err, domain.ErrPrecondition), "got %v", err)

	got, err := store.Categories().GetByID(ctx, "usr-a", c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Only", got.Name)

	scraps, err := store.Scraps().ListByCategory(ctx, "usr-a", c.ID)
	require.NoError(t, err)
	require.Len(t, scraps, 1)
	assert.Equal(t, s.ID, scraps[0].ID)
}

func testDeleteRejections(t *testing.T, store domain.Store) {
	ctx := context.Background()
	cats := mustCategories(t, store, "usr-a", "A", "B")
	foreign := mustCategories(t, store, "usr-b", "Theirs")[0]
	s := mustScrap(t, store, "usr-a", cats[0].ID, "https://stay.test")

	_, err := store.Categories().DeleteWithReassignment(ctx, "usr-a", cats[0].ID, cats[0].ID)
	assert.True(t, errors.Is(err, domain.ErrPrecondition), "same target, got %v", err)

	_, err = store.Categories().DeleteWithReassignment(ctx, "usr-a", cats[0].ID, foreign.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "foreign target, got %v", err)

	_, err = store.Categories().DeleteWithReassignment(ctx, "usr-a", foreign.ID, cats[1].ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "foreign source, got %v", err)

	got, err := store.Scraps().GetByID(ctx, "usr-a", s.ID)
	require.NoError(t, err)
	assert.Equal(t, cats[0].ID, got.CategoryID, "rejected delete must not move scraps")

	count, err := store.Categories().CountByUser(ctx, "usr-a")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func testFileStore(t *testing.T, store domain.Store) {
	ctx := context.Background()
	files := store.FileStore()
	key := "scrap_images/usr-a/1700000000000_cat.png"

	require.NoError(t, files.Save(ctx, key, "image/png", []byte{0x89, 'P', 'N', 'G'}))

	data, contentType, err := files.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)

	require.NoError(t, files.Delete(ctx, key))
	_, _, err = files.Get(ctx, key)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)
}
