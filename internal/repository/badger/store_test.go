package badger_test

import (
	"context"
	"testing"

	"github.com/msomdec/clip/internal/domain"
	"github.com/msomdec/clip/internal/repository/badger"
	"github.com/msomdec/clip/internal/repository/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *badger.Store {
	t.Helper()
	store, err := badger.OpenInMemory(nil)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreConformance(t *testing.T) {
	repotest.Run(t, func(t *testing.T) domain.Store {
		return setupTestStore(t)
	})
}

func TestMigrate_Idempotent(t *testing.T) {
	store := setupTestStore(t)
	assert.NoError(t, store.Migrate(context.Background()))
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := badger.Open(dir, nil)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))

	c := &domain.Category{UserID: "usr-a", Name: "Travel"}
	require.NoError(t, store.Categories().Create(ctx, c))
	require.NoError(t, store.Close())

	reopened, err := badger.Open(dir, nil)
	require.NoError(t, err)
	defer reopened.Close()
	require.NoError(t, reopened.Migrate(ctx))

	// Records created after reopening must still sort after older ones.
	later := &domain.Category{UserID: "usr-a", Name: "Jobs"}
	require.NoError(t, reopened.Categories().Create(ctx, later))

	list, err := reopened.Categories().ListByUser(ctx, "usr-a")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, c.ID, list[0].ID)
	assert.Equal(t, later.ID, list[1].ID)
}
