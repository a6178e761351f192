package datasource

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"madfolio/internal/database"
	"madfolio/internal/modules/statistics"
)

func testStore(t *testing.T) *StoreSource {
	t.Helper()
	db, err := database.New(database.Config{
		Path: filepath.Join(t.TempDir(), "test.db"),
		Name: "test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewStoreSource(db)
	require.NoError(t, err)
	return store
}

func TestStoreSource_RoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	returns, err := statistics.NewReturnsMatrix(
		[]string{"2024-01", "2024-02", "2024-03"},
		[]string{"AAA", "BBB"},
		[][]float64{{1.02, 0.98}, {1.01, 1.00}, {0.99, 1.02}},
	)
	require.NoError(t, err)
	require.NoError(t, store.SaveReturns(ctx, returns))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, returns.Labels(), loaded.Labels())
	assert.Equal(t, returns.AssetNames(), loaded.AssetNames())
	for i := 0; i < returns.Periods(); i++ {
		for j := 0; j < returns.Assets(); j++ {
			assert.Equal(t, returns.At(i, j), loaded.At(i, j))
		}
	}
}

func TestStoreSource_SaveReplaces(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	first, err := statistics.NewReturnsMatrix(
		[]string{"2024-01", "2024-02"},
		[]string{"AAA"},
		[][]float64{{1.02}, {1.01}},
	)
	require.NoError(t, err)
	require.NoError(t, store.SaveReturns(ctx, first))

	second, err := statistics.NewReturnsMatrix(
		[]string{"2025-01", "2025-02"},
		[]string{"BBB", "CCC"},
		[][]float64{{1.0, 1.1}, {1.1, 1.0}},
	)
	require.NoError(t, err)
	require.NoError(t, store.SaveReturns(ctx, second))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01", "2025-02"}, loaded.Labels())
	assert.Equal(t, []string{"BBB", "CCC"}, loaded.AssetNames())
}

func TestStoreSource_Empty(t *testing.T) {
	store := testStore(t)

	_, err := store.Load(context.Background())
	require.ErrorIs(t, err, sql.ErrNoRows)
}
