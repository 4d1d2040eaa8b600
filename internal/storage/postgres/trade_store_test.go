package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tick-feature-lab/internal/domain"
	"tick-feature-lab/internal/storage"
)

func TestTradeStore_InsertBulkAndGetBySymbol(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	trades := []domain.Transaction{
		{Symbol: "ES", Timestamp: 1700000002000, Seq: 0, Price: 4501.25, Size: 3},
		{Symbol: "ES", Timestamp: 1700000001000, Seq: 1, Price: 4500.50, Size: 1},
		{Symbol: "ES", Timestamp: 1700000001000, Seq: 0, Price: 4500.00, Size: 2},
		{Symbol: "NQ", Timestamp: 1700000001500, Seq: 0, Price: 15000.0, Size: 7},
	}

	err := store.InsertBulk(ctx, trades)
	require.NoError(t, err)

	got, err := store.GetBySymbol(ctx, "ES")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, 4500.00, got[0].Price)
	assert.Equal(t, int64(1), got[1].Seq)
	assert.Equal(t, uint32(3), got[2].Size)
}

func TestTradeStore_InsertBulk_DuplicateRollsBack(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	err := store.InsertBulk(ctx, []domain.Transaction{
		{Symbol: "ES", Timestamp: 1000, Seq: 0, Price: 1, Size: 1},
	})
	require.NoError(t, err)

	err = store.InsertBulk(ctx, []domain.Transaction{
		{Symbol: "ES", Timestamp: 2000, Seq: 0, Price: 2, Size: 1},
		{Symbol: "ES", Timestamp: 1000, Seq: 0, Price: 3, Size: 1},
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetBySymbol(ctx, "ES")
	require.NoError(t, err)
	assert.Len(t, got, 1, "failed batch must not be partially applied")
}

func TestTradeStore_GetByTimeRangeAndListSymbols(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	err := store.InsertBulk(ctx, []domain.Transaction{
		{Symbol: "NQ", Timestamp: 1000, Price: 1, Size: 1},
		{Symbol: "ES", Timestamp: 1000, Price: 1, Size: 1},
		{Symbol: "ES", Timestamp: 2000, Price: 2, Size: 1},
		{Symbol: "ES", Timestamp: 3000, Price: 3, Size: 1},
	})
	require.NoError(t, err)

	got, err := store.GetByTimeRange(ctx, "ES", 1000, 2000)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2000), got[1].Timestamp)

	symbols, err := store.ListSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ES", "NQ"}, symbols)
}

func TestProgressStore_Upsert(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewProgressStore(pool)

	_, err := store.GetLastIngested(ctx, "ES")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.SetLastIngested(ctx, &storage.IngestProgress{Symbol: "ES", Timestamp: 1000, Seq: 4}))
	require.NoError(t, store.SetLastIngested(ctx, &storage.IngestProgress{Symbol: "ES", Timestamp: 2000, Seq: 1}))

	got, err := store.GetLastIngested(ctx, "ES")
	require.NoError(t, err)
	assert.Equal(t, int64(2000), got.Timestamp)
	assert.Equal(t, int64(1), got.Seq)

	err = store.SetLastIngested(ctx, &storage.IngestProgress{})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
