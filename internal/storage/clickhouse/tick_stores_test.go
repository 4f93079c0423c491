package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binary-window-lab/internal/domain"
	"binary-window-lab/internal/storage"
)

func TestOracleTickStore_InsertBulkAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOracleTickStore(conn)
	ctx := context.Background()

	ticks := []*domain.OracleTick{
		{Topic: domain.TopicOracleSettlement, Symbol: "BTC", TimestampMs: 2000, Price: 65001},
		{Topic: domain.TopicOracleReference, Symbol: "BTC", TimestampMs: 1000, Price: 65000},
		{Topic: domain.TopicOracleReference, Symbol: "ETH", TimestampMs: 1000, Price: 3000},
	}
	require.NoError(t, store.InsertBulk(ctx, ticks))

	result, err := store.GetBySymbol(ctx, "BTC")
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, int64(1000), result[0].TimestampMs)
	assert.Equal(t, int64(2000), result[1].TimestampMs)
}

func TestOracleTickStore_GetByTimeRange_Inclusive(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOracleTickStore(conn)
	ctx := context.Background()

	ticks := []*domain.OracleTick{
		{Topic: domain.TopicOracleReference, Symbol: "BTC", TimestampMs: 1000, Price: 1},
		{Topic: domain.TopicOracleReference, Symbol: "BTC", TimestampMs: 2000, Price: 2},
		{Topic: domain.TopicOracleReference, Symbol: "BTC", TimestampMs: 3000, Price: 3},
	}
	require.NoError(t, store.InsertBulk(ctx, ticks))

	result, err := store.GetByTimeRange(ctx, "BTC", 1000, 2000)
	require.NoError(t, err)
	assert.Len(t, result, 2, "both range bounds are inclusive")
}

func TestOracleTickStore_DuplicateKey(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOracleTickStore(conn)
	ctx := context.Background()

	ticks := []*domain.OracleTick{
		{Topic: domain.TopicOracleReference, Symbol: "BTC", TimestampMs: 1000, Price: 1},
	}
	require.NoError(t, store.InsertBulk(ctx, ticks))

	err := store.InsertBulk(ctx, ticks)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestBookSnapshotStore_PrefixMatch(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBookSnapshotStore(conn)
	ctx := context.Background()

	snaps := []*domain.BookSnapshot{
		{Symbol: "BTC-1000", Label: "up", Epoch: "e1", TimestampMs: 1000, BestBid: 0.4, BestAsk: 0.42, BidSize: 100, AskSize: 200},
		{Symbol: "BTC-1000", Label: "down", Epoch: "e1", TimestampMs: 1000, BestBid: 0.56, BestAsk: 0.58, BidSize: 150, AskSize: 250},
		{Symbol: "ETH-1000", Label: "up", Epoch: "e1", TimestampMs: 1000, BestBid: 0.3, BestAsk: 0.32},
	}
	require.NoError(t, store.InsertBulk(ctx, snaps))

	result, err := store.GetBySymbol(ctx, "BTC")
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, 0.42, result[result0Index(result, "up")].BestAsk)
}

// result0Index finds the index of the snapshot with the given label.
func result0Index(snaps []*domain.BookSnapshot, label string) int {
	for i, sn := range snaps {
		if sn.Label == label {
			return i
		}
	}
	return -1
}

func TestBookSnapshotStore_IntraBatchDuplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBookSnapshotStore(conn)
	ctx := context.Background()

	snaps := []*domain.BookSnapshot{
		{Symbol: "BTC-1", Label: "up", TimestampMs: 1000},
		{Symbol: "BTC-1", Label: "up", TimestampMs: 1000},
	}
	err := store.InsertBulk(ctx, snaps)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	result, err := store.GetBySymbol(ctx, "BTC")
	require.NoError(t, err)
	assert.Empty(t, result, "failed batch must not persist")
}

func TestExchangeTickStore_RoundTrip(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewExchangeTickStore(conn)
	ctx := context.Background()

	ticks := []*domain.ExchangeTick{
		{Exchange: "binance", Symbol: "BTC", TimestampMs: 2000, Price: 65000.5},
		{Exchange: "coinbase", Symbol: "BTC", TimestampMs: 1000, Price: 65000.1},
	}
	require.NoError(t, store.InsertBulk(ctx, ticks))

	result, err := store.GetByTimeRange(ctx, "BTC", 0, 5000)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "coinbase", result[0].Exchange)
	assert.Equal(t, 65000.5, result[1].Price)
}
