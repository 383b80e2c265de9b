package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/mining-pool/blockminer/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) (*DB, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	db := NewStorageFromClient(client, "regtest")
	db.now = func() time.Time { return time.Unix(1700000000, 0) }
	return db, s
}

func TestBlockRecordString(t *testing.T) {
	record := &BlockRecord{Hash: "00ab", Height: 840000, Fee: 1500, Weight: 3992, Nonce: 4294967295, Time: 1700000000}
	assert.Equal(t, "840000:1500:3992:4294967295:1700000000", record.String())

	parsed, err := NewBlockRecordFromString("00ab", record.String())
	require.NoError(t, err)
	assert.Equal(t, record, parsed)

	for _, bad := range []string{"", "1:2:3:4", "x:2:3:4:5", "1:2:3:4294967296:5", "1:-2:3:4:5"} {
		_, err := NewBlockRecordFromString("00ab", bad)
		assert.Error(t, err, bad)
	}
}

func TestPutBlock(t *testing.T) {
	db, s := newTestDB(t)
	ctx := context.Background()

	result := &types.BlockResult{BlockHash: "00ab", Height: 7, Fee: 600, Weight: 1500, Nonce: 42}
	require.NoError(t, db.PutBlock(ctx, result))
	require.NoError(t, db.PutBlock(ctx, &types.BlockResult{BlockHash: "00cd", Height: 8, Fee: 10}))

	assert.Equal(t, "7:600:1500:42:1700000000", s.HGet("regtest:blocks", "00ab"))

	pending, err := db.GetBlocks(ctx, Pending)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"00ab", "00cd"}, pending)

	records, err := db.GetBlockRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "00cd", records[0].Hash)
	assert.Equal(t, uint32(42), records[1].Nonce)

	stats, err := db.GetPoolStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &PoolStats{ValidBlocks: 2, TotalFees: 610}, stats)

	ok, err := db.ConfirmBlock(ctx, "00ab")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.KickBlock(ctx, "00ab")
	require.NoError(t, err)
	assert.False(t, ok)

	confirmed, err := db.GetBlocks(ctx, Confirmed)
	require.NoError(t, err)
	assert.Equal(t, []string{"00ab"}, confirmed)
}

func TestPutRejected(t *testing.T) {
	db, s := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.PutRejected(ctx, "00ef", errors.New("merkle root mismatch")))

	assert.Equal(t, "merkle root mismatch", s.HGet("regtest:blocks:rejected", "00ef"))

	stats, err := db.GetPoolStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.InvalidBlocks)
	assert.Equal(t, uint64(0), stats.ValidBlocks)
}

func TestGetPoolStatsEmpty(t *testing.T) {
	db, _ := newTestDB(t)

	stats, err := db.GetPoolStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &PoolStats{}, stats)
}
