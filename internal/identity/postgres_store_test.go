//go:build integration

package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekinalp/suirisk/internal/testutil"
)

func TestPostgresIdentityHistory(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))

	for i, score := range []int{35, 62, 88} {
		rec := &RiskIdentity{
			Address:     "0xabc",
			Score:       score,
			Level:       i + 1,
			TimestampMs: int64(1000 * (i + 1)),
			TxDigest:    "0xd1",
		}
		require.NoError(t, store.Create(ctx, rec))
		assert.NotZero(t, rec.ID)
		assert.False(t, rec.CreatedAt.IsZero())
	}

	history, err := store.History(ctx, "0xabc")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 88, history[0].Score)
	assert.Equal(t, 35, history[2].Score)

	other, err := store.History(ctx, "0xdef")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestPostgresIdentityHistoryOutOfOrderTimestamps(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))

	// Insert order does not match mint order; history follows timestamp_ms.
	for _, ts := range []int64{3000, 1000, 2000} {
		require.NoError(t, store.Create(ctx, &RiskIdentity{
			Address:     "0xabc",
			Score:       50,
			Level:       2,
			TimestampMs: ts,
		}))
	}

	history, err := store.History(ctx, "0xabc")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, int64(3000), history[0].TimestampMs)
	assert.Equal(t, int64(2000), history[1].TimestampMs)
	assert.Equal(t, int64(1000), history[2].TimestampMs)
}
