package cache

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steelerp/backend/internal/domain/allocation"
)

func sampleBatches() []allocation.Batch {
	return []allocation.Batch{
		{ID: 1, BatchNumber: "B001", QuantityAvailable: decimal.NewFromInt(500), UnitCost: decimal.NewFromFloat(42.50), Channel: allocation.ChannelLocal},
		{ID: 2, BatchNumber: "B002", QuantityAvailable: decimal.NewFromInt(300), UnitCost: decimal.NewFromFloat(43.10), Channel: allocation.ChannelImported},
	}
}

func TestInMemorySnapshotCache(t *testing.T) {
	ctx := context.Background()

	t.Run("miss on empty cache", func(t *testing.T) {
		c := NewInMemorySnapshotCache(time.Minute)
		_, ok := c.Get(ctx, 7, 0)
		assert.False(t, ok)
	})

	t.Run("set then get round-trips", func(t *testing.T) {
		c := NewInMemorySnapshotCache(time.Minute)
		c.Set(ctx, 7, 3, sampleBatches())

		got, ok := c.Get(ctx, 7, 3)
		require.True(t, ok)
		require.Len(t, got, 2)
		assert.Equal(t, int64(1), got[0].ID)
		assert.True(t, got[0].QuantityAvailable.Equal(decimal.NewFromInt(500)))
	})

	t.Run("keys are scoped by product and warehouse", func(t *testing.T) {
		c := NewInMemorySnapshotCache(time.Minute)
		c.Set(ctx, 7, 3, sampleBatches())

		_, ok := c.Get(ctx, 7, 4)
		assert.False(t, ok)
		_, ok = c.Get(ctx, 8, 3)
		assert.False(t, ok)
	})

	t.Run("expired entries miss", func(t *testing.T) {
		c := NewInMemorySnapshotCache(time.Minute)
		c.Set(ctx, 7, 0, sampleBatches())

		c.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
		_, ok := c.Get(ctx, 7, 0)
		assert.False(t, ok)
	})

	t.Run("invalidate removes the entry", func(t *testing.T) {
		c := NewInMemorySnapshotCache(time.Minute)
		c.Set(ctx, 7, 0, sampleBatches())
		c.Invalidate(ctx, 7, 0)

		_, ok := c.Get(ctx, 7, 0)
		assert.False(t, ok)
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		c := NewInMemorySnapshotCache(time.Minute)
		c.Set(ctx, 7, 0, sampleBatches())

		got, ok := c.Get(ctx, 7, 0)
		require.True(t, ok)
		got[0].QuantityAvailable = decimal.Zero

		again, ok := c.Get(ctx, 7, 0)
		require.True(t, ok)
		assert.True(t, again[0].QuantityAvailable.Equal(decimal.NewFromInt(500)))
	})
}
