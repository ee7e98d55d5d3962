package inventory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/steelerp/backend/internal/domain/allocation"
	"github.com/steelerp/backend/internal/domain/shared"
)

func candidateWarehouses() []Warehouse {
	return []Warehouse{
		{ID: 1, Name: "Main Yard"},
		{ID: 2, Name: "Port Depot"},
		{ID: 3, Name: "North Yard"},
	}
}

// warehouseBatches builds a snapshot whose quantities sum to the given values.
func warehouseBatches(quantities ...int64) []allocation.Batch {
	batches := make([]allocation.Batch, 0, len(quantities))
	for i, q := range quantities {
		batches = append(batches, allocation.Batch{
			ID:                int64(i + 1),
			QuantityAvailable: decimal.NewFromInt(q),
		})
	}
	return batches
}

func TestWarehouseStockAggregator_Availability(t *testing.T) {
	ctx := context.Background()

	t.Run("sums batch availability across warehouses", func(t *testing.T) {
		mockLedger := new(MockLedgerClient)
		aggregator := NewWarehouseStockAggregator(mockLedger, 4, zap.NewNop())

		mockLedger.On("GetAvailableBatches", ctx, int64(7), int64(1)).Return(warehouseBatches(250, 150), nil)
		mockLedger.On("GetAvailableBatches", ctx, int64(7), int64(2)).Return(warehouseBatches(), nil)
		mockLedger.On("GetAvailableBatches", ctx, int64(7), int64(3)).Return(warehouseBatches(250), nil)

		result := aggregator.Availability(ctx, 7, candidateWarehouses())

		require.Len(t, result.Warehouses, 3)
		assert.Equal(t, "Main Yard", result.Warehouses[0].Name)
		assert.True(t, result.Warehouses[0].Available.Equal(decimal.NewFromInt(400)))
		assert.True(t, result.TotalAvailable.Equal(decimal.NewFromInt(650)))
		assert.False(t, result.NoStockAnywhere)
		assert.False(t, result.Degraded)
	})

	t.Run("no stock anywhere fires only when every warehouse is zero", func(t *testing.T) {
		mockLedger := new(MockLedgerClient)
		aggregator := NewWarehouseStockAggregator(mockLedger, 4, zap.NewNop())

		for _, wh := range candidateWarehouses() {
			mockLedger.On("GetAvailableBatches", ctx, int64(7), wh.ID).Return(warehouseBatches(), nil)
		}

		result := aggregator.Availability(ctx, 7, candidateWarehouses())

		assert.True(t, result.NoStockAnywhere)
		assert.True(t, result.TotalAvailable.IsZero())
	})

	t.Run("failed lookup degrades that warehouse to zero", func(t *testing.T) {
		mockLedger := new(MockLedgerClient)
		aggregator := NewWarehouseStockAggregator(mockLedger, 4, zap.NewNop())

		mockLedger.On("GetAvailableBatches", ctx, int64(7), int64(1)).Return(warehouseBatches(400), nil)
		mockLedger.On("GetAvailableBatches", ctx, int64(7), int64(2)).Return(nil, shared.ErrSnapshotUnavailable)
		mockLedger.On("GetAvailableBatches", ctx, int64(7), int64(3)).Return(warehouseBatches(250), nil)

		result := aggregator.Availability(ctx, 7, candidateWarehouses())

		assert.True(t, result.Warehouses[1].Degraded)
		assert.True(t, result.Warehouses[1].Available.IsZero())
		assert.True(t, result.Degraded)
		assert.True(t, result.TotalAvailable.Equal(decimal.NewFromInt(650)))
		assert.False(t, result.NoStockAnywhere)
	})

	t.Run("all lookups failing does not claim confirmed empty stock", func(t *testing.T) {
		mockLedger := new(MockLedgerClient)
		aggregator := NewWarehouseStockAggregator(mockLedger, 4, zap.NewNop())

		for _, wh := range candidateWarehouses() {
			mockLedger.On("GetAvailableBatches", ctx, int64(7), wh.ID).Return(nil, shared.ErrSnapshotUnavailable)
		}

		result := aggregator.Availability(ctx, 7, candidateWarehouses())

		// Every figure degraded to zero, so NoStockAnywhere is technically
		// true but Degraded tells the caller not to trust it.
		assert.True(t, result.NoStockAnywhere)
		assert.True(t, result.Degraded)
	})

	t.Run("no candidate warehouses", func(t *testing.T) {
		aggregator := NewWarehouseStockAggregator(new(MockLedgerClient), 4, zap.NewNop())

		result := aggregator.Availability(ctx, 7, nil)

		assert.Empty(t, result.Warehouses)
		assert.False(t, result.NoStockAnywhere)
	})
}
