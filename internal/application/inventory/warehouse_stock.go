package inventory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/steelerp/backend/internal/infrastructure/ledger"
)

// Warehouse is a candidate warehouse for availability checks.
type Warehouse struct {
	ID   int64
	Name string
}

// WarehouseStock is the availability figure for one warehouse. Degraded
// marks figures that fell back to zero because the lookup failed; a
// degraded zero must not be read as confirmed empty stock.
type WarehouseStock struct {
	WarehouseID int64
	Name        string
	Available   decimal.Decimal
	Degraded    bool
}

// AvailabilityResult is the per-warehouse breakdown for one product.
// NoStockAnywhere fires only when every candidate resolved to zero; callers
// use it to switch the document to the drop-ship path.
type AvailabilityResult struct {
	Warehouses      []WarehouseStock
	TotalAvailable  decimal.Decimal
	NoStockAnywhere bool
	Degraded        bool
}

// WarehouseStockAggregator sums availability for a product across candidate
// warehouses.
type WarehouseStockAggregator struct {
	ledger         ledger.Client
	maxConcurrency int
	logger         *zap.Logger
}

// NewWarehouseStockAggregator creates a WarehouseStockAggregator.
func NewWarehouseStockAggregator(ledgerClient ledger.Client, maxConcurrency int, logger *zap.Logger) *WarehouseStockAggregator {
	if maxConcurrency <= 0 {
		maxConcurrency = 8
	}
	return &WarehouseStockAggregator{
		ledger:         ledgerClient,
		maxConcurrency: maxConcurrency,
		logger:         logger,
	}
}

// Availability queries each warehouse concurrently. A failed lookup
// degrades that warehouse to zero without failing the others.
func (a *WarehouseStockAggregator) Availability(ctx context.Context, productID int64, warehouses []Warehouse) AvailabilityResult {
	stocks := make([]WarehouseStock, len(warehouses))

	var wg sync.WaitGroup
	sem := make(chan struct{}, a.maxConcurrency)

	for i, wh := range warehouses {
		wg.Add(1)
		go func(idx int, wh Warehouse) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			stock := WarehouseStock{WarehouseID: wh.ID, Name: wh.Name}
			batches, err := a.ledger.GetAvailableBatches(ctx, productID, wh.ID)
			if err != nil {
				a.logger.Warn("warehouse stock lookup failed",
					zap.Int64("product_id", productID),
					zap.Int64("warehouse_id", wh.ID),
					zap.Error(err))
				stock.Degraded = true
			} else {
				for _, b := range batches {
					stock.Available = stock.Available.Add(b.QuantityAvailable)
				}
			}
			stocks[idx] = stock
		}(i, wh)
	}

	wg.Wait()

	result := AvailabilityResult{Warehouses: stocks}
	allZero := true
	for _, stock := range stocks {
		result.TotalAvailable = result.TotalAvailable.Add(stock.Available)
		if stock.Available.IsPositive() {
			allZero = false
		}
		if stock.Degraded {
			result.Degraded = true
		}
	}
	result.NoStockAnywhere = len(stocks) > 0 && allZero
	return result
}
