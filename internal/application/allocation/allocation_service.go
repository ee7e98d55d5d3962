package allocation

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/steelerp/backend/internal/domain/allocation"
	"github.com/steelerp/backend/internal/domain/shared"
	"github.com/steelerp/backend/internal/infrastructure/cache"
	"github.com/steelerp/backend/internal/infrastructure/ledger"
)

// AllocationService serves batch snapshots and allocation proposals for
// invoice line items. Snapshots come from the stock ledger through a short
// TTL cache; all allocation arithmetic is done by the domain engine.
type AllocationService struct {
	ledger  ledger.Client
	cache   cache.SnapshotCache
	session *allocation.SnapshotSession
	logger  *zap.Logger
}

// NewAllocationService creates a new AllocationService. The session must be
// shared with the ReallocationService operating on the same cache so that a
// commit invalidates in-flight snapshot fetches.
func NewAllocationService(ledgerClient ledger.Client, snapshotCache cache.SnapshotCache, session *allocation.SnapshotSession, logger *zap.Logger) *AllocationService {
	return &AllocationService{
		ledger:  ledgerClient,
		cache:   snapshotCache,
		session: session,
		logger:  logger,
	}
}

// ProposeResult is a FIFO allocation proposal for one line item.
type ProposeResult struct {
	Allocations []allocation.Allocation
	Totals      allocation.Totals
}

// AvailableBatches returns the open batches for a product, oldest first.
// An empty result is a valid state (the product has no batched stock); a
// ledger failure surfaces as ErrSnapshotUnavailable.
func (s *AllocationService) AvailableBatches(ctx context.Context, productID, warehouseID int64) ([]allocation.Batch, error) {
	if batches, ok := s.cache.Get(ctx, productID, warehouseID); ok {
		return batches, nil
	}

	gen := s.session.Generation()
	batches, err := s.ledger.GetAvailableBatches(ctx, productID, warehouseID)
	if err != nil {
		s.logger.Warn("batch snapshot fetch failed",
			zap.Int64("product_id", productID),
			zap.Int64("warehouse_id", warehouseID),
			zap.Error(err))
		return nil, err
	}

	// A reallocation may have committed while this fetch was in flight.
	// Caching a pre-commit snapshot would re-poison the key for a full TTL,
	// so a stale generation returns the result without storing it.
	if s.session.Current(gen) {
		s.cache.Set(ctx, productID, warehouseID, batches)
	}
	return batches, nil
}

// Propose builds a FIFO proposal covering the required quantity. When the
// product has no open batches at all, ErrNoBatchesAvailable distinguishes
// that from a failed snapshot so callers can offer the drop-ship path
// instead of a retry.
func (s *AllocationService) Propose(ctx context.Context, productID, warehouseID int64, requiredQty decimal.Decimal) (ProposeResult, error) {
	batches, err := s.AvailableBatches(ctx, productID, warehouseID)
	if err != nil {
		return ProposeResult{}, err
	}
	if len(batches) == 0 {
		return ProposeResult{}, shared.ErrNoBatchesAvailable
	}

	selections := allocation.AutoFillFIFO(batches, requiredQty)
	return ProposeResult{
		Allocations: allocation.FromSelections(selections, batches),
		Totals:      allocation.ComputeTotals(selections, requiredQty),
	}, nil
}

// Validate evaluates raw per-batch quantity entries against the required
// quantity. Entries still being edited arrive as empty strings and count as
// zero; unparseable text also counts as zero. Pure calculation, no ledger
// round trip.
func (s *AllocationService) Validate(entries map[int64]string, requiredQty decimal.Decimal) allocation.Totals {
	selections := make(allocation.Selections, len(entries))
	for batchID, raw := range entries {
		selections.Set(batchID, raw)
	}
	return allocation.ComputeTotals(selections, requiredQty)
}
