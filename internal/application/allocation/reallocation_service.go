package allocation

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/steelerp/backend/internal/domain/allocation"
	"github.com/steelerp/backend/internal/domain/shared"
	"github.com/steelerp/backend/internal/infrastructure/cache"
	"github.com/steelerp/backend/internal/infrastructure/ledger"
)

// ReallocationService moves committed allocations between batches. The
// ledger stays authoritative: this side validates, submits the minimal
// change set, and adopts whatever allocation state the ledger returns.
type ReallocationService struct {
	ledger  ledger.Client
	cache   cache.SnapshotCache
	session *allocation.SnapshotSession
	audit   allocation.ReallocationRepository
	logger  *zap.Logger
}

// NewReallocationService creates a new ReallocationService. The session is
// the one shared with the AllocationService reading the same cache. The
// audit repository may be nil when no audit store is configured.
func NewReallocationService(ledgerClient ledger.Client, snapshotCache cache.SnapshotCache, session *allocation.SnapshotSession, audit allocation.ReallocationRepository, logger *zap.Logger) *ReallocationService {
	return &ReallocationService{
		ledger:  ledgerClient,
		cache:   snapshotCache,
		session: session,
		audit:   audit,
		logger:  logger,
	}
}

// SubmitRequest describes one reallocation submission.
type SubmitRequest struct {
	InvoiceItemID    int64
	ProductID        int64
	WarehouseID      int64
	RequiredQuantity decimal.Decimal
	Current          []allocation.Allocation
	Proposed         allocation.Selections
	ReasonCode       allocation.ReasonCode
	Note             string
	SubmittedBy      string
}

// SubmitResult carries the ledger's canonical post-commit state.
type SubmitResult struct {
	NewAllocations []allocation.Allocation
	Changes        []allocation.Change
	CostVariance   decimal.Decimal
}

// Submit validates and submits a reallocation. All gates run before any
// network call: the reason code must be one of the enumerated values, the
// proposed quantities must fully cover the required quantity, and the change
// set must be non-empty. On ledger rejection the ledger's message is
// preserved verbatim in the returned error.
func (s *ReallocationService) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	if !req.ReasonCode.Valid() {
		return SubmitResult{}, shared.ErrInvalidReasonCode
	}

	totals := allocation.ComputeTotals(req.Proposed, req.RequiredQuantity)
	if !totals.IsComplete {
		return SubmitResult{}, shared.ErrIncompleteAllocation
	}

	changes := allocation.Diff(req.Current, req.Proposed)
	if len(changes) == 0 {
		return SubmitResult{}, shared.ErrNoChangesDetected
	}

	costVariance := s.costVariance(ctx, req)

	result, err := s.ledger.SubmitReallocation(ctx, req.InvoiceItemID, ledger.ReallocationRequest{
		Changes:     changes,
		ReasonCode:  req.ReasonCode,
		Note:        req.Note,
		SubmittedBy: req.SubmittedBy,
	})
	if err != nil {
		return SubmitResult{}, err
	}
	if !result.Success {
		return SubmitResult{}, fmt.Errorf("%w: %s", shared.ErrRemoteRejected, result.Message)
	}

	// The ledger has committed; everything below is best-effort. Starting a
	// new generation before invalidating keeps snapshot fetches that were in
	// flight across the commit from writing pre-commit state back into the
	// freshly cleared key.
	s.session.Begin()
	s.cache.Invalidate(ctx, req.ProductID, req.WarehouseID)
	s.writeAudit(ctx, req, changes, costVariance)

	return SubmitResult{
		NewAllocations: result.NewAllocations,
		Changes:        changes,
		CostVariance:   costVariance,
	}, nil
}

// History returns the audit trail for an invoice item, newest first.
func (s *ReallocationService) History(ctx context.Context, invoiceItemID int64) ([]*allocation.ReallocationEntry, error) {
	if s.audit == nil {
		return nil, nil
	}
	return s.audit.FindByInvoiceItem(ctx, invoiceItemID)
}

// costVariance is informational only. A failed snapshot fetch degrades the
// figure to zero rather than blocking the submission.
func (s *ReallocationService) costVariance(ctx context.Context, req SubmitRequest) decimal.Decimal {
	batches, ok := s.cache.Get(ctx, req.ProductID, req.WarehouseID)
	if !ok {
		var err error
		batches, err = s.ledger.GetAvailableBatches(ctx, req.ProductID, req.WarehouseID)
		if err != nil {
			s.logger.Warn("cost variance unavailable, snapshot fetch failed",
				zap.Int64("invoice_item_id", req.InvoiceItemID),
				zap.Error(err))
			return decimal.Zero
		}
	}
	return allocation.CostVariance(req.Current, req.Proposed, batches)
}

func (s *ReallocationService) writeAudit(ctx context.Context, req SubmitRequest, changes []allocation.Change, costVariance decimal.Decimal) {
	if s.audit == nil {
		return
	}
	entry := allocation.NewReallocationEntry(
		req.InvoiceItemID, req.ProductID,
		req.ReasonCode, req.Note,
		changes, costVariance, req.SubmittedBy,
	)
	if err := s.audit.Save(ctx, entry); err != nil {
		// Server state already changed, so the failure is logged, not returned.
		s.logger.Error("failed to write reallocation audit entry",
			zap.Int64("invoice_item_id", req.InvoiceItemID),
			zap.Error(err))
	}
}
