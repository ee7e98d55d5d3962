package allocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/steelerp/backend/internal/domain/allocation"
	"github.com/steelerp/backend/internal/domain/shared"
	"github.com/steelerp/backend/internal/infrastructure/cache"
	"github.com/steelerp/backend/internal/infrastructure/ledger"
)

// MockReallocationRepository is a mock implementation of allocation.ReallocationRepository
type MockReallocationRepository struct {
	mock.Mock
}

func (m *MockReallocationRepository) Save(ctx context.Context, entry *allocation.ReallocationEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockReallocationRepository) FindByInvoiceItem(ctx context.Context, invoiceItemID int64) ([]*allocation.ReallocationEntry, error) {
	args := m.Called(ctx, invoiceItemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*allocation.ReallocationEntry), args.Error(1)
}

func submitRequest() SubmitRequest {
	current := []allocation.Allocation{
		{BatchID: 1, Quantity: decimal.NewFromInt(50), UnitCost: decimal.NewFromFloat(42.50)},
		{BatchID: 2, Quantity: decimal.NewFromInt(75), UnitCost: decimal.NewFromFloat(43.10)},
	}
	proposed := make(allocation.Selections)
	proposed.SetQuantity(2, decimal.NewFromInt(75))
	proposed.SetQuantity(3, decimal.NewFromInt(50))

	return SubmitRequest{
		InvoiceItemID:    99,
		ProductID:        7,
		WarehouseID:      3,
		RequiredQuantity: decimal.NewFromInt(125),
		Current:          current,
		Proposed:         proposed,
		ReasonCode:       allocation.ReasonQualityIssue,
		Note:             "surface rust on batch B001",
		SubmittedBy:      "operator-12",
	}
}

func reallocationBatches() []allocation.Batch {
	return []allocation.Batch{
		{ID: 2, BatchNumber: "B002", QuantityAvailable: decimal.NewFromInt(300), UnitCost: decimal.NewFromFloat(43.10)},
		{ID: 3, BatchNumber: "B003", QuantityAvailable: decimal.NewFromInt(200), UnitCost: decimal.NewFromFloat(41.80)},
	}
}

func serverAllocations() []allocation.Allocation {
	return []allocation.Allocation{
		{BatchID: 2, Quantity: decimal.NewFromInt(75), BatchNumber: "B002", UnitCost: decimal.NewFromFloat(43.10)},
		{BatchID: 3, Quantity: decimal.NewFromInt(50), BatchNumber: "B003", UnitCost: decimal.NewFromFloat(41.80)},
	}
}

func TestReallocationService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("validation gates run before any network call", func(t *testing.T) {
		cases := []struct {
			name    string
			mutate  func(*SubmitRequest)
			wantErr error
		}{
			{
				"missing reason code",
				func(r *SubmitRequest) { r.ReasonCode = "" },
				shared.ErrInvalidReasonCode,
			},
			{
				"unknown reason code",
				func(r *SubmitRequest) { r.ReasonCode = "BECAUSE" },
				shared.ErrInvalidReasonCode,
			},
			{
				"incomplete allocation",
				func(r *SubmitRequest) { r.RequiredQuantity = decimal.NewFromInt(200) },
				shared.ErrIncompleteAllocation,
			},
			{
				"no changes",
				func(r *SubmitRequest) { r.Proposed = allocation.SelectionsFromAllocations(r.Current) },
				shared.ErrNoChangesDetected,
			},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				mockLedger := new(MockLedgerClient)
				service := NewReallocationService(mockLedger, cache.NewInMemorySnapshotCache(time.Minute), &allocation.SnapshotSession{}, nil, zap.NewNop())

				req := submitRequest()
				tc.mutate(&req)

				_, err := service.Submit(ctx, req)
				assert.True(t, errors.Is(err, tc.wantErr))
				mockLedger.AssertNotCalled(t, "SubmitReallocation", mock.Anything, mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("successful submission adopts server allocations verbatim", func(t *testing.T) {
		mockLedger := new(MockLedgerClient)
		mockAudit := new(MockReallocationRepository)
		snapshotCache := cache.NewInMemorySnapshotCache(time.Minute)
		snapshotCache.Set(ctx, 7, 3, reallocationBatches())
		service := NewReallocationService(mockLedger, snapshotCache, &allocation.SnapshotSession{}, mockAudit, zap.NewNop())

		mockLedger.On("SubmitReallocation", ctx, int64(99), mock.MatchedBy(func(req ledger.ReallocationRequest) bool {
			return len(req.Changes) == 2 &&
				req.Changes[0].OldBatchID == 1 &&
				req.Changes[1].NewBatchID == 3 &&
				req.ReasonCode == allocation.ReasonQualityIssue
		})).Return(ledger.ReallocationResult{Success: true, NewAllocations: serverAllocations()}, nil)
		mockAudit.On("Save", ctx, mock.AnythingOfType("*allocation.ReallocationEntry")).Return(nil)

		result, err := service.Submit(ctx, submitRequest())
		require.NoError(t, err)

		require.Len(t, result.NewAllocations, 2)
		assert.Equal(t, serverAllocations(), result.NewAllocations)
		// 50*41.80 - 50*42.50
		assert.True(t, result.CostVariance.Equal(decimal.NewFromFloat(-35)))

		// Snapshot cache for the product was invalidated on commit
		_, ok := snapshotCache.Get(ctx, 7, 3)
		assert.False(t, ok)

		mockAudit.AssertExpectations(t)
		mockLedger.AssertExpectations(t)
	})

	t.Run("commit starts a new snapshot generation", func(t *testing.T) {
		mockLedger := new(MockLedgerClient)
		snapshotCache := cache.NewInMemorySnapshotCache(time.Minute)
		snapshotCache.Set(ctx, 7, 3, reallocationBatches())
		session := &allocation.SnapshotSession{}
		service := NewReallocationService(mockLedger, snapshotCache, session, nil, zap.NewNop())

		mockLedger.On("SubmitReallocation", ctx, int64(99), mock.Anything).
			Return(ledger.ReallocationResult{Success: true, NewAllocations: serverAllocations()}, nil)

		gen := session.Generation()
		_, err := service.Submit(ctx, submitRequest())
		require.NoError(t, err)

		// Snapshot fetches tagged before the commit are now stale.
		assert.False(t, session.Current(gen))
	})

	t.Run("ledger rejection surfaces the message verbatim", func(t *testing.T) {
		mockLedger := new(MockLedgerClient)
		snapshotCache := cache.NewInMemorySnapshotCache(time.Minute)
		snapshotCache.Set(ctx, 7, 3, reallocationBatches())
		service := NewReallocationService(mockLedger, snapshotCache, &allocation.SnapshotSession{}, nil, zap.NewNop())

		mockLedger.On("SubmitReallocation", ctx, int64(99), mock.Anything).
			Return(ledger.ReallocationResult{Success: false, Message: "batch 3 no longer has 50 units available"}, nil)

		_, err := service.Submit(ctx, submitRequest())
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrRemoteRejected))
		assert.Contains(t, err.Error(), "batch 3 no longer has 50 units available")

		// Cache keeps its snapshot, nothing was committed
		_, ok := snapshotCache.Get(ctx, 7, 3)
		assert.True(t, ok)
	})

	t.Run("audit write failure does not fail the submission", func(t *testing.T) {
		mockLedger := new(MockLedgerClient)
		mockAudit := new(MockReallocationRepository)
		snapshotCache := cache.NewInMemorySnapshotCache(time.Minute)
		snapshotCache.Set(ctx, 7, 3, reallocationBatches())
		service := NewReallocationService(mockLedger, snapshotCache, &allocation.SnapshotSession{}, mockAudit, zap.NewNop())

		mockLedger.On("SubmitReallocation", ctx, int64(99), mock.Anything).
			Return(ledger.ReallocationResult{Success: true, NewAllocations: serverAllocations()}, nil)
		mockAudit.On("Save", ctx, mock.Anything).Return(errors.New("db down"))

		result, err := service.Submit(ctx, submitRequest())
		require.NoError(t, err)
		assert.Len(t, result.NewAllocations, 2)
	})

	t.Run("cost variance degrades to zero when no snapshot is available", func(t *testing.T) {
		mockLedger := new(MockLedgerClient)
		service := NewReallocationService(mockLedger, cache.NewInMemorySnapshotCache(time.Minute), &allocation.SnapshotSession{}, nil, zap.NewNop())

		mockLedger.On("GetAvailableBatches", ctx, int64(7), int64(3)).Return(nil, shared.ErrSnapshotUnavailable)
		mockLedger.On("SubmitReallocation", ctx, int64(99), mock.Anything).
			Return(ledger.ReallocationResult{Success: true, NewAllocations: serverAllocations()}, nil)

		result, err := service.Submit(ctx, submitRequest())
		require.NoError(t, err)
		assert.True(t, result.CostVariance.IsZero())
	})
}

func TestReallocationService_History(t *testing.T) {
	ctx := context.Background()

	t.Run("returns audit entries", func(t *testing.T) {
		mockAudit := new(MockReallocationRepository)
		service := NewReallocationService(nil, cache.NewInMemorySnapshotCache(time.Minute), &allocation.SnapshotSession{}, mockAudit, zap.NewNop())

		entries := []*allocation.ReallocationEntry{
			allocation.NewReallocationEntry(99, 7, allocation.ReasonEntryError, "", nil, decimal.Zero, "operator-12"),
		}
		mockAudit.On("FindByInvoiceItem", ctx, int64(99)).Return(entries, nil)

		got, err := service.History(ctx, 99)
		require.NoError(t, err)
		assert.Equal(t, entries, got)
	})

	t.Run("nil repository yields empty history", func(t *testing.T) {
		service := NewReallocationService(nil, cache.NewInMemorySnapshotCache(time.Minute), &allocation.SnapshotSession{}, nil, zap.NewNop())

		got, err := service.History(ctx, 99)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
