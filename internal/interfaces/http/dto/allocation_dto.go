package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/steelerp/backend/internal/domain/allocation"
)

// BatchResponse is one batch row from the stock snapshot.
type BatchResponse struct {
	BatchID            int64           `json:"batchId"`
	BatchNumber        string          `json:"batchNumber"`
	QuantityAvailable  decimal.Decimal `json:"quantityAvailable"`
	UnitCost           decimal.Decimal `json:"unitCost"`
	ProcurementChannel string          `json:"procurementChannel"`
	HeatNumber         string          `json:"heatNumber,omitempty"`
}

// NewBatchResponse converts a domain batch
func NewBatchResponse(b allocation.Batch) BatchResponse {
	return BatchResponse{
		BatchID:            b.ID,
		BatchNumber:        b.BatchNumber,
		QuantityAvailable:  b.QuantityAvailable,
		UnitCost:           b.UnitCost,
		ProcurementChannel: string(b.Channel),
		HeatNumber:         b.HeatNumber,
	}
}

// NewBatchResponses converts a snapshot
func NewBatchResponses(batches []allocation.Batch) []BatchResponse {
	out := make([]BatchResponse, 0, len(batches))
	for _, b := range batches {
		out = append(out, NewBatchResponse(b))
	}
	return out
}

// AllocationPayload is one batch allocation in requests and responses.
type AllocationPayload struct {
	BatchID            int64           `json:"batchId" binding:"required"`
	Quantity           decimal.Decimal `json:"quantity"`
	BatchNumber        string          `json:"batchNumber,omitempty"`
	UnitCost           decimal.Decimal `json:"unitCost"`
	ProcurementChannel string          `json:"procurementChannel,omitempty"`
}

// ToDomain converts the payload to a domain allocation
func (p AllocationPayload) ToDomain() allocation.Allocation {
	return allocation.Allocation{
		BatchID:     p.BatchID,
		Quantity:    p.Quantity,
		BatchNumber: p.BatchNumber,
		UnitCost:    p.UnitCost,
		Channel:     allocation.NormalizeChannel(p.ProcurementChannel),
	}
}

// NewAllocationPayloads converts domain allocations
func NewAllocationPayloads(allocs []allocation.Allocation) []AllocationPayload {
	out := make([]AllocationPayload, 0, len(allocs))
	for _, a := range allocs {
		out = append(out, AllocationPayload{
			BatchID:            a.BatchID,
			Quantity:           a.Quantity,
			BatchNumber:        a.BatchNumber,
			UnitCost:           a.UnitCost,
			ProcurementChannel: string(a.Channel),
		})
	}
	return out
}

// TotalsResponse reports how selections relate to the required quantity.
type TotalsResponse struct {
	Total           decimal.Decimal `json:"total"`
	Required        decimal.Decimal `json:"required"`
	Remaining       decimal.Decimal `json:"remaining"`
	IsComplete      bool            `json:"isComplete"`
	IsOverAllocated bool            `json:"isOverAllocated"`
}

// NewTotalsResponse converts domain totals
func NewTotalsResponse(t allocation.Totals) TotalsResponse {
	return TotalsResponse{
		Total:           t.Total,
		Required:        t.Required,
		Remaining:       t.Remaining,
		IsComplete:      t.IsComplete,
		IsOverAllocated: t.IsOverAllocated,
	}
}

// ProposeRequest asks for a FIFO allocation proposal.
type ProposeRequest struct {
	ProductID        int64           `json:"productId" binding:"required,gt=0"`
	WarehouseID      int64           `json:"warehouseId" binding:"omitempty,gte=0"`
	RequiredQuantity decimal.Decimal `json:"requiredQuantity" binding:"required"`
}

// ProposeResponse is the FIFO proposal for one line item.
type ProposeResponse struct {
	Allocations []AllocationPayload `json:"allocations"`
	Totals      TotalsResponse      `json:"totals"`
}

// ValidateRequest asks for totals over manually entered quantities.
// Selection values are raw text as typed: they may be empty or non-numeric.
type ValidateRequest struct {
	RequiredQuantity decimal.Decimal  `json:"requiredQuantity" binding:"required"`
	Selections       map[int64]string `json:"selections" binding:"required"`
}

// ReallocateRequest submits a batch reallocation for an invoice item.
type ReallocateRequest struct {
	ProductID        int64               `json:"productId" binding:"required,gt=0"`
	WarehouseID      int64               `json:"warehouseId" binding:"omitempty,gte=0"`
	RequiredQuantity decimal.Decimal     `json:"requiredQuantity" binding:"required"`
	Current          []AllocationPayload `json:"current" binding:"required"`
	Selections       map[int64]string    `json:"selections" binding:"required"`
	ReasonCode       string              `json:"reasonCode" binding:"required"`
	Note             string              `json:"note" binding:"max=500"`
	SubmittedBy      string              `json:"submittedBy" binding:"max=64"`
}

// ReallocateResponse carries the ledger's canonical post-commit state.
type ReallocateResponse struct {
	NewAllocations []AllocationPayload `json:"newAllocations"`
	CostVariance   decimal.Decimal     `json:"costVariance"`
}

// ReallocationHistoryEntry is one audit row.
type ReallocationHistoryEntry struct {
	ID           string          `json:"id"`
	CreatedAt    time.Time       `json:"createdAt"`
	ReasonCode   string          `json:"reasonCode"`
	ReasonText   string          `json:"reasonText"`
	Note         string          `json:"note,omitempty"`
	Changes      []ChangePayload `json:"changes"`
	CostVariance decimal.Decimal `json:"costVariance"`
	SubmittedBy  string          `json:"submittedBy,omitempty"`
}

// ChangePayload is one directed change in an audit row.
type ChangePayload struct {
	OldBatchID  int64           `json:"oldBatchId"`
	OldQuantity decimal.Decimal `json:"oldQuantity"`
	NewBatchID  int64           `json:"newBatchId"`
	NewQuantity decimal.Decimal `json:"newQuantity"`
}

// NewReallocationHistoryEntry converts a domain audit entry
func NewReallocationHistoryEntry(e *allocation.ReallocationEntry) ReallocationHistoryEntry {
	changes := make([]ChangePayload, 0, len(e.Changes))
	for _, ch := range e.Changes {
		changes = append(changes, ChangePayload{
			OldBatchID:  ch.OldBatchID,
			OldQuantity: ch.OldQuantity,
			NewBatchID:  ch.NewBatchID,
			NewQuantity: ch.NewQuantity,
		})
	}
	return ReallocationHistoryEntry{
		ID:           e.ID.String(),
		CreatedAt:    e.CreatedAt,
		ReasonCode:   string(e.ReasonCode),
		ReasonText:   e.ReasonCode.Description(),
		Note:         e.Note,
		Changes:      changes,
		CostVariance: e.CostVariance,
		SubmittedBy:  e.SubmittedBy,
	}
}

// ReasonCodeResponse is one selectable reallocation reason.
type ReasonCodeResponse struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
