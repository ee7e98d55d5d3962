package allocation

import "github.com/shopspring/decimal"

// ProcurementChannel identifies how a batch was sourced. The channel drives
// compliance handling downstream (mill certificates for imported material).
type ProcurementChannel string

const (
	ChannelLocal    ProcurementChannel = "LOCAL"
	ChannelImported ProcurementChannel = "IMPORTED"
)

// NormalizeChannel maps unknown or empty channel strings to ChannelLocal,
// which is the ledger's default for batches received without a channel.
func NormalizeChannel(s string) ProcurementChannel {
	if ProcurementChannel(s) == ChannelImported {
		return ChannelImported
	}
	return ChannelLocal
}

// Batch is a read-only snapshot row from the stock ledger: a discrete lot of
// stock received together, with its own cost and remaining quantity.
// Batches are never mutated here; the allocation core only reads snapshots
// and emits proposed deltas for the ledger to apply.
type Batch struct {
	ID                int64
	BatchNumber       string
	QuantityAvailable decimal.Decimal
	UnitCost          decimal.Decimal
	Channel           ProcurementChannel
	HeatNumber        string
}

// HasStock returns true if the batch has remaining quantity.
func (b Batch) HasStock() bool {
	return b.QuantityAvailable.IsPositive()
}

// TotalValue returns the remaining value of the batch.
func (b Batch) TotalValue() decimal.Decimal {
	return b.QuantityAvailable.Mul(b.UnitCost)
}

// FindBatch returns the batch with the given ID from a snapshot, or false if
// the snapshot does not contain it.
func FindBatch(batches []Batch, id int64) (Batch, bool) {
	for _, b := range batches {
		if b.ID == id {
			return b, true
		}
	}
	return Batch{}, false
}

// Allocation pairs a batch with an allocated quantity. Batch metadata is
// denormalized so display and cost calculation do not need the snapshot.
type Allocation struct {
	BatchID     int64
	Quantity    decimal.Decimal
	BatchNumber string
	UnitCost    decimal.Decimal
	Channel     ProcurementChannel
}

// TotalQuantity sums the allocated quantity across a set of allocations.
func TotalQuantity(allocs []Allocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocs {
		total = total.Add(a.Quantity)
	}
	return total
}

// CostOf sums quantity times unit cost across a set of allocations.
func CostOf(allocs []Allocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocs {
		total = total.Add(a.Quantity.Mul(a.UnitCost))
	}
	return total
}
