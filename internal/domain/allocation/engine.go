package allocation

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Tolerance is the rounding slack for quantity comparisons. Ledger quantities
// carry up to four decimal places; anything within a hundredth of a unit is
// treated as equal.
var Tolerance = decimal.NewFromFloat(0.01)

// Selections holds per-batch quantities entered for a line item. A batch may
// map to an "empty" value while the field is being edited; empty is preserved
// rather than coerced to zero so the caller can distinguish "cleared" from
// "zero", but it always sums as zero.
type Selections map[int64]SelectionValue

// SelectionValue is a quantity entry that may be empty.
type SelectionValue struct {
	Quantity decimal.Decimal
	Empty    bool
}

// Set parses a raw quantity entry for a batch. An empty string is preserved
// as empty; text that does not parse as a number coerces to zero.
func (s Selections) Set(batchID int64, raw string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		s[batchID] = SelectionValue{Empty: true}
		return
	}
	qty, err := decimal.NewFromString(raw)
	if err != nil {
		qty = decimal.Zero
	}
	s[batchID] = SelectionValue{Quantity: qty}
}

// SetQuantity records an already-parsed quantity for a batch.
func (s Selections) SetQuantity(batchID int64, qty decimal.Decimal) {
	s[batchID] = SelectionValue{Quantity: qty}
}

// Quantity returns the numeric value of a selection, treating empty and
// missing entries as zero.
func (s Selections) Quantity(batchID int64) decimal.Decimal {
	v, ok := s[batchID]
	if !ok || v.Empty {
		return decimal.Zero
	}
	return v.Quantity
}

// Total sums all numeric selection values. Empty entries count as zero.
func (s Selections) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range s {
		if v.Empty {
			continue
		}
		total = total.Add(v.Quantity)
	}
	return total
}

// Totals describes how a selection set relates to the required quantity.
// Exactly one of the three states holds: complete, over-allocated, or
// under-allocated by more than the tolerance.
type Totals struct {
	Total           decimal.Decimal
	Required        decimal.Decimal
	Remaining       decimal.Decimal
	IsComplete      bool
	IsOverAllocated bool
}

// ComputeTotals evaluates a selection set against the required quantity.
// A zero required quantity is trivially complete at zero total.
func ComputeTotals(selections Selections, requiredQty decimal.Decimal) Totals {
	total := selections.Total()
	diff := total.Sub(requiredQty)
	return Totals{
		Total:           total,
		Required:        requiredQty,
		Remaining:       requiredQty.Sub(total),
		IsComplete:      diff.Abs().LessThan(Tolerance),
		IsOverAllocated: diff.GreaterThan(Tolerance),
	}
}

// AutoFillFIFO consumes batches in snapshot order (the ledger contract is
// oldest-received first) until the required quantity is covered. Each batch
// contributes min(remaining, available); batches that would contribute
// nothing are omitted. Deterministic and idempotent for a given snapshot.
func AutoFillFIFO(batches []Batch, requiredQty decimal.Decimal) Selections {
	selections := make(Selections)
	remaining := requiredQty

	for _, batch := range batches {
		if !remaining.IsPositive() {
			break
		}
		toAllocate := decimal.Min(remaining, batch.QuantityAvailable)
		if toAllocate.IsPositive() {
			selections.SetQuantity(batch.ID, toAllocate)
			remaining = remaining.Sub(toAllocate)
		}
	}

	return selections
}

// FromSelections converts positive selection entries into allocations,
// denormalizing batch metadata from the snapshot. Selections that reference
// batches not present in the snapshot are kept with zero-value metadata so
// the caller can surface the mismatch rather than silently dropping quantity.
// Results follow snapshot order, with unknown batches appended by ID.
func FromSelections(selections Selections, batches []Batch) []Allocation {
	allocs := make([]Allocation, 0, len(selections))
	seen := make(map[int64]bool, len(selections))

	for _, batch := range batches {
		qty := selections.Quantity(batch.ID)
		if !qty.IsPositive() {
			continue
		}
		allocs = append(allocs, Allocation{
			BatchID:     batch.ID,
			Quantity:    qty,
			BatchNumber: batch.BatchNumber,
			UnitCost:    batch.UnitCost,
			Channel:     batch.Channel,
		})
		seen[batch.ID] = true
	}

	orphans := make([]int64, 0)
	for id := range selections {
		if !seen[id] && selections.Quantity(id).IsPositive() {
			orphans = append(orphans, id)
		}
	}
	sort.Slice(orphans, func(i, j int) bool { return orphans[i] < orphans[j] })
	for _, id := range orphans {
		allocs = append(allocs, Allocation{BatchID: id, Quantity: selections.Quantity(id), Channel: ChannelLocal})
	}

	return allocs
}

// SelectionsFromAllocations seeds a selection set from committed allocations,
// used when a line enters edit mode.
func SelectionsFromAllocations(allocs []Allocation) Selections {
	selections := make(Selections, len(allocs))
	for _, a := range allocs {
		selections.SetQuantity(a.BatchID, a.Quantity)
	}
	return selections
}
