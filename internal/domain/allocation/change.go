package allocation

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Change is a directed batch-transfer instruction. A nonzero OldQuantity
// with NewBatchID zero deallocates; a nonzero NewQuantity with OldBatchID
// zero allocates. The ledger applies changes atomically per submission.
type Change struct {
	OldBatchID  int64           `json:"oldBatchId"`
	OldQuantity decimal.Decimal `json:"oldQuantity"`
	NewBatchID  int64           `json:"newBatchId"`
	NewQuantity decimal.Decimal `json:"newQuantity"`
}

// IsDeallocation reports whether the change releases quantity from a batch.
func (c Change) IsDeallocation() bool {
	return c.OldBatchID != 0 && c.OldQuantity.IsPositive()
}

// IsAllocation reports whether the change assigns quantity to a batch.
func (c Change) IsAllocation() bool {
	return c.NewBatchID != 0 && c.NewQuantity.IsPositive()
}

// Diff computes the minimal change set that turns the current allocations
// into the proposed selections. Decreases against current batches come first
// in current order; increases follow in ascending batch ID. Batches with
// unchanged quantity produce no entries.
func Diff(current []Allocation, proposed Selections) []Change {
	changes := make([]Change, 0)

	currentQty := make(map[int64]decimal.Decimal, len(current))
	for _, alloc := range current {
		currentQty[alloc.BatchID] = currentQty[alloc.BatchID].Add(alloc.Quantity)
	}

	emitted := make(map[int64]bool, len(current))
	for _, alloc := range current {
		if emitted[alloc.BatchID] {
			continue
		}
		emitted[alloc.BatchID] = true
		oldQty := currentQty[alloc.BatchID]
		newQty := proposed.Quantity(alloc.BatchID)
		if newQty.LessThan(oldQty) {
			changes = append(changes, Change{
				OldBatchID:  alloc.BatchID,
				OldQuantity: oldQty.Sub(newQty),
			})
		}
	}

	increases := make([]int64, 0, len(proposed))
	for batchID := range proposed {
		qty := proposed.Quantity(batchID)
		if !qty.IsPositive() {
			continue
		}
		if qty.GreaterThan(currentQty[batchID]) {
			increases = append(increases, batchID)
		}
	}
	sort.Slice(increases, func(i, j int) bool { return increases[i] < increases[j] })
	for _, batchID := range increases {
		changes = append(changes, Change{
			NewBatchID:  batchID,
			NewQuantity: proposed.Quantity(batchID).Sub(currentQty[batchID]),
		})
	}

	return changes
}

// Apply replays a change set onto a set of current allocation quantities and
// returns the resulting per-batch quantities. Diff and Apply round-trip:
// Apply(current, Diff(current, proposed)) equals proposed for every batch.
func Apply(current []Allocation, changes []Change) map[int64]decimal.Decimal {
	result := make(map[int64]decimal.Decimal, len(current))
	for _, alloc := range current {
		result[alloc.BatchID] = result[alloc.BatchID].Add(alloc.Quantity)
	}
	for _, change := range changes {
		if change.IsDeallocation() {
			result[change.OldBatchID] = result[change.OldBatchID].Sub(change.OldQuantity)
		}
		if change.IsAllocation() {
			result[change.NewBatchID] = result[change.NewBatchID].Add(change.NewQuantity)
		}
	}
	for id, qty := range result {
		if qty.IsZero() {
			delete(result, id)
		}
	}
	return result
}

// CostVariance returns the cost delta of moving from the current allocations
// to the proposed selections: newCost - currentCost. Proposed costs use the
// snapshot's unit cost; current costs use the denormalized cost captured at
// allocation time. Informational only, never blocks submission.
func CostVariance(current []Allocation, proposed Selections, batches []Batch) decimal.Decimal {
	currentCost := CostOf(current)

	newCost := decimal.Zero
	for batchID := range proposed {
		qty := proposed.Quantity(batchID)
		if !qty.IsPositive() {
			continue
		}
		if batch, ok := FindBatch(batches, batchID); ok {
			newCost = newCost.Add(qty.Mul(batch.UnitCost))
		}
	}

	return newCost.Sub(currentCost)
}
