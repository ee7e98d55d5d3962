package inventory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/steelerp/backend/internal/infrastructure/ledger"
)

// LineStatus classifies the stock effect of issuing one invoice line.
type LineStatus string

const (
	StatusOK         LineStatus = "ok"
	StatusLow        LineStatus = "low"
	StatusNegative   LineStatus = "negative"
	StatusUnknown    LineStatus = "unknown"
	StatusNotTracked LineStatus = "not_tracked"
)

// PreviewLine is one invoice line entering the deduction preview.
// ProductID 0 means the line is not linked to a tracked product.
type PreviewLine struct {
	ProductID   int64
	Description string
	Quantity    decimal.Decimal
}

// LineProjection is the projected stock effect for one line.
type LineProjection struct {
	ProductID      int64
	Description    string
	Requested      decimal.Decimal
	CurrentStock   decimal.Decimal
	AfterDeduction decimal.Decimal
	Unit           string
	Status         LineStatus
	LookupFailed   bool
}

// PreviewResult aggregates the per-line projections. Issuance is never
// blocked here; HasNegative only tells the caller to demand an explicit
// confirmation before proceeding.
type PreviewResult struct {
	Lines       []LineProjection
	HasNegative bool
	HasUnknown  bool
}

// DeductionPreviewer projects the stock impact of issuing an invoice,
// warning about lines that would drive stock negative or low.
type DeductionPreviewer struct {
	ledger         ledger.Client
	lowStockRatio  decimal.Decimal
	maxConcurrency int
	logger         *zap.Logger
}

// NewDeductionPreviewer creates a DeductionPreviewer. lowStockRatio is the
// fraction of current stock below which a post-deduction level is flagged
// as low; maxConcurrency bounds parallel ledger lookups.
func NewDeductionPreviewer(ledgerClient ledger.Client, lowStockRatio float64, maxConcurrency int, logger *zap.Logger) *DeductionPreviewer {
	if maxConcurrency <= 0 {
		maxConcurrency = 8
	}
	return &DeductionPreviewer{
		ledger:         ledgerClient,
		lowStockRatio:  decimal.NewFromFloat(lowStockRatio),
		maxConcurrency: maxConcurrency,
		logger:         logger,
	}
}

// Preview looks up current stock for every product-linked line concurrently
// and classifies the post-deduction level. A failed lookup degrades that one
// line to unknown; it never fails the whole preview.
func (p *DeductionPreviewer) Preview(ctx context.Context, warehouseID int64, lines []PreviewLine) PreviewResult {
	projections := make([]LineProjection, len(lines))

	var wg sync.WaitGroup
	sem := make(chan struct{}, p.maxConcurrency)

	for i, line := range lines {
		projections[i] = LineProjection{
			ProductID:   line.ProductID,
			Description: line.Description,
			Requested:   line.Quantity,
		}
		if line.ProductID == 0 {
			projections[i].Status = StatusNotTracked
			continue
		}

		wg.Add(1)
		go func(idx int, line PreviewLine) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			summary, err := p.ledger.GetCurrentStock(ctx, line.ProductID, warehouseID)
			if err != nil {
				p.logger.Warn("stock lookup failed for deduction preview",
					zap.Int64("product_id", line.ProductID),
					zap.Error(err))
				projections[idx].Status = StatusUnknown
				projections[idx].LookupFailed = true
				return
			}

			// Current stock is the total on-hand quantity, not the
			// unreserved portion. Reserved stock still counts as present
			// when projecting what issuance does to the physical level.
			current := summary.TotalQuantity
			after := current.Sub(line.Quantity)
			projections[idx].CurrentStock = current
			projections[idx].AfterDeduction = after
			projections[idx].Unit = summary.Unit
			projections[idx].Status = classify(current, after, p.lowStockRatio)
		}(i, line)
	}

	wg.Wait()

	result := PreviewResult{Lines: projections}
	for _, proj := range projections {
		switch proj.Status {
		case StatusNegative:
			result.HasNegative = true
		case StatusUnknown:
			result.HasUnknown = true
		}
	}
	return result
}

func classify(current, after, lowRatio decimal.Decimal) LineStatus {
	if after.IsNegative() {
		return StatusNegative
	}
	if after.LessThan(current.Mul(lowRatio)) {
		return StatusLow
	}
	return StatusOK
}
