package dto

import (
	"github.com/shopspring/decimal"

	"github.com/steelerp/backend/internal/application/inventory"
)

// DeductionPreviewRequest asks for a projected stock impact of issuing an
// invoice. Lines without a productId are passed through as not tracked.
type DeductionPreviewRequest struct {
	WarehouseID int64                `json:"warehouseId" binding:"omitempty,gte=0"`
	Lines       []PreviewLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// PreviewLineRequest is one invoice line entering the preview.
type PreviewLineRequest struct {
	ProductID   int64           `json:"productId" binding:"omitempty,gte=0"`
	Description string          `json:"description" binding:"max=200"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
}

// PreviewLineResponse is the projected stock effect for one line.
type PreviewLineResponse struct {
	ProductID      int64           `json:"productId,omitempty"`
	Description    string          `json:"description,omitempty"`
	Requested      decimal.Decimal `json:"requested"`
	CurrentStock   decimal.Decimal `json:"currentStock"`
	AfterDeduction decimal.Decimal `json:"afterDeduction"`
	Unit           string          `json:"unit,omitempty"`
	Status         string          `json:"status"`
	LookupFailed   bool            `json:"lookupFailed,omitempty"`
}

// DeductionPreviewResponse aggregates the per-line projections.
type DeductionPreviewResponse struct {
	Lines       []PreviewLineResponse `json:"lines"`
	HasNegative bool                  `json:"hasNegative"`
	HasUnknown  bool                  `json:"hasUnknown"`
}

// NewDeductionPreviewResponse converts an application preview result
func NewDeductionPreviewResponse(result inventory.PreviewResult) DeductionPreviewResponse {
	lines := make([]PreviewLineResponse, 0, len(result.Lines))
	for _, proj := range result.Lines {
		lines = append(lines, PreviewLineResponse{
			ProductID:      proj.ProductID,
			Description:    proj.Description,
			Requested:      proj.Requested,
			CurrentStock:   proj.CurrentStock,
			AfterDeduction: proj.AfterDeduction,
			Unit:           proj.Unit,
			Status:         string(proj.Status),
			LookupFailed:   proj.LookupFailed,
		})
	}
	return DeductionPreviewResponse{
		Lines:       lines,
		HasNegative: result.HasNegative,
		HasUnknown:  result.HasUnknown,
	}
}

// WarehouseStockResponse is the per-warehouse availability for a product.
type WarehouseStockResponse struct {
	Warehouses      []WarehouseStockRow `json:"warehouses"`
	TotalAvailable  decimal.Decimal     `json:"totalAvailable"`
	NoStockAnywhere bool                `json:"noStockAnywhere"`
	Degraded        bool                `json:"degraded"`
}

// WarehouseStockRow is one warehouse's availability figure.
type WarehouseStockRow struct {
	WarehouseID int64           `json:"warehouseId"`
	Name        string          `json:"name,omitempty"`
	Available   decimal.Decimal `json:"available"`
	Degraded    bool            `json:"degraded,omitempty"`
}

// NewWarehouseStockResponse converts an application availability result
func NewWarehouseStockResponse(result inventory.AvailabilityResult) WarehouseStockResponse {
	rows := make([]WarehouseStockRow, 0, len(result.Warehouses))
	for _, stock := range result.Warehouses {
		rows = append(rows, WarehouseStockRow{
			WarehouseID: stock.WarehouseID,
			Name:        stock.Name,
			Available:   stock.Available,
			Degraded:    stock.Degraded,
		})
	}
	return WarehouseStockResponse{
		Warehouses:      rows,
		TotalAvailable:  result.TotalAvailable,
		NoStockAnywhere: result.NoStockAnywhere,
		Degraded:        result.Degraded,
	}
}
