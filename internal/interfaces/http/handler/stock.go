package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/steelerp/backend/internal/application/inventory"
	"github.com/steelerp/backend/internal/interfaces/http/dto"
	"github.com/steelerp/backend/internal/interfaces/http/middleware"
)

// StockHandler serves stock deduction previews and per-warehouse availability.
type StockHandler struct {
	BaseHandler
	previewer  *inventory.DeductionPreviewer
	aggregator *inventory.WarehouseStockAggregator
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(previewer *inventory.DeductionPreviewer, aggregator *inventory.WarehouseStockAggregator) *StockHandler {
	return &StockHandler{
		previewer:  previewer,
		aggregator: aggregator,
	}
}

// RegisterRoutes registers stock routes
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stock := rg.Group("/stock")
	{
		stock.POST("/deduction-preview", h.DeductionPreview)
	}
	rg.GET("/products/:id/warehouse-stock", h.WarehouseStock)
}

// DeductionPreview projects post-deduction stock for a set of invoice lines
func (h *StockHandler) DeductionPreview(c *gin.Context) {
	var req dto.DeductionPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	lines := make([]inventory.PreviewLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, inventory.PreviewLine{
			ProductID:   line.ProductID,
			Description: line.Description,
			Quantity:    line.Quantity,
		})
	}

	result := h.previewer.Preview(c.Request.Context(), req.WarehouseID, lines)
	h.Success(c, dto.NewDeductionPreviewResponse(result))
}

// WarehouseStock returns a product's availability across warehouses.
// Warehouses are given as a comma-separated warehouse_ids query parameter.
func (h *StockHandler) WarehouseStock(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || productID <= 0 {
		h.BadRequest(c, "product id must be a positive integer")
		return
	}

	warehouses, err := parseWarehouses(c.Query("warehouse_ids"), c.Query("warehouse_names"))
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if len(warehouses) == 0 {
		h.BadRequest(c, "warehouse_ids is required")
		return
	}

	result := h.aggregator.Availability(c.Request.Context(), productID, warehouses)
	h.Success(c, dto.NewWarehouseStockResponse(result))
}

// parseWarehouses pairs the id list with an optional name list of equal length.
func parseWarehouses(idsRaw, namesRaw string) ([]inventory.Warehouse, error) {
	if strings.TrimSpace(idsRaw) == "" {
		return nil, nil
	}
	idParts := strings.Split(idsRaw, ",")
	var nameParts []string
	if strings.TrimSpace(namesRaw) != "" {
		nameParts = strings.Split(namesRaw, ",")
	}

	warehouses := make([]inventory.Warehouse, 0, len(idParts))
	for i, part := range idParts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			return nil, errors.New("warehouse_ids must be positive integers")
		}
		w := inventory.Warehouse{ID: id}
		if i < len(nameParts) {
			w.Name = strings.TrimSpace(nameParts[i])
		}
		warehouses = append(warehouses, w)
	}
	return warehouses, nil
}
