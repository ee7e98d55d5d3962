package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	allocationapp "github.com/steelerp/backend/internal/application/allocation"
	"github.com/steelerp/backend/internal/domain/allocation"
	"github.com/steelerp/backend/internal/interfaces/http/dto"
	"github.com/steelerp/backend/internal/interfaces/http/middleware"
)

// AllocationHandler serves batch snapshots, allocation proposals, and
// reallocation submissions.
type AllocationHandler struct {
	BaseHandler
	allocationService   *allocationapp.AllocationService
	reallocationService *allocationapp.ReallocationService
}

// NewAllocationHandler creates a new AllocationHandler
func NewAllocationHandler(allocationService *allocationapp.AllocationService, reallocationService *allocationapp.ReallocationService) *AllocationHandler {
	return &AllocationHandler{
		allocationService:   allocationService,
		reallocationService: reallocationService,
	}
}

// RegisterRoutes registers allocation routes
func (h *AllocationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stock-batches/available", h.AvailableBatches)
	rg.GET("/reason-codes", h.ReasonCodes)

	allocations := rg.Group("/allocations")
	{
		allocations.POST("/propose", h.Propose)
		allocations.POST("/validate", h.Validate)
	}

	items := rg.Group("/invoices/items/:id")
	{
		items.POST("/reallocate", h.Reallocate)
		items.GET("/reallocations", h.History)
	}
}

// AvailableBatches returns the open batches for a product, oldest first
func (h *AllocationHandler) AvailableBatches(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Query("product_id"), 10, 64)
	if err != nil || productID <= 0 {
		h.BadRequest(c, "product_id must be a positive integer")
		return
	}
	warehouseID, _ := strconv.ParseInt(c.Query("warehouse_id"), 10, 64)

	batches, err := h.allocationService.AvailableBatches(c.Request.Context(), productID, warehouseID)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, dto.NewBatchResponses(batches))
}

// Propose returns a FIFO allocation proposal for one line item
func (h *AllocationHandler) Propose(c *gin.Context) {
	var req dto.ProposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.allocationService.Propose(c.Request.Context(), req.ProductID, req.WarehouseID, req.RequiredQuantity)
	if err != nil {
		h.DomainError(c, err)
		return
	}

	h.Success(c, dto.ProposeResponse{
		Allocations: dto.NewAllocationPayloads(result.Allocations),
		Totals:      dto.NewTotalsResponse(result.Totals),
	})
}

// Validate evaluates manually entered quantities against the required quantity
func (h *AllocationHandler) Validate(c *gin.Context) {
	var req dto.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	totals := h.allocationService.Validate(req.Selections, req.RequiredQuantity)
	h.Success(c, dto.NewTotalsResponse(totals))
}

// Reallocate submits a batch reallocation for an invoice item
func (h *AllocationHandler) Reallocate(c *gin.Context) {
	invoiceItemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || invoiceItemID <= 0 {
		h.BadRequest(c, "invoice item id must be a positive integer")
		return
	}

	var req dto.ReallocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	current := make([]allocation.Allocation, 0, len(req.Current))
	for _, payload := range req.Current {
		current = append(current, payload.ToDomain())
	}
	proposed := make(allocation.Selections, len(req.Selections))
	for batchID, raw := range req.Selections {
		proposed.Set(batchID, raw)
	}

	result, err := h.reallocationService.Submit(c.Request.Context(), allocationapp.SubmitRequest{
		InvoiceItemID:    invoiceItemID,
		ProductID:        req.ProductID,
		WarehouseID:      req.WarehouseID,
		RequiredQuantity: req.RequiredQuantity,
		Current:          current,
		Proposed:         proposed,
		ReasonCode:       allocation.ReasonCode(req.ReasonCode),
		Note:             req.Note,
		SubmittedBy:      req.SubmittedBy,
	})
	if err != nil {
		h.DomainError(c, err)
		return
	}

	h.Success(c, dto.ReallocateResponse{
		NewAllocations: dto.NewAllocationPayloads(result.NewAllocations),
		CostVariance:   result.CostVariance,
	})
}

// History returns the reallocation audit trail for an invoice item
func (h *AllocationHandler) History(c *gin.Context) {
	invoiceItemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || invoiceItemID <= 0 {
		h.BadRequest(c, "invoice item id must be a positive integer")
		return
	}

	entries, err := h.reallocationService.History(c.Request.Context(), invoiceItemID)
	if err != nil {
		h.DomainError(c, err)
		return
	}

	history := make([]dto.ReallocationHistoryEntry, 0, len(entries))
	for _, entry := range entries {
		history = append(history, dto.NewReallocationHistoryEntry(entry))
	}
	h.Success(c, history)
}

// ReasonCodes lists the selectable reallocation reasons
func (h *AllocationHandler) ReasonCodes(c *gin.Context) {
	codes := allocation.ReasonCodes()
	out := make([]dto.ReasonCodeResponse, 0, len(codes))
	for _, code := range codes {
		out = append(out, dto.ReasonCodeResponse{
			Code:        string(code),
			Description: code.Description(),
		})
	}
	h.Success(c, out)
}
