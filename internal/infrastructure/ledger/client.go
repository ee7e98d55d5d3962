package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/steelerp/backend/internal/domain/allocation"
	"github.com/steelerp/backend/internal/domain/shared"
)

// maxResponseSize limits ledger response bodies to prevent memory exhaustion
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// StockSummary is the ledger's current-stock figure for a product, optionally
// scoped to one warehouse.
type StockSummary struct {
	TotalQuantity  decimal.Decimal `json:"totalQuantity"`
	TotalAvailable decimal.Decimal `json:"totalAvailable"`
	Unit           string          `json:"unit"`
}

// ReallocationRequest is the change set submitted to the ledger.
type ReallocationRequest struct {
	Changes     []allocation.Change   `json:"changes"`
	ReasonCode  allocation.ReasonCode `json:"reasonCode"`
	Note        string                `json:"note,omitempty"`
	SubmittedBy string                `json:"submittedBy,omitempty"`
}

// ReallocationResult is the ledger's verdict on a submitted reallocation.
// NewAllocations is the canonical post-commit state and must be adopted
// verbatim by callers; Message carries the ledger's rejection text.
type ReallocationResult struct {
	Success        bool
	NewAllocations []allocation.Allocation
	Message        string
}

// Client is the stock ledger service contract. The ledger owns all stock
// state; this side only reads snapshots and submits change sets.
type Client interface {
	// GetAvailableBatches returns open batches for a product, oldest received
	// first. warehouseID 0 means all warehouses.
	GetAvailableBatches(ctx context.Context, productID, warehouseID int64) ([]allocation.Batch, error)
	// GetCurrentStock returns aggregate stock for a product. warehouseID 0
	// means all warehouses.
	GetCurrentStock(ctx context.Context, productID, warehouseID int64) (StockSummary, error)
	// SubmitReallocation applies a change set to an invoice item's
	// allocations. The ledger validates and applies atomically.
	SubmitReallocation(ctx context.Context, invoiceItemID int64, req ReallocationRequest) (ReallocationResult, error)
}

// HTTPClient talks to the stock ledger over HTTP with a bounded timeout.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a ledger client. Every request is bounded by the
// given timeout in addition to caller context deadlines.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// batchPayload tolerates the ledger's two spellings of the batch identifier.
// Older ledger endpoints emit "id", newer ones "batchId"; both normalize to
// Batch.ID here so nothing downstream sees the difference.
type batchPayload struct {
	ID                 int64           `json:"id"`
	BatchID            int64           `json:"batchId"`
	BatchNumber        string          `json:"batchNumber"`
	QuantityAvailable  decimal.Decimal `json:"quantityAvailable"`
	UnitCost           decimal.Decimal `json:"unitCost"`
	ProcurementChannel string          `json:"procurementChannel"`
	HeatNumber         string          `json:"heatNumber"`
}

func (p batchPayload) toDomain() allocation.Batch {
	id := p.BatchID
	if id == 0 {
		id = p.ID
	}
	return allocation.Batch{
		ID:                id,
		BatchNumber:       p.BatchNumber,
		QuantityAvailable: p.QuantityAvailable,
		UnitCost:          p.UnitCost,
		Channel:           allocation.NormalizeChannel(p.ProcurementChannel),
		HeatNumber:        p.HeatNumber,
	}
}

// allocationPayload mirrors batchPayload for committed allocation rows.
type allocationPayload struct {
	ID                 int64           `json:"id"`
	BatchID            int64           `json:"batchId"`
	Quantity           decimal.Decimal `json:"quantity"`
	BatchNumber        string          `json:"batchNumber"`
	UnitCost           decimal.Decimal `json:"unitCost"`
	ProcurementChannel string          `json:"procurementChannel"`
}

func (p allocationPayload) toDomain() allocation.Allocation {
	id := p.BatchID
	if id == 0 {
		id = p.ID
	}
	return allocation.Allocation{
		BatchID:     id,
		Quantity:    p.Quantity,
		BatchNumber: p.BatchNumber,
		UnitCost:    p.UnitCost,
		Channel:     allocation.NormalizeChannel(p.ProcurementChannel),
	}
}

// GetAvailableBatches implements Client.
func (c *HTTPClient) GetAvailableBatches(ctx context.Context, productID, warehouseID int64) ([]allocation.Batch, error) {
	q := url.Values{}
	q.Set("productId", strconv.FormatInt(productID, 10))
	if warehouseID != 0 {
		q.Set("warehouseId", strconv.FormatInt(warehouseID, 10))
	}

	body, err := c.get(ctx, "/api/stock/batches", q)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Batches []batchPayload `json:"batches"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("ledger: failed to decode batches: %w", err)
	}

	batches := make([]allocation.Batch, 0, len(payload.Batches))
	for _, b := range payload.Batches {
		batches = append(batches, b.toDomain())
	}
	return batches, nil
}

// GetCurrentStock implements Client.
func (c *HTTPClient) GetCurrentStock(ctx context.Context, productID, warehouseID int64) (StockSummary, error) {
	q := url.Values{}
	q.Set("productId", strconv.FormatInt(productID, 10))
	if warehouseID != 0 {
		q.Set("warehouseId", strconv.FormatInt(warehouseID, 10))
	}

	body, err := c.get(ctx, "/api/stock/current", q)
	if err != nil {
		return StockSummary{}, err
	}

	var summary StockSummary
	if err := json.Unmarshal(body, &summary); err != nil {
		return StockSummary{}, fmt.Errorf("ledger: failed to decode stock summary: %w", err)
	}
	return summary, nil
}

// SubmitReallocation implements Client.
func (c *HTTPClient) SubmitReallocation(ctx context.Context, invoiceItemID int64, req ReallocationRequest) (ReallocationResult, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return ReallocationResult{}, fmt.Errorf("ledger: failed to marshal reallocation: %w", err)
	}

	path := fmt.Sprintf("/api/invoices/items/%d/reallocate", invoiceItemID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return ReallocationResult{}, fmt.Errorf("ledger: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	body, err := c.do(httpReq)
	if err != nil {
		return ReallocationResult{}, err
	}

	var payload struct {
		Success        bool                `json:"success"`
		Message        string              `json:"message"`
		NewAllocations []allocationPayload `json:"newAllocations"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ReallocationResult{}, fmt.Errorf("ledger: failed to decode reallocation result: %w", err)
	}

	result := ReallocationResult{
		Success: payload.Success,
		Message: payload.Message,
	}
	for _, a := range payload.NewAllocations {
		result.NewAllocations = append(result.NewAllocations, a.toDomain())
	}
	return result, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req)
}

func (c *HTTPClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSnapshotUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("ledger: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", shared.ErrSnapshotUnavailable, resp.StatusCode)
	}

	return body, nil
}
