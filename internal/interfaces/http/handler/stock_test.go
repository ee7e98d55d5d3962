package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/steelerp/backend/internal/application/inventory"
	"github.com/steelerp/backend/internal/domain/allocation"
	"github.com/steelerp/backend/internal/domain/shared"
	"github.com/steelerp/backend/internal/infrastructure/ledger"
	"github.com/steelerp/backend/internal/interfaces/http/dto"
)

func newStockRouter(ledgerClient ledger.Client) *gin.Engine {
	logger := zap.NewNop()
	previewer := inventory.NewDeductionPreviewer(ledgerClient, 0.1, 4, logger)
	aggregator := inventory.NewWarehouseStockAggregator(ledgerClient, 4, logger)

	engine := gin.New()
	api := engine.Group("/api/v1")
	NewStockHandler(previewer, aggregator).RegisterRoutes(api)
	return engine
}

func TestDeductionPreview(t *testing.T) {
	t.Run("classifies lines", func(t *testing.T) {
		mockLedger := new(MockLedgerClient)
		mockLedger.On("GetCurrentStock", mock.Anything, int64(1), int64(3)).
			Return(ledger.StockSummary{TotalQuantity: decimal.NewFromInt(100), TotalAvailable: decimal.NewFromInt(100), Unit: "t"}, nil)
		mockLedger.On("GetCurrentStock", mock.Anything, int64(2), int64(3)).
			Return(ledger.StockSummary{TotalQuantity: decimal.NewFromInt(40), TotalAvailable: decimal.NewFromInt(40), Unit: "t"}, nil)
		engine := newStockRouter(mockLedger)

		body := `{
			"warehouseId": 3,
			"lines": [
				{"productId": 1, "description": "rebar 12mm", "quantity": "95"},
				{"productId": 2, "description": "angle 50x50", "quantity": "50"},
				{"productId": 0, "description": "freight", "quantity": "1"}
			]
		}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/stock/deduction-preview", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data dto.DeductionPreviewResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Data.Lines, 3)
		assert.Equal(t, "low", resp.Data.Lines[0].Status)
		assert.Equal(t, "negative", resp.Data.Lines[1].Status)
		assert.Equal(t, "not_tracked", resp.Data.Lines[2].Status)
		assert.True(t, resp.Data.HasNegative)
		assert.False(t, resp.Data.HasUnknown)
	})

	t.Run("empty lines rejected", func(t *testing.T) {
		engine := newStockRouter(new(MockLedgerClient))

		body := `{"warehouseId": 3, "lines": []}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/stock/deduction-preview", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestWarehouseStock(t *testing.T) {
	t.Run("aggregates across warehouses", func(t *testing.T) {
		mockLedger := new(MockLedgerClient)
		mockLedger.On("GetAvailableBatches", mock.Anything, int64(7), int64(1)).
			Return([]allocation.Batch{{ID: 1, QuantityAvailable: decimal.NewFromInt(120)}}, nil)
		mockLedger.On("GetAvailableBatches", mock.Anything, int64(7), int64(2)).
			Return([]allocation.Batch{{ID: 2, QuantityAvailable: decimal.NewFromInt(30)}}, nil)
		engine := newStockRouter(mockLedger)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products/7/warehouse-stock?warehouse_ids=1,2&warehouse_names=Main,Yard", nil)
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data dto.WarehouseStockResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Data.Warehouses, 2)
		assert.Equal(t, "Main", resp.Data.Warehouses[0].Name)
		assert.True(t, resp.Data.TotalAvailable.Equal(decimal.NewFromInt(150)))
		assert.False(t, resp.Data.NoStockAnywhere)
	})

	t.Run("degraded when a lookup fails", func(t *testing.T) {
		mockLedger := new(MockLedgerClient)
		mockLedger.On("GetAvailableBatches", mock.Anything, int64(7), int64(1)).
			Return([]allocation.Batch{{ID: 1, QuantityAvailable: decimal.NewFromInt(120)}}, nil)
		mockLedger.On("GetAvailableBatches", mock.Anything, int64(7), int64(2)).
			Return(nil, shared.ErrSnapshotUnavailable)
		engine := newStockRouter(mockLedger)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products/7/warehouse-stock?warehouse_ids=1,2", nil)
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data dto.WarehouseStockResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Data.Degraded)
	})

	t.Run("missing warehouse_ids", func(t *testing.T) {
		engine := newStockRouter(new(MockLedgerClient))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products/7/warehouse-stock", nil)
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed warehouse_ids", func(t *testing.T) {
		engine := newStockRouter(new(MockLedgerClient))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products/7/warehouse-stock?warehouse_ids=1,zero", nil)
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
