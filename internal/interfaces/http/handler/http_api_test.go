package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	appinv "github.com/stockledger/backend/internal/application/inventory"
	appledger "github.com/stockledger/backend/internal/application/ledger"
	approc "github.com/stockledger/backend/internal/application/procurement"
	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/procurement"
	"github.com/stockledger/backend/internal/infrastructure/lock"
	"github.com/stockledger/backend/internal/infrastructure/persistence"
	"github.com/stockledger/backend/internal/interfaces/http/middleware"
	"github.com/stockledger/backend/internal/interfaces/http/router"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type apiFixture struct {
	engine     *gin.Engine
	supplierID uuid.UUID
	widget     *inventory.Item
}

// newAPIFixture wires the full HTTP stack over an in-memory database
func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&ledger.Account{}, &ledger.JournalEntry{}, &ledger.JournalLine{},
		&inventory.Item{}, &inventory.StockLot{}, &inventory.StockMovement{},
		&procurement.PurchaseOrder{}, &procurement.PurchaseOrderItem{},
		&procurement.GoodsReceipt{}, &procurement.GoodsReceiptItem{},
		&procurement.SupplierInvoice{}, &procurement.SupplierInvoiceItem{},
		&procurement.SupplierPayment{}, &procurement.PaymentAllocation{},
	))

	posting := appledger.NewPostingService(
		persistence.NewGormLedgerTransactionScope(db),
		persistence.NewGormAccountRepository(db),
		persistence.NewGormJournalEntryRepository(db),
		zap.NewNop(),
	)
	require.NoError(t, posting.EnsureEngineAccounts(context.Background()))

	locks := lock.NewKeyedManager()
	movements := appinv.NewMovementService(
		persistence.NewGormInventoryTransactionScope(db),
		locks,
		persistence.NewGormItemRepository(db),
		persistence.NewGormStockLotRepository(db),
		persistence.NewGormStockMovementRepository(db),
		zap.NewNop(),
	)

	procScope := persistence.NewGormProcurementTransactionScope(db)
	invoiceRepo := persistence.NewGormSupplierInvoiceRepository(db)
	orders := approc.NewPurchaseOrderService(procScope, persistence.NewGormPurchaseOrderRepository(db), zap.NewNop())
	receipts := approc.NewGoodsReceiptService(procScope, locks, persistence.NewGormGoodsReceiptRepository(db), zap.NewNop())
	invoices := approc.NewInvoiceService(procScope, invoiceRepo, procurement.DefaultMatchingConfig(), zap.NewNop())
	payments := approc.NewPaymentService(procScope, locks, persistence.NewGormSupplierPaymentRepository(db), invoiceRepo, zap.NewNop())

	engine := gin.New()
	engine.Use(middleware.RequestID())
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(NewLedgerHandler(posting)).
		Register(NewInventoryHandler(movements)).
		Register(NewProcurementHandler(orders, receipts, invoices, payments))
	r.Setup()

	f := &apiFixture{engine: engine, supplierID: uuid.New()}
	f.widget, err = movements.CreateItem(context.Background(), appinv.CreateItemRequest{Code: "WIDGET", Name: "Widget"})
	require.NoError(t, err)
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	return resp.Data
}

func decodeErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code      string `json:"code"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error.RequestID)
	return resp.Error.Code
}

func TestLedgerAPI_PostEntry(t *testing.T) {
	f := newAPIFixture(t)

	body := map[string]any{
		"reference":   "MANUAL-1",
		"description": "Opening balances",
		"currency":    "USD",
		"created_by":  uuid.New(),
		"lines": []map[string]any{
			{"account_code": "1300", "debit": "250"},
			{"account_code": "2150", "credit": "250"},
		},
	}
	w := f.do(t, http.MethodPost, "/api/v1/ledger/entries", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := decodeData(t, w)
	assert.Equal(t, "POSTED", data["status"])

	// Unbalanced lines are a business-rule failure, not a bad request
	body["lines"] = []map[string]any{
		{"account_code": "1300", "debit": "250"},
		{"account_code": "2150", "credit": "100"},
	}
	w = f.do(t, http.MethodPost, "/api/v1/ledger/entries", body)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Equal(t, "UNBALANCED_ENTRY", decodeErrorCode(t, w))

	// A single line fails binding before the service sees it
	body["lines"] = []map[string]any{{"account_code": "1300", "debit": "250"}}
	w = f.do(t, http.MethodPost, "/api/v1/ledger/entries", body)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestLedgerAPI_AccountBalance(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/ledger/accounts/1300/balance", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeData(t, w)
	assert.Equal(t, "1300", data["account_code"])

	w = f.do(t, http.MethodGet, "/api/v1/ledger/accounts/0000/balance", nil)
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

func TestInventoryAPI_Movements(t *testing.T) {
	f := newAPIFixture(t)

	in := map[string]any{
		"item_id":    f.widget.ID,
		"type":       "STOCK_IN",
		"quantity":   "10",
		"unit_cost":  "5",
		"created_by": uuid.New(),
	}
	w := f.do(t, http.MethodPost, "/api/v1/inventory/movements", in)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Consuming more than available rolls back and reports the shortfall
	out := map[string]any{
		"item_id":    f.widget.ID,
		"type":       "STOCK_OUT",
		"quantity":   "-11",
		"created_by": uuid.New(),
	}
	w = f.do(t, http.MethodPost, "/api/v1/inventory/movements", out)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Equal(t, "INSUFFICIENT_STOCK", decodeErrorCode(t, w))

	w = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/inventory/items/%s/stock", f.widget.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeData(t, w)
	assert.Equal(t, "10", data["total_available"])

	w = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/inventory/items/%s/stock", uuid.New()), nil)
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

func TestProcurementAPI_PurchaseToPay(t *testing.T) {
	f := newAPIFixture(t)
	userID := uuid.New()

	orderBody := map[string]any{
		"order_number": "PO-100",
		"supplier_id":  f.supplierID,
		"created_by":   userID,
		"lines": []map[string]any{
			{"item_id": f.widget.ID, "quantity": "4", "unit_price": "25"},
		},
	}
	w := f.do(t, http.MethodPost, "/api/v1/purchase-orders", orderBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decodeData(t, w)
	orderID := order["ID"]
	if orderID == nil {
		orderID = order["id"]
	}
	require.NotNil(t, orderID)

	w = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/purchase-orders/%v/confirm", orderID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Receive the full order
	w = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/purchase-orders/%v", orderID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var fetched struct {
		Data procurement.PurchaseOrder `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	require.Len(t, fetched.Data.Items, 1)
	poItemID := fetched.Data.Items[0].ID

	receiptBody := map[string]any{
		"purchase_order_id": orderID,
		"receipt_number":    "GR-100",
		"received_by":       userID,
		"lines": []map[string]any{
			{"po_item_id": poItemID, "qty_received": "4"},
		},
	}
	w = f.do(t, http.MethodPost, "/api/v1/goods-receipts", receiptBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	invoiceBody := map[string]any{
		"invoice_number":    "INV-100",
		"purchase_order_id": orderID,
		"created_by":        userID,
		"lines": []map[string]any{
			{"po_item_id": poItemID, "quantity": "4", "unit_price": "25"},
		},
	}
	w = f.do(t, http.MethodPost, "/api/v1/supplier-invoices", invoiceBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Data procurement.SupplierInvoice `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, procurement.MatchingStatusFullyMatched, created.Data.MatchingStatus)
	invoiceID := created.Data.ID

	// Duplicate invoice numbers conflict
	w = f.do(t, http.MethodPost, "/api/v1/supplier-invoices", invoiceBody)
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Equal(t, "DUPLICATE_INVOICE_NUMBER", decodeErrorCode(t, w))

	w = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/supplier-invoices/%s/post", invoiceID),
		map[string]any{"user_id": userID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/v1/payments", map[string]any{
		"supplier_id": f.supplierID,
		"invoice_id":  invoiceID,
		"amount":      "60",
		"method":      "BANK_TRANSFER",
		"created_by":  userID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Paying more than the open balance is rejected, never clamped
	w = f.do(t, http.MethodPost, "/api/v1/payments", map[string]any{
		"supplier_id": f.supplierID,
		"invoice_id":  invoiceID,
		"amount":      "50",
		"method":      "BANK_TRANSFER",
		"created_by":  userID,
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Equal(t, "OVERPAYMENT_NOT_ALLOWED", decodeErrorCode(t, w))

	w = f.do(t, http.MethodPost, "/api/v1/payments", map[string]any{
		"supplier_id": f.supplierID,
		"invoice_id":  invoiceID,
		"amount":      "40",
		"method":      "BANK_TRANSFER",
		"created_by":  userID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/suppliers/%s/balance", f.supplierID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestProcurementAPI_MatchingAnalysis(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/purchase-orders/%s/matching", uuid.New()), nil)
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

func TestAPI_InvalidIDParam(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/inventory/items/not-a-uuid/stock", nil)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, "BAD_REQUEST", decodeErrorCode(t, w))
}
