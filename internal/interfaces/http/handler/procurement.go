package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	procurementapp "github.com/stockledger/backend/internal/application/procurement"
)

// ProcurementHandler exposes the purchase-to-pay flow: purchase orders,
// goods receipts, supplier invoices with three-way matching, and payments.
type ProcurementHandler struct {
	BaseHandler
	orders   *procurementapp.PurchaseOrderService
	receipts *procurementapp.GoodsReceiptService
	invoices *procurementapp.InvoiceService
	payments *procurementapp.PaymentService
}

// NewProcurementHandler creates a new ProcurementHandler
func NewProcurementHandler(
	orders *procurementapp.PurchaseOrderService,
	receipts *procurementapp.GoodsReceiptService,
	invoices *procurementapp.InvoiceService,
	payments *procurementapp.PaymentService,
) *ProcurementHandler {
	return &ProcurementHandler{
		orders:   orders,
		receipts: receipts,
		invoices: invoices,
		payments: payments,
	}
}

// RegisterRoutes registers procurement routes
func (h *ProcurementHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/purchase-orders")
	{
		orders.POST("", h.CreatePurchaseOrder)
		orders.GET("", h.ListPurchaseOrders)
		orders.GET("/:id", h.GetPurchaseOrder)
		orders.POST("/:id/confirm", h.ConfirmPurchaseOrder)
		orders.POST("/:id/cancel", h.CancelPurchaseOrder)
		orders.GET("/:id/receipts", h.ListReceiptsForOrder)
		orders.GET("/:id/matching", h.AnalyzeMatching)
	}

	receipts := rg.Group("/goods-receipts")
	{
		receipts.POST("", h.CreateGoodsReceipt)
		receipts.GET("/:id", h.GetGoodsReceipt)
	}

	invoices := rg.Group("/supplier-invoices")
	{
		invoices.POST("", h.CreateSupplierInvoice)
		invoices.GET("/:id", h.GetInvoice)
		invoices.POST("/:id/matching/approve", h.ApproveMatching)
		invoices.POST("/:id/matching/reject", h.RejectMatching)
		invoices.POST("/:id/post", h.PostSupplierInvoice)
	}

	rg.POST("/payments", h.CreateSupplierPayment)

	suppliers := rg.Group("/suppliers")
	{
		suppliers.GET("/:id/payments", h.ListPayments)
		suppliers.GET("/:id/balance", h.GetSupplierBalance)
	}
}

// CreatePurchaseOrder creates a draft purchase order
func (h *ProcurementHandler) CreatePurchaseOrder(c *gin.Context) {
	var req procurementapp.CreatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	po, err := h.orders.CreatePurchaseOrder(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, po)
}

// GetPurchaseOrder loads one purchase order with its lines
func (h *ProcurementHandler) GetPurchaseOrder(c *gin.Context) {
	poID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid purchase order ID")
		return
	}

	po, err := h.orders.GetPurchaseOrder(c.Request.Context(), poID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}

// ListPurchaseOrders pages purchase orders
func (h *ProcurementHandler) ListPurchaseOrders(c *gin.Context) {
	filter, err := bindListFilter(c)
	if err != nil {
		h.BindError(c, err)
		return
	}

	orders, err := h.orders.ListPurchaseOrders(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, orders)
}

// ConfirmPurchaseOrder moves a draft order to CONFIRMED
func (h *ProcurementHandler) ConfirmPurchaseOrder(c *gin.Context) {
	poID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid purchase order ID")
		return
	}

	po, err := h.orders.ConfirmPurchaseOrder(c.Request.Context(), poID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}

// CancelPurchaseOrder cancels an order that has not been received against
func (h *ProcurementHandler) CancelPurchaseOrder(c *gin.Context) {
	poID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid purchase order ID")
		return
	}

	po, err := h.orders.CancelPurchaseOrder(c.Request.Context(), poID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}

// CreateGoodsReceipt records a goods receipt and books the received stock
func (h *ProcurementHandler) CreateGoodsReceipt(c *gin.Context) {
	var req procurementapp.CreateGoodsReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	receipt, err := h.receipts.CreateGoodsReceipt(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, receipt)
}

// GetGoodsReceipt loads one goods receipt with its lines
func (h *ProcurementHandler) GetGoodsReceipt(c *gin.Context) {
	receiptID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid goods receipt ID")
		return
	}

	receipt, err := h.receipts.GetGoodsReceipt(c.Request.Context(), receiptID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receipt)
}

// ListReceiptsForOrder returns every receipt booked against one order
func (h *ProcurementHandler) ListReceiptsForOrder(c *gin.Context) {
	poID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid purchase order ID")
		return
	}

	receipts, err := h.receipts.ListReceiptsForOrder(c.Request.Context(), poID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receipts)
}

// CreateSupplierInvoice registers a supplier invoice and runs three-way
// matching against the order and its receipts.
func (h *ProcurementHandler) CreateSupplierInvoice(c *gin.Context) {
	var req procurementapp.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	invoice, err := h.invoices.CreateSupplierInvoice(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// GetInvoice loads one supplier invoice with its lines
func (h *ProcurementHandler) GetInvoice(c *gin.Context) {
	invoiceID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := h.invoices.GetInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// AnalyzeMatching re-runs three-way matching for one purchase order
func (h *ProcurementHandler) AnalyzeMatching(c *gin.Context) {
	poID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid purchase order ID")
		return
	}

	result, err := h.invoices.AnalyzeThreeWayMatching(c.Request.Context(), poID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ApproveMatching approves a discrepant invoice with a variance reason
func (h *ProcurementHandler) ApproveMatching(c *gin.Context) {
	invoiceID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}
	var req procurementapp.ApproveMatchingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	invoice, err := h.invoices.ApproveMatching(c.Request.Context(), invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// RejectMatching rejects a discrepant invoice
func (h *ProcurementHandler) RejectMatching(c *gin.Context) {
	invoiceID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}
	var req procurementapp.RejectMatchingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	invoice, err := h.invoices.RejectMatching(c.Request.Context(), invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

type postInvoiceRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// PostSupplierInvoice books the posted invoice to the ledger
func (h *ProcurementHandler) PostSupplierInvoice(c *gin.Context) {
	invoiceID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}
	var req postInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	invoice, err := h.invoices.PostSupplierInvoice(c.Request.Context(), invoiceID, req.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// CreateSupplierPayment pays one supplier, optionally allocated to an invoice
func (h *ProcurementHandler) CreateSupplierPayment(c *gin.Context) {
	var req procurementapp.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	payment, err := h.payments.CreateSupplierPayment(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, payment)
}

// ListPayments pages one supplier's payments
func (h *ProcurementHandler) ListPayments(c *gin.Context) {
	supplierID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid supplier ID")
		return
	}
	filter, err := bindListFilter(c)
	if err != nil {
		h.BindError(c, err)
		return
	}

	payments, err := h.payments.ListPayments(c.Request.Context(), supplierID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payments)
}

// GetSupplierBalance returns the supplier's outstanding position
func (h *ProcurementHandler) GetSupplierBalance(c *gin.Context) {
	supplierID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid supplier ID")
		return
	}

	balance, err := h.payments.GetSupplierBalance(c.Request.Context(), supplierID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, balance)
}
