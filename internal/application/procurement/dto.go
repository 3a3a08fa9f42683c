package procurement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreatePurchaseOrderRequest describes a new draft purchase order
type CreatePurchaseOrderRequest struct {
	OrderNumber  string          `json:"order_number" binding:"required"`
	SupplierID   uuid.UUID       `json:"supplier_id" binding:"required"`
	OrderDate    time.Time       `json:"order_date"`
	Currency     string          `json:"currency"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	Lines        []POLineRequest `json:"lines" binding:"required,min=1"`
	CreatedBy    uuid.UUID       `json:"created_by"`
}

// POLineRequest describes one requested order line
type POLineRequest struct {
	ItemID    uuid.UUID       `json:"item_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
}

// CreateGoodsReceiptRequest describes goods arriving against a purchase order
type CreateGoodsReceiptRequest struct {
	PurchaseOrderID uuid.UUID            `json:"purchase_order_id" binding:"required"`
	ReceiptNumber   string               `json:"receipt_number" binding:"required"`
	ReceivedDate    time.Time            `json:"received_date"`
	Lines           []ReceiptLineRequest `json:"lines" binding:"required,min=1"`
	Notes           string               `json:"notes"`
	ReceivedBy      uuid.UUID            `json:"received_by"`
}

// ReceiptLineRequest describes one received line
type ReceiptLineRequest struct {
	POItemID    uuid.UUID       `json:"po_item_id" binding:"required"`
	QtyReceived decimal.Decimal `json:"qty_received" binding:"required"`
	QtyRejected decimal.Decimal `json:"qty_rejected"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

// CreateInvoiceRequest describes a supplier invoice against a purchase order
type CreateInvoiceRequest struct {
	InvoiceNumber   string               `json:"invoice_number" binding:"required"`
	PurchaseOrderID uuid.UUID            `json:"purchase_order_id" binding:"required"`
	InvoiceDate     time.Time            `json:"invoice_date"`
	TaxAmount       decimal.Decimal      `json:"tax_amount"`
	Lines           []InvoiceLineRequest `json:"lines" binding:"required,min=1"`
	CreatedBy       uuid.UUID            `json:"created_by"`
}

// InvoiceLineRequest describes one invoiced line
type InvoiceLineRequest struct {
	POItemID  uuid.UUID       `json:"po_item_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
}

// ApproveMatchingRequest carries the manual approval of a discrepant invoice
type ApproveMatchingRequest struct {
	Reason     string    `json:"reason" binding:"required"`
	ApprovedBy uuid.UUID `json:"approved_by"`
}

// RejectMatchingRequest carries the manual rejection of an invoice
type RejectMatchingRequest struct {
	Reason          string    `json:"reason" binding:"required"`
	RequiredActions string    `json:"required_actions"`
	RejectedBy      uuid.UUID `json:"rejected_by"`
}

// CreatePaymentRequest describes a supplier payment, optionally
// allocated against one invoice.
type CreatePaymentRequest struct {
	SupplierID  uuid.UUID       `json:"supplier_id" binding:"required"`
	InvoiceID   *uuid.UUID      `json:"invoice_id,omitempty"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Method      string          `json:"method" binding:"required"`
	Reference   string          `json:"reference"`
	PaymentDate time.Time       `json:"payment_date"`
	CreatedBy   uuid.UUID       `json:"created_by"`
}
