package procurement

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
)

// PurchaseOrderRepository provides access to purchase orders with lines
type PurchaseOrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*PurchaseOrder, error)
	Save(ctx context.Context, po *PurchaseOrder) error
	List(ctx context.Context, filter shared.Filter) ([]PurchaseOrder, error)
}

// GoodsReceiptRepository provides access to goods receipts
type GoodsReceiptRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*GoodsReceipt, error)
	FindByPurchaseOrder(ctx context.Context, poID uuid.UUID) ([]GoodsReceipt, error)
	Save(ctx context.Context, receipt *GoodsReceipt) error
	// ReceivedByPOItem sums accepted receipt quantities per PO line
	ReceivedByPOItem(ctx context.Context, poID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
}

// SupplierInvoiceRepository provides access to supplier invoices
type SupplierInvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SupplierInvoice, error)
	// FindByIDForUpdate loads the invoice with its row locked for the
	// duration of the surrounding transaction, serializing concurrent
	// payments against the same invoice.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*SupplierInvoice, error)
	FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (*SupplierInvoice, error)
	FindByPurchaseOrder(ctx context.Context, poID uuid.UUID) ([]SupplierInvoice, error)
	Save(ctx context.Context, invoice *SupplierInvoice) error
	// InvoicedByPOItem sums non-rejected invoice quantities per PO line
	InvoicedByPOItem(ctx context.Context, poID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
	// OutstandingBySupplier aggregates open balances and the open invoice
	// count for a supplier, live.
	OutstandingBySupplier(ctx context.Context, supplierID uuid.UUID) (decimal.Decimal, int64, error)
}

// SupplierPaymentRepository provides access to supplier payments
type SupplierPaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SupplierPayment, error)
	FindBySupplier(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]SupplierPayment, error)
	Save(ctx context.Context, payment *SupplierPayment) error
	// TotalPaidBySupplier sums all payment amounts for a supplier, live
	TotalPaidBySupplier(ctx context.Context, supplierID uuid.UUID) (decimal.Decimal, error)
}
