package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stockledger/backend/internal/domain/procurement"
	"github.com/stockledger/backend/internal/domain/shared"
)

// GormSupplierInvoiceRepository implements procurement.SupplierInvoiceRepository using GORM
type GormSupplierInvoiceRepository struct {
	db *gorm.DB
}

// NewGormSupplierInvoiceRepository creates a new GormSupplierInvoiceRepository
func NewGormSupplierInvoiceRepository(db *gorm.DB) *GormSupplierInvoiceRepository {
	return &GormSupplierInvoiceRepository{db: db}
}

// FindByID finds a supplier invoice with its lines
func (r *GormSupplierInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.SupplierInvoice, error) {
	return r.findByID(ctx, id, false)
}

// FindByIDForUpdate loads the invoice with its row locked for the
// duration of the surrounding transaction, serializing concurrent
// payments against the same invoice.
func (r *GormSupplierInvoiceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*procurement.SupplierInvoice, error) {
	return r.findByID(ctx, id, true)
}

func (r *GormSupplierInvoiceRepository) findByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*procurement.SupplierInvoice, error) {
	query := r.db.WithContext(ctx).Preload("Items")
	if forUpdate && rowLockingSupported(r.db) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var invoice procurement.SupplierInvoice
	if err := query.First(&invoice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindByInvoiceNumber finds an invoice by its supplier-assigned number
func (r *GormSupplierInvoiceRepository) FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (*procurement.SupplierInvoice, error) {
	var invoice procurement.SupplierInvoice
	if err := r.db.WithContext(ctx).Preload("Items").First(&invoice, "invoice_number = ?", invoiceNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindByPurchaseOrder finds all invoices recorded against a purchase order
func (r *GormSupplierInvoiceRepository) FindByPurchaseOrder(ctx context.Context, poID uuid.UUID) ([]procurement.SupplierInvoice, error) {
	var invoices []procurement.SupplierInvoice
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("purchase_order_id = ?", poID).
		Order("invoice_date ASC, created_at ASC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// Save persists a supplier invoice together with its lines
func (r *GormSupplierInvoiceRepository) Save(ctx context.Context, invoice *procurement.SupplierInvoice) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(invoice).Error
}

// InvoicedByPOItem sums invoiced quantities per purchase order line,
// excluding rejected invoices so a rejected document frees its claim.
func (r *GormSupplierInvoiceRepository) InvoicedByPOItem(ctx context.Context, poID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []struct {
		POItemID uuid.UUID
		Total    decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&procurement.SupplierInvoiceItem{}).
		Select("supplier_invoice_items.po_item_id AS po_item_id, COALESCE(SUM(supplier_invoice_items.quantity), 0) AS total").
		Joins("JOIN supplier_invoices ON supplier_invoices.id = supplier_invoice_items.invoice_id").
		Where("supplier_invoices.purchase_order_id = ?", poID).
		Where("supplier_invoices.matching_status <> ?", procurement.MatchingStatusRejected).
		Group("supplier_invoice_items.po_item_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		result[row.POItemID] = row.Total
	}
	return result, nil
}

// OutstandingBySupplier aggregates open balances and the open invoice
// count for a supplier, live from posted invoices.
func (r *GormSupplierInvoiceRepository) OutstandingBySupplier(ctx context.Context, supplierID uuid.UUID) (decimal.Decimal, int64, error) {
	var result struct {
		Outstanding decimal.Decimal
		OpenCount   int64
	}
	err := r.db.WithContext(ctx).
		Model(&procurement.SupplierInvoice{}).
		Select("COALESCE(SUM(balance_amount), 0) AS outstanding, COUNT(*) AS open_count").
		Where("supplier_id = ?", supplierID).
		Where("status = ?", procurement.InvoiceStatusPosted).
		Where("balance_amount > 0").
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, 0, err
	}
	return result.Outstanding, result.OpenCount, nil
}

var _ procurement.SupplierInvoiceRepository = (*GormSupplierInvoiceRepository)(nil)
