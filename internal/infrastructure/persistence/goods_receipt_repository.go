package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stockledger/backend/internal/domain/procurement"
	"github.com/stockledger/backend/internal/domain/shared"
)

// GormGoodsReceiptRepository implements procurement.GoodsReceiptRepository using GORM
type GormGoodsReceiptRepository struct {
	db *gorm.DB
}

// NewGormGoodsReceiptRepository creates a new GormGoodsReceiptRepository
func NewGormGoodsReceiptRepository(db *gorm.DB) *GormGoodsReceiptRepository {
	return &GormGoodsReceiptRepository{db: db}
}

// FindByID finds a goods receipt with its lines
func (r *GormGoodsReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.GoodsReceipt, error) {
	var receipt procurement.GoodsReceipt
	if err := r.db.WithContext(ctx).Preload("Items").First(&receipt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &receipt, nil
}

// FindByPurchaseOrder finds all receipts recorded against a purchase order
func (r *GormGoodsReceiptRepository) FindByPurchaseOrder(ctx context.Context, poID uuid.UUID) ([]procurement.GoodsReceipt, error) {
	var receipts []procurement.GoodsReceipt
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("purchase_order_id = ?", poID).
		Order("received_date ASC, created_at ASC").
		Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}

// Save persists a goods receipt together with its lines
func (r *GormGoodsReceiptRepository) Save(ctx context.Context, receipt *procurement.GoodsReceipt) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(receipt).Error
}

// ReceivedByPOItem sums accepted quantities (received minus rejected)
// per purchase order line, live across all receipts for the order.
func (r *GormGoodsReceiptRepository) ReceivedByPOItem(ctx context.Context, poID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []struct {
		POItemID uuid.UUID
		Total    decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&procurement.GoodsReceiptItem{}).
		Select("goods_receipt_items.po_item_id AS po_item_id, COALESCE(SUM(goods_receipt_items.qty_received - goods_receipt_items.qty_rejected), 0) AS total").
		Joins("JOIN goods_receipts ON goods_receipts.id = goods_receipt_items.receipt_id").
		Where("goods_receipts.purchase_order_id = ?", poID).
		Group("goods_receipt_items.po_item_id").
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

var _ procurement.GoodsReceiptRepository = (*GormGoodsReceiptRepository)(nil)
