package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockledger/backend/internal/domain/procurement"
	"github.com/stockledger/backend/internal/domain/shared"
)

// GormPurchaseOrderRepository implements procurement.PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// FindByID finds a purchase order with its lines
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.PurchaseOrder, error) {
	var po procurement.PurchaseOrder
	if err := r.db.WithContext(ctx).Preload("Items").First(&po, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &po, nil
}

// FindByOrderNumber finds a purchase order by its order number
func (r *GormPurchaseOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*procurement.PurchaseOrder, error) {
	var po procurement.PurchaseOrder
	if err := r.db.WithContext(ctx).Preload("Items").First(&po, "order_number = ?", orderNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &po, nil
}

// Save persists a purchase order together with its lines
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, po *procurement.PurchaseOrder) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(po).Error
}

// List returns purchase orders ordered per the filter
func (r *GormPurchaseOrderRepository) List(ctx context.Context, filter shared.Filter) ([]procurement.PurchaseOrder, error) {
	var orders []procurement.PurchaseOrder
	orderBy := ValidateSortField(filter.OrderBy, PurchaseOrderSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	if err := r.db.WithContext(ctx).
		Preload("Items").
		Order(orderBy + " " + orderDir).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

var _ procurement.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
