package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/domain/shared"
)

// GormItemRepository implements inventory.ItemRepository using GORM
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GormItemRepository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// FindByID finds an item by its ID
func (r *GormItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Item, error) {
	var item inventory.Item
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindByCode finds an item by its code
func (r *GormItemRepository) FindByCode(ctx context.Context, code string) (*inventory.Item, error) {
	var item inventory.Item
	if err := r.db.WithContext(ctx).First(&item, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// Save persists an item
func (r *GormItemRepository) Save(ctx context.Context, item *inventory.Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// FindBelowReorderPoint lists items whose total available stock is under
// their reorder point. Availability is summed live from open lots.
func (r *GormItemRepository) FindBelowReorderPoint(ctx context.Context, filter shared.Filter) ([]inventory.Item, error) {
	var items []inventory.Item
	orderBy := ValidateSortField(filter.OrderBy, ItemSortFields, "code")
	orderDir := ValidateSortOrder(filter.OrderDir)

	sub := r.db.Model(&inventory.StockLot{}).
		Select("COALESCE(SUM(available_qty), 0)").
		Where("stock_lots.item_id = items.id")

	if err := r.db.WithContext(ctx).
		Model(&inventory.Item{}).
		Where("tracks_inventory = TRUE").
		Where("reorder_point > (?)", sub).
		Order(orderBy + " " + orderDir).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

var _ inventory.ItemRepository = (*GormItemRepository)(nil)
