package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/domain/shared"
)

// GormStockMovementRepository implements inventory.StockMovementRepository using GORM
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// FindByID finds a stock movement by its ID
func (r *GormStockMovementRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockMovement, error) {
	var movement inventory.StockMovement
	if err := r.db.WithContext(ctx).First(&movement, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &movement, nil
}

// FindByItem lists movements for an item ordered per the filter
func (r *GormStockMovementRepository) FindByItem(ctx context.Context, itemID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, error) {
	var movements []inventory.StockMovement
	orderBy := ValidateSortField(filter.OrderBy, StockMovementSortFields, "movement_date")
	orderDir := ValidateSortOrder(filter.OrderDir)

	if err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order(orderBy + " " + orderDir).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// Save persists a stock movement. Movements are append-only; updates
// only attach the journal entry reference after posting.
func (r *GormStockMovementRepository) Save(ctx context.Context, movement *inventory.StockMovement) error {
	return r.db.WithContext(ctx).Save(movement).Error
}

var _ inventory.StockMovementRepository = (*GormStockMovementRepository)(nil)
