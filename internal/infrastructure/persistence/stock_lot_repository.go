package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/domain/shared"
)

// GormStockLotRepository implements inventory.StockLotRepository using GORM
type GormStockLotRepository struct {
	db *gorm.DB
}

// NewGormStockLotRepository creates a new GormStockLotRepository
func NewGormStockLotRepository(db *gorm.DB) *GormStockLotRepository {
	return &GormStockLotRepository{db: db}
}

// FindByID finds a stock lot by its ID
func (r *GormStockLotRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockLot, error) {
	var lot inventory.StockLot
	if err := r.db.WithContext(ctx).First(&lot, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &lot, nil
}

// FindOpenByItem returns all lots with remaining quantity for an item,
// oldest receipt first. With forUpdate set the rows are locked with
// SELECT ... FOR UPDATE so concurrent consumers inside transactions
// serialize on the same lots.
func (r *GormStockLotRepository) FindOpenByItem(ctx context.Context, itemID uuid.UUID, forUpdate bool) ([]*inventory.StockLot, error) {
	query := r.db.WithContext(ctx).
		Where("item_id = ? AND available_qty > 0", itemID).
		Order("received_date ASC, created_at ASC")
	if forUpdate && rowLockingSupported(r.db) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var lots []*inventory.StockLot
	if err := query.Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// Save persists a stock lot
func (r *GormStockLotRepository) Save(ctx context.Context, lot *inventory.StockLot) error {
	return r.db.WithContext(ctx).Save(lot).Error
}

// SaveAll persists a set of lots, typically after a FIFO allocation
// decremented their available quantities.
func (r *GormStockLotRepository) SaveAll(ctx context.Context, lots []*inventory.StockLot) error {
	for _, lot := range lots {
		if err := r.db.WithContext(ctx).Save(lot).Error; err != nil {
			return err
		}
	}
	return nil
}

// TotalAvailable sums available quantity across an item's lots, live
func (r *GormStockLotRepository) TotalAvailable(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&inventory.StockLot{}).
		Select("COALESCE(SUM(available_qty), 0) AS total").
		Where("item_id = ?", itemID).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

var _ inventory.StockLotRepository = (*GormStockLotRepository)(nil)
