package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
)

// ItemRepository provides access to inventory items
type ItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)
	FindByCode(ctx context.Context, code string) (*Item, error)
	Save(ctx context.Context, item *Item) error
	// FindBelowReorderPoint lists items whose total available stock is
	// under their reorder point.
	FindBelowReorderPoint(ctx context.Context, filter shared.Filter) ([]Item, error)
}

// StockLotRepository provides access to stock lots
type StockLotRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*StockLot, error)
	// FindOpenByItem returns all lots with remaining quantity for an item.
	// When forUpdate is set the rows are locked for the duration of the
	// surrounding transaction so concurrent consumers serialize.
	FindOpenByItem(ctx context.Context, itemID uuid.UUID, forUpdate bool) ([]*StockLot, error)
	Save(ctx context.Context, lot *StockLot) error
	SaveAll(ctx context.Context, lots []*StockLot) error
	// TotalAvailable sums available quantity across an item's lots,
	// queried live at decision time.
	TotalAvailable(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error)
}

// StockMovementRepository provides append-only access to the movement ledger
type StockMovementRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*StockMovement, error)
	FindByItem(ctx context.Context, itemID uuid.UUID, filter shared.Filter) ([]StockMovement, error)
	Save(ctx context.Context, movement *StockMovement) error
}
