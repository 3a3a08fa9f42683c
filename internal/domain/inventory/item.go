package inventory

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
)

// Item is a stock-keeping unit. Once movements reference an item only
// its descriptive fields may change.
type Item struct {
	shared.BaseAggregateRoot
	Code            string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name            string          `gorm:"type:varchar(200);not null"`
	TracksInventory bool            `gorm:"not null;default:true"`
	StandardCost    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ReorderPoint    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (Item) TableName() string {
	return "items"
}

// NewItem creates a new inventory-tracked item
func NewItem(code, name string, standardCost, reorderPoint decimal.Decimal) (*Item, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_ITEM_CODE", "Item code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ITEM_NAME", "Item name cannot be empty")
	}
	if standardCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Standard cost cannot be negative")
	}
	if reorderPoint.IsNegative() {
		return nil, shared.NewDomainError("INVALID_REORDER_POINT", "Reorder point cannot be negative")
	}
	return &Item{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		TracksInventory:   true,
		StandardCost:      standardCost,
		ReorderPoint:      reorderPoint,
	}, nil
}

// Rename updates the descriptive name
func (i *Item) Rename(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_ITEM_NAME", "Item name cannot be empty")
	}
	i.Name = name
	i.UpdatedAt = time.Now()
	return nil
}
