package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
)

// StockLot is a cost-tagged batch of inventory received at one time.
// Lots are created by inbound movements, consumed oldest-first by the
// FIFO allocator, and never deleted. Invariant: 0 <= AvailableQty <=
// ReceivedQty; AvailableQty only ever decreases.
type StockLot struct {
	shared.BaseEntity
	ItemID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ReceivedDate time.Time       `gorm:"not null;index"`
	ReceivedQty  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AvailableQty decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalCost    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ExpiryDate   *time.Time
	SupplierRef  string `gorm:"type:varchar(100)"` // PO / receipt reference
}

// TableName returns the table name for GORM
func (StockLot) TableName() string {
	return "stock_lots"
}

// NewStockLot creates a fully-available lot from an inbound receipt
func NewStockLot(itemID uuid.UUID, receivedDate time.Time, quantity, unitCost decimal.Decimal, expiryDate *time.Time, supplierRef string) (*StockLot, error) {
	if itemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Lot quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	return &StockLot{
		BaseEntity:   shared.NewBaseEntity(),
		ItemID:       itemID,
		ReceivedDate: receivedDate,
		ReceivedQty:  quantity,
		AvailableQty: quantity,
		UnitCost:     unitCost,
		TotalCost:    quantity.Mul(unitCost),
		ExpiryDate:   expiryDate,
		SupplierRef:  supplierRef,
	}, nil
}

// IsDepleted reports whether the lot has no remaining quantity
func (l *StockLot) IsDepleted() bool {
	return l.AvailableQty.IsZero()
}

// IsExpired reports whether the lot is past its expiry date
func (l *StockLot) IsExpired(now time.Time) bool {
	return l.ExpiryDate != nil && l.ExpiryDate.Before(now)
}

// Consume decrements the available quantity. The quantity must not
// exceed what is available; partial consumption of a lot is the caller's
// concern (the allocator computes per-lot takes before applying them).
func (l *StockLot) Consume(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Consumed quantity must be positive")
	}
	if quantity.GreaterThan(l.AvailableQty) {
		return shared.NewDomainErrorf(shared.ErrInsufficientStock.Code,
			"Lot %s has %s available, cannot consume %s",
			l.ID, l.AvailableQty, quantity)
	}
	l.AvailableQty = l.AvailableQty.Sub(quantity)
	l.UpdatedAt = time.Now()
	return nil
}
