package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
)

// MovementType classifies a stock movement
type MovementType string

const (
	MovementTypeOpening    MovementType = "OPENING"
	MovementTypeStockIn    MovementType = "STOCK_IN"
	MovementTypeStockOut   MovementType = "STOCK_OUT"
	MovementTypeTransfer   MovementType = "TRANSFER"
	MovementTypeAdjustment MovementType = "ADJUSTMENT"
)

// IsValid checks if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeOpening, MovementTypeStockIn, MovementTypeStockOut,
		MovementTypeTransfer, MovementTypeAdjustment:
		return true
	}
	return false
}

// String returns the string representation
func (t MovementType) String() string {
	return string(t)
}

// IsInbound reports whether this movement type creates stock.
// ADJUSTMENT and TRANSFER take their direction from the signed quantity.
func (t MovementType) IsInbound() bool {
	return t == MovementTypeOpening || t == MovementTypeStockIn
}

// StockMovement is an immutable ledger record of a stock change. The
// quantity is signed: positive for inbound, negative for outbound.
// Movements are append-only; the sum of movements for an item must
// reconcile to the sum of its lots' available plus consumed quantities.
type StockMovement struct {
	shared.BaseEntity
	ItemID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type           MovementType    `gorm:"type:varchar(20);not null"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null"` // signed
	UnitCost       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalCost      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	MovementDate   time.Time       `gorm:"not null;index"`
	Reference      string          `gorm:"type:varchar(100);index"`
	Notes          string          `gorm:"type:varchar(500)"`
	CreatedBy      uuid.UUID       `gorm:"type:uuid;not null"`
	JournalEntryID *uuid.UUID      `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement creates a movement record. UnitCost and TotalCost are
// always non-negative; direction lives in the signed Quantity.
func NewStockMovement(itemID uuid.UUID, movementType MovementType, quantity, unitCost decimal.Decimal, movementDate time.Time, reference, notes string, createdBy uuid.UUID) (*StockMovement, error) {
	if itemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item ID cannot be empty")
	}
	if !movementType.IsValid() {
		return nil, shared.NewDomainErrorf("INVALID_MOVEMENT_TYPE", "Unknown movement type %q", movementType)
	}
	if quantity.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Movement quantity cannot be zero")
	}
	if movementType.IsInbound() && quantity.IsNegative() {
		return nil, shared.NewDomainErrorf("INVALID_QUANTITY", "%s movements require a positive quantity", movementType)
	}
	if movementType == MovementTypeStockOut && quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "STOCK_OUT movements require a negative quantity")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Creator is required for audit attribution")
	}
	return &StockMovement{
		BaseEntity:   shared.NewBaseEntity(),
		ItemID:       itemID,
		Type:         movementType,
		Quantity:     quantity,
		UnitCost:     unitCost,
		TotalCost:    quantity.Abs().Mul(unitCost),
		MovementDate: movementDate,
		Reference:    reference,
		Notes:        notes,
		CreatedBy:    createdBy,
	}, nil
}

// AttachJournalEntry links the GL entry posted for this movement
func (m *StockMovement) AttachJournalEntry(entryID uuid.UUID) {
	m.JournalEntryID = &entryID
}
