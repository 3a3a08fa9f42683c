package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockledger/backend/internal/domain/inventory"
)

// RecordMovementRequest describes one stock movement to record. Quantity
// is signed: positive creates stock, negative consumes it. UnitCost is
// required for inbound movements and ignored for outbound ones, where
// cost comes from the consumed lots.
type RecordMovementRequest struct {
	ItemID       uuid.UUID       `json:"item_id" binding:"required"`
	Type         string          `json:"type" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	MovementDate time.Time       `json:"movement_date"`
	Reference    string          `json:"reference"`
	Notes        string          `json:"notes"`
	ExpiryDate   *time.Time      `json:"expiry_date,omitempty"`
	CreatedBy    uuid.UUID       `json:"created_by"`
}

// MovementResult is everything one recorded movement produced
type MovementResult struct {
	Movement       *inventory.StockMovement  `json:"movement"`
	Lot            *inventory.StockLot       `json:"lot,omitempty"`
	Allocations    []inventory.LotAllocation `json:"allocations,omitempty"`
	JournalEntryID *uuid.UUID                `json:"journal_entry_id,omitempty"`
}

// CreateItemRequest describes a new inventory item
type CreateItemRequest struct {
	Code         string          `json:"code" binding:"required"`
	Name         string          `json:"name" binding:"required"`
	StandardCost decimal.Decimal `json:"standard_cost"`
	ReorderPoint decimal.Decimal `json:"reorder_point"`
}

// StockLevelResponse is the live stock position of one item
type StockLevelResponse struct {
	ItemID         uuid.UUID       `json:"item_id"`
	ItemCode       string          `json:"item_code"`
	TotalAvailable decimal.Decimal `json:"total_available"`
	OpenLots       int             `json:"open_lots"`
}
