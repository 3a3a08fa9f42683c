package procurement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/domain/shared/valueobject"
)

// PurchaseOrderStatus represents the status of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft           PurchaseOrderStatus = "DRAFT"
	PurchaseOrderStatusConfirmed       PurchaseOrderStatus = "CONFIRMED"
	PurchaseOrderStatusPartialReceived PurchaseOrderStatus = "PARTIAL_RECEIVED"
	PurchaseOrderStatusClosed          PurchaseOrderStatus = "CLOSED"
	PurchaseOrderStatusCancelled       PurchaseOrderStatus = "CANCELLED"
)

// IsValid checks if the status is a valid PurchaseOrderStatus
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case PurchaseOrderStatusDraft, PurchaseOrderStatusConfirmed,
		PurchaseOrderStatusPartialReceived, PurchaseOrderStatusClosed,
		PurchaseOrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	switch s {
	case PurchaseOrderStatusDraft:
		return target == PurchaseOrderStatusConfirmed || target == PurchaseOrderStatusCancelled
	case PurchaseOrderStatusConfirmed:
		return target == PurchaseOrderStatusPartialReceived || target == PurchaseOrderStatusClosed || target == PurchaseOrderStatusCancelled
	case PurchaseOrderStatusPartialReceived:
		return target == PurchaseOrderStatusPartialReceived || target == PurchaseOrderStatusClosed
	case PurchaseOrderStatusClosed, PurchaseOrderStatusCancelled:
		return false
	}
	return false
}

// CanReceive returns true if goods may be received in this status
func (s PurchaseOrderStatus) CanReceive() bool {
	return s == PurchaseOrderStatusConfirmed || s == PurchaseOrderStatusPartialReceived
}

// PurchaseOrderItem is a line item on a purchase order
type PurchaseOrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemID      uuid.UUID       `gorm:"type:uuid;not null"`
	ItemCode    string          `gorm:"type:varchar(50);not null"`
	OrderedQty  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReceivedQty decimal.Decimal `gorm:"type:decimal(18,4);not null"` // rolled up from receipts
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"` // OrderedQty * UnitPrice
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PurchaseOrderItem) TableName() string {
	return "purchase_order_items"
}

// RemainingQty returns the quantity still to be received
func (i *PurchaseOrderItem) RemainingQty() decimal.Decimal {
	return i.OrderedQty.Sub(i.ReceivedQty)
}

// PurchaseOrder is the ordering document suppliers deliver against
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	OrderNumber  string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID   uuid.UUID            `gorm:"type:uuid;not null;index"`
	Status       PurchaseOrderStatus  `gorm:"type:varchar(20);not null"`
	OrderDate    time.Time            `gorm:"not null"`
	Currency     valueobject.Currency `gorm:"type:varchar(3);not null"`
	ExchangeRate decimal.Decimal      `gorm:"type:decimal(18,6);not null;default:1"`
	TaxRate      decimal.Decimal      `gorm:"type:decimal(8,4);not null;default:0"` // percentage, e.g. 10 for 10%
	Subtotal     decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	TaxAmount    decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Total        decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	CreatedBy    uuid.UUID            `gorm:"type:uuid;not null"`
	Items        []PurchaseOrderItem  `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// POLineInput describes one requested order line
type POLineInput struct {
	ItemID    uuid.UUID
	ItemCode  string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// NewPurchaseOrder creates a draft purchase order with its line items
func NewPurchaseOrder(orderNumber string, supplierID uuid.UUID, orderDate time.Time, currency valueobject.Currency, exchangeRate, taxRate decimal.Decimal, lines []POLineInput, createdBy uuid.UUID) (*PurchaseOrder, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("INVALID_ORDER", "A purchase order requires at least one line")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	if exchangeRate.LessThanOrEqual(decimal.Zero) {
		exchangeRate = decimal.NewFromInt(1)
	}
	if taxRate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_TAX_RATE", "Tax rate cannot be negative")
	}

	po := &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		SupplierID:        supplierID,
		Status:            PurchaseOrderStatusDraft,
		OrderDate:         orderDate,
		Currency:          currency,
		ExchangeRate:      exchangeRate,
		TaxRate:           taxRate,
		CreatedBy:         createdBy,
		Items:             make([]PurchaseOrderItem, 0, len(lines)),
	}

	now := time.Now()
	subtotal := decimal.Zero
	for _, line := range lines {
		if line.ItemID == uuid.Nil {
			return nil, shared.NewDomainError("INVALID_ITEM", "Line item ID cannot be empty")
		}
		if line.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Line quantity must be positive")
		}
		if line.UnitPrice.IsNegative() {
			return nil, shared.NewDomainError("INVALID_PRICE", "Line unit price cannot be negative")
		}
		amount := line.Quantity.Mul(line.UnitPrice).Round(valueobject.MoneyScale)
		po.Items = append(po.Items, PurchaseOrderItem{
			ID:          uuid.New(),
			OrderID:     po.ID,
			ItemID:      line.ItemID,
			ItemCode:    line.ItemCode,
			OrderedQty:  line.Quantity,
			ReceivedQty: decimal.Zero,
			UnitPrice:   line.UnitPrice,
			Amount:      amount,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		subtotal = subtotal.Add(amount)
	}

	po.Subtotal = subtotal
	po.TaxAmount = subtotal.Mul(taxRate).Div(decimal.NewFromInt(100)).Round(valueobject.MoneyScale)
	po.Total = po.Subtotal.Add(po.TaxAmount)
	return po, nil
}

// Confirm moves a draft order to CONFIRMED
func (po *PurchaseOrder) Confirm() error {
	if !po.Status.CanTransitionTo(PurchaseOrderStatusConfirmed) {
		return shared.NewDomainErrorf(shared.ErrInvalidState.Code,
			"Cannot confirm purchase order in status %s", po.Status)
	}
	po.Status = PurchaseOrderStatusConfirmed
	po.UpdatedAt = time.Now()
	po.IncrementVersion()
	return nil
}

// Cancel cancels the order. Orders with received goods cannot be cancelled.
func (po *PurchaseOrder) Cancel() error {
	if !po.Status.CanTransitionTo(PurchaseOrderStatusCancelled) {
		return shared.NewDomainErrorf(shared.ErrInvalidState.Code,
			"Cannot cancel purchase order in status %s", po.Status)
	}
	po.Status = PurchaseOrderStatusCancelled
	po.UpdatedAt = time.Now()
	po.IncrementVersion()
	return nil
}

// findItem returns the line for the given PO item ID
func (po *PurchaseOrder) findItem(poItemID uuid.UUID) *PurchaseOrderItem {
	for i := range po.Items {
		if po.Items[i].ID == poItemID {
			return &po.Items[i]
		}
	}
	return nil
}

// RecordReceipt rolls a received quantity into the matching line and
// advances the order status. Receiving more than the line's remaining
// quantity is rejected.
func (po *PurchaseOrder) RecordReceipt(poItemID uuid.UUID, quantity decimal.Decimal) error {
	if !po.Status.CanReceive() {
		return shared.NewDomainErrorf(shared.ErrInvalidState.Code,
			"Cannot receive goods for purchase order in status %s", po.Status)
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Received quantity must be positive")
	}
	line := po.findItem(poItemID)
	if line == nil {
		return shared.NewDomainErrorf(shared.ErrNotFound.Code, "Purchase order line %s not found", poItemID)
	}
	if quantity.GreaterThan(line.RemainingQty()) {
		return shared.NewDomainErrorf("OVER_RECEIPT",
			"Received quantity %s exceeds remaining %s on line %s",
			quantity, line.RemainingQty(), line.ItemCode)
	}

	now := time.Now()
	line.ReceivedQty = line.ReceivedQty.Add(quantity)
	line.UpdatedAt = now

	if po.IsFullyReceived() {
		po.Status = PurchaseOrderStatusClosed
	} else {
		po.Status = PurchaseOrderStatusPartialReceived
	}
	po.UpdatedAt = now
	po.IncrementVersion()
	return nil
}

// IsFullyReceived reports whether every line is fully received
func (po *PurchaseOrder) IsFullyReceived() bool {
	for i := range po.Items {
		if po.Items[i].ReceivedQty.LessThan(po.Items[i].OrderedQty) {
			return false
		}
	}
	return true
}
