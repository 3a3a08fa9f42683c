package procurement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
)

// QualityStatus classifies the inspection outcome of a receipt line
type QualityStatus string

const (
	QualityStatusAccepted QualityStatus = "ACCEPTED"
	QualityStatusRejected QualityStatus = "REJECTED"
	QualityStatusPartial  QualityStatus = "PARTIAL"
)

// IsValid checks if the quality status is valid
func (s QualityStatus) IsValid() bool {
	switch s {
	case QualityStatusAccepted, QualityStatusRejected, QualityStatusPartial:
		return true
	}
	return false
}

// String returns the string representation
func (s QualityStatus) String() string {
	return string(s)
}

// GoodsReceiptItem is one received line against a purchase order line
type GoodsReceiptItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	ReceiptID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	POItemID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemID        uuid.UUID       `gorm:"type:uuid;not null"`
	ItemCode      string          `gorm:"type:varchar(50);not null"`
	QtyReceived   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	QtyRejected   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost      decimal.Decimal `gorm:"type:decimal(18,4);not null"` // cost at receipt
	QualityStatus QualityStatus   `gorm:"type:varchar(20);not null"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (GoodsReceiptItem) TableName() string {
	return "goods_receipt_items"
}

// AcceptedQty returns the quantity that passed inspection and enters stock
func (i *GoodsReceiptItem) AcceptedQty() decimal.Decimal {
	return i.QtyReceived.Sub(i.QtyRejected)
}

// GoodsReceipt records one (possibly partial) delivery against a
// purchase order. A PO may have many receipts.
type GoodsReceipt struct {
	shared.BaseAggregateRoot
	ReceiptNumber   string             `gorm:"type:varchar(50);not null;uniqueIndex"`
	PurchaseOrderID uuid.UUID          `gorm:"type:uuid;not null;index"`
	ReceivedDate    time.Time          `gorm:"not null"`
	ReceivedBy      uuid.UUID          `gorm:"type:uuid;not null"`
	Notes           string             `gorm:"type:varchar(500)"`
	Items           []GoodsReceiptItem `gorm:"foreignKey:ReceiptID;references:ID"`
}

// TableName returns the table name for GORM
func (GoodsReceipt) TableName() string {
	return "goods_receipts"
}

// ReceiptLineInput describes one received line
type ReceiptLineInput struct {
	POItemID    uuid.UUID
	QtyReceived decimal.Decimal
	QtyRejected decimal.Decimal
	UnitCost    decimal.Decimal
}

// NewGoodsReceipt validates the lines against the purchase order and
// constructs the receipt. Over-receipt past a line's remaining quantity
// is rejected here; the PO's own RecordReceipt enforces it again when
// quantities are rolled up.
func NewGoodsReceipt(receiptNumber string, po *PurchaseOrder, receivedDate time.Time, lines []ReceiptLineInput, receivedBy uuid.UUID, notes string) (*GoodsReceipt, error) {
	if receiptNumber == "" {
		return nil, shared.NewDomainError("INVALID_RECEIPT_NUMBER", "Receipt number cannot be empty")
	}
	if po == nil {
		return nil, shared.NewDomainError(shared.ErrNotFound.Code, "Purchase order is required")
	}
	if !po.Status.CanReceive() {
		return nil, shared.NewDomainErrorf(shared.ErrInvalidState.Code,
			"Cannot receive goods for purchase order in status %s", po.Status)
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("INVALID_RECEIPT", "A goods receipt requires at least one line")
	}

	receipt := &GoodsReceipt{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReceiptNumber:     receiptNumber,
		PurchaseOrderID:   po.ID,
		ReceivedDate:      receivedDate,
		ReceivedBy:        receivedBy,
		Notes:             notes,
		Items:             make([]GoodsReceiptItem, 0, len(lines)),
	}

	now := time.Now()
	for _, line := range lines {
		poLine := po.findItem(line.POItemID)
		if poLine == nil {
			return nil, shared.NewDomainErrorf(shared.ErrNotFound.Code,
				"Purchase order line %s not found", line.POItemID)
		}
		if line.QtyReceived.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Received quantity must be positive")
		}
		if line.QtyRejected.IsNegative() || line.QtyRejected.GreaterThan(line.QtyReceived) {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Rejected quantity must be between zero and the received quantity")
		}
		if line.QtyReceived.GreaterThan(poLine.RemainingQty()) {
			return nil, shared.NewDomainErrorf("OVER_RECEIPT",
				"Received quantity %s exceeds remaining %s on line %s",
				line.QtyReceived, poLine.RemainingQty(), poLine.ItemCode)
		}
		unitCost := line.UnitCost
		if unitCost.IsNegative() {
			return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
		}
		if unitCost.IsZero() {
			unitCost = poLine.UnitPrice
		}

		quality := QualityStatusAccepted
		switch {
		case line.QtyRejected.Equal(line.QtyReceived):
			quality = QualityStatusRejected
		case line.QtyRejected.IsPositive():
			quality = QualityStatusPartial
		}

		receipt.Items = append(receipt.Items, GoodsReceiptItem{
			ID:            uuid.New(),
			ReceiptID:     receipt.ID,
			POItemID:      poLine.ID,
			ItemID:        poLine.ItemID,
			ItemCode:      poLine.ItemCode,
			QtyReceived:   line.QtyReceived,
			QtyRejected:   line.QtyRejected,
			UnitCost:      unitCost,
			QualityStatus: quality,
			CreatedAt:     now,
		})
	}

	return receipt, nil
}
