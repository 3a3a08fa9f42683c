package procurement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/domain/shared/valueobject"
)

// InvoiceStatus is the document lifecycle of a supplier invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft  InvoiceStatus = "DRAFT"
	InvoiceStatusPosted InvoiceStatus = "POSTED"
	InvoiceStatusPaid   InvoiceStatus = "PAID"
)

// IsValid checks if the status is valid
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusPosted, InvoiceStatusPaid:
		return true
	}
	return false
}

// String returns the string representation
func (s InvoiceStatus) String() string {
	return string(s)
}

// SupplierInvoiceItem is one invoiced line against a purchase order line
type SupplierInvoiceItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index"`
	POItemID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemID    uuid.UUID       `gorm:"type:uuid;not null"`
	ItemCode  string          `gorm:"type:varchar(50);not null"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SupplierInvoiceItem) TableName() string {
	return "supplier_invoice_items"
}

// SupplierInvoice is the supplier's bill for goods received against a
// purchase order. Matching gates posting; posting gates payment.
type SupplierInvoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber   string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	PurchaseOrderID uuid.UUID            `gorm:"type:uuid;not null;index"`
	InvoiceDate     time.Time            `gorm:"not null"`
	Currency        valueobject.Currency `gorm:"type:varchar(3);not null"`
	ExchangeRate    decimal.Decimal      `gorm:"type:decimal(18,6);not null;default:1"`
	Subtotal        decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	TaxAmount       decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Total           decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	PaidAmount      decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	BalanceAmount   decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	MatchingStatus  MatchingStatus       `gorm:"type:varchar(30);not null"`
	Status          InvoiceStatus        `gorm:"type:varchar(20);not null"`
	JournalEntryID  *uuid.UUID           `gorm:"type:uuid"`
	ApprovedBy      *uuid.UUID           `gorm:"type:uuid"`
	ApprovalReason  string               `gorm:"type:varchar(500)"`
	RejectedBy      *uuid.UUID           `gorm:"type:uuid"`
	RejectionReason string               `gorm:"type:varchar(500)"`
	RequiredActions string               `gorm:"type:varchar(500)"`
	CreatedBy       uuid.UUID            `gorm:"type:uuid;not null"`
	Items           []SupplierInvoiceItem `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (SupplierInvoice) TableName() string {
	return "supplier_invoices"
}

// InvoiceLineInput describes one invoiced line
type InvoiceLineInput struct {
	POItemID  uuid.UUID
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// NewSupplierInvoice validates the lines against the purchase order and
// the received quantities, then constructs a DRAFT invoice in PENDING
// matching status. Invoicing more than has been received on a line is a
// hard gate here (OVER_INVOICED), independent of the later matching
// analysis. receivedByPOItem carries the summed accepted receipt
// quantity per PO line.
func NewSupplierInvoice(
	invoiceNumber string,
	po *PurchaseOrder,
	invoiceDate time.Time,
	taxAmount decimal.Decimal,
	lines []InvoiceLineInput,
	receivedByPOItem map[uuid.UUID]decimal.Decimal,
	invoicedByPOItem map[uuid.UUID]decimal.Decimal,
	createdBy uuid.UUID,
) (*SupplierInvoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if po == nil {
		return nil, shared.NewDomainError(shared.ErrNotFound.Code, "Purchase order is required")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("INVALID_INVOICE", "A supplier invoice requires at least one line")
	}
	if taxAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_TAX", "Tax amount cannot be negative")
	}

	invoice := &SupplierInvoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     invoiceNumber,
		SupplierID:        po.SupplierID,
		PurchaseOrderID:   po.ID,
		InvoiceDate:       invoiceDate,
		Currency:          po.Currency,
		ExchangeRate:      po.ExchangeRate,
		PaidAmount:        decimal.Zero,
		MatchingStatus:    MatchingStatusPending,
		Status:            InvoiceStatusDraft,
		CreatedBy:         createdBy,
		Items:             make([]SupplierInvoiceItem, 0, len(lines)),
	}

	now := time.Now()
	subtotal := decimal.Zero
	for _, line := range lines {
		poLine := po.findItem(line.POItemID)
		if poLine == nil {
			return nil, shared.NewDomainErrorf(shared.ErrNotFound.Code,
				"Purchase order line %s not found", line.POItemID)
		}
		if line.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Invoice quantity must be positive")
		}
		if line.UnitPrice.IsNegative() {
			return nil, shared.NewDomainError("INVALID_PRICE", "Invoice unit price cannot be negative")
		}

		received := receivedByPOItem[poLine.ID]
		alreadyInvoiced := invoicedByPOItem[poLine.ID]
		if line.Quantity.Add(alreadyInvoiced).GreaterThan(received) {
			return nil, shared.NewDomainErrorf(shared.ErrOverInvoiced.Code,
				"Invoice quantity %s exceeds received quantity %s on line %s (already invoiced %s)",
				line.Quantity, received, poLine.ItemCode, alreadyInvoiced)
		}

		amount := line.Quantity.Mul(line.UnitPrice).Round(valueobject.MoneyScale)
		invoice.Items = append(invoice.Items, SupplierInvoiceItem{
			ID:        uuid.New(),
			InvoiceID: invoice.ID,
			POItemID:  poLine.ID,
			ItemID:    poLine.ItemID,
			ItemCode:  poLine.ItemCode,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Amount:    amount,
			CreatedAt: now,
		})
		subtotal = subtotal.Add(amount)
	}

	invoice.Subtotal = subtotal
	invoice.TaxAmount = taxAmount.Round(valueobject.MoneyScale)
	invoice.Total = subtotal.Add(invoice.TaxAmount)
	invoice.BalanceAmount = invoice.Total
	return invoice, nil
}

// SetMatchingOutcome records the analysis result on the invoice.
// Only PENDING/FULLY_MATCHED/DISCREPANT can flip between each other;
// manual decisions (approved/rejected) stick.
func (inv *SupplierInvoice) SetMatchingOutcome(status MatchingStatus) error {
	if inv.MatchingStatus == MatchingStatusApprovedWithVariance || inv.MatchingStatus == MatchingStatusRejected {
		return nil // a manual decision is terminal for analysis purposes
	}
	if status != MatchingStatusFullyMatched && status != MatchingStatusDiscrepant && status != MatchingStatusPending {
		return shared.NewDomainErrorf(shared.ErrInvalidState.Code,
			"Analysis cannot set matching status %s", status)
	}
	inv.MatchingStatus = status
	inv.UpdatedAt = time.Now()
	return nil
}

// ApproveMatching accepts the variance. Allowed only from DISCREPANT.
func (inv *SupplierInvoice) ApproveMatching(approvedBy uuid.UUID, reason string) error {
	if inv.MatchingStatus != MatchingStatusDiscrepant {
		return shared.NewDomainErrorf(shared.ErrInvalidState.Code,
			"Cannot approve matching from status %s", inv.MatchingStatus)
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "An approval reason is required")
	}
	inv.MatchingStatus = MatchingStatusApprovedWithVariance
	inv.ApprovedBy = &approvedBy
	inv.ApprovalReason = reason
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	return nil
}

// RejectMatching permanently blocks the invoice from posting
func (inv *SupplierInvoice) RejectMatching(rejectedBy uuid.UUID, reason, requiredActions string) error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewDomainErrorf(shared.ErrInvalidState.Code,
			"Cannot reject an invoice in status %s", inv.Status)
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "A rejection reason is required")
	}
	inv.MatchingStatus = MatchingStatusRejected
	inv.RejectedBy = &rejectedBy
	inv.RejectionReason = reason
	inv.RequiredActions = requiredActions
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	return nil
}

// CanPost reports whether the matching state allows posting
func (inv *SupplierInvoice) CanPost() error {
	if inv.MatchingStatus == MatchingStatusRejected {
		return shared.NewDomainErrorf(shared.ErrCannotPostRejectedInvoice.Code,
			"Invoice %s was rejected and can never be posted", inv.InvoiceNumber)
	}
	if inv.Status != InvoiceStatusDraft {
		return shared.NewDomainErrorf(shared.ErrInvalidState.Code,
			"Invoice %s is already %s", inv.InvoiceNumber, inv.Status)
	}
	if inv.MatchingStatus != MatchingStatusFullyMatched && inv.MatchingStatus != MatchingStatusApprovedWithVariance {
		return shared.NewDomainErrorf(shared.ErrInvalidState.Code,
			"Invoice %s cannot be posted with matching status %s", inv.InvoiceNumber, inv.MatchingStatus)
	}
	return nil
}

// MarkPosted transitions the invoice to POSTED with its GL entry
func (inv *SupplierInvoice) MarkPosted(entryID uuid.UUID) error {
	if err := inv.CanPost(); err != nil {
		return err
	}
	inv.Status = InvoiceStatusPosted
	inv.JournalEntryID = &entryID
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	return nil
}

// ApplyPayment reduces the open balance. Paying more than the balance
// fails; the balance can never go negative. At zero balance the invoice
// becomes PAID.
func (inv *SupplierInvoice) ApplyPayment(amount decimal.Decimal) error {
	if inv.Status != InvoiceStatusPosted {
		return shared.NewDomainErrorf(shared.ErrInvalidState.Code,
			"Cannot pay an invoice in status %s", inv.Status)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if amount.GreaterThan(inv.BalanceAmount) {
		return shared.NewDomainErrorf(shared.ErrOverpaymentNotAllowed.Code,
			"Payment %s exceeds open balance %s on invoice %s",
			amount, inv.BalanceAmount, inv.InvoiceNumber)
	}
	inv.PaidAmount = inv.PaidAmount.Add(amount)
	inv.BalanceAmount = inv.BalanceAmount.Sub(amount)
	if inv.BalanceAmount.IsZero() {
		inv.Status = InvoiceStatusPaid
	}
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	return nil
}
