package procurement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
)

// PaymentMethod classifies how a supplier payment was made
type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCheck        PaymentMethod = "CHECK"
	PaymentMethodCard         PaymentMethod = "CARD"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodBankTransfer, PaymentMethodCash, PaymentMethodCheck, PaymentMethodCard:
		return true
	}
	return false
}

// String returns the string representation
func (m PaymentMethod) String() string {
	return string(m)
}

// PaymentAllocation links a payment to one invoice with the amount applied
type PaymentAllocation struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	PaymentID uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentAllocation) TableName() string {
	return "payment_allocations"
}

// SupplierPayment is money paid to a supplier, applied to invoices via
// allocations. Invariant: the sum of allocations never exceeds Amount.
type SupplierPayment struct {
	shared.BaseAggregateRoot
	SupplierID     uuid.UUID           `gorm:"type:uuid;not null;index"`
	Amount         decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Method         PaymentMethod       `gorm:"type:varchar(20);not null"`
	Reference      string              `gorm:"type:varchar(100)"`
	PaymentDate    time.Time           `gorm:"not null"`
	CreatedBy      uuid.UUID           `gorm:"type:uuid;not null"`
	JournalEntryID *uuid.UUID          `gorm:"type:uuid"`
	Allocations    []PaymentAllocation `gorm:"foreignKey:PaymentID;references:ID"`
}

// TableName returns the table name for GORM
func (SupplierPayment) TableName() string {
	return "supplier_payments"
}

// NewSupplierPayment creates a payment with no allocations yet
func NewSupplierPayment(supplierID uuid.UUID, amount decimal.Decimal, method PaymentMethod, reference string, paymentDate time.Time, createdBy uuid.UUID) (*SupplierPayment, error) {
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainErrorf("INVALID_PAYMENT_METHOD", "Unknown payment method %q", method)
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Creator is required for audit attribution")
	}
	return &SupplierPayment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SupplierID:        supplierID,
		Amount:            amount,
		Method:            method,
		Reference:         reference,
		PaymentDate:       paymentDate,
		CreatedBy:         createdBy,
		Allocations:       make([]PaymentAllocation, 0, 1),
	}, nil
}

// AllocatedAmount returns the total already applied to invoices
func (p *SupplierPayment) AllocatedAmount() decimal.Decimal {
	total := decimal.Zero
	for _, a := range p.Allocations {
		total = total.Add(a.Amount)
	}
	return total
}

// UnallocatedAmount returns the payment amount not yet applied
func (p *SupplierPayment) UnallocatedAmount() decimal.Decimal {
	return p.Amount.Sub(p.AllocatedAmount())
}

// Allocate applies part of the payment to an invoice. The invoice's own
// ApplyPayment must have accepted the amount first; this records the
// link and enforces the payment-side cap.
func (p *SupplierPayment) Allocate(invoiceID uuid.UUID, amount decimal.Decimal) error {
	if invoiceID == uuid.Nil {
		return shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Allocation amount must be positive")
	}
	if amount.GreaterThan(p.UnallocatedAmount()) {
		return shared.NewDomainErrorf("OVER_ALLOCATED",
			"Allocation %s exceeds unallocated payment amount %s", amount, p.UnallocatedAmount())
	}
	p.Allocations = append(p.Allocations, PaymentAllocation{
		ID:        uuid.New(),
		PaymentID: p.ID,
		InvoiceID: invoiceID,
		Amount:    amount,
		CreatedAt: time.Now(),
	})
	p.UpdatedAt = time.Now()
	return nil
}

// AttachJournalEntry links the GL entry posted for this payment
func (p *SupplierPayment) AttachJournalEntry(entryID uuid.UUID) {
	p.JournalEntryID = &entryID
}

// SupplierBalance is the live aggregate of a supplier's open position,
// computed from the store at call time, never cached.
type SupplierBalance struct {
	SupplierID       uuid.UUID       `json:"supplierId"`
	TotalOutstanding decimal.Decimal `json:"totalOutstanding"`
	TotalPaid        decimal.Decimal `json:"totalPaid"`
	OpenInvoiceCount int64           `json:"openInvoiceCount"`
}
