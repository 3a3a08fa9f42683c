package shared

import "fmt"

// DomainError represents a business-rule violation. Callers distinguish
// error kinds by Code (or by errors.Is against the sentinels below), never
// by message text.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code.
// This lets wrapped and detail-enriched errors match their sentinel
// via errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorf creates a new domain error with a formatted message
func NewDomainErrorf(code, format string, args ...any) *DomainError {
	return &DomainError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Engine error taxonomy. Every business-rule failure surfaced by the
// engine is one of these kinds; infrastructure failures are wrapped
// plain errors.
var (
	ErrNotFound                 = NewDomainError("RECORD_NOT_FOUND", "Record not found")
	ErrInsufficientStock        = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrUnbalancedEntry          = NewDomainError("UNBALANCED_ENTRY", "Journal entry debits and credits do not balance")
	ErrInvalidAccount           = NewDomainError("INVALID_ACCOUNT", "Account does not exist or is inactive")
	ErrOverInvoiced             = NewDomainError("OVER_INVOICED", "Invoiced quantity exceeds received quantity")
	ErrOverpaymentNotAllowed    = NewDomainError("OVERPAYMENT_NOT_ALLOWED", "Payment exceeds invoice balance")
	ErrCannotPostRejectedInvoice = NewDomainError("CANNOT_POST_REJECTED_INVOICE", "Rejected invoices cannot be posted")
	ErrDuplicateInvoiceNumber   = NewDomainError("DUPLICATE_INVOICE_NUMBER", "Invoice number already exists")
	ErrBusy                     = NewDomainError("BUSY", "Resource is locked by another operation, retry later")
	ErrInvalidInput             = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState             = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)
