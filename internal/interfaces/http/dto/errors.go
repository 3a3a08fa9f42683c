package dto

import (
	"net/http"

	"github.com/stockledger/backend/internal/domain/shared"
)

// ErrorCodeHTTPStatus maps the engine's domain error codes to HTTP
// status codes. Business-rule violations are 422, conflicts over
// identity or locks 409, lookups 404, malformed input 400.
var ErrorCodeHTTPStatus = map[string]int{
	shared.ErrNotFound.Code:                  http.StatusNotFound,
	shared.ErrInsufficientStock.Code:         http.StatusUnprocessableEntity,
	shared.ErrUnbalancedEntry.Code:           http.StatusUnprocessableEntity,
	shared.ErrInvalidAccount.Code:            http.StatusUnprocessableEntity,
	shared.ErrOverInvoiced.Code:              http.StatusUnprocessableEntity,
	shared.ErrOverpaymentNotAllowed.Code:     http.StatusUnprocessableEntity,
	shared.ErrCannotPostRejectedInvoice.Code: http.StatusUnprocessableEntity,
	shared.ErrInvalidState.Code:              http.StatusUnprocessableEntity,
	shared.ErrDuplicateInvoiceNumber.Code:    http.StatusConflict,
	shared.ErrBusy.Code:                      http.StatusConflict,
	shared.ErrInvalidInput.Code:              http.StatusBadRequest,

	"DUPLICATE_ORDER_NUMBER": http.StatusConflict,
	"DUPLICATE_ITEM_CODE":    http.StatusConflict,
	"OVER_RECEIPT":           http.StatusUnprocessableEntity,
	"INVALID_ALLOCATION":     http.StatusUnprocessableEntity,

	"INVALID_MOVEMENT_TYPE":  http.StatusBadRequest,
	"INVALID_PAYMENT_METHOD": http.StatusBadRequest,
	"INVALID_QUANTITY":       http.StatusBadRequest,
	"INVALID_PRICE":          http.StatusBadRequest,
	"INVALID_COST":           http.StatusBadRequest,
	"INVALID_AMOUNT":         http.StatusBadRequest,
	"INVALID_TAX":            http.StatusBadRequest,
	"INVALID_REASON":         http.StatusBadRequest,
	"INVALID_LINE":           http.StatusBadRequest,
	"INVALID_ENTRY":          http.StatusBadRequest,
	"INVALID_ITEM":           http.StatusBadRequest,
	"INVALID_INVOICE":        http.StatusBadRequest,
	"INVALID_INVOICE_NUMBER": http.StatusBadRequest,
	"INVALID_RECEIPT":        http.StatusBadRequest,
	"INVALID_RECEIPT_NUMBER": http.StatusBadRequest,
	"INVALID_ORDER_NUMBER":   http.StatusBadRequest,
}

// General error codes used by the HTTP layer itself
const (
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeValidation = "VALIDATION_FAILED"
	ErrCodeInternal   = "INTERNAL_ERROR"
)

// GetHTTPStatus returns the HTTP status for a domain error code,
// defaulting to 500 for codes the map does not know.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	switch code {
	case ErrCodeBadRequest:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
