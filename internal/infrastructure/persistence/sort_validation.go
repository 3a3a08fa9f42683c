package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// JournalEntrySortFields contains allowed sort fields for journal entries
var JournalEntrySortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"entry_date": true,
	"reference":  true,
	"status":     true,
	"posted_at":  true,
}

// StockMovementSortFields contains allowed sort fields for stock movements
var StockMovementSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"movement_date": true,
	"type":          true,
	"quantity":      true,
	"total_cost":    true,
	"reference":     true,
}

// ItemSortFields contains allowed sort fields for inventory items
var ItemSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"code":          true,
	"name":          true,
	"standard_cost": true,
	"reorder_point": true,
}

// PurchaseOrderSortFields contains allowed sort fields for purchase orders
var PurchaseOrderSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"order_number": true,
	"supplier_id":  true,
	"status":       true,
	"order_date":   true,
	"total":        true,
}

// SupplierPaymentSortFields contains allowed sort fields for supplier payments
var SupplierPaymentSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"supplier_id":  true,
	"amount":       true,
	"method":       true,
	"payment_date": true,
	"reference":    true,
}
