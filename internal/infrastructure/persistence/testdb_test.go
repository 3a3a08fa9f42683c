package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/procurement"
)

// newTestDB opens an isolated in-memory database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&ledger.Account{},
		&ledger.JournalEntry{},
		&ledger.JournalLine{},
		&inventory.Item{},
		&inventory.StockLot{},
		&inventory.StockMovement{},
		&procurement.PurchaseOrder{},
		&procurement.PurchaseOrderItem{},
		&procurement.GoodsReceipt{},
		&procurement.GoodsReceiptItem{},
		&procurement.SupplierInvoice{},
		&procurement.SupplierInvoiceItem{},
		&procurement.SupplierPayment{},
		&procurement.PaymentAllocation{},
	)
	require.NoError(t, err)
	return db
}

// seedEngineAccounts inserts the engine's chart of accounts
func seedEngineAccounts(t *testing.T, db *gorm.DB) map[string]*ledger.Account {
	t.Helper()
	accounts := make(map[string]*ledger.Account)
	for _, account := range ledger.EngineAccounts() {
		a := account
		require.NoError(t, db.Create(&a).Error)
		accounts[a.Code] = &a
	}
	return accounts
}
