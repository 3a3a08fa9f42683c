package persistence

import (
	"context"

	"gorm.io/gorm"

	appinv "github.com/stockledger/backend/internal/application/inventory"
	appledger "github.com/stockledger/backend/internal/application/ledger"
	approc "github.com/stockledger/backend/internal/application/procurement"
	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/procurement"
)

// gormTransactionalRepositories hands out repositories bound to one
// open transaction. It satisfies the transactional repository interface
// of every application scope, since those are subsets of the same
// accessor set.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) Accounts() ledger.AccountRepository {
	return NewGormAccountRepository(r.tx)
}

func (r *gormTransactionalRepositories) JournalEntries() ledger.JournalEntryRepository {
	return NewGormJournalEntryRepository(r.tx)
}

func (r *gormTransactionalRepositories) Items() inventory.ItemRepository {
	return NewGormItemRepository(r.tx)
}

func (r *gormTransactionalRepositories) StockLots() inventory.StockLotRepository {
	return NewGormStockLotRepository(r.tx)
}

func (r *gormTransactionalRepositories) StockMovements() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

func (r *gormTransactionalRepositories) PurchaseOrders() procurement.PurchaseOrderRepository {
	return NewGormPurchaseOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) GoodsReceipts() procurement.GoodsReceiptRepository {
	return NewGormGoodsReceiptRepository(r.tx)
}

func (r *gormTransactionalRepositories) SupplierInvoices() procurement.SupplierInvoiceRepository {
	return NewGormSupplierInvoiceRepository(r.tx)
}

func (r *gormTransactionalRepositories) SupplierPayments() procurement.SupplierPaymentRepository {
	return NewGormSupplierPaymentRepository(r.tx)
}

// GormLedgerTransactionScope implements the ledger application's
// TransactionScope using GORM transactions.
type GormLedgerTransactionScope struct {
	db *gorm.DB
}

// NewGormLedgerTransactionScope creates a new GormLedgerTransactionScope.
func NewGormLedgerTransactionScope(db *gorm.DB) *GormLedgerTransactionScope {
	return &GormLedgerTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
func (s *GormLedgerTransactionScope) Execute(ctx context.Context, fn func(repos appledger.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// GormInventoryTransactionScope implements the inventory application's
// TransactionScope using GORM transactions.
type GormInventoryTransactionScope struct {
	db *gorm.DB
}

// NewGormInventoryTransactionScope creates a new GormInventoryTransactionScope.
func NewGormInventoryTransactionScope(db *gorm.DB) *GormInventoryTransactionScope {
	return &GormInventoryTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
func (s *GormInventoryTransactionScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// GormProcurementTransactionScope implements the procurement
// application's TransactionScope using GORM transactions.
type GormProcurementTransactionScope struct {
	db *gorm.DB
}

// NewGormProcurementTransactionScope creates a new GormProcurementTransactionScope.
func NewGormProcurementTransactionScope(db *gorm.DB) *GormProcurementTransactionScope {
	return &GormProcurementTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
func (s *GormProcurementTransactionScope) Execute(ctx context.Context, fn func(repos approc.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

var _ appledger.TransactionScope = (*GormLedgerTransactionScope)(nil)
var _ appinv.TransactionScope = (*GormInventoryTransactionScope)(nil)
var _ approc.TransactionScope = (*GormProcurementTransactionScope)(nil)
var _ appledger.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
var _ appinv.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
var _ approc.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
