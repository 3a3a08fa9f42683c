package procurement

import (
	"context"

	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/procurement"
)

// TransactionScope provides transactional access to the repositories a
// procurement operation touches. Goods receipts create stock lots and
// post GL entries in the same unit of work, so the inventory and ledger
// repositories are part of this scope too.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the procurement,
// inventory, and ledger repositories within a transaction.
type TransactionalRepositories interface {
	// PurchaseOrders returns the purchase order repository scoped to the current transaction
	PurchaseOrders() procurement.PurchaseOrderRepository
	// GoodsReceipts returns the goods receipt repository scoped to the current transaction
	GoodsReceipts() procurement.GoodsReceiptRepository
	// SupplierInvoices returns the supplier invoice repository scoped to the current transaction
	SupplierInvoices() procurement.SupplierInvoiceRepository
	// SupplierPayments returns the supplier payment repository scoped to the current transaction
	SupplierPayments() procurement.SupplierPaymentRepository
	// Items returns the item repository scoped to the current transaction
	Items() inventory.ItemRepository
	// StockLots returns the stock lot repository scoped to the current transaction
	StockLots() inventory.StockLotRepository
	// StockMovements returns the movement repository scoped to the current transaction
	StockMovements() inventory.StockMovementRepository
	// Accounts returns the account repository scoped to the current transaction
	Accounts() ledger.AccountRepository
	// JournalEntries returns the journal entry repository scoped to the current transaction
	JournalEntries() ledger.JournalEntryRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for tests against an in-memory database.
type NoOpTransactionScope struct {
	orders    procurement.PurchaseOrderRepository
	receipts  procurement.GoodsReceiptRepository
	invoices  procurement.SupplierInvoiceRepository
	payments  procurement.SupplierPaymentRepository
	items     inventory.ItemRepository
	lots      inventory.StockLotRepository
	movements inventory.StockMovementRepository
	accounts  ledger.AccountRepository
	entries   ledger.JournalEntryRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	orders procurement.PurchaseOrderRepository,
	receipts procurement.GoodsReceiptRepository,
	invoices procurement.SupplierInvoiceRepository,
	payments procurement.SupplierPaymentRepository,
	items inventory.ItemRepository,
	lots inventory.StockLotRepository,
	movements inventory.StockMovementRepository,
	accounts ledger.AccountRepository,
	entries ledger.JournalEntryRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		orders:    orders,
		receipts:  receipts,
		invoices:  invoices,
		payments:  payments,
		items:     items,
		lots:      lots,
		movements: movements,
		accounts:  accounts,
		entries:   entries,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// PurchaseOrders returns the purchase order repository.
func (s *NoOpTransactionScope) PurchaseOrders() procurement.PurchaseOrderRepository { return s.orders }

// GoodsReceipts returns the goods receipt repository.
func (s *NoOpTransactionScope) GoodsReceipts() procurement.GoodsReceiptRepository { return s.receipts }

// SupplierInvoices returns the supplier invoice repository.
func (s *NoOpTransactionScope) SupplierInvoices() procurement.SupplierInvoiceRepository {
	return s.invoices
}

// SupplierPayments returns the supplier payment repository.
func (s *NoOpTransactionScope) SupplierPayments() procurement.SupplierPaymentRepository {
	return s.payments
}

// Items returns the item repository.
func (s *NoOpTransactionScope) Items() inventory.ItemRepository { return s.items }

// StockLots returns the stock lot repository.
func (s *NoOpTransactionScope) StockLots() inventory.StockLotRepository { return s.lots }

// StockMovements returns the movement repository.
func (s *NoOpTransactionScope) StockMovements() inventory.StockMovementRepository {
	return s.movements
}

// Accounts returns the account repository.
func (s *NoOpTransactionScope) Accounts() ledger.AccountRepository { return s.accounts }

// JournalEntries returns the journal entry repository.
func (s *NoOpTransactionScope) JournalEntries() ledger.JournalEntryRepository { return s.entries }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
