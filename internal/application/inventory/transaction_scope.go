package inventory

import (
	"context"

	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/domain/ledger"
)

// TransactionScope provides transactional access to the repositories a
// stock movement touches. A movement's lot mutation and its journal
// posting commit or roll back as one unit, so the ledger repositories
// are part of the same scope.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the inventory and ledger
// repositories within a transaction. All repositories returned share the
// same underlying database transaction.
type TransactionalRepositories interface {
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
	items     inventory.ItemRepository
	lots      inventory.StockLotRepository
	movements inventory.StockMovementRepository
	accounts  ledger.AccountRepository
	entries   ledger.JournalEntryRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	items inventory.ItemRepository,
	lots inventory.StockLotRepository,
	movements inventory.StockMovementRepository,
	accounts ledger.AccountRepository,
	entries ledger.JournalEntryRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
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
