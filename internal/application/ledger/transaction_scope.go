package ledger

import (
	"context"

	"github.com/stockledger/backend/internal/domain/ledger"
)

// TransactionScope provides transactional access to ledger repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or
// roll back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the ledger repositories
// within a transaction. All repositories returned share the same
// underlying database transaction.
type TransactionalRepositories interface {
	// Accounts returns the account repository scoped to the current transaction
	Accounts() ledger.AccountRepository
	// JournalEntries returns the journal entry repository scoped to the current transaction
	JournalEntries() ledger.JournalEntryRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for tests against an in-memory database where
// every repository already shares one connection.
type NoOpTransactionScope struct {
	accounts ledger.AccountRepository
	entries  ledger.JournalEntryRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(accounts ledger.AccountRepository, entries ledger.JournalEntryRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{accounts: accounts, entries: entries}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Accounts returns the account repository.
func (s *NoOpTransactionScope) Accounts() ledger.AccountRepository {
	return s.accounts
}

// JournalEntries returns the journal entry repository.
func (s *NoOpTransactionScope) JournalEntries() ledger.JournalEntryRepository {
	return s.entries
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
