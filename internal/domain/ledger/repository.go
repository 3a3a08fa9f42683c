package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
)

// AccountRepository provides access to the chart of accounts
type AccountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	FindByCode(ctx context.Context, code string) (*Account, error)
	// FindByCodes returns the accounts for the given codes, keyed by code.
	// Missing codes are simply absent from the map.
	FindByCodes(ctx context.Context, codes []string) (map[string]*Account, error)
	Save(ctx context.Context, account *Account) error
}

// JournalEntryRepository provides access to journal entries and lines
type JournalEntryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*JournalEntry, error)
	FindByReference(ctx context.Context, reference string) ([]JournalEntry, error)
	Save(ctx context.Context, entry *JournalEntry) error
	// AccountBalance aggregates posted lines for an account: debits minus
	// credits. Computed live, never cached.
	AccountBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
	List(ctx context.Context, filter shared.Filter) ([]JournalEntry, error)
}
