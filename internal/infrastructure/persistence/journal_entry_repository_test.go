package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/domain/shared/valueobject"
)

func postTestEntry(t *testing.T, accounts map[string]*ledger.Account, reference string, amount decimal.Decimal) *ledger.JournalEntry {
	t.Helper()
	entry, err := ledger.BuildEntry(
		time.Now(),
		reference,
		"test entry",
		valueobject.DefaultCurrency,
		decimal.NewFromInt(1),
		[]ledger.LineInput{
			{AccountCode: ledger.AccountCodeInventory, Debit: amount},
			{AccountCode: ledger.AccountCodeGRIRClearing, Credit: amount},
		},
		accounts,
		uuid.New(),
	)
	require.NoError(t, err)
	return entry
}

func TestGormJournalEntryRepository_SaveAndFind(t *testing.T) {
	db := newTestDB(t)
	accounts := seedEngineAccounts(t, db)
	repo := NewGormJournalEntryRepository(db)
	ctx := context.Background()

	entry := postTestEntry(t, accounts, "GR-001", decimal.NewFromInt(500))
	require.NoError(t, repo.Save(ctx, entry))

	found, err := repo.FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "GR-001", found.Reference)
	require.Len(t, found.Lines, 2)
	assert.True(t, found.TotalDebit().Equal(found.TotalCredit()))

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormJournalEntryRepository_FindByReference(t *testing.T) {
	db := newTestDB(t)
	accounts := seedEngineAccounts(t, db)
	repo := NewGormJournalEntryRepository(db)
	ctx := context.Background()

	first := postTestEntry(t, accounts, "GR-002", decimal.NewFromInt(100))
	second := postTestEntry(t, accounts, "GR-002", decimal.NewFromInt(200))
	other := postTestEntry(t, accounts, "GR-003", decimal.NewFromInt(300))
	for _, e := range []*ledger.JournalEntry{first, second, other} {
		require.NoError(t, repo.Save(ctx, e))
	}

	entries, err := repo.FindByReference(ctx, "GR-002")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestGormJournalEntryRepository_AccountBalance(t *testing.T) {
	db := newTestDB(t)
	accounts := seedEngineAccounts(t, db)
	repo := NewGormJournalEntryRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, postTestEntry(t, accounts, "GR-010", decimal.NewFromInt(500))))
	require.NoError(t, repo.Save(ctx, postTestEntry(t, accounts, "GR-011", decimal.NewFromInt(250))))

	inventoryBalance, err := repo.AccountBalance(ctx, accounts[ledger.AccountCodeInventory].ID)
	require.NoError(t, err)
	assert.True(t, inventoryBalance.Equal(decimal.NewFromInt(750)),
		"inventory debit balance, got %s", inventoryBalance)

	clearingBalance, err := repo.AccountBalance(ctx, accounts[ledger.AccountCodeGRIRClearing].ID)
	require.NoError(t, err)
	assert.True(t, clearingBalance.Equal(decimal.NewFromInt(-750)),
		"clearing credit balance, got %s", clearingBalance)

	// Account with no postings balances to zero.
	cashBalance, err := repo.AccountBalance(ctx, accounts[ledger.AccountCodeCash].ID)
	require.NoError(t, err)
	assert.True(t, cashBalance.IsZero())
}

func TestGormJournalEntryRepository_List(t *testing.T) {
	db := newTestDB(t)
	accounts := seedEngineAccounts(t, db)
	repo := NewGormJournalEntryRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Save(ctx, postTestEntry(t, accounts, "GR-100", decimal.NewFromInt(int64(i+1)))))
	}

	page, err := repo.List(ctx, shared.Filter{Page: 1, PageSize: 3})
	require.NoError(t, err)
	assert.Len(t, page, 3)

	rest, err := repo.List(ctx, shared.Filter{Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Len(t, rest, 2)
}
