package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/domain/shared/valueobject"
)

func testAccounts(t *testing.T) map[string]*Account {
	t.Helper()
	accounts := make(map[string]*Account)
	for _, a := range EngineAccounts() {
		account := a
		accounts[account.Code] = &account
	}
	return accounts
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBuildEntry_BalancedPosts(t *testing.T) {
	accounts := testAccounts(t)
	userID := uuid.New()

	entry, err := BuildEntry(
		time.Now(),
		"STOCK-IN-42",
		"Stock in 5 laptops",
		valueobject.USD,
		decimal.NewFromInt(1),
		[]LineInput{
			{AccountCode: AccountCodeInventory, Debit: dec("7500")},
			{AccountCode: AccountCodeGRIRClearing, Credit: dec("7500")},
		},
		accounts,
		userID,
	)
	require.NoError(t, err)

	assert.Equal(t, JournalEntryStatusPosted, entry.Status)
	require.NotNil(t, entry.PostedAt)
	assert.Equal(t, userID, entry.CreatedBy)
	assert.True(t, entry.IsBalanced())
	assert.True(t, entry.TotalDebit().Equal(dec("7500")))
	require.Len(t, entry.Lines, 2)
	assert.Equal(t, accounts[AccountCodeInventory].ID, entry.Lines[0].AccountID)
}

func TestBuildEntry_UnbalancedRejectedWithDelta(t *testing.T) {
	accounts := testAccounts(t)

	_, err := BuildEntry(time.Now(), "X", "", valueobject.USD, decimal.NewFromInt(1),
		[]LineInput{
			{AccountCode: AccountCodeInventory, Debit: dec("100")},
			{AccountCode: AccountCodePayable, Credit: dec("99.99")},
		},
		accounts, uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrUnbalancedEntry)
	assert.Contains(t, err.Error(), "0.0100", "error should carry the computed delta")
}

func TestBuildEntry_ValidationOrder(t *testing.T) {
	accounts := testAccounts(t)

	t.Run("unknown account", func(t *testing.T) {
		_, err := BuildEntry(time.Now(), "X", "", valueobject.USD, decimal.NewFromInt(1),
			[]LineInput{
				{AccountCode: "9999", Debit: dec("10")},
				{AccountCode: AccountCodePayable, Credit: dec("10")},
			},
			accounts, uuid.New())
		assert.ErrorIs(t, err, shared.ErrInvalidAccount)
	})

	t.Run("inactive account", func(t *testing.T) {
		inactive := accounts[AccountCodeCOGS]
		inactive.Deactivate()
		defer func() { inactive.IsActive = true }()

		_, err := BuildEntry(time.Now(), "X", "", valueobject.USD, decimal.NewFromInt(1),
			[]LineInput{
				{AccountCode: AccountCodeCOGS, Debit: dec("10")},
				{AccountCode: AccountCodeInventory, Credit: dec("10")},
			},
			accounts, uuid.New())
		assert.ErrorIs(t, err, shared.ErrInvalidAccount)
	})

	t.Run("both sides on one line", func(t *testing.T) {
		_, err := BuildEntry(time.Now(), "X", "", valueobject.USD, decimal.NewFromInt(1),
			[]LineInput{
				{AccountCode: AccountCodeInventory, Debit: dec("10"), Credit: dec("10")},
				{AccountCode: AccountCodePayable, Credit: dec("10")},
			},
			accounts, uuid.New())
		require.Error(t, err)
		assert.NotErrorIs(t, err, shared.ErrUnbalancedEntry)
	})

	t.Run("empty line", func(t *testing.T) {
		_, err := BuildEntry(time.Now(), "X", "", valueobject.USD, decimal.NewFromInt(1),
			[]LineInput{
				{AccountCode: AccountCodeInventory},
				{AccountCode: AccountCodePayable, Credit: dec("10")},
			},
			accounts, uuid.New())
		assert.Error(t, err)
	})

	t.Run("fewer than two lines", func(t *testing.T) {
		_, err := BuildEntry(time.Now(), "X", "", valueobject.USD, decimal.NewFromInt(1),
			[]LineInput{{AccountCode: AccountCodeInventory, Debit: dec("10")}},
			accounts, uuid.New())
		assert.Error(t, err)
	})
}

func TestJournalEntry_Reverse(t *testing.T) {
	accounts := testAccounts(t)
	userID := uuid.New()

	entry, err := BuildEntry(time.Now(), "STOCK-OUT-7", "", valueobject.USD, decimal.NewFromInt(1),
		[]LineInput{
			{AccountCode: AccountCodeCOGS, Debit: dec("85")},
			{AccountCode: AccountCodeInventory, Credit: dec("85")},
		},
		accounts, userID)
	require.NoError(t, err)

	reverser := uuid.New()
	reversal, err := entry.Reverse(reverser, "posted against wrong batch")
	require.NoError(t, err)

	assert.Equal(t, JournalEntryStatusPosted, reversal.Status)
	require.NotNil(t, reversal.ReversalOf)
	assert.Equal(t, entry.ID, *reversal.ReversalOf)
	assert.Equal(t, "REV-STOCK-OUT-7", reversal.Reference)
	assert.True(t, reversal.IsBalanced())

	// Sides swapped line by line
	require.Len(t, reversal.Lines, 2)
	assert.True(t, reversal.Lines[0].Credit.Equal(dec("85")))
	assert.True(t, reversal.Lines[0].Debit.IsZero())
	assert.True(t, reversal.Lines[1].Debit.Equal(dec("85")))
}

func TestNewAccount_Validation(t *testing.T) {
	_, err := NewAccount("", "Cash", AccountTypeAsset)
	assert.Error(t, err)

	_, err = NewAccount("1000", "", AccountTypeAsset)
	assert.Error(t, err)

	_, err = NewAccount("1000", "Cash", AccountType("BOGUS"))
	assert.Error(t, err)

	account, err := NewAccount("1000", "Cash", AccountTypeAsset)
	require.NoError(t, err)
	assert.True(t, account.IsActive)
}

func TestEngineAccounts_CoversPostingTargets(t *testing.T) {
	codes := make(map[string]bool)
	for _, a := range EngineAccounts() {
		codes[a.Code] = true
	}
	for _, code := range []string{
		AccountCodeCash, AccountCodeInventory, AccountCodePayable,
		AccountCodeGRIRClearing, AccountCodeCOGS, AccountCodeAdjustmentLoss,
	} {
		assert.True(t, codes[code], "missing engine account %s", code)
	}
}
