package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/domain/shared/valueobject"
)

// JournalEntryStatus represents the lifecycle status of a journal entry
type JournalEntryStatus string

const (
	JournalEntryStatusDraft  JournalEntryStatus = "DRAFT"
	JournalEntryStatusPosted JournalEntryStatus = "POSTED"
)

// IsValid checks if the status is valid
func (s JournalEntryStatus) IsValid() bool {
	return s == JournalEntryStatusDraft || s == JournalEntryStatusPosted
}

// String returns the string representation
func (s JournalEntryStatus) String() string {
	return string(s)
}

// JournalLine is a single debit or credit on a journal entry. By
// convention exactly one of Debit/Credit is non-zero; zero on the other
// side is allowed and stored.
type JournalLine struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	EntryID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	AccountID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	AccountCode string          `gorm:"type:varchar(20);not null"`
	Debit       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Credit      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Description string          `gorm:"type:varchar(500)"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (JournalLine) TableName() string {
	return "journal_lines"
}

// LineInput describes one requested debit/credit when building an entry.
// Accounts are referenced by code; the posting service resolves codes to
// account IDs and checks the account is active.
type LineInput struct {
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// JournalEntry groups at least two balanced lines. Posted entries are
// immutable; a correction is a new reversing entry cross-referenced via
// Reference, never an edit.
type JournalEntry struct {
	shared.BaseAggregateRoot
	EntryDate    time.Time            `gorm:"not null;index"`
	Reference    string               `gorm:"type:varchar(100);index"`
	Description  string               `gorm:"type:varchar(500)"`
	Currency     valueobject.Currency `gorm:"type:varchar(3);not null"`
	ExchangeRate decimal.Decimal      `gorm:"type:decimal(18,6);not null;default:1"`
	Status       JournalEntryStatus   `gorm:"type:varchar(20);not null"`
	PostedAt     *time.Time
	PostedBy     *uuid.UUID   `gorm:"type:uuid"`
	CreatedBy    uuid.UUID    `gorm:"type:uuid;not null"`
	ReversalOf   *uuid.UUID   `gorm:"type:uuid;index"` // set on reversing entries
	Lines        []JournalLine `gorm:"foreignKey:EntryID;references:ID"`
}

// TableName returns the table name for GORM
func (JournalEntry) TableName() string {
	return "journal_entries"
}

// resolvedLine is a LineInput with its account resolved
type resolvedLine struct {
	account *Account
	input   LineInput
}

// BuildEntry validates the requested lines against the given accounts
// (keyed by code) and constructs a POSTED journal entry. Validation
// order: account existence and active flag, no line with both sides
// non-zero or both sides zero, debit/credit balance to the fixed-point
// scale, then construction. The balance error carries the computed delta.
func BuildEntry(
	entryDate time.Time,
	reference, description string,
	currency valueobject.Currency,
	exchangeRate decimal.Decimal,
	lines []LineInput,
	accounts map[string]*Account,
	createdBy uuid.UUID,
) (*JournalEntry, error) {
	if len(lines) < 2 {
		return nil, shared.NewDomainError("INVALID_ENTRY", "A journal entry requires at least two lines")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	if exchangeRate.LessThanOrEqual(decimal.Zero) {
		exchangeRate = decimal.NewFromInt(1)
	}

	resolved := make([]resolvedLine, 0, len(lines))
	for _, in := range lines {
		account, ok := accounts[in.AccountCode]
		if !ok || account == nil {
			return nil, shared.NewDomainErrorf(shared.ErrInvalidAccount.Code,
				"Account %q does not exist", in.AccountCode)
		}
		if !account.IsActive {
			return nil, shared.NewDomainErrorf(shared.ErrInvalidAccount.Code,
				"Account %q is inactive", in.AccountCode)
		}
		if in.Debit.IsNegative() || in.Credit.IsNegative() {
			return nil, shared.NewDomainError("INVALID_LINE", "Debit and credit amounts cannot be negative")
		}
		if !in.Debit.IsZero() && !in.Credit.IsZero() {
			return nil, shared.NewDomainErrorf("INVALID_LINE",
				"Line on account %q has both debit and credit amounts", in.AccountCode)
		}
		if in.Debit.IsZero() && in.Credit.IsZero() {
			return nil, shared.NewDomainErrorf("INVALID_LINE",
				"Line on account %q has neither a debit nor a credit amount", in.AccountCode)
		}
		resolved = append(resolved, resolvedLine{account: account, input: in})
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, r := range resolved {
		totalDebit = totalDebit.Add(r.input.Debit.Round(valueobject.MoneyScale))
		totalCredit = totalCredit.Add(r.input.Credit.Round(valueobject.MoneyScale))
	}
	if !totalDebit.Equal(totalCredit) {
		delta := totalDebit.Sub(totalCredit)
		return nil, shared.NewDomainErrorf(shared.ErrUnbalancedEntry.Code,
			"Journal entry does not balance: debits %s, credits %s, delta %s",
			totalDebit.StringFixed(valueobject.MoneyScale),
			totalCredit.StringFixed(valueobject.MoneyScale),
			delta.StringFixed(valueobject.MoneyScale))
	}

	now := time.Now()
	entry := &JournalEntry{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		EntryDate:         entryDate,
		Reference:         reference,
		Description:       description,
		Currency:          currency,
		ExchangeRate:      exchangeRate,
		Status:            JournalEntryStatusPosted,
		PostedAt:          &now,
		PostedBy:          &createdBy,
		CreatedBy:         createdBy,
		Lines:             make([]JournalLine, 0, len(resolved)),
	}
	for _, r := range resolved {
		entry.Lines = append(entry.Lines, JournalLine{
			ID:          uuid.New(),
			EntryID:     entry.ID,
			AccountID:   r.account.ID,
			AccountCode: r.account.Code,
			Debit:       r.input.Debit.Round(valueobject.MoneyScale),
			Credit:      r.input.Credit.Round(valueobject.MoneyScale),
			Description: r.input.Description,
			CreatedAt:   now,
		})
	}
	return entry, nil
}

// TotalDebit returns the sum of all debit amounts
func (e *JournalEntry) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

// TotalCredit returns the sum of all credit amounts
func (e *JournalEntry) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Credit)
	}
	return total
}

// IsBalanced reports whether debits equal credits
func (e *JournalEntry) IsBalanced() bool {
	return e.TotalDebit().Equal(e.TotalCredit())
}

// Reverse builds the inverting entry for a posted entry: every line's
// debit and credit swap sides, cross-referenced to the original.
func (e *JournalEntry) Reverse(reversedBy uuid.UUID, reason string) (*JournalEntry, error) {
	if e.Status != JournalEntryStatusPosted {
		return nil, shared.NewDomainError(shared.ErrInvalidState.Code, "Only posted entries can be reversed")
	}
	now := time.Now()
	reversal := &JournalEntry{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		EntryDate:         now,
		Reference:         "REV-" + e.Reference,
		Description:       reason,
		Currency:          e.Currency,
		ExchangeRate:      e.ExchangeRate,
		Status:            JournalEntryStatusPosted,
		PostedAt:          &now,
		PostedBy:          &reversedBy,
		CreatedBy:         reversedBy,
		ReversalOf:        &e.ID,
		Lines:             make([]JournalLine, 0, len(e.Lines)),
	}
	for _, l := range e.Lines {
		reversal.Lines = append(reversal.Lines, JournalLine{
			ID:          uuid.New(),
			EntryID:     reversal.ID,
			AccountID:   l.AccountID,
			AccountCode: l.AccountCode,
			Debit:       l.Credit,
			Credit:      l.Debit,
			Description: l.Description,
			CreatedAt:   now,
		})
	}
	return reversal, nil
}
