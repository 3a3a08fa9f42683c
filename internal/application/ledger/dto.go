package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockledger/backend/internal/domain/ledger"
)

// PostEntryRequest describes a manual journal entry to post
type PostEntryRequest struct {
	EntryDate    time.Time       `json:"entry_date"`
	Reference    string          `json:"reference"`
	Description  string          `json:"description"`
	Currency     string          `json:"currency"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	Lines        []LineRequest   `json:"lines" binding:"required,min=2"`
	CreatedBy    uuid.UUID       `json:"created_by"`
}

// LineRequest describes one requested journal line
type LineRequest struct {
	AccountCode string          `json:"account_code" binding:"required"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
}

// ReverseEntryRequest describes a reversal of a posted entry
type ReverseEntryRequest struct {
	Reason     string    `json:"reason" binding:"required"`
	ReversedBy uuid.UUID `json:"reversed_by"`
}

// JournalEntryResponse represents a journal entry in API responses
type JournalEntryResponse struct {
	ID           uuid.UUID          `json:"id"`
	EntryDate    time.Time          `json:"entry_date"`
	Reference    string             `json:"reference"`
	Description  string             `json:"description"`
	Currency     string             `json:"currency"`
	ExchangeRate decimal.Decimal    `json:"exchange_rate"`
	Status       string             `json:"status"`
	TotalDebit   decimal.Decimal    `json:"total_debit"`
	TotalCredit  decimal.Decimal    `json:"total_credit"`
	ReversalOf   *uuid.UUID         `json:"reversal_of,omitempty"`
	Lines        []JournalLineView  `json:"lines"`
	CreatedAt    time.Time          `json:"created_at"`
}

// JournalLineView represents one line of a journal entry
type JournalLineView struct {
	AccountCode string          `json:"account_code"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description,omitempty"`
}

// AccountBalanceResponse is the live balance of one account
type AccountBalanceResponse struct {
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	AccountType string          `json:"account_type"`
	Balance     decimal.Decimal `json:"balance"`
}

// ToJournalEntryResponse maps a domain entry to its API shape
func ToJournalEntryResponse(entry *ledger.JournalEntry) JournalEntryResponse {
	lines := make([]JournalLineView, 0, len(entry.Lines))
	for _, line := range entry.Lines {
		lines = append(lines, JournalLineView{
			AccountCode: line.AccountCode,
			Debit:       line.Debit,
			Credit:      line.Credit,
			Description: line.Description,
		})
	}
	return JournalEntryResponse{
		ID:           entry.ID,
		EntryDate:    entry.EntryDate,
		Reference:    entry.Reference,
		Description:  entry.Description,
		Currency:     string(entry.Currency),
		ExchangeRate: entry.ExchangeRate,
		Status:       entry.Status.String(),
		TotalDebit:   entry.TotalDebit(),
		TotalCredit:  entry.TotalCredit(),
		ReversalOf:   entry.ReversalOf,
		Lines:        lines,
		CreatedAt:    entry.CreatedAt,
	}
}
