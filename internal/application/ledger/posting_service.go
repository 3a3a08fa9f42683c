package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/domain/shared/valueobject"
)

// PostingService posts balanced journal entries, reverses them, and
// answers balance queries. Every posting runs inside a transaction
// scope so the entry and its lines land atomically.
type PostingService struct {
	scope       TransactionScope
	accountRepo ledger.AccountRepository
	entryRepo   ledger.JournalEntryRepository
	logger      *zap.Logger
}

// NewPostingService creates a new PostingService
func NewPostingService(
	scope TransactionScope,
	accountRepo ledger.AccountRepository,
	entryRepo ledger.JournalEntryRepository,
	logger *zap.Logger,
) *PostingService {
	return &PostingService{
		scope:       scope,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		logger:      logger.Named("ledger"),
	}
}

// PostEntry validates and posts a journal entry. Lines reference
// accounts by code; unknown or inactive codes and unbalanced totals
// reject the whole entry, nothing is written partially.
func (s *PostingService) PostEntry(ctx context.Context, req PostEntryRequest) (*ledger.JournalEntry, error) {
	lineInputs := make([]ledger.LineInput, 0, len(req.Lines))
	codes := make([]string, 0, len(req.Lines))
	for _, line := range req.Lines {
		lineInputs = append(lineInputs, ledger.LineInput{
			AccountCode: line.AccountCode,
			Debit:       line.Debit,
			Credit:      line.Credit,
			Description: line.Description,
		})
		codes = append(codes, line.AccountCode)
	}

	var entry *ledger.JournalEntry
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		accounts, err := repos.Accounts().FindByCodes(ctx, codes)
		if err != nil {
			return err
		}

		entry, err = ledger.BuildEntry(
			req.EntryDate,
			req.Reference,
			req.Description,
			valueobject.Currency(req.Currency),
			req.ExchangeRate,
			lineInputs,
			accounts,
			req.CreatedBy,
		)
		if err != nil {
			return err
		}
		return repos.JournalEntries().Save(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("journal entry posted",
		zap.String("entry_id", entry.ID.String()),
		zap.String("reference", entry.Reference),
		zap.String("total_debit", entry.TotalDebit().String()))
	return entry, nil
}

// ReverseEntry posts a mirror-image entry for a previously posted one
func (s *PostingService) ReverseEntry(ctx context.Context, entryID uuid.UUID, req ReverseEntryRequest) (*ledger.JournalEntry, error) {
	var reversal *ledger.JournalEntry
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		original, err := repos.JournalEntries().FindByID(ctx, entryID)
		if err != nil {
			return err
		}
		reversal, err = original.Reverse(req.ReversedBy, req.Reason)
		if err != nil {
			return err
		}
		return repos.JournalEntries().Save(ctx, reversal)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("journal entry reversed",
		zap.String("entry_id", entryID.String()),
		zap.String("reversal_id", reversal.ID.String()))
	return reversal, nil
}

// GetEntry loads one journal entry with its lines
func (s *PostingService) GetEntry(ctx context.Context, entryID uuid.UUID) (*ledger.JournalEntry, error) {
	return s.entryRepo.FindByID(ctx, entryID)
}

// GetEntriesByReference loads all entries carrying a reference, oldest first
func (s *PostingService) GetEntriesByReference(ctx context.Context, reference string) ([]ledger.JournalEntry, error) {
	return s.entryRepo.FindByReference(ctx, reference)
}

// ListEntries pages through journal entries
func (s *PostingService) ListEntries(ctx context.Context, filter shared.Filter) ([]ledger.JournalEntry, error) {
	return s.entryRepo.List(ctx, filter)
}

// GetAccountBalance computes the live balance of one account from its
// posted lines. Asset and expense accounts carry debit balances,
// liability accounts credit balances; the raw debit-minus-credit number
// is returned either way.
func (s *PostingService) GetAccountBalance(ctx context.Context, accountCode string) (*AccountBalanceResponse, error) {
	account, err := s.accountRepo.FindByCode(ctx, accountCode)
	if err != nil {
		return nil, err
	}
	balance, err := s.entryRepo.AccountBalance(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	return &AccountBalanceResponse{
		AccountCode: account.Code,
		AccountName: account.Name,
		AccountType: account.Type.String(),
		Balance:     balance,
	}, nil
}

// EnsureEngineAccounts seeds the minimal chart of accounts the engine
// posts against. Existing codes are left untouched.
func (s *PostingService) EnsureEngineAccounts(ctx context.Context) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		for _, account := range ledger.EngineAccounts() {
			_, err := repos.Accounts().FindByCode(ctx, account.Code)
			if err == nil {
				continue
			}
			if !errors.Is(err, shared.ErrNotFound) {
				return err
			}
			a := account
			if err := repos.Accounts().Save(ctx, &a); err != nil {
				return err
			}
		}
		return nil
	})
}
