package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
)

// GormJournalEntryRepository implements ledger.JournalEntryRepository using GORM
type GormJournalEntryRepository struct {
	db *gorm.DB
}

// NewGormJournalEntryRepository creates a new GormJournalEntryRepository
func NewGormJournalEntryRepository(db *gorm.DB) *GormJournalEntryRepository {
	return &GormJournalEntryRepository{db: db}
}

// FindByID finds a journal entry with its lines
func (r *GormJournalEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.JournalEntry, error) {
	var entry ledger.JournalEntry
	if err := r.db.WithContext(ctx).Preload("Lines").First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// FindByReference finds all journal entries carrying a reference
func (r *GormJournalEntryRepository) FindByReference(ctx context.Context, reference string) ([]ledger.JournalEntry, error) {
	var entries []ledger.JournalEntry
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("reference = ?", reference).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Save persists a journal entry together with its lines
func (r *GormJournalEntryRepository) Save(ctx context.Context, entry *ledger.JournalEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

// AccountBalance aggregates posted lines for an account: debits minus credits.
// Computed live from journal lines, never from a cached column.
func (r *GormJournalEntryRepository) AccountBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Balance decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&ledger.JournalLine{}).
		Select("COALESCE(SUM(debit - credit), 0) AS balance").
		Joins("JOIN journal_entries ON journal_entries.id = journal_lines.entry_id").
		Where("journal_lines.account_id = ?", accountID).
		Where("journal_entries.status = ?", ledger.JournalEntryStatusPosted).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Balance, nil
}

// List returns journal entries ordered per the filter
func (r *GormJournalEntryRepository) List(ctx context.Context, filter shared.Filter) ([]ledger.JournalEntry, error) {
	var entries []ledger.JournalEntry
	orderBy := ValidateSortField(filter.OrderBy, JournalEntrySortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Order(orderBy + " " + orderDir).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

var _ ledger.JournalEntryRepository = (*GormJournalEntryRepository)(nil)
