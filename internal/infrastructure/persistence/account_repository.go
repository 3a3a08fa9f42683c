package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
)

// GormAccountRepository implements ledger.AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindByID finds an account by its ID
func (r *GormAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	var account ledger.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindByCode finds an account by its chart code
func (r *GormAccountRepository) FindByCode(ctx context.Context, code string) (*ledger.Account, error) {
	var account ledger.Account
	if err := r.db.WithContext(ctx).First(&account, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindByCodes returns the accounts for the given codes, keyed by code
func (r *GormAccountRepository) FindByCodes(ctx context.Context, codes []string) (map[string]*ledger.Account, error) {
	var accounts []*ledger.Account
	if err := r.db.WithContext(ctx).Where("code IN ?", codes).Find(&accounts).Error; err != nil {
		return nil, err
	}
	result := make(map[string]*ledger.Account, len(accounts))
	for _, a := range accounts {
		result[a.Code] = a
	}
	return result, nil
}

// Save persists an account
func (r *GormAccountRepository) Save(ctx context.Context, account *ledger.Account) error {
	return r.db.WithContext(ctx).Save(account).Error
}

var _ ledger.AccountRepository = (*GormAccountRepository)(nil)
