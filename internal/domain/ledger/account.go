package ledger

import (
	"time"

	"github.com/stockledger/backend/internal/domain/shared"
)

// AccountType classifies an account in the chart of accounts
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// IsValid checks if the account type is valid
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense:
		return true
	}
	return false
}

// String returns the string representation
func (t AccountType) String() string {
	return string(t)
}

// Engine account codes. The engine posts against these accounts; the
// surrounding application may extend the chart but these must exist.
const (
	AccountCodeCash           = "1000" // Bank / cash
	AccountCodeInventory      = "1300" // Inventory asset
	AccountCodePayable        = "2100" // Accounts payable
	AccountCodeGRIRClearing   = "2150" // Goods received / invoice received clearing
	AccountCodeCOGS           = "5000" // Cost of goods sold
	AccountCodeAdjustmentLoss = "5900" // Inventory adjustment loss
)

// Account is a general-ledger account. Journal lines reference accounts
// by ID; inactive accounts reject new postings but keep their history.
type Account struct {
	shared.BaseEntity
	Code     string      `gorm:"type:varchar(20);not null;uniqueIndex"`
	Name     string      `gorm:"type:varchar(200);not null"`
	Type     AccountType `gorm:"type:varchar(20);not null"`
	IsActive bool        `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Account) TableName() string {
	return "accounts"
}

// NewAccount creates a new active account
func NewAccount(code, name string, accountType AccountType) (*Account, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_CODE", "Account code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_NAME", "Account name cannot be empty")
	}
	if !accountType.IsValid() {
		return nil, shared.NewDomainErrorf("INVALID_ACCOUNT_TYPE", "Unknown account type %q", accountType)
	}
	return &Account{
		BaseEntity: shared.NewBaseEntity(),
		Code:       code,
		Name:       name,
		Type:       accountType,
		IsActive:   true,
	}, nil
}

// Deactivate marks the account as closed for new postings
func (a *Account) Deactivate() {
	a.IsActive = false
	a.UpdatedAt = time.Now()
}

// EngineAccounts returns the accounts the engine requires to operate.
// Used by migrations and test fixtures to seed the chart.
func EngineAccounts() []Account {
	mk := func(code, name string, t AccountType) Account {
		a, _ := NewAccount(code, name, t)
		return *a
	}
	return []Account{
		mk(AccountCodeCash, "Cash and Bank", AccountTypeAsset),
		mk(AccountCodeInventory, "Inventory", AccountTypeAsset),
		mk(AccountCodePayable, "Accounts Payable", AccountTypeLiability),
		mk(AccountCodeGRIRClearing, "GR/IR Clearing", AccountTypeLiability),
		mk(AccountCodeCOGS, "Cost of Goods Sold", AccountTypeExpense),
		mk(AccountCodeAdjustmentLoss, "Inventory Adjustment Loss", AccountTypeExpense),
	}
}
