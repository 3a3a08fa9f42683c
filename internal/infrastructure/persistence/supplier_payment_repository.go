package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stockledger/backend/internal/domain/procurement"
	"github.com/stockledger/backend/internal/domain/shared"
)

// GormSupplierPaymentRepository implements procurement.SupplierPaymentRepository using GORM
type GormSupplierPaymentRepository struct {
	db *gorm.DB
}

// NewGormSupplierPaymentRepository creates a new GormSupplierPaymentRepository
func NewGormSupplierPaymentRepository(db *gorm.DB) *GormSupplierPaymentRepository {
	return &GormSupplierPaymentRepository{db: db}
}

// FindByID finds a payment with its allocations
func (r *GormSupplierPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.SupplierPayment, error) {
	var payment procurement.SupplierPayment
	if err := r.db.WithContext(ctx).Preload("Allocations").First(&payment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// FindBySupplier lists payments for a supplier ordered per the filter
func (r *GormSupplierPaymentRepository) FindBySupplier(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]procurement.SupplierPayment, error) {
	var payments []procurement.SupplierPayment
	orderBy := ValidateSortField(filter.OrderBy, SupplierPaymentSortFields, "payment_date")
	orderDir := ValidateSortOrder(filter.OrderDir)

	if err := r.db.WithContext(ctx).
		Preload("Allocations").
		Where("supplier_id = ?", supplierID).
		Order(orderBy + " " + orderDir).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// Save persists a payment together with its allocations
func (r *GormSupplierPaymentRepository) Save(ctx context.Context, payment *procurement.SupplierPayment) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(payment).Error
}

// TotalPaidBySupplier sums all payment amounts for a supplier, live
func (r *GormSupplierPaymentRepository) TotalPaidBySupplier(ctx context.Context, supplierID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&procurement.SupplierPayment{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("supplier_id = ?", supplierID).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

var _ procurement.SupplierPaymentRepository = (*GormSupplierPaymentRepository)(nil)
