package procurement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/procurement"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/domain/shared/valueobject"
	"github.com/stockledger/backend/internal/infrastructure/lock"
)

// PaymentService applies supplier payments against invoice balances and
// posts the cash-side journal entries. Allocation against an invoice
// runs under a per-invoice lock plus a FOR UPDATE row read, so two
// concurrent payments cannot both drain the same balance.
type PaymentService struct {
	scope       TransactionScope
	locks       lock.Manager
	lockTimeout time.Duration
	paymentRepo procurement.SupplierPaymentRepository
	invoiceRepo procurement.SupplierInvoiceRepository
	logger      *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	scope TransactionScope,
	locks lock.Manager,
	paymentRepo procurement.SupplierPaymentRepository,
	invoiceRepo procurement.SupplierInvoiceRepository,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		scope:       scope,
		locks:       locks,
		lockTimeout: 5 * time.Second,
		paymentRepo: paymentRepo,
		invoiceRepo: invoiceRepo,
		logger:      logger.Named("procurement"),
	}
}

// SetLockTimeout overrides the lock acquisition timeout
func (s *PaymentService) SetLockTimeout(timeout time.Duration) {
	s.lockTimeout = timeout
}

// CreateSupplierPayment records a payment and, when an invoice is given,
// allocates the full amount against its balance. Paying more than the
// open balance fails with OverpaymentNotAllowed: the engine never clamps
// the amount. A fully paid invoice flips to PAID.
func (s *PaymentService) CreateSupplierPayment(ctx context.Context, req CreatePaymentRequest) (*procurement.SupplierPayment, error) {
	method := procurement.PaymentMethod(req.Method)
	if !method.IsValid() {
		return nil, shared.NewDomainErrorf("INVALID_PAYMENT_METHOD", "Unknown payment method %q", req.Method)
	}
	paymentDate := req.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	if req.InvoiceID != nil {
		release, err := s.locks.Acquire(ctx, lock.InvoiceKey(req.InvoiceID.String()), s.lockTimeout)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	var payment *procurement.SupplierPayment
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		payment, err = procurement.NewSupplierPayment(req.SupplierID, req.Amount, method, req.Reference, paymentDate, req.CreatedBy)
		if err != nil {
			return err
		}

		if req.InvoiceID != nil {
			invoice, err := repos.SupplierInvoices().FindByIDForUpdate(ctx, *req.InvoiceID)
			if err != nil {
				return err
			}
			if invoice.SupplierID != req.SupplierID {
				return shared.NewDomainErrorf("INVALID_ALLOCATION",
					"Invoice %s belongs to a different supplier", invoice.InvoiceNumber)
			}
			if err := invoice.ApplyPayment(req.Amount); err != nil {
				return err
			}
			if err := payment.Allocate(invoice.ID, req.Amount); err != nil {
				return err
			}
			if err := repos.SupplierInvoices().Save(ctx, invoice); err != nil {
				return err
			}
		}

		if err := s.postPaymentEntry(ctx, repos, payment, paymentDate, req.CreatedBy); err != nil {
			return err
		}
		return repos.SupplierPayments().Save(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("supplier payment recorded",
		zap.String("supplier_id", req.SupplierID.String()),
		zap.String("amount", req.Amount.String()),
		zap.String("method", method.String()))
	return payment, nil
}

// postPaymentEntry posts the cash side: accounts payable debited, cash
// credited for the payment amount.
func (s *PaymentService) postPaymentEntry(
	ctx context.Context,
	repos TransactionalRepositories,
	payment *procurement.SupplierPayment,
	paymentDate time.Time,
	createdBy uuid.UUID,
) error {
	accounts, err := repos.Accounts().FindByCodes(ctx, []string{ledger.AccountCodePayable, ledger.AccountCodeCash})
	if err != nil {
		return err
	}

	reference := payment.Reference
	if reference == "" {
		reference = "PAY-" + payment.ID.String()
	}
	description := fmt.Sprintf("Supplier payment %s", reference)
	entry, err := ledger.BuildEntry(
		paymentDate,
		reference,
		description,
		valueobject.DefaultCurrency,
		decimal.NewFromInt(1),
		[]ledger.LineInput{
			{AccountCode: ledger.AccountCodePayable, Debit: payment.Amount, Description: description},
			{AccountCode: ledger.AccountCodeCash, Credit: payment.Amount, Description: description},
		},
		accounts,
		createdBy,
	)
	if err != nil {
		return err
	}
	if err := repos.JournalEntries().Save(ctx, entry); err != nil {
		return err
	}
	payment.AttachJournalEntry(entry.ID)
	return nil
}

// GetSupplierBalance aggregates a supplier's position live: outstanding
// invoice balances, total paid, and the open invoice count, computed at
// call time rather than from cached columns.
func (s *PaymentService) GetSupplierBalance(ctx context.Context, supplierID uuid.UUID) (*procurement.SupplierBalance, error) {
	outstanding, openCount, err := s.invoiceRepo.OutstandingBySupplier(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	totalPaid, err := s.paymentRepo.TotalPaidBySupplier(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	return &procurement.SupplierBalance{
		SupplierID:       supplierID,
		TotalOutstanding: outstanding,
		TotalPaid:        totalPaid,
		OpenInvoiceCount: openCount,
	}, nil
}

// ListPayments pages through a supplier's payments
func (s *PaymentService) ListPayments(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]procurement.SupplierPayment, error) {
	return s.paymentRepo.FindBySupplier(ctx, supplierID, filter)
}
