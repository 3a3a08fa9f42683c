package procurement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/procurement"
	"github.com/stockledger/backend/internal/domain/shared"
)

// InvoiceService creates supplier invoices, runs three-way matching
// against their purchase orders, records approval decisions, and posts
// matched invoices to the ledger.
type InvoiceService struct {
	scope       TransactionScope
	invoiceRepo procurement.SupplierInvoiceRepository
	matchingCfg procurement.MatchingConfig
	logger      *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	scope TransactionScope,
	invoiceRepo procurement.SupplierInvoiceRepository,
	matchingCfg procurement.MatchingConfig,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		scope:       scope,
		invoiceRepo: invoiceRepo,
		matchingCfg: matchingCfg,
		logger:      logger.Named("procurement"),
	}
}

// CreateSupplierInvoice validates an incoming invoice against its
// purchase order and the received quantities. Invoicing more than has
// been received on any line fails with OverInvoiced; a reused invoice
// number fails with DuplicateInvoiceNumber. The created invoice is
// immediately analyzed, so it comes back FULLY_MATCHED or DISCREPANT.
func (s *InvoiceService) CreateSupplierInvoice(ctx context.Context, req CreateInvoiceRequest) (*procurement.SupplierInvoice, error) {
	existing, err := s.invoiceRepo.FindByInvoiceNumber(ctx, req.InvoiceNumber)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainErrorf(shared.ErrDuplicateInvoiceNumber.Code,
			"Invoice number %s already exists", req.InvoiceNumber)
	}

	invoiceDate := req.InvoiceDate
	if invoiceDate.IsZero() {
		invoiceDate = time.Now()
	}
	lines := make([]procurement.InvoiceLineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, procurement.InvoiceLineInput{
			POItemID:  line.POItemID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	var invoice *procurement.SupplierInvoice
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		po, err := repos.PurchaseOrders().FindByID(ctx, req.PurchaseOrderID)
		if err != nil {
			return err
		}
		receivedByPOItem, err := repos.GoodsReceipts().ReceivedByPOItem(ctx, po.ID)
		if err != nil {
			return err
		}
		invoicedByPOItem, err := repos.SupplierInvoices().InvoicedByPOItem(ctx, po.ID)
		if err != nil {
			return err
		}

		invoice, err = procurement.NewSupplierInvoice(
			req.InvoiceNumber,
			po,
			invoiceDate,
			req.TaxAmount,
			lines,
			receivedByPOItem,
			invoicedByPOItem,
			req.CreatedBy,
		)
		if err != nil {
			return err
		}
		if err := repos.SupplierInvoices().Save(ctx, invoice); err != nil {
			return err
		}

		// Analyze right away so the caller sees the matching outcome.
		result, err := s.analyzeWithin(ctx, repos, po.ID)
		if err != nil {
			return err
		}
		for i := range result.updated {
			if result.updated[i].ID == invoice.ID {
				invoice = result.updated[i]
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("supplier invoice created",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("matching_status", invoice.MatchingStatus.String()),
		zap.String("total", invoice.Total.String()))
	return invoice, nil
}

// analyzeOutcome pairs the matching result with the invoices it touched
type analyzeOutcome struct {
	result  *procurement.MatchingResult
	updated []*procurement.SupplierInvoice
}

// analyzeWithin runs the three-way analysis for one purchase order
// inside an open transaction and applies the aggregate outcome to each
// live invoice. Manual APPROVED_WITH_VARIANCE / REJECTED decisions are
// sticky and survive re-analysis.
func (s *InvoiceService) analyzeWithin(ctx context.Context, repos TransactionalRepositories, poID uuid.UUID) (*analyzeOutcome, error) {
	po, err := repos.PurchaseOrders().FindByID(ctx, poID)
	if err != nil {
		return nil, err
	}
	receipts, err := repos.GoodsReceipts().FindByPurchaseOrder(ctx, poID)
	if err != nil {
		return nil, err
	}
	invoices, err := repos.SupplierInvoices().FindByPurchaseOrder(ctx, poID)
	if err != nil {
		return nil, err
	}

	result := procurement.AnalyzeMatching(po, receipts, invoices, s.matchingCfg, time.Now())

	outcome := &analyzeOutcome{result: result}
	for i := range invoices {
		inv := &invoices[i]
		before := inv.MatchingStatus
		if err := inv.SetMatchingOutcome(result.Status); err != nil {
			return nil, err
		}
		if inv.MatchingStatus != before {
			if err := repos.SupplierInvoices().Save(ctx, inv); err != nil {
				return nil, err
			}
		}
		outcome.updated = append(outcome.updated, inv)
	}
	return outcome, nil
}

// AnalyzeThreeWayMatching compares a purchase order against all of its
// receipts and invoices and updates each live invoice's matching status.
func (s *InvoiceService) AnalyzeThreeWayMatching(ctx context.Context, poID uuid.UUID) (*procurement.MatchingResult, error) {
	var result *procurement.MatchingResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		outcome, err := s.analyzeWithin(ctx, repos, poID)
		if err != nil {
			return err
		}
		result = outcome.result
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("three-way matching analyzed",
		zap.String("purchase_order_id", poID.String()),
		zap.String("status", result.Status.String()),
		zap.Int("discrepancies", len(result.Discrepancies)))
	return result, nil
}

// ApproveMatching records the manual approval of a discrepant invoice,
// unlocking posting with the variance accepted.
func (s *InvoiceService) ApproveMatching(ctx context.Context, invoiceID uuid.UUID, req ApproveMatchingRequest) (*procurement.SupplierInvoice, error) {
	return s.decide(ctx, invoiceID, func(inv *procurement.SupplierInvoice) error {
		return inv.ApproveMatching(req.ApprovedBy, req.Reason)
	})
}

// RejectMatching records the manual rejection of an invoice. A rejected
// invoice can never be posted.
func (s *InvoiceService) RejectMatching(ctx context.Context, invoiceID uuid.UUID, req RejectMatchingRequest) (*procurement.SupplierInvoice, error) {
	return s.decide(ctx, invoiceID, func(inv *procurement.SupplierInvoice) error {
		return inv.RejectMatching(req.RejectedBy, req.Reason, req.RequiredActions)
	})
}

func (s *InvoiceService) decide(ctx context.Context, invoiceID uuid.UUID, fn func(*procurement.SupplierInvoice) error) (*procurement.SupplierInvoice, error) {
	var invoice *procurement.SupplierInvoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		invoice, err = repos.SupplierInvoices().FindByIDForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if err := fn(invoice); err != nil {
			return err
		}
		return repos.SupplierInvoices().Save(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// PostSupplierInvoice posts a matched (or variance-approved) invoice to
// the ledger: the GR/IR suspense is cleared and accounts payable
// credited for the invoice total. Rejected invoices fail with
// CannotPostRejectedInvoice and never acquire a journal entry.
func (s *InvoiceService) PostSupplierInvoice(ctx context.Context, invoiceID, userID uuid.UUID) (*procurement.SupplierInvoice, error) {
	var invoice *procurement.SupplierInvoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		invoice, err = repos.SupplierInvoices().FindByIDForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if err := invoice.CanPost(); err != nil {
			return err
		}

		accounts, err := repos.Accounts().FindByCodes(ctx, []string{ledger.AccountCodeGRIRClearing, ledger.AccountCodePayable})
		if err != nil {
			return err
		}
		description := fmt.Sprintf("Supplier invoice %s", invoice.InvoiceNumber)
		entry, err := ledger.BuildEntry(
			invoice.InvoiceDate,
			"INV-"+invoice.InvoiceNumber,
			description,
			invoice.Currency,
			invoice.ExchangeRate,
			[]ledger.LineInput{
				{AccountCode: ledger.AccountCodeGRIRClearing, Debit: invoice.Total, Description: description},
				{AccountCode: ledger.AccountCodePayable, Credit: invoice.Total, Description: description},
			},
			accounts,
			userID,
		)
		if err != nil {
			return err
		}
		if err := repos.JournalEntries().Save(ctx, entry); err != nil {
			return err
		}
		if err := invoice.MarkPosted(entry.ID); err != nil {
			return err
		}
		return repos.SupplierInvoices().Save(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("supplier invoice posted",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("journal_entry_id", invoice.JournalEntryID.String()))
	return invoice, nil
}

// GetInvoice loads one invoice with its lines
func (s *InvoiceService) GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*procurement.SupplierInvoice, error) {
	return s.invoiceRepo.FindByID(ctx, invoiceID)
}
