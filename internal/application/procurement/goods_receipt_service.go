package procurement

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/procurement"
	"github.com/stockledger/backend/internal/domain/shared/valueobject"
	"github.com/stockledger/backend/internal/infrastructure/lock"
)

// GoodsReceiptService records goods arriving against confirmed purchase
// orders. One receipt is one unit of work: the receipt document, the PO
// line roll-up, a stock lot plus STOCK_IN movement per accepted line,
// and the GL postings all commit or roll back together.
type GoodsReceiptService struct {
	scope       TransactionScope
	locks       lock.Manager
	lockTimeout time.Duration
	receiptRepo procurement.GoodsReceiptRepository
	logger      *zap.Logger
}

// NewGoodsReceiptService creates a new GoodsReceiptService
func NewGoodsReceiptService(scope TransactionScope, locks lock.Manager, receiptRepo procurement.GoodsReceiptRepository, logger *zap.Logger) *GoodsReceiptService {
	return &GoodsReceiptService{
		scope:       scope,
		locks:       locks,
		lockTimeout: 5 * time.Second,
		receiptRepo: receiptRepo,
		logger:      logger.Named("procurement"),
	}
}

// SetLockTimeout overrides the lock acquisition timeout
func (s *GoodsReceiptService) SetLockTimeout(timeout time.Duration) {
	s.lockTimeout = timeout
}

// CreateGoodsReceipt validates the receipt against the purchase order,
// records it, and drives a STOCK_IN per accepted line. Over-receipt past
// a line's remaining quantity rejects the whole receipt.
func (s *GoodsReceiptService) CreateGoodsReceipt(ctx context.Context, req CreateGoodsReceiptRequest) (*procurement.GoodsReceipt, error) {
	receivedDate := req.ReceivedDate
	if receivedDate.IsZero() {
		receivedDate = time.Now()
	}

	// The item set comes from the PO, read before locking; item locks are
	// taken in sorted order so two overlapping receipts cannot deadlock.
	itemIDs, err := s.receiptItemIDs(ctx, req)
	if err != nil {
		return nil, err
	}
	release, err := s.acquireItemLocks(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	defer release()

	var receipt *procurement.GoodsReceipt
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		po, err := repos.PurchaseOrders().FindByID(ctx, req.PurchaseOrderID)
		if err != nil {
			return err
		}

		lines := make([]procurement.ReceiptLineInput, 0, len(req.Lines))
		for _, line := range req.Lines {
			lines = append(lines, procurement.ReceiptLineInput{
				POItemID:    line.POItemID,
				QtyReceived: line.QtyReceived,
				QtyRejected: line.QtyRejected,
				UnitCost:    line.UnitCost,
			})
		}

		receipt, err = procurement.NewGoodsReceipt(req.ReceiptNumber, po, receivedDate, lines, req.ReceivedBy, req.Notes)
		if err != nil {
			return err
		}

		for _, item := range receipt.Items {
			if err := po.RecordReceipt(item.POItemID, item.QtyReceived); err != nil {
				return err
			}
			if accepted := item.AcceptedQty(); accepted.IsPositive() {
				if err := s.stockInLine(ctx, repos, receipt, item, accepted, receivedDate, req.ReceivedBy); err != nil {
					return err
				}
			}
		}

		if err := repos.GoodsReceipts().Save(ctx, receipt); err != nil {
			return err
		}
		return repos.PurchaseOrders().Save(ctx, po)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("goods receipt recorded",
		zap.String("receipt_number", receipt.ReceiptNumber),
		zap.String("purchase_order_id", req.PurchaseOrderID.String()),
		zap.Int("lines", len(receipt.Items)))
	return receipt, nil
}

// stockInLine creates the lot, movement, and GL posting for one accepted
// receipt line: inventory value in, GR/IR suspense credited until the
// supplier invoice posts against it.
func (s *GoodsReceiptService) stockInLine(
	ctx context.Context,
	repos TransactionalRepositories,
	receipt *procurement.GoodsReceipt,
	line procurement.GoodsReceiptItem,
	accepted decimal.Decimal,
	receivedDate time.Time,
	receivedBy uuid.UUID,
) error {
	lot, err := inventory.NewStockLot(line.ItemID, receivedDate, accepted, line.UnitCost, nil, receipt.ReceiptNumber)
	if err != nil {
		return err
	}
	if err := repos.StockLots().Save(ctx, lot); err != nil {
		return err
	}

	movement, err := inventory.NewStockMovement(
		line.ItemID,
		inventory.MovementTypeStockIn,
		accepted,
		line.UnitCost,
		receivedDate,
		receipt.ReceiptNumber,
		fmt.Sprintf("Goods receipt %s", receipt.ReceiptNumber),
		receivedBy,
	)
	if err != nil {
		return err
	}

	amount := accepted.Mul(line.UnitCost).Round(valueobject.MoneyScale)
	accounts, err := repos.Accounts().FindByCodes(ctx, []string{ledger.AccountCodeInventory, ledger.AccountCodeGRIRClearing})
	if err != nil {
		return err
	}
	description := fmt.Sprintf("STOCK_IN %s x %s @ %s", line.ItemCode, accepted, line.UnitCost)
	entry, err := ledger.BuildEntry(
		receivedDate,
		receipt.ReceiptNumber,
		description,
		valueobject.DefaultCurrency,
		decimal.NewFromInt(1),
		[]ledger.LineInput{
			{AccountCode: ledger.AccountCodeInventory, Debit: amount, Description: description},
			{AccountCode: ledger.AccountCodeGRIRClearing, Credit: amount, Description: description},
		},
		accounts,
		receivedBy,
	)
	if err != nil {
		return err
	}
	if err := repos.JournalEntries().Save(ctx, entry); err != nil {
		return err
	}
	movement.AttachJournalEntry(entry.ID)
	return repos.StockMovements().Save(ctx, movement)
}

// receiptItemIDs resolves which items a receipt touches, from the PO lines.
func (s *GoodsReceiptService) receiptItemIDs(ctx context.Context, req CreateGoodsReceiptRequest) ([]uuid.UUID, error) {
	var itemIDs []uuid.UUID
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		po, err := repos.PurchaseOrders().FindByID(ctx, req.PurchaseOrderID)
		if err != nil {
			return err
		}
		wanted := make(map[uuid.UUID]bool, len(req.Lines))
		for _, line := range req.Lines {
			wanted[line.POItemID] = true
		}
		seen := make(map[uuid.UUID]bool)
		for _, item := range po.Items {
			if wanted[item.ID] && !seen[item.ItemID] {
				seen[item.ItemID] = true
				itemIDs = append(itemIDs, item.ItemID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return itemIDs, nil
}

// acquireItemLocks takes the per-item locks in sorted key order
func (s *GoodsReceiptService) acquireItemLocks(ctx context.Context, itemIDs []uuid.UUID) (func(), error) {
	keys := make([]string, 0, len(itemIDs))
	for _, id := range itemIDs {
		keys = append(keys, id.String())
	}
	sort.Strings(keys)

	releases := make([]lock.Release, 0, len(keys))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, key := range keys {
		release, err := s.locks.Acquire(ctx, lock.ItemKey(key), s.lockTimeout)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}

// GetGoodsReceipt loads one receipt with its lines
func (s *GoodsReceiptService) GetGoodsReceipt(ctx context.Context, receiptID uuid.UUID) (*procurement.GoodsReceipt, error) {
	return s.receiptRepo.FindByID(ctx, receiptID)
}

// ListReceiptsForOrder returns all receipts recorded against a purchase order
func (s *GoodsReceiptService) ListReceiptsForOrder(ctx context.Context, poID uuid.UUID) ([]procurement.GoodsReceipt, error) {
	return s.receiptRepo.FindByPurchaseOrder(ctx, poID)
}
