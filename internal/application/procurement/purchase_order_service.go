package procurement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stockledger/backend/internal/domain/procurement"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/domain/shared/valueobject"
)

// PurchaseOrderService manages the purchase order lifecycle: draft
// creation, confirmation, cancellation. Receiving rolls orders forward
// through the GoodsReceiptService.
type PurchaseOrderService struct {
	scope     TransactionScope
	orderRepo procurement.PurchaseOrderRepository
	logger    *zap.Logger
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(scope TransactionScope, orderRepo procurement.PurchaseOrderRepository, logger *zap.Logger) *PurchaseOrderService {
	return &PurchaseOrderService{
		scope:     scope,
		orderRepo: orderRepo,
		logger:    logger.Named("procurement"),
	}
}

// CreatePurchaseOrder creates a draft purchase order with its lines
func (s *PurchaseOrderService) CreatePurchaseOrder(ctx context.Context, req CreatePurchaseOrderRequest) (*procurement.PurchaseOrder, error) {
	existing, err := s.orderRepo.FindByOrderNumber(ctx, req.OrderNumber)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainErrorf("DUPLICATE_ORDER_NUMBER", "Purchase order %s already exists", req.OrderNumber)
	}

	orderDate := req.OrderDate
	if orderDate.IsZero() {
		orderDate = time.Now()
	}
	lines := make([]procurement.POLineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, procurement.POLineInput{
			ItemID:    line.ItemID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	var po *procurement.PurchaseOrder
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		// Resolve line item codes so downstream documents carry them.
		for i := range lines {
			item, err := repos.Items().FindByID(ctx, lines[i].ItemID)
			if err != nil {
				return err
			}
			lines[i].ItemCode = item.Code
		}

		po, err = procurement.NewPurchaseOrder(
			req.OrderNumber,
			req.SupplierID,
			orderDate,
			valueobject.Currency(req.Currency),
			req.ExchangeRate,
			req.TaxRate,
			lines,
			req.CreatedBy,
		)
		if err != nil {
			return err
		}
		return repos.PurchaseOrders().Save(ctx, po)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase order created",
		zap.String("order_number", po.OrderNumber),
		zap.String("total", po.Total.String()))
	return po, nil
}

// ConfirmPurchaseOrder moves a draft order to CONFIRMED so it can receive goods
func (s *PurchaseOrderService) ConfirmPurchaseOrder(ctx context.Context, poID uuid.UUID) (*procurement.PurchaseOrder, error) {
	return s.transition(ctx, poID, func(po *procurement.PurchaseOrder) error { return po.Confirm() })
}

// CancelPurchaseOrder cancels an order that has not received goods
func (s *PurchaseOrderService) CancelPurchaseOrder(ctx context.Context, poID uuid.UUID) (*procurement.PurchaseOrder, error) {
	return s.transition(ctx, poID, func(po *procurement.PurchaseOrder) error { return po.Cancel() })
}

func (s *PurchaseOrderService) transition(ctx context.Context, poID uuid.UUID, fn func(*procurement.PurchaseOrder) error) (*procurement.PurchaseOrder, error) {
	var po *procurement.PurchaseOrder
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		po, err = repos.PurchaseOrders().FindByID(ctx, poID)
		if err != nil {
			return err
		}
		if err := fn(po); err != nil {
			return err
		}
		return repos.PurchaseOrders().Save(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	return po, nil
}

// GetPurchaseOrder loads one order with its lines
func (s *PurchaseOrderService) GetPurchaseOrder(ctx context.Context, poID uuid.UUID) (*procurement.PurchaseOrder, error) {
	return s.orderRepo.FindByID(ctx, poID)
}

// ListPurchaseOrders pages through purchase orders
func (s *PurchaseOrderService) ListPurchaseOrders(ctx context.Context, filter shared.Filter) ([]procurement.PurchaseOrder, error) {
	return s.orderRepo.List(ctx, filter)
}
