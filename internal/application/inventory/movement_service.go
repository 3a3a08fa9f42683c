package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/domain/shared/valueobject"
	"github.com/stockledger/backend/internal/infrastructure/lock"
)

// DefaultLockTimeout bounds how long a movement waits for its item lock
// before failing with Busy.
const DefaultLockTimeout = 5 * time.Second

// MovementService orchestrates stock movements: inbound movements create
// lots, outbound movements consume them FIFO, and every cost-bearing
// movement posts its GL effect. Lot mutation, the movement record, and
// the journal entry commit as one transaction under a per-item lock.
type MovementService struct {
	scope        TransactionScope
	locks        lock.Manager
	lockTimeout  time.Duration
	itemRepo     inventory.ItemRepository
	lotRepo      inventory.StockLotRepository
	movementRepo inventory.StockMovementRepository
	logger       *zap.Logger
}

// NewMovementService creates a new MovementService
func NewMovementService(
	scope TransactionScope,
	locks lock.Manager,
	itemRepo inventory.ItemRepository,
	lotRepo inventory.StockLotRepository,
	movementRepo inventory.StockMovementRepository,
	logger *zap.Logger,
) *MovementService {
	return &MovementService{
		scope:        scope,
		locks:        locks,
		lockTimeout:  DefaultLockTimeout,
		itemRepo:     itemRepo,
		lotRepo:      lotRepo,
		movementRepo: movementRepo,
		logger:       logger.Named("inventory"),
	}
}

// SetLockTimeout overrides the lock acquisition timeout
func (s *MovementService) SetLockTimeout(timeout time.Duration) {
	s.lockTimeout = timeout
}

// RecordMovement records one stock movement. Inbound quantities create a
// new lot at the given unit cost; outbound quantities consume open lots
// oldest-first and derive cost from the consumed slices. A shortfall
// fails with InsufficientStock before anything is written.
func (s *MovementService) RecordMovement(ctx context.Context, req RecordMovementRequest) (*MovementResult, error) {
	movementType := inventory.MovementType(req.Type)
	if !movementType.IsValid() {
		return nil, shared.NewDomainErrorf("INVALID_MOVEMENT_TYPE", "Unknown movement type %q", req.Type)
	}
	if req.Quantity.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Movement quantity cannot be zero")
	}

	movementDate := req.MovementDate
	if movementDate.IsZero() {
		movementDate = time.Now()
	}

	release, err := s.locks.Acquire(ctx, lock.ItemKey(req.ItemID.String()), s.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer release()

	var result *MovementResult
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		item, err := repos.Items().FindByID(ctx, req.ItemID)
		if err != nil {
			return err
		}
		if !item.TracksInventory {
			return shared.NewDomainErrorf("INVALID_ITEM", "Item %s does not track inventory", item.Code)
		}

		if req.Quantity.IsPositive() {
			result, err = s.applyInbound(ctx, repos, item, movementType, req, movementDate)
		} else {
			result, err = s.applyOutbound(ctx, repos, item, movementType, req, movementDate)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock movement recorded",
		zap.String("item_id", req.ItemID.String()),
		zap.String("type", movementType.String()),
		zap.String("quantity", req.Quantity.String()),
		zap.String("reference", result.Movement.Reference))
	return result, nil
}

// applyInbound creates the lot, the movement record, and the GL entry
// for a stock-creating movement.
func (s *MovementService) applyInbound(
	ctx context.Context,
	repos TransactionalRepositories,
	item *inventory.Item,
	movementType inventory.MovementType,
	req RecordMovementRequest,
	movementDate time.Time,
) (*MovementResult, error) {
	unitCost := req.UnitCost
	if unitCost.IsZero() {
		unitCost = item.StandardCost
	}

	lot, err := inventory.NewStockLot(item.ID, movementDate, req.Quantity, unitCost, req.ExpiryDate, req.Reference)
	if err != nil {
		return nil, err
	}
	if err := repos.StockLots().Save(ctx, lot); err != nil {
		return nil, err
	}

	movement, err := inventory.NewStockMovement(item.ID, movementType, req.Quantity, unitCost, movementDate, req.Reference, req.Notes, req.CreatedBy)
	if err != nil {
		return nil, err
	}
	if movement.Reference == "" {
		movement.Reference = movementReference(movementType, movement.ID)
	}

	result := &MovementResult{Movement: movement, Lot: lot}
	amount := req.Quantity.Mul(unitCost).Round(valueobject.MoneyScale)
	if err := s.postMovementEntry(ctx, repos, item, movement, amount, req.CreatedBy); err != nil {
		return nil, err
	}
	result.JournalEntryID = movement.JournalEntryID

	if err := repos.StockMovements().Save(ctx, movement); err != nil {
		return nil, err
	}
	return result, nil
}

// applyOutbound plans a FIFO allocation over the item's open lots (read
// under FOR UPDATE), decrements them, and posts the weighted cost.
func (s *MovementService) applyOutbound(
	ctx context.Context,
	repos TransactionalRepositories,
	item *inventory.Item,
	movementType inventory.MovementType,
	req RecordMovementRequest,
	movementDate time.Time,
) (*MovementResult, error) {
	if movementType.IsInbound() {
		return nil, shared.NewDomainErrorf("INVALID_QUANTITY", "%s movements require a positive quantity", movementType)
	}

	lots, err := repos.StockLots().FindOpenByItem(ctx, item.ID, true)
	if err != nil {
		return nil, err
	}

	plan, err := inventory.PlanFIFO(item.ID, lots, req.Quantity.Abs())
	if err != nil {
		return nil, err
	}
	if err := plan.Apply(lots); err != nil {
		return nil, err
	}
	if err := repos.StockLots().SaveAll(ctx, lots); err != nil {
		return nil, err
	}

	movement, err := inventory.NewStockMovement(item.ID, movementType, req.Quantity, plan.WeightedUnitCost, movementDate, req.Reference, req.Notes, req.CreatedBy)
	if err != nil {
		return nil, err
	}
	if movement.Reference == "" {
		movement.Reference = movementReference(movementType, movement.ID)
	}
	movement.TotalCost = plan.TotalCost

	result := &MovementResult{Movement: movement, Allocations: plan.Allocations}
	if err := s.postMovementEntry(ctx, repos, item, movement, plan.TotalCost, req.CreatedBy); err != nil {
		return nil, err
	}
	result.JournalEntryID = movement.JournalEntryID

	if err := repos.StockMovements().Save(ctx, movement); err != nil {
		return nil, err
	}
	return result, nil
}

// postMovementEntry posts the GL effect of one movement and links the
// entry to it. Transfers move value inside the inventory account, so
// they record no entry.
func (s *MovementService) postMovementEntry(
	ctx context.Context,
	repos TransactionalRepositories,
	item *inventory.Item,
	movement *inventory.StockMovement,
	amount decimal.Decimal,
	createdBy uuid.UUID,
) error {
	debitCode, creditCode, ok := movementAccounts(movement.Type, movement.Quantity)
	if !ok {
		return nil
	}

	accounts, err := repos.Accounts().FindByCodes(ctx, []string{debitCode, creditCode})
	if err != nil {
		return err
	}

	description := fmt.Sprintf("%s %s x %s @ %s", movement.Type, item.Code, movement.Quantity.Abs(), movement.UnitCost)
	entry, err := ledger.BuildEntry(
		movement.MovementDate,
		movement.Reference,
		description,
		valueobject.DefaultCurrency,
		decimal.NewFromInt(1),
		[]ledger.LineInput{
			{AccountCode: debitCode, Debit: amount, Description: description},
			{AccountCode: creditCode, Credit: amount, Description: description},
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
	movement.AttachJournalEntry(entry.ID)
	return nil
}

// movementAccounts maps a movement to its debit/credit account pair.
// Opening and purchase receipts carry value in against the GR/IR
// suspense; stock-outs expense it to COGS; adjustments book against the
// adjustment-loss account in either direction.
func movementAccounts(movementType inventory.MovementType, signedQty decimal.Decimal) (debit, credit string, ok bool) {
	switch movementType {
	case inventory.MovementTypeOpening, inventory.MovementTypeStockIn:
		return ledger.AccountCodeInventory, ledger.AccountCodeGRIRClearing, true
	case inventory.MovementTypeStockOut:
		return ledger.AccountCodeCOGS, ledger.AccountCodeInventory, true
	case inventory.MovementTypeAdjustment:
		if signedQty.IsPositive() {
			return ledger.AccountCodeInventory, ledger.AccountCodeAdjustmentLoss, true
		}
		return ledger.AccountCodeAdjustmentLoss, ledger.AccountCodeInventory, true
	default:
		return "", "", false
	}
}

// movementReference derives a stable human-readable reference from the
// movement type and ID, e.g. STOCK-IN-2f1c...
func movementReference(movementType inventory.MovementType, id uuid.UUID) string {
	return strings.ReplaceAll(movementType.String(), "_", "-") + "-" + id.String()
}

// AllocateFifo computes a FIFO allocation preview without consuming
// anything. The plan shows which lots a stock-out of this quantity
// would draw from and at what cost.
func (s *MovementService) AllocateFifo(ctx context.Context, itemID uuid.UUID, quantity decimal.Decimal) (*inventory.AllocationPlan, error) {
	lots, err := s.lotRepo.FindOpenByItem(ctx, itemID, false)
	if err != nil {
		return nil, err
	}
	return inventory.PlanFIFO(itemID, lots, quantity)
}

// CreateItem registers a new inventory item
func (s *MovementService) CreateItem(ctx context.Context, req CreateItemRequest) (*inventory.Item, error) {
	if existing, err := s.itemRepo.FindByCode(ctx, req.Code); err == nil && existing != nil {
		return nil, shared.NewDomainErrorf("DUPLICATE_ITEM_CODE", "Item code %s already exists", req.Code)
	}
	item, err := inventory.NewItem(req.Code, req.Name, req.StandardCost, req.ReorderPoint)
	if err != nil {
		return nil, err
	}
	if err := s.itemRepo.Save(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// GetItem loads one item
func (s *MovementService) GetItem(ctx context.Context, itemID uuid.UUID) (*inventory.Item, error) {
	return s.itemRepo.FindByID(ctx, itemID)
}

// GetStockLevel reports an item's live availability across open lots
func (s *MovementService) GetStockLevel(ctx context.Context, itemID uuid.UUID) (*StockLevelResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	lots, err := s.lotRepo.FindOpenByItem(ctx, itemID, false)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, lot := range lots {
		total = total.Add(lot.AvailableQty)
	}
	return &StockLevelResponse{
		ItemID:         item.ID,
		ItemCode:       item.Code,
		TotalAvailable: total,
		OpenLots:       len(lots),
	}, nil
}

// ListMovements pages through an item's movement ledger
func (s *MovementService) ListMovements(ctx context.Context, itemID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, error) {
	return s.movementRepo.FindByItem(ctx, itemID, filter)
}

// ListOpenLots returns an item's lots that still carry stock, FIFO order
func (s *MovementService) ListOpenLots(ctx context.Context, itemID uuid.UUID) ([]*inventory.StockLot, error) {
	return s.lotRepo.FindOpenByItem(ctx, itemID, false)
}

// ItemsBelowReorderPoint lists items whose availability is under their
// reorder point.
func (s *MovementService) ItemsBelowReorderPoint(ctx context.Context, filter shared.Filter) ([]inventory.Item, error) {
	return s.itemRepo.FindBelowReorderPoint(ctx, filter)
}
