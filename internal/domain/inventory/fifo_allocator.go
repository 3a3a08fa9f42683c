package inventory

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/domain/shared/valueobject"
)

// LotAllocation is one slice of a FIFO consumption: how much was taken
// from which lot, at that lot's cost.
type LotAllocation struct {
	LotID         uuid.UUID       `json:"lotId"`
	QuantityTaken decimal.Decimal `json:"quantityTaken"`
	UnitCost      decimal.Decimal `json:"unitCost"`
	TotalCost     decimal.Decimal `json:"totalCost"`
}

// AllocationPlan is the full result of allocating a quantity across lots
// oldest-received-first.
type AllocationPlan struct {
	ItemID           uuid.UUID       `json:"itemId"`
	Allocations      []LotAllocation `json:"allocations"`
	TotalQuantity    decimal.Decimal `json:"totalQuantity"`
	TotalCost        decimal.Decimal `json:"totalCost"`
	WeightedUnitCost decimal.Decimal `json:"weightedUnitCost"`
}

// sortLotsFIFO orders lots oldest received first, tie-broken by creation
// time so two receipts on the same day consume in the order they were
// recorded.
func sortLotsFIFO(lots []*StockLot) {
	sort.SliceStable(lots, func(i, j int) bool {
		if !lots[i].ReceivedDate.Equal(lots[j].ReceivedDate) {
			return lots[i].ReceivedDate.Before(lots[j].ReceivedDate)
		}
		return lots[i].CreatedAt.Before(lots[j].CreatedAt)
	})
}

// PlanFIFO computes a FIFO allocation over the given lots without
// mutating them. Fails with INSUFFICIENT_STOCK when the lots cannot
// cover the requested quantity.
func PlanFIFO(itemID uuid.UUID, lots []*StockLot, quantity decimal.Decimal) (*AllocationPlan, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Allocation quantity must be positive")
	}

	ordered := make([]*StockLot, 0, len(lots))
	for _, lot := range lots {
		if lot.ItemID == itemID && !lot.IsDepleted() {
			ordered = append(ordered, lot)
		}
	}
	sortLotsFIFO(ordered)

	available := decimal.Zero
	for _, lot := range ordered {
		available = available.Add(lot.AvailableQty)
	}
	if available.LessThan(quantity) {
		return nil, shared.NewDomainErrorf(shared.ErrInsufficientStock.Code,
			"Requested %s but only %s available across %d lots",
			quantity, available, len(ordered))
	}

	plan := &AllocationPlan{
		ItemID:      itemID,
		Allocations: make([]LotAllocation, 0, len(ordered)),
	}
	remaining := quantity
	totalCost := decimal.Zero
	for _, lot := range ordered {
		if remaining.IsZero() {
			break
		}
		take := decimal.Min(lot.AvailableQty, remaining)
		cost := take.Mul(lot.UnitCost)
		plan.Allocations = append(plan.Allocations, LotAllocation{
			LotID:         lot.ID,
			QuantityTaken: take,
			UnitCost:      lot.UnitCost,
			TotalCost:     cost,
		})
		totalCost = totalCost.Add(cost)
		remaining = remaining.Sub(take)
	}

	plan.TotalQuantity = quantity
	plan.TotalCost = totalCost.Round(valueobject.MoneyScale)
	plan.WeightedUnitCost = totalCost.Div(quantity).Round(valueobject.MoneyScale)
	return plan, nil
}

// Apply decrements the planned quantities from the given lots. The lots
// must be the same set the plan was computed from, read under the
// caller's per-item lock; decrements and the caller's movement insert
// commit as one transaction.
func (p *AllocationPlan) Apply(lots []*StockLot) error {
	byID := make(map[uuid.UUID]*StockLot, len(lots))
	for _, lot := range lots {
		byID[lot.ID] = lot
	}
	for _, alloc := range p.Allocations {
		lot, ok := byID[alloc.LotID]
		if !ok {
			return shared.NewDomainErrorf(shared.ErrNotFound.Code, "Lot %s not found for allocation", alloc.LotID)
		}
		if err := lot.Consume(alloc.QuantityTaken); err != nil {
			return err
		}
	}
	return nil
}
