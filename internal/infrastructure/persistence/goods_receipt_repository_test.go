package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockledger/backend/internal/domain/procurement"
	"github.com/stockledger/backend/internal/domain/shared"
)

func testReceipt(poID uuid.UUID, number string, lines []procurement.GoodsReceiptItem) *procurement.GoodsReceipt {
	receipt := &procurement.GoodsReceipt{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReceiptNumber:     number,
		PurchaseOrderID:   poID,
		ReceivedDate:      time.Now(),
		ReceivedBy:        uuid.New(),
	}
	for i := range lines {
		lines[i].ID = uuid.New()
		lines[i].ReceiptID = receipt.ID
		lines[i].CreatedAt = time.Now()
	}
	receipt.Items = lines
	return receipt
}

func TestGormGoodsReceiptRepository_ReceivedByPOItem(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormGoodsReceiptRepository(db)
	ctx := context.Background()

	poID := uuid.New()
	lineA := uuid.New()
	lineB := uuid.New()

	first := testReceipt(poID, "GR-1", []procurement.GoodsReceiptItem{
		{POItemID: lineA, ItemID: uuid.New(), ItemCode: "WIDGET", QtyReceived: decimal.NewFromInt(6), QtyRejected: decimal.NewFromInt(1), UnitCost: decimal.NewFromInt(5), QualityStatus: procurement.QualityStatusPartial},
		{POItemID: lineB, ItemID: uuid.New(), ItemCode: "GASKET", QtyReceived: decimal.NewFromInt(3), QtyRejected: decimal.Zero, UnitCost: decimal.NewFromInt(2), QualityStatus: procurement.QualityStatusAccepted},
	})
	second := testReceipt(poID, "GR-2", []procurement.GoodsReceiptItem{
		{POItemID: lineA, ItemID: uuid.New(), ItemCode: "WIDGET", QtyReceived: decimal.NewFromInt(4), QtyRejected: decimal.Zero, UnitCost: decimal.NewFromInt(5), QualityStatus: procurement.QualityStatusAccepted},
	})
	unrelated := testReceipt(uuid.New(), "GR-3", []procurement.GoodsReceiptItem{
		{POItemID: uuid.New(), ItemID: uuid.New(), ItemCode: "OTHER", QtyReceived: decimal.NewFromInt(9), QtyRejected: decimal.Zero, UnitCost: decimal.NewFromInt(1), QualityStatus: procurement.QualityStatusAccepted},
	})

	for _, r := range []*procurement.GoodsReceipt{first, second, unrelated} {
		require.NoError(t, repo.Save(ctx, r))
	}

	received, err := repo.ReceivedByPOItem(ctx, poID)
	require.NoError(t, err)
	require.Len(t, received, 2)
	assert.True(t, received[lineA].Equal(decimal.NewFromInt(9)), "accepted = received - rejected across receipts, got %s", received[lineA])
	assert.True(t, received[lineB].Equal(decimal.NewFromInt(3)), "got %s", received[lineB])
}

func TestGormGoodsReceiptRepository_FindByPurchaseOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormGoodsReceiptRepository(db)
	ctx := context.Background()

	poID := uuid.New()
	require.NoError(t, repo.Save(ctx, testReceipt(poID, "GR-10", []procurement.GoodsReceiptItem{
		{POItemID: uuid.New(), ItemID: uuid.New(), ItemCode: "WIDGET", QtyReceived: decimal.NewFromInt(1), QtyRejected: decimal.Zero, UnitCost: decimal.NewFromInt(5), QualityStatus: procurement.QualityStatusAccepted},
	})))
	require.NoError(t, repo.Save(ctx, testReceipt(uuid.New(), "GR-11", []procurement.GoodsReceiptItem{
		{POItemID: uuid.New(), ItemID: uuid.New(), ItemCode: "GASKET", QtyReceived: decimal.NewFromInt(1), QtyRejected: decimal.Zero, UnitCost: decimal.NewFromInt(2), QualityStatus: procurement.QualityStatusAccepted},
	})))

	receipts, err := repo.FindByPurchaseOrder(ctx, poID)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, "GR-10", receipts[0].ReceiptNumber)
	require.Len(t, receipts[0].Items, 1)
}
