package procurement_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	appinv "github.com/stockledger/backend/internal/application/inventory"
	appledger "github.com/stockledger/backend/internal/application/ledger"
	approc "github.com/stockledger/backend/internal/application/procurement"
	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/procurement"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/infrastructure/lock"
	"github.com/stockledger/backend/internal/infrastructure/persistence"
)

type procurementFixture struct {
	orders   *approc.PurchaseOrderService
	receipts *approc.GoodsReceiptService
	invoices *approc.InvoiceService
	payments *approc.PaymentService
	items    *appinv.MovementService
	locks    *lock.KeyedManager
	db       *gorm.DB

	supplierID uuid.UUID
	widget     *inventory.Item
	gasket     *inventory.Item
}

func newProcurementFixture(t *testing.T) *procurementFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&ledger.Account{}, &ledger.JournalEntry{}, &ledger.JournalLine{},
		&inventory.Item{}, &inventory.StockLot{}, &inventory.StockMovement{},
		&procurement.PurchaseOrder{}, &procurement.PurchaseOrderItem{},
		&procurement.GoodsReceipt{}, &procurement.GoodsReceiptItem{},
		&procurement.SupplierInvoice{}, &procurement.SupplierInvoiceItem{},
		&procurement.SupplierPayment{}, &procurement.PaymentAllocation{},
	))

	posting := appledger.NewPostingService(
		persistence.NewGormLedgerTransactionScope(db),
		persistence.NewGormAccountRepository(db),
		persistence.NewGormJournalEntryRepository(db),
		zap.NewNop(),
	)
	require.NoError(t, posting.EnsureEngineAccounts(context.Background()))

	locks := lock.NewKeyedManager()
	scope := persistence.NewGormProcurementTransactionScope(db)
	invoiceRepo := persistence.NewGormSupplierInvoiceRepository(db)

	f := &procurementFixture{
		orders:   approc.NewPurchaseOrderService(scope, persistence.NewGormPurchaseOrderRepository(db), zap.NewNop()),
		receipts: approc.NewGoodsReceiptService(scope, locks, persistence.NewGormGoodsReceiptRepository(db), zap.NewNop()),
		invoices: approc.NewInvoiceService(scope, invoiceRepo, procurement.DefaultMatchingConfig(), zap.NewNop()),
		payments: approc.NewPaymentService(scope, locks, persistence.NewGormSupplierPaymentRepository(db), invoiceRepo, zap.NewNop()),
		items: appinv.NewMovementService(
			persistence.NewGormInventoryTransactionScope(db),
			locks,
			persistence.NewGormItemRepository(db),
			persistence.NewGormStockLotRepository(db),
			persistence.NewGormStockMovementRepository(db),
			zap.NewNop(),
		),
		locks:      locks,
		db:         db,
		supplierID: uuid.New(),
	}

	f.widget, err = f.items.CreateItem(context.Background(), appinv.CreateItemRequest{Code: "WIDGET", Name: "Widget"})
	require.NoError(t, err)
	f.gasket, err = f.items.CreateItem(context.Background(), appinv.CreateItemRequest{Code: "GASKET", Name: "Gasket"})
	require.NoError(t, err)
	return f
}

// confirmedOrder creates and confirms a two-line order:
// 2 WIDGET @ 250 + 2 GASKET @ 150, 10% tax, total 880.
func (f *procurementFixture) confirmedOrder(t *testing.T, orderNumber string) *procurement.PurchaseOrder {
	t.Helper()
	po, err := f.orders.CreatePurchaseOrder(context.Background(), approc.CreatePurchaseOrderRequest{
		OrderNumber: orderNumber,
		SupplierID:  f.supplierID,
		TaxRate:     decimal.NewFromInt(10),
		Lines: []approc.POLineRequest{
			{ItemID: f.widget.ID, Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(250)},
			{ItemID: f.gasket.ID, Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(150)},
		},
		CreatedBy: uuid.New(),
	})
	require.NoError(t, err)
	po, err = f.orders.ConfirmPurchaseOrder(context.Background(), po.ID)
	require.NoError(t, err)
	return po
}

// receiveAll records a full receipt against every order line
func (f *procurementFixture) receiveAll(t *testing.T, po *procurement.PurchaseOrder, receiptNumber string) *procurement.GoodsReceipt {
	t.Helper()
	lines := make([]approc.ReceiptLineRequest, 0, len(po.Items))
	for _, item := range po.Items {
		lines = append(lines, approc.ReceiptLineRequest{POItemID: item.ID, QtyReceived: item.OrderedQty})
	}
	receipt, err := f.receipts.CreateGoodsReceipt(context.Background(), approc.CreateGoodsReceiptRequest{
		PurchaseOrderID: po.ID,
		ReceiptNumber:   receiptNumber,
		Lines:           lines,
		ReceivedBy:      uuid.New(),
	})
	require.NoError(t, err)
	return receipt
}

// invoiceAll invoices every order line at PO price
func (f *procurementFixture) invoiceAll(t *testing.T, po *procurement.PurchaseOrder, invoiceNumber string, taxAmount decimal.Decimal) *procurement.SupplierInvoice {
	t.Helper()
	lines := make([]approc.InvoiceLineRequest, 0, len(po.Items))
	for _, item := range po.Items {
		lines = append(lines, approc.InvoiceLineRequest{POItemID: item.ID, Quantity: item.OrderedQty, UnitPrice: item.UnitPrice})
	}
	invoice, err := f.invoices.CreateSupplierInvoice(context.Background(), approc.CreateInvoiceRequest{
		InvoiceNumber:   invoiceNumber,
		PurchaseOrderID: po.ID,
		TaxAmount:       taxAmount,
		Lines:           lines,
		CreatedBy:       uuid.New(),
	})
	require.NoError(t, err)
	return invoice
}

func TestPurchaseOrderService_Lifecycle(t *testing.T) {
	f := newProcurementFixture(t)
	ctx := context.Background()

	po := f.confirmedOrder(t, "PO-1001")
	assert.Equal(t, procurement.PurchaseOrderStatusConfirmed, po.Status)
	assert.True(t, po.Subtotal.Equal(decimal.NewFromInt(800)), "got %s", po.Subtotal)
	assert.True(t, po.TaxAmount.Equal(decimal.NewFromInt(80)))
	assert.True(t, po.Total.Equal(decimal.NewFromInt(880)))

	t.Run("duplicate order number", func(t *testing.T) {
		_, err := f.orders.CreatePurchaseOrder(ctx, approc.CreatePurchaseOrderRequest{
			OrderNumber: "PO-1001",
			SupplierID:  f.supplierID,
			Lines:       []approc.POLineRequest{{ItemID: f.widget.ID, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1)}},
		})
		require.Error(t, err)
	})

	t.Run("cancel after receipt is rejected", func(t *testing.T) {
		f.receiveAll(t, po, "GR-1001")
		_, err := f.orders.CancelPurchaseOrder(ctx, po.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestGoodsReceiptService_CreateGoodsReceipt(t *testing.T) {
	f := newProcurementFixture(t)
	ctx := context.Background()

	po := f.confirmedOrder(t, "PO-2001")
	receipt := f.receiveAll(t, po, "GR-2001")
	require.Len(t, receipt.Items, 2)

	// stock entered per accepted line
	widgetLevel, err := f.items.GetStockLevel(ctx, f.widget.ID)
	require.NoError(t, err)
	assert.True(t, widgetLevel.TotalAvailable.Equal(decimal.NewFromInt(2)))

	// inventory debited 800 against GR/IR suspense across both lines
	var balance decimal.Decimal
	row := f.db.Raw(`SELECT COALESCE(SUM(jl.debit - jl.credit), 0) FROM journal_lines jl
		JOIN journal_entries je ON je.id = jl.entry_id
		WHERE jl.account_code = ?`, ledger.AccountCodeInventory).Row()
	require.NoError(t, row.Scan(&balance))
	assert.True(t, balance.Equal(decimal.NewFromInt(800)), "got %s", balance)

	// PO rolled forward
	updated, err := f.orders.GetPurchaseOrder(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, procurement.PurchaseOrderStatusClosed, updated.Status)

	t.Run("over-receipt rejected atomically", func(t *testing.T) {
		_, err := f.receipts.CreateGoodsReceipt(ctx, approc.CreateGoodsReceiptRequest{
			PurchaseOrderID: po.ID,
			ReceiptNumber:   "GR-2002",
			Lines: []approc.ReceiptLineRequest{
				{POItemID: po.Items[0].ID, QtyReceived: decimal.NewFromInt(1)},
			},
			ReceivedBy: uuid.New(),
		})
		require.Error(t, err)

		level, levelErr := f.items.GetStockLevel(ctx, f.widget.ID)
		require.NoError(t, levelErr)
		assert.True(t, level.TotalAvailable.Equal(decimal.NewFromInt(2)), "no stock created by the failed receipt")
	})

	t.Run("rejected quantity enters no stock", func(t *testing.T) {
		po2 := f.confirmedOrder(t, "PO-2002")
		receipt, err := f.receipts.CreateGoodsReceipt(ctx, approc.CreateGoodsReceiptRequest{
			PurchaseOrderID: po2.ID,
			ReceiptNumber:   "GR-2003",
			Lines: []approc.ReceiptLineRequest{
				{POItemID: po2.Items[0].ID, QtyReceived: decimal.NewFromInt(2), QtyRejected: decimal.NewFromInt(2)},
			},
			ReceivedBy: uuid.New(),
		})
		require.NoError(t, err)
		assert.Equal(t, procurement.QualityStatusRejected, receipt.Items[0].QualityStatus)

		level, err := f.items.GetStockLevel(ctx, f.widget.ID)
		require.NoError(t, err)
		assert.True(t, level.TotalAvailable.Equal(decimal.NewFromInt(2)), "still only the first order's stock")
	})
}

func TestInvoiceService_CreateSupplierInvoice(t *testing.T) {
	f := newProcurementFixture(t)
	ctx := context.Background()

	po := f.confirmedOrder(t, "PO-3001")
	f.receiveAll(t, po, "GR-3001")

	invoice := f.invoiceAll(t, po, "SINV-1", decimal.NewFromInt(80))
	assert.True(t, invoice.Total.Equal(decimal.NewFromInt(880)), "got %s", invoice.Total)
	assert.Equal(t, procurement.MatchingStatusFullyMatched, invoice.MatchingStatus,
		"clean invoice is analyzed on creation")

	t.Run("duplicate invoice number", func(t *testing.T) {
		_, err := f.invoices.CreateSupplierInvoice(ctx, approc.CreateInvoiceRequest{
			InvoiceNumber:   "SINV-1",
			PurchaseOrderID: po.ID,
			Lines:           []approc.InvoiceLineRequest{{POItemID: po.Items[0].ID, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(250)}},
		})
		assert.ErrorIs(t, err, shared.ErrDuplicateInvoiceNumber)
	})

	t.Run("over-invoicing received quantity", func(t *testing.T) {
		_, err := f.invoices.CreateSupplierInvoice(ctx, approc.CreateInvoiceRequest{
			InvoiceNumber:   "SINV-2",
			PurchaseOrderID: po.ID,
			Lines:           []approc.InvoiceLineRequest{{POItemID: po.Items[0].ID, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(250)}},
		})
		assert.ErrorIs(t, err, shared.ErrOverInvoiced, "line already fully invoiced by SINV-1")
	})
}

func TestInvoiceService_Matching(t *testing.T) {
	f := newProcurementFixture(t)
	ctx := context.Background()

	t.Run("price variance within tolerance passes", func(t *testing.T) {
		po := f.confirmedOrder(t, "PO-4001")
		f.receiveAll(t, po, "GR-4001")

		// 4% above PO price on one line
		invoice, err := f.invoices.CreateSupplierInvoice(ctx, approc.CreateInvoiceRequest{
			InvoiceNumber:   "SINV-10",
			PurchaseOrderID: po.ID,
			Lines: []approc.InvoiceLineRequest{
				{POItemID: po.Items[0].ID, Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(260)},
			},
			CreatedBy: uuid.New(),
		})
		require.NoError(t, err)
		assert.Equal(t, procurement.MatchingStatusFullyMatched, invoice.MatchingStatus)
	})

	t.Run("medium price variance requires approval", func(t *testing.T) {
		po := f.confirmedOrder(t, "PO-4002")
		f.receiveAll(t, po, "GR-4002")

		// 10% above PO price
		invoice, err := f.invoices.CreateSupplierInvoice(ctx, approc.CreateInvoiceRequest{
			InvoiceNumber:   "SINV-11",
			PurchaseOrderID: po.ID,
			Lines: []approc.InvoiceLineRequest{
				{POItemID: po.Items[0].ID, Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(275)},
			},
			CreatedBy: uuid.New(),
		})
		require.NoError(t, err)
		assert.Equal(t, procurement.MatchingStatusDiscrepant, invoice.MatchingStatus)

		result, err := f.invoices.AnalyzeThreeWayMatching(ctx, po.ID)
		require.NoError(t, err)
		var price *procurement.MatchingDiscrepancy
		for i := range result.Discrepancies {
			if result.Discrepancies[i].Type == procurement.DiscrepancyPriceVariance {
				price = &result.Discrepancies[i]
			}
		}
		require.NotNil(t, price)
		assert.Equal(t, procurement.SeverityMedium, price.Severity)
		assert.True(t, price.RequiresApproval)
	})

	t.Run("high price variance and approval flow", func(t *testing.T) {
		po := f.confirmedOrder(t, "PO-4003")
		f.receiveAll(t, po, "GR-4003")

		// 30% above PO price
		invoice, err := f.invoices.CreateSupplierInvoice(ctx, approc.CreateInvoiceRequest{
			InvoiceNumber:   "SINV-12",
			PurchaseOrderID: po.ID,
			Lines: []approc.InvoiceLineRequest{
				{POItemID: po.Items[0].ID, Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(325)},
			},
			CreatedBy: uuid.New(),
		})
		require.NoError(t, err)
		require.Equal(t, procurement.MatchingStatusDiscrepant, invoice.MatchingStatus)

		result, err := f.invoices.AnalyzeThreeWayMatching(ctx, po.ID)
		require.NoError(t, err)
		require.NotEmpty(t, result.Discrepancies)
		assert.Equal(t, procurement.SeverityHigh, result.Discrepancies[len(result.Discrepancies)-1].Severity)

		// reason is mandatory
		_, err = f.invoices.ApproveMatching(ctx, invoice.ID, approc.ApproveMatchingRequest{ApprovedBy: uuid.New()})
		require.Error(t, err)

		approved, err := f.invoices.ApproveMatching(ctx, invoice.ID, approc.ApproveMatchingRequest{
			Reason:     "negotiated surcharge accepted",
			ApprovedBy: uuid.New(),
		})
		require.NoError(t, err)
		assert.Equal(t, procurement.MatchingStatusApprovedWithVariance, approved.MatchingStatus)

		// re-analysis does not overwrite the manual decision
		_, err = f.invoices.AnalyzeThreeWayMatching(ctx, po.ID)
		require.NoError(t, err)
		reloaded, err := f.invoices.GetInvoice(ctx, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, procurement.MatchingStatusApprovedWithVariance, reloaded.MatchingStatus)

		// approved-with-variance posts fine
		posted, err := f.invoices.PostSupplierInvoice(ctx, invoice.ID, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, procurement.InvoiceStatusPosted, posted.Status)
	})
}

func TestInvoiceService_PostSupplierInvoice(t *testing.T) {
	f := newProcurementFixture(t)
	ctx := context.Background()

	po := f.confirmedOrder(t, "PO-5001")
	f.receiveAll(t, po, "GR-5001")
	invoice := f.invoiceAll(t, po, "SINV-20", decimal.NewFromInt(80))

	posted, err := f.invoices.PostSupplierInvoice(ctx, invoice.ID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, procurement.InvoiceStatusPosted, posted.Status)
	require.NotNil(t, posted.JournalEntryID)

	var entry ledger.JournalEntry
	require.NoError(t, f.db.Preload("Lines").First(&entry, "id = ?", posted.JournalEntryID).Error)
	assert.Equal(t, "INV-SINV-20", entry.Reference)
	byCode := map[string]ledger.JournalLine{}
	for _, line := range entry.Lines {
		byCode[line.AccountCode] = line
	}
	assert.True(t, byCode[ledger.AccountCodeGRIRClearing].Debit.Equal(decimal.NewFromInt(880)))
	assert.True(t, byCode[ledger.AccountCodePayable].Credit.Equal(decimal.NewFromInt(880)))

	t.Run("double post rejected", func(t *testing.T) {
		_, err := f.invoices.PostSupplierInvoice(ctx, invoice.ID, uuid.New())
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("rejected invoice can never post", func(t *testing.T) {
		po2 := f.confirmedOrder(t, "PO-5002")
		f.receiveAll(t, po2, "GR-5002")
		bad := f.invoiceAll(t, po2, "SINV-21", decimal.Zero)

		rejected, err := f.invoices.RejectMatching(ctx, bad.ID, approc.RejectMatchingRequest{
			Reason:          "supplier must reissue with corrected terms",
			RequiredActions: "credit note requested",
			RejectedBy:      uuid.New(),
		})
		require.NoError(t, err)
		assert.Equal(t, procurement.MatchingStatusRejected, rejected.MatchingStatus)

		_, err = f.invoices.PostSupplierInvoice(ctx, bad.ID, uuid.New())
		assert.ErrorIs(t, err, shared.ErrCannotPostRejectedInvoice)

		reloaded, err := f.invoices.GetInvoice(ctx, bad.ID)
		require.NoError(t, err)
		assert.Nil(t, reloaded.JournalEntryID)
	})
}

func TestPaymentService_CreateSupplierPayment(t *testing.T) {
	f := newProcurementFixture(t)
	ctx := context.Background()

	po := f.confirmedOrder(t, "PO-6001")
	f.receiveAll(t, po, "GR-6001")
	invoice := f.invoiceAll(t, po, "SINV-30", decimal.NewFromInt(80))
	_, err := f.invoices.PostSupplierInvoice(ctx, invoice.ID, uuid.New())
	require.NoError(t, err)

	t.Run("overpayment rejected", func(t *testing.T) {
		_, err := f.payments.CreateSupplierPayment(ctx, approc.CreatePaymentRequest{
			SupplierID: f.supplierID,
			InvoiceID:  &invoice.ID,
			Amount:     decimal.NewFromInt(881),
			Method:     procurement.PaymentMethodBankTransfer.String(),
		})
		assert.ErrorIs(t, err, shared.ErrOverpaymentNotAllowed)
	})

	t.Run("partial then final payment", func(t *testing.T) {
		payment, err := f.payments.CreateSupplierPayment(ctx, approc.CreatePaymentRequest{
			SupplierID: f.supplierID,
			InvoiceID:  &invoice.ID,
			Amount:     decimal.NewFromInt(500),
			Method:     procurement.PaymentMethodBankTransfer.String(),
			Reference:  "WIRE-9001",
		})
		require.NoError(t, err)
		require.NotNil(t, payment.JournalEntryID)
		require.Len(t, payment.Allocations, 1)

		mid, err := f.invoices.GetInvoice(ctx, invoice.ID)
		require.NoError(t, err)
		assert.True(t, mid.BalanceAmount.Equal(decimal.NewFromInt(380)))
		assert.Equal(t, procurement.InvoiceStatusPosted, mid.Status)

		balance, err := f.payments.GetSupplierBalance(ctx, f.supplierID)
		require.NoError(t, err)
		assert.True(t, balance.TotalOutstanding.Equal(decimal.NewFromInt(380)))
		assert.True(t, balance.TotalPaid.Equal(decimal.NewFromInt(500)))
		assert.Equal(t, int64(1), balance.OpenInvoiceCount)

		_, err = f.payments.CreateSupplierPayment(ctx, approc.CreatePaymentRequest{
			SupplierID: f.supplierID,
			InvoiceID:  &invoice.ID,
			Amount:     decimal.NewFromInt(380),
			Method:     procurement.PaymentMethodBankTransfer.String(),
		})
		require.NoError(t, err)

		final, err := f.invoices.GetInvoice(ctx, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, procurement.InvoiceStatusPaid, final.Status)
		assert.True(t, final.BalanceAmount.IsZero())

		balance, err = f.payments.GetSupplierBalance(ctx, f.supplierID)
		require.NoError(t, err)
		assert.True(t, balance.TotalOutstanding.IsZero())
		assert.Equal(t, int64(0), balance.OpenInvoiceCount)
	})

	t.Run("wrong supplier allocation rejected", func(t *testing.T) {
		_, err := f.payments.CreateSupplierPayment(ctx, approc.CreatePaymentRequest{
			SupplierID: uuid.New(),
			InvoiceID:  &invoice.ID,
			Amount:     decimal.NewFromInt(10),
			Method:     procurement.PaymentMethodCash.String(),
		})
		require.Error(t, err)
	})

	t.Run("unallocated payment posts cash entry", func(t *testing.T) {
		payment, err := f.payments.CreateSupplierPayment(ctx, approc.CreatePaymentRequest{
			SupplierID: f.supplierID,
			Amount:     decimal.NewFromInt(100),
			Method:     procurement.PaymentMethodCheck.String(),
		})
		require.NoError(t, err)
		require.NotNil(t, payment.JournalEntryID)
		assert.Empty(t, payment.Allocations)
		assert.True(t, payment.UnallocatedAmount().Equal(decimal.NewFromInt(100)))
	})

	t.Run("unknown payment method", func(t *testing.T) {
		_, err := f.payments.CreateSupplierPayment(ctx, approc.CreatePaymentRequest{
			SupplierID: f.supplierID,
			Amount:     decimal.NewFromInt(10),
			Method:     "BARTER",
		})
		require.Error(t, err)
	})
}
