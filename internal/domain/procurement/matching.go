package procurement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared/valueobject"
)

// MatchingStatus is the three-way matching state of a supplier invoice
type MatchingStatus string

const (
	MatchingStatusPending              MatchingStatus = "PENDING"
	MatchingStatusFullyMatched        MatchingStatus = "FULLY_MATCHED"
	MatchingStatusDiscrepant          MatchingStatus = "DISCREPANT"
	MatchingStatusApprovedWithVariance MatchingStatus = "APPROVED_WITH_VARIANCE"
	MatchingStatusRejected            MatchingStatus = "REJECTED"
)

// IsValid checks if the matching status is valid
func (s MatchingStatus) IsValid() bool {
	switch s {
	case MatchingStatusPending, MatchingStatusFullyMatched, MatchingStatusDiscrepant,
		MatchingStatusApprovedWithVariance, MatchingStatusRejected:
		return true
	}
	return false
}

// String returns the string representation
func (s MatchingStatus) String() string {
	return string(s)
}

// DiscrepancyType is the closed set of mismatch kinds the matcher emits
type DiscrepancyType string

const (
	DiscrepancyPriceVariance     DiscrepancyType = "PRICE_VARIANCE"
	DiscrepancyQuantityOverMatch DiscrepancyType = "QUANTITY_OVER_MATCH"
	DiscrepancyQuantityUnderMatch DiscrepancyType = "QUANTITY_UNDER_MATCH"
	DiscrepancyMissingDocument   DiscrepancyType = "MISSING_DOCUMENT"
)

// String returns the string representation
func (t DiscrepancyType) String() string {
	return string(t)
}

// Severity grades a discrepancy
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// String returns the string representation
func (s Severity) String() string {
	return string(s)
}

// MatchingConfig carries the tolerance bands the matcher applies. The
// thresholds are policy, not law: they come from configuration.
type MatchingConfig struct {
	// TolerancePct is the price variance percentage below which no
	// discrepancy is raised. At or above it, approval is required.
	TolerancePct decimal.Decimal
	// HighVariancePct is the price variance percentage above which the
	// discrepancy is graded HIGH instead of MEDIUM.
	HighVariancePct decimal.Decimal
	// MissingInvoiceGrace is how long after a goods receipt the matcher
	// waits before flagging the absent invoice.
	MissingInvoiceGrace time.Duration
}

// DefaultMatchingConfig returns the stock tolerance bands: 5% tolerance,
// 25% high-severity cutoff, 7 days invoice grace.
func DefaultMatchingConfig() MatchingConfig {
	return MatchingConfig{
		TolerancePct:        decimal.NewFromInt(5),
		HighVariancePct:     decimal.NewFromInt(25),
		MissingInvoiceGrace: 7 * 24 * time.Hour,
	}
}

// MatchingDiscrepancy is one detected mismatch between the purchase
// order, its receipts, and its invoices.
type MatchingDiscrepancy struct {
	Type             DiscrepancyType `json:"type"`
	POItemID         uuid.UUID       `json:"poItemId"`
	ItemCode         string          `json:"itemCode"`
	Expected         decimal.Decimal `json:"expected"`
	Actual           decimal.Decimal `json:"actual"`
	VarianceAmount   decimal.Decimal `json:"varianceAmount"`
	VariancePct      decimal.Decimal `json:"variancePct"`
	Severity         Severity        `json:"severity"`
	RequiresApproval bool            `json:"requiresApproval"`
	Detail           string          `json:"detail"`
}

// MatchingResult is the outcome of analyzing one purchase order
type MatchingResult struct {
	PurchaseOrderID uuid.UUID             `json:"purchaseOrderId"`
	Status          MatchingStatus        `json:"status"`
	Discrepancies   []MatchingDiscrepancy `json:"discrepancies"`
	AnalyzedAt      time.Time             `json:"analyzedAt"`
}

// RequiresApproval reports whether any discrepancy blocks posting
func (r *MatchingResult) RequiresApproval() bool {
	for _, d := range r.Discrepancies {
		if d.RequiresApproval {
			return true
		}
	}
	return false
}

// AnalyzeMatching runs the three-way comparison for one purchase order
// against all of its goods receipts and supplier invoices.
//
// Per PO line: the received quantity is the accepted sum across
// receipts, the invoiced quantity is the sum across invoice lines.
// Over-invoicing and under-invoicing raise quantity discrepancies;
// each invoice line's unit price is compared to the PO price with the
// configured tolerance bands; receipts past the grace period with no
// invoice at all raise an informational MISSING_DOCUMENT.
func AnalyzeMatching(po *PurchaseOrder, receipts []GoodsReceipt, invoices []SupplierInvoice, cfg MatchingConfig, now time.Time) *MatchingResult {
	result := &MatchingResult{
		PurchaseOrderID: po.ID,
		Discrepancies:   make([]MatchingDiscrepancy, 0),
		AnalyzedAt:      now,
	}

	receivedByPOItem := make(map[uuid.UUID]decimal.Decimal)
	oldestReceipt := make(map[uuid.UUID]time.Time)
	for _, receipt := range receipts {
		for _, line := range receipt.Items {
			receivedByPOItem[line.POItemID] = receivedByPOItem[line.POItemID].Add(line.AcceptedQty())
			if prev, ok := oldestReceipt[line.POItemID]; !ok || receipt.ReceivedDate.Before(prev) {
				oldestReceipt[line.POItemID] = receipt.ReceivedDate
			}
		}
	}

	// Rejected invoices no longer participate in quantity aggregation;
	// their variances were already adjudicated.
	invoicedByPOItem := make(map[uuid.UUID]decimal.Decimal)
	type pricedLine struct {
		poItemID  uuid.UUID
		unitPrice decimal.Decimal
	}
	var pricedLines []pricedLine
	anyInvoice := false
	for _, invoice := range invoices {
		if invoice.MatchingStatus == MatchingStatusRejected {
			continue
		}
		anyInvoice = true
		for _, line := range invoice.Items {
			invoicedByPOItem[line.POItemID] = invoicedByPOItem[line.POItemID].Add(line.Quantity)
			pricedLines = append(pricedLines, pricedLine{poItemID: line.POItemID, unitPrice: line.UnitPrice})
		}
	}

	hundred := decimal.NewFromInt(100)
	for i := range po.Items {
		poLine := &po.Items[i]
		received := receivedByPOItem[poLine.ID]
		invoiced := invoicedByPOItem[poLine.ID]

		itemInvoiced := !invoiced.IsZero()
		switch {
		case invoiced.GreaterThan(received):
			result.Discrepancies = append(result.Discrepancies, MatchingDiscrepancy{
				Type:             DiscrepancyQuantityOverMatch,
				POItemID:         poLine.ID,
				ItemCode:         poLine.ItemCode,
				Expected:         received,
				Actual:           invoiced,
				VarianceAmount:   invoiced.Sub(received).Mul(poLine.UnitPrice).Round(valueobject.MoneyScale),
				VariancePct:      variancePct(invoiced, received, hundred),
				Severity:         SeverityHigh,
				RequiresApproval: true,
				Detail:           "Invoiced quantity exceeds received quantity",
			})
		case itemInvoiced && invoiced.LessThan(received):
			result.Discrepancies = append(result.Discrepancies, MatchingDiscrepancy{
				Type:             DiscrepancyQuantityUnderMatch,
				POItemID:         poLine.ID,
				ItemCode:         poLine.ItemCode,
				Expected:         received,
				Actual:           invoiced,
				VarianceAmount:   received.Sub(invoiced).Mul(poLine.UnitPrice).Round(valueobject.MoneyScale),
				VariancePct:      variancePct(invoiced, received, hundred),
				Severity:         SeverityLow,
				RequiresApproval: false,
				Detail:           "Invoiced quantity is less than received quantity",
			})
		}

		// Price check per invoice line against the PO price
		for _, priced := range pricedLines {
			if priced.poItemID != poLine.ID || poLine.UnitPrice.IsZero() {
				continue
			}
			pct := priced.unitPrice.Sub(poLine.UnitPrice).Abs().
				Div(poLine.UnitPrice).Mul(hundred)
			if pct.LessThan(cfg.TolerancePct) {
				continue // within tolerance
			}
			severity := SeverityMedium
			if pct.GreaterThan(cfg.HighVariancePct) {
				severity = SeverityHigh
			}
			result.Discrepancies = append(result.Discrepancies, MatchingDiscrepancy{
				Type:             DiscrepancyPriceVariance,
				POItemID:         poLine.ID,
				ItemCode:         poLine.ItemCode,
				Expected:         poLine.UnitPrice,
				Actual:           priced.unitPrice,
				VarianceAmount:   priced.unitPrice.Sub(poLine.UnitPrice).Abs().Round(valueobject.MoneyScale),
				VariancePct:      pct.Round(valueobject.MoneyScale),
				Severity:         severity,
				RequiresApproval: true,
				Detail:           "Invoice unit price deviates from purchase order price",
			})
		}

		// Receipts with no invoice at all, past the grace period:
		// informational, never blocks.
		if received.IsPositive() && !itemInvoiced {
			if receivedAt, ok := oldestReceipt[poLine.ID]; ok && now.Sub(receivedAt) > cfg.MissingInvoiceGrace {
				result.Discrepancies = append(result.Discrepancies, MatchingDiscrepancy{
					Type:             DiscrepancyMissingDocument,
					POItemID:         poLine.ID,
					ItemCode:         poLine.ItemCode,
					Expected:         received,
					Actual:           decimal.Zero,
					VarianceAmount:   received.Mul(poLine.UnitPrice).Round(valueobject.MoneyScale),
					VariancePct:      hundred,
					Severity:         SeverityLow,
					RequiresApproval: false,
					Detail:           "Goods received but no supplier invoice after grace period",
				})
			}
		}
	}

	switch {
	case !anyInvoice:
		result.Status = MatchingStatusPending
	case result.RequiresApproval():
		result.Status = MatchingStatusDiscrepant
	default:
		result.Status = MatchingStatusFullyMatched
	}
	return result
}

// variancePct computes |actual-expected|/expected*100, zero when the
// expected side is zero.
func variancePct(actual, expected, hundred decimal.Decimal) decimal.Decimal {
	if expected.IsZero() {
		return hundred
	}
	return actual.Sub(expected).Abs().Div(expected).Mul(hundred).Round(valueobject.MoneyScale)
}
