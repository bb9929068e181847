package rules

import (
	"fmt"

	"auditor/internal/core/invoice"

	"github.com/shopspring/decimal"
)

var defaultTolerance = decimal.NewFromFloat(0.01)

// TotalMatchesCalculation cross-checks total against subtotal + tax
type TotalMatchesCalculation struct {
	base
	tolerance decimal.Decimal
}

// NewTotalMatchesCalculation builds the total cross-check. A zero
// tolerance selects the default of 0.01
func NewTotalMatchesCalculation(tolerance decimal.Decimal, opts ...Option) *TotalMatchesCalculation {
	if tolerance.IsZero() {
		tolerance = defaultTolerance
	}
	return &TotalMatchesCalculation{
		base:      newBase("total_matches_calculation", "Invoice total should match subtotal + tax", SeverityMedium, opts...),
		tolerance: tolerance,
	}
}

func (r *TotalMatchesCalculation) Type() string { return TypeTotalMatchesCalculation }

func (r *TotalMatchesCalculation) Check(inv invoice.Invoice, _ Context) Result {
	// Extraction regularly misses one of the amounts; that is not a
	// calculation error
	if inv.Subtotal.IsZero() || inv.Total.IsZero() {
		return r.pass("Skipped check due to missing values")
	}

	expected := inv.Subtotal.Add(inv.Tax)
	if expected.Sub(inv.Total).Abs().LessThanOrEqual(r.tolerance) {
		return r.pass(fmt.Sprintf("Total (%s) matches subtotal (%s) + tax (%s)",
			money(inv.Total), money(inv.Subtotal), money(inv.Tax)))
	}
	return r.fail(fmt.Sprintf("Total (%s) doesn't match subtotal (%s) + tax (%s) = %s",
		money(inv.Total), money(inv.Subtotal), money(inv.Tax), money(expected)))
}

func (r *TotalMatchesCalculation) Spec() Spec {
	tol := r.tolerance.InexactFloat64()
	return Spec{
		Type:        r.Type(),
		RuleID:      r.id,
		Description: r.desc,
		Severity:    r.sev,
		Tolerance:   &tol,
	}
}

// LineItemsSum cross-checks the line item amounts against subtotal
type LineItemsSum struct {
	base
	tolerance decimal.Decimal
}

// NewLineItemsSum builds the line item cross-check. A zero tolerance
// selects the default of 0.01
func NewLineItemsSum(tolerance decimal.Decimal, opts ...Option) *LineItemsSum {
	if tolerance.IsZero() {
		tolerance = defaultTolerance
	}
	return &LineItemsSum{
		base:      newBase("line_items_sum", "Line items should sum to subtotal", SeverityMedium, opts...),
		tolerance: tolerance,
	}
}

func (r *LineItemsSum) Type() string { return TypeLineItemsSum }

func (r *LineItemsSum) Check(inv invoice.Invoice, _ Context) Result {
	if len(inv.LineItems) == 0 || inv.Subtotal.IsZero() {
		return r.pass("Skipped check due to missing values")
	}

	sum := inv.LineSum()
	if sum.Sub(inv.Subtotal).Abs().LessThanOrEqual(r.tolerance) {
		return r.pass(fmt.Sprintf("Line items sum (%s) matches subtotal (%s)",
			money(sum), money(inv.Subtotal)))
	}
	return r.fail(fmt.Sprintf("Line items sum (%s) doesn't match subtotal (%s)",
		money(sum), money(inv.Subtotal)))
}

func (r *LineItemsSum) Spec() Spec {
	tol := r.tolerance.InexactFloat64()
	return Spec{
		Type:        r.Type(),
		RuleID:      r.id,
		Description: r.desc,
		Severity:    r.sev,
		Tolerance:   &tol,
	}
}
