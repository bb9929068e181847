package rules

import (
	"fmt"
	"strings"

	"auditor/internal/core/invoice"

	"github.com/shopspring/decimal"
)

// MaxAmount caps the invoice total. A policy limit in the context
// replaces the rule's own limit entirely, even when it is lower
type MaxAmount struct {
	base
	max decimal.Decimal
}

// NewMaxAmount builds the total cap. A zero max selects the default of
// 5000
func NewMaxAmount(max decimal.Decimal, opts ...Option) *MaxAmount {
	if max.IsZero() {
		max = decimal.NewFromInt(5000)
	}
	return &MaxAmount{
		base: newBase("max_amount", "Invoice total should not exceed maximum amount", SeverityHigh, opts...),
		max:  max,
	}
}

func (r *MaxAmount) Type() string { return TypeMaxAmount }

func (r *MaxAmount) Check(inv invoice.Invoice, rctx Context) Result {
	limit := r.max
	if rctx.Policy != nil && rctx.Policy.MaxAmount != nil {
		limit = *rctx.Policy.MaxAmount
	}

	if inv.Total.GreaterThan(limit) {
		return r.fail(fmt.Sprintf("Invoice total (%s) exceeds maximum allowed amount (%s)",
			money(inv.Total), money(limit)))
	}
	return r.pass(fmt.Sprintf("Invoice total (%s) is within allowed limit", money(inv.Total)))
}

func (r *MaxAmount) Spec() Spec {
	max := r.max.InexactFloat64()
	return Spec{
		Type:        r.Type(),
		RuleID:      r.id,
		Description: r.desc,
		Severity:    r.sev,
		MaxAmount:   &max,
	}
}

// AllowedCategories verifies every categorized line item falls in an
// allow list. Comparison is case-insensitive; uncategorized items are
// ignored
type AllowedCategories struct {
	base
	allowed []string
}

func NewAllowedCategories(allowed []string, opts ...Option) *AllowedCategories {
	return &AllowedCategories{
		base:    newBase("allowed_categories", "Line items should have allowed categories", SeverityMedium, opts...),
		allowed: append([]string(nil), allowed...),
	}
}

func (r *AllowedCategories) Type() string { return TypeAllowedCategories }

func (r *AllowedCategories) Check(inv invoice.Invoice, rctx Context) Result {
	if len(inv.LineItems) == 0 {
		return r.pass("No line items to check")
	}

	allowed := r.allowed
	if rctx.Policy != nil && rctx.Policy.AllowedCategories != nil {
		allowed = rctx.Policy.AllowedCategories
	}
	set := make(map[string]struct{}, len(allowed))
	for _, c := range allowed {
		set[strings.ToLower(c)] = struct{}{}
	}

	var unauthorized []string
	seen := make(map[string]struct{})
	for _, li := range inv.LineItems {
		cat := strings.ToLower(li.Category)
		if cat == "" {
			continue
		}
		if _, ok := set[cat]; ok {
			continue
		}
		if _, dup := seen[cat]; dup {
			continue
		}
		seen[cat] = struct{}{}
		unauthorized = append(unauthorized, cat)
	}

	if len(unauthorized) > 0 {
		return r.fail("Invoice contains unauthorized categories: " + strings.Join(unauthorized, ", "))
	}
	return r.pass("All line item categories are allowed")
}

func (r *AllowedCategories) Spec() Spec {
	return Spec{
		Type:              r.Type(),
		RuleID:            r.id,
		Description:       r.desc,
		Severity:          r.sev,
		AllowedCategories: append([]string(nil), r.allowed...),
	}
}

// MaxItemPrice caps line item unit prices per category. Items in
// categories without a cap pass
type MaxItemPrice struct {
	base
	maxPrices map[string]decimal.Decimal
}

func NewMaxItemPrice(maxPrices map[string]decimal.Decimal, opts ...Option) *MaxItemPrice {
	cp := make(map[string]decimal.Decimal, len(maxPrices))
	for k, v := range maxPrices {
		cp[strings.ToLower(k)] = v
	}
	return &MaxItemPrice{
		base:      newBase("max_item_price", "Line items should not exceed maximum price for their category", SeverityMedium, opts...),
		maxPrices: cp,
	}
}

func (r *MaxItemPrice) Type() string { return TypeMaxItemPrice }

func (r *MaxItemPrice) Check(inv invoice.Invoice, rctx Context) Result {
	if len(inv.LineItems) == 0 {
		return r.pass("No line items to check")
	}

	maxPrices := r.maxPrices
	if rctx.Policy != nil && rctx.Policy.MaxItemPrices != nil {
		maxPrices = make(map[string]decimal.Decimal, len(rctx.Policy.MaxItemPrices))
		for k, v := range rctx.Policy.MaxItemPrices {
			maxPrices[strings.ToLower(k)] = v
		}
	}

	var violations []string
	for _, li := range inv.LineItems {
		cat := strings.ToLower(li.Category)
		limit, ok := maxPrices[cat]
		if !ok || !li.UnitPrice.GreaterThan(limit) {
			continue
		}
		desc := li.Description
		if desc == "" {
			desc = "Unknown"
		}
		violations = append(violations, fmt.Sprintf("%s (%s > %s)", desc, money(li.UnitPrice), money(limit)))
	}

	if len(violations) > 0 {
		return r.fail("Line items exceed maximum price for their category: " + strings.Join(violations, ", "))
	}
	return r.pass("All line items are within price limits for their categories")
}

func (r *MaxItemPrice) Spec() Spec {
	prices := make(map[string]float64, len(r.maxPrices))
	for k, v := range r.maxPrices {
		prices[k] = v.InexactFloat64()
	}
	return Spec{
		Type:          r.Type(),
		RuleID:        r.id,
		Description:   r.desc,
		Severity:      r.sev,
		MaxItemPrices: prices,
	}
}
