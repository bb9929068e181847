package engine

import (
	"auditor/internal/core/rules"

	"github.com/shopspring/decimal"
)

// DefaultRuleSets returns the four canned rule sets composed from the
// built-in rules with their default parameters
func DefaultRuleSets() []*rules.Set {
	zero := decimal.Decimal{}
	return []*rules.Set{
		rules.NewSet("basic_validation", "Basic invoice validation rules",
			rules.NewRequiredFields(nil),
			rules.NewDateValidity(0, 0),
			rules.NewTotalMatchesCalculation(zero),
		),
		rules.NewSet("calculation_verification", "Rules for verifying invoice calculations",
			rules.NewTotalMatchesCalculation(zero),
			rules.NewLineItemsSum(zero),
		),
		rules.NewSet("policy_compliance", "Rules for checking policy compliance",
			rules.NewMaxAmount(zero),
			rules.NewAllowedCategories(nil),
			rules.NewMaxItemPrice(nil),
		),
		rules.NewSet("comprehensive_audit", "Comprehensive invoice audit rules",
			rules.NewRequiredFields(nil),
			rules.NewDateValidity(0, 0),
			rules.NewTotalMatchesCalculation(zero),
			rules.NewLineItemsSum(zero),
			rules.NewMaxAmount(zero),
			rules.NewAllowedCategories(nil),
			rules.NewMaxItemPrice(nil),
		),
	}
}

// WithDefaults registers the canned rule sets on a fresh engine
func WithDefaults(cfg Config) *Engine {
	e := New(cfg)
	for _, s := range DefaultRuleSets() {
		e.AddRuleSet(s)
	}
	return e
}
