package rules

import (
	"sort"
	"sync"

	perr "auditor/internal/platform/errors"

	"github.com/shopspring/decimal"
)

// Type tags for the built-in rules. A serialized rule set refers to
// rules by these strings
const (
	TypeTotalMatchesCalculation = "total_matches_calculation"
	TypeLineItemsSum            = "line_items_sum"
	TypeDateValidity            = "date_validity"
	TypeRequiredFields          = "required_fields"
	TypeMaxAmount               = "max_amount"
	TypeAllowedCategories       = "allowed_categories"
	TypeMaxItemPrice            = "max_item_price"
	TypeCustom                  = "custom"
)

// Spec is the declarative form of a rule: the type tag, identity
// fields, and the union of every type-specific parameter. JSON and
// YAML share the same field names
type Spec struct {
	Type        string   `json:"type" yaml:"type"`
	RuleID      string   `json:"rule_id,omitempty" yaml:"rule_id,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Severity    Severity `json:"severity,omitempty" yaml:"severity,omitempty"`

	Tolerance         *float64           `json:"tolerance,omitempty" yaml:"tolerance,omitempty"`
	MaxAgeDays        *int               `json:"max_age_days,omitempty" yaml:"max_age_days,omitempty"`
	AllowFutureDays   *int               `json:"allow_future_days,omitempty" yaml:"allow_future_days,omitempty"`
	RequiredFields    []string           `json:"required_fields,omitempty" yaml:"required_fields,omitempty"`
	MaxAmount         *float64           `json:"max_amount,omitempty" yaml:"max_amount,omitempty"`
	AllowedCategories []string           `json:"allowed_categories,omitempty" yaml:"allowed_categories,omitempty"`
	MaxItemPrices     map[string]float64 `json:"max_item_prices,omitempty" yaml:"max_item_prices,omitempty"`
}

// identity applies the spec's id/description/severity overrides on top
// of the factory's defaults
func (s Spec) identity() []Option {
	var opts []Option
	if s.RuleID != "" {
		opts = append(opts, WithID(s.RuleID))
	}
	if s.Description != "" {
		opts = append(opts, WithDescription(s.Description))
	}
	if s.Severity != "" {
		opts = append(opts, WithSeverity(s.Severity))
	}
	return opts
}

// Factory rebuilds a rule from its declarative form
type Factory func(Spec) (Rule, error)

var registry = struct {
	sync.RWMutex
	m map[string]Factory
}{m: map[string]Factory{
	TypeTotalMatchesCalculation: func(s Spec) (Rule, error) {
		return NewTotalMatchesCalculation(decimalParam(s.Tolerance), s.identity()...), nil
	},
	TypeLineItemsSum: func(s Spec) (Rule, error) {
		return NewLineItemsSum(decimalParam(s.Tolerance), s.identity()...), nil
	},
	TypeDateValidity: func(s Spec) (Rule, error) {
		return NewDateValidity(intParam(s.MaxAgeDays), intParam(s.AllowFutureDays), s.identity()...), nil
	},
	TypeRequiredFields: func(s Spec) (Rule, error) {
		return NewRequiredFields(s.RequiredFields, s.identity()...), nil
	},
	TypeMaxAmount: func(s Spec) (Rule, error) {
		return NewMaxAmount(decimalParam(s.MaxAmount), s.identity()...), nil
	},
	TypeAllowedCategories: func(s Spec) (Rule, error) {
		return NewAllowedCategories(s.AllowedCategories, s.identity()...), nil
	},
	TypeMaxItemPrice: func(s Spec) (Rule, error) {
		prices := make(map[string]decimal.Decimal, len(s.MaxItemPrices))
		for k, v := range s.MaxItemPrices {
			prices[k] = decimal.NewFromFloat(v)
		}
		return NewMaxItemPrice(prices, s.identity()...), nil
	},
}}

func decimalParam(p *float64) decimal.Decimal {
	if p == nil {
		return decimal.Decimal{}
	}
	return decimal.NewFromFloat(*p)
}

func intParam(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// Register adds a factory for a new rule type. Re-registering a tag
// replaces the previous factory
func Register(typeTag string, f Factory) {
	registry.Lock()
	defer registry.Unlock()
	registry.m[typeTag] = f
}

// FromSpec rebuilds a rule from its declarative form. Unregistered
// type tags are an error, never a silent drop
func FromSpec(s Spec) (Rule, error) {
	if s.Type == "" {
		return nil, perr.Schemaf("rule spec has no type")
	}
	registry.RLock()
	f, ok := registry.m[s.Type]
	registry.RUnlock()
	if !ok {
		return nil, perr.UnknownRuleTypef("unknown rule type %q", s.Type)
	}
	if s.Severity != "" && !s.Severity.Valid() {
		return nil, perr.Schemaf("rule %q: invalid severity %q", s.Type, s.Severity)
	}
	return f(s)
}

// Types lists every registered type tag, sorted
func Types() []string {
	registry.RLock()
	defer registry.RUnlock()
	out := make([]string, 0, len(registry.m))
	for k := range registry.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
