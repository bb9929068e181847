// Package rules implements the rule-based audit layer: single rules,
// named rule sets, and a registry so serialized sets can be rebuilt
// without the loader knowing concrete types.
package rules

import (
	"time"

	"auditor/internal/core/invoice"

	"github.com/shopspring/decimal"
)

// now is swapped in tests
var now = time.Now

// Severity tags how bad a failed check is
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Valid reports whether s is one of the three known levels
func (s Severity) Valid() bool {
	return s == SeverityLow || s == SeverityMedium || s == SeverityHigh
}

// Result is the outcome of one rule check against one invoice
type Result struct {
	RuleID   string   `json:"rule_id"`
	Passed   bool     `json:"passed"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Policy carries org-level limits that override a rule's own defaults
// when present
type Policy struct {
	MaxAmount         *decimal.Decimal
	AllowedCategories []string
	MaxItemPrices     map[string]decimal.Decimal
}

// Context travels with every check. Extra is opaque to the built-in
// rules and exists for custom rules
type Context struct {
	Policy *Policy
	Extra  map[string]any
}

// Rule is one unit of verification. Checks are pure: a rule never
// mutates the invoice and never aborts the set it runs in
type Rule interface {
	ID() string
	Description() string
	Severity() Severity
	Type() string
	Check(inv invoice.Invoice, rctx Context) Result

	// Spec returns the declarative form used for serialization
	Spec() Spec
}

type base struct {
	id   string
	desc string
	sev  Severity
}

func (b base) ID() string          { return b.id }
func (b base) Description() string { return b.desc }
func (b base) Severity() Severity  { return b.sev }

func (b base) pass(msg string) Result {
	return Result{RuleID: b.id, Passed: true, Message: msg, Severity: b.sev}
}

func (b base) fail(msg string) Result {
	return Result{RuleID: b.id, Passed: false, Message: msg, Severity: b.sev}
}

// Option adjusts the identity fields shared by every rule
type Option func(*base)

// WithID overrides the rule's default identifier
func WithID(id string) Option { return func(b *base) { b.id = id } }

// WithDescription overrides the rule's default description
func WithDescription(d string) Option { return func(b *base) { b.desc = d } }

// WithSeverity overrides the rule's default severity
func WithSeverity(s Severity) Option { return func(b *base) { b.sev = s } }

func newBase(id, desc string, sev Severity, opts ...Option) base {
	b := base{id: id, desc: desc, sev: sev}
	for _, o := range opts {
		o(&b)
	}
	return b
}

func money(d decimal.Decimal) string { return "$" + d.StringFixed(2) }
