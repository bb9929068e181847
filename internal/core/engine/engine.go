// Package engine dispatches invoices across named rule sets and
// aggregates the results.
package engine

import (
	"sort"
	"time"

	"auditor/internal/core/invoice"
	"auditor/internal/core/rules"
	perr "auditor/internal/platform/errors"
	"auditor/internal/platform/logger"
)

// now is swapped in tests
var now = time.Now

// Config for the engine
type Config struct {
	Workers int
}

// Engine holds the registered rule sets. Rule sets are load-once
// configuration: register them before auditing starts and treat them
// as read-only afterwards; the audit paths take no lock
type Engine struct {
	sets  map[string]*rules.Set
	order []string
	cfg   Config
}

// New constructs an engine with no rule sets registered
func New(cfg Config) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Engine{sets: make(map[string]*rules.Set), cfg: cfg}
}

// AddRuleSet registers a set under its name, replacing any previous
// set with the same name. First registration fixes the set's position
// in AuditAll order
func (e *Engine) AddRuleSet(s *rules.Set) {
	if _, exists := e.sets[s.Name]; !exists {
		e.order = append(e.order, s.Name)
	}
	e.sets[s.Name] = s
}

// RemoveRuleSet drops a set by name. Unknown names are a no-op
func (e *Engine) RemoveRuleSet(name string) {
	if _, exists := e.sets[name]; !exists {
		return
	}
	delete(e.sets, name)
	for i, n := range e.order {
		if n == name {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// GetRuleSet returns the set registered under name
func (e *Engine) GetRuleSet(name string) (*rules.Set, bool) {
	s, ok := e.sets[name]
	return s, ok
}

// ListRuleSets returns registered names in registration order
func (e *Engine) ListRuleSets() []string {
	return append([]string(nil), e.order...)
}

// Audit runs one named rule set against the invoice
func (e *Engine) Audit(inv invoice.Invoice, ruleSetName string, rctx rules.Context) (rules.SetResult, error) {
	s, ok := e.sets[ruleSetName]
	if !ok {
		return rules.SetResult{}, perr.UnknownRuleSetf("rule set %q not found", ruleSetName)
	}
	res := s.Audit(inv, rctx)
	logger.Named("engine").Debug().
		Str("invoice_id", inv.ID).
		Str("ruleset", ruleSetName).
		Int("failed", res.FailedRules).
		Msg("audited invoice")
	return res, nil
}

// AggregateResult is the outcome of running every registered rule set
// against one invoice
type AggregateResult struct {
	InvoiceID      string                     `json:"invoice_id"`
	TotalRuleSets  int                        `json:"total_rule_sets"`
	TotalRules     int                        `json:"total_rules"`
	PassedRules    int                        `json:"passed_rules"`
	FailedRules    int                        `json:"failed_rules"`
	SeverityCounts rules.SeverityCounts       `json:"severity_counts"`
	RuleSetResults map[string]rules.SetResult `json:"rule_set_results"`
	Timestamp      time.Time                  `json:"timestamp"`
}

// AuditAll runs every registered rule set against the invoice and sums
// the counts across sets
func (e *Engine) AuditAll(inv invoice.Invoice, rctx rules.Context) AggregateResult {
	out := AggregateResult{
		InvoiceID:      inv.ID,
		TotalRuleSets:  len(e.order),
		RuleSetResults: make(map[string]rules.SetResult, len(e.order)),
		Timestamp:      now().UTC(),
	}
	for _, name := range e.order {
		res := e.sets[name].Audit(inv, rctx)
		out.RuleSetResults[name] = res
		out.TotalRules += res.TotalRules
		out.PassedRules += res.PassedRules
		out.FailedRules += res.FailedRules
		out.SeverityCounts.Merge(res.SeverityCounts)
	}
	return out
}

// sortedNames is used by the file writer so saved output is stable
func (e *Engine) sortedNames() []string {
	out := append([]string(nil), e.order...)
	sort.Strings(out)
	return out
}
