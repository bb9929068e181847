package rules

import "auditor/internal/core/invoice"

// CheckFunc is the predicate a Custom rule delegates to
type CheckFunc func(inv invoice.Invoice, rctx Context) (passed bool, message string)

// Custom wraps caller-provided logic in the Rule interface. Custom
// rules serialize their identity but not their predicate, so a rule
// set containing one cannot be rebuilt from its spec
type Custom struct {
	base
	fn CheckFunc
}

func NewCustom(id, description string, fn CheckFunc, opts ...Option) *Custom {
	return &Custom{
		base: newBase(id, description, SeverityMedium, opts...),
		fn:   fn,
	}
}

func (r *Custom) Type() string { return TypeCustom }

func (r *Custom) Check(inv invoice.Invoice, rctx Context) Result {
	passed, msg := r.fn(inv, rctx)
	if passed {
		return r.pass(msg)
	}
	return r.fail(msg)
}

func (r *Custom) Spec() Spec {
	return Spec{Type: r.Type(), RuleID: r.id, Description: r.desc, Severity: r.sev}
}
