package rules

import (
	"fmt"

	"auditor/internal/core/invoice"
)

// DateValidity checks the issue date against an acceptance window
// around the current day. Unlike the skip rules, a missing date is a
// failure: nothing downstream can reconstruct it
type DateValidity struct {
	base
	maxAgeDays      int
	allowFutureDays int
}

// NewDateValidity builds the date window check. maxAgeDays <= 0
// selects the default of 365; allowFutureDays < 0 selects 0
func NewDateValidity(maxAgeDays, allowFutureDays int, opts ...Option) *DateValidity {
	if maxAgeDays <= 0 {
		maxAgeDays = 365
	}
	if allowFutureDays < 0 {
		allowFutureDays = 0
	}
	return &DateValidity{
		base:            newBase("date_validity", "Invoice date should be valid and within acceptable range", SeverityMedium, opts...),
		maxAgeDays:      maxAgeDays,
		allowFutureDays: allowFutureDays,
	}
}

func (r *DateValidity) Type() string { return TypeDateValidity }

func (r *DateValidity) Check(inv invoice.Invoice, _ Context) Result {
	if !inv.HasDate() {
		return r.fail("Invoice is missing a date")
	}

	today := now().UTC()
	date := inv.IssueDate

	if date.After(today.AddDate(0, 0, r.allowFutureDays)) {
		return r.fail(fmt.Sprintf("Invoice date %s is too far in the future", inv.DateString()))
	}
	if date.Before(today.AddDate(0, 0, -r.maxAgeDays)) {
		return r.fail(fmt.Sprintf("Invoice date %s is too old (more than %d days)", inv.DateString(), r.maxAgeDays))
	}
	return r.pass(fmt.Sprintf("Invoice date %s is valid", inv.DateString()))
}

func (r *DateValidity) Spec() Spec {
	age, future := r.maxAgeDays, r.allowFutureDays
	return Spec{
		Type:            r.Type(),
		RuleID:          r.id,
		Description:     r.desc,
		Severity:        r.sev,
		MaxAgeDays:      &age,
		AllowFutureDays: &future,
	}
}
