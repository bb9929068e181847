package rules

import (
	"strings"

	"auditor/internal/core/invoice"
)

// RequiredFields verifies a configurable set of fields is present and
// non-empty
type RequiredFields struct {
	base
	fields []string
}

// NewRequiredFields builds the presence check. An empty list selects
// the default of id, vendor, date and total
func NewRequiredFields(fields []string, opts ...Option) *RequiredFields {
	if len(fields) == 0 {
		fields = []string{"id", "vendor", "date", "total"}
	}
	return &RequiredFields{
		base:   newBase("required_fields", "Invoice should have all required fields", SeverityHigh, opts...),
		fields: append([]string(nil), fields...),
	}
}

func (r *RequiredFields) Type() string { return TypeRequiredFields }

func (r *RequiredFields) Check(inv invoice.Invoice, _ Context) Result {
	var missing []string
	for _, f := range r.fields {
		if !fieldPresent(inv, f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return r.fail("Invoice is missing required fields: " + strings.Join(missing, ", "))
	}
	return r.pass("Invoice has all required fields")
}

// fieldPresent treats a field name it does not know as missing so a
// typo in a serialized rule set surfaces as a failure instead of a
// silent pass. invoice_id is accepted as a legacy alias for id
func fieldPresent(inv invoice.Invoice, field string) bool {
	switch field {
	case "id", "invoice_id":
		return inv.ID != ""
	case "vendor":
		return inv.Vendor != ""
	case "date":
		return inv.HasDate()
	case "subtotal":
		return !inv.Subtotal.IsZero()
	case "tax":
		return !inv.Tax.IsZero()
	case "total":
		return !inv.Total.IsZero()
	case "line_items":
		return len(inv.LineItems) > 0
	default:
		return false
	}
}

func (r *RequiredFields) Spec() Spec {
	return Spec{
		Type:           r.Type(),
		RuleID:         r.id,
		Description:    r.desc,
		Severity:       r.sev,
		RequiredFields: append([]string(nil), r.fields...),
	}
}
