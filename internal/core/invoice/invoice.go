// Package invoice defines the structured invoice record produced by the
// OCR/extraction layer and consumed by the audit and duplicate engines.
// Records are value types: built once, never mutated downstream
package invoice

import (
	"strconv"
	"strings"
	"time"

	perr "auditor/internal/platform/errors"

	"github.com/shopspring/decimal"
)

// LineItem is a single line on an invoice.
// Amount is derived from Quantity*UnitPrice at construction unless the
// source document carried an explicit amount
type LineItem struct {
	Description string
	Category    string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
}

// NewLineItem builds a validated line item with Amount derived
func NewLineItem(description, category string, qty, unitPrice decimal.Decimal) (LineItem, error) {
	li := LineItem{
		Description: description,
		Category:    category,
		Quantity:    qty,
		UnitPrice:   unitPrice,
		Amount:      qty.Mul(unitPrice),
	}
	if err := li.validate(); err != nil {
		return LineItem{}, err
	}
	return li, nil
}

// NewLineItemWithAmount builds a validated line item with an explicit amount override
func NewLineItemWithAmount(description, category string, qty, unitPrice, amount decimal.Decimal) (LineItem, error) {
	li := LineItem{
		Description: description,
		Category:    category,
		Quantity:    qty,
		UnitPrice:   unitPrice,
		Amount:      amount,
	}
	if err := li.validate(); err != nil {
		return LineItem{}, err
	}
	return li, nil
}

func (li LineItem) validate() error {
	if strings.TrimSpace(li.Description) == "" {
		return perr.WithField(perr.Validationf("line item description cannot be empty"), "description")
	}
	if !li.Quantity.IsPositive() {
		return perr.WithField(perr.Validationf("quantity must be greater than zero"), "quantity")
	}
	if li.UnitPrice.IsNegative() {
		return perr.WithField(perr.Validationf("unit price cannot be negative"), "price")
	}
	return nil
}

// Invoice is one extracted invoice record.
// Zero Subtotal/Tax/Total mean the field was absent or unreadable; rules
// decide per check whether that skips or fails. A zero IssueDate means
// the document carried no parseable date
type Invoice struct {
	ID        string
	Vendor    string
	IssueDate time.Time
	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	Total     decimal.Decimal
	LineItems []LineItem
}

// New builds a validated invoice record.
// The ID must be non-empty; line items must already satisfy the
// quantity/price invariants (construct them via NewLineItem)
func New(id, vendor string, issueDate time.Time, subtotal, tax, total decimal.Decimal, items []LineItem) (Invoice, error) {
	if strings.TrimSpace(id) == "" {
		return Invoice{}, perr.WithField(perr.Validationf("invoice id cannot be empty"), "id")
	}
	for i, li := range items {
		if err := li.validate(); err != nil {
			return Invoice{}, perr.WithOp(err, "line_items["+strconv.Itoa(i)+"]")
		}
	}
	return Invoice{
		ID:        id,
		Vendor:    vendor,
		IssueDate: issueDate,
		Subtotal:  subtotal,
		Tax:       tax,
		Total:     total,
		LineItems: append([]LineItem(nil), items...),
	}, nil
}

// HasDate reports whether the record carries an issue date
func (inv Invoice) HasDate() bool { return !inv.IssueDate.IsZero() }

// DateString renders the issue date as YYYY-MM-DD, or "" when unset
func (inv Invoice) DateString() string {
	if !inv.HasDate() {
		return ""
	}
	return inv.IssueDate.Format("2006-01-02")
}

// LineSum returns the sum of line item amounts
func (inv Invoice) LineSum() decimal.Decimal {
	sum := decimal.Zero
	for _, li := range inv.LineItems {
		sum = sum.Add(li.Amount)
	}
	return sum
}
