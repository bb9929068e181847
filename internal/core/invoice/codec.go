package invoice

import (
	"encoding/json"
	"time"

	perr "auditor/internal/platform/errors"
	"auditor/internal/platform/logger"
	"auditor/internal/platform/validate"

	"github.com/shopspring/decimal"
)

// payload mirrors the extraction collaborator's output shape
type payload struct {
	ID        string          `json:"id" validate:"required"`
	Vendor    string          `json:"vendor"`
	Date      string          `json:"date"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
	LineItems []itemPayload   `json:"line_items"`
}

type itemPayload struct {
	Description string          `json:"description"`
	Category    string          `json:"category,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal  `json:"price"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	Amount      decimal.Decimal  `json:"amount"`
}

// unitPrice resolves the two key spellings extraction backends emit.
// "price" wins when both are set
func (ip itemPayload) unitPrice() decimal.Decimal {
	if !ip.Price.IsZero() || ip.UnitPrice == nil {
		return ip.Price
	}
	return *ip.UnitPrice
}

// FromJSON decodes an extracted invoice document. Extraction output is
// noisy: line items that fail their own validation are dropped with a
// warning rather than rejecting the whole invoice, and an unparsable
// date leaves the date unset so the date rules can flag it
func FromJSON(data []byte) (Invoice, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Invoice{}, perr.Parsef("decode invoice document: %v", err)
	}
	if err := validate.Struct(p); err != nil {
		return Invoice{}, err
	}

	log := logger.Named("invoice")

	var issued time.Time
	if p.Date != "" {
		t, err := ParseDate(p.Date)
		if err != nil {
			log.Warn().Str("invoice_id", p.ID).Str("date", p.Date).Msg("unparsable date, leaving unset")
		} else {
			issued = t
		}
	}

	items := make([]LineItem, 0, len(p.LineItems))
	for i, ip := range p.LineItems {
		var (
			li  LineItem
			err error
		)
		if !ip.Amount.IsZero() {
			li, err = NewLineItemWithAmount(ip.Description, ip.Category, ip.Quantity, ip.unitPrice(), ip.Amount)
		} else {
			li, err = NewLineItem(ip.Description, ip.Category, ip.Quantity, ip.unitPrice())
		}
		if err != nil {
			log.Warn().Str("invoice_id", p.ID).Int("line_item", i).Err(err).Msg("dropping malformed line item")
			continue
		}
		items = append(items, li)
	}

	return New(p.ID, p.Vendor, issued, p.Subtotal, p.Tax, p.Total, items)
}

// MarshalJSON emits the same document shape FromJSON accepts
func (inv Invoice) MarshalJSON() ([]byte, error) {
	items := make([]itemPayload, 0, len(inv.LineItems))
	for _, li := range inv.LineItems {
		items = append(items, itemPayload{
			Description: li.Description,
			Category:    li.Category,
			Quantity:    li.Quantity,
			Price:       li.UnitPrice,
			Amount:      li.Amount,
		})
	}
	return json.Marshal(payload{
		ID:        inv.ID,
		Vendor:    inv.Vendor,
		Date:      inv.DateString(),
		Subtotal:  inv.Subtotal,
		Tax:       inv.Tax,
		Total:     inv.Total,
		LineItems: items,
	})
}
