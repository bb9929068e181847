package dupdetect

import (
	"math"
	"sort"

	"auditor/internal/core/invoice"

	"github.com/shopspring/decimal"
	"github.com/xrash/smetrics"
)

// Field weights for the overall similarity score
const (
	weightVendor    = 0.2
	weightTotal     = 0.3
	weightDate      = 0.2
	weightLineItems = 0.3
)

// Similarity scores how alike two invoices are, 0.0 to 1.0. The
// function is symmetric: Similarity(a, b) == Similarity(b, a)
func Similarity(a, b invoice.Invoice) float64 {
	vendor := 0.0
	if vendorKey(a.Vendor) == vendorKey(b.Vendor) {
		vendor = 1.0
	}

	total := amountSimilarity(a.Total, b.Total)
	date := dateSimilarity(a, b)
	items := lineItemsSimilarity(a.LineItems, b.LineItems)

	return vendor*weightVendor + total*weightTotal + date*weightDate + items*weightLineItems
}

// amountSimilarity treats amounts within 1% of each other as equal and
// decays linearly with the relative difference beyond that
func amountSimilarity(a, b decimal.Decimal) float64 {
	if a.IsZero() && b.IsZero() {
		return 1.0
	}
	if a.IsZero() || b.IsZero() {
		return 0.0
	}
	fa, fb := a.InexactFloat64(), b.InexactFloat64()
	diff := math.Abs(fa-fb) / math.Max(fa, fb)
	if diff < 0.01 {
		return 1.0
	}
	return math.Max(0, 1.0-diff)
}

// dateSimilarity decays linearly over a 30 day window
func dateSimilarity(a, b invoice.Invoice) float64 {
	switch {
	case !a.HasDate() && !b.HasDate():
		return 1.0
	case !a.HasDate() || !b.HasDate():
		return 0.0
	}
	days := math.Abs(a.IssueDate.Sub(b.IssueDate).Hours() / 24)
	if days == 0 {
		return 1.0
	}
	return math.Max(0, 1.0-days/30)
}

func lineItemsSimilarity(a, b []invoice.LineItem) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	count := 1.0 - math.Min(1.0, math.Abs(float64(len(a)-len(b)))/math.Max(float64(len(a)), float64(len(b))))

	// Best-match averaging is direction-dependent when counts differ,
	// so run it both ways and average
	content := (bestMatchAverage(a, b) + bestMatchAverage(b, a)) / 2

	return count*0.3 + content*0.7
}

// bestMatchAverage pairs every item on the left with its closest item
// on the right and averages those scores
func bestMatchAverage(left, right []invoice.LineItem) float64 {
	var sum float64
	for _, li := range left {
		best := 0.0
		for _, ri := range right {
			if s := itemSimilarity(li, ri); s > best {
				best = s
			}
		}
		sum += best
	}
	return sum / float64(len(left))
}

func itemSimilarity(a, b invoice.LineItem) float64 {
	desc := descriptionSimilarity(a.Description, b.Description)
	price := amountSimilarity(a.UnitPrice, b.UnitPrice)
	qty := 0.0
	if a.Quantity.Equal(b.Quantity) {
		qty = 1.0
	}
	return desc*0.5 + price*0.3 + qty*0.2
}

// descriptionSimilarity is an edit-distance ratio over the folded
// descriptions, matching substitutions at double weight so a swap
// counts like a delete plus an insert
func descriptionSimilarity(a, b string) float64 {
	fa, fb := foldCaser.String(a), foldCaser.String(b)
	if fa == "" || fb == "" {
		return 0.0
	}
	if fa == fb {
		return 1.0
	}
	dist := smetrics.WagnerFischer(fa, fb, 1, 1, 2)
	return 1.0 - float64(dist)/float64(len(fa)+len(fb))
}

// FindSimilar returns up to maxResults indexed invoices scoring at or
// above threshold, best first. Ties keep insertion order. Candidates
// come from the invoice's vendor bucket when it has any, otherwise
// the whole history
func (d *Detector) FindSimilar(inv invoice.Invoice, threshold float64, maxResults int) []Match {
	if threshold <= 0 || threshold > 1 {
		threshold = d.cfg.Threshold
	}
	if maxResults <= 0 {
		maxResults = d.cfg.MaxResults
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.findSimilar(inv, threshold, maxResults)
}

func (d *Detector) findSimilar(inv invoice.Invoice, threshold float64, maxResults int) []Match {
	candidates := d.byVendor[vendorKey(inv.Vendor)]
	if len(candidates) == 0 {
		candidates = d.records
	}

	var out []Match
	for _, r := range candidates {
		if r.inv.ID == inv.ID {
			continue
		}
		if score := Similarity(inv, r.inv); score >= threshold {
			out = append(out, Match{InvoiceID: r.inv.ID, Similarity: score, Invoice: r.inv})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out
}
