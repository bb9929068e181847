// Package dupdetect indexes previously seen invoices and flags new
// ones as exact or near duplicates.
package dupdetect

import (
	"fmt"
	"strings"
	"sync"

	"auditor/internal/core/invoice"
	"auditor/internal/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// Duplicate verdict types
const (
	TypeExactID      = "exact_id_match"
	TypeExactContent = "exact_content_match"
	TypeSimilar      = "similar_content"
)

// Config for the detector
type Config struct {
	Threshold  float64
	MaxResults int
}

// Verdict is the outcome of a duplicate check
type Verdict struct {
	IsDuplicate      bool    `json:"is_duplicate"`
	Reason           string  `json:"reason"`
	DuplicateType    string  `json:"duplicate_type,omitempty"`
	Confidence       float64 `json:"confidence"`
	MatchedInvoiceID string  `json:"matched_invoice_id,omitempty"`
	Similar          []Match `json:"similar_invoices,omitempty"`
}

// Match is one scored candidate from a similarity search
type Match struct {
	InvoiceID  string          `json:"invoice_id"`
	Similarity float64         `json:"similarity"`
	Invoice    invoice.Invoice `json:"invoice"`
}

type record struct {
	inv       invoice.Invoice
	hash      string
	vendorKey string
}

// Detector holds the invoice history behind a read/write lock. Reads
// (checks, searches, clustering) may run concurrently; adds serialize
type Detector struct {
	mu       sync.RWMutex
	records  []*record
	byID     map[string][]*record
	byHash   map[string][]*record
	byVendor map[string][]*record
	cfg      Config
}

// New constructs an empty detector
func New(cfg Config) *Detector {
	if cfg.Threshold <= 0 || cfg.Threshold > 1 {
		cfg.Threshold = 0.8
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 5
	}
	return &Detector{
		byID:     make(map[string][]*record),
		byHash:   make(map[string][]*record),
		byVendor: make(map[string][]*record),
		cfg:      cfg,
	}
}

var foldCaser = cases.Fold()

// vendorKey case-folds a vendor name into its bucket key
func vendorKey(vendor string) string {
	return foldCaser.String(strings.TrimSpace(vendor))
}

// GenerateHash derives a stable content hash from the invoice's
// content fields: folded vendor, total at two decimals, and the
// calendar date. The id is not part of the hash, so the same bill
// resubmitted under a fresh id still collides. Equal content yields
// equal hashes across runs and across hosts
func GenerateHash(inv invoice.Invoice) string {
	canonical := vendorKey(inv.Vendor) + "|" + inv.Total.StringFixed(2) + "|" + inv.DateString()
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(canonical)).String()
}

// Add indexes one invoice into the history
func (d *Detector) Add(inv invoice.Invoice) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.add(inv)
}

// AddBatch indexes a collection under a single lock acquisition
func (d *Detector) AddBatch(invs []invoice.Invoice) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, inv := range invs {
		d.add(inv)
	}
}

func (d *Detector) add(inv invoice.Invoice) {
	r := &record{
		inv:       inv,
		hash:      GenerateHash(inv),
		vendorKey: vendorKey(inv.Vendor),
	}
	d.records = append(d.records, r)
	d.byID[inv.ID] = append(d.byID[inv.ID], r)
	d.byHash[r.hash] = append(d.byHash[r.hash], r)
	d.byVendor[r.vendorKey] = append(d.byVendor[r.vendorKey], r)
	logger.Named("dupdetect").Debug().Str("invoice_id", inv.ID).Str("hash", r.hash).Msg("indexed invoice")
}

// Clear drops the whole history
func (d *Detector) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = nil
	d.byID = make(map[string][]*record)
	d.byHash = make(map[string][]*record)
	d.byVendor = make(map[string][]*record)
}

// Len reports how many invoices are indexed
func (d *Detector) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.records)
}

// CheckExact reports whether the invoice's id or content hash is
// already indexed. Either way the verdict carries full confidence
func (d *Detector) CheckExact(inv invoice.Invoice) Verdict {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.checkExact(inv)
}

func (d *Detector) checkExact(inv invoice.Invoice) Verdict {
	if len(d.byID[inv.ID]) > 0 {
		return Verdict{
			IsDuplicate:      true,
			Reason:           fmt.Sprintf("Invoice ID %s already exists in the system", inv.ID),
			DuplicateType:    TypeExactID,
			Confidence:       1.0,
			MatchedInvoiceID: inv.ID,
		}
	}

	if hits := d.byHash[GenerateHash(inv)]; len(hits) > 0 {
		matched := hits[0].inv.ID
		return Verdict{
			IsDuplicate:      true,
			Reason:           fmt.Sprintf("Invoice content exactly matches existing invoice %s", matched),
			DuplicateType:    TypeExactContent,
			Confidence:       1.0,
			MatchedInvoiceID: matched,
		}
	}

	return Verdict{Reason: "No exact duplicates found"}
}

// CheckDuplicate runs the exact check first and falls back to a
// similarity search at the given threshold. A threshold outside (0,1]
// selects the configured default
func (d *Detector) CheckDuplicate(inv invoice.Invoice, threshold float64) Verdict {
	if threshold <= 0 || threshold > 1 {
		threshold = d.cfg.Threshold
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if v := d.checkExact(inv); v.IsDuplicate {
		return v
	}

	similar := d.findSimilar(inv, threshold, d.cfg.MaxResults)
	if len(similar) == 0 {
		return Verdict{Reason: "No duplicates found"}
	}

	best := similar[0]
	return Verdict{
		IsDuplicate:      true,
		Reason:           fmt.Sprintf("Invoice is very similar to existing invoice %s (similarity: %.2f)", best.InvoiceID, best.Similarity),
		DuplicateType:    TypeSimilar,
		Confidence:       best.Similarity,
		MatchedInvoiceID: best.InvoiceID,
		Similar:          similar,
	}
}
