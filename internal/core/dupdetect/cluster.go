package dupdetect

import (
	"github.com/shopspring/decimal"
)

// FindClusters groups the indexed invoices into disjoint clusters of
// potential duplicates at the given threshold. Every returned cluster
// has at least two members; invoices with no partner are omitted.
// Pairwise scoring is O(n^2) over the history, run under a read lock
func (d *Detector) FindClusters(threshold float64) [][]string {
	if threshold <= 0 || threshold > 1 {
		threshold = d.cfg.Threshold
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	n := len(d.records)
	if n == 0 {
		return nil
	}

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(i, j int) {
		ri, rj := find(i), find(j)
		if ri != rj {
			parent[rj] = ri
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if Similarity(d.records[i].inv, d.records[j].inv) >= threshold {
				union(i, j)
			}
		}
	}

	// Group members by root, keeping insertion order within and across
	// clusters
	groups := make(map[int][]string, n)
	var roots []int
	for i, r := range d.records {
		root := find(i)
		if _, seen := groups[root]; !seen {
			roots = append(roots, root)
		}
		groups[root] = append(groups[root], r.inv.ID)
	}

	var out [][]string
	for _, root := range roots {
		if members := groups[root]; len(members) > 1 {
			out = append(out, members)
		}
	}
	return out
}

// ClusterInvoice is one member in a report cluster
type ClusterInvoice struct {
	InvoiceID string          `json:"invoice_id"`
	Vendor    string          `json:"vendor"`
	Date      string          `json:"date"`
	Total     decimal.Decimal `json:"total"`
}

// Cluster is one group of potential duplicates in a report
type Cluster struct {
	ClusterID int              `json:"cluster_id"`
	Size      int              `json:"size"`
	Invoices  []ClusterInvoice `json:"invoices"`
}

// Report summarizes the duplicate state of the whole history
type Report struct {
	TotalInvoices            int       `json:"total_invoices"`
	TotalDuplicateClusters   int       `json:"total_duplicate_clusters"`
	TotalPotentialDuplicates int       `json:"total_potential_duplicates"`
	DuplicatePercentage      float64   `json:"duplicate_percentage"`
	Clusters                 []Cluster `json:"clusters"`
}

// GenerateReport clusters the history at the configured threshold and
// summarizes the result
func (d *Detector) GenerateReport() Report {
	clusters := d.FindClusters(d.cfg.Threshold)

	d.mu.RLock()
	defer d.mu.RUnlock()

	byID := make(map[string]*record, len(d.records))
	for _, r := range d.records {
		if _, ok := byID[r.inv.ID]; !ok {
			byID[r.inv.ID] = r
		}
	}

	rep := Report{
		TotalInvoices:          len(d.records),
		TotalDuplicateClusters: len(clusters),
	}
	for i, members := range clusters {
		c := Cluster{ClusterID: i + 1, Size: len(members)}
		for _, id := range members {
			r := byID[id]
			c.Invoices = append(c.Invoices, ClusterInvoice{
				InvoiceID: id,
				Vendor:    r.inv.Vendor,
				Date:      r.inv.DateString(),
				Total:     r.inv.Total,
			})
		}
		rep.TotalPotentialDuplicates += len(members)
		rep.Clusters = append(rep.Clusters, c)
	}
	if rep.TotalInvoices > 0 {
		rep.DuplicatePercentage = float64(rep.TotalPotentialDuplicates) / float64(rep.TotalInvoices) * 100
	}
	return rep
}
