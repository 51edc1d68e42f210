package reference

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CostSeparator splits a multi-category Cost1 value into its allowed rates.
const CostSeparator = "$"

// ProcessConfig is one row of map.csv.
type ProcessConfig struct {
	Process     string
	Location    string
	ClusterHead string
	// Billable is the per-day minutes threshold for a full FTE.
	Billable decimal.Decimal
	// Rates holds the single rate, or every allowed rate when MultiRate is set.
	Rates        []decimal.Decimal
	MultiRate    bool
	ExtraBilling []ExtraBillingItem
	// Err is set when the row cannot be billed (bad threshold or rate). The process is
	// skipped at resolution time rather than aborting the load.
	Err error
}

// Rate returns the single-cost rate.
func (p ProcessConfig) Rate() decimal.Decimal {
	if len(p.Rates) == 0 {
		return decimal.Zero
	}
	return p.Rates[0]
}

// ExtraBillingItem is an attendance independent add-on: count units billed at cost each.
type ExtraBillingItem struct {
	// Count is a whole number; exports may write it as 1.0.
	Count decimal.Decimal `json:"count"`
	Cost  decimal.Decimal `json:"cost"`
}

// MetaKey addresses a meta.csv row. Name is a process or a cost category.
type MetaKey struct {
	Name  string
	Month string
}

type MetaRow struct {
	Name    string
	Month   string
	FTECap  decimal.Decimal
	Mandays decimal.Decimal
}

// MetaIndex holds the meta rows of a single month, at most one per name.
type MetaIndex struct {
	month string
	rows  map[MetaKey]MetaRow
}

func NewMetaIndex(month string) MetaIndex {
	return MetaIndex{month: normalizeMonth(month), rows: map[MetaKey]MetaRow{}}
}

// Lookup finds the meta row for a process or category name.
func (m MetaIndex) Lookup(name string) (MetaRow, bool) {
	row, ok := m.rows[MetaKey{Name: strings.TrimSpace(name), Month: m.month}]
	return row, ok
}

func (m MetaIndex) Len() int {
	return len(m.rows)
}

// add keeps the first row for a key and reports whether row was stored.
func (m MetaIndex) add(row MetaRow) bool {
	key := MetaKey{Name: row.Name, Month: row.Month}
	if _, exists := m.rows[key]; exists {
		return false
	}
	m.rows[key] = row
	return true
}

// CostKey addresses the cost.csv rows of a process for a month.
type CostKey struct {
	Process string
	Month   string
}

type CostRow struct {
	EmpCode  string
	Category string
	Process  string
	Month    string
	Cost     decimal.Decimal
}

// CostIndex groups cost rows by process and month, preserving file order.
type CostIndex struct {
	rows map[CostKey][]CostRow
}

func NewCostIndex() CostIndex {
	return CostIndex{rows: map[CostKey][]CostRow{}}
}

func (c CostIndex) ForProcess(process, month string) []CostRow {
	return c.rows[CostKey{Process: strings.TrimSpace(process), Month: normalizeMonth(month)}]
}

func (c CostIndex) add(row CostRow) {
	key := CostKey{Process: row.Process, Month: row.Month}
	c.rows[key] = append(c.rows[key], row)
}

// Tables is the validated reference data for one run. It is never mutated after loading.
type Tables struct {
	Processes []ProcessConfig
	Meta      MetaIndex
	Costs     CostIndex
}

func normalizeMonth(month string) string {
	return strings.ToLower(strings.TrimSpace(month))
}
