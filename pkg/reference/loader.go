package reference

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klokku/revenue/internal/csvtable"
	"github.com/klokku/revenue/pkg/period"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidBillable = errors.New("billable minutes must be a positive number")
var ErrInvalidCost = errors.New("invalid Cost1")
var ErrInvalidExtraBilling = errors.New("invalid ExtraBilling")

var (
	mapColumns          = []string{"Process", "Location", "Cluster Head", "Billable", "Cost1"}
	metaColumns         = []string{"Process", "Month", "FTE Cap", "Mandays"}
	costColumns         = []string{"EmpCode", "Process", "Month", "Cost"}
	categoryCostColumns = []string{"EmpCode", "Category", "Process", "Month", "Cost"}
)

type mapRecord struct {
	Process      string `csv:"Process"`
	Location     string `csv:"Location"`
	ClusterHead  string `csv:"Cluster Head"`
	Billable     string `csv:"Billable"`
	Cost1        string `csv:"Cost1"`
	ExtraBilling string `csv:"ExtraBilling"`
}

type metaRecord struct {
	Process string `csv:"Process"`
	Month   string `csv:"Month"`
	FTECap  string `csv:"FTE Cap"`
	Mandays string `csv:"Mandays"`
}

type costRecord struct {
	EmpCode  string `csv:"EmpCode"`
	Category string `csv:"Category"`
	Process  string `csv:"Process"`
	Month    string `csv:"Month"`
	Cost     string `csv:"Cost"`
}

type Paths struct {
	Map  string
	Meta string
	Cost string
}

type Options struct {
	// Categories enables multi-category billing, which makes the Category column of
	// cost.csv mandatory.
	Categories bool
}

type Loader struct {
	paths Paths
	opts  Options
}

func NewLoader(paths Paths, opts Options) *Loader {
	return &Loader{paths: paths, opts: opts}
}

// Load reads the three reference tables from disk for the given month.
func (l *Loader) Load(month period.Month) (*Tables, error) {
	mapFile, err := os.Open(l.paths.Map)
	if err != nil {
		return nil, fmt.Errorf("could not open process map: %w", err)
	}
	defer mapFile.Close()
	metaFile, err := os.Open(l.paths.Meta)
	if err != nil {
		return nil, fmt.Errorf("could not open meta table: %w", err)
	}
	defer metaFile.Close()
	costFile, err := os.Open(l.paths.Cost)
	if err != nil {
		return nil, fmt.Errorf("could not open cost table: %w", err)
	}
	defer costFile.Close()

	return Parse(mapFile, metaFile, costFile, month, l.opts)
}

// Parse validates and indexes the reference tables. Missing columns abort the load;
// individual bad rows are logged and skipped.
func Parse(mapIn, metaIn, costIn io.Reader, month period.Month, opts Options) (*Tables, error) {
	var mapRecords []mapRecord
	if err := csvtable.Read("map.csv", mapIn, mapColumns, &mapRecords); err != nil {
		return nil, err
	}
	var metaRecords []metaRecord
	if err := csvtable.Read("meta.csv", metaIn, metaColumns, &metaRecords); err != nil {
		return nil, err
	}
	requiredCost := costColumns
	if opts.Categories {
		requiredCost = categoryCostColumns
	}
	var costRecords []costRecord
	if err := csvtable.Read("cost.csv", costIn, requiredCost, &costRecords); err != nil {
		return nil, err
	}

	tables := &Tables{
		Processes: parseProcesses(mapRecords),
		Meta:      parseMeta(metaRecords, month),
		Costs:     parseCosts(costRecords),
	}
	log.Infof("Loaded %d processes, %d meta rows for %s, %d cost rows",
		len(tables.Processes), tables.Meta.Len(), month.Label(), len(costRecords))
	return tables, nil
}

func parseProcesses(records []mapRecord) []ProcessConfig {
	seen := make(map[string]bool, len(records))
	processes := make([]ProcessConfig, 0, len(records))
	for i, rec := range records {
		name := strings.TrimSpace(rec.Process)
		if name == "" {
			log.Warnf("map.csv row %d has no process name, skipping", i+2)
			continue
		}
		if seen[name] {
			log.Warnf("map.csv lists process %q more than once, keeping the first row", name)
			continue
		}
		seen[name] = true

		p := ProcessConfig{
			Process:     name,
			Location:    strings.TrimSpace(rec.Location),
			ClusterHead: strings.TrimSpace(rec.ClusterHead),
		}

		billable, err := decimal.NewFromString(strings.TrimSpace(rec.Billable))
		if err != nil || !billable.IsPositive() {
			p.Err = fmt.Errorf("%w: %q", ErrInvalidBillable, rec.Billable)
		}
		p.Billable = billable

		rates, multi, err := ParseCost1(rec.Cost1)
		if err != nil && p.Err == nil {
			p.Err = err
		}
		p.Rates = rates
		p.MultiRate = multi

		extra, err := ParseExtraBilling(rec.ExtraBilling)
		if err != nil {
			log.Warnf("Invalid ExtraBilling for %s, treating as empty: %v", name, err)
		}
		p.ExtraBilling = extra

		processes = append(processes, p)
	}
	return processes
}

// ParseCost1 reads a bare decimal rate, or a $-joined list of allowed rates.
func ParseCost1(raw string) ([]decimal.Decimal, bool, error) {
	raw = strings.TrimSpace(raw)
	multi := strings.Contains(raw, CostSeparator)
	var rates []decimal.Decimal
	for _, part := range strings.Split(raw, CostSeparator) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		rate, err := decimal.NewFromString(part)
		if err != nil || rate.IsNegative() {
			return nil, multi, fmt.Errorf("%w: %q", ErrInvalidCost, raw)
		}
		rates = append(rates, rate)
	}
	if len(rates) == 0 {
		return nil, multi, fmt.Errorf("%w: %q", ErrInvalidCost, raw)
	}
	return rates, multi, nil
}

// ParseExtraBilling decodes the JSON list embedded in map.csv. A blank cell is an empty
// list; malformed input returns an empty list together with the error.
func ParseExtraBilling(raw string) ([]ExtraBillingItem, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "nan") {
		return nil, nil
	}
	var items []ExtraBillingItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExtraBilling, err)
	}
	for _, item := range items {
		if item.Count.IsNegative() || item.Cost.IsNegative() {
			return nil, fmt.Errorf("%w: negative count or cost in %s", ErrInvalidExtraBilling, raw)
		}
		if !item.Count.IsInteger() {
			return nil, fmt.Errorf("%w: fractional count %s in %s", ErrInvalidExtraBilling, item.Count, raw)
		}
	}
	return items, nil
}

func parseMeta(records []metaRecord, month period.Month) MetaIndex {
	index := NewMetaIndex(month.Label())
	for i, rec := range records {
		if normalizeMonth(rec.Month) != month.Label() {
			continue
		}
		row := MetaRow{
			Name:  strings.TrimSpace(rec.Process),
			Month: normalizeMonth(rec.Month),
		}
		var err error
		if row.FTECap, err = decimal.NewFromString(strings.TrimSpace(rec.FTECap)); err != nil || row.FTECap.IsNegative() {
			log.Warnf("meta.csv row %d (%s): invalid FTE Cap %q, skipping", i+2, row.Name, rec.FTECap)
			continue
		}
		// A zero Mandays is kept so the process is reported as misconfigured, not missing.
		if row.Mandays, err = decimal.NewFromString(strings.TrimSpace(rec.Mandays)); err != nil {
			log.Warnf("meta.csv row %d (%s): invalid Mandays %q, skipping", i+2, row.Name, rec.Mandays)
			continue
		}
		if !index.add(row) {
			log.Warnf("meta.csv has more than one row for %s in %s, keeping the first", row.Name, row.Month)
		}
	}
	return index
}

func parseCosts(records []costRecord) CostIndex {
	index := NewCostIndex()
	for i, rec := range records {
		cost, err := decimal.NewFromString(strings.TrimSpace(rec.Cost))
		if err != nil {
			log.Warnf("cost.csv row %d: invalid Cost %q, skipping", i+2, rec.Cost)
			continue
		}
		index.add(CostRow{
			EmpCode:  strings.TrimSpace(rec.EmpCode),
			Category: strings.TrimSpace(rec.Category),
			Process:  strings.TrimSpace(rec.Process),
			Month:    normalizeMonth(rec.Month),
			Cost:     cost,
		})
	}
	return index
}
