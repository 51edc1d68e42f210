package report

import (
	"time"

	"github.com/klokku/revenue/pkg/period"
	"github.com/klokku/revenue/pkg/revenue"
)

// DateLayout is the day format of the report (DD-MM-YYYY).
const DateLayout = "02-01-2006"

// Record is one report line in its published form. Field order is the column order.
type Record struct {
	Date            string `csv:"Date" json:"date"`
	Process         string `csv:"Process" json:"process"`
	Location        string `csv:"Location" json:"location"`
	ClusterHead     string `csv:"ClusterHead" json:"clusterHead"`
	Pay             string `csv:"Pay" json:"pay"`
	BillableMinutes string `csv:"BillableMinutes" json:"billableMinutes"`
	BillableFTECap  string `csv:"BillableFTECap" json:"billableFteCap"`
	TargetRevenue   string `csv:"TargetRevenue" json:"targetRevenue"`
	Mandays         string `csv:"Mandays" json:"mandays"`
	Revenue         string `csv:"Revenue" json:"revenue"`
	BillableRevenue string `csv:"BillableRevenue" json:"billableRevenue"`
	MTD             string `csv:"MTD" json:"mtd"`
	Deficit         string `csv:"Deficit" json:"deficit"`
}

func NewRecord(row revenue.Row) Record {
	mandays := ""
	if row.Mandays.Valid {
		mandays = row.Mandays.Decimal.String()
	}
	return Record{
		Date:            row.Date.Format(DateLayout),
		Process:         row.Process,
		Location:        row.Location,
		ClusterHead:     row.ClusterHead,
		Pay:             row.Pay.Round(2).String(),
		BillableMinutes: row.BillableMinutes.String(),
		BillableFTECap:  row.BillableFTECap.String(),
		TargetRevenue:   row.TargetRevenue.String(),
		Mandays:         mandays,
		Revenue:         row.Revenue.String(),
		BillableRevenue: row.BillableRevenue.String(),
		MTD:             row.MTD.String(),
		Deficit:         row.Deficit.Round(3).String(),
	}
}

func NewRecords(rows []revenue.Row) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, NewRecord(row))
	}
	return records
}

// Skipped names a process left out of a run and why.
type Skipped struct {
	Process string `json:"process"`
	Reason  string `json:"reason"`
}

// Summary describes one finished run.
type Summary struct {
	RunID          string       `json:"runId"`
	Month          period.Month `json:"month"`
	CreatedAt      time.Time    `json:"createdAt"`
	Rows           int          `json:"rows"`
	Processes      []string     `json:"processes"`
	Skipped        []Skipped    `json:"skipped"`
	Quarantined    int          `json:"quarantined"`
	Excluded       int          `json:"excluded"`
	ReportFile     string       `json:"reportFile"`
	QuarantineFile string       `json:"quarantineFile,omitempty"`
}

// Run is the stored header of a run.
type Run struct {
	ID        string    `json:"runId"`
	Month     string    `json:"month"`
	CreatedAt time.Time `json:"createdAt"`
	Rows      int       `json:"rows"`
	Skipped   int       `json:"skipped"`
}
