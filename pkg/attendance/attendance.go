package attendance

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// DayLayout is the canonical day format used for every lookup after normalization.
const DayLayout = "2006-01-02"

// RawRecord is a ledger row as exported upstream. The quarantine file uses the same schema.
type RawRecord struct {
	EmpCode string `csv:"EmpCode"`
	Date    string `csv:"Date"`
	Process string `csv:"Process"`
	Minutes string `csv:"Minutes"`
}

// Record is a validated attendance row for the target month.
type Record struct {
	EmpCode string
	Date    time.Time
	Process string
	Minutes decimal.Decimal
}

func (r Record) Day() string {
	return r.Date.Format(DayLayout)
}

// RecordKey is unique within a Ledger: rows sharing it are merged by summing minutes
// before classification, so 250 and 130 minutes on one day count as one full day (1.0)
// where classifying each row on its own would give 1.5.
type RecordKey struct {
	EmpCode string
	Day     string
	Process string
}

// ProcessDay addresses the attendance of one process on one day.
type ProcessDay struct {
	Process string
	Day     string
}

// Ledger is the normalized attendance of a single month.
type Ledger struct {
	// Days holds every distinct day with attendance, ascending.
	Days        []string
	Quarantined []RawRecord
	// Excluded counts parseable rows that fell outside the target month.
	Excluded int
	// QuarantineFile is the path the quarantined rows were written to, if any.
	QuarantineFile string

	byProcessDay map[ProcessDay][]Record
	lastDay      map[string]string
	size         int
}

// Records returns the attendance of a process on a day, in ledger order.
func (l *Ledger) Records(process, day string) []Record {
	return l.byProcessDay[ProcessDay{Process: process, Day: day}]
}

// HasProcess reports whether the process has attendance in the month.
func (l *Ledger) HasProcess(process string) bool {
	_, ok := l.lastDay[process]
	return ok
}

// DaysFor returns the ledger days a process is reported on: every day of the month's day
// set up to and including the process's last day with attendance.
func (l *Ledger) DaysFor(process string) []string {
	last, ok := l.lastDay[process]
	if !ok {
		return nil
	}
	end, _ := slices.BinarySearch(l.Days, last)
	return l.Days[:end+1]
}

// Len is the number of merged records.
func (l *Ledger) Len() int {
	return l.size
}
