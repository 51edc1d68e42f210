package attendance

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/klokku/revenue/internal/csvtable"
	"github.com/klokku/revenue/pkg/period"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// DateLayout is the upstream MM-DD-YYYY format. Single digit months and days are accepted.
const DateLayout = "1-2-2006"

var ErrLedgerNotFound = errors.New("attendance ledger not found")
var ErrEmptyLedger = errors.New("no attendance rows for the target month")
var ErrCorruptDate = errors.New("attendance dated before 2000-01-01, upstream date format is broken")

var ledgerColumns = []string{"EmpCode", "Date", "Process", "Minutes"}

var earliestDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// ReadLedger reads the attendance export at path.
func ReadLedger(path string) ([]RawRecord, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrLedgerNotFound, path)
		}
		return nil, err
	}
	var rows []RawRecord
	if err := csvtable.ReadFile(path, ledgerColumns, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Normalize validates raw rows against the target month. Rows with an unparseable date or
// minutes value are quarantined; rows from other months are excluded.
func Normalize(rows []RawRecord, month period.Month) (*Ledger, error) {
	ledger := &Ledger{
		byProcessDay: map[ProcessDay][]Record{},
		lastDay:      map[string]string{},
	}

	merged := map[RecordKey]int{}
	var records []Record
	for _, raw := range rows {
		date, err := time.Parse(DateLayout, strings.TrimSpace(raw.Date))
		if err != nil {
			log.Debugf("Quarantining row with unparseable date %q (%s, %s)", raw.Date, raw.EmpCode, raw.Process)
			ledger.Quarantined = append(ledger.Quarantined, raw)
			continue
		}
		minutes, err := decimal.NewFromString(strings.TrimSpace(raw.Minutes))
		if err != nil || minutes.IsNegative() {
			log.Debugf("Quarantining row with invalid minutes %q (%s, %s)", raw.Minutes, raw.EmpCode, raw.Process)
			ledger.Quarantined = append(ledger.Quarantined, raw)
			continue
		}
		if !month.Contains(date) {
			ledger.Excluded++
			continue
		}

		rec := Record{
			EmpCode: strings.TrimSpace(raw.EmpCode),
			Date:    date,
			Process: strings.TrimSpace(raw.Process),
			Minutes: minutes,
		}
		key := RecordKey{EmpCode: rec.EmpCode, Day: rec.Day(), Process: rec.Process}
		if idx, ok := merged[key]; ok {
			records[idx].Minutes = records[idx].Minutes.Add(rec.Minutes)
			continue
		}
		merged[key] = len(records)
		records = append(records, rec)
	}

	if len(ledger.Quarantined) > 0 {
		log.Warnf("Quarantined %d attendance rows with invalid values", len(ledger.Quarantined))
	}
	if ledger.Excluded > 0 {
		log.Infof("Excluded %d attendance rows outside %s", ledger.Excluded, month)
	}
	if len(records) == 0 {
		return ledger, fmt.Errorf("%w: %s", ErrEmptyLedger, month)
	}
	if lo.SomeBy(records, func(r Record) bool { return r.Date.Before(earliestDate) }) {
		return ledger, ErrCorruptDate
	}

	for _, rec := range records {
		key := ProcessDay{Process: rec.Process, Day: rec.Day()}
		ledger.byProcessDay[key] = append(ledger.byProcessDay[key], rec)
		if rec.Day() > ledger.lastDay[rec.Process] {
			ledger.lastDay[rec.Process] = rec.Day()
		}
	}
	ledger.Days = lo.Uniq(lo.Map(records, func(r Record, _ int) string { return r.Day() }))
	slices.Sort(ledger.Days)
	ledger.size = len(records)
	return ledger, nil
}
