// Package headcount converts logged minutes into fractional full-time equivalents.
//
// An employee counts 1 FTE for a day when their minutes reach the billable threshold,
// 0.5 FTE when they reach half of it, and nothing below that.
package headcount

import (
	"github.com/klokku/revenue/pkg/attendance"
	"github.com/shopspring/decimal"
)

var (
	Full = decimal.NewFromInt(1)
	Half = decimal.New(5, -1)
	two  = decimal.NewFromInt(2)
)

// Members is a set of employee codes. A nil set matches every employee.
type Members map[string]struct{}

func NewMembers(empCodes ...string) Members {
	m := make(Members, len(empCodes))
	for _, code := range empCodes {
		m[code] = struct{}{}
	}
	return m
}

func (m Members) Contains(empCode string) bool {
	if m == nil {
		return true
	}
	_, ok := m[empCode]
	return ok
}

func (m Members) Add(empCode string) {
	m[empCode] = struct{}{}
}

// Classify returns the FTE contribution of one employee-day.
func Classify(minutes, threshold decimal.Decimal) decimal.Decimal {
	if minutes.GreaterThanOrEqual(threshold) {
		return Full
	}
	if minutes.GreaterThanOrEqual(threshold.Div(two)) {
		return Half
	}
	return decimal.Zero
}

// Count sums the FTE of the day's records that belong to members, rounded to 2 places.
func Count(records []attendance.Record, threshold decimal.Decimal, members Members) decimal.Decimal {
	total := decimal.Zero
	for _, rec := range records {
		if !members.Contains(rec.EmpCode) {
			continue
		}
		total = total.Add(Classify(rec.Minutes, threshold))
	}
	return total.Round(2)
}
