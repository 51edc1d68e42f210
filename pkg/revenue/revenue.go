package revenue

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ExtraPolicy decides where a process's extra billing total is counted.
type ExtraPolicy string

const (
	// ExtraTarget adds extra billing to the target revenue only.
	ExtraTarget ExtraPolicy = "target"
	// ExtraDaily also adds it inside every day's revenue of single and blended processes.
	ExtraDaily ExtraPolicy = "daily"
)

func ParseExtraPolicy(s string) (ExtraPolicy, error) {
	switch p := ExtraPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ExtraTarget, nil
	case ExtraTarget, ExtraDaily:
		return p, nil
	default:
		return "", fmt.Errorf("unknown extra billing policy %q", s)
	}
}

// Row is the revenue of one process on one day.
type Row struct {
	Date        time.Time
	Process     string
	Location    string
	ClusterHead string
	// Pay, BillableFTECap and Mandays are display values of the billing plan.
	Pay             decimal.Decimal
	BillableMinutes decimal.Decimal
	BillableFTECap  decimal.Decimal
	TargetRevenue   decimal.Decimal
	Mandays         decimal.NullDecimal
	// FTE is the classified headcount of the day. It is not part of the report.
	FTE             decimal.Decimal
	Revenue         decimal.Decimal
	BillableRevenue decimal.Decimal
	MTD             decimal.Decimal
	Deficit         decimal.Decimal
}
