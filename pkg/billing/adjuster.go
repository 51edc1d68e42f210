package billing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// RateAdjuster scales the rates and extra billing costs of a process before any
// computation.
type RateAdjuster interface {
	Adjust(process string, rate decimal.Decimal) decimal.Decimal
}

// NoAdjustment leaves every rate untouched.
type NoAdjustment struct{}

func (NoAdjustment) Adjust(_ string, rate decimal.Decimal) decimal.Decimal {
	return rate
}

// PercentUplift raises the rates of named processes by a percentage. Names match
// case-insensitively.
type PercentUplift map[string]decimal.Decimal

// ParseUplifts builds a PercentUplift from process name to percent strings ("7.5").
func ParseUplifts(raw map[string]string) (PercentUplift, error) {
	uplift := make(PercentUplift, len(raw))
	for process, percent := range raw {
		p, err := decimal.NewFromString(strings.TrimSpace(percent))
		if err != nil {
			return nil, fmt.Errorf("invalid uplift for %s: %w", process, err)
		}
		uplift[strings.ToUpper(strings.TrimSpace(process))] = p
	}
	return uplift, nil
}

func (u PercentUplift) Adjust(process string, rate decimal.Decimal) decimal.Decimal {
	percent, ok := u[strings.ToUpper(process)]
	if !ok {
		return rate
	}
	return rate.Mul(hundred.Add(percent)).Div(hundred)
}
