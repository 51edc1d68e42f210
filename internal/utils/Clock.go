package utils

import (
	"time"

	"github.com/klokku/revenue/pkg/period"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (s SystemClock) Now() time.Time {
	return time.Now()
}

type MockClock struct {
	FixedNow time.Time
}

func (m *MockClock) Now() time.Time {
	return m.FixedNow
}

func (m *MockClock) SetNow(now time.Time) {
	m.FixedNow = now
}

// CurrentMonth is the month a report run defaults to when none is configured.
func CurrentMonth(clock Clock) period.Month {
	return period.MonthOf(clock.Now())
}

// ResolveMonth parses a YYYY-MM value, falling back to the current month when it is empty.
func ResolveMonth(value string, clock Clock) (period.Month, error) {
	if value == "" {
		return CurrentMonth(clock), nil
	}
	return period.ParseMonth(value)
}
