package period

import (
	"fmt"
	"strings"
	"time"
)

// Month identifies the calendar month a report is computed for.
type Month struct {
	Year  int
	Month time.Month
}

func NewMonth(year int, month time.Month) Month {
	return Month{Year: year, Month: month}
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a YYYY-MM string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q, expected YYYY-MM: %w", s, err)
	}
	return MonthOf(t), nil
}

// Label is the lower-case three letter abbreviation used by meta.csv and cost.csv ("jan").
func (m Month) Label() string {
	return strings.ToLower(m.Month.String()[:3])
}

// Suffix is the label followed by the year, as used in file names ("jan2025").
func (m Month) Suffix() string {
	return fmt.Sprintf("%s%d", m.Label(), m.Year)
}

func (m Month) First() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (m Month) Last() time.Time {
	return m.First().AddDate(0, 1, -1)
}

func (m Month) Days() int {
	return m.Last().Day()
}

// Contains reports whether t falls on a day of this month.
func (m Month) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Month
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Expand substitutes {month} in a path template with the month suffix.
func (m Month) Expand(template string) string {
	return strings.ReplaceAll(template, "{month}", m.Suffix())
}

func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Month) UnmarshalText(text []byte) error {
	parsed, err := ParseMonth(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
