package billing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/klokku/revenue/pkg/headcount"
	"github.com/klokku/revenue/pkg/reference"
	"github.com/shopspring/decimal"
)

// Mode is the billing configuration selected for a process from its Cost1 value.
type Mode int

const (
	// ModeSingle bills every employee of the process at one rate.
	ModeSingle Mode = iota
	// ModeBlended collapses a $-separated Cost1 into one employee weighted rate.
	ModeBlended
	// ModeCategories bills each cost category at its own rate, cap and mandays.
	ModeCategories
)

func (m Mode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModeBlended:
		return "blended"
	case ModeCategories:
		return "categories"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

type DisplayPayPolicy string

const (
	DisplayPayMean     DisplayPayPolicy = "mean"
	DisplayPayWeighted DisplayPayPolicy = "weighted"
)

type DuplicatePolicy string

const (
	DuplicateFirst  DuplicatePolicy = "first"
	DuplicateReject DuplicatePolicy = "reject"
)

// ParseDisplayPayPolicy accepts "mean" or "weighted"; empty means mean.
func ParseDisplayPayPolicy(s string) (DisplayPayPolicy, error) {
	switch p := DisplayPayPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DisplayPayMean, nil
	case DisplayPayMean, DisplayPayWeighted:
		return p, nil
	default:
		return "", fmt.Errorf("unknown display pay policy %q", s)
	}
}

// ParseDuplicatePolicy accepts "first" or "reject"; empty means first.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch p := DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DuplicateFirst, nil
	case DuplicateFirst, DuplicateReject:
		return p, nil
	default:
		return "", fmt.Errorf("unknown duplicate membership policy %q", s)
	}
}

var ErrMetaNotFound = errors.New("no meta row for the target month")
var ErrInvalidMandays = errors.New("mandays must be greater than zero")
var ErrNoCostRows = errors.New("no cost rows match the allowed rates")
var ErrDuplicateMembership = errors.New("employee belongs to more than one cost category")
var ErrInvalidProcess = errors.New("invalid process configuration")

// SkipError marks a configuration problem that excludes one process from the report
// without aborting the run.
type SkipError struct {
	Process string
	Err     error
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("process %s skipped: %v", e.Process, e.Err)
}

func (e *SkipError) Unwrap() error {
	return e.Err
}

func skip(process string, format string, args ...any) error {
	return &SkipError{Process: process, Err: fmt.Errorf(format, args...)}
}

// Category is a group of employees billed at the same rate under a category's own meta.
type Category struct {
	Name    string
	Rate    decimal.Decimal
	Members headcount.Members
	Meta    reference.MetaRow
}

// Plan is everything the revenue calculator needs to bill a process for a month.
type Plan struct {
	Process reference.ProcessConfig
	Mode    Mode
	// Rate and Meta drive single and blended modes.
	Rate decimal.Decimal
	Meta reference.MetaRow
	// Categories drive categories mode, ordered by name. Only categories with meta are kept.
	Categories []Category
	ExtraTotal decimal.Decimal
	Target     decimal.Decimal

	// Display values are reported as-is and never used in arithmetic.
	DisplayPay     decimal.Decimal
	DisplayFTECap  decimal.Decimal
	DisplayMandays decimal.NullDecimal
}
