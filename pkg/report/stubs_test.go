package report

import (
	"strings"
	"testing"

	"github.com/klokku/revenue/pkg/attendance"
	"github.com/klokku/revenue/pkg/period"
	"github.com/klokku/revenue/pkg/reference"
	"github.com/stretchr/testify/require"
)

type referenceLoaderStub struct {
	tables *reference.Tables
	err    error
}

func (s *referenceLoaderStub) Load(month period.Month) (*reference.Tables, error) {
	return s.tables, s.err
}

type ledgerSourceStub struct {
	ledger *attendance.Ledger
	err    error
}

func (s *ledgerSourceStub) Load(month period.Month) (*attendance.Ledger, error) {
	return s.ledger, s.err
}

func newReferenceLoaderStub(t *testing.T, mapCSV, metaCSV, costCSV string) *referenceLoaderStub {
	t.Helper()
	tables, err := reference.Parse(strings.NewReader(mapCSV), strings.NewReader(metaCSV), strings.NewReader(costCSV),
		june, reference.Options{Categories: true})
	require.NoError(t, err)
	return &referenceLoaderStub{tables: tables}
}

func newLedgerSourceStub(t *testing.T, rows ...attendance.RawRecord) *ledgerSourceStub {
	t.Helper()
	ledger, err := attendance.Normalize(rows, june)
	require.NoError(t, err)
	return &ledgerSourceStub{ledger: ledger}
}

func raw(emp, date, process, minutes string) attendance.RawRecord {
	return attendance.RawRecord{EmpCode: emp, Date: date, Process: process, Minutes: minutes}
}
