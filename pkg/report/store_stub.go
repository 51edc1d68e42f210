package report

import (
	"context"
	"fmt"
	"slices"

	"github.com/klokku/revenue/pkg/period"
)

type StoreStub struct {
	runs map[string][]Run
	rows map[string][]Record
	// Err is returned by Save when set.
	Err error
}

func NewStoreStub() *StoreStub {
	return &StoreStub{runs: map[string][]Run{}, rows: map[string][]Record{}}
}

func (s *StoreStub) Save(ctx context.Context, run Run, records []Record) error {
	if s.Err != nil {
		return s.Err
	}
	s.runs[run.Month] = append(s.runs[run.Month], run)
	s.rows[run.Month] = slices.Clone(records)
	return nil
}

func (s *StoreStub) ListRows(ctx context.Context, month period.Month) ([]Record, error) {
	return slices.Clone(s.rows[month.String()]), nil
}

func (s *StoreStub) LatestRun(ctx context.Context, month period.Month) (Run, error) {
	runs := s.runs[month.String()]
	if len(runs) == 0 {
		return Run{}, fmt.Errorf("%w %s", ErrRunNotFound, month)
	}
	return runs[len(runs)-1], nil
}

func (s *StoreStub) Cleanup() {
	s.runs = map[string][]Run{}
	s.rows = map[string][]Record{}
	s.Err = nil
}
