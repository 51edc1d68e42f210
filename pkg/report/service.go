package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/klokku/revenue/internal/event_bus"
	"github.com/klokku/revenue/internal/utils"
	"github.com/klokku/revenue/pkg/attendance"
	"github.com/klokku/revenue/pkg/billing"
	"github.com/klokku/revenue/pkg/period"
	"github.com/klokku/revenue/pkg/reference"
	"github.com/klokku/revenue/pkg/revenue"
	log "github.com/sirupsen/logrus"
)

var ErrStoreDisabled = errors.New("report store is not enabled")

const reasonNoAttendance = "no attendance rows for the month"

type ReferenceLoader interface {
	Load(month period.Month) (*reference.Tables, error)
}

type LedgerSource interface {
	Load(month period.Month) (*attendance.Ledger, error)
}

type Options struct {
	Billing     billing.Options
	Adjuster    billing.RateAdjuster
	ExtraPolicy revenue.ExtraPolicy
}

type Service interface {
	// Generate computes, writes and stores the report of month.
	Generate(ctx context.Context, month period.Month) (Summary, error)
	// Report returns the stored run and rows of month.
	Report(ctx context.Context, month period.Month) (Run, []Record, error)
}

type ServiceImpl struct {
	refs     ReferenceLoader
	ledger   LedgerSource
	emitter  *Emitter
	store    Store
	eventBus *event_bus.EventBus
	clock    utils.Clock
	opts     Options
}

// NewService builds the report service. store may be nil when persistence is disabled.
func NewService(
	refs ReferenceLoader,
	ledger LedgerSource,
	emitter *Emitter,
	store Store,
	eventBus *event_bus.EventBus,
	clock utils.Clock,
	opts Options,
) *ServiceImpl {
	return &ServiceImpl{
		refs:     refs,
		ledger:   ledger,
		emitter:  emitter,
		store:    store,
		eventBus: eventBus,
		clock:    clock,
		opts:     opts,
	}
}

func (s *ServiceImpl) Generate(ctx context.Context, month period.Month) (Summary, error) {
	summary := Summary{
		RunID:     uuid.NewString(),
		Month:     month,
		CreatedAt: s.clock.Now(),
		Processes: []string{},
		Skipped:   []Skipped{},
	}
	logger := log.WithFields(log.Fields{"run": summary.RunID, "month": month.String()})
	logger.Info("Generating revenue report")

	tables, err := s.refs.Load(month)
	if err != nil {
		return Summary{}, fmt.Errorf("could not load reference tables: %w", err)
	}
	logger.Debugf("Resolving %d processes", len(tables.Processes))

	ledger, err := s.ledger.Load(month)
	if err != nil {
		return Summary{}, fmt.Errorf("could not load attendance: %w", err)
	}
	summary.Quarantined = len(ledger.Quarantined)
	summary.Excluded = ledger.Excluded
	summary.QuarantineFile = ledger.QuarantineFile

	resolver := billing.NewResolver(tables, month, s.opts.Adjuster, s.opts.Billing)
	calculator := revenue.NewCalculator(month, s.opts.ExtraPolicy)

	var rows []revenue.Row
	for _, p := range tables.Processes {
		if err := ctx.Err(); err != nil {
			return Summary{}, err
		}

		plan, err := resolver.Resolve(p)
		var skipErr *billing.SkipError
		if errors.As(err, &skipErr) {
			logger.Warn(skipErr.Error())
			s.skip(ctx, &summary, p.Process, skipErr.Err.Error())
			continue
		}
		if err != nil {
			return Summary{}, err
		}

		processRows := calculator.Compute(plan, ledger)
		if len(processRows) == 0 {
			logger.Infof("No attendance for %s, skipping", p.Process)
			s.skip(ctx, &summary, p.Process, reasonNoAttendance)
			continue
		}
		logger.Debugf("%s billed in %s mode over %d days", p.Process, plan.Mode, len(processRows))
		rows = append(rows, processRows...)
		summary.Processes = append(summary.Processes, p.Process)
	}

	records := NewRecords(rows)
	path, err := s.emitter.WriteFile(month, records)
	if err != nil {
		return Summary{}, err
	}
	summary.Rows = len(records)
	summary.ReportFile = path
	logger.Infof("Revenue report written to %s (%d rows, %d processes skipped)", path, len(records), len(summary.Skipped))

	if s.store != nil {
		run := Run{
			ID:        summary.RunID,
			Month:     month.String(),
			CreatedAt: summary.CreatedAt,
			Rows:      summary.Rows,
			Skipped:   len(summary.Skipped),
		}
		if err := s.store.Save(ctx, run, records); err != nil {
			return Summary{}, fmt.Errorf("could not store report: %w", err)
		}
	}

	err = s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.ReportWrittenType, event_bus.ReportWritten{
		RunID: summary.RunID,
		Month: month.String(),
		Path:  path,
		Rows:  summary.Rows,
	}))
	if err != nil {
		logger.Errorf("Report written but not announced: %v", err)
	}

	return summary, nil
}

func (s *ServiceImpl) skip(ctx context.Context, summary *Summary, process, reason string) {
	summary.Skipped = append(summary.Skipped, Skipped{Process: process, Reason: reason})
	err := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.ProcessSkippedType, event_bus.ProcessSkipped{
		RunID:   summary.RunID,
		Month:   summary.Month.String(),
		Process: process,
		Reason:  reason,
	}))
	if err != nil {
		log.Warnf("Failed to publish skip of %s: %v", process, err)
	}
}

func (s *ServiceImpl) Report(ctx context.Context, month period.Month) (Run, []Record, error) {
	if s.store == nil {
		return Run{}, nil, ErrStoreDisabled
	}
	run, err := s.store.LatestRun(ctx, month)
	if err != nil {
		return Run{}, nil, err
	}
	records, err := s.store.ListRows(ctx, month)
	if err != nil {
		return Run{}, nil, err
	}
	return run, records, nil
}
