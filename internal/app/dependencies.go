package app

import (
	"database/sql"
	"fmt"

	"github.com/klokku/revenue/internal/config"
	"github.com/klokku/revenue/internal/event_bus"
	"github.com/klokku/revenue/internal/utils"
	"github.com/klokku/revenue/pkg/attendance"
	"github.com/klokku/revenue/pkg/billing"
	"github.com/klokku/revenue/pkg/reference"
	"github.com/klokku/revenue/pkg/report"
	"github.com/klokku/revenue/pkg/revenue"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus

	ReferenceLoader *reference.Loader
	LedgerSource    *attendance.Source

	ReportEmitter *report.Emitter
	ReportStore   report.Store
	ReportService *report.ServiceImpl
	ReportHandler *report.Handler
}

// BuildDependencies wires the report pipeline. db is nil when persistence is disabled.
func BuildDependencies(db *sql.DB, cfg config.Application, clock utils.Clock) (*Dependencies, error) {
	opts, err := ReportOptions(cfg.Billing)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{}
	deps.Clock = clock
	deps.EventBus = event_bus.NewEventBus()

	deps.ReferenceLoader = reference.NewLoader(
		reference.Paths{Map: cfg.Paths.Map, Meta: cfg.Paths.Meta, Cost: cfg.Paths.Cost},
		reference.Options{Categories: cfg.Billing.Categories},
	)
	deps.LedgerSource = attendance.NewSource(cfg.Paths.Ledger, cfg.Paths.Quarantine)

	deps.ReportEmitter = report.NewEmitter(cfg.Paths.Report)
	if db != nil {
		deps.ReportStore = report.NewStore(db)
	}
	deps.ReportService = report.NewService(
		deps.ReferenceLoader,
		deps.LedgerSource,
		deps.ReportEmitter,
		deps.ReportStore,
		deps.EventBus,
		deps.Clock,
		opts,
	)
	deps.ReportHandler = report.NewHandler(deps.ReportService, deps.ReportEmitter)

	return deps, nil
}

// ReportOptions validates the billing configuration.
func ReportOptions(cfg config.Billing) (report.Options, error) {
	extra, err := revenue.ParseExtraPolicy(cfg.ExtraPolicy)
	if err != nil {
		return report.Options{}, fmt.Errorf("billing.extrapolicy: %w", err)
	}
	displayPay, err := billing.ParseDisplayPayPolicy(cfg.DisplayPay)
	if err != nil {
		return report.Options{}, fmt.Errorf("billing.displaypay: %w", err)
	}
	duplicates, err := billing.ParseDuplicatePolicy(cfg.Duplicates)
	if err != nil {
		return report.Options{}, fmt.Errorf("billing.duplicates: %w", err)
	}

	var adjuster billing.RateAdjuster = billing.NoAdjustment{}
	if len(cfg.Uplifts) > 0 {
		uplifts, err := billing.ParseUplifts(cfg.Uplifts)
		if err != nil {
			return report.Options{}, fmt.Errorf("billing.uplifts: %w", err)
		}
		adjuster = uplifts
	}

	return report.Options{
		Billing: billing.Options{
			Categories:  cfg.Categories,
			DisplayPay:  displayPay,
			Duplicates:  duplicates,
			StrictCosts: cfg.StrictCosts,
		},
		Adjuster:    adjuster,
		ExtraPolicy: extra,
	}, nil
}
