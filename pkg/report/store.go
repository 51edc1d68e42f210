package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/klokku/revenue/pkg/period"
	log "github.com/sirupsen/logrus"
)

var ErrRunNotFound = errors.New("no report run for month")

// timestampLayout sorts lexically in time order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// Store keeps report rows per month. Saving a month again replaces its rows.
type Store interface {
	Save(ctx context.Context, run Run, records []Record) error
	ListRows(ctx context.Context, month period.Month) ([]Record, error)
	LatestRun(ctx context.Context, month period.Month) (Run, error)
}

type StoreImpl struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *StoreImpl {
	return &StoreImpl{db: db}
}

func (s *StoreImpl) Save(ctx context.Context, run Run, records []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO report_run (id, month, created_at, row_count, skipped_count) VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.Month, run.CreatedAt.UTC().Format(timestampLayout), run.Rows, run.Skipped)
	if err != nil {
		err := fmt.Errorf("could not store run %s: %w", run.ID, err)
		log.Error(err)
		return err
	}

	query := `INSERT INTO report_row (
					month,
					process,
					day,
					seq,
					run_id,
					location,
					cluster_head,
					pay,
					billable_minutes,
					billable_fte_cap,
					target_revenue,
					mandays,
					revenue,
					billable_revenue,
					mtd,
					deficit
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
				ON CONFLICT (month, process, day) DO UPDATE SET
					seq = excluded.seq,
					run_id = excluded.run_id,
					location = excluded.location,
					cluster_head = excluded.cluster_head,
					pay = excluded.pay,
					billable_minutes = excluded.billable_minutes,
					billable_fte_cap = excluded.billable_fte_cap,
					target_revenue = excluded.target_revenue,
					mandays = excluded.mandays,
					revenue = excluded.revenue,
					billable_revenue = excluded.billable_revenue,
					mtd = excluded.mtd,
					deficit = excluded.deficit`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("could not prepare row insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		day, err := time.Parse(DateLayout, r.Date)
		if err != nil {
			return fmt.Errorf("invalid report date %q: %w", r.Date, err)
		}
		_, err = stmt.ExecContext(ctx,
			run.Month,
			r.Process,
			day.Format(time.DateOnly),
			i,
			run.ID,
			r.Location,
			r.ClusterHead,
			r.Pay,
			r.BillableMinutes,
			r.BillableFTECap,
			r.TargetRevenue,
			r.Mandays,
			r.Revenue,
			r.BillableRevenue,
			r.MTD,
			r.Deficit,
		)
		if err != nil {
			err := fmt.Errorf("could not store row %s %s: %w", r.Process, r.Date, err)
			log.Error(err)
			return err
		}
	}

	// rows of processes or days that disappeared since the previous run
	if _, err := tx.ExecContext(ctx, `DELETE FROM report_row WHERE month = $1 AND run_id <> $2`, run.Month, run.ID); err != nil {
		return fmt.Errorf("could not remove stale rows: %w", err)
	}

	return tx.Commit()
}

func (s *StoreImpl) ListRows(ctx context.Context, month period.Month) ([]Record, error) {
	query := `SELECT day, process, location, cluster_head, pay, billable_minutes, billable_fte_cap,
					target_revenue, mandays, revenue, billable_revenue, mtd, deficit
				FROM report_row WHERE month = $1 ORDER BY seq`
	rows, err := s.db.QueryContext(ctx, query, month.String())
	if err != nil {
		err := fmt.Errorf("could not query report rows: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var r Record
		var day string
		if err := rows.Scan(
			&day,
			&r.Process,
			&r.Location,
			&r.ClusterHead,
			&r.Pay,
			&r.BillableMinutes,
			&r.BillableFTECap,
			&r.TargetRevenue,
			&r.Mandays,
			&r.Revenue,
			&r.BillableRevenue,
			&r.MTD,
			&r.Deficit,
		); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		date, err := time.Parse(time.DateOnly, day)
		if err != nil {
			return nil, fmt.Errorf("invalid stored day %q: %w", day, err)
		}
		r.Date = date.Format(DateLayout)
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *StoreImpl) LatestRun(ctx context.Context, month period.Month) (Run, error) {
	query := `SELECT id, month, created_at, row_count, skipped_count FROM report_run
				WHERE month = $1 ORDER BY created_at DESC LIMIT 1`
	var run Run
	var createdAt string
	err := s.db.QueryRowContext(ctx, query, month.String()).Scan(&run.ID, &run.Month, &createdAt, &run.Rows, &run.Skipped)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w %s", ErrRunNotFound, month)
	}
	if err != nil {
		return Run{}, fmt.Errorf("could not query report run: %w", err)
	}
	run.CreatedAt, err = time.Parse(timestampLayout, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("invalid run timestamp %q: %w", createdAt, err)
	}
	return run, nil
}
