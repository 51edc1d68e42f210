package revenue

import (
	"time"

	"github.com/klokku/revenue/pkg/attendance"
	"github.com/klokku/revenue/pkg/billing"
	"github.com/klokku/revenue/pkg/headcount"
	"github.com/klokku/revenue/pkg/period"
	"github.com/shopspring/decimal"
)

type Calculator struct {
	policy      ExtraPolicy
	daysInMonth decimal.Decimal
}

func NewCalculator(month period.Month, policy ExtraPolicy) *Calculator {
	return &Calculator{policy: policy, daysInMonth: decimal.NewFromInt(int64(month.Days()))}
}

// DailyTarget pro-rates the plan target over the calendar days of the month.
func (c *Calculator) DailyTarget(plan billing.Plan) decimal.Decimal {
	return plan.Target.Div(c.daysInMonth)
}

// Compute produces the rows of one process in ascending day order. Plans always carry
// positive mandays; a process absent from the ledger yields no rows.
func (c *Calculator) Compute(plan billing.Plan, ledger *attendance.Ledger) []Row {
	if !ledger.HasProcess(plan.Process.Process) {
		return nil
	}
	days := ledger.DaysFor(plan.Process.Process)

	dailyTarget := c.DailyTarget(plan)
	mtd := decimal.Zero
	rows := make([]Row, 0, len(days))
	for _, day := range days {
		records := ledger.Records(plan.Process.Process, day)

		var fte, revenue, billable decimal.Decimal
		if plan.Mode == billing.ModeCategories {
			fte, revenue, billable = c.categoriesDay(plan, records)
		} else {
			fte, revenue, billable = c.singleDay(plan, records)
		}
		mtd = mtd.Add(billable)

		date, _ := time.Parse(attendance.DayLayout, day)
		rows = append(rows, Row{
			Date:            date,
			Process:         plan.Process.Process,
			Location:        plan.Process.Location,
			ClusterHead:     plan.Process.ClusterHead,
			Pay:             plan.DisplayPay,
			BillableMinutes: plan.Process.Billable,
			BillableFTECap:  plan.DisplayFTECap,
			TargetRevenue:   plan.Target,
			Mandays:         plan.DisplayMandays,
			FTE:             fte,
			Revenue:         revenue,
			BillableRevenue: billable,
			MTD:             mtd,
			Deficit:         Deficit(dailyTarget, revenue),
		})
	}
	return rows
}

func (c *Calculator) singleDay(plan billing.Plan, records []attendance.Record) (fte, revenue, billable decimal.Decimal) {
	extra := decimal.Zero
	if c.policy == ExtraDaily {
		extra = plan.ExtraTotal
	}
	fte = headcount.Count(records, plan.Process.Billable, nil)
	revenue = DayRevenue(fte, plan.Rate, extra, plan.Meta.Mandays)
	billable = DayRevenue(decimal.Min(fte, plan.Meta.FTECap), plan.Rate, extra, plan.Meta.Mandays)
	return fte, revenue, billable
}

// categoriesDay sums each category's contribution, each divided by its own mandays.
func (c *Calculator) categoriesDay(plan billing.Plan, records []attendance.Record) (fte, revenue, billable decimal.Decimal) {
	fte, revenue, billable = decimal.Zero, decimal.Zero, decimal.Zero
	for _, category := range plan.Categories {
		count := headcount.Count(records, plan.Process.Billable, category.Members)
		fte = fte.Add(count)
		revenue = revenue.Add(DayRevenue(count, category.Rate, decimal.Zero, category.Meta.Mandays))
		billable = billable.Add(DayRevenue(decimal.Min(count, category.Meta.FTECap), category.Rate, decimal.Zero, category.Meta.Mandays))
	}
	return fte, revenue, billable
}

// DayRevenue is ceil((fte × rate + extra) / mandays), or zero when nobody is billable.
func DayRevenue(fte, rate, extra, mandays decimal.Decimal) decimal.Decimal {
	if !fte.IsPositive() || !mandays.IsPositive() {
		return decimal.Zero
	}
	return fte.Mul(rate).Add(extra).Div(mandays).Ceil()
}

// Deficit is the shortfall of revenue against the daily target, rounded to 3 places.
// Negative values mean the day beat its target.
func Deficit(dailyTarget, revenue decimal.Decimal) decimal.Decimal {
	if !dailyTarget.IsPositive() {
		return decimal.Zero
	}
	return dailyTarget.Sub(revenue).Div(dailyTarget).Round(3)
}
