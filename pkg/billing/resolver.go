package billing

import (
	"fmt"
	"slices"

	"github.com/klokku/revenue/pkg/headcount"
	"github.com/klokku/revenue/pkg/period"
	"github.com/klokku/revenue/pkg/reference"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type Options struct {
	// Categories enables per-category billing of $-separated Cost1 values. When disabled
	// those processes are billed at a blended rate.
	Categories  bool
	DisplayPay  DisplayPayPolicy
	Duplicates  DuplicatePolicy
	StrictCosts bool
}

// Resolver turns process configuration into billing plans for one month.
type Resolver struct {
	tables   *reference.Tables
	month    period.Month
	adjuster RateAdjuster
	opts     Options
}

func NewResolver(tables *reference.Tables, month period.Month, adjuster RateAdjuster, opts Options) *Resolver {
	if adjuster == nil {
		adjuster = NoAdjustment{}
	}
	return &Resolver{tables: tables, month: month, adjuster: adjuster, opts: opts}
}

// Resolve builds the plan of a process. A *SkipError means the process is left out of the
// report; any other error aborts the run.
func (r *Resolver) Resolve(p reference.ProcessConfig) (Plan, error) {
	if p.Err != nil {
		return Plan{}, &SkipError{Process: p.Process, Err: fmt.Errorf("%w: %v", ErrInvalidProcess, p.Err)}
	}

	plan := Plan{
		Process:    p,
		ExtraTotal: r.extraTotal(p),
	}

	switch {
	case !p.MultiRate:
		plan.Mode = ModeSingle
		plan.Rate = r.adjuster.Adjust(p.Process, p.Rate())
	case !r.opts.Categories:
		plan.Mode = ModeBlended
		rate, err := r.blendedRate(p)
		if err != nil {
			return Plan{}, err
		}
		plan.Rate = rate
	default:
		plan.Mode = ModeCategories
		if err := r.resolveCategories(p, &plan); err != nil {
			return Plan{}, err
		}
		return plan, nil
	}

	meta, ok := r.tables.Meta.Lookup(p.Process)
	if !ok {
		return Plan{}, skip(p.Process, "%w: %s", ErrMetaNotFound, r.month.Label())
	}
	if !meta.Mandays.IsPositive() {
		return Plan{}, skip(p.Process, "%w: got %s", ErrInvalidMandays, meta.Mandays)
	}
	plan.Meta = meta
	plan.Target = meta.FTECap.Mul(plan.Rate).Add(plan.ExtraTotal)
	plan.DisplayPay = plan.Rate
	plan.DisplayFTECap = meta.FTECap
	plan.DisplayMandays = decimal.NewNullDecimal(meta.Mandays)
	return plan, nil
}

func (r *Resolver) extraTotal(p reference.ProcessConfig) decimal.Decimal {
	total := decimal.Zero
	for _, item := range p.ExtraBilling {
		cost := r.adjuster.Adjust(p.Process, item.Cost)
		total = total.Add(cost.Mul(item.Count))
	}
	return total
}

// matchingCosts returns the month's cost rows of a process whose cost is one of the
// allowed Cost1 rates.
func (r *Resolver) matchingCosts(p reference.ProcessConfig) ([]reference.CostRow, error) {
	rows := lo.Filter(r.tables.Costs.ForProcess(p.Process, r.month.Label()), func(row reference.CostRow, _ int) bool {
		return lo.ContainsBy(p.Rates, func(rate decimal.Decimal) bool { return rate.Equal(row.Cost) })
	})
	if len(rows) > 0 {
		return rows, nil
	}
	if r.opts.StrictCosts {
		return nil, fmt.Errorf("%w: process=%s month=%s costs=%v", ErrNoCostRows, p.Process, r.month.Label(), p.Rates)
	}
	return nil, skip(p.Process, "%w: %v", ErrNoCostRows, p.Rates)
}

// blendedRate is the employee weighted average of the matching cost rows.
func (r *Resolver) blendedRate(p reference.ProcessConfig) (decimal.Decimal, error) {
	rows, err := r.matchingCosts(p)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Sum(decimal.Zero, lo.Map(rows, func(row reference.CostRow, _ int) decimal.Decimal { return row.Cost })...)
	average := total.Div(decimal.NewFromInt(int64(len(rows))))
	return r.adjuster.Adjust(p.Process, average), nil
}

func (r *Resolver) resolveCategories(p reference.ProcessConfig, plan *Plan) error {
	rows, err := r.matchingCosts(p)
	if err != nil {
		return err
	}

	byCategory := lo.GroupBy(lo.Filter(rows, func(row reference.CostRow, _ int) bool {
		if row.Category == "" {
			log.Warnf("Cost row of %s for %s has no category, ignoring", row.EmpCode, p.Process)
			return false
		}
		return true
	}), func(row reference.CostRow) string { return row.Category })
	names := lo.Keys(byCategory)
	slices.Sort(names)

	// categories without meta are dropped before members are assigned
	assigned := map[string]string{}
	plan.Target = plan.ExtraTotal
	plan.DisplayFTECap = decimal.Zero
	for _, name := range names {
		meta, ok := r.tables.Meta.Lookup(name)
		if !ok {
			log.Warnf("No meta row for category %s of %s in %s, skipping the category", name, p.Process, r.month.Label())
			continue
		}
		if !meta.Mandays.IsPositive() {
			return skip(p.Process, "%w: category %s got %s", ErrInvalidMandays, name, meta.Mandays)
		}

		group := byCategory[name]
		category := Category{
			Name:    name,
			Rate:    r.adjuster.Adjust(p.Process, group[0].Cost),
			Meta:    meta,
			Members: headcount.Members{},
		}
		for _, row := range group {
			if !row.Cost.Equal(group[0].Cost) {
				log.Warnf("Category %s of %s has more than one cost, billing at %s", name, p.Process, group[0].Cost)
			}
			if owner, taken := assigned[row.EmpCode]; taken && owner != name {
				if r.opts.Duplicates == DuplicateReject {
					return skip(p.Process, "%w: %s is in %s and %s", ErrDuplicateMembership, row.EmpCode, owner, name)
				}
				log.Warnf("%s: employee %s is in categories %s and %s, counting it in %s",
					p.Process, row.EmpCode, owner, name, owner)
				continue
			}
			assigned[row.EmpCode] = name
			category.Members.Add(row.EmpCode)
		}
		plan.Categories = append(plan.Categories, category)
		plan.DisplayFTECap = plan.DisplayFTECap.Add(meta.FTECap)
		plan.Target = plan.Target.Add(meta.FTECap.Mul(category.Rate))
	}
	if len(plan.Categories) == 0 {
		return skip(p.Process, "%w: none of the categories %v", ErrMetaNotFound, names)
	}
	plan.DisplayPay = displayPay(plan.Categories, r.opts.DisplayPay)
	plan.DisplayMandays = commonMandays(plan.Categories)
	return nil
}

func displayPay(categories []Category, policy DisplayPayPolicy) decimal.Decimal {
	if len(categories) == 0 {
		return decimal.Zero
	}
	if policy == DisplayPayWeighted {
		total, members := decimal.Zero, 0
		for _, c := range categories {
			total = total.Add(c.Rate.Mul(decimal.NewFromInt(int64(len(c.Members)))))
			members += len(c.Members)
		}
		if members == 0 {
			return decimal.Zero
		}
		return total.Div(decimal.NewFromInt(int64(members)))
	}
	rates := lo.Map(categories, func(c Category, _ int) decimal.Decimal { return c.Rate })
	return decimal.Avg(rates[0], rates[1:]...)
}

func commonMandays(categories []Category) decimal.NullDecimal {
	first := categories[0].Meta.Mandays
	for _, c := range categories[1:] {
		if !c.Meta.Mandays.Equal(first) {
			return decimal.NullDecimal{}
		}
	}
	return decimal.NewNullDecimal(first)
}
