package revenue

import (
	"testing"
	"time"

	"github.com/klokku/revenue/pkg/attendance"
	"github.com/klokku/revenue/pkg/billing"
	"github.com/klokku/revenue/pkg/headcount"
	"github.com/klokku/revenue/pkg/period"
	"github.com/klokku/revenue/pkg/reference"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var june = period.NewMonth(2025, time.June)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func raw(emp, date, process, minutes string) attendance.RawRecord {
	return attendance.RawRecord{EmpCode: emp, Date: date, Process: process, Minutes: minutes}
}

func ledger(t *testing.T, rows ...attendance.RawRecord) *attendance.Ledger {
	t.Helper()
	l, err := attendance.Normalize(rows, june)
	require.NoError(t, err)
	return l
}

func singlePlan(process string, billable, rate, fteCap, mandays, extra string) billing.Plan {
	fte, days, r, e := dec(fteCap), dec(mandays), dec(rate), dec(extra)
	return billing.Plan{
		Process: reference.ProcessConfig{
			Process:     process,
			Location:    "Noida",
			ClusterHead: "Asha",
			Billable:    dec(billable),
			Rates:       []decimal.Decimal{r},
		},
		Mode:           billing.ModeSingle,
		Rate:           r,
		Meta:           reference.MetaRow{Name: process, Month: "jun", FTECap: fte, Mandays: days},
		ExtraTotal:     e,
		Target:         fte.Mul(r).Add(e),
		DisplayPay:     r,
		DisplayFTECap:  fte,
		DisplayMandays: decimal.NewNullDecimal(days),
	}
}

func TestCalculator_Single(t *testing.T) {
	// given
	plan := singlePlan("X", "240", "100", "2", "22", "0")
	l := ledger(t,
		raw("E1", "06-02-2025", "X", "250"),
		raw("E2", "06-02-2025", "X", "130"),
		raw("E1", "06-03-2025", "X", "250"),
		raw("E2", "06-03-2025", "X", "250"),
		raw("E3", "06-03-2025", "X", "130"),
	)
	calculator := NewCalculator(june, ExtraTarget)

	// when
	rows := calculator.Compute(plan, l)

	// then
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, "X", first.Process)
	assert.Equal(t, "Noida", first.Location)
	assert.Equal(t, "Asha", first.ClusterHead)
	assert.True(t, first.FTE.Equal(dec("1.5")))
	assert.True(t, first.Revenue.Equal(dec("7")), first.Revenue.String())
	assert.True(t, first.BillableRevenue.Equal(dec("7")), first.BillableRevenue.String())
	assert.True(t, first.MTD.Equal(dec("7")))
	// daily target 200/30
	assert.True(t, first.Deficit.Equal(dec("-0.05")), first.Deficit.String())

	second := rows[1]
	assert.True(t, second.FTE.Equal(dec("2.5")))
	assert.True(t, second.Revenue.Equal(dec("12")), second.Revenue.String())
	assert.True(t, second.BillableRevenue.Equal(dec("10")), second.BillableRevenue.String())
	assert.True(t, second.MTD.Equal(dec("17")))
	assert.True(t, second.TargetRevenue.Equal(dec("200")))
	assert.True(t, second.BillableFTECap.Equal(dec("2")))
	assert.True(t, second.Pay.Equal(dec("100")))
}

func TestCalculator_ExtraBilling(t *testing.T) {
	plan := singlePlan("T", "480", "1000", "1", "30", "500")
	l := ledger(t, raw("E1", "06-02-2025", "T", "480"))

	t.Run("should count extra billing in the target only", func(t *testing.T) {
		calculator := NewCalculator(june, ExtraTarget)

		rows := calculator.Compute(plan, l)

		require.Len(t, rows, 1)
		assert.True(t, plan.Target.Equal(dec("1500")))
		assert.True(t, calculator.DailyTarget(plan).Equal(dec("50")))
		// ceil(1000/30)
		assert.True(t, rows[0].Revenue.Equal(dec("34")), rows[0].Revenue.String())
		assert.True(t, rows[0].Deficit.Equal(dec("0.32")), rows[0].Deficit.String())
	})

	t.Run("should add extra billing to every day when daily", func(t *testing.T) {
		calculator := NewCalculator(june, ExtraDaily)

		rows := calculator.Compute(plan, l)

		require.Len(t, rows, 1)
		assert.True(t, rows[0].Revenue.Equal(dec("50")), rows[0].Revenue.String())
		assert.True(t, rows[0].BillableRevenue.Equal(dec("50")))
		assert.True(t, rows[0].Deficit.IsZero())
	})

	t.Run("should not bill extra on a day without billable headcount", func(t *testing.T) {
		calculator := NewCalculator(june, ExtraDaily)
		idle := ledger(t, raw("E1", "06-02-2025", "T", "100"))

		rows := calculator.Compute(plan, idle)

		require.Len(t, rows, 1)
		assert.True(t, rows[0].Revenue.IsZero())
		assert.True(t, rows[0].Deficit.Equal(dec("1")))
	})
}

func TestCalculator_Days(t *testing.T) {
	plan := singlePlan("X", "240", "100", "2", "22", "0")
	l := ledger(t,
		raw("E1", "06-02-2025", "X", "250"),
		raw("E9", "06-03-2025", "Y", "250"),
		raw("E1", "06-04-2025", "X", "250"),
		raw("E9", "06-05-2025", "Y", "250"),
	)
	calculator := NewCalculator(june, ExtraTarget)

	rows := calculator.Compute(plan, l)

	t.Run("should emit interior days without attendance as zero rows", func(t *testing.T) {
		require.Len(t, rows, 3)
		assert.Equal(t, 3, rows[1].Date.Day())
		assert.True(t, rows[1].Revenue.IsZero())
		assert.True(t, rows[1].BillableRevenue.IsZero())
		assert.True(t, rows[1].MTD.Equal(rows[0].MTD))
	})

	t.Run("should stop at the last day of the process", func(t *testing.T) {
		assert.Equal(t, 4, rows[len(rows)-1].Date.Day())
	})

	t.Run("should accumulate MTD as the running sum of billable revenue", func(t *testing.T) {
		sum := decimal.Zero
		for _, row := range rows {
			sum = sum.Add(row.BillableRevenue)
			assert.True(t, row.MTD.Equal(sum))
			assert.True(t, row.BillableRevenue.LessThanOrEqual(row.Revenue))
		}
	})

	t.Run("should produce no rows for a process absent from the ledger", func(t *testing.T) {
		assert.Empty(t, calculator.Compute(singlePlan("Z", "240", "100", "2", "22", "0"), l))
	})

	t.Run("should produce the same rows when run twice", func(t *testing.T) {
		assert.Equal(t, rows, calculator.Compute(plan, l))
	})
}

func TestCalculator_Categories(t *testing.T) {
	// given
	plan := billing.Plan{
		Process: reference.ProcessConfig{Process: "Multi", Billable: dec("480"), MultiRate: true},
		Mode:    billing.ModeCategories,
		Categories: []billing.Category{
			{
				Name:    "Junior",
				Rate:    dec("1000"),
				Members: headcount.NewMembers("E2", "E3"),
				Meta:    reference.MetaRow{Name: "Junior", FTECap: dec("3"), Mandays: dec("26")},
			},
			{
				Name:    "Senior",
				Rate:    dec("1500"),
				Members: headcount.NewMembers("E1"),
				Meta:    reference.MetaRow{Name: "Senior", FTECap: dec("1"), Mandays: dec("20")},
			},
		},
		Target: dec("4500"),
	}
	l := ledger(t,
		raw("E1", "06-02-2025", "Multi", "480"),
		raw("E2", "06-02-2025", "Multi", "480"),
		raw("E3", "06-02-2025", "Multi", "480"),
		raw("E4", "06-02-2025", "Multi", "480"),
	)
	calculator := NewCalculator(june, ExtraDaily)

	// when
	rows := calculator.Compute(plan, l)

	// then
	require.Len(t, rows, 1)
	// E4 has no category
	assert.True(t, rows[0].FTE.Equal(dec("3")))
	// ceil(2×1000/26) + ceil(1×1500/20)
	assert.True(t, rows[0].Revenue.Equal(dec("152")), rows[0].Revenue.String())
	assert.True(t, rows[0].BillableRevenue.Equal(dec("152")))

	t.Run("should differ from billing the same headcount at one rate", func(t *testing.T) {
		single := singlePlan("Multi", "480", "1000", "4", "26", "0")

		singleRows := calculator.Compute(single, l)

		require.Len(t, singleRows, 1)
		assert.False(t, singleRows[0].Revenue.Equal(rows[0].Revenue))
	})

	t.Run("should cap each category separately", func(t *testing.T) {
		capped := plan
		capped.Categories = []billing.Category{plan.Categories[0], plan.Categories[1]}
		capped.Categories[0].Meta.FTECap = dec("1")

		rows := calculator.Compute(capped, l)

		require.Len(t, rows, 1)
		// ceil(1×1000/26) + ceil(1×1500/20)
		assert.True(t, rows[0].BillableRevenue.Equal(dec("114")), rows[0].BillableRevenue.String())
		assert.True(t, rows[0].Revenue.Equal(dec("152")))
	})
}

func TestDayRevenue(t *testing.T) {
	tests := []struct {
		name                      string
		fte, rate, extra, mandays string
		want                      string
	}{
		{"rounds up", "1.5", "100", "0", "22", "7"},
		{"exact division", "1", "1500", "0", "30", "50"},
		{"extra inside the ceiling", "1", "1000", "500", "30", "50"},
		{"zero headcount", "0", "100", "500", "22", "0"},
		{"zero mandays", "1", "100", "0", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DayRevenue(dec(tt.fte), dec(tt.rate), dec(tt.extra), dec(tt.mandays))
			assert.True(t, got.Equal(dec(tt.want)), got.String())
		})
	}
}

func TestDeficit(t *testing.T) {
	assert.True(t, Deficit(dec("50"), dec("34")).Equal(dec("0.32")))
	assert.True(t, Deficit(dec("50"), dec("75")).Equal(dec("-0.5")))
	assert.True(t, Deficit(decimal.Zero, dec("75")).IsZero())
}

func TestParseExtraPolicy(t *testing.T) {
	policy, err := ParseExtraPolicy("")
	require.NoError(t, err)
	assert.Equal(t, ExtraTarget, policy)

	policy, err = ParseExtraPolicy("DAILY")
	require.NoError(t, err)
	assert.Equal(t, ExtraDaily, policy)

	_, err = ParseExtraPolicy("weekly")
	assert.Error(t, err)
}
