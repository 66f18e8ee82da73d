// Package aggregate groups allocated rows into the per-site monthly time
// series consumed by all downstream reporting.
package aggregate

import (
	"sort"
	"time"

	"utility-bench/internal/allocate"
	billing "utility-bench/internal/billing/domain"
)

// Key identifies one MonthlyAggregate.
type Key struct {
	SiteID   string
	CalYear  int
	CalMonth time.Month
	Category billing.FuelCategory
}

// MonthlyAggregate is the summed usage, cost and energy for one site,
// calendar month and category. Fiscal year/month are derived from the
// site's fiscal convention, never stored redundantly.
type MonthlyAggregate struct {
	SiteID   string
	CalYear  int
	CalMonth time.Month
	Category billing.FuelCategory

	Usage float64
	Cost  float64
	MMBTU float64
	// DaysServed counts distinct service-period coverage within the month,
	// capped at the month length. Duplicate line items for the same period
	// (energy vs demand charge) do not double-count coverage.
	DaysServed int
}

// FiscalYear derives the fiscal year for the given fiscal start month.
func (a MonthlyAggregate) FiscalYear(fiscalStart time.Month) int {
	fy, _ := CalendarToFiscal(a.CalYear, a.CalMonth, fiscalStart)
	return fy
}

// FiscalMonth derives the fiscal month number (1..12).
func (a MonthlyAggregate) FiscalMonth(fiscalStart time.Month) int {
	_, fm := CalendarToFiscal(a.CalYear, a.CalMonth, fiscalStart)
	return fm
}

type periodKey struct {
	from time.Time
	thru time.Time
}

type accumulator struct {
	agg     MonthlyAggregate
	periods map[periodKey]int
}

// Aggregate sums allocated rows by (site, calendar year, month, category).
// Output is sorted by key so repeated runs over the same input produce
// byte-identical series.
func Aggregate(rows []allocate.AllocatedUsageRow) []MonthlyAggregate {
	accs := make(map[Key]*accumulator)
	for _, row := range rows {
		key := Key{
			SiteID:   row.Source.SiteID,
			CalYear:  row.CalYear,
			CalMonth: row.CalMonth,
			Category: row.Source.Category,
		}
		acc, ok := accs[key]
		if !ok {
			acc = &accumulator{
				agg: MonthlyAggregate{
					SiteID:   key.SiteID,
					CalYear:  key.CalYear,
					CalMonth: key.CalMonth,
					Category: key.Category,
				},
				periods: make(map[periodKey]int),
			}
			accs[key] = acc
		}
		acc.agg.Usage += row.UsageValue()
		acc.agg.Cost += row.Cost
		acc.agg.MMBTU += row.MMBTU
		pk := periodKey{from: row.Source.From, thru: row.Source.Thru}
		if row.DaysServed > acc.periods[pk] {
			acc.periods[pk] = row.DaysServed
		}
	}

	out := make([]MonthlyAggregate, 0, len(accs))
	for key, acc := range accs {
		days := 0
		for _, d := range acc.periods {
			days += d
		}
		if max := DaysInMonth(key.CalYear, key.CalMonth); days > max {
			days = max
		}
		acc.agg.DaysServed = days
		out = append(out, acc.agg)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.SiteID != b.SiteID {
			return a.SiteID < b.SiteID
		}
		if a.CalYear != b.CalYear {
			return a.CalYear < b.CalYear
		}
		if a.CalMonth != b.CalMonth {
			return a.CalMonth < b.CalMonth
		}
		return a.Category < b.Category
	})
	return out
}
