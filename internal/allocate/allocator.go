// Package allocate distributes billing-period quantities across the
// calendar months the period spans.
package allocate

import (
	"time"

	billing "utility-bench/internal/billing/domain"
	"utility-bench/internal/normalize"
)

// MonthSlice is the portion of a billing period falling in one calendar
// month. BillFraction values for one period sum to exactly 1.
type MonthSlice struct {
	CalYear      int
	CalMonth     time.Month
	DaysServed   int
	BillFraction float64
}

// AllocatedUsageRow is one record's share of one calendar month. Summing
// Usage, Cost and MMBTU over all rows produced from a record reproduces the
// record's totals; that conservation property is the allocator's contract.
type AllocatedUsageRow struct {
	// Source is the normalized record the row was split from, kept for
	// duplicate resolution and audit.
	Source normalize.Record

	CalYear    int
	CalMonth   time.Month
	DaysServed int
	// Usage is nil when the source is a cost-only line item.
	Usage *float64
	Cost  float64
	MMBTU float64
}

// SplitPeriod slices the half-open period [from, thru) into calendar
// months, each with its day count and fraction of the whole. A zero-length
// period yields a single slice covering the month containing the date, with
// zero days served and the full bill fraction.
func SplitPeriod(from, thru time.Time) []MonthSlice {
	from = dateOnly(from)
	thru = dateOnly(thru)
	totalDays := billing.DaysBetween(from, thru)
	if totalDays <= 0 {
		return []MonthSlice{{
			CalYear:      from.Year(),
			CalMonth:     from.Month(),
			DaysServed:   0,
			BillFraction: 1,
		}}
	}

	var slices []MonthSlice
	cursor := monthStart(from)
	for cursor.Before(thru) {
		next := cursor.AddDate(0, 1, 0)
		overlapStart := laterOf(from, cursor)
		overlapEnd := earlierOf(thru, next)
		days := billing.DaysBetween(overlapStart, overlapEnd)
		if days > 0 {
			slices = append(slices, MonthSlice{
				CalYear:      cursor.Year(),
				CalMonth:     cursor.Month(),
				DaysServed:   days,
				BillFraction: float64(days) / float64(totalDays),
			})
		}
		cursor = next
	}
	return slices
}

// Allocate splits a normalized record into per-month rows proportional to
// day overlap. The record must already be validated.
func Allocate(rec normalize.Record) []AllocatedUsageRow {
	slices := SplitPeriod(rec.From, rec.Thru)
	rows := make([]AllocatedUsageRow, 0, len(slices))
	for _, s := range slices {
		row := AllocatedUsageRow{
			Source:     rec,
			CalYear:    s.CalYear,
			CalMonth:   s.CalMonth,
			DaysServed: s.DaysServed,
			Cost:       rec.Cost * s.BillFraction,
			MMBTU:      rec.MMBTU * s.BillFraction,
		}
		if rec.Usage != nil {
			u := *rec.Usage * s.BillFraction
			row.Usage = &u
		}
		rows = append(rows, row)
	}
	return rows
}

// UsageValue returns the row's usage share, or 0 for cost-only rows.
func (r AllocatedUsageRow) UsageValue() float64 {
	if r.Usage == nil {
		return 0
	}
	return *r.Usage
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlierOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
