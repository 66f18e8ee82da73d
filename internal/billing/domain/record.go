package billing

import "time"

// MaxPeriodDays rejects billing periods at or beyond this length. Records
// with longer periods are artifacts of missing meter reads and would smear
// usage across more than a year of months.
const MaxPeriodDays = 450

// OtherChargeDescription is the item description assigned to line items that
// carry cost but no usage quantity (taxes, surcharges, customer fees).
// Collapsing them under one label keeps pure-cost charges out of the
// duplicate-usage heuristics.
const OtherChargeDescription = "Other Charge"

// RawBillRecord is one utility bill line item as loaded from the export.
//
// The service period is half-open: [From, Thru). Thru is the first day NOT
// covered by the bill, so Thru-From is the period length in days. A record
// with From == Thru is a point-in-time charge belonging entirely to the
// month containing that date.
type RawBillRecord struct {
	SiteID          string
	ServiceName     string
	Units           string
	Usage           *float64 // nil for cost-only charges
	Cost            float64
	From            time.Time
	Thru            time.Time
	ItemDescription string
	AccountNumber   string
	VendorName      string
}

// Validate checks the record-level invariants. The returned sentinel
// identifies the failure so the run summary can categorize skips.
func (r RawBillRecord) Validate() error {
	if r.SiteID == "" {
		return ErrMissingSiteID
	}
	if r.From.IsZero() || r.Thru.IsZero() {
		return ErrMissingDate
	}
	if r.Thru.Before(r.From) {
		return ErrEndBeforeStart
	}
	if r.PeriodDays() >= MaxPeriodDays {
		return ErrPeriodTooLong
	}
	return nil
}

// PeriodDays returns the half-open period length in whole days.
func (r RawBillRecord) PeriodDays() int {
	return DaysBetween(r.From, r.Thru)
}

// HasUsage reports whether the line item carries a metered quantity.
func (r RawBillRecord) HasUsage() bool { return r.Usage != nil }

// UsageValue returns the usage quantity, or 0 for cost-only charges.
func (r RawBillRecord) UsageValue() float64 {
	if r.Usage == nil {
		return 0
	}
	return *r.Usage
}

// DaysBetween counts whole days from a to b, ignoring time-of-day and zone.
func DaysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au) / (24 * time.Hour))
}
