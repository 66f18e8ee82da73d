package aggregate

import "time"

// CalendarToFiscal converts a calendar year/month into the fiscal year and
// fiscal month number (1..12) for a site whose fiscal year begins in
// fiscalStart. Fiscal years are labeled by the calendar year they end in:
// with a July start, fiscal year N runs July N-1 through June N. A January
// start degenerates to the calendar year.
func CalendarToFiscal(calYear int, calMonth time.Month, fiscalStart time.Month) (fiscalYear int, fiscalMonth int) {
	if fiscalStart == time.January {
		return calYear, int(calMonth)
	}
	if calMonth >= fiscalStart {
		return calYear + 1, int(calMonth-fiscalStart) + 1
	}
	return calYear, int(calMonth) + 12 - int(fiscalStart) + 1
}

// FiscalYearStart returns the first calendar month of the given fiscal year.
func FiscalYearStart(fiscalYear int, fiscalStart time.Month) (calYear int, calMonth time.Month) {
	if fiscalStart == time.January {
		return fiscalYear, time.January
	}
	return fiscalYear - 1, fiscalStart
}

// DaysInMonth returns the number of days in a calendar month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1).Day()
}
