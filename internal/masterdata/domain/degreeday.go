package masterdata

import "time"

// DegreeDayKey addresses one station-month of degree-day data.
type DegreeDayKey struct {
	Station string
	Year    int
	Month   time.Month
}

// DegreeDayRecord is one month of heating/cooling degree days for a weather
// station. External read-only input; the engine consumes a snapshot.
type DegreeDayRecord struct {
	Station           string
	Year              int
	Month             time.Month
	HeatingDegreeDays float64
	CoolingDegreeDays float64
}

// DegreeDaySeries is the immutable degree-day lookup for a run. Months not
// present are reported as unavailable by the merger, never as zero.
type DegreeDaySeries struct {
	records map[DegreeDayKey]DegreeDayRecord
}

// NewDegreeDaySeries builds the series. Later records for the same
// station-month replace earlier ones (feed refreshes re-deliver months).
func NewDegreeDaySeries(records []DegreeDayRecord) *DegreeDaySeries {
	m := make(map[DegreeDayKey]DegreeDayRecord, len(records))
	for _, r := range records {
		m[DegreeDayKey{Station: r.Station, Year: r.Year, Month: r.Month}] = r
	}
	return &DegreeDaySeries{records: m}
}

// Lookup returns the record for a station-month; false when not covered.
func (s *DegreeDaySeries) Lookup(station string, year int, month time.Month) (DegreeDayRecord, bool) {
	r, ok := s.records[DegreeDayKey{Station: station, Year: year, Month: month}]
	return r, ok
}

// Len returns the number of station-months covered.
func (s *DegreeDaySeries) Len() int { return len(s.records) }
