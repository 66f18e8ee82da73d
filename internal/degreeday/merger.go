// Package degreeday joins monthly aggregates with weather data to produce
// weather-normalized intensity.
package degreeday

import (
	"errors"
	"fmt"
	"time"

	"utility-bench/internal/aggregate"
	masterdata "utility-bench/internal/masterdata/domain"
)

// MergedMonthly is a MonthlyAggregate annotated with degree-day data and
// weather-normalized intensity. Nil pointers mean "unavailable": a month
// without degree-day coverage must never read as zero.
type MergedMonthly struct {
	aggregate.MonthlyAggregate

	HeatingDegreeDays *float64
	CoolingDegreeDays *float64
	// SpecificEUI is Btu per square foot per heating degree day. Nil when
	// degree days are absent or zero, or the site has no floor area.
	SpecificEUI *float64
}

// Warning reports one site-month lacking usable degree-day coverage.
type Warning struct {
	SiteID   string
	Station  string
	CalYear  int
	CalMonth time.Month
}

func (w Warning) String() string {
	station := w.Station
	if station == "" {
		station = "<no station mapped>"
	}
	return fmt.Sprintf("degreeday: no coverage for site %s (%d-%02d, station %s)",
		w.SiteID, w.CalYear, int(w.CalMonth), station)
}

// Merger left-joins aggregates with the degree-day series via each site's
// weather station. Safe for concurrent use; both inputs are immutable.
type Merger struct {
	series   *masterdata.DegreeDaySeries
	registry *masterdata.SiteRegistry
}

// NewMerger constructs a Merger.
func NewMerger(series *masterdata.DegreeDaySeries, registry *masterdata.SiteRegistry) (*Merger, error) {
	if series == nil {
		return nil, errors.New("degreeday: nil series")
	}
	if registry == nil {
		return nil, errors.New("degreeday: nil site registry")
	}
	return &Merger{series: series, registry: registry}, nil
}

// Merge annotates each aggregate row. Only energy categories participate in
// the join; non-energy rows pass through with no degree-day fields and no
// warning. A warning is emitted once per energy row without usable heating
// degree days.
func (m *Merger) Merge(aggs []aggregate.MonthlyAggregate) ([]MergedMonthly, []Warning) {
	out := make([]MergedMonthly, 0, len(aggs))
	var warnings []Warning
	for _, agg := range aggs {
		merged := MergedMonthly{MonthlyAggregate: agg}
		if !agg.Category.IsEnergy() {
			out = append(out, merged)
			continue
		}

		site, siteOK := m.registry.Get(agg.SiteID)
		var rec masterdata.DegreeDayRecord
		found := false
		if siteOK && site.DegreeDaySite != "" {
			rec, found = m.series.Lookup(site.DegreeDaySite, agg.CalYear, agg.CalMonth)
		}
		if found {
			hdd := rec.HeatingDegreeDays
			cdd := rec.CoolingDegreeDays
			merged.HeatingDegreeDays = &hdd
			merged.CoolingDegreeDays = &cdd
			if hdd > 0 && site.SquareFeet > 0 {
				specific := agg.MMBTU * 1e6 / (site.SquareFeet * hdd)
				merged.SpecificEUI = &specific
			}
		}
		if merged.SpecificEUI == nil {
			warnings = append(warnings, Warning{
				SiteID:   agg.SiteID,
				Station:  site.DegreeDaySite,
				CalYear:  agg.CalYear,
				CalMonth: agg.CalMonth,
			})
		}
		out = append(out, merged)
	}
	return out, warnings
}
