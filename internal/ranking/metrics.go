package ranking

import (
	"sort"

	"utility-bench/internal/aggregate"
	"utility-bench/internal/degreeday"
	masterdata "utility-bench/internal/masterdata/domain"
)

// Metric names one benchmarking measure. The string values are part of the
// output data contract.
type Metric string

const (
	// MetricEUI is Energy Use Intensity, kBtu per square foot per year.
	MetricEUI Metric = "eui"
	// MetricECI is Energy Cost Index, dollars per square foot per year.
	MetricECI Metric = "eci"
	// MetricSpecificEUI is Btu per square foot per heating degree day.
	MetricSpecificEUI Metric = "specific_eui"
)

// AllMetrics lists the ranked metrics in output order.
var AllMetrics = []Metric{MetricEUI, MetricECI, MetricSpecificEUI}

// SiteYearMetrics is one site's benchmarking values for one fiscal year.
// Nil metric values are unavailable and excluded from ranking pools.
type SiteYearMetrics struct {
	SiteID       string
	FiscalYear   int
	PeerGroupKey string
	SquareFeet   float64

	// MonthsWithData counts distinct fiscal months holding energy data.
	// Only complete years (12) participate in peer groups.
	MonthsWithData  int
	TotalMMBTU      float64
	TotalEnergyCost float64
	TotalHDD        *float64 // nil when any month lacks coverage

	EUI         *float64
	ECI         *float64
	SpecificEUI *float64
}

// Complete reports whether the site-year has a full 12 months of data.
func (m SiteYearMetrics) Complete() bool { return m.MonthsWithData >= 12 }

// Value returns the named metric, or false when unavailable.
func (m SiteYearMetrics) Value(metric Metric) (float64, bool) {
	var p *float64
	switch metric {
	case MetricEUI:
		p = m.EUI
	case MetricECI:
		p = m.ECI
	case MetricSpecificEUI:
		p = m.SpecificEUI
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

type siteYearKey struct {
	siteID     string
	fiscalYear int
}

type siteYearAcc struct {
	mmbtu      float64
	energyCost float64
	months     map[int]bool
	hddByMonth map[int]*float64
}

// BuildFiscalYearMetrics rolls merged monthly rows up to per-site fiscal
// years. Each site's own fiscal convention decides which calendar months
// belong to which fiscal year. Missing degree-day coverage in any month
// leaves the year's specific EUI unavailable rather than understated.
func BuildFiscalYearMetrics(merged []degreeday.MergedMonthly, registry *masterdata.SiteRegistry) []SiteYearMetrics {
	accs := make(map[siteYearKey]*siteYearAcc)

	for _, row := range merged {
		if !row.Category.IsEnergy() {
			continue
		}
		site, ok := registry.Get(row.SiteID)
		if !ok {
			continue
		}
		fy, fm := aggregate.CalendarToFiscal(row.CalYear, row.CalMonth, site.FiscalStartMonth)
		key := siteYearKey{siteID: row.SiteID, fiscalYear: fy}
		acc, ok := accs[key]
		if !ok {
			acc = &siteYearAcc{
				months:     make(map[int]bool),
				hddByMonth: make(map[int]*float64),
			}
			accs[key] = acc
		}
		acc.mmbtu += row.MMBTU
		acc.energyCost += row.Cost
		acc.months[fm] = true
		// HDD is per month, identical across categories; record it once and
		// let an unavailable month poison the annual total.
		if existing, seen := acc.hddByMonth[fm]; !seen || existing == nil {
			acc.hddByMonth[fm] = row.HeatingDegreeDays
		}
	}

	out := make([]SiteYearMetrics, 0, len(accs))
	for key, acc := range accs {
		site, _ := registry.Get(key.siteID)
		m := SiteYearMetrics{
			SiteID:          key.siteID,
			FiscalYear:      key.fiscalYear,
			PeerGroupKey:    site.PeerGroupKey(),
			SquareFeet:      site.SquareFeet,
			MonthsWithData:  len(acc.months),
			TotalMMBTU:      acc.mmbtu,
			TotalEnergyCost: acc.energyCost,
		}

		hddTotal := 0.0
		hddComplete := m.Complete()
		for fm := 1; fm <= 12; fm++ {
			hdd, seen := acc.hddByMonth[fm]
			if !seen || hdd == nil {
				hddComplete = false
				break
			}
			hddTotal += *hdd
		}
		if hddComplete {
			m.TotalHDD = &hddTotal
		}

		if m.Complete() && site.SquareFeet > 0 {
			eui := acc.mmbtu * 1000 / site.SquareFeet
			eci := acc.energyCost / site.SquareFeet
			m.EUI = &eui
			m.ECI = &eci
			if m.TotalHDD != nil && *m.TotalHDD > 0 {
				specific := acc.mmbtu * 1e6 / (site.SquareFeet * *m.TotalHDD)
				m.SpecificEUI = &specific
			}
		}
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].FiscalYear != out[j].FiscalYear {
			return out[i].FiscalYear < out[j].FiscalYear
		}
		return out[i].SiteID < out[j].SiteID
	})
	return out
}
