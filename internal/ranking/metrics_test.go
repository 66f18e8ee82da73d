package ranking

import (
	"math"
	"testing"
	"time"

	"utility-bench/internal/aggregate"
	billing "utility-bench/internal/billing/domain"
	"utility-bench/internal/degreeday"
	masterdata "utility-bench/internal/masterdata/domain"
)

func metricsRegistry(t *testing.T) *masterdata.SiteRegistry {
	t.Helper()
	reg, err := masterdata.NewSiteRegistry([]masterdata.Site{
		{ID: "S1", SquareFeet: 10_000, FiscalStartMonth: time.July, PrimaryFunction: "School", SiteCategory: "A"},
	})
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}
	return reg
}

// fiscalYearRows builds 12 merged monthly rows spanning July 2017 through
// June 2018, each with the given MMBTU, cost and HDD.
func fiscalYearRows(siteID string, mmbtu, cost float64, hdd *float64) []degreeday.MergedMonthly {
	var rows []degreeday.MergedMonthly
	start := time.Date(2017, time.July, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		month := start.AddDate(0, i, 0)
		row := degreeday.MergedMonthly{
			MonthlyAggregate: aggregate.MonthlyAggregate{
				SiteID:   siteID,
				CalYear:  month.Year(),
				CalMonth: month.Month(),
				Category: billing.CategoryElectricity,
				MMBTU:    mmbtu,
				Cost:     cost,
			},
		}
		if hdd != nil {
			h := *hdd
			row.HeatingDegreeDays = &h
		}
		rows = append(rows, row)
	}
	return rows
}

func TestBuildFiscalYearMetricsCompleteYear(t *testing.T) {
	hdd := 500.0
	metrics := BuildFiscalYearMetrics(fiscalYearRows("S1", 10, 100, &hdd), metricsRegistry(t))
	if len(metrics) != 1 {
		t.Fatalf("expected one site-year, got %d: %+v", len(metrics), metrics)
	}
	m := metrics[0]
	if m.FiscalYear != 2018 {
		t.Fatalf("fiscal year = %d, want 2018", m.FiscalYear)
	}
	if m.MonthsWithData != 12 || !m.Complete() {
		t.Fatalf("months = %d", m.MonthsWithData)
	}
	if m.PeerGroupKey != "School|A" {
		t.Fatalf("peer group = %q", m.PeerGroupKey)
	}
	if m.EUI == nil || math.Abs(*m.EUI-12) > 1e-9 {
		t.Fatalf("EUI = %v, want 12 kBtu/sqft", m.EUI)
	}
	if m.ECI == nil || math.Abs(*m.ECI-0.12) > 1e-9 {
		t.Fatalf("ECI = %v, want 0.12 $/sqft", m.ECI)
	}
	if m.TotalHDD == nil || *m.TotalHDD != 6000 {
		t.Fatalf("TotalHDD = %v, want 6000", m.TotalHDD)
	}
	if m.SpecificEUI == nil || math.Abs(*m.SpecificEUI-2) > 1e-9 {
		t.Fatalf("specific EUI = %v, want 2 Btu/sqft/HDD", m.SpecificEUI)
	}
}

func TestBuildFiscalYearMetricsIncompleteYear(t *testing.T) {
	hdd := 500.0
	rows := fiscalYearRows("S1", 10, 100, &hdd)[:11]
	metrics := BuildFiscalYearMetrics(rows, metricsRegistry(t))
	m := metrics[0]
	if m.Complete() {
		t.Fatalf("11 months reported complete")
	}
	if m.EUI != nil || m.ECI != nil || m.SpecificEUI != nil {
		t.Fatalf("incomplete year produced metrics: %+v", m)
	}
	// Totals are still reported for the partial year.
	if math.Abs(m.TotalMMBTU-110) > 1e-9 {
		t.Fatalf("TotalMMBTU = %v", m.TotalMMBTU)
	}
}

func TestBuildFiscalYearMetricsMissingHDDPoisonsYear(t *testing.T) {
	hdd := 500.0
	rows := fiscalYearRows("S1", 10, 100, &hdd)
	rows[3].HeatingDegreeDays = nil // one month without coverage
	metrics := BuildFiscalYearMetrics(rows, metricsRegistry(t))
	m := metrics[0]
	if m.TotalHDD != nil {
		t.Fatalf("partial degree-day coverage produced a total: %v", *m.TotalHDD)
	}
	if m.SpecificEUI != nil {
		t.Fatalf("specific EUI from partial coverage: %v", *m.SpecificEUI)
	}
	// Non-weather metrics are unaffected.
	if m.EUI == nil || m.ECI == nil {
		t.Fatalf("EUI/ECI lost with the degree days")
	}
}

func TestBuildFiscalYearMetricsSkipsNonEnergy(t *testing.T) {
	hdd := 500.0
	rows := fiscalYearRows("S1", 10, 100, &hdd)
	rows = append(rows, degreeday.MergedMonthly{
		MonthlyAggregate: aggregate.MonthlyAggregate{
			SiteID:   "S1",
			CalYear:  2017,
			CalMonth: time.August,
			Category: billing.CategoryWater,
			Cost:     10_000,
		},
	})
	metrics := BuildFiscalYearMetrics(rows, metricsRegistry(t))
	m := metrics[0]
	// Energy cost index must exclude water/sewer/refuse spend.
	if m.ECI == nil || math.Abs(*m.ECI-0.12) > 1e-9 {
		t.Fatalf("water cost leaked into ECI: %v", m.ECI)
	}
	if math.Abs(m.TotalEnergyCost-1200) > 1e-9 {
		t.Fatalf("TotalEnergyCost = %v", m.TotalEnergyCost)
	}
}

func TestBuildFiscalYearMetricsSplitsFiscalYears(t *testing.T) {
	hdd := 500.0
	rows := fiscalYearRows("S1", 10, 100, &hdd)
	// July 2018 starts the next fiscal year.
	rows = append(rows, degreeday.MergedMonthly{
		MonthlyAggregate: aggregate.MonthlyAggregate{
			SiteID:   "S1",
			CalYear:  2018,
			CalMonth: time.July,
			Category: billing.CategoryElectricity,
			MMBTU:    5,
		},
	})
	metrics := BuildFiscalYearMetrics(rows, metricsRegistry(t))
	if len(metrics) != 2 {
		t.Fatalf("expected FY2018 and FY2019, got %d", len(metrics))
	}
	if metrics[0].FiscalYear != 2018 || metrics[1].FiscalYear != 2019 {
		t.Fatalf("fiscal years = %d, %d", metrics[0].FiscalYear, metrics[1].FiscalYear)
	}
	if metrics[1].MonthsWithData != 1 {
		t.Fatalf("FY2019 months = %d", metrics[1].MonthsWithData)
	}
}

func TestSiteYearMetricsValue(t *testing.T) {
	v := 42.0
	m := SiteYearMetrics{EUI: &v}
	if got, ok := m.Value(MetricEUI); !ok || got != 42 {
		t.Fatalf("Value(eui) = %v, %v", got, ok)
	}
	if _, ok := m.Value(MetricECI); ok {
		t.Fatalf("nil metric reported available")
	}
	if _, ok := m.Value(Metric("bogus")); ok {
		t.Fatalf("unknown metric reported available")
	}
}
