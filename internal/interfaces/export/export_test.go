package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"utility-bench/internal/aggregate"
	billing "utility-bench/internal/billing/domain"
	"utility-bench/internal/degreeday"
	masterdata "utility-bench/internal/masterdata/domain"
	"utility-bench/internal/pipeline"
	"utility-bench/internal/ranking"
)

func fptr(v float64) *float64 { return &v }

func testResult() *pipeline.Result {
	eui := 85.5
	return &pipeline.Result{
		Merged: []degreeday.MergedMonthly{
			{
				MonthlyAggregate: aggregate.MonthlyAggregate{
					SiteID:     "S1",
					CalYear:    2018,
					CalMonth:   time.January,
					Category:   billing.CategoryElectricity,
					Usage:      48_000,
					Cost:       5_200,
					MMBTU:      163.8,
					DaysServed: 31,
				},
				HeatingDegreeDays: fptr(2310),
				CoolingDegreeDays: fptr(0),
				SpecificEUI:       fptr(7.09),
			},
			{
				// February has no weather coverage; the cells must be empty.
				MonthlyAggregate: aggregate.MonthlyAggregate{
					SiteID:   "S1",
					CalYear:  2018,
					CalMonth: time.February,
					Category: billing.CategoryElectricity,
					MMBTU:    150,
				},
			},
		},
		Ranks: []ranking.PercentileRankResult{{
			SiteID:       "S1",
			FiscalYear:   2018,
			PeerGroupKey: "School|District",
			Metric:       ranking.MetricEUI,
			Value:        eui,
			GroupMean:    80,
			GroupSize:    4,
			Percentile:   75,
			Rank:         1,
			Ranked:       true,
		}},
		Spreads: []ranking.GroupSummary{{
			PeerGroupKey: "School|District",
			FiscalYear:   2018,
			Metric:       ranking.MetricEUI,
			Count:        4,
			Min:          60,
			P10:          63,
			Median:       75,
			P90:          87,
			Max:          90,
			Mean:         76,
		}},
		Summary: pipeline.RunSummary{
			RecordsLoaded:  24,
			SitesProcessed: 4,
		},
	}
}

func TestBuildBenchmarkWorkbook(t *testing.T) {
	data, err := BuildBenchmarkWorkbook(testResult())
	if err != nil {
		t.Fatalf("BuildBenchmarkWorkbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopening workbook: %v", err)
	}
	defer f.Close()

	for _, sheet := range []string{"monthly", "rankings", "peer_spread", "run_summary"} {
		if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
			t.Fatalf("sheet %q missing", sheet)
		}
	}

	siteCell, err := f.GetCellValue("monthly", "A2")
	if err != nil || siteCell != "S1" {
		t.Fatalf("monthly A2 = %q (%v)", siteCell, err)
	}
	// January HDD present, February blank (unavailable, not zero).
	hddJan, _ := f.GetCellValue("monthly", "I2")
	if hddJan != "2310" {
		t.Fatalf("january hdd cell = %q", hddJan)
	}
	hddFeb, _ := f.GetCellValue("monthly", "I3")
	if hddFeb != "" {
		t.Fatalf("february hdd cell = %q, want empty", hddFeb)
	}

	rankCell, _ := f.GetCellValue("rankings", "C2")
	if rankCell != "eui" {
		t.Fatalf("rankings C2 = %q", rankCell)
	}
	spreadCell, _ := f.GetCellValue("peer_spread", "A2")
	if spreadCell != "School|District" {
		t.Fatalf("peer_spread A2 = %q", spreadCell)
	}
	loaded, _ := f.GetCellValue("run_summary", "B1")
	if loaded != "24" {
		t.Fatalf("run_summary B1 = %q", loaded)
	}
}

func TestBuildBenchmarkWorkbookNilResult(t *testing.T) {
	if _, err := BuildBenchmarkWorkbook(nil); err == nil {
		t.Fatalf("nil result accepted")
	}
}

func TestBuildSiteReportPDF(t *testing.T) {
	site := masterdata.Site{
		ID:               "S1",
		Name:             "North School",
		SquareFeet:       25_000,
		FiscalStartMonth: time.July,
		PrimaryFunction:  "School",
		SiteCategory:     "District",
	}
	result := testResult()
	metrics := []ranking.SiteYearMetrics{{
		SiteID:         "S1",
		FiscalYear:     2018,
		PeerGroupKey:   "School|District",
		SquareFeet:     25_000,
		MonthsWithData: 12,
		TotalMMBTU:     1966,
		EUI:            fptr(85.5),
		ECI:            fptr(2.1),
	}}

	pdf, err := BuildSiteReportPDF(site, metrics, result.Ranks, result.Spreads)
	if err != nil {
		t.Fatalf("BuildSiteReportPDF: %v", err)
	}
	if len(pdf) == 0 || !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("output is not a PDF (%d bytes)", len(pdf))
	}
}

func TestBuildSiteReportPDFNoData(t *testing.T) {
	site := masterdata.Site{ID: "S9", FiscalStartMonth: time.July}
	pdf, err := BuildSiteReportPDF(site, nil, nil, nil)
	if err != nil {
		t.Fatalf("empty report should still render: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}
}
