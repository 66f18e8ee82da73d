// Package export renders benchmark outputs for the reporting layer: a
// summary workbook for all sites and a per-site PDF report.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"utility-bench/internal/pipeline"
)

const (
	sheetMonthly  = "monthly"
	sheetRankings = "rankings"
	sheetSpread   = "peer_spread"
	sheetSummary  = "run_summary"
)

// BuildBenchmarkWorkbook renders the full run result as an XLSX workbook.
func BuildBenchmarkWorkbook(result *pipeline.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("export: nil result")
	}
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheetMonthly)
	f.NewSheet(sheetRankings)
	f.NewSheet(sheetSpread)
	f.NewSheet(sheetSummary)

	monthlyHeader := []interface{}{"site_id", "cal_year", "cal_month", "category", "usage", "cost", "mmbtu", "days_served", "hdd", "cdd", "specific_eui"}
	writeRow(f, sheetMonthly, 1, monthlyHeader)
	for i, row := range result.Merged {
		values := []interface{}{
			row.SiteID, row.CalYear, int(row.CalMonth), string(row.Category),
			row.Usage, row.Cost, row.MMBTU, row.DaysServed,
			optional(row.HeatingDegreeDays), optional(row.CoolingDegreeDays), optional(row.SpecificEUI),
		}
		writeRow(f, sheetMonthly, i+2, values)
	}

	rankHeader := []interface{}{"site_id", "fiscal_year", "metric", "peer_group_key", "value", "group_mean", "group_size", "percentile", "rank", "ranked"}
	writeRow(f, sheetRankings, 1, rankHeader)
	for i, row := range result.Ranks {
		values := []interface{}{
			row.SiteID, row.FiscalYear, string(row.Metric), row.PeerGroupKey,
			row.Value, row.GroupMean, row.GroupSize, row.Percentile, row.Rank, row.Ranked,
		}
		writeRow(f, sheetRankings, i+2, values)
	}

	spreadHeader := []interface{}{"peer_group_key", "fiscal_year", "metric", "count", "min", "p10", "median", "p90", "max", "mean"}
	writeRow(f, sheetSpread, 1, spreadHeader)
	for i, row := range result.Spreads {
		values := []interface{}{
			row.PeerGroupKey, row.FiscalYear, string(row.Metric),
			row.Count, row.Min, row.P10, row.Median, row.P90, row.Max, row.Mean,
		}
		writeRow(f, sheetSpread, i+2, values)
	}

	writeSummary(f, result.Summary)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("export: writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, s pipeline.RunSummary) {
	row := 1
	put := func(label string, value interface{}) {
		writeRow(f, sheetSummary, row, []interface{}{label, value})
		row++
	}
	put("records_loaded", s.RecordsLoaded)
	put("sites_processed", s.SitesProcessed)
	put("sites_skipped", s.SitesSkipped)
	put("mapping_errors", len(s.MappingErrors))
	put("records_skipped", len(s.SkippedRecords))
	put("duplicates_collapsed", s.DuplicatesCollapsed)
	put("duplicate_warnings", len(s.DuplicateWarnings))
	put("degree_day_warnings", len(s.DegreeDayWarnings))
	put("unranked_sites", len(s.UnrankedSites))
	put("started", s.Started.Format("2006-01-02 15:04:05"))
	put("finished", s.Finished.Format("2006-01-02 15:04:05"))

	row++
	for _, me := range s.MappingErrors {
		writeRow(f, sheetSummary, row, []interface{}{"mapping_error", me.SiteID, me.ServiceName, me.Units, me.PeriodFrom.Format("2006-01-02")})
		row++
	}
	for _, sk := range s.SkippedRecords {
		writeRow(f, sheetSummary, row, []interface{}{"skipped", sk.SiteID, sk.ServiceName, string(sk.Reason), sk.Detail})
		row++
	}
	for _, w := range s.DuplicateWarnings {
		writeRow(f, sheetSummary, row, []interface{}{"duplicate_warning", w.SiteID, string(w.Category), w.Reason})
		row++
	}
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			continue
		}
		_ = f.SetCellValue(sheet, cell, v)
	}
}

// optional renders nil pointers as empty cells so "unavailable" never reads
// as zero in the spreadsheet.
func optional(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
