package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	masterdata "utility-bench/internal/masterdata/domain"
	"utility-bench/internal/ranking"
)

// BuildSiteReportPDF renders one building's benchmarking report: its
// fiscal-year metrics, peer standing and the group spread bands.
func BuildSiteReportPDF(site masterdata.Site, metrics []ranking.SiteYearMetrics, ranks []ranking.PercentileRankResult, spreads []ranking.GroupSummary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Building Energy Benchmark Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Site: %s (%s)", site.ID, site.Name))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Category: %s / %s", site.PrimaryFunction, site.SiteCategory))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Floor area: %.0f sqft", site.SquareFeet))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Fiscal year starts: %s", site.FiscalStartMonth))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(25, 6, "FY", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Months", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "MMBTU", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "EUI (kBtu/sqft)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "ECI ($/sqft)", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, m := range metrics {
		if m.SiteID != site.ID {
			continue
		}
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", m.FiscalYear), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", m.MonthsWithData), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.1f", m.TotalMMBTU), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmtOptional(m.EUI), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmtOptional(m.ECI), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(25, 6, "FY", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Metric", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Value", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Percentile", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Rank", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Peers", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, r := range ranks {
		if r.SiteID != site.ID {
			continue
		}
		percentile := "unranked"
		rank := "-"
		if r.Ranked {
			percentile = fmt.Sprintf("%.1f", r.Percentile)
			rank = fmt.Sprintf("%d of %d", r.Rank, r.GroupSize)
		}
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", r.FiscalYear), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, string(r.Metric), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", r.Value), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, percentile, "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, rank, "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", r.GroupSize), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	groupKey := site.PeerGroupKey()
	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(25, 6, "FY", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Metric", "1", 0, "C", false, 0, "")
	pdf.CellFormat(27, 6, "Min", "1", 0, "C", false, 0, "")
	pdf.CellFormat(27, 6, "P10", "1", 0, "C", false, 0, "")
	pdf.CellFormat(27, 6, "Median", "1", 0, "C", false, 0, "")
	pdf.CellFormat(27, 6, "P90", "1", 0, "C", false, 0, "")
	pdf.CellFormat(27, 6, "Max", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, s := range spreads {
		if s.PeerGroupKey != groupKey {
			continue
		}
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", s.FiscalYear), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, string(s.Metric), "1", 0, "C", false, 0, "")
		pdf.CellFormat(27, 6, fmt.Sprintf("%.2f", s.Min), "1", 0, "R", false, 0, "")
		pdf.CellFormat(27, 6, fmt.Sprintf("%.2f", s.P10), "1", 0, "R", false, 0, "")
		pdf.CellFormat(27, 6, fmt.Sprintf("%.2f", s.Median), "1", 0, "R", false, 0, "")
		pdf.CellFormat(27, 6, fmt.Sprintf("%.2f", s.P90), "1", 0, "R", false, 0, "")
		pdf.CellFormat(27, 6, fmt.Sprintf("%.2f", s.Max), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("export: writing pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func fmtOptional(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}
