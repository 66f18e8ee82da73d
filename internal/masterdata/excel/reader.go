// Package excel reads the Other Data workbook: site metadata, degree-day
// series and the service category map.
package excel

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	billing "utility-bench/internal/billing/domain"
	masterdata "utility-bench/internal/masterdata/domain"
)

// Sheet names and layout of the Other Data workbook. Each sheet carries
// three banner rows above the header row, matching the workbook the
// benchmarking process has always been fed.
const (
	SheetBuildings  = "Building"
	SheetDegreeDays = "Degree Days"
	SheetCategories = "Service Categories"

	headerRowOffset = 3
)

// Workbook is the parsed Other Data content.
type Workbook struct {
	Sites      *masterdata.SiteRegistry
	DegreeDays *masterdata.DegreeDaySeries
	Categories *masterdata.ServiceCategoryTable
}

// ReadFile loads and parses the workbook at path.
func ReadFile(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("excel: opening %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses an open workbook.
func Read(f *excelize.File) (*Workbook, error) {
	sites, err := readBuildings(f)
	if err != nil {
		return nil, err
	}
	dd, err := readDegreeDays(f)
	if err != nil {
		return nil, err
	}
	categories, err := readCategories(f)
	if err != nil {
		return nil, err
	}
	registry, err := masterdata.NewSiteRegistry(sites)
	if err != nil {
		return nil, fmt.Errorf("excel: %s sheet: %w", SheetBuildings, err)
	}
	table, err := masterdata.NewServiceCategoryTable(categories)
	if err != nil {
		return nil, fmt.Errorf("excel: %s sheet: %w", SheetCategories, err)
	}
	return &Workbook{
		Sites:      registry,
		DegreeDays: masterdata.NewDegreeDaySeries(dd),
		Categories: table,
	}, nil
}

// sheetRows returns data rows below the banner and header rows, along with
// a lower-cased header -> column index map.
func sheetRows(f *excelize.File, sheet string) (map[string]int, [][]string, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("excel: sheet %q: %w", sheet, err)
	}
	if len(rows) <= headerRowOffset {
		return nil, nil, fmt.Errorf("excel: sheet %q has no header row", sheet)
	}
	header := rows[headerRowOffset]
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			cols[name] = i
		}
	}
	return cols, rows[headerRowOffset+1:], nil
}

func cell(row []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func readBuildings(f *excelize.File) ([]masterdata.Site, error) {
	cols, rows, err := sheetRows(f, SheetBuildings)
	if err != nil {
		return nil, err
	}
	var sites []masterdata.Site
	for i, row := range rows {
		id := cell(row, cols, "site_id")
		if id == "" {
			continue
		}
		sqft, err := cellFloat(row, cols, "sq_ft")
		if err != nil {
			return nil, fmt.Errorf("excel: %s row %d: sq_ft: %w", SheetBuildings, i+headerRowOffset+2, err)
		}
		site := masterdata.Site{
			ID:               id,
			Name:             cell(row, cols, "site_name"),
			SquareFeet:       sqft,
			FiscalStartMonth: time.July,
			PrimaryFunction:  cell(row, cols, "primary_func"),
			SiteCategory:     cell(row, cols, "site_category"),
			DegreeDaySite:    cell(row, cols, "dd_site"),
		}
		if raw := cell(row, cols, "fiscal_start_month"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > 12 {
				return nil, fmt.Errorf("excel: %s row %d: bad fiscal_start_month %q", SheetBuildings, i+headerRowOffset+2, raw)
			}
			site.FiscalStartMonth = time.Month(n)
		}
		if raw := cell(row, cols, "active_from"); raw != "" {
			t, err := parseSheetDate(raw)
			if err != nil {
				return nil, fmt.Errorf("excel: %s row %d: active_from: %w", SheetBuildings, i+headerRowOffset+2, err)
			}
			site.ActiveFrom = t
		}
		if raw := cell(row, cols, "active_to"); raw != "" {
			t, err := parseSheetDate(raw)
			if err != nil {
				return nil, fmt.Errorf("excel: %s row %d: active_to: %w", SheetBuildings, i+headerRowOffset+2, err)
			}
			site.ActiveTo = t
		}
		sites = append(sites, site)
	}
	return sites, nil
}

func readDegreeDays(f *excelize.File) ([]masterdata.DegreeDayRecord, error) {
	cols, rows, err := sheetRows(f, SheetDegreeDays)
	if err != nil {
		// Degree days are optional input; without the sheet every
		// weather-normalized metric is reported unavailable.
		return nil, nil
	}
	var records []masterdata.DegreeDayRecord
	for i, row := range rows {
		station := cell(row, cols, "station")
		if station == "" {
			continue
		}
		month, err := parseSheetMonth(cell(row, cols, "month"))
		if err != nil {
			return nil, fmt.Errorf("excel: %s row %d: %w", SheetDegreeDays, i+headerRowOffset+2, err)
		}
		hdd, err := cellFloat(row, cols, "hdd")
		if err != nil {
			return nil, fmt.Errorf("excel: %s row %d: hdd: %w", SheetDegreeDays, i+headerRowOffset+2, err)
		}
		cdd, err := cellFloat(row, cols, "cdd")
		if err != nil {
			return nil, fmt.Errorf("excel: %s row %d: cdd: %w", SheetDegreeDays, i+headerRowOffset+2, err)
		}
		records = append(records, masterdata.DegreeDayRecord{
			Station:           station,
			Year:              month.Year(),
			Month:             month.Month(),
			HeatingDegreeDays: hdd,
			CoolingDegreeDays: cdd,
		})
	}
	return records, nil
}

func readCategories(f *excelize.File) ([]masterdata.ServiceCategoryEntry, error) {
	cols, rows, err := sheetRows(f, SheetCategories)
	if err != nil {
		return nil, err
	}
	var entries []masterdata.ServiceCategoryEntry
	for i, row := range rows {
		service := cell(row, cols, "service_name")
		if service == "" {
			continue
		}
		entry := masterdata.ServiceCategoryEntry{
			ServiceName: service,
			Units:       cell(row, cols, "units"),
			Category:    billing.FuelCategory(cell(row, cols, "category")),
		}
		if raw := cell(row, cols, "btu_per_unit"); raw != "" {
			v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
			if err != nil {
				return nil, fmt.Errorf("excel: %s row %d: btu_per_unit: %w", SheetCategories, i+headerRowOffset+2, err)
			}
			entry.BTUPerUnit = &v
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func cellFloat(row []string, cols map[string]int, name string) (float64, error) {
	raw := cell(row, cols, name)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
}

var sheetDateLayouts = []string{"2006-01-02", "1/2/2006", "01-02-06", "Jan-06", "2006-01"}

func parseSheetDate(s string) (time.Time, error) {
	for _, layout := range sheetDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// parseSheetMonth accepts YYYY-MM or any full date within the month.
func parseSheetMonth(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("missing month")
	}
	if t, err := time.Parse("2006-01", s); err == nil {
		return t, nil
	}
	return parseSheetDate(s)
}
