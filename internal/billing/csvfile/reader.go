// Package csvfile loads raw utility bill line items from the billing-system
// CSV export.
package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	billing "utility-bench/internal/billing/domain"
)

// Issue is one input row the loader could not parse. The row stays out of
// the result; the caller reports it in the run summary.
type Issue struct {
	Line   int
	Detail string
}

func (i Issue) String() string {
	return fmt.Sprintf("line %d: %s", i.Line, i.Detail)
}

// expected header names, matched case-insensitively.
const (
	colSiteID      = "site id"
	colFrom        = "from"
	colThru        = "thru"
	colService     = "service name"
	colDescription = "item description"
	colUsage       = "usage"
	colCost        = "cost"
	colUnits       = "units"
	colAccount     = "account number"
	colVendor      = "vendor name"
)

var dateLayouts = []string{"2006-01-02", "1/2/2006", "01/02/2006", "2006-01-02 15:04:05"}

// Read parses the export from r. Line items without a usage quantity are
// relabeled as "Other Charge", and rows identical in (site, period,
// service, description, units) are pre-summed; that collapses the flood of
// per-tax, per-surcharge lines before any of them get split across months.
func Read(r io.Reader) ([]billing.RawBillRecord, []Issue, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("csvfile: reading header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colSiteID, colFrom, colThru, colService, colCost} {
		if _, ok := cols[required]; !ok {
			return nil, nil, fmt.Errorf("csvfile: missing required column %q", required)
		}
	}

	var records []billing.RawBillRecord
	var issues []Issue
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			issues = append(issues, Issue{Line: line, Detail: err.Error()})
			continue
		}
		rec, err := parseRow(row, cols)
		if err != nil {
			issues = append(issues, Issue{Line: line, Detail: err.Error()})
			continue
		}
		records = append(records, rec)
	}

	return combine(records), issues, nil
}

// ReadFile reads the export at path.
func ReadFile(path string) ([]billing.RawBillRecord, []Issue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("csvfile: %w", err)
	}
	defer f.Close()
	return Read(f)
}

func parseRow(row []string, cols map[string]int) (billing.RawBillRecord, error) {
	field := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	from, err := parseDate(field(colFrom))
	if err != nil {
		return billing.RawBillRecord{}, fmt.Errorf("from date: %w", err)
	}
	thru, err := parseDate(field(colThru))
	if err != nil {
		return billing.RawBillRecord{}, fmt.Errorf("thru date: %w", err)
	}
	cost, err := parseAmount(field(colCost))
	if err != nil {
		return billing.RawBillRecord{}, fmt.Errorf("cost: %w", err)
	}

	rec := billing.RawBillRecord{
		SiteID:          field(colSiteID),
		ServiceName:     field(colService),
		Units:           field(colUnits),
		Cost:            cost,
		From:            from,
		Thru:            thru,
		ItemDescription: field(colDescription),
		AccountNumber:   field(colAccount),
		VendorName:      field(colVendor),
	}

	if raw := field(colUsage); raw != "" {
		usage, err := parseAmount(raw)
		if err != nil {
			return billing.RawBillRecord{}, fmt.Errorf("usage: %w", err)
		}
		rec.Usage = &usage
	} else {
		// Cost-only charge (tax, fee). One shared label keeps these out of
		// the duplicate-usage heuristics and collapses them per period.
		rec.ItemDescription = billing.OtherChargeDescription
	}
	return rec, nil
}

type combineKey struct {
	siteID      string
	from        time.Time
	thru        time.Time
	serviceName string
	description string
	units       string
}

// combine pre-sums rows identical in everything but amount. Output order is
// deterministic (first-seen key order is replaced by a sort).
func combine(records []billing.RawBillRecord) []billing.RawBillRecord {
	byKey := make(map[combineKey]*billing.RawBillRecord)
	var keys []combineKey
	for _, rec := range records {
		key := combineKey{
			siteID:      rec.SiteID,
			from:        rec.From,
			thru:        rec.Thru,
			serviceName: rec.ServiceName,
			description: rec.ItemDescription,
			units:       rec.Units,
		}
		existing, ok := byKey[key]
		if !ok {
			clone := rec
			if rec.Usage != nil {
				u := *rec.Usage
				clone.Usage = &u
			}
			byKey[key] = &clone
			keys = append(keys, key)
			continue
		}
		existing.Cost += rec.Cost
		if rec.Usage != nil {
			if existing.Usage == nil {
				u := *rec.Usage
				existing.Usage = &u
			} else {
				*existing.Usage += *rec.Usage
			}
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.siteID != b.siteID {
			return a.siteID < b.siteID
		}
		if !a.from.Equal(b.from) {
			return a.from.Before(b.from)
		}
		if !a.thru.Equal(b.thru) {
			return a.thru.Before(b.thru)
		}
		if a.serviceName != b.serviceName {
			return a.serviceName < b.serviceName
		}
		if a.description != b.description {
			return a.description < b.description
		}
		return a.units < b.units
	})

	out := make([]billing.RawBillRecord, 0, len(keys))
	for _, key := range keys {
		out = append(out, *byKey[key])
	}
	return out
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

func parseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
