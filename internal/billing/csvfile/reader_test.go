package csvfile

import (
	"math"
	"strings"
	"testing"
	"time"

	billing "utility-bench/internal/billing/domain"
)

const header = "Site ID,From,Thru,Service Name,Item Description,Usage,Cost,Units,Account Number,Vendor Name\n"

func TestReadParsesRows(t *testing.T) {
	in := header +
		`S1,2018-01-01,2018-02-01,Electricity,Energy Charge,"1,500",$182.50,kWh,ACCT-9,GVEA` + "\n"
	records, issues, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.SiteID != "S1" || rec.ServiceName != "Electricity" || rec.Units != "kWh" {
		t.Fatalf("fields wrong: %+v", rec)
	}
	if rec.Usage == nil || *rec.Usage != 1500 {
		t.Fatalf("usage = %v", rec.Usage)
	}
	if math.Abs(rec.Cost-182.50) > 1e-9 {
		t.Fatalf("cost = %v", rec.Cost)
	}
	if rec.AccountNumber != "ACCT-9" || rec.VendorName != "GVEA" {
		t.Fatalf("account/vendor lost: %+v", rec)
	}
	if !rec.From.Equal(time.Date(2018, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("from = %v", rec.From)
	}
}

func TestReadAcceptsSlashDates(t *testing.T) {
	in := header + "S1,1/16/2017,2/13/2017,Electricity,Energy Charge,100,10,kWh,,\n"
	records, _, err := Read(strings.NewReader(in))
	if err != nil || len(records) != 1 {
		t.Fatalf("Read: %v (%d records)", err, len(records))
	}
	if records[0].PeriodDays() != 28 {
		t.Fatalf("period = %d days, want 28", records[0].PeriodDays())
	}
}

func TestReadRelabelsCostOnlyRows(t *testing.T) {
	in := header +
		"S1,2018-01-01,2018-02-01,Electricity,Utility Tax,,12.00,kWh,,\n" +
		"S1,2018-01-01,2018-02-01,Electricity,Regulatory Surcharge,,3.25,kWh,,\n"
	records, _, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	// Both rows collapse under the shared label and pre-sum to one record.
	if len(records) != 1 {
		t.Fatalf("expected 1 combined record, got %d: %+v", len(records), records)
	}
	rec := records[0]
	if rec.ItemDescription != billing.OtherChargeDescription {
		t.Fatalf("description = %q", rec.ItemDescription)
	}
	if rec.Usage != nil {
		t.Fatalf("cost-only record has usage")
	}
	if math.Abs(rec.Cost-15.25) > 1e-9 {
		t.Fatalf("cost = %v, want 15.25", rec.Cost)
	}
}

func TestReadPreSumsIdenticalRows(t *testing.T) {
	in := header +
		"S1,2018-01-01,2018-02-01,Electricity,Energy Charge,100,10,kWh,,\n" +
		"S1,2018-01-01,2018-02-01,Electricity,Energy Charge,50,5,kWh,,\n" +
		"S1,2018-02-01,2018-03-01,Electricity,Energy Charge,70,7,kWh,,\n"
	records, _, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records after combining, got %d", len(records))
	}
	first := records[0]
	if first.Usage == nil || *first.Usage != 150 || math.Abs(first.Cost-15) > 1e-9 {
		t.Fatalf("combined record wrong: usage=%v cost=%v", first.Usage, first.Cost)
	}
}

func TestReadReportsBadRowsAndContinues(t *testing.T) {
	in := header +
		"S1,not-a-date,2018-02-01,Electricity,Energy Charge,100,10,kWh,,\n" +
		"S1,2018-01-01,2018-02-01,Electricity,Energy Charge,abc,10,kWh,,\n" +
		"S1,2018-01-01,2018-02-01,Electricity,Energy Charge,100,10,kWh,,\n"
	records, issues, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("good row lost: %d records", len(records))
	}
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %v", issues)
	}
	if issues[0].Line != 2 || issues[1].Line != 3 {
		t.Fatalf("issue line numbers wrong: %v", issues)
	}
}

func TestReadMissingRequiredColumn(t *testing.T) {
	in := "From,Thru,Service Name,Cost\n2018-01-01,2018-02-01,Electricity,10\n"
	if _, _, err := Read(strings.NewReader(in)); err == nil {
		t.Fatalf("missing Site ID column accepted")
	}
}

func TestReadEmptyDatesDeferredToValidation(t *testing.T) {
	// A blank date parses to the zero time; the pipeline's validation step
	// rejects it with a categorized skip rather than a load failure.
	in := header + "S1,,2018-02-01,Electricity,Energy Charge,100,10,kWh,,\n"
	records, issues, err := Read(strings.NewReader(in))
	if err != nil || len(issues) != 0 {
		t.Fatalf("Read: %v issues=%v", err, issues)
	}
	if len(records) != 1 || !records[0].From.IsZero() {
		t.Fatalf("blank date mishandled: %+v", records)
	}
	if records[0].Validate() == nil {
		t.Fatalf("zero date passed validation")
	}
}
