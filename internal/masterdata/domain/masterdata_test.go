package masterdata

import (
	"errors"
	"reflect"
	"testing"
	"time"

	billing "utility-bench/internal/billing/domain"
)

func fptr(v float64) *float64 { return &v }

func TestServiceCategoryTable(t *testing.T) {
	table, err := NewServiceCategoryTable([]ServiceCategoryEntry{
		{ServiceName: "Electricity", Units: "kWh", Category: billing.CategoryElectricity, BTUPerUnit: fptr(3412)},
		{ServiceName: "Water", Units: "gal", Category: billing.CategoryWater},
	})
	if err != nil {
		t.Fatalf("building table: %v", err)
	}
	entry, ok := table.Lookup("Electricity", "kWh")
	if !ok || entry.Category != billing.CategoryElectricity || *entry.BTUPerUnit != 3412 {
		t.Fatalf("lookup wrong: %+v ok=%v", entry, ok)
	}
	if _, ok := table.Lookup("Electricity", "kW"); ok {
		t.Fatalf("unmapped units resolved")
	}
	if table.Len() != 2 {
		t.Fatalf("Len = %d, want 2", table.Len())
	}
}

func TestServiceCategoryTableRejectsDuplicates(t *testing.T) {
	_, err := NewServiceCategoryTable([]ServiceCategoryEntry{
		{ServiceName: "Electricity", Units: "kWh", Category: billing.CategoryElectricity},
		{ServiceName: "Electricity", Units: "kWh", Category: billing.CategoryOther},
	})
	if !errors.Is(err, ErrDuplicateServiceKey) {
		t.Fatalf("got %v, want ErrDuplicateServiceKey", err)
	}
}

func TestServiceCategoryTableRejectsUnknownCategory(t *testing.T) {
	_, err := NewServiceCategoryTable([]ServiceCategoryEntry{
		{ServiceName: "Electricity", Units: "kWh", Category: "Plasma"},
	})
	if !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("got %v, want ErrInvalidCategory", err)
	}
}

func TestSiteRegistryOrder(t *testing.T) {
	reg, err := NewSiteRegistry([]Site{
		{ID: "ZULU1", FiscalStartMonth: time.July},
		{ID: "ALPHA2", FiscalStartMonth: time.July},
		{ID: "MIKE3", FiscalStartMonth: time.January},
	})
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}
	want := []string{"ALPHA2", "MIKE3", "ZULU1"}
	if got := reg.SiteIDs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("SiteIDs = %v, want %v", got, want)
	}
	if _, ok := reg.Get("MIKE3"); !ok {
		t.Fatalf("registered site missing")
	}
	if _, ok := reg.Get("NOPE"); ok {
		t.Fatalf("unregistered site resolved")
	}
}

func TestSiteRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewSiteRegistry([]Site{
		{ID: "S1", FiscalStartMonth: time.July},
		{ID: "S1", FiscalStartMonth: time.July},
	})
	if !errors.Is(err, ErrDuplicateSiteID) {
		t.Fatalf("got %v, want ErrDuplicateSiteID", err)
	}
}

func TestSiteRegistryValidation(t *testing.T) {
	if _, err := NewSiteRegistry([]Site{{FiscalStartMonth: time.July}}); !errors.Is(err, ErrMissingSiteID) {
		t.Fatalf("got %v, want ErrMissingSiteID", err)
	}
	if _, err := NewSiteRegistry([]Site{{ID: "S1", SquareFeet: -10, FiscalStartMonth: time.July}}); !errors.Is(err, ErrInvalidSquareFeet) {
		t.Fatalf("got %v, want ErrInvalidSquareFeet", err)
	}
	if _, err := NewSiteRegistry([]Site{{ID: "S1"}}); !errors.Is(err, ErrInvalidFiscalStart) {
		t.Fatalf("got %v, want ErrInvalidFiscalStart", err)
	}
}

func TestPeerGroupKey(t *testing.T) {
	s := Site{PrimaryFunction: "School", SiteCategory: "District A"}
	if got := s.PeerGroupKey(); got != "School|District A" {
		t.Fatalf("PeerGroupKey = %q", got)
	}
}

func TestActiveDuring(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	s := Site{
		ID:         "S1",
		ActiveFrom: day(2017, time.March, 1),
		ActiveTo:   day(2019, time.March, 1),
	}
	if !s.ActiveDuring(day(2018, time.January, 1), day(2018, time.February, 1)) {
		t.Fatalf("period inside active range rejected")
	}
	if s.ActiveDuring(day(2016, time.January, 1), day(2017, time.March, 1)) {
		t.Fatalf("period ending at activation accepted")
	}
	if s.ActiveDuring(day(2019, time.March, 1), day(2019, time.April, 1)) {
		t.Fatalf("period starting at deactivation accepted")
	}
	// Partial overlap counts as in service.
	if !s.ActiveDuring(day(2017, time.February, 15), day(2017, time.March, 15)) {
		t.Fatalf("overlapping period rejected")
	}
	var unbounded Site
	if !unbounded.ActiveDuring(day(1990, time.January, 1), day(2050, time.January, 1)) {
		t.Fatalf("unbounded site should always be active")
	}
}

func TestDegreeDaySeries(t *testing.T) {
	series := NewDegreeDaySeries([]DegreeDayRecord{
		{Station: "PAFA", Year: 2018, Month: time.January, HeatingDegreeDays: 2300, CoolingDegreeDays: 0},
		{Station: "PAFA", Year: 2018, Month: time.January, HeatingDegreeDays: 2310, CoolingDegreeDays: 0}, // refresh wins
	})
	rec, ok := series.Lookup("PAFA", 2018, time.January)
	if !ok || rec.HeatingDegreeDays != 2310 {
		t.Fatalf("lookup = %+v ok=%v, want refreshed record", rec, ok)
	}
	if _, ok := series.Lookup("PAFA", 2018, time.February); ok {
		t.Fatalf("uncovered month resolved")
	}
	if series.Len() != 1 {
		t.Fatalf("Len = %d, want 1", series.Len())
	}
}
