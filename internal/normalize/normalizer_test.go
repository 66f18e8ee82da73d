package normalize

import (
	"math"
	"testing"
	"time"

	billing "utility-bench/internal/billing/domain"
	masterdata "utility-bench/internal/masterdata/domain"
)

func testTable(t *testing.T) *masterdata.ServiceCategoryTable {
	t.Helper()
	kwh := 3412.0
	gallons := 138_000.0
	table, err := masterdata.NewServiceCategoryTable([]masterdata.ServiceCategoryEntry{
		{ServiceName: "Electricity", Units: "kWh", Category: billing.CategoryElectricity, BTUPerUnit: &kwh},
		{ServiceName: "Oil #1", Units: "Gallons", Category: billing.CategoryFuelOil, BTUPerUnit: &gallons},
		{ServiceName: "Water", Units: "Gallons", Category: billing.CategoryWater},
	})
	if err != nil {
		t.Fatalf("building table: %v", err)
	}
	return table
}

func TestNormalizeEnergy(t *testing.T) {
	n, err := NewNormalizer(testTable(t))
	if err != nil {
		t.Fatalf("NewNormalizer: %v", err)
	}
	usage := 1500.0
	rec, err := n.Normalize(billing.RawBillRecord{
		SiteID:      "SITE1",
		ServiceName: "Electricity",
		Units:       "kWh",
		Usage:       &usage,
		Cost:        180,
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if rec.Category != billing.CategoryElectricity {
		t.Fatalf("category = %v", rec.Category)
	}
	if want := 1500 * 3412.0 / 1e6; math.Abs(rec.MMBTU-want) > 1e-9 {
		t.Fatalf("MMBTU = %v, want %v", rec.MMBTU, want)
	}
}

func TestNormalizeNonEnergyPassthrough(t *testing.T) {
	n, _ := NewNormalizer(testTable(t))
	usage := 9000.0
	rec, err := n.Normalize(billing.RawBillRecord{
		SiteID:      "SITE1",
		ServiceName: "Water",
		Units:       "Gallons",
		Usage:       &usage,
		Cost:        55,
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if rec.Category != billing.CategoryWater {
		t.Fatalf("category = %v", rec.Category)
	}
	if rec.MMBTU != 0 || rec.BTUPerUnit != 0 {
		t.Fatalf("non-energy service converted: MMBTU=%v BTUPerUnit=%v", rec.MMBTU, rec.BTUPerUnit)
	}
	if rec.UsageValue() != 9000 {
		t.Fatalf("usage should pass through unchanged: %v", rec.UsageValue())
	}
}

func TestNormalizeCostOnly(t *testing.T) {
	n, _ := NewNormalizer(testTable(t))
	rec, err := n.Normalize(billing.RawBillRecord{
		SiteID:      "SITE1",
		ServiceName: "Electricity",
		Units:       "kWh",
		Cost:        25,
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if rec.MMBTU != 0 {
		t.Fatalf("cost-only line item acquired energy content: %v", rec.MMBTU)
	}
}

func TestNormalizeUnmappedFailsClosed(t *testing.T) {
	n, _ := NewNormalizer(testTable(t))
	from := time.Date(2018, time.April, 1, 0, 0, 0, 0, time.UTC)
	_, err := n.Normalize(billing.RawBillRecord{
		SiteID:      "SITE7",
		ServiceName: "Mystery Fuel",
		Units:       "Zorkels",
		From:        from,
	})
	if err == nil {
		t.Fatalf("unmapped service/unit combination was accepted")
	}
	me, ok := AsMappingError(err)
	if !ok {
		t.Fatalf("error is %T, want *MappingError", err)
	}
	if me.ServiceName != "Mystery Fuel" || me.Units != "Zorkels" || me.SiteID != "SITE7" || !me.PeriodFrom.Equal(from) {
		t.Fatalf("mapping error missing context: %+v", me)
	}
}

func TestNormalizeUnitsDisambiguate(t *testing.T) {
	// Same unit label under different services must resolve independently.
	n, _ := NewNormalizer(testTable(t))
	usage := 100.0
	oil, err := n.Normalize(billing.RawBillRecord{SiteID: "S", ServiceName: "Oil #1", Units: "Gallons", Usage: &usage})
	if err != nil {
		t.Fatalf("oil: %v", err)
	}
	water, err := n.Normalize(billing.RawBillRecord{SiteID: "S", ServiceName: "Water", Units: "Gallons", Usage: &usage})
	if err != nil {
		t.Fatalf("water: %v", err)
	}
	if oil.MMBTU == 0 || water.MMBTU != 0 {
		t.Fatalf("unit label resolved by the wrong service: oil=%v water=%v", oil.MMBTU, water.MMBTU)
	}
}
