// Package normalize resolves each bill record's standard category and
// converts its usage to energy content.
package normalize

import (
	"errors"
	"fmt"
	"time"

	billing "utility-bench/internal/billing/domain"
	masterdata "utility-bench/internal/masterdata/domain"
)

// Record is a bill line item with its resolved category and energy content.
type Record struct {
	billing.RawBillRecord

	Category billing.FuelCategory
	// BTUPerUnit is 0 for non-energy categories.
	BTUPerUnit float64
	// MMBTU is usage x BTUPerUnit / 1e6; 0 for cost-only lines and
	// non-energy categories.
	MMBTU float64
}

// MappingError reports an unresolved (service, units) combination. The
// record is excluded from aggregates; guessing a category would corrupt
// every downstream number, so the failure carries enough context for an
// operator to extend the lookup table.
type MappingError struct {
	ServiceName string
	Units       string
	SiteID      string
	PeriodFrom  time.Time
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("normalize: no category mapping for service %q units %q (site %s, period from %s)",
		e.ServiceName, e.Units, e.SiteID, e.PeriodFrom.Format("2006-01-02"))
}

// AsMappingError unwraps err into a MappingError, if it is one.
func AsMappingError(err error) (*MappingError, bool) {
	var me *MappingError
	if errors.As(err, &me) {
		return me, true
	}
	return nil, false
}

// Normalizer resolves categories and units against the immutable lookup
// table. It is safe for concurrent use.
type Normalizer struct {
	table *masterdata.ServiceCategoryTable
}

// NewNormalizer constructs a Normalizer.
func NewNormalizer(table *masterdata.ServiceCategoryTable) (*Normalizer, error) {
	if table == nil {
		return nil, errors.New("normalize: nil category table")
	}
	return &Normalizer{table: table}, nil
}

// Normalize resolves the record's category and computes its MMBTU content.
// An unmapped service/unit combination returns a *MappingError.
func (n *Normalizer) Normalize(rec billing.RawBillRecord) (Record, error) {
	entry, ok := n.table.Lookup(rec.ServiceName, rec.Units)
	if !ok {
		return Record{}, &MappingError{
			ServiceName: rec.ServiceName,
			Units:       rec.Units,
			SiteID:      rec.SiteID,
			PeriodFrom:  rec.From,
		}
	}

	out := Record{
		RawBillRecord: rec,
		Category:      entry.Category,
	}
	if entry.BTUPerUnit != nil && entry.Category.IsEnergy() {
		out.BTUPerUnit = *entry.BTUPerUnit
		if rec.Usage != nil {
			out.MMBTU = *rec.Usage * out.BTUPerUnit / 1e6
		}
	}
	return out, nil
}
