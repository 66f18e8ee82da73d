package masterdata

import (
	billing "utility-bench/internal/billing/domain"
)

// ServiceKey identifies one (service name, unit label) combination.
type ServiceKey struct {
	ServiceName string
	Units       string
}

// ServiceCategoryEntry maps a service/unit combination to its standard
// category and energy content. BTUPerUnit is nil for non-energy services
// (water, sewer, refuse) whose usage passes through unconverted.
type ServiceCategoryEntry struct {
	ServiceName string
	Units       string
	Category    billing.FuelCategory
	BTUPerUnit  *float64
}

// Key returns the lookup key for the entry.
func (e ServiceCategoryEntry) Key() ServiceKey {
	return ServiceKey{ServiceName: e.ServiceName, Units: e.Units}
}

// ServiceCategoryTable is the immutable (service, units) -> category lookup.
// It is built once at startup and shared read-only by all pipeline workers.
type ServiceCategoryTable struct {
	entries map[ServiceKey]ServiceCategoryEntry
}

// NewServiceCategoryTable builds the table, rejecting duplicate keys and
// unknown categories. An unresolved lookup later is a mapping error, never a
// silent default, so the table must be internally consistent up front.
func NewServiceCategoryTable(entries []ServiceCategoryEntry) (*ServiceCategoryTable, error) {
	m := make(map[ServiceKey]ServiceCategoryEntry, len(entries))
	for _, e := range entries {
		if !e.Category.IsValid() {
			return nil, ErrInvalidCategory
		}
		key := e.Key()
		if _, exists := m[key]; exists {
			return nil, ErrDuplicateServiceKey
		}
		m[key] = e
	}
	return &ServiceCategoryTable{entries: m}, nil
}

// Lookup resolves a service/unit combination. The second return value is
// false when the combination is not mapped.
func (t *ServiceCategoryTable) Lookup(serviceName, units string) (ServiceCategoryEntry, bool) {
	e, ok := t.entries[ServiceKey{ServiceName: serviceName, Units: units}]
	return e, ok
}

// Len returns the number of mapped combinations.
func (t *ServiceCategoryTable) Len() int { return len(t.entries) }
