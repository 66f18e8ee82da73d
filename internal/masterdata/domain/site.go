package masterdata

import (
	"sort"
	"time"
)

// Site holds per-building metadata used throughout the pipeline.
type Site struct {
	ID               string
	Name             string
	SquareFeet       float64
	FiscalStartMonth time.Month
	// PrimaryFunction is the building usage type (School, Office, ...).
	PrimaryFunction string
	// SiteCategory is the owning organization.
	SiteCategory string
	// DegreeDaySite is the weather station key for degree-day lookups.
	// Empty when no station maps to the building's location.
	DegreeDaySite string
	// ActiveFrom/ActiveTo bound the period the site is in service.
	// A zero value means unbounded on that side.
	ActiveFrom time.Time
	ActiveTo   time.Time
}

// PeerGroupKey combines building category and organization; sites sharing a
// key are compared against each other when ranking.
func (s Site) PeerGroupKey() string {
	return s.PrimaryFunction + "|" + s.SiteCategory
}

// ActiveDuring reports whether the site was in service at any point of the
// half-open period [from, thru).
func (s Site) ActiveDuring(from, thru time.Time) bool {
	if !s.ActiveTo.IsZero() && !from.Before(s.ActiveTo) {
		return false
	}
	if !s.ActiveFrom.IsZero() && !s.ActiveFrom.Before(thru) {
		return false
	}
	return true
}

func (s Site) validate() error {
	if s.ID == "" {
		return ErrMissingSiteID
	}
	if s.SquareFeet < 0 {
		return ErrInvalidSquareFeet
	}
	if s.FiscalStartMonth < time.January || s.FiscalStartMonth > time.December {
		return ErrInvalidFiscalStart
	}
	return nil
}

// SiteRegistry is the immutable site metadata lookup, loaded once per run.
type SiteRegistry struct {
	sites map[string]Site
	order []string
}

// NewSiteRegistry builds the registry, validating each site and rejecting
// duplicate identifiers.
func NewSiteRegistry(sites []Site) (*SiteRegistry, error) {
	m := make(map[string]Site, len(sites))
	order := make([]string, 0, len(sites))
	for _, s := range sites {
		if err := s.validate(); err != nil {
			return nil, err
		}
		if _, exists := m[s.ID]; exists {
			return nil, ErrDuplicateSiteID
		}
		m[s.ID] = s
		order = append(order, s.ID)
	}
	sort.Strings(order)
	return &SiteRegistry{sites: m, order: order}, nil
}

// Get looks up a site by identifier.
func (r *SiteRegistry) Get(id string) (Site, bool) {
	s, ok := r.sites[id]
	return s, ok
}

// SiteIDs returns all registered identifiers in alphabetical order. Sites
// are processed in this order so bounded runs are deterministic.
func (r *SiteRegistry) SiteIDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered sites.
func (r *SiteRegistry) Len() int { return len(r.sites) }
