package masterdata

import "errors"

var (
	// ErrDuplicateServiceKey is returned when two category entries share a
	// (service name, units) key.
	ErrDuplicateServiceKey = errors.New("masterdata: duplicate service/unit key")
	// ErrInvalidCategory is returned for an unrecognized standard category.
	ErrInvalidCategory = errors.New("masterdata: invalid fuel category")
	// ErrMissingSiteID is returned when a site has no identifier.
	ErrMissingSiteID = errors.New("masterdata: missing site id")
	// ErrDuplicateSiteID is returned when two sites share an identifier.
	ErrDuplicateSiteID = errors.New("masterdata: duplicate site id")
	// ErrInvalidSquareFeet is returned for non-positive floor area.
	ErrInvalidSquareFeet = errors.New("masterdata: invalid square footage")
	// ErrInvalidFiscalStart is returned for a fiscal start month outside 1..12.
	ErrInvalidFiscalStart = errors.New("masterdata: invalid fiscal start month")
	// ErrSiteNotFound is returned when a site id is not registered.
	ErrSiteNotFound = errors.New("masterdata: site not found")
)
