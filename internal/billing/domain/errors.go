package billing

import "errors"

var (
	// ErrMissingSiteID is returned when a record has no site identifier.
	ErrMissingSiteID = errors.New("billing: missing site id")
	// ErrMissingDate is returned when a service-period date is absent.
	ErrMissingDate = errors.New("billing: missing service period date")
	// ErrEndBeforeStart is returned when the period end precedes the start.
	ErrEndBeforeStart = errors.New("billing: period end before start")
	// ErrPeriodTooLong rejects implausibly long billing periods.
	ErrPeriodTooLong = errors.New("billing: service period too long")
)
