package pipeline

import (
	"time"

	"utility-bench/internal/dedupe"
	"utility-bench/internal/degreeday"
	"utility-bench/internal/normalize"
)

// SkipReason categorizes why a record was excluded from aggregates.
type SkipReason string

const (
	SkipMappingError   SkipReason = "mapping_error"
	SkipDateRange      SkipReason = "date_range"
	SkipUnknownSite    SkipReason = "unknown_site"
	SkipInactivePeriod SkipReason = "inactive_period"
)

// SkippedRecord identifies one excluded record and why. Enough origin
// detail is kept for an operator to find and fix the source row.
type SkippedRecord struct {
	SiteID          string
	ServiceName     string
	Units           string
	ItemDescription string
	From            time.Time
	Thru            time.Time
	Reason          SkipReason
	Detail          string
}

// UnrankedSite reports a site left unranked because its peer group was
// below the minimum size.
type UnrankedSite struct {
	SiteID       string
	FiscalYear   int
	PeerGroupKey string
	GroupSize    int
}

// RunSummary is the mandatory data-quality report for one pipeline run.
// Every skipped record and warning is listed so operators can audit input
// quality; nothing is silently dropped.
type RunSummary struct {
	RecordsLoaded  int
	SitesProcessed int
	SitesSkipped   int

	MappingErrors       []normalize.MappingError
	SkippedRecords      []SkippedRecord
	DuplicateWarnings   []dedupe.Warning
	DuplicatesCollapsed int
	DegreeDayWarnings   []degreeday.Warning
	UnrankedSites       []UnrankedSite

	Started  time.Time
	Finished time.Time
}

// Clean reports whether the run surfaced no data-quality issues.
func (s RunSummary) Clean() bool {
	return len(s.MappingErrors) == 0 &&
		len(s.SkippedRecords) == 0 &&
		len(s.DuplicateWarnings) == 0 &&
		len(s.DegreeDayWarnings) == 0 &&
		len(s.UnrankedSites) == 0
}
