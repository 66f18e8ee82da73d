// Package pipeline orchestrates the per-site normalization pipeline and the
// cross-site ranking stage behind it.
package pipeline

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"utility-bench/internal/aggregate"
	"utility-bench/internal/allocate"
	billing "utility-bench/internal/billing/domain"
	"utility-bench/internal/dedupe"
	"utility-bench/internal/degreeday"
	masterdata "utility-bench/internal/masterdata/domain"
	"utility-bench/internal/normalize"
	"utility-bench/internal/ranking"
)

// Result is the full output of one batch run: the per-site monthly series,
// the ranked fiscal-year metrics, and the run-level data-quality summary.
type Result struct {
	Aggregates []aggregate.MonthlyAggregate
	Merged     []degreeday.MergedMonthly
	Metrics    []ranking.SiteYearMetrics
	Ranks      []ranking.PercentileRankResult
	Spreads    []ranking.GroupSummary
	Summary    RunSummary
}

// Options configures a Runner.
type Options struct {
	// Strategy overrides the duplicate-charge heuristic; nil selects the
	// default label-precedence strategy.
	Strategy dedupe.Strategy
	// MinPeerGroupSize below which sites are reported unranked; <= 0
	// selects the default.
	MinPeerGroupSize int
	// MaxSites bounds the number of sites processed (alphabetical prefix);
	// 0 processes all. Aggregates for completed sites remain valid.
	MaxSites int
	// Workers caps concurrent per-site pipelines; <= 0 runs sequentially.
	Workers int
	// Logger receives progress messages; nil disables them.
	Logger *log.Logger
}

// Runner executes the batch pipeline. The lookup tables are immutable and
// shared across all site workers without synchronization; per-site work is
// independent, so results are identical whether sites run sequentially or
// in parallel.
type Runner struct {
	categories *masterdata.ServiceCategoryTable
	sites      *masterdata.SiteRegistry
	degreeDays *masterdata.DegreeDaySeries

	normalizer *normalize.Normalizer
	resolver   *dedupe.Resolver
	ranker     *ranking.Ranker

	maxSites int
	workers  int
	logger   *log.Logger
}

// NewRunner wires the pipeline stages around the run's lookup tables.
func NewRunner(categories *masterdata.ServiceCategoryTable, sites *masterdata.SiteRegistry, degreeDays *masterdata.DegreeDaySeries, opts Options) (*Runner, error) {
	if categories == nil {
		return nil, errors.New("pipeline: nil category table")
	}
	if sites == nil {
		return nil, errors.New("pipeline: nil site registry")
	}
	if degreeDays == nil {
		degreeDays = masterdata.NewDegreeDaySeries(nil)
	}
	normalizer, err := normalize.NewNormalizer(categories)
	if err != nil {
		return nil, err
	}
	return &Runner{
		categories: categories,
		sites:      sites,
		degreeDays: degreeDays,
		normalizer: normalizer,
		resolver:   dedupe.NewResolver(opts.Strategy),
		ranker:     ranking.NewRanker(opts.MinPeerGroupSize),
		maxSites:   opts.MaxSites,
		workers:    opts.Workers,
		logger:     opts.Logger,
	}, nil
}

// siteResult is one completed per-site pipeline, merged deterministically
// after the barrier.
type siteResult struct {
	siteID     string
	aggregates []aggregate.MonthlyAggregate
	merged     []degreeday.MergedMonthly

	mappingErrors []normalize.MappingError
	skipped       []SkippedRecord
	dupWarnings   []dedupe.Warning
	collapsed     int
	ddWarnings    []degreeday.Warning
}

// Run executes the full pipeline over the given records. Records for
// unregistered sites are reported and skipped. The error return is reserved
// for wiring failures and context cancellation; data problems land in the
// summary instead.
func (r *Runner) Run(ctx context.Context, records []billing.RawBillRecord) (*Result, error) {
	summary := RunSummary{
		RecordsLoaded: len(records),
		Started:       time.Now(),
	}

	bySite := make(map[string][]billing.RawBillRecord)
	for _, rec := range records {
		if _, ok := r.sites.Get(rec.SiteID); !ok {
			summary.SkippedRecords = append(summary.SkippedRecords, skipped(rec, SkipUnknownSite, "site not in registry"))
			continue
		}
		bySite[rec.SiteID] = append(bySite[rec.SiteID], rec)
	}

	siteIDs := r.sites.SiteIDs()
	if r.maxSites > 0 && len(siteIDs) > r.maxSites {
		summary.SitesSkipped = len(siteIDs) - r.maxSites
		siteIDs = siteIDs[:r.maxSites]
	}

	merger, err := degreeday.NewMerger(r.degreeDays, r.sites)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		results = make([]siteResult, 0, len(siteIDs))
	)

	g, gctx := errgroup.WithContext(ctx)
	if r.workers > 0 {
		g.SetLimit(r.workers)
	} else {
		g.SetLimit(1)
	}
	for _, siteID := range siteIDs {
		siteID := siteID
		siteRecords := bySite[siteID]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := r.runSite(siteID, siteRecords, merger)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			if r.logger != nil {
				r.logger.Printf("site %s processed (%d records, %d monthly aggregates)",
					siteID, len(siteRecords), len(res.aggregates))
			}
			return nil
		})
	}
	// Ranking needs every peer group member aggregated; this wait is the
	// synchronization barrier between the per-site stage and the ranker.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].siteID < results[j].siteID })

	out := &Result{}
	for _, res := range results {
		out.Aggregates = append(out.Aggregates, res.aggregates...)
		out.Merged = append(out.Merged, res.merged...)
		summary.MappingErrors = append(summary.MappingErrors, res.mappingErrors...)
		summary.SkippedRecords = append(summary.SkippedRecords, res.skipped...)
		summary.DuplicateWarnings = append(summary.DuplicateWarnings, res.dupWarnings...)
		summary.DuplicatesCollapsed += res.collapsed
		summary.DegreeDayWarnings = append(summary.DegreeDayWarnings, res.ddWarnings...)
	}
	summary.SitesProcessed = len(results)

	out.Metrics = ranking.BuildFiscalYearMetrics(out.Merged, r.sites)
	out.Ranks, out.Spreads = r.ranker.Rank(out.Metrics)
	for _, rank := range out.Ranks {
		if !rank.Ranked && rank.Metric == ranking.MetricEUI {
			summary.UnrankedSites = append(summary.UnrankedSites, UnrankedSite{
				SiteID:       rank.SiteID,
				FiscalYear:   rank.FiscalYear,
				PeerGroupKey: rank.PeerGroupKey,
				GroupSize:    rank.GroupSize,
			})
		}
	}

	summary.Finished = time.Now()
	out.Summary = summary
	return out, nil
}

// runSite executes normalization, allocation, duplicate resolution and
// monthly aggregation for one site. Stateless apart from the shared
// immutable lookup tables.
func (r *Runner) runSite(siteID string, records []billing.RawBillRecord, merger *degreeday.Merger) siteResult {
	res := siteResult{siteID: siteID}
	site, _ := r.sites.Get(siteID)

	var rows []allocate.AllocatedUsageRow
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			res.skipped = append(res.skipped, skipped(rec, SkipDateRange, err.Error()))
			continue
		}
		if !site.ActiveDuring(rec.From, rec.Thru) {
			res.skipped = append(res.skipped, skipped(rec, SkipInactivePeriod, "service period outside site active range"))
			continue
		}
		normalized, err := r.normalizer.Normalize(rec)
		if err != nil {
			if me, ok := normalize.AsMappingError(err); ok {
				res.mappingErrors = append(res.mappingErrors, *me)
				res.skipped = append(res.skipped, skipped(rec, SkipMappingError, err.Error()))
				continue
			}
			res.skipped = append(res.skipped, skipped(rec, SkipMappingError, err.Error()))
			continue
		}
		rows = append(rows, allocate.Allocate(normalized)...)
	}

	rows, res.dupWarnings, res.collapsed = r.resolver.Resolve(rows)
	res.aggregates = aggregate.Aggregate(rows)
	res.merged, res.ddWarnings = merger.Merge(res.aggregates)
	return res
}

func skipped(rec billing.RawBillRecord, reason SkipReason, detail string) SkippedRecord {
	return SkippedRecord{
		SiteID:          rec.SiteID,
		ServiceName:     rec.ServiceName,
		Units:           rec.Units,
		ItemDescription: rec.ItemDescription,
		From:            rec.From,
		Thru:            rec.Thru,
		Reason:          reason,
		Detail:          detail,
	}
}
