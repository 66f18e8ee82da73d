// Package memory is an in-memory benchmark repository for tests and demos.
package memory

import (
	"context"
	"sync"
	"time"

	"utility-bench/internal/aggregate"
	billing "utility-bench/internal/billing/domain"
	"utility-bench/internal/ranking"
	"utility-bench/internal/storage"
)

type aggregateKey struct {
	siteID   string
	calYear  int
	calMonth time.Month
	category billing.FuelCategory
}

type rankKey struct {
	siteID     string
	fiscalYear int
	metric     ranking.Metric
}

// Repository stores rows keyed the same way the Postgres tables are.
type Repository struct {
	mu         sync.RWMutex
	aggregates map[aggregateKey]aggregate.MonthlyAggregate
	ranks      map[rankKey]ranking.PercentileRankResult
}

var _ storage.BenchmarkRepository = (*Repository)(nil)

// NewRepository constructs an empty repository.
func NewRepository() *Repository {
	return &Repository{
		aggregates: make(map[aggregateKey]aggregate.MonthlyAggregate),
		ranks:      make(map[rankKey]ranking.PercentileRankResult),
	}
}

// SaveMonthlyAggregates upserts by (site, year, month, category).
func (r *Repository) SaveMonthlyAggregates(ctx context.Context, rows []aggregate.MonthlyAggregate) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range rows {
		r.aggregates[aggregateKey{row.SiteID, row.CalYear, row.CalMonth, row.Category}] = row
	}
	return nil
}

// SaveRankResults upserts by (site, fiscal year, metric).
func (r *Repository) SaveRankResults(ctx context.Context, rows []ranking.PercentileRankResult) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range rows {
		r.ranks[rankKey{row.SiteID, row.FiscalYear, row.Metric}] = row
	}
	return nil
}

// AggregateCount returns the number of stored aggregate rows.
func (r *Repository) AggregateCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.aggregates)
}

// GetAggregate looks up one stored row.
func (r *Repository) GetAggregate(siteID string, calYear int, calMonth time.Month, category billing.FuelCategory) (aggregate.MonthlyAggregate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.aggregates[aggregateKey{siteID, calYear, calMonth, category}]
	return row, ok
}

// GetRank looks up one stored rank result.
func (r *Repository) GetRank(siteID string, fiscalYear int, metric ranking.Metric) (ranking.PercentileRankResult, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.ranks[rankKey{siteID, fiscalYear, metric}]
	return row, ok
}
