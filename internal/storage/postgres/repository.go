// Package postgres persists benchmark outputs to Postgres.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"utility-bench/internal/aggregate"
	"utility-bench/internal/ranking"
	"utility-bench/internal/storage"
)

const (
	defaultAggregateTable = "bench_monthly_aggregates"
	defaultRankTable      = "bench_rank_results"
)

// Schema creates the output tables. Applied by operators, not by the
// pipeline itself.
const Schema = `
CREATE TABLE IF NOT EXISTS bench_monthly_aggregates (
	site_id     TEXT    NOT NULL,
	cal_year    INT     NOT NULL,
	cal_month   INT     NOT NULL,
	category    TEXT    NOT NULL,
	usage       DOUBLE PRECISION NOT NULL,
	cost        DOUBLE PRECISION NOT NULL,
	mmbtu       DOUBLE PRECISION NOT NULL,
	days_served INT     NOT NULL,
	PRIMARY KEY (site_id, cal_year, cal_month, category)
);
CREATE TABLE IF NOT EXISTS bench_rank_results (
	site_id        TEXT   NOT NULL,
	fiscal_year    INT    NOT NULL,
	metric         TEXT   NOT NULL,
	peer_group_key TEXT   NOT NULL,
	value          DOUBLE PRECISION NOT NULL,
	group_mean     DOUBLE PRECISION NOT NULL,
	group_size     INT    NOT NULL,
	percentile     DOUBLE PRECISION NOT NULL,
	rank           INT    NOT NULL,
	ranked         BOOLEAN NOT NULL,
	PRIMARY KEY (site_id, fiscal_year, metric)
);
`

// Repository is a Postgres implementation of storage.BenchmarkRepository.
type Repository struct {
	db             *sql.DB
	aggregateTable string
	rankTable      string
}

var _ storage.BenchmarkRepository = (*Repository)(nil)

// Option configures the repository.
type Option func(*Repository)

// WithAggregateTable overrides the monthly aggregate table name.
func WithAggregateTable(table string) Option {
	return func(r *Repository) {
		if table != "" {
			r.aggregateTable = table
		}
	}
}

// WithRankTable overrides the rank result table name.
func WithRankTable(table string) Option {
	return func(r *Repository) {
		if table != "" {
			r.rankTable = table
		}
	}
}

// NewRepository constructs a repository over an open connection.
func NewRepository(db *sql.DB, opts ...Option) (*Repository, error) {
	if db == nil {
		return nil, storage.ErrNilDB
	}
	repo := &Repository{
		db:             db,
		aggregateTable: defaultAggregateTable,
		rankTable:      defaultRankTable,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo, nil
}

// SaveMonthlyAggregates upserts the monthly series in one transaction, so a
// cancelled run never leaves a site half-written.
func (r *Repository) SaveMonthlyAggregates(ctx context.Context, rows []aggregate.MonthlyAggregate) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
INSERT INTO %s (site_id, cal_year, cal_month, category, usage, cost, mmbtu, days_served)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (site_id, cal_year, cal_month, category) DO UPDATE SET
	usage = EXCLUDED.usage,
	cost = EXCLUDED.cost,
	mmbtu = EXCLUDED.mmbtu,
	days_served = EXCLUDED.days_served`, r.aggregateTable)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("postgres: prepare: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx,
			row.SiteID, row.CalYear, int(row.CalMonth), string(row.Category),
			row.Usage, row.Cost, row.MMBTU, row.DaysServed,
		); err != nil {
			return fmt.Errorf("postgres: upsert aggregate %s %d-%02d: %w",
				row.SiteID, row.CalYear, int(row.CalMonth), err)
		}
	}
	return tx.Commit()
}

// SaveRankResults upserts rank results in one transaction.
func (r *Repository) SaveRankResults(ctx context.Context, rows []ranking.PercentileRankResult) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
INSERT INTO %s (site_id, fiscal_year, metric, peer_group_key, value, group_mean, group_size, percentile, rank, ranked)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (site_id, fiscal_year, metric) DO UPDATE SET
	peer_group_key = EXCLUDED.peer_group_key,
	value = EXCLUDED.value,
	group_mean = EXCLUDED.group_mean,
	group_size = EXCLUDED.group_size,
	percentile = EXCLUDED.percentile,
	rank = EXCLUDED.rank,
	ranked = EXCLUDED.ranked`, r.rankTable)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("postgres: prepare: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx,
			row.SiteID, row.FiscalYear, string(row.Metric), row.PeerGroupKey,
			row.Value, row.GroupMean, row.GroupSize, row.Percentile, row.Rank, row.Ranked,
		); err != nil {
			return fmt.Errorf("postgres: upsert rank %s FY%d %s: %w",
				row.SiteID, row.FiscalYear, row.Metric, err)
		}
	}
	return tx.Commit()
}
