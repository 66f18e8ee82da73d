// Package storage defines persistence for benchmark outputs so downstream
// reporting can query results instead of re-running the batch.
package storage

import (
	"context"
	"errors"

	"utility-bench/internal/aggregate"
	"utility-bench/internal/ranking"
)

var (
	// ErrNilDB is returned when a repository is built without a connection.
	ErrNilDB = errors.New("storage: nil database handle")
)

// BenchmarkRepository persists one run's outputs. Implementations upsert by
// natural key so re-running the batch over corrected input replaces prior
// rows instead of duplicating them.
type BenchmarkRepository interface {
	SaveMonthlyAggregates(ctx context.Context, rows []aggregate.MonthlyAggregate) error
	SaveRankResults(ctx context.Context, rows []ranking.PercentileRankResult) error
}
