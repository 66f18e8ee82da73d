// Package metrics exposes run observability counters for the benchmarking
// pipeline.
package metrics

import (
	"log"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "bench_"

var (
	registerOnce sync.Once

	recordsLoaded  prometheus.Counter
	recordsSkipped *prometheus.CounterVec

	duplicatesCollapsed prometheus.Counter
	duplicateWarnings   prometheus.Counter
	degreeDayMissing    prometheus.Counter

	sitesProcessed prometheus.Counter
	runDuration    prometheus.Histogram
)

// Init registers the pipeline metrics. Safe to call more than once.
func Init(logger *log.Logger) {
	registerOnce.Do(func() {
		recordsLoaded = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "records_loaded_total",
			Help: "Bill line items loaded from input",
		})
		recordsSkipped = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "records_skipped_total",
				Help: "Bill line items excluded from aggregates by reason",
			},
			[]string{"reason"},
		)
		duplicatesCollapsed = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "duplicates_collapsed_total",
			Help: "Redundant duplicate usage lines collapsed",
		})
		duplicateWarnings = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "duplicate_warnings_total",
			Help: "Duplicate groups retained unmodified with a warning",
		})
		degreeDayMissing = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "degree_day_missing_total",
			Help: "Site-months lacking degree-day coverage",
		})
		sitesProcessed = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "sites_processed_total",
			Help: "Sites completing the per-site pipeline",
		})
		runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    metricPrefix + "run_duration_seconds",
			Help:    "Full pipeline run latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		})

		collectors := []prometheus.Collector{
			recordsLoaded,
			recordsSkipped,
			duplicatesCollapsed,
			duplicateWarnings,
			degreeDayMissing,
			sitesProcessed,
			runDuration,
		}
		for _, c := range collectors {
			if err := prometheus.Register(c); err != nil && logger != nil {
				logger.Printf("metrics register error: %v", err)
			}
		}
	})
}

// AddRecordsLoaded counts input line items.
func AddRecordsLoaded(n int) {
	if recordsLoaded != nil {
		recordsLoaded.Add(float64(n))
	}
}

// IncSkipped counts one excluded record by reason.
func IncSkipped(reason string) {
	if recordsSkipped != nil {
		recordsSkipped.WithLabelValues(reason).Inc()
	}
}

// AddDuplicatesCollapsed counts collapsed duplicate usage lines.
func AddDuplicatesCollapsed(n int) {
	if duplicatesCollapsed != nil {
		duplicatesCollapsed.Add(float64(n))
	}
}

// AddDuplicateWarnings counts duplicate groups left unmodified.
func AddDuplicateWarnings(n int) {
	if duplicateWarnings != nil {
		duplicateWarnings.Add(float64(n))
	}
}

// AddDegreeDayMissing counts site-months without degree-day coverage.
func AddDegreeDayMissing(n int) {
	if degreeDayMissing != nil {
		degreeDayMissing.Add(float64(n))
	}
}

// AddSitesProcessed counts completed sites.
func AddSitesProcessed(n int) {
	if sitesProcessed != nil {
		sitesProcessed.Add(float64(n))
	}
}

// ObserveRunDuration records one pipeline run's latency.
func ObserveRunDuration(seconds float64) {
	if runDuration != nil {
		runDuration.Observe(seconds)
	}
}
