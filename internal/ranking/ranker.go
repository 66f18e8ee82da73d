// Package ranking computes each site's percentile position within its peer
// group for the benchmarking metrics.
package ranking

import "sort"

// DefaultMinGroupSize is the smallest peer group worth ranking against.
const DefaultMinGroupSize = 3

// PercentileRankResult is one site's standing for one metric and fiscal
// year. When Ranked is false the peer group was too small and Percentile
// and Rank are meaningless; no rank is ever fabricated.
type PercentileRankResult struct {
	SiteID       string
	FiscalYear   int
	PeerGroupKey string
	Metric       Metric

	Value     float64
	GroupMean float64
	GroupSize int
	// Percentile is the share (0..100) of peer values strictly below
	// Value; tied sites share the lower percentile.
	Percentile float64
	// Rank is ordinal with 1 = highest value, ties broken by site id.
	Rank   int
	Ranked bool
}

// GroupSummary describes the spread of one metric within a peer group for a
// fiscal year, for the report's comparison bands.
type GroupSummary struct {
	PeerGroupKey string
	FiscalYear   int
	Metric       Metric

	Count  int
	Min    float64
	P10    float64
	Median float64
	P90    float64
	Max    float64
	Mean   float64
}

// Ranker partitions site-year metrics into peer groups and ranks them.
type Ranker struct {
	minGroupSize int
}

// NewRanker constructs a Ranker. minGroupSize <= 0 selects the default.
func NewRanker(minGroupSize int) *Ranker {
	if minGroupSize <= 0 {
		minGroupSize = DefaultMinGroupSize
	}
	return &Ranker{minGroupSize: minGroupSize}
}

// MinGroupSize returns the configured threshold.
func (r *Ranker) MinGroupSize() int { return r.minGroupSize }

type member struct {
	siteID string
	value  float64
}

// Rank produces per-site results and per-group spread summaries for every
// fiscal year and metric present in metrics. Only complete site-years
// participate; sites whose metric is unavailable are skipped for that
// metric. Output ordering is deterministic.
func (r *Ranker) Rank(metrics []SiteYearMetrics) ([]PercentileRankResult, []GroupSummary) {
	type poolKey struct {
		group      string
		fiscalYear int
		metric     Metric
	}
	pools := make(map[poolKey][]member)
	var order []poolKey

	for _, m := range metrics {
		if !m.Complete() {
			continue
		}
		for _, metric := range AllMetrics {
			v, ok := m.Value(metric)
			if !ok {
				continue
			}
			key := poolKey{group: m.PeerGroupKey, fiscalYear: m.FiscalYear, metric: metric}
			if _, exists := pools[key]; !exists {
				order = append(order, key)
			}
			pools[key] = append(pools[key], member{siteID: m.SiteID, value: v})
		}
	}

	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.fiscalYear != b.fiscalYear {
			return a.fiscalYear < b.fiscalYear
		}
		if a.group != b.group {
			return a.group < b.group
		}
		return a.metric < b.metric
	})

	var results []PercentileRankResult
	var summaries []GroupSummary
	for _, key := range order {
		members := pools[key]
		// Highest value first; ties broken by site id for determinism.
		sort.Slice(members, func(i, j int) bool {
			if members[i].value != members[j].value {
				return members[i].value > members[j].value
			}
			return members[i].siteID < members[j].siteID
		})

		values := make([]float64, len(members))
		mean := 0.0
		for i, m := range members {
			values[i] = m.value
			mean += m.value
		}
		mean /= float64(len(members))

		ranked := len(members) >= r.minGroupSize
		if ranked {
			asc := append([]float64(nil), values...)
			sort.Float64s(asc)
			summaries = append(summaries, GroupSummary{
				PeerGroupKey: key.group,
				FiscalYear:   key.fiscalYear,
				Metric:       key.metric,
				Count:        len(asc),
				Min:          asc[0],
				P10:          quantile(asc, 0.10),
				Median:       quantile(asc, 0.50),
				P90:          quantile(asc, 0.90),
				Max:          asc[len(asc)-1],
				Mean:         mean,
			})
		}

		for i, m := range members {
			res := PercentileRankResult{
				SiteID:       m.siteID,
				FiscalYear:   key.fiscalYear,
				PeerGroupKey: key.group,
				Metric:       key.metric,
				Value:        m.value,
				GroupMean:    mean,
				GroupSize:    len(members),
				Ranked:       ranked,
			}
			if ranked {
				res.Percentile = percentileOf(values, m.value)
				res.Rank = i + 1
			}
			results = append(results, res)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.FiscalYear != b.FiscalYear {
			return a.FiscalYear < b.FiscalYear
		}
		if a.PeerGroupKey != b.PeerGroupKey {
			return a.PeerGroupKey < b.PeerGroupKey
		}
		if a.Metric != b.Metric {
			return a.Metric < b.Metric
		}
		return a.SiteID < b.SiteID
	})
	return results, summaries
}

// percentileOf is the fraction of values strictly below v, scaled to 0..100.
// Tied values share the lower percentile by construction.
func percentileOf(values []float64, v float64) float64 {
	below := 0
	for _, x := range values {
		if x < v {
			below++
		}
	}
	return 100 * float64(below) / float64(len(values))
}

// quantile interpolates linearly between order statistics, matching the
// convention the peer-spread bands were originally computed with. asc must
// be sorted ascending and non-empty.
func quantile(asc []float64, q float64) float64 {
	if len(asc) == 1 {
		return asc[0]
	}
	pos := q * float64(len(asc)-1)
	lo := int(pos)
	if lo >= len(asc)-1 {
		return asc[len(asc)-1]
	}
	frac := pos - float64(lo)
	return asc[lo] + frac*(asc[lo+1]-asc[lo])
}
