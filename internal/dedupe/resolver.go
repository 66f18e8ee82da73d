// Package dedupe collapses redundant line items reporting the same metered
// quantity under different billing labels.
package dedupe

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"utility-bench/internal/allocate"
	billing "utility-bench/internal/billing/domain"
	"utility-bench/internal/normalize"
)

// Policy selects how degenerate duplicate groups are handled.
type Policy string

const (
	// PolicyPickOneWarn collapses groups of three or more identical
	// quantities to the canonical row and warns about the extras.
	PolicyPickOneWarn Policy = "pick_one_warn"
	// PolicyKeepAllWarn retains every row when more than two labels report
	// the same quantity and only warns.
	PolicyKeepAllWarn Policy = "keep_all_warn"
)

// IsValid checks if the policy is a supported value.
func (p Policy) IsValid() bool {
	return p == PolicyPickOneWarn || p == PolicyKeepAllWarn
}

// Group is the set of normalized records sharing site, service period,
// category and units — the candidates for duplicate-usage detection.
type Group struct {
	SiteID   string
	From     time.Time
	Thru     time.Time
	Category billing.FuelCategory
	Units    string
	Records  []normalize.Record
}

// Warning reports a group the heuristic could not confidently collapse (or
// collapsed despite an unusual shape). The rows involved stay in the output
// so correctness is preferred over aggressive merging.
type Warning struct {
	SiteID       string
	From         time.Time
	Thru         time.Time
	Category     billing.FuelCategory
	Units        string
	Descriptions []string
	Reason       string
}

func (w Warning) String() string {
	return fmt.Sprintf("site %s %s..%s %s [%s]: %s (%s)",
		w.SiteID, w.From.Format("2006-01-02"), w.Thru.Format("2006-01-02"),
		w.Category, w.Units, w.Reason, strings.Join(w.Descriptions, ", "))
}

// Strategy decides, for one group of candidate records, which item
// descriptions keep their usage contribution. Labeling quirks differ per
// utility, so the heuristic is pluggable.
type Strategy interface {
	// CanonicalDescriptions returns the descriptions whose usage counts.
	// Descriptions not returned have their usage discarded as duplicates of
	// a canonical row. Costs are never touched.
	CanonicalDescriptions(g Group) (keep map[string]bool, warnings []Warning)
}

// LabelPrecedence is the default strategy: line items whose descriptions
// appear in an ordered canonical-label list and report the identical
// quantity are duplicates of one physical reading; the earliest label in the
// list wins. Everything else is left alone.
type LabelPrecedence struct {
	// Labels is the canonical ordering, most authoritative first, e.g.
	// ["Demand Charge", "Actual demand"].
	Labels []string
	Policy Policy
}

// NewLabelPrecedence builds the default strategy for observed demand-charge
// labeling ("Demand Charge" preferred over "Actual demand").
func NewLabelPrecedence(labels []string, policy Policy) (*LabelPrecedence, error) {
	if len(labels) == 0 {
		labels = []string{"Demand Charge", "Actual demand"}
	}
	if policy == "" {
		policy = PolicyPickOneWarn
	}
	if !policy.IsValid() {
		return nil, fmt.Errorf("dedupe: unknown policy %q", policy)
	}
	return &LabelPrecedence{Labels: labels, Policy: policy}, nil
}

// CanonicalDescriptions implements Strategy.
func (s *LabelPrecedence) CanonicalDescriptions(g Group) (map[string]bool, []Warning) {
	keep := make(map[string]bool, len(g.Records))
	var candidates []normalize.Record
	for _, rec := range g.Records {
		keep[rec.ItemDescription] = true
		if rec.Usage != nil && s.rank(rec.ItemDescription) >= 0 {
			candidates = append(candidates, rec)
		}
	}
	if len(candidates) < 2 {
		return keep, nil
	}

	if !sameQuantity(candidates) {
		// Labels suggest duplication but the quantities disagree; keep
		// everything and let an operator look.
		return keep, []Warning{g.warning(candidates, "candidate duplicate labels report differing quantities; all rows retained")}
	}

	var warnings []Warning
	if len(candidates) > 2 && s.Policy == PolicyKeepAllWarn {
		return keep, []Warning{g.warning(candidates, "more than two labels report the same quantity; all rows retained by policy")}
	}
	if len(candidates) > 2 {
		warnings = append(warnings, g.warning(candidates, "more than two labels report the same quantity; collapsed to canonical row"))
	}

	canonical := s.pickCanonical(candidates)
	for _, rec := range candidates {
		if rec.ItemDescription != canonical {
			keep[rec.ItemDescription] = false
		}
	}
	return keep, warnings
}

func (s *LabelPrecedence) rank(description string) int {
	for i, label := range s.Labels {
		if strings.EqualFold(label, description) {
			return i
		}
	}
	return -1
}

func (s *LabelPrecedence) pickCanonical(candidates []normalize.Record) string {
	best := candidates[0].ItemDescription
	bestRank := s.rank(best)
	for _, rec := range candidates[1:] {
		r := s.rank(rec.ItemDescription)
		if r < bestRank || (r == bestRank && rec.ItemDescription < best) {
			best = rec.ItemDescription
			bestRank = r
		}
	}
	return best
}

// sameQuantity requires near-exact agreement: duplicate labels restate one
// meter reading, so anything beyond float noise is a real discrepancy.
func sameQuantity(recs []normalize.Record) bool {
	first := *recs[0].Usage
	for _, rec := range recs[1:] {
		v := *rec.Usage
		diff := math.Abs(v - first)
		if diff > 1e-9*math.Max(math.Abs(first), math.Abs(v)) && diff > 1e-9 {
			return false
		}
	}
	return true
}

func (g Group) warning(recs []normalize.Record, reason string) Warning {
	descs := make([]string, 0, len(recs))
	for _, r := range recs {
		descs = append(descs, r.ItemDescription)
	}
	sort.Strings(descs)
	return Warning{
		SiteID:       g.SiteID,
		From:         g.From,
		Thru:         g.Thru,
		Category:     g.Category,
		Units:        g.Units,
		Descriptions: descs,
		Reason:       reason,
	}
}

// Resolver applies a Strategy to allocated rows. Rows from redundant
// duplicates keep their cost (distinct cost components are never merged)
// but contribute no usage or MMBTU.
type Resolver struct {
	strategy Strategy
}

// NewResolver constructs a Resolver; a nil strategy gets the default
// label-precedence heuristic.
func NewResolver(strategy Strategy) *Resolver {
	if strategy == nil {
		strategy, _ = NewLabelPrecedence(nil, PolicyPickOneWarn)
	}
	return &Resolver{strategy: strategy}
}

type groupKey struct {
	siteID   string
	from     time.Time
	thru     time.Time
	category billing.FuelCategory
	units    string
}

// Resolve returns the rows with duplicate usage contributions removed,
// plus warnings for groups the heuristic would not collapse. Row order is
// preserved; collapsed is the number of source records whose usage was
// discarded.
func (r *Resolver) Resolve(rows []allocate.AllocatedUsageRow) (out []allocate.AllocatedUsageRow, warnings []Warning, collapsed int) {
	// Group the distinct source records behind the allocated rows.
	groups := make(map[groupKey]*Group)
	seen := make(map[groupKey]map[string]bool)
	var keyOrder []groupKey
	for _, row := range rows {
		src := row.Source
		key := groupKey{src.SiteID, src.From, src.Thru, src.Category, src.Units}
		g, ok := groups[key]
		if !ok {
			g = &Group{SiteID: src.SiteID, From: src.From, Thru: src.Thru, Category: src.Category, Units: src.Units}
			groups[key] = g
			seen[key] = make(map[string]bool)
			keyOrder = append(keyOrder, key)
		}
		if !seen[key][src.ItemDescription] {
			seen[key][src.ItemDescription] = true
			g.Records = append(g.Records, src)
		}
	}

	keepByGroup := make(map[groupKey]map[string]bool, len(groups))
	for _, key := range keyOrder {
		keep, w := r.strategy.CanonicalDescriptions(*groups[key])
		keepByGroup[key] = keep
		warnings = append(warnings, w...)
		for _, kept := range keep {
			if !kept {
				collapsed++
			}
		}
	}

	out = make([]allocate.AllocatedUsageRow, 0, len(rows))
	for _, row := range rows {
		src := row.Source
		key := groupKey{src.SiteID, src.From, src.Thru, src.Category, src.Units}
		if !keepByGroup[key][src.ItemDescription] {
			row.Usage = nil
			row.MMBTU = 0
		}
		out = append(out, row)
	}
	return out, warnings, collapsed
}
