package strategy

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mselser95/polymarket-arb/internal/domain"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

// Interval implements spec.md §4.5.2: within an (asset, deadline) group,
// a run of adjacent, mutually exclusive intervals whose union spans the
// whole outcome space (-∞, +∞) and whose combined YES cost is below 1 is
// a guaranteed-payout opportunity.
type Interval struct{ cfg Config }

func NewInterval(cfg Config) *Interval { return &Interval{cfg: cfg} }

func (s *Interval) Name() domain.StrategyName { return domain.StrategyInterval }

func (s *Interval) RequiredInputs() []domain.InputKind {
	return []domain.InputKind{domain.InputIntervals}
}

type intervalEntry struct {
	market *types.Market
	info   *domain.IntervalInfo
}

func (s *Interval) Scan(g *domain.MarketGraph) []*domain.Opportunity {
	var out []*domain.Opportunity
	for _, group := range groupIntervals(g, s.cfg.DeltaDeadline) {
		out = append(out, s.scanGroup(group)...)
	}
	return out
}

func groupIntervals(g *domain.MarketGraph, delta time.Duration) [][]intervalEntry {
	type bucketKey struct{ asset string }
	buckets := map[bucketKey][]intervalEntry{}

	for _, m := range g.Markets() {
		if info, ok := g.Interval(m.ID); ok {
			buckets[bucketKey{asset: info.Asset}] = append(buckets[bucketKey{asset: info.Asset}], intervalEntry{market: m, info: info})
			continue
		}
		// A threshold market asserts a one-sided range itself (spec.md
		// §4.5.2: "optionally THRESHOLDS") — "ABOVE level" is YES iff the
		// asset falls in [level, +∞), "BELOW level" is YES iff it falls in
		// (-∞, level]. These supply the unbounded tail buckets a partition
		// needs to close, since the Interval Parser itself never emits an
		// unbounded interval.
		if t, ok := g.Threshold(m.ID); ok {
			if info := thresholdAsInterval(t); info != nil {
				buckets[bucketKey{asset: info.Asset}] = append(buckets[bucketKey{asset: info.Asset}], intervalEntry{market: m, info: info})
			}
		}
	}

	var keys []bucketKey
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].asset < keys[j].asset })

	var groups [][]intervalEntry
	for _, k := range keys {
		entries := buckets[k]
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].info.Deadline.Before(entries[j].info.Deadline)
		})

		var run []intervalEntry
		for _, e := range entries {
			if len(run) > 0 && !withinTolerance(e.info.Deadline, run[0].info.Deadline, delta) {
				groups = append(groups, sortByLower(run))
				run = nil
			}
			run = append(run, e)
		}
		if len(run) > 0 {
			groups = append(groups, sortByLower(run))
		}
	}
	return groups
}

func sortByLower(run []intervalEntry) []intervalEntry {
	sort.SliceStable(run, func(i, j int) bool {
		a, b := run[i].info, run[j].info
		if a.Lower == nil {
			return true
		}
		if b.Lower == nil {
			return false
		}
		return a.Lower.LessThan(*b.Lower)
	})
	return run
}

// scanGroup walks a lower-bound-sorted run of intervals for the same
// asset/deadline and accumulates maximal adjacent chains that partition
// the whole real line (first interval unbounded below, last unbounded
// above, every boundary touching with no gap or overlap).
func (s *Interval) scanGroup(entries []intervalEntry) []*domain.Opportunity {
	var out []*domain.Opportunity

	for start := 0; start < len(entries); start++ {
		if entries[start].info.Lower != nil {
			continue // a partition must begin at -∞
		}
		chain := []intervalEntry{entries[start]}
		for i := start; i < len(entries)-1; i++ {
			cur, next := entries[i].info, entries[i+1].info
			if !adjacentNoGap(cur, next) {
				break
			}
			chain = append(chain, entries[i+1])
			if next.Upper == nil {
				out = append(out, s.emit(chain)...)
				break
			}
		}
	}
	return out
}

// adjacentNoGap reports whether cur's upper bound meets next's lower
// bound with no gap and no overlap (exactly one side inclusive at the
// shared boundary).
func adjacentNoGap(cur, next *domain.IntervalInfo) bool {
	if cur.Upper == nil || next.Lower == nil {
		return false
	}
	if !cur.Upper.Equal(*next.Lower) {
		return false
	}
	return cur.UpperInclusive != next.LowerInclusive
}

// thresholdAsInterval converts a parsed threshold into the one-sided
// interval it asserts, with the market's YES side as the membership leg
// (buildLeg always buys YES for a chain entry, which is correct here
// since "ABOVE level" YES and "BELOW level" YES already mean "asset is in
// this half-line", the same semantics an interval market's YES carries).
func thresholdAsInterval(t *domain.ThresholdInfo) *domain.IntervalInfo {
	level := t.Level
	switch t.Direction {
	case domain.DirectionAbove:
		return &domain.IntervalInfo{
			MarketID: t.MarketID, Asset: t.Asset,
			Lower: &level, Upper: nil,
			LowerInclusive: true,
			Deadline:       t.Deadline,
		}
	case domain.DirectionBelow:
		return &domain.IntervalInfo{
			MarketID: t.MarketID, Asset: t.Asset,
			Lower: nil, Upper: &level,
			UpperInclusive: true,
			Deadline:       t.Deadline,
		}
	default:
		return nil
	}
}

func (s *Interval) emit(chain []intervalEntry) []*domain.Opportunity {
	if len(chain) < 2 {
		return nil
	}
	legs := make([]domain.Leg, 0, len(chain))
	mids := make([]decimal.Decimal, 0, len(chain))
	markets := make([]*types.Market, 0, len(chain))
	for _, e := range chain {
		leg, mid, ok := buildLeg(e.market, domain.SideYes)
		if !ok {
			return nil
		}
		legs = append(legs, leg)
		mids = append(mids, mid)
		markets = append(markets, e.market)
	}
	opp := newOpportunity(domain.StrategyInterval, legs, mids, decimal.NewFromInt(1), markets)
	if !opp.Cost.LessThan(decimal.NewFromInt(1)) {
		return nil
	}
	return []*domain.Opportunity{opp}
}
