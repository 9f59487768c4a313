package strategy

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mselser95/polymarket-arb/internal/domain"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

// Monotonicity implements spec.md §4.5.1: within an (asset, direction,
// deadline) group, yes_mid must move monotonically with level. A
// violation beyond τ_mono buys the two legs that guarantee a payout of at
// least 1 regardless of outcome.
type Monotonicity struct{ cfg Config }

func NewMonotonicity(cfg Config) *Monotonicity { return &Monotonicity{cfg: cfg} }

func (s *Monotonicity) Name() domain.StrategyName { return domain.StrategyMonotonicity }

func (s *Monotonicity) RequiredInputs() []domain.InputKind {
	return []domain.InputKind{domain.InputThresholds}
}

type ladderEntry struct {
	market *types.Market
	info   *domain.ThresholdInfo
	yes    float64
}

func (s *Monotonicity) Scan(g *domain.MarketGraph) []*domain.Opportunity {
	var out []*domain.Opportunity
	for _, ladder := range groupThresholdLadders(g, s.cfg.DeltaDeadline) {
		out = append(out, s.scanLadder(ladder)...)
	}
	return out
}

// groupThresholdLadders buckets every market carrying a ThresholdInfo by
// (asset, direction), sorts each bucket by deadline, and splits it into
// deadline-tolerant runs (spec.md §4.5.1's "deadlines within δ_deadline,
// default 24h"). Within a run, entries are sorted by level ascending, the
// order the ladder invariant is checked over.
func groupThresholdLadders(g *domain.MarketGraph, delta time.Duration) [][]ladderEntry {
	type bucketKey struct {
		asset     string
		direction domain.Direction
	}
	buckets := map[bucketKey][]ladderEntry{}

	for _, m := range g.Markets() {
		info, ok := g.Threshold(m.ID)
		if !ok || info.FlaggedForReview {
			continue
		}
		key := bucketKey{asset: info.Asset, direction: info.Direction}
		buckets[key] = append(buckets[key], ladderEntry{market: m, info: info, yes: m.YesMid()})
	}

	var keys []bucketKey
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].asset != keys[j].asset {
			return keys[i].asset < keys[j].asset
		}
		return keys[i].direction < keys[j].direction
	})

	var ladders [][]ladderEntry
	for _, k := range keys {
		entries := buckets[k]
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].info.Deadline.Before(entries[j].info.Deadline)
		})

		var run []ladderEntry
		for _, e := range entries {
			if len(run) > 0 && !withinTolerance(e.info.Deadline, run[0].info.Deadline, delta) {
				ladders = append(ladders, sortByLevel(run))
				run = nil
			}
			run = append(run, e)
		}
		if len(run) > 0 {
			ladders = append(ladders, sortByLevel(run))
		}
	}
	return ladders
}

func sortByLevel(run []ladderEntry) []ladderEntry {
	sort.SliceStable(run, func(i, j int) bool {
		return run[i].info.Level.LessThan(run[j].info.Level)
	})
	return run
}

// scanLadder checks every adjacent pair in a level-sorted ladder for a
// monotonicity violation beyond τ_mono and emits the guaranteed-payout
// opportunity spec.md §4.5.1 describes.
func (s *Monotonicity) scanLadder(ladder []ladderEntry) []*domain.Opportunity {
	var out []*domain.Opportunity
	tauMono, _ := s.cfg.TauMono.Float64()

	for i := 0; i < len(ladder)-1; i++ {
		low, high := ladder[i], ladder[i+1]
		delta := high.yes - low.yes

		var violated bool
		var lowSide, highSide domain.Side
		switch low.info.Direction {
		case domain.DirectionAbove:
			// ABOVE is non-increasing in level: yes(low) should be >= yes(high).
			violated = delta > tauMono
			lowSide, highSide = domain.SideYes, domain.SideNo
		case domain.DirectionBelow:
			// BELOW is non-decreasing in level: yes(low) should be <= yes(high).
			violated = -delta > tauMono
			lowSide, highSide = domain.SideNo, domain.SideYes
		default:
			continue
		}
		if !violated {
			continue
		}

		lowLeg, lowMid, ok1 := buildLeg(low.market, lowSide)
		highLeg, highMid, ok2 := buildLeg(high.market, highSide)
		if !ok1 || !ok2 {
			continue
		}

		opp := newOpportunity(domain.StrategyMonotonicity,
			[]domain.Leg{lowLeg, highLeg},
			[]decimal.Decimal{lowMid, highMid},
			decimal.NewFromInt(1),
			[]*types.Market{low.market, high.market})
		out = append(out, opp)
	}
	return out
}
