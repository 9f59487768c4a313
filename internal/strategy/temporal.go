package strategy

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mselser95/polymarket-arb/internal/domain"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

// Temporal implements spec.md §4.5.6: the same (asset, direction, level)
// threshold question asked over nested time windows must have non-decreasing
// probability as the deadline extends — reaching a level by an earlier date
// implies reaching it by any later date. A violation buys the later window's
// YES and the earlier window's NO for a guaranteed payout of 1.
type Temporal struct{ cfg Config }

func NewTemporal(cfg Config) *Temporal { return &Temporal{cfg: cfg} }

func (s *Temporal) Name() domain.StrategyName { return domain.StrategyTemporal }

func (s *Temporal) RequiredInputs() []domain.InputKind {
	return []domain.InputKind{domain.InputThresholds}
}

func (s *Temporal) Scan(g *domain.MarketGraph) []*domain.Opportunity {
	var out []*domain.Opportunity
	for _, window := range groupNestedWindows(g) {
		out = append(out, s.scanWindow(window)...)
	}
	return out
}

// groupNestedWindows buckets threshold markets by (asset, direction, level)
// and sorts each bucket by deadline ascending — the axis this strategy
// walks, distinct from monotonicity's same-deadline/different-level ladder.
func groupNestedWindows(g *domain.MarketGraph) [][]ladderEntry {
	type bucketKey struct {
		asset     string
		direction domain.Direction
		level     string
	}
	buckets := map[bucketKey][]ladderEntry{}

	for _, m := range g.Markets() {
		info, ok := g.Threshold(m.ID)
		if !ok || info.FlaggedForReview {
			continue
		}
		key := bucketKey{asset: info.Asset, direction: info.Direction, level: info.Level.String()}
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
		if keys[i].direction != keys[j].direction {
			return keys[i].direction < keys[j].direction
		}
		return keys[i].level < keys[j].level
	})

	var windows [][]ladderEntry
	for _, k := range keys {
		entries := buckets[k]
		if len(entries) < 2 {
			continue
		}
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].info.Deadline.Before(entries[j].info.Deadline)
		})
		windows = append(windows, entries)
	}
	return windows
}

// scanWindow checks every earlier/later pair in a deadline-sorted window for
// a nested-probability violation: yes(later) must be >= yes(earlier).
func (s *Temporal) scanWindow(window []ladderEntry) []*domain.Opportunity {
	var out []*domain.Opportunity

	for i := 0; i < len(window)-1; i++ {
		earlier, later := window[i], window[i+1]
		if earlier.info.Deadline.Equal(later.info.Deadline) {
			continue // same deadline belongs to the monotonicity ladder, not here
		}

		yesEarlier := decimal.NewFromFloat(earlier.yes)
		yesLater := decimal.NewFromFloat(later.yes)
		if !yesLater.LessThan(yesEarlier.Sub(s.cfg.EpsImpl)) {
			continue
		}

		laterLeg, laterMid, ok1 := buildLeg(later.market, domain.SideYes)
		earlierLeg, earlierMid, ok2 := buildLeg(earlier.market, domain.SideNo)
		if !ok1 || !ok2 {
			continue
		}

		opp := newOpportunity(domain.StrategyTemporal,
			[]domain.Leg{laterLeg, earlierLeg},
			[]decimal.Decimal{laterMid, earlierMid},
			decimal.NewFromInt(1),
			[]*types.Market{later.market, earlier.market})
		out = append(out, opp)
	}
	return out
}
