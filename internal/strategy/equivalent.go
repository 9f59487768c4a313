package strategy

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mselser95/polymarket-arb/internal/domain"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

// Equivalent implements spec.md §4.5.5: within a cluster, a pair the LLM
// Analyzer classifies EQUIVALENT at confidence >= τ_equiv, with mid prices
// diverging by more than ε_equiv, is a guaranteed-payout opportunity: buy
// the cheaper side's YES and the more expensive side's NO.
type Equivalent struct{ cfg Config }

func NewEquivalent(cfg Config) *Equivalent { return &Equivalent{cfg: cfg} }

func (s *Equivalent) Name() domain.StrategyName { return domain.StrategyEquivalent }

func (s *Equivalent) RequiredInputs() []domain.InputKind {
	return []domain.InputKind{domain.InputClusters, domain.InputLLM}
}

// negationWords flags a pair that differs only by a negation of the other —
// "X will happen" vs "X will not happen" is never EQUIVALENT, regardless of
// what the LLM claims, so such pairs are filtered before ever reaching the
// Analyzer's judgment.
var negationWords = regexp.MustCompile(`\b(not|never|won't|will not|doesn't|does not|n't)\b`)

func negatesEachOther(a, b string) bool {
	return negationWords.MatchString(strings.ToLower(a)) != negationWords.MatchString(strings.ToLower(b))
}

func (s *Equivalent) Scan(g *domain.MarketGraph) []*domain.Opportunity {
	var out []*domain.Opportunity
	analyzer := g.Analyzer()

	for _, cluster := range g.Clusters() {
		markets := make([]*types.Market, 0, len(cluster.MarketIDs))
		for _, id := range cluster.MarketIDs {
			if m, ok := g.Market(id); ok {
				markets = append(markets, m)
			}
		}

		for i := 0; i < len(markets); i++ {
			for j := i + 1; j < len(markets); j++ {
				a, b := markets[i], markets[j]
				if negatesEachOther(a.Question, b.Question) {
					continue
				}

				analysis, err := analyzer.Analyze(a.ID, b.ID)
				if err != nil || analysis == nil {
					continue
				}
				analysis.EnforceConsistency()
				if analysis.Relation != domain.RelationEquivalent || analysis.Confidence < s.cfg.TauEquiv {
					continue
				}

				if opp := s.evaluate(a, b); opp != nil {
					opp.RelationshipAnalysis = analysis
					out = append(out, opp)
				}
			}
		}
	}
	return out
}

func (s *Equivalent) evaluate(a, b *types.Market) *domain.Opportunity {
	yesA := decimal.NewFromFloat(a.YesMid())
	yesB := decimal.NewFromFloat(b.YesMid())
	divergence := yesA.Sub(yesB).Abs()
	if divergence.LessThanOrEqual(s.cfg.EpsEquiv) {
		return nil
	}

	cheaper, expensive := a, b
	if yesB.LessThan(yesA) {
		cheaper, expensive = b, a
	}

	cheapLeg, cheapMid, ok1 := buildLeg(cheaper, domain.SideYes)
	expLeg, expMid, ok2 := buildLeg(expensive, domain.SideNo)
	if !ok1 || !ok2 {
		return nil
	}

	return newOpportunity(domain.StrategyEquivalent,
		[]domain.Leg{cheapLeg, expLeg},
		[]decimal.Decimal{cheapMid, expMid},
		decimal.NewFromInt(1),
		[]*types.Market{cheaper, expensive})
}
