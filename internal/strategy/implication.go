package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/mselser95/polymarket-arb/internal/domain"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

// Implication implements spec.md §4.5.4: within a cluster, if the LLM
// Analyzer classifies an ordered pair (A, B) as IMPLIES_AB at confidence
// >= τ_impl, then yes(B) must be at least yes(A) (B is true whenever A is).
// A violation buys B-YES and A-NO for a guaranteed payout of 1.
type Implication struct{ cfg Config }

func NewImplication(cfg Config) *Implication { return &Implication{cfg: cfg} }

func (s *Implication) Name() domain.StrategyName { return domain.StrategyImplication }

func (s *Implication) RequiredInputs() []domain.InputKind {
	return []domain.InputKind{domain.InputClusters, domain.InputLLM}
}

func (s *Implication) Scan(g *domain.MarketGraph) []*domain.Opportunity {
	var out []*domain.Opportunity
	analyzer := g.Analyzer()

	for _, cluster := range g.Clusters() {
		markets := make([]*types.Market, 0, len(cluster.MarketIDs))
		for _, id := range cluster.MarketIDs {
			if m, ok := g.Market(id); ok {
				markets = append(markets, m)
			}
		}

		for i, a := range markets {
			for j, b := range markets {
				if i == j {
					continue
				}
				if !withinTolerance(a.EndDate, b.EndDate, s.cfg.DeltaDeadline*10) {
					// implication reasoning requires roughly co-terminal
					// deadlines; markets resolving far apart aren't a clean pair.
					continue
				}

				analysis, err := analyzer.Analyze(a.ID, b.ID)
				if err != nil || analysis == nil {
					continue
				}
				analysis.EnforceConsistency()
				if analysis.Relation != domain.RelationImpliesAB || analysis.Confidence < s.cfg.TauImpl {
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

// evaluate builds the B-YES/A-NO opportunity when yes(B) undercuts yes(A)
// beyond ε_impl. Threshold-direction consistency with the claimed
// implication is re-checked by the Rule & Oracle layer, not here.
func (s *Implication) evaluate(a, b *types.Market) *domain.Opportunity {
	yesA := decimal.NewFromFloat(a.YesMid())
	yesB := decimal.NewFromFloat(b.YesMid())
	if !yesB.LessThan(yesA.Sub(s.cfg.EpsImpl)) {
		return nil
	}

	bLeg, bMid, ok1 := buildLeg(b, domain.SideYes)
	aLeg, aMid, ok2 := buildLeg(a, domain.SideNo)
	if !ok1 || !ok2 {
		return nil
	}

	return newOpportunity(domain.StrategyImplication,
		[]domain.Leg{bLeg, aLeg},
		[]decimal.Decimal{bMid, aMid},
		decimal.NewFromInt(1),
		[]*types.Market{b, a})
}
