package strategy

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mselser95/polymarket-arb/internal/domain"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

// Exhaustive implements spec.md §4.5.3: within a single event, a set of
// markets the venue tags mutually exclusive, or the LLM Analyzer confirms
// exhaustive at confidence >= τ_exhaustive, is a guaranteed-payout
// opportunity when the combined YES cost undercuts 1 by more than
// ε_exhaustive.
type Exhaustive struct{ cfg Config }

func NewExhaustive(cfg Config) *Exhaustive { return &Exhaustive{cfg: cfg} }

func (s *Exhaustive) Name() domain.StrategyName { return domain.StrategyExhaustive }

func (s *Exhaustive) RequiredInputs() []domain.InputKind {
	return nil // venue tag alone is sufficient; LLM confirmation is opportunistic
}

func (s *Exhaustive) Scan(g *domain.MarketGraph) []*domain.Opportunity {
	var out []*domain.Opportunity
	for _, members := range g.MarketsByEvent() {
		if len(members) < 2 {
			continue
		}
		if opp := s.evaluate(g, members); opp != nil {
			out = append(out, opp)
		}
	}
	return out
}

// evaluate checks one event's markets for an exhaustive set, preferring the
// venue's own mutually-exclusive tag and falling back to the LLM Analyzer's
// VerifyExhaustiveSet when the tag isn't present.
func (s *Exhaustive) evaluate(g *domain.MarketGraph, members []*types.Market) *domain.Opportunity {
	if !taggedMutuallyExclusive(members) {
		if !g.AnalyzerAvailable() {
			return nil
		}
		ids := make([]string, 0, len(members))
		for _, m := range members {
			ids = append(ids, m.ID)
		}
		complete, confidence, _, err := g.Analyzer().VerifyExhaustiveSet(ids)
		if err != nil || !complete || confidence < s.cfg.TauExhaustive {
			return nil
		}
	}

	legs := make([]domain.Leg, 0, len(members))
	mids := make([]decimal.Decimal, 0, len(members))
	for _, m := range members {
		leg, mid, ok := buildLeg(m, domain.SideYes)
		if !ok {
			return nil
		}
		legs = append(legs, leg)
		mids = append(mids, mid)
	}

	opp := newOpportunity(domain.StrategyExhaustive, legs, mids, decimal.NewFromInt(1), members)
	if opp.ProfitPct.LessThanOrEqual(decimal.Zero) {
		return nil
	}
	margin := decimal.NewFromInt(1).Sub(opp.Cost)
	if margin.LessThanOrEqual(s.cfg.EpsExhaustive) {
		return nil
	}
	return opp
}

func taggedMutuallyExclusive(members []*types.Market) bool {
	for _, m := range members {
		found := false
		for tag := range m.Tags {
			t := strings.ToLower(strings.ReplaceAll(tag, " ", "-"))
			if t == "mutually-exclusive" || t == "mutually_exclusive" {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
