package validate

import (
	"context"

	"github.com/mselser95/polymarket-arb/internal/domain"
)

// requiresRelationshipAnalysis is the set of strategies whose candidates
// carry an LLM RelationshipAnalysis that Layer 1 must re-check.
var requiresRelationshipAnalysis = map[domain.StrategyName]bool{
	domain.StrategyImplication: true,
	domain.StrategyEquivalent:  true,
}

// layer1Semantic re-checks that a RelationshipAnalysis, when the strategy
// required one, is present, self-consistent, and not INDEPENDENT
// (spec.md §4.6 Layer 1).
func (e *Engine) layer1Semantic(_ context.Context, _ *domain.MarketGraph, opp *domain.Opportunity) bool {
	if !requiresRelationshipAnalysis[opp.Strategy] {
		return true
	}

	ra := opp.RelationshipAnalysis
	if ra == nil {
		opp.Reject("semantic", "missing relationship analysis")
		return false
	}

	ra.EnforceConsistency()
	if ra.Relation == domain.RelationIndependent {
		opp.Reject("semantic", "relation collapsed to INDEPENDENT")
		return false
	}
	return true
}
