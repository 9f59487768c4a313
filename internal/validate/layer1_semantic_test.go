package validate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mselser95/polymarket-arb/internal/domain"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

func TestLayer1Semantic_ExemptStrategyPassesWithoutAnalysis(t *testing.T) {
	opp := newOpp(domain.StrategyMonotonicity, []*types.Market{newMarket("a", 0.4, 0.4, time.Now())})
	e := newTestEngine(&fakeBooks{})
	assert.True(t, e.layer1Semantic(context.Background(), nil, opp))
}

func TestLayer1Semantic_MissingAnalysisRejects(t *testing.T) {
	opp := newOpp(domain.StrategyEquivalent, []*types.Market{newMarket("a", 0.4, 0.4, time.Now())})
	e := newTestEngine(&fakeBooks{})
	ok := e.layer1Semantic(context.Background(), nil, opp)
	assert.False(t, ok)
	assert.Equal(t, "semantic", opp.RejectedLayer)
}

func TestLayer1Semantic_ContradictedAnalysisCollapsesToIndependent(t *testing.T) {
	opp := newOpp(domain.StrategyImplication, []*types.Market{newMarket("a", 0.4, 0.4, time.Now())})
	opp.RelationshipAnalysis = &domain.RelationshipAnalysis{
		Relation:   domain.RelationImpliesAB,
		Confidence: 0.95,
		Reasoning:  "these two markets are independent of one another",
	}
	e := newTestEngine(&fakeBooks{})
	ok := e.layer1Semantic(context.Background(), nil, opp)
	assert.False(t, ok)
	assert.Equal(t, domain.RelationIndependent, opp.RelationshipAnalysis.Relation)
}

func TestLayer1Semantic_ConsistentAnalysisPasses(t *testing.T) {
	opp := newOpp(domain.StrategyImplication, []*types.Market{newMarket("a", 0.4, 0.4, time.Now())})
	opp.RelationshipAnalysis = &domain.RelationshipAnalysis{
		Relation:   domain.RelationImpliesAB,
		Confidence: 0.95,
		Reasoning:  "resolving YES on B requires A to also resolve YES",
	}
	e := newTestEngine(&fakeBooks{})
	assert.True(t, e.layer1Semantic(context.Background(), nil, opp))
}
