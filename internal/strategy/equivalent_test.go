package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mselser95/polymarket-arb/internal/domain"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

func TestEquivalent_DivergentPairEmitsCheapYesExpensiveNo(t *testing.T) {
	deadline := time.Now().Add(5 * 24 * time.Hour)
	a := newMarket("a", 0.40, 0.41, deadline)
	a.Question = "Will the bill pass the Senate?"
	b := newMarket("b", 0.55, 0.56, deadline)
	b.Question = "Will the Senate approve the bill?"

	g := domain.NewMarketGraph([]*types.Market{a, b})
	g.SetClusters([]domain.Cluster{{ID: 0, MarketIDs: []string{"a", "b"}}})
	g.SetAnalyzer(fakeAnalyzer{relation: domain.RelationEquivalent, confidence: 0.95})

	s := NewEquivalent(DefaultConfig())
	opps := s.Scan(g)

	require.Len(t, opps, 1)
	opp := opps[0]
	assert.Equal(t, "a", opp.Legs[0].MarketID)
	assert.Equal(t, domain.SideYes, opp.Legs[0].Side)
	assert.Equal(t, "b", opp.Legs[1].MarketID)
	assert.Equal(t, domain.SideNo, opp.Legs[1].Side)
}

func TestEquivalent_NegationFilterBlocksPair(t *testing.T) {
	deadline := time.Now().Add(5 * 24 * time.Hour)
	a := newMarket("a", 0.40, 0.41, deadline)
	a.Question = "Will the bill pass?"
	b := newMarket("b", 0.55, 0.56, deadline)
	b.Question = "Will the bill not pass?"

	g := domain.NewMarketGraph([]*types.Market{a, b})
	g.SetClusters([]domain.Cluster{{ID: 0, MarketIDs: []string{"a", "b"}}})
	g.SetAnalyzer(fakeAnalyzer{relation: domain.RelationEquivalent, confidence: 0.95})

	s := NewEquivalent(DefaultConfig())
	opps := s.Scan(g)
	assert.Empty(t, opps)
}

func TestEquivalent_WithinToleranceSkipped(t *testing.T) {
	deadline := time.Now().Add(5 * 24 * time.Hour)
	a := newMarket("a", 0.40, 0.41, deadline)
	a.Question = "Will the bill pass?"
	b := newMarket("b", 0.41, 0.42, deadline)
	b.Question = "Will the legislation pass?"

	g := domain.NewMarketGraph([]*types.Market{a, b})
	g.SetClusters([]domain.Cluster{{ID: 0, MarketIDs: []string{"a", "b"}}})
	g.SetAnalyzer(fakeAnalyzer{relation: domain.RelationEquivalent, confidence: 0.95})

	s := NewEquivalent(DefaultConfig())
	opps := s.Scan(g)
	assert.Empty(t, opps)
}
