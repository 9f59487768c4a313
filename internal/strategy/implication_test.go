package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mselser95/polymarket-arb/internal/domain"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

func TestImplication_ViolationEmitsBYesANoPair(t *testing.T) {
	deadline := time.Now().Add(5 * 24 * time.Hour)
	a := newMarket("a", 0.60, 0.61, deadline) // "wins the primary"
	b := newMarket("b", 0.50, 0.51, deadline) // "wins the general" -- should be >= a

	g := domain.NewMarketGraph([]*types.Market{a, b})
	g.SetClusters([]domain.Cluster{{ID: 0, MarketIDs: []string{"a", "b"}}})
	g.SetAnalyzer(fakeAnalyzer{relation: domain.RelationImpliesAB, confidence: 0.95})

	s := NewImplication(DefaultConfig())
	opps := s.Scan(g)

	require.NotEmpty(t, opps)
	opp := opps[0]
	assert.Equal(t, domain.StrategyImplication, opp.Strategy)
	assert.Equal(t, "b", opp.Legs[0].MarketID)
	assert.Equal(t, domain.SideYes, opp.Legs[0].Side)
	assert.Equal(t, "a", opp.Legs[1].MarketID)
	assert.Equal(t, domain.SideNo, opp.Legs[1].Side)
}

func TestImplication_LowConfidenceSkipped(t *testing.T) {
	deadline := time.Now().Add(5 * 24 * time.Hour)
	a := newMarket("a", 0.60, 0.61, deadline)
	b := newMarket("b", 0.50, 0.51, deadline)

	g := domain.NewMarketGraph([]*types.Market{a, b})
	g.SetClusters([]domain.Cluster{{ID: 0, MarketIDs: []string{"a", "b"}}})
	g.SetAnalyzer(fakeAnalyzer{relation: domain.RelationImpliesAB, confidence: 0.5})

	s := NewImplication(DefaultConfig())
	opps := s.Scan(g)
	assert.Empty(t, opps)
}
