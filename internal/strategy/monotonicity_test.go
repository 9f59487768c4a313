package strategy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mselser95/polymarket-arb/internal/domain"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

func TestMonotonicity_ViolationEmitsGuaranteedPayoutPair(t *testing.T) {
	deadline := time.Now().Add(30 * 24 * time.Hour)
	low := newMarket("low", 0.40, 0.41, deadline)
	high := newMarket("high", 0.45, 0.46, deadline)

	g := domain.NewMarketGraph([]*types.Market{low, high})
	g.SetThresholds(map[string]*domain.ThresholdInfo{
		"low":  {MarketID: "low", Asset: "BTC", Direction: domain.DirectionAbove, Level: d("100000"), Deadline: deadline},
		"high": {MarketID: "high", Asset: "BTC", Direction: domain.DirectionAbove, Level: d("120000"), Deadline: deadline},
	})

	s := NewMonotonicity(DefaultConfig())
	opps := s.Scan(g)

	require.Len(t, opps, 1)
	opp := opps[0]
	assert.Equal(t, domain.StrategyMonotonicity, opp.Strategy)
	require.Len(t, opp.Legs, 2)
	assert.Equal(t, "low", opp.Legs[0].MarketID)
	assert.Equal(t, domain.SideYes, opp.Legs[0].Side)
	assert.Equal(t, "high", opp.Legs[1].MarketID)
	assert.Equal(t, domain.SideNo, opp.Legs[1].Side)
	assert.True(t, opp.Cost.LessThan(decimal.NewFromInt(1)))
}

func TestMonotonicity_NoViolationWithinTolerance(t *testing.T) {
	deadline := time.Now().Add(30 * 24 * time.Hour)
	low := newMarket("low", 0.40, 0.41, deadline)
	high := newMarket("high", 0.405, 0.415, deadline)

	g := domain.NewMarketGraph([]*types.Market{low, high})
	g.SetThresholds(map[string]*domain.ThresholdInfo{
		"low":  {MarketID: "low", Asset: "BTC", Direction: domain.DirectionAbove, Level: d("100000"), Deadline: deadline},
		"high": {MarketID: "high", Asset: "BTC", Direction: domain.DirectionAbove, Level: d("120000"), Deadline: deadline},
	})

	s := NewMonotonicity(DefaultConfig())
	opps := s.Scan(g)
	assert.Empty(t, opps)
}

func TestMonotonicity_SkipsFlaggedForReview(t *testing.T) {
	deadline := time.Now().Add(30 * 24 * time.Hour)
	low := newMarket("low", 0.40, 0.41, deadline)
	high := newMarket("high", 0.80, 0.81, deadline)

	g := domain.NewMarketGraph([]*types.Market{low, high})
	g.SetThresholds(map[string]*domain.ThresholdInfo{
		"low":  {MarketID: "low", Asset: "BTC", Direction: domain.DirectionAbove, Level: d("100000"), Deadline: deadline, FlaggedForReview: true},
		"high": {MarketID: "high", Asset: "BTC", Direction: domain.DirectionAbove, Level: d("120000"), Deadline: deadline},
	})

	s := NewMonotonicity(DefaultConfig())
	opps := s.Scan(g)
	assert.Empty(t, opps)
}
