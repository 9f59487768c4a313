package validate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mselser95/polymarket-arb/internal/domain"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

func TestLayer4APY_HighAPYRatesExcellent(t *testing.T) {
	deadline := time.Now().Add(30 * 24 * time.Hour)
	a := newMarket("a", 0.40, 0.40, deadline)
	b := newMarket("b", 0.55, 0.55, deadline)
	g := domain.NewMarketGraph([]*types.Market{a, b})

	opp := newOpp(domain.StrategyExhaustive, []*types.Market{a, b})
	opp.ProfitPct = d("0.10") // 10% over 30 days -> well above 1.00 annualized
	opp.DaysToResolution = 30

	e := newTestEngine(&fakeBooks{})
	ok := e.layer4APY(context.Background(), g, opp)

	assert.True(t, ok)
	assert.Equal(t, domain.APYExcellent, opp.APYRating)
}

func TestLayer4APY_BelowMinimumRejects(t *testing.T) {
	deadline := time.Now().Add(30 * 24 * time.Hour)
	a := newMarket("a", 0.40, 0.40, deadline)
	b := newMarket("b", 0.55, 0.55, deadline)
	g := domain.NewMarketGraph([]*types.Market{a, b})

	opp := newOpp(domain.StrategyExhaustive, []*types.Market{a, b})
	opp.ProfitPct = d("0.001")
	opp.DaysToResolution = 30

	e := newTestEngine(&fakeBooks{})
	ok := e.layer4APY(context.Background(), g, opp)

	assert.False(t, ok)
	assert.Equal(t, "apy", opp.RejectedLayer)
	assert.Equal(t, domain.APYReject, opp.APYRating)
}

func TestLayer4APY_AlreadyResolvedMarketForcesReject(t *testing.T) {
	// Deadline is in the past; internal/strategy would have clamped
	// DaysToResolution to 1, but the real end date still disqualifies it.
	deadline := time.Now().Add(-2 * time.Hour)
	a := newMarket("a", 0.40, 0.40, deadline)
	b := newMarket("b", 0.55, 0.55, deadline)
	g := domain.NewMarketGraph([]*types.Market{a, b})

	opp := newOpp(domain.StrategyExhaustive, []*types.Market{a, b})
	opp.ProfitPct = d("0.10")
	opp.DaysToResolution = 1

	e := newTestEngine(&fakeBooks{})
	ok := e.layer4APY(context.Background(), g, opp)

	assert.False(t, ok)
	assert.Equal(t, domain.APYReject, opp.APYRating)
	assert.Contains(t, opp.RejectedReason, "already-resolved")
}
