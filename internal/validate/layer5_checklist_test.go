package validate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mselser95/polymarket-arb/internal/domain"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

func TestLayer5Checklist_NeverRejectsAndPopulatesEveryField(t *testing.T) {
	deadline := time.Now().Add(30 * 24 * time.Hour)
	a := newMarket("a", 0.40, 0.40, deadline)
	b := newMarket("b", 0.55, 0.55, deadline)

	opp := newOpp(domain.StrategyExhaustive, []*types.Market{a, b})
	opp.OracleAlignment = domain.OracleAligned
	opp.APY = d("0.5")
	opp.APYRating = domain.APYGood

	e := newTestEngine(&fakeBooks{})
	ok := e.layer5Checklist(context.Background(), nil, opp)

	assert.True(t, ok)
	assert.NotEmpty(t, opp.Checklist.Logic)
	assert.NotEmpty(t, opp.Checklist.Rules)
	assert.Equal(t, string(domain.OracleAligned), opp.Checklist.Oracle)
	assert.NotEmpty(t, opp.Checklist.Time)
	assert.NotEmpty(t, opp.Checklist.Liquidity)
	assert.Contains(t, opp.Checklist.APY, "GOOD")
}
