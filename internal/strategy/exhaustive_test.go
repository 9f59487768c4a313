package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mselser95/polymarket-arb/internal/domain"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

func taggedMarket(id string, yesMid, yesAsk float64, end time.Time, eventID string) *types.Market {
	m := newMarket(id, yesMid, yesAsk, end)
	m.EventID = eventID
	m.Tags = map[string]struct{}{"mutually-exclusive": {}}
	return m
}

func TestExhaustive_VenueTaggedSetUnderOneEmitsOpportunity(t *testing.T) {
	deadline := time.Now().Add(10 * 24 * time.Hour)
	a := taggedMarket("a", 0.30, 0.31, deadline, "race")
	b := taggedMarket("b", 0.25, 0.26, deadline, "race")
	c := taggedMarket("c", 0.35, 0.36, deadline, "race")

	g := domain.NewMarketGraph([]*types.Market{a, b, c})

	s := NewExhaustive(DefaultConfig())
	opps := s.Scan(g)

	require.Len(t, opps, 1)
	assert.Equal(t, domain.StrategyExhaustive, opps[0].Strategy)
	assert.Len(t, opps[0].Legs, 3)
}

func TestExhaustive_WithoutTagOrAnalyzerEmitsNothing(t *testing.T) {
	deadline := time.Now().Add(10 * 24 * time.Hour)
	a := newMarket("a", 0.30, 0.31, deadline)
	b := newMarket("b", 0.25, 0.26, deadline)
	a.EventID, b.EventID = "race", "race"

	g := domain.NewMarketGraph([]*types.Market{a, b})

	s := NewExhaustive(DefaultConfig())
	opps := s.Scan(g)
	assert.Empty(t, opps)
}
