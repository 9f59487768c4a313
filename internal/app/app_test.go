package app

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/mselser95/polymarket-arb/pkg/types"
)

func TestDecimalOrDefault(t *testing.T) {
	def := decimal.NewFromInt(500)

	assert.True(t, decimalOrDefault(0, def).Equal(def))
	assert.True(t, decimalOrDefault(-1, def).Equal(def))
	assert.True(t, decimalOrDefault(750, def).Equal(decimal.NewFromInt(750)))
}

func TestScanner_LookupMarket(t *testing.T) {
	s := &Scanner{}

	_, ok := s.lookupMarket("m1")
	assert.False(t, ok)

	s.marketsMu.Lock()
	s.markets = map[string]*types.Market{"m1": {ID: "m1", Question: "Will X happen?"}}
	s.marketsMu.Unlock()

	m, ok := s.lookupMarket("m1")
	assert.True(t, ok)
	assert.Equal(t, "Will X happen?", m.Question)

	_, ok = s.lookupMarket("missing")
	assert.False(t, ok)
}
