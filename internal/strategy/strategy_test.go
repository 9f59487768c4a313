package strategy

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mselser95/polymarket-arb/pkg/types"
)

// newMarket builds a minimal Market with YES/NO tokens for strategy tests.
func newMarket(id string, yesMid, yesAsk float64, end time.Time) *types.Market {
	return &types.Market{
		ID:      id,
		EventID: id + "-event",
		EndDate: end,
		Tokens: []types.Token{
			{TokenID: id + "-yes", Outcome: "Yes", Mid: yesMid, BestAsk: yesAsk},
			{TokenID: id + "-no", Outcome: "No", Mid: 1 - yesMid, BestAsk: 1 - yesAsk},
		},
		LiquidityUSD: 10000,
	}
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}
