package validate

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mselser95/polymarket-arb/internal/domain"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

// newMarket builds a minimal Market with YES/NO tokens for validate tests.
func newMarket(id string, yesMid, yesAsk float64, end time.Time) *types.Market {
	return &types.Market{
		ID:               id,
		EventID:          id + "-event",
		EndDate:          end,
		ResolutionSource: "Associated Press",
		Tokens: []types.Token{
			{TokenID: id + "-yes", Outcome: "Yes", Mid: yesMid, BestAsk: yesAsk},
			{TokenID: id + "-no", Outcome: "No", Mid: 1 - yesMid, BestAsk: 1 - yesAsk},
		},
		LiquidityUSD: 10000,
	}
}

// newOpp builds a minimal Opportunity over the given markets' YES legs,
// with economics pre-filled the way internal/strategy's newOpportunity
// would leave them before the Validation Engine runs.
func newOpp(strategyName domain.StrategyName, markets []*types.Market) *domain.Opportunity {
	var legs []domain.Leg
	cost := decimal.Zero
	for _, m := range markets {
		tok := m.GetTokenByOutcome("YES")
		price := decimal.NewFromFloat(tok.BestAsk)
		legs = append(legs, domain.Leg{MarketID: m.ID, TokenID: tok.TokenID, Side: domain.SideYes, BuyPrice: price})
		cost = cost.Add(price)
	}
	guaranteed := decimal.NewFromInt(1)
	effective := guaranteed.Sub(cost)
	profitPct := decimal.Zero
	if !cost.IsZero() {
		profitPct = effective.Div(cost)
	}
	return &domain.Opportunity{
		ID:               "test-opp",
		Strategy:         strategyName,
		Legs:             legs,
		Cost:             cost,
		GuaranteedReturn: guaranteed,
		EffectiveProfit:  effective,
		ProfitPct:        profitPct,
		DaysToResolution: 30,
		Status:           domain.StatusPending,
		DiscoveredAt:     time.Now().UTC(),
	}
}

// fakeBooks is a stub OrderBookFetcher returning a canned book per token,
// or a deep, tight book by default.
type fakeBooks struct {
	books map[string]*types.OrderBook
	err   error
}

func (f *fakeBooks) FetchOrderBook(_ context.Context, tokenID string) (*types.OrderBook, error) {
	if f.err != nil {
		return nil, f.err
	}
	if b, ok := f.books[tokenID]; ok {
		return b, nil
	}
	return deepBook(), nil
}

// deepBook returns an ask side with ample depth at a tight spread, so
// Layer 3's slippage/liquidity checks pass by default.
func deepBook() *types.OrderBook {
	return &types.OrderBook{
		Asks: []types.ParsedLevel{
			{Price: 0.50, Size: 100000},
			{Price: 0.51, Size: 100000},
		},
		Bids: []types.ParsedLevel{
			{Price: 0.49, Size: 100000},
		},
	}
}

func newTestEngine(books *fakeBooks) *Engine {
	return NewEngine(DefaultConfig(), books, nil)
}
