package validate

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mselser95/polymarket-arb/internal/domain"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

// layer3MathExecution recomputes cost against the current graph state,
// walks each leg's order book for the target notional to price slippage,
// and enforces the minimum per-leg depth — spec.md §4.6 Layer 3.
func (e *Engine) layer3MathExecution(ctx context.Context, g *domain.MarketGraph, opp *domain.Opportunity) bool {
	cost := decimal.Zero
	for i, leg := range opp.Legs {
		tok := legToken(g, leg)
		if tok == nil {
			opp.Reject("math_execution", "leg token not found in snapshot")
			return false
		}
		price := domain.EffectiveBuyPrice(tok)
		opp.Legs[i].BuyPrice = price
		cost = cost.Add(price)
	}
	opp.Cost = cost
	opp.EffectiveProfit = opp.GuaranteedReturn.Sub(cost)
	if !cost.IsZero() {
		opp.ProfitPct = opp.EffectiveProfit.Div(cost)
	}

	if !cost.LessThan(opp.GuaranteedReturn.Sub(e.cfg.EpsProfit)) {
		opp.Reject("math_execution", "cost does not clear guaranteed_return - eps_profit")
		return false
	}

	slippage, ok := e.legSlippageAndLiquidity(ctx, opp)
	if !ok {
		return false
	}
	opp.SlippageCost = slippage

	executable := opp.GuaranteedReturn.Sub(cost).Sub(slippage)
	if executable.LessThan(e.cfg.EpsExec) {
		opp.Reject("math_execution", "executable profit below eps_exec after slippage")
		return false
	}
	return true
}

// legSlippageAndLiquidity walks each leg's ask side for S_target notional,
// summing Σ(vwap - best_ask) across legs (one unit bought per leg) and
// rejecting INSUFFICIENT_LIQUIDITY the first time a leg's ask depth within
// the target band falls short of L_min.
func (e *Engine) legSlippageAndLiquidity(ctx context.Context, opp *domain.Opportunity) (decimal.Decimal, bool) {
	targetNotional, _ := e.cfg.TargetNotional.Float64()
	minLiquidity, _ := e.cfg.MinLegLiquidity.Float64()

	total := decimal.Zero
	for _, leg := range opp.Legs {
		book, err := e.fetchBook(ctx, leg.TokenID)
		if err != nil || book == nil {
			opp.Reject("math_execution", "order book fetch failed for leg "+leg.MarketID)
			return decimal.Zero, false
		}
		bestAsk, _, hasAsk := book.BestAsk()
		if !hasAsk {
			opp.Reject("math_execution", "INSUFFICIENT_LIQUIDITY: empty ask side for leg "+leg.MarketID)
			return decimal.Zero, false
		}

		depth := book.AskDepthUSD(bestAsk * 1.05)
		if depth < minLiquidity {
			opp.Reject("math_execution", "INSUFFICIENT_LIQUIDITY: leg "+leg.MarketID+" ask depth below L_min")
			return decimal.Zero, false
		}

		vwap, ok := book.VWAP(targetNotional)
		if !ok {
			// Book can't fill S_target at any price; that is itself a
			// liquidity rejection rather than a silent zero-slippage pass.
			opp.Reject("math_execution", "INSUFFICIENT_LIQUIDITY: leg "+leg.MarketID+" cannot fill target notional")
			return decimal.Zero, false
		}

		total = total.Add(decimal.NewFromFloat(vwap - bestAsk))
	}
	return total, true
}

func (e *Engine) fetchBook(ctx context.Context, tokenID string) (*types.OrderBook, error) {
	if e.books == nil {
		return nil, nil
	}
	return e.books.FetchOrderBook(ctx, tokenID)
}

func legToken(g *domain.MarketGraph, leg domain.Leg) *types.Token {
	m, ok := g.Market(leg.MarketID)
	if !ok {
		return nil
	}
	outcome := "YES"
	if leg.Side == domain.SideNo {
		outcome = "NO"
	}
	return m.GetTokenByOutcome(outcome)
}
