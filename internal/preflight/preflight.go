// Package preflight implements Validation Layer 6 of spec.md §4.6: the
// final re-check immediately before an opportunity is emitted. Order-book
// reads here must never reuse the per-scan graph cache (spec.md §4.1's
// "order-book reads MUST NOT be cached across a plan lifetime"), so this
// package always calls back to the Market Source, never domain.MarketGraph's
// cached books.
package preflight

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/internal/domain"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

// OrderBookFetcher is the Market Source's order-book read, called fresh
// for every leg on every Audit.
type OrderBookFetcher interface {
	FetchOrderBook(ctx context.Context, tokenID string) (*types.OrderBook, error)
}

// Clock abstracts PlanSnapshotAt's timestamp so tests can fix it.
type Clock func() time.Time

// Config carries the same execution thresholds Validation Layer 3 uses,
// re-applied here against freshly re-fetched books.
type Config struct {
	EpsExec         decimal.Decimal // ε_exec, default 0
	TargetNotional  decimal.Decimal // S_target, default $500
	MinLegLiquidity decimal.Decimal // L_min, default $10,000
}

func DefaultConfig() Config {
	return Config{
		EpsExec:         decimal.Zero,
		TargetNotional:  decimal.NewFromInt(500),
		MinLegLiquidity: decimal.NewFromInt(10000),
	}
}

// Auditor re-fetches each leg's order book immediately before emission and
// discards anything whose economics degraded since Layer 3 ran
// (spec.md §4.6 Layer 6).
type Auditor struct {
	cfg    Config
	books  OrderBookFetcher
	now    Clock
	logger *zap.Logger
}

func NewAuditor(cfg Config, books OrderBookFetcher, now Clock, logger *zap.Logger) *Auditor {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auditor{cfg: cfg, books: books, now: now, logger: logger}
}

// Audit re-fetches every leg's book, recomputes cost and slippage against
// those fresh reads, and returns false (marking the opportunity STALE) if
// executable profit has degraded below ε_exec. On success it stamps
// PlanSnapshotAt and leaves Status untouched for the Orchestrator to
// mark ACCEPTED.
func (a *Auditor) Audit(ctx context.Context, g *domain.MarketGraph, opp *domain.Opportunity) bool {
	cost := decimal.Zero
	for i, leg := range opp.Legs {
		tok := legToken(g, leg)
		if tok == nil {
			a.discard(opp, "leg token not found in snapshot")
			return false
		}
		price := domain.EffectiveBuyPrice(tok)
		opp.Legs[i].BuyPrice = price
		cost = cost.Add(price)
	}

	slippage, ok := a.freshSlippageAndLiquidity(ctx, opp)
	if !ok {
		return false
	}

	executable := opp.GuaranteedReturn.Sub(cost).Sub(slippage)
	if executable.LessThan(a.cfg.EpsExec) {
		a.discard(opp, "executable profit degraded below eps_exec on pre-flight re-check")
		return false
	}

	opp.Cost = cost
	opp.SlippageCost = slippage
	opp.EffectiveProfit = executable
	if !cost.IsZero() {
		opp.ProfitPct = executable.Div(cost)
	}
	opp.PlanSnapshotAt = a.now().UTC()
	return true
}

func (a *Auditor) freshSlippageAndLiquidity(ctx context.Context, opp *domain.Opportunity) (decimal.Decimal, bool) {
	targetNotional, _ := a.cfg.TargetNotional.Float64()
	minLiquidity, _ := a.cfg.MinLegLiquidity.Float64()

	total := decimal.Zero
	for _, leg := range opp.Legs {
		book, err := a.books.FetchOrderBook(ctx, leg.TokenID)
		if err != nil || book == nil {
			a.discard(opp, "pre-flight order book fetch failed for leg "+leg.MarketID)
			return decimal.Zero, false
		}

		bestAsk, _, hasAsk := book.BestAsk()
		if !hasAsk {
			a.discard(opp, "INSUFFICIENT_LIQUIDITY: empty ask side for leg "+leg.MarketID+" on pre-flight re-check")
			return decimal.Zero, false
		}

		depth := book.AskDepthUSD(bestAsk * 1.05)
		if depth < minLiquidity {
			a.discard(opp, "INSUFFICIENT_LIQUIDITY: leg "+leg.MarketID+" ask depth below L_min on pre-flight re-check")
			return decimal.Zero, false
		}

		vwap, ok := book.VWAP(targetNotional)
		if !ok {
			a.discard(opp, "INSUFFICIENT_LIQUIDITY: leg "+leg.MarketID+" cannot fill target notional on pre-flight re-check")
			return decimal.Zero, false
		}
		total = total.Add(decimal.NewFromFloat(vwap - bestAsk))
	}
	return total, true
}

func (a *Auditor) discard(opp *domain.Opportunity, reason string) {
	opp.Status = domain.StatusStale
	opp.RejectedLayer = "preflight"
	opp.RejectedReason = reason
	opp.AppendTrail("preflight", "REJECT", reason)
	a.logger.Debug("preflight: discard",
		zap.String("strategy", string(opp.Strategy)),
		zap.String("reason", reason),
	)
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
