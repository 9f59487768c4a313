// Package strategy implements the six pluggable opportunity-discovery
// strategies of spec.md §4.5: MONOTONICITY, INTERVAL, EXHAUSTIVE,
// IMPLICATION, EQUIVALENT, TEMPORAL. Each strategy is a pure producer —
// Scan(MarketGraph) → []*domain.Opportunity — and MUST NOT call the
// Market Source directly; every input it needs is precomputed onto the
// graph by the Orchestrator before the strategy runs.
package strategy

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mselser95/polymarket-arb/internal/domain"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

// Strategy is the contract every opportunity-discovery strategy
// implements, grounded on easyweb3tools-easy-paas's
// internal/strategy/engine.go registry shape.
type Strategy interface {
	Name() domain.StrategyName
	RequiredInputs() []domain.InputKind
	Scan(g *domain.MarketGraph) []*domain.Opportunity
}

// Config carries the tunable thresholds spec.md §6.5 names under
// `thresholds.*` and the grouping tolerance δ_deadline, passed explicitly
// at construction (no process-global configuration object, spec.md §9).
type Config struct {
	TauMono       decimal.Decimal // τ_mono, default 0.01
	TauImpl       float64         // τ_impl confidence, default 0.90
	TauEquiv      float64         // τ_equiv confidence, default 0.90
	TauExhaustive float64         // τ_exhaustive confidence, default 0.85

	EpsEquiv      decimal.Decimal // ε_equiv, default 0.03
	EpsExhaustive decimal.Decimal // ε_exhaustive, default 0.02
	EpsImpl       decimal.Decimal // ε_impl, default 0

	DeltaDeadline time.Duration // δ_deadline grouping tolerance, default 24h
}

// DefaultConfig returns spec.md's documented default thresholds.
func DefaultConfig() Config {
	return Config{
		TauMono:       decimal.NewFromFloat(0.01),
		TauImpl:       0.90,
		TauEquiv:      0.90,
		TauExhaustive: 0.85,
		EpsEquiv:      decimal.NewFromFloat(0.03),
		EpsExhaustive: decimal.NewFromFloat(0.02),
		EpsImpl:       decimal.Zero,
		DeltaDeadline: 24 * time.Hour,
	}
}

// buildLeg constructs a Leg for one side of a market, returning the mid
// price alongside it (for MidProfit) and false when the market has no
// token for that side.
func buildLeg(m *types.Market, side domain.Side) (domain.Leg, decimal.Decimal, bool) {
	outcome := "YES"
	if side == domain.SideNo {
		outcome = "NO"
	}
	tok := m.GetTokenByOutcome(outcome)
	if tok == nil {
		return domain.Leg{}, decimal.Zero, false
	}
	return domain.Leg{
		MarketID: m.ID,
		TokenID:  tok.TokenID,
		Side:     side,
		BuyPrice: domain.EffectiveBuyPrice(tok),
	}, decimal.NewFromFloat(tok.Mid), true
}

// newOpportunity computes the shared economics every strategy fills in
// identically: cost, mid profit, effective profit, profit percentage,
// per-leg minimum liquidity, and days-to-resolution (spec.md §3, §9's
// clamp for already-resolved markets).
func newOpportunity(name domain.StrategyName, legs []domain.Leg, mids []decimal.Decimal, guaranteedReturn decimal.Decimal, legMarkets []*types.Market) *domain.Opportunity {
	cost := decimal.Zero
	midSum := decimal.Zero
	for i, l := range legs {
		cost = cost.Add(l.BuyPrice)
		midSum = midSum.Add(mids[i])
	}

	minLiquidity := decimal.NewFromFloat(legMarkets[0].LiquidityUSD)
	var minEnd time.Time
	for i, m := range legMarkets {
		liq := decimal.NewFromFloat(m.LiquidityUSD)
		if liq.LessThan(minLiquidity) {
			minLiquidity = liq
		}
		if i == 0 || m.EndDate.Before(minEnd) {
			minEnd = m.EndDate
		}
	}

	days := minEnd.Sub(time.Now()).Hours() / 24
	if days < 1 {
		days = 1 // spec.md §9: clamp for already-resolved/near-term markets
	}

	effectiveProfit := guaranteedReturn.Sub(cost)
	profitPct := decimal.Zero
	if !cost.IsZero() {
		profitPct = effectiveProfit.Div(cost)
	}

	return &domain.Opportunity{
		ID:                 uuid.NewString(),
		Strategy:           name,
		Legs:               legs,
		Cost:               cost,
		GuaranteedReturn:   guaranteedReturn,
		MidProfit:          decimal.NewFromInt(1).Sub(midSum),
		EffectiveProfit:    effectiveProfit,
		ProfitPct:          profitPct,
		MinLegLiquidityUSD: minLiquidity,
		DaysToResolution:   days,
		Status:             domain.StatusPending,
		DiscoveredAt:       time.Now().UTC(),
	}
}

// withinTolerance reports whether two deadlines are within delta of each
// other, for the monotonicity/interval/implication grouping tolerance.
func withinTolerance(a, b time.Time, delta time.Duration) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= delta
}
