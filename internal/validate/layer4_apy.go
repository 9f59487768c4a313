package validate

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mselser95/polymarket-arb/internal/domain"
)

// layer4APY derives apy from the days_to_resolution internal/strategy
// already clamped to at least one day, and rejects anything below
// apy_min (spec.md §4.6 Layer 4). Markets whose real deadline has already
// passed or is under a day out are additionally forced to the REJECT
// rating regardless of the computed number (spec.md §9) — that clamp is
// detected here from the legs' raw end times rather than from
// DaysToResolution, which internal/strategy has already floored to 1.
func (e *Engine) layer4APY(_ context.Context, g *domain.MarketGraph, opp *domain.Opportunity) bool {
	markets := legMarkets(g, opp)
	if len(markets) == 0 {
		opp.Reject("apy", "no resolvable leg markets")
		return false
	}

	minEnd := markets[0].EndDate
	for _, m := range markets[1:] {
		if m.EndDate.Before(minEnd) {
			minEnd = m.EndDate
		}
	}
	alreadyResolved := minEnd.Sub(time.Now()).Hours()/24 < 1

	apy := decimal.Zero
	if !opp.Cost.IsZero() {
		days := opp.DaysToResolution
		if days < 1 {
			days = 1
		}
		apy = opp.ProfitPct.Mul(decimal.NewFromInt(365).Div(decimal.NewFromFloat(days)))
	}
	opp.APY = apy

	if alreadyResolved {
		opp.APYRating = domain.APYReject
		opp.Reject("apy", "already-resolved or near-term market, APY undefined")
		return false
	}

	if apy.LessThan(e.cfg.APYMin) {
		opp.APYRating = domain.APYReject
		opp.Reject("apy", "apy below apy_min")
		return false
	}

	opp.APYRating = e.rateAPY(apy)
	return true
}

// rateAPY assigns the highest band whose MinAPY the computed APY clears.
func (e *Engine) rateAPY(apy decimal.Decimal) domain.APYRating {
	best := domain.APYReject
	bestMin := decimal.NewFromInt(-1000000)
	for _, band := range e.cfg.APYBands {
		if !apy.LessThan(band.MinAPY) && band.MinAPY.GreaterThanOrEqual(bestMin) {
			best = band.Rating
			bestMin = band.MinAPY
		}
	}
	return best
}
