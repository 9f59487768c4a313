package validate

import (
	"context"
	"fmt"

	"github.com/mselser95/polymarket-arb/internal/domain"
)

// layer5Checklist attaches a deterministic human-review summary built from
// values the earlier layers already computed. It never rejects (spec.md
// §4.6 Layer 5).
func (e *Engine) layer5Checklist(_ context.Context, _ *domain.MarketGraph, opp *domain.Opportunity) bool {
	opp.Checklist = domain.Checklist{
		Logic:     fmt.Sprintf("%s over %d leg(s)", opp.Strategy, len(opp.Legs)),
		Rules:     fmt.Sprintf("guaranteed_return=%s cost=%s", opp.GuaranteedReturn.String(), opp.Cost.String()),
		Oracle:    string(opp.OracleAlignment),
		Time:      fmt.Sprintf("%.1f day(s) to resolution", opp.DaysToResolution),
		Liquidity: fmt.Sprintf("slippage_cost=%s", opp.SlippageCost.String()),
		APY:       fmt.Sprintf("%s (%s)", opp.APY.String(), opp.APYRating),
	}
	return true
}
