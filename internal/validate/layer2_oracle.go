package validate

import (
	"context"
	"strings"

	"github.com/mselser95/polymarket-arb/internal/domain"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

// timeSensitiveStrategies are the strategies Layer 2's time check applies
// to, per spec.md §4.6 Layer 2 ("for IMPLIES_AB..."; "for EXHAUSTIVE/INTERVAL
// groups..."). MONOTONICITY and TEMPORAL already encode their own time
// relationship at the strategy level and are exempt here.
var timeSensitiveStrategies = map[domain.StrategyName]bool{
	domain.StrategyImplication: true,
	domain.StrategyExhaustive:  true,
	domain.StrategyInterval:    true,
}

// layer2RuleOracle enforces the time-window, resolution-source, and
// threshold-direction rules of spec.md §4.6 Layer 2.
func (e *Engine) layer2RuleOracle(_ context.Context, g *domain.MarketGraph, opp *domain.Opportunity) bool {
	markets := legMarkets(g, opp)
	if len(markets) == 0 {
		opp.Reject("rule_oracle", "no resolvable leg markets")
		return false
	}

	if !e.checkTime(opp, markets) {
		return false
	}
	if !e.checkOracleAlignment(g, opp, markets) {
		return false
	}
	if !e.checkThresholdDirection(g, opp) {
		return false
	}
	return true
}

func legMarkets(g *domain.MarketGraph, opp *domain.Opportunity) []*types.Market {
	seen := map[string]bool{}
	var out []*types.Market
	for _, l := range opp.Legs {
		if seen[l.MarketID] {
			continue
		}
		seen[l.MarketID] = true
		if m, ok := g.Market(l.MarketID); ok {
			out = append(out, m)
		}
	}
	return out
}

func (e *Engine) checkTime(opp *domain.Opportunity, markets []*types.Market) bool {
	if !timeSensitiveStrategies[opp.Strategy] {
		return true
	}

	if opp.Strategy == domain.StrategyImplication && len(markets) >= 2 {
		// opp.Legs[0] is B (conclusion, YES), opp.Legs[1] is A (premise, NO).
		b, aOK := findMarket(markets, opp.Legs[0].MarketID)
		a, bOK := findMarket(markets, opp.Legs[1].MarketID)
		if aOK && bOK {
			if b.EndDate.Before(a.EndDate.Add(-e.cfg.DeltaDeadline)) {
				opp.Reject("rule_oracle", "end_time(B) precedes end_time(A) beyond delta_deadline")
				return false
			}
		}
		return true
	}

	// EXHAUSTIVE/INTERVAL: every leg market must resolve within delta_deadline of each other.
	minEnd, maxEnd := markets[0].EndDate, markets[0].EndDate
	for _, m := range markets[1:] {
		if m.EndDate.Before(minEnd) {
			minEnd = m.EndDate
		}
		if m.EndDate.After(maxEnd) {
			maxEnd = m.EndDate
		}
	}
	if maxEnd.Sub(minEnd) > e.cfg.DeltaDeadline {
		opp.Reject("rule_oracle", "leg deadlines exceed delta_deadline tolerance")
		return false
	}
	return true
}

func findMarket(markets []*types.Market, id string) (*types.Market, bool) {
	for _, m := range markets {
		if m.ID == id {
			return m, true
		}
	}
	return nil, false
}

// checkOracleAlignment classifies every pair of distinct resolution sources
// among the leg markets and rejects on the first MISALIGNED pair.
func (e *Engine) checkOracleAlignment(_ *domain.MarketGraph, opp *domain.Opportunity, markets []*types.Market) bool {
	if len(markets) < 2 {
		opp.OracleAlignment = domain.OracleAligned
		return true
	}

	worst := domain.OracleAligned
	for i := 0; i < len(markets); i++ {
		for j := i + 1; j < len(markets); j++ {
			alignment := e.classifyPair(markets[i].ResolutionSource, markets[j].ResolutionSource)
			if alignment == domain.OracleMisaligned {
				opp.OracleAlignment = domain.OracleMisaligned
				opp.Reject("rule_oracle", "resolution sources misaligned")
				return false
			}
			worst = worseAlignment(worst, alignment)
		}
	}
	opp.OracleAlignment = worst
	return true
}

// classifyPair extracts the first authority-list token matched in each
// description and compares them: identical source -> ALIGNED, no match on
// either side -> UNKNOWN (permissive), otherwise COMPATIBLE/MISALIGNED.
func (e *Engine) classifyPair(a, b string) domain.OracleAlignment {
	sa := e.extractSource(a)
	sb := e.extractSource(b)
	if sa == "" || sb == "" {
		return domain.OracleUnknown
	}
	if sa == sb {
		return domain.OracleAligned
	}
	if sourceClass(sa) == sourceClass(sb) {
		return domain.OracleCompatible
	}
	return domain.OracleMisaligned
}

func (e *Engine) extractSource(description string) string {
	lower := strings.ToLower(description)
	for _, authority := range e.cfg.AuthorityList {
		if strings.Contains(lower, authority) {
			return authority
		}
	}
	return ""
}

// sourceClass buckets individual authorities into broad classes so
// "reuters" and "bloomberg" (both wire services) read as COMPATIBLE rather
// than MISALIGNED.
func sourceClass(authority string) string {
	switch authority {
	case "associated press", "reuters", "bloomberg":
		return "wire_service"
	case "nba", "nfl", "mlb", "nhl", "fifa", "official league":
		return "sports_league"
	case "cftc", "sec.gov":
		return "financial_regulator"
	case "fed", "federal reserve", "bureau of labor statistics", "bls":
		return "economic_data"
	default:
		return authority
	}
}

func worseAlignment(a, b domain.OracleAlignment) domain.OracleAlignment {
	rank := map[domain.OracleAlignment]int{
		domain.OracleAligned:    0,
		domain.OracleCompatible: 1,
		domain.OracleUnknown:    2,
		domain.OracleMisaligned: 3,
	}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// checkThresholdDirection re-verifies, for IMPLICATION opportunities built
// over two threshold markets, that the claimed implication direction
// matches the parsed levels (spec.md §4.5.4, §4.6 Layer 2).
func (e *Engine) checkThresholdDirection(g *domain.MarketGraph, opp *domain.Opportunity) bool {
	if opp.Strategy != domain.StrategyImplication || len(opp.Legs) < 2 {
		return true
	}

	bID, aID := opp.Legs[0].MarketID, opp.Legs[1].MarketID
	aInfo, aOK := g.Threshold(aID)
	bInfo, bOK := g.Threshold(bID)
	if !aOK || !bOK || aInfo.Asset != bInfo.Asset || aInfo.Direction != bInfo.Direction {
		return true // not a threshold-ladder pair; nothing to cross-check
	}

	switch aInfo.Direction {
	case domain.DirectionAbove:
		if aInfo.Level.LessThan(bInfo.Level) {
			opp.Reject("rule_oracle", "threshold direction contradicts claimed implication")
			return false
		}
	case domain.DirectionBelow:
		if aInfo.Level.GreaterThan(bInfo.Level) {
			opp.Reject("rule_oracle", "threshold direction contradicts claimed implication")
			return false
		}
	}
	return true
}
