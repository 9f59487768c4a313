// Package validate implements the Validation Engine of spec.md §4.6: a
// five-layer acceptance pipeline (the sixth, Pre-flight, lives in
// internal/preflight since it runs immediately before emission rather than
// once per candidate). Layers run strictly in order and short-circuit on
// the first rejection, grounded on
// easyweb3tools-easy-paas/services/polymarket/backend/internal/risk's
// Filter() sequential-rejection shape.
package validate

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/internal/domain"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

// OrderBookFetcher is the subset of the Market Source the Validation
// Engine consults for Layer 3's on-demand depth reads. Order-book reads
// are never cached across a plan lifetime (spec.md §4.1), so every call
// goes to the venue.
type OrderBookFetcher interface {
	FetchOrderBook(ctx context.Context, tokenID string) (*types.OrderBook, error)
}

// Config carries every tunable Layers 2-4 consult, passed explicitly at
// construction (spec.md §9: no process-global configuration object).
type Config struct {
	DeltaDeadline time.Duration // δ_deadline, default 24h

	EpsProfit       decimal.Decimal // ε_profit, default 0.005
	TargetNotional  decimal.Decimal // S_target, default $500
	EpsExec         decimal.Decimal // ε_exec, default 0
	MinLegLiquidity decimal.Decimal // L_min, default $10,000

	APYMin decimal.Decimal // apy_min, default 0.15

	// AuthorityList orders resolution-source keywords by precedence; the
	// first match in an event_description wins. Markets whose
	// resolution_source matches nothing classify as OracleUnknown.
	AuthorityList []string

	// APYBands assigns an APYRating by lower-bound, evaluated highest
	// first; spec.md §3 leaves the exact bands to the implementation.
	APYBands []APYBand
}

// APYBand maps an APY lower bound to a rating; the first band (in
// descending MinAPY order) the computed APY clears wins.
type APYBand struct {
	MinAPY decimal.Decimal
	Rating domain.APYRating
}

// DefaultConfig returns spec.md's documented Layer 2-4 defaults.
func DefaultConfig() Config {
	return Config{
		DeltaDeadline:   24 * time.Hour,
		EpsProfit:       decimal.NewFromFloat(0.005),
		TargetNotional:  decimal.NewFromInt(500),
		EpsExec:         decimal.Zero,
		MinLegLiquidity: decimal.NewFromInt(10000),
		APYMin:          decimal.NewFromFloat(0.15),
		AuthorityList: []string{
			"associated press", "reuters", "bloomberg", "cftc", "sec.gov",
			"official league", "nba", "nfl", "mlb", "nhl", "fifa",
			"fed", "federal reserve", "bureau of labor statistics", "bls",
		},
		APYBands: []APYBand{
			{MinAPY: decimal.NewFromFloat(1.00), Rating: domain.APYExcellent},
			{MinAPY: decimal.NewFromFloat(0.40), Rating: domain.APYGood},
			{MinAPY: decimal.NewFromFloat(0.15), Rating: domain.APYAcceptable},
			{MinAPY: decimal.NewFromFloat(-1), Rating: domain.APYReject},
		},
	}
}

// layerFunc is one ordered step of the pipeline. It returns false once the
// opportunity has been rejected (the opportunity records its own reason via
// Reject), so Run can short-circuit.
type layerFunc func(ctx context.Context, g *domain.MarketGraph, opp *domain.Opportunity) bool

// Engine runs candidates through Layers 1-5 in spec.md §4.6's declared order.
type Engine struct {
	cfg    Config
	books  OrderBookFetcher
	logger *zap.Logger
}

func NewEngine(cfg Config, books OrderBookFetcher, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, books: books, logger: logger}
}

// Run pushes opp through Layers 1-5, mutating it in place (economics,
// APY, trail) and returning true only if it survives every layer. The
// caller (internal/orchestrate) hands survivors to internal/preflight for
// Layer 6 before final acceptance.
func (e *Engine) Run(ctx context.Context, g *domain.MarketGraph, opp *domain.Opportunity) bool {
	opp.Status = domain.StatusValidating

	layers := []struct {
		name string
		fn   layerFunc
	}{
		{"semantic", e.layer1Semantic},
		{"rule_oracle", e.layer2RuleOracle},
		{"math_execution", e.layer3MathExecution},
		{"apy", e.layer4APY},
		{"checklist", e.layer5Checklist},
	}

	for _, l := range layers {
		if !l.fn(ctx, g, opp) {
			e.logger.Debug("validate: reject",
				zap.String("layer", l.name),
				zap.String("strategy", string(opp.Strategy)),
				zap.String("reason", opp.RejectedReason),
			)
			return false
		}
		opp.AppendTrail(l.name, "PASS", "")
	}
	return true
}
