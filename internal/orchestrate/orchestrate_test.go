package orchestrate

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mselser95/polymarket-arb/internal/domain"
	"github.com/mselser95/polymarket-arb/internal/preflight"
	"github.com/mselser95/polymarket-arb/internal/strategy"
	"github.com/mselser95/polymarket-arb/internal/validate"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

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

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

type deepBooks struct{}

func (deepBooks) FetchOrderBook(_ context.Context, tokenID string) (*types.OrderBook, error) {
	return &types.OrderBook{
		TokenID: tokenID,
		Asks:    []types.ParsedLevel{{Price: 0.50, Size: 100000}, {Price: 0.51, Size: 100000}},
	}, nil
}

func TestOrchestrator_AcceptsMonotonicityViolationEndToEnd(t *testing.T) {
	deadline := time.Now().Add(30 * 24 * time.Hour)
	low := newMarket("low", 0.40, 0.41, deadline)
	high := newMarket("high", 0.45, 0.46, deadline)

	g := domain.NewMarketGraph([]*types.Market{low, high})
	g.SetThresholds(map[string]*domain.ThresholdInfo{
		"low":  {MarketID: "low", Asset: "BTC", Direction: domain.DirectionAbove, Level: d("100000"), Deadline: deadline},
		"high": {MarketID: "high", Asset: "BTC", Direction: domain.DirectionAbove, Level: d("120000"), Deadline: deadline},
	})

	registry := strategy.NewRegistry(strategy.DefaultConfig())
	engine := validate.NewEngine(validate.DefaultConfig(), deepBooks{}, nil)
	auditor := preflight.NewAuditor(preflight.DefaultConfig(), deepBooks{}, nil, nil)
	enabled := map[string]bool{string(domain.StrategyMonotonicity): true}

	o := New(registry, engine, auditor, enabled, DefaultConfig(), nil)
	report, err := o.Run(context.Background(), g, "scan-1")

	require.NoError(t, err)
	assert.Equal(t, "scan-1", report.ScanID)
	assert.Equal(t, 2, report.MarketsConsidered)
	assert.Equal(t, []string{string(domain.StrategyMonotonicity)}, report.StrategiesRun)
	require.Len(t, report.Opportunities, 1)
	assert.Equal(t, domain.StatusAccepted, report.Opportunities[0].Status)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
}

func TestOrchestrator_SingleStrategyPairYieldsOneCanonicalCandidate(t *testing.T) {
	deadline := time.Now().Add(30 * 24 * time.Hour)
	low := newMarket("low", 0.40, 0.41, deadline)
	high := newMarket("high", 0.45, 0.46, deadline)
	g := domain.NewMarketGraph([]*types.Market{low, high})
	g.SetThresholds(map[string]*domain.ThresholdInfo{
		"low":  {MarketID: "low", Asset: "BTC", Direction: domain.DirectionAbove, Level: d("100000"), Deadline: deadline},
		"high": {MarketID: "high", Asset: "BTC", Direction: domain.DirectionAbove, Level: d("120000"), Deadline: deadline},
	})

	registry := strategy.NewRegistry(strategy.DefaultConfig())
	engine := validate.NewEngine(validate.DefaultConfig(), deepBooks{}, nil)
	auditor := preflight.NewAuditor(preflight.DefaultConfig(), deepBooks{}, nil, nil)
	enabled := map[string]bool{string(domain.StrategyMonotonicity): true}

	cfg := DefaultConfig()
	o := New(registry, engine, auditor, enabled, cfg, nil)
	report, err := o.Run(context.Background(), g, "scan-2")

	require.NoError(t, err)
	require.Len(t, report.Opportunities, 1, "a single strategy over one market pair produces exactly one canonical candidate")
}

func TestOrchestrator_NoRunnableStrategiesYieldsEmptyReport(t *testing.T) {
	g := domain.NewMarketGraph(nil)
	registry := strategy.NewRegistry(strategy.DefaultConfig())
	engine := validate.NewEngine(validate.DefaultConfig(), deepBooks{}, nil)
	auditor := preflight.NewAuditor(preflight.DefaultConfig(), deepBooks{}, nil, nil)

	o := New(registry, engine, auditor, map[string]bool{}, DefaultConfig(), nil)
	report, err := o.Run(context.Background(), g, "scan-3")

	require.NoError(t, err)
	assert.Empty(t, report.Opportunities)
	assert.Empty(t, report.StrategiesRun)
}
