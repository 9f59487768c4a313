// Package app wires the scan pipeline's stages into one runnable Scanner:
// Market Source, parsers, clusterer, analyzer, strategy registry,
// validation engine, and pre-flight auditor, grounded on the teacher's
// internal/app.App composition root.
package app

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/mselser95/polymarket-arb/internal/analyzer"
	"github.com/mselser95/polymarket-arb/internal/cluster"
	"github.com/mselser95/polymarket-arb/internal/config"
	"github.com/mselser95/polymarket-arb/internal/orchestrate"
	"github.com/mselser95/polymarket-arb/internal/parse"
	"github.com/mselser95/polymarket-arb/internal/preflight"
	"github.com/mselser95/polymarket-arb/internal/ratelimit"
	"github.com/mselser95/polymarket-arb/internal/source"
	"github.com/mselser95/polymarket-arb/internal/strategy"
	"github.com/mselser95/polymarket-arb/internal/validate"
	"github.com/mselser95/polymarket-arb/pkg/cache"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

// Scanner owns every stage of one scan pipeline. It is built once from a
// config.Config and reused across scans; the per-scan state lives in the
// domain.MarketGraph constructed inside Run.
type Scanner struct {
	cfg *config.Config

	source       *source.Client
	thresholds   *parse.ThresholdParser
	intervals    *parse.IntervalParser
	clusterer    *cluster.Clusterer
	analyzer     *analyzer.Analyzer
	orchestrator *orchestrate.Orchestrator

	marketsMu sync.RWMutex
	markets   map[string]*types.Market // latest scan's snapshot, read by the analyzer's lookup closure

	logger *zap.Logger
}

// lookupMarket is the Analyzer's market-by-ID resolver. It reads whichever
// snapshot BuildGraph most recently installed; safe to call concurrently
// with BuildGraph because the map is swapped, never mutated in place.
func (s *Scanner) lookupMarket(marketID string) (*types.Market, bool) {
	s.marketsMu.RLock()
	defer s.marketsMu.RUnlock()
	m, ok := s.markets[marketID]
	return m, ok
}

// New constructs a Scanner. The clusterer/analyzer stages are wired only
// when cfg.LLMAPIKeyEnv resolves to a non-empty key; without one, the
// scan still runs but IMPLICATION/EQUIVALENT (which require domain.InputLLM)
// report themselves not-runnable via Strategy.RequiredInputs, per
// spec.md §4.5's graceful-degradation contract.
func New(cfg *config.Config, logger *zap.Logger) (*Scanner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	bucket := ratelimit.New(cfg.RequestsPerSecond, cfg.RequestsPerSecond)

	snapshotCache, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 1e6,
		MaxCost:     1 << 27,
		BufferItems: 64,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("construct snapshot cache: %w", err)
	}

	srcCfg := source.Config{
		GammaBaseURL:     cfg.GammaBaseURL,
		CLOBBaseURL:      cfg.CLOBBaseURL,
		CatalogTimeout:   cfg.CatalogTimeout,
		OrderBookTimeout: cfg.OrderBookTimeout,
		MaxRetries:       cfg.MaxRetries,
		NSource:          cfg.NSource,
		PageLimit:        cfg.ScanMarketLimit,
		FetchMaxPerTag:   cfg.FetchMaxPerTag,
		FetchUnlimited:   cfg.FetchUnlimited(),
		SnapshotTTL:      source.DefaultConfig().SnapshotTTL,
	}
	src := source.New(srcCfg, bucket, snapshotCache, logger)

	s := &Scanner{
		cfg:        cfg,
		source:     src,
		thresholds: parse.NewThresholdParser(),
		intervals:  parse.NewIntervalParser(),
		logger:     logger,
	}

	apiKey := os.Getenv(cfg.LLMAPIKeyEnv)
	if apiKey != "" {
		genaiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: apiKey})
		if err != nil {
			return nil, fmt.Errorf("construct genai client: %w", err)
		}

		embedder := cluster.NewGenAIEmbedder(genaiClient, cfg.LLMEmbeddingModel)
		s.clusterer = cluster.New(embedder, bucket, cfg.NEmbed, cfg.BEmbed)

		gen := &analyzer.GenAIGenerator{Client: genaiClient, Model: cfg.LLMModel}
		s.analyzer = analyzer.New(gen, bucket, s.lookupMarket).WithMaxCalls(cfg.ScanMaxLLMCalls)
	} else {
		logger.Warn("llm-disabled: no API key found, clustering and relation analysis are skipped",
			zap.String("env_var", cfg.LLMAPIKeyEnv))
	}

	strategyCfg := strategy.Config{
		TauMono:       decimalOrDefault(cfg.ThresholdMono, strategy.DefaultConfig().TauMono),
		TauImpl:       cfg.ThresholdImpl,
		TauEquiv:      cfg.ThresholdEquiv,
		TauExhaustive: cfg.ThresholdExhaustive,
		EpsEquiv:      strategy.DefaultConfig().EpsEquiv,
		EpsExhaustive: strategy.DefaultConfig().EpsExhaustive,
		EpsImpl:       strategy.DefaultConfig().EpsImpl,
		DeltaDeadline: strategy.DefaultConfig().DeltaDeadline,
	}
	registry := strategy.NewRegistry(strategyCfg)

	validateCfg := validate.DefaultConfig()
	validateCfg.TargetNotional = decimalOrDefault(cfg.ScanTargetNotionalUSD, validateCfg.TargetNotional)
	validateCfg.MinLegLiquidity = decimalOrDefault(cfg.ScanMinDepthUSD, validateCfg.MinLegLiquidity)
	validateCfg.APYMin = decimalOrDefault(cfg.ScanMinAPY, validateCfg.APYMin)
	validateEngine := validate.NewEngine(validateCfg, src, logger)

	preflightCfg := preflight.DefaultConfig()
	preflightCfg.TargetNotional = validateCfg.TargetNotional
	preflightCfg.MinLegLiquidity = validateCfg.MinLegLiquidity
	auditor := preflight.NewAuditor(preflightCfg, src, nil, logger)

	s.orchestrator = orchestrate.New(registry, validateEngine, auditor, cfg.StrategiesEnabled, orchestrate.DefaultConfig(), logger)

	return s, nil
}

// decimalOrDefault converts a configured float64 to decimal.Decimal,
// falling back to def when v is non-positive (the env var was left unset
// or zero, and the package's own documented default should apply).
func decimalOrDefault(v float64, def decimal.Decimal) decimal.Decimal {
	if v <= 0 {
		return def
	}
	return decimal.NewFromFloat(v)
}
