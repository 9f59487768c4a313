package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/internal/domain"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

// BuildGraph fetches the current market snapshot for the configured tags
// and assembles the per-scan domain.MarketGraph: parsed thresholds and
// intervals for every market, an optional embedding-based cluster set,
// and the memoized LLM analyzer when one is configured. Order books are
// deliberately left unset — strategies that need one fetch it on demand
// through validate/preflight's OrderBookFetcher, never during graph
// construction (spec.md §4.1).
func (s *Scanner) BuildGraph(ctx context.Context) (*domain.MarketGraph, error) {
	markets, err := s.source.ListMarkets(ctx, s.cfg.ScanTags, true, s.cfg.ScanMarketLimit)
	if err != nil {
		return nil, fmt.Errorf("list markets: %w", err)
	}

	byID := make(map[string]*types.Market, len(markets))
	for _, m := range markets {
		byID[m.ID] = m
	}
	s.marketsMu.Lock()
	s.markets = byID
	s.marketsMu.Unlock()

	g := domain.NewMarketGraph(markets)

	thresholds := make(map[string]*domain.ThresholdInfo, len(markets))
	intervals := make(map[string]*domain.IntervalInfo, len(markets))
	for _, m := range markets {
		if t, err := s.thresholds.Parse(m.ID, m.Question, m.Description, m.EndDate, false); err == nil && t != nil {
			thresholds[m.ID] = t
		}
		if iv, err := s.intervals.Parse(m.ID, m.Question, m.EndDate); err == nil && iv != nil {
			intervals[m.ID] = iv
		}
	}
	g.SetThresholds(thresholds)
	g.SetIntervals(intervals)

	if s.clusterer != nil {
		clusters, err := s.clusterer.Cluster(ctx, markets, s.cfg.ScanSimilarityThresh)
		if err != nil {
			s.logger.Warn("cluster-failed, continuing without clusters", zap.Error(err))
		} else {
			g.SetClusters(clusters)
		}
	}

	if s.analyzer != nil {
		g.SetAnalyzer(s.analyzer)
	}

	return g, nil
}

// RunScan executes one full scan: builds the graph, runs every runnable
// strategy through validation and pre-flight, and returns the resulting
// ScanReport.
func (s *Scanner) RunScan(ctx context.Context) (*domain.ScanReport, error) {
	g, err := s.BuildGraph(ctx)
	if err != nil {
		return nil, err
	}

	scanID := uuid.NewString()
	report, err := s.orchestrator.Run(ctx, g, scanID)
	if err != nil {
		return nil, fmt.Errorf("run scan: %w", err)
	}
	return report, nil
}
