package domain

import (
	"github.com/shopspring/decimal"

	"github.com/mselser95/polymarket-arb/pkg/types"
)

// InputKind is one of the per-scan inputs a strategy can require.
type InputKind string

const (
	InputThresholds InputKind = "THRESHOLDS"
	InputIntervals  InputKind = "INTERVALS"
	InputClusters   InputKind = "CLUSTERS"
	InputLLM        InputKind = "LLM"
	InputOrderBook  InputKind = "ORDER_BOOK"
)

// Cluster is a set of market identifiers the Semantic Clusterer judged
// cosine-similar to each other.
type Cluster struct {
	ID        int
	MarketIDs []string
}

// Analyzer is the read-only, memoized view of the LLM Analyzer a strategy
// consults. MarketGraph.Analyzer returns this so strategies never hold a
// direct reference to the network client.
type Analyzer interface {
	Analyze(marketAIDs, marketBID string) (*RelationshipAnalysis, error)
	VerifyExhaustiveSet(marketIDs []string) (isComplete bool, confidence float64, missingCases []string, err error)
}

// MarketGraph is the read-only view strategies scan over. It is built once
// per scan by the Orchestrator and shared by every strategy; strategies
// MUST NOT call the Market Source directly (spec.md §4.5).
type MarketGraph struct {
	markets    map[string]*types.Market
	order      []string // stable iteration order, catalog arrival order
	thresholds map[string]*ThresholdInfo
	intervals  map[string]*IntervalInfo
	clusters   []Cluster
	byMarketID map[string]int // marketID -> cluster index
	analyzer   Analyzer

	thresholdsSet bool
	intervalsSet  bool
	clustersSet   bool
}

// NewMarketGraph builds a graph over a market snapshot. Thresholds,
// intervals, clusters, and analyzer may be nil when a strategy that needs
// them hasn't been scheduled to run (input not yet computed or disabled).
func NewMarketGraph(markets []*types.Market) *MarketGraph {
	g := &MarketGraph{
		markets:    make(map[string]*types.Market, len(markets)),
		order:      make([]string, 0, len(markets)),
		thresholds: map[string]*ThresholdInfo{},
		intervals:  map[string]*IntervalInfo{},
		byMarketID: map[string]int{},
	}
	for _, m := range markets {
		g.markets[m.ID] = m
		g.order = append(g.order, m.ID)
	}
	return g
}

func (g *MarketGraph) Markets() []*types.Market {
	out := make([]*types.Market, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.markets[id])
	}
	return out
}

func (g *MarketGraph) Market(id string) (*types.Market, bool) {
	m, ok := g.markets[id]
	return m, ok
}

// MarketsByEvent groups every market in the snapshot by EventID, in
// catalog arrival order within each group. Strategies that reason over a
// single event (EXHAUSTIVE) use this instead of scanning the whole
// snapshot themselves.
func (g *MarketGraph) MarketsByEvent() map[string][]*types.Market {
	out := map[string][]*types.Market{}
	for _, id := range g.order {
		m := g.markets[id]
		if m.EventID == "" {
			continue
		}
		out[m.EventID] = append(out[m.EventID], m)
	}
	return out
}

func (g *MarketGraph) SetThresholds(infos map[string]*ThresholdInfo) {
	g.thresholds = infos
	g.thresholdsSet = true
}
func (g *MarketGraph) Threshold(marketID string) (*ThresholdInfo, bool) {
	t, ok := g.thresholds[marketID]
	return t, ok
}
func (g *MarketGraph) Thresholds() map[string]*ThresholdInfo { return g.thresholds }

func (g *MarketGraph) SetIntervals(infos map[string]*IntervalInfo) {
	g.intervals = infos
	g.intervalsSet = true
}
func (g *MarketGraph) Interval(marketID string) (*IntervalInfo, bool) {
	i, ok := g.intervals[marketID]
	return i, ok
}
func (g *MarketGraph) Intervals() map[string]*IntervalInfo { return g.intervals }

func (g *MarketGraph) SetClusters(clusters []Cluster) {
	g.clustersSet = true
	g.clusters = clusters
	g.byMarketID = make(map[string]int, len(clusters)*2)
	for idx, c := range clusters {
		for _, id := range c.MarketIDs {
			g.byMarketID[id] = idx
		}
	}
}
func (g *MarketGraph) Clusters() []Cluster { return g.clusters }
func (g *MarketGraph) ClusterOf(marketID string) (Cluster, bool) {
	idx, ok := g.byMarketID[marketID]
	if !ok {
		return Cluster{}, false
	}
	return g.clusters[idx], true
}

func (g *MarketGraph) SetAnalyzer(a Analyzer) { g.analyzer = a }
func (g *MarketGraph) AnalyzerAvailable() bool { return g.analyzer != nil }
func (g *MarketGraph) Analyzer() Analyzer      { return g.analyzer }

// InputAvailable reports whether the orchestrator has computed the given
// input for this scan. A strategy whose required inputs aren't all
// available is skipped entirely (spec.md §4.5).
func (g *MarketGraph) InputAvailable(kind InputKind) bool {
	switch kind {
	case InputThresholds:
		return g.thresholdsSet
	case InputIntervals:
		return g.intervalsSet
	case InputClusters:
		return g.clustersSet
	case InputLLM:
		return g.analyzer != nil
	case InputOrderBook:
		return true // order books live on the Market/Token snapshot itself
	default:
		return false
	}
}

// EffectiveBuyPrice returns the price actually paid to buy one unit of the
// given side: best ask if the order book is present, else mid. Every
// executable computation in this codebase must go through this function,
// never through a mid price directly (spec.md §3, §8).
func EffectiveBuyPrice(tok *types.Token) decimal.Decimal {
	if tok.BestAsk > 0 {
		return decimal.NewFromFloat(tok.BestAsk)
	}
	return decimal.NewFromFloat(tok.Mid)
}
