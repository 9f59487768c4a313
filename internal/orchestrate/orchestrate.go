// Package orchestrate implements the Orchestrator of spec.md §4.7: it
// runs the Strategy Engine's runnable strategies concurrently, feeds
// candidates into the Validation Engine through a bounded channel,
// deduplicates by canonical key, and emits a ScanReport.
package orchestrate

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/internal/domain"
	"github.com/mselser95/polymarket-arb/internal/preflight"
	"github.com/mselser95/polymarket-arb/internal/strategy"
	"github.com/mselser95/polymarket-arb/internal/validate"
)

// Validator is the subset of internal/validate.Engine the Orchestrator
// drives; a narrow interface keeps this package decoupled from validate's
// concrete Config.
type Validator interface {
	Run(ctx context.Context, g *domain.MarketGraph, opp *domain.Opportunity) bool
}

// Auditor is the subset of internal/preflight.Auditor the Orchestrator
// drives immediately before accepting an opportunity.
type Auditor interface {
	Audit(ctx context.Context, g *domain.MarketGraph, opp *domain.Opportunity) bool
}

var (
	_ Validator = (*validate.Engine)(nil)
	_ Auditor   = (*preflight.Auditor)(nil)
)

// callCounter is implemented by internal/analyzer.Analyzer; type-asserted
// so llm_calls_used can be reported without widening domain.Analyzer.
type callCounter interface {
	CallCount() int
}

// budgetReporter is implemented by internal/analyzer.Analyzer; type-asserted
// so a scan.max_llm_calls exhaustion surfaces as a warning (spec.md §7
// ANALYZER_BUDGET_EXHAUSTED) without widening domain.Analyzer.
type budgetReporter interface {
	BudgetExhaustedCount() int
}

// Config carries the Orchestrator's bounded-pool sizes and queue depth
// (spec.md §5's "parallel worker pools over I/O-bound tasks").
type Config struct {
	StrategyWorkers int // concurrent strategy Scan() calls
	ValidateWorkers int // concurrent Validate+Audit workers
	QueueDepth      int // candidate channel buffer, applies backpressure when full
}

func DefaultConfig() Config {
	return Config{StrategyWorkers: 4, ValidateWorkers: 8, QueueDepth: 64}
}

// Orchestrator drives one scan end to end.
type Orchestrator struct {
	registry  *strategy.Registry
	validator Validator
	auditor   Auditor
	enabled   map[string]bool
	cfg       Config
	logger    *zap.Logger
}

func New(registry *strategy.Registry, validator Validator, auditor Auditor, enabled map[string]bool, cfg Config, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{registry: registry, validator: validator, auditor: auditor, enabled: enabled, cfg: cfg, logger: logger}
}

// result is an internal pairing of a validated candidate with whether it
// ultimately survived Layer 6.
type result struct {
	opp      *domain.Opportunity
	accepted bool
}

// Run executes one scan against g and returns the ScanReport. It blocks
// until every runnable strategy has finished producing and every
// candidate it produced has been validated (or the context is canceled,
// in which case accepted opportunities discovered before cancellation are
// still returned, per spec.md §5's cancellation contract).
func (o *Orchestrator) Run(ctx context.Context, g *domain.MarketGraph, scanID string) (*domain.ScanReport, error) {
	started := time.Now().UTC()

	runnable := o.registry.Runnable(g, o.enabled)
	strategiesRun := make([]string, 0, len(runnable))
	for _, s := range runnable {
		strategiesRun = append(strategiesRun, string(s.Name()))
	}

	candidateCh := make(chan *domain.Opportunity, o.cfg.QueueDepth)
	resultCh := make(chan result, o.cfg.QueueDepth)

	var produceErr error
	var produceWG sync.WaitGroup
	produceWG.Add(1)
	go func() {
		defer produceWG.Done()
		defer close(candidateCh)
		produceErr = o.produce(ctx, runnable, g, candidateCh)
	}()

	var consumeWG sync.WaitGroup
	consumeWG.Add(1)
	go func() {
		defer consumeWG.Done()
		o.consume(ctx, g, candidateCh, resultCh)
	}()

	go func() {
		consumeWG.Wait()
		close(resultCh)
	}()

	report := &domain.ScanReport{
		ScanID:            scanID,
		StartedAt:         started,
		StrategiesRun:     strategiesRun,
		MarketsConsidered: len(g.Markets()),
		RejectionsSummary: map[string]int{},
	}

	seen := map[string]bool{}
	for r := range resultCh {
		key := r.opp.CanonicalKey()
		if seen[key] {
			report.RejectionsSummary["duplicate"]++
			continue
		}
		seen[key] = true
		if r.accepted {
			report.Opportunities = append(report.Opportunities, r.opp)
		} else {
			layer := r.opp.RejectedLayer
			if layer == "" {
				layer = "unknown"
			}
			report.RejectionsSummary[layer]++
		}
	}
	produceWG.Wait()

	sort.Slice(report.Opportunities, func(i, j int) bool {
		return report.Opportunities[i].DiscoveredAt.Before(report.Opportunities[j].DiscoveredAt)
	})

	if g.AnalyzerAvailable() {
		if cc, ok := g.Analyzer().(callCounter); ok {
			report.LLMCallsUsed = cc.CallCount()
		}
		if br, ok := g.Analyzer().(budgetReporter); ok && br.BudgetExhaustedCount() > 0 {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("ANALYZER_BUDGET_EXHAUSTED: %d pair(s) skipped after scan.max_llm_calls reached", br.BudgetExhaustedCount()))
		}
	}

	if produceErr != nil {
		report.Warnings = append(report.Warnings, "scan ended early: "+produceErr.Error())
	}
	if ctx.Err() != nil {
		report.Warnings = append(report.Warnings, "scan canceled: "+ctx.Err().Error())
	}

	report.FinishedAt = time.Now().UTC()
	o.logger.Info("orchestrate: scan complete",
		zap.String("scan_id", scanID),
		zap.Int("accepted", len(report.Opportunities)),
		zap.Int("strategies_run", len(strategiesRun)),
	)
	return report, nil
}

// produce runs every runnable strategy's Scan concurrently (bounded by
// StrategyWorkers) and pushes each candidate onto candidateCh, blocking
// when the channel is full so backpressure reaches the producers.
func (o *Orchestrator) produce(ctx context.Context, runnable []strategy.Strategy, g *domain.MarketGraph, candidateCh chan<- *domain.Opportunity) error {
	gr, gctx := errgroup.WithContext(ctx)
	gr.SetLimit(o.cfg.StrategyWorkers)

	for _, s := range runnable {
		s := s
		gr.Go(func() error {
			opps := s.Scan(g)
			for _, opp := range opps {
				select {
				case candidateCh <- opp:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	return gr.Wait()
}

// consume drains candidateCh with a bounded worker pool, running each
// candidate through Layers 1-5 and, for survivors, Layer 6, and reports
// every outcome (accepted or not) on resultCh.
func (o *Orchestrator) consume(ctx context.Context, g *domain.MarketGraph, candidateCh <-chan *domain.Opportunity, resultCh chan<- result) {
	var wg sync.WaitGroup
	for i := 0; i < o.cfg.ValidateWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for opp := range candidateCh {
				accepted := o.validator.Run(ctx, g, opp)
				if accepted {
					accepted = o.auditor.Audit(ctx, g, opp)
					if accepted {
						opp.Status = domain.StatusAccepted
					}
				}
				select {
				case resultCh <- result{opp: opp, accepted: accepted}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	wg.Wait()
}
