package strategy

import (
	"github.com/mselser95/polymarket-arb/internal/domain"
)

// Registry holds every strategy the scan knows about and answers which
// of them can run given what inputs the Orchestrator has computed, per
// spec.md §4.5's "runs only strategies whose inputs are available" rule.
type Registry struct {
	strategies []Strategy
}

// NewRegistry builds the full six-strategy registry (spec.md §4.5.1–§4.5.6).
func NewRegistry(cfg Config) *Registry {
	return &Registry{
		strategies: []Strategy{
			NewMonotonicity(cfg),
			NewInterval(cfg),
			NewExhaustive(cfg),
			NewImplication(cfg),
			NewEquivalent(cfg),
			NewTemporal(cfg),
		},
	}
}

// All returns every registered strategy, enabled or not.
func (r *Registry) All() []Strategy { return r.strategies }

// Runnable returns the subset of registered, enabled strategies whose
// required inputs are all available on g.
func (r *Registry) Runnable(g *domain.MarketGraph, enabled map[string]bool) []Strategy {
	out := make([]Strategy, 0, len(r.strategies))
	for _, s := range r.strategies {
		if enabled != nil && !enabled[string(s.Name())] {
			continue
		}
		ready := true
		for _, in := range s.RequiredInputs() {
			if !g.InputAvailable(in) {
				ready = false
				break
			}
		}
		if ready {
			out = append(out, s)
		}
	}
	return out
}
