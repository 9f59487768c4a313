package domain

import "time"

// ScanReport is the core output of one scan (spec.md §6.4): a single
// JSON-serializable record the caller persists or prints, carrying only
// ACCEPTED opportunities plus enough bookkeeping to audit the run.
type ScanReport struct {
	ScanID    string
	StartedAt time.Time
	FinishedAt time.Time

	StrategiesRun      []string
	MarketsConsidered  int
	LLMCallsUsed       int
	Opportunities      []*Opportunity // ACCEPTED only
	RejectionsSummary  map[string]int // layer -> count
	Warnings           []string
}
