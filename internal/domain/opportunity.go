// Package domain holds the core entities shared across every stage of the
// scan pipeline: markets, parsed threshold/interval structures, relation
// analysis, and the opportunity that validation accepts or rejects.
//
// Derived structures hold market identifiers only, never pointers into the
// Market slice, so strategies can read them concurrently without locking
// (spec.md §9's "cyclic references → identifier-indexed tables" guidance).
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is which outcome token a leg buys.
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// StrategyName is the closed set of strategies the engine runs.
type StrategyName string

const (
	StrategyMonotonicity StrategyName = "MONOTONICITY"
	StrategyInterval     StrategyName = "INTERVAL"
	StrategyExhaustive   StrategyName = "EXHAUSTIVE"
	StrategyImplication  StrategyName = "IMPLICATION"
	StrategyEquivalent   StrategyName = "EQUIVALENT"
	StrategyTemporal     StrategyName = "TEMPORAL"
)

// Status is an Opportunity's lifecycle state (spec.md §3).
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusValidating Status = "VALIDATING"
	StatusAccepted   Status = "ACCEPTED"
	StatusRejected   Status = "REJECTED"
	StatusStale      Status = "STALE"
)

// APYRating buckets an opportunity's annualized return.
type APYRating string

const (
	APYExcellent  APYRating = "EXCELLENT"
	APYGood       APYRating = "GOOD"
	APYAcceptable APYRating = "ACCEPTABLE"
	APYReject     APYRating = "REJECT"
)

// OracleAlignment classifies how compatible two legs' resolution sources are.
type OracleAlignment string

const (
	OracleAligned     OracleAlignment = "ALIGNED"
	OracleCompatible  OracleAlignment = "COMPATIBLE"
	OracleMisaligned  OracleAlignment = "MISALIGNED"
	OracleUnknown     OracleAlignment = "UNKNOWN"
)

// Leg is one unit of one outcome token the plan buys.
type Leg struct {
	MarketID string
	TokenID  string
	Side     Side
	BuyPrice decimal.Decimal // effective_buy_price — never mid
}

// TrailEntry records one validation layer's decision for an opportunity,
// whether it passed or rejected.
type TrailEntry struct {
	Layer    string
	Decision string // "PASS" or "REJECT"
	Reason   string
}

// Checklist is the deterministic human-review summary Layer 5 attaches to
// every surviving candidate (spec.md §4.6 Layer 5). Unlike the validation
// trail, it never causes a rejection — it is read-only context for whoever
// reviews the ScanReport.
type Checklist struct {
	Logic     string
	Rules     string
	Oracle    string
	Time      string
	Liquidity string
	APY       string
}

// Opportunity is the subject the Validation Engine accepts or rejects.
type Opportunity struct {
	ID       string
	Strategy StrategyName
	Legs     []Leg

	Cost               decimal.Decimal
	GuaranteedReturn   decimal.Decimal
	MidProfit          decimal.Decimal
	EffectiveProfit    decimal.Decimal
	ProfitPct          decimal.Decimal
	MinLegLiquidityUSD decimal.Decimal
	DaysToResolution   float64

	APY             decimal.Decimal
	APYRating       APYRating
	OracleAlignment OracleAlignment
	SlippageCost    decimal.Decimal

	ValidationTrail      []TrailEntry
	RelationshipAnalysis *RelationshipAnalysis
	Checklist            Checklist

	DiscoveredAt   time.Time
	PlanSnapshotAt time.Time

	Status         Status
	RejectedLayer  string
	RejectedReason string
}

// CanonicalKey is the deduplication key per spec.md §4.7: strategy plus
// the sorted (market_id, side) leg tuples.
func (o *Opportunity) CanonicalKey() string {
	legs := make([]string, len(o.Legs))
	for i, l := range o.Legs {
		legs[i] = l.MarketID + ":" + string(l.Side)
	}
	// Insertion sort is fine here: legs are always a handful of entries.
	for i := 1; i < len(legs); i++ {
		for j := i; j > 0 && legs[j-1] > legs[j]; j-- {
			legs[j-1], legs[j] = legs[j], legs[j-1]
		}
	}
	key := string(o.Strategy)
	for _, l := range legs {
		key += "|" + l
	}
	return key
}

// AppendTrail records a layer's decision without mutating a shared slice
// header across callers that hold the same Opportunity pointer.
func (o *Opportunity) AppendTrail(layer, decision, reason string) {
	o.ValidationTrail = append(o.ValidationTrail, TrailEntry{Layer: layer, Decision: decision, Reason: reason})
}

// Reject marks the opportunity rejected at the given layer and records the
// trail entry in one call.
func (o *Opportunity) Reject(layer, reason string) {
	o.Status = StatusRejected
	o.RejectedLayer = layer
	o.RejectedReason = reason
	o.AppendTrail(layer, "REJECT", reason)
}
