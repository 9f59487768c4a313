package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the inequality direction a ThresholdInfo asserts.
type Direction string

const (
	DirectionAbove Direction = "ABOVE"
	DirectionBelow Direction = "BELOW"
)

// ThresholdInfo is what the Threshold Parser extracts from a market
// question: "(asset, direction, level, unit, deadline)" per spec.md §3.
type ThresholdInfo struct {
	MarketID string
	Asset    string
	Direction Direction
	Level     decimal.Decimal
	Unit      string
	Deadline  time.Time

	// FlaggedForReview marks a touch/"dip to" phrasing the parser could
	// extract but whose semantics differ from a terminal-price question
	// (spec.md §4.2, §9).
	FlaggedForReview bool
}

// IntervalInfo is what the Interval Parser extracts: "(lower, upper,
// inclusivity, unit)" per spec.md §3. Lower/Upper are nil to represent
// -∞/+∞.
type IntervalInfo struct {
	MarketID string
	Asset    string

	Lower *decimal.Decimal
	Upper *decimal.Decimal

	LowerInclusive bool
	UpperInclusive bool

	Deadline time.Time
}

// Contains reports whether v falls within the interval given its
// inclusivity flags.
func (i *IntervalInfo) Contains(v decimal.Decimal) bool {
	if i.Lower != nil {
		if i.LowerInclusive {
			if v.LessThan(*i.Lower) {
				return false
			}
		} else if !v.GreaterThan(*i.Lower) {
			return false
		}
	}
	if i.Upper != nil {
		if i.UpperInclusive {
			if v.GreaterThan(*i.Upper) {
				return false
			}
		} else if !v.LessThan(*i.Upper) {
			return false
		}
	}
	return true
}
