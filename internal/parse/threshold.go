package parse

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/mselser95/polymarket-arb/internal/domain"
)

// ErrAmbiguous is returned when a question cannot be confidently parsed.
// Callers must not treat it as an arbitrage candidate (spec.md §4.2).
var ErrAmbiguous = errors.New("parse: ambiguous question")

var aboveWords = regexp.MustCompile(`(?i)\b(above|over|hit|reach|reaches|breaks?|exceeds?|≥|>)\b|>=`)
var belowWords = regexp.MustCompile(`(?i)\b(below|under|dip|dips|falls?|≤|<)\b|<=`)
var dipWords = regexp.MustCompile(`(?i)\bdips?\s+(to|below)\b`)

// ThresholdParser deterministically extracts (asset, direction, level,
// unit, deadline) from a market question, grounded on the pack's
// compiled-regex-rule-with-confidence pattern
// (easyweb3tools-easy-paas/.../internal/labeler/labeler.go), generalized
// from label matching to field extraction.
type ThresholdParser struct{}

func NewThresholdParser() *ThresholdParser { return &ThresholdParser{} }

// Parse extracts a ThresholdInfo from question (optionally consulting
// eventDescription for deadline context). It never panics; ambiguous
// input returns (nil, ErrAmbiguous).
func (p *ThresholdParser) Parse(marketID, question, eventDescription string, deadline time.Time, spotAboveLevel bool) (*domain.ThresholdInfo, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return nil, ErrAmbiguous
	}

	asset, assetOK := normalizeAsset(q)
	if !assetOK {
		return nil, ErrAmbiguous
	}

	if deadline.IsZero() {
		return nil, ErrAmbiguous
	}

	aboveMatch := aboveWords.MatchString(q)
	belowMatch := belowWords.MatchString(q)
	if aboveMatch == belowMatch {
		// Neither or both matched: genuinely ambiguous, don't guess.
		return nil, ErrAmbiguous
	}

	level, unit, ok := parseLevel(q)
	if !ok {
		return nil, ErrAmbiguous
	}

	direction := domain.DirectionBelow
	if aboveMatch {
		direction = domain.DirectionAbove
	}

	info := &domain.ThresholdInfo{
		MarketID:  marketID,
		Asset:     asset,
		Direction: direction,
		Level:     level,
		Unit:      unit,
		Deadline:  deadline,
	}

	// "dip to $X" when spot > X is a touch question, not a terminal-price
	// question; flag for human review rather than assume equivalence
	// (spec.md §4.2, §9 open question).
	if dipWords.MatchString(q) && spotAboveLevel {
		info.FlaggedForReview = true
	}

	return info, nil
}
