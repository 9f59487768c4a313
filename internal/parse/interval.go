package parse

import (
	"regexp"
	"strings"
	"time"

	"github.com/mselser95/polymarket-arb/internal/domain"
)

// bracketInterval matches explicit interval notation: [a, b], (a, b), and
// the two half-open combinations.
var bracketInterval = regexp.MustCompile(`([\[(])\s*([^,\]\)]+)\s*,\s*([^,\]\)]+)\s*([\])])`)

// phraseInterval matches "between X and Y" / "from X to Y" / "X-Y".
var phraseInterval = regexp.MustCompile(`(?i)(?:between|from)\s+([0-9][0-9,.kmb$%]*)\s+(?:and|to)\s+([0-9][0-9,.kmb$%]*)|([0-9][0-9,.kmb$%]*)\s*-\s*([0-9][0-9,.kmb$%]*)`)

// IntervalParser deterministically extracts (lower, upper, inclusivity,
// unit) from a market question, per spec.md §4.2.
type IntervalParser struct{}

func NewIntervalParser() *IntervalParser { return &IntervalParser{} }

// Parse extracts an IntervalInfo from question. Inclusivity follows the
// question text literally when bracket notation is present; unstated
// bounds on integer steps are treated as inclusive, per spec.md §4.2.
func (p *IntervalParser) Parse(marketID, question string, deadline time.Time) (*domain.IntervalInfo, error) {
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

	if m := bracketInterval.FindStringSubmatch(q); m != nil {
		lower, lowerOK := parseLevelFromMatch(m[2])
		upper, upperOK := parseLevelFromMatch(m[3])
		if !lowerOK || !upperOK {
			return nil, ErrAmbiguous
		}
		return &domain.IntervalInfo{
			MarketID:       marketID,
			Asset:          asset,
			Lower:          &lower,
			Upper:          &upper,
			LowerInclusive: m[1] == "[",
			UpperInclusive: m[4] == "]",
			Deadline:       deadline,
		}, nil
	}

	if m := phraseInterval.FindStringSubmatch(q); m != nil {
		var lowerRaw, upperRaw string
		if m[1] != "" && m[2] != "" {
			lowerRaw, upperRaw = m[1], m[2]
		} else {
			lowerRaw, upperRaw = m[3], m[4]
		}
		lower, lowerOK := parseLevelFromMatch(lowerRaw)
		upper, upperOK := parseLevelFromMatch(upperRaw)
		if !lowerOK || !upperOK {
			return nil, ErrAmbiguous
		}
		if lower.GreaterThan(upper) {
			lower, upper = upper, lower
		}
		// Unstated inclusivity on a phrase (not explicit bracket
		// notation) defaults to inclusive on integer steps.
		return &domain.IntervalInfo{
			MarketID:       marketID,
			Asset:          asset,
			Lower:          &lower,
			Upper:          &upper,
			LowerInclusive: true,
			UpperInclusive: true,
			Deadline:       deadline,
		}, nil
	}

	return nil, ErrAmbiguous
}
