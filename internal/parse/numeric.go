package parse

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// numberWithSuffix matches a currency/percent-tolerant numeric literal
// with an optional k/K/M/B magnitude suffix, e.g. "$110k", "100,000",
// "2.5M", "60%". The suffix letter must end a word, so the first letter of
// a following word ("by", "before") is not read as a suffix.
var numberWithSuffix = regexp.MustCompile(`(?i)[$]?([0-9][0-9,]*\.?[0-9]*)(?:\s*([kmb])\b)?%?`)

var suffixMultiplier = map[string]int64{
	"k": 1_000,
	"m": 1_000_000,
	"b": 1_000_000_000,
}

// parseLevel extracts the first numeric literal (with optional
// k/K/M/B suffix) from text as a decimal.Decimal, along with the detected
// unit ("%" when a percent sign follows, "" otherwise).
func parseLevel(text string) (decimal.Decimal, string, bool) {
	m := numberWithSuffix.FindStringSubmatch(text)
	if m == nil {
		return decimal.Zero, "", false
	}
	digits := strings.ReplaceAll(m[1], ",", "")
	if digits == "" {
		return decimal.Zero, "", false
	}
	base, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero, "", false
	}
	if suffix := strings.ToLower(m[2]); suffix != "" {
		if mult, ok := suffixMultiplier[suffix]; ok {
			base = base.Mul(decimal.NewFromInt(mult))
		}
	}
	unit := ""
	if strings.Contains(text, "%") {
		unit = "%"
	}
	return base, unit, true
}

// extractAllNumbers extracts every numeric literal's raw string match in
// order of appearance.
func extractAllNumbers(text string) []string {
	matches := numberWithSuffix.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if strings.TrimSpace(m) != "" {
			out = append(out, m)
		}
	}
	return out
}

func parseLevelFromMatch(raw string) (decimal.Decimal, bool) {
	d, _, ok := parseLevel(raw)
	return d, ok
}
