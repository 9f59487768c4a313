package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalParser_Parse_BracketNotation(t *testing.T) {
	p := NewIntervalParser()
	deadline := time.Now().Add(24 * time.Hour)

	cases := []struct {
		name           string
		question       string
		lowerInclusive bool
		upperInclusive bool
	}{
		{"closed", "Will Bitcoin close in [100000, 110000] by Friday?", true, true},
		{"open", "Will ETH settle in (3000, 3500) at resolution?", false, false},
		{"half-open lower", "Will SOL land in (200, 250] this week?", false, true},
		{"half-open upper", "Will XRP land in [1, 2) before expiry?", true, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			info, err := p.Parse("m1", tc.question, deadline)
			require.NoError(t, err)
			require.NotNil(t, info)
			assert.Equal(t, tc.lowerInclusive, info.LowerInclusive)
			assert.Equal(t, tc.upperInclusive, info.UpperInclusive)
			assert.True(t, info.Lower.LessThan(*info.Upper))
		})
	}
}

func TestIntervalParser_Parse_PhraseNotation(t *testing.T) {
	p := NewIntervalParser()
	deadline := time.Now().Add(24 * time.Hour)

	cases := []string{
		"Will Bitcoin close between 100000 and 110000 this week?",
		"Will ETH settle from 3000 to 3500 at resolution?",
		"Will SOL end up 200-250 by Friday?",
	}

	for _, q := range cases {
		info, err := p.Parse("m1", q, deadline)
		require.NoError(t, err, q)
		require.NotNil(t, info, q)
		assert.True(t, info.LowerInclusive)
		assert.True(t, info.UpperInclusive)
		assert.True(t, info.Lower.LessThan(*info.Upper))
	}
}

func TestIntervalParser_Parse_Ambiguous(t *testing.T) {
	p := NewIntervalParser()
	deadline := time.Now().Add(24 * time.Hour)

	ambiguous := []string{
		"",
		"Will Bitcoin do something?",
		"Will ETH be somewhere in a range?",
		"Will an unknown asset XYZ land between 1 and 2?",
	}

	for _, q := range ambiguous {
		_, err := p.Parse("m1", q, deadline)
		assert.ErrorIs(t, err, ErrAmbiguous, q)
	}
}

func TestIntervalParser_Parse_NoDeadlineIsAmbiguous(t *testing.T) {
	p := NewIntervalParser()
	_, err := p.Parse("m1", "Will Bitcoin close in [100000, 110000]?", time.Time{})
	assert.ErrorIs(t, err, ErrAmbiguous)
}

// TestIntervalInfo_Contains_AdjacentPartition verifies that two adjacent
// intervals sharing a boundary (one upper-inclusive, the next
// lower-exclusive at the same value) partition the boundary point to
// exactly one interval, never both or neither.
func TestIntervalInfo_Contains_AdjacentPartition(t *testing.T) {
	p := NewIntervalParser()
	deadline := time.Now().Add(24 * time.Hour)

	lo, err := p.Parse("m1", "Will Bitcoin land in [100000, 105000] by Friday?", deadline)
	require.NoError(t, err)
	hi, err := p.Parse("m2", "Will Bitcoin land in (105000, 110000] by Friday?", deadline)
	require.NoError(t, err)

	boundary := *lo.Upper
	assert.True(t, lo.Contains(boundary))
	assert.False(t, hi.Contains(boundary))
}
