package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarket_UnmarshalJSON_StringEncodedArrays(t *testing.T) {
	raw := `{
		"id": "m1",
		"question": "Will BTC close above $100k?",
		"outcomes": "[\"Yes\", \"No\"]",
		"clobTokenIds": "[\"tok-yes\", \"tok-no\"]",
		"outcomePrices": "[\"0.42\", \"0.58\"]",
		"liquidity": "125000.5",
		"volume": "900000"
	}`

	var m Market
	require.NoError(t, json.Unmarshal([]byte(raw), &m))

	require.Len(t, m.Tokens, 2)
	assert.Equal(t, "tok-yes", m.Tokens[0].TokenID)
	assert.InDelta(t, 0.42, m.YesMid(), 1e-9)
	assert.InDelta(t, 0.58, m.NoMid(), 1e-9)
	assert.InDelta(t, 125000.5, m.LiquidityUSD, 1e-9)
	assert.InDelta(t, 900000, m.VolumeUSD, 1e-9)
}

func TestMarket_UnmarshalJSON_MalformedOutcomesDoesNotError(t *testing.T) {
	raw := `{"id": "m2", "outcomes": "not-json", "clobTokenIds": "[\"a\"]"}`
	var m Market
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	assert.Empty(t, m.Tokens)
}

func TestMarket_GetTokenByOutcome_CaseInsensitive(t *testing.T) {
	m := Market{Tokens: []Token{{TokenID: "t1", Outcome: "Yes"}, {TokenID: "t2", Outcome: "No"}}}
	assert.Equal(t, "t1", m.GetTokenByOutcome("YES").TokenID)
	assert.Equal(t, "t2", m.GetTokenByOutcome("NO").TokenID)
	assert.Nil(t, m.GetTokenByOutcome("MAYBE"))
}

func TestMarket_HasTag(t *testing.T) {
	m := Market{Tags: map[string]struct{}{"Crypto": {}}}
	assert.True(t, m.HasTag("Crypto"))
	assert.False(t, m.HasTag("Sports"))
}
