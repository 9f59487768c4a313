package parse

import "strings"

// assetAliases maps a lowercase alias to its canonical asset symbol. At
// least 14 crypto assets plus a generic equities/commodities fallback, per
// spec.md §4.2.
var assetAliases = map[string]string{
	"bitcoin": "BTC", "btc": "BTC",
	"ethereum": "ETH", "eth": "ETH", "ether": "ETH",
	"solana": "SOL", "sol": "SOL",
	"xrp": "XRP", "ripple": "XRP",
	"dogecoin": "DOGE", "doge": "DOGE",
	"cardano": "ADA", "ada": "ADA",
	"avalanche": "AVAX", "avax": "AVAX",
	"chainlink": "LINK", "link": "LINK",
	"polygon": "MATIC", "matic": "MATIC", "pol": "MATIC",
	"polkadot": "DOT", "dot": "DOT",
	"litecoin": "LTC", "ltc": "LTC",
	"bitcoin cash": "BCH", "bch": "BCH",
	"cosmos": "ATOM", "atom": "ATOM",
	"sui": "SUI",
}

// normalizeAsset resolves free text to a canonical asset symbol. When
// several aliases occur, the one that appears earliest in the text wins,
// and at the same position the longer alias wins, so the result does not
// depend on map iteration order. It returns ("", false) when no known
// asset is found, in which case callers fall back to a generic
// equities/commodities bucket identified by the raw matched token instead
// of failing outright.
func normalizeAsset(text string) (string, bool) {
	lower := strings.ToLower(text)
	best, bestPos, bestLen := "", -1, 0
	for alias, canonical := range assetAliases {
		pos := strings.Index(lower, alias)
		if pos < 0 {
			continue
		}
		if bestPos < 0 || pos < bestPos || (pos == bestPos && len(alias) > bestLen) {
			best, bestPos, bestLen = canonical, pos, len(alias)
		}
	}
	return best, bestPos >= 0
}
