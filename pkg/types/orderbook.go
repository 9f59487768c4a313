package types

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"
)

// OrderbookMessage is a single WebSocket feed message from the venue.
type OrderbookMessage struct {
	EventType string       `json:"event_type"` // "book", "price_change", "last_trade_price"
	AssetID   string       `json:"asset_id"`
	Market    string       `json:"market"`
	Timestamp int64        `json:"-"` // parsed from a string field below
	Hash      string       `json:"hash,omitempty"`
	Bids      []PriceLevel `json:"bids,omitempty"`
	Asks      []PriceLevel `json:"asks,omitempty"`
}

// UnmarshalJSON tolerates the venue's string-encoded timestamp field.
func (o *OrderbookMessage) UnmarshalJSON(data []byte) error {
	type Alias OrderbookMessage
	aux := &struct {
		TimestampStr string `json:"timestamp"`
		*Alias
	}{Alias: (*Alias)(o)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.TimestampStr != "" {
		ts, err := strconv.ParseInt(aux.TimestampStr, 10, 64)
		if err != nil {
			return err
		}
		o.Timestamp = ts
	}
	return nil
}

// PriceLevel is a single (price, size) pair as the venue sends it: both
// numbers are JSON strings.
type PriceLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// ParsedLevel is a PriceLevel decoded into floats, ready for VWAP walking.
type ParsedLevel struct {
	Price float64
	Size  float64
}

// ParseLevels converts the string levels into ParsedLevel, skipping any entry
// that fails to parse (malformed venue data, not fatal).
func ParseLevels(levels []PriceLevel) []ParsedLevel {
	out := make([]ParsedLevel, 0, len(levels))
	for _, l := range levels {
		p, errP := strconv.ParseFloat(l.Price, 64)
		s, errS := strconv.ParseFloat(l.Size, 64)
		if errP != nil || errS != nil {
			continue
		}
		out = append(out, ParsedLevel{Price: p, Size: s})
	}
	return out
}

// OrderbookSnapshot is the current best-of-book view for one token.
type OrderbookSnapshot struct {
	MarketID     string
	TokenID      string
	Outcome      string // "YES" or "NO"
	BestBidPrice float64
	BestBidSize  float64
	BestAskPrice float64
	BestAskSize  float64
	LastUpdated  time.Time
}

// OrderBook is the full sorted depth for one token: bids descending by
// price, asks ascending by price. It is the Market Source's
// fetch_order_book contract (spec.md §4.1).
type OrderBook struct {
	TokenID string
	Bids    []ParsedLevel
	Asks    []ParsedLevel
}

// EmptyOrderBook returns the zero-depth book the Market Source returns
// after retry exhaustion (a non-fatal outcome per spec.md §4.1).
func EmptyOrderBook(tokenID string) OrderBook {
	return OrderBook{TokenID: tokenID}
}

// Normalize sorts bids descending and asks ascending by price, the
// ordering fetch_order_book's contract requires.
func (b *OrderBook) Normalize() {
	sort.Slice(b.Bids, func(i, j int) bool { return b.Bids[i].Price > b.Bids[j].Price })
	sort.Slice(b.Asks, func(i, j int) bool { return b.Asks[i].Price < b.Asks[j].Price })
}

// BestAsk returns the lowest ask price/size, or (0, 0, false) if the ask
// side is empty.
func (b *OrderBook) BestAsk() (price, size float64, ok bool) {
	if len(b.Asks) == 0 {
		return 0, 0, false
	}
	return b.Asks[0].Price, b.Asks[0].Size, true
}

// AskDepthUSD sums the notional (price * size) available on the ask side
// up to maxPrice (inclusive); pass a very large maxPrice to sum the whole
// side. Used by Validation Layer 3's liquidity check.
func (b *OrderBook) AskDepthUSD(maxPrice float64) float64 {
	var total float64
	for _, lvl := range b.Asks {
		if lvl.Price > maxPrice {
			break
		}
		total += lvl.Price * lvl.Size
	}
	return total
}

// VWAP walks the ask side consuming targetNotional dollars of depth and
// returns the volume-weighted average price paid. ok is false when the
// book doesn't have enough depth to fill targetNotional.
func (b *OrderBook) VWAP(targetNotional float64) (vwap float64, ok bool) {
	var spentNotional, unitsBought float64
	for _, lvl := range b.Asks {
		levelNotional := lvl.Price * lvl.Size
		remaining := targetNotional - spentNotional
		if remaining <= 0 {
			break
		}
		if levelNotional >= remaining {
			units := remaining / lvl.Price
			unitsBought += units
			spentNotional += remaining
			break
		}
		unitsBought += lvl.Size
		spentNotional += levelNotional
	}
	if spentNotional < targetNotional || unitsBought == 0 {
		return 0, false
	}
	return spentNotional / unitsBought, true
}
