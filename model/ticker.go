package model

import "strings"

// Ticker kinds.
const (
	TickerStock  = "stock"
	TickerCrypto = "crypto"
)

// NormalizeSymbol trims and uppercases a ticker symbol. Symbols are unique per
// user in their uppercase form.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// WatchlistEntry is what the backend stores: the symbol and an optional cached name.
// It carries no live price.
type WatchlistEntry struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name,omitempty"`
	Type   string `json:"type,omitempty"`
}

// WatchlistItem is the enriched projection the watchlist view renders.
type WatchlistItem struct {
	Ticker        string  `json:"ticker"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change"`
	Image         string  `json:"image,omitempty"`
}

// TickerDetail is the normalized market-data record for one symbol, stock or crypto.
type TickerDetail struct {
	Ticker string `json:"ticker"`
	Type   string `json:"type,omitempty"`
	Name   string `json:"name"`
	Image  string `json:"image,omitempty"`

	CurrentPrice          float64 `json:"currentPrice"`
	PriceChange24h        float64 `json:"priceChange24h"`
	PriceChangePercent24h float64 `json:"priceChangePercent24h"`

	MarketCap   float64 `json:"marketCap,omitempty"`
	TotalVolume float64 `json:"totalVolume,omitempty"`
	High24h     float64 `json:"high24h,omitempty"`
	Low24h      float64 `json:"low24h,omitempty"`

	LastUpdated string `json:"lastUpdated,omitempty"`
}

// BatchResult is one row of a batch lookup. Data is nil when the provider had
// nothing for the symbol.
type BatchResult struct {
	Ticker string        `json:"ticker"`
	Data   *TickerDetail `json:"data"`
}
