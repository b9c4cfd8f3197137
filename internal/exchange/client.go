// Package exchange adapts an upstream REST market-data API (Binance's
// public spot API by default) into the gateway's Candle/PairInfo model.
package exchange

import (
	"context"

	"github.com/atlas-desktop/midasgw/pkg/candle"
	"github.com/atlas-desktop/midasgw/pkg/timeframe"
)

// PairInfo describes a tradable pair as returned by ListPairs.
type PairInfo struct {
	Symbol      string `json:"symbol"`
	BaseAsset   string `json:"base_asset"`
	QuoteAsset  string `json:"quote_asset"`
	Status      string `json:"status"`
	Permissions []string `json:"permissions"`
}

// PairFilter narrows the result of ListPairs.
type PairFilter struct {
	QuoteAsset  string
	BaseAsset   string
	Status      string
	Permissions []string
}

// Client is the upstream exchange adapter every MarketDataProvider is
// built on.
type Client interface {
	// FetchCandles returns up to count candles ending at to (or now),
	// optionally starting no earlier than from. count is clamped to the
	// client's configured max limit. Returned candles are sorted
	// ascending by timestamp and individually OHLC-valid.
	FetchCandles(ctx context.Context, symbol string, tf timeframe.Timeframe, count int, from, to *int64) ([]candle.Candle, error)

	// GetPrice returns the current last-trade price for symbol.
	GetPrice(ctx context.Context, symbol string) (float64, error)

	// ListPairs returns the exchange's tradable pairs, filtered.
	ListPairs(ctx context.Context, filter PairFilter) ([]PairInfo, error)

	// MaxLimit returns the largest count FetchCandles will request in a
	// single upstream call.
	MaxLimit() int
}
