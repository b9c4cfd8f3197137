// Package candle defines the immutable OHLCV record shared across the
// gateway's cache, indicator, and regime layers.
package candle

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Candle is one OHLCV bar for a symbol at a given open-time.
//
// Candles are immutable once constructed: every layer that touches one
// (SegmentCache, IndicatorEngine, RegimeDetector) only ever reads it.
type Candle struct {
	Symbol    string          `json:"symbol"`
	Timestamp int64           `json:"timestamp"` // epoch ms, open-time
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
}

// Validate checks the OHLC invariant: low <= min(open,close) <=
// max(open,close) <= high, and that volume/prices are non-negative.
func (c Candle) Validate() error {
	if c.Open.IsNegative() || c.High.IsNegative() || c.Low.IsNegative() ||
		c.Close.IsNegative() || c.Volume.IsNegative() {
		return fmt.Errorf("candle %d: negative field", c.Timestamp)
	}
	lowerBody := decimal.Min(c.Open, c.Close)
	upperBody := decimal.Max(c.Open, c.Close)
	if c.Low.GreaterThan(lowerBody) {
		return fmt.Errorf("candle %d: low %s above body low %s", c.Timestamp, c.Low, lowerBody)
	}
	if upperBody.GreaterThan(c.High) {
		return fmt.Errorf("candle %d: body high %s above high %s", c.Timestamp, upperBody, c.High)
	}
	if c.Low.GreaterThan(c.High) {
		return fmt.Errorf("candle %d: low %s above high %s", c.Timestamp, c.Low, c.High)
	}
	return nil
}

// OpenF, HighF, LowF, CloseF, VolumeF return float64 projections for
// indicator math, which runs in float64 for speed over long series.
func (c Candle) OpenF() float64   { f, _ := c.Open.Float64(); return f }
func (c Candle) HighF() float64   { f, _ := c.High.Float64(); return f }
func (c Candle) LowF() float64    { f, _ := c.Low.Float64(); return f }
func (c Candle) CloseF() float64  { f, _ := c.Close.Float64(); return f }
func (c Candle) VolumeF() float64 { f, _ := c.Volume.Float64(); return f }

// SortByTimestamp sorts candles ascending by timestamp in place.
func SortByTimestamp(candles []Candle) {
	sortCandles(candles)
}
