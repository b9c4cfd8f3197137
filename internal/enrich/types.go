// Package enrich derives human-oriented statistical context (moving
// average posture, momentum, volatility, volume, price action, and
// chart patterns) from an already-computed indicator series. Every
// sub-enricher tolerates a missing upstream series: a nil input
// degrades the affected field to nil, it never panics or errors.
package enrich

import "github.com/atlas-desktop/midasgw/pkg/candle"

// HTFState is the nearest-higher-timeframe snapshot an enricher
// compares its own timeframe's readings against, per the MTF
// orchestrator's state-propagation rule.
type HTFState struct {
	Timeframe string
	RSI       *float64
	MACDHist  *float64
	ATR       *float64
	TFMillis  int64
}

// Context is the full enriched view for one (symbol, timeframe).
type Context struct {
	MovingAverages *MovingAverages `json:"moving_averages,omitempty"`
	Momentum       *Momentum       `json:"momentum,omitempty"`
	Volatility     *Volatility     `json:"volatility,omitempty"`
	Volume         *Volume         `json:"volume,omitempty"`
	PriceAction    *PriceAction    `json:"price_action,omitempty"`
	Patterns       *Patterns       `json:"patterns,omitempty"`
}

// Inputs bundles what every sub-enricher needs: the raw candles (for
// price action / pattern geometry), a flattened map of aliased
// indicator output series (e.g. "ema_12", "atr_short"), and the
// nearest HTF snapshot (nil if this is the top timeframe processed).
type Inputs struct {
	Candles  []candle.Candle
	Series   map[string][]*float64
	HTF      *HTFState
	TFMillis int64
}

func series(in Inputs, key string) []*float64 {
	return in.Series[key]
}

// tailAt returns the value n-from-the-end (0 = last) of a series,
// false if the series is shorter than that or the value is nil.
func tailAt(vals []*float64, n int) (float64, bool) {
	idx := len(vals) - 1 - n
	if idx < 0 || idx >= len(vals) || vals[idx] == nil {
		return 0, false
	}
	return *vals[idx], true
}

func last(vals []*float64) (float64, bool) { return tailAt(vals, 0) }

// window returns the trailing non-nil values of a series, most recent
// last, up to n entries (fewer if the series is shorter or a nil is
// hit while walking backward).
func window(vals []*float64, n int) []float64 {
	out := make([]float64, 0, n)
	for i := len(vals) - 1; i >= 0 && len(out) < n; i-- {
		if vals[i] == nil {
			break
		}
		out = append([]float64{*vals[i]}, out...)
	}
	return out
}

func percentileRank(values []float64, current float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	below := 0
	for _, v := range values {
		if v <= current {
			below++
		}
	}
	return float64(below) / float64(len(values)), true
}

func ptr(v float64) *float64 { return &v }

func closesF(candles []candle.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.CloseF()
	}
	return out
}
