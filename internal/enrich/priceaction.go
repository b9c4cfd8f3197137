package enrich

import (
	"math"

	"github.com/atlas-desktop/midasgw/pkg/candle"
)

// PriceAction is the Price Action sub-enrichment.
type PriceAction struct {
	BarType       *string      `json:"bar_type"`
	BodyToRange   *float64     `json:"body_to_range"`
	Wick          *WickView    `json:"wick"`
	SwingCounts   SwingCounts  `json:"swing_counts"`
	SwingPoints   []SwingPoint `json:"swing_points"`
	Range         RangeSummary `json:"range"`
	BreakoutLevel *float64     `json:"breakout_level"`
	RecentPatterns []string    `json:"recent_patterns"`
}

type WickView struct {
	UpperRatio     float64 `json:"upper_ratio"`
	LowerRatio     float64 `json:"lower_ratio"`
	Interpretation string  `json:"interpretation"`
}

type SwingCounts struct {
	HH int `json:"hh"`
	HL int `json:"hl"`
	LH int `json:"lh"`
	LL int `json:"ll"`
}

type SwingPoint struct {
	Index     int     `json:"index"`
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
	Kind      string  `json:"kind"` // high | low
}

type RangeSummary struct {
	High float64 `json:"high"`
	Low  float64 `json:"low"`
	Mid  float64 `json:"mid"`
}

func PriceActionEnrich(in Inputs) *PriceAction {
	if len(in.Candles) == 0 {
		return nil
	}
	latest := in.Candles[len(in.Candles)-1]
	pa := &PriceAction{}

	barType := classifyBar(latest)
	pa.BarType = &barType

	rng := latest.HighF() - latest.LowF()
	if rng > 0 {
		body := math.Abs(latest.CloseF() - latest.OpenF())
		pa.BodyToRange = ptr(body / rng)
		pa.Wick = wickView(latest, rng)
	}

	swings := findSwings(in.Candles, 20)
	pa.SwingPoints = swings
	pa.SwingCounts = countSwings(swings)

	window := in.Candles
	if len(window) > 20 {
		window = window[len(window)-20:]
	}
	pa.Range = rangeSummary(window)
	pa.BreakoutLevel = breakoutLevel(window, latest)

	pa.RecentPatterns = recentCandlePatterns(in.Candles)

	return pa
}

func classifyBar(c candle.Candle) string {
	open, high, low, close := c.OpenF(), c.HighF(), c.LowF(), c.CloseF()
	rng := high - low
	if rng == 0 {
		return "flat"
	}
	body := math.Abs(close - open)
	upperWick := high - math.Max(open, close)
	lowerWick := math.Min(open, close) - low

	switch {
	case body/rng < 0.1:
		return "doji"
	case lowerWick > body*2 && upperWick < body*0.5:
		return "hammer"
	case upperWick > body*2 && lowerWick < body*0.5:
		return "shooting_star"
	default:
		return "normal"
	}
}

func wickView(c candle.Candle, rng float64) *WickView {
	open, high, low, close := c.OpenF(), c.HighF(), c.LowF(), c.CloseF()
	upper := (high - math.Max(open, close)) / rng
	lower := (math.Min(open, close) - low) / rng
	interp := "balanced"
	switch {
	case upper > 0.5:
		interp = "upper_rejection"
	case lower > 0.5:
		interp = "lower_rejection"
	}
	return &WickView{UpperRatio: upper, LowerRatio: lower, Interpretation: interp}
}

// findSwings marks local highs/lows over the trailing window using a
// simple 2-bar-either-side pivot test.
func findSwings(candles []candle.Candle, n int) []SwingPoint {
	start := 0
	if len(candles) > n {
		start = len(candles) - n
	}
	var swings []SwingPoint
	for i := start + 2; i < len(candles)-2; i++ {
		h, l := candles[i].HighF(), candles[i].LowF()
		isHigh, isLow := true, true
		for d := -2; d <= 2; d++ {
			if d == 0 {
				continue
			}
			if candles[i+d].HighF() >= h {
				isHigh = false
			}
			if candles[i+d].LowF() <= l {
				isLow = false
			}
		}
		if isHigh {
			swings = append(swings, SwingPoint{Index: i, Timestamp: candles[i].Timestamp, Price: h, Kind: "high"})
		}
		if isLow {
			swings = append(swings, SwingPoint{Index: i, Timestamp: candles[i].Timestamp, Price: l, Kind: "low"})
		}
	}
	return swings
}

func countSwings(swings []SwingPoint) SwingCounts {
	var counts SwingCounts
	var lastHigh, lastLow *float64
	for _, s := range swings {
		switch s.Kind {
		case "high":
			if lastHigh != nil {
				if s.Price > *lastHigh {
					counts.HH++
				} else {
					counts.LH++
				}
			}
			v := s.Price
			lastHigh = &v
		case "low":
			if lastLow != nil {
				if s.Price > *lastLow {
					counts.HL++
				} else {
					counts.LL++
				}
			}
			v := s.Price
			lastLow = &v
		}
	}
	return counts
}

func rangeSummary(window []candle.Candle) RangeSummary {
	if len(window) == 0 {
		return RangeSummary{}
	}
	high, low := window[0].HighF(), window[0].LowF()
	for _, c := range window {
		if c.HighF() > high {
			high = c.HighF()
		}
		if c.LowF() < low {
			low = c.LowF()
		}
	}
	return RangeSummary{High: high, Low: low, Mid: (high + low) / 2}
}

// breakoutLevel reports the nearer of the window's high/low as the
// level a break of the current range would be measured against.
func breakoutLevel(window []candle.Candle, latest candle.Candle) *float64 {
	if len(window) == 0 {
		return nil
	}
	summary := rangeSummary(window)
	price := latest.CloseF()
	if math.Abs(price-summary.High) < math.Abs(price-summary.Low) {
		return ptr(summary.High)
	}
	return ptr(summary.Low)
}

func recentCandlePatterns(candles []candle.Candle) []string {
	n := len(candles)
	if n < 2 {
		return nil
	}
	var patterns []string
	prev, cur := candles[n-2], candles[n-1]

	curBody := math.Abs(cur.CloseF() - cur.OpenF())
	prevBody := math.Abs(prev.CloseF() - prev.OpenF())
	bullishEngulf := cur.CloseF() > cur.OpenF() && prev.CloseF() < prev.OpenF() &&
		cur.CloseF() >= prev.OpenF() && cur.OpenF() <= prev.CloseF() && curBody > prevBody
	bearishEngulf := cur.CloseF() < cur.OpenF() && prev.CloseF() > prev.OpenF() &&
		cur.OpenF() >= prev.CloseF() && cur.CloseF() <= prev.OpenF() && curBody > prevBody

	switch {
	case bullishEngulf:
		patterns = append(patterns, "bullish_engulfing")
	case bearishEngulf:
		patterns = append(patterns, "bearish_engulfing")
	}

	if classifyBar(cur) == "doji" {
		patterns = append(patterns, "doji")
	}
	if classifyBar(cur) == "hammer" {
		patterns = append(patterns, "hammer")
	}
	if classifyBar(cur) == "shooting_star" {
		patterns = append(patterns, "shooting_star")
	}

	return patterns
}
