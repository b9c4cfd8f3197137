package enrich

import (
	"math"

	"github.com/atlas-desktop/midasgw/pkg/candle"
)

// Patterns is the chart-pattern sub-enrichment: swing-based shapes
// filtered by an ATR multiple, so noise in low-volatility chop never
// registers as a pattern.
type Patterns struct {
	Detected        []Pattern `json:"detected"`
	MomentumQuality string    `json:"momentum_quality"` // aligned | weakening | contradicting
}

// Pattern is one detected chart formation.
type Pattern struct {
	Name             string   `json:"name"`
	Type             string   `json:"type"` // continuation | reversal
	Bias             string   `json:"bias"` // bullish | bearish | neutral
	Confidence       float64  `json:"confidence"`
	InvalidationPrice float64 `json:"invalidation_price"`
	TargetIfBreaks   *float64 `json:"target_if_breaks,omitempty"`
	Status           string   `json:"status"` // forming | confirmed
}

const swingATRMultiple = 0.5

func PatternsEnrich(in Inputs) *Patterns {
	if len(in.Candles) < 30 {
		return nil
	}
	atr, ok := last(series(in, "atr_short"))
	if !ok || atr <= 0 {
		return nil
	}

	swings := significantSwings(in.Candles, atr*swingATRMultiple)
	if len(swings) < 4 {
		return &Patterns{MomentumQuality: momentumQuality(in)}
	}

	var detected []Pattern
	if p := detectDoubleTopBottom(swings, in.Candles, atr); p != nil {
		detected = append(detected, *p)
	}
	if p := detectHeadAndShoulders(swings, in.Candles, atr); p != nil {
		detected = append(detected, *p)
	}
	if p := detectTriangleOrWedge(swings, in.Candles, atr); p != nil {
		detected = append(detected, *p)
	}
	if p := detectFlag(in.Candles, atr); p != nil {
		detected = append(detected, *p)
	}

	for i := range detected {
		applyVolumeAndBreakConfirmation(&detected[i], in.Candles, atr)
	}

	return &Patterns{Detected: detected, MomentumQuality: momentumQuality(in)}
}

// significantSwings is findSwings filtered to only those whose
// distance from the prior kept swing exceeds minMove, rejecting
// noise in the raw pivot list.
func significantSwings(candles []candle.Candle, minMove float64) []SwingPoint {
	raw := findSwings(candles, len(candles))
	var out []SwingPoint
	for _, s := range raw {
		if len(out) == 0 {
			out = append(out, s)
			continue
		}
		prev := out[len(out)-1]
		if math.Abs(s.Price-prev.Price) >= minMove {
			out = append(out, s)
		}
	}
	return out
}

func lastN(swings []SwingPoint, n int) []SwingPoint {
	if len(swings) <= n {
		return swings
	}
	return swings[len(swings)-n:]
}

func detectDoubleTopBottom(swings []SwingPoint, candles []candle.Candle, atr float64) *Pattern {
	recent := lastN(swings, 5)
	for i := 0; i+1 < len(recent); i++ {
		a, b := recent[i], recent[i+1]
		if a.Kind != b.Kind {
			continue
		}
		if math.Abs(a.Price-b.Price) > atr*0.75 {
			continue
		}
		if a.Kind == "high" {
			neckline := lowBetween(candles, a.Index, b.Index)
			return &Pattern{
				Name: "double_top", Type: "reversal", Bias: "bearish",
				Confidence: 0.5, InvalidationPrice: math.Max(a.Price, b.Price) + atr*0.25,
				TargetIfBreaks: ptr(neckline - (a.Price - neckline)),
				Status: "forming",
			}
		}
		neckline := highBetween(candles, a.Index, b.Index)
		return &Pattern{
			Name: "double_bottom", Type: "reversal", Bias: "bullish",
			Confidence: 0.5, InvalidationPrice: math.Min(a.Price, b.Price) - atr*0.25,
			TargetIfBreaks: ptr(neckline + (neckline - a.Price)),
			Status: "forming",
		}
	}
	return nil
}

func detectHeadAndShoulders(swings []SwingPoint, candles []candle.Candle, atr float64) *Pattern {
	highs := filterKind(swings, "high")
	if len(highs) < 3 {
		return nil
	}
	recent := lastN(highs, 3)
	left, head, right := recent[0], recent[1], recent[2]
	if !(head.Price > left.Price && head.Price > right.Price) {
		return nil
	}
	if math.Abs(left.Price-right.Price) > atr*1.0 {
		return nil
	}
	neckline := lowBetween(candles, left.Index, right.Index)
	return &Pattern{
		Name: "head_and_shoulders", Type: "reversal", Bias: "bearish",
		Confidence: 0.45, InvalidationPrice: head.Price,
		TargetIfBreaks: ptr(neckline - (head.Price - neckline)),
		Status: "forming",
	}
}

func detectTriangleOrWedge(swings []SwingPoint, candles []candle.Candle, atr float64) *Pattern {
	highs := filterKind(swings, "high")
	lows := filterKind(swings, "low")
	if len(highs) < 2 || len(lows) < 2 {
		return nil
	}
	h := lastN(highs, 2)
	l := lastN(lows, 2)

	highSlope := h[1].Price - h[0].Price
	lowSlope := l[1].Price - l[0].Price
	flat := atr * 0.2

	var name, bias string
	switch {
	case math.Abs(highSlope) < flat && lowSlope > flat:
		name, bias = "ascending_triangle", "bullish"
	case math.Abs(lowSlope) < flat && highSlope < -flat:
		name, bias = "descending_triangle", "bearish"
	case highSlope < -flat && lowSlope > flat:
		name, bias = "symmetrical_triangle", "neutral"
	case highSlope < -flat && lowSlope < -flat:
		name, bias = "falling_wedge", "bullish"
	case highSlope > flat && lowSlope > flat:
		name, bias = "rising_wedge", "bearish"
	default:
		return nil
	}

	apex := (h[1].Price + l[1].Price) / 2
	invalidation := l[1].Price
	if bias == "bearish" {
		invalidation = h[1].Price
	}
	return &Pattern{
		Name: name, Type: "continuation", Bias: bias,
		Confidence: 0.4, InvalidationPrice: invalidation,
		TargetIfBreaks: ptr(apex), Status: "forming",
	}
}

// detectFlag looks for an 8-bar pole whose open-to-close move is at
// least 2.5 ATR, followed by a 5-bar consolidation whose high-low range
// stays within 1.5 ATR. The direction of the individual pole bars and
// the slope of the consolidation are not checked.
func detectFlag(candles []candle.Candle, atr float64) *Pattern {
	n := len(candles)
	poleLen := 8
	flagLen := 5
	if n < poleLen+flagLen {
		return nil
	}
	pole := candles[n-poleLen-flagLen : n-flagLen]
	flag := candles[n-flagLen:]

	poleMove := pole[len(pole)-1].CloseF() - pole[0].OpenF()
	if math.Abs(poleMove) < atr*2.5 {
		return nil
	}

	flagHigh, flagLow := flag[0].HighF(), flag[0].LowF()
	for _, c := range flag {
		if c.HighF() > flagHigh {
			flagHigh = c.HighF()
		}
		if c.LowF() < flagLow {
			flagLow = c.LowF()
		}
	}
	if flagHigh-flagLow > atr*1.5 {
		return nil // consolidation too wide to be a flag
	}

	bullish := poleMove > 0
	name := "bull_flag"
	bias := "bullish"
	invalidation := flagLow - atr*0.25
	target := flag[len(flag)-1].CloseF() + poleMove
	if !bullish {
		name = "bear_flag"
		bias = "bearish"
		invalidation = flagHigh + atr*0.25
		target = flag[len(flag)-1].CloseF() + poleMove
	}

	return &Pattern{
		Name: name, Type: "continuation", Bias: bias,
		Confidence: 0.45, InvalidationPrice: invalidation,
		TargetIfBreaks: ptr(target), Status: "forming",
	}
}

// applyVolumeAndBreakConfirmation raises a pattern's confidence and
// flips it from forming to confirmed when both a volume spike (1.2x
// average, 1.4x for reversals) and an ATR-buffered price break past
// the pattern's target/invalidation frame are present.
func applyVolumeAndBreakConfirmation(p *Pattern, candles []candle.Candle, atr float64) {
	n := len(candles)
	if n == 0 {
		return
	}
	latest := candles[n-1]

	vols := volumesF(candles)
	w := lastNFloat(vols, 20)
	var avg float64
	for _, v := range w {
		avg += v
	}
	if len(w) > 0 {
		avg /= float64(len(w))
	}
	threshold := 1.2
	if p.Type == "reversal" {
		threshold = 1.4
	}
	volumeSpike := avg > 0 && latest.VolumeF() >= avg*threshold

	broke := false
	if p.TargetIfBreaks != nil {
		switch p.Bias {
		case "bullish":
			broke = latest.CloseF() > *p.TargetIfBreaks-atr*0.1
		case "bearish":
			broke = latest.CloseF() < *p.TargetIfBreaks+atr*0.1
		}
	}

	if volumeSpike && broke {
		p.Status = "confirmed"
		p.Confidence = math.Min(p.Confidence+0.3, 0.95)
	} else if volumeSpike || broke {
		p.Confidence = math.Min(p.Confidence+0.1, 0.8)
	}
}

func filterKind(swings []SwingPoint, kind string) []SwingPoint {
	var out []SwingPoint
	for _, s := range swings {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

func lowBetween(candles []candle.Candle, a, b int) float64 {
	if a > b {
		a, b = b, a
	}
	low := candles[a].LowF()
	for i := a; i <= b && i < len(candles); i++ {
		if candles[i].LowF() < low {
			low = candles[i].LowF()
		}
	}
	return low
}

func highBetween(candles []candle.Candle, a, b int) float64 {
	if a > b {
		a, b = b, a
	}
	high := candles[a].HighF()
	for i := a; i <= b && i < len(candles); i++ {
		if candles[i].HighF() > high {
			high = candles[i].HighF()
		}
	}
	return high
}

// momentumQuality downgrades when ADX/directional readings and the
// MACD histogram disagree on direction, signalling a move that lacks
// confirming momentum.
func momentumQuality(in Inputs) string {
	plusDI, ok1 := last(series(in, "plus_di"))
	minusDI, ok2 := last(series(in, "minus_di"))
	hist, ok3 := last(series(in, "macd_histogram"))
	if !ok1 || !ok2 || !ok3 {
		return "aligned"
	}
	diBullish := plusDI > minusDI
	histBullish := hist > 0

	if diBullish == histBullish {
		return "aligned"
	}
	if math.Abs(plusDI-minusDI) < 3 {
		return "weakening"
	}
	return "contradicting"
}
