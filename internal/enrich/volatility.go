package enrich

import "math"

// Volatility is the Volatility sub-enrichment.
type Volatility struct {
	ATR        *ATRView       `json:"atr"`
	Bollinger  *BollingerView `json:"bollinger"`
	ATRRatio   *float64       `json:"atr_ratio"` // atr_short / atr_long
}

type ATRView struct {
	Value          *float64 `json:"value"`
	Percentile50   *float64 `json:"percentile_50"`
	Trend          *string  `json:"trend"`
	HTFComparison  *string  `json:"htf_comparison"`
}

type BollingerView struct {
	PositionInBands   *float64 `json:"position_in_bands"` // 0 = lower band, 1 = upper band
	WidthPercentile   *float64 `json:"width_percentile"`
	Squeeze           bool     `json:"squeeze"`
	PostSqueezeExpand bool     `json:"post_squeeze_expansion"`
}

func VolatilityEnrich(in Inputs) *Volatility {
	v := &Volatility{}
	v.ATR = atrView(in)
	v.Bollinger = bollingerView(in)

	short, ok1 := last(series(in, "atr_short"))
	long, ok2 := last(series(in, "atr_long"))
	if ok1 && ok2 && long != 0 {
		v.ATRRatio = ptr(short / long)
	}

	if v.ATR == nil && v.Bollinger == nil && v.ATRRatio == nil {
		return nil
	}
	return v
}

func atrView(in Inputs) *ATRView {
	atr := series(in, "atr_short")
	val, ok := last(atr)
	if !ok {
		return nil
	}
	view := &ATRView{Value: ptr(val)}

	if w := window(atr, 50); len(w) > 0 {
		if p, ok := percentileRank(w, val); ok {
			view.Percentile50 = ptr(p)
		}
	}
	if prev, ok := tailAt(atr, 5); ok {
		view.Trend = trendLabel(val, prev)
	}

	if in.HTF != nil && in.HTF.ATR != nil && in.HTF.TFMillis > 0 && in.TFMillis > 0 {
		// A bar's true range scales roughly with the square root of its
		// duration under a random-walk assumption, so normalize both
		// ATRs to a per-unit-time rate before comparing rather than
		// diffing the raw values across unequal bar durations.
		ownRate := val / math.Sqrt(float64(in.TFMillis))
		htfRate := *in.HTF.ATR / math.Sqrt(float64(in.HTF.TFMillis))
		ratio := ownRate / htfRate
		switch {
		case ratio > 1.15:
			view.HTFComparison = strPtr("expanding_vs_htf")
		case ratio < 0.85:
			view.HTFComparison = strPtr("contracting_vs_htf")
		default:
			view.HTFComparison = strPtr("in_line_with_htf")
		}
	}

	return view
}

func bollingerView(in Inputs) *BollingerView {
	upper, middle, lower, width := series(in, "bb_upper"), series(in, "bb_middle"), series(in, "bb_lower"), series(in, "bb_width")
	u, ok1 := last(upper)
	l, ok2 := last(lower)
	_, ok3 := last(middle)
	w, ok4 := last(width)
	if !ok1 || !ok2 || !ok3 {
		return nil
	}
	price := 0.0
	if len(in.Candles) > 0 {
		price = in.Candles[len(in.Candles)-1].CloseF()
	}

	view := &BollingerView{}
	if u != l {
		view.PositionInBands = ptr((price - l) / (u - l))
	}

	if ok4 {
		widthWindow := window(width, 50)
		if p, ok := percentileRank(widthWindow, w); ok {
			view.WidthPercentile = ptr(p)
			view.Squeeze = p < 0.30
			if prevW, ok := tailAt(width, 3); ok && !view.Squeeze && w > prevW*1.2 {
				view.PostSqueezeExpand = wasRecentlySqueezed(widthWindow, w)
			}
		}
	}

	return view
}

// wasRecentlySqueezed reports whether any of the trailing window's
// earlier entries sat in the lowest 30th percentile of the window,
// used to flag a squeeze-then-expansion sequence.
func wasRecentlySqueezed(widthWindow []float64, current float64) bool {
	if len(widthWindow) < 5 {
		return false
	}
	prior := widthWindow[:len(widthWindow)-1]
	minVal := math.Inf(1)
	for _, v := range prior {
		if v < minVal {
			minVal = v
		}
	}
	if p, ok := percentileRank(prior, minVal); ok {
		return p < 0.30
	}
	return false
}
