package enrich

// Momentum is the Momentum sub-enrichment.
type Momentum struct {
	RSI            *RSIView    `json:"rsi"`
	MACD           *MACDView   `json:"macd"`
	Stochastic     *StochView  `json:"stochastic"`
	ROC5           *float64    `json:"roc_5"`
	ROC10          *float64    `json:"roc_10"`
}

type RSIView struct {
	Value            *float64 `json:"value"`
	Percentile20     *float64 `json:"percentile_20"`
	Percentile50     *float64 `json:"percentile_50"`
	Trend            *string  `json:"trend"` // rising | falling | flat
	DivergenceVsClose *string `json:"divergence_vs_close"`
	HTFComparison    *string  `json:"htf_comparison"` // cooling | heating | aligned
}

type MACDView struct {
	Value          *float64 `json:"value"`
	Signal         *float64 `json:"signal"`
	Histogram      *float64 `json:"histogram"`
	HistogramTrend *string  `json:"histogram_trend"`
	CrossDirection *string  `json:"cross_direction"`
	BarsSinceCross *int     `json:"bars_since_cross"`
	Divergence     *string  `json:"divergence"`
}

type StochView struct {
	K    *float64 `json:"k"`
	D    *float64 `json:"d"`
	Zone *string  `json:"zone"` // overbought | oversold | neutral
}

func MomentumEnrich(in Inputs) *Momentum {
	m := &Momentum{}
	m.RSI = rsiView(in)
	m.MACD = macdView(in)
	m.Stochastic = stochView(in)
	if v, ok := last(series(in, "roc_5")); ok {
		m.ROC5 = ptr(v)
	}
	if v, ok := last(series(in, "roc_10")); ok {
		m.ROC10 = ptr(v)
	}
	if m.RSI == nil && m.MACD == nil && m.Stochastic == nil && m.ROC5 == nil && m.ROC10 == nil {
		return nil
	}
	return m
}

func rsiView(in Inputs) *RSIView {
	rsi := series(in, "rsi")
	v, ok := last(rsi)
	if !ok {
		return nil
	}
	view := &RSIView{Value: ptr(v)}

	if w := window(rsi, 20); len(w) > 0 {
		if p, ok := percentileRank(w, v); ok {
			view.Percentile20 = ptr(p)
		}
	}
	if w := window(rsi, 50); len(w) > 0 {
		if p, ok := percentileRank(w, v); ok {
			view.Percentile50 = ptr(p)
		}
	}

	if prev, ok := tailAt(rsi, 3); ok {
		view.Trend = trendLabel(v, prev)
	}

	view.DivergenceVsClose = divergenceVsClose(rsi, closesF(in.Candles), 20)

	if in.HTF != nil && in.HTF.RSI != nil {
		switch {
		case v < *in.HTF.RSI-5:
			view.HTFComparison = strPtr("cooling")
		case v > *in.HTF.RSI+5:
			view.HTFComparison = strPtr("heating")
		default:
			view.HTFComparison = strPtr("aligned")
		}
	}

	return view
}

func macdView(in Inputs) *MACDView {
	macd, signal, hist := series(in, "macd"), series(in, "macd_signal"), series(in, "macd_histogram")
	v, ok := last(macd)
	if !ok {
		return nil
	}
	view := &MACDView{Value: ptr(v)}
	if s, ok := last(signal); ok {
		view.Signal = ptr(s)
	}
	if h, ok := last(hist); ok {
		view.Histogram = ptr(h)
	}

	if w := window(hist, 5); len(w) >= 2 {
		rising := true
		falling := true
		for i := 1; i < len(w); i++ {
			if w[i] <= w[i-1] {
				rising = false
			}
			if w[i] >= w[i-1] {
				falling = false
			}
		}
		switch {
		case rising:
			view.HistogramTrend = strPtr("rising")
		case falling:
			view.HistogramTrend = strPtr("falling")
		default:
			view.HistogramTrend = strPtr("mixed")
		}
	}

	if c := crossEvent("macd_signal", macd, signal); c != nil {
		view.CrossDirection = strPtr(c.Direction)
		view.BarsSinceCross = &c.BarsSinceCross
	}

	view.Divergence = divergenceVsClose(macd, closesF(in.Candles), 20)

	return view
}

func stochView(in Inputs) *StochView {
	k, d := series(in, "stoch_k"), series(in, "stoch_d")
	kv, ok := last(k)
	if !ok {
		return nil
	}
	view := &StochView{K: ptr(kv)}
	if dv, ok := last(d); ok {
		view.D = ptr(dv)
	}
	switch {
	case kv >= 80:
		view.Zone = strPtr("overbought")
	case kv <= 20:
		view.Zone = strPtr("oversold")
	default:
		view.Zone = strPtr("neutral")
	}
	return view
}

func trendLabel(current, prior float64) *string {
	switch {
	case current > prior+0.5:
		return strPtr("rising")
	case current < prior-0.5:
		return strPtr("falling")
	default:
		return strPtr("flat")
	}
}

// divergenceVsClose compares the last-N swing direction of an
// oscillator against price: price making a higher high while the
// oscillator makes a lower high (or the mirror for lows) is flagged.
func divergenceVsClose(osc []*float64, closes []float64, n int) *string {
	oscWindow := window(osc, n)
	if len(oscWindow) < n || len(closes) < n {
		return nil
	}
	priceWindow := closes[len(closes)-n:]

	priceHighIdx, priceLowIdx := extremeIndex(priceWindow, true), extremeIndex(priceWindow, false)
	oscHighIdx, oscLowIdx := extremeIndex(oscWindow, true), extremeIndex(oscWindow, false)

	priceRising := priceWindow[len(priceWindow)-1] > priceWindow[0]
	oscRising := oscWindow[len(oscWindow)-1] > oscWindow[0]

	switch {
	case priceRising && !oscRising && priceHighIdx > len(priceWindow)/2 && oscHighIdx < len(oscWindow)/2:
		return strPtr("bearish")
	case !priceRising && oscRising && priceLowIdx > len(priceWindow)/2 && oscLowIdx < len(oscWindow)/2:
		return strPtr("bullish")
	default:
		return strPtr("none")
	}
}

func extremeIndex(vals []float64, max bool) int {
	idx := 0
	for i, v := range vals {
		if max && v > vals[idx] {
			idx = i
		}
		if !max && v < vals[idx] {
			idx = i
		}
	}
	return idx
}

func strPtr(s string) *string { return &s }
