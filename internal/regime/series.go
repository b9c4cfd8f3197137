package regime

// SeriesFromFlat adapts a flattened alias→series map (as produced by
// the enrich package's BuildSeries, or any other indicator-series
// source using the same aliases) into the dense Series the detector
// consumes, pairing it with the candle closes.
func SeriesFromFlat(flat map[string][]*float64, closes []float64) Series {
	return Series{
		ADX:      dense(flat["adx"]),
		PlusDI:   dense(flat["plus_di"]),
		MinusDI:  dense(flat["minus_di"]),
		ATRShort: dense(flat["atr_short"]),
		ATRLong:  dense(flat["atr_long"]),
		EMAShort: dense(flat["ema_12"]),
		EMALong:  dense(flat["ema_26"]),
		ER:       dense(flat["efficiency_ratio"]),
		Close:    closes,
	}
}

// dense drops nils, keeping only the series' non-nil values in order.
// Leading nils (warm-up) are the only ones a well-formed series
// produces, so this amounts to stripping the warm-up prefix.
func dense(vals []*float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if v == nil {
			continue
		}
		out = append(out, *v)
	}
	return out
}
