package enrich

import "github.com/atlas-desktop/midasgw/pkg/candle"

// Volume is the Volume sub-enrichment.
type Volume struct {
	CurrentVsAverage *float64 `json:"current_vs_average"` // ratio, current / 20-bar avg
	OBVTrend         *string  `json:"obv_trend"`
	OBVDivergence    *string  `json:"obv_divergence"`
	VWAPPosition     *string  `json:"vwap_position"` // above | below | at
}

func VolumeEnrich(in Inputs) *Volume {
	if len(in.Candles) == 0 {
		return nil
	}
	v := &Volume{}

	vols := volumesF(in.Candles)
	if w := lastNFloat(vols, 20); len(w) > 0 {
		var sum float64
		for _, x := range w {
			sum += x
		}
		avg := sum / float64(len(w))
		if avg != 0 {
			v.CurrentVsAverage = ptr(vols[len(vols)-1] / avg)
		}
	}

	obv := series(in, "obv")
	if prev, ok := tailAt(obv, 10); ok {
		if cur, ok := last(obv); ok {
			v.OBVTrend = trendLabel(cur, prev)
		}
	}
	v.OBVDivergence = divergenceVsClose(obv, closesF(in.Candles), 20)

	if vwap, ok := last(series(in, "vwap")); ok {
		price := in.Candles[len(in.Candles)-1].CloseF()
		switch {
		case price > vwap*1.001:
			v.VWAPPosition = strPtr("above")
		case price < vwap*0.999:
			v.VWAPPosition = strPtr("below")
		default:
			v.VWAPPosition = strPtr("at")
		}
	}

	if v.CurrentVsAverage == nil && v.OBVTrend == nil && v.VWAPPosition == nil {
		return nil
	}
	return v
}

func volumesF(candles []candle.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.VolumeF()
	}
	return out
}

func lastNFloat(vals []float64, n int) []float64 {
	if n > len(vals) {
		n = len(vals)
	}
	return vals[len(vals)-n:]
}
