package enrich

import "math"

// MovingAverages is the Moving Averages sub-enrichment.
type MovingAverages struct {
	EMA12  *float64 `json:"ema_12"`
	EMA26  *float64 `json:"ema_26"`
	EMA50  *float64 `json:"ema_50"`
	EMA200 *float64 `json:"ema_200"`
	SMA20  *float64 `json:"sma_20"`
	SMA50  *float64 `json:"sma_50"`

	PriceVsMA map[string]*float64 `json:"price_vs_ma"`

	Crosses []CrossEvent `json:"crosses"`

	RegressionSlope map[string]*float64 `json:"regression_slope"`

	Alignment *string `json:"alignment"`

	NearestCluster *MACluster `json:"nearest_cluster"`
}

// CrossEvent describes the most recent crossover between two MAs.
type CrossEvent struct {
	Pair          string `json:"pair"`
	Direction     string `json:"direction"` // bullish | bearish
	BarsSinceCross int   `json:"bars_since_cross"`
}

// MACluster is the MA nearest to the current price, acting as the
// closest support (if below price) or resistance (if above).
type MACluster struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Role     string  `json:"role"` // support | resistance
	Distance float64 `json:"distance_pct"`
}

func MovingAveragesEnrich(in Inputs) *MovingAverages {
	if len(in.Candles) == 0 {
		return nil
	}
	price := in.Candles[len(in.Candles)-1].CloseF()

	ma := &MovingAverages{PriceVsMA: map[string]*float64{}, RegressionSlope: map[string]*float64{}}

	named := map[string][]*float64{
		"ema_12": series(in, "ema_12"), "ema_26": series(in, "ema_26"),
		"ema_50": series(in, "ema_50"), "ema_200": series(in, "ema_200"),
		"sma_20": series(in, "sma_20"), "sma_50": series(in, "sma_50"),
	}

	values := map[string]*float64{}
	for name, s := range named {
		if v, ok := last(s); ok {
			values[name] = ptr(v)
			ma.PriceVsMA[name] = ptr(pctDiff(price, v))
		}
	}
	ma.EMA12, ma.EMA26, ma.EMA50, ma.EMA200 = values["ema_12"], values["ema_26"], values["ema_50"], values["ema_200"]
	ma.SMA20, ma.SMA50 = values["sma_20"], values["sma_50"]

	if c := crossEvent("ema12_ema26", named["ema_12"], named["ema_26"]); c != nil {
		ma.Crosses = append(ma.Crosses, *c)
	}
	if c := crossEvent("ema50_ema200", named["ema_50"], named["ema_200"]); c != nil {
		ma.Crosses = append(ma.Crosses, *c)
	}

	closes := closesF(in.Candles)
	for _, w := range []int{20, 50} {
		if slope, ok := regressionSlope(closes, w); ok {
			ma.RegressionSlope[label(w)] = ptr(slope)
		}
	}

	ma.Alignment = alignmentLabel(price, values)
	ma.NearestCluster = nearestCluster(price, values)

	return ma
}

func pctDiff(price, ma float64) float64 {
	if ma == 0 {
		return 0
	}
	return (price - ma) / ma * 100
}

func label(w int) string {
	switch w {
	case 20:
		return "20"
	case 50:
		return "50"
	default:
		return ""
	}
}

// crossEvent walks fast/slow backward from the most recent bar,
// looking for the last sign change of (fast-slow); the scan stops at
// the first nil in either series.
func crossEvent(pair string, fast, slow []*float64) *CrossEvent {
	n := len(fast)
	if len(slow) < n {
		n = len(slow)
	}
	if n < 2 {
		return nil
	}
	var prevSign int
	for i := n - 1; i >= 0; i-- {
		if fast[i] == nil || slow[i] == nil {
			return nil
		}
		diff := *fast[i] - *slow[i]
		sign := 0
		switch {
		case diff > 0:
			sign = 1
		case diff < 0:
			sign = -1
		}
		if i == n-1 {
			prevSign = sign
			continue
		}
		if sign != 0 && prevSign != 0 && sign != prevSign {
			dir := "bullish"
			if prevSign < 0 {
				dir = "bearish"
			}
			return &CrossEvent{Pair: pair, Direction: dir, BarsSinceCross: n - 1 - i}
		}
		if sign != 0 {
			prevSign = sign
		}
	}
	return nil
}

// regressionSlope fits a least-squares line to the trailing w closes
// and returns its slope normalized as percent-per-bar of the window's
// mean price.
func regressionSlope(closes []float64, w int) (float64, bool) {
	if len(closes) < w {
		return 0, false
	}
	tail := closes[len(closes)-w:]
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range tail {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	n := float64(w)
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, false
	}
	slope := (n*sumXY - sumX*sumY) / denom
	mean := sumY / n
	if mean == 0 {
		return 0, false
	}
	return slope / mean * 100, true
}

func alignmentLabel(price float64, values map[string]*float64) *string {
	e12, e26, e50, e200 := values["ema_12"], values["ema_26"], values["ema_50"], values["ema_200"]
	if e12 == nil || e26 == nil || e50 == nil || e200 == nil {
		return nil
	}
	bullish := price > *e12 && *e12 > *e26 && *e26 > *e50 && *e50 > *e200
	bearish := price < *e12 && *e12 < *e26 && *e26 < *e50 && *e50 < *e200
	var label string
	switch {
	case bullish:
		label = "perfect bullish"
	case bearish:
		label = "perfect bearish"
	default:
		above := 0
		for _, v := range []*float64{e12, e26, e50, e200} {
			if price > *v {
				above++
			}
		}
		switch {
		case above >= 3:
			label = "mostly bullish"
		case above <= 1:
			label = "mostly bearish"
		default:
			label = "mixed"
		}
	}
	return &label
}

func nearestCluster(price float64, values map[string]*float64) *MACluster {
	var best *MACluster
	for name, v := range values {
		if v == nil {
			continue
		}
		dist := math.Abs(price-*v) / price * 100
		if best == nil || dist < best.Distance {
			role := "resistance"
			if price > *v {
				role = "support"
			}
			best = &MACluster{Name: name, Value: *v, Role: role, Distance: dist}
		}
	}
	return best
}
