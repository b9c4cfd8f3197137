package indicators

import (
	"math"

	"github.com/atlas-desktop/midasgw/pkg/candle"
	"github.com/atlas-desktop/midasgw/pkg/utils"
)

// atrIndicator streams Wilder's Average True Range.
type atrIndicator struct {
	period    int
	prevClose float64
	have      bool
	avgTR     float64
	seen      int
}

func newATR(period int) *atrIndicator {
	return &atrIndicator{period: period}
}

// TrueRange computes the true range for c given the prior close.
func trueRange(c candle.Candle, prevClose float64) float64 {
	hl := c.HighF() - c.LowF()
	hc := math.Abs(c.HighF() - prevClose)
	lc := math.Abs(c.LowF() - prevClose)
	return math.Max(hl, math.Max(hc, lc))
}

func (a *atrIndicator) Update(c candle.Candle) Values {
	if !a.have {
		a.have = true
		a.prevClose = c.CloseF()
		a.seen++
		return Values{"atr": nil}
	}
	tr := trueRange(c, a.prevClose)
	a.prevClose = c.CloseF()
	a.seen++

	if a.seen <= a.period {
		a.avgTR += tr
		if a.seen < a.period {
			return Values{"atr": nil}
		}
		a.avgTR /= float64(a.period)
		return Values{"atr": f(a.avgTR)}
	}
	a.avgTR = (a.avgTR*float64(a.period-1) + tr) / float64(a.period)
	return Values{"atr": f(a.avgTR)}
}

// Current returns the calculator's latest ATR value (0 before warm-up).
func (a *atrIndicator) Current() float64 { return a.avgTR }

// bollingerIndicator streams Bollinger Bands over a trailing SMA
// window with a configurable standard-deviation multiplier.
type bollingerIndicator struct {
	period int
	stddev float64
	window []float64
	sma    *utils.SMA
}

func newBollinger(period int, stddev float64) *bollingerIndicator {
	return &bollingerIndicator{period: period, stddev: stddev, window: make([]float64, 0, period), sma: utils.NewSMA(period)}
}

func (b *bollingerIndicator) Update(c candle.Candle) Values {
	close := c.CloseF()
	b.window = append(b.window, close)
	if len(b.window) > b.period {
		b.window = b.window[1:]
	}
	middle := b.sma.Add(close)

	if len(b.window) < b.period {
		return Values{"bb_upper": nil, "bb_middle": nil, "bb_lower": nil, "bb_width": nil}
	}

	sd := utils.StdDev(b.window)
	upper := middle + b.stddev*sd
	lower := middle - b.stddev*sd
	var width float64
	if middle != 0 {
		width = (upper - lower) / middle
	}
	return Values{
		"bb_upper":  f(upper),
		"bb_middle": f(middle),
		"bb_lower":  f(lower),
		"bb_width":  f(width),
	}
}
