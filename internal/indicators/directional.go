package indicators

import (
	"math"

	"github.com/atlas-desktop/midasgw/pkg/candle"
)

// adxIndicator streams Wilder's ADX alongside +DI/-DI, the trio the
// regime detector's adaptive thresholds are built on.
type adxIndicator struct {
	period int

	prevHigh, prevLow, prevClose float64
	have                          bool

	smoothTR, smoothPlusDM, smoothMinusDM float64
	seenDI                                 int

	dxValues []float64
	adx      float64
	haveADX  bool
}

func newADX(period int) *adxIndicator {
	return &adxIndicator{period: period}
}

func (a *adxIndicator) Update(c candle.Candle) Values {
	high, low, close := c.HighF(), c.LowF(), c.CloseF()

	if !a.have {
		a.have = true
		a.prevHigh, a.prevLow, a.prevClose = high, low, close
		return Values{"adx": nil, "plus_di": nil, "minus_di": nil}
	}

	upMove := high - a.prevHigh
	downMove := a.prevLow - low

	var plusDM, minusDM float64
	if upMove > downMove && upMove > 0 {
		plusDM = upMove
	}
	if downMove > upMove && downMove > 0 {
		minusDM = downMove
	}
	tr := trueRange(c, a.prevClose)

	a.prevHigh, a.prevLow, a.prevClose = high, low, close
	a.seenDI++

	if a.seenDI <= a.period {
		a.smoothTR += tr
		a.smoothPlusDM += plusDM
		a.smoothMinusDM += minusDM
		if a.seenDI < a.period {
			return Values{"adx": nil, "plus_di": nil, "minus_di": nil}
		}
	} else {
		a.smoothTR = a.smoothTR - a.smoothTR/float64(a.period) + tr
		a.smoothPlusDM = a.smoothPlusDM - a.smoothPlusDM/float64(a.period) + plusDM
		a.smoothMinusDM = a.smoothMinusDM - a.smoothMinusDM/float64(a.period) + minusDM
	}

	var plusDI, minusDI float64
	if a.smoothTR != 0 {
		plusDI = 100 * a.smoothPlusDM / a.smoothTR
		minusDI = 100 * a.smoothMinusDM / a.smoothTR
	}

	diSum := plusDI + minusDI
	var dx float64
	if diSum != 0 {
		dx = 100 * math.Abs(plusDI-minusDI) / diSum
	}

	a.dxValues = append(a.dxValues, dx)
	if !a.haveADX {
		if len(a.dxValues) < a.period {
			return Values{"adx": nil, "plus_di": f(plusDI), "minus_di": f(minusDI)}
		}
		var sum float64
		for _, v := range a.dxValues {
			sum += v
		}
		a.adx = sum / float64(len(a.dxValues))
		a.haveADX = true
	} else {
		a.adx = (a.adx*float64(a.period-1) + dx) / float64(a.period)
	}

	return Values{"adx": f(a.adx), "plus_di": f(plusDI), "minus_di": f(minusDI)}
}
