package indicators

import (
	"github.com/atlas-desktop/midasgw/pkg/candle"
	"github.com/atlas-desktop/midasgw/pkg/utils"
)

// rsiIndicator streams Wilder's RSI using EMA-style smoothed average
// gain/loss (Wilder smoothing == EMA with alpha = 1/period).
type rsiIndicator struct {
	period        int
	prevClose     float64
	avgGain       float64
	avgLoss       float64
	seen          int
	haveAvg       bool
}

func newRSI(period int) *rsiIndicator {
	return &rsiIndicator{period: period}
}

func (r *rsiIndicator) Update(c candle.Candle) Values {
	close := c.CloseF()
	r.seen++
	if r.seen == 1 {
		r.prevClose = close
		return Values{"rsi": nil}
	}

	change := close - r.prevClose
	r.prevClose = close
	var gain, loss float64
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	if !r.haveAvg {
		r.avgGain += gain
		r.avgLoss += loss
		if r.seen-1 < r.period {
			return Values{"rsi": nil}
		}
		r.avgGain /= float64(r.period)
		r.avgLoss /= float64(r.period)
		r.haveAvg = true
	} else {
		r.avgGain = (r.avgGain*float64(r.period-1) + gain) / float64(r.period)
		r.avgLoss = (r.avgLoss*float64(r.period-1) + loss) / float64(r.period)
	}

	if r.avgLoss == 0 {
		return Values{"rsi": f(100)}
	}
	rs := r.avgGain / r.avgLoss
	rsi := 100 - 100/(1+rs)
	return Values{"rsi": f(rsi)}
}

// stochasticIndicator streams %K (smoothed) and %D over a trailing
// high/low/close window.
type stochasticIndicator struct {
	kPeriod  int
	highs    []float64
	lows     []float64
	rawK     *utils.SMA
	d        *utils.SMA
}

func newStochastic(kPeriod, kSmooth, dPeriod int) *stochasticIndicator {
	return &stochasticIndicator{
		kPeriod: kPeriod,
		highs:   make([]float64, 0, kPeriod),
		lows:    make([]float64, 0, kPeriod),
		rawK:    utils.NewSMA(kSmooth),
		d:       utils.NewSMA(dPeriod),
	}
}

func (s *stochasticIndicator) Update(c candle.Candle) Values {
	s.highs = append(s.highs, c.HighF())
	s.lows = append(s.lows, c.LowF())
	if len(s.highs) > s.kPeriod {
		s.highs = s.highs[1:]
		s.lows = s.lows[1:]
	}
	if len(s.highs) < s.kPeriod {
		return Values{"stoch_k": nil, "stoch_d": nil}
	}

	hh, ll := maxOf(s.highs), minOf(s.lows)
	var rawK float64
	if hh != ll {
		rawK = (c.CloseF() - ll) / (hh - ll) * 100
	}
	k := s.rawK.Add(rawK)
	d := s.d.Add(k)
	return Values{"stoch_k": f(k), "stoch_d": f(d)}
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// stochRSIIndicator applies the stochastic formula to an RSI series
// instead of price, per the catalog's input_kind=close contract.
type stochRSIIndicator struct {
	rsi      *rsiIndicator
	period   int
	window   []float64
	kSmooth  *utils.SMA
	d        *utils.SMA
}

func newStochRSI(period, kSmooth, dPeriod int) *stochRSIIndicator {
	return &stochRSIIndicator{
		rsi:     newRSI(period),
		period:  period,
		window:  make([]float64, 0, period),
		kSmooth: utils.NewSMA(kSmooth),
		d:       utils.NewSMA(dPeriod),
	}
}

func (s *stochRSIIndicator) Update(c candle.Candle) Values {
	rsiVals := s.rsi.Update(c)
	rsiPtr := rsiVals["rsi"]
	if rsiPtr == nil {
		return Values{"stoch_rsi_k": nil, "stoch_rsi_d": nil}
	}
	s.window = append(s.window, *rsiPtr)
	if len(s.window) > s.period {
		s.window = s.window[1:]
	}
	if len(s.window) < s.period {
		return Values{"stoch_rsi_k": nil, "stoch_rsi_d": nil}
	}

	hi, lo := maxOf(s.window), minOf(s.window)
	var raw float64
	if hi != lo {
		raw = (*rsiPtr - lo) / (hi - lo) * 100
	}
	k := s.kSmooth.Add(raw)
	d := s.d.Add(k)
	return Values{"stoch_rsi_k": f(k), "stoch_rsi_d": f(d)}
}

// rocIndicator streams the rate of change over a trailing window.
type rocIndicator struct {
	period int
	window []float64
}

func newROC(period int) *rocIndicator {
	return &rocIndicator{period: period, window: make([]float64, 0, period+1)}
}

func (r *rocIndicator) Update(c candle.Candle) Values {
	r.window = append(r.window, c.CloseF())
	if len(r.window) > r.period+1 {
		r.window = r.window[1:]
	}
	if len(r.window) <= r.period {
		return Values{"roc": nil}
	}
	base := r.window[0]
	if base == 0 {
		return Values{"roc": f(0)}
	}
	roc := (r.window[len(r.window)-1] - base) / base * 100
	return Values{"roc": f(roc)}
}
