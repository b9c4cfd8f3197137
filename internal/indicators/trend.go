package indicators

import (
	"github.com/atlas-desktop/midasgw/pkg/candle"
	"github.com/atlas-desktop/midasgw/pkg/utils"
)

// smaIndicator streams a Simple Moving Average over candle closes.
type smaIndicator struct {
	sma    *utils.SMA
	period int
}

func newSMAIndicator(period int) *smaIndicator {
	return &smaIndicator{sma: utils.NewSMA(period), period: period}
}

func (s *smaIndicator) Update(c candle.Candle) Values {
	v := s.sma.Add(c.CloseF())
	if s.sma.Count() < s.period {
		return Values{"sma": nil}
	}
	return Values{"sma": f(v)}
}

// emaIndicator streams an Exponential Moving Average over candle closes.
type emaIndicator struct {
	ema    *utils.EMA
	period int
}

func newEMAIndicator(period int) *emaIndicator {
	return &emaIndicator{ema: utils.NewEMA(period), period: period}
}

func (e *emaIndicator) Update(c candle.Candle) Values {
	v := e.ema.Add(c.CloseF())
	if e.ema.Count() < e.period {
		return Values{"ema": nil}
	}
	return Values{"ema": f(v)}
}

// macdIndicator streams MACD: fast EMA minus slow EMA, and an EMA of
// that spread as the signal line.
type macdIndicator struct {
	fast, slow, signal *utils.EMA
	slowPeriod, signalPeriod int
	seen int
}

func newMACD(fastPeriod, slowPeriod, signalPeriod int) *macdIndicator {
	return &macdIndicator{
		fast:         utils.NewEMA(fastPeriod),
		slow:         utils.NewEMA(slowPeriod),
		signal:       utils.NewEMA(signalPeriod),
		slowPeriod:   slowPeriod,
		signalPeriod: signalPeriod,
	}
}

func (m *macdIndicator) Update(c candle.Candle) Values {
	fastV := m.fast.Add(c.CloseF())
	slowV := m.slow.Add(c.CloseF())
	m.seen++

	if m.seen < m.slowPeriod {
		return Values{"macd": nil, "macd_signal": nil, "macd_histogram": nil}
	}

	macd := fastV - slowV
	signalV := m.signal.Add(macd)

	if m.seen < m.slowPeriod+m.signalPeriod {
		return Values{"macd": f(macd), "macd_signal": nil, "macd_histogram": nil}
	}
	return Values{
		"macd":           f(macd),
		"macd_signal":    f(signalV),
		"macd_histogram": f(macd - signalV),
	}
}

// efficiencyRatioIndicator streams Kaufman's Efficiency Ratio over a
// trailing window of closes, EMA-smoothed per the gateway's regime
// inputs (smoothing period default 3).
type efficiencyRatioIndicator struct {
	period   int
	closes   []float64
	smoother *utils.EMA
}

func newEfficiencyRatio(period, smoothing int) *efficiencyRatioIndicator {
	return &efficiencyRatioIndicator{period: period, closes: make([]float64, 0, period+1), smoother: utils.NewEMA(smoothing)}
}

func (e *efficiencyRatioIndicator) Update(c candle.Candle) Values {
	e.closes = append(e.closes, c.CloseF())
	if len(e.closes) > e.period+1 {
		e.closes = e.closes[1:]
	}
	if len(e.closes) <= e.period {
		return Values{"efficiency_ratio": nil}
	}

	direction := e.closes[len(e.closes)-1] - e.closes[0]
	var volatility float64
	for i := 1; i < len(e.closes); i++ {
		diff := e.closes[i] - e.closes[i-1]
		if diff < 0 {
			diff = -diff
		}
		volatility += diff
	}

	var raw float64
	if volatility != 0 {
		raw = direction / volatility
		if raw < 0 {
			raw = -raw
		}
	}
	smoothed := e.smoother.Add(raw)
	if e.smoother.Count() < 3 {
		return Values{"efficiency_ratio": nil}
	}
	return Values{"efficiency_ratio": f(smoothed)}
}
