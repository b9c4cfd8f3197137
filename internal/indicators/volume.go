package indicators

import "github.com/atlas-desktop/midasgw/pkg/candle"

// obvIndicator streams On-Balance Volume.
type obvIndicator struct {
	prevClose float64
	have      bool
	obv       float64
}

func newOBV() *obvIndicator {
	return &obvIndicator{}
}

func (o *obvIndicator) Update(c candle.Candle) Values {
	if !o.have {
		o.have = true
		o.prevClose = c.CloseF()
		o.obv = c.VolumeF()
		return Values{"obv": f(o.obv)}
	}
	close := c.CloseF()
	switch {
	case close > o.prevClose:
		o.obv += c.VolumeF()
	case close < o.prevClose:
		o.obv -= c.VolumeF()
	}
	o.prevClose = close
	return Values{"obv": f(o.obv)}
}

// vwapIndicator streams a rolling-window Volume Weighted Average
// Price over the typical price (high+low+close)/3.
type vwapIndicator struct {
	window        int
	typicalPrices []float64
	volumes       []float64
	sumPV         float64
	sumV          float64
}

func newVWAP(window int) *vwapIndicator {
	return &vwapIndicator{window: window, typicalPrices: make([]float64, 0, window), volumes: make([]float64, 0, window)}
}

func (v *vwapIndicator) Update(c candle.Candle) Values {
	typical := (c.HighF() + c.LowF() + c.CloseF()) / 3
	vol := c.VolumeF()

	v.typicalPrices = append(v.typicalPrices, typical)
	v.volumes = append(v.volumes, vol)
	v.sumPV += typical * vol
	v.sumV += vol

	if len(v.typicalPrices) > v.window {
		oldTP := v.typicalPrices[0]
		oldVol := v.volumes[0]
		v.sumPV -= oldTP * oldVol
		v.sumV -= oldVol
		v.typicalPrices = v.typicalPrices[1:]
		v.volumes = v.volumes[1:]
	}

	if len(v.typicalPrices) < v.window {
		return Values{"vwap": nil}
	}
	if v.sumV == 0 {
		return Values{"vwap": f(0)}
	}
	return Values{"vwap": f(v.sumPV / v.sumV)}
}
