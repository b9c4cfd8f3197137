package regime_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/atlas-desktop/midasgw/internal/regime"
	"github.com/atlas-desktop/midasgw/pkg/timeframe"
)

func repeat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestClassifyRejectsTooFewBars(t *testing.T) {
	d := regime.New(regime.DefaultConfig(), zap.NewNop())
	series := regime.Series{
		ADX: repeat(5, 40), PlusDI: repeat(5, 30), MinusDI: repeat(5, 10),
		ATRShort: repeat(5, 1), ATRLong: repeat(5, 1), EMAShort: repeat(5, 110),
		EMALong: repeat(5, 100), ER: repeat(5, 0.8), Close: repeat(5, 120),
	}
	_, err := d.Classify(timeframe.H1, series)
	assert.Error(t, err)
}

func TestClassifyTrendingBullish(t *testing.T) {
	d := regime.New(regime.DefaultConfig(), zap.NewNop())
	series := regime.Series{
		ADX: repeat(60, 40), PlusDI: repeat(60, 30), MinusDI: repeat(60, 10),
		ATRShort: repeat(60, 1), ATRLong: repeat(60, 1), EMAShort: repeat(60, 110),
		EMALong: repeat(60, 100), ER: repeat(60, 0.8), Close: repeat(60, 120),
	}
	cls, err := d.Classify(timeframe.H1, series)
	assert.NoError(t, err)
	assert.Equal(t, regime.RegimeTrendingBullish, cls.Regime)
	assert.Equal(t, regime.DirectionBullish, cls.Direction)
	assert.Greater(t, cls.Confidence, 0.0)
}

func TestClassifyRangeNormal(t *testing.T) {
	d := regime.New(regime.DefaultConfig(), zap.NewNop())
	series := regime.Series{
		ADX: repeat(60, 15), PlusDI: repeat(60, 20), MinusDI: repeat(60, 20),
		ATRShort: repeat(60, 1), ATRLong: repeat(60, 1), EMAShort: repeat(60, 100),
		EMALong: repeat(60, 100), ER: repeat(60, 0.1), Close: repeat(60, 100),
	}
	cls, err := d.Classify(timeframe.H1, series)
	assert.NoError(t, err)
	assert.Equal(t, regime.RegimeRangeNormal, cls.Regime)
	assert.Equal(t, regime.DirectionNeutral, cls.Direction)
}

func TestClassifyBreakoutBullish(t *testing.T) {
	d := regime.New(regime.DefaultConfig(), zap.NewNop())
	series := regime.Series{
		ADX: repeat(60, 40), PlusDI: repeat(60, 30), MinusDI: repeat(60, 10),
		ATRShort: repeat(60, 1.5), ATRLong: repeat(60, 1), EMAShort: repeat(60, 110),
		EMALong: repeat(60, 100), ER: repeat(60, 0.6), Close: repeat(60, 120),
	}
	cls, err := d.Classify(timeframe.H1, series)
	assert.NoError(t, err)
	assert.Equal(t, regime.RegimeBreakoutBullish, cls.Regime)
}

func TestClassifyRejectsZeroATRLong(t *testing.T) {
	d := regime.New(regime.DefaultConfig(), zap.NewNop())
	series := regime.Series{
		ADX: repeat(60, 40), PlusDI: repeat(60, 30), MinusDI: repeat(60, 10),
		ATRShort: repeat(60, 1), ATRLong: repeat(60, 0), EMAShort: repeat(60, 110),
		EMALong: repeat(60, 100), ER: repeat(60, 0.8), Close: repeat(60, 120),
	}
	_, err := d.Classify(timeframe.H1, series)
	assert.Error(t, err)
}

func TestSeriesFromFlatDropsWarmupNils(t *testing.T) {
	v := func(f float64) *float64 { return &f }
	flat := map[string][]*float64{
		"adx":              {nil, nil, v(40)},
		"plus_di":          {nil, v(30), v(31)},
		"minus_di":         {nil, v(10), v(11)},
		"atr_short":        {v(1), v(1), v(1)},
		"atr_long":         {v(1), v(1), v(1)},
		"ema_12":           {nil, v(110), v(111)},
		"ema_26":           {nil, v(100), v(101)},
		"efficiency_ratio": {nil, nil, v(0.8)},
	}
	s := regime.SeriesFromFlat(flat, []float64{100, 110, 120})
	assert.Equal(t, []float64{40}, s.ADX)
	assert.Equal(t, []float64{30, 31}, s.PlusDI)
	assert.Equal(t, []float64{100, 110, 120}, s.Close)
}
