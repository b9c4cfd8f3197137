package indicators_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/atlas-desktop/midasgw/internal/indicators"
	"github.com/atlas-desktop/midasgw/pkg/candle"
)

func closeSeries(prices ...float64) []candle.Candle {
	bars := make([]candle.Candle, len(prices))
	for i, p := range prices {
		d := decimal.NewFromFloat(p)
		bars[i] = candle.Candle{
			Symbol: "BTC/USDT", Timestamp: int64(i) * 3_600_000,
			Open: d, High: d, Low: d, Close: d, Volume: decimal.NewFromInt(1),
		}
	}
	return bars
}

func TestComputeSeriesSMA(t *testing.T) {
	e := indicators.New(4, nil, nil)
	bars := closeSeries(1, 2, 3, 4, 5)

	res, err := e.ComputeSeries(bars, map[string]indicators.Config{"sma": {"period": 3}}, "1h")
	assert.NoError(t, err)

	vals := res.Series["sma"]
	assert.Len(t, vals, 5)
	assert.Nil(t, vals[0])
	assert.Nil(t, vals[1])
	assert.NotNil(t, vals[2])
	assert.InDelta(t, 2.0, *vals[2], 0.0001)
	assert.InDelta(t, 4.0, *vals[4], 0.0001)
}

func TestComputeSeriesUnknownIndicator(t *testing.T) {
	e := indicators.New(4, nil, nil)
	bars := closeSeries(1, 2, 3)

	_, err := e.ComputeSeries(bars, map[string]indicators.Config{"not_real": {}}, "1h")
	assert.Error(t, err)
}

func TestComputeSeriesEmptyCandles(t *testing.T) {
	e := indicators.New(4, nil, nil)
	_, err := e.ComputeSeries(nil, map[string]indicators.Config{"sma": {}}, "1h")
	assert.Error(t, err)
}

func TestComputeSeriesSnapshotIsLastNonNil(t *testing.T) {
	e := indicators.New(4, nil, nil)
	bars := closeSeries(1, 2, 3, 4, 5)

	res, err := e.ComputeSeries(bars, map[string]indicators.Config{"sma": {"period": 3}}, "1h")
	assert.NoError(t, err)
	assert.NotNil(t, res.Snapshot["sma"])
	assert.InDelta(t, 4.0, *res.Snapshot["sma"], 0.0001)
}

func TestTrimDropsLeadingBars(t *testing.T) {
	e := indicators.New(4, nil, nil)
	bars := closeSeries(1, 2, 3, 4, 5)

	res, err := e.ComputeSeries(bars, map[string]indicators.Config{"sma": {"period": 3}}, "1h")
	assert.NoError(t, err)

	trimmed := indicators.Trim(res, 2)
	assert.Len(t, trimmed.Series["sma"], 2)
	assert.Equal(t, 2, trimmed.Metadata.RequestedBars)
}

func TestTimeSeriesFiltersNilsAndWindows(t *testing.T) {
	e := indicators.New(4, nil, nil)
	bars := closeSeries(1, 2, 3, 4, 5)

	res, err := e.ComputeSeries(bars, map[string]indicators.Config{"sma": {"period": 3}}, "1h")
	assert.NoError(t, err)

	ts, vs, err := indicators.TimeSeries(res, "sma", 0, 2)
	assert.NoError(t, err)
	assert.Len(t, ts, 2)
	assert.Len(t, vs, 2)
	assert.InDelta(t, 4.0, vs[1], 0.0001)

	_, _, err = indicators.TimeSeries(res, "bogus", 0, 0)
	assert.Error(t, err)
}

func TestResolveMergesUserConfigOverDefaults(t *testing.T) {
	calc, cfg, spec, ok := indicators.Resolve("ema", indicators.Config{"period": 5})
	assert.True(t, ok)
	assert.NotNil(t, calc)
	assert.Equal(t, 5, cfg["period"])
	assert.Equal(t, []string{"ema"}, spec.OutputKeys)
}

func TestResolveUnknownKey(t *testing.T) {
	_, _, _, ok := indicators.Resolve("does_not_exist", nil)
	assert.False(t, ok)
}
