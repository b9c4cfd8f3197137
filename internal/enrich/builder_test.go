package enrich_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/atlas-desktop/midasgw/internal/enrich"
	"github.com/atlas-desktop/midasgw/internal/indicators"
	"github.com/atlas-desktop/midasgw/pkg/candle"
)

func seededCandles(n int) []candle.Candle {
	bars := make([]candle.Candle, n)
	for i := 0; i < n; i++ {
		price := 100 + float64(i%10)
		d := decimal.NewFromFloat(price)
		bars[i] = candle.Candle{
			Symbol: "BTC/USDT", Timestamp: int64(i) * 3_600_000,
			Open: d, High: d.Add(decimal.NewFromInt(1)), Low: d.Sub(decimal.NewFromInt(1)),
			Close: d, Volume: decimal.NewFromInt(10),
		}
	}
	return bars
}

func TestBuildSeriesProducesEveryAlias(t *testing.T) {
	engine := indicators.New(4, nil, nil)
	bars := seededCandles(60)

	flat, err := enrich.BuildSeries(engine, bars, "1h")
	assert.NoError(t, err)

	for _, alias := range []string{
		"ema_12", "ema_26", "ema_50", "ema_200", "sma_20", "sma_50", "rsi",
		"roc_5", "roc_10", "atr_short", "atr_long", "obv", "vwap", "efficiency_ratio",
		"macd", "macd_signal", "macd_histogram", "stoch_k", "stoch_d",
		"bb_upper", "bb_middle", "bb_lower", "bb_width", "adx", "plus_di", "minus_di",
	} {
		series, ok := flat[alias]
		assert.True(t, ok, "missing alias %q", alias)
		assert.Len(t, series, 60, "alias %q", alias)
	}
}

func TestBuildSeriesShortEMAWarmsUpBeforeLong(t *testing.T) {
	engine := indicators.New(4, nil, nil)
	bars := seededCandles(60)

	flat, err := enrich.BuildSeries(engine, bars, "1h")
	assert.NoError(t, err)

	ema12 := flat["ema_12"]
	ema200 := flat["ema_200"]
	assert.NotNil(t, ema12[59])
	assert.Nil(t, ema200[59], "200-period ema should still be warming up over only 60 bars")
}
