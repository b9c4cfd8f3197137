package utils_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/atlas-desktop/midasgw/pkg/utils"
)

func TestFormatSymbol(t *testing.T) {
	assert.Equal(t, "BTC/USDT", utils.FormatSymbol("btcusdt"))
	assert.Equal(t, "BTC/USDT", utils.FormatSymbol("btc-usdt"))
	assert.Equal(t, "BTC/USDT", utils.FormatSymbol("BTC_USDT"))
	assert.Equal(t, "BTC/USDT", utils.FormatSymbol(" BTC/USDT "))
}

func TestCompactSymbol(t *testing.T) {
	assert.Equal(t, "BTCUSDT", utils.CompactSymbol("BTC/USDT"))
}

func TestClampFloat(t *testing.T) {
	assert.Equal(t, 0.0, utils.ClampFloat(-5, 0, 1))
	assert.Equal(t, 1.0, utils.ClampFloat(5, 0, 1))
	assert.Equal(t, 0.5, utils.ClampFloat(0.5, 0, 1))
}

func TestRoundFloat(t *testing.T) {
	assert.Equal(t, 1.23, utils.RoundFloat(1.2345, 2))
	assert.Equal(t, 1.0, utils.RoundFloat(0.9999, 0))
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, utils.Median(nil))
	assert.Equal(t, 2.0, utils.Median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, utils.Median([]float64{1, 2, 3, 4}))
}

func TestEMATracksKnownSequence(t *testing.T) {
	ema := utils.NewEMA(3)
	assert.Equal(t, 10.0, ema.Add(10))
	v := ema.Add(20)
	assert.InDelta(t, 15.0, v, 0.001)
	assert.Equal(t, 2, ema.Count())
}

func TestSMAWindow(t *testing.T) {
	sma := utils.NewSMA(2)
	sma.Add(10)
	v := sma.Add(20)
	assert.Equal(t, 15.0, v)
	v = sma.Add(30)
	assert.Equal(t, 25.0, v)
	assert.Equal(t, 2, sma.Count())
}

func TestRetryStopsOnSuccess(t *testing.T) {
	cfg := utils.DefaultRetryConfig()
	attempts := 0
	result, err := utils.Retry(cfg, nil, func(d time.Duration) time.Duration { return 0 }, func(time.Duration) {}, func(attempt int) (int, error) {
		attempts++
		if attempt < 2 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 2, attempts)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	cfg := utils.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2}
	attempts := 0
	_, err := utils.Retry(cfg, nil, func(d time.Duration) time.Duration { return 0 }, func(time.Duration) {}, func(attempt int) (int, error) {
		attempts++
		return 0, errors.New("boom")
	})
	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
}
