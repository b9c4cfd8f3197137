package marketdata_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/atlas-desktop/midasgw/internal/cachestore"
	"github.com/atlas-desktop/midasgw/internal/exchange"
	"github.com/atlas-desktop/midasgw/internal/marketdata"
	"github.com/atlas-desktop/midasgw/internal/segmentcache"
	"github.com/atlas-desktop/midasgw/pkg/candle"
	"github.com/atlas-desktop/midasgw/pkg/timeframe"
)

const hourMs = int64(3_600_000)

func bar(ts int64, price float64) candle.Candle {
	d := decimal.NewFromFloat(price)
	return candle.Candle{Symbol: "BTC/USDT", Timestamp: ts, Open: d, High: d, Low: d, Close: d, Volume: decimal.NewFromInt(1)}
}

// fakeClient is a scripted exchange.Client: FetchCandles always returns
// the full bars slice it was seeded with, trimmed to count from the end.
type fakeClient struct {
	bars     []candle.Candle
	maxLimit int
	calls    int
}

func (f *fakeClient) FetchCandles(ctx context.Context, symbol string, tf timeframe.Timeframe, count int, from, to *int64) ([]candle.Candle, error) {
	f.calls++
	out := f.bars
	if to != nil {
		filtered := make([]candle.Candle, 0, len(out))
		for _, c := range out {
			if c.Timestamp <= *to {
				filtered = append(filtered, c)
			}
		}
		out = filtered
	}
	if len(out) > count {
		out = out[len(out)-count:]
	}
	return out, nil
}

func (f *fakeClient) GetPrice(ctx context.Context, symbol string) (float64, error) { return 0, nil }
func (f *fakeClient) ListPairs(ctx context.Context, filter exchange.PairFilter) ([]exchange.PairInfo, error) {
	return nil, nil
}
func (f *fakeClient) MaxLimit() int { return f.maxLimit }

func newCacheEngine() *segmentcache.Engine {
	store := cachestore.NewMemoryStore()
	return segmentcache.New(context.Background(), store, segmentcache.Config{
		KeyPrefix: "test:", TTLSeconds: 300, MaxEntriesPerKey: 1000,
	}, zap.NewNop(), nil)
}

func seeded(n int) []candle.Candle {
	bars := make([]candle.Candle, n)
	for i := 0; i < n; i++ {
		bars[i] = bar(int64(i)*hourMs, 100+float64(i))
	}
	return bars
}

func TestLoadOHLCVRejectsInvalidCount(t *testing.T) {
	p := marketdata.New(&fakeClient{maxLimit: 1000}, nil, 0, zap.NewNop())
	_, err := p.LoadOHLCV(context.Background(), "BTC/USDT", timeframe.H1, 0, marketdata.Options{})
	assert.Error(t, err)
}

func TestLoadOHLCVRejectsUnknownTimeframe(t *testing.T) {
	p := marketdata.New(&fakeClient{maxLimit: 1000}, nil, 0, zap.NewNop())
	_, err := p.LoadOHLCV(context.Background(), "BTC/USDT", timeframe.Timeframe("7m"), 5, marketdata.Options{})
	assert.Error(t, err)
}

func TestLoadOHLCVFetchesFromUpstreamWhenCacheDisabled(t *testing.T) {
	client := &fakeClient{bars: seeded(20), maxLimit: 1000}
	p := marketdata.New(client, nil, 0, zap.NewNop())

	res, err := p.LoadOHLCV(context.Background(), "BTC/USDT", timeframe.H1, 10, marketdata.Options{UseCache: false})
	assert.NoError(t, err)
	assert.Len(t, res.Bars, 10)
	assert.False(t, res.FromCache)
	assert.Equal(t, 1, client.calls)
}

func TestLoadOHLCVWritesThroughAndServesFromCacheOnSecondCall(t *testing.T) {
	client := &fakeClient{bars: seeded(20), maxLimit: 1000}
	cache := newCacheEngine()
	p := marketdata.New(client, cache, 0, zap.NewNop())
	ctx := context.Background()

	first, err := p.LoadOHLCV(ctx, "BTC/USDT", timeframe.H1, 10, marketdata.Options{UseCache: true})
	assert.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, 1, client.calls)

	to := first.LastTimestamp
	second, err := p.LoadOHLCV(ctx, "BTC/USDT", timeframe.H1, 10, marketdata.Options{UseCache: true, To: &to})
	assert.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, 1, client.calls, "second call should be served entirely from cache")
}

func TestLoadOHLCVBatchesUpstreamFetchWhenCountExceedsLimit(t *testing.T) {
	client := &fakeClient{bars: seeded(25), maxLimit: 10}
	p := marketdata.New(client, nil, 0, zap.NewNop())

	res, err := p.LoadOHLCV(context.Background(), "BTC/USDT", timeframe.H1, 25, marketdata.Options{UseCache: false})
	assert.NoError(t, err)
	assert.Len(t, res.Bars, 25)
	assert.GreaterOrEqual(t, client.calls, 3)
}

func TestLoadOHLCVDetectsGaps(t *testing.T) {
	bars := []candle.Candle{bar(0, 100), bar(hourMs, 101), bar(4*hourMs, 104)}
	client := &fakeClient{bars: bars, maxLimit: 1000}
	p := marketdata.New(client, nil, 0, zap.NewNop())

	res, err := p.LoadOHLCV(context.Background(), "BTC/USDT", timeframe.H1, 3, marketdata.Options{UseCache: false, DetectGaps: true})
	assert.NoError(t, err)
	assert.Len(t, res.Gaps, 1)
	assert.Equal(t, hourMs, res.Gaps[0].Before)
	assert.Equal(t, 4*hourMs, res.Gaps[0].After)
	assert.Equal(t, int64(2), res.Gaps[0].ExpectedBars)
}

func TestLoadOHLCVAsOfClippingRejectsInsufficientHistory(t *testing.T) {
	client := &fakeClient{bars: seeded(5), maxLimit: 1000}
	p := marketdata.New(client, nil, 0, zap.NewNop())

	asOf := int64(1) * hourMs
	_, err := p.LoadOHLCV(context.Background(), "BTC/USDT", timeframe.H1, 5, marketdata.Options{UseCache: false, AsOf: &asOf})
	assert.Error(t, err)
}
