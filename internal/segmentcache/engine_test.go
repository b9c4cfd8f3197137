package segmentcache_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/atlas-desktop/midasgw/internal/cachestore"
	"github.com/atlas-desktop/midasgw/internal/segmentcache"
	"github.com/atlas-desktop/midasgw/pkg/candle"
	"github.com/atlas-desktop/midasgw/pkg/timeframe"
)

func bar(ts int64, price float64) candle.Candle {
	d := decimal.NewFromFloat(price)
	return candle.Candle{Symbol: "BTC/USDT", Timestamp: ts, Open: d, High: d, Low: d, Close: d, Volume: decimal.NewFromInt(1)}
}

func newEngine(t *testing.T) *segmentcache.Engine {
	t.Helper()
	store := cachestore.NewMemoryStore()
	return segmentcache.New(context.Background(), store, segmentcache.Config{
		KeyPrefix: "test:", TTLSeconds: 300, MaxEntriesPerKey: 100,
	}, zap.NewNop(), nil)
}

func TestEngineGetMissesWhenEmpty(t *testing.T) {
	e := newEngine(t)
	res, err := e.Get(context.Background(), "BTC/USDT", timeframe.H1, 10, nil)
	assert.NoError(t, err)
	assert.Equal(t, segmentcache.CoverageNone, res.Coverage)
	assert.NotNil(t, res.Missing)
}

func TestEngineSetThenFullCoverage(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	hour := int64(3_600_000)

	bars := make([]candle.Candle, 0, 10)
	for i := int64(0); i < 10; i++ {
		bars = append(bars, bar(i*hour, 100+float64(i)))
	}
	assert.NoError(t, e.Set(ctx, "BTC/USDT", timeframe.H1, bars))

	end := 9 * hour
	res, err := e.Get(ctx, "BTC/USDT", timeframe.H1, 10, &end)
	assert.NoError(t, err)
	assert.Equal(t, segmentcache.CoverageFull, res.Coverage)
	assert.Len(t, res.Bars, 10)
}

func TestEnginePartialCoverageReportsGap(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	hour := int64(3_600_000)

	bars := make([]candle.Candle, 0, 5)
	for i := int64(5); i < 10; i++ {
		bars = append(bars, bar(i*hour, 100+float64(i)))
	}
	assert.NoError(t, e.Set(ctx, "BTC/USDT", timeframe.H1, bars))

	end := 9 * hour
	res, err := e.Get(ctx, "BTC/USDT", timeframe.H1, 10, &end)
	assert.NoError(t, err)
	assert.Equal(t, segmentcache.CoveragePartial, res.Coverage)
	assert.NotNil(t, res.Missing.Before)
}

func TestEngineMergeOnWriteExtendsSegment(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	hour := int64(3_600_000)

	assert.NoError(t, e.Set(ctx, "BTC/USDT", timeframe.H1, []candle.Candle{bar(0, 100), bar(hour, 101)}))
	assert.NoError(t, e.Set(ctx, "BTC/USDT", timeframe.H1, []candle.Candle{bar(2*hour, 102)}))

	end := 2 * hour
	res, err := e.Get(ctx, "BTC/USDT", timeframe.H1, 3, &end)
	assert.NoError(t, err)
	assert.Equal(t, segmentcache.CoverageFull, res.Coverage)
	assert.Len(t, res.Bars, 3)
}

func TestEngineClearRemovesSegment(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	assert.NoError(t, e.Set(ctx, "BTC/USDT", timeframe.H1, []candle.Candle{bar(0, 100)}))
	assert.NoError(t, e.Clear(ctx, "BTC/USDT", string(timeframe.H1)))

	res, err := e.Get(ctx, "BTC/USDT", timeframe.H1, 1, nil)
	assert.NoError(t, err)
	assert.Equal(t, segmentcache.CoverageNone, res.Coverage)
}

func TestEngineStatsReportsHitsAndMisses(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, _ = e.Get(ctx, "BTC/USDT", timeframe.H1, 1, nil) // miss
	assert.NoError(t, e.Set(ctx, "BTC/USDT", timeframe.H1, []candle.Candle{bar(0, 100)}))
	end := int64(0)
	_, _ = e.Get(ctx, "BTC/USDT", timeframe.H1, 1, &end) // hit

	snap, err := e.Stats(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), snap.Stats.Misses)
	assert.Equal(t, int64(1), snap.Stats.Hits)
	assert.Len(t, snap.Segments, 1)
}
