package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/atlas-desktop/midasgw/internal/api"
	"github.com/atlas-desktop/midasgw/internal/cachestore"
	"github.com/atlas-desktop/midasgw/internal/exchange"
	"github.com/atlas-desktop/midasgw/internal/indicators"
	"github.com/atlas-desktop/midasgw/internal/marketdata"
	"github.com/atlas-desktop/midasgw/internal/mtf"
	"github.com/atlas-desktop/midasgw/internal/regime"
	"github.com/atlas-desktop/midasgw/internal/segmentcache"
	"github.com/atlas-desktop/midasgw/pkg/candle"
	"github.com/atlas-desktop/midasgw/pkg/timeframe"
)

// trendingClient synthesizes a steadily rising candle series for any
// requested timeframe, spaced by that timeframe's own duration.
type trendingClient struct{}

func (trendingClient) FetchCandles(ctx context.Context, symbol string, tf timeframe.Timeframe, count int, from, to *int64) ([]candle.Candle, error) {
	tfMs, err := timeframe.DurationMs(tf)
	if err != nil {
		return nil, err
	}
	bars := make([]candle.Candle, count)
	for i := 0; i < count; i++ {
		price := 100 + float64(i)*0.5
		d := decimal.NewFromFloat(price)
		bars[i] = candle.Candle{
			Symbol: symbol, Timestamp: int64(i) * tfMs,
			Open: d, High: d.Add(decimal.NewFromInt(1)), Low: d.Sub(decimal.NewFromInt(1)),
			Close: d, Volume: decimal.NewFromInt(10),
		}
	}
	return bars, nil
}

func (trendingClient) GetPrice(ctx context.Context, symbol string) (float64, error) { return 0, nil }
func (trendingClient) ListPairs(ctx context.Context, filter exchange.PairFilter) ([]exchange.PairInfo, error) {
	return nil, nil
}
func (trendingClient) MaxLimit() int { return 1000 }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := cachestore.NewMemoryStore()
	cache := segmentcache.New(context.Background(), store, segmentcache.Config{
		KeyPrefix: "test:", TTLSeconds: 300, MaxEntriesPerKey: 10000,
	}, zap.NewNop(), nil)
	provider := marketdata.New(trendingClient{}, cache, 0, zap.NewNop())
	engine := indicators.New(4, nil, nil)
	detector := regime.New(regime.DefaultConfig(), zap.NewNop())
	orchestrator := mtf.New(provider, engine, detector, 120, zap.NewNop())

	s := api.NewServer(api.Config{Host: "127.0.0.1", Port: 0}, api.Deps{
		MarketData: provider, Indicators: engine, Regime: detector,
		Orchestrator: orchestrator, Cache: cache, Precision: 4,
	}, zap.NewNop())

	return httptest.NewServer(s.Handler())
}

func decodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	decodeJSON(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestOHLCVRequiresSymbol(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ohlcv?timeframe=1h")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body map[string]interface{}
	decodeJSON(t, resp, &body)
	assert.Equal(t, false, body["success"])
}

func TestOHLCVReturnsBars(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ohlcv?symbol=BTC/USDT&timeframe=1h&count=50")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body marketdata.Result
	decodeJSON(t, resp, &body)
	assert.Len(t, body.Bars, 50)
}

func TestIndicatorRejectsUnknownName(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/indicators/not_real?symbol=BTC/USDT&timeframe=1h")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIndicatorReturnsSeries(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/indicators/sma?symbol=BTC/USDT&timeframe=1h&bars=60")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body indicators.SeriesResult
	decodeJSON(t, resp, &body)
	assert.Contains(t, body.Series, "sma")
}

func TestRegimeClassifiesSymbol(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/regime?symbol=BTC/USDT&timeframe=1h&count=120")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var cls regime.Classification
	decodeJSON(t, resp, &cls)
	assert.Equal(t, regime.DirectionBullish, cls.Direction)
}

func TestContextEnrichedComposesTimeframes(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/context/enriched?symbol=BTC/USDT&long=1d&short=1h")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	decodeJSON(t, resp, &body)
	assert.Equal(t, "BTC/USDT", body["symbol"])
	assert.NotNil(t, body["trading_context"])
}

func TestContextMTFQuickRequiresTwoTimeframes(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/context/mtf-quick?symbol=BTC/USDT&short=1h")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCacheStatsAndDelete(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	// Warm the cache first via an OHLCV read.
	_, err := http.Get(srv.URL + "/ohlcv?symbol=BTC/USDT&timeframe=1h&count=10")
	assert.NoError(t, err)

	resp, err := http.Get(srv.URL + "/cache/stats")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var stats segmentcache.StatsSnapshot
	decodeJSON(t, resp, &stats)
	assert.NotEmpty(t, stats.Segments)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/cache?symbol=BTC/USDT&timeframe=1h", nil)
	assert.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, delResp.StatusCode)
}

func TestBacktestReplaysRegimeAcrossWindow(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	body := `{"symbol":"BTC/USDT","timeframe":"1h","startDate":"1970-01-01T00:00:00Z","endDate":"1970-01-04T12:00:00Z","strategy":"trend_following"}`
	resp, err := http.Post(srv.URL+"/backtest", "application/json", strings.NewReader(body))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
