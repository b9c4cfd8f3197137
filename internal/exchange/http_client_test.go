package exchange_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/atlas-desktop/midasgw/internal/exchange"
	"github.com/atlas-desktop/midasgw/pkg/timeframe"
)

func klineRow(openTime int64, o, h, l, c, v string) []interface{} {
	return []interface{}{openTime, o, h, l, c, v, openTime + 3_600_000, "0", 0, "0", "0", "0"}
}

func TestFetchCandlesParsesKlines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/klines", r.URL.Path)
		assert.Equal(t, "1h", r.URL.Query().Get("interval"))
		rows := [][]interface{}{
			klineRow(0, "100", "110", "95", "105", "10"),
			klineRow(3_600_000, "105", "115", "100", "110", "12"),
		}
		_ = json.NewEncoder(w).Encode(rows)
	}))
	defer srv.Close()

	client := exchange.New(exchange.Config{BaseURL: srv.URL, MaxLimit: 1000, Timeout: 5 * time.Second}, zap.NewNop())
	bars, err := client.FetchCandles(context.Background(), "BTC/USDT", timeframe.H1, 2, nil, nil)
	assert.NoError(t, err)
	assert.Len(t, bars, 2)
	assert.Equal(t, 105.0, bars[0].CloseF())
	assert.Equal(t, int64(3_600_000), bars[1].Timestamp)
}

func TestFetchCandlesRejectsUnknownTimeframe(t *testing.T) {
	client := exchange.New(exchange.Config{BaseURL: "http://unused", MaxLimit: 1000, Timeout: time.Second}, zap.NewNop())
	_, err := client.FetchCandles(context.Background(), "BTC/USDT", timeframe.Timeframe("9m"), 1, nil, nil)
	assert.Error(t, err)
}

func TestFetchCandlesRejectsInvalidOHLCRow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rows := [][]interface{}{klineRow(0, "100", "90", "95", "105", "10")} // high below body
		_ = json.NewEncoder(w).Encode(rows)
	}))
	defer srv.Close()

	client := exchange.New(exchange.Config{BaseURL: srv.URL, MaxLimit: 1000, Timeout: 5 * time.Second}, zap.NewNop())
	_, err := client.FetchCandles(context.Background(), "BTC/USDT", timeframe.H1, 1, nil, nil)
	assert.Error(t, err)
}

func TestFetchCandlesSurfacesUpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer srv.Close()

	client := exchange.New(exchange.Config{BaseURL: srv.URL, MaxLimit: 1000, Timeout: 5 * time.Second}, zap.NewNop())
	_, err := client.FetchCandles(context.Background(), "BTC/USDT", timeframe.H1, 1, nil, nil)
	assert.Error(t, err)
}

func TestGetPriceParsesTickerResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ticker/price", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{"price": "42000.5"})
	}))
	defer srv.Close()

	client := exchange.New(exchange.Config{BaseURL: srv.URL, MaxLimit: 1000, Timeout: 5 * time.Second}, zap.NewNop())
	price, err := client.GetPrice(context.Background(), "BTC/USDT")
	assert.NoError(t, err)
	assert.Equal(t, 42000.5, price)
}

func TestListPairsFiltersByQuoteAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"symbols": []map[string]interface{}{
				{"symbol": "BTCUSDT", "baseAsset": "BTC", "quoteAsset": "USDT", "status": "TRADING", "permissions": []string{"SPOT"}},
				{"symbol": "ETHBTC", "baseAsset": "ETH", "quoteAsset": "BTC", "status": "TRADING", "permissions": []string{"SPOT"}},
			},
		})
	}))
	defer srv.Close()

	client := exchange.New(exchange.Config{BaseURL: srv.URL, MaxLimit: 1000, Timeout: 5 * time.Second}, zap.NewNop())
	pairs, err := client.ListPairs(context.Background(), exchange.PairFilter{QuoteAsset: "USDT"})
	assert.NoError(t, err)
	assert.Len(t, pairs, 1)
	assert.Equal(t, "BTCUSDT", pairs[0].Symbol)
}

func TestMaxLimitReflectsConfig(t *testing.T) {
	client := exchange.New(exchange.Config{BaseURL: "http://unused", MaxLimit: 777, Timeout: time.Second}, zap.NewNop())
	assert.Equal(t, 777, client.MaxLimit())
}
