package exchange

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atlas-desktop/midasgw/internal/apperr"
	"github.com/atlas-desktop/midasgw/pkg/candle"
	"github.com/atlas-desktop/midasgw/pkg/timeframe"
	"github.com/atlas-desktop/midasgw/pkg/utils"
	"github.com/shopspring/decimal"
)

// Config configures the HTTP exchange client.
type Config struct {
	BaseURL  string
	MaxLimit int
	Timeout  time.Duration
}

// DefaultConfig returns the client's default configuration, pointed at
// Binance's public spot API.
func DefaultConfig() Config {
	return Config{
		BaseURL:  "https://api.binance.com/api/v3",
		MaxLimit: 1500,
		Timeout:  15 * time.Second,
	}
}

// HTTPClient is the net/http-backed Client implementation.
type HTTPClient struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
	retry  utils.RetryConfig
}

// New builds an HTTPClient.
func New(cfg Config, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
		retry:  utils.DefaultRetryConfig(),
	}
}

func (c *HTTPClient) MaxLimit() int { return c.cfg.MaxLimit }

var tfToBinance = map[timeframe.Timeframe]string{
	timeframe.M1:  "1m",
	timeframe.M3:  "3m",
	timeframe.M5:  "5m",
	timeframe.M15: "15m",
	timeframe.M30: "30m",
	timeframe.H1:  "1h",
	timeframe.H2:  "2h",
	timeframe.H4:  "4h",
	timeframe.H6:  "6h",
	timeframe.H8:  "8h",
	timeframe.H12: "12h",
	timeframe.D1:  "1d",
	timeframe.D3:  "3d",
	timeframe.W1:  "1w",
	timeframe.Mo1: "1M",
}

// FetchCandles implements Client.
func (c *HTTPClient) FetchCandles(ctx context.Context, symbol string, tf timeframe.Timeframe, count int, from, to *int64) ([]candle.Candle, error) {
	if symbol == "" {
		return nil, apperr.New(apperr.InvalidInput, "symbol is required")
	}
	if count < 1 {
		return nil, apperr.New(apperr.InvalidInput, "count must be >= 1")
	}
	if !timeframe.Valid(tf) {
		return nil, apperr.New(apperr.InvalidInput, fmt.Sprintf("unsupported timeframe %q", tf))
	}
	interval, ok := tfToBinance[tf]
	if !ok {
		return nil, apperr.New(apperr.InvalidInput, fmt.Sprintf("unsupported timeframe %q", tf))
	}
	if count > c.cfg.MaxLimit {
		count = c.cfg.MaxLimit
	}

	symbol = utils.CompactSymbol(utils.FormatSymbol(symbol))

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(count))
	if from != nil {
		params.Set("startTime", strconv.FormatInt(*from, 10))
	}
	if to != nil {
		params.Set("endTime", strconv.FormatInt(*to, 10))
	}

	body, err := c.doGet(ctx, "/klines", params)
	if err != nil {
		return nil, err
	}

	var raw [][]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, apperr.Wrap(apperr.InvalidOHLC, "decoding klines response", err)
	}

	candles := make([]candle.Candle, 0, len(raw))
	for _, row := range raw {
		bar, err := parseKline(symbol, row)
		if err != nil {
			return nil, apperr.Wrap(apperr.InvalidOHLC, "parsing kline row", err)
		}
		if err := bar.Validate(); err != nil {
			return nil, apperr.Wrap(apperr.InvalidOHLC, "kline failed OHLC invariant", err)
		}
		candles = append(candles, bar)
	}
	candle.SortByTimestamp(candles)
	return candles, nil
}

func parseKline(symbol string, row []json.RawMessage) (candle.Candle, error) {
	if len(row) < 6 {
		return candle.Candle{}, fmt.Errorf("kline row has %d fields, want >= 6", len(row))
	}
	var openTime int64
	if err := json.Unmarshal(row[0], &openTime); err != nil {
		return candle.Candle{}, err
	}
	open, err := decimalField(row[1])
	if err != nil {
		return candle.Candle{}, err
	}
	high, err := decimalField(row[2])
	if err != nil {
		return candle.Candle{}, err
	}
	low, err := decimalField(row[3])
	if err != nil {
		return candle.Candle{}, err
	}
	closeP, err := decimalField(row[4])
	if err != nil {
		return candle.Candle{}, err
	}
	vol, err := decimalField(row[5])
	if err != nil {
		return candle.Candle{}, err
	}
	return candle.Candle{
		Symbol:    symbol,
		Timestamp: openTime,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closeP,
		Volume:    vol,
	}, nil
}

func decimalField(raw json.RawMessage) (decimal.Decimal, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return decimal.NewFromString(s)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromFloat(f), nil
}

// GetPrice implements Client.
func (c *HTTPClient) GetPrice(ctx context.Context, symbol string) (float64, error) {
	if symbol == "" {
		return 0, apperr.New(apperr.InvalidInput, "symbol is required")
	}
	params := url.Values{}
	params.Set("symbol", utils.CompactSymbol(utils.FormatSymbol(symbol)))

	body, err := c.doGet(ctx, "/ticker/price", params)
	if err != nil {
		return 0, err
	}
	var resp struct {
		Price string `json:"price"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, apperr.Wrap(apperr.Internal, "decoding ticker response", err)
	}
	price, err := strconv.ParseFloat(resp.Price, 64)
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, "parsing ticker price", err)
	}
	return price, nil
}

// ListPairs implements Client.
func (c *HTTPClient) ListPairs(ctx context.Context, filter PairFilter) ([]PairInfo, error) {
	body, err := c.doGet(ctx, "/exchangeInfo", url.Values{})
	if err != nil {
		return nil, err
	}
	var resp struct {
		Symbols []struct {
			Symbol      string   `json:"symbol"`
			BaseAsset   string   `json:"baseAsset"`
			QuoteAsset  string   `json:"quoteAsset"`
			Status      string   `json:"status"`
			Permissions []string `json:"permissions"`
		} `json:"symbols"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "decoding exchangeInfo response", err)
	}

	out := make([]PairInfo, 0, len(resp.Symbols))
	for _, s := range resp.Symbols {
		if filter.QuoteAsset != "" && !strings.EqualFold(s.QuoteAsset, filter.QuoteAsset) {
			continue
		}
		if filter.BaseAsset != "" && !strings.EqualFold(s.BaseAsset, filter.BaseAsset) {
			continue
		}
		if filter.Status != "" && !strings.EqualFold(s.Status, filter.Status) {
			continue
		}
		if len(filter.Permissions) > 0 && !hasAnyPermission(s.Permissions, filter.Permissions) {
			continue
		}
		out = append(out, PairInfo{
			Symbol:      s.Symbol,
			BaseAsset:   s.BaseAsset,
			QuoteAsset:  s.QuoteAsset,
			Status:      s.Status,
			Permissions: s.Permissions,
		})
	}
	return out, nil
}

func hasAnyPermission(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}

// doGet issues a GET request with the gateway's retry policy, returning
// the response body on a 2xx status.
func (c *HTTPClient) doGet(ctx context.Context, path string, params url.Values) ([]byte, error) {
	fullURL := c.cfg.BaseURL + path
	if encoded := params.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	body, err := utils.Retry(c.retry, isRetryable, jitterFull, func(d time.Duration) {
		if d <= 0 {
			return
		}
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	}, func(attempt int) ([]byte, error) {
		return c.doOnce(ctx, fullURL, attempt)
	})
	if err != nil {
		c.logger.Warn("exchange request failed", zap.String("url", fullURL), zap.Error(err))
	}
	return body, err
}

func (c *HTTPClient) doOnce(ctx context.Context, fullURL string, attempt int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "building request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperr.Wrap(apperr.Timeout, "exchange call canceled", err)
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, apperr.Wrap(apperr.Timeout, "exchange call timed out", err)
		}
		return nil, apperr.Wrap(apperr.Upstream, "exchange call failed", err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, apperr.Wrap(apperr.Upstream, "reading exchange response", readErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperr.WrapUpstream(resp.StatusCode, string(body))
	}
	return body, nil
}

// isRetryable classifies the retryable error classes per the gateway's
// retry policy: transport timeout, DNS, connection refused, and
// 429/5xx upstream statuses.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if apperr.Is(err, apperr.Timeout) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	if apperr.Is(err, apperr.Upstream) {
		var e *apperr.Error
		if errors.As(err, &e) {
			switch e.Status {
			case 429, 500, 502, 503, 504:
				return true
			}
		}
	}
	return false
}

// jitterFull returns a uniform random duration in [0, n), using crypto
// rand so the gateway has no global PRNG to seed.
func jitterFull(n time.Duration) time.Duration {
	if n <= 0 {
		return 0
	}
	max := big.NewInt(int64(n))
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return n
	}
	return time.Duration(v.Int64())
}
