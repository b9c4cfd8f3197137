// Package marketdata composes ExchangeClient and SegmentCache into the
// gateway's single OHLCV load path: cache-first reads, batched
// upstream back-fill, cleaning, gap detection, and write-through.
package marketdata

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/atlas-desktop/midasgw/internal/apperr"
	"github.com/atlas-desktop/midasgw/internal/exchange"
	"github.com/atlas-desktop/midasgw/internal/segmentcache"
	"github.com/atlas-desktop/midasgw/pkg/candle"
	"github.com/atlas-desktop/midasgw/pkg/timeframe"
)

// Gap is one detected hole in a candle series.
type Gap struct {
	Before       int64 `json:"before"`
	After        int64 `json:"after"`
	ExpectedBars int64 `json:"expected_bars"`
}

// Result is the return shape of LoadOHLCV.
type Result struct {
	Symbol         string          `json:"symbol"`
	Timeframe      timeframe.Timeframe `json:"timeframe"`
	Count          int             `json:"count"`
	Bars           []candle.Candle `json:"bars"`
	FirstTimestamp int64           `json:"first_timestamp"`
	LastTimestamp  int64           `json:"last_timestamp"`
	AnalysisDate   int64           `json:"analysis_date"`
	Gaps           []Gap           `json:"gaps"`
	GapCount       int             `json:"gap_count"`
	FromCache      bool            `json:"from_cache"`
	LoadDurationMs int64           `json:"load_duration_ms"`
	LoadedAt       int64           `json:"loaded_at"`
}

// Options configures a single LoadOHLCV call.
type Options struct {
	From        *int64
	To          *int64
	AsOf        *int64
	UseCache    bool
	DetectGaps  bool
}

// Provider is the MarketDataProvider.
type Provider struct {
	exchange      exchange.Client
	cache         *segmentcache.Engine
	maxDataPoints int
	logger        *zap.Logger
}

// New builds a Provider. cache may be nil to disable caching entirely.
func New(client exchange.Client, cache *segmentcache.Engine, maxDataPoints int, logger *zap.Logger) *Provider {
	return &Provider{exchange: client, cache: cache, maxDataPoints: maxDataPoints, logger: logger}
}

// LoadOHLCV implements the provider's documented eight-step contract.
func (p *Provider) LoadOHLCV(ctx context.Context, symbol string, tf timeframe.Timeframe, count int, opts Options) (Result, error) {
	start := time.Now()

	if count < 1 {
		return Result{}, apperr.New(apperr.InvalidInput, "count must be >= 1")
	}
	if symbol == "" {
		return Result{}, apperr.New(apperr.InvalidInput, "symbol is required")
	}
	if !timeframe.Valid(tf) {
		return Result{}, apperr.New(apperr.InvalidInput, "unsupported timeframe")
	}
	tfMs, err := timeframe.DurationMs(tf)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.InvalidInput, "invalid timeframe", err)
	}

	to := opts.To
	if opts.AsOf != nil {
		to = opts.AsOf
	}

	var bars []candle.Candle
	fromCache := false

	if opts.UseCache && p.cache != nil {
		cov, err := p.cache.Get(ctx, symbol, tf, count, to)
		if err != nil {
			return Result{}, err
		}
		switch cov.Coverage {
		case segmentcache.CoverageFull:
			bars = cov.Bars
			fromCache = true
		case segmentcache.CoveragePartial:
			p.logger.Info("partial cache hit, refetching from upstream",
				zap.String("symbol", symbol), zap.String("timeframe", string(tf)))
		}
	}

	if !fromCache {
		bars, err = p.fetchFromUpstream(ctx, symbol, tf, count, opts.From, to, tfMs)
		if err != nil {
			return Result{}, err
		}
	}

	bars = candle.CleanAndSort(bars)

	if opts.AsOf != nil {
		asOf := *opts.AsOf
		clipped := make([]candle.Candle, 0, len(bars))
		for _, c := range bars {
			if c.Timestamp <= asOf {
				clipped = append(clipped, c)
			}
		}
		bars = clipped
		if len(bars) < count {
			return Result{}, apperr.New(apperr.InsufficientHistory, "fewer bars than requested after as_of clipping")
		}
	}
	if len(bars) > count {
		bars = bars[len(bars)-count:]
	}

	var gaps []Gap
	if opts.DetectGaps {
		gaps = detectGaps(bars, tfMs)
	}

	if !fromCache && p.cache != nil {
		if err := p.cache.Set(ctx, symbol, tf, bars); err != nil {
			p.logger.Warn("write-through to cache failed", zap.Error(err))
		}
	}

	result := Result{
		Symbol:         symbol,
		Timeframe:      tf,
		Count:          len(bars),
		Bars:           bars,
		Gaps:           gaps,
		GapCount:       len(gaps),
		FromCache:      fromCache,
		LoadDurationMs: time.Since(start).Milliseconds(),
		LoadedAt:       time.Now().UnixMilli(),
		AnalysisDate:   time.Now().UnixMilli(),
	}
	if len(bars) > 0 {
		result.FirstTimestamp = bars[0].Timestamp
		result.LastTimestamp = bars[len(bars)-1].Timestamp
	}
	return result, nil
}

// fetchFromUpstream implements the batched back-fill algorithm: a
// single call when count fits within the batch limit, otherwise
// repeated backward calls until history is exhausted.
func (p *Provider) fetchFromUpstream(ctx context.Context, symbol string, tf timeframe.Timeframe, count int, from, to *int64, tfMs int64) ([]candle.Candle, error) {
	batchLimit := p.exchange.MaxLimit()
	if p.maxDataPoints > 0 && p.maxDataPoints < batchLimit {
		batchLimit = p.maxDataPoints
	}

	if count <= batchLimit {
		return p.exchange.FetchCandles(ctx, symbol, tf, count, from, to)
	}

	var acc []candle.Candle
	remaining := count
	currentEnd := to

	for remaining > 0 {
		batch := remaining
		if batch > batchLimit {
			batch = batchLimit
		}
		fetched, err := p.exchange.FetchCandles(ctx, symbol, tf, batch, from, currentEnd)
		if err != nil {
			return nil, err
		}
		if len(fetched) == 0 {
			break
		}
		acc = append(fetched, acc...)
		remaining -= len(fetched)

		if len(fetched) < batch {
			break // upstream history exhausted
		}
		minTs := fetched[0].Timestamp
		newEnd := minTs - tfMs
		currentEnd = &newEnd
	}
	return acc, nil
}

// detectGaps emits a {before, after, expected_bars} tuple for every
// consecutive pair whose actual spacing exceeds one bar duration.
func detectGaps(bars []candle.Candle, tfMs int64) []Gap {
	var gaps []Gap
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Timestamp
		cur := bars[i].Timestamp
		if cur > prev+tfMs {
			gaps = append(gaps, Gap{
				Before:       prev,
				After:        cur,
				ExpectedBars: (cur-prev)/tfMs - 1,
			})
		}
	}
	return gaps
}
