package segmentcache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/atlas-desktop/midasgw/internal/apperr"
	"github.com/atlas-desktop/midasgw/internal/cachestore"
	"github.com/atlas-desktop/midasgw/internal/metrics"
	"github.com/atlas-desktop/midasgw/pkg/candle"
	"github.com/atlas-desktop/midasgw/pkg/timeframe"
)

// Config configures the cache engine.
type Config struct {
	KeyPrefix        string
	TTLSeconds       int
	MaxEntriesPerKey int
}

// DefaultConfig returns the engine's documented defaults.
func DefaultConfig() Config {
	return Config{
		KeyPrefix:        "midas:cache:",
		TTLSeconds:       300,
		MaxEntriesPerKey: 10000,
	}
}

// Engine is the central SegmentCache: coverage-classified reads,
// merge-on-write, LRU-by-timestamp eviction, and cumulative stats.
type Engine struct {
	store   cachestore.Store
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.Metrics

	statsMu sync.Mutex
	stats   Stats
}

// New builds an Engine, loading any persisted (and still fresh) stats.
func New(ctx context.Context, store cachestore.Store, cfg Config, logger *zap.Logger, m *metrics.Metrics) *Engine {
	e := &Engine{store: store, cfg: cfg, logger: logger, metrics: m}
	e.stats = e.loadStats(ctx)
	return e
}

func (e *Engine) key(symbol string, tf timeframe.Timeframe) string {
	return fmt.Sprintf("%s%s:%s", e.cfg.KeyPrefix, symbol, tf)
}

func (e *Engine) loadSegment(ctx context.Context, key string) (*Segment, bool, error) {
	raw, ok, err := e.store.Get(ctx, key)
	if err != nil {
		return nil, false, apperr.Wrap(apperr.CacheUnavailable, "reading segment", err)
	}
	if !ok {
		return nil, false, nil
	}
	var seg Segment
	if err := json.Unmarshal(raw, &seg); err != nil {
		e.logger.Warn("discarding corrupt segment", zap.String("key", key), zap.Error(err))
		return nil, false, nil
	}
	return &seg, true, nil
}

// Get classifies and serves a read against the cached segment for
// (symbol, tf), per the coverage algorithm in the cache engine's spec.
func (e *Engine) Get(ctx context.Context, symbol string, tf timeframe.Timeframe, count int, end *int64) (CoverageResult, error) {
	key := e.key(symbol, tf)
	seg, ok, err := e.loadSegment(ctx, key)
	if err != nil {
		// Degrade to a miss rather than fail the caller outright.
		e.logger.Warn("cache store unavailable, degrading to miss", zap.Error(err))
		ok = false
	}

	requestedEnd := int64(0)
	if end != nil {
		requestedEnd = *end
	}

	if !ok {
		if end == nil {
			requestedEnd = nowMs()
		}
		e.bump(ctx, func(s *Stats) { s.Misses++ })
		return CoverageResult{
			Coverage: CoverageNone,
			Missing:  &MissingRange{Count: count, EndTimestamp: requestedEnd},
		}, nil
	}

	tfMs, terr := timeframe.DurationMs(tf)
	if terr != nil {
		return CoverageResult{}, apperr.Wrap(apperr.InvalidInput, "invalid timeframe", terr)
	}

	if end == nil {
		requestedEnd = seg.End
	}
	requestedStart := requestedEnd - int64(count-1)*tfMs

	if requestedEnd < seg.Start || requestedStart > seg.End {
		e.bump(ctx, func(s *Stats) { s.Misses++ })
		return CoverageResult{
			Coverage: CoverageNone,
			Missing:  &MissingRange{Count: count, EndTimestamp: requestedEnd},
		}, nil
	}

	if requestedStart >= seg.Start && requestedEnd <= seg.End {
		inRange := barsInRange(seg, requestedStart, requestedEnd)
		if len(inRange) == count {
			e.bump(ctx, func(s *Stats) { s.Hits++ })
			return CoverageResult{Coverage: CoverageFull, Bars: inRange}, nil
		}
	}

	lo := requestedStart
	if seg.Start > lo {
		lo = seg.Start
	}
	hi := requestedEnd
	if seg.End < hi {
		hi = seg.End
	}
	bars := lastN(barsInRange(seg, lo, hi), count)

	missing := &MissingRange{}
	if requestedStart < seg.Start {
		missing.Before = &Gap{Start: requestedStart, End: seg.Start}
	}
	if requestedEnd > seg.End {
		missing.After = &Gap{Start: seg.End, End: requestedEnd}
	}

	e.bump(ctx, func(s *Stats) { s.PartialHits++ })
	return CoverageResult{Coverage: CoveragePartial, Bars: bars, Missing: missing}, nil
}

// Set merges bars into the segment for (symbol, tf), creating one if
// absent, evicting the oldest entries past MaxEntriesPerKey, and
// renewing the segment's TTL only if something was actually merged.
func (e *Engine) Set(ctx context.Context, symbol string, tf timeframe.Timeframe, bars []candle.Candle) error {
	if len(bars) == 0 {
		return nil
	}
	sorted := make([]candle.Candle, len(bars))
	copy(sorted, bars)
	candle.SortByTimestamp(sorted)

	key := e.key(symbol, tf)
	seg, ok, err := e.loadSegment(ctx, key)
	if err != nil {
		e.logger.Warn("cache store unavailable on write, proceeding with a fresh segment", zap.Error(err))
		ok = false
	}
	if !ok {
		seg = &Segment{
			Bars:      make(map[int64]candle.Candle, len(sorted)),
			Start:     sorted[0].Timestamp,
			End:       sorted[0].Timestamp,
			CreatedAt: nowMs(),
		}
	}

	merged := false
	extended := false
	for _, c := range sorted {
		if _, exists := seg.Bars[c.Timestamp]; exists {
			continue
		}
		seg.Bars[c.Timestamp] = c
		merged = true
		if c.Timestamp < seg.Start {
			seg.Start = c.Timestamp
			extended = true
		}
		if c.Timestamp > seg.End {
			seg.End = c.Timestamp
			extended = true
		}
	}

	if !merged {
		return nil
	}

	evicted := e.evict(seg)

	raw, err := json.Marshal(seg)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "marshaling segment", err)
	}
	if err := e.store.Set(ctx, key, raw, e.cfg.TTLSeconds); err != nil {
		// This is the one write whose failure must surface: it would
		// silently drop freshly fetched data otherwise.
		return apperr.Wrap(apperr.CacheUnavailable, "writing segment", err)
	}

	e.bump(ctx, func(s *Stats) {
		s.Merges++
		if extended {
			s.Extensions++
		}
		s.Evictions += int64(evicted)
	})
	if e.metrics != nil {
		e.metrics.CacheMerges.WithLabelValues(symbol, string(tf)).Inc()
		if extended {
			e.metrics.CacheExtensions.WithLabelValues(symbol, string(tf)).Inc()
		}
		if evicted > 0 {
			e.metrics.CacheEvictions.WithLabelValues(symbol, string(tf)).Add(float64(evicted))
		}
		e.metrics.SegmentBarCount.WithLabelValues(symbol, string(tf)).Set(float64(seg.Count()))
	}
	return nil
}

// evict drops the oldest timestamps until seg's count is within the
// configured max, adjusting Start to the new minimum, and returns how
// many bars were dropped.
func (e *Engine) evict(seg *Segment) int {
	overflow := seg.Count() - e.cfg.MaxEntriesPerKey
	if overflow <= 0 {
		return 0
	}
	all := make([]candle.Candle, 0, seg.Count())
	for _, c := range seg.Bars {
		all = append(all, c)
	}
	candle.SortByTimestamp(all)
	for i := 0; i < overflow; i++ {
		delete(seg.Bars, all[i].Timestamp)
	}
	seg.Start = all[overflow].Timestamp
	return overflow
}

// Clear deletes the segment for (symbol, tf) if both are given, or
// every segment under the engine's key prefix otherwise.
func (e *Engine) Clear(ctx context.Context, symbol, tf string) error {
	if symbol != "" && tf != "" {
		return e.store.Delete(ctx, e.key(symbol, timeframe.Timeframe(tf)))
	}
	return e.store.Clear(ctx, e.cfg.KeyPrefix)
}

// Stats walks the engine's keys and returns per-segment diagnostics
// alongside cumulative counters.
func (e *Engine) Stats(ctx context.Context) (StatsSnapshot, error) {
	keys, err := e.store.Keys(ctx, e.cfg.KeyPrefix)
	if err != nil {
		return StatsSnapshot{}, apperr.Wrap(apperr.CacheUnavailable, "listing cache keys", err)
	}

	snap := StatsSnapshot{}
	for _, key := range keys {
		if key == e.statsKey() {
			continue
		}
		seg, ok, err := e.loadSegment(ctx, key)
		if err != nil || !ok {
			continue
		}
		ttl, _ := e.store.TTL(ctx, key)
		snap.Segments = append(snap.Segments, SegmentDiagnostic{
			Key:          key,
			Count:        seg.Count(),
			Start:        seg.Start,
			End:          seg.End,
			AgeMs:        nowMs() - seg.CreatedAt,
			TTLRemaining: ttl,
		})
	}

	e.statsMu.Lock()
	snap.Stats = e.stats
	snap.HitRate = e.stats.HitRate()
	e.statsMu.Unlock()

	return snap, nil
}
