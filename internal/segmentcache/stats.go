package segmentcache

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// Stats holds the cache engine's process-wide counters, persisted
// best-effort to the backing store and reloaded at startup.
type Stats struct {
	Hits         int64 `json:"hits"`
	Misses       int64 `json:"misses"`
	PartialHits  int64 `json:"partial_hits"`
	Extensions   int64 `json:"extensions"`
	Merges       int64 `json:"merges"`
	Evictions    int64 `json:"evictions"`
	LastActivity int64 `json:"last_activity"`
}

// HitRate returns hits / (hits+misses+partial_hits), or 0 if no
// lookups have been recorded yet.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses + s.PartialHits
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// SegmentDiagnostic describes one cached segment for the /cache/stats
// endpoint.
type SegmentDiagnostic struct {
	Key          string `json:"key"`
	Count        int    `json:"count"`
	Start        int64  `json:"start"`
	End          int64  `json:"end"`
	AgeMs        int64  `json:"age_ms"`
	TTLRemaining int    `json:"ttl_remaining"`
}

// StatsSnapshot is the full result of Engine.Stats.
type StatsSnapshot struct {
	Stats    Stats               `json:"stats"`
	HitRate  float64             `json:"hit_rate"`
	Segments []SegmentDiagnostic `json:"segments"`
}

func (e *Engine) statsKey() string {
	return e.cfg.KeyPrefix + "__stats__"
}

// loadStats reads persisted stats, discarding them if stale: the
// segments they describe would already have expired.
func (e *Engine) loadStats(ctx context.Context) Stats {
	raw, ok, err := e.store.Get(ctx, e.statsKey())
	if err != nil || !ok {
		return Stats{}
	}
	var s Stats
	if err := json.Unmarshal(raw, &s); err != nil {
		e.logger.Warn("discarding corrupt cache stats", zap.Error(err))
		return Stats{}
	}
	if nowMs()-s.LastActivity > int64(e.cfg.TTLSeconds)*1000 {
		return Stats{}
	}
	return s
}

// persistStats writes stats best-effort; failures are logged, never
// surfaced, per the store's fire-and-forget stats contract.
func (e *Engine) persistStats(ctx context.Context) {
	e.statsMu.Lock()
	s := e.stats
	e.statsMu.Unlock()

	raw, err := json.Marshal(s)
	if err != nil {
		e.logger.Warn("marshaling cache stats", zap.Error(err))
		return
	}
	if err := e.store.Set(ctx, e.statsKey(), raw, 0); err != nil {
		e.logger.Warn("persisting cache stats", zap.Error(err))
	}
}

func (e *Engine) bump(ctx context.Context, fn func(*Stats)) {
	e.statsMu.Lock()
	fn(&e.stats)
	e.stats.LastActivity = nowMs()
	e.statsMu.Unlock()
	e.persistStats(ctx)
}
