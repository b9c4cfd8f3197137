// Package metrics exposes the gateway's Prometheus instrumentation:
// cache hit/miss/eviction counters, indicator compute latency, and
// exchange call outcomes by status class.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every gauge/counter/histogram the gateway records.
type Metrics struct {
	CacheHits         *prometheus.CounterVec
	CacheMisses       *prometheus.CounterVec
	CachePartialHits  *prometheus.CounterVec
	CacheEvictions    *prometheus.CounterVec
	CacheMerges       *prometheus.CounterVec
	CacheExtensions   *prometheus.CounterVec
	SegmentBarCount   *prometheus.GaugeVec

	IndicatorComputeLatency *prometheus.HistogramVec
	ExchangeCalls           *prometheus.CounterVec
	ExchangeCallLatency     *prometheus.HistogramVec
	RegimeConfidence        *prometheus.GaugeVec
	AlignmentScore          *prometheus.GaugeVec
}

// New registers and returns a Metrics instance on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "midasgw_cache_hits_total",
			Help: "Full-coverage SegmentCache hits.",
		}, []string{"symbol", "timeframe"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "midasgw_cache_misses_total",
			Help: "SegmentCache misses.",
		}, []string{"symbol", "timeframe"}),
		CachePartialHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "midasgw_cache_partial_hits_total",
			Help: "Partial-coverage SegmentCache hits.",
		}, []string{"symbol", "timeframe"}),
		CacheEvictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "midasgw_cache_evictions_total",
			Help: "Bars evicted from a segment for exceeding max_entries_per_key.",
		}, []string{"symbol", "timeframe"}),
		CacheMerges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "midasgw_cache_merges_total",
			Help: "Set calls that added at least one new bar.",
		}, []string{"symbol", "timeframe"}),
		CacheExtensions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "midasgw_cache_extensions_total",
			Help: "Set calls that grew a segment's start/end bounds.",
		}, []string{"symbol", "timeframe"}),
		SegmentBarCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "midasgw_segment_bar_count",
			Help: "Current bar count of a cached segment.",
		}, []string{"symbol", "timeframe"}),
		IndicatorComputeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "midasgw_indicator_compute_seconds",
			Help:    "ComputeSeries wall time.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"timeframe"}),
		ExchangeCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "midasgw_exchange_calls_total",
			Help: "Upstream exchange calls by outcome.",
		}, []string{"endpoint", "outcome"}),
		ExchangeCallLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "midasgw_exchange_call_seconds",
			Help:    "Upstream exchange call latency.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		RegimeConfidence: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "midasgw_regime_confidence",
			Help: "Last computed regime confidence per symbol/timeframe.",
		}, []string{"symbol", "timeframe", "regime"}),
		AlignmentScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "midasgw_mtf_alignment_score",
			Help: "Last computed multi-timeframe alignment score per symbol.",
		}, []string{"symbol"}),
	}

	reg.MustRegister(
		m.CacheHits, m.CacheMisses, m.CachePartialHits, m.CacheEvictions,
		m.CacheMerges, m.CacheExtensions, m.SegmentBarCount,
		m.IndicatorComputeLatency, m.ExchangeCalls, m.ExchangeCallLatency,
		m.RegimeConfidence, m.AlignmentScore,
	)
	return m
}

// Handler returns the promhttp handler to mount at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
