package indicators

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/atlas-desktop/midasgw/internal/apperr"
	"github.com/atlas-desktop/midasgw/internal/metrics"
	"github.com/atlas-desktop/midasgw/pkg/candle"
	"github.com/atlas-desktop/midasgw/pkg/utils"
)

// SeriesResult is the output of ComputeSeries: per-indicator aligned
// output series, a snapshot of the last non-null value of each, and
// metadata about the computation.
type SeriesResult struct {
	Series   map[string][]*float64 `json:"series"`
	Snapshot map[string]*float64   `json:"snapshot"`
	Metadata Metadata              `json:"metadata"`
}

// Metadata describes how a ComputeSeries call was carried out.
type Metadata struct {
	RequestedBars int   `json:"requested_bars"`
	ProcessedBars int   `json:"processed_bars"`
	WarmupBars    int   `json:"warmup_bars"`
	Timestamps    []int64 `json:"timestamps"`
}

// Engine is the IndicatorEngine: it replays a candle series through a
// set of requested indicators in a single pass.
type Engine struct {
	precision int
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// New builds an Engine rounding outputs to precision decimal places.
func New(precision int, logger *zap.Logger, m *metrics.Metrics) *Engine {
	return &Engine{precision: precision, logger: logger, metrics: m}
}

// ComputeSeries computes every key in configs over candles, which must
// already be sorted ascending by timestamp.
func (e *Engine) ComputeSeries(candles []candle.Candle, configs map[string]Config, timeframeLabel string) (SeriesResult, error) {
	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.IndicatorComputeLatency.WithLabelValues(timeframeLabel).Observe(time.Since(start).Seconds())
		}
	}()

	if len(candles) == 0 {
		return SeriesResult{}, apperr.New(apperr.InsufficientData, "no candles to compute indicators over")
	}

	type active struct {
		key        string
		calc       Indicator
		outputKeys []string
		warmup     int
	}

	actives := make([]active, 0, len(configs))
	maxWarmup := 0
	for key, userCfg := range configs {
		calc, mergedCfg, spec, ok := Resolve(key, userCfg)
		if !ok {
			return SeriesResult{}, apperr.New(apperr.InvalidInput, fmt.Sprintf("unknown indicator %q", key))
		}
		warmup := int(float64(spec.Warmup(mergedCfg)) * 1.2)
		actives = append(actives, active{key: key, calc: calc, outputKeys: spec.OutputKeys, warmup: warmup})
		if warmup > maxWarmup {
			maxWarmup = warmup
		}
	}

	series := make(map[string][]*float64)
	for _, a := range actives {
		for _, ok := range a.outputKeys {
			series[ok] = make([]*float64, 0, len(candles))
		}
	}

	for _, c := range candles {
		for _, a := range actives {
			vals := a.calc.Update(c)
			for _, ok := range a.outputKeys {
				rounded := roundValue(vals[ok], e.precision)
				series[ok] = append(series[ok], rounded)
			}
		}
	}

	totalBars := len(candles)

	snapshot := make(map[string]*float64, len(series))
	for key, vals := range series {
		snapshot[key] = lastNonNil(vals)
	}

	timestamps := make([]int64, len(candles))
	for i, c := range candles {
		timestamps[i] = c.Timestamp
	}

	return SeriesResult{
		Series:   series,
		Snapshot: snapshot,
		Metadata: Metadata{
			RequestedBars: totalBars,
			ProcessedBars: totalBars,
			WarmupBars:    maxWarmup,
			Timestamps:    timestamps,
		},
	}, nil
}

// Trim drops the leading (total-requested) entries from every series
// and its aligned timestamps, so the returned window starts after
// warm-up, per the engine's requested-bars contract.
func Trim(result SeriesResult, requestedBars int) SeriesResult {
	total := result.Metadata.ProcessedBars
	if requestedBars >= total {
		return result
	}
	drop := total - requestedBars
	trimmed := make(map[string][]*float64, len(result.Series))
	for key, vals := range result.Series {
		if drop >= len(vals) {
			trimmed[key] = nil
			continue
		}
		trimmed[key] = vals[drop:]
	}
	result.Series = trimmed
	if drop < len(result.Metadata.Timestamps) {
		result.Metadata.Timestamps = result.Metadata.Timestamps[drop:]
	}
	result.Metadata.RequestedBars = requestedBars
	return result
}

// TimeSeries filters a single output key's series to the entries with
// a non-nil value, optionally windowed by offset/bars from the end.
func TimeSeries(result SeriesResult, key string, offset, bars int) ([]int64, []float64, error) {
	vals, ok := result.Series[key]
	if !ok {
		return nil, nil, apperr.New(apperr.InvalidInput, fmt.Sprintf("unknown series key %q", key))
	}
	var ts []int64
	var vs []float64
	for i, v := range vals {
		if v == nil {
			continue
		}
		ts = append(ts, result.Metadata.Timestamps[i])
		vs = append(vs, *v)
	}
	if offset > 0 && offset < len(ts) {
		ts = ts[:len(ts)-offset]
		vs = vs[:len(vs)-offset]
	}
	if bars > 0 && bars < len(ts) {
		ts = ts[len(ts)-bars:]
		vs = vs[len(vs)-bars:]
	}
	return ts, vs, nil
}

func roundValue(v *float64, precision int) *float64 {
	if v == nil {
		return nil
	}
	return f(utils.RoundFloat(*v, precision))
}

func lastNonNil(vals []*float64) *float64 {
	for i := len(vals) - 1; i >= 0; i-- {
		if vals[i] != nil {
			return vals[i]
		}
	}
	return nil
}
