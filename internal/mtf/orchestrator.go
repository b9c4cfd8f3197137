package mtf

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/atlas-desktop/midasgw/internal/apperr"
	"github.com/atlas-desktop/midasgw/internal/enrich"
	"github.com/atlas-desktop/midasgw/internal/indicators"
	"github.com/atlas-desktop/midasgw/internal/marketdata"
	"github.com/atlas-desktop/midasgw/internal/regime"
	"github.com/atlas-desktop/midasgw/pkg/candle"
	"github.com/atlas-desktop/midasgw/pkg/timeframe"
)

// Orchestrator is the MTFOrchestrator: it runs the regime +
// enrichment pipeline across a timeframe selection, longest first, so
// higher-timeframe state can be handed down to the next smaller
// timeframe.
type Orchestrator struct {
	provider *marketdata.Provider
	engine   *indicators.Engine
	detector *regime.Detector
	bars     int
	logger   *zap.Logger
}

// New builds an Orchestrator loading bars candles per timeframe.
func New(provider *marketdata.Provider, engine *indicators.Engine, detector *regime.Detector, bars int, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{provider: provider, engine: engine, detector: detector, bars: bars, logger: logger}
}

// Process runs the full enriched-context pipeline. Any single
// timeframe's failure aborts the whole call (strict mode): the
// gateway never returns a partial multi-timeframe context.
func (o *Orchestrator) Process(ctx context.Context, symbol string, sel Selection, asOf *int64) (Result, error) {
	ordered := sel.roles()
	if len(ordered) == 0 {
		return Result{}, apperr.New(apperr.InvalidInput, "at least one of long/medium/short must be set")
	}
	sort.Slice(ordered, func(i, j int) bool {
		return timeframe.Compare(ordered[i].tf, ordered[j].tf) > 0
	})

	results := make([]TFResult, 0, len(ordered))
	signals := make([]signal, 0, len(ordered))
	var htf *enrich.HTFState

	for _, r := range ordered {
		tfResult, sig, nextHTF, err := o.runOne(ctx, symbol, r, asOf, htf)
		if err != nil {
			return Result{}, apperr.Wrap(apperr.Internal, fmt.Sprintf("pipeline failed for timeframe %s", r.tf), err)
		}
		results = append(results, tfResult)
		signals = append(signals, sig)
		htf = nextHTF
	}

	return Result{
		Symbol:     symbol,
		Timeframes: results,
		Alignment:  computeAlignment(signals),
	}, nil
}

// ProcessQuick runs only regime detection across the selection, fanned
// out in parallel since the quick check does not propagate HTF state,
// and returns just the alignment summary.
func (o *Orchestrator) ProcessQuick(ctx context.Context, symbol string, sel Selection, asOf *int64) (Alignment, error) {
	ordered := sel.roles()
	if len(ordered) < 2 {
		return Alignment{}, apperr.New(apperr.InvalidInput, "mtf-quick requires at least two timeframes")
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		signals []signal
		firstErr error
	)

	for _, r := range ordered {
		r := r
		wg.Add(1)
		go func() {
			defer wg.Done()
			sig, err := o.quickSignal(ctx, symbol, r, asOf)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			signals = append(signals, sig)
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return Alignment{}, apperr.Wrap(apperr.Internal, "quick mtf check failed", firstErr)
	}
	return computeAlignment(signals), nil
}

func (o *Orchestrator) quickSignal(ctx context.Context, symbol string, r roleTF, asOf *int64) (signal, error) {
	bars, err := o.provider.LoadOHLCV(ctx, symbol, r.tf, o.bars, marketdata.Options{AsOf: asOf, UseCache: true})
	if err != nil {
		return signal{}, err
	}
	series, err := enrich.BuildSeries(o.engine, bars.Bars, string(r.tf))
	if err != nil {
		return signal{}, err
	}
	cls, err := o.detector.Classify(r.tf, toRegimeSeries(series, bars.Bars))
	if err != nil {
		return signal{}, err
	}
	return signal{tf: r.tf, weight: weightOf(r.tf), direction: cls.Direction, confidence: cls.Confidence}, nil
}

func (o *Orchestrator) runOne(ctx context.Context, symbol string, r roleTF, asOf *int64, htf *enrich.HTFState) (TFResult, signal, *enrich.HTFState, error) {
	bars, err := o.provider.LoadOHLCV(ctx, symbol, r.tf, o.bars, marketdata.Options{AsOf: asOf, UseCache: true, DetectGaps: true})
	if err != nil {
		return TFResult{}, signal{}, nil, err
	}

	flatSeries, err := enrich.BuildSeries(o.engine, bars.Bars, string(r.tf))
	if err != nil {
		return TFResult{}, signal{}, nil, err
	}

	cls, err := o.detector.Classify(r.tf, toRegimeSeries(flatSeries, bars.Bars))
	if err != nil {
		return TFResult{}, signal{}, nil, err
	}

	tfMillis, _ := timeframe.DurationMs(r.tf)
	ctxIn := enrich.Inputs{Candles: bars.Bars, Series: flatSeries, HTF: htf, TFMillis: tfMillis}
	enriched := enrich.Compose(ctxIn)

	result := TFResult{Role: r.role, Timeframe: r.tf, Regime: cls, Enriched: &enriched}
	sig := signal{tf: r.tf, weight: weightOf(r.tf), direction: cls.Direction, confidence: cls.Confidence}

	nextHTF := &enrich.HTFState{
		Timeframe: string(r.tf),
		TFMillis:  tfMillis,
	}
	if v, ok := lastValue(flatSeries["rsi"]); ok {
		nextHTF.RSI = &v
	}
	if v, ok := lastValue(flatSeries["macd_histogram"]); ok {
		nextHTF.MACDHist = &v
	}
	if v, ok := lastValue(flatSeries["atr_short"]); ok {
		nextHTF.ATR = &v
	}

	return result, sig, nextHTF, nil
}

func lastValue(vals []*float64) (float64, bool) {
	for i := len(vals) - 1; i >= 0; i-- {
		if vals[i] != nil {
			return *vals[i], true
		}
	}
	return 0, false
}

func toRegimeSeries(flat map[string][]*float64, candles []candle.Candle) regime.Series {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.CloseF()
	}
	return regime.SeriesFromFlat(flat, closes)
}
