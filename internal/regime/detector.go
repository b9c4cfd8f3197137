package regime

import (
	"go.uber.org/zap"

	"github.com/atlas-desktop/midasgw/internal/apperr"
	"github.com/atlas-desktop/midasgw/pkg/timeframe"
	"github.com/atlas-desktop/midasgw/pkg/utils"
)

// Config configures the Detector.
type Config struct {
	MinBars            int
	VolatilityWindow   int
	AdaptiveThresholds bool
	Base               Thresholds
}

// DefaultConfig returns the detector's documented defaults.
func DefaultConfig() Config {
	return Config{
		MinBars:            60,
		VolatilityWindow:   20,
		AdaptiveThresholds: true,
		Base: Thresholds{
			ADXTrending:  25,
			ERTrending:   0.5,
			ATRRatioHigh: 1.3,
			ATRRatioLow:  0.7,
		},
	}
}

// timeframeMultiplier gives shorter timeframes a larger multiplier,
// widening thresholds for noisier low-timeframe data.
var timeframeMultiplier = map[timeframe.Timeframe]float64{
	timeframe.M1:  1.3,
	timeframe.M3:  1.25,
	timeframe.M5:  1.2,
	timeframe.M15: 1.15,
	timeframe.M30: 1.1,
	timeframe.H1:  1.0,
	timeframe.H2:  0.97,
	timeframe.H4:  0.93,
	timeframe.H6:  0.9,
	timeframe.H8:  0.88,
	timeframe.H12: 0.87,
	timeframe.D1:  0.85,
	timeframe.D3:  0.85,
	timeframe.W1:  0.85,
	timeframe.Mo1: 0.85,
}

// Series bundles the indicator time-series a classification is
// derived from; every slice must be aligned (same length, same
// candle-timestamp order, tail == latest bar).
type Series struct {
	ADX      []float64
	PlusDI   []float64
	MinusDI  []float64
	ATRShort []float64
	ATRLong  []float64
	EMAShort []float64
	EMALong  []float64
	ER       []float64
	Close    []float64
}

// Detector is the RegimeDetector.
type Detector struct {
	cfg    Config
	logger *zap.Logger
}

// New builds a Detector.
func New(cfg Config, logger *zap.Logger) *Detector {
	return &Detector{cfg: cfg, logger: logger}
}

func tail(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	return values[len(values)-1], true
}

// Classify runs the detector's full algorithm: adaptive thresholds,
// direction hypothesis, regime typing, and confidence blend.
func (d *Detector) Classify(tf timeframe.Timeframe, s Series) (Classification, error) {
	if len(s.Close) < d.cfg.MinBars {
		return Classification{}, apperr.New(apperr.InsufficientData, "fewer than min_bars closes")
	}

	adx, ok := tail(s.ADX)
	if !ok {
		return Classification{}, apperr.New(apperr.InsufficientData, "adx series is empty")
	}
	plusDI, ok := tail(s.PlusDI)
	if !ok {
		return Classification{}, apperr.New(apperr.InsufficientData, "plus_di series is empty")
	}
	minusDI, ok := tail(s.MinusDI)
	if !ok {
		return Classification{}, apperr.New(apperr.InsufficientData, "minus_di series is empty")
	}
	atrShort, ok := tail(s.ATRShort)
	if !ok {
		return Classification{}, apperr.New(apperr.InsufficientData, "atr_short series is empty")
	}
	atrLong, ok := tail(s.ATRLong)
	if !ok || atrLong == 0 {
		return Classification{}, apperr.New(apperr.InsufficientData, "atr_long series is empty or zero")
	}
	emaShort, ok := tail(s.EMAShort)
	if !ok {
		return Classification{}, apperr.New(apperr.InsufficientData, "ema_short series is empty")
	}
	emaLong, ok := tail(s.EMALong)
	if !ok {
		return Classification{}, apperr.New(apperr.InsufficientData, "ema_long series is empty")
	}
	er, ok := tail(s.ER)
	if !ok {
		return Classification{}, apperr.New(apperr.InsufficientData, "efficiency_ratio series is empty")
	}
	price, ok := tail(s.Close)
	if !ok {
		return Classification{}, apperr.New(apperr.InsufficientData, "close series is empty")
	}

	atrRatio := atrShort / atrLong

	thresholds := d.adjustThresholds(tf, s.ATRShort, s.ATRLong, atrRatio)

	direction, directionStrength := d.direction(price, emaShort, emaLong, plusDI, minusDI, atrLong)

	regimeType := classifyRegime(adx, er, atrRatio, thresholds)
	label := regimeLabel(regimeType, direction, adx, atrRatio, thresholds)

	confidence := d.confidence(regimeType, adx, er, directionStrength, atrRatio, thresholds)

	return Classification{
		Regime:     label,
		Direction:  direction,
		Confidence: round(confidence, 4),
		Components: Components{
			ADX:               round(adx, 2),
			PlusDI:            round(plusDI, 2),
			MinusDI:           round(minusDI, 2),
			EfficiencyRatio:   round(er, 4),
			ATRRatio:          round(atrRatio, 4),
			EMAShort:          round(emaShort, 4),
			EMALong:           round(emaLong, 4),
			DirectionStrength: round(directionStrength, 4),
		},
		Thresholds: thresholds,
		Metadata: Metadata{
			AdaptiveThresholds: d.cfg.AdaptiveThresholds,
			BarsUsed:           len(s.Close),
		},
	}, nil
}

// regimeKind is the three-way classification priority (before the
// direction/sub-type label is attached).
type regimeKind int

const (
	kindRange regimeKind = iota
	kindTrending
	kindBreakout
)

func classifyRegime(adx, er, atrRatio float64, th Thresholds) regimeKind {
	if atrRatio > th.ATRRatioHigh && adx >= th.ADXTrending {
		return kindBreakout
	}
	if adx >= th.ADXTrending && er >= th.ERTrending {
		return kindTrending
	}
	return kindRange
}

func regimeLabel(kind regimeKind, direction string, adx, atrRatio float64, th Thresholds) string {
	switch kind {
	case kindBreakout:
		switch direction {
		case DirectionBullish:
			return RegimeBreakoutBullish
		case DirectionBearish:
			return RegimeBreakoutBearish
		default:
			return RegimeBreakoutNeutral
		}
	case kindTrending:
		switch direction {
		case DirectionBullish:
			return RegimeTrendingBullish
		case DirectionBearish:
			return RegimeTrendingBearish
		default:
			return RegimeTrendingNeutral
		}
	default:
		switch {
		case adx >= th.ADXTrending:
			return RegimeRangeDirectional
		case atrRatio < th.ATRRatioLow:
			return RegimeRangeLowVol
		case atrRatio > th.ATRRatioHigh:
			return RegimeRangeHighVol
		default:
			return RegimeRangeNormal
		}
	}
}

// direction derives the bullish/bearish/neutral hypothesis from EMA
// stacking, vetoed by a contradicting +DI/-DI reading.
func (d *Detector) direction(price, emaShort, emaLong, plusDI, minusDI, atrLong float64) (string, float64) {
	dir := DirectionNeutral
	switch {
	case price > emaShort && emaShort > emaLong:
		dir = DirectionBullish
	case price < emaLong && emaLong < emaShort:
		dir = DirectionBearish
	}

	if dir == DirectionBullish && plusDI < minusDI {
		dir = DirectionNeutral
	}
	if dir == DirectionBearish && minusDI < plusDI {
		dir = DirectionNeutral
	}

	strength := 0.0
	if atrLong != 0 {
		strength = utils.ClampFloat((emaShort-emaLong)/atrLong, -2, 2)
	}
	return dir, strength
}

// adjustThresholds applies the timeframe and volatility multipliers to
// the detector's base thresholds, when adaptive thresholds are
// enabled; otherwise it returns the base thresholds unchanged.
func (d *Detector) adjustThresholds(tf timeframe.Timeframe, atrShort, atrLong []float64, currentRatio float64) Thresholds {
	if !d.cfg.AdaptiveThresholds {
		return d.cfg.Base
	}

	tfMult, ok := timeframeMultiplier[tf]
	if !ok {
		tfMult = 1.0
	}

	volMult := d.volatilityMultiplier(atrShort, atrLong, currentRatio)
	combined := tfMult * volMult

	adx := utils.ClampFloat(d.cfg.Base.ADXTrending*combined, 10, 100)
	er := utils.ClampFloat(d.cfg.Base.ERTrending*tfMult, 0.1, 1.0)
	// ATR-ratio thresholds move inversely with volatility, via sqrt, so
	// a choppier recent history doesn't also inflate the breakout bar.
	atrAdj := 1 / sqrt(combined)
	atrHigh := maxFloat(d.cfg.Base.ATRRatioHigh*atrAdj, 0.3)
	atrLow := maxFloat(d.cfg.Base.ATRRatioLow*atrAdj, 0.3)

	return Thresholds{
		ADXTrending:    adx,
		ERTrending:     er,
		ATRRatioHigh:   atrHigh,
		ATRRatioLow:    atrLow,
		TimeframeMult:  tfMult,
		VolatilityMult: volMult,
	}
}

// volatilityMultiplier compares the current ATR-short/long ratio
// against its recent median, clamped into [0.7, 1.5].
func (d *Detector) volatilityMultiplier(atrShort, atrLong []float64, currentRatio float64) float64 {
	n := d.cfg.VolatilityWindow
	if n > len(atrShort) {
		n = len(atrShort)
	}
	if n > len(atrLong) {
		n = len(atrLong)
	}
	if n == 0 {
		return 1.0
	}

	ratios := make([]float64, 0, n)
	shortTail := atrShort[len(atrShort)-n:]
	longTail := atrLong[len(atrLong)-n:]
	for i := range shortTail {
		if longTail[i] == 0 {
			continue
		}
		ratios = append(ratios, shortTail[i]/longTail[i])
	}
	if len(ratios) == 0 {
		return 1.0
	}

	median := utils.Median(ratios)
	if median == 0 {
		return 1.0
	}
	ratio := currentRatio / median
	return utils.ClampFloat(0.7+ratio*0.6, 0.7, 1.5)
}

// confidence blends regime clarity, coherence, direction strength,
// and ER fit into a single [0,1] score.
func (d *Detector) confidence(kind regimeKind, adx, er, directionStrength, atrRatio float64, th Thresholds) float64 {
	clarity := clarityScore(kind, adx, th)
	erFit := erFitScore(kind, er)
	direction := directionScore(directionStrength)
	coherence := coherenceScore(kind, adx, er, atrRatio, th, directionStrength)

	return utils.ClampFloat(0.35*clarity+0.30*coherence+0.20*direction+0.15*erFit, 0, 1)
}

func clarityScore(kind regimeKind, adx float64, th Thresholds) float64 {
	switch kind {
	case kindTrending, kindBreakout:
		switch {
		case adx >= th.ADXTrending+20:
			return 1.0
		case adx >= th.ADXTrending+10:
			return 0.8
		case adx >= th.ADXTrending:
			return 0.6
		default:
			return 0.3
		}
	default: // range
		switch {
		case adx < th.ADXTrending-10:
			return 1.0
		case adx < th.ADXTrending-5:
			return 0.75
		case adx < th.ADXTrending:
			return 0.5
		default:
			return 0.25
		}
	}
}

func erFitScore(kind regimeKind, er float64) float64 {
	switch kind {
	case kindTrending:
		if er > 0.7 {
			return 1.0
		}
		return utils.ClampFloat(er/0.7, 0, 1)
	case kindBreakout:
		if er > 0.4 {
			return 1.0
		}
		return utils.ClampFloat(er/0.4, 0, 1)
	default: // range
		if er < 0.25 {
			return 1.0
		}
		return utils.ClampFloat(1-((er-0.25)/0.5), 0, 1)
	}
}

func directionScore(strength float64) float64 {
	abs := strength
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1.5:
		return 1.0
	case abs >= 1.0:
		return 0.8
	case abs >= 0.5:
		return 0.55
	default:
		return 0.3
	}
}

// coherenceScore is the fraction of indicator-level boolean predicates
// that agree with the chosen regime label, over a small rule vector
// per regime kind.
func coherenceScore(kind regimeKind, adx, er, atrRatio float64, th Thresholds, directionStrength float64) float64 {
	adxHigh := adx >= th.ADXTrending
	erHigh := er >= th.ERTrending
	erLow := er < 0.25
	lowVol := atrRatio < th.ATRRatioLow
	highVol := atrRatio > th.ATRRatioHigh
	bull := directionStrength > 0.1
	bear := directionStrength < -0.1
	neut := !bull && !bear

	var want []bool
	switch kind {
	case kindBreakout:
		want = []bool{adxHigh, highVol, !erLow}
	case kindTrending:
		want = []bool{adxHigh, erHigh, bull || bear}
	default:
		want = []bool{!adxHigh, erLow || !erHigh, neut || lowVol || highVol}
	}

	matches := 0
	for _, w := range want {
		if w {
			matches++
		}
	}
	return float64(matches) / float64(len(want))
}

func round(v float64, places int) float64 { return utils.RoundFloat(v, places) }

func sqrt(v float64) float64 {
	if v <= 0 {
		return 1
	}
	x := v
	for i := 0; i < 20; i++ {
		x = 0.5 * (x + v/x)
	}
	return x
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
