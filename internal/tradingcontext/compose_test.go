package tradingcontext_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atlas-desktop/midasgw/internal/enrich"
	"github.com/atlas-desktop/midasgw/internal/mtf"
	"github.com/atlas-desktop/midasgw/internal/regime"
	"github.com/atlas-desktop/midasgw/internal/tradingcontext"
	"github.com/atlas-desktop/midasgw/pkg/timeframe"
)

func TestComposeMinimalResultProducesOrderedScenarios(t *testing.T) {
	result := mtf.Result{
		Symbol: "BTC/USDT",
		Timeframes: []mtf.TFResult{
			{Role: "long", Timeframe: timeframe.D1, Regime: regime.Classification{Direction: regime.DirectionBullish, Confidence: 0.8, Regime: regime.RegimeTrendingBullish}},
			{Role: "short", Timeframe: timeframe.H1, Regime: regime.Classification{Direction: regime.DirectionBearish, Confidence: 0.6, Regime: regime.RegimeTrendingBearish}},
		},
		Alignment: mtf.Alignment{Score: 0.5, DominantDirection: regime.DirectionBullish},
	}

	ctx := tradingcontext.Compose(result)
	assert.Len(t, ctx.Scenarios, 3)
	assert.Equal(t, regime.DirectionBullish, ctx.Scenarios[0].Direction)
	assert.InDelta(t, 0.7273, ctx.Scenarios[0].Probability, 0.001)
	assert.Equal(t, regime.DirectionBearish, ctx.Scenarios[1].Direction)
	assert.InDelta(t, 0.2727, ctx.Scenarios[1].Probability, 0.001)
	assert.Nil(t, ctx.StopLoss)
	assert.InDelta(t, 0.15, ctx.TradeQualityScore, 0.0001)
}

func TestComposeDerivesTargetsAndStopLossFromEnrichedContext(t *testing.T) {
	ema26 := 105.0
	target := 130.0
	alignment := "bullish_stack"

	longEnriched := enrich.Context{
		PriceAction: &enrich.PriceAction{Range: enrich.RangeSummary{High: 120, Low: 90, Mid: 105}},
		Patterns: &enrich.Patterns{
			Detected: []enrich.Pattern{
				{Name: "ascending_triangle", Bias: regime.DirectionBullish, Confidence: 0.6, TargetIfBreaks: &target},
			},
			MomentumQuality: "aligned",
		},
	}
	shortEnriched := enrich.Context{
		MovingAverages: &enrich.MovingAverages{EMA26: &ema26, Alignment: &alignment},
		Patterns: &enrich.Patterns{
			Detected:        []enrich.Pattern{{Name: "flag", Bias: regime.DirectionBullish, Confidence: 0.7, InvalidationPrice: 98, Status: "forming"}},
			MomentumQuality: "aligned",
		},
	}

	result := mtf.Result{
		Symbol: "BTC/USDT",
		Timeframes: []mtf.TFResult{
			{Role: "long", Timeframe: timeframe.D1, Regime: regime.Classification{Direction: regime.DirectionBullish, Confidence: 0.9, Regime: regime.RegimeTrendingBullish}, Enriched: &longEnriched},
			{Role: "short", Timeframe: timeframe.H1, Regime: regime.Classification{Direction: regime.DirectionBullish, Confidence: 0.8, Regime: regime.RegimeTrendingBullish}, Enriched: &shortEnriched},
		},
		Alignment: mtf.Alignment{Score: 1.0, DominantDirection: regime.DirectionBullish},
	}

	ctx := tradingcontext.Compose(result)
	assert.Equal(t, regime.DirectionBullish, ctx.Scenarios[0].Direction)
	assert.InDelta(t, 1.0, ctx.Scenarios[0].Probability, 0.0001)
	assert.Contains(t, ctx.Scenarios[0].Targets, 120.0)
	assert.Contains(t, ctx.Scenarios[0].Targets, target)
	assert.NotEmpty(t, ctx.Scenarios[0].Rationale)

	assert.NotNil(t, ctx.StopLoss)
	assert.Equal(t, 98.0, *ctx.StopLoss)
	assert.Greater(t, ctx.TradeQualityScore, 0.5)
}
