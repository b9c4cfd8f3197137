// Package tradingcontext composes the cross-timeframe regime and
// enrichment output into a trade-facing summary: scenario
// probabilities, price targets, a stop-loss level, and a single
// trade-quality score. It is a pure function of its inputs — no I/O,
// no state.
package tradingcontext

import (
	"fmt"
	"sort"

	"github.com/atlas-desktop/midasgw/internal/mtf"
	"github.com/atlas-desktop/midasgw/internal/regime"
	"github.com/atlas-desktop/midasgw/pkg/timeframe"
	"github.com/atlas-desktop/midasgw/pkg/utils"
)

// Scenario is one directional outcome block.
type Scenario struct {
	Direction   string   `json:"direction"`
	Probability float64  `json:"probability"`
	Targets     []float64 `json:"targets"`
	Rationale   []string `json:"rationale"`
}

// Context is the TradingContextComposer's output.
type Context struct {
	Scenarios         []Scenario `json:"scenarios"`
	StopLoss          *float64   `json:"stop_loss"`
	TradeQualityScore float64    `json:"trade_quality_score"`
}

// Compose builds a Context from an MTF orchestrator result.
func Compose(result mtf.Result) Context {
	raw := rawScenarioScores(result.Timeframes)
	total := raw[regime.DirectionBullish] + raw[regime.DirectionBearish] + raw[regime.DirectionNeutral]

	longest := longestTF(result.Timeframes)
	shortest := shortestTF(result.Timeframes)

	scenarios := make([]Scenario, 0, 3)
	for _, dir := range []string{regime.DirectionBullish, regime.DirectionBearish, regime.DirectionNeutral} {
		prob := 0.0
		if total > 0 {
			prob = raw[dir] / total
		}
		scenarios = append(scenarios, Scenario{
			Direction:   dir,
			Probability: utils.RoundFloat(prob, 4),
			Targets:     targetsFor(dir, longest),
			Rationale:   rationaleFor(dir, result.Timeframes),
		})
	}
	sort.Slice(scenarios, func(i, j int) bool { return scenarios[i].Probability > scenarios[j].Probability })

	stopLoss := stopLossFor(shortest, longest)

	quality := tradeQualityScore(result.Alignment, result.Timeframes, shortest, longest, stopLoss)

	return Context{Scenarios: scenarios, StopLoss: stopLoss, TradeQualityScore: utils.RoundFloat(quality, 4)}
}

func rawScenarioScores(tfs []mtf.TFResult) map[string]float64 {
	scores := map[string]float64{regime.DirectionBullish: 0, regime.DirectionBearish: 0, regime.DirectionNeutral: 0}
	for _, r := range tfs {
		w := weightFor(r.Timeframe)
		scores[r.Regime.Direction] += w * r.Regime.Confidence
	}
	return scores
}

func weightFor(tf timeframe.Timeframe) float64 {
	// A coarser bucketing than mtf's alignment weight table: the two
	// agree on 1h (1.5), 4h (2.0) and 1d (3.0) and differ on the other
	// timeframes. Kept here rather than exported from mtf to keep the
	// composer a pure function of mtf.Result alone.
	switch {
	case tf == timeframe.D1 || tf == timeframe.D3 || tf == timeframe.W1 || tf == timeframe.Mo1:
		return 3.0
	case tf == timeframe.H4 || tf == timeframe.H6 || tf == timeframe.H8 || tf == timeframe.H12:
		return 2.0
	case tf == timeframe.H1 || tf == timeframe.H2:
		return 1.5
	default:
		return 0.7
	}
}

func longestTF(tfs []mtf.TFResult) *mtf.TFResult {
	var best *mtf.TFResult
	for i := range tfs {
		if best == nil || timeframe.Compare(tfs[i].Timeframe, best.Timeframe) > 0 {
			best = &tfs[i]
		}
	}
	return best
}

func shortestTF(tfs []mtf.TFResult) *mtf.TFResult {
	var best *mtf.TFResult
	for i := range tfs {
		if best == nil || timeframe.Compare(tfs[i].Timeframe, best.Timeframe) < 0 {
			best = &tfs[i]
		}
	}
	return best
}

// targetsFor derives price targets from the longest timeframe's
// support/resistance range and any detected pattern projections that
// share the scenario's bias.
func targetsFor(direction string, longest *mtf.TFResult) []float64 {
	if longest == nil || longest.Enriched == nil {
		return nil
	}
	var targets []float64

	if pa := longest.Enriched.PriceAction; pa != nil {
		switch direction {
		case regime.DirectionBullish:
			targets = append(targets, pa.Range.High)
		case regime.DirectionBearish:
			targets = append(targets, pa.Range.Low)
		}
	}

	if p := longest.Enriched.Patterns; p != nil {
		for _, pattern := range p.Detected {
			if pattern.Bias != direction || pattern.TargetIfBreaks == nil {
				continue
			}
			targets = append(targets, *pattern.TargetIfBreaks)
		}
	}

	return targets
}

func rationaleFor(direction string, tfs []mtf.TFResult) []string {
	var rationale []string
	for _, r := range tfs {
		if r.Regime.Direction != direction {
			continue
		}
		rationale = append(rationale, fmt.Sprintf("%s regime %s at %.2f confidence", r.Timeframe, r.Regime.Regime, r.Regime.Confidence))
		if r.Enriched == nil {
			continue
		}
		if p := r.Enriched.Patterns; p != nil {
			for _, pattern := range p.Detected {
				if pattern.Bias == direction {
					rationale = append(rationale, fmt.Sprintf("%s %s pattern %s", r.Timeframe, pattern.Name, pattern.Status))
				}
			}
		}
		if ma := r.Enriched.MovingAverages; ma != nil && ma.Alignment != nil {
			rationale = append(rationale, fmt.Sprintf("%s MA alignment: %s", r.Timeframe, *ma.Alignment))
		}
	}
	return rationale
}

// stopLossFor prefers the shortest timeframe's highest-confidence
// detected pattern invalidation price; absent a pattern, it falls
// back to that timeframe's EMA26.
func stopLossFor(shortest, longest *mtf.TFResult) *float64 {
	if shortest != nil && shortest.Enriched != nil && shortest.Enriched.Patterns != nil {
		var best *float64
		bestConf := -1.0
		for _, p := range shortest.Enriched.Patterns.Detected {
			if p.Confidence > bestConf {
				v := p.InvalidationPrice
				best = &v
				bestConf = p.Confidence
			}
		}
		if best != nil {
			return best
		}
	}
	tf := shortest
	if tf == nil {
		tf = longest
	}
	if tf != nil && tf.Enriched != nil && tf.Enriched.MovingAverages != nil {
		return tf.Enriched.MovingAverages.EMA26
	}
	return nil
}

// tradeQualityScore blends trend alignment, momentum, volume,
// pattern confidence, and risk/reward into a single [0,1] score.
func tradeQualityScore(alignment mtf.Alignment, tfs []mtf.TFResult, shortest, longest *mtf.TFResult, stopLoss *float64) float64 {
	trend := alignment.Score

	momentum := 0.0
	if shortest != nil && shortest.Enriched != nil && shortest.Enriched.Patterns != nil {
		switch shortest.Enriched.Patterns.MomentumQuality {
		case "aligned":
			momentum = 1.0
		case "weakening":
			momentum = 0.5
		default:
			momentum = 0.0
		}
	}

	volume := 0.0
	if shortest != nil && shortest.Enriched != nil && shortest.Enriched.Volume != nil && shortest.Enriched.Volume.CurrentVsAverage != nil {
		volume = utils.ClampFloat(*shortest.Enriched.Volume.CurrentVsAverage/2, 0, 1)
	}

	pattern := 0.0
	if shortest != nil && shortest.Enriched != nil && shortest.Enriched.Patterns != nil {
		for _, p := range shortest.Enriched.Patterns.Detected {
			if p.Confidence > pattern {
				pattern = p.Confidence
			}
		}
	}

	riskReward := riskRewardScore(shortest, longest, stopLoss)

	return 0.30*trend + 0.20*momentum + 0.15*volume + 0.15*pattern + 0.20*riskReward
}

func riskRewardScore(shortest, longest *mtf.TFResult, stopLoss *float64) float64 {
	if shortest == nil || longest == nil || stopLoss == nil || longest.Enriched == nil || longest.Enriched.PriceAction == nil {
		return 0
	}
	price := longest.Enriched.PriceAction.Range.Mid
	target := longest.Enriched.PriceAction.Range.High
	if longest.Regime.Direction == regime.DirectionBearish {
		target = longest.Enriched.PriceAction.Range.Low
	}

	reward := target - price
	risk := price - *stopLoss
	if reward < 0 {
		reward = -reward
	}
	if risk < 0 {
		risk = -risk
	}
	if risk == 0 {
		return 0
	}
	return utils.ClampFloat(reward/risk/3, 0, 1)
}
