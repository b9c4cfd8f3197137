package enrich

import (
	"github.com/atlas-desktop/midasgw/internal/indicators"
	"github.com/atlas-desktop/midasgw/pkg/candle"
)

// variant names one instantiation of a catalog indicator under an
// output alias distinct from the catalog's own output key, so e.g.
// both ema_12 and ema_26 can live in the same flattened series map.
type variant struct {
	alias  string
	key    string
	config indicators.Config
	output string // catalog output key to pull from the computed result
}

var standardVariants = []variant{
	{alias: "ema_12", key: "ema", config: indicators.Config{"period": 12}, output: "ema"},
	{alias: "ema_26", key: "ema", config: indicators.Config{"period": 26}, output: "ema"},
	{alias: "ema_50", key: "ema", config: indicators.Config{"period": 50}, output: "ema"},
	{alias: "ema_200", key: "ema", config: indicators.Config{"period": 200}, output: "ema"},
	{alias: "sma_20", key: "sma", config: indicators.Config{"period": 20}, output: "sma"},
	{alias: "sma_50", key: "sma", config: indicators.Config{"period": 50}, output: "sma"},
	{alias: "rsi", key: "rsi", config: indicators.Config{"period": 14}, output: "rsi"},
	{alias: "roc_5", key: "roc", config: indicators.Config{"period": 5}, output: "roc"},
	{alias: "roc_10", key: "roc", config: indicators.Config{"period": 10}, output: "roc"},
	{alias: "atr_short", key: "atr", config: indicators.Config{"period": 14}, output: "atr"},
	{alias: "atr_long", key: "atr", config: indicators.Config{"period": 50}, output: "atr"},
	{alias: "obv", key: "obv", config: indicators.Config{}, output: "obv"},
	{alias: "vwap", key: "vwap", config: indicators.Config{"window": 20}, output: "vwap"},
	{alias: "efficiency_ratio", key: "efficiency_ratio", config: indicators.Config{"period": 10, "smoothing": 3}, output: "efficiency_ratio"},
}

// multiOutputVariants are indicators whose catalog entry already
// produces every sub-series the enrichers need under its natural
// names, computed once rather than per-alias.
var multiOutputVariants = []string{"macd", "stochastic", "bollinger_bands", "adx"}

// BuildSeries computes the full set of aliased indicator series the
// enrich sub-enrichers read from, replaying candles through the
// engine once per distinct configuration.
func BuildSeries(engine *indicators.Engine, candles []candle.Candle, timeframeLabel string) (map[string][]*float64, error) {
	out := make(map[string][]*float64)

	for _, v := range standardVariants {
		result, err := engine.ComputeSeries(candles, map[string]indicators.Config{v.key: v.config}, timeframeLabel)
		if err != nil {
			return nil, err
		}
		out[v.alias] = result.Series[v.output]
	}

	for _, key := range multiOutputVariants {
		spec, ok := indicators.Catalog[key]
		if !ok {
			continue
		}
		result, err := engine.ComputeSeries(candles, map[string]indicators.Config{key: spec.DefaultConfig}, timeframeLabel)
		if err != nil {
			return nil, err
		}
		for _, outKey := range spec.OutputKeys {
			out[outKey] = result.Series[outKey]
		}
	}

	return out, nil
}
