package indicators

// Spec describes one entry in the indicator catalog: its category,
// default configuration, warm-up requirement, input kind, and the
// output sub-series it emits.
type Spec struct {
	Category     string
	DefaultConfig Config
	Warmup       func(cfg Config) int
	InputKind    InputKind
	OutputKeys   []string
	New          func(cfg Config) Indicator
}

// Catalog maps indicator keys to their Spec.
var Catalog = map[string]Spec{
	"sma": {
		Category:      "trend",
		DefaultConfig: Config{"period": 20},
		Warmup:        func(cfg Config) int { return cfg.int("period", 20) },
		InputKind:     InputClose,
		OutputKeys:    []string{"sma"},
		New:           func(cfg Config) Indicator { return newSMAIndicator(cfg.int("period", 20)) },
	},
	"ema": {
		Category:      "trend",
		DefaultConfig: Config{"period": 20},
		Warmup:        func(cfg Config) int { return cfg.int("period", 20) },
		InputKind:     InputClose,
		OutputKeys:    []string{"ema"},
		New:           func(cfg Config) Indicator { return newEMAIndicator(cfg.int("period", 20)) },
	},
	"rsi": {
		Category:      "momentum",
		DefaultConfig: Config{"period": 14},
		Warmup:        func(cfg Config) int { return cfg.int("period", 14) + 1 },
		InputKind:     InputClose,
		OutputKeys:    []string{"rsi"},
		New:           func(cfg Config) Indicator { return newRSI(cfg.int("period", 14)) },
	},
	"macd": {
		Category: "momentum",
		DefaultConfig: Config{"fast_period": 12, "slow_period": 26, "signal_period": 9},
		Warmup: func(cfg Config) int {
			return cfg.int("slow_period", 26) + cfg.int("signal_period", 9)
		},
		InputKind:  InputClose,
		OutputKeys: []string{"macd", "macd_signal", "macd_histogram"},
		New: func(cfg Config) Indicator {
			return newMACD(cfg.int("fast_period", 12), cfg.int("slow_period", 26), cfg.int("signal_period", 9))
		},
	},
	"stochastic": {
		Category:      "momentum",
		DefaultConfig: Config{"k_period": 14, "k_smooth": 3, "d_period": 3},
		Warmup: func(cfg Config) int {
			return cfg.int("k_period", 14) + cfg.int("k_smooth", 3) + cfg.int("d_period", 3)
		},
		InputKind:  InputHighLowClose,
		OutputKeys: []string{"stoch_k", "stoch_d"},
		New: func(cfg Config) Indicator {
			return newStochastic(cfg.int("k_period", 14), cfg.int("k_smooth", 3), cfg.int("d_period", 3))
		},
	},
	"stoch_rsi": {
		Category:      "momentum",
		DefaultConfig: Config{"period": 14, "k_smooth": 3, "d_period": 3},
		Warmup: func(cfg Config) int {
			return 2*cfg.int("period", 14) + cfg.int("k_smooth", 3) + cfg.int("d_period", 3)
		},
		InputKind:  InputClose,
		OutputKeys: []string{"stoch_rsi_k", "stoch_rsi_d"},
		New: func(cfg Config) Indicator {
			return newStochRSI(cfg.int("period", 14), cfg.int("k_smooth", 3), cfg.int("d_period", 3))
		},
	},
	"adx": {
		Category:      "trend",
		DefaultConfig: Config{"period": 14},
		Warmup:        func(cfg Config) int { return 2 * cfg.int("period", 14) },
		InputKind:     InputHighLowClose,
		OutputKeys:    []string{"adx", "plus_di", "minus_di"},
		New:           func(cfg Config) Indicator { return newADX(cfg.int("period", 14)) },
	},
	"atr": {
		Category:      "volatility",
		DefaultConfig: Config{"period": 14},
		Warmup:        func(cfg Config) int { return cfg.int("period", 14) + 1 },
		InputKind:     InputHighLowClose,
		OutputKeys:    []string{"atr"},
		New:           func(cfg Config) Indicator { return newATR(cfg.int("period", 14)) },
	},
	"bollinger_bands": {
		Category:      "volatility",
		DefaultConfig: Config{"period": 20, "stddev": 2.0},
		Warmup:        func(cfg Config) int { return cfg.int("period", 20) },
		InputKind:     InputClose,
		OutputKeys:    []string{"bb_upper", "bb_middle", "bb_lower", "bb_width"},
		New:           func(cfg Config) Indicator { return newBollinger(cfg.int("period", 20), cfg.float("stddev", 2.0)) },
	},
	"obv": {
		Category:      "volume",
		DefaultConfig: Config{},
		Warmup:        func(cfg Config) int { return 1 },
		InputKind:     InputCloseVolume,
		OutputKeys:    []string{"obv"},
		New:           func(cfg Config) Indicator { return newOBV() },
	},
	"vwap": {
		Category:      "volume",
		DefaultConfig: Config{"window": 20},
		Warmup:        func(cfg Config) int { return cfg.int("window", 20) },
		InputKind:     InputOHLC,
		OutputKeys:    []string{"vwap"},
		New:           func(cfg Config) Indicator { return newVWAP(cfg.int("window", 20)) },
	},
	"roc": {
		Category:      "momentum",
		DefaultConfig: Config{"period": 10},
		Warmup:        func(cfg Config) int { return cfg.int("period", 10) + 1 },
		InputKind:     InputClose,
		OutputKeys:    []string{"roc"},
		New:           func(cfg Config) Indicator { return newROC(cfg.int("period", 10)) },
	},
	"efficiency_ratio": {
		Category:      "trend",
		DefaultConfig: Config{"period": 10, "smoothing": 3},
		Warmup:        func(cfg Config) int { return cfg.int("period", 10) + cfg.int("smoothing", 3) },
		InputKind:     InputClose,
		OutputKeys:    []string{"efficiency_ratio"},
		New:           func(cfg Config) Indicator { return newEfficiencyRatio(cfg.int("period", 10), cfg.int("smoothing", 3)) },
	},
}

// Resolve merges userCfg over an indicator's default config and
// instantiates it, returning the merged config alongside the
// calculator (the engine needs the merged config for warm-up sizing).
func Resolve(key string, userCfg Config) (Indicator, Config, Spec, bool) {
	spec, ok := Catalog[key]
	if !ok {
		return nil, nil, Spec{}, false
	}
	cfg := merge(spec.DefaultConfig, userCfg)
	return spec.New(cfg), cfg, spec, true
}
