package enrich

// Compose runs every sub-enricher over in and assembles the combined
// Context. Each sub-enricher already tolerates missing series by
// returning nil for its own section; Compose does not add further
// fallback behavior.
func Compose(in Inputs) Context {
	return Context{
		MovingAverages: MovingAveragesEnrich(in),
		Momentum:       MomentumEnrich(in),
		Volatility:     VolatilityEnrich(in),
		Volume:         VolumeEnrich(in),
		PriceAction:    PriceActionEnrich(in),
		Patterns:       PatternsEnrich(in),
	}
}
