// Package mtf orchestrates regime detection and statistical
// enrichment across a set of timeframes, propagating higher-timeframe
// state down to the timeframe immediately below it and scoring how
// well the set agrees on direction.
package mtf

import (
	"github.com/atlas-desktop/midasgw/internal/enrich"
	"github.com/atlas-desktop/midasgw/internal/regime"
	"github.com/atlas-desktop/midasgw/pkg/timeframe"
)

// Selection is the caller's {long?, medium?, short?} timeframe
// mapping; at least one role must be set, at least two for the quick
// alignment check.
type Selection struct {
	Long   *timeframe.Timeframe
	Medium *timeframe.Timeframe
	Short  *timeframe.Timeframe
}

// roles returns the selection as ordered (role, tf) pairs for the
// roles that were actually set.
func (s Selection) roles() []roleTF {
	var out []roleTF
	if s.Long != nil {
		out = append(out, roleTF{"long", *s.Long})
	}
	if s.Medium != nil {
		out = append(out, roleTF{"medium", *s.Medium})
	}
	if s.Short != nil {
		out = append(out, roleTF{"short", *s.Short})
	}
	return out
}

type roleTF struct {
	role string
	tf   timeframe.Timeframe
}

// TFResult is one timeframe's full pipeline output.
type TFResult struct {
	Role     string                 `json:"role"`
	Timeframe timeframe.Timeframe   `json:"timeframe"`
	Regime   regime.Classification  `json:"regime"`
	Enriched *enrich.Context        `json:"enriched,omitempty"`
}

// Result is the full MTFOrchestrator output for /context/enriched.
type Result struct {
	Symbol     string     `json:"symbol"`
	Timeframes []TFResult `json:"timeframes"`
	Alignment  Alignment  `json:"alignment"`
}

// Alignment is the cross-timeframe agreement summary.
type Alignment struct {
	Score             float64    `json:"alignment_score"`
	DominantDirection string     `json:"dominant_direction"`
	Conflicts         []Conflict `json:"conflicts"`
}

// Conflict is one tagged disagreement between timeframe signals.
type Conflict struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Detail   string `json:"detail"`
}

// signal is one timeframe's contribution to the alignment vote.
type signal struct {
	tf         timeframe.Timeframe
	weight     float64
	direction  string
	confidence float64
}

// timeframeWeight is the per-timeframe alignment weight table. Weight
// increases with timeframe duration so a daily signal outweighs a
// 1-minute one when they disagree, matching the weight examples
// (1d=3.0, 4h=2.0, 1h=1.5).
var timeframeWeight = map[timeframe.Timeframe]float64{
	timeframe.M1:  0.3,
	timeframe.M3:  0.4,
	timeframe.M5:  0.5,
	timeframe.M15: 0.7,
	timeframe.M30: 0.9,
	timeframe.H1:  1.5,
	timeframe.H2:  1.7,
	timeframe.H4:  2.0,
	timeframe.H6:  2.3,
	timeframe.H8:  2.5,
	timeframe.H12: 2.7,
	timeframe.D1:  3.0,
	timeframe.D3:  3.2,
	timeframe.W1:  3.5,
	timeframe.Mo1: 3.8,
}

func weightOf(tf timeframe.Timeframe) float64 {
	if w, ok := timeframeWeight[tf]; ok {
		return w
	}
	return 1.0
}
