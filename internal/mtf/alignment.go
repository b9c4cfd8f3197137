package mtf

import "github.com/atlas-desktop/midasgw/internal/regime"

// computeAlignment scores how strongly a set of per-timeframe
// direction signals agree, and surfaces tagged conflicts between
// them.
func computeAlignment(signals []signal) Alignment {
	if len(signals) == 0 {
		return Alignment{DominantDirection: regime.DirectionNeutral}
	}

	var bull, bear, neut, total float64
	for _, s := range signals {
		contribution := s.weight * s.confidence
		total += s.weight
		switch s.direction {
		case regime.DirectionBullish:
			bull += contribution
		case regime.DirectionBearish:
			bear += contribution
		default:
			neut += contribution
		}
	}

	dominant := regime.DirectionNeutral
	max := neut
	if bull > max {
		dominant, max = regime.DirectionBullish, bull
	}
	if bear > max {
		dominant, max = regime.DirectionBearish, bear
	}

	var score float64
	if total > 0 {
		score = max / total
	}

	return Alignment{
		Score:             score,
		DominantDirection: dominant,
		Conflicts:         detectConflicts(signals),
	}
}

func detectConflicts(signals []signal) []Conflict {
	var conflicts []Conflict

	for i := 0; i < len(signals); i++ {
		for j := i + 1; j < len(signals); j++ {
			a, b := signals[i], signals[j]
			if !opposed(a.direction, b.direction) {
				continue
			}
			if a.weight >= 2.0 && b.weight >= 2.0 {
				conflicts = append(conflicts, Conflict{
					Type:     "high_timeframe_conflict",
					Severity: "high",
					Detail:   string(a.tf) + " (" + a.direction + ") vs " + string(b.tf) + " (" + b.direction + ")",
				})
			}
		}
	}

	bullCount, bearCount := 0, 0
	for _, s := range signals {
		switch s.direction {
		case regime.DirectionBullish:
			bullCount++
		case regime.DirectionBearish:
			bearCount++
		}
	}
	if bullCount > 0 && bearCount > 0 {
		severity := "low"
		if bullCount >= 2 && bearCount >= 2 {
			severity = "moderate"
		}
		conflicts = append(conflicts, Conflict{
			Type:     "directional_conflict",
			Severity: severity,
			Detail:   "bullish and bearish timeframe signals both present",
		})
	}

	if htf, ltf := heaviest(signals), lightest(signals); htf != nil && ltf != nil && htf != ltf {
		if opposed(htf.direction, ltf.direction) {
			conflicts = append(conflicts, Conflict{
				Type:     "htf_ltf_divergence",
				Severity: "low",
				Detail:   string(htf.tf) + " (" + htf.direction + ") opposes " + string(ltf.tf) + " (" + ltf.direction + ")",
			})
		}
	}

	return conflicts
}

func opposed(a, b string) bool {
	return (a == regime.DirectionBullish && b == regime.DirectionBearish) ||
		(a == regime.DirectionBearish && b == regime.DirectionBullish)
}

func heaviest(signals []signal) *signal {
	if len(signals) == 0 {
		return nil
	}
	best := signals[0]
	for _, s := range signals[1:] {
		if s.weight > best.weight {
			best = s
		}
	}
	return &best
}

func lightest(signals []signal) *signal {
	if len(signals) == 0 {
		return nil
	}
	best := signals[0]
	for _, s := range signals[1:] {
		if s.weight < best.weight {
			best = s
		}
	}
	return &best
}
