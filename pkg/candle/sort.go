package candle

import "sort"

func sortCandles(candles []Candle) {
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp < candles[j].Timestamp
	})
}

// DedupeSorted removes duplicate timestamps from an ascending-sorted
// slice, keeping the last occurrence of each timestamp.
func DedupeSorted(candles []Candle) []Candle {
	if len(candles) == 0 {
		return candles
	}
	out := make([]Candle, 0, len(candles))
	for i, c := range candles {
		if i+1 < len(candles) && candles[i+1].Timestamp == c.Timestamp {
			continue // a later duplicate wins
		}
		out = append(out, c)
	}
	return out
}

// CleanAndSort dedupes by timestamp (last value wins) and sorts
// ascending, per MarketDataProvider's "Clean" step. A stable sort
// preserves each timestamp's original relative order, so the last
// input occurrence of a timestamp remains last after sorting.
func CleanAndSort(candles []Candle) []Candle {
	cp := make([]Candle, len(candles))
	copy(cp, candles)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Timestamp < cp[j].Timestamp })
	return DedupeSorted(cp)
}
