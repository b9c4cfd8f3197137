package segmentcache

import "github.com/atlas-desktop/midasgw/pkg/candle"

// Coverage classifies how completely a cached segment answers a Get.
type Coverage string

const (
	CoverageFull    Coverage = "full"
	CoveragePartial Coverage = "partial"
	CoverageNone    Coverage = "none"
)

// Gap is an uncovered interval adjacent to a segment's bounds. One end
// is the segment's own boundary timestamp, which is covered: End for a
// gap before the segment, Start for a gap after it.
type Gap struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// MissingRange describes what a Get could not serve from cache.
type MissingRange struct {
	// Populated only on a CoverageNone result.
	Count        int    `json:"count,omitempty"`
	EndTimestamp int64  `json:"end_timestamp,omitempty"`

	// Populated only on a CoveragePartial result.
	Before *Gap `json:"before,omitempty"`
	After  *Gap `json:"after,omitempty"`
}

// CoverageResult is the return shape of SegmentCache.Get.
type CoverageResult struct {
	Coverage Coverage        `json:"coverage"`
	Bars     []candle.Candle `json:"bars"`
	Missing  *MissingRange   `json:"missing,omitempty"`
}

// barsInRange returns the bars in seg with start <= timestamp <= end,
// sorted ascending.
func barsInRange(seg *Segment, start, end int64) []candle.Candle {
	out := make([]candle.Candle, 0)
	for ts, c := range seg.Bars {
		if ts >= start && ts <= end {
			out = append(out, c)
		}
	}
	candle.SortByTimestamp(out)
	return out
}

// lastN returns the last n entries of a timestamp-ascending slice.
func lastN(bars []candle.Candle, n int) []candle.Candle {
	if n <= 0 || len(bars) <= n {
		return bars
	}
	return bars[len(bars)-n:]
}
