// Package timeframe enumerates the supported candle bucket durations.
package timeframe

import "fmt"

// Timeframe is a candle bucket duration, e.g. "1h", "1d".
type Timeframe string

const (
	M1  Timeframe = "1m"
	M3  Timeframe = "3m"
	M5  Timeframe = "5m"
	M15 Timeframe = "15m"
	M30 Timeframe = "30m"
	H1  Timeframe = "1h"
	H2  Timeframe = "2h"
	H4  Timeframe = "4h"
	H6  Timeframe = "6h"
	H8  Timeframe = "8h"
	H12 Timeframe = "12h"
	D1  Timeframe = "1d"
	D3  Timeframe = "3d"
	W1  Timeframe = "1w"
	Mo1 Timeframe = "1M"
)

// durationMs holds the deterministic millisecond duration of every
// timeframe except 1M, whose real bucket is the calendar month the
// upstream API uses. For 1M this is an approximate 30-day constant, so
// everything computed from it for 1M (gap detection, cache coverage
// windows, fetch batching) is approximate as well.
var durationMs = map[Timeframe]int64{
	M1:  60_000,
	M3:  3 * 60_000,
	M5:  5 * 60_000,
	M15: 15 * 60_000,
	M30: 30 * 60_000,
	H1:  3_600_000,
	H2:  2 * 3_600_000,
	H4:  4 * 3_600_000,
	H6:  6 * 3_600_000,
	H8:  8 * 3_600_000,
	H12: 12 * 3_600_000,
	D1:  86_400_000,
	D3:  3 * 86_400_000,
	W1:  7 * 86_400_000,
	Mo1: 30 * 86_400_000,
}

// order ranks timeframes from shortest to longest for sorting sets of
// timeframes (e.g. the MTF orchestrator's longest-first traversal).
var order = []Timeframe{M1, M3, M5, M15, M30, H1, H2, H4, H6, H8, H12, D1, D3, W1, Mo1}

// Valid reports whether tf is one of the supported timeframe strings.
func Valid(tf Timeframe) bool {
	_, ok := durationMs[tf]
	return ok
}

// DurationMs returns the millisecond duration of tf (the 30-day
// approximation for 1M).
func DurationMs(tf Timeframe) (int64, error) {
	d, ok := durationMs[tf]
	if !ok {
		return 0, fmt.Errorf("unsupported timeframe %q", tf)
	}
	return d, nil
}

// MustDurationMs panics on an unsupported timeframe; only for call
// sites that already validated tf.
func MustDurationMs(tf Timeframe) int64 {
	d, err := DurationMs(tf)
	if err != nil {
		panic(err)
	}
	return d
}

// Less reports whether a has a shorter duration than b, for sorting
// a set of timeframes shortest-to-longest (or reverse, for the MTF
// orchestrator's longest-first traversal).
func Less(a, b Timeframe) bool {
	return MustDurationMs(a) < MustDurationMs(b)
}

// rank returns a's position in the canonical shortest-to-longest order.
func rank(tf Timeframe) int {
	for i, o := range order {
		if o == tf {
			return i
		}
	}
	return -1
}

// Compare returns -1, 0, or 1 comparing a and b by duration.
func Compare(a, b Timeframe) int {
	ra, rb := rank(a), rank(b)
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	default:
		return 0
	}
}
