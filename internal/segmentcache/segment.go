// Package segmentcache implements the gateway's central cache engine:
// per-(symbol,timeframe) continuous segments of candles, merged on
// write and served with full/partial/none coverage classification.
package segmentcache

import (
	"encoding/json"
	"time"

	"github.com/atlas-desktop/midasgw/pkg/candle"
)

// Segment is the per-(symbol,timeframe) cached value.
type Segment struct {
	Start     int64                  `json:"start"`
	End       int64                  `json:"end"`
	Bars      map[int64]candle.Candle `json:"-"`
	CreatedAt int64                  `json:"created_at"`
}

// Count returns the number of cached bars.
func (s *Segment) Count() int { return len(s.Bars) }

// segmentWire is the ordered [timestamp, Candle] wire format required
// for portability across store backends (a Go map has no stable
// encoding order).
type segmentWire struct {
	Start     int64           `json:"start"`
	End       int64           `json:"end"`
	CreatedAt int64           `json:"created_at"`
	Bars      [][2]json.RawMessage `json:"bars"`
}

// MarshalJSON encodes bars as an ordered sequence of [timestamp, Candle]
// pairs, sorted ascending by timestamp.
func (s *Segment) MarshalJSON() ([]byte, error) {
	sorted := make([]candle.Candle, 0, len(s.Bars))
	for _, c := range s.Bars {
		sorted = append(sorted, c)
	}
	candle.SortByTimestamp(sorted)

	wire := segmentWire{Start: s.Start, End: s.End, CreatedAt: s.CreatedAt}
	for _, c := range sorted {
		tsJSON, err := json.Marshal(c.Timestamp)
		if err != nil {
			return nil, err
		}
		cJSON, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		wire.Bars = append(wire.Bars, [2]json.RawMessage{tsJSON, cJSON})
	}
	return json.Marshal(wire)
}

// UnmarshalJSON restores bars from the ordered wire pairs.
func (s *Segment) UnmarshalJSON(data []byte) error {
	var wire segmentWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	s.Start = wire.Start
	s.End = wire.End
	s.CreatedAt = wire.CreatedAt
	s.Bars = make(map[int64]candle.Candle, len(wire.Bars))
	for _, pair := range wire.Bars {
		var ts int64
		if err := json.Unmarshal(pair[0], &ts); err != nil {
			return err
		}
		var c candle.Candle
		if err := json.Unmarshal(pair[1], &c); err != nil {
			return err
		}
		s.Bars[ts] = c
	}
	return nil
}

func nowMs() int64 { return time.Now().UnixMilli() }
