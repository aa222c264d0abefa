// Package series merges independently sampled tags into a single table
// keyed by the union of their timestamps.
//
// Timestamps are compared and ordered as plain strings. For ISO-8601 input
// that ordering is chronological; other formats are not validated and may
// sort in surprising ways.
package series

import (
	"sort"

	"github.com/rubiojr/signalscope/pkg/sensor"
)

// MixedUnits is the axis label used when the selected tags disagree on unit.
const MixedUnits = "Mixed Units"

// Point is the value and quality of one tag at one timestamp.
type Point struct {
	Value   float64        `json:"value"`
	Quality sensor.Quality `json:"quality"`
}

// Row holds every selected tag's reading at a single timestamp. Tags with
// no sample at Timestamp are absent from Values.
type Row struct {
	Timestamp string           `json:"timestamp"`
	Values    map[string]Point `json:"values"`
}

// Lookup returns the point recorded for tag id, if any.
func (r Row) Lookup(id string) (Point, bool) {
	p, ok := r.Values[id]
	return p, ok
}

// Align builds one row per distinct timestamp across tags, sorted
// lexicographically. An empty selection yields no rows.
func Align(tags []sensor.FlattenedTag) []Row {
	if len(tags) == 0 {
		return []Row{}
	}

	indexes := make([]map[string]Point, len(tags))
	seen := make(map[string]struct{})
	for i, tag := range tags {
		idx := make(map[string]Point, len(tag.Samples))
		for _, s := range tag.Samples {
			seen[s.Timestamp] = struct{}{}
			// first sample at a timestamp wins
			if _, dup := idx[s.Timestamp]; dup {
				continue
			}
			idx[s.Timestamp] = Point{Value: s.Value, Quality: s.Quality}
		}
		indexes[i] = idx
	}

	timestamps := make([]string, 0, len(seen))
	for ts := range seen {
		timestamps = append(timestamps, ts)
	}
	sort.Strings(timestamps)

	rows := make([]Row, 0, len(timestamps))
	for _, ts := range timestamps {
		row := Row{Timestamp: ts, Values: make(map[string]Point, len(tags))}
		for i, tag := range tags {
			if p, ok := indexes[i][ts]; ok {
				row.Values[tag.ID] = p
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// UnitLabel returns the shared unit of tags, MixedUnits when they differ,
// or an empty string for an empty selection.
func UnitLabel(tags []sensor.FlattenedTag) string {
	if len(tags) == 0 {
		return ""
	}
	unit := tags[0].Unit
	for _, tag := range tags[1:] {
		if tag.Unit != unit {
			return MixedUnits
		}
	}
	return unit
}

// PointCount returns how many points tag id contributes to rows.
func PointCount(rows []Row, id string) int {
	n := 0
	for _, row := range rows {
		if _, ok := row.Values[id]; ok {
			n++
		}
	}
	return n
}
