// Package stats implements the engine's columnar statistics: per-column
// min/max/null/cardinality bounds used by the optimizer's statistics
// pruning and the physical planner's join build-side choice. Grounded on the
// role `statistics.Table`/`statistics.HistColl` play in the teacher's
// planner/core/logical_plans.go (DataSource.statisticTable feeding
// GetRowCountByIntColumnRanges/Selectivity), reshaped to the fixed
// min/max/null/cardinality shape spec.md §3/§4.C describes instead of
// TiDB's histogram buckets.
package stats

import (
	"math"

	"github.com/vectorq/vectorq/ids"
)

// NullSentinel is the reserved i64 encoding for "no comparable value"
// (NaN, or any value the to_int total function cannot place in range).
const NullSentinel = math.MinInt64

// ColumnBounds holds the normalized [lower, upper] bound plus null/NDV
// accounting for one column.
type ColumnBounds struct {
	LowerBound          int64
	UpperBound          int64
	HasBounds           bool
	NullCount           int64
	CardinalityEstimate int64
}

// RelationStatistics is the per-relation statistics bag propagated through
// the plan: exact or estimated record count plus per-column bounds, keyed
// by the column's stable identity so renames/aliases don't invalidate it.
type RelationStatistics struct {
	RecordCount         int64
	RecordCountEstimate int64
	Columns             map[ids.ColumnID]*ColumnBounds
}

// NewRelationStatistics returns an empty, ready-to-populate stats bag.
func NewRelationStatistics() *RelationStatistics {
	return &RelationStatistics{Columns: make(map[ids.ColumnID]*ColumnBounds)}
}

func (r *RelationStatistics) bounds(id ids.ColumnID) *ColumnBounds {
	b, ok := r.Columns[id]
	if !ok {
		b = &ColumnBounds{}
		r.Columns[id] = b
	}
	return b
}

// UpdateLower maintains a monotone lower bound: the stored bound only ever
// moves down (or is set, the first time).
func (r *RelationStatistics) UpdateLower(id ids.ColumnID, v int64) {
	b := r.bounds(id)
	if !b.HasBounds || v < b.LowerBound {
		b.LowerBound = v
	}
	if !b.HasBounds {
		b.UpperBound = v
	}
	b.HasBounds = true
}

// UpdateUpper maintains a monotone upper bound: the stored bound only ever
// moves up (or is set, the first time).
func (r *RelationStatistics) UpdateUpper(id ids.ColumnID, v int64) {
	b := r.bounds(id)
	if !b.HasBounds || v > b.UpperBound {
		b.UpperBound = v
	}
	if !b.HasBounds {
		b.LowerBound = v
	}
	b.HasBounds = true
}

// AddNull accumulates the null count for a column.
func (r *RelationStatistics) AddNull(id ids.ColumnID, n int64) {
	r.bounds(id).NullCount += n
}

// Bounds returns (lower, upper, ok) for a column; ok is false if no bound
// has ever been recorded (e.g. an all-null column, or stats unavailable).
func (r *RelationStatistics) Bounds(id ids.ColumnID) (int64, int64, bool) {
	b, ok := r.Columns[id]
	if !ok || !b.HasBounds {
		return 0, 0, false
	}
	return b.LowerBound, b.UpperBound, true
}

// NullCount returns the recorded null count for a column.
func (r *RelationStatistics) NullCount(id ids.ColumnID) int64 {
	if b, ok := r.Columns[id]; ok {
		return b.NullCount
	}
	return 0
}

// Merge combines two statistics bags into a new one: record counts sum,
// per-column bounds take the min of lowers and max of uppers, and null
// counts sum. Used when a scan has multiple row groups/partitions.
func Merge(a, b *RelationStatistics) *RelationStatistics {
	out := NewRelationStatistics()
	out.RecordCount = a.RecordCount + b.RecordCount
	out.RecordCountEstimate = a.RecordCountEstimate + b.RecordCountEstimate
	for id, ab := range a.Columns {
		nb := &ColumnBounds{
			LowerBound: ab.LowerBound, UpperBound: ab.UpperBound,
			HasBounds: ab.HasBounds, NullCount: ab.NullCount,
			CardinalityEstimate: ab.CardinalityEstimate,
		}
		out.Columns[id] = nb
	}
	for id, bb := range b.Columns {
		ab, ok := out.Columns[id]
		if !ok {
			out.Columns[id] = &ColumnBounds{
				LowerBound: bb.LowerBound, UpperBound: bb.UpperBound,
				HasBounds: bb.HasBounds, NullCount: bb.NullCount,
				CardinalityEstimate: bb.CardinalityEstimate,
			}
			continue
		}
		if bb.HasBounds {
			if !ab.HasBounds || bb.LowerBound < ab.LowerBound {
				ab.LowerBound = bb.LowerBound
			}
			if !ab.HasBounds || bb.UpperBound > ab.UpperBound {
				ab.UpperBound = bb.UpperBound
			}
			ab.HasBounds = true
		}
		ab.NullCount += bb.NullCount
		if bb.CardinalityEstimate > ab.CardinalityEstimate {
			ab.CardinalityEstimate = bb.CardinalityEstimate
		}
	}
	return out
}
