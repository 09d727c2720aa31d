package stats

import (
	"sort"

	"github.com/gogo/protobuf/proto"
	"github.com/vectorq/vectorq/ids"
)

// Serialize encodes a RelationStatistics to a compact byte string so it can
// be reused across processes (e.g. cached alongside a Parquet file's
// metadata). Uses gogo/protobuf's wire primitives directly rather than a
// generated message, since the shape is fixed and tiny: varint record
// counts and column count, then per column a varint id, fixed64 lower and
// upper bounds, and varints for the has-bounds flag, null count and
// cardinality.
func Serialize(r *RelationStatistics) []byte {
	buf := proto.NewBuffer(nil)
	_ = buf.EncodeVarint(uint64(r.RecordCount))
	_ = buf.EncodeVarint(uint64(r.RecordCountEstimate))

	colIDs := make([]ids.ColumnID, 0, len(r.Columns))
	for id := range r.Columns {
		colIDs = append(colIDs, id)
	}
	sort.Slice(colIDs, func(i, j int) bool { return colIDs[i] < colIDs[j] })

	_ = buf.EncodeVarint(uint64(len(colIDs)))
	for _, id := range colIDs {
		b := r.Columns[id]
		_ = buf.EncodeVarint(uint64(id))
		_ = buf.EncodeFixed64(uint64(b.LowerBound))
		_ = buf.EncodeFixed64(uint64(b.UpperBound))
		hasBounds := uint64(0)
		if b.HasBounds {
			hasBounds = 1
		}
		_ = buf.EncodeVarint(hasBounds)
		_ = buf.EncodeVarint(uint64(b.NullCount))
		_ = buf.EncodeVarint(uint64(b.CardinalityEstimate))
	}
	return buf.Bytes()
}

// Deserialize is the inverse of Serialize; it round-trips losslessly for
// any value Serialize produced.
func Deserialize(data []byte) (*RelationStatistics, error) {
	buf := proto.NewBuffer(data)
	out := NewRelationStatistics()

	rc, err := buf.DecodeVarint()
	if err != nil {
		return nil, err
	}
	out.RecordCount = int64(rc)

	rce, err := buf.DecodeVarint()
	if err != nil {
		return nil, err
	}
	out.RecordCountEstimate = int64(rce)

	n, err := buf.DecodeVarint()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < n; i++ {
		id, err := buf.DecodeVarint()
		if err != nil {
			return nil, err
		}
		lo, err := buf.DecodeFixed64()
		if err != nil {
			return nil, err
		}
		hi, err := buf.DecodeFixed64()
		if err != nil {
			return nil, err
		}
		hasBounds, err := buf.DecodeVarint()
		if err != nil {
			return nil, err
		}
		nullCount, err := buf.DecodeVarint()
		if err != nil {
			return nil, err
		}
		card, err := buf.DecodeVarint()
		if err != nil {
			return nil, err
		}
		out.Columns[ids.ColumnID(id)] = &ColumnBounds{
			LowerBound:          int64(lo),
			UpperBound:          int64(hi),
			HasBounds:           hasBounds != 0,
			NullCount:           int64(nullCount),
			CardinalityEstimate: int64(card),
		}
	}
	return out, nil
}
