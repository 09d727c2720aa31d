// Package rowhash computes the deterministic 64-bit row fingerprint spec
// §4.F/§8 requires: hash joins, DISTINCT and GROUP BY all reuse the same
// fingerprint function over a chosen set of key columns, and it must be
// stable across chunked/sliced Arrow-style arrays. Grounded on
// spec §4.F's avalanche constants and on the teacher's go.mod dependency
// github.com/spaolacci/murmur3 for the per-cell 64-bit mix (the teacher
// itself never hashes rows — TiDB pushes this to TiKV's coprocessor — but
// murmur3 is the pack's one general-purpose hashing library and is used
// here exactly the way `original_source/opteryx`'s row-hashing relies on a
// murmur-family mixer).
package rowhash

import (
	"math"

	"github.com/spaolacci/murmur3"
	"github.com/vectorq/vectorq/morsel"
)

// NullHash is the fixed sentinel hash emitted for a row that has a null in
// any of its hash-key columns, so all such rows share one fingerprint.
// HashJoin never matches them: it skips any row with a null key before
// building or probing. Other users of the fingerprint (DISTINCT, GROUP BY,
// UNION) see these rows in one shared bucket.
const NullHash uint64 = 0x9e3779b97f4a7c15

// emptyListHash is the fixed sentinel for an empty list value.
const emptyListHash uint64 = 0xff51afd7ed558ccd

const (
	avalancheC1 uint64 = 0xff51afd7ed558ccd
	avalancheC2 uint64 = 0xc4ceb9fe1a85ec53
)

func avalanche(h, e uint64) uint64 {
	h ^= e
	h *= avalancheC1
	h ^= h >> 30
	h *= avalancheC2
	h ^= h >> 31
	return h
}

func mixBytes(b []byte) uint64 {
	return murmur3.Sum64(b)
}

func mixUint64(v uint64) uint64 {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	return murmur3.Sum64(buf[:])
}

// cellHash hashes a single cell of column c at row i, by physical type.
// Floats canonicalize -0 to +0 and NaN to a fixed value so that bit-
// identical-looking-but-distinct floats still hash equal when SQL equality
// says they should.
func cellHash(c *morsel.Column, i int) uint64 {
	switch c.Field.Type {
	case morsel.Bool:
		if c.Bools[i] {
			return mixUint64(1)
		}
		return mixUint64(0)
	case morsel.Int8:
		return mixUint64(uint64(int64(c.Int8s[i])))
	case morsel.Int16:
		return mixUint64(uint64(int64(c.Int16s[i])))
	case morsel.Int32, morsel.Date32:
		return mixUint64(uint64(int64(c.Int32s[i])))
	case morsel.Int64, morsel.TimestampMicros, morsel.IntervalMonthDayNano:
		return mixUint64(uint64(c.Int64s[i]))
	case morsel.Uint8:
		return mixUint64(uint64(c.Uint8s[i]))
	case morsel.Uint16:
		return mixUint64(uint64(c.Uint16s[i]))
	case morsel.Uint32:
		return mixUint64(uint64(c.Uint32s[i]))
	case morsel.Uint64:
		return mixUint64(c.Uint64s[i])
	case morsel.Float32:
		f := float64(c.Float32s[i])
		return mixUint64(canonicalFloatBits(f))
	case morsel.Float64:
		return mixUint64(canonicalFloatBits(c.Float64s[i]))
	case morsel.Utf8, morsel.Binary, morsel.FixedSizeBinary, morsel.Decimal, morsel.JSONB:
		return mixBytes([]byte(c.Strings[i]))
	case morsel.List:
		return listHash(c.Any[i])
	default:
		return NullHash
	}
}

func canonicalFloatBits(f float64) uint64 {
	if math.IsNaN(f) {
		return math.Float64bits(1.0) // fixed canonical NaN representative
	}
	if f == 0 {
		f = 0 // canonicalize -0 to +0
	}
	return math.Float64bits(f)
}

// listHash folds element hashes with the avalanche step spec §4.F names.
// An empty list gets a fixed sentinel rather than the fold's identity,
// since folding zero elements would otherwise collide with any other
// "untouched" accumulator value.
func listHash(v interface{}) uint64 {
	elems, ok := v.([]interface{})
	if !ok || len(elems) == 0 {
		return emptyListHash
	}
	h := uint64(0)
	for _, e := range elems {
		h = avalanche(h, scalarHash(e))
	}
	return h
}

func scalarHash(v interface{}) uint64 {
	switch x := v.(type) {
	case nil:
		return NullHash
	case bool:
		if x {
			return mixUint64(1)
		}
		return mixUint64(0)
	case int64:
		return mixUint64(uint64(x))
	case float64:
		return mixUint64(canonicalFloatBits(x))
	case string:
		return mixBytes([]byte(x))
	case []byte:
		return mixBytes(x)
	default:
		return NullHash
	}
}

// Row computes the fingerprint of row i restricted to keyCols (the
// "hash-key set"). If any keyCol is null at row i, the row is null-bitmap-
// aware: it returns NullHash immediately, since a join/group/distinct must
// never treat a NULL key as matching another NULL key.
func Row(cols []*morsel.Column, i int) uint64 {
	for _, c := range cols {
		if c.IsNull(i) {
			return NullHash
		}
	}
	h := uint64(1469598103934665603)
	for _, c := range cols {
		h = avalanche(h, cellHash(c, i))
	}
	return h
}

// Column computes the per-row fingerprint for every row of a single
// column, honoring chunk/slice invariance: operating through Column.Slice
// offsets rather than requiring a combined/flattened copy, so
// hash(C) == hash(C.Slice(0,len)) always holds (spec §8).
func Column(c *morsel.Column) []uint64 {
	n := c.Len()
	out := make([]uint64, n)
	for i := 0; i < n; i++ {
		if c.IsNull(i) {
			out[i] = NullHash
			continue
		}
		h := uint64(1469598103934665603)
		out[i] = avalanche(h, cellHash(c, i))
	}
	return out
}

// Rows computes the fingerprint for every row over a set of key columns in
// one pass, used by hash-join build/probe and GROUP BY.
func Rows(cols []*morsel.Column) []uint64 {
	if len(cols) == 0 {
		return nil
	}
	n := cols[0].Len()
	out := make([]uint64, n)
	for i := 0; i < n; i++ {
		out[i] = Row(cols, i)
	}
	return out
}
