// Package decode defines the format-decoder contract (spec §6): Parquet,
// ORC, Arrow IPC, JSONL and CSV decoders are external collaborators — the
// execution core only sees this interface, plus the extra Parquet-only
// metadata/bloom-probe methods spec §6 calls out explicitly.
package decode

import (
	"github.com/vectorq/vectorq/ids"
	"github.com/vectorq/vectorq/morsel"
	"github.com/vectorq/vectorq/stats"
)

// Projection is the set of column identities a scan needs from a decode
// call: the columns actually referenced downstream, after projection
// pushdown (spec §4.I rule 6).
type Projection struct {
	ColumnIDs []ids.ColumnID
	// NameByID lets a decoder that only knows source column names resolve
	// an identity back to the name it must read, since identities are
	// assigned at bind time and are opaque to the decoder otherwise.
	NameByID map[ids.ColumnID]string
}

// Decoder turns raw bytes into a Morsel plus the statistics the bytes
// carried (e.g. a Parquet row group's min/max/null_count), honoring a
// projection and, where supported, a pushed-down predicate.
type Decoder interface {
	// Decode returns the (num_rows, num_columns, schema, data) for the
	// given bytes and projection, plus whatever RelationStatistics the
	// source format can report cheaply (e.g. from a Parquet footer).
	Decode(data []byte, projection Projection) (*morsel.Morsel, *stats.RelationStatistics, error)
}

// ParquetMetadataReader is the extra, format-specific contract spec §6
// requires of Parquet decoders: metadata-only reads and a bloom-filter
// probe, both of which let the optimizer prune scans without touching row
// data.
type ParquetMetadataReader interface {
	// ReadMetadata returns row count and per-row-group, per-column
	// statistics (min/max/null_count), plus codec/encoding info and the
	// byte range of any embedded bloom filter, without decoding column
	// data.
	ReadMetadata(data []byte) (RowGroupStats, error)

	// ProbeBloomFilter tests whether candidate could be present in the
	// bloom filter stored at [offset, offset+length) within data. A false
	// result is conclusive (no false negatives); true means "maybe".
	ProbeBloomFilter(data []byte, offset, length int64, candidate []byte) (bool, error)
}

// RowGroupStats is the metadata-only read spec §6 names.
type RowGroupStats struct {
	RowCount       int64
	RowGroups      []RowGroupInfo
	Codec          string
	Encodings      []string
	BloomOffset    int64
	BloomLength    int64
	HasBloomFilter bool
}

// RowGroupInfo is per-row-group, per-column min/max/null_count.
type RowGroupInfo struct {
	RowCount int64
	Columns  map[ids.ColumnID]*stats.ColumnBounds
}
