// Package morsel defines the engine's columnar unit of work: the Morsel
// (a batch of rows in column form), its Column and Schema, and the
// end-of-stream sentinel operators exchange across edges of the physical
// plan DAG. Grounded on the column/schema pairing in the teacher's
// expression.Column/expression.Schema (stable-identity columns attached to
// a schema that composes under projection/join/aggregation), reworked into
// a plain value type instead of a planner-bound one.
package morsel

import "github.com/vectorq/vectorq/ids"

// Type is the fixed physical type palette the engine supports. New SQL
// types are mapped onto one of these at bind time; the executor and
// expression evaluator only ever see this palette.
type Type int

const (
	Invalid Type = iota
	Bool
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Decimal
	Date32
	TimestampMicros
	IntervalMonthDayNano
	Utf8
	Binary
	FixedSizeBinary
	List
	Struct
	JSONB
)

func (t Type) String() string {
	switch t {
	case Bool:
		return "BOOL"
	case Int8:
		return "I8"
	case Int16:
		return "I16"
	case Int32:
		return "I32"
	case Int64:
		return "I64"
	case Uint8:
		return "U8"
	case Uint16:
		return "U16"
	case Uint32:
		return "U32"
	case Uint64:
		return "U64"
	case Float32:
		return "F32"
	case Float64:
		return "F64"
	case Decimal:
		return "DECIMAL"
	case Date32:
		return "DATE32"
	case TimestampMicros:
		return "TIMESTAMP_US"
	case IntervalMonthDayNano:
		return "INTERVAL_MDN"
	case Utf8:
		return "UTF8"
	case Binary:
		return "BINARY"
	case FixedSizeBinary:
		return "FIXED_BINARY"
	case List:
		return "LIST"
	case Struct:
		return "STRUCT"
	case JSONB:
		return "JSONB"
	default:
		return "INVALID"
	}
}

// ColumnID is re-exported from package ids so existing call sites can write
// morsel.ColumnID; the canonical definition lives in ids to avoid an import
// cycle between morsel (row data) and stats (column bounds).
type ColumnID = ids.ColumnID

// DecimalMeta carries precision/scale for Decimal-typed columns.
type DecimalMeta struct {
	Precision int32
	Scale     int32
}

// Field describes one column's static shape: identity, display name,
// physical type, nullability and (for List) element type.
type Field struct {
	ID       ColumnID
	Name     string
	Type     Type
	Nullable bool
	Decimal  DecimalMeta
	ListElem Type
	FixedLen int32 // for FixedSizeBinary
}

// Schema is an ordered set of Fields. Schemas compose under projection,
// join and aggregation following relational-algebra rules; every physical
// operator publishes its output Schema at planning time.
type Schema struct {
	Fields []Field
}

// IndexOf returns the position of id in the schema, or -1.
func (s *Schema) IndexOf(id ColumnID) int {
	for i := range s.Fields {
		if s.Fields[i].ID == id {
			return i
		}
	}
	return -1
}

// Project returns a new Schema containing only the given column identities,
// preserving their relative order within ids (not within s).
func (s *Schema) Project(ids []ColumnID) Schema {
	out := Schema{Fields: make([]Field, 0, len(ids))}
	for _, id := range ids {
		if i := s.IndexOf(id); i >= 0 {
			out.Fields = append(out.Fields, s.Fields[i])
		}
	}
	return out
}

// Concat returns the field-wise concatenation of two schemas, used when
// lowering joins: left columns followed by right columns.
func Concat(a, b Schema) Schema {
	out := Schema{Fields: make([]Field, 0, len(a.Fields)+len(b.Fields))}
	out.Fields = append(out.Fields, a.Fields...)
	out.Fields = append(out.Fields, b.Fields...)
	return out
}

// Fingerprint is a cheap structural hash of the schema shape, used to
// detect accidental schema drift between a scan's decoded output and the
// plan's expectation without comparing every field.
func (s *Schema) Fingerprint() uint64 {
	var h uint64 = 1469598103934665603 // FNV offset basis
	for _, f := range s.Fields {
		h ^= uint64(f.ID)
		h *= 1099511628211
		h ^= uint64(f.Type)
		h *= 1099511628211
	}
	return h
}
