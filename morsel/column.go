package morsel

// Column is one batch of values for a single Field. Exactly one of the
// typed slices below is populated, selected by Field.Type; List/Struct/
// JSONB use Any. Columns are immutable once produced — an operator that
// wants to change a value builds a new Column.
type Column struct {
	Field Field
	Nulls []bool // Nulls[i] == true means row i is null; nil means no nulls

	Bools    []bool
	Int8s    []int8
	Int16s   []int16
	Int32s   []int32
	Int64s   []int64
	Uint8s   []uint8
	Uint16s  []uint16
	Uint32s  []uint32
	Uint64s  []uint64
	Float32s []float32
	Float64s []float64
	Strings  []string // Utf8, Binary, FixedSizeBinary, Decimal (decimal string form), JSONB bytes as string
	Any      []interface{}
}

// Len returns the row count of the column.
func (c *Column) Len() int {
	switch c.Field.Type {
	case Bool:
		return len(c.Bools)
	case Int8:
		return len(c.Int8s)
	case Int16:
		return len(c.Int16s)
	case Int32, Date32:
		return len(c.Int32s)
	case Int64, TimestampMicros, IntervalMonthDayNano:
		return len(c.Int64s)
	case Uint8:
		return len(c.Uint8s)
	case Uint16:
		return len(c.Uint16s)
	case Uint32:
		return len(c.Uint32s)
	case Uint64:
		return len(c.Uint64s)
	case Float32:
		return len(c.Float32s)
	case Float64:
		return len(c.Float64s)
	case Utf8, Binary, FixedSizeBinary, Decimal, JSONB:
		return len(c.Strings)
	default:
		return len(c.Any)
	}
}

// IsNull reports whether row i is null.
func (c *Column) IsNull(i int) bool {
	return c.Nulls != nil && i < len(c.Nulls) && c.Nulls[i]
}

// Slice returns a zero-copy view of rows [lo, hi). Slicing must never
// change hashing results (§4.F/§8): row hashing reads through the offset,
// it does not require a materialized copy.
func (c *Column) Slice(lo, hi int) *Column {
	out := &Column{Field: c.Field}
	if c.Nulls != nil {
		out.Nulls = c.Nulls[lo:hi]
	}
	switch c.Field.Type {
	case Bool:
		out.Bools = c.Bools[lo:hi]
	case Int8:
		out.Int8s = c.Int8s[lo:hi]
	case Int16:
		out.Int16s = c.Int16s[lo:hi]
	case Int32, Date32:
		out.Int32s = c.Int32s[lo:hi]
	case Int64, TimestampMicros, IntervalMonthDayNano:
		out.Int64s = c.Int64s[lo:hi]
	case Uint8:
		out.Uint8s = c.Uint8s[lo:hi]
	case Uint16:
		out.Uint16s = c.Uint16s[lo:hi]
	case Uint32:
		out.Uint32s = c.Uint32s[lo:hi]
	case Uint64:
		out.Uint64s = c.Uint64s[lo:hi]
	case Float32:
		out.Float32s = c.Float32s[lo:hi]
	case Float64:
		out.Float64s = c.Float64s[lo:hi]
	case Utf8, Binary, FixedSizeBinary, Decimal, JSONB:
		out.Strings = c.Strings[lo:hi]
	default:
		out.Any = c.Any[lo:hi]
	}
	return out
}

// Take returns a new Column containing rows at the given indices, used by
// join operators materializing output from (left_row_idx, right_row_idx)
// pairs and by Sort/Limit.
func (c *Column) Take(indices []int) *Column {
	out := &Column{Field: c.Field}
	n := len(indices)
	if c.Nulls != nil {
		out.Nulls = make([]bool, n)
		for i, idx := range indices {
			out.Nulls[i] = c.Nulls[idx]
		}
	}
	switch c.Field.Type {
	case Bool:
		out.Bools = make([]bool, n)
		for i, idx := range indices {
			out.Bools[i] = c.Bools[idx]
		}
	case Int8:
		out.Int8s = make([]int8, n)
		for i, idx := range indices {
			out.Int8s[i] = c.Int8s[idx]
		}
	case Int16:
		out.Int16s = make([]int16, n)
		for i, idx := range indices {
			out.Int16s[i] = c.Int16s[idx]
		}
	case Int32, Date32:
		out.Int32s = make([]int32, n)
		for i, idx := range indices {
			out.Int32s[i] = c.Int32s[idx]
		}
	case Int64, TimestampMicros, IntervalMonthDayNano:
		out.Int64s = make([]int64, n)
		for i, idx := range indices {
			out.Int64s[i] = c.Int64s[idx]
		}
	case Uint8:
		out.Uint8s = make([]uint8, n)
		for i, idx := range indices {
			out.Uint8s[i] = c.Uint8s[idx]
		}
	case Uint16:
		out.Uint16s = make([]uint16, n)
		for i, idx := range indices {
			out.Uint16s[i] = c.Uint16s[idx]
		}
	case Uint32:
		out.Uint32s = make([]uint32, n)
		for i, idx := range indices {
			out.Uint32s[i] = c.Uint32s[idx]
		}
	case Uint64:
		out.Uint64s = make([]uint64, n)
		for i, idx := range indices {
			out.Uint64s[i] = c.Uint64s[idx]
		}
	case Float32:
		out.Float32s = make([]float32, n)
		for i, idx := range indices {
			out.Float32s[i] = c.Float32s[idx]
		}
	case Float64:
		out.Float64s = make([]float64, n)
		for i, idx := range indices {
			out.Float64s[i] = c.Float64s[idx]
		}
	case Utf8, Binary, FixedSizeBinary, Decimal, JSONB:
		out.Strings = make([]string, n)
		for i, idx := range indices {
			out.Strings[i] = c.Strings[idx]
		}
	default:
		out.Any = make([]interface{}, n)
		for i, idx := range indices {
			out.Any[i] = c.Any[idx]
		}
	}
	return out
}
