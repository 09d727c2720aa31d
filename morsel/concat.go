package morsel

// Concat materializes every row buffered across ms into one Morsel with
// the given schema — the shape blocking operators (Sort, HashAggregate's
// build phase) and the session cursor's Arrow()/fetch-all paths both need
// once they have seen a whole input and must treat it as a single
// columnar batch. schema is assumed identical across every morsel in ms.
func Concat(schema Schema, ms []*Morsel) *Morsel {
	total := 0
	for _, m := range ms {
		total += m.RowCount
	}
	columns := make([]*Column, len(schema.Fields))
	for i, f := range schema.Fields {
		columns[i] = concatColumn(f, ms, i, total)
	}
	return New(schema, columns)
}

func concatColumn(f Field, ms []*Morsel, colIdx, total int) *Column {
	out := &Column{Field: f}
	hasNulls := false
	for _, m := range ms {
		if colIdx < len(m.Columns) && m.Columns[colIdx].Nulls != nil {
			hasNulls = true
			break
		}
	}
	if hasNulls {
		out.Nulls = make([]bool, 0, total)
	}
	appendNulls := func(c *Column, n int) {
		if out.Nulls == nil {
			return
		}
		if c.Nulls == nil {
			out.Nulls = append(out.Nulls, make([]bool, n)...)
			return
		}
		out.Nulls = append(out.Nulls, c.Nulls...)
	}

	switch f.Type {
	case Bool:
		vals := make([]bool, 0, total)
		for _, m := range ms {
			c := m.Columns[colIdx]
			vals = append(vals, c.Bools...)
			appendNulls(c, c.Len())
		}
		out.Bools = vals
	case Int8:
		vals := make([]int8, 0, total)
		for _, m := range ms {
			c := m.Columns[colIdx]
			vals = append(vals, c.Int8s...)
			appendNulls(c, c.Len())
		}
		out.Int8s = vals
	case Int16:
		vals := make([]int16, 0, total)
		for _, m := range ms {
			c := m.Columns[colIdx]
			vals = append(vals, c.Int16s...)
			appendNulls(c, c.Len())
		}
		out.Int16s = vals
	case Int32, Date32:
		vals := make([]int32, 0, total)
		for _, m := range ms {
			c := m.Columns[colIdx]
			vals = append(vals, c.Int32s...)
			appendNulls(c, c.Len())
		}
		out.Int32s = vals
	case Int64, TimestampMicros, IntervalMonthDayNano:
		vals := make([]int64, 0, total)
		for _, m := range ms {
			c := m.Columns[colIdx]
			vals = append(vals, c.Int64s...)
			appendNulls(c, c.Len())
		}
		out.Int64s = vals
	case Uint8:
		vals := make([]uint8, 0, total)
		for _, m := range ms {
			c := m.Columns[colIdx]
			vals = append(vals, c.Uint8s...)
			appendNulls(c, c.Len())
		}
		out.Uint8s = vals
	case Uint16:
		vals := make([]uint16, 0, total)
		for _, m := range ms {
			c := m.Columns[colIdx]
			vals = append(vals, c.Uint16s...)
			appendNulls(c, c.Len())
		}
		out.Uint16s = vals
	case Uint32:
		vals := make([]uint32, 0, total)
		for _, m := range ms {
			c := m.Columns[colIdx]
			vals = append(vals, c.Uint32s...)
			appendNulls(c, c.Len())
		}
		out.Uint32s = vals
	case Uint64:
		vals := make([]uint64, 0, total)
		for _, m := range ms {
			c := m.Columns[colIdx]
			vals = append(vals, c.Uint64s...)
			appendNulls(c, c.Len())
		}
		out.Uint64s = vals
	case Float32:
		vals := make([]float32, 0, total)
		for _, m := range ms {
			c := m.Columns[colIdx]
			vals = append(vals, c.Float32s...)
			appendNulls(c, c.Len())
		}
		out.Float32s = vals
	case Float64:
		vals := make([]float64, 0, total)
		for _, m := range ms {
			c := m.Columns[colIdx]
			vals = append(vals, c.Float64s...)
			appendNulls(c, c.Len())
		}
		out.Float64s = vals
	case Utf8, Binary, FixedSizeBinary, Decimal, JSONB:
		vals := make([]string, 0, total)
		for _, m := range ms {
			c := m.Columns[colIdx]
			vals = append(vals, c.Strings...)
			appendNulls(c, c.Len())
		}
		out.Strings = vals
	default:
		vals := make([]interface{}, 0, total)
		for _, m := range ms {
			c := m.Columns[colIdx]
			vals = append(vals, c.Any...)
			appendNulls(c, c.Len())
		}
		out.Any = vals
	}
	return out
}
