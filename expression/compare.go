package expression

import (
	"github.com/vectorq/vectorq/errkind"
	"github.com/vectorq/vectorq/morsel"
	"github.com/vectorq/vectorq/plan/logical"
)

// evalCompare evaluates a single (col OP val) atom over every row of m,
// returning a row mask: IS NULL/IS NOT NULL read the null flags and are
// total; every other comparison against a NULL operand is false in the
// mask. Eval marks those rows NULL in a Compare's result column (spec §4.P).
func (ev *Evaluator) evalCompare(cmp logical.Compare, m *morsel.Morsel) ([]bool, error) {
	left := m.ColumnByID(cmp.Col.ID)
	if left == nil {
		return nil, errkind.Newf(errkind.ColumnNotFound, "column id %d not present in morsel", cmp.Col.ID)
	}

	if cmp.Op == logical.OpIsNull {
		out := make([]bool, m.RowCount)
		for i := range out {
			out[i] = left.IsNull(i)
		}
		return out, nil
	}
	if cmp.Op == logical.OpIsNotNull {
		out := make([]bool, m.RowCount)
		for i := range out {
			out[i] = !left.IsNull(i)
		}
		return out, nil
	}

	right, err := ev.Eval(cmp.Val, m)
	if err != nil {
		return nil, err
	}

	out := make([]bool, m.RowCount)
	for i := 0; i < m.RowCount; i++ {
		if left.IsNull(i) || right.IsNull(i) {
			out[i] = false // three-valued NULL treated as not-matching for a boolean mask (spec §4.O Filter)
			continue
		}
		cmpResult := ev.compareValues(left, right, i)
		out[i] = applyOp(cmp.Op, cmpResult)
	}
	return out, nil
}

func applyOp(op logical.Op, cmp int) bool {
	switch op {
	case logical.OpEq:
		return cmp == 0
	case logical.OpNeq:
		return cmp != 0
	case logical.OpLt:
		return cmp < 0
	case logical.OpLte:
		return cmp <= 0
	case logical.OpGt:
		return cmp > 0
	case logical.OpGte:
		return cmp >= 0
	default:
		return false
	}
}

// compareValues returns -1/0/1 comparing left[li] to right[ri], using
// collation-aware comparison for string columns (spec §4.P/§4.O's ORDER
// BY honoring the same rule) and numeric widening otherwise.
func (ev *Evaluator) compareValues(left, right *morsel.Column, i int) int {
	return ev.CompareCells(left, i, right, i)
}

// CompareCells compares left[li] to right[ri] — exported for Sort/ORDER BY,
// which compares different row positions rather than the same row index
// evalCompare always uses (col OP val) is always left[i] vs val[i]).
func (ev *Evaluator) CompareCells(left *morsel.Column, li int, right *morsel.Column, ri int) int {
	if left.Field.Type == morsel.Utf8 || right.Field.Type == morsel.Utf8 {
		return ev.collator.CompareString(stringAt(left, li), stringAt(right, ri))
	}
	lf, lok := numericAt(left, li)
	rf, rok := numericAt(right, ri)
	if lok && rok {
		switch {
		case lf < rf:
			return -1
		case lf > rf:
			return 1
		default:
			return 0
		}
	}
	// Fall back to a raw byte comparison for types numericAt doesn't cover
	// (Binary/FixedSizeBinary/Decimal's string form).
	ls, rs := stringAt(left, li), stringAt(right, ri)
	switch {
	case ls < rs:
		return -1
	case ls > rs:
		return 1
	default:
		return 0
	}
}

// NumericAt exports numericAt for callers outside the package (e.g.
// HashAggregate's SUM/AVG/MIN/MAX accumulators) that need the same
// type-aware widening this package already implements for comparisons.
func NumericAt(c *morsel.Column, i int) (float64, bool) { return numericAt(c, i) }

func stringAt(c *morsel.Column, i int) string {
	if i < len(c.Strings) {
		return c.Strings[i]
	}
	return ""
}

func numericAt(c *morsel.Column, i int) (float64, bool) {
	switch c.Field.Type {
	case morsel.Bool:
		if i < len(c.Bools) {
			if c.Bools[i] {
				return 1, true
			}
			return 0, true
		}
	case morsel.Int8:
		if i < len(c.Int8s) {
			return float64(c.Int8s[i]), true
		}
	case morsel.Int16:
		if i < len(c.Int16s) {
			return float64(c.Int16s[i]), true
		}
	case morsel.Int32, morsel.Date32:
		if i < len(c.Int32s) {
			return float64(c.Int32s[i]), true
		}
	case morsel.Int64, morsel.TimestampMicros, morsel.IntervalMonthDayNano:
		if i < len(c.Int64s) {
			return float64(c.Int64s[i]), true
		}
	case morsel.Uint8:
		if i < len(c.Uint8s) {
			return float64(c.Uint8s[i]), true
		}
	case morsel.Uint16:
		if i < len(c.Uint16s) {
			return float64(c.Uint16s[i]), true
		}
	case morsel.Uint32:
		if i < len(c.Uint32s) {
			return float64(c.Uint32s[i]), true
		}
	case morsel.Uint64:
		if i < len(c.Uint64s) {
			return float64(c.Uint64s[i]), true
		}
	case morsel.Float32:
		if i < len(c.Float32s) {
			return float64(c.Float32s[i]), true
		}
	case morsel.Float64:
		if i < len(c.Float64s) {
			return float64(c.Float64s[i]), true
		}
	}
	return 0, false
}
