package operators

import (
	"context"

	"github.com/vectorq/vectorq/exec/executor"
	"github.com/vectorq/vectorq/expression"
	"github.com/vectorq/vectorq/morsel"
	"github.com/vectorq/vectorq/plan/logical"
)

// drain fully opens op, collecting every non-EOS morsel it pushes — the
// shared "blocking operator" pattern Sort, HashAggregate, Distinct and a
// hash join's build side all need: see the whole input before producing
// any output.
func drain(ctx context.Context, op executor.Operator) ([]*morsel.Morsel, error) {
	var out []*morsel.Morsel
	err := op.Open(ctx, func(m *morsel.Morsel) error {
		if m == morsel.EOS {
			return nil
		}
		out = append(out, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// groupKeysEqual re-checks actual column equality between row i and row j
// of the same column slice — the self-join analog of HashJoin.rowsEqual,
// used by HashAggregate and Distinct to rule out a rowhash collision
// before treating two rows as the same group/distinct key (spec §4.N).
func groupKeysEqual(ev *expression.Evaluator, cols []*morsel.Column, i, j int) bool {
	for _, c := range cols {
		if ev.CompareCells(c, i, c, j) != 0 {
			return false
		}
	}
	return true
}

// collisionSaltedKey derives a flathash.Map bucket key for the n-th
// distinct group discovered under raw fingerprint hv (n == 0 reuses hv
// itself). n > 0 only happens when two real group/distinct keys collide
// on their 64-bit rowhash — vanishingly rare given rowhash's avalanche
// mixing — and salting keeps them in separate buckets rather than merging.
func collisionSaltedKey(hv uint64, n int) uint64 {
	if n == 0 {
		return hv
	}
	const salt = 0x9e3779b97f4a7c15 // matches rowhash.NullHash's golden-ratio constant
	return hv ^ (salt * uint64(n))
}

// applyPredicate filters m down to the rows pred's DNF mask selects,
// evaluating with eval and materializing survivors via Column.Take — a
// no-op (returns m unchanged) when pred carries no clauses at all.
func applyPredicate(eval *expression.Evaluator, m *morsel.Morsel, pred logical.DNF) (*morsel.Morsel, error) {
	if len(pred.Clauses) == 0 {
		return m, nil
	}
	mask, err := eval.EvalDNF(pred, m)
	if err != nil {
		return nil, err
	}
	keep := make([]int, 0, m.RowCount)
	for i, ok := range mask {
		if ok {
			keep = append(keep, i)
		}
	}
	if len(keep) == m.RowCount {
		return m, nil
	}
	columns := make([]*morsel.Column, len(m.Columns))
	for i, c := range m.Columns {
		columns[i] = c.Take(keep)
	}
	return morsel.New(m.Schema, columns), nil
}

// withField returns a shallow copy of c carrying f as its Field, used when
// an evaluated expression's output must be relabeled with the output
// schema's identity (e.g. a bare column reference projected under a fresh
// ColumnID) without mutating the shared, possibly-aliased source column.
func withField(c *morsel.Column, f morsel.Field) *morsel.Column {
	out := *c
	out.Field = f
	return &out
}

// takeNullable is Column.Take generalized to treat a -1 index as a NULL
// output row — used by outer joins materializing the unmatched side of a
// LEFT/RIGHT/FULL OUTER JOIN, where there is no real source row to copy.
func takeNullable(c *morsel.Column, indices []int) *morsel.Column {
	if c.Len() == 0 {
		return nullColumn(c.Field, len(indices))
	}
	real := make([]int, len(indices))
	nullAt := make([]bool, len(indices))
	anyNull := false
	for i, idx := range indices {
		if idx < 0 {
			nullAt[i] = true
			anyNull = true
			real[i] = 0
			continue
		}
		real[i] = idx
	}
	out := c.Take(real)
	if anyNull {
		if out.Nulls == nil {
			out.Nulls = make([]bool, len(indices))
		}
		for i, n := range nullAt {
			if n {
				out.Nulls[i] = true
			}
		}
	}
	return out
}

// nullColumn builds an all-NULL Column of f's type and length n, used when
// takeNullable needs to fabricate an unmatched outer-join side from a
// column that has no real rows to index into at all.
func nullColumn(f morsel.Field, n int) *morsel.Column {
	c := &morsel.Column{Field: f}
	nulls := make([]bool, n)
	for i := range nulls {
		nulls[i] = true
	}
	c.Nulls = nulls
	switch f.Type {
	case morsel.Bool:
		c.Bools = make([]bool, n)
	case morsel.Int8:
		c.Int8s = make([]int8, n)
	case morsel.Int16:
		c.Int16s = make([]int16, n)
	case morsel.Int32, morsel.Date32:
		c.Int32s = make([]int32, n)
	case morsel.Int64, morsel.TimestampMicros, morsel.IntervalMonthDayNano:
		c.Int64s = make([]int64, n)
	case morsel.Uint8:
		c.Uint8s = make([]uint8, n)
	case morsel.Uint16:
		c.Uint16s = make([]uint16, n)
	case morsel.Uint32:
		c.Uint32s = make([]uint32, n)
	case morsel.Uint64:
		c.Uint64s = make([]uint64, n)
	case morsel.Float32:
		c.Float32s = make([]float32, n)
	case morsel.Float64:
		c.Float64s = make([]float64, n)
	case morsel.Utf8, morsel.Binary, morsel.FixedSizeBinary, morsel.Decimal, morsel.JSONB:
		c.Strings = make([]string, n)
	default:
		c.Any = make([]interface{}, n)
	}
	return c
}

// truncate returns a morsel containing only the first n rows of m.
func truncate(m *morsel.Morsel, n int) *morsel.Morsel {
	if n >= m.RowCount {
		return m
	}
	if n < 0 {
		n = 0
	}
	columns := make([]*morsel.Column, len(m.Columns))
	for i, c := range m.Columns {
		columns[i] = c.Slice(0, n)
	}
	return morsel.New(m.Schema, columns)
}
