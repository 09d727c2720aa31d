package operators

import (
	"context"

	"github.com/vectorq/vectorq/exec/executor"
	"github.com/vectorq/vectorq/morsel"
	"github.com/vectorq/vectorq/plan/physical"
)

// UnnestJoin implements CROSS JOIN UNNEST(expr) (spec §4.M): ArrayExpr is
// evaluated once per left row, producing a List value that is exploded
// into one output row per element. The right side carries no independent
// input of its own — Spec.OutputColumn is the join's only right-side
// field — so the right operator is never opened, only closed.
type UnnestJoin struct {
	plan  *physical.UnnestJoin
	left  executor.Operator
	right executor.Operator
	rt    *Runtime
}

func NewUnnestJoin(p *physical.UnnestJoin, left, right executor.Operator, rt *Runtime) *UnnestJoin {
	return &UnnestJoin{plan: p, left: left, right: right, rt: rt}
}

func (u *UnnestJoin) Open(ctx context.Context, downstream executor.Emit) error {
	downstream = u.rt.State.Observe("UnnestJoin", downstream)
	schema := *u.plan.Schema()
	leftWhole, err := wholeOf(ctx, u.left, *u.plan.Left.Schema())
	if err != nil {
		return err
	}
	if err := u.rt.State.CheckCancelled(); err != nil {
		return err
	}

	arrCol, err := u.rt.Eval.Eval(u.plan.Spec.ArrayExpr, leftWhole)
	if err != nil {
		return err
	}

	nLeft := len(leftWhole.Columns)
	outField := schema.Fields[nLeft]
	var leftIdx []int
	var values []interface{}
	var nulls []bool

	for li := 0; li < leftWhole.RowCount; li++ {
		elems := u.elementsOf(arrCol, li)
		elems, err = u.filterElements(elems, outField)
		if err != nil {
			return err
		}
		if u.plan.Spec.Distinct {
			elems = dedupeElements(elems)
		}
		if len(elems) == 0 {
			if joinTypeIsOuterLeft(u.plan.Type) {
				leftIdx = append(leftIdx, li)
				values = append(values, nil)
				nulls = append(nulls, true)
			}
			continue
		}
		for _, v := range elems {
			leftIdx = append(leftIdx, li)
			values = append(values, v)
			nulls = append(nulls, false)
		}
	}

	columns := make([]*morsel.Column, len(schema.Fields))
	for i, c := range leftWhole.Columns {
		columns[i] = takeNullable(c, leftIdx)
	}
	columns[nLeft] = scalarColumn(outField, values, nulls)

	if err := downstream(morsel.New(schema, columns)); err != nil {
		return err
	}
	return downstream(morsel.EOS)
}

// elementsOf extracts the exploded elements for left row li from arrCol's
// List value, treating a NULL array or a non-slice value as empty.
func (u *UnnestJoin) elementsOf(arrCol *morsel.Column, li int) []interface{} {
	if arrCol.IsNull(li) || li >= len(arrCol.Any) {
		return nil
	}
	elems, _ := arrCol.Any[li].([]interface{})
	return elems
}

// filterElements applies Spec.ElementConditions to each candidate element
// by evaluating the DNF against a synthetic one-row morsel carrying just
// that element under OutputColumn's identity.
func (u *UnnestJoin) filterElements(elems []interface{}, outField morsel.Field) ([]interface{}, error) {
	if len(u.plan.Spec.ElementConditions.Clauses) == 0 {
		return elems, nil
	}
	var kept []interface{}
	for _, v := range elems {
		row := morsel.New(morsel.Schema{Fields: []morsel.Field{outField}}, []*morsel.Column{scalarColumn(outField, []interface{}{v}, []bool{v == nil})})
		mask, err := u.rt.Eval.EvalDNF(u.plan.Spec.ElementConditions, row)
		if err != nil {
			return nil, err
		}
		if len(mask) > 0 && mask[0] {
			kept = append(kept, v)
		}
	}
	return kept, nil
}

func dedupeElements(elems []interface{}) []interface{} {
	seen := make(map[interface{}]bool, len(elems))
	var out []interface{}
	for _, v := range elems {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// scalarColumn builds a Column of f's declared type from a list of Go
// values (as produced by elementsOf/the function registry's list decoding),
// one per output row, falling back to the Any slice for anything that
// isn't one of the fixed-width scalar kinds.
func scalarColumn(f morsel.Field, vals []interface{}, nulls []bool) *morsel.Column {
	n := len(vals)
	c := &morsel.Column{Field: f, Nulls: nulls}
	switch f.Type {
	case morsel.Bool:
		out := make([]bool, n)
		for i, v := range vals {
			if b, ok := v.(bool); ok {
				out[i] = b
			}
		}
		c.Bools = out
	case morsel.Int8, morsel.Int16, morsel.Int32, morsel.Date32, morsel.Int64, morsel.TimestampMicros, morsel.IntervalMonthDayNano:
		out := make([]int64, n)
		for i, v := range vals {
			if iv, ok := toInt64(v); ok {
				out[i] = iv
			}
		}
		c.Int64s = out
	case morsel.Uint8, morsel.Uint16, morsel.Uint32, morsel.Uint64:
		out := make([]uint64, n)
		for i, v := range vals {
			if iv, ok := toInt64(v); ok {
				out[i] = uint64(iv)
			}
		}
		c.Uint64s = out
	case morsel.Float32, morsel.Float64:
		out := make([]float64, n)
		for i, v := range vals {
			if fv, ok := toFloat64(v); ok {
				out[i] = fv
			}
		}
		c.Float64s = out
	case morsel.Utf8, morsel.Binary, morsel.FixedSizeBinary, morsel.Decimal, morsel.JSONB:
		out := make([]string, n)
		for i, v := range vals {
			if s, ok := v.(string); ok {
				out[i] = s
			}
		}
		c.Strings = out
	default:
		c.Any = vals
	}
	return c
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}

func (u *UnnestJoin) Close() error {
	if err := u.left.Close(); err != nil {
		return err
	}
	return u.right.Close()
}
