package expression

import (
	"github.com/vectorq/vectorq/errkind"
	"github.com/vectorq/vectorq/morsel"
	"github.com/vectorq/vectorq/plan/logical"
)

// evalFuncCall dispatches to the Registry for every function except the
// three-valued-null builtins (COALESCE/IFNULL/NULLIF) spec §4.P singles
// out as the evaluator's own responsibility rather than the function
// library's, since their short-circuit semantics are about NULL
// propagation, not computation.
func (ev *Evaluator) evalFuncCall(fc logical.FuncCall, m *morsel.Morsel) (*morsel.Column, error) {
	switch fc.Name {
	case "coalesce":
		return ev.evalCoalesce(fc.Args, m)
	case "ifnull":
		if len(fc.Args) != 2 {
			return nil, errkind.New(errkind.ParameterError, "ifnull takes exactly 2 arguments")
		}
		return ev.evalCoalesce(fc.Args, m)
	case "nullif":
		return ev.evalNullIf(fc.Args, m)
	default:
		if ev.Functions == nil {
			return nil, errkind.Newf(errkind.UnsupportedSyntax, "function %q has no registry bound", fc.Name)
		}
		args := make([]*morsel.Column, len(fc.Args))
		for i, a := range fc.Args {
			c, err := ev.Eval(a, m)
			if err != nil {
				return nil, err
			}
			args[i] = c
		}
		return ev.Functions.Call(fc.Name, args, m.RowCount)
	}
}

// evalCoalesce returns, per row, the first non-null argument's value
// (short-circuiting left to right), implementing both COALESCE(...) and
// the two-argument IFNULL(a, b) as a special case.
func (ev *Evaluator) evalCoalesce(args []logical.Expr, m *morsel.Morsel) (*morsel.Column, error) {
	if len(args) == 0 {
		return nil, errkind.New(errkind.ParameterError, "coalesce requires at least one argument")
	}
	cols := make([]*morsel.Column, len(args))
	for i, a := range args {
		c, err := ev.Eval(a, m)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	out := &morsel.Column{Field: cols[0].Field, Any: make([]interface{}, m.RowCount)}
	nulls := make([]bool, m.RowCount)
	for row := 0; row < m.RowCount; row++ {
		picked := false
		for _, c := range cols {
			if !c.IsNull(row) {
				out.Any[row] = valueAt(c, row)
				picked = true
				break
			}
		}
		if !picked {
			nulls[row] = true
		}
	}
	out.Nulls = nulls
	return out, nil
}

// evalNullIf returns NULL where the two arguments compare equal, else the
// first argument's value.
func (ev *Evaluator) evalNullIf(args []logical.Expr, m *morsel.Morsel) (*morsel.Column, error) {
	if len(args) != 2 {
		return nil, errkind.New(errkind.ParameterError, "nullif takes exactly 2 arguments")
	}
	a, err := ev.Eval(args[0], m)
	if err != nil {
		return nil, err
	}
	b, err := ev.Eval(args[1], m)
	if err != nil {
		return nil, err
	}
	out := &morsel.Column{Field: a.Field, Any: make([]interface{}, m.RowCount)}
	nulls := make([]bool, m.RowCount)
	for row := 0; row < m.RowCount; row++ {
		if !a.IsNull(row) && !b.IsNull(row) && ev.compareValues(a, b, row) == 0 {
			nulls[row] = true
			continue
		}
		out.Any[row] = valueAt(a, row)
	}
	out.Nulls = nulls
	return out, nil
}

// evalCase implements CASE WHEN ... THEN ... ELSE ... END short-circuit
// evaluation: for each row, the first WHEN whose condition is true (not
// NULL) wins; if none match, Else's value is used, defaulting to NULL.
func (ev *Evaluator) evalCase(c logical.Case, m *morsel.Morsel) (*morsel.Column, error) {
	condCols := make([]*morsel.Column, len(c.Whens))
	resultCols := make([]*morsel.Column, len(c.Whens))
	for i, w := range c.Whens {
		cc, err := ev.Eval(w.Cond, m)
		if err != nil {
			return nil, err
		}
		rc, err := ev.Eval(w.Result, m)
		if err != nil {
			return nil, err
		}
		condCols[i] = cc
		resultCols[i] = rc
	}
	var elseCol *morsel.Column
	if c.Else != nil {
		ec, err := ev.Eval(c.Else, m)
		if err != nil {
			return nil, err
		}
		elseCol = ec
	}

	out := &morsel.Column{Any: make([]interface{}, m.RowCount)}
	nulls := make([]bool, m.RowCount)
	for row := 0; row < m.RowCount; row++ {
		matched := false
		for i, cc := range condCols {
			if !cc.IsNull(row) && cc.Bools[row] {
				out.Any[row] = valueAt(resultCols[i], row)
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		if elseCol != nil && !elseCol.IsNull(row) {
			out.Any[row] = valueAt(elseCol, row)
			continue
		}
		nulls[row] = true
	}
	out.Nulls = nulls
	return out, nil
}

// valueAt extracts row i from c's populated typed slice as interface{},
// for the Any-typed output columns the null-aware builtins above produce.
func valueAt(c *morsel.Column, i int) interface{} {
	switch c.Field.Type {
	case morsel.Bool:
		return c.Bools[i]
	case morsel.Int8:
		return c.Int8s[i]
	case morsel.Int16:
		return c.Int16s[i]
	case morsel.Int32, morsel.Date32:
		return c.Int32s[i]
	case morsel.Int64, morsel.TimestampMicros, morsel.IntervalMonthDayNano:
		return c.Int64s[i]
	case morsel.Uint8:
		return c.Uint8s[i]
	case morsel.Uint16:
		return c.Uint16s[i]
	case morsel.Uint32:
		return c.Uint32s[i]
	case morsel.Uint64:
		return c.Uint64s[i]
	case morsel.Float32:
		return c.Float32s[i]
	case morsel.Float64:
		return c.Float64s[i]
	case morsel.Utf8, morsel.Binary, morsel.FixedSizeBinary, morsel.Decimal, morsel.JSONB:
		return c.Strings[i]
	default:
		if i < len(c.Any) {
			return c.Any[i]
		}
		return nil
	}
}
