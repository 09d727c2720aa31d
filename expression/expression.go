// Package expression implements the vectorized scalar-expression
// evaluator spec §4.P describes: Column/Literal/Compare/And/Or/Not/
// FuncCall/Case trees evaluated per-morsel with three-valued (SQL NULL)
// logic, plus string collation via golang.org/x/text/collate for ORDER
// BY and comparison operators over Utf8 columns. Grounded on the
// teacher's expression.EvalAstExpr dispatch in planner/core (a single
// recursive switch over an Expression tree), reworked to operate on a
// whole morsel.Column at a time instead of one datum, since every
// downstream operator (Filter/Project/Sort/Aggregate) works in batches.
package expression

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/vectorq/vectorq/errkind"
	"github.com/vectorq/vectorq/morsel"
	"github.com/vectorq/vectorq/plan/logical"
)

// Registry resolves function calls for the binder (logical.FuncCall) and
// evaluator alike; the function-library internals themselves are out of
// scope (spec §1) — this package only defines the dispatch contract and a
// handful of the built-ins simple enough to be "the expression evaluator"
// rather than "the function library" (arithmetic, COALESCE/IFNULL/NULLIF).
type Registry interface {
	Resolve(name string, argTypes []morsel.Type) (retType morsel.Type, pure bool, err error)
	Call(name string, args []*morsel.Column, rowCount int) (*morsel.Column, error)
}

// Evaluator evaluates Expr trees against morsels, threading a Registry for
// FuncCall dispatch and a collator for string comparisons.
type Evaluator struct {
	Functions Registry
	collator  *collate.Collator
}

// New returns an Evaluator using und (root) collation, the
// locale-agnostic default spec.md's text-comparison examples assume
// absent an explicit COLLATE clause (out of scope as SQL syntax, per
// spec §1, but the underlying collation engine still needs a default).
func New(funcs Registry) *Evaluator {
	return &Evaluator{Functions: funcs, collator: collate.New(language.Und)}
}

// Eval evaluates e against every row of m, returning one output Column.
func (ev *Evaluator) Eval(e logical.Expr, m *morsel.Morsel) (*morsel.Column, error) {
	switch v := e.(type) {
	case logical.Column:
		c := m.ColumnByID(v.ID)
		if c == nil {
			return nil, errkind.Newf(errkind.ColumnNotFound, "column id %d not present in morsel", v.ID)
		}
		return c, nil
	case logical.Literal:
		return ev.literalColumn(v, m.RowCount), nil
	case logical.Compare:
		mask, err := ev.evalCompare(v, m)
		if err != nil {
			return nil, err
		}
		col := boolColumn(mask)
		if v.Op != logical.OpIsNull && v.Op != logical.OpIsNotNull {
			right, err := ev.Eval(v.Val, m)
			if err != nil {
				return nil, err
			}
			left := m.ColumnByID(v.Col.ID)
			for i := 0; i < m.RowCount; i++ {
				if left.IsNull(i) || right.IsNull(i) {
					if col.Nulls == nil {
						col.Nulls = make([]bool, m.RowCount)
					}
					col.Nulls[i] = true
				}
			}
		}
		return col, nil
	case logical.And:
		return ev.evalBoolCombine(v.Terms, m, true)
	case logical.Or:
		return ev.evalBoolCombine(v.Terms, m, false)
	case logical.Not:
		inner, err := ev.Eval(v.Term, m)
		if err != nil {
			return nil, err
		}
		out := make([]bool, m.RowCount)
		nulls := make([]bool, m.RowCount)
		any := false
		for i := 0; i < m.RowCount; i++ {
			if inner.IsNull(i) {
				nulls[i] = true
				any = true
				continue
			}
			out[i] = !inner.Bools[i]
		}
		col := boolColumn(out)
		if any {
			col.Nulls = nulls
		}
		return col, nil
	case logical.FuncCall:
		return ev.evalFuncCall(v, m)
	case logical.Case:
		return ev.evalCase(v, m)
	default:
		return nil, errkind.Newf(errkind.UnsupportedSyntax, "unhandled expression kind %T", e)
	}
}

func (ev *Evaluator) evalBoolCombine(terms []logical.Expr, m *morsel.Morsel, isAnd bool) (*morsel.Column, error) {
	cols := make([]*morsel.Column, len(terms))
	for i, t := range terms {
		c, err := ev.Eval(t, m)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	out := make([]bool, m.RowCount)
	nulls := make([]bool, m.RowCount)
	anyNull := false
	for row := 0; row < m.RowCount; row++ {
		result, isNull := threeValuedCombine(cols, row, isAnd)
		out[row] = result
		if isNull {
			nulls[row] = true
			anyNull = true
		}
	}
	col := boolColumn(out)
	if anyNull {
		col.Nulls = nulls
	}
	return col, nil
}

// threeValuedCombine implements SQL's three-valued AND/OR: for AND, a
// single FALSE dominates (even alongside NULL); for OR, a single TRUE
// dominates. Only when no operand forces the result does an observed NULL
// propagate.
func threeValuedCombine(cols []*morsel.Column, row int, isAnd bool) (result bool, isNull bool) {
	sawNull := false
	for _, c := range cols {
		if c.IsNull(row) {
			sawNull = true
			continue
		}
		v := c.Bools[row]
		if isAnd && !v {
			return false, false
		}
		if !isAnd && v {
			return true, false
		}
	}
	if sawNull {
		return false, true
	}
	return isAnd, false // AND of all-true terms is true; OR of all-false terms is false
}

func (ev *Evaluator) literalColumn(lit logical.Literal, n int) *morsel.Column {
	if lit.Value == nil {
		nulls := make([]bool, n)
		for i := range nulls {
			nulls[i] = true
		}
		return &morsel.Column{Field: morsel.Field{Type: morsel.Invalid}, Nulls: nulls, Any: make([]interface{}, n)}
	}
	switch v := lit.Value.(type) {
	case bool:
		vals := make([]bool, n)
		for i := range vals {
			vals[i] = v
		}
		return boolColumn(vals)
	case int64:
		vals := make([]int64, n)
		for i := range vals {
			vals[i] = v
		}
		return &morsel.Column{Field: morsel.Field{Type: morsel.Int64}, Int64s: vals}
	case float64:
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = v
		}
		return &morsel.Column{Field: morsel.Field{Type: morsel.Float64}, Float64s: vals}
	case string:
		vals := make([]string, n)
		for i := range vals {
			vals[i] = v
		}
		return &morsel.Column{Field: morsel.Field{Type: morsel.Utf8}, Strings: vals}
	default:
		any := make([]interface{}, n)
		for i := range any {
			any[i] = v
		}
		return &morsel.Column{Field: morsel.Field{Type: morsel.Invalid}, Any: any}
	}
}

func boolColumn(vals []bool) *morsel.Column {
	return &morsel.Column{Field: morsel.Field{Type: morsel.Bool}, Bools: vals}
}
