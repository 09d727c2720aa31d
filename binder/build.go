package binder

import (
	"github.com/vectorq/vectorq/errkind"
	"github.com/vectorq/vectorq/ids"
	"github.com/vectorq/vectorq/morsel"
	"github.com/vectorq/vectorq/plan/logical"
)

// ProjectionItem is one SELECT-list entry as seen by the binder, before it
// becomes a logical.Expr: either a bare column reference, a wildcard, or a
// computed expression with an optional alias.
type ProjectionItem struct {
	Expr  logical.Expr
	Alias string
}

// BindProjection lowers a list of already-expression-bound items (wildcard
// expansion already applied by the caller via BindWildcard) into a
// logical.Project over input, minting a fresh column identity for every
// computed (non-bare-Column) expression so downstream references have a
// stable handle.
func (b *Binder) BindProjection(input logical.Node, items []ProjectionItem) (*logical.Project, error) {
	exprs := make([]logical.Expr, len(items))
	fields := make([]morsel.Field, len(items))
	inSchema := input.Schema()

	for i, item := range items {
		exprs[i] = item.Expr
		switch e := item.Expr.(type) {
		case logical.Column:
			idx := -1
			for j, f := range inSchema.Fields {
				if f.ID == e.ID {
					idx = j
					break
				}
			}
			if idx < 0 {
				return nil, errkind.Newf(errkind.ColumnNotFound, "column id %d not in input schema", e.ID)
			}
			f := inSchema.Fields[idx]
			if item.Alias != "" {
				f.Name = item.Alias
			}
			fields[i] = f
		default:
			newID := b.Catalog.NextColumnID()
			name := item.Alias
			if name == "" {
				name = "?column?"
			}
			fields[i] = morsel.Field{ID: newID, Name: name, Type: exprType(e)}
			exprs[i] = rebind(e, newID)
		}
	}

	out := &logical.Project{Input: input, Exprs: exprs}
	out.SetSchema(&morsel.Schema{Fields: fields})
	return out, nil
}

// rebind attaches the freshly-minted output identity to a FuncCall's
// RetCol so later stages (e.g. ORDER BY referencing the projected alias)
// can resolve it without re-parsing the expression. Other computed expr
// kinds (Case, Compare, arithmetic And/Or trees) carry no output identity
// of their own and pass through unchanged; the Project node's Fields
// entry is what downstream stages key off instead.
func rebind(e logical.Expr, id ids.ColumnID) logical.Expr {
	if fc, ok := e.(logical.FuncCall); ok {
		fc.RetCol.ID = id
		return fc
	}
	return e
}

// exprType is a conservative static type for a computed projection item;
// full type inference belongs to the function registry (spec §4.H item 4)
// for FuncCall nodes. Literal and Compare are resolved here directly; every
// other expression (Case included) reports Invalid.
func exprType(e logical.Expr) morsel.Type {
	switch v := e.(type) {
	case logical.Literal:
		switch v.Value.(type) {
		case bool:
			return morsel.Bool
		case int64:
			return morsel.Int64
		case float64:
			return morsel.Float64
		case string:
			return morsel.Utf8
		default:
			return morsel.Invalid
		}
	case logical.Compare:
		return morsel.Bool
	default:
		return morsel.Invalid
	}
}

// BindFilter wraps input in a logical.Filter over a DNF predicate. The
// caller (typically the optimizer's normalization pass, spec §4.I rule 2)
// is responsible for having already reduced an arbitrary WHERE expression
// tree to DNF form; BindFilter only attaches it.
func (b *Binder) BindFilter(input logical.Node, cond logical.DNF) *logical.Filter {
	f := &logical.Filter{Input: input, Condition: cond}
	f.SetSchema(input.Schema())
	return f
}

// BindJoin attaches already-split equi/non-equi condition lists to a
// logical.Join over left/right, whose schema is left's fields followed by
// right's. It does not check that the condition columns resolve on either
// side.
func (b *Binder) BindJoin(left, right logical.Node, jt logical.JoinType, eq []logical.EqualCondition, other []logical.NonEquiCondition) *logical.Join {
	j := &logical.Join{
		Left: left, Right: right, Type: jt,
		EqualConditions: eq, OtherConditions: other,
	}
	sc := morsel.Concat(*left.Schema(), *right.Schema())
	j.SetSchema(&sc)
	return j
}

// BindAggregate attaches GROUP BY items and aggregate function specs to
// input, minting fresh identities for every aggregate output column.
func (b *Binder) BindAggregate(input logical.Node, groupBy []logical.Expr, aggs []AggSpec) *logical.Aggregate {
	fields := make([]morsel.Field, 0, len(groupBy)+len(aggs))
	for _, g := range groupBy {
		if c, ok := g.(logical.Column); ok {
			idx := input.Schema().IndexOf(c.ID)
			if idx >= 0 {
				fields = append(fields, input.Schema().Fields[idx])
			}
		}
	}
	outFuncs := make([]logical.AggFunc, len(aggs))
	for i, a := range aggs {
		id := b.Catalog.NextColumnID()
		outFuncs[i] = logical.AggFunc{Kind: a.Kind, Arg: a.Arg, Output: logical.Column{ID: id, Name: a.Alias}}
		fields = append(fields, morsel.Field{ID: id, Name: a.Alias, Type: aggResultType(a.Kind)})
	}
	agg := &logical.Aggregate{Input: input, GroupBy: groupBy, AggFuncs: outFuncs}
	agg.SetSchema(&morsel.Schema{Fields: fields})
	return agg
}

// AggSpec is one aggregate function as seen by the binder, before identity
// assignment.
type AggSpec struct {
	Kind  logical.AggFuncKind
	Arg   logical.Expr
	Alias string
}

func aggResultType(k logical.AggFuncKind) morsel.Type {
	switch k {
	case logical.AggCount, logical.AggCountDistinct:
		return morsel.Int64
	case logical.AggAvg:
		return morsel.Float64
	default:
		return morsel.Invalid // SUM/MIN/MAX inherit the input column's type; resolved by the expression evaluator
	}
}

// BindSort attaches ORDER BY keys to input. The Sort's Limit is left nil;
// only the optimizer's limit pushdown sets it.
func (b *Binder) BindSort(input logical.Node, keys []logical.SortKey) *logical.Sort {
	s := &logical.Sort{Input: input, Keys: keys}
	s.SetSchema(input.Schema())
	return s
}

// BindLimit attaches OFFSET/LIMIT to input.
func (b *Binder) BindLimit(input logical.Node, offset, count uint64) *logical.Limit {
	l := &logical.Limit{Input: input, Offset: offset, Count: count}
	l.SetSchema(input.Schema())
	return l
}

// BindDistinct wraps input in a Distinct node over its full output schema.
func (b *Binder) BindDistinct(input logical.Node) *logical.Distinct {
	d := &logical.Distinct{Input: input}
	d.SetSchema(input.Schema())
	return d
}
