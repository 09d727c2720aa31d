package optimizer

import (
	"github.com/vectorq/vectorq/ids"
	"github.com/vectorq/vectorq/plan/logical"
)

// PushdownProjection implements spec §4.I rule 6: narrow every Scan's
// projection list to only the columns actually referenced anywhere above
// it, so decoders (spec §1's format layer) never materialize a column the
// query discards. Grounded on tinysql's column-pruning pass
// (logical_plan_builder.go's PruneColumns walks), reshaped to this
// package's side-table Scan.Projection field instead of mutating a schema
// in place.
type PushdownProjection struct{}

func (PushdownProjection) Name() string { return "projection_pushdown" }

func (r PushdownProjection) Apply(n logical.Node, c *Counters) logical.Node {
	used := usedColumns(n)
	return walkBottomUp(n, func(node logical.Node) logical.Node {
		s, ok := node.(*logical.Scan)
		if !ok {
			return node
		}
		var kept []ids.ColumnID
		for _, id := range s.Projection {
			if used[id] {
				kept = append(kept, id)
			}
		}
		if len(kept) == len(s.Projection) {
			return node
		}
		ns := *s
		ns.Projection = kept
		c.Incr("projection_pushdown")
		return &ns
	})
}

// usedColumns collects every ColumnID referenced anywhere in n's tree:
// Project/Filter/Join/Aggregate/Sort expressions, plus the root's own
// output schema (columns nothing downstream consumes but the caller
// selected are still "used").
func usedColumns(n logical.Node) map[ids.ColumnID]bool {
	used := map[ids.ColumnID]bool{}
	mark := func(id ids.ColumnID) { used[id] = true }

	if n != nil && n.Schema() != nil {
		for _, f := range n.Schema().Fields {
			mark(f.ID)
		}
	}

	var visit func(logical.Node)
	visit = func(node logical.Node) {
		if node == nil {
			return
		}
		switch v := node.(type) {
		case *logical.Project:
			for _, e := range v.Exprs {
				markExprCols(e, mark)
			}
		case *logical.Filter:
			markDNFCols(v.Condition, mark)
		case *logical.Join:
			for _, eq := range v.EqualConditions {
				mark(eq.Left.ID)
				mark(eq.Right.ID)
			}
			for _, oc := range v.OtherConditions {
				mark(oc.Left.ID)
				mark(oc.Right.ID)
			}
			if v.CorrelatedFilter != nil {
				markDNFCols(*v.CorrelatedFilter, mark)
			}
		case *logical.Aggregate:
			for _, g := range v.GroupBy {
				markExprCols(g, mark)
			}
			for _, a := range v.AggFuncs {
				if a.Arg != nil {
					markExprCols(a.Arg, mark)
				}
			}
		case *logical.Sort:
			for _, k := range v.Keys {
				mark(k.Col.ID)
			}
		}
		for _, child := range logical.Children(node) {
			visit(child)
		}
	}
	visit(n)
	return used
}

func markExprCols(e logical.Expr, mark func(ids.ColumnID)) {
	switch v := e.(type) {
	case logical.Column:
		mark(v.ID)
	case logical.Compare:
		mark(v.Col.ID)
		markExprCols(v.Val, mark)
	case logical.And:
		for _, t := range v.Terms {
			markExprCols(t, mark)
		}
	case logical.Or:
		for _, t := range v.Terms {
			markExprCols(t, mark)
		}
	case logical.Not:
		markExprCols(v.Term, mark)
	case logical.FuncCall:
		for _, a := range v.Args {
			markExprCols(a, mark)
		}
	case logical.Case:
		for _, w := range v.Whens {
			markExprCols(w.Cond, mark)
			markExprCols(w.Result, mark)
		}
		if v.Else != nil {
			markExprCols(v.Else, mark)
		}
	}
}

func markDNFCols(d logical.DNF, mark func(ids.ColumnID)) {
	for _, cl := range d.Clauses {
		for _, a := range cl.Atoms {
			mark(a.Col.ID)
			markExprCols(a.Val, mark)
		}
	}
}
