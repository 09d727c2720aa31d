package optimizer

import "github.com/vectorq/vectorq/plan/logical"

// ConstantFold collapses expression subtrees over Literal operands that
// don't require the function registry to evaluate — And/Or/Not over
// boolean Literals — without touching FuncCall
// nodes: function evaluation belongs to the registry (spec §1 — "function-
// library internals" are out of scope), so a FuncCall is only foldable if
// Pure is true AND every argument is already a Literal, in which case it is
// left to the expression evaluator at execution time rather than guessed
// here; this rule never folds an impure call (Pure == false), preserving
// calls like random()/now() exactly as written.
type ConstantFold struct{}

func (ConstantFold) Name() string { return "constant_folding" }

func (r ConstantFold) Apply(n logical.Node, c *Counters) logical.Node {
	return walkBottomUp(n, func(node logical.Node) logical.Node {
		switch v := node.(type) {
		case *logical.Project:
			nv := *v
			nv.Exprs = make([]logical.Expr, len(v.Exprs))
			for i, e := range v.Exprs {
				nv.Exprs[i] = foldExpr(e, c)
			}
			return &nv
		case *logical.Filter:
			nv := *v
			nv.Condition = foldDNF(v.Condition, c)
			return &nv
		default:
			return node
		}
	})
}

func foldDNF(d logical.DNF, c *Counters) logical.DNF {
	clauses := make([]logical.Clause, len(d.Clauses))
	for i, cl := range d.Clauses {
		atoms := make([]logical.Compare, len(cl.Atoms))
		for j, a := range cl.Atoms {
			atoms[j] = foldCompare(a, c)
		}
		clauses[i] = logical.Clause{Atoms: atoms, False: cl.False}
	}
	return logical.DNF{Clauses: clauses}
}

func foldCompare(cmp logical.Compare, c *Counters) logical.Compare {
	cmp.Val = foldExpr(cmp.Val, c)
	return cmp
}

// foldExpr folds the general Expr tree (used for SELECT-list expressions;
// DNF Compare atoms are folded via foldCompare/foldDNF above since Clause
// is a flat []Compare, not a full Expr tree).
func foldExpr(e logical.Expr, c *Counters) logical.Expr {
	switch v := e.(type) {
	case logical.Not:
		inner := foldExpr(v.Term, c)
		if lit, ok := inner.(logical.Literal); ok {
			if b, ok := lit.Value.(bool); ok {
				c.Incr("constant_folding")
				return logical.Literal{Value: !b}
			}
		}
		return logical.Not{Term: inner}
	case logical.And:
		terms := make([]logical.Expr, 0, len(v.Terms))
		for _, t := range v.Terms {
			ft := foldExpr(t, c)
			if lit, ok := ft.(logical.Literal); ok {
				if b, ok := lit.Value.(bool); ok {
					if !b {
						c.Incr("constant_folding")
						return logical.Literal{Value: false}
					}
					continue // drop a constant-true term
				}
			}
			terms = append(terms, ft)
		}
		if len(terms) == 0 {
			c.Incr("constant_folding")
			return logical.Literal{Value: true}
		}
		if len(terms) < len(v.Terms) {
			c.Incr("constant_folding")
		}
		if len(terms) == 1 {
			return terms[0]
		}
		return logical.And{Terms: terms}
	case logical.Or:
		terms := make([]logical.Expr, 0, len(v.Terms))
		for _, t := range v.Terms {
			ft := foldExpr(t, c)
			if lit, ok := ft.(logical.Literal); ok {
				if b, ok := lit.Value.(bool); ok {
					if b {
						c.Incr("constant_folding")
						return logical.Literal{Value: true}
					}
					continue // drop a constant-false term
				}
			}
			terms = append(terms, ft)
		}
		if len(terms) == 0 {
			c.Incr("constant_folding")
			return logical.Literal{Value: false}
		}
		if len(terms) < len(v.Terms) {
			c.Incr("constant_folding")
		}
		if len(terms) == 1 {
			return terms[0]
		}
		return logical.Or{Terms: terms}
	case logical.Compare:
		return foldCompare(v, c)
	case logical.FuncCall:
		if !v.Pure {
			return v
		}
		args := make([]logical.Expr, len(v.Args))
		for i, a := range v.Args {
			args[i] = foldExpr(a, c)
		}
		v.Args = args
		return v
	case logical.Case:
		whens := make([]logical.WhenClause, len(v.Whens))
		for i, w := range v.Whens {
			whens[i] = logical.WhenClause{Cond: foldExpr(w.Cond, c), Result: foldExpr(w.Result, c)}
		}
		out := logical.Case{Whens: whens}
		if v.Else != nil {
			out.Else = foldExpr(v.Else, c)
		}
		return out
	default:
		return e
	}
}
