package binder

import (
	"github.com/vectorq/vectorq/errkind"
	"github.com/vectorq/vectorq/plan/logical"
)

// BindParameters substitutes every logical.Param placeholder in root for a
// Literal drawn from positional or named, per spec §6: "?" placeholders
// consume positional in order, ":name" placeholders look up named.
// Parameter counts must match exactly — an unused positional argument or a
// Param with no corresponding entry both fail with errkind.ParameterError,
// per spec §7's ParameterError policy ("count or type mismatch").
func BindParameters(root logical.Node, positional []interface{}, named map[string]interface{}) (logical.Node, error) {
	used := 0
	var substErr error
	subst := func(e logical.Expr) logical.Expr {
		p, ok := e.(logical.Param)
		if !ok {
			return e
		}
		if p.Name != "" {
			v, ok := named[p.Name]
			if !ok {
				substErr = errkind.Newf(errkind.ParameterError, "no value supplied for parameter :%s", p.Name)
				return e
			}
			return logical.Literal{Value: v}
		}
		idx := p.Index - 1
		if idx < 0 || idx >= len(positional) {
			substErr = errkind.Newf(errkind.ParameterError, "parameter index %d out of range (%d positional arguments supplied)", p.Index, len(positional))
			return e
		}
		used++
		return logical.Literal{Value: positional[idx]}
	}

	out := substituteTree(root, subst)
	if substErr != nil {
		return nil, substErr
	}
	if used != len(positional) {
		return nil, errkind.Newf(errkind.ParameterError, "expected %d positional parameters, got %d", used, len(positional))
	}
	return out, nil
}

// substituteTree walks n bottom-up, rewriting every Expr-bearing field via
// subst. Mirrors plan/optimizer's mapChildren/walkBottomUp shape (kept as
// a separate, smaller copy here since binder must not import optimizer —
// binding happens before any optimizer rule runs).
func substituteTree(n logical.Node, subst func(logical.Expr) logical.Expr) logical.Node {
	if n == nil {
		return nil
	}
	switch v := n.(type) {
	case *logical.Scan:
		return v
	case *logical.Values:
		nv := *v
		rows := make([][]logical.Expr, len(v.Rows))
		for i, row := range v.Rows {
			out := make([]logical.Expr, len(row))
			for j, e := range row {
				out[j] = substExpr(e, subst)
			}
			rows[i] = out
		}
		nv.Rows = rows
		return &nv
	case *logical.Project:
		nv := *v
		nv.Input = substituteTree(v.Input, subst)
		exprs := make([]logical.Expr, len(v.Exprs))
		for i, e := range v.Exprs {
			exprs[i] = substExpr(e, subst)
		}
		nv.Exprs = exprs
		return &nv
	case *logical.Filter:
		nv := *v
		nv.Input = substituteTree(v.Input, subst)
		nv.Condition = substDNF(v.Condition, subst)
		return &nv
	case *logical.Join:
		nv := *v
		nv.Left = substituteTree(v.Left, subst)
		nv.Right = substituteTree(v.Right, subst)
		if v.Unnest != nil {
			u := *v.Unnest
			u.ArrayExpr = substExpr(u.ArrayExpr, subst)
			nv.Unnest = &u
		}
		return &nv
	case *logical.Aggregate:
		nv := *v
		nv.Input = substituteTree(v.Input, subst)
		gb := make([]logical.Expr, len(v.GroupBy))
		for i, e := range v.GroupBy {
			gb[i] = substExpr(e, subst)
		}
		nv.GroupBy = gb
		aggs := make([]logical.AggFunc, len(v.AggFuncs))
		for i, a := range v.AggFuncs {
			if a.Arg != nil {
				a.Arg = substExpr(a.Arg, subst)
			}
			aggs[i] = a
		}
		nv.AggFuncs = aggs
		return &nv
	case *logical.Distinct:
		nv := *v
		nv.Input = substituteTree(v.Input, subst)
		return &nv
	case *logical.Sort:
		nv := *v
		nv.Input = substituteTree(v.Input, subst)
		return &nv
	case *logical.Limit:
		nv := *v
		nv.Input = substituteTree(v.Input, subst)
		return &nv
	case *logical.Union:
		nv := *v
		inputs := make([]logical.Node, len(v.Inputs))
		for i, in := range v.Inputs {
			inputs[i] = substituteTree(in, subst)
		}
		nv.Inputs = inputs
		return &nv
	case *logical.Subquery:
		nv := *v
		nv.Plan = substituteTree(v.Plan, subst)
		return &nv
	case *logical.Explain:
		nv := *v
		nv.Target = substituteTree(v.Target, subst)
		return &nv
	default:
		return n
	}
}

func substDNF(d logical.DNF, subst func(logical.Expr) logical.Expr) logical.DNF {
	clauses := make([]logical.Clause, len(d.Clauses))
	for i, cl := range d.Clauses {
		atoms := make([]logical.Compare, len(cl.Atoms))
		for j, a := range cl.Atoms {
			a.Val = substExpr(a.Val, subst)
			atoms[j] = a
		}
		clauses[i] = logical.Clause{Atoms: atoms, False: cl.False}
	}
	return logical.DNF{Clauses: clauses}
}

func substExpr(e logical.Expr, subst func(logical.Expr) logical.Expr) logical.Expr {
	switch v := e.(type) {
	case logical.Not:
		return logical.Not{Term: substExpr(v.Term, subst)}
	case logical.And:
		terms := make([]logical.Expr, len(v.Terms))
		for i, t := range v.Terms {
			terms[i] = substExpr(t, subst)
		}
		return logical.And{Terms: terms}
	case logical.Or:
		terms := make([]logical.Expr, len(v.Terms))
		for i, t := range v.Terms {
			terms[i] = substExpr(t, subst)
		}
		return logical.Or{Terms: terms}
	case logical.Compare:
		v.Val = substExpr(v.Val, subst)
		return subst(v)
	case logical.FuncCall:
		args := make([]logical.Expr, len(v.Args))
		for i, a := range v.Args {
			args[i] = substExpr(a, subst)
		}
		v.Args = args
		return subst(v)
	case logical.Case:
		whens := make([]logical.WhenClause, len(v.Whens))
		for i, w := range v.Whens {
			whens[i] = logical.WhenClause{Cond: substExpr(w.Cond, subst), Result: substExpr(w.Result, subst)}
		}
		out := logical.Case{Whens: whens}
		if v.Else != nil {
			out.Else = substExpr(v.Else, subst)
		}
		return subst(out)
	default:
		return subst(e)
	}
}
