package optimizer

import "github.com/vectorq/vectorq/plan/logical"

// mapChildren returns a copy of n with each direct child replaced by
// f(child), recursing top-down isn't implied — callers that want a full
// tree rewrite call walkBottomUp instead. Mirrors logical.Children()'s
// type switch so every rule doesn't re-derive per-node field access.
func mapChildren(n logical.Node, f func(logical.Node) logical.Node) logical.Node {
	switch v := n.(type) {
	case *logical.Project:
		nv := *v
		nv.Input = f(v.Input)
		return &nv
	case *logical.Filter:
		nv := *v
		nv.Input = f(v.Input)
		return &nv
	case *logical.Join:
		nv := *v
		nv.Left = f(v.Left)
		nv.Right = f(v.Right)
		return &nv
	case *logical.Aggregate:
		nv := *v
		nv.Input = f(v.Input)
		return &nv
	case *logical.Distinct:
		nv := *v
		nv.Input = f(v.Input)
		return &nv
	case *logical.Sort:
		nv := *v
		nv.Input = f(v.Input)
		return &nv
	case *logical.Limit:
		nv := *v
		nv.Input = f(v.Input)
		return &nv
	case *logical.Union:
		nv := *v
		inputs := make([]logical.Node, len(v.Inputs))
		for i, in := range v.Inputs {
			inputs[i] = f(in)
		}
		nv.Inputs = inputs
		return &nv
	case *logical.Subquery:
		nv := *v
		nv.Plan = f(v.Plan)
		return &nv
	case *logical.Explain:
		nv := *v
		nv.Target = f(v.Target)
		return &nv
	default:
		return n
	}
}

// walkBottomUp applies f to every node in n's tree, children before
// parents, threading each node's possibly-rewritten children back in
// before f sees it — the shape every multi-node rewrite rule (pushdown,
// redundant-operator removal, statistics pruning) shares.
func walkBottomUp(n logical.Node, f func(logical.Node) logical.Node) logical.Node {
	if n == nil {
		return nil
	}
	rewritten := mapChildren(n, func(child logical.Node) logical.Node {
		return walkBottomUp(child, f)
	})
	return f(rewritten)
}

// leaves collects every Scan in n's tree, the nodes predicate/projection
// pushdown and statistics pruning ultimately target.
func leaves(n logical.Node) []*logical.Scan {
	var out []*logical.Scan
	var visit func(logical.Node)
	visit = func(node logical.Node) {
		if node == nil {
			return
		}
		if s, ok := node.(*logical.Scan); ok {
			out = append(out, s)
			return
		}
		for _, c := range logical.Children(node) {
			visit(c)
		}
	}
	visit(n)
	return out
}
