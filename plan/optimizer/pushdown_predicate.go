package optimizer

import "github.com/vectorq/vectorq/plan/logical"

// PushdownPredicates implements spec §4.I rule 5: move filters as close to
// their source Scan as possible. Two shapes are handled directly (the
// common cases a hand-written query produces): a Filter sitting directly
// above a Scan collapses entirely into the Scan's PushedPredicate, and a
// Filter sitting above an inner Join splits by which side's schema each
// conjunct (CommonPrefix atom) references, pushing what it can through
// each leg and leaving the rest above the Join. Outer joins are left alone:
// pushing a predicate below the nullable side of a LEFT/RIGHT/FULL OUTER
// JOIN changes which rows it nulls out, so it is not sound without the
// join-aware rewrite tinysql's planner reserves for a dedicated outer-join
// predicate-pushdown pass (out of scope here — this rule only pushes
// through what is provably safe).
type PushdownPredicates struct{}

func (PushdownPredicates) Name() string { return "predicate_pushdown" }

func (r PushdownPredicates) Apply(n logical.Node, c *Counters) logical.Node {
	return walkBottomUp(n, func(node logical.Node) logical.Node {
		f, ok := node.(*logical.Filter)
		if !ok {
			return node
		}
		switch input := f.Input.(type) {
		case *logical.Scan:
			merged := conjoin(input.PushedPredicate, f.Condition)
			ns := *input
			ns.PushedPredicate = merged
			c.Incr("predicate_pushdown")
			return &ns
		case *logical.Join:
			if input.Type != logical.InnerJoin {
				return f
			}
			return pushThroughJoin(f, input, c)
		default:
			return f
		}
	})
}

// conjoin ANDs two DNFs by cross-product distribution, the same
// distributive step orOf(And{...}) performs.
func conjoin(a, b logical.DNF) logical.DNF {
	if len(a.Clauses) == 0 {
		return b
	}
	if len(b.Clauses) == 0 {
		return a
	}
	var out []logical.Clause
	for _, ca := range a.Clauses {
		for _, cb := range b.Clauses {
			out = append(out, logical.Clause{Atoms: append(append([]logical.Compare{}, ca.Atoms...), cb.Atoms...)})
		}
	}
	return logical.DNF{Clauses: out}
}

// pushThroughJoin pushes the common conjuncts of f's condition that
// reference only one side's schema into a new Filter wrapping that side,
// leaving whatever doesn't factor cleanly above the Join unchanged. Only
// the clause-common prefix (CommonPrefix) is considered for pushdown: a
// conjunct that appears in every clause is safe to apply before the join
// even though the join condition is itself a disjunction, since ANDing a
// clause-common predicate into every disjunct is equivalent to ANDing it
// outside the whole DNF.
func pushThroughJoin(f *logical.Filter, j *logical.Join, c *Counters) logical.Node {
	common := CommonPrefix(f.Condition)
	if len(common) == 0 {
		return f
	}
	leftSchema, rightSchema := j.Left.Schema(), j.Right.Schema()
	var leftAtoms, rightAtoms, keep []logical.Compare
	for _, a := range common {
		switch {
		case leftSchema.IndexOf(a.Col.ID) >= 0:
			leftAtoms = append(leftAtoms, a)
		case rightSchema.IndexOf(a.Col.ID) >= 0:
			rightAtoms = append(rightAtoms, a)
		default:
			keep = append(keep, a)
		}
	}
	if len(leftAtoms) == 0 && len(rightAtoms) == 0 {
		return f
	}

	nj := *j
	if len(leftAtoms) > 0 {
		nj.Left = &logical.Filter{Input: j.Left, Condition: logical.DNF{Clauses: []logical.Clause{{Atoms: leftAtoms}}}}
		c.Incr("predicate_pushdown")
	}
	if len(rightAtoms) > 0 {
		nj.Right = &logical.Filter{Input: j.Right, Condition: logical.DNF{Clauses: []logical.Clause{{Atoms: rightAtoms}}}}
		c.Incr("predicate_pushdown")
	}
	nj.SetSchema(j.Schema())

	if len(keep) == 0 && len(leftAtoms)+len(rightAtoms) == totalAtoms(f.Condition) {
		// every clause's atoms were entirely factored out: the Filter above
		// the Join is now redundant.
		return &nj
	}
	nf := *f
	nf.Input = &nj
	return &nf
}

func totalAtoms(d logical.DNF) int {
	if len(d.Clauses) == 0 {
		return 0
	}
	return len(d.Clauses[0].Atoms)
}
