package optimizer

import "github.com/vectorq/vectorq/plan/logical"

// SimplifyDNF implements spec §8's DNF simplification properties:
// duplicate-clause removal ([[A,B],[A,B]] -> [[A,B]]), absorption
// ([[A],[A,B]] -> [[A]], since A absorbs any clause it is a subset of) and
// common-factor extraction ([[A,B],[A,C]] -> A AND (B OR C)) surfaced via
// CommonPrefix rather than a new Expr shape (see CommonPrefix below). Runs to a fixpoint so a
// dedup that enables a further absorption is caught in the same Apply call
// — the property tests in spec §8 require idempotence, not just one pass.
type SimplifyDNF struct{}

func (SimplifyDNF) Name() string { return "predicate_simplification" }

func (r SimplifyDNF) Apply(n logical.Node, c *Counters) logical.Node {
	return walkBottomUp(n, func(node logical.Node) logical.Node {
		f, ok := node.(*logical.Filter)
		if !ok {
			return node
		}
		nv := *f
		simplified := simplifyFixpoint(f.Condition, c)
		nv.Condition = simplified
		return &nv
	})
}

func simplifyFixpoint(d logical.DNF, c *Counters) logical.DNF {
	for {
		next := dedupClauses(d, c)
		next = absorb(next, c)
		if dnfEqual(next, d) {
			return next
		}
		d = next
	}
}

// dedupClauses drops exact duplicate clauses, keeping the first
// occurrence.
func dedupClauses(d logical.DNF, c *Counters) logical.DNF {
	var out []logical.Clause
	seen := map[string]bool{}
	for _, cl := range d.Clauses {
		k := clauseKey(cl)
		if seen[k] {
			c.Incr("predicate_simplification")
			continue
		}
		seen[k] = true
		out = append(out, cl)
	}
	return logical.DNF{Clauses: out}
}

// absorb drops any clause B for which a distinct clause A's atom set is a
// subset of B's: A OR (A AND rest-of-B) == A. Spec §8's
// "[[A],[A,B]] -> [[A]]" example is exactly this rule with A as the
// single-atom clause and B = A AND extra-atom.
func absorb(d logical.DNF, c *Counters) logical.DNF {
	keep := make([]bool, len(d.Clauses))
	for i := range d.Clauses {
		keep[i] = true
	}
	for i, a := range d.Clauses {
		if !keep[i] {
			continue
		}
		for j, b := range d.Clauses {
			if i == j || !keep[j] {
				continue
			}
			if isSubsetClause(a.Atoms, b.Atoms) {
				keep[j] = false
			}
		}
	}
	var out []logical.Clause
	for i, cl := range d.Clauses {
		if keep[i] {
			out = append(out, cl)
		} else {
			c.Incr("predicate_simplification")
		}
	}
	return logical.DNF{Clauses: out}
}

func isSubsetClause(a, b []logical.Compare) bool {
	bset := map[string]bool{}
	for _, atom := range b {
		bset[atomKey(atom)] = true
	}
	for _, atom := range a {
		if !bset[atomKey(atom)] {
			return false
		}
	}
	return true
}

// CommonPrefix returns the atoms present in every clause of d (order
// preserved from the first clause), the conjunct spec §8's
// "[[A,B],[A,C]] -> A AND (B OR C)" factoring singles out: A can be pushed
// down independently of the remaining disjunction, which is exactly what
// PushdownPredicates uses this for instead of introducing a nested
// Expr shape the flat Clause/DNF types can't otherwise represent.
func CommonPrefix(d logical.DNF) []logical.Compare {
	if len(d.Clauses) == 0 {
		return nil
	}
	common := map[string]logical.Compare{}
	for _, a := range d.Clauses[0].Atoms {
		common[atomKey(a)] = a
	}
	for _, cl := range d.Clauses[1:] {
		present := map[string]bool{}
		for _, a := range cl.Atoms {
			present[atomKey(a)] = true
		}
		for k := range common {
			if !present[k] {
				delete(common, k)
			}
		}
	}
	var out []logical.Compare
	for _, a := range d.Clauses[0].Atoms {
		if _, ok := common[atomKey(a)]; ok {
			out = append(out, a)
		}
	}
	return out
}
