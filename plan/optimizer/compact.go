package optimizer

import "github.com/vectorq/vectorq/plan/logical"

// CompactPredicates implements spec §8's predicate-compaction examples:
// range merging on a repeated column within one clause (id > 1 AND id > 5
// -> id > 5: the tighter bound dominates), equality dominance (id = 5 AND
// id > 1 -> id = 5: an equality subsumes any range it already satisfies),
// and contradiction detection (id > 1 AND id = 0 -> the clause is rewritten
// to the False sentinel rather than dropped, preserving the DNF's clause
// count/schema so later passes don't need to special-case a disappeared
// clause).
type CompactPredicates struct{}

func (CompactPredicates) Name() string { return "predicate_compaction" }

func (r CompactPredicates) Apply(n logical.Node, c *Counters) logical.Node {
	return walkBottomUp(n, func(node logical.Node) logical.Node {
		f, ok := node.(*logical.Filter)
		if !ok {
			return node
		}
		nv := *f
		clauses := make([]logical.Clause, len(f.Condition.Clauses))
		for i, cl := range f.Condition.Clauses {
			clauses[i] = compactClause(cl, c)
		}
		nv.Condition = logical.DNF{Clauses: clauses}
		return &nv
	})
}

// columnRange accumulates the tightest known bound for one column within a
// clause, plus any equality pin and any NEQ exclusions.
type columnRange struct {
	hasLower, hasUpper bool
	lower, upper        int64
	lowerInclusive       bool
	upperInclusive       bool
	hasEquality          bool
	equality             int64
	other                []logical.Compare // non-numeric or column-to-column atoms, passed through untouched
}

func compactClause(cl logical.Clause, c *Counters) logical.Clause {
	byCol := map[uint64]*columnRange{}
	order := []uint64{}
	passthrough := []logical.Compare{}

	for _, a := range cl.Atoms {
		lit, ok := a.Val.(logical.Literal)
		v, isInt := lit.Value.(int64)
		if !ok || !isInt {
			passthrough = append(passthrough, a)
			continue
		}
		key := uint64(a.Col.ID)
		cr, seen := byCol[key]
		if !seen {
			cr = &columnRange{}
			byCol[key] = cr
			order = append(order, key)
		}
		switch a.Op {
		case logical.OpGt:
			if !cr.hasLower || v > cr.lower || (v == cr.lower && cr.lowerInclusive) {
				cr.hasLower, cr.lower, cr.lowerInclusive = true, v, false
			}
		case logical.OpGte:
			if !cr.hasLower || v > cr.lower {
				cr.hasLower, cr.lower, cr.lowerInclusive = true, v, true
			}
		case logical.OpLt:
			if !cr.hasUpper || v < cr.upper || (v == cr.upper && cr.upperInclusive) {
				cr.hasUpper, cr.upper, cr.upperInclusive = true, v, false
			}
		case logical.OpLte:
			if !cr.hasUpper || v < cr.upper {
				cr.hasUpper, cr.upper, cr.upperInclusive = true, v, true
			}
		case logical.OpEq:
			cr.hasEquality, cr.equality = true, v
		default:
			cr.other = append(cr.other, a)
		}
	}

	var out []logical.Compare
	contradiction := false
	for _, key := range order {
		cr := byCol[key]
		col := findColByKey(cl.Atoms, key)
		if cr.hasEquality {
			// equality dominance: the range bounds are redundant once they
			// agree with the pinned value; a disagreement is a contradiction.
			if cr.hasLower && !rangeAllows(cr.equality >= cr.lower, cr.lowerInclusive, cr.equality == cr.lower) {
				contradiction = true
			}
			if cr.hasUpper && !rangeAllows(cr.equality <= cr.upper, cr.upperInclusive, cr.equality == cr.upper) {
				contradiction = true
			}
			out = append(out, logical.Compare{Col: col, Op: logical.OpEq, Val: logical.Literal{Value: cr.equality}})
			c.Incr("predicate_compaction")
			out = append(out, cr.other...)
			continue
		}
		if cr.hasLower && cr.hasUpper {
			if cr.lower > cr.upper || (cr.lower == cr.upper && !(cr.lowerInclusive && cr.upperInclusive)) {
				contradiction = true
			}
		}
		if cr.hasLower {
			op := logical.OpGt
			if cr.lowerInclusive {
				op = logical.OpGte
			}
			out = append(out, logical.Compare{Col: col, Op: op, Val: logical.Literal{Value: cr.lower}})
		}
		if cr.hasUpper {
			op := logical.OpLt
			if cr.upperInclusive {
				op = logical.OpLte
			}
			out = append(out, logical.Compare{Col: col, Op: op, Val: logical.Literal{Value: cr.upper}})
		}
		out = append(out, cr.other...)
	}
	out = append(out, passthrough...)

	if contradiction {
		c.Incr("predicate_compaction")
		return logical.Clause{False: true}
	}
	return logical.Clause{Atoms: out}
}

// rangeAllows is a tiny helper so the equality-dominance check above reads
// as "does the pinned value satisfy the bound" instead of inline ternaries.
func rangeAllows(strictlyOK bool, inclusive, exactlyOnBoundary bool) bool {
	if exactlyOnBoundary {
		return inclusive
	}
	return strictlyOK
}

func findColByKey(atoms []logical.Compare, key uint64) logical.Column {
	for _, a := range atoms {
		if uint64(a.Col.ID) == key {
			return a.Col
		}
	}
	return logical.Column{}
}
