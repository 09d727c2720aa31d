package optimizer

import (
	"github.com/vectorq/vectorq/plan/logical"
	"github.com/vectorq/vectorq/stats"
)

// PruneByStatistics implements spec §4.I rule 7: when a Scan's statistics
// prove every clause of its pushed predicate is unsatisfiable against the
// column's known [lower, upper] bounds, mark it ProvablyEmpty so the
// physical/executor layer can skip reading the dataset entirely and
// return the spec-mandated single empty morsel (spec §4.L) instead of
// issuing any I/O. Grounded on deriveTablePathStats's range-exclusion
// check in tinysql/planner/core/logical_plans.go, generalized from
// TiDB's per-index range builder to the flat min/max bound shape spec §4.C
// defines.
type PruneByStatistics struct{}

func (PruneByStatistics) Name() string { return "statistics_pruning" }

func (r PruneByStatistics) Apply(n logical.Node, c *Counters) logical.Node {
	return walkBottomUp(n, func(node logical.Node) logical.Node {
		s, ok := node.(*logical.Scan)
		if !ok || s.Statistics == nil || s.ProvablyEmpty {
			return node
		}
		if allClausesImpossible(s.PushedPredicate, s.Statistics) {
			ns := *s
			ns.ProvablyEmpty = true
			c.Incr("statistics_pruning")
			return &ns
		}
		return node
	})
}

// allClausesImpossible reports whether every clause of pred (an empty DNF
// means "no predicate": never provably empty by this rule) contains at
// least one atom that statistics prove can never match any row.
func allClausesImpossible(pred logical.DNF, st *stats.RelationStatistics) bool {
	if len(pred.Clauses) == 0 {
		return false
	}
	for _, cl := range pred.Clauses {
		if cl.False {
			continue // already proven impossible by compaction
		}
		if !clauseImpossible(cl, st) {
			return false
		}
	}
	return true
}

func clauseImpossible(cl logical.Clause, st *stats.RelationStatistics) bool {
	for _, a := range cl.Atoms {
		lit, ok := a.Val.(logical.Literal)
		if !ok {
			continue
		}
		v, isInt := lit.Value.(int64)
		if !isInt {
			continue
		}
		lower, upper, hasBounds := st.Bounds(a.Col.ID)
		if !hasBounds {
			continue
		}
		switch a.Op {
		case logical.OpGt:
			if v >= upper {
				return true
			}
		case logical.OpGte:
			if v > upper {
				return true
			}
		case logical.OpLt:
			if v <= lower {
				return true
			}
		case logical.OpLte:
			if v < lower {
				return true
			}
		case logical.OpEq:
			if v < lower || v > upper {
				return true
			}
		}
	}
	return false
}
