package physical

import (
	"github.com/vectorq/vectorq/plan/logical"
)

// Lower walks a logical.Node tree and produces exactly one physical.Node
// per logical node (spec §4.J), picking a join algorithm variant by each
// Join's shape:
//
//	only EqualConditions, no OtherConditions, no Unnest -> HashJoin
//	Unnest != nil                                        -> UnnestJoin
//	any OtherConditions (non-equal ON comparator)         -> NonEquiNestedLoopJoin
//	no conditions at all and Type == CrossJoin            -> NestedLoopJoin
//	anything else (mixed equal+non-equal, a non-cross join
//	  with no conditions, or a condition that can't be
//	  expressed as a plain column comparator list — spec
//	  §4.M's fallback case)                                -> PyArrowFallbackJoin
//
// Node kinds without a physical counterpart (e.g. Values, Subquery, Show,
// Explain, Set) lower to nil.
func Lower(n logical.Node) Node {
	switch v := n.(type) {
	case *logical.Scan:
		return lowerScan(v)
	case *logical.Project:
		return &Project{base: base{schema: v.Schema()}, Input: Lower(v.Input), Exprs: v.Exprs}
	case *logical.Filter:
		return &Filter{base: base{schema: v.Schema()}, Input: Lower(v.Input), Condition: v.Condition}
	case *logical.Join:
		return lowerJoin(v)
	case *logical.Aggregate:
		return &HashAggregate{base: base{schema: v.Schema()}, Input: Lower(v.Input), GroupBy: v.GroupBy, AggFuncs: v.AggFuncs}
	case *logical.Distinct:
		return &Distinct{base: base{schema: v.Schema()}, Input: Lower(v.Input)}
	case *logical.Sort:
		return &Sort{base: base{schema: v.Schema()}, Input: Lower(v.Input), Keys: v.Keys, Limit: v.Limit}
	case *logical.Limit:
		return &Limit{base: base{schema: v.Schema()}, Input: Lower(v.Input), Offset: v.Offset, Count: v.Count}
	case *logical.Union:
		children := make([]Node, len(v.Inputs))
		for i, in := range v.Inputs {
			children[i] = Lower(in)
		}
		return &Union{base: base{schema: v.Schema()}, Inputs: children, All: v.All}
	default:
		return nil
	}
}

func lowerScan(v *logical.Scan) *Scan {
	s := &Scan{
		base:          base{schema: v.Schema()},
		Dataset:       v.Dataset,
		Projection:    v.Projection,
		Predicate:     v.PushedPredicate,
		ProvablyEmpty: v.ProvablyEmpty,
	}
	if v.PushedLimit != nil {
		s.Limit = v.PushedLimit
	}
	return s
}

func lowerJoin(v *logical.Join) Node {
	left, right := Lower(v.Left), Lower(v.Right)
	jb := joinBase{base: base{schema: v.Schema()}, Left: left, Right: right, Type: v.Type}

	switch {
	case v.Unnest != nil:
		return &UnnestJoin{joinBase: jb, Spec: v.Unnest}
	case len(v.EqualConditions) > 0 && len(v.OtherConditions) == 0:
		return &HashJoin{joinBase: jb, EqualConditions: v.EqualConditions, BuildOnLeft: chooseBuildSide(v), BloomPrefilter: true}
	case len(v.EqualConditions) == 0 && len(v.OtherConditions) > 0:
		return &NonEquiNestedLoopJoin{joinBase: jb, Conditions: v.OtherConditions}
	case len(v.EqualConditions) == 0 && len(v.OtherConditions) == 0 && v.Type == logical.CrossJoin:
		return &NestedLoopJoin{joinBase: jb}
	default:
		// Mixed equal+non-equal ON clauses, or a condition shape none of
		// the direct variants classify: fall back to the PyArrow path
		// spec §4.M reserves for exactly this case.
		return &PyArrowFallbackJoin{joinBase: jb, Condition: joinConditionAsDNF(v)}
	}
}

// chooseBuildSide picks the side with the smaller estimated row count to
// build the hash table over, falling back to the left side when neither
// input carries statistics — grounded on the build-side selection the
// teacher's cost-based join reordering performs in planner/core, scaled
// down to this package's simpler row-count-only heuristic (a full cost
// model belongs to the executor's runtime statistics, not static planning,
// since this engine has no persisted histogram store).
func chooseBuildSide(v *logical.Join) bool {
	leftScan, leftOK := v.Left.(*logical.Scan)
	rightScan, rightOK := v.Right.(*logical.Scan)
	if !leftOK || !rightOK || leftScan.Statistics == nil || rightScan.Statistics == nil {
		return true
	}
	return leftScan.Statistics.RecordCount <= rightScan.Statistics.RecordCount
}

// joinConditionAsDNF folds a Join's equal+non-equal conditions into one
// DNF clause for the PyArrow fallback operator, which evaluates the whole
// ON clause as a single predicate rather than dispatching per-condition
// like the direct variants do.
func joinConditionAsDNF(v *logical.Join) logical.DNF {
	var atoms []logical.Compare
	for _, eq := range v.EqualConditions {
		atoms = append(atoms, logical.Compare{Col: eq.Left, Op: logical.OpEq, Val: eq.Right})
	}
	for _, oc := range v.OtherConditions {
		atoms = append(atoms, logical.Compare{Col: oc.Left, Op: oc.Op, Val: oc.Right})
	}
	return logical.DNF{Clauses: []logical.Clause{{Atoms: atoms}}}
}
