package physical

// EstimateCost walks n bottom-up and assigns each node's base.cost a rough
// heuristic figure (sum of children's cost plus a per-row multiplier for
// this node's own work), the single-process stand-in for the teacher's
// copTask/rootTask addCost bookkeeping — enough for EXPLAIN to show a
// relative ordering of where a query spends its estimated cost without
// needing TiDB's full statistics-driven row-count propagation.
func EstimateCost(n Node) float64 {
	if n == nil {
		return 0
	}
	var childCost float64
	for _, c := range n.Children() {
		childCost += EstimateCost(c)
	}
	own := ownCost(n)
	setCost(n, childCost+own)
	return childCost + own
}

func ownCost(n Node) float64 {
	switch v := n.(type) {
	case *Scan:
		if v.ProvablyEmpty {
			return 0
		}
		return 1.0
	case *HashJoin:
		return 1.5
	case *NestedLoopJoin:
		return 4.0
	case *NonEquiNestedLoopJoin:
		return 4.0
	case *UnnestJoin:
		return 2.0
	case *PyArrowFallbackJoin:
		return 8.0 // the fallback path leaves the engine's native column kernels, so it's weighted heavily
	case *Sort:
		if v.Limit != nil {
			return 1.2 // bounded Top-N heap, cheaper than a full sort
		}
		return 2.0
	case *HashAggregate, *Distinct:
		return 1.3
	default:
		return 1.0
	}
}

func setCost(n Node, c float64) {
	switch v := n.(type) {
	case *Scan:
		v.cost = c
	case *Project:
		v.cost = c
	case *Filter:
		v.cost = c
	case *HashJoin:
		v.cost = c
	case *NestedLoopJoin:
		v.cost = c
	case *NonEquiNestedLoopJoin:
		v.cost = c
	case *UnnestJoin:
		v.cost = c
	case *PyArrowFallbackJoin:
		v.cost = c
	case *HashAggregate:
		v.cost = c
	case *Distinct:
		v.cost = c
	case *Sort:
		v.cost = c
	case *Limit:
		v.cost = c
	case *Union:
		v.cost = c
	}
}
