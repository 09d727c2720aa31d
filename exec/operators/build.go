package operators

import (
	"github.com/vectorq/vectorq/errkind"
	"github.com/vectorq/vectorq/exec/executor"
	"github.com/vectorq/vectorq/plan/physical"
)

// Build recursively wires a physical.Node tree into an executor.Operator
// tree, building every child before the node that consumes it (spec §4.K:
// the pipeline is assembled bottom-up, then driven top-down by a single
// Open call on the root). One case per concrete physical node type, mirroring
// the teacher's buildExecutor type switch in executor/builder.go.
func Build(n physical.Node, rt *Runtime) (executor.Operator, error) {
	switch p := n.(type) {
	case *physical.Scan:
		return NewScan(p, rt), nil
	case *physical.Project:
		input, err := Build(p.Input, rt)
		if err != nil {
			return nil, err
		}
		return NewProject(p, input, rt), nil
	case *physical.Filter:
		input, err := Build(p.Input, rt)
		if err != nil {
			return nil, err
		}
		return NewFilter(p, input, rt), nil
	case *physical.Limit:
		input, err := Build(p.Input, rt)
		if err != nil {
			return nil, err
		}
		return NewLimit(p, input, rt), nil
	case *physical.Sort:
		input, err := Build(p.Input, rt)
		if err != nil {
			return nil, err
		}
		return NewSort(p, input, rt), nil
	case *physical.HashAggregate:
		input, err := Build(p.Input, rt)
		if err != nil {
			return nil, err
		}
		return NewHashAggregate(p, input, rt), nil
	case *physical.Distinct:
		input, err := Build(p.Input, rt)
		if err != nil {
			return nil, err
		}
		return NewDistinct(p, input, rt), nil
	case *physical.Union:
		inputs := make([]executor.Operator, len(p.Inputs))
		for i, in := range p.Inputs {
			built, err := Build(in, rt)
			if err != nil {
				return nil, err
			}
			inputs[i] = built
		}
		return NewUnion(p, inputs, rt), nil
	case *physical.HashJoin:
		left, right, err := buildJoinChildren(p.Left, p.Right, rt)
		if err != nil {
			return nil, err
		}
		return NewHashJoin(p, left, right, rt), nil
	case *physical.NestedLoopJoin:
		left, right, err := buildJoinChildren(p.Left, p.Right, rt)
		if err != nil {
			return nil, err
		}
		return NewNestedLoopJoin(p, left, right, rt), nil
	case *physical.NonEquiNestedLoopJoin:
		left, right, err := buildJoinChildren(p.Left, p.Right, rt)
		if err != nil {
			return nil, err
		}
		return NewNonEquiNestedLoopJoin(p, left, right, rt), nil
	case *physical.UnnestJoin:
		left, right, err := buildJoinChildren(p.Left, p.Right, rt)
		if err != nil {
			return nil, err
		}
		return NewUnnestJoin(p, left, right, rt), nil
	case *physical.PyArrowFallbackJoin:
		left, right, err := buildJoinChildren(p.Left, p.Right, rt)
		if err != nil {
			return nil, err
		}
		return NewPyArrowFallbackJoin(p, left, right, rt), nil
	default:
		return nil, errkind.Newf(errkind.UnsupportedSyntax, "no operator builder registered for physical node %T", n)
	}
}

func buildJoinChildren(leftNode, rightNode physical.Node, rt *Runtime) (executor.Operator, executor.Operator, error) {
	left, err := Build(leftNode, rt)
	if err != nil {
		return nil, nil, err
	}
	right, err := Build(rightNode, rt)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}
