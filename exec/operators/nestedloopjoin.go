package operators

import (
	"context"

	"github.com/vectorq/vectorq/exec/executor"
	"github.com/vectorq/vectorq/morsel"
	"github.com/vectorq/vectorq/plan/logical"
	"github.com/vectorq/vectorq/plan/physical"
)

// NestedLoopJoin implements CROSS JOIN (spec §4.M): every left row paired
// with every right row, no condition to evaluate. Only ever chosen by the
// lowering pass for JoinType CrossJoin, so there is no outer-join NULL
// padding to worry about here.
type NestedLoopJoin struct {
	plan        *physical.NestedLoopJoin
	left, right executor.Operator
	rt          *Runtime
}

func NewNestedLoopJoin(p *physical.NestedLoopJoin, left, right executor.Operator, rt *Runtime) *NestedLoopJoin {
	return &NestedLoopJoin{plan: p, left: left, right: right, rt: rt}
}

func (n *NestedLoopJoin) Open(ctx context.Context, downstream executor.Emit) error {
	downstream = n.rt.State.Observe("NestedLoopJoin", downstream)
	schema := *n.plan.Schema()
	leftWhole, err := wholeOf(ctx, n.left, *n.plan.Left.Schema())
	if err != nil {
		return err
	}
	rightWhole, err := wholeOf(ctx, n.right, *n.plan.Right.Schema())
	if err != nil {
		return err
	}
	if err := n.rt.State.CheckCancelled(); err != nil {
		return err
	}

	var pairs pairBatch
	for li := 0; li < leftWhole.RowCount; li++ {
		for ri := 0; ri < rightWhole.RowCount; ri++ {
			pairs.add(li, ri)
		}
	}
	if err := emitJoinBatches(schema, leftWhole, rightWhole, pairs, downstream); err != nil {
		return err
	}
	return downstream(morsel.EOS)
}

func (n *NestedLoopJoin) Close() error {
	if err := n.left.Close(); err != nil {
		return err
	}
	return n.right.Close()
}

// NonEquiNestedLoopJoin handles join conditions with no equality comparator
// at all (spec §4.M) — a pure nested loop re-checking every Conditions
// comparator per candidate pair, since there is no equi-key to hash on.
type NonEquiNestedLoopJoin struct {
	plan        *physical.NonEquiNestedLoopJoin
	left, right executor.Operator
	rt          *Runtime
}

func NewNonEquiNestedLoopJoin(p *physical.NonEquiNestedLoopJoin, left, right executor.Operator, rt *Runtime) *NonEquiNestedLoopJoin {
	return &NonEquiNestedLoopJoin{plan: p, left: left, right: right, rt: rt}
}

func (n *NonEquiNestedLoopJoin) Open(ctx context.Context, downstream executor.Emit) error {
	downstream = n.rt.State.Observe("NonEquiNestedLoopJoin", downstream)
	schema := *n.plan.Schema()
	leftWhole, err := wholeOf(ctx, n.left, *n.plan.Left.Schema())
	if err != nil {
		return err
	}
	rightWhole, err := wholeOf(ctx, n.right, *n.plan.Right.Schema())
	if err != nil {
		return err
	}
	if err := n.rt.State.CheckCancelled(); err != nil {
		return err
	}

	leftMatched := make([]bool, leftWhole.RowCount)
	rightMatched := make([]bool, rightWhole.RowCount)
	var pairs pairBatch

	semiOrAnti := n.plan.Type == logical.SemiJoin || n.plan.Type == logical.AntiJoin
	for li := 0; li < leftWhole.RowCount; li++ {
		for ri := 0; ri < rightWhole.RowCount; ri++ {
			if !n.satisfies(leftWhole, li, rightWhole, ri) {
				continue
			}
			leftMatched[li] = true
			rightMatched[ri] = true
			if !semiOrAnti {
				pairs.add(li, ri)
			}
		}
	}

	switch n.plan.Type {
	case logical.SemiJoin:
		return emitOneSidedAndEOS(schema, leftWhole, rightWhole, indicesWhere(leftMatched, true), downstream)
	case logical.AntiJoin:
		return emitOneSidedAndEOS(schema, leftWhole, rightWhole, indicesWhere(leftMatched, false), downstream)
	}

	if joinTypeIsOuterLeft(n.plan.Type) {
		for li, ok := range leftMatched {
			if !ok {
				pairs.add(li, -1)
			}
		}
	}
	if joinTypeIsOuterRight(n.plan.Type) {
		for ri, ok := range rightMatched {
			if !ok {
				pairs.add(-1, ri)
			}
		}
	}

	if err := emitJoinBatches(schema, leftWhole, rightWhole, pairs, downstream); err != nil {
		return err
	}
	return downstream(morsel.EOS)
}

func (n *NonEquiNestedLoopJoin) satisfies(left *morsel.Morsel, li int, right *morsel.Morsel, ri int) bool {
	for _, cond := range n.plan.Conditions {
		lc := left.ColumnByID(cond.Left.ID)
		rc := right.ColumnByID(cond.Right.ID)
		if lc.IsNull(li) || rc.IsNull(ri) {
			return false
		}
		cmp := n.rt.Eval.CompareCells(lc, li, rc, ri)
		if !compareSatisfies(cond.Op, cmp) {
			return false
		}
	}
	return true
}

func (n *NonEquiNestedLoopJoin) Close() error {
	if err := n.left.Close(); err != nil {
		return err
	}
	return n.right.Close()
}

func compareSatisfies(op logical.Op, cmp int) bool {
	switch op {
	case logical.OpEq:
		return cmp == 0
	case logical.OpNeq:
		return cmp != 0
	case logical.OpLt:
		return cmp < 0
	case logical.OpLte:
		return cmp <= 0
	case logical.OpGt:
		return cmp > 0
	case logical.OpGte:
		return cmp >= 0
	default:
		return false
	}
}

func indicesWhere(matched []bool, want bool) []int {
	var out []int
	for i, ok := range matched {
		if ok == want {
			out = append(out, i)
		}
	}
	return out
}

func emitOneSidedAndEOS(schema morsel.Schema, left, right *morsel.Morsel, idx []int, downstream executor.Emit) error {
	if err := downstream(materializeOneSided(schema, left, right, idx)); err != nil {
		return err
	}
	return downstream(morsel.EOS)
}
