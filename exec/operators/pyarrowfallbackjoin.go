package operators

import (
	"context"

	"github.com/vectorq/vectorq/exec/executor"
	"github.com/vectorq/vectorq/morsel"
	"github.com/vectorq/vectorq/plan/logical"
	"github.com/vectorq/vectorq/plan/physical"
)

// PyArrowFallbackJoin covers ON clauses none of the direct variants can
// dispatch on a per-comparator basis — a mixed equal/non-equal condition,
// or one the planner folded into a single DNF rather than a column
// comparator list (spec §4.M). It evaluates Condition as one predicate
// over the full cross product, the most general (and most expensive)
// strategy, which is exactly why the other four variants exist to avoid
// reaching it when a cheaper shape is available.
type PyArrowFallbackJoin struct {
	plan        *physical.PyArrowFallbackJoin
	left, right executor.Operator
	rt          *Runtime
}

func NewPyArrowFallbackJoin(p *physical.PyArrowFallbackJoin, left, right executor.Operator, rt *Runtime) *PyArrowFallbackJoin {
	return &PyArrowFallbackJoin{plan: p, left: left, right: right, rt: rt}
}

func (j *PyArrowFallbackJoin) Open(ctx context.Context, downstream executor.Emit) error {
	downstream = j.rt.State.Observe("PyArrowFallbackJoin", downstream)
	schema := *j.plan.Schema()
	leftWhole, err := wholeOf(ctx, j.left, *j.plan.Left.Schema())
	if err != nil {
		return err
	}
	rightWhole, err := wholeOf(ctx, j.right, *j.plan.Right.Schema())
	if err != nil {
		return err
	}
	if err := j.rt.State.CheckCancelled(); err != nil {
		return err
	}

	cross := crossProduct(leftWhole.Schema, rightWhole.Schema, leftWhole, rightWhole)
	mask, err := j.rt.Eval.EvalDNF(j.plan.Condition, cross)
	if err != nil {
		return err
	}

	leftMatched := make([]bool, leftWhole.RowCount)
	rightMatched := make([]bool, rightWhole.RowCount)
	var pairs pairBatch
	semiOrAnti := j.plan.Type == logical.SemiJoin || j.plan.Type == logical.AntiJoin
	idx := 0
	for li := 0; li < leftWhole.RowCount; li++ {
		for ri := 0; ri < rightWhole.RowCount; ri++ {
			if mask[idx] {
				leftMatched[li] = true
				rightMatched[ri] = true
				if !semiOrAnti {
					pairs.add(li, ri)
				}
			}
			idx++
		}
	}

	switch j.plan.Type {
	case logical.SemiJoin:
		return emitOneSidedAndEOS(schema, leftWhole, rightWhole, indicesWhere(leftMatched, true), downstream)
	case logical.AntiJoin:
		return emitOneSidedAndEOS(schema, leftWhole, rightWhole, indicesWhere(leftMatched, false), downstream)
	}

	if joinTypeIsOuterLeft(j.plan.Type) {
		for li, ok := range leftMatched {
			if !ok {
				pairs.add(li, -1)
			}
		}
	}
	if joinTypeIsOuterRight(j.plan.Type) {
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

func (j *PyArrowFallbackJoin) Close() error {
	if err := j.left.Close(); err != nil {
		return err
	}
	return j.right.Close()
}

// crossProduct materializes every (left row, right row) pair as one wide
// morsel so Condition can be evaluated as a single batched DNF pass rather
// than row by row — acceptable here because this path is already the
// most-expensive fallback and the row counts it's chosen for are expected
// to be small.
func crossProduct(leftSchema, rightSchema morsel.Schema, left, right *morsel.Morsel) *morsel.Morsel {
	total := left.RowCount * right.RowCount
	leftIdx := make([]int, 0, total)
	rightIdx := make([]int, 0, total)
	for li := 0; li < left.RowCount; li++ {
		for ri := 0; ri < right.RowCount; ri++ {
			leftIdx = append(leftIdx, li)
			rightIdx = append(rightIdx, ri)
		}
	}
	schema := morsel.Concat(leftSchema, rightSchema)
	return materializeJoin(schema, left, right, pairBatch{left: leftIdx, right: rightIdx})
}
