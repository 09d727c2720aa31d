package operators

import (
	"context"

	"github.com/vectorq/vectorq/container/flathash"
	"github.com/vectorq/vectorq/exec/executor"
	"github.com/vectorq/vectorq/filter/bloom"
	"github.com/vectorq/vectorq/hash/rowhash"
	"github.com/vectorq/vectorq/morsel"
	"github.com/vectorq/vectorq/plan/logical"
	"github.com/vectorq/vectorq/plan/physical"
)

// HashJoin builds an open-addressed hash table over the smaller side's
// equi-join keys and probes it with the other side (spec §4.M), optionally
// guarded by a Bloom prefilter (spec §4.E) when the build side is large
// enough to make the filter worth its own construction cost. BuildOnLeft
// only picks which physical side backs the hash table — output row order
// and NULL-padding always honor Left/Right/Type exactly as a nested-loop
// join would, so swapping the build side never changes query semantics.
type HashJoin struct {
	plan        *physical.HashJoin
	left, right executor.Operator
	rt          *Runtime
}

func NewHashJoin(p *physical.HashJoin, left, right executor.Operator, rt *Runtime) *HashJoin {
	return &HashJoin{plan: p, left: left, right: right, rt: rt}
}

func (h *HashJoin) Open(ctx context.Context, downstream executor.Emit) error {
	downstream = h.rt.State.Observe("HashJoin", downstream)
	schema := *h.plan.Schema()
	leftWhole, err := wholeOf(ctx, h.left, *h.plan.Left.Schema())
	if err != nil {
		return err
	}
	rightWhole, err := wholeOf(ctx, h.right, *h.plan.Right.Schema())
	if err != nil {
		return err
	}
	if err := h.rt.State.CheckCancelled(); err != nil {
		return err
	}

	buildIsLeft := h.plan.BuildOnLeft
	buildWhole, probeWhole := rightWhole, leftWhole
	if buildIsLeft {
		buildWhole, probeWhole = leftWhole, rightWhole
	}

	buildKeyCols := make([]*morsel.Column, len(h.plan.EqualConditions))
	probeKeyCols := make([]*morsel.Column, len(h.plan.EqualConditions))
	for i, eq := range h.plan.EqualConditions {
		if buildIsLeft {
			buildKeyCols[i] = buildWhole.ColumnByID(eq.Left.ID)
			probeKeyCols[i] = probeWhole.ColumnByID(eq.Right.ID)
		} else {
			buildKeyCols[i] = buildWhole.ColumnByID(eq.Right.ID)
			probeKeyCols[i] = probeWhole.ColumnByID(eq.Left.ID)
		}
	}

	buildHashes := rowhash.Rows(buildKeyCols)
	table := flathash.NewMap(buildWhole.RowCount)
	for i, hv := range buildHashes {
		if keysHaveNull(buildKeyCols, i) {
			continue
		}
		table.Insert(hv, int64(i))
	}

	var bf *bloom.Filter
	if h.plan.BloomPrefilter && buildWhole.RowCount >= h.rt.BloomBuildThreshold {
		bf = bloom.New(buildWhole.RowCount)
		for i, hv := range buildHashes {
			if !keysHaveNull(buildKeyCols, i) {
				bf.Add(hv)
			}
		}
	}

	probeHashes := rowhash.Rows(probeKeyCols)
	buildMatched := make([]bool, buildWhole.RowCount)
	leftMatched := make([]bool, leftWhole.RowCount)

	var pairs pairBatch
	for pi := 0; pi < probeWhole.RowCount; pi++ {
		matchedAny := false
		if !keysHaveNull(probeKeyCols, pi) {
			hv := probeHashes[pi]
			if bf == nil || bf.PossiblyContains(hv) {
				for _, bi64 := range table.Get(hv) {
					bi := int(bi64)
					if !h.rowsEqual(buildKeyCols, bi, probeKeyCols, pi) {
						continue
					}
					matchedAny = true
					buildMatched[bi] = true
					li, ri := pairIndices(buildIsLeft, bi, pi)
					pairs.add(li, ri)
					if buildIsLeft {
						leftMatched[bi] = true
					} else {
						leftMatched[pi] = true
					}
				}
			}
		}
		if !matchedAny && h.plan.Type != logical.SemiJoin && h.plan.Type != logical.AntiJoin {
			if (buildIsLeft && joinTypeIsOuterRight(h.plan.Type)) || (!buildIsLeft && joinTypeIsOuterLeft(h.plan.Type)) {
				li, ri := pairIndices(buildIsLeft, -1, pi)
				pairs.add(li, ri)
			}
		}
	}

	if h.plan.Type != logical.SemiJoin && h.plan.Type != logical.AntiJoin {
		for bi := 0; bi < buildWhole.RowCount; bi++ {
			if buildMatched[bi] {
				continue
			}
			if (buildIsLeft && joinTypeIsOuterLeft(h.plan.Type)) || (!buildIsLeft && joinTypeIsOuterRight(h.plan.Type)) {
				li, ri := pairIndices(buildIsLeft, bi, -1)
				pairs.add(li, ri)
			}
		}
	}

	switch h.plan.Type {
	case logical.SemiJoin:
		return h.emitOneSided(schema, leftWhole, rightWhole, leftMatched, true, downstream)
	case logical.AntiJoin:
		return h.emitOneSided(schema, leftWhole, rightWhole, leftMatched, false, downstream)
	default:
		if err := emitJoinBatches(schema, leftWhole, rightWhole, pairs, downstream); err != nil {
			return err
		}
		return downstream(morsel.EOS)
	}
}

func (h *HashJoin) emitOneSided(schema morsel.Schema, left, right *morsel.Morsel, matched []bool, wantMatched bool, downstream executor.Emit) error {
	var idx []int
	for i, ok := range matched {
		if ok == wantMatched {
			idx = append(idx, i)
		}
	}
	if err := downstream(materializeOneSided(schema, left, right, idx)); err != nil {
		return err
	}
	return downstream(morsel.EOS)
}

func (h *HashJoin) Close() error {
	if err := h.left.Close(); err != nil {
		return err
	}
	return h.right.Close()
}

// rowsEqual re-checks actual key equality for a hash candidate — the hash
// table buckets by fingerprint alone, so collisions must be ruled out
// before treating two rows as a real match.
func (h *HashJoin) rowsEqual(leftCols []*morsel.Column, li int, rightCols []*morsel.Column, ri int) bool {
	for k := range leftCols {
		if h.rt.Eval.CompareCells(leftCols[k], li, rightCols[k], ri) != 0 {
			return false
		}
	}
	return true
}

func keysHaveNull(cols []*morsel.Column, i int) bool {
	for _, c := range cols {
		if c.IsNull(i) {
			return true
		}
	}
	return false
}

// pairIndices maps a (build-row, probe-row) pair to (left-row, right-row)
// output order, independent of which physical side was chosen to build.
func pairIndices(buildIsLeft bool, buildIdx, probeIdx int) (left, right int) {
	if buildIsLeft {
		return buildIdx, probeIdx
	}
	return probeIdx, buildIdx
}
