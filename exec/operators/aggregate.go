package operators

import (
	"context"
	"math"

	"github.com/vectorq/vectorq/container/flathash"
	"github.com/vectorq/vectorq/exec/executor"
	"github.com/vectorq/vectorq/expression"
	"github.com/vectorq/vectorq/hash/rowhash"
	"github.com/vectorq/vectorq/morsel"
	"github.com/vectorq/vectorq/plan/logical"
	"github.com/vectorq/vectorq/plan/physical"
)

// HashAggregate computes GROUP BY/aggregate functions via the same
// open-addressed flathash structure DISTINCT and hash joins build on (spec
// §4.N): every row's grouping columns are fingerprinted, rows sharing a
// fingerprint are bucketed together, and each bucket folds through its
// AggFuncs once at the end. A fingerprint only picks the candidate bucket
// to probe — spec §4.N requires an actual group-key equality re-check
// before a row is folded into an existing bucket, the same
// collision-resolution rowsEqual does for HashJoin, so two distinct group
// keys that happen to collide on rowhash still land in separate groups.
type HashAggregate struct {
	plan  *physical.HashAggregate
	input executor.Operator
	rt    *Runtime
}

func NewHashAggregate(p *physical.HashAggregate, input executor.Operator, rt *Runtime) *HashAggregate {
	return &HashAggregate{plan: p, input: input, rt: rt}
}

func (h *HashAggregate) Open(ctx context.Context, downstream executor.Emit) error {
	downstream = h.rt.State.Observe("HashAggregate", downstream)
	morsels, err := drain(ctx, h.input)
	if err != nil {
		return err
	}
	if err := h.rt.State.CheckCancelled(); err != nil {
		return err
	}
	whole := concatMorsels(*h.plan.Input.Schema(), morsels)

	groupCols := make([]*morsel.Column, len(h.plan.GroupBy))
	for i, g := range h.plan.GroupBy {
		c, err := h.rt.Eval.Eval(g, whole)
		if err != nil {
			return err
		}
		groupCols[i] = c
	}

	var groupOrder []uint64
	buckets := flathash.NewMap(whole.RowCount)
	if len(groupCols) == 0 {
		// A single global group spanning every row (plain aggregate with no
		// GROUP BY clause).
		const globalKey = uint64(1)
		for i := 0; i < whole.RowCount; i++ {
			buckets.Insert(globalKey, int64(i))
		}
		if whole.RowCount == 0 {
			// Aggregates over zero rows still produce one row (e.g. COUNT(*) = 0).
			buckets.Insert(globalKey, -1)
		}
		groupOrder = []uint64{globalKey}
	} else {
		hashes := rowhash.Rows(groupCols)
		// candidatesByHash tracks every real group's bucket key seen so far
		// for a given raw fingerprint, so a second, genuinely different
		// group key that happens to collide on rowhash gets its own key
		// instead of being folded into the first group's bucket.
		candidatesByHash := map[uint64][]uint64{}
		repRow := map[uint64]int{}
		for i, hv := range hashes {
			var key uint64
			matched := false
			for _, cand := range candidatesByHash[hv] {
				if groupKeysEqual(h.rt.Eval, groupCols, repRow[cand], i) {
					key = cand
					matched = true
					break
				}
			}
			if !matched {
				key = collisionSaltedKey(hv, len(candidatesByHash[hv]))
				candidatesByHash[hv] = append(candidatesByHash[hv], key)
				repRow[key] = i
				groupOrder = append(groupOrder, key)
			}
			buckets.Insert(key, int64(i))
		}
	}

	schema := *h.plan.Schema()
	numGroupCols := len(groupCols)
	outCols := make([]*morsel.Column, len(schema.Fields))

	// Group-by output columns: one representative row (the bucket's first
	// member) picked per group, in first-seen order.
	for gi := range groupCols {
		rep := make([]int, len(groupOrder))
		for oi, key := range groupOrder {
			vals := buckets.Get(key)
			rep[oi] = int(vals[0])
		}
		outCols[gi] = withField(groupCols[gi].Take(rep), schema.Fields[gi])
	}

	// Aggregate output columns, one fold per group per AggFunc.
	for ai, agg := range h.plan.AggFuncs {
		var argCol *morsel.Column
		if agg.Arg != nil {
			c, err := h.rt.Eval.Eval(agg.Arg, whole)
			if err != nil {
				return err
			}
			argCol = c
		}
		outCols[numGroupCols+ai] = foldAgg(agg, argCol, buckets, groupOrder, schema.Fields[numGroupCols+ai])
	}

	if err := downstream(morsel.New(schema, outCols)); err != nil {
		return err
	}
	return downstream(morsel.EOS)
}

func (h *HashAggregate) Close() error { return h.input.Close() }

// foldAgg computes one AggFunc's value for every group in groupOrder.
func foldAgg(agg logical.AggFunc, arg *morsel.Column, buckets *flathash.Map, groupOrder []uint64, field morsel.Field) *morsel.Column {
	n := len(groupOrder)
	switch agg.Kind {
	case logical.AggCount:
		vals := make([]int64, n)
		for i, key := range groupOrder {
			rows := buckets.Get(key)
			c := int64(0)
			for _, r := range rows {
				if r < 0 {
					continue
				}
				if arg == nil || !arg.IsNull(int(r)) {
					c++
				}
			}
			vals[i] = c
		}
		return &morsel.Column{Field: field, Int64s: vals}

	case logical.AggCountDistinct:
		vals := make([]int64, n)
		for i, key := range groupOrder {
			rows := buckets.Get(key)
			seen := flathash.NewSet(len(rows))
			for _, r := range rows {
				if r < 0 || arg.IsNull(int(r)) {
					continue
				}
				seen.Add(rowhash.Row([]*morsel.Column{arg}, int(r)))
			}
			vals[i] = int64(seen.Len())
		}
		return &morsel.Column{Field: field, Int64s: vals}

	case logical.AggSum, logical.AggMin, logical.AggMax, logical.AggAvg:
		vals := make([]float64, n)
		nulls := make([]bool, n)
		for i, key := range groupOrder {
			rows := buckets.Get(key)
			var sum float64
			var count int64
			var best float64
			haveBest := false
			for _, r := range rows {
				if r < 0 || arg.IsNull(int(r)) {
					continue
				}
				v, ok := expressionNumericAt(arg, int(r))
				if !ok {
					continue
				}
				sum += v
				count++
				switch {
				case !haveBest:
					best, haveBest = v, true
				case agg.Kind == logical.AggMin && v < best:
					best = v
				case agg.Kind == logical.AggMax && v > best:
					best = v
				}
			}
			if count == 0 {
				nulls[i] = true
				continue
			}
			switch agg.Kind {
			case logical.AggSum:
				vals[i] = sum
			case logical.AggAvg:
				vals[i] = sum / float64(count)
			case logical.AggMin, logical.AggMax:
				vals[i] = best
			}
		}
		col := &morsel.Column{Field: field, Float64s: vals}
		if anyTrue(nulls) {
			col.Nulls = nulls
		}
		return col

	case logical.AggHashOne, logical.AggHashList:
		vals := make([]int64, n)
		for i, key := range groupOrder {
			rows := buckets.Get(key)
			if len(rows) == 0 {
				continue
			}
			r := int(rows[0])
			if agg.Kind == logical.AggHashOne && arg != nil {
				vals[i] = int64(rowhash.Row([]*morsel.Column{arg}, r))
			} else {
				vals[i] = int64(key)
			}
		}
		return &morsel.Column{Field: field, Int64s: vals}

	default:
		return &morsel.Column{Field: field, Any: make([]interface{}, n)}
	}
}

func anyTrue(b []bool) bool {
	for _, v := range b {
		if v {
			return true
		}
	}
	return false
}

// expressionNumericAt widens a single cell to float64 using the same
// type-aware path expression.Compare uses, rejecting NaN so it can never
// poison a SUM/AVG/MIN/MAX fold.
func expressionNumericAt(c *morsel.Column, i int) (float64, bool) {
	v, ok := expression.NumericAt(c, i)
	if ok && math.IsNaN(v) {
		return 0, false
	}
	return v, ok
}
