package operators

import (
	"context"
	gosort "sort"

	"github.com/google/btree"

	"github.com/vectorq/vectorq/exec/executor"
	"github.com/vectorq/vectorq/morsel"
	"github.com/vectorq/vectorq/plan/physical"
)

// Sort is a blocking operator: it drains its entire input, orders it by
// Keys (spec §4.O, stable multi-key comparison honoring collation), and
// pushes the result as a single morsel. When Limit is set (the optimizer
// pushed a downstream LIMIT into the sort), it instead maintains a bounded
// top-N via a google/btree ordered tree, never holding more than Limit
// candidate rows at once.
type Sort struct {
	plan  *physical.Sort
	input executor.Operator
	rt    *Runtime
}

func NewSort(p *physical.Sort, input executor.Operator, rt *Runtime) *Sort {
	return &Sort{plan: p, input: input, rt: rt}
}

func (s *Sort) Open(ctx context.Context, downstream executor.Emit) error {
	downstream = s.rt.State.Observe("Sort", downstream)
	morsels, err := drain(ctx, s.input)
	if err != nil {
		return err
	}
	if err := s.rt.State.CheckCancelled(); err != nil {
		return err
	}
	schema := *s.plan.Schema()
	whole := concatMorsels(schema, morsels)

	less := func(i, j int) bool { return s.rowLess(whole, i, j) }

	var order []int
	if s.plan.Limit != nil && int(*s.plan.Limit) < whole.RowCount {
		order = s.topN(whole, int(*s.plan.Limit), less)
	} else {
		order = make([]int, whole.RowCount)
		for i := range order {
			order[i] = i
		}
		gosort.SliceStable(order, func(a, b int) bool { return less(order[a], order[b]) })
	}

	columns := make([]*morsel.Column, len(whole.Columns))
	for i, c := range whole.Columns {
		columns[i] = c.Take(order)
	}
	if err := downstream(morsel.New(schema, columns)); err != nil {
		return err
	}
	return downstream(morsel.EOS)
}

func (s *Sort) Close() error { return s.input.Close() }

// rowLess implements the multi-key comparison Keys specifies: NULLS
// FIRST/LAST per key, ascending/descending, first differing key wins.
func (s *Sort) rowLess(m *morsel.Morsel, i, j int) bool {
	for _, k := range s.plan.Keys {
		c := m.ColumnByID(k.Col.ID)
		ni, nj := c.IsNull(i), c.IsNull(j)
		if ni || nj {
			if ni == nj {
				continue
			}
			if k.NullsFirst {
				return ni
			}
			return nj
		}
		cmp := s.rt.Eval.CompareCells(c, i, c, j)
		if cmp == 0 {
			continue
		}
		if k.Descending {
			return cmp > 0
		}
		return cmp < 0
	}
	return false
}

// rowItem is one btree.Item: a row index ordered by Sort.rowLess, with ties
// broken by row index so equal-keyed rows stay distinct and keep input order.
type rowItem struct {
	idx  int
	less func(i, j int) bool
}

func (r rowItem) Less(than btree.Item) bool {
	o := than.(rowItem)
	if r.less(r.idx, o.idx) {
		return true
	}
	if r.less(o.idx, r.idx) {
		return false
	}
	return r.idx < o.idx
}

// topN maintains a bounded ordered tree of at most n candidates, evicting
// the current worst (the tree's max, since it's ordered by "should come
// before") whenever a new row would otherwise grow the tree past n —
// avoiding ever materializing a full sort of the input when only the first
// n rows are wanted.
func (s *Sort) topN(m *morsel.Morsel, n int, less func(i, j int) bool) []int {
	tr := btree.New(32)
	for i := 0; i < m.RowCount; i++ {
		item := rowItem{idx: i, less: less}
		if tr.Len() < n {
			tr.ReplaceOrInsert(item)
			continue
		}
		worst := tr.Max()
		if item.Less(worst) {
			tr.Delete(worst)
			tr.ReplaceOrInsert(item)
		}
	}
	order := make([]int, 0, tr.Len())
	tr.Ascend(func(it btree.Item) bool {
		order = append(order, it.(rowItem).idx)
		return true
	})
	return order
}
