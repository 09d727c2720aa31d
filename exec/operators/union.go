package operators

import (
	"context"

	"github.com/vectorq/vectorq/container/flathash"
	"github.com/vectorq/vectorq/exec/executor"
	"github.com/vectorq/vectorq/hash/rowhash"
	"github.com/vectorq/vectorq/morsel"
	"github.com/vectorq/vectorq/plan/physical"
)

// Union concatenates its inputs' row streams (spec §4.O). UNION ALL
// streams each input's morsels through as they arrive; a plain UNION must
// additionally dedup across every input, which — since a duplicate can
// come from any pair of inputs — requires seeing all of them first.
type Union struct {
	plan   *physical.Union
	inputs []executor.Operator
	rt     *Runtime
}

func NewUnion(p *physical.Union, inputs []executor.Operator, rt *Runtime) *Union {
	return &Union{plan: p, inputs: inputs, rt: rt}
}

func (u *Union) Open(ctx context.Context, downstream executor.Emit) error {
	downstream = u.rt.State.Observe("Union", downstream)
	if u.plan.All {
		for _, in := range u.inputs {
			err := in.Open(ctx, func(m *morsel.Morsel) error {
				if m == morsel.EOS {
					return nil
				}
				return downstream(m)
			})
			if err != nil {
				return err
			}
		}
		return downstream(morsel.EOS)
	}

	schema := *u.plan.Schema()
	var all []*morsel.Morsel
	for _, in := range u.inputs {
		ms, err := drain(ctx, in)
		if err != nil {
			return err
		}
		all = append(all, ms...)
	}
	whole := concatMorsels(schema, all)
	seen := flathash.NewSet(whole.RowCount)
	var order []int
	for i, hv := range rowhash.Rows(whole.Columns) {
		if seen.Add(hv) {
			order = append(order, i)
		}
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

func (u *Union) Close() error {
	var firstErr error
	for _, in := range u.inputs {
		if err := in.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
