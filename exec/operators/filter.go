package operators

import (
	"context"

	"github.com/vectorq/vectorq/exec/executor"
	"github.com/vectorq/vectorq/morsel"
	"github.com/vectorq/vectorq/plan/physical"
)

// Filter keeps only the rows its condition's three-valued mask selects
// (spec §4.O); a morsel with no surviving rows is still pushed downstream
// (zero rows, correct schema) rather than dropped, so downstream operators
// that track morsel counts stay accurate.
type Filter struct {
	plan  *physical.Filter
	input executor.Operator
	rt    *Runtime
}

func NewFilter(p *physical.Filter, input executor.Operator, rt *Runtime) *Filter {
	return &Filter{plan: p, input: input, rt: rt}
}

func (f *Filter) Open(ctx context.Context, downstream executor.Emit) error {
	downstream = f.rt.State.Observe("Filter", downstream)
	return f.input.Open(ctx, func(m *morsel.Morsel) error {
		if m == morsel.EOS {
			return downstream(morsel.EOS)
		}
		if err := f.rt.State.CheckCancelled(); err != nil {
			return err
		}
		filtered, err := applyPredicate(f.rt.Eval, m, f.plan.Condition)
		if err != nil {
			return err
		}
		return downstream(filtered)
	})
}

func (f *Filter) Close() error { return f.input.Close() }
