package operators

import (
	"context"
	"errors"

	"github.com/vectorq/vectorq/exec/executor"
	"github.com/vectorq/vectorq/morsel"
	"github.com/vectorq/vectorq/plan/physical"
)

// errLimitSatisfied unwinds a Limit's input once enough rows have been
// produced. It is caught in Limit.Open and never surfaces to callers —
// operators upstream of Limit (e.g. a Scan still iterating blobs) simply
// stop the moment their downstream call returns it.
var errLimitSatisfied = errors.New("limit satisfied")

// Limit implements OFFSET/LIMIT (spec §4.O): skip Offset rows, then emit up
// to Count more, stopping its input early once satisfied.
type Limit struct {
	plan  *physical.Limit
	input executor.Operator
	rt    *Runtime
}

func NewLimit(p *physical.Limit, input executor.Operator, rt *Runtime) *Limit {
	return &Limit{plan: p, input: input, rt: rt}
}

func (l *Limit) Open(ctx context.Context, downstream executor.Emit) error {
	downstream = l.rt.State.Observe("Limit", downstream)
	toSkip := l.plan.Offset
	remaining := l.plan.Count

	err := l.input.Open(ctx, func(m *morsel.Morsel) error {
		if m == morsel.EOS {
			return nil
		}
		if remaining == 0 {
			return errLimitSatisfied
		}
		n := uint64(m.RowCount)
		if toSkip > 0 {
			if toSkip >= n {
				toSkip -= n
				return nil
			}
			m = sliceFrom(m, int(toSkip))
			n -= toSkip
			toSkip = 0
		}
		if n > remaining {
			m = truncate(m, int(remaining))
			n = remaining
		}
		remaining -= n
		if err := downstream(m); err != nil {
			return err
		}
		if remaining == 0 {
			return errLimitSatisfied
		}
		return nil
	})
	if err != nil && err != errLimitSatisfied {
		return err
	}
	return downstream(morsel.EOS)
}

func (l *Limit) Close() error { return l.input.Close() }

// sliceFrom returns rows [from, m.RowCount) of m.
func sliceFrom(m *morsel.Morsel, from int) *morsel.Morsel {
	if from <= 0 {
		return m
	}
	columns := make([]*morsel.Column, len(m.Columns))
	for i, c := range m.Columns {
		columns[i] = c.Slice(from, m.RowCount)
	}
	return morsel.New(m.Schema, columns)
}
