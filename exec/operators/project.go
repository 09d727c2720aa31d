package operators

import (
	"context"

	"github.com/vectorq/vectorq/exec/executor"
	"github.com/vectorq/vectorq/morsel"
	"github.com/vectorq/vectorq/plan/physical"
)

// Project evaluates its expression list against every morsel its input
// pushes, replacing each row's columns with the projected values (spec
// §4.O). EOS passes straight through.
type Project struct {
	plan  *physical.Project
	input executor.Operator
	rt    *Runtime
}

func NewProject(p *physical.Project, input executor.Operator, rt *Runtime) *Project {
	return &Project{plan: p, input: input, rt: rt}
}

func (p *Project) Open(ctx context.Context, downstream executor.Emit) error {
	downstream = p.rt.State.Observe("Project", downstream)
	schema := *p.plan.Schema()
	return p.input.Open(ctx, func(m *morsel.Morsel) error {
		if m == morsel.EOS {
			return downstream(morsel.EOS)
		}
		if err := p.rt.State.CheckCancelled(); err != nil {
			return err
		}
		columns := make([]*morsel.Column, len(p.plan.Exprs))
		for i, e := range p.plan.Exprs {
			c, err := p.rt.Eval.Eval(e, m)
			if err != nil {
				return err
			}
			columns[i] = withField(c, schema.Fields[i])
		}
		return downstream(morsel.New(schema, columns))
	})
}

func (p *Project) Close() error { return p.input.Close() }
