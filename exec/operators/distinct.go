package operators

import (
	"context"

	"github.com/vectorq/vectorq/container/flathash"
	"github.com/vectorq/vectorq/exec/executor"
	"github.com/vectorq/vectorq/hash/rowhash"
	"github.com/vectorq/vectorq/morsel"
	"github.com/vectorq/vectorq/plan/physical"
)

// Distinct emits one representative row per distinct row value over its
// input (spec §4.N), using the same flathash structure HashAggregate
// groups with. A fingerprint only narrows the candidate set — rows
// sharing one are re-checked for actual full-row equality before being
// folded together, so a rowhash collision between two genuinely different
// rows still yields two distinct output rows.
type Distinct struct {
	plan  *physical.Distinct
	input executor.Operator
	rt    *Runtime
}

func NewDistinct(p *physical.Distinct, input executor.Operator, rt *Runtime) *Distinct {
	return &Distinct{plan: p, input: input, rt: rt}
}

func (d *Distinct) Open(ctx context.Context, downstream executor.Emit) error {
	downstream = d.rt.State.Observe("Distinct", downstream)
	morsels, err := drain(ctx, d.input)
	if err != nil {
		return err
	}
	if err := d.rt.State.CheckCancelled(); err != nil {
		return err
	}
	schema := *d.plan.Schema()
	whole := concatMorsels(schema, morsels)

	seen := flathash.NewMap(whole.RowCount)
	var order []int
	hashes := rowhash.Rows(whole.Columns)
	for i, hv := range hashes {
		isNew := true
		for _, r := range seen.Get(hv) {
			if groupKeysEqual(d.rt.Eval, whole.Columns, int(r), i) {
				isNew = false
				break
			}
		}
		if isNew {
			order = append(order, i)
		}
		seen.Insert(hv, int64(i))
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

func (d *Distinct) Close() error { return d.input.Close() }
