package expression

import "github.com/vectorq/vectorq/morsel"
import "github.com/vectorq/vectorq/plan/logical"

// EvalDNF evaluates a disjunction-of-conjunctions predicate directly,
// without first materializing it as a nested And/Or/Compare Expr tree —
// DNF is Clause/Compare atoms, not a general Expr, so it gets its own small
// evaluation path that ORs each clause's row mask (ANDing that clause's
// atoms) using the same three-valued rules evalBoolCombine applies.
func (ev *Evaluator) EvalDNF(d logical.DNF, m *morsel.Morsel) ([]bool, error) {
	out := make([]bool, m.RowCount)
	if len(d.Clauses) == 0 {
		// No predicate at all: every row passes.
		for i := range out {
			out[i] = true
		}
		return out, nil
	}
	for _, clause := range d.Clauses {
		if clause.False {
			continue
		}
		mask, err := ev.evalClause(clause, m)
		if err != nil {
			return nil, err
		}
		for i := range out {
			out[i] = out[i] || mask[i]
		}
	}
	return out, nil
}

// evalClause ANDs every atom's comparison mask for one DNF clause.
func (ev *Evaluator) evalClause(clause logical.Clause, m *morsel.Morsel) ([]bool, error) {
	out := make([]bool, m.RowCount)
	for i := range out {
		out[i] = true
	}
	for _, atom := range clause.Atoms {
		mask, err := ev.evalCompare(atom, m)
		if err != nil {
			return nil, err
		}
		for i := range out {
			out[i] = out[i] && mask[i]
		}
	}
	return out, nil
}
