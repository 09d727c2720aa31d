package optimizer

import "github.com/vectorq/vectorq/plan/logical"

// RemoveRedundant implements spec §4.I rule 10, run last so it cleans up
// whatever earlier passes left behind: a Filter whose condition has been
// reduced so that any clause has zero atoms (a vacuous AND — always true)
// is dropped entirely, and a Project that is a pure identity over its
// input's schema (same columns, same order, no computed
// expressions) collapses away since it contributes nothing the executor
// needs to apply.
type RemoveRedundant struct{}

func (RemoveRedundant) Name() string { return "redundant_operator_removal" }

func (r RemoveRedundant) Apply(n logical.Node, c *Counters) logical.Node {
	return walkBottomUp(n, func(node logical.Node) logical.Node {
		switch v := node.(type) {
		case *logical.Filter:
			if isVacuouslyTrue(v.Condition) {
				c.Incr("redundant_operator_removal")
				return v.Input
			}
			return v
		case *logical.Project:
			if isIdentityProjection(v) {
				c.Incr("redundant_operator_removal")
				return v.Input
			}
			return v
		default:
			return node
		}
	})
}

func isVacuouslyTrue(d logical.DNF) bool {
	for _, cl := range d.Clauses {
		if !cl.False && len(cl.Atoms) == 0 {
			return true
		}
	}
	return false
}

func isIdentityProjection(p *logical.Project) bool {
	inSchema := p.Input.Schema()
	if inSchema == nil || len(p.Exprs) != len(inSchema.Fields) {
		return false
	}
	for i, e := range p.Exprs {
		col, ok := e.(logical.Column)
		if !ok || col.ID != inSchema.Fields[i].ID {
			return false
		}
	}
	return true
}
