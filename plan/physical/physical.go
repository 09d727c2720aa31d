// Package physical lowers a logical.Node tree to exactly one physical
// operator per spec §4.J, selecting among the join algorithm variants
// (Hash/NestedLoop/NonEquiNestedLoop/Unnest/PyArrow-fallback) by each
// Join's shape. Grounded on the task/cost bookkeeping in tinysql's
// planner/core/task.go (copTask/rootTask addCost/cost/plan), collapsed to
// a single in-process task kind since distributed execution (copTask's
// entire reason to exist) is an explicit spec non-goal — every physical
// node here plays the role the teacher's rootTask plays.
package physical

import "github.com/vectorq/vectorq/morsel"

// Node is the tagged-variant interface every physical operator implements,
// mirroring logical.Node but carrying an estimated Cost (spec §4.J
// "the physical planner's heuristic cost model") instead of just a schema.
type Node interface {
	Kind() string
	Schema() *morsel.Schema
	Children() []Node
	Cost() float64
}

// base is the shared embeddable fields every physical node carries.
type base struct {
	schema *morsel.Schema
	cost   float64
}

func (b *base) Schema() *morsel.Schema { return b.schema }
func (b *base) Cost() float64          { return b.cost }
