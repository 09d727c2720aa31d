package logical

import (
	"github.com/vectorq/vectorq/ids"
	"github.com/vectorq/vectorq/morsel"
	"github.com/vectorq/vectorq/plan/dag"
	"github.com/vectorq/vectorq/stats"
)

// Node is the tagged-variant interface every logical operator implements.
// Grounded on the teacher's LogicalPlan interface (planner/core/
// logical_plans.go): each concrete node embeds schemaProducer the way the
// teacher embeds logicalSchemaProducer/baseLogicalPlan, publishing its
// output schema at planning time.
type Node interface {
	Kind() string
	Schema() *morsel.Schema
	SetSchema(*morsel.Schema)
}

// schemaProducer is the shared embeddable base every Node uses, matching
// the teacher's logicalSchemaProducer: a node that owns and publishes an
// output schema.
type schemaProducer struct {
	schema *morsel.Schema
}

func (s *schemaProducer) Schema() *morsel.Schema     { return s.schema }
func (s *schemaProducer) SetSchema(sc *morsel.Schema) { s.schema = sc }

// Scan is a leaf node reading a dataset, with projection/predicate/limit
// already attached by pushdown passes (spec §4.I rules 5/6/9). Every leaf
// in a well-formed plan must be a Scan, Values, or a constant Show node
// (spec §4.G invariant).
type Scan struct {
	schemaProducer
	Dataset         string
	Projection      []ids.ColumnID
	PushedPredicate DNF
	PushedLimit     *uint64 // nil means no limit pushed
	VisibilityDNF   DNF     // per-dataset security filter, AND-ed in before the optimizer runs (spec §6)
	Statistics      *stats.RelationStatistics
	ProvablyEmpty   bool // set by statistics pruning (spec §4.I rule 7)
}

func (Scan) Kind() string { return "Scan" }

// Values is a leaf node for a literal VALUES(...) row set.
type Values struct {
	schemaProducer
	Rows [][]Expr
}

func (Values) Kind() string { return "Values" }

// Project selects/reorders columns and computes scalar expressions.
type Project struct {
	schemaProducer
	Input Node
	Exprs []Expr
}

func (Project) Kind() string { return "Project" }

// Filter applies a WHERE/HAVING predicate (three-valued: NULL is treated
// as false, per spec §4.P/§7).
type Filter struct {
	schemaProducer
	Input     Node
	Condition DNF
}

func (Filter) Kind() string { return "Filter" }

// JoinType is the SQL join kind, independent of which physical join
// algorithm the physical planner later selects for it (spec §4.J).
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftOuterJoin
	RightOuterJoin
	FullOuterJoin
	SemiJoin
	AntiJoin
	CrossJoin
)

func (t JoinType) String() string {
	switch t {
	case InnerJoin:
		return "INNER"
	case LeftOuterJoin:
		return "LEFT OUTER"
	case RightOuterJoin:
		return "RIGHT OUTER"
	case FullOuterJoin:
		return "FULL OUTER"
	case SemiJoin:
		return "SEMI"
	case AntiJoin:
		return "ANTI"
	case CrossJoin:
		return "CROSS"
	default:
		return "?"
	}
}

// EqualCondition is one side of an equi-join's ON clause: left.col = right.col.
type EqualCondition struct {
	Left  Column
	Right Column
}

// NonEquiCondition is a non-equal comparator in an ON clause (spec §4.J:
// "Any non-equal comparator in the ON clause -> Non-Equi Nested-Loop
// Join").
type NonEquiCondition struct {
	Left  Column
	Op    Op
	Right Column
}

// Join is the logical join node; physical planning (spec §4.J) picks
// Hash/NestedLoop/NonEquiNestedLoop/Unnest/PyArrow-fallback from its shape.
type Join struct {
	schemaProducer
	Left, Right      Node
	Type             JoinType
	EqualConditions  []EqualCondition
	OtherConditions  []NonEquiCondition
	Unnest           *UnnestSpec // non-nil for CROSS JOIN UNNEST(expr)
	CorrelatedFilter *DNF        // synthesized by optimizer rule 8; nil until then
}

func (Join) Kind() string { return "Join" }

// UnnestSpec configures a CROSS JOIN UNNEST(expr) (spec §4.M Unnest).
type UnnestSpec struct {
	ArrayExpr          Expr
	OutputColumn       Column
	Distinct           bool
	SingleColumnOnly    bool // downstream only needs the unnested column: short-circuit replication
	ElementConditions   DNF  // inline element-level predicates applied during unnest
}

// AggFuncKind enumerates the simple aggregators spec §4.N names.
type AggFuncKind int

const (
	AggCount AggFuncKind = iota
	AggCountDistinct
	AggSum
	AggMin
	AggMax
	AggAvg
	// AggHashOne and AggHashList resolve the GROUP BY ALL open question
	// (see DESIGN.md): hash_one fingerprints a single grouping column,
	// hash_list fingerprints the whole output row, and the two are kept
	// distinct rather than conflated.
	AggHashOne
	AggHashList
)

// AggFunc is one aggregate expression in a GROUP BY's SELECT list.
type AggFunc struct {
	Kind   AggFuncKind
	Arg    Expr // nil for COUNT(*)
	Output Column
}

// Aggregate is GROUP BY (with or without aggregate functions — an empty
// AggFuncs list plus non-empty GroupBy is the shape Distinct also uses
// internally, see Distinct below which keeps its own node for clarity at
// the logical-plan level per spec's component list).
type Aggregate struct {
	schemaProducer
	Input    Node
	GroupBy  []Expr
	AggFuncs []AggFunc
}

func (Aggregate) Kind() string { return "Aggregate" }

// Distinct emits one representative row per distinct combination of its
// input's columns (spec §4.N).
type Distinct struct {
	schemaProducer
	Input Node
}

func (Distinct) Kind() string { return "Distinct" }

// SortKey is one ORDER BY term.
type SortKey struct {
	Col        Column
	Descending bool
	NullsFirst bool
}

// Sort performs a stable multi-key sort (spec §4.O); if Limit is non-nil
// and the optimizer pushed it in, the executor uses a bounded Top-N heap
// instead of sorting the whole input.
type Sort struct {
	schemaProducer
	Input Node
	Keys  []SortKey
	Limit *uint64
}

func (Sort) Kind() string { return "Sort" }

// Limit implements OFFSET/LIMIT (skip-then-take, spec §4.O).
type Limit struct {
	schemaProducer
	Input  Node
	Offset uint64
	Count  uint64
}

func (Limit) Kind() string { return "Limit" }

// Union concatenates the row streams of two or more inputs with the same
// schema shape.
type Union struct {
	schemaProducer
	Inputs []Node
	All    bool // UNION ALL skips the implicit DISTINCT
}

func (Union) Kind() string { return "Union" }

// Subquery wraps a correlated or uncorrelated subplan; CorrelatedCols lists
// the outer-scope columns it references, used by the binder/optimizer to
// decide whether a subquery can be decorrelated into a join.
type Subquery struct {
	schemaProducer
	Plan            Node
	CorrelatedCols  []Column
}

func (Subquery) Kind() string { return "Subquery" }

// ShowKind enumerates the SHOW statement variants.
type ShowKind int

const (
	ShowTables ShowKind = iota
	ShowColumns
	ShowCreateTable
)

// Show is a constant, catalog-driven leaf node (spec §4.G: a leaf may be a
// "constant Show node").
type Show struct {
	schemaProducer
	What    ShowKind
	Dataset string
}

func (Show) Kind() string { return "Show" }

// Explain wraps a plan so the executor renders its DAG instead of running
// it (spec §6).
type Explain struct {
	schemaProducer
	Target Node
	Analyze bool // EXPLAIN ANALYZE also runs the plan and reports real stats
}

func (Explain) Kind() string { return "Explain" }

// SetKind enumerates the session-variable SET statement's targets.
type SetKind int

const (
	SetSessionVar SetKind = iota
)

// Set represents a `SET name = value` statement.
type Set struct {
	schemaProducer
	Name  string
	Value Expr
}

func (Set) Kind() string { return "Set" }

// BuildGraph walks a Node tree (via each node's children, introspected by
// the caller since Node has no generic Children() — nodes are few and
// shaped differently enough that a type switch is clearer than a generic
// accessor) into a dag.Graph, assigning each node a NodeID of
// "<kind><index>" the way EXPLAIN output names operators.
func BuildGraph(root Node) *dag.Graph {
	g := dag.New()
	counter := map[string]int{}
	idOf := map[Node]dag.NodeID{}

	var nodeID func(n Node) dag.NodeID
	nodeID = func(n Node) dag.NodeID {
		if id, ok := idOf[n]; ok {
			return id
		}
		kind := n.Kind()
		id := dag.NodeID(kind + itoa(counter[kind]))
		counter[kind]++
		idOf[n] = id
		return id
	}

	var visit func(n Node)
	visit = func(n Node) {
		if n == nil {
			return
		}
		id := nodeID(n)
		g.AddNode(id, n)
		for _, child := range Children(n) {
			visit(child)
			g.AddEdge(nodeID(child), id, "")
		}
	}
	visit(root)
	return g
}

// Children returns the direct logical-plan children of n, in the order the
// physical planner should lower them.
func Children(n Node) []Node {
	switch v := n.(type) {
	case *Project:
		return []Node{v.Input}
	case *Filter:
		return []Node{v.Input}
	case *Join:
		return []Node{v.Left, v.Right}
	case *Aggregate:
		return []Node{v.Input}
	case *Distinct:
		return []Node{v.Input}
	case *Sort:
		return []Node{v.Input}
	case *Limit:
		return []Node{v.Input}
	case *Union:
		return v.Inputs
	case *Subquery:
		return []Node{v.Plan}
	case *Explain:
		return []Node{v.Target}
	default:
		return nil
	}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := []byte{}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}
