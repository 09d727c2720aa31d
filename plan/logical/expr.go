// Package logical implements the logical plan node types spec §3/§4.G
// describe, as a tagged variant over struct embedding — the same shape
// the teacher's planner/core uses (logicalSchemaProducer/baseLogicalPlan
// embedded into LogicalJoin, LogicalAggregation, LogicalSelection, …),
// generalized from TiKV-gather-specific nodes to the spec's fixed
// {Scan, Project, Filter, Join, Aggregate, Distinct, Sort, Limit, Union,
// Values, Subquery, Show, Explain, Set} variant set. Grounded on
// tinysql/planner/core/logical_plans.go and logical_plan_builder.go.
package logical

import "github.com/vectorq/vectorq/ids"

// Op is a comparison/logic operator in the canonical set predicate
// normalization (spec §4.I rule 2) reduces every WHERE/ON/HAVING clause
// to.
type Op int

const (
	OpEq Op = iota
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpIn
	OpNotIn
	OpIsNull
	OpIsNotNull
	OpLike
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "="
	case OpNeq:
		return "!="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpIn:
		return "IN"
	case OpNotIn:
		return "NOT IN"
	case OpIsNull:
		return "IS NULL"
	case OpIsNotNull:
		return "IS NOT NULL"
	case OpLike:
		return "LIKE"
	default:
		return "?"
	}
}

// Negate returns the logical negation of o where one exists (used by
// predicate compaction's contradiction detection).
func (o Op) Negate() (Op, bool) {
	switch o {
	case OpEq:
		return OpNeq, true
	case OpNeq:
		return OpEq, true
	case OpLt:
		return OpGte, true
	case OpLte:
		return OpGt, true
	case OpGt:
		return OpLte, true
	case OpGte:
		return OpLt, true
	case OpIsNull:
		return OpIsNotNull, true
	case OpIsNotNull:
		return OpIsNull, true
	default:
		return o, false
	}
}

// Expr is the typed expression tree the Expression Evaluator (§4.P)
// dispatches. A Predicate (§4.I/§4.G "DNF": list<clause>, clause =
// list<(col, op, val)>) is expressed as Expr trees made of Compare/And/Or
// nodes so the optimizer's DNF passes can walk a single shape; Compare
// triples are also extracted directly where an optimizer pass wants the
// (col, op, val) form spec.md's glossary defines.
type Expr interface {
	isExpr()
}

// Column references a bound column by its stable identity.
type Column struct {
	ID   ids.ColumnID
	Name string // for EXPLAIN/error messages only — never used for resolution
}

func (Column) isExpr() {}

// Literal is a constant value of one of the fixed physical types.
type Literal struct {
	Value interface{} // nil means SQL NULL
}

func (Literal) isExpr() {}

// Param is an unbound query parameter placeholder (spec §6: positional
// "?" or named ":name"). The binder leaves these in place — parameter
// values aren't known until Execute time — and BindParameters (package
// binder) substitutes each one for a Literal once the caller's argument
// list/map is available, failing with errkind.ParameterError on a count
// or name mismatch.
type Param struct {
	Index int    // 1-based position for "?" placeholders; 0 for named
	Name  string // non-"" for ":name" placeholders
}

func (Param) isExpr() {}

// Compare is a single (col OP val) predicate atom — the unit DNF clauses
// are built from.
type Compare struct {
	Col Column
	Op  Op
	Val Expr // Literal, or another Column for column-to-column comparisons
}

func (Compare) isExpr() {}

// And is a conjunction of sub-expressions (a DNF clause, or a general AND
// chain before normalization).
type And struct {
	Terms []Expr
}

func (And) isExpr() {}

// Or is a disjunction of sub-expressions (the outer DNF list, or a general
// OR chain before normalization).
type Or struct {
	Terms []Expr
}

func (Or) isExpr() {}

// Not is a boolean negation, retained until predicate normalization pushes
// it down via De Morgan's laws / Op.Negate.
type Not struct {
	Term Expr
}

func (Not) isExpr() {}

// FuncCall is a scalar or aggregate function invocation resolved to the
// function registry during binding (spec §4.H/§4.P — "dispatch contract
// only matters" per spec §1; the registry itself is external).
type FuncCall struct {
	Name   string
	Args   []Expr
	Pure   bool // false for random()/now()-style impure functions (constant folding must not touch these)
	RetCol Column
}

func (FuncCall) isExpr() {}

// Case implements CASE WHEN ... THEN ... ELSE ... END with short-circuit
// evaluation semantics (spec §4.P).
type Case struct {
	Whens []WhenClause
	Else  Expr // nil means implicit NULL else
}

func (Case) isExpr() {}

// WhenClause is one WHEN cond THEN result arm of a Case.
type WhenClause struct {
	Cond   Expr
	Result Expr
}

// Clause is one AND-list of Compare atoms — spec.md's glossary "DNF"
// clause. Kept as a distinct type (not just []Expr) so the optimizer's DNF
// passes have a concrete, easily-compared shape to dedupe/absorb/factor
// over.
type Clause struct {
	Atoms []Compare
	// False is set by predicate compaction when the clause's atoms are
	// mutually contradictory (spec rule: predicate compaction, e.g.
	// "id > 1 AND id == 0 => False"), rewriting the clause while
	// preserving schema rather than dropping it outright.
	False bool
}

// DNF is a disjunction of Clauses: list<clause>, spec.md's canonical
// predicate normal form.
type DNF struct {
	Clauses []Clause
}

// IsFalse reports a DNF that predicate compaction has rewritten to the
// contradiction sentinel: a single contradictory clause tagged False.
func (d DNF) IsFalse() bool {
	return len(d.Clauses) == 1 && d.Clauses[0].False
}
