package physical

import (
	"github.com/vectorq/vectorq/ids"
	"github.com/vectorq/vectorq/plan/logical"
)

// Scan reads a dataset via the decode/blob contract layer (spec §1), with
// projection/predicate/limit already pushed down by the optimizer.
type Scan struct {
	base
	Dataset       string
	Projection    []ids.ColumnID
	Predicate     logical.DNF
	Limit         *uint64
	ProvablyEmpty bool
}

func (*Scan) Kind() string     { return "Scan" }
func (*Scan) Children() []Node { return nil }

// Project computes the SELECT list's scalar expressions (spec §4.O).
type Project struct {
	base
	Input Node
	Exprs []logical.Expr
}

func (*Project) Kind() string     { return "Project" }
func (p *Project) Children() []Node { return []Node{p.Input} }

// Filter applies a three-valued-logic predicate (spec §4.O).
type Filter struct {
	base
	Input     Node
	Condition logical.DNF
}

func (*Filter) Kind() string       { return "Filter" }
func (f *Filter) Children() []Node { return []Node{f.Input} }

// joinBase is the shared shape every physical join variant embeds.
type joinBase struct {
	base
	Left, Right Node
	Type        logical.JoinType
}

func (j *joinBase) Children() []Node { return []Node{j.Left, j.Right} }

// HashJoin builds a flathash-backed hash table over the smaller/build side
// on its equi-join keys and probes it per spec §4.M: "every ON clause
// comparator is an equality -> Hash Join".
type HashJoin struct {
	joinBase
	EqualConditions []logical.EqualCondition
	BuildOnLeft     bool // chosen by the cost model (smaller estimated side builds)
	BloomPrefilter  bool // spec §4.E: build side fingerprints feed a Bloom filter probed before the real hash lookup
}

func (*HashJoin) Kind() string { return "HashJoin" }

// NestedLoopJoin evaluates every left/right row pair directly — used for
// CROSS JOIN (no condition at all) per spec §4.M.
type NestedLoopJoin struct {
	joinBase
}

func (*NestedLoopJoin) Kind() string { return "NestedLoopJoin" }

// NonEquiNestedLoopJoin evaluates a nested loop guarded by one or more
// non-equality comparators per spec §4.M: "any non-equal comparator in the
// ON clause -> Non-Equi Nested-Loop Join".
type NonEquiNestedLoopJoin struct {
	joinBase
	Conditions []logical.NonEquiCondition
}

func (*NonEquiNestedLoopJoin) Kind() string { return "NonEquiNestedLoopJoin" }

// UnnestJoin implements CROSS JOIN UNNEST(expr) (spec §4.M).
type UnnestJoin struct {
	joinBase
	Spec *logical.UnnestSpec
}

func (*UnnestJoin) Kind() string { return "UnnestJoin" }

// PyArrowFallbackJoin covers join shapes spec §4.M reserves a fallback for:
// a join condition the other four variants can't classify directly (e.g.
// an arbitrary boolean expression mixing columns from both sides that
// isn't a plain column-to-column comparator list).
type PyArrowFallbackJoin struct {
	joinBase
	Condition logical.DNF
}

func (*PyArrowFallbackJoin) Kind() string { return "PyArrowFallbackJoin" }

// HashAggregate computes GROUP BY/aggregate functions via the flathash
// open-addressed map (spec §4.N).
type HashAggregate struct {
	base
	Input    Node
	GroupBy  []logical.Expr
	AggFuncs []logical.AggFunc
}

func (*HashAggregate) Kind() string       { return "HashAggregate" }
func (a *HashAggregate) Children() []Node { return []Node{a.Input} }

// Distinct emits one row per distinct key, bucketing rows by fingerprint in
// a flathash.Map (fingerprint -> row list) and re-checking key equality
// within a bucket.
type Distinct struct {
	base
	Input Node
}

func (*Distinct) Kind() string     { return "Distinct" }
func (d *Distinct) Children() []Node { return []Node{d.Input} }

// Sort performs a stable multi-key sort, or a bounded Top-N via a
// google/btree ordered tree (spec §4.O) if Limit is set.
type Sort struct {
	base
	Input Node
	Keys  []logical.SortKey
	Limit *uint64
}

func (*Sort) Kind() string     { return "Sort" }
func (s *Sort) Children() []Node { return []Node{s.Input} }

// Limit implements OFFSET/LIMIT.
type Limit struct {
	base
	Input  Node
	Offset uint64
	Count  uint64
}

func (*Limit) Kind() string     { return "Limit" }
func (l *Limit) Children() []Node { return []Node{l.Input} }

// Union concatenates row streams, deduplicating across all inputs unless
// All is set.
type Union struct {
	base
	Inputs []Node
	All    bool
}

func (*Union) Kind() string     { return "Union" }
func (u *Union) Children() []Node { return u.Inputs }
