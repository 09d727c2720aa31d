package optimizer

import (
	"testing"

	"github.com/vectorq/vectorq/ids"
	"github.com/vectorq/vectorq/plan/logical"
)

func col(id uint64) logical.Column { return logical.Column{ID: ids.ColumnID(id), Name: "id"} }

func atom(id uint64, op logical.Op, v int64) logical.Compare {
	return logical.Compare{Col: col(id), Op: op, Val: logical.Literal{Value: v}}
}

func filterWith(clauses ...logical.Clause) *logical.Filter {
	return &logical.Filter{
		Input:     &logical.Scan{Dataset: "t"},
		Condition: logical.DNF{Clauses: clauses},
	}
}

func clause(atoms ...logical.Compare) logical.Clause {
	return logical.Clause{Atoms: atoms}
}

// TestSimplifyAbsorption covers spec §8: [[A],[A,B]] -> [[A]].
func TestSimplifyAbsorption(t *testing.T) {
	f := filterWith(
		clause(atom(1, logical.OpEq, 5)),
		clause(atom(1, logical.OpEq, 5), atom(2, logical.OpEq, 9)),
	)
	out := SimplifyDNF{}.Apply(f, NewCounters()).(*logical.Filter)
	if len(out.Condition.Clauses) != 1 {
		t.Fatalf("got %d clauses, want 1 (absorption): %+v", len(out.Condition.Clauses), out.Condition.Clauses)
	}
	if len(out.Condition.Clauses[0].Atoms) != 1 {
		t.Fatalf("surviving clause has %d atoms, want 1", len(out.Condition.Clauses[0].Atoms))
	}
}

// TestSimplifyDedup covers spec §8: [[A,B],[A,B]] -> [[A,B]].
func TestSimplifyDedup(t *testing.T) {
	f := filterWith(
		clause(atom(1, logical.OpEq, 5), atom(2, logical.OpEq, 9)),
		clause(atom(1, logical.OpEq, 5), atom(2, logical.OpEq, 9)),
	)
	out := SimplifyDNF{}.Apply(f, NewCounters()).(*logical.Filter)
	if len(out.Condition.Clauses) != 1 {
		t.Fatalf("got %d clauses, want 1 (dedup): %+v", len(out.Condition.Clauses), out.Condition.Clauses)
	}
}

// TestSimplifyIsIdempotent confirms a second Apply over an already
// simplified DNF changes nothing further, as spec §8 requires.
func TestSimplifyIsIdempotent(t *testing.T) {
	f := filterWith(
		clause(atom(1, logical.OpEq, 5)),
		clause(atom(1, logical.OpEq, 5), atom(2, logical.OpEq, 9)),
	)
	once := SimplifyDNF{}.Apply(f, NewCounters()).(*logical.Filter)
	twice := SimplifyDNF{}.Apply(once, NewCounters()).(*logical.Filter)

	if len(once.Condition.Clauses) != len(twice.Condition.Clauses) {
		t.Fatalf("second Apply changed clause count: %d vs %d", len(once.Condition.Clauses), len(twice.Condition.Clauses))
	}
}

// TestCommonPrefixFactorsSharedAtom covers spec §8's
// [[A,B],[A,C]] -> A AND (B OR C) factoring, surfaced via CommonPrefix.
func TestCommonPrefixFactorsSharedAtom(t *testing.T) {
	a := atom(1, logical.OpEq, 5)
	d := logical.DNF{Clauses: []logical.Clause{
		clause(a, atom(2, logical.OpEq, 9)),
		clause(a, atom(3, logical.OpEq, 1)),
	}}
	common := CommonPrefix(d)
	if len(common) != 1 || common[0].Col.ID != a.Col.ID {
		t.Fatalf("CommonPrefix = %+v, want just the shared atom on column %d", common, a.Col.ID)
	}
}

// TestCompactRangeMerge covers spec §8: id > 1 AND id > 4 -> id > 4 (the
// tighter bound wins).
func TestCompactRangeMerge(t *testing.T) {
	f := filterWith(clause(atom(1, logical.OpGt, 1), atom(1, logical.OpGt, 4)))
	out := CompactPredicates{}.Apply(f, NewCounters()).(*logical.Filter)

	atoms := out.Condition.Clauses[0].Atoms
	if len(atoms) != 1 {
		t.Fatalf("got %d atoms, want 1 merged bound: %+v", len(atoms), atoms)
	}
	if atoms[0].Op != logical.OpGt || atoms[0].Val.(logical.Literal).Value != int64(4) {
		t.Fatalf("merged bound = %+v, want id > 4", atoms[0])
	}
}

// TestCompactInclusiveVsExclusiveBoundary covers id >= 4 AND id > 4 -> id > 4.
func TestCompactInclusiveVsExclusiveBoundary(t *testing.T) {
	f := filterWith(clause(atom(1, logical.OpGte, 4), atom(1, logical.OpGt, 4)))
	out := CompactPredicates{}.Apply(f, NewCounters()).(*logical.Filter)

	atoms := out.Condition.Clauses[0].Atoms
	if len(atoms) != 1 {
		t.Fatalf("got %d atoms, want 1: %+v", len(atoms), atoms)
	}
	if atoms[0].Op != logical.OpGt || atoms[0].Val.(logical.Literal).Value != int64(4) {
		t.Fatalf("merged bound = %+v, want id > 4 (strict bound dominates on tie)", atoms[0])
	}
}

// TestCompactEqualityDominatesRange covers id > 1 AND id = 3 AND id < 9 ->
// id = 3.
func TestCompactEqualityDominatesRange(t *testing.T) {
	f := filterWith(clause(
		atom(1, logical.OpGt, 1),
		atom(1, logical.OpEq, 3),
		atom(1, logical.OpLt, 9),
	))
	out := CompactPredicates{}.Apply(f, NewCounters()).(*logical.Filter)

	atoms := out.Condition.Clauses[0].Atoms
	if len(atoms) != 1 {
		t.Fatalf("got %d atoms, want 1 (equality dominance): %+v", len(atoms), atoms)
	}
	if atoms[0].Op != logical.OpEq || atoms[0].Val.(logical.Literal).Value != int64(3) {
		t.Fatalf("surviving atom = %+v, want id = 3", atoms[0])
	}
}

// TestCompactContradictionRewritesToFalse covers id > 1 AND id = 0 ->
// False, preserving clause/schema shape rather than dropping the clause.
func TestCompactContradictionRewritesToFalse(t *testing.T) {
	f := filterWith(clause(atom(1, logical.OpGt, 1), atom(1, logical.OpEq, 0)))
	out := CompactPredicates{}.Apply(f, NewCounters()).(*logical.Filter)

	if len(out.Condition.Clauses) != 1 {
		t.Fatalf("got %d clauses, want 1 (preserved, not dropped)", len(out.Condition.Clauses))
	}
	if !out.Condition.Clauses[0].False {
		t.Fatalf("clause = %+v, want False=true", out.Condition.Clauses[0])
	}
	if !out.Condition.IsFalse() {
		t.Fatalf("DNF.IsFalse() = false, want true")
	}
}
