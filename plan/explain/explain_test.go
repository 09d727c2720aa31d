package explain

import (
	"strings"
	"testing"

	"github.com/vectorq/vectorq/ids"
	"github.com/vectorq/vectorq/plan/logical"
	"github.com/vectorq/vectorq/plan/physical"
)

func idCompare(name string, id uint64, op logical.Op, v int64) logical.Compare {
	return logical.Compare{
		Col: logical.Column{ID: ids.ColumnID(id), Name: name},
		Op:  op,
		Val: logical.Literal{Value: v},
	}
}

// TestRenderShowsFilterPredicate covers spec §8 scenario 3/4/5's literal
// assertion style: EXPLAIN output must contain the compacted predicate
// text and must not contain a bound that compaction already subsumed.
func TestRenderShowsFilterPredicate(t *testing.T) {
	scan := &physical.Scan{Dataset: "planets"}
	filter := &physical.Filter{
		Input: scan,
		Condition: logical.DNF{Clauses: []logical.Clause{
			{Atoms: []logical.Compare{idCompare("id", 1, logical.OpGt, 4)}},
		}},
	}

	out := Render(filter)
	if !strings.Contains(out, "FILTER (id > 4)") {
		t.Errorf("Render output missing %q, got:\n%s", "FILTER (id > 4)", out)
	}
	if strings.Contains(out, "id > 1") {
		t.Errorf("Render output should not mention the subsumed bound id > 1, got:\n%s", out)
	}
	if !strings.Contains(out, "SCAN (planets)") {
		t.Errorf("Render output missing scan line, got:\n%s", out)
	}
}

// TestRenderIndentsByDepth confirms child operators render with deeper
// indentation than their parent.
func TestRenderIndentsByDepth(t *testing.T) {
	scan := &physical.Scan{Dataset: "t"}
	filter := &physical.Filter{Input: scan, Condition: logical.DNF{}}

	out := Render(filter)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), out)
	}
	if strings.HasPrefix(lines[0], " ") {
		t.Errorf("root line should not be indented: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "  ") {
		t.Errorf("child line should be indented by two spaces: %q", lines[1])
	}
}

// TestDNFStringMultiClauseDisjunction covers the "(clause) OR (clause)"
// rendering for a multi-clause predicate.
func TestDNFStringMultiClauseDisjunction(t *testing.T) {
	d := logical.DNF{Clauses: []logical.Clause{
		{Atoms: []logical.Compare{idCompare("a", 1, logical.OpEq, 1)}},
		{Atoms: []logical.Compare{idCompare("b", 2, logical.OpEq, 2)}},
	}}
	got := DNFString(d)
	want := "(a = 1) OR (b = 2)"
	if got != want {
		t.Errorf("DNFString = %q, want %q", got, want)
	}
}

// TestDNFStringFalseClause covers the contradiction-sentinel rendering.
func TestDNFStringFalseClause(t *testing.T) {
	d := logical.DNF{Clauses: []logical.Clause{{False: true}}}
	if got := DNFString(d); got != "false" {
		t.Errorf("DNFString(False clause) = %q, want %q", got, "false")
	}
}
