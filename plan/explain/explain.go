// Package explain renders a physical plan as the textual DAG spec §6
// requires: one line per operator and its config, indented by depth — the shape the test battery's literal assertions
// (spec §8 scenarios 3-5: "EXPLAIN output shows FILTER (id > 4)", "does
// not contain id > 1") grep for. Grounded on the teacher's EXPLAIN output
// conventions referenced throughout tinysql/executor/*_test.go
// (`Check(testkit.Rows(...))` against a rendered plan string), reworked
// into a dedicated renderer since this engine's plan shape is a DAG of
// physical.Node rather than the teacher's tree of plannercore.PhysicalPlan.
package explain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vectorq/vectorq/plan/logical"
	"github.com/vectorq/vectorq/plan/physical"
)

// Render walks root depth-first and returns one line per operator:
//
//	PROJECT
//	  FILTER (id > 4)
//	    SCAN (planets)
//
// Each line's indentation is two spaces per depth. Config strings are
// produced by configOf below, matching the operator-specific detail
// spec §6's EXPLAIN contract calls out (predicate text, limit count,
// join kind and keys).
func Render(root physical.Node) string {
	var b strings.Builder
	var walk func(n physical.Node, depth int)
	walk = func(n physical.Node, depth int) {
		if n == nil {
			return
		}
		indent := strings.Repeat("  ", depth)
		cfg := configOf(n)
		if cfg != "" {
			fmt.Fprintf(&b, "%s%s (%s)\n", indent, strings.ToUpper(n.Kind()), cfg)
		} else {
			fmt.Fprintf(&b, "%s%s\n", indent, strings.ToUpper(n.Kind()))
		}
		for _, c := range n.Children() {
			walk(c, depth+1)
		}
	}
	walk(root, 0)
	return b.String()
}

// configOf renders the per-node-kind detail EXPLAIN shows next to an
// operator's name: predicate text for Filter/Scan, join keys for the five
// join variants, and so on. Unknown/opaque node kinds render no config.
func configOf(n physical.Node) string {
	switch v := n.(type) {
	case *physical.Scan:
		parts := []string{v.Dataset}
		if v.ProvablyEmpty {
			parts = append(parts, "provably-empty")
		}
		if pred := DNFString(v.Predicate); pred != "" {
			parts = append(parts, pred)
		}
		if v.Limit != nil {
			parts = append(parts, "limit="+strconv.FormatUint(*v.Limit, 10))
		}
		return strings.Join(parts, ", ")
	case *physical.Filter:
		return DNFString(v.Condition)
	case *physical.Limit:
		s := "count=" + strconv.FormatUint(v.Count, 10)
		if v.Offset > 0 {
			s += ", offset=" + strconv.FormatUint(v.Offset, 10)
		}
		return s
	case *physical.HashJoin:
		return v.Type.String() + " " + joinKeysString(v.EqualConditions)
	case *physical.NonEquiNestedLoopJoin:
		return v.Type.String() + " " + nonEquiString(v.Conditions)
	case *physical.NestedLoopJoin:
		return v.Type.String()
	case *physical.UnnestJoin:
		s := v.Type.String()
		if v.Spec != nil && v.Spec.Distinct {
			s += ", distinct"
		}
		return s
	case *physical.PyArrowFallbackJoin:
		return v.Type.String() + " " + DNFString(v.Condition)
	case *physical.Sort:
		return sortKeysString(v.Keys)
	case *physical.HashAggregate:
		return aggString(v.GroupBy, v.AggFuncs)
	}
	return ""
}

// DNFString renders a DNF predicate as "(clause) OR (clause)", each clause
// as "atom AND atom". Literal test strings like "FILTER (id > 4)" and
// "id > 1" (absent after compaction) depend on this producing exactly the
// compacted atom text, not the pre-compaction predicate.
func DNFString(d logical.DNF) string {
	if len(d.Clauses) == 0 {
		return ""
	}
	clauses := make([]string, 0, len(d.Clauses))
	for _, cl := range d.Clauses {
		if cl.False {
			clauses = append(clauses, "false")
			continue
		}
		atoms := make([]string, 0, len(cl.Atoms))
		for _, a := range cl.Atoms {
			atoms = append(atoms, compareString(a))
		}
		clauses = append(clauses, strings.Join(atoms, " AND "))
	}
	if len(clauses) == 1 {
		return clauses[0]
	}
	return "(" + strings.Join(clauses, ") OR (") + ")"
}

func compareString(c logical.Compare) string {
	return colName(c.Col) + " " + c.Op.String() + " " + exprString(c.Val)
}

func colName(c logical.Column) string {
	if c.Name != "" {
		return c.Name
	}
	return "#" + strconv.FormatUint(uint64(c.ID), 10)
}

func exprString(e logical.Expr) string {
	switch v := e.(type) {
	case logical.Literal:
		return literalString(v.Value)
	case logical.Column:
		return colName(v)
	default:
		return "<expr>"
	}
}

func literalString(v interface{}) string {
	if v == nil {
		return "NULL"
	}
	switch t := v.(type) {
	case string:
		return "'" + t + "'"
	default:
		return fmt.Sprintf("%v", t)
	}
}

func joinKeysString(eqs []logical.EqualCondition) string {
	parts := make([]string, 0, len(eqs))
	for _, eq := range eqs {
		parts = append(parts, colName(eq.Left)+" = "+colName(eq.Right))
	}
	return strings.Join(parts, " AND ")
}

func nonEquiString(conds []logical.NonEquiCondition) string {
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		parts = append(parts, colName(c.Left)+" "+c.Op.String()+" "+colName(c.Right))
	}
	return strings.Join(parts, " AND ")
}

func sortKeysString(keys []logical.SortKey) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		dir := "ASC"
		if k.Descending {
			dir = "DESC"
		}
		parts = append(parts, colName(k.Col)+" "+dir)
	}
	return strings.Join(parts, ", ")
}

func aggString(groupBy []logical.Expr, aggs []logical.AggFunc) string {
	var parts []string
	if len(groupBy) > 0 {
		gb := make([]string, len(groupBy))
		for i, g := range groupBy {
			gb[i] = exprString(g)
		}
		parts = append(parts, "GROUP BY "+strings.Join(gb, ", "))
	}
	for _, a := range aggs {
		parts = append(parts, aggFuncString(a))
	}
	return strings.Join(parts, ", ")
}

func aggFuncString(a logical.AggFunc) string {
	name := aggKindName(a.Kind)
	if a.Arg == nil {
		return name + "(*)"
	}
	return name + "(" + exprString(a.Arg) + ")"
}

func aggKindName(k logical.AggFuncKind) string {
	switch k {
	case logical.AggCount:
		return "COUNT"
	case logical.AggCountDistinct:
		return "COUNT_DISTINCT"
	case logical.AggSum:
		return "SUM"
	case logical.AggMin:
		return "MIN"
	case logical.AggMax:
		return "MAX"
	case logical.AggAvg:
		return "AVG"
	case logical.AggHashOne:
		return "HASH_ONE"
	case logical.AggHashList:
		return "HASH_LIST"
	default:
		return "AGG"
	}
}
