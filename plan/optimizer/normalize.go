package optimizer

import (
	"math"
	"sort"

	"github.com/vectorq/vectorq/plan/logical"
)

// ToDNF reduces a general boolean Expr tree (And/Or/Not/Compare, as a
// parser/binder would naively build one from a WHERE clause) to spec §4.I
// rule 2's canonical disjunctive normal form: an Or of Ands of Compare
// atoms, via De Morgan's laws and distribution. Non-boolean leaves (a bare
// Compare) become a single one-atom, one-clause DNF.
func ToDNF(e logical.Expr) logical.DNF {
	return orOf(pushNegations(e))
}

// pushNegations eliminates Not nodes by De Morgan's laws and Op.Negate,
// leaving only And/Or/Compare.
func pushNegations(e logical.Expr) logical.Expr {
	switch v := e.(type) {
	case logical.Not:
		switch inner := pushNegations(v.Term).(type) {
		case logical.And:
			terms := make([]logical.Expr, len(inner.Terms))
			for i, t := range inner.Terms {
				terms[i] = pushNegations(logical.Not{Term: t})
			}
			return logical.Or{Terms: terms}
		case logical.Or:
			terms := make([]logical.Expr, len(inner.Terms))
			for i, t := range inner.Terms {
				terms[i] = pushNegations(logical.Not{Term: t})
			}
			return logical.And{Terms: terms}
		case logical.Compare:
			if negOp, ok := inner.Op.Negate(); ok {
				return logical.Compare{Col: inner.Col, Op: negOp, Val: inner.Val}
			}
			return logical.Not{Term: inner}
		default:
			return logical.Not{Term: inner}
		}
	case logical.And:
		terms := make([]logical.Expr, len(v.Terms))
		for i, t := range v.Terms {
			terms[i] = pushNegations(t)
		}
		return logical.And{Terms: terms}
	case logical.Or:
		terms := make([]logical.Expr, len(v.Terms))
		for i, t := range v.Terms {
			terms[i] = pushNegations(t)
		}
		return logical.Or{Terms: terms}
	default:
		return e
	}
}

// orOf distributes And over Or to produce a flat DNF; each returned
// Clause.Atoms holds only Compare leaves. A non-Compare leaf that survives
// pushNegations (e.g. a FuncCall-as-predicate or a Not over one) yields an
// empty DNF: an Or loses that term, and an And containing it yields no
// clauses at all.
func orOf(e logical.Expr) logical.DNF {
	switch v := e.(type) {
	case logical.Compare:
		return logical.DNF{Clauses: []logical.Clause{{Atoms: []logical.Compare{v}}}}
	case logical.Or:
		var clauses []logical.Clause
		for _, t := range v.Terms {
			clauses = append(clauses, orOf(t).Clauses...)
		}
		return logical.DNF{Clauses: clauses}
	case logical.And:
		// distribute: start with the identity (one empty clause), then for
		// each term's DNF, cross-product with the accumulator.
		acc := []logical.Clause{{}}
		for _, t := range v.Terms {
			termDNF := orOf(t)
			var next []logical.Clause
			for _, a := range acc {
				for _, b := range termDNF.Clauses {
					next = append(next, logical.Clause{Atoms: append(append([]logical.Compare{}, a.Atoms...), b.Atoms...)})
				}
			}
			acc = next
		}
		return logical.DNF{Clauses: acc}
	default:
		return logical.DNF{}
	}
}

// NormalizeDNF canonicalizes every Filter's existing DNF (and, via
// BindJoin, every NonEquiCondition list is left alone — those are already
// atomic) by sorting each clause's atoms into a deterministic order and
// dropping exact-duplicate atoms within a clause, so SimplifyDNF's
// dedup/absorption comparisons can use plain structural equality instead
// of re-deriving a canonical form themselves.
type NormalizeDNF struct{}

func (NormalizeDNF) Name() string { return "predicate_normalization" }

func (r NormalizeDNF) Apply(n logical.Node, c *Counters) logical.Node {
	return walkBottomUp(n, func(node logical.Node) logical.Node {
		f, ok := node.(*logical.Filter)
		if !ok {
			return node
		}
		nv := *f
		nv.Condition = canonicalize(f.Condition)
		if !dnfEqual(nv.Condition, f.Condition) {
			c.Incr("predicate_normalization")
		}
		return &nv
	})
}

func canonicalize(d logical.DNF) logical.DNF {
	out := make([]logical.Clause, len(d.Clauses))
	for i, cl := range d.Clauses {
		atoms := dedupAtoms(cl.Atoms)
		sort.Slice(atoms, func(i, j int) bool { return atomKey(atoms[i]) < atomKey(atoms[j]) })
		out[i] = logical.Clause{Atoms: atoms, False: cl.False}
	}
	return logical.DNF{Clauses: out}
}

func dedupAtoms(atoms []logical.Compare) []logical.Compare {
	var out []logical.Compare
	seen := map[string]bool{}
	for _, a := range atoms {
		k := atomKey(a)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, a)
	}
	return out
}

// atomKey is a stable string encoding of a Compare atom, used both to sort
// atoms within a clause and to compare clauses/atoms for equality across
// the normalize/simplify/compact passes.
func atomKey(a logical.Compare) string {
	return uitoa(uint64(a.Col.ID)) + "|" + a.Op.String() + "|" + valKey(a.Val)
}

func valKey(e logical.Expr) string {
	switch v := e.(type) {
	case logical.Literal:
		return "lit:" + litString(v.Value)
	case logical.Column:
		return "col:" + uitoa(uint64(v.ID))
	default:
		return "expr"
	}
}

func litString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "s:" + x
	case bool:
		if x {
			return "b:1"
		}
		return "b:0"
	case int64:
		return "i:" + itoa64(x)
	case float64:
		return "f:" + uitoa(math.Float64bits(x))
	default:
		return "?"
	}
}

func uitoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var digits []byte
	for v > 0 {
		digits = append([]byte{byte('0' + v%10)}, digits...)
		v /= 10
	}
	return string(digits)
}

func itoa64(v int64) string {
	if v < 0 {
		return "-" + uitoa(uint64(-v))
	}
	return uitoa(uint64(v))
}

func clauseKey(cl logical.Clause) string {
	s := ""
	for _, a := range cl.Atoms {
		s += atomKey(a) + ";"
	}
	if cl.False {
		s += "FALSE"
	}
	return s
}

func clauseEqual(a, b logical.Clause) bool { return clauseKey(a) == clauseKey(b) }

func dnfEqual(a, b logical.DNF) bool {
	if len(a.Clauses) != len(b.Clauses) {
		return false
	}
	for i := range a.Clauses {
		if !clauseEqual(a.Clauses[i], b.Clauses[i]) {
			return false
		}
	}
	return true
}
