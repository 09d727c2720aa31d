package binder

import "strings"

// levenshtein computes classic edit distance; used only to build a
// "did you mean" hint on an unresolved column name (spec.md's supplemented
// features — original_source/opteryx's tests/misc/test_suggestions.py —
// not exposed as a SQL function, since function-library internals are out
// of scope per spec §1).
func levenshtein(a, b string) int {
	a, b = strings.ToLower(a), strings.ToLower(b)
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}
	prev := make([]int, lb+1)
	cur := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		cur[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			cur[j] = m
		}
		prev, cur = cur, prev
	}
	return prev[lb]
}

// suggestColumn returns the closest candidate name to name (by edit
// distance) if it is a plausible typo (distance <= 2 and shorter than the
// name itself), else "".
func suggestColumn(name string, candidates []string) string {
	best := ""
	bestDist := 1 << 30
	for _, c := range candidates {
		d := levenshtein(name, c)
		if d < bestDist {
			bestDist = d
			best = c
		}
	}
	if bestDist <= 2 && bestDist < len(name) && best != "" {
		return best
	}
	return ""
}

// candidateNames collects every unqualified column name visible in sc, for
// feeding suggestColumn when a lookup fails.
func candidateNames(sc *scope) []string {
	var out []string
	for cur := sc; cur != nil; cur = cur.parent {
		for _, c := range cur.columns {
			out = append(out, c.name)
		}
	}
	return out
}
