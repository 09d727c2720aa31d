// Package optimizer implements the heuristic rewrite passes spec §4.I
// names: constant folding, predicate normalization/simplification/
// compaction, predicate/projection/limit pushdown, statistics-driven
// pruning, correlated-filter synthesis, and redundant-operator removal.
// Grounded on the rewrite-pass shape of tinysql's planner/core (each pass
// walks the logical.Node tree bottom-up and returns a possibly-new root),
// generalized to the spec's fixed rule list instead of TiDB's rule
// registry.
package optimizer

import "github.com/vectorq/vectorq/plan/logical"

// Rule is one named rewrite pass over a logical plan.
type Rule interface {
	Name() string
	Apply(n logical.Node, c *Counters) logical.Node
}

// Counters tracks how many times each named optimization fired during one
// Optimize call, surfaced to EXPLAIN/observability (spec §6) — e.g.
// "optimization_inner_join_correlated_filter" for rule 8's synthesis.
type Counters struct {
	counts map[string]int
}

// NewCounters returns an empty counter set.
func NewCounters() *Counters { return &Counters{counts: map[string]int{}} }

// Incr bumps the named counter by one.
func (c *Counters) Incr(name string) {
	if c.counts == nil {
		c.counts = map[string]int{}
	}
	c.counts[name]++
}

// Get returns the current value of the named counter.
func (c *Counters) Get(name string) int { return c.counts[name] }

// Snapshot returns a copy of all non-zero counters, for EXPLAIN ANALYZE
// output.
func (c *Counters) Snapshot() map[string]int {
	out := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// DefaultPipeline is the fixed rule order spec §4.I lays out: constant
// folding runs first (so later passes see folded boolean literals),
// normalization before simplification/compaction (both need
// DNF shape), pushdown after the predicate is in its smallest form,
// pruning after pushdown has put predicates where stats can use them, and
// redundant-operator removal last (cleans up whatever earlier passes
// left behind — e.g. a Filter reduced to "true" by compaction).
func DefaultPipeline() []Rule {
	return []Rule{
		ConstantFold{},
		NormalizeDNF{},
		SimplifyDNF{},
		CompactPredicates{},
		SynthesizeCorrelatedFilters{},
		PushdownPredicates{},
		PushdownProjection{},
		PruneByStatistics{},
		PushdownLimit{},
		RemoveRedundant{},
	}
}

// Optimize runs pipeline over root in order, threading the possibly-new
// root through each rule, and returns the final plan plus the counters
// observability hooks into.
func Optimize(root logical.Node, pipeline []Rule) (logical.Node, *Counters) {
	c := NewCounters()
	for _, r := range pipeline {
		root = r.Apply(root, c)
	}
	return root, c
}
