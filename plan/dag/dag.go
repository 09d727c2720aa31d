// Package dag implements the typed node graph spec §4.G requires: a plan
// is a directed acyclic graph of string-identified nodes with labelled
// edges, supporting the graph algorithms (topological checks, BFS/DFS,
// shortest path, epitomize) the logical/physical planners and EXPLAIN
// renderer all need. Grounded on spec §4.G directly and on the
// travers-style graph in original_source/opteryx/third_party/travers
// (kept in the Python original specifically for DAG checks/shortest-path/
// epitomize tests) — reimplemented as a plain Go graph over node IDs
// instead of parent back-pointers, per the design note in spec.md §9
// ("Cyclic references between plan nodes... Model the DAG with node IDs
// and side tables; nodes carry no back-pointers").
package dag

import "sort"

// NodeID identifies a node within one Graph. IDs are assigned by the
// caller (the logical/physical planners use their own node-kind-prefixed
// scheme, e.g. "scan0", "join1").
type NodeID string

// Edge connects src to dst, optionally labelled with the consuming "leg"
// (e.g. "left"/"right" for a join, "probe"/"build").
type Edge struct {
	Src   NodeID
	Dst   NodeID
	Label string
}

// Graph is a directed graph of NodeID -> payload, with adjacency tracked
// both ways so incoming/outgoing lookups are O(degree).
type Graph struct {
	Payload map[NodeID]interface{}
	order   []NodeID // insertion order, for deterministic iteration
	out     map[NodeID][]Edge
	in      map[NodeID][]Edge
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		Payload: make(map[NodeID]interface{}),
		out:     make(map[NodeID][]Edge),
		in:      make(map[NodeID][]Edge),
	}
}

// AddNode registers id with payload. Re-adding an existing id replaces its
// payload without disturbing edges.
func (g *Graph) AddNode(id NodeID, payload interface{}) {
	if _, ok := g.Payload[id]; !ok {
		g.order = append(g.order, id)
		g.out[id] = nil
		g.in[id] = nil
	}
	g.Payload[id] = payload
}

// AddEdge connects src -> dst with an optional leg label.
func (g *Graph) AddEdge(src, dst NodeID, label string) {
	e := Edge{Src: src, Dst: dst, Label: label}
	g.out[src] = append(g.out[src], e)
	g.in[dst] = append(g.in[dst], e)
}

// Nodes returns every node id in insertion order.
func (g *Graph) Nodes() []NodeID {
	out := make([]NodeID, len(g.order))
	copy(out, g.order)
	return out
}

// OutgoingEdges returns edges leaving id.
func (g *Graph) OutgoingEdges(id NodeID) []Edge { return g.out[id] }

// IncomingEdges returns edges arriving at id.
func (g *Graph) IncomingEdges(id NodeID) []Edge { return g.in[id] }

// EntryPoints returns nodes with no incoming edges (the plan's leaves —
// spec §4.G requires every leaf to be a Scan, Values, or constant Show).
func (g *Graph) EntryPoints() []NodeID {
	var out []NodeID
	for _, id := range g.order {
		if len(g.in[id]) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// ExitPoints returns nodes with no outgoing edges (the plan's sink(s); a
// well-formed logical plan has exactly one).
func (g *Graph) ExitPoints() []NodeID {
	var out []NodeID
	for _, id := range g.order {
		if len(g.out[id]) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// IsAcyclic reports whether the graph has no directed cycle, via a
// recursive three-color DFS.
func (g *Graph) IsAcyclic() bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[NodeID]int, len(g.order))
	var visit func(NodeID) bool
	visit = func(id NodeID) bool {
		color[id] = gray
		for _, e := range g.out[id] {
			switch color[e.Dst] {
			case gray:
				return false
			case white:
				if !visit(e.Dst) {
					return false
				}
			}
		}
		color[id] = black
		return true
	}
	for _, id := range g.order {
		if color[id] == white {
			if !visit(id) {
				return false
			}
		}
	}
	return true
}

// DepthFirstSearch returns node ids in DFS preorder starting from every
// entry point, in entry-point order.
func (g *Graph) DepthFirstSearch() []NodeID {
	visited := make(map[NodeID]bool)
	var out []NodeID
	var visit func(NodeID)
	visit = func(id NodeID) {
		if visited[id] {
			return
		}
		visited[id] = true
		out = append(out, id)
		for _, e := range g.out[id] {
			visit(e.Dst)
		}
	}
	for _, id := range g.EntryPoints() {
		visit(id)
	}
	// Any node unreachable from an entry point (shouldn't happen in a
	// well-formed plan) is still visited, in insertion order, so callers
	// never silently drop a node.
	for _, id := range g.order {
		visit(id)
	}
	return out
}

// BreadthFirstSearch returns node ids reachable from start in BFS order,
// optionally bounded to maxDepth hops (maxDepth < 0 means unbounded).
func (g *Graph) BreadthFirstSearch(start NodeID, maxDepth int) []NodeID {
	type qitem struct {
		id    NodeID
		depth int
	}
	visited := map[NodeID]bool{start: true}
	queue := []qitem{{start, 0}}
	var out []NodeID
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		out = append(out, item.id)
		if maxDepth >= 0 && item.depth >= maxDepth {
			continue
		}
		for _, e := range g.out[item.id] {
			if !visited[e.Dst] {
				visited[e.Dst] = true
				queue = append(queue, qitem{e.Dst, item.depth + 1})
			}
		}
	}
	return out
}

// ShortestPath returns the shortest node sequence from a to b (inclusive),
// or nil if unreachable, via unweighted BFS.
func (g *Graph) ShortestPath(a, b NodeID) []NodeID {
	if a == b {
		return []NodeID{a}
	}
	prev := map[NodeID]NodeID{}
	visited := map[NodeID]bool{a: true}
	queue := []NodeID{a}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range g.out[cur] {
			if visited[e.Dst] {
				continue
			}
			visited[e.Dst] = true
			prev[e.Dst] = cur
			if e.Dst == b {
				// reconstruct
				path := []NodeID{b}
				n := b
				for n != a {
					n = prev[n]
					path = append([]NodeID{n}, path...)
				}
				return path
			}
			queue = append(queue, e.Dst)
		}
	}
	return nil
}

// Epitomize collapses the graph by node-type tag for compact diagrams:
// every node sharing the same tag (as reported by tagOf) is merged into
// one summary node, and an edge is kept between two tags if any underlying
// edge connected a node of one tag to a node of the other. Grounded on the
// collapse-by-type idiom in original_source/opteryx's travers component.
func (g *Graph) Epitomize(tagOf func(payload interface{}) string) *Graph {
	out := New()
	tagByNode := make(map[NodeID]string, len(g.order))
	counts := make(map[string]int)
	for _, id := range g.order {
		tag := tagOf(g.Payload[id])
		tagByNode[id] = tag
		counts[tag]++
	}
	for tag, n := range counts {
		out.AddNode(NodeID(tag), n)
	}
	seen := make(map[[2]string]bool)
	for _, id := range g.order {
		srcTag := tagByNode[id]
		for _, e := range g.out[id] {
			dstTag := tagByNode[e.Dst]
			key := [2]string{srcTag, dstTag}
			if srcTag != dstTag && !seen[key] {
				seen[key] = true
				out.AddEdge(NodeID(srcTag), NodeID(dstTag), "")
			}
		}
	}
	return out
}

// TopologicalOrder returns a valid topological ordering of the graph, or
// nil if the graph has a cycle. Uses Kahn's algorithm with deterministic
// tie-breaking (lexical order of ready node ids) so EXPLAIN output is
// stable across runs.
func (g *Graph) TopologicalOrder() []NodeID {
	indeg := make(map[NodeID]int, len(g.order))
	for _, id := range g.order {
		indeg[id] = len(g.in[id])
	}
	var ready []NodeID
	for _, id := range g.order {
		if indeg[id] == 0 {
			ready = append(ready, id)
		}
	}
	var out []NodeID
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		n := ready[0]
		ready = ready[1:]
		out = append(out, n)
		for _, e := range g.out[n] {
			indeg[e.Dst]--
			if indeg[e.Dst] == 0 {
				ready = append(ready, e.Dst)
			}
		}
	}
	if len(out) != len(g.order) {
		return nil // cycle
	}
	return out
}
