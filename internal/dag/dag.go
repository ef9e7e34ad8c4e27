// SPDX-License-Identifier: MPL-2.0

// Package dag orders the nodes of a dependency graph and partitions out the
// nodes that can never be ordered. It is the bookkeeping side table of the
// package sorter: nodes are plain integer indices into an arena, so the
// packages that own them never hold a pointer back into the sorter.
//
// A node is disabled when it was seeded, when it belongs to a cycle among
// enabled nodes, or when it reaches a disabled node through a non-optional
// edge. Optional edges to disabled nodes are dropped instead. The disabled
// set depends only on the graph, never on node numbering.
package dag

import (
	"fmt"
	"slices"
)

const (
	// Unvisited marks a node the ordering pass has not reached yet.
	Unvisited State = iota
	// InProgress marks a node whose dependencies are still being ordered.
	InProgress
	// Done marks a node that has been ordered.
	Done
)

const (
	// CauseNone is the cause of an enabled node.
	CauseNone CauseKind = iota
	// CauseSeed marks a node that was disabled before sorting started.
	CauseSeed
	// CauseCycle marks a node that is a member of a dependency cycle.
	CauseCycle
	// CauseDependency marks a node that has a disabled non-optional dependency.
	CauseDependency
)

type (
	// State is the visitation state of a node during a sort.
	State uint8

	// CauseKind classifies why a node is disabled.
	CauseKind uint8

	// Edge is a dependency from the owning node on node To.
	Edge struct {
		To       int
		Optional bool
	}

	// Cycle is a strongly connected group of enabled nodes.
	Cycle struct {
		// Members starts at the group's first node in traversal order.
		Members []int
		// Ring reports that the group is a single loop: each member depends
		// on the next one and the last on the first, and Members follows it.
		Ring bool
	}

	// Cause records why a node ended up disabled.
	Cause struct {
		Kind CauseKind
		// Cycle is the group the node belongs to for CauseCycle.
		Cycle *Cycle
		// Via is the disabled dependency for CauseDependency. Following Via
		// always ends at a seeded node or a cycle member.
		Via int
	}

	// Result is the outcome of Graph.Sort.
	Result struct {
		// Order lists the enabled nodes, every dependency before its dependents.
		Order []int
		// Disabled lists the disabled nodes in ascending index order.
		Disabled []int
		// Cycles lists every cycle found, in the order their traversal
		// completed.
		Cycles []*Cycle
	}

	// Graph is an arena of nodes addressed by index. The zero value is an
	// empty graph; use New to preallocate nodes.
	Graph struct {
		nodes []node
	}

	node struct {
		edges    []Edge
		dropped  []bool
		seeded   bool
		disabled bool
		cause    Cause
		state    State

		// cycle search bookkeeping
		index   int
		low     int
		onStack bool
	}

	sorter struct {
		g     *Graph
		res   *Result
		stack []int
		next  int
		// dependents[n] lists the nodes with a non-optional edge to n.
		dependents [][]int
	}
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case Unvisited:
		return "unvisited"
	case InProgress:
		return "in-progress"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// New creates a graph with n nodes and no edges.
func New(n int) *Graph {
	return &Graph{nodes: make([]node, n)}
}

// AddNode appends a node and returns its index.
func (g *Graph) AddNode() int {
	g.nodes = append(g.nodes, node{})
	return len(g.nodes) - 1
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// AddEdge records that node from depends on node to. Edges keep their
// insertion order, which is the order the traversal follows.
func (g *Graph) AddEdge(from, to int, optional bool) error {
	if err := g.check(from); err != nil {
		return err
	}
	if err := g.check(to); err != nil {
		return err
	}
	n := &g.nodes[from]
	n.edges = append(n.edges, Edge{To: to, Optional: optional})
	n.dropped = append(n.dropped, false)
	return nil
}

// Seed disables a node before sorting. Seeded nodes stay disabled across
// repeated sorts.
func (g *Graph) Seed(n int) error {
	if err := g.check(n); err != nil {
		return err
	}
	g.nodes[n].seeded = true
	return nil
}

// Disabled reports whether node n is disabled after the last sort.
func (g *Graph) Disabled(n int) bool { return g.nodes[n].disabled }

// Cause returns why node n is disabled after the last sort.
func (g *Graph) Cause(n int) Cause { return g.nodes[n].cause }

// State returns the visitation state of node n.
func (g *Graph) State(n int) State { return g.nodes[n].state }

// Edges returns the edges of node n in insertion order.
func (g *Graph) Edges(n int) []Edge {
	return append([]Edge(nil), g.nodes[n].edges...)
}

// Effective returns the edges of node n that survived the last sort: every
// edge except optional edges whose target turned out disabled.
func (g *Graph) Effective(n int) []Edge {
	nd := &g.nodes[n]
	out := make([]Edge, 0, len(nd.edges))
	for i, e := range nd.edges {
		if !nd.dropped[i] {
			out = append(out, e)
		}
	}
	return out
}

// Dropped reports whether the i-th edge of node n was dropped by the last
// sort because it is optional and its target is disabled.
func (g *Graph) Dropped(n, i int) bool { return g.nodes[n].dropped[i] }

// Sort partitions the nodes and returns the dependency-first order of the
// enabled ones. It runs in time linear in nodes plus edges and never fails:
// cycles are reported through the result and node causes.
//
// Disabling happens in three steps. Seeded nodes disable everything that
// reaches them through non-optional edges. Cycles are then searched among
// the remaining nodes, following non-optional edges and optional edges alike,
// and disable their members and, again, everything that reaches them through
// non-optional edges. Last, optional edges to disabled nodes are dropped and
// the enabled nodes are ordered depth-first in index and edge order.
func (g *Graph) Sort() *Result {
	g.reset()
	s := &sorter{
		g:          g,
		res:        &Result{Order: make([]int, 0, len(g.nodes))},
		dependents: make([][]int, len(g.nodes)),
	}
	for i := range g.nodes {
		for _, e := range g.nodes[i].edges {
			if !e.Optional {
				s.dependents[e.To] = append(s.dependents[e.To], i)
			}
		}
	}

	var seeds []int
	for i := range g.nodes {
		if g.nodes[i].seeded {
			seeds = append(seeds, i)
		}
	}
	s.propagate(seeds)

	for i := range g.nodes {
		if !g.nodes[i].disabled && g.nodes[i].index == 0 {
			s.connect(i)
		}
	}
	var members []int
	for _, c := range s.res.Cycles {
		for _, m := range c.Members {
			s.disable(m, Cause{Kind: CauseCycle, Cycle: c})
		}
		members = append(members, c.Members...)
	}
	s.propagate(members)

	for i := range g.nodes {
		nd := &g.nodes[i]
		for j, e := range nd.edges {
			nd.dropped[j] = e.Optional && g.nodes[e.To].disabled
		}
	}
	for i := range g.nodes {
		if !g.nodes[i].disabled && g.nodes[i].state == Unvisited {
			s.visit(i)
		}
	}
	for i := range g.nodes {
		if g.nodes[i].disabled {
			s.res.Disabled = append(s.res.Disabled, i)
		}
	}
	return s.res
}

func (g *Graph) reset() {
	for i := range g.nodes {
		n := &g.nodes[i]
		n.state = Unvisited
		n.index, n.low, n.onStack = 0, 0, false
		n.disabled = n.seeded
		n.cause = Cause{}
		if n.seeded {
			n.cause = Cause{Kind: CauseSeed}
		}
		clear(n.dropped)
	}
}

func (g *Graph) check(n int) error {
	if n < 0 || n >= len(g.nodes) {
		return fmt.Errorf("node %d out of range [0, %d)", n, len(g.nodes))
	}
	return nil
}

// propagate disables, breadth-first, every enabled node that reaches one of
// from through non-optional edges. Each node records the neighbour it was
// reached from, so the Via chain is a shortest path to a root cause.
func (s *sorter) propagate(from []int) {
	queue := slices.Clone(from)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, d := range s.dependents[n] {
			if s.g.nodes[d].disabled {
				continue
			}
			s.disable(d, Cause{Kind: CauseDependency, Via: n})
			queue = append(queue, d)
		}
	}
}

// connect finds the strongly connected groups reachable from n among enabled
// nodes (Tarjan). Index 0 means not yet reached, so indices start at 1.
func (s *sorter) connect(n int) {
	s.next++
	nd := &s.g.nodes[n]
	nd.index, nd.low = s.next, s.next
	nd.onStack = true
	s.stack = append(s.stack, n)

	for _, e := range nd.edges {
		t := &s.g.nodes[e.To]
		switch {
		case t.disabled:
		case t.index == 0:
			s.connect(e.To)
			nd.low = min(nd.low, t.low)
		case t.onStack:
			nd.low = min(nd.low, t.index)
		}
	}
	if nd.low != nd.index {
		return
	}

	at := len(s.stack) - 1
	for s.stack[at] != n {
		at--
	}
	members := slices.Clone(s.stack[at:])
	s.stack = s.stack[:at]
	for _, m := range members {
		s.g.nodes[m].onStack = false
	}
	if len(members) == 1 && !slices.ContainsFunc(nd.edges, func(e Edge) bool { return e.To == n }) {
		return
	}
	s.res.Cycles = append(s.res.Cycles, s.g.cycle(members))
}

// cycle builds the Cycle for a strongly connected group. A group with as
// many distinct internal edges as members is a single loop and is reordered
// to follow it.
func (g *Graph) cycle(members []int) *Cycle {
	in := make(map[int]bool, len(members))
	for _, m := range members {
		in[m] = true
	}
	next := make(map[int]int, len(members))
	edges := 0
	for _, m := range members {
		seen := make(map[int]bool)
		for _, e := range g.nodes[m].edges {
			if in[e.To] && !seen[e.To] {
				seen[e.To] = true
				next[m] = e.To
				edges++
			}
		}
	}
	if edges != len(members) {
		return &Cycle{Members: members}
	}
	ring := make([]int, 0, len(members))
	for n := members[0]; len(ring) < len(members); n = next[n] {
		ring = append(ring, n)
	}
	return &Cycle{Members: ring, Ring: true}
}

// visit appends n after its enabled dependencies. No cycle is left among
// enabled nodes, so an in-progress target is never reached.
func (s *sorter) visit(n int) {
	nd := &s.g.nodes[n]
	nd.state = InProgress
	for i, e := range nd.edges {
		if nd.dropped[i] || s.g.nodes[e.To].state != Unvisited {
			continue
		}
		s.visit(e.To)
	}
	nd.state = Done
	s.res.Order = append(s.res.Order, n)
}

// disable marks n disabled unless it already is; the first cause wins.
func (s *sorter) disable(n int, c Cause) {
	nd := &s.g.nodes[n]
	if nd.disabled {
		return
	}
	nd.disabled = true
	nd.cause = c
}
