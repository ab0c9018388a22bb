package topology

import (
	"fmt"

	"github.com/samber/lo"
)

// NodeID names a declared resource or action in the dependency graph.
type NodeID string

// DependencyGraph records "must exist before" edges between declarations.
// A node may only depend on nodes declared before it, so declaration order is
// always a valid topological order.
type DependencyGraph struct {
	order []NodeID
	index map[NodeID]int
	deps  map[NodeID][]NodeID
}

// NewDependencyGraph returns an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		index: map[NodeID]int{},
		deps:  map[NodeID][]NodeID{},
	}
}

// Clone returns an independent copy of g.
func (g *DependencyGraph) Clone() *DependencyGraph {
	if g == nil {
		return NewDependencyGraph()
	}
	return &DependencyGraph{
		order: append([]NodeID(nil), g.order...),
		index: lo.Assign(g.index),
		deps: lo.MapValues(g.deps, func(d []NodeID, _ NodeID) []NodeID {
			return append([]NodeID(nil), d...)
		}),
	}
}

// Declare adds node with its dependencies. Declaring a node twice is rejected.
func (g *DependencyGraph) Declare(node NodeID, dependsOn ...NodeID) error {
	if _, ok := g.index[node]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateDeclaration, node)
	}
	for _, dep := range dependsOn {
		if _, ok := g.index[dep]; !ok {
			return fmt.Errorf("%w: %s (required by %s)", ErrUnknownDependency, dep, node)
		}
	}
	g.index[node] = len(g.order)
	g.order = append(g.order, node)
	g.deps[node] = lo.Uniq(dependsOn)
	return nil
}

// Has reports whether node was declared.
func (g *DependencyGraph) Has(node NodeID) bool {
	_, ok := g.index[node]
	return ok
}

// Order returns nodes in declaration order.
func (g *DependencyGraph) Order() []NodeID {
	return append([]NodeID(nil), g.order...)
}

// DirectDependencies returns the nodes node was declared to depend on.
func (g *DependencyGraph) DirectDependencies(node NodeID) []NodeID {
	return append([]NodeID(nil), g.deps[node]...)
}

// DependsOn reports whether from transitively depends on to.
func (g *DependencyGraph) DependsOn(from, to NodeID) bool {
	seen := map[NodeID]bool{}
	stack := append([]NodeID(nil), g.deps[from]...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == to {
			return true
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		stack = append(stack, g.deps[n]...)
	}
	return false
}

// Precedes reports whether a was declared before b. Both must be declared.
func (g *DependencyGraph) Precedes(a, b NodeID) bool {
	ia, okA := g.index[a]
	ib, okB := g.index[b]
	return okA && okB && ia < ib
}

// TopologicalOrder recomputes an order from the edges alone (Kahn). It fails
// if the edges contain a cycle, which Declare makes impossible.
func (g *DependencyGraph) TopologicalOrder() ([]NodeID, error) {
	indegree := make(map[NodeID]int, len(g.order))
	dependents := map[NodeID][]NodeID{}
	for _, n := range g.order {
		indegree[n] = len(g.deps[n])
		for _, d := range g.deps[n] {
			dependents[d] = append(dependents[d], n)
		}
	}

	queue := lo.Filter(g.order, func(n NodeID, _ int) bool { return indegree[n] == 0 })
	out := make([]NodeID, 0, len(g.order))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		out = append(out, n)
		for _, m := range dependents[n] {
			indegree[m]--
			if indegree[m] == 0 {
				queue = append(queue, m)
			}
		}
	}
	if len(out) != len(g.order) {
		return nil, fmt.Errorf("dependency cycle among %d nodes", len(g.order)-len(out))
	}
	return out, nil
}
