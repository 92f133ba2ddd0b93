package graph

import (
	"sort"

	pkgerrors "github.com/duragraph/mediagraph/internal/pkg/errors"
)

// adjacency builds forward (successor) and reverse (predecessor) adjacency
// lists from a graph's edge set.
func adjacency(g *Graph) (forward, reverse map[string][]string) {
	forward = make(map[string][]string, len(g.Nodes))
	reverse = make(map[string][]string, len(g.Nodes))
	for id := range g.Nodes {
		forward[id] = nil
		reverse[id] = nil
	}
	for _, e := range g.Edges {
		forward[e.FromNodeID] = append(forward[e.FromNodeID], e.ToNodeID)
		reverse[e.ToNodeID] = append(reverse[e.ToNodeID], e.FromNodeID)
	}
	return forward, reverse
}

// TopologicalOrder returns the graph's nodes in a deterministic Kahn
// topological order (ties broken by node ID), or an error if the graph is
// cyclic.
func TopologicalOrder(g *Graph) ([]string, error) {
	forward, reverse := adjacency(g)

	indegree := make(map[string]int, len(g.Nodes))
	for id := range g.Nodes {
		indegree[id] = len(reverse[id])
	}

	var ready []string
	for id, deg := range indegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(g.Nodes))
	for len(ready) > 0 {
		sort.Strings(ready)
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		var next []string
		for _, succ := range forward[id] {
			indegree[succ]--
			if indegree[succ] == 0 {
				next = append(next, succ)
			}
		}
		ready = append(ready, next...)
	}

	if len(order) != len(g.Nodes) {
		return nil, pkgerrors.NewDomainError("CYCLE_DETECTED", "graph contains a cycle", pkgerrors.ErrGraphCycle)
	}
	return order, nil
}

// RequiredSet computes the set of node IDs that must run to produce the
// requested target nodes: the targets themselves plus every node reachable
// by walking backwards along edges (a node's transitive dependencies). It
// is a plain BFS over the reverse-adjacency graph.
func RequiredSet(g *Graph, targets []string) map[string]bool {
	_, reverse := adjacency(g)

	required := make(map[string]bool, len(targets))
	queue := append([]string{}, targets...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if required[id] {
			continue
		}
		required[id] = true
		for _, pred := range reverse[id] {
			if !required[pred] {
				queue = append(queue, pred)
			}
		}
	}
	return required
}

// Levels partitions nodeIDs into execution levels: a node's level is one
// more than the maximum level of its predecessors (0 for nodes with no
// predecessors among nodeIDs). Nodes in the same level have no dependency
// relationship between them and can be dispatched concurrently.
func Levels(g *Graph, nodeIDs map[string]bool) [][]string {
	_, reverse := adjacency(g)

	level := make(map[string]int, len(nodeIDs))
	var compute func(id string) int
	computing := make(map[string]bool)
	compute = func(id string) int {
		if lvl, ok := level[id]; ok {
			return lvl
		}
		if computing[id] {
			// Cycle guard: Validate() should have already rejected cycles,
			// this just prevents infinite recursion if called directly.
			return 0
		}
		computing[id] = true
		max := -1
		for _, pred := range reverse[id] {
			if !nodeIDs[pred] {
				continue
			}
			if l := compute(pred); l > max {
				max = l
			}
		}
		lvl := max + 1
		level[id] = lvl
		computing[id] = false
		return lvl
	}

	maxLevel := 0
	ids := make([]string, 0, len(nodeIDs))
	for id := range nodeIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if l := compute(id); l > maxLevel {
			maxLevel = l
		}
	}

	levels := make([][]string, maxLevel+1)
	for _, id := range ids {
		lvl := level[id]
		levels[lvl] = append(levels[lvl], id)
	}
	for i := range levels {
		sort.Strings(levels[i])
	}
	return levels
}
