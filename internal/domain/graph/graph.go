package graph

import (
	"time"

	"github.com/duragraph/mediagraph/internal/pkg/eventbus"
	pkgerrors "github.com/duragraph/mediagraph/internal/pkg/errors"
)

// Graph is the aggregate root for a DAG of generative-media nodes.
// Mutations that affect what a downstream node would produce record
// uncommitted domain events; the repository publishes them to the
// in-process event bus after a successful save.
type Graph struct {
	ID   string
	Name string
	// CanvasMemory is free-form contextual prompt text prepended (as a
	// "Context:" block) to every node's assembled prompt during execution.
	CanvasMemory string

	Nodes map[string]*Node
	Edges map[string]Edge

	CreatedAt time.Time
	UpdatedAt time.Time

	uncommitted []eventbus.Event
}

// NewGraph creates an empty graph and records its definition event.
func NewGraph(id string) *Graph {
	now := time.Now()
	g := &Graph{
		ID:        id,
		Nodes:     make(map[string]*Node),
		Edges:     make(map[string]Edge),
		CreatedAt: now,
		UpdatedAt: now,
	}
	g.recordEvent(GraphDefined{GraphID: id})
	return g
}

func (g *Graph) recordEvent(e eventbus.Event) {
	g.uncommitted = append(g.uncommitted, e)
}

// Events returns the domain events recorded since the graph was created or
// last cleared.
func (g *Graph) Events() []eventbus.Event {
	return g.uncommitted
}

// ClearEvents discards recorded events once a caller has published them.
func (g *Graph) ClearEvents() {
	g.uncommitted = nil
}

// AddNode inserts a node into the graph.
func (g *Graph) AddNode(n *Node) error {
	if n == nil || n.ID == "" {
		return pkgerrors.InvalidInput("node.id", "node id must not be empty")
	}
	if !n.Type.IsValid() {
		return pkgerrors.InvalidInput("node.type", "unknown node type "+string(n.Type))
	}
	if _, exists := g.Nodes[n.ID]; exists {
		return pkgerrors.AlreadyExists("node", n.ID)
	}
	g.Nodes[n.ID] = n
	g.recordEvent(NodeAdded{GraphID: g.ID, NodeID: n.ID})
	return nil
}

// RemoveNode deletes a node and every edge incident to it. Everything that
// was downstream of the node (computed before deletion, since deleting the
// node also deletes the edges that define "downstream") is marked stale:
// those nodes' cached results were produced with this node as an ancestor
// and are no longer trustworthy once it's gone.
func (g *Graph) RemoveNode(nodeID string) error {
	if _, ok := g.Nodes[nodeID]; !ok {
		return pkgerrors.NotFound("node", nodeID)
	}
	downstream := g.GetDownstream(nodeID)

	for id, e := range g.Edges {
		if e.FromNodeID == nodeID || e.ToNodeID == nodeID {
			delete(g.Edges, id)
		}
	}
	delete(g.Nodes, nodeID)
	g.recordEvent(NodeRemoved{GraphID: g.ID, NodeID: nodeID})

	for _, id := range downstream {
		g.MarkStale(id)
	}
	return nil
}

// RemoveEdge deletes one edge by ID. Removing an edge doesn't retroactively
// validate the old result as stale-or-not; callers that want the target
// node re-run should mark it stale explicitly.
func (g *Graph) RemoveEdge(edgeID string) error {
	if _, ok := g.Edges[edgeID]; !ok {
		return pkgerrors.NotFound("edge", edgeID)
	}
	delete(g.Edges, edgeID)
	return nil
}

// MarkStale sets nodeID's stale flag and every node reachable from it via
// outgoing edges, invalidating their cached results. Exported so
// application code can force a rerun of a subtree without an actual content
// change (e.g. a param edited out-of-band).
func (g *Graph) MarkStale(nodeID string) {
	g.markStaleDownstream(nodeID)
}

// GetDependencies returns the IDs of nodeID's direct upstream neighbors
// (nodes with an edge terminating on nodeID).
func (g *Graph) GetDependencies(nodeID string) []string {
	var deps []string
	for _, e := range g.Edges {
		if e.ToNodeID == nodeID {
			deps = append(deps, e.FromNodeID)
		}
	}
	return deps
}

// GetDownstream returns every node ID transitively reachable from nodeID by
// following outgoing edges (forward BFS), not including nodeID itself.
func (g *Graph) GetDownstream(nodeID string) []string {
	visited := make(map[string]bool)
	queue := []string{nodeID}
	var downstream []string
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, e := range g.Edges {
			if e.FromNodeID != id {
				continue
			}
			if visited[e.ToNodeID] {
				continue
			}
			visited[e.ToNodeID] = true
			downstream = append(downstream, e.ToNodeID)
			queue = append(queue, e.ToNodeID)
		}
	}
	return downstream
}

// AddEdge connects an output port on fromNode to an input port on toNode.
// It validates port compatibility and rejects edges that would introduce a
// cycle, but does not reject duplicate edges (see NewEdge).
func (g *Graph) AddEdge(fromNodeID, fromPortName, toNodeID, toPortName string) (Edge, error) {
	from, ok := g.Nodes[fromNodeID]
	if !ok {
		return Edge{}, pkgerrors.NotFound("node", fromNodeID)
	}
	to, ok := g.Nodes[toNodeID]
	if !ok {
		return Edge{}, pkgerrors.NotFound("node", toNodeID)
	}
	if from.OutPort.Name != fromPortName {
		return Edge{}, pkgerrors.InvalidInput("from_port", "node has no output port named "+fromPortName)
	}
	if to.InPort.Name != toPortName {
		return Edge{}, pkgerrors.InvalidInput("to_port", "node has no input port named "+toPortName)
	}
	if !from.OutPort.IsCompatibleWith(to.InPort) {
		return Edge{}, pkgerrors.PortIncompatible(from.OutPort.ID, to.InPort.ID)
	}
	if g.wouldCreateCycle(fromNodeID, toNodeID) {
		return Edge{}, pkgerrors.CycleDetected(fromNodeID, toNodeID)
	}

	e := NewEdge(fromNodeID, fromPortName, toNodeID, toPortName)
	g.Edges[e.ID] = e
	g.recordEvent(EdgeAdded{GraphID: g.ID, EdgeID: e.ID})

	g.markStaleDownstream(toNodeID)

	return e, nil
}

// wouldCreateCycle reports whether adding fromNodeID -> toNodeID would make
// the graph (including this prospective edge) cyclic. It runs a DFS from
// toNodeID over the existing edges and checks whether fromNodeID is
// reachable from toNodeID; if so, the candidate edge would close a cycle.
func (g *Graph) wouldCreateCycle(fromNodeID, toNodeID string) bool {
	if fromNodeID == toNodeID {
		return true
	}
	visited := make(map[string]bool)
	var dfs func(nodeID string) bool
	dfs = func(nodeID string) bool {
		if nodeID == fromNodeID {
			return true
		}
		if visited[nodeID] {
			return false
		}
		visited[nodeID] = true
		for _, e := range g.Edges {
			if e.FromNodeID == nodeID {
				if dfs(e.ToNodeID) {
					return true
				}
			}
		}
		return false
	}
	return dfs(toNodeID)
}

// markStaleDownstream marks nodeID and every node reachable from it via
// outgoing edges as stale, invalidating any cached result they hold. It is
// called on a content-affecting mutation: a new edge (AddEdge), a changed
// prompt (UpdateNodePrompt), a removed upstream node (RemoveNode) and an
// explicit MarkStale.
func (g *Graph) markStaleDownstream(nodeID string) {
	visited := make(map[string]bool)
	queue := []string{nodeID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		n, ok := g.Nodes[id]
		if !ok {
			continue
		}
		if !n.Stale {
			n.Stale = true
			g.recordEvent(NodeMarkedStale{GraphID: g.ID, NodeID: id})
		}
		for _, e := range g.Edges {
			if e.FromNodeID == id {
				queue = append(queue, e.ToNodeID)
			}
		}
	}
}

// UpdateNodePrompt changes a node's prompt and marks it and everything
// downstream of it stale.
func (g *Graph) UpdateNodePrompt(nodeID, prompt string) error {
	n, ok := g.Nodes[nodeID]
	if !ok {
		return pkgerrors.NotFound("node", nodeID)
	}
	n.Prompt = prompt
	g.markStaleDownstream(nodeID)
	return nil
}

// Validate checks the structural invariants a graph must hold before it can
// be scheduled: every edge must reference existing nodes and compatible,
// correctly-named ports, and the graph as a whole must be acyclic.
func (g *Graph) Validate() error {
	for _, e := range g.Edges {
		from, ok := g.Nodes[e.FromNodeID]
		if !ok {
			return pkgerrors.NotFound("node", e.FromNodeID)
		}
		to, ok := g.Nodes[e.ToNodeID]
		if !ok {
			return pkgerrors.NotFound("node", e.ToNodeID)
		}
		if from.OutPort.Name != e.FromPort || to.InPort.Name != e.ToPort {
			return pkgerrors.PortIncompatible(e.FromPort, e.ToPort)
		}
	}
	if _, err := TopologicalOrder(g); err != nil {
		return err
	}
	return nil
}
