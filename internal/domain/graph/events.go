package graph

import "github.com/duragraph/mediagraph/internal/pkg/eventbus"

const aggregateType = "graph"

// GraphDefined is recorded when a new Graph aggregate is created.
type GraphDefined struct {
	GraphID string
}

func (e GraphDefined) EventType() string     { return "graph.defined" }
func (e GraphDefined) AggregateID() string   { return e.GraphID }
func (e GraphDefined) AggregateType() string { return aggregateType }

// NodeAdded is recorded when a node is added to a graph.
type NodeAdded struct {
	GraphID string
	NodeID  string
}

func (e NodeAdded) EventType() string     { return "graph.node_added" }
func (e NodeAdded) AggregateID() string   { return e.GraphID }
func (e NodeAdded) AggregateType() string { return aggregateType }

// EdgeAdded is recorded when an edge is added to a graph.
type EdgeAdded struct {
	GraphID string
	EdgeID  string
}

func (e EdgeAdded) EventType() string     { return "graph.edge_added" }
func (e EdgeAdded) AggregateID() string   { return e.GraphID }
func (e EdgeAdded) AggregateType() string { return aggregateType }

// NodeMarkedStale is recorded for every node whose cached result is
// invalidated by a content-affecting mutation upstream.
type NodeMarkedStale struct {
	GraphID string
	NodeID  string
}

func (e NodeMarkedStale) EventType() string     { return "graph.node_marked_stale" }
func (e NodeMarkedStale) AggregateID() string   { return e.GraphID }
func (e NodeMarkedStale) AggregateType() string { return aggregateType }

// NodeRemoved is recorded when a node (and its incident edges) is removed.
type NodeRemoved struct {
	GraphID string
	NodeID  string
}

func (e NodeRemoved) EventType() string     { return "graph.node_removed" }
func (e NodeRemoved) AggregateID() string   { return e.GraphID }
func (e NodeRemoved) AggregateType() string { return aggregateType }

var _ eventbus.Event = GraphDefined{}
