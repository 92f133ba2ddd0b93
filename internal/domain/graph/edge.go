package graph

import "fmt"

// Edge connects an output port on one node to an input port on another.
// Its ID is deterministic in its endpoints, not a random UUID, so the same
// logical connection always produces the same ID even across rebuilds.
type Edge struct {
	ID         string
	FromNodeID string
	FromPort   string
	ToNodeID   string
	ToPort     string
}

// NewEdge builds an Edge with its deterministic ID. Adding the same
// (from_node, from_port, to_node, to_port) tuple twice is not rejected;
// the graph's edge map keys on this ID, so re-insertion leaves a single
// edge behind.
func NewEdge(fromNodeID, fromPort, toNodeID, toPort string) Edge {
	return Edge{
		ID:         edgeID(fromNodeID, fromPort, toNodeID, toPort),
		FromNodeID: fromNodeID,
		FromPort:   fromPort,
		ToNodeID:   toNodeID,
		ToPort:     toPort,
	}
}

func edgeID(fromNodeID, fromPort, toNodeID, toPort string) string {
	return fmt.Sprintf("%s:%s->%s:%s", fromNodeID, fromPort, toNodeID, toPort)
}
