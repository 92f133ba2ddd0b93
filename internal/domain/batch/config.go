package batch

import "github.com/duragraph/mediagraph/internal/domain/graph"

// NodeTypeConfig caps how many nodes of a given type may run concurrently
// across an entire batch, and how that type's ready nodes are ordered
// against other types' ready nodes when more than one is eligible to start.
// Higher Priority wins ties.
type NodeTypeConfig struct {
	Capacity int
	Priority int
}

// DefaultTypeConfigs encodes the relative cost and throughput of the
// external backends: cheaper, faster calls (text, image analysis) get both
// more concurrency and scheduling priority than the heavier media types.
var DefaultTypeConfigs = map[graph.NodeType]NodeTypeConfig{
	graph.NodeTypeGenerateText:   {Capacity: 10, Priority: 5},
	graph.NodeTypeAnalyzeImage:   {Capacity: 8, Priority: 6},
	graph.NodeTypeGenerateImage:  {Capacity: 4, Priority: 3},
	graph.NodeTypeTransformImage: {Capacity: 4, Priority: 3},
	graph.NodeTypeGenerateSpeech: {Capacity: 4, Priority: 4},
	graph.NodeTypeGenerateMusic:  {Capacity: 3, Priority: 2},
	graph.NodeTypeGenerateVideo:  {Capacity: 2, Priority: 1},
}

const defaultCapacity = 4
const defaultPriority = 0

// ConfigFor returns the concurrency/priority config for a node type, falling
// back to a capacity-4, priority-0 default for any type not in the table.
func ConfigFor(t graph.NodeType) NodeTypeConfig {
	if cfg, ok := DefaultTypeConfigs[t]; ok {
		return cfg
	}
	return NodeTypeConfig{Capacity: defaultCapacity, Priority: defaultPriority}
}
