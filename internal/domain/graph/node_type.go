package graph

import "github.com/duragraph/mediagraph/internal/domain/media"

// NodeType identifies which generative model a node invokes.
type NodeType string

const (
	NodeTypeGenerateText     NodeType = "generate_text"
	NodeTypeGenerateImage    NodeType = "generate_image"
	NodeTypeGenerateVideo    NodeType = "generate_video"
	NodeTypeGenerateSpeech   NodeType = "generate_speech"
	NodeTypeGenerateMusic    NodeType = "generate_music"
	NodeTypeAnalyzeImage     NodeType = "analyze_image"
	NodeTypeTransformImage   NodeType = "transform_image"
)

// NodeStatus is the lifecycle state of a node's most recent execution.
// Queued sits between idle and running: the batch scheduler has dispatched
// the node but it may still be waiting on its type's concurrency slot.
type NodeStatus string

const (
	NodeStatusIdle      NodeStatus = "idle"
	NodeStatusQueued    NodeStatus = "queued"
	NodeStatusRunning   NodeStatus = "running"
	NodeStatusCompleted NodeStatus = "completed"
	NodeStatusFailed    NodeStatus = "failed"
)

// portSpec describes the fixed input/output port shape for a node type.
// Every node type has exactly one input port ("in", type any) and one
// output port named and typed for the medium it produces.
type portSpec struct {
	outputName string
	outputType media.PortType
}

var portSpecs = map[NodeType]portSpec{
	NodeTypeGenerateText:   {outputName: "text", outputType: media.PortTypeText},
	NodeTypeGenerateImage:  {outputName: "image", outputType: media.PortTypeImage},
	NodeTypeGenerateVideo:  {outputName: "video", outputType: media.PortTypeVideo},
	NodeTypeGenerateSpeech: {outputName: "audio", outputType: media.PortTypeAudio},
	NodeTypeGenerateMusic:  {outputName: "audio", outputType: media.PortTypeAudio},
	NodeTypeAnalyzeImage:   {outputName: "text", outputType: media.PortTypeText},
	NodeTypeTransformImage: {outputName: "image", outputType: media.PortTypeImage},
}

// IsValid reports whether t is one of the seven known generative node types.
func (t NodeType) IsValid() bool {
	_, ok := portSpecs[t]
	return ok
}

// Ports returns the fixed input and output port for a node type. Every node
// type, regardless of medium, accepts a single "in" port of type ANY so that
// any upstream result can be wired into it; the output port's name and type
// vary with the medium the node produces.
func (t NodeType) Ports(nodeID string) (in media.Port, out media.Port) {
	spec, ok := portSpecs[t]
	if !ok {
		spec = portSpec{outputName: "out", outputType: media.PortTypeAny}
	}
	in = media.Port{
		ID:        nodeID + ":in",
		Name:      "in",
		Type:      media.PortTypeAny,
		Direction: media.PortDirectionInput,
		Required:  false,
	}
	out = media.Port{
		ID:        nodeID + ":" + spec.outputName,
		Name:      spec.outputName,
		Type:      spec.outputType,
		Direction: media.PortDirectionOutput,
		Required:  true,
	}
	return in, out
}
