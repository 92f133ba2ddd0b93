package handler

import (
	"github.com/duragraph/mediagraph/internal/domain/graph"
	pkgerrors "github.com/duragraph/mediagraph/internal/pkg/errors"
)

// ForNodeType returns the Handler responsible for a node type.
func ForNodeType(t graph.NodeType) (Handler, error) {
	switch t {
	case graph.NodeTypeGenerateText:
		return TextHandler{}, nil
	case graph.NodeTypeGenerateImage:
		return ImageHandler{}, nil
	case graph.NodeTypeGenerateVideo:
		return VideoHandler{}, nil
	case graph.NodeTypeGenerateSpeech:
		return SpeechHandler{}, nil
	case graph.NodeTypeGenerateMusic:
		return MusicHandler{}, nil
	case graph.NodeTypeAnalyzeImage:
		return AnalyzeImageHandler{}, nil
	case graph.NodeTypeTransformImage:
		return TransformImageHandler{}, nil
	default:
		return nil, pkgerrors.InvalidInput("node.type", "no handler registered for "+string(t))
	}
}
