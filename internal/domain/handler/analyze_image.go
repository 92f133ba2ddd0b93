package handler

import (
	"context"

	pkgerrors "github.com/duragraph/mediagraph/internal/pkg/errors"

	"github.com/duragraph/mediagraph/internal/domain/graph"
	"github.com/duragraph/mediagraph/internal/domain/media"
)

// AnalyzeImageHandler implements analyze_image: it sends the upstream
// image(s) plus the node's question prompt to a multimodal call and stores
// the answer as a text result.
type AnalyzeImageHandler struct{}

func (AnalyzeImageHandler) Handle(ctx context.Context, g *graph.Graph, node *graph.Node, deps Deps) (*media.MediaResult, error) {
	in, err := ResolveInputs(ctx, g, node, deps.Store)
	if err != nil {
		return nil, err
	}
	if len(in.Images) == 0 {
		return nil, pkgerrors.InvalidInput("in", "analyze_image requires at least one upstream image")
	}

	assembled := assemblePrompt(g.CanvasMemory, in.Texts, node.Prompt)

	answer, err := deps.Backend.AnalyzeImage(ctx, AnalyzeImageRequest{
		Provider: node.Provider,
		Prompt:   assembled,
		Images:   in.Images,
	})
	if err != nil {
		return nil, err
	}

	urls, err := deps.Store.UploadText(ctx, node.ID, answer)
	if err != nil {
		return nil, err
	}

	return &media.MediaResult{
		Type:     media.MediaTypeText,
		Urls:     urls,
		Metadata: media.MediaMetadata{Provider: node.Provider},
		Prompt:   assembled,
		Params:   snapshotParams(node),
	}, nil
}
