package handler

import (
	"context"

	"github.com/duragraph/mediagraph/internal/domain/graph"
	"github.com/duragraph/mediagraph/internal/domain/media"
)

// ImageHandler implements generate_image. Any upstream images are passed
// along as reference images (e.g. style or subject references).
type ImageHandler struct{}

func (ImageHandler) Handle(ctx context.Context, g *graph.Graph, node *graph.Node, deps Deps) (*media.MediaResult, error) {
	in, err := ResolveInputs(ctx, g, node, deps.Store)
	if err != nil {
		return nil, err
	}

	assembled := assemblePrompt(g.CanvasMemory, in.Texts, node.Prompt)

	var originalPrompt string
	final := assembled
	if node.Enrich() {
		enriched, err := enrichPrompt(ctx, deps.Backend, node.Provider, assembled)
		if err == nil {
			originalPrompt = assembled
			final = enriched
		}
	}

	gen, err := deps.Backend.GenerateImage(ctx, ImageGenRequest{
		Provider:  node.Provider,
		Prompt:    final,
		RefImages: in.Images,
	})
	if err != nil {
		return nil, err
	}

	format := gen.Format
	if format == "" {
		format = "png"
	}
	urls, err := deps.Store.UploadImage(ctx, node.ID, gen.Data, format)
	if err != nil {
		return nil, err
	}

	return &media.MediaResult{
		Type:           media.MediaTypeImage,
		Urls:           urls,
		Metadata:       media.MediaMetadata{Provider: node.Provider, Format: format, SizeBytes: len(gen.Data)},
		Prompt:         final,
		OriginalPrompt: originalPrompt,
		Params:         snapshotParams(node),
	}, nil
}
