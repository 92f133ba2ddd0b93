package handler

import (
	"context"

	pkgerrors "github.com/duragraph/mediagraph/internal/pkg/errors"

	"github.com/duragraph/mediagraph/internal/domain/graph"
	"github.com/duragraph/mediagraph/internal/domain/media"
)

// TransformImageHandler implements transform_image. When the backend
// supports single-call multimodal editing, it sends the source image and
// instruction together. If that first TransformImage attempt returns any
// error, the handler falls back to describe-then-generate: AnalyzeImage to
// get a textual description of the first upstream image, then GenerateImage
// from that description plus the instruction.
type TransformImageHandler struct{}

func (TransformImageHandler) Handle(ctx context.Context, g *graph.Graph, node *graph.Node, deps Deps) (*media.MediaResult, error) {
	in, err := ResolveInputs(ctx, g, node, deps.Store)
	if err != nil {
		return nil, err
	}
	if len(in.Images) == 0 {
		return nil, pkgerrors.InvalidInput("in", "transform_image requires an upstream image")
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

	gen, err := deps.Backend.TransformImage(ctx, TransformImageRequest{
		Provider: node.Provider,
		Prompt:   final,
		Images:   in.Images,
	})
	if err != nil {
		gen, err = describeThenGenerate(ctx, deps, node.Provider, final, in.Images[0])
		if err != nil {
			return nil, err
		}
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

func describeThenGenerate(ctx context.Context, deps Deps, provider, instruction string, source []byte) (GenBytes, error) {
	description, err := deps.Backend.AnalyzeImage(ctx, AnalyzeImageRequest{
		Provider: provider,
		Prompt:   "Describe this image in detail for use as a generation prompt.",
		Images:   [][]byte{source},
	})
	if err != nil {
		return GenBytes{}, err
	}

	return deps.Backend.GenerateImage(ctx, ImageGenRequest{
		Provider: provider,
		Prompt:   description + "\n\nApply this change: " + instruction,
	})
}
