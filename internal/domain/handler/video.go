package handler

import (
	"context"

	"github.com/duragraph/mediagraph/internal/domain/graph"
	"github.com/duragraph/mediagraph/internal/domain/media"
)

// VideoHandler implements generate_video. Three modes are mutually
// exclusive, decided by what's upstream:
//   - reference mode: up to three upstream images are passed as style/subject
//     references alongside the text prompt.
//   - first-frame-seed mode: exactly one upstream image and no reference
//     mode requested seeds the first frame of the generated clip.
//   - pure text-to-video: every other case — no upstream images, or two or
//     more images without reference mode (those images are not sent).
type VideoHandler struct{}

const maxReferenceImages = 3

func (VideoHandler) Handle(ctx context.Context, g *graph.Graph, node *graph.Node, deps Deps) (*media.MediaResult, error) {
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

	req := VideoGenRequest{Provider: node.Provider, Prompt: final}
	referenceMode, _ := node.Params["reference_mode"].(bool)
	switch {
	case referenceMode && len(in.Images) > 0:
		refs := in.Images
		if len(refs) > maxReferenceImages {
			refs = refs[:maxReferenceImages]
		}
		req.RefImages = refs
	case len(in.Images) == 1:
		req.SeedImage = in.Images[0]
	}

	gen, err := deps.Backend.GenerateVideo(ctx, req)
	if err != nil {
		return nil, err
	}

	format := gen.Format
	if format == "" {
		format = "mp4"
	}
	urls, err := deps.Store.UploadVideo(ctx, node.ID, gen.Data, format)
	if err != nil {
		return nil, err
	}

	return &media.MediaResult{
		Type:           media.MediaTypeVideo,
		Urls:           urls,
		Metadata:       media.MediaMetadata{Provider: node.Provider, Format: format, SizeBytes: len(gen.Data)},
		Prompt:         final,
		OriginalPrompt: originalPrompt,
		Params:         snapshotParams(node),
	}, nil
}
