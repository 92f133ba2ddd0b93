package handler

import (
	"context"

	"github.com/duragraph/mediagraph/internal/domain/graph"
	"github.com/duragraph/mediagraph/internal/domain/media"
)

// TextHandler implements generate_text: assemble the prompt, optionally
// enrich it, call the text backend for the selected provider.
type TextHandler struct{}

func (TextHandler) Handle(ctx context.Context, g *graph.Graph, node *graph.Node, deps Deps) (*media.MediaResult, error) {
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

	text, err := deps.Backend.GenerateText(ctx, TextGenRequest{
		Provider: node.Provider,
		Prompt:   final,
		Images:   in.Images,
	})
	if err != nil {
		return nil, err
	}

	urls, err := deps.Store.UploadText(ctx, node.ID, text)
	if err != nil {
		return nil, err
	}

	return &media.MediaResult{
		Type:           media.MediaTypeText,
		Urls:           urls,
		Metadata:       media.MediaMetadata{Provider: node.Provider},
		Prompt:         final,
		OriginalPrompt: originalPrompt,
		Params:         snapshotParams(node),
	}, nil
}
