package handler

import (
	"context"

	"github.com/duragraph/mediagraph/internal/domain/graph"
	"github.com/duragraph/mediagraph/internal/domain/media"
)

// MusicHandler implements generate_music. Output is always a stereo,
// 48kHz, 16-bit WAV.
type MusicHandler struct{}

func (MusicHandler) Handle(ctx context.Context, g *graph.Graph, node *graph.Node, deps Deps) (*media.MediaResult, error) {
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

	gen, err := deps.Backend.GenerateMusic(ctx, MusicGenRequest{
		Provider: node.Provider,
		Prompt:   final,
	})
	if err != nil {
		return nil, err
	}

	wav := wrapPCMAsWAV(gen.Data, 2, 48000)
	urls, err := deps.Store.UploadAudio(ctx, node.ID, wav, "wav")
	if err != nil {
		return nil, err
	}

	return &media.MediaResult{
		Type: media.MediaTypeAudio,
		Urls: urls,
		Metadata: media.MediaMetadata{
			Provider:  node.Provider,
			Format:    "wav",
			SizeBytes: len(wav),
			Extra:     map[string]string{"channels": "2", "sample_rate": "48000", "bit_depth": "16"},
		},
		Prompt:         final,
		OriginalPrompt: originalPrompt,
		Params:         snapshotParams(node),
	}, nil
}
