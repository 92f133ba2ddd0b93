package handler

import (
	"context"

	"github.com/duragraph/mediagraph/internal/domain/graph"
	"github.com/duragraph/mediagraph/internal/domain/media"
)

// SpeechHandler implements generate_speech. Output is always a mono,
// 24kHz, 16-bit WAV.
type SpeechHandler struct{}

func (SpeechHandler) Handle(ctx context.Context, g *graph.Graph, node *graph.Node, deps Deps) (*media.MediaResult, error) {
	in, err := ResolveInputs(ctx, g, node, deps.Store)
	if err != nil {
		return nil, err
	}

	assembled := assemblePrompt(g.CanvasMemory, in.Texts, node.Prompt)

	gen, err := deps.Backend.GenerateSpeech(ctx, SpeechGenRequest{
		Provider: node.Provider,
		Prompt:   assembled,
	})
	if err != nil {
		return nil, err
	}

	wav := wrapPCMAsWAV(gen.Data, 1, 24000)
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
			Extra:     map[string]string{"channels": "1", "sample_rate": "24000", "bit_depth": "16"},
		},
		Prompt: assembled,
		Params: snapshotParams(node),
	}, nil
}
