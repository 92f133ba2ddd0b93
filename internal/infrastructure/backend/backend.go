// Package backend adapts the domain handler.Backend contract onto concrete
// generation provider SDKs. One MultiProviderBackend dispatches each call to
// the client matching the request's Provider tag; every node type but
// generate_text is only implemented by the "gemini" client.
package backend

import (
	"context"
	"fmt"

	"github.com/duragraph/mediagraph/internal/domain/handler"
	pkgerrors "github.com/duragraph/mediagraph/internal/pkg/errors"
)

// TextGenerator is implemented by any provider client capable of plain text
// completion — both the Anthropic and OpenAI clients satisfy this, the
// Gemini client satisfies it too via its own text path.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, images [][]byte) (string, error)
}

// MultimodalGenerator is implemented only by the Gemini client: it is the
// sole provider wired for image/video/speech/music generation and image
// analysis.
type MultimodalGenerator interface {
	GenerateImage(ctx context.Context, prompt string, refImages [][]byte) (handler.GenBytes, error)
	GenerateVideo(ctx context.Context, prompt string, refImages [][]byte, seedImage []byte) (handler.GenBytes, error)
	GenerateSpeech(ctx context.Context, prompt string) (handler.GenBytes, error)
	GenerateMusic(ctx context.Context, prompt string) (handler.GenBytes, error)
	AnalyzeImage(ctx context.Context, prompt string, images [][]byte) (string, error)
	TransformImage(ctx context.Context, prompt string, images [][]byte) (handler.GenBytes, error)
}

// MultiProviderBackend implements handler.Backend by routing text calls to
// whichever provider client a node names, and routing every multimodal call
// to Gemini regardless of what the node's provider tag says.
type MultiProviderBackend struct {
	TextProviders map[string]TextGenerator // "anthropic", "openai", "gemini"
	Multimodal    MultimodalGenerator       // "gemini"
}

func (b *MultiProviderBackend) textClient(provider string) (TextGenerator, error) {
	if provider == "" {
		provider = "gemini"
	}
	client, ok := b.TextProviders[provider]
	if !ok {
		return nil, pkgerrors.InvalidInput("provider", fmt.Sprintf("no text provider registered for %q", provider))
	}
	return client, nil
}

func (b *MultiProviderBackend) GenerateText(ctx context.Context, req handler.TextGenRequest) (string, error) {
	client, err := b.textClient(req.Provider)
	if err != nil {
		return "", err
	}
	text, err := client.GenerateText(ctx, req.Prompt, req.Images)
	if err != nil {
		return "", pkgerrors.UpstreamBackend(req.Provider, err)
	}
	return text, nil
}

func (b *MultiProviderBackend) GenerateImage(ctx context.Context, req handler.ImageGenRequest) (handler.GenBytes, error) {
	gen, err := b.Multimodal.GenerateImage(ctx, req.Prompt, req.RefImages)
	if err != nil {
		return handler.GenBytes{}, pkgerrors.UpstreamBackend("gemini", err)
	}
	return gen, nil
}

func (b *MultiProviderBackend) GenerateVideo(ctx context.Context, req handler.VideoGenRequest) (handler.GenBytes, error) {
	gen, err := b.Multimodal.GenerateVideo(ctx, req.Prompt, req.RefImages, req.SeedImage)
	if err != nil {
		return handler.GenBytes{}, pkgerrors.UpstreamBackend("gemini", err)
	}
	return gen, nil
}

func (b *MultiProviderBackend) GenerateSpeech(ctx context.Context, req handler.SpeechGenRequest) (handler.GenBytes, error) {
	gen, err := b.Multimodal.GenerateSpeech(ctx, req.Prompt)
	if err != nil {
		return handler.GenBytes{}, pkgerrors.UpstreamBackend("gemini", err)
	}
	return gen, nil
}

func (b *MultiProviderBackend) GenerateMusic(ctx context.Context, req handler.MusicGenRequest) (handler.GenBytes, error) {
	gen, err := b.Multimodal.GenerateMusic(ctx, req.Prompt)
	if err != nil {
		return handler.GenBytes{}, pkgerrors.UpstreamBackend("gemini", err)
	}
	return gen, nil
}

func (b *MultiProviderBackend) AnalyzeImage(ctx context.Context, req handler.AnalyzeImageRequest) (string, error) {
	text, err := b.Multimodal.AnalyzeImage(ctx, req.Prompt, req.Images)
	if err != nil {
		return "", pkgerrors.UpstreamBackend("gemini", err)
	}
	return text, nil
}

func (b *MultiProviderBackend) TransformImage(ctx context.Context, req handler.TransformImageRequest) (handler.GenBytes, error) {
	gen, err := b.Multimodal.TransformImage(ctx, req.Prompt, req.Images)
	if err != nil {
		return handler.GenBytes{}, pkgerrors.UpstreamBackend("gemini", err)
	}
	return gen, nil
}
