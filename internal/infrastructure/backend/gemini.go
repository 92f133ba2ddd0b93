package backend

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/duragraph/mediagraph/internal/domain/handler"
)

// videoPollInterval is how long GenerateVideo waits between polling the
// long-running operation; this slot is held against the video semaphore for
// the entire operation, so the wait is a plain timer sleep, not a busy loop.
const videoPollInterval = 5 * time.Second

// GeminiClient is the default, and only fully multimodal, provider: it
// implements TextGenerator and MultimodalGenerator both.
type GeminiClient struct {
	client    *genai.Client
	textModel string
	imgModel  string
	vidModel  string
}

func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{
		client:    client,
		textModel: "gemini-2.0-flash",
		imgModel:  "gemini-2.0-flash-exp-image-generation",
		vidModel:  "veo-2.0-generate-001",
	}, nil
}

func (c *GeminiClient) GenerateText(ctx context.Context, prompt string, images [][]byte) (string, error) {
	parts := promptParts(prompt, images)
	resp, err := c.client.Models.GenerateContent(ctx, c.textModel, parts, nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func (c *GeminiClient) GenerateImage(ctx context.Context, prompt string, refImages [][]byte) (handler.GenBytes, error) {
	parts := promptParts(prompt, refImages)
	resp, err := c.client.Models.GenerateContent(ctx, c.imgModel, parts, nil)
	if err != nil {
		return handler.GenBytes{}, err
	}
	data := firstInlineImage(resp)
	return handler.GenBytes{Data: data, Format: "png"}, nil
}

func (c *GeminiClient) GenerateVideo(ctx context.Context, prompt string, refImages [][]byte, seedImage []byte) (handler.GenBytes, error) {
	op, err := c.client.Models.GenerateVideos(ctx, c.vidModel, prompt, nil, nil)
	if err != nil {
		return handler.GenBytes{}, err
	}
	data, err := pollVideoBytes(ctx, c.client, op)
	if err != nil {
		return handler.GenBytes{}, err
	}
	return handler.GenBytes{Data: data, Format: "mp4"}, nil
}

func (c *GeminiClient) GenerateSpeech(ctx context.Context, prompt string) (handler.GenBytes, error) {
	resp, err := c.client.Models.GenerateContent(ctx, "gemini-2.5-flash-preview-tts", genai.Text(prompt), nil)
	if err != nil {
		return handler.GenBytes{}, err
	}
	return handler.GenBytes{Data: firstInlineAudio(resp), Format: "pcm"}, nil
}

func (c *GeminiClient) GenerateMusic(ctx context.Context, prompt string) (handler.GenBytes, error) {
	resp, err := c.client.Models.GenerateContent(ctx, "lyria-realtime-exp", genai.Text(prompt), nil)
	if err != nil {
		return handler.GenBytes{}, err
	}
	return handler.GenBytes{Data: firstInlineAudio(resp), Format: "pcm"}, nil
}

func (c *GeminiClient) AnalyzeImage(ctx context.Context, prompt string, images [][]byte) (string, error) {
	parts := promptParts(prompt, images)
	resp, err := c.client.Models.GenerateContent(ctx, c.textModel, parts, nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func (c *GeminiClient) TransformImage(ctx context.Context, prompt string, images [][]byte) (handler.GenBytes, error) {
	if len(images) == 0 {
		return handler.GenBytes{}, fmt.Errorf("transform_image requires a source image")
	}
	parts := promptParts(prompt, images)
	resp, err := c.client.Models.GenerateContent(ctx, c.imgModel, parts, nil)
	if err != nil {
		return handler.GenBytes{}, err
	}
	return handler.GenBytes{Data: firstInlineImage(resp), Format: "png"}, nil
}

func promptParts(prompt string, images [][]byte) []*genai.Content {
	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	for _, img := range images {
		parts = append(parts, genai.NewPartFromBytes(img, "image/png"))
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

func firstInlineImage(resp *genai.GenerateContentResponse) []byte {
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil {
				return part.InlineData.Data
			}
		}
	}
	return nil
}

func firstInlineAudio(resp *genai.GenerateContentResponse) []byte {
	return firstInlineImage(resp)
}

func pollVideoBytes(ctx context.Context, client *genai.Client, op *genai.GenerateVideosOperation) ([]byte, error) {
	for !op.Done {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(videoPollInterval):
		}
		next, err := client.Operations.GetVideosOperation(ctx, op, nil)
		if err != nil {
			return nil, err
		}
		op = next
	}
	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 {
		return nil, fmt.Errorf("gemini returned no generated video")
	}
	return op.Response.GeneratedVideos[0].Video.VideoBytes, nil
}
