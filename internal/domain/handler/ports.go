package handler

import (
	"context"

	"github.com/duragraph/mediagraph/internal/domain/media"
)

// BlobStore is the storage collaborator handlers and the input resolver use
// to persist generated artifacts and fetch upstream ones back out. It is an
// external collaborator per the execution engine's contract — callers
// supply a concrete implementation (see infrastructure/blobstore).
type BlobStore interface {
	UploadImage(ctx context.Context, nodeID string, data []byte, format string) (media.MediaUrls, error)
	UploadVideo(ctx context.Context, nodeID string, data []byte, format string) (media.MediaUrls, error)
	UploadAudio(ctx context.Context, nodeID string, data []byte, format string) (media.MediaUrls, error)
	UploadText(ctx context.Context, nodeID string, text string) (media.MediaUrls, error)
	ReadMediaBytes(ctx context.Context, url string) ([]byte, error)
	DeleteNodeMedia(ctx context.Context, nodeID string) error
	DuplicateNodeMedia(ctx context.Context, sourceNodeID, targetNodeID string) error
}

// TextGenRequest/ImageGenRequest/etc. describe one generation call. Handlers
// build these from resolved inputs and hand them to a Backend; the Backend
// is responsible for picking a concrete provider client.
type TextGenRequest struct {
	Provider string
	Prompt   string
	Images   [][]byte // optional multimodal context
}

type ImageGenRequest struct {
	Provider    string
	Prompt      string
	RefImages   [][]byte
}

type VideoGenRequest struct {
	Provider   string
	Prompt     string
	RefImages  [][]byte // up to 3 reference images (reference mode)
	SeedImage  []byte   // first-frame seed, mutually exclusive with RefImages
}

type SpeechGenRequest struct {
	Provider string
	Prompt   string
}

type MusicGenRequest struct {
	Provider string
	Prompt   string
}

type AnalyzeImageRequest struct {
	Provider string
	Prompt   string
	Images   [][]byte
}

type TransformImageRequest struct {
	Provider string
	Prompt   string
	Images   [][]byte
}

// GenBytes is a generated artifact's raw bytes plus the format/container it
// was encoded in (e.g. "png", "mp4", "wav").
type GenBytes struct {
	Data   []byte
	Format string
}

// Backend is the generation collaborator: one call is one model
// invocation. A concrete implementation dispatches to a specific provider
// SDK based on Provider (see infrastructure/backend); every node type but
// generate_text is only implemented by the "gemini" provider.
type Backend interface {
	GenerateText(ctx context.Context, req TextGenRequest) (string, error)
	GenerateImage(ctx context.Context, req ImageGenRequest) (GenBytes, error)
	GenerateVideo(ctx context.Context, req VideoGenRequest) (GenBytes, error)
	GenerateSpeech(ctx context.Context, req SpeechGenRequest) (GenBytes, error)
	GenerateMusic(ctx context.Context, req MusicGenRequest) (GenBytes, error)
	AnalyzeImage(ctx context.Context, req AnalyzeImageRequest) (string, error)
	TransformImage(ctx context.Context, req TransformImageRequest) (GenBytes, error)
}
