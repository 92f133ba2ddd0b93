package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duragraph/mediagraph/internal/domain/graph"
	"github.com/duragraph/mediagraph/internal/domain/media"
)

type fakeBackend struct {
	text            string
	transformErr    error
	analyzeCalled   bool
	generateCalled  int
}

func (f *fakeBackend) GenerateText(ctx context.Context, req TextGenRequest) (string, error) {
	return f.text, nil
}
func (f *fakeBackend) GenerateImage(ctx context.Context, req ImageGenRequest) (GenBytes, error) {
	f.generateCalled++
	return GenBytes{Data: []byte("png-bytes"), Format: "png"}, nil
}
func (f *fakeBackend) GenerateVideo(ctx context.Context, req VideoGenRequest) (GenBytes, error) {
	return GenBytes{Data: []byte("mp4-bytes"), Format: "mp4"}, nil
}
func (f *fakeBackend) GenerateSpeech(ctx context.Context, req SpeechGenRequest) (GenBytes, error) {
	return GenBytes{Data: []byte("wav-bytes")}, nil
}
func (f *fakeBackend) GenerateMusic(ctx context.Context, req MusicGenRequest) (GenBytes, error) {
	return GenBytes{Data: []byte("wav-bytes")}, nil
}
func (f *fakeBackend) AnalyzeImage(ctx context.Context, req AnalyzeImageRequest) (string, error) {
	f.analyzeCalled = true
	return "a description", nil
}
func (f *fakeBackend) TransformImage(ctx context.Context, req TransformImageRequest) (GenBytes, error) {
	if f.transformErr != nil {
		return GenBytes{}, f.transformErr
	}
	return GenBytes{Data: []byte("edited-bytes"), Format: "png"}, nil
}

type fakeStore struct {
	uploaded map[string][]byte
}

func newFakeStore() *fakeStore { return &fakeStore{uploaded: map[string][]byte{}} }

func (s *fakeStore) UploadImage(ctx context.Context, nodeID string, data []byte, format string) (media.MediaUrls, error) {
	s.uploaded[nodeID] = data
	return media.MediaUrls{Original: "/media/" + nodeID + "/1/original." + format}, nil
}
func (s *fakeStore) UploadVideo(ctx context.Context, nodeID string, data []byte, format string) (media.MediaUrls, error) {
	return s.UploadImage(ctx, nodeID, data, format)
}
func (s *fakeStore) UploadAudio(ctx context.Context, nodeID string, data []byte, format string) (media.MediaUrls, error) {
	return s.UploadImage(ctx, nodeID, data, format)
}
func (s *fakeStore) UploadText(ctx context.Context, nodeID string, text string) (media.MediaUrls, error) {
	return media.MediaUrls{Original: text, Thumbnail: text}, nil
}
func (s *fakeStore) ReadMediaBytes(ctx context.Context, url string) ([]byte, error) {
	return []byte("fetched-bytes"), nil
}
func (s *fakeStore) DeleteNodeMedia(ctx context.Context, nodeID string) error { return nil }
func (s *fakeStore) DuplicateNodeMedia(ctx context.Context, sourceNodeID, targetNodeID string) error {
	return nil
}

func TestTextHandler_AssemblesPromptFromUpstream(t *testing.T) {
	g := graph.NewGraph("g1")
	require.NoError(t, g.AddNode(graph.NewNode("a", graph.NodeTypeGenerateText, "upstream prompt")))
	require.NoError(t, g.AddNode(graph.NewNode("b", graph.NodeTypeGenerateText, "downstream prompt")))
	_, err := g.AddEdge("a", "text", "b", "in")
	require.NoError(t, err)

	g.Nodes["a"].MarkCompleted(&media.MediaResult{Type: media.MediaTypeText, Urls: media.MediaUrls{Original: "upstream text"}})

	backend := &fakeBackend{text: "final output"}
	store := newFakeStore()

	h := TextHandler{}
	result, err := h.Handle(context.Background(), g, g.Nodes["b"], Deps{Backend: backend, Store: store})
	require.NoError(t, err)
	assert.Equal(t, media.MediaTypeText, result.Type)
	assert.Equal(t, "final output", result.Urls.Original)
	// The assembled (pre-enrichment) prompt is the upstream text followed by
	// the node's own prompt.
	assert.Equal(t, "upstream text\n\ndownstream prompt", result.OriginalPrompt)
}

func TestTransformImageHandler_FallsBackToDescribeThenGenerate(t *testing.T) {
	g := graph.NewGraph("g1")
	require.NoError(t, g.AddNode(graph.NewNode("src", graph.NodeTypeGenerateImage, "a cat")))
	require.NoError(t, g.AddNode(graph.NewNode("edit", graph.NodeTypeTransformImage, "make it blue")))
	_, err := g.AddEdge("src", "image", "edit", "in")
	require.NoError(t, err)
	g.Nodes["src"].MarkCompleted(&media.MediaResult{Type: media.MediaTypeImage, Urls: media.MediaUrls{Original: "/media/src/1/original.png"}})

	backend := &fakeBackend{transformErr: pkgErrUpstream()}
	store := newFakeStore()

	h := TransformImageHandler{}
	result, err := h.Handle(context.Background(), g, g.Nodes["edit"], Deps{Backend: backend, Store: store})
	require.NoError(t, err)
	assert.True(t, backend.analyzeCalled)
	assert.Equal(t, 1, backend.generateCalled)
	assert.Equal(t, media.MediaTypeImage, result.Type)
}

func pkgErrUpstream() error {
	return assert.AnError
}

func TestSpeechHandler_WrapsPCMInWAVContainer(t *testing.T) {
	g := graph.NewGraph("g1")
	require.NoError(t, g.AddNode(graph.NewNode("s", graph.NodeTypeGenerateSpeech, "say hello")))

	store := newFakeStore()
	h := SpeechHandler{}
	result, err := h.Handle(context.Background(), g, g.Nodes["s"], Deps{Backend: &fakeBackend{}, Store: store})
	require.NoError(t, err)

	uploaded := store.uploaded["s"]
	require.GreaterOrEqual(t, len(uploaded), 44)
	assert.Equal(t, "RIFF", string(uploaded[:4]))
	assert.Equal(t, "WAVE", string(uploaded[8:12]))
	assert.Equal(t, media.MediaTypeAudio, result.Type)
	assert.Equal(t, "1", result.Metadata.Extra["channels"])
}

func TestMusicHandler_WrapsPCMInStereoWAV(t *testing.T) {
	g := graph.NewGraph("g1")
	require.NoError(t, g.AddNode(graph.NewNode("m", graph.NodeTypeGenerateMusic, "upbeat synthwave")))

	store := newFakeStore()
	backend := &fakeBackend{text: "a pulsing 120bpm synthwave track with analog pads"}
	h := MusicHandler{}
	result, err := h.Handle(context.Background(), g, g.Nodes["m"], Deps{Backend: backend, Store: store})
	require.NoError(t, err)

	uploaded := store.uploaded["m"]
	require.GreaterOrEqual(t, len(uploaded), 44)
	assert.Equal(t, "RIFF", string(uploaded[:4]))
	// Channel count lives at byte 22 of the WAV header.
	assert.Equal(t, byte(2), uploaded[22])
	assert.Equal(t, "2", result.Metadata.Extra["channels"])
	assert.Equal(t, media.MediaTypeAudio, result.Type)

	// Enrichment ran: the backend's enriched text became the prompt, with
	// the assembled original preserved.
	assert.Equal(t, "a pulsing 120bpm synthwave track with analog pads", result.Prompt)
	assert.Equal(t, "upbeat synthwave", result.OriginalPrompt)
}
