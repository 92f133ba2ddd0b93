package execution

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duragraph/mediagraph/internal/domain/graph"
	"github.com/duragraph/mediagraph/internal/domain/handler"
	"github.com/duragraph/mediagraph/internal/domain/media"
)

type collectingSink struct {
	events []Event
}

func (s *collectingSink) Emit(e Event) { s.events = append(s.events, e) }

func (s *collectingSink) has(t EventType, nodeID string) bool {
	for _, e := range s.events {
		if e.Type == t && (nodeID == "" || e.NodeID == nodeID) {
			return true
		}
	}
	return false
}

type stubBackend struct{ failNode map[string]bool }

func (b *stubBackend) GenerateText(ctx context.Context, req handler.TextGenRequest) (string, error) {
	return "generated:" + req.Prompt, nil
}
func (b *stubBackend) GenerateImage(ctx context.Context, req handler.ImageGenRequest) (handler.GenBytes, error) {
	return handler.GenBytes{Data: []byte("img"), Format: "png"}, nil
}
func (b *stubBackend) GenerateVideo(ctx context.Context, req handler.VideoGenRequest) (handler.GenBytes, error) {
	return handler.GenBytes{Data: []byte("vid"), Format: "mp4"}, nil
}
func (b *stubBackend) GenerateSpeech(ctx context.Context, req handler.SpeechGenRequest) (handler.GenBytes, error) {
	return handler.GenBytes{Data: []byte("wav")}, nil
}
func (b *stubBackend) GenerateMusic(ctx context.Context, req handler.MusicGenRequest) (handler.GenBytes, error) {
	return handler.GenBytes{Data: []byte("wav")}, nil
}
func (b *stubBackend) AnalyzeImage(ctx context.Context, req handler.AnalyzeImageRequest) (string, error) {
	return "description", nil
}
func (b *stubBackend) TransformImage(ctx context.Context, req handler.TransformImageRequest) (handler.GenBytes, error) {
	return handler.GenBytes{Data: []byte("img"), Format: "png"}, nil
}

type stubStore struct{}

func (stubStore) UploadImage(ctx context.Context, nodeID string, data []byte, format string) (media.MediaUrls, error) {
	return media.MediaUrls{Original: "/media/" + nodeID + "/1/original." + format}, nil
}
func (s stubStore) UploadVideo(ctx context.Context, nodeID string, data []byte, format string) (media.MediaUrls, error) {
	return s.UploadImage(ctx, nodeID, data, format)
}
func (s stubStore) UploadAudio(ctx context.Context, nodeID string, data []byte, format string) (media.MediaUrls, error) {
	return s.UploadImage(ctx, nodeID, data, format)
}
func (stubStore) UploadText(ctx context.Context, nodeID string, text string) (media.MediaUrls, error) {
	return media.MediaUrls{Original: text, Thumbnail: text}, nil
}
func (stubStore) ReadMediaBytes(ctx context.Context, url string) ([]byte, error) {
	return []byte("bytes"), nil
}
func (stubStore) DeleteNodeMedia(ctx context.Context, nodeID string) error { return nil }
func (stubStore) DuplicateNodeMedia(ctx context.Context, sourceNodeID, targetNodeID string) error {
	return nil
}

func testDeps() handler.Deps {
	return handler.Deps{Backend: &stubBackend{}, Store: stubStore{}}
}

func linearGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.NewGraph("g1")
	require.NoError(t, g.AddNode(graph.NewNode("a", graph.NodeTypeGenerateText, "a")))
	require.NoError(t, g.AddNode(graph.NewNode("b", graph.NodeTypeGenerateImage, "b")))
	require.NoError(t, g.AddNode(graph.NewNode("c", graph.NodeTypeGenerateVideo, "c")))
	_, err := g.AddEdge("a", "text", "b", "in")
	require.NoError(t, err)
	_, err = g.AddEdge("b", "image", "c", "in")
	require.NoError(t, err)
	return g
}

func TestExecutor_LinearThreeNodeRun(t *testing.T) {
	g := linearGraph(t)
	ec := NewContext("run1", g.ID, []string{"c"}, false)
	sink := &collectingSink{}

	err := NewExecutor(testDeps()).Run(context.Background(), g, ec, sink)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, ec.Status)
	for _, id := range []string{"a", "b", "c"} {
		assert.Equal(t, graph.NodeStatusCompleted, g.Nodes[id].Status)
		assert.True(t, sink.has(EventNodeStarted, id))
		assert.True(t, sink.has(EventNodeCompleted, id))
	}
	assert.True(t, sink.has(EventCompleted, ""))
}

func TestExecutor_SkipsCachedNode(t *testing.T) {
	g := linearGraph(t)
	g.Nodes["a"].MarkCompleted(&media.MediaResult{Type: media.MediaTypeText, Urls: media.MediaUrls{Original: "cached"}})
	g.Nodes["a"].Stale = false

	ec := NewContext("run1", g.ID, []string{"c"}, false)
	sink := &collectingSink{}

	err := NewExecutor(testDeps()).Run(context.Background(), g, ec, sink)
	require.NoError(t, err)

	assert.True(t, sink.has(EventNodeSkipped, "a"))
	assert.False(t, sink.has(EventNodeStarted, "a"))
}

func TestExecutor_ForceRerunsEvenCachedNode(t *testing.T) {
	g := linearGraph(t)
	g.Nodes["a"].MarkCompleted(&media.MediaResult{Type: media.MediaTypeText, Urls: media.MediaUrls{Original: "cached"}})
	g.Nodes["a"].Stale = false

	ec := NewContext("run1", g.ID, []string{"c"}, true)
	sink := &collectingSink{}

	err := NewExecutor(testDeps()).Run(context.Background(), g, ec, sink)
	require.NoError(t, err)
	assert.True(t, sink.has(EventNodeStarted, "a"))
}

type failingBackend struct{ stubBackend }

func (f *failingBackend) GenerateImage(ctx context.Context, req handler.ImageGenRequest) (handler.GenBytes, error) {
	return handler.GenBytes{}, assertErr{}
}

type assertErr struct{}

func (assertErr) Error() string { return "backend failure" }

func TestExecutor_CancelBeforeDispatchEmitsCancelled(t *testing.T) {
	g := linearGraph(t)
	ec := NewContext("run1", g.ID, []string{"c"}, false)
	ec.Cancel()
	sink := &collectingSink{}

	err := NewExecutor(testDeps()).Run(context.Background(), g, ec, sink)
	require.Error(t, err)

	assert.Equal(t, StatusCancelled, ec.Status)
	assert.True(t, sink.has(EventCancelled, ""))
	assert.False(t, sink.has(EventNodeStarted, ""))
}

func TestExecutor_FailureStopsBeforeDownstreamLevel(t *testing.T) {
	g := linearGraph(t)
	ec := NewContext("run1", g.ID, []string{"c"}, false)
	sink := &collectingSink{}

	deps := handler.Deps{Backend: &failingBackend{}, Store: stubStore{}}
	err := NewExecutor(deps).Run(context.Background(), g, ec, sink)
	require.Error(t, err)

	assert.Equal(t, StatusFailed, ec.Status)
	assert.Equal(t, graph.NodeStatusCompleted, g.Nodes["a"].Status)
	assert.Equal(t, graph.NodeStatusFailed, g.Nodes["b"].Status)
	assert.Equal(t, graph.NodeStatusIdle, g.Nodes["c"].Status)
	assert.True(t, sink.has(EventNodeFailed, "b"))
	assert.False(t, sink.has(EventNodeStarted, "c"))
}
