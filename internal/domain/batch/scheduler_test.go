package batch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duragraph/mediagraph/internal/domain/graph"
	"github.com/duragraph/mediagraph/internal/domain/handler"
	"github.com/duragraph/mediagraph/internal/domain/media"
)

type recordingSink struct {
	mu      sync.Mutex
	events  []Event
	nodeEvs []struct {
		graphID string
		ev      NodeEvent
	}
}

func (s *recordingSink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) EmitNode(graphID string, e NodeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodeEvs = append(s.nodeEvs, struct {
		graphID string
		ev      NodeEvent
	}{graphID, e})
}

func (s *recordingSink) has(t EventType, graphID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.Type == t && (graphID == "" || e.GraphID == graphID) {
			return true
		}
	}
	return false
}

// concurrencyTrackingBackend records the maximum number of simultaneous
// GenerateVideo calls observed, to verify the video type's capacity-2 cap
// from DefaultTypeConfigs is actually enforced across graphs.
type concurrencyTrackingBackend struct {
	inFlight int32
	maxSeen  int32
}

func (b *concurrencyTrackingBackend) GenerateText(ctx context.Context, req handler.TextGenRequest) (string, error) {
	return "text", nil
}
func (b *concurrencyTrackingBackend) GenerateImage(ctx context.Context, req handler.ImageGenRequest) (handler.GenBytes, error) {
	return handler.GenBytes{Data: []byte("img"), Format: "png"}, nil
}
func (b *concurrencyTrackingBackend) GenerateVideo(ctx context.Context, req handler.VideoGenRequest) (handler.GenBytes, error) {
	cur := atomic.AddInt32(&b.inFlight, 1)
	for {
		seen := atomic.LoadInt32(&b.maxSeen)
		if cur <= seen || atomic.CompareAndSwapInt32(&b.maxSeen, seen, cur) {
			break
		}
	}
	time.Sleep(15 * time.Millisecond)
	atomic.AddInt32(&b.inFlight, -1)
	return handler.GenBytes{Data: []byte("vid"), Format: "mp4"}, nil
}
func (b *concurrencyTrackingBackend) GenerateSpeech(ctx context.Context, req handler.SpeechGenRequest) (handler.GenBytes, error) {
	return handler.GenBytes{Data: []byte("wav")}, nil
}
func (b *concurrencyTrackingBackend) GenerateMusic(ctx context.Context, req handler.MusicGenRequest) (handler.GenBytes, error) {
	return handler.GenBytes{Data: []byte("wav")}, nil
}
func (b *concurrencyTrackingBackend) AnalyzeImage(ctx context.Context, req handler.AnalyzeImageRequest) (string, error) {
	return "description", nil
}
func (b *concurrencyTrackingBackend) TransformImage(ctx context.Context, req handler.TransformImageRequest) (handler.GenBytes, error) {
	return handler.GenBytes{Data: []byte("img"), Format: "png"}, nil
}

type noopStore struct{}

func (noopStore) UploadImage(ctx context.Context, nodeID string, data []byte, format string) (media.MediaUrls, error) {
	return media.MediaUrls{Original: "/media/" + nodeID + "/1/original." + format}, nil
}
func (s noopStore) UploadVideo(ctx context.Context, nodeID string, data []byte, format string) (media.MediaUrls, error) {
	return s.UploadImage(ctx, nodeID, data, format)
}
func (s noopStore) UploadAudio(ctx context.Context, nodeID string, data []byte, format string) (media.MediaUrls, error) {
	return s.UploadImage(ctx, nodeID, data, format)
}
func (noopStore) UploadText(ctx context.Context, nodeID string, text string) (media.MediaUrls, error) {
	return media.MediaUrls{Original: text, Thumbnail: text}, nil
}
func (noopStore) ReadMediaBytes(ctx context.Context, url string) ([]byte, error) { return []byte("b"), nil }
func (noopStore) DeleteNodeMedia(ctx context.Context, nodeID string) error      { return nil }
func (noopStore) DuplicateNodeMedia(ctx context.Context, sourceNodeID, targetNodeID string) error {
	return nil
}

func videoOnlyGraph(t *testing.T, id string) *graph.Graph {
	t.Helper()
	g := graph.NewGraph(id)
	require.NoError(t, g.AddNode(graph.NewNode("v", graph.NodeTypeGenerateVideo, "a clip")))
	return g
}

func TestScheduler_EnforcesPerTypeConcurrencyCap(t *testing.T) {
	graphs := make(map[string]*graph.Graph)
	for i := 0; i < 5; i++ {
		id := "g" + string(rune('a'+i))
		graphs[id] = videoOnlyGraph(t, id)
	}

	backend := &concurrencyTrackingBackend{}
	sched := NewScheduler(handler.Deps{Backend: backend, Store: noopStore{}})
	bc := NewContext("batch1", "exp1", []string{"ga", "gb", "gc", "gd", "ge"}, false)
	sink := &recordingSink{}

	err := sched.Run(context.Background(), graphs, bc, sink)
	require.NoError(t, err)

	assert.LessOrEqual(t, int(backend.maxSeen), DefaultTypeConfigs[graph.NodeTypeGenerateVideo].Capacity)
	assert.Equal(t, StatusCompleted, bc.Status)
	for id := range graphs {
		assert.Equal(t, GraphOutcomeCompleted, bc.Outcomes[id])
	}
}

func TestScheduler_GraphFailureIsIsolated(t *testing.T) {
	good := graph.NewGraph("good")
	require.NoError(t, good.AddNode(graph.NewNode("a", graph.NodeTypeGenerateText, "a")))
	require.NoError(t, good.AddNode(graph.NewNode("b", graph.NodeTypeGenerateImage, "b")))
	_, err := good.AddEdge("a", "text", "b", "in")
	require.NoError(t, err)

	bad := graph.NewGraph("bad")
	require.NoError(t, bad.AddNode(graph.NewNode("a", graph.NodeTypeGenerateText, "a")))
	require.NoError(t, bad.AddNode(graph.NewNode("b", graph.NodeTypeGenerateImage, "b")))
	bad.Nodes["b"].Provider = "bad"
	_, err = bad.AddEdge("a", "text", "b", "in")
	require.NoError(t, err)

	backend := &selectiveFailBackend{}
	sched := NewScheduler(handler.Deps{Backend: backend, Store: noopStore{}})
	graphs := map[string]*graph.Graph{"good": good, "bad": bad}
	bc := NewContext("batch1", "exp1", []string{"good", "bad"}, false)
	sink := &recordingSink{}

	err = sched.Run(context.Background(), graphs, bc, sink)
	require.NoError(t, err)

	assert.Equal(t, GraphOutcomeCompleted, bc.Outcomes["good"])
	assert.Equal(t, GraphOutcomeFailed, bc.Outcomes["bad"])
	assert.Equal(t, graph.NodeStatusCompleted, good.Nodes["a"].Status)
	assert.Equal(t, graph.NodeStatusCompleted, good.Nodes["b"].Status)
	assert.Equal(t, graph.NodeStatusFailed, bad.Nodes["b"].Status)

	assert.True(t, sink.has(EventGraphCompleted, "good"))
	assert.True(t, sink.has(EventGraphFailed, "bad"))
	assert.True(t, sink.has(EventBatchCompleted, ""))
	assert.False(t, sink.has(EventBatchCancelled, ""))
}

func (s *recordingSink) nodeEventCount(eventType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ne := range s.nodeEvs {
		if ne.ev.Type == eventType {
			n++
		}
	}
	return n
}

func TestScheduler_PrePassSkipsCachedNodes(t *testing.T) {
	g := graph.NewGraph("g1")
	require.NoError(t, g.AddNode(graph.NewNode("a", graph.NodeTypeGenerateText, "a")))
	require.NoError(t, g.AddNode(graph.NewNode("b", graph.NodeTypeGenerateImage, "b")))
	_, err := g.AddEdge("a", "text", "b", "in")
	require.NoError(t, err)

	for _, n := range g.Nodes {
		n.MarkCompleted(&media.MediaResult{Type: media.MediaTypeText, Urls: media.MediaUrls{Original: "cached"}})
	}

	sched := NewScheduler(handler.Deps{Backend: &selectiveFailBackend{}, Store: noopStore{}})
	bc := NewContext("batch1", "exp1", []string{"g1"}, false)
	sink := &recordingSink{}

	require.NoError(t, sched.Run(context.Background(), map[string]*graph.Graph{"g1": g}, bc, sink))

	assert.Equal(t, 2, sink.nodeEventCount("node_skipped"))
	assert.Equal(t, 0, sink.nodeEventCount("node_started"))
	assert.Equal(t, GraphOutcomeCompleted, bc.Outcomes["g1"])
	assert.True(t, sink.has(EventGraphCompleted, "g1"))
	assert.True(t, sink.has(EventBatchCompleted, ""))
}

func TestScheduler_CancelledBeforeStartRunsNothing(t *testing.T) {
	graphs := map[string]*graph.Graph{"ga": videoOnlyGraph(t, "ga"), "gb": videoOnlyGraph(t, "gb")}

	sched := NewScheduler(handler.Deps{Backend: &concurrencyTrackingBackend{}, Store: noopStore{}})
	bc := NewContext("batch1", "exp1", []string{"ga", "gb"}, false)
	bc.Cancel()
	sink := &recordingSink{}

	require.NoError(t, sched.Run(context.Background(), graphs, bc, sink))

	assert.Equal(t, StatusCancelled, bc.Status)
	assert.True(t, sink.has(EventBatchCancelled, ""))
	assert.False(t, sink.has(EventBatchCompleted, ""))
	assert.Equal(t, 0, sink.nodeEventCount("node_started"))
}

func TestScheduler_InvalidGraphFailsWithoutDispatch(t *testing.T) {
	bad := graph.NewGraph("bad")
	require.NoError(t, bad.AddNode(graph.NewNode("a", graph.NodeTypeGenerateText, "a")))
	require.NoError(t, bad.AddNode(graph.NewNode("b", graph.NodeTypeGenerateText, "b")))
	_, err := bad.AddEdge("a", "text", "b", "in")
	require.NoError(t, err)
	// Bypass AddEdge's cycle check to simulate a corrupted persisted graph.
	e := graph.NewEdge("b", "text", "a", "in")
	bad.Edges[e.ID] = e

	good := videoOnlyGraph(t, "good")

	sched := NewScheduler(handler.Deps{Backend: &concurrencyTrackingBackend{}, Store: noopStore{}})
	bc := NewContext("batch1", "exp1", []string{"bad", "good"}, false)
	sink := &recordingSink{}

	require.NoError(t, sched.Run(context.Background(), map[string]*graph.Graph{"bad": bad, "good": good}, bc, sink))

	assert.Equal(t, GraphOutcomeFailed, bc.Outcomes["bad"])
	assert.Equal(t, GraphOutcomeCompleted, bc.Outcomes["good"])
	assert.True(t, sink.has(EventGraphFailed, "bad"))
	assert.Equal(t, graph.NodeStatusIdle, bad.Nodes["a"].Status)
	assert.Equal(t, graph.NodeStatusIdle, bad.Nodes["b"].Status)
}

// selectiveFailBackend fails GenerateImage only for nodes tagged with the
// "bad" provider, so the test can assert the failure doesn't leak into
// sibling graphs.
type selectiveFailBackend struct{}

func (b *selectiveFailBackend) GenerateText(ctx context.Context, req handler.TextGenRequest) (string, error) {
	return "text:" + req.Prompt, nil
}
func (b *selectiveFailBackend) GenerateImage(ctx context.Context, req handler.ImageGenRequest) (handler.GenBytes, error) {
	if req.Provider == "bad" {
		return handler.GenBytes{}, assert.AnError
	}
	return handler.GenBytes{Data: []byte("img"), Format: "png"}, nil
}
func (b *selectiveFailBackend) GenerateVideo(ctx context.Context, req handler.VideoGenRequest) (handler.GenBytes, error) {
	return handler.GenBytes{Data: []byte("vid"), Format: "mp4"}, nil
}
func (b *selectiveFailBackend) GenerateSpeech(ctx context.Context, req handler.SpeechGenRequest) (handler.GenBytes, error) {
	return handler.GenBytes{Data: []byte("wav")}, nil
}
func (b *selectiveFailBackend) GenerateMusic(ctx context.Context, req handler.MusicGenRequest) (handler.GenBytes, error) {
	return handler.GenBytes{Data: []byte("wav")}, nil
}
func (b *selectiveFailBackend) AnalyzeImage(ctx context.Context, req handler.AnalyzeImageRequest) (string, error) {
	return "description", nil
}
func (b *selectiveFailBackend) TransformImage(ctx context.Context, req handler.TransformImageRequest) (handler.GenBytes, error) {
	return handler.GenBytes{Data: []byte("img"), Format: "png"}, nil
}
