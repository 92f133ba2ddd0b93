package execution

import (
	"context"
	"sync"
	"time"

	"github.com/duragraph/mediagraph/internal/domain/graph"
	"github.com/duragraph/mediagraph/internal/domain/handler"
	pkgerrors "github.com/duragraph/mediagraph/internal/pkg/errors"
	pkguuid "github.com/duragraph/mediagraph/internal/pkg/uuid"
)

// Sink receives events as a run progresses. Implementations forward them
// onto the run's SSE queue; tests can use a simple slice-collecting sink.
type Sink interface {
	Emit(Event)
}

// Executor runs a single graph to completion: it computes the required set
// and level partition for the requested targets, then dispatches each level
// concurrently, skipping nodes whose cached result is still valid and
// stopping at the first level that contains a failure (all live siblings at
// that level are still awaited before the run transitions to failed).
type Executor struct {
	Deps handler.Deps
}

func NewExecutor(deps handler.Deps) *Executor {
	return &Executor{Deps: deps}
}

// Run executes ec.Targets (and their transitive dependencies) against g,
// emitting events to sink as it goes. It mutates node state on g directly:
// callers are expected to persist g afterward.
func (x *Executor) Run(ctx context.Context, g *graph.Graph, ec *Context, sink Sink) error {
	sink.Emit(Event{Type: EventStarted, RunID: ec.RunID, GraphID: ec.GraphID, Timestamp: now()})

	if err := g.Validate(); err != nil {
		ec.Status = StatusFailed
		sink.Emit(Event{Type: EventFailed, RunID: ec.RunID, GraphID: ec.GraphID, Error: err.Error(), Timestamp: now()})
		return err
	}

	required := graph.RequiredSet(g, ec.Targets)
	levels := graph.Levels(g, required)

	for _, level := range levels {
		if ec.Cancelled() {
			ec.Status = StatusCancelled
			sink.Emit(Event{Type: EventCancelled, RunID: ec.RunID, GraphID: ec.GraphID, Timestamp: now()})
			return pkgerrors.Cancelled(ec.RunID)
		}

		failed := x.runLevel(ctx, g, ec, sink, level)
		if failed {
			ec.Status = StatusFailed
			sink.Emit(Event{Type: EventFailed, RunID: ec.RunID, GraphID: ec.GraphID, Timestamp: now()})
			return pkgerrors.NewDomainError("NODE_FAILED", "one or more nodes in the run failed", nil)
		}
	}

	ec.Status = StatusCompleted
	sink.Emit(Event{Type: EventCompleted, RunID: ec.RunID, GraphID: ec.GraphID, Timestamp: now()})
	return nil
}

// runLevel dispatches every node in one level concurrently and waits for
// all of them — including siblings of a node that failed — before
// reporting back whether the level contained a failure.
func (x *Executor) runLevel(ctx context.Context, g *graph.Graph, ec *Context, sink Sink, level []string) bool {
	var wg sync.WaitGroup
	var mu sync.Mutex
	anyFailed := false

	for _, nodeID := range level {
		node := g.Nodes[nodeID]

		if node.CanSkip(ec.Force) {
			sink.Emit(Event{
				Type: EventNodeSkipped, RunID: ec.RunID, GraphID: ec.GraphID, NodeID: nodeID,
				Data:      map[string]interface{}{"reason": "already completed"},
				Timestamp: now(),
			})
			continue
		}

		wg.Add(1)
		go func(n *graph.Node) {
			defer wg.Done()
			x.runNode(ctx, g, ec, sink, n)
			if n.Status == graph.NodeStatusFailed {
				mu.Lock()
				anyFailed = true
				mu.Unlock()
			}
		}(node)
	}

	wg.Wait()
	return anyFailed
}

func (x *Executor) runNode(ctx context.Context, g *graph.Graph, ec *Context, sink Sink, node *graph.Node) {
	node.MarkRunning()
	sink.Emit(Event{Type: EventNodeStarted, RunID: ec.RunID, GraphID: ec.GraphID, NodeID: node.ID, Timestamp: now()})

	h, err := handler.ForNodeType(node.Type)
	if err != nil {
		node.MarkFailed(err.Error())
		sink.Emit(Event{Type: EventNodeFailed, RunID: ec.RunID, GraphID: ec.GraphID, NodeID: node.ID, Error: err.Error(), Timestamp: now()})
		return
	}

	result, err := h.Handle(ctx, g, node, x.Deps)
	if err != nil {
		node.MarkFailed(err.Error())
		sink.Emit(Event{Type: EventNodeFailed, RunID: ec.RunID, GraphID: ec.GraphID, NodeID: node.ID, Error: err.Error(), Timestamp: now()})
		return
	}

	result.ID = pkguuid.New()
	result.CreatedAt = now()
	node.AddGeneration(result)
	sink.Emit(Event{
		Type: EventNodeCompleted, RunID: ec.RunID, GraphID: ec.GraphID, NodeID: node.ID,
		Data: map[string]interface{}{
			"media_type": string(result.Type),
			"urls": map[string]string{
				"original":  result.Urls.Original,
				"thumbnail": result.Urls.Thumbnail,
			},
		},
		Timestamp: now(),
	})
}

func now() time.Time { return time.Now() }
