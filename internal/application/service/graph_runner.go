// Package service orchestrates the domain layer: it loads graphs from
// persistence, drives the execution engine or batch scheduler, and wires
// their events onto the run-event bus.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/duragraph/mediagraph/internal/domain/execution"
	"github.com/duragraph/mediagraph/internal/domain/graph"
	"github.com/duragraph/mediagraph/internal/domain/handler"
	"github.com/duragraph/mediagraph/internal/infrastructure/eventstream"
	"github.com/duragraph/mediagraph/internal/infrastructure/monitoring"
	pkgerrors "github.com/duragraph/mediagraph/internal/pkg/errors"
)

// GraphRepository persists and retrieves graph aggregates.
type GraphRepository interface {
	Get(ctx context.Context, graphID string) (*graph.Graph, error)
	Save(ctx context.Context, g *graph.Graph) error
}

// GraphRunner starts, tracks, and cancels single-graph runs.
type GraphRunner struct {
	Repo    GraphRepository
	Deps    handler.Deps
	Bus     *eventstream.Bus
	Metrics *monitoring.Metrics

	mu   sync.Mutex
	runs map[string]*execution.Context
}

func NewGraphRunner(repo GraphRepository, deps handler.Deps, bus *eventstream.Bus, metrics *monitoring.Metrics) *GraphRunner {
	return &GraphRunner{Repo: repo, Deps: deps, Bus: bus, Metrics: metrics, runs: make(map[string]*execution.Context)}
}

// StartRun loads graphID, validates it, and executes it in the background
// toward targets (or every sink node if targets is empty). It returns the
// new run's ID immediately; callers subscribe to eventstream.Topic("run",
// runID) to watch progress.
func (r *GraphRunner) StartRun(ctx context.Context, graphID string, targets []string, force bool) (string, error) {
	g, err := r.Repo.Get(ctx, graphID)
	if err != nil {
		return "", err
	}
	if len(targets) == 0 {
		targets = sinkNodes(g)
	}
	if err := g.Validate(); err != nil {
		return "", err
	}

	runID := uuid.New().String()
	ec := execution.NewContext(runID, graphID, targets, force)

	r.mu.Lock()
	r.runs[runID] = ec
	r.mu.Unlock()

	sink := eventstream.RunSink{Bus: r.Bus, Topic: eventstream.Topic("run", runID), Metrics: r.Metrics}

	if r.Metrics != nil {
		r.Metrics.RecordRunStarted(graphID)
	}
	started := time.Now()

	go func() {
		exec := execution.NewExecutor(r.Deps)
		_ = exec.Run(context.Background(), g, ec, sink)
		_ = r.Repo.Save(context.Background(), g)

		if r.Metrics != nil {
			r.Metrics.RecordRunFinished(string(ec.Status), time.Since(started))
		}

		r.mu.Lock()
		delete(r.runs, runID)
		r.mu.Unlock()
	}()

	return runID, nil
}

// CancelRun requests cooperative cancellation of an in-flight run. It
// returns a NotFound error if the run is unknown or has already finished.
func (r *GraphRunner) CancelRun(runID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ec, ok := r.runs[runID]
	if !ok {
		return pkgerrors.NotFound("run", runID)
	}
	ec.Cancel()
	return nil
}

// sinkNodes returns every node with no outgoing edges: the default target
// set for a run that doesn't name specific targets.
func sinkNodes(g *graph.Graph) []string {
	hasOutgoing := make(map[string]bool, len(g.Nodes))
	for _, e := range g.Edges {
		hasOutgoing[e.FromNodeID] = true
	}
	var sinks []string
	for id := range g.Nodes {
		if !hasOutgoing[id] {
			sinks = append(sinks, id)
		}
	}
	return sinks
}
