package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/duragraph/mediagraph/internal/domain/batch"
	"github.com/duragraph/mediagraph/internal/domain/graph"
	"github.com/duragraph/mediagraph/internal/domain/handler"
	"github.com/duragraph/mediagraph/internal/infrastructure/eventstream"
	"github.com/duragraph/mediagraph/internal/infrastructure/monitoring"
	pkgerrors "github.com/duragraph/mediagraph/internal/pkg/errors"
)

// BatchRunner starts, tracks, and cancels multi-graph batch runs.
type BatchRunner struct {
	Repo    GraphRepository
	Deps    handler.Deps
	Bus     *eventstream.Bus
	Metrics *monitoring.Metrics

	mu      sync.Mutex
	batches map[string]*batch.Context
}

func NewBatchRunner(repo GraphRepository, deps handler.Deps, bus *eventstream.Bus, metrics *monitoring.Metrics) *BatchRunner {
	return &BatchRunner{Repo: repo, Deps: deps, Bus: bus, Metrics: metrics, batches: make(map[string]*batch.Context)}
}

// StartBatch loads every graph in graphIDs under one experiment and runs
// them all against the shared per-node-type worker pool. It returns the new
// batch's ID immediately; callers subscribe to eventstream.Topic("batch",
// batchID) to watch progress.
func (r *BatchRunner) StartBatch(ctx context.Context, experimentID string, graphIDs []string, force bool) (string, error) {
	graphs := make(map[string]*graph.Graph, len(graphIDs))
	for _, id := range graphIDs {
		g, err := r.Repo.Get(ctx, id)
		if err != nil {
			return "", err
		}
		graphs[id] = g
	}

	batchID := uuid.New().String()
	bc := batch.NewContext(batchID, experimentID, graphIDs, force)

	r.mu.Lock()
	r.batches[batchID] = bc
	r.mu.Unlock()

	sink := eventstream.BatchSink{Bus: r.Bus, Topic: eventstream.Topic("batch", batchID), BatchID: batchID, Metrics: r.Metrics}

	if r.Metrics != nil {
		r.Metrics.RecordBatchStarted(experimentID)
	}
	started := time.Now()

	go func() {
		sched := batch.NewScheduler(r.Deps)
		// Each graph is saved as soon as its outcome is terminal, then every
		// graph is saved again once the batch drains, so a cancelled batch
		// still persists whatever its in-flight nodes produced.
		sched.OnGraphTerminal = func(graphID string) {
			_ = r.Repo.Save(context.Background(), graphs[graphID])
		}
		_ = sched.Run(context.Background(), graphs, bc, sink)
		for _, g := range graphs {
			_ = r.Repo.Save(context.Background(), g)
		}

		if r.Metrics != nil {
			r.Metrics.RecordBatchFinished(string(bc.Status), time.Since(started))
			for _, outcome := range bc.Outcomes {
				r.Metrics.RecordGraphOutcome(string(outcome))
			}
		}

		r.mu.Lock()
		delete(r.batches, batchID)
		r.mu.Unlock()
	}()

	return batchID, nil
}

// CancelBatch requests cooperative cancellation of an in-flight batch.
func (r *BatchRunner) CancelBatch(batchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	bc, ok := r.batches[batchID]
	if !ok {
		return pkgerrors.NotFound("batch", batchID)
	}
	bc.Cancel()
	return nil
}
