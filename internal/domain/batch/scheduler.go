package batch

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/duragraph/mediagraph/internal/domain/graph"
	"github.com/duragraph/mediagraph/internal/domain/handler"
	pkguuid "github.com/duragraph/mediagraph/internal/pkg/uuid"
)

// Sink receives batch-level and single-graph-level events as a batch
// progresses.
type Sink interface {
	Emit(Event)
	EmitNode(graphID string, e NodeEvent)
}

// NodeEvent mirrors execution.Event's vocabulary so the scheduler can report
// per-node progress without importing the execution package (which would
// create an import cycle, since execution doesn't know about batches).
type NodeEvent struct {
	Type   string
	NodeID string
	Error  string
	Data   map[string]interface{}
}

// Scheduler runs several graphs against one global, per-node-type-capped
// worker pool instead of giving each graph its own concurrency budget. A
// node belonging to any of the batch's graphs competes for its type's
// shared semaphore; when more nodes are ready than a type's capacity
// allows, the higher-Priority type config wins, and ties break on
// (graphID, nodeID) for determinism.
type Scheduler struct {
	Deps handler.Deps

	// OnGraphTerminal, when set, is called from the drain loop each time a
	// graph's outcome becomes terminal (completed or failed), so callers can
	// persist that graph's node results without waiting for the whole batch.
	OnGraphTerminal func(graphID string)
}

func NewScheduler(deps handler.Deps) *Scheduler {
	return &Scheduler{Deps: deps}
}

func (s *Scheduler) graphTerminal(graphID string) {
	if s.OnGraphTerminal != nil {
		s.OnGraphTerminal(graphID)
	}
}

// completion is the only message a worker goroutine sends back to the drain
// loop. All scheduler state lives in runState and is mutated exclusively by
// the drain loop, so no locking is needed on the maps and sets — workers
// touch only their own node and this channel.
type completion struct {
	graphID string
	nodeID  string
	failed  bool
	// aborted means the worker gave up before running the node (batch
	// cancelled or its graph already failed while it waited for a slot);
	// the node is still charged against remaining.
	aborted bool
}

// runState is the centralized bookkeeping for one batch run, mirroring the
// pending-deps / children / finished / launched / failed-graphs record the
// scheduler keeps per run. Semaphores are per-run too: a batch's caps bound
// that batch, not some global process-wide pool.
type runState struct {
	graphs map[string]*graph.Graph

	pendingDeps map[string]map[string]int      // graphID -> nodeID -> unfinished dep count
	children    map[string]map[string][]string // graphID -> nodeID -> downstream node IDs

	graphTotal map[string]int
	graphDone  map[string]int

	finished map[string]map[string]bool
	launched map[string]map[string]bool

	// failedGraphs is the one piece of state workers read while the drain
	// loop writes it (a worker that waited out its semaphore must not run a
	// node whose graph failed in the meantime), so it gets its own lock.
	failedMu     sync.RWMutex
	failedGraphs map[string]bool

	sems      map[graph.NodeType]*semaphore.Weighted
	remaining int
}

func newRunState(graphs map[string]*graph.Graph) *runState {
	st := &runState{
		graphs:       graphs,
		pendingDeps:  make(map[string]map[string]int),
		children:     make(map[string]map[string][]string),
		graphTotal:   make(map[string]int),
		graphDone:    make(map[string]int),
		finished:     make(map[string]map[string]bool),
		launched:     make(map[string]map[string]bool),
		failedGraphs: make(map[string]bool),
		sems:         make(map[graph.NodeType]*semaphore.Weighted),
	}
	for graphID, g := range graphs {
		st.pendingDeps[graphID] = make(map[string]int, len(g.Nodes))
		st.children[graphID] = make(map[string][]string, len(g.Nodes))
		st.finished[graphID] = make(map[string]bool, len(g.Nodes))
		st.launched[graphID] = make(map[string]bool, len(g.Nodes))
		for nodeID := range g.Nodes {
			st.pendingDeps[graphID][nodeID] = 0
			st.graphTotal[graphID]++
			st.remaining++
		}
		for _, e := range g.Edges {
			st.pendingDeps[graphID][e.ToNodeID]++
			st.children[graphID][e.FromNodeID] = append(st.children[graphID][e.FromNodeID], e.ToNodeID)
		}
	}
	// Semaphores are created up front for every type present in the batch so
	// the map is read-only once workers start.
	for _, g := range graphs {
		for _, n := range g.Nodes {
			if _, ok := st.sems[n.Type]; !ok {
				st.sems[n.Type] = semaphore.NewWeighted(int64(ConfigFor(n.Type).Capacity))
			}
		}
	}
	return st
}

func (st *runState) semFor(t graph.NodeType) *semaphore.Weighted {
	return st.sems[t]
}

// readyNodes returns every unfinished, unlaunched node with no pending deps
// whose graph has not failed, ordered by descending type priority with
// (graphID, nodeID) breaking ties.
func (st *runState) readyNodes() []SchedulableNode {
	var ready []SchedulableNode
	for graphID, deps := range st.pendingDeps {
		if st.graphFailed(graphID) {
			continue
		}
		for nodeID, count := range deps {
			if count <= 0 && !st.launched[graphID][nodeID] && !st.finished[graphID][nodeID] {
				ready = append(ready, SchedulableNode{GraphID: graphID, NodeID: nodeID})
			}
		}
	}
	sort.Slice(ready, func(i, j int) bool {
		pi := ConfigFor(st.graphs[ready[i].GraphID].Nodes[ready[i].NodeID].Type).Priority
		pj := ConfigFor(st.graphs[ready[j].GraphID].Nodes[ready[j].NodeID].Type).Priority
		if pi != pj {
			return pi > pj
		}
		if ready[i].GraphID != ready[j].GraphID {
			return ready[i].GraphID < ready[j].GraphID
		}
		return ready[i].NodeID < ready[j].NodeID
	})
	return ready
}

// markSkipped finishes a node without running it, charging it against
// remaining and unblocking its children.
func (st *runState) markSkipped(sn SchedulableNode) {
	st.finished[sn.GraphID][sn.NodeID] = true
	st.launched[sn.GraphID][sn.NodeID] = true
	st.graphDone[sn.GraphID]++
	st.remaining--
	for _, child := range st.children[sn.GraphID][sn.NodeID] {
		st.pendingDeps[sn.GraphID][child]--
	}
}

// promoteChildren unblocks the children of a finished node and returns the
// ones that just became ready, priority-ordered.
func (st *runState) promoteChildren(sn SchedulableNode) []SchedulableNode {
	var newly []SchedulableNode
	for _, child := range st.children[sn.GraphID][sn.NodeID] {
		st.pendingDeps[sn.GraphID][child]--
		if st.pendingDeps[sn.GraphID][child] <= 0 &&
			!st.launched[sn.GraphID][child] &&
			!st.graphFailed(sn.GraphID) {
			newly = append(newly, SchedulableNode{GraphID: sn.GraphID, NodeID: child})
		}
	}
	sort.Slice(newly, func(i, j int) bool {
		pi := ConfigFor(st.graphs[newly[i].GraphID].Nodes[newly[i].NodeID].Type).Priority
		pj := ConfigFor(st.graphs[newly[j].GraphID].Nodes[newly[j].NodeID].Type).Priority
		if pi != pj {
			return pi > pj
		}
		return newly[i].NodeID < newly[j].NodeID
	})
	return newly
}

func (st *runState) graphFailed(graphID string) bool {
	st.failedMu.RLock()
	defer st.failedMu.RUnlock()
	return st.failedGraphs[graphID]
}

// poisonGraph marks a graph failed and finishes every node of it that is
// neither finished nor launched. Launched nodes stay charged to their own
// worker's completion message, so every node is counted against remaining
// exactly once.
func (st *runState) poisonGraph(graphID string) {
	if st.graphFailed(graphID) {
		return
	}
	st.failedMu.Lock()
	st.failedGraphs[graphID] = true
	st.failedMu.Unlock()
	for nodeID := range st.graphs[graphID].Nodes {
		if !st.finished[graphID][nodeID] && !st.launched[graphID][nodeID] {
			st.finished[graphID][nodeID] = true
			st.remaining--
		}
	}
}

// abandonUnlaunched finishes every unlaunched node across all graphs; called
// once when cancellation is observed so remaining counts only in-flight
// workers and the drain loop can terminate.
func (st *runState) abandonUnlaunched() {
	for graphID, g := range st.graphs {
		for nodeID := range g.Nodes {
			if !st.finished[graphID][nodeID] && !st.launched[graphID][nodeID] {
				st.finished[graphID][nodeID] = true
				st.remaining--
			}
		}
	}
}

func (st *runState) graphComplete(graphID string) bool {
	return st.graphDone[graphID] >= st.graphTotal[graphID]
}

// allFinished reports whether every node of a graph has drained — finished
// by completion, skip, poison, or abandonment — meaning no worker can still
// be mutating the graph's nodes.
func (st *runState) allFinished(graphID string) bool {
	for nodeID := range st.graphs[graphID].Nodes {
		if !st.finished[graphID][nodeID] {
			return false
		}
	}
	return true
}

// Run executes every graph in graphs to completion against one shared node
// pool. A node-level failure poisons only its own graph: that graph's
// remaining nodes are counted as finished without running, its siblings in
// the batch are unaffected, and the batch as a whole still reports
// batch_completed once every graph has reached a terminal outcome.
func (s *Scheduler) Run(ctx context.Context, graphs map[string]*graph.Graph, bc *Context, sink Sink) error {
	totalNodes := 0
	for _, g := range graphs {
		totalNodes += len(g.Nodes)
	}
	sink.Emit(Event{
		Type: EventBatchStarted, BatchID: bc.BatchID, Timestamp: time.Now(),
		Data: map[string]interface{}{"graph_ids": bc.GraphIDs, "total_nodes": totalNodes},
	})

	st := newRunState(graphs)

	// Structurally invalid graphs fail before any of their nodes dispatch.
	for _, graphID := range sortedGraphIDs(graphs) {
		if err := graphs[graphID].Validate(); err != nil {
			st.poisonGraph(graphID)
			bc.Outcomes[graphID] = GraphOutcomeFailed
			sink.Emit(Event{Type: EventGraphFailed, BatchID: bc.BatchID, GraphID: graphID, Error: err.Error(), Timestamp: time.Now()})
			s.graphTerminal(graphID)
		}
	}

	// Pre-pass: finish cached nodes without running them.
	for _, graphID := range sortedGraphIDs(graphs) {
		if st.graphFailed(graphID) {
			continue
		}
		g := graphs[graphID]
		for _, nodeID := range sortedNodeIDs(g) {
			if g.Nodes[nodeID].CanSkip(bc.Force) {
				st.markSkipped(SchedulableNode{GraphID: graphID, NodeID: nodeID})
				sink.EmitNode(graphID, NodeEvent{
					Type: "node_skipped", NodeID: nodeID,
					Data: map[string]interface{}{"reason": "already completed"},
				})
			}
		}
		if st.graphComplete(graphID) {
			bc.Outcomes[graphID] = GraphOutcomeCompleted
			sink.Emit(Event{Type: EventGraphCompleted, BatchID: bc.BatchID, GraphID: graphID, Timestamp: time.Now()})
			s.graphTerminal(graphID)
		}
	}

	done := make(chan completion)
	launch := func(sn SchedulableNode) {
		st.launched[sn.GraphID][sn.NodeID] = true
		node := graphs[sn.GraphID].Nodes[sn.NodeID]
		node.MarkQueued()
		go s.runOne(ctx, graphs[sn.GraphID], sn, st, bc, sink, done)
	}

	for _, sn := range st.readyNodes() {
		launch(sn)
	}

	// Drain loop: all state mutation happens here, one completion at a time.
	// A failed graph's save is deferred until its last in-flight worker has
	// reported in, so the persisted document can't race a sibling still
	// writing its node.
	cancelObserved := false
	failedSaved := make(map[string]bool)
	for st.remaining > 0 {
		if bc.Cancelled() && !cancelObserved {
			cancelObserved = true
			st.abandonUnlaunched()
			if st.remaining == 0 {
				break
			}
		}

		c := <-done
		st.remaining--
		st.finished[c.graphID][c.nodeID] = true

		switch {
		case c.aborted:
			// Charged above; nothing ran.
		case c.failed:
			if !st.graphFailed(c.graphID) {
				st.poisonGraph(c.graphID)
				bc.Outcomes[c.graphID] = GraphOutcomeFailed
				node := graphs[c.graphID].Nodes[c.nodeID]
				sink.Emit(Event{Type: EventGraphFailed, BatchID: bc.BatchID, GraphID: c.graphID, Error: node.ErrorMessage, Timestamp: time.Now()})
			}
		default:
			st.graphDone[c.graphID]++
			if st.graphComplete(c.graphID) && !st.graphFailed(c.graphID) {
				bc.Outcomes[c.graphID] = GraphOutcomeCompleted
				sink.Emit(Event{Type: EventGraphCompleted, BatchID: bc.BatchID, GraphID: c.graphID, Timestamp: time.Now()})
				s.graphTerminal(c.graphID)
			}
			if !bc.Cancelled() {
				for _, child := range st.promoteChildren(SchedulableNode{GraphID: c.graphID, NodeID: c.nodeID}) {
					launch(child)
				}
			}
		}

		if st.graphFailed(c.graphID) && !failedSaved[c.graphID] && st.allFinished(c.graphID) {
			failedSaved[c.graphID] = true
			s.graphTerminal(c.graphID)
		}
	}

	if bc.Cancelled() {
		bc.Status = StatusCancelled
		sink.Emit(Event{Type: EventBatchCancelled, BatchID: bc.BatchID, Timestamp: time.Now()})
		return nil
	}

	bc.Status = StatusCompleted
	outcomes := make(map[string]interface{}, len(bc.Outcomes))
	for graphID, outcome := range bc.Outcomes {
		outcomes[graphID] = string(outcome)
	}
	sink.Emit(Event{
		Type: EventBatchCompleted, BatchID: bc.BatchID, Timestamp: time.Now(),
		Data: map[string]interface{}{"graph_outcomes": outcomes},
	})
	return nil
}

// runOne is one worker: it waits for its type's concurrency slot, bails out
// if the batch was cancelled or its graph poisoned while it waited, and
// otherwise runs the node's handler. It mutates only its own node; every
// other state change flows back through the done channel.
func (s *Scheduler) runOne(ctx context.Context, g *graph.Graph, sn SchedulableNode, st *runState, bc *Context, sink Sink, done chan<- completion) {
	sem := st.semFor(g.Nodes[sn.NodeID].Type)
	if err := sem.Acquire(ctx, 1); err != nil {
		done <- completion{graphID: sn.GraphID, nodeID: sn.NodeID, aborted: true}
		return
	}
	defer sem.Release(1)

	if bc.Cancelled() || st.graphFailed(sn.GraphID) {
		done <- completion{graphID: sn.GraphID, nodeID: sn.NodeID, aborted: true}
		return
	}

	node := g.Nodes[sn.NodeID]
	node.MarkRunning()
	sink.EmitNode(sn.GraphID, NodeEvent{Type: "node_started", NodeID: sn.NodeID})

	h, err := handler.ForNodeType(node.Type)
	if err == nil {
		result, hErr := h.Handle(ctx, g, node, s.Deps)
		if hErr != nil {
			err = hErr
		} else {
			result.ID = pkguuid.New()
			result.CreatedAt = time.Now()
			node.AddGeneration(result)
			sink.EmitNode(sn.GraphID, NodeEvent{
				Type: "node_completed", NodeID: sn.NodeID,
				Data: map[string]interface{}{
					"media_type": string(result.Type),
					"urls": map[string]string{
						"original":  result.Urls.Original,
						"thumbnail": result.Urls.Thumbnail,
					},
				},
			})
			done <- completion{graphID: sn.GraphID, nodeID: sn.NodeID}
			return
		}
	}

	node.MarkFailed(err.Error())
	sink.EmitNode(sn.GraphID, NodeEvent{Type: "node_failed", NodeID: sn.NodeID, Error: err.Error()})
	done <- completion{graphID: sn.GraphID, nodeID: sn.NodeID, failed: true}
}

func sortedGraphIDs(graphs map[string]*graph.Graph) []string {
	ids := make([]string, 0, len(graphs))
	for id := range graphs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedNodeIDs(g *graph.Graph) []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
