package batch

import (
	"sync/atomic"
	"time"
)

// Status is the lifecycle state of a batch run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// GraphOutcome is the terminal result recorded for one graph within a batch:
// a graph-level failure only poisons that graph, it never aborts its
// siblings.
type GraphOutcome string

const (
	GraphOutcomeCompleted GraphOutcome = "completed"
	GraphOutcomeFailed    GraphOutcome = "failed"
)

// EventType enumerates the batch-level event vocabulary, layered on top of
// the single-graph vocabulary in the execution package.
type EventType string

const (
	EventBatchStarted    EventType = "batch_started"
	EventGraphCompleted  EventType = "graph_completed"
	EventGraphFailed     EventType = "graph_failed"
	EventBatchCancelled  EventType = "batch_cancelled"
	EventBatchCompleted  EventType = "batch_completed"
)

// Event is one item in a batch's SSE-style event stream. Data carries the
// event-type-specific payload (graph id list and node count on
// batch_started, the per-graph outcome map on batch_completed).
type Event struct {
	Type      EventType
	BatchID   string
	GraphID   string
	Error     string
	Data      map[string]interface{}
	Timestamp time.Time
}

// SchedulableNode is one pooled unit of work: a node belonging to one of the
// batch's graphs, flattened into the global ready queue the scheduler draws
// from.
type SchedulableNode struct {
	GraphID string
	NodeID  string
}

// Context tracks one batch execution: the experiment it belongs to, the
// graphs submitted, whether a full rerun was forced, and each graph's
// outcome once it finishes (or is abandoned because it poisoned itself).
type Context struct {
	BatchID      string
	ExperimentID string
	GraphIDs     []string
	Force        bool
	Status       Status
	Outcomes     map[string]GraphOutcome

	cancelled atomic.Bool
}

// NewContext creates a fresh batch execution context.
func NewContext(batchID, experimentID string, graphIDs []string, force bool) *Context {
	return &Context{
		BatchID:      batchID,
		ExperimentID: experimentID,
		GraphIDs:     graphIDs,
		Force:        force,
		Status:       StatusRunning,
		Outcomes:     make(map[string]GraphOutcome, len(graphIDs)),
	}
}

// Cancel requests cooperative cancellation, checked only at scheduling
// decision points, never preempting an in-flight node.
func (c *Context) Cancel() { c.cancelled.Store(true) }

// Cancelled reports whether cancellation has been requested.
func (c *Context) Cancelled() bool { return c.cancelled.Load() }
