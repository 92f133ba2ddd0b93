package execution

import (
	"sync/atomic"
	"time"
)

// Status is the lifecycle state of a single-graph run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// EventType enumerates the single-graph event vocabulary.
type EventType string

const (
	EventStarted      EventType = "started"
	EventNodeStarted  EventType = "node_started"
	EventNodeSkipped  EventType = "node_skipped"
	EventNodeCompleted EventType = "node_completed"
	EventNodeFailed   EventType = "node_failed"
	EventCancelled    EventType = "cancelled"
	EventCompleted    EventType = "completed"
	EventFailed       EventType = "failed"
)

// Event is one item in a run's SSE-style event stream. Data carries the
// event-type-specific payload (media type and urls on node_completed, the
// skip reason on node_skipped).
type Event struct {
	Type      EventType
	RunID     string
	GraphID   string
	NodeID    string // empty for run-level events
	Error     string
	Data      map[string]interface{}
	Timestamp time.Time
}

// Context tracks one single-graph execution: which targets were requested,
// whether the caller forced a full rerun, and the cooperative cancellation
// flag the scheduler checks only at dispatch decision points.
type Context struct {
	RunID     string
	GraphID   string
	Targets   []string
	Force     bool
	Status    Status
	cancelled atomic.Bool
}

// NewContext creates a fresh execution context for a run.
func NewContext(runID, graphID string, targets []string, force bool) *Context {
	return &Context{
		RunID:   runID,
		GraphID: graphID,
		Targets: targets,
		Force:   force,
		Status:  StatusRunning,
	}
}

// Cancel requests cooperative cancellation. In-flight handlers are not
// preempted; the flag is only consulted before dispatching the next level.
func (c *Context) Cancel() {
	c.cancelled.Store(true)
}

// Cancelled reports whether cancellation has been requested.
func (c *Context) Cancelled() bool {
	return c.cancelled.Load()
}
