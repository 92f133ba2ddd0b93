package graph

import (
	"github.com/duragraph/mediagraph/internal/domain/media"
)

// Node is one step in a graph: an invocation of a generative model plus the
// bookkeeping needed to decide whether it can be skipped on rerun.
type Node struct {
	ID       string
	Type     NodeType
	Provider string // e.g. "gemini" (default), "anthropic", "openai"
	Label    string
	Prompt   string
	Params   map[string]interface{}

	Status       NodeStatus
	Stale        bool
	Result       *media.MediaResult
	History      []*media.MediaResult
	ErrorMessage string

	InPort  media.Port
	OutPort media.Port
}

// NewNode constructs a Node with the fixed port shape for its type. The
// provider defaults to "gemini"; a fresh node starts idle and stale so it
// always runs on first execution.
func NewNode(id string, nodeType NodeType, prompt string) *Node {
	in, out := nodeType.Ports(id)
	return &Node{
		ID:       id,
		Type:     nodeType,
		Provider: "gemini",
		Prompt:   prompt,
		Params:   map[string]interface{}{},
		Status:   NodeStatusIdle,
		Stale:    true,
		InPort:   in,
		OutPort:  out,
	}
}

// Enrich reports whether the prompt-enrichment pass should run for this
// node. It defaults to true and can be disabled per-node via params.enrich.
func (n *Node) Enrich() bool {
	v, ok := n.Params["enrich"]
	if !ok {
		return true
	}
	b, ok := v.(bool)
	if !ok {
		return true
	}
	return b
}

// CanSkip reports whether this node's prior result can be reused instead of
// re-running its handler: the caller didn't force a rerun, the node isn't
// marked stale, its last run completed, and it actually has a result.
func (n *Node) CanSkip(force bool) bool {
	return !force && !n.Stale && n.Status == NodeStatusCompleted && n.Result != nil
}

// MarkQueued transitions the node into the queued state: dispatched by a
// scheduler but possibly still waiting on a concurrency slot.
func (n *Node) MarkQueued() {
	n.Status = NodeStatusQueued
}

// MarkRunning transitions the node into the running state for a fresh
// execution attempt.
func (n *Node) MarkRunning() {
	n.Status = NodeStatusRunning
}

// MarkCompleted records a successful result and clears staleness. Kept as a
// thin alias of AddGeneration for callers (and tests) that only care about
// the current result, not the history.
func (n *Node) MarkCompleted(result *media.MediaResult) {
	n.AddGeneration(result)
}

// AddGeneration appends result to the node's generation history, sets it as
// the current result, marks the node completed, and clears staleness — the
// one place a node transitions out of "running" on success.
func (n *Node) AddGeneration(result *media.MediaResult) {
	n.History = append(n.History, result)
	n.Result = result
	n.Status = NodeStatusCompleted
	n.Stale = false
	n.ErrorMessage = ""
}

// MarkFailed records a failed execution attempt. The node keeps whatever
// result it had before (there may be none), but is no longer eligible to be
// skipped until it succeeds again.
func (n *Node) MarkFailed(errMsg string) {
	n.Status = NodeStatusFailed
	n.ErrorMessage = errMsg
}
