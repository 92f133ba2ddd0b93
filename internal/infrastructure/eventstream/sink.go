package eventstream

import (
	"encoding/json"
	"time"

	"github.com/duragraph/mediagraph/internal/domain/batch"
	"github.com/duragraph/mediagraph/internal/domain/execution"
	"github.com/duragraph/mediagraph/internal/infrastructure/monitoring"
)

// wireEvent is the JSON shape published to the SSE wire — flat so clients
// don't need to branch on whether an event is run- or node-scoped.
type wireEvent struct {
	Type      string                 `json:"event_type"`
	RunID     string                 `json:"execution_id,omitempty"`
	BatchID   string                 `json:"batch_id,omitempty"`
	GraphID   string                 `json:"graph_id,omitempty"`
	NodeID    string                 `json:"node_id,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// RunSink publishes single-graph execution events onto the bus topic for
// one run, implementing execution.Sink.
type RunSink struct {
	Bus     *Bus
	Topic   string
	Metrics *monitoring.Metrics // optional; nil is fine
}

func (s RunSink) Emit(e execution.Event) {
	payload, err := json.Marshal(wireEvent{
		Type: string(e.Type), RunID: e.RunID, GraphID: e.GraphID,
		NodeID: e.NodeID, Error: e.Error, Data: e.Data, Timestamp: e.Timestamp,
	})
	if err != nil {
		return
	}
	if s.Metrics != nil {
		s.Metrics.RecordEventPublished(string(e.Type))
	}
	_ = s.Bus.Publish(s.Topic, payload)
}

// BatchSink publishes batch-level and per-node events onto the bus topic
// for one batch, implementing batch.Sink.
type BatchSink struct {
	Bus     *Bus
	Topic   string
	BatchID string
	Metrics *monitoring.Metrics // optional; nil is fine
}

func (s BatchSink) Emit(e batch.Event) {
	payload, err := json.Marshal(wireEvent{
		Type: string(e.Type), BatchID: e.BatchID, GraphID: e.GraphID,
		Error: e.Error, Data: e.Data, Timestamp: e.Timestamp,
	})
	if err != nil {
		return
	}
	if s.Metrics != nil {
		s.Metrics.RecordEventPublished(string(e.Type))
	}
	_ = s.Bus.Publish(s.Topic, payload)
}

func (s BatchSink) EmitNode(graphID string, e batch.NodeEvent) {
	payload, err := json.Marshal(wireEvent{
		Type: e.Type, BatchID: s.BatchID, GraphID: graphID,
		NodeID: e.NodeID, Error: e.Error, Data: e.Data, Timestamp: time.Now(),
	})
	if err != nil {
		return
	}
	if s.Metrics != nil {
		s.Metrics.RecordEventPublished(e.Type)
	}
	_ = s.Bus.Publish(s.Topic, payload)
}
