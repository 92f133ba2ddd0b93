package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domaingraph "github.com/duragraph/mediagraph/internal/domain/graph"
	"github.com/duragraph/mediagraph/internal/domain/media"
	pkgerrors "github.com/duragraph/mediagraph/internal/pkg/errors"
	"github.com/duragraph/mediagraph/internal/pkg/eventbus"
)

// GraphRepository persists Graph aggregates as a single JSONB document per
// graph. Nodes and edges are small and read/written as a whole on every
// run, so a normalized schema would buy nothing here. Domain events the
// aggregate recorded since it was loaded are published to the event bus
// once the write succeeds.
type GraphRepository struct {
	pool *pgxpool.Pool
	bus  *eventbus.EventBus
}

func NewGraphRepository(pool *pgxpool.Pool, bus *eventbus.EventBus) *GraphRepository {
	return &GraphRepository{pool: pool, bus: bus}
}

type nodeDoc struct {
	ID           string                 `json:"id"`
	Type         string                 `json:"type"`
	Provider     string                 `json:"provider"`
	Label        string                 `json:"label"`
	Prompt       string                 `json:"prompt"`
	Params       map[string]interface{} `json:"params"`
	Status       string                 `json:"status"`
	Stale        bool                   `json:"stale"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	Result       *media.MediaResult     `json:"result,omitempty"`
	History      []*media.MediaResult   `json:"history,omitempty"`
}

type edgeDoc struct {
	FromNodeID string `json:"from_node_id"`
	FromPort   string `json:"from_port"`
	ToNodeID   string `json:"to_node_id"`
	ToPort     string `json:"to_port"`
}

type graphDoc struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CanvasMemory string    `json:"canvas_memory"`
	Nodes        []nodeDoc `json:"nodes"`
	Edges        []edgeDoc `json:"edges"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toDoc(g *domaingraph.Graph) graphDoc {
	doc := graphDoc{
		ID: g.ID, Name: g.Name, CanvasMemory: g.CanvasMemory,
		CreatedAt: g.CreatedAt, UpdatedAt: g.UpdatedAt,
	}
	for _, n := range g.Nodes {
		doc.Nodes = append(doc.Nodes, nodeDoc{
			ID: n.ID, Type: string(n.Type), Provider: n.Provider, Label: n.Label, Prompt: n.Prompt,
			Params: n.Params, Status: string(n.Status), Stale: n.Stale,
			ErrorMessage: n.ErrorMessage, Result: n.Result, History: n.History,
		})
	}
	for _, e := range g.Edges {
		doc.Edges = append(doc.Edges, edgeDoc{
			FromNodeID: e.FromNodeID, FromPort: e.FromPort, ToNodeID: e.ToNodeID, ToPort: e.ToPort,
		})
	}
	return doc
}

func fromDoc(doc graphDoc) *domaingraph.Graph {
	g := domaingraph.NewGraph(doc.ID)
	g.Name = doc.Name
	g.CanvasMemory = doc.CanvasMemory
	g.CreatedAt = doc.CreatedAt
	g.UpdatedAt = doc.UpdatedAt
	g.ClearEvents()
	for _, n := range doc.Nodes {
		node := domaingraph.NewNode(n.ID, domaingraph.NodeType(n.Type), n.Prompt)
		node.Provider = n.Provider
		node.Label = n.Label
		node.Params = n.Params
		node.Status = domaingraph.NodeStatus(n.Status)
		node.Stale = n.Stale
		node.ErrorMessage = n.ErrorMessage
		node.Result = n.Result
		node.History = n.History
		g.Nodes[n.ID] = node
	}
	for _, e := range doc.Edges {
		edge := domaingraph.NewEdge(e.FromNodeID, e.FromPort, e.ToNodeID, e.ToPort)
		g.Edges[edge.ID] = edge
	}
	return g
}

func (r *GraphRepository) Get(ctx context.Context, graphID string) (*domaingraph.Graph, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT document FROM graphs WHERE id = $1`, graphID).Scan(&raw)
	if err == pgx.ErrNoRows {
		return nil, pkgerrors.NotFound("graph", graphID)
	}
	if err != nil {
		return nil, err
	}

	var doc graphDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return fromDoc(doc), nil
}

func (r *GraphRepository) Save(ctx context.Context, g *domaingraph.Graph) error {
	g.UpdatedAt = time.Now()
	raw, err := json.Marshal(toDoc(g))
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO graphs (id, document, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = now()
	`, g.ID, raw)
	if err != nil {
		return err
	}

	if r.bus != nil {
		for _, e := range g.Events() {
			_ = r.bus.PublishSync(ctx, e)
		}
	}
	g.ClearEvents()
	return nil
}
