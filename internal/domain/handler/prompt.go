package handler

import (
	"context"
	"strings"

	"github.com/duragraph/mediagraph/internal/domain/graph"
	"github.com/duragraph/mediagraph/internal/domain/media"
)

// assemblePrompt builds the effective prompt a handler sends to its
// backend: the graph's canvas memory as a "Context:" prefix if non-empty,
// the joined text of every upstream text result, then the node's own
// prompt. Any segment that ends up empty is dropped rather than leaving a
// stray blank line.
func assemblePrompt(canvasMemory string, upstreamTexts []string, nodePrompt string) string {
	var parts []string
	if canvasMemory != "" {
		parts = append(parts, "Context: "+canvasMemory)
	}
	if joined := strings.Join(upstreamTexts, "\n\n"); joined != "" {
		parts = append(parts, joined)
	}
	if nodePrompt != "" {
		parts = append(parts, nodePrompt)
	}
	return strings.Join(parts, "\n\n")
}

// enrichPrompt runs the optional enrichment pass for a node: it asks the
// text backend to expand/polish the assembled prompt and returns the
// enriched text. The caller is responsible for recording the
// pre-enrichment prompt as OriginalPrompt when this path is taken.
func enrichPrompt(ctx context.Context, backend Backend, provider, assembled string) (string, error) {
	enriched, err := backend.GenerateText(ctx, TextGenRequest{
		Provider: provider,
		Prompt:   "Expand this into a detailed, vivid generation prompt, output only the prompt text:\n\n" + assembled,
	})
	if err != nil {
		return assembled, err
	}
	enriched = strings.TrimSpace(enriched)
	if enriched == "" {
		return assembled, nil
	}
	return enriched, nil
}

// snapshotParams copies a node's params bag so a MediaResult's recorded
// params can't drift if the node's params are edited after generation.
func snapshotParams(n *graph.Node) map[string]interface{} {
	if len(n.Params) == 0 {
		return nil
	}
	snap := make(map[string]interface{}, len(n.Params))
	for k, v := range n.Params {
		snap[k] = v
	}
	return snap
}

// Deps bundles a handler's external collaborators. Deps is passed to every
// Handler.Handle call rather than threaded through individual parameters so
// that adding a new collaborator doesn't change every handler's signature.
type Deps struct {
	Backend Backend
	Store   BlobStore
}

// Handler executes one node: it resolves the prompt, calls its backend,
// uploads the result, and returns a MediaResult ready to attach to the
// node.
type Handler interface {
	Handle(ctx context.Context, g *graph.Graph, node *graph.Node, deps Deps) (*media.MediaResult, error)
}
