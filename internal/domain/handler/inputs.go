package handler

import (
	"context"

	"github.com/duragraph/mediagraph/internal/domain/graph"
	"github.com/duragraph/mediagraph/internal/domain/media"
)

// ResolvedInputs buckets a node's upstream results by medium. Text sources
// are inlined directly from the result's URL (the blob store writes a text
// result's content straight into Urls.Original to avoid a refetch); every
// other medium is fetched as bytes through the blob store.
type ResolvedInputs struct {
	Texts  []string
	Images [][]byte
	Videos [][]byte
	Audios [][]byte
}

// ResolveInputs walks every edge that terminates on node's "in" port,
// collects the upstream node's result, and buckets it by medium. A skipped
// source contributes its cached result. An upstream source that has no
// result — never executed, or failed without an earlier result — is
// silently omitted, as is a binary source whose bytes can't be read back
// from the blob store.
func ResolveInputs(ctx context.Context, g *graph.Graph, node *graph.Node, store BlobStore) (*ResolvedInputs, error) {
	in := &ResolvedInputs{}

	for _, e := range g.Edges {
		if e.ToNodeID != node.ID || e.ToPort != node.InPort.Name {
			continue
		}
		src, ok := g.Nodes[e.FromNodeID]
		if !ok || src.Result == nil {
			continue
		}

		switch src.Result.Type {
		case media.MediaTypeText:
			in.Texts = append(in.Texts, src.Result.Urls.Original)
		case media.MediaTypeImage:
			data, err := store.ReadMediaBytes(ctx, src.Result.Urls.Original)
			if err != nil {
				continue
			}
			in.Images = append(in.Images, data)
		case media.MediaTypeVideo:
			data, err := store.ReadMediaBytes(ctx, src.Result.Urls.Original)
			if err != nil {
				continue
			}
			in.Videos = append(in.Videos, data)
		case media.MediaTypeAudio:
			data, err := store.ReadMediaBytes(ctx, src.Result.Urls.Original)
			if err != nil {
				continue
			}
			in.Audios = append(in.Audios, data)
		}
	}

	return in, nil
}
