package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/diagramkit/pkg/format"
	"github.com/matzehuels/diagramkit/pkg/graph"
	"github.com/matzehuels/diagramkit/pkg/observability"

	// Register the built-in formats.
	_ "github.com/matzehuels/diagramkit/pkg/format/all"
)

// Import decodes data as format f into a validated graph.
func Import(ctx context.Context, f format.Format, data []byte) (graph.Graph, error) {
	hooks := observability.Pipeline()
	hooks.OnImportStart(ctx, string(f))
	start := time.Now()

	g, err := format.Import(f, data)
	hooks.OnImportComplete(ctx, string(f), g.NodeCount(), time.Since(start), err)
	if err != nil {
		return graph.Graph{}, err
	}
	return g, nil
}

// countClusters returns the number of subgraph nodes.
func countClusters(g graph.Graph) int {
	return len(g.Clusters())
}
