package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/diagramkit/pkg/format"
	"github.com/matzehuels/diagramkit/pkg/format/drawio"
	"github.com/matzehuels/diagramkit/pkg/graph"
	"github.com/matzehuels/diagramkit/pkg/observability"
)

// Export encodes g as format f. compress selects the compressed drawio
// page encoding and is ignored for other formats.
func Export(ctx context.Context, f format.Format, g graph.Graph, compress bool) ([]byte, error) {
	hooks := observability.Pipeline()
	hooks.OnExportStart(ctx, string(f))
	start := time.Now()

	var (
		data []byte
		err  error
	)
	if f == format.Drawio && compress {
		data, err = drawio.Exporter{Compress: true}.Export(g)
	} else {
		data, err = format.Export(f, g)
	}
	hooks.OnExportComplete(ctx, string(f), len(data), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return data, nil
}
