// Package pkg provides the core libraries for diagramkit.
//
// # Overview
//
// Diagramkit reads diagrams written for one tool and writes them for
// another. Every format is decoded into one canonical graph, optionally laid
// out, and encoded again:
//
//	DOT / Mermaid / draw.io / Excalidraw / JSON
//	         ↓
//	    [format] importers
//	         ↓
//	    [graph] canonical graph (nodes, edges, clusters, geometry)
//	         ↓
//	    [layout] positions and edge routes (optional)
//	         ↓
//	    [format] exporters
//
// # Quick Start
//
// Convert a Mermaid flowchart into a positioned Excalidraw scene:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/diagramkit/pkg/format"
//	    _ "github.com/matzehuels/diagramkit/pkg/format/all"
//	    "github.com/matzehuels/diagramkit/pkg/layout"
//	)
//
//	g, _ := format.Import(format.Mermaid, src)
//	g, _ = layout.Layout(context.Background(), g, layout.DefaultOptions())
//	out, _ := format.Export(format.Excalidraw, g)
//
// # Main Packages
//
// ## Model
//
// [graph] - The canonical graph: nodes with shapes, styles and optional
// geometry, edges with routes and arrowheads, and clusters expressed as
// subgraph nodes that other nodes name as their parent.
//
// [geometry] - Points, rectangles, shape outlines and edge binding
// arithmetic shared by the formats and the layout engines.
//
// [errors] - Coded errors. Parse errors carry the position of the problem.
//
// ## Formats
//
// [format] - The codec registry with format detection. Subpackages
// implement DOT, Mermaid flowcharts, draw.io (plain and compressed) and
// Excalidraw; [format/all] registers every one of them.
//
// ## Layout
//
// [dag] - Layered DAG with crossing counts used by the layered engine.
//
// [layout] - Compound graph layout. Engines: layered (Sugiyama style),
// constraint (iterative) and graphviz (through go-graphviz).
//
// ## Orchestration
//
// [pipeline] - Import → layout → export with caching and concurrent batches.
// Shared by the CLI and the HTTP server.
//
// [cache] - Null, file and Redis caches with TTLs and key derivation.
//
// [observability] - Hooks for pipeline, cache and HTTP metrics.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/layout/...             # Specific package
//	go test -run Example ./pkg/...       # Examples only
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/diagramkit/pkg/graph
// [geometry]: https://pkg.go.dev/github.com/matzehuels/diagramkit/pkg/geometry
// [errors]: https://pkg.go.dev/github.com/matzehuels/diagramkit/pkg/errors
// [format]: https://pkg.go.dev/github.com/matzehuels/diagramkit/pkg/format
// [format/all]: https://pkg.go.dev/github.com/matzehuels/diagramkit/pkg/format/all
// [dag]: https://pkg.go.dev/github.com/matzehuels/diagramkit/pkg/dag
// [layout]: https://pkg.go.dev/github.com/matzehuels/diagramkit/pkg/layout
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/diagramkit/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/diagramkit/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/diagramkit/pkg/observability
package pkg
