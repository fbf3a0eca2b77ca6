// Package graph defines the canonical diagram representation.
//
// Every format importer produces a [Graph], the layout engine positions one,
// and every exporter consumes one. Nothing in this package knows about a
// particular file format.
//
// # Core Types
//
//   - [Graph]: ordered nodes and edges plus an optional flow [Direction]
//   - [Node]: a shape, or a cluster boundary when Subgraph is set
//   - [Edge]: a directed connection with a route polyline and [EdgeData]
//   - [Style]: fill, stroke, font, padding, image and arrow properties kept
//     for export fidelity
//
// # Identity
//
// Node ids are unique within a graph. Edges refer to nodes twice over: by
// human label (EdgeData.Source/Target) and, once resolved, by id
// (EdgeData.SourceID/TargetID). [Graph.ResolveEndpoints] fills whichever
// half is missing.
//
// # Clusters
//
// Clusters are ordinary nodes with Subgraph set. Members point at their
// cluster through ParentID, and clusters nest the same way. [Validate]
// rejects a ParentID relation that is not a forest.
//
// # Serialization
//
// The native "json" format is the Graph itself:
//
//	{
//	  "direction": "TB",
//	  "nodes": [{"id": "a", "label": "A", "x": 0, "y": 0, "width": 100, "height": 40}],
//	  "edges": [{"id": "e1", "data": {"source": "A", "target": "B"}}]
//	}
//
// Common operations:
//
//	g, _ := graph.ReadGraphFile("diagram.json")
//	graph.WriteGraphFile(g, "output.json")
//	data, _ := graph.MarshalGraph(g)
//	bin, _ := graph.MarshalBinary(g) // msgpack, used for cache payloads
//
// All values are plain data. Functions in this package never retain their
// arguments, so graphs can be processed concurrently without locking.
package graph
