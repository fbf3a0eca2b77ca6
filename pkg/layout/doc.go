// Package layout assigns coordinates to diagrams.
//
// # Overview
//
// [Layout] takes a graph whose nodes may lack positions and returns a new
// graph in which every node has x, y, width and height and every edge a
// route. The input is never modified. Internally the graph becomes a
// [Compound]: one vertex per distinct label, one link per edge (parallel
// edges are kept), and clusters expressed as parent relations. A cluster
// labelled like one of its members gets a vertex of its own.
//
//	g, err := layout.Layout(ctx, imported, layout.Options{Direction: graph.DirectionLR})
//
// [FromRelations] lays out bare source/target pairs, and [FromGraph]
// accepts parent ids that name clusters without a node of their own.
//
// # Engines
//
// The engine is chosen by [Options.Engine]; call sites never change.
//
//   - layered: Sugiyama-style. Cycles are broken by reversing edges,
//     ranks come from longest paths, long edges are subdivided, rows are
//     ordered by barycenter sweeps with a transpose pass, and nodes are
//     aligned to the median of their neighbours. Sibling clusters keep one
//     left-to-right order on every rank and their boxes never overlap.
//   - constraint: same pipeline, but ranks are relaxed to shorten edges
//     and positions are found by projecting separation constraints.
//   - graphviz: graphviz's own dot layout through go-graphviz.
//
// Further engines can be added with [RegisterEngine].
//
// # Identity
//
// Output ids are SHA-1 UUIDs derived from labels, so the same input lays
// out to the same ids on every run. All lookup state is local to a call,
// which makes every function here safe for concurrent use.
package layout
