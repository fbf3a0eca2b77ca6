// Package transform prepares a [dag.DAG] for layered layout.
//
// # Overview
//
// Diagrams arrive with cycles, edges of arbitrary length and no notion of
// rows. The layered engines need the opposite: an acyclic graph whose
// edges each join two consecutive rows. [Normalize] runs the steps in
// order:
//
//  1. [BreakCycles] reverses DFS back edges and marks them Reversed
//  2. [AssignLayers] puts every node one row below its deepest parent
//  3. [RelaxLayers] optionally pulls nodes toward their neighbours
//  4. [Subdivide] inserts a virtual node wherever an edge crosses a row
//
// # Cycle Breaking
//
// Reversal rather than removal keeps every edge of the diagram: a reversed
// edge is laid out pointing down and its route is flipped back afterwards.
// Parallel edges in opposite directions are handled one edge at a time, so
// a↔b ends up as two downward edges of which one is reversed. Self-loops
// are left alone; they have no row span to reverse.
//
// # Subdivision
//
// Virtual nodes are named after their edge:
//
//	Before: api (row 0) -e1-> db (row 3)
//	After:  api -> e1~1 -> e1~2 -> db
//
// They inherit the innermost cluster shared by both endpoints, which keeps
// a cluster's members contiguous when rows are ordered.
package transform
