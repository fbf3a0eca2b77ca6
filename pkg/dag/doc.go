// Package dag provides the compound layered multigraph behind the layered
// layout engines.
//
// # Overview
//
// A [DAG] holds nodes organized into rows, directed edges that may run in
// parallel between the same pair of nodes, and clusters that nest nodes
// and other clusters. Layout builds one per call from a diagram, breaks
// its cycles, assigns rows, subdivides long edges so that every edge joins
// consecutive rows, orders each row and finally writes coordinates back
// onto the nodes and clusters.
//
// # Basic Usage
//
//	g := dag.New()
//	_ = g.AddCluster(dag.Cluster{ID: "backend"})
//	_ = g.AddNode(dag.Node{ID: "api", Cluster: "backend", Width: 100, Height: 40})
//	_ = g.AddNode(dag.Node{ID: "db", Cluster: "backend", Row: 1, Width: 100, Height: 40})
//	_ = g.AddEdge(dag.Edge{ID: "e1", From: "api", To: "db"})
//
// Query the structure with [DAG.Children], [DAG.Parents], [DAG.NodesInRow]
// and [DAG.ClusterPath]. [DAG.Validate] checks the row and acyclicity
// constraints, [DAG.CheckClusters] the cluster forest.
//
// # Node Kinds
//
//   - [NodeKindRegular]: a vertex of the input diagram
//   - [NodeKindVirtual]: a bend point inserted where a long edge crosses a
//     row; [Node.EdgeID] names the edge it belongs to
//
// # Crossings
//
// [CountCrossings] and [CountLayerCrossings] count crossings between
// consecutive rows with a Fenwick tree in O(E log V) per row pair. [Count]
// adds a breakdown: crossings that cut through a cluster and crossings
// between long edges. [CountPairCrossingsWithPos] evaluates a single
// adjacent swap.
package dag
