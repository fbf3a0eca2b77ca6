package dag

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] and [DAG.AddCluster]
	// when the ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [DAG.AddNode] and [DAG.AddCluster]
	// when a node or cluster with the same ID already exists.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrDuplicateEdgeID is returned by [DAG.AddEdge] when an edge with the
	// same ID already exists.
	ErrDuplicateEdgeID = errors.New("duplicate edge ID")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrUnknownCluster is returned when a node or cluster names a parent
	// cluster that was never added.
	ErrUnknownCluster = errors.New("unknown cluster")

	// ErrInvalidEdgeEndpoint is returned by [DAG.Validate] when an edge
	// references a node that doesn't exist.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrNonConsecutiveRows is returned by [DAG.Validate] when an edge
	// connects nodes that are not in adjacent rows (From.Row+1 != To.Row).
	ErrNonConsecutiveRows = errors.New("edges must connect consecutive rows")

	// ErrGraphHasCycle is returned by [DAG.Validate] when a directed cycle
	// remains. Cycles are detected using depth-first search with
	// white/gray/black coloring.
	ErrGraphHasCycle = errors.New("graph contains a cycle")

	// ErrClusterCycle is returned by [DAG.CheckClusters] when the cluster
	// parent relation is not a forest.
	ErrClusterCycle = errors.New("cyclic cluster containment")
)

// NodeKind distinguishes original vertices from the virtual nodes that
// subdivide long edges.
type NodeKind int

const (
	// NodeKindRegular is a vertex of the input diagram.
	NodeKindRegular NodeKind = iota
	// NodeKindVirtual is a bend point inserted where an edge crosses a row.
	// EdgeID names the edge it belongs to.
	NodeKindVirtual
)

// Node is a vertex with a row assignment, a size and, once laid out, a
// center position.
type Node struct {
	ID      string
	Row     int
	Width   float64
	Height  float64
	Cluster string // innermost containing cluster, empty at top level

	Kind   NodeKind
	EdgeID string // original edge of a virtual node

	X, Y float64 // center, set by layout
}

// IsVirtual reports whether the node was inserted to subdivide an edge.
func (n Node) IsVirtual() bool { return n.Kind == NodeKindVirtual }

// Edge is a directed connection. Several edges may join the same pair of
// nodes; the ID tells them apart.
type Edge struct {
	ID   string
	From string
	To   string

	// Reversed marks an edge flipped to break a cycle. Its route is read
	// back in the original direction.
	Reversed bool
}

// Cluster is a compound parent. Its bounds are set by layout, as a
// top-left corner plus size.
type Cluster struct {
	ID     string
	Parent string

	X, Y, Width, Height float64
}

// DAG is a compound multigraph organized in rows. It is the working
// structure of the layered layout: parallel edges are kept, nodes may sit
// inside nested clusters, and after subdivision every edge joins two
// consecutive rows.
//
// Node, edge and cluster iteration follows insertion order, so results are
// deterministic for a given construction sequence.
//
// The zero value is not usable - use New to create a valid DAG instance.
// DAG is not safe for concurrent use without external synchronization.
type DAG struct {
	nodes    map[string]*Node
	order    []*Node
	edges    []Edge
	outgoing map[string][]string // nodeID -> child IDs, one entry per edge
	incoming map[string][]string // nodeID -> parent IDs, one entry per edge
	rows     map[int][]*Node

	clusters     map[string]*Cluster
	clusterOrder []*Cluster
}

// New creates an empty DAG.
func New() *DAG {
	return &DAG{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		rows:     make(map[int][]*Node),
		clusters: make(map[string]*Cluster),
	}
}

// AddCluster registers a compound parent. Parents may be added after their
// children; [DAG.CheckClusters] verifies the relation once the graph is
// complete.
func (d *DAG) AddCluster(c Cluster) error {
	if c.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := d.clusters[c.ID]; exists {
		return ErrDuplicateNodeID
	}
	if _, exists := d.nodes[c.ID]; exists {
		return ErrDuplicateNodeID
	}
	cl := &c
	d.clusters[c.ID] = cl
	d.clusterOrder = append(d.clusterOrder, cl)
	return nil
}

// Cluster returns the cluster with the given ID.
func (d *DAG) Cluster(id string) (*Cluster, bool) {
	c, ok := d.clusters[id]
	return c, ok
}

// Clusters returns all clusters in insertion order.
func (d *DAG) Clusters() []*Cluster { return slices.Clone(d.clusterOrder) }

// ClusterPath returns the clusters enclosing a node or cluster, outermost
// first. It assumes [DAG.CheckClusters] has passed.
func (d *DAG) ClusterPath(cluster string) []string {
	var path []string
	for c := cluster; c != ""; {
		path = append(path, c)
		cl, ok := d.clusters[c]
		if !ok {
			break
		}
		c = cl.Parent
	}
	slices.Reverse(path)
	return path
}

// CommonCluster returns the innermost cluster containing both a and b, or
// the empty string when only the root does.
func (d *DAG) CommonCluster(a, b string) string {
	pa, pb := d.ClusterPath(a), d.ClusterPath(b)
	var common string
	for i := 0; i < len(pa) && i < len(pb) && pa[i] == pb[i]; i++ {
		common = pa[i]
	}
	return common
}

// CheckClusters verifies that every cluster reference resolves and that
// the parent relation has no cycles.
func (d *DAG) CheckClusters() error {
	for _, n := range d.order {
		if _, ok := d.clusters[n.Cluster]; n.Cluster != "" && !ok {
			return fmt.Errorf("%w %q (node %q)", ErrUnknownCluster, n.Cluster, n.ID)
		}
	}

	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(d.clusters))
	for _, c := range d.clusterOrder {
		var chain []string
		for id := c.ID; id != "" && color[id] != black; {
			if color[id] == gray {
				return fmt.Errorf("%w at %q", ErrClusterCycle, id)
			}
			color[id] = gray
			chain = append(chain, id)
			cl, ok := d.clusters[id]
			if !ok {
				return fmt.Errorf("%w %q", ErrUnknownCluster, id)
			}
			id = cl.Parent
		}
		for _, id := range chain {
			color[id] = black
		}
	}
	return nil
}

// AddNode adds a node and indexes it by its Row.
func (d *DAG) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := d.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if _, exists := d.clusters[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	node := &n
	d.nodes[node.ID] = node
	d.order = append(d.order, node)
	d.rows[node.Row] = append(d.rows[node.Row], node)
	return nil
}

// SetRows updates the row assignments for nodes and rebuilds the row
// index. Nodes not present in the rows map retain their current row.
func (d *DAG) SetRows(rows map[string]int) {
	d.rows = make(map[int][]*Node)
	for _, n := range d.order {
		if newRow, ok := rows[n.ID]; ok {
			n.Row = newRow
		}
		d.rows[n.Row] = append(d.rows[n.Row], n)
	}
}

// SetRowOrder replaces the left-to-right order of a row. ids must be a
// permutation of the row's current members.
func (d *DAG) SetRowOrder(row int, ids []string) {
	nodes := make([]*Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := d.nodes[id]; ok && n.Row == row {
			nodes = append(nodes, n)
		}
	}
	d.rows[row] = nodes
}

// AddEdge adds a directed edge between two existing nodes. An empty ID is
// replaced by a generated one.
func (d *DAG) AddEdge(e Edge) error {
	if _, ok := d.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := d.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if e.ID == "" {
		e.ID = fmt.Sprintf("%s->%s#%d", e.From, e.To, len(d.edges))
	}
	if _, ok := d.edgeIndex(e.ID); ok {
		return ErrDuplicateEdgeID
	}
	d.edges = append(d.edges, e)
	d.outgoing[e.From] = append(d.outgoing[e.From], e.To)
	d.incoming[e.To] = append(d.incoming[e.To], e.From)
	return nil
}

func (d *DAG) edgeIndex(id string) (int, bool) {
	i := slices.IndexFunc(d.edges, func(e Edge) bool { return e.ID == id })
	return i, i >= 0
}

// Edge returns the edge with the given ID.
func (d *DAG) Edge(id string) (Edge, bool) {
	if i, ok := d.edgeIndex(id); ok {
		return d.edges[i], true
	}
	return Edge{}, false
}

// RemoveEdge removes the edge with the given ID. Parallel edges between the
// same nodes are left in place.
func (d *DAG) RemoveEdge(id string) {
	i, ok := d.edgeIndex(id)
	if !ok {
		return
	}
	e := d.edges[i]
	d.edges = slices.Delete(d.edges, i, i+1)
	d.outgoing[e.From] = deleteOne(d.outgoing[e.From], e.To)
	d.incoming[e.To] = deleteOne(d.incoming[e.To], e.From)
}

// ReverseEdge flips the direction of the edge with the given ID and toggles
// its Reversed flag.
func (d *DAG) ReverseEdge(id string) {
	i, ok := d.edgeIndex(id)
	if !ok {
		return
	}
	e := d.edges[i]
	d.outgoing[e.From] = deleteOne(d.outgoing[e.From], e.To)
	d.incoming[e.To] = deleteOne(d.incoming[e.To], e.From)
	e.From, e.To, e.Reversed = e.To, e.From, !e.Reversed
	d.outgoing[e.From] = append(d.outgoing[e.From], e.To)
	d.incoming[e.To] = append(d.incoming[e.To], e.From)
	d.edges[i] = e
}

func deleteOne(s []string, v string) []string {
	if i := slices.Index(s, v); i >= 0 {
		return slices.Delete(s, i, i+1)
	}
	return s
}

// Nodes returns all nodes in insertion order. The returned slice contains
// pointers to the actual node structs, so modifications affect the graph.
func (d *DAG) Nodes() []*Node { return slices.Clone(d.order) }

// Edges returns a copy of all edges in insertion order.
func (d *DAG) Edges() []Edge { return slices.Clone(d.edges) }

// NodeCount returns the number of nodes in the graph.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges in the graph.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// Children returns the targets of the node's outgoing edges, once per
// edge. The returned slice should not be modified.
func (d *DAG) Children(id string) []string { return d.outgoing[id] }

// Parents returns the sources of the node's incoming edges, once per edge.
// The returned slice should not be modified.
func (d *DAG) Parents(id string) []string { return d.incoming[id] }

// OutDegree returns the number of outgoing edges from the node.
func (d *DAG) OutDegree(id string) int { return len(d.outgoing[id]) }

// InDegree returns the number of incoming edges to the node.
func (d *DAG) InDegree(id string) int { return len(d.incoming[id]) }

// Node returns the node with the given ID and true, or nil and false if
// not found.
func (d *DAG) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// NodesInRow returns the nodes of a row in their current left-to-right
// order. The slice contains pointers to the actual nodes.
func (d *DAG) NodesInRow(row int) []*Node { return d.rows[row] }

// RowCount returns the number of distinct rows.
func (d *DAG) RowCount() int { return len(d.rows) }

// RowIDs returns all row indices in ascending order.
func (d *DAG) RowIDs() []int {
	return slices.Sorted(maps.Keys(d.rows))
}

// MaxRow returns the highest row index, or 0 if the graph is empty.
func (d *DAG) MaxRow() int {
	if len(d.rows) == 0 {
		return 0
	}
	rowIDs := d.RowIDs()
	return rowIDs[len(rowIDs)-1]
}

// Sources returns nodes with no incoming edges, in insertion order.
func (d *DAG) Sources() []*Node {
	var sources []*Node
	for _, n := range d.order {
		if len(d.incoming[n.ID]) == 0 {
			sources = append(sources, n)
		}
	}
	return sources
}

// Validate checks graph integrity and returns nil if valid.
// It verifies two constraints:
//
//  1. All edges connect existing nodes in consecutive rows (From.Row+1 == To.Row)
//  2. The graph is acyclic (no directed cycles exist)
//
// Cycle detection runs in O(N+E) time using depth-first search.
func (d *DAG) Validate() error {
	if err := d.validateEdgeConsistency(); err != nil {
		return err
	}
	return d.detectCycles()
}

func (d *DAG) validateEdgeConsistency() error {
	for _, e := range d.edges {
		src, okS := d.nodes[e.From]
		dst, okD := d.nodes[e.To]
		if !okS || !okD {
			return ErrInvalidEdgeEndpoint
		}
		if dst.Row != src.Row+1 {
			return ErrNonConsecutiveRows
		}
	}
	return nil
}

func (d *DAG) detectCycles() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(d.nodes))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range d.outgoing[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
				return
			}
		}
		color[id] = black
	}

	for _, n := range d.order {
		if color[n.ID] == white {
			dfs(n.ID)
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}

// PosMap creates a position lookup map from a slice of node IDs.
func PosMap(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}

// NodeIDs extracts the ID from each node in a slice.
func NodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
