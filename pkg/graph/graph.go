package graph

import (
	"slices"

	"github.com/matzehuels/diagramkit/pkg/errors"
)

// NodeCount returns the number of nodes, clusters included.
func (g Graph) NodeCount() int { return len(g.Nodes) }

// EdgeCount returns the number of edges.
func (g Graph) EdgeCount() int { return len(g.Edges) }

// Index builds an id → slice position lookup. The map is fresh on every
// call; callers own it.
func (g Graph) Index() map[string]int {
	m := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		m[n.ID] = i
	}
	return m
}

// Node returns the node with the given id.
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Clusters returns the nodes flagged as subgraphs, in graph order.
func (g Graph) Clusters() []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.Subgraph {
			out = append(out, n)
		}
	}
	return out
}

// Children returns the nodes whose ParentID equals parentID, in graph order.
// An empty parentID returns the top-level nodes.
func (g Graph) Children(parentID string) []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.ParentID == parentID {
			out = append(out, n)
		}
	}
	return out
}

// Depth returns how many clusters enclose the node with the given id.
// It stops at len(g.Nodes) steps so that a cyclic parent chain cannot loop.
func (g Graph) Depth(id string) int {
	idx := g.Index()
	depth := 0
	for i := 0; i < len(g.Nodes); i++ {
		pos, ok := idx[id]
		if !ok || g.Nodes[pos].ParentID == "" {
			return depth
		}
		id = g.Nodes[pos].ParentID
		depth++
	}
	return depth
}

// Clone returns a deep copy. Styles are copied by value so the clone can be
// restyled without touching the original.
func (g Graph) Clone() Graph {
	out := Graph{
		Direction: g.Direction,
		Nodes:     slices.Clone(g.Nodes),
		Edges:     slices.Clone(g.Edges),
	}
	for i := range out.Nodes {
		out.Nodes[i].Style = out.Nodes[i].Style.clone()
	}
	for i := range out.Edges {
		out.Edges[i].Points = slices.Clone(out.Edges[i].Points)
		out.Edges[i].Style = out.Edges[i].Style.clone()
	}
	return out
}

func (s *Style) clone() *Style {
	if s == nil {
		return nil
	}
	c := *s
	if s.Fill != nil {
		f := *s.Fill
		c.Fill = &f
	}
	if s.Stroke != nil {
		st := *s.Stroke
		c.Stroke = &st
	}
	if s.Font != nil {
		f := *s.Font
		c.Font = &f
	}
	if s.Padding != nil {
		p := *s.Padding
		c.Padding = &p
	}
	if s.Image != nil {
		im := *s.Image
		c.Image = &im
	}
	if s.Arrow != nil {
		a := *s.Arrow
		c.Arrow = &a
	}
	return &c
}

// ResolveEndpoints fills missing SourceID/TargetID from the endpoint labels
// and missing labels from resolved ids. Labels are matched against node
// labels first and node ids second. The receiver is not modified.
func (g Graph) ResolveEndpoints() Graph {
	out := g.Clone()
	byID := g.Index()
	byLabel := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, seen := byLabel[n.DisplayLabel()]; !seen {
			byLabel[n.DisplayLabel()] = n.ID
		}
	}
	lookup := func(label string) string {
		if id, ok := byLabel[label]; ok {
			return id
		}
		if _, ok := byID[label]; ok {
			return label
		}
		return ""
	}
	for i := range out.Edges {
		d := &out.Edges[i].Data
		if d.SourceID == "" {
			d.SourceID = lookup(d.Source)
		}
		if d.TargetID == "" {
			d.TargetID = lookup(d.Target)
		}
		if d.Source == "" {
			if pos, ok := byID[d.SourceID]; ok {
				d.Source = g.Nodes[pos].DisplayLabel()
			}
		}
		if d.Target == "" {
			if pos, ok := byID[d.TargetID]; ok {
				d.Target = g.Nodes[pos].DisplayLabel()
			}
		}
	}
	return out
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks referential integrity and returns nil if the graph is valid.
// It verifies three constraints:
//
//  1. Node ids are unique
//  2. Every resolved edge endpoint (SourceID, TargetID) and every ParentID
//     names an existing node
//  3. The ParentID relation is a forest (no containment cycles)
//
// Violations are reported as *errors.ReferentialError. Endpoint ids that are
// still empty are not checked; an edge carrying only labels is valid.
//
// Cycle detection runs in O(N) time using depth-first search with
// white/gray/black coloring.
func Validate(g Graph) error {
	idx := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		if _, dup := idx[n.ID]; dup {
			return &errors.ReferentialError{NodeID: n.ID, MissingNodeID: n.ID, Duplicate: true}
		}
		idx[n.ID] = i
	}

	for _, n := range g.Nodes {
		if n.ParentID == "" {
			continue
		}
		if _, ok := idx[n.ParentID]; !ok {
			return &errors.ReferentialError{NodeID: n.ID, MissingNodeID: n.ParentID}
		}
	}

	for _, e := range g.Edges {
		for _, id := range []string{e.Data.SourceID, e.Data.TargetID, e.Data.ParentID} {
			if id == "" {
				continue
			}
			if _, ok := idx[id]; !ok {
				return &errors.ReferentialError{EdgeID: e.ID, MissingNodeID: id}
			}
		}
	}

	return detectParentCycles(g, idx)
}

func detectParentCycles(g Graph, idx map[string]int) error {
	const (
		white = iota
		gray
		black
	)

	color := make([]int, len(g.Nodes))
	for start := range g.Nodes {
		if color[start] != white {
			continue
		}
		// The parent relation has out-degree <= 1, so the DFS is a walk.
		var path []int
		cur := start
		for {
			if color[cur] == gray {
				return &errors.ReferentialError{NodeID: g.Nodes[cur].ID, Cycle: true}
			}
			if color[cur] == black {
				break
			}
			color[cur] = gray
			path = append(path, cur)
			parent := g.Nodes[cur].ParentID
			if parent == "" {
				break
			}
			cur = idx[parent]
		}
		for _, p := range path {
			color[p] = black
		}
	}
	return nil
}
