package pipeline

import (
	"context"

	"github.com/matzehuels/diagramkit/pkg/format"
	"github.com/matzehuels/diagramkit/pkg/graph"
)

// Summary describes an imported diagram.
type Summary struct {
	Format    format.Format   `json:"format"`
	Direction graph.Direction `json:"direction,omitempty"`
	Nodes     int             `json:"nodes"`
	Edges     int             `json:"edges"`
	Clusters  []ClusterInfo   `json:"clusters"`

	// Isolated counts non-cluster nodes without any edge.
	Isolated int `json:"isolated"`

	// MaxDepth is the deepest cluster nesting of any node.
	MaxDepth int `json:"max_depth"`

	Positioned bool    `json:"positioned"`
	Width      float64 `json:"width,omitempty"`
	Height     float64 `json:"height,omitempty"`
}

// ClusterInfo describes one subgraph node.
type ClusterInfo struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Parent  string `json:"parent,omitempty"`
	Members int    `json:"members"`
}

// Inspect imports data and summarizes it. An empty f means detect from
// filename and content.
func Inspect(ctx context.Context, f format.Format, filename string, data []byte) (Summary, error) {
	req := Request{From: f, Filename: filename, Data: data}
	if err := req.normalize(); err != nil {
		return Summary{}, err
	}
	g, err := Import(ctx, req.From, data)
	if err != nil {
		return Summary{}, err
	}
	s := Summarize(g)
	s.Format = req.From
	return s, nil
}

// Summarize computes the statistics of g.
func Summarize(g graph.Graph) Summary {
	s := Summary{
		Direction: g.Direction,
		Nodes:     g.NodeCount(),
		Edges:     g.EdgeCount(),
		Clusters:  []ClusterInfo{},
	}

	members := make(map[string]int)
	for _, n := range g.Nodes {
		if n.ParentID != "" {
			members[n.ParentID]++
		}
	}
	for _, c := range g.Clusters() {
		s.Clusters = append(s.Clusters, ClusterInfo{
			ID:      c.ID,
			Label:   c.DisplayLabel(),
			Parent:  c.ParentID,
			Members: members[c.ID],
		})
	}

	connected := make(map[string]bool)
	for _, e := range g.ResolveEndpoints().Edges {
		connected[e.Data.SourceID] = true
		connected[e.Data.TargetID] = true
	}
	for _, n := range g.Nodes {
		if !n.Subgraph && !connected[n.ID] {
			s.Isolated++
		}
		s.MaxDepth = max(s.MaxDepth, g.Depth(n.ID))
	}

	if g.HasPositions() {
		s.Positioned = true
		if b := g.Bounds(); !b.Empty() {
			s.Width, s.Height = b.Width(), b.Height()
		}
	}
	return s
}
