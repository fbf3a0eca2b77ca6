package transform

import "github.com/matzehuels/diagramkit/pkg/dag"

// BreakCycles makes g acyclic by reversing every DFS back edge, and returns
// the number of edges reversed. Reversed edges carry [dag.Edge.Reversed] so
// their routes can be flipped back after layout.
//
// The search starts from the sources in insertion order and then from any
// node still unvisited, so the result is deterministic. Self-loops cannot
// be broken by reversal; callers remove them beforehand.
func BreakCycles(g *dag.DAG) int {
	const (
		white = iota
		gray
		black
	)

	out := make(map[string][]dag.Edge)
	for _, e := range g.Edges() {
		out[e.From] = append(out[e.From], e)
	}

	color := make(map[string]int)
	var backEdges []string

	var dfs func(node string)
	dfs = func(node string) {
		color[node] = gray
		for _, e := range out[node] {
			switch color[e.To] {
			case white:
				dfs(e.To)
			case gray:
				if e.To != node {
					backEdges = append(backEdges, e.ID)
				}
			}
		}
		color[node] = black
	}

	for _, n := range g.Sources() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}
	for _, n := range g.Nodes() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}

	for _, id := range backEdges {
		g.ReverseEdge(id)
	}
	return len(backEdges)
}
