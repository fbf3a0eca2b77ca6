package transform

import (
	"testing"

	"github.com/matzehuels/diagramkit/pkg/dag"
)

func build(t *testing.T, nodes []string, edges [][3]string) *dag.DAG {
	t.Helper()
	g := dag.New()
	for _, id := range nodes {
		if err := g.AddNode(dag.Node{ID: id}); err != nil {
			t.Fatalf("AddNode(%s): %v", id, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(dag.Edge{ID: e[0], From: e[1], To: e[2]}); err != nil {
			t.Fatalf("AddEdge(%s): %v", e[0], err)
		}
	}
	return g
}

func reversed(g *dag.DAG) []string {
	var ids []string
	for _, e := range g.Edges() {
		if e.Reversed {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

func TestBreakCycles(t *testing.T) {
	tests := []struct {
		name     string
		nodes    []string
		edges    [][3]string
		want     int
		reversed []string
	}{
		{
			name:  "acyclic",
			nodes: []string{"a", "b", "c"},
			edges: [][3]string{{"e1", "a", "b"}, {"e2", "b", "c"}},
		},
		{
			name:     "two cycle",
			nodes:    []string{"a", "b"},
			edges:    [][3]string{{"e1", "a", "b"}, {"e2", "b", "a"}},
			want:     1,
			reversed: []string{"e2"},
		},
		{
			name:     "triangle",
			nodes:    []string{"a", "b", "c"},
			edges:    [][3]string{{"e1", "a", "b"}, {"e2", "b", "c"}, {"e3", "c", "a"}},
			want:     1,
			reversed: []string{"e3"},
		},
		{
			name:     "source first",
			nodes:    []string{"b", "c", "root"},
			edges:    [][3]string{{"e1", "root", "b"}, {"e2", "b", "c"}, {"e3", "c", "b"}},
			want:     1,
			reversed: []string{"e3"},
		},
		{
			name:  "self loop is skipped",
			nodes: []string{"a"},
			edges: [][3]string{{"loop", "a", "a"}},
		},
		{
			name:     "parallel back edges",
			nodes:    []string{"a", "b"},
			edges:    [][3]string{{"e1", "a", "b"}, {"e2", "b", "a"}, {"e3", "b", "a"}},
			want:     2,
			reversed: []string{"e2", "e3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, tt.nodes, tt.edges)
			if got := BreakCycles(g); got != tt.want {
				t.Errorf("BreakCycles() = %d, want %d", got, tt.want)
			}
			if g.EdgeCount() != len(tt.edges) {
				t.Errorf("EdgeCount() = %d, want %d", g.EdgeCount(), len(tt.edges))
			}
			got := reversed(g)
			if len(got) != len(tt.reversed) {
				t.Fatalf("reversed = %v, want %v", got, tt.reversed)
			}
			for i := range got {
				if got[i] != tt.reversed[i] {
					t.Errorf("reversed = %v, want %v", got, tt.reversed)
				}
			}
		})
	}
}

func TestBreakCyclesLeavesAcyclicGraph(t *testing.T) {
	g := build(t, []string{"a", "b", "c", "d"}, [][3]string{
		{"e1", "a", "b"}, {"e2", "b", "c"}, {"e3", "c", "a"},
		{"e4", "c", "d"}, {"e5", "d", "b"},
	})
	BreakCycles(g)
	AssignLayers(g)
	for _, e := range g.Edges() {
		from, _ := g.Node(e.From)
		to, _ := g.Node(e.To)
		if to.Row <= from.Row {
			t.Errorf("edge %s points up: %s(row %d) -> %s(row %d)", e.ID, e.From, from.Row, e.To, to.Row)
		}
	}
}
