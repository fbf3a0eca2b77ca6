package dag

import (
	"errors"
	"testing"
)

func mustNode(t *testing.T, g *DAG, n Node) {
	t.Helper()
	if err := g.AddNode(n); err != nil {
		t.Fatalf("AddNode(%s): %v", n.ID, err)
	}
}

func mustEdge(t *testing.T, g *DAG, e Edge) {
	t.Helper()
	if err := g.AddEdge(e); err != nil {
		t.Fatalf("AddEdge(%s): %v", e.ID, err)
	}
}

func TestAddNodeErrors(t *testing.T) {
	g := New()
	mustNode(t, g, Node{ID: "a"})
	if err := g.AddCluster(Cluster{ID: "grp"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		node Node
		want error
	}{
		{"empty", Node{}, ErrInvalidNodeID},
		{"duplicate", Node{ID: "a"}, ErrDuplicateNodeID},
		{"clashes with cluster", Node{ID: "grp"}, ErrDuplicateNodeID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := g.AddNode(tt.node); !errors.Is(err, tt.want) {
				t.Errorf("AddNode() = %v, want %v", err, tt.want)
			}
		})
	}
	if err := g.AddCluster(Cluster{ID: "a"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddCluster(a) = %v, want %v", err, ErrDuplicateNodeID)
	}
}

func TestAddEdge(t *testing.T) {
	g := New()
	mustNode(t, g, Node{ID: "a"})
	mustNode(t, g, Node{ID: "b", Row: 1})

	if err := g.AddEdge(Edge{From: "x", To: "b"}); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("unknown source: got %v", err)
	}
	if err := g.AddEdge(Edge{From: "a", To: "x"}); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("unknown target: got %v", err)
	}

	mustEdge(t, g, Edge{ID: "e1", From: "a", To: "b"})
	mustEdge(t, g, Edge{From: "a", To: "b"})
	if err := g.AddEdge(Edge{ID: "e1", From: "a", To: "b"}); !errors.Is(err, ErrDuplicateEdgeID) {
		t.Errorf("duplicate id: got %v", err)
	}

	if g.EdgeCount() != 2 {
		t.Fatalf("EdgeCount() = %d, want 2", g.EdgeCount())
	}
	if got := g.Edges()[1].ID; got != "a->b#1" {
		t.Errorf("generated ID = %q, want %q", got, "a->b#1")
	}
	if g.OutDegree("a") != 2 || g.InDegree("b") != 2 {
		t.Errorf("degrees = %d/%d, want 2/2", g.OutDegree("a"), g.InDegree("b"))
	}
}

func TestRemoveEdgeKeepsParallel(t *testing.T) {
	g := New()
	mustNode(t, g, Node{ID: "a"})
	mustNode(t, g, Node{ID: "b", Row: 1})
	mustEdge(t, g, Edge{ID: "e1", From: "a", To: "b"})
	mustEdge(t, g, Edge{ID: "e2", From: "a", To: "b"})

	g.RemoveEdge("e1")
	g.RemoveEdge("missing")

	if g.EdgeCount() != 1 {
		t.Fatalf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
	if _, ok := g.Edge("e2"); !ok {
		t.Error("e2 should survive")
	}
	if got := g.Children("a"); len(got) != 1 || got[0] != "b" {
		t.Errorf("Children(a) = %v, want [b]", got)
	}
}

func TestReverseEdge(t *testing.T) {
	g := New()
	mustNode(t, g, Node{ID: "a"})
	mustNode(t, g, Node{ID: "b", Row: 1})
	mustEdge(t, g, Edge{ID: "e1", From: "b", To: "a"})
	if err := g.Validate(); !errors.Is(err, ErrNonConsecutiveRows) {
		t.Fatalf("Validate() = %v, want %v", err, ErrNonConsecutiveRows)
	}

	g.ReverseEdge("e1")
	e, _ := g.Edge("e1")
	if e.From != "a" || e.To != "b" || !e.Reversed {
		t.Errorf("reversed edge = %+v", e)
	}
	if len(g.Parents("a")) != 0 || len(g.Children("a")) != 1 {
		t.Errorf("adjacency not updated: parents=%v children=%v", g.Parents("a"), g.Children("a"))
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	g.ReverseEdge("e1")
	if e, _ := g.Edge("e1"); e.Reversed {
		t.Error("second reversal should clear the flag")
	}
}

func TestValidateCycle(t *testing.T) {
	g := New()
	mustNode(t, g, Node{ID: "a"})
	mustNode(t, g, Node{ID: "b"})
	mustEdge(t, g, Edge{From: "a", To: "b"})
	mustEdge(t, g, Edge{From: "b", To: "a"})
	if err := g.detectCycles(); !errors.Is(err, ErrGraphHasCycle) {
		t.Errorf("detectCycles() = %v, want %v", err, ErrGraphHasCycle)
	}
}

func TestCheckClusters(t *testing.T) {
	g := New()
	for _, c := range []Cluster{{ID: "a", Parent: "b"}, {ID: "b", Parent: "c"}, {ID: "c", Parent: "a"}} {
		if err := g.AddCluster(c); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.CheckClusters(); !errors.Is(err, ErrClusterCycle) {
		t.Errorf("CheckClusters() = %v, want %v", err, ErrClusterCycle)
	}

	g = New()
	mustNode(t, g, Node{ID: "n", Cluster: "ghost"})
	if err := g.CheckClusters(); !errors.Is(err, ErrUnknownCluster) {
		t.Errorf("CheckClusters() = %v, want %v", err, ErrUnknownCluster)
	}
}

func TestRows(t *testing.T) {
	g := New()
	for _, id := range []string{"a", "b", "c"} {
		mustNode(t, g, Node{ID: id})
	}
	g.SetRows(map[string]int{"c": 2})
	if g.RowCount() != 2 || g.MaxRow() != 2 {
		t.Fatalf("RowCount()=%d MaxRow()=%d, want 2 and 2", g.RowCount(), g.MaxRow())
	}

	g.SetRowOrder(0, []string{"b", "a", "c"})
	got := NodeIDs(g.NodesInRow(0))
	if len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("row 0 = %v, want [b a]", got)
	}
	if pos := PosMap(got); pos["a"] != 1 {
		t.Errorf("PosMap(a) = %d, want 1", pos["a"])
	}
}
