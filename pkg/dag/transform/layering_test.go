package transform

import (
	"testing"

	"github.com/matzehuels/diagramkit/pkg/dag"
)

func rows(g *dag.DAG) map[string]int {
	m := make(map[string]int, g.NodeCount())
	for _, n := range g.Nodes() {
		m[n.ID] = n.Row
	}
	return m
}

func TestAssignLayers(t *testing.T) {
	g := build(t, []string{"app", "auth", "cache", "db", "lone"}, [][3]string{
		{"e1", "app", "auth"}, {"e2", "app", "cache"}, {"e3", "auth", "db"},
		{"e4", "app", "db"}, {"e5", "auth", "db"},
	})
	AssignLayers(g)

	want := map[string]int{"app": 0, "auth": 1, "cache": 1, "db": 2, "lone": 0}
	got := rows(g)
	for id, row := range want {
		if got[id] != row {
			t.Errorf("row(%s) = %d, want %d", id, got[id], row)
		}
	}
	if g.RowCount() != 3 {
		t.Errorf("RowCount() = %d, want 3", g.RowCount())
	}
}

func TestRelaxLayers(t *testing.T) {
	// late sits on row 0 after longest-path layering but only feeds sink.
	g := build(t, []string{"a", "b", "c", "sink", "late"}, [][3]string{
		{"e1", "a", "b"}, {"e2", "b", "c"}, {"e3", "c", "sink"}, {"e4", "late", "sink"},
	})
	AssignLayers(g)
	if r := rows(g)["late"]; r != 0 {
		t.Fatalf("longest path row(late) = %d, want 0", r)
	}

	RelaxLayers(g, 8)
	got := rows(g)
	want := map[string]int{"a": 0, "b": 1, "c": 2, "sink": 3, "late": 2}
	for id, row := range want {
		if got[id] != row {
			t.Errorf("row(%s) = %d, want %d", id, got[id], row)
		}
	}
	for _, e := range g.Edges() {
		if got[e.To] <= got[e.From] {
			t.Errorf("edge %s no longer points down", e.ID)
		}
	}
}

func TestRelaxLayersZeroPasses(t *testing.T) {
	g := build(t, []string{"a", "b", "late"}, [][3]string{{"e1", "a", "b"}, {"e2", "late", "b"}})
	AssignLayers(g)
	before := rows(g)
	RelaxLayers(g, 0)
	after := rows(g)
	for id := range before {
		if before[id] != after[id] {
			t.Errorf("row(%s) changed from %d to %d", id, before[id], after[id])
		}
	}
}
