package graph

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/diagramkit/pkg/errors"
)

func clustered() Graph {
	return Graph{
		Nodes: []Node{
			{ID: "c0", Label: "cluster0", Subgraph: true},
			{ID: "a", Label: "A", ParentID: "c0"},
			{ID: "b", Label: "B", ParentID: "c0"},
			{ID: "c", Label: "C"},
		},
		Edges: []Edge{
			{ID: "e1", Data: EdgeData{Source: "A", Target: "B", SourceID: "a", TargetID: "b"}},
			{ID: "e2", Data: EdgeData{Source: "B", Target: "C", SourceID: "b", TargetID: "c"}},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(g *Graph)
		wantErr bool
		check   func(t *testing.T, re *errors.ReferentialError)
	}{
		{
			name:   "Valid",
			mutate: func(g *Graph) {},
		},
		{
			name: "LabelOnlyEdge",
			mutate: func(g *Graph) {
				g.Edges = append(g.Edges, Edge{ID: "e3", Data: EdgeData{Source: "X", Target: "Y"}})
			},
		},
		{
			name: "MissingTarget",
			mutate: func(g *Graph) {
				g.Edges[1].Data.TargetID = "zz"
			},
			wantErr: true,
			check: func(t *testing.T, re *errors.ReferentialError) {
				if re.EdgeID != "e2" || re.MissingNodeID != "zz" {
					t.Errorf("got edge %q missing %q, want e2/zz", re.EdgeID, re.MissingNodeID)
				}
			},
		},
		{
			name: "MissingParent",
			mutate: func(g *Graph) {
				g.Nodes[3].ParentID = "nope"
			},
			wantErr: true,
			check: func(t *testing.T, re *errors.ReferentialError) {
				if re.NodeID != "c" || re.MissingNodeID != "nope" {
					t.Errorf("got node %q missing %q, want c/nope", re.NodeID, re.MissingNodeID)
				}
			},
		},
		{
			name: "DuplicateID",
			mutate: func(g *Graph) {
				g.Nodes = append(g.Nodes, Node{ID: "a"})
			},
			wantErr: true,
			check: func(t *testing.T, re *errors.ReferentialError) {
				if !re.Duplicate {
					t.Error("Duplicate = false, want true")
				}
			},
		},
		{
			name: "ParentCycle",
			mutate: func(g *Graph) {
				g.Nodes = append(g.Nodes,
					Node{ID: "c1", Subgraph: true, ParentID: "c2"},
					Node{ID: "c2", Subgraph: true, ParentID: "c1"},
				)
			},
			wantErr: true,
			check: func(t *testing.T, re *errors.ReferentialError) {
				if !re.Cycle {
					t.Error("Cycle = false, want true")
				}
			},
		},
		{
			name: "SelfParent",
			mutate: func(g *Graph) {
				g.Nodes[0].ParentID = "c0"
			},
			wantErr: true,
		},
		{
			name: "NestedClusters",
			mutate: func(g *Graph) {
				g.Nodes = append(g.Nodes, Node{ID: "outer", Subgraph: true})
				g.Nodes[0].ParentID = "outer"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := clustered()
			tt.mutate(&g)
			err := Validate(g)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			var re *errors.ReferentialError
			if !stderrors.As(err, &re) {
				t.Fatalf("error %T is not *ReferentialError", err)
			}
			if tt.check != nil {
				tt.check(t, re)
			}
		})
	}
}

func TestResolveEndpoints(t *testing.T) {
	g := Graph{
		Nodes: []Node{{ID: "n1", Label: "Alpha"}, {ID: "n2"}},
		Edges: []Edge{
			{ID: "e1", Data: EdgeData{Source: "Alpha", Target: "n2"}},
			{ID: "e2", Data: EdgeData{SourceID: "n2", TargetID: "n1"}},
		},
	}

	got := g.ResolveEndpoints()

	if d := got.Edges[0].Data; d.SourceID != "n1" || d.TargetID != "n2" {
		t.Errorf("e1 ids = %q→%q, want n1→n2", d.SourceID, d.TargetID)
	}
	if d := got.Edges[1].Data; d.Source != "n2" || d.Target != "Alpha" {
		t.Errorf("e2 labels = %q→%q, want n2→Alpha", d.Source, d.Target)
	}
	if g.Edges[0].Data.SourceID != "" {
		t.Error("ResolveEndpoints modified the receiver")
	}
}

func TestCloneIsDeep(t *testing.T) {
	g := clustered()
	g.Nodes[0].Style = &Style{Fill: &Fill{Color: "#fff"}}
	g.Edges[0].Points = []Point{{X: 1, Y: 2}}

	c := g.Clone()
	c.Nodes[0].Style.Fill.Color = "#000"
	c.Edges[0].Points[0].X = 99

	if g.Nodes[0].Style.Fill.Color != "#fff" {
		t.Error("clone shares style with original")
	}
	if g.Edges[0].Points[0].X != 1 {
		t.Error("clone shares points with original")
	}
}

func TestDepthAndChildren(t *testing.T) {
	g := clustered()
	g.Nodes = append(g.Nodes, Node{ID: "outer", Subgraph: true})
	g.Nodes[0].ParentID = "outer"

	if d := g.Depth("a"); d != 2 {
		t.Errorf("Depth(a) = %d, want 2", d)
	}
	if d := g.Depth("c"); d != 0 {
		t.Errorf("Depth(c) = %d, want 0", d)
	}
	if n := len(g.Children("c0")); n != 2 {
		t.Errorf("len(Children(c0)) = %d, want 2", n)
	}
	if n := len(g.Clusters()); n != 2 {
		t.Errorf("len(Clusters()) = %d, want 2", n)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	g := clustered()
	g.Direction = DirectionLR
	g.Nodes[1].Style = &Style{Stroke: &Stroke{Color: "#333", Dash: DashDashed}}

	data, err := MarshalGraph(g)
	if err != nil {
		t.Fatalf("MarshalGraph: %v", err)
	}
	got, err := UnmarshalGraph(data)
	if err != nil {
		t.Fatalf("UnmarshalGraph: %v", err)
	}

	if got.Direction != DirectionLR {
		t.Errorf("Direction = %q, want LR", got.Direction)
	}
	if got.NodeCount() != 4 || got.EdgeCount() != 2 {
		t.Errorf("got %d nodes %d edges, want 4/2", got.NodeCount(), got.EdgeCount())
	}
	if got.Nodes[1].Style == nil || got.Nodes[1].Style.Stroke.Dash != DashDashed {
		t.Error("style lost in round trip")
	}
}

func TestUnmarshalGraphErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		kind errors.ParseErrorKind
	}{
		{"Syntax", `{"nodes": [}`, errors.Syntax},
		{"Type", `{"nodes": 3}`, errors.UnexpectedToken},
		{"Truncated", `{"nodes": [`, errors.Truncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalGraph([]byte(tt.in))
			var pe *errors.ParseError
			if !stderrors.As(err, &pe) {
				t.Fatalf("error = %v, want *ParseError", err)
			}
			if pe.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", pe.Kind, tt.kind)
			}
		})
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	g := clustered()
	g.Edges[0].Points = []Point{{X: 1, Y: 2}, {X: 3, Y: 4}}

	data, err := MarshalBinary(g)
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	got, err := UnmarshalBinary(data)
	if err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}

	if got.NodeCount() != g.NodeCount() || got.EdgeCount() != g.EdgeCount() {
		t.Fatalf("counts = %d/%d, want %d/%d", got.NodeCount(), got.EdgeCount(), g.NodeCount(), g.EdgeCount())
	}
	if got.Nodes[1].ParentID != "c0" || !got.Nodes[0].Subgraph {
		t.Error("cluster membership lost")
	}
	if len(got.Edges[0].Points) != 2 || got.Edges[0].Points[1].Y != 4 {
		t.Errorf("points = %v", got.Edges[0].Points)
	}
}

func TestGraphFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g.json")
	if err := WriteGraphFile(clustered(), path); err != nil {
		t.Fatalf("WriteGraphFile: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(raw, []byte(`"parentId": "c0"`)) {
		t.Errorf("file missing parentId:\n%s", raw)
	}
	g, err := ReadGraphFile(path)
	if err != nil {
		t.Fatalf("ReadGraphFile: %v", err)
	}
	if g.NodeCount() != 4 {
		t.Errorf("NodeCount() = %d, want 4", g.NodeCount())
	}
}

func TestBoundsAndTranslate(t *testing.T) {
	g := Graph{Nodes: []Node{
		{ID: "a", X: 10, Y: 20, Width: 100, Height: 40},
		{ID: "b", X: 200, Y: 20, Width: 50, Height: 50},
	}}

	b := g.Bounds()
	if b.MinX != 10 || b.MaxX != 250 || b.MinY != 20 || b.MaxY != 70 {
		t.Errorf("Bounds() = %+v", b)
	}

	moved := g.Translate(-10, -20)
	if moved.Nodes[0].X != 0 || moved.Nodes[0].Y != 0 {
		t.Errorf("translated origin = (%v, %v), want (0, 0)", moved.Nodes[0].X, moved.Nodes[0].Y)
	}
	if g.Nodes[0].X != 10 {
		t.Error("Translate modified the receiver")
	}

	if !(Graph{}).Bounds().Empty() {
		t.Error("empty graph bounds not empty")
	}
	if (Graph{Nodes: []Node{{ID: "x"}}}).HasPositions() {
		t.Error("HasPositions() = true for unpositioned graph")
	}
}
