package dot

import (
	stderrors "errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/graph"
)

func TestLex(t *testing.T) {
	tokens, err := Lex(`digraph { a -> "b \"q\"" [w=-1.5]; } // tail`)
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}

	want := []TokenType{
		TokenDigraph, TokenLBrace, TokenID, TokenArrow, TokenString,
		TokenLBracket, TokenID, TokenEquals, TokenNumber, TokenRBracket,
		TokenSemicolon, TokenRBrace, TokenEOF,
	}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(tokens), len(want), tokens)
	}
	for i, typ := range want {
		if tokens[i].Type != typ {
			t.Errorf("token %d = %v, want %v", i, tokens[i].Type, typ)
		}
	}
	if got := tokens[4].Value; got != `b "q"` {
		t.Errorf("string value = %q", got)
	}
	if got := tokens[8].Value; got != "-1.5" {
		t.Errorf("number value = %q", got)
	}
}

func TestLexConcatenation(t *testing.T) {
	tokens, err := Lex(`"ab" + "cd"`)
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	if tokens[0].Type != TokenString || tokens[0].Value != "abcd" {
		t.Errorf("got %+v, want folded string", tokens[0])
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  errors.ParseErrorKind
		line  int
		col   int
	}{
		{"unclosed body", "digraph {\n  a -> b", errors.Truncated, 2, 9},
		{"unterminated string", `digraph { "abc }`, errors.Truncated, 1, 11},
		{"unterminated comment", "digraph { /* x", errors.Truncated, 1, 11},
		{"bad character", "digraph { a @ b }", errors.Syntax, 1, 13},
		{"wrong edge op", "digraph { a -- b }", errors.UnexpectedToken, 1, 13},
		{"missing header", "{ a }", errors.UnexpectedToken, 1, 1},
		{"attr without value", "digraph { a [label] }", errors.UnexpectedToken, 1, 19},
		{"trailing input", "graph { } x", errors.UnexpectedToken, 1, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			var pe *errors.ParseError
			if !stderrors.As(err, &pe) {
				t.Fatalf("got %v, want *errors.ParseError", err)
			}
			if pe.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", pe.Kind, tt.kind)
			}
			if pe.Pos == nil || pe.Pos.Line != tt.line || pe.Pos.Col != tt.col {
				t.Errorf("pos = %v, want %d:%d", pe.Pos, tt.line, tt.col)
			}
		})
	}
}

func TestImportChain(t *testing.T) {
	g, err := Import([]byte(`digraph { a -> b -> c; a [label="Alpha"] }`))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if g.NodeCount() != 3 || g.EdgeCount() != 2 {
		t.Fatalf("got %d nodes %d edges, want 3 and 2", g.NodeCount(), g.EdgeCount())
	}
	if g.Nodes[0].Label != "Alpha" || g.Nodes[1].Label != "b" {
		t.Errorf("labels = %q %q", g.Nodes[0].Label, g.Nodes[1].Label)
	}
	want := graph.EdgeData{Source: "Alpha", Target: "b", SourceID: "a", TargetID: "b"}
	if diff := cmp.Diff(want, g.Edges[0].Data); diff != "" {
		t.Errorf("edge data mismatch (-want +got):\n%s", diff)
	}
}

func TestImportEdgeForms(t *testing.T) {
	tests := []struct {
		name  string
		input string
		nodes int
		edges int
	}{
		{"subgraph operand", `digraph { a -> {b c} }`, 3, 2},
		{"strict dedupes", `strict digraph { a -> b; a -> b }`, 2, 1},
		{"parallel kept", `digraph { a -> b; a -> b }`, 2, 2},
		{"undirected", `graph { a -- b -- c }`, 3, 2},
		{"ports ignored", `digraph { a:n -> b:s:e }`, 2, 1},
		{"defaults only", `digraph { node [shape=box]; edge [color=red] }`, 0, 0},
		{"self loop", `digraph { a -> a }`, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Import([]byte(tt.input))
			if err != nil {
				t.Fatalf("Import: %v", err)
			}
			if g.NodeCount() != tt.nodes || g.EdgeCount() != tt.edges {
				t.Errorf("got %d nodes %d edges, want %d and %d",
					g.NodeCount(), g.EdgeCount(), tt.nodes, tt.edges)
			}
		})
	}
}

func TestImportClusters(t *testing.T) {
	src := `digraph {
  subgraph cluster_x {
    label="X"
    a; b
    subgraph cluster_y { c }
  }
  a -> c
  d
}`
	g, err := Import([]byte(src))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	type member struct {
		ID, Parent string
		Subgraph   bool
	}
	var got []member
	for _, n := range g.Nodes {
		got = append(got, member{n.ID, n.ParentID, n.Subgraph})
	}
	want := []member{
		{"x", "", true},
		{"a", "x", false},
		{"b", "x", false},
		{"y", "x", true},
		{"c", "y", false},
		{"d", "", false},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("membership mismatch (-want +got):\n%s", diff)
	}
	if n, _ := g.Node("x"); n.Label != "X" {
		t.Errorf("cluster label = %q, want X", n.Label)
	}
}

func TestImportGeometry(t *testing.T) {
	g, err := Import([]byte(`digraph {
  a [pos="100,50!", width=1, height=0.5]
  a -> b [pos="e,10,20 1,2 3,4 5,6 7,8"]
}`))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	a := g.Nodes[0]
	if a.X != 64 || a.Y != 32 || a.Width != 72 || a.Height != 36 {
		t.Errorf("geometry = (%v,%v %vx%v), want (64,32 72x36)", a.X, a.Y, a.Width, a.Height)
	}
	want := []graph.Point{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 6}, {X: 7, Y: 8}, {X: 10, Y: 20}}
	if diff := cmp.Diff(want, g.Edges[0].Points); diff != "" {
		t.Errorf("spline mismatch (-want +got):\n%s", diff)
	}
}

func TestQuote(t *testing.T) {
	tests := []struct{ in, want string }{
		{"abc", "abc"},
		{"_a1", "_a1"},
		{"42", "42"},
		{"-1.5", "-1.5"},
		{"a b", `"a b"`},
		{"node", `"node"`},
		{"Graph", `"Graph"`},
		{`say "hi"`, `"say \"hi\""`},
		{`back\slash`, `"back\\slash"`},
		{"two\nlines", `"two\nlines"`},
		{"", `""`},
	}
	for _, tt := range tests {
		if got := Quote(tt.in); got != tt.want {
			t.Errorf("Quote(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestQuoteRoundTrip(t *testing.T) {
	for _, s := range []string{`a "b" c`, `x\y`, "l1\nl2", "digraph", "ü-ß"} {
		tokens, err := Lex(Quote(s))
		if err != nil {
			t.Fatalf("Lex(Quote(%q)): %v", s, err)
		}
		if tokens[0].Value != s {
			t.Errorf("round trip of %q gave %q", s, tokens[0].Value)
		}
	}
}

func TestExportUnresolvedEdge(t *testing.T) {
	g := graph.Graph{
		Nodes: []graph.Node{{ID: "a"}},
		Edges: []graph.Edge{{ID: "e", Data: graph.EdgeData{Source: "a", Target: "ghost"}}},
	}
	_, err := Export(g)
	var ee *errors.ExportError
	if !stderrors.As(err, &ee) {
		t.Fatalf("got %v, want *errors.ExportError", err)
	}
}

func TestRoundTrip(t *testing.T) {
	in := graph.Graph{
		Direction: graph.DirectionLR,
		Nodes: []graph.Node{
			{ID: "grp", Label: "Group", X: 0, Y: 0, Width: 260, Height: 120, Subgraph: true},
			{ID: "a", Label: "Start here", X: 10, Y: 20, Width: 100, Height: 40, ParentID: "grp", Shape: graph.ShapeRounded,
				Style: &graph.Style{
					Fill:   &graph.Fill{Color: "#ffeeaa", Style: "solid"},
					Stroke: &graph.Stroke{Color: "red", Width: 2, Dash: graph.DashDashed},
					Font:   &graph.Font{Family: "Helvetica", Size: 14},
				}},
			{ID: "b", Label: "b", X: 150, Y: 20, Width: 100, Height: 40, ParentID: "grp", Shape: graph.ShapeDiamond},
			{ID: "node 3", Label: `quote "me"`, X: 300, Y: 20, Width: 80, Height: 40, Shape: graph.ShapeEllipse},
		},
		Edges: []graph.Edge{
			{ID: "e0", Label: "go", Points: []graph.Point{{X: 110, Y: 40}, {X: 150, Y: 40}},
				Data: graph.EdgeData{Source: "Start here", Target: "b", SourceID: "a", TargetID: "b"}},
			{ID: "e1", Data: graph.EdgeData{Source: "b", Target: `quote "me"`, SourceID: "b", TargetID: "node 3"},
				Style: &graph.Style{Arrow: &graph.Arrow{Start: graph.ArrowNone, End: graph.ArrowTriangle}}},
		},
	}

	data, err := Export(in)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	out, err := Import(data)
	if err != nil {
		t.Fatalf("Import: %v\n%s", err, data)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s\n%s", diff, data)
	}
}

func TestImportClusterNameCollision(t *testing.T) {
	type member struct {
		ID, Parent string
		Subgraph   bool
	}
	tests := []struct {
		name  string
		input string
		nodes []member
		edges [][2]string
	}{
		{
			name:  "node named like cluster, mentioned later",
			input: `digraph { subgraph cluster_backend { backend -> db } web -> backend }`,
			nodes: []member{
				{"cluster_backend", "", true},
				{"backend", "cluster_backend", false},
				{"db", "cluster_backend", false},
				{"web", "", false},
			},
			edges: [][2]string{{"backend", "db"}, {"web", "backend"}},
		},
		{
			name:  "node named like its own cluster",
			input: `digraph { subgraph cluster_A { A } }`,
			nodes: []member{
				{"cluster_A", "", true},
				{"A", "cluster_A", false},
			},
		},
		{
			name:  "node named like the full cluster name",
			input: `digraph { subgraph cluster_x { cluster_x; x } }`,
			nodes: []member{
				{"cluster_x_2", "", true},
				{"cluster_x", "cluster_x_2", false},
				{"x", "cluster_x_2", false},
			},
		},
		{
			name:  "reopened cluster keeps one id",
			input: `digraph { subgraph cluster_s { a } subgraph cluster_s { b } }`,
			nodes: []member{
				{"s", "", true},
				{"a", "s", false},
				{"b", "s", false},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Import([]byte(tt.input))
			if err != nil {
				t.Fatalf("Import: %v", err)
			}
			var nodes []member
			for _, n := range g.Nodes {
				nodes = append(nodes, member{n.ID, n.ParentID, n.Subgraph})
			}
			if diff := cmp.Diff(tt.nodes, nodes); diff != "" {
				t.Errorf("nodes mismatch (-want +got):\n%s", diff)
			}
			var edges [][2]string
			for _, e := range g.Edges {
				edges = append(edges, [2]string{e.Data.SourceID, e.Data.TargetID})
			}
			if diff := cmp.Diff(tt.edges, edges); diff != "" {
				t.Errorf("edges mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestImportCompoundEdges(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		from, to string
	}{
		{"lhead", `digraph { compound=true; subgraph cluster_x { a } b -> a [lhead=cluster_x] }`, "b", "x"},
		{"ltail", `digraph { compound=true; subgraph cluster_x { a } a -> b [ltail=cluster_x] }`, "x", "b"},
		{"not compound", `digraph { subgraph cluster_x { a } b -> a [lhead=cluster_x] }`, "b", "a"},
		{"head outside cluster", `digraph { compound=true; subgraph cluster_x { a } a -> b [lhead=cluster_x] }`, "a", "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Import([]byte(tt.input))
			if err != nil {
				t.Fatalf("Import: %v", err)
			}
			if g.EdgeCount() != 1 {
				t.Fatalf("got %d edges, want 1", g.EdgeCount())
			}
			d := g.Edges[0].Data
			if d.SourceID != tt.from || d.TargetID != tt.to {
				t.Errorf("edge = %s -> %s, want %s -> %s", d.SourceID, d.TargetID, tt.from, tt.to)
			}
		})
	}
}

func TestRoundTripClusterEdges(t *testing.T) {
	in := graph.Graph{
		Nodes: []graph.Node{
			{ID: "grp", Label: "Group", Subgraph: true},
			{ID: "a", Label: "a", ParentID: "grp"},
			{ID: "b", Label: "b"},
		},
		Edges: []graph.Edge{
			{ID: "e0", Data: graph.EdgeData{Source: "b", Target: "Group", SourceID: "b", TargetID: "grp"}},
			{ID: "e1", Data: graph.EdgeData{Source: "Group", Target: "b", SourceID: "grp", TargetID: "b"}},
		},
	}

	data, err := Export(in)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	out, err := Import(data)
	if err != nil {
		t.Fatalf("Import: %v\n%s", err, data)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s\n%s", diff, data)
	}
}

func TestExportEdgeToEmptyCluster(t *testing.T) {
	g := graph.Graph{
		Nodes: []graph.Node{{ID: "grp", Subgraph: true}, {ID: "a"}},
		Edges: []graph.Edge{{ID: "e", Data: graph.EdgeData{SourceID: "a", TargetID: "grp"}}},
	}
	_, err := Export(g)
	var ee *errors.ExportError
	if !stderrors.As(err, &ee) {
		t.Fatalf("got %v, want *errors.ExportError", err)
	}
}
