package mermaid

import (
	stderrors "errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/graph"
)

func TestParseBasicFlow(t *testing.T) {
	flow, err := Parse("graph TD;\n A-->B\n B-->C;")
	require.NoError(t, err)

	assert.Equal(t, "TD", flow.Direction)
	assert.Equal(t, "A", flow.Vertices["A"].ID)
	assert.Equal(t, []string{"A", "B", "C"}, flow.VertexOrder)
	require.Len(t, flow.Edges, 2)
	assert.Equal(t, FlowEdge{Start: "A", End: "B", Type: ArrowPoint, Stroke: StrokeNormal}, flow.Edges[0])
}

func TestParseSubgraph(t *testing.T) {
	flow, err := Parse(`flowchart TB
    c1-->a2
    subgraph ide1 [one]
    a1-->a2
    end`)
	require.NoError(t, err)

	require.Len(t, flow.SubGraphs, 1)
	sg := flow.SubGraphs[0]
	assert.Equal(t, "ide1", sg.ID)
	assert.Equal(t, "one", sg.Title)
	assert.Equal(t, []string{"a1", "a2"}, sg.Nodes)
	assert.Equal(t, "ide1", flow.Edges[1].SubGraph)
	assert.Empty(t, flow.Edges[0].SubGraph)
}

func TestParseVertexText(t *testing.T) {
	flow, err := Parse("flowchart LR\n    id1[This is the text in the box]")
	require.NoError(t, err)

	assert.Equal(t, "LR", flow.Direction)
	assert.Equal(t, "This is the text in the box", flow.Vertices["id1"].Text)
	assert.Equal(t, ShapeSquare, flow.Vertices["id1"].Shape)
}

func TestParseNestedSubgraphs(t *testing.T) {
	flow, err := Parse(`flowchart LR
  subgraph outer [Outer]
    x
    subgraph inner
      y --> z
    end
    x --> y
  end
  w --> x`)
	require.NoError(t, err)

	want := []*SubGraph{
		{ID: "outer", Title: "Outer", Nodes: []string{"x", "inner"}},
		{ID: "inner", Title: "inner", Nodes: []string{"y", "z"}, Parent: "outer", Depth: 1},
	}
	if diff := cmp.Diff(want, flow.SubGraphs); diff != "" {
		t.Errorf("subgraphs mismatch (-want +got):\n%s", diff)
	}

	parents := make([]string, len(flow.Edges))
	for i, e := range flow.Edges {
		parents[i] = e.SubGraph
	}
	assert.Equal(t, []string{"inner", "outer", ""}, parents)
}

func TestParseAmpersand(t *testing.T) {
	flow, err := Parse("flowchart TB\n a & b --> c & d")
	require.NoError(t, err)

	var pairs [][2]string
	for _, e := range flow.Edges {
		pairs = append(pairs, [2]string{e.Start, e.End})
	}
	assert.Equal(t, [][2]string{{"a", "c"}, {"a", "d"}, {"b", "c"}, {"b", "d"}}, pairs)
}

func TestParseLinks(t *testing.T) {
	tests := []struct {
		src    string
		typ    string
		stroke string
		bidi   bool
		text   string
	}{
		{"A --> B", ArrowPoint, StrokeNormal, false, ""},
		{"A---B", ArrowOpen, StrokeNormal, false, ""},
		{"A -.-> B", ArrowPoint, StrokeDotted, false, ""},
		{"A ==> B", ArrowPoint, StrokeThick, false, ""},
		{"A --o B", ArrowCircle, StrokeNormal, false, ""},
		{"A --x B", ArrowCross, StrokeNormal, false, ""},
		{"A <--> B", ArrowPoint, StrokeNormal, true, ""},
		{"A -->|yes| B", ArrowPoint, StrokeNormal, false, "yes"},
		{"A -- text --> B", ArrowPoint, StrokeNormal, false, "text"},
		{"A -. maybe .-> B", ArrowPoint, StrokeDotted, false, "maybe"},
		{"A == big ==> B", ArrowPoint, StrokeThick, false, "big"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			flow, err := Parse("flowchart LR\n" + tt.src)
			require.NoError(t, err)
			require.Len(t, flow.Edges, 1)

			e := flow.Edges[0]
			assert.Equal(t, "A", e.Start)
			assert.Equal(t, "B", e.End)
			assert.Equal(t, tt.typ, e.Type)
			assert.Equal(t, tt.stroke, e.Stroke)
			assert.Equal(t, tt.bidi, e.Bidirectional)
			assert.Equal(t, tt.text, e.Text)
		})
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
		{"unclosed shape", "flowchart TB\n  A[open", errors.Truncated, 2, 4},
		{"bad character", "flowchart TB\n  A --> B @", errors.Syntax, 2, 11},
		{"missing end", "flowchart TB\n  subgraph one\n  A\n", errors.Truncated, 2, 3},
		{"stray end", "flowchart TB\n  end", errors.UnexpectedToken, 2, 3},
		{"bad direction", "flowchart XY", errors.UnexpectedToken, 1, 11},
		{"other diagram", "pie title Pets", errors.UnexpectedToken, 1, 1},
		{"unterminated link text", "flowchart TB\n  A -->|label B", errors.Truncated, 2, 8},
		{"short link", "flowchart TB\n  A -x B", errors.Syntax, 2, 5},
		{"dangling link", "flowchart TB\n  A --> ", errors.Truncated, 2, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			var pe *errors.ParseError
			require.True(t, stderrors.As(err, &pe), "got %v", err)
			assert.Equal(t, tt.kind, pe.Kind)
			require.NotNil(t, pe.Pos)
			assert.Equal(t, tt.line, pe.Pos.Line)
			assert.Equal(t, tt.col, pe.Pos.Col)
		})
	}
}

func TestDecodeText(t *testing.T) {
	assert.Equal(t, `a "b" & c`, decodeText("a #quot;b#quot; #amp; c"))
	assert.Equal(t, "one\ntwo", decodeText("one<br/>two"))
	assert.Equal(t, "#", decodeText("#35;"))
	assert.Equal(t, "#nope;", decodeText("#nope;"))
	assert.Equal(t, "x #35;1 #124; y<br>z", encodeText("x #1 | y\nz"))
}

func TestImport(t *testing.T) {
	g, err := Import([]byte(`flowchart LR
  a(Round) --> b{Decide}
  b -->|yes| c((Circle))
  b -.-> d[(DB)]
  d ==> e{{Hex}}
  e --o f([Stadium])
  f <--> a
  style a fill:#f9f,stroke:#333,stroke-width:4px`))
	require.NoError(t, err)

	assert.Equal(t, graph.DirectionLR, g.Direction)
	wantNodes := []graph.Node{
		{ID: "a", Label: "Round", Shape: graph.ShapeRounded, Style: &graph.Style{
			Fill:   &graph.Fill{Color: "#f9f", Style: "solid"},
			Stroke: &graph.Stroke{Color: "#333", Width: 4},
		}},
		{ID: "b", Label: "Decide", Shape: graph.ShapeDiamond},
		{ID: "c", Label: "Circle", Shape: graph.ShapeCircle},
		{ID: "d", Label: "DB", Shape: graph.ShapeCylinder},
		{ID: "e", Label: "Hex", Shape: graph.ShapeHexagon},
		{ID: "f", Label: "Stadium", Shape: graph.ShapeEllipse},
	}
	if diff := cmp.Diff(wantNodes, g.Nodes); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}

	wantEdges := []graph.Edge{
		{ID: "L-a-b-0", Data: graph.EdgeData{Source: "Round", Target: "Decide", SourceID: "a", TargetID: "b"}},
		{ID: "L-b-c-0", Label: "yes", Data: graph.EdgeData{Source: "Decide", Target: "Circle", SourceID: "b", TargetID: "c"}},
		{ID: "L-b-d-0", Data: graph.EdgeData{Source: "Decide", Target: "DB", SourceID: "b", TargetID: "d"},
			Style: &graph.Style{Stroke: &graph.Stroke{Dash: graph.DashDotted}}},
		{ID: "L-d-e-0", Data: graph.EdgeData{Source: "DB", Target: "Hex", SourceID: "d", TargetID: "e"},
			Style: &graph.Style{Stroke: &graph.Stroke{Width: 3}}},
		{ID: "L-e-f-0", Data: graph.EdgeData{Source: "Hex", Target: "Stadium", SourceID: "e", TargetID: "f"},
			Style: &graph.Style{Arrow: &graph.Arrow{Start: graph.ArrowNone, End: graph.ArrowDot}}},
		{ID: "L-f-a-0", Data: graph.EdgeData{Source: "Stadium", Target: "Round", SourceID: "f", TargetID: "a"},
			Style: &graph.Style{Arrow: &graph.Arrow{Start: graph.ArrowArrow, End: graph.ArrowArrow}}},
	}
	if diff := cmp.Diff(wantEdges, g.Edges); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}
}

func TestImportParentsAndRepeatedLinks(t *testing.T) {
	g, err := Import([]byte(`flowchart TD
  subgraph s [Group]
    a --> b
    a --> b
  end
  b --> s`))
	require.NoError(t, err)

	assert.Equal(t, graph.DirectionTB, g.Direction)
	require.Len(t, g.Nodes, 3)
	assert.Equal(t, graph.Node{ID: "s", Label: "Group", Subgraph: true}, g.Nodes[0])
	assert.Equal(t, "s", g.Nodes[1].ParentID)
	assert.Equal(t, "s", g.Nodes[2].ParentID)

	ids := []string{g.Edges[0].ID, g.Edges[1].ID, g.Edges[2].ID}
	assert.Equal(t, []string{"L-a-b-0", "L-a-b-1", "L-b-s-0"}, ids)
	assert.Equal(t, "s", g.Edges[0].Data.ParentID)
	assert.Equal(t, "Group", g.Edges[2].Data.Target)
}

func sample() graph.Graph {
	return graph.Graph{
		Direction: graph.DirectionLR,
		Nodes: []graph.Node{
			{ID: "grp", Label: "Backend", Subgraph: true},
			{ID: "inner", Label: "Storage", ParentID: "grp", Subgraph: true},
			{ID: "user", Label: "User", Shape: graph.ShapeCircle},
			{ID: "api", Label: "API gateway", ParentID: "grp", Shape: graph.ShapeRounded, Style: &graph.Style{
				Fill:   &graph.Fill{Color: "#dae8fc", Style: "solid"},
				Stroke: &graph.Stroke{Color: "#6c8ebf", Width: 2},
			}},
			{ID: "db", Label: "Orders [v2]", ParentID: "inner", Shape: graph.ShapeCylinder},
			{ID: "cache", Label: "cache", ParentID: "inner", Shape: graph.ShapeHexagon},
		},
		Edges: []graph.Edge{
			{ID: "L-db-cache-0",
				Data:  graph.EdgeData{Source: "Orders [v2]", Target: "cache", SourceID: "db", TargetID: "cache", ParentID: "inner"},
				Style: &graph.Style{Stroke: &graph.Stroke{Dash: graph.DashDotted}}},
			{ID: "L-api-db-0", Label: "reads #1",
				Data: graph.EdgeData{Source: "API gateway", Target: "Orders [v2]", SourceID: "api", TargetID: "db", ParentID: "grp"}},
			{ID: "L-user-api-0",
				Data:  graph.EdgeData{Source: "User", Target: "API gateway", SourceID: "user", TargetID: "api"},
				Style: &graph.Style{Arrow: &graph.Arrow{Start: graph.ArrowArrow, End: graph.ArrowArrow}}},
			{ID: "L-user-grp-0",
				Data: graph.EdgeData{Source: "User", Target: "Backend", SourceID: "user", TargetID: "grp"},
				Style: &graph.Style{
					Stroke: &graph.Stroke{Width: 3},
					Arrow:  &graph.Arrow{Start: graph.ArrowNone, End: graph.ArrowNone},
				}},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	in := sample()
	data, err := Export(in)
	require.NoError(t, err)

	out, err := Import(data)
	require.NoError(t, err, "exported:\n%s", data)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s\nexported:\n%s", diff, data)
	}
}

func TestExport(t *testing.T) {
	g := graph.Graph{
		Nodes: []graph.Node{{ID: "a", Label: "A"}, {ID: "b"}},
		Edges: []graph.Edge{{ID: "e", Label: "go", Data: graph.EdgeData{SourceID: "a", TargetID: "b"}}},
	}
	data, err := Export(g)
	require.NoError(t, err)
	assert.Equal(t, "flowchart TB\n  a[A]\n  b\n  a -->|go| b\n", string(data))
}

func TestExportSanitizesIDs(t *testing.T) {
	g := graph.Graph{
		Nodes: []graph.Node{{ID: "my node"}, {ID: "my_node"}, {ID: "end"}},
		Edges: []graph.Edge{{ID: "e", Data: graph.EdgeData{SourceID: "my node", TargetID: "end"}}},
	}
	data, err := Export(g)
	require.NoError(t, err)

	out, err := Import(data)
	require.NoError(t, err, "exported:\n%s", data)
	ids := make([]string, len(out.Nodes))
	for i, n := range out.Nodes {
		ids[i] = n.ID
	}
	assert.Equal(t, []string{"my_node", "my_node_2", "end_"}, ids)
	assert.Equal(t, "my node", out.Nodes[0].Label)
	assert.Equal(t, "end_", out.Edges[0].Data.TargetID)
}

func TestExportUnresolvedEdge(t *testing.T) {
	g := graph.Graph{
		Nodes: []graph.Node{{ID: "a"}},
		Edges: []graph.Edge{{ID: "e", Data: graph.EdgeData{Source: "a", Target: "missing"}}},
	}
	_, err := Export(g)
	var ee *errors.ExportError
	require.True(t, stderrors.As(err, &ee), "got %v", err)
}

func TestSniff(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"graph TD;\nA-->B", true},
		{"flowchart LR\n  a --> b", true},
		{"%% comment\nflowchart\n a", true},
		{"graph", true},
		{"graph G { a -> b }", false},
		{"digraph { a }", false},
		{"sequenceDiagram", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sniff([]byte(tt.input)), tt.input)
	}
}
