package all

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/format"
	"github.com/matzehuels/diagramkit/pkg/graph"
)

func TestFormats(t *testing.T) {
	want := []format.Format{format.DOT, format.Drawio, format.Excalidraw, format.JSON, format.Mermaid}
	assert.Equal(t, want, format.Formats())
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		want format.Format
	}{
		{"dot", format.DOT},
		{"gv", format.DOT},
		{"MMD", format.Mermaid},
		{"flowchart", format.Mermaid},
		{"mxgraph", format.Drawio},
		{" Excalidraw ", format.Excalidraw},
		{"graph", format.JSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := format.Parse(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := format.Parse("svg")
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupported), "got %v", err)
	_, err = format.Parse("")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat), "got %v", err)
}

func TestDetect(t *testing.T) {
	tests := []struct {
		filename string
		data     string
		want     format.Format
	}{
		{"a.gv", "", format.DOT},
		{"board.excalidraw", "", format.Excalidraw},
		{"flow.mmd", "", format.Mermaid},
		{"x.excalidraw.json", "", format.Excalidraw},
		{"graph.json", "", format.JSON},
		{"DIAGRAM.DRAWIO", "", format.Drawio},
		{"", "digraph G { a -> b }", format.DOT},
		{"", "<mxfile><diagram/></mxfile>", format.Drawio},
		{"", `{"type":"excalidraw","elements":[]}`, format.Excalidraw},
		{"", `{"nodes":[],"edges":[]}`, format.JSON},
		{"notes.txt", "\n  flowchart LR\n a-->b", format.Mermaid},
		{"", "graph TD\n a-->b", format.Mermaid},
	}
	for _, tt := range tests {
		t.Run(tt.filename+tt.data, func(t *testing.T) {
			got, err := format.Detect(tt.filename, []byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := format.Detect("notes.txt", []byte("hello"))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat), "got %v", err)
}

func positioned() graph.Graph {
	return graph.Graph{
		Direction: graph.DirectionLR,
		Nodes: []graph.Node{
			{ID: "grp", Label: "Backend", X: 0, Y: 0, Width: 400, Height: 200, Subgraph: true},
			{ID: "api", Label: "API", X: 20, Y: 40, Width: 100, Height: 40, ParentID: "grp", Shape: graph.ShapeRounded},
			{ID: "db", Label: "Database", X: 200, Y: 40, Width: 100, Height: 40, ParentID: "grp", Shape: graph.ShapeCylinder},
			{ID: "user", Label: "User", X: 500, Y: 50, Width: 60, Height: 60, Shape: graph.ShapeEllipse},
		},
		Edges: []graph.Edge{
			{ID: "e1", Data: graph.EdgeData{SourceID: "user", TargetID: "api"}},
			{ID: "e2", Label: "query", Data: graph.EdgeData{SourceID: "api", TargetID: "db"}},
		},
	}
}

// topology reduces a graph to what every format preserves: node labels
// with their containing cluster's label, and labelled edges.
func topology(g graph.Graph) (nodes map[string]string, edges []string) {
	idx := g.Index()
	label := func(id string) string {
		if i, ok := idx[id]; ok {
			return g.Nodes[i].DisplayLabel()
		}
		return ""
	}
	nodes = make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes[n.DisplayLabel()] = label(n.ParentID)
	}
	for _, e := range g.Edges {
		edges = append(edges, fmt.Sprintf("%s->%s", label(e.Data.SourceID), label(e.Data.TargetID)))
	}
	slices.Sort(edges)
	return nodes, edges
}

func TestConvertPreservesTopology(t *testing.T) {
	src, err := format.Export(format.JSON, positioned())
	require.NoError(t, err)

	wantNodes, wantEdges := topology(positioned())
	for _, f := range format.Formats() {
		t.Run(string(f), func(t *testing.T) {
			out, err := format.Convert(src, format.JSON, f)
			require.NoError(t, err)

			detected, err := format.Detect("", out)
			require.NoError(t, err)
			assert.Equal(t, f, detected)

			g, err := format.Import(f, out)
			require.NoError(t, err, "%s", out)
			gotNodes, gotEdges := topology(g)
			assert.Equal(t, wantNodes, gotNodes)
			assert.Equal(t, wantEdges, gotEdges)
		})
	}
}

func TestConvertChain(t *testing.T) {
	data, err := format.Export(format.JSON, positioned())
	require.NoError(t, err)

	from := format.JSON
	for _, to := range []format.Format{format.DOT, format.Drawio, format.Mermaid, format.JSON} {
		data, err = format.Convert(data, from, to)
		require.NoError(t, err, "%s -> %s", from, to)
		from = to
	}
	g, err := format.Import(format.JSON, data)
	require.NoError(t, err)

	wantNodes, wantEdges := topology(positioned())
	gotNodes, gotEdges := topology(g)
	assert.Equal(t, wantNodes, gotNodes)
	assert.Equal(t, wantEdges, gotEdges)
}

func TestImportRejectsUnknownFormat(t *testing.T) {
	_, err := format.Import("svg", nil)
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupported), "got %v", err)
}
