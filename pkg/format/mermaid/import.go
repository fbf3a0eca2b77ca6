package mermaid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/diagramkit/pkg/graph"
)

// Import parses a Mermaid flowchart into a graph.
//
// Subgraphs become subgraph nodes, in opening order, followed by the
// vertices in first-mention order. Vertices are parented by the subgraph
// that claims them. Link type and stroke map onto edge arrow and stroke
// styles; "style" directives map onto node styles. Mermaid carries no
// geometry, so every node is unpositioned.
func Import(data []byte) (graph.Graph, error) {
	flow, err := Parse(string(data))
	if err != nil {
		return graph.Graph{}, err
	}
	return FromFlow(flow)
}

// FromFlow converts a parsed flowchart into a graph.
func FromFlow(flow *Flow) (graph.Graph, error) {
	g := graph.Graph{
		Direction: direction(flow.Direction),
		Nodes:     make([]graph.Node, 0, len(flow.SubGraphs)+len(flow.VertexOrder)),
		Edges:     make([]graph.Edge, 0, len(flow.Edges)),
	}

	owner := map[string]string{}
	isSub := make(map[string]bool, len(flow.SubGraphs))
	for _, sg := range flow.SubGraphs {
		isSub[sg.ID] = true
	}
	for _, sg := range flow.SubGraphs {
		for _, id := range sg.Nodes {
			if !isSub[id] {
				owner[id] = sg.ID
			}
		}
		g.Nodes = append(g.Nodes, graph.Node{
			ID:       sg.ID,
			Label:    sg.Title,
			ParentID: sg.Parent,
			Subgraph: true,
			Style:    nodeStyle(flow.Styles[sg.ID]),
		})
	}

	for _, id := range flow.VertexOrder {
		if isSub[id] {
			continue
		}
		v := flow.Vertices[id]
		g.Nodes = append(g.Nodes, graph.Node{
			ID:       id,
			Label:    v.Text,
			ParentID: owner[id],
			Shape:    shapes[v.Shape],
			Style:    nodeStyle(flow.Styles[id]),
		})
	}

	pairs := map[[2]string]int{}
	for _, e := range flow.Edges {
		key := [2]string{e.Start, e.End}
		n := pairs[key]
		pairs[key]++
		g.Edges = append(g.Edges, graph.Edge{
			ID:    fmt.Sprintf("L-%s-%s-%d", e.Start, e.End, n),
			Label: e.Text,
			Style: edgeStyle(e),
			Data: graph.EdgeData{
				SourceID: e.Start,
				TargetID: e.End,
				ParentID: e.SubGraph,
			},
		})
	}

	g = g.ResolveEndpoints()
	if err := graph.Validate(g); err != nil {
		return graph.Graph{}, err
	}
	return g, nil
}

func direction(d string) graph.Direction {
	if d == "TD" {
		return graph.DirectionTB
	}
	if dir := graph.Direction(d); dir.Valid() {
		return dir
	}
	return ""
}

var shapes = map[string]graph.Shape{
	ShapeSquare:     "",
	ShapeSubroutine: "",
	ShapeOdd:        "",
	ShapeRound:      graph.ShapeRounded,
	ShapeStadium:    graph.ShapeEllipse,
	ShapeCircle:     graph.ShapeCircle,
	ShapeDiamond:    graph.ShapeDiamond,
	ShapeCylinder:   graph.ShapeCylinder,
	ShapeHexagon:    graph.ShapeHexagon,
}

func edgeStyle(e FlowEdge) *graph.Style {
	var st graph.Style
	switch e.Stroke {
	case StrokeDotted:
		st.Stroke = &graph.Stroke{Dash: graph.DashDotted}
	case StrokeThick:
		st.Stroke = &graph.Stroke{Width: thickWidth}
	}

	var head string
	switch e.Type {
	case ArrowOpen:
		head = graph.ArrowNone
	case ArrowCircle:
		head = graph.ArrowDot
	case ArrowCross:
		head = graph.ArrowArrow
	}
	switch {
	case e.Bidirectional && head == "":
		st.Arrow = &graph.Arrow{Start: graph.ArrowArrow, End: graph.ArrowArrow}
	case e.Bidirectional:
		st.Arrow = &graph.Arrow{Start: head, End: head}
	case head != "":
		st.Arrow = &graph.Arrow{Start: graph.ArrowNone, End: head}
	}

	if st == (graph.Style{}) {
		return nil
	}
	return &st
}

// nodeStyle maps "style" directive properties onto a node style.
func nodeStyle(props map[string]string) *graph.Style {
	if len(props) == 0 {
		return nil
	}
	var st graph.Style
	if c := props["fill"]; c != "" {
		st.Fill = &graph.Fill{Color: c, Style: "solid"}
	}
	color, dash := props["stroke"], ""
	width := pixels(props["stroke-width"])
	if props["stroke-dasharray"] != "" {
		dash = graph.DashDashed
	}
	if color != "" || width > 0 || dash != "" {
		st.Stroke = &graph.Stroke{Color: color, Width: width, Dash: dash}
	}
	if c, size := props["color"], pixels(props["font-size"]); c != "" || size > 0 || props["font-family"] != "" {
		st.Font = &graph.Font{Family: props["font-family"], Size: size, Color: c}
	}
	if st == (graph.Style{}) {
		return nil
	}
	return &st
}

// pixels parses a CSS length such as "4px" or "2".
func pixels(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "px"), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
