package drawio

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/format"
	"github.com/matzehuels/diagramkit/pkg/graph"
)

const formatName = "drawio"

// Default vertex size for nodes that carry no geometry.
const (
	defaultWidth  = 100
	defaultHeight = 40
)

func init() {
	format.Register(format.Codec{
		Format:     format.Drawio,
		Extensions: []string{".drawio", ".dio", ".xml"},
		Aliases:    []string{"mxgraph", "dio"},
		Importer:   format.ImporterFunc(Import),
		Exporter:   Exporter{},
		Sniff:      sniff,
	})
}

func sniff(data []byte) bool {
	return bytes.Contains(data, []byte("<mxfile")) || bytes.Contains(data, []byte("<mxGraphModel"))
}

// Import decodes a drawio document, plain or compressed, into a graph.
func Import(data []byte) (graph.Graph, error) {
	cells, err := Cells(data)
	if err != nil {
		return graph.Graph{}, err
	}
	return Convert(cells)
}

// Exporter writes drawio documents.
type Exporter struct {
	// Compress encodes the page body the way drawio does when its
	// "compressed" option is on.
	Compress bool
}

// Export writes g as a single-page drawio document. Cluster nodes become
// container cells emitted before their children; child geometry is
// written relative to the containing cluster.
func (x Exporter) Export(g graph.Graph) ([]byte, error) {
	g = g.ResolveEndpoints()
	idx := g.Index()
	ids := newCellIDs()

	cells := []MxCell{{ID: "0"}, {ID: "1", Parent: "0"}}
	for _, i := range preorder(g) {
		n := g.Nodes[i]
		cells = append(cells, vertexCell(g, idx, n, ids))
	}
	for _, e := range g.Edges {
		if e.Data.SourceID == "" || e.Data.TargetID == "" {
			return nil, errors.NewExportError(formatName, "edge %q has unresolved endpoints %q -> %q",
				e.ID, e.Data.Source, e.Data.Target)
		}
		cells = append(cells, edgeCell(g, idx, e, ids))
	}

	model := MxGraphModel{Root: Root{Cells: cells}}
	diagram := Diagram{ID: "page-1", Name: "Page-1"}
	file := MxFile{Host: "diagramkit"}

	if x.Compress {
		inner, err := xml.Marshal(model)
		if err != nil {
			return nil, exportError("encode model", err)
		}
		text, err := Compress(string(inner))
		if err != nil {
			return nil, exportError("compress model", err)
		}
		diagram.Text = text
		file.Compressed = "true"
	} else {
		diagram.Model = &model
	}
	file.Diagrams = []Diagram{diagram}

	out, err := xml.MarshalIndent(file, "", "  ")
	if err != nil {
		return nil, exportError("encode document", err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

// preorder returns node indices with every cluster before its members,
// keeping slice order otherwise.
func preorder(g graph.Graph) []int {
	children := map[string][]int{}
	idx := g.Index()
	var roots []int
	for i, n := range g.Nodes {
		if _, ok := idx[n.ParentID]; n.ParentID == "" || !ok {
			roots = append(roots, i)
			continue
		}
		children[n.ParentID] = append(children[n.ParentID], i)
	}

	out := make([]int, 0, len(g.Nodes))
	var visit func(i int)
	visit = func(i int) {
		out = append(out, i)
		for _, c := range children[g.Nodes[i].ID] {
			visit(c)
		}
	}
	for _, r := range roots {
		visit(r)
	}
	return out
}

// cellIDs maps graph ids to unique cell ids, keeping them when possible.
type cellIDs struct {
	used   map[string]bool
	byNode map[string]string
}

func newCellIDs() *cellIDs {
	return &cellIDs{used: map[string]bool{"0": true, "1": true}, byNode: map[string]string{}}
}

func (c *cellIDs) node(id string) string {
	if cid, ok := c.byNode[id]; ok {
		return cid
	}
	cid := c.claim(id)
	c.byNode[id] = cid
	return cid
}

func (c *cellIDs) claim(id string) string {
	cid := id
	for n := 2; cid == "" || c.used[cid]; n++ {
		cid = fmt.Sprintf("%s-%d", id, n)
	}
	c.used[cid] = true
	return cid
}

func vertexCell(g graph.Graph, idx map[string]int, n graph.Node, ids *cellIDs) MxCell {
	parent := "1"
	var ox, oy float64
	if p, ok := idx[n.ParentID]; ok && g.Nodes[p].Subgraph {
		parent = ids.node(n.ParentID)
		ox, oy = g.Nodes[p].X, g.Nodes[p].Y
	}

	w, h := n.Width, n.Height
	if !n.HasSize() {
		w, h = defaultWidth, defaultHeight
	}

	st := styleOfNode(n)
	return MxCell{
		ID:     ids.node(n.ID),
		Value:  n.DisplayLabel(),
		Style:  FormatStyle(st),
		Vertex: "1",
		Parent: parent,
		Geometry: &MxGeometry{
			X: n.X - ox, Y: n.Y - oy, Width: w, Height: h, As: "geometry",
		},
	}
}

func edgeCell(g graph.Graph, idx map[string]int, e graph.Edge, ids *cellIDs) MxCell {
	parent := "1"
	var ox, oy float64
	if p, ok := idx[e.Data.ParentID]; ok && g.Nodes[p].Subgraph {
		parent = ids.node(e.Data.ParentID)
		ox, oy = g.Nodes[p].X, g.Nodes[p].Y
	}

	geom := &MxGeometry{Relative: "1", As: "geometry"}
	if len(e.Points) > 0 {
		geom.Array = &MxArray{As: "points"}
		for _, p := range e.Points {
			geom.Array.Points = append(geom.Array.Points, MxPoint{X: p.X - ox, Y: p.Y - oy})
		}
	}

	return MxCell{
		ID:       ids.claim(e.ID),
		Value:    e.Label,
		Style:    FormatStyle(styleOfEdge(e)),
		Edge:     "1",
		Parent:   parent,
		Source:   ids.node(e.Data.SourceID),
		Target:   ids.node(e.Data.TargetID),
		Geometry: geom,
	}
}

func styleOfNode(n graph.Node) Style {
	st := Style{"whiteSpace": "wrap"}
	if n.Subgraph {
		st["group"] = "1"
		st["container"] = "1"
		return st
	}

	switch n.Shape {
	case graph.ShapeRounded:
		st["rounded"] = "1"
	case graph.ShapeDiamond:
		st["rhombus"] = "1"
	case graph.ShapeEllipse:
		st["ellipse"] = "1"
	case graph.ShapeCircle:
		st["ellipse"] = "1"
		st["aspect"] = "fixed"
	case graph.ShapeHexagon:
		st["shape"] = "hexagon"
	case graph.ShapeCylinder:
		st["shape"] = "cylinder3"
	case graph.ShapeText:
		st["text"] = "1"
	case graph.ShapeImage:
		st["shape"] = "image"
	}

	s := n.Style
	if s == nil {
		return st
	}
	if s.Fill != nil && s.Fill.Color != "" {
		st["fillColor"] = s.Fill.Color
	}
	strokeStyle(st, s.Stroke)
	if f := s.Font; f != nil {
		if f.Family != "" {
			st["fontFamily"] = f.Family
		}
		if f.Color != "" {
			st["fontColor"] = f.Color
		}
		if f.Size > 0 {
			st["fontSize"] = num(f.Size)
		}
	}
	if s.Image != nil && s.Image.Src != "" {
		st["image"] = s.Image.Src
	}
	if p := s.Padding; p != nil {
		st["spacingTop"] = num(p.Top)
		st["spacingRight"] = num(p.Right)
		st["spacingBottom"] = num(p.Bottom)
		st["spacingLeft"] = num(p.Left)
	}
	return st
}

func styleOfEdge(e graph.Edge) Style {
	st := Style{"edgeStyle": "orthogonalEdgeStyle"}
	if e.Style == nil {
		return st
	}
	strokeStyle(st, e.Style.Stroke)
	if a := e.Style.Arrow; a != nil {
		if v, ok := arrowStyles[a.Start]; ok {
			st["startArrow"] = v
		}
		if v, ok := arrowStyles[a.End]; ok {
			st["endArrow"] = v
		}
	}
	return st
}

var arrowStyles = map[string]string{
	graph.ArrowNone:     "none",
	graph.ArrowArrow:    "classic",
	graph.ArrowTriangle: "block",
	graph.ArrowDot:      "oval",
}

func strokeStyle(st Style, s *graph.Stroke) {
	if s == nil {
		return
	}
	if s.Color != "" {
		st["strokeColor"] = s.Color
	}
	if s.Width > 0 {
		st["strokeWidth"] = num(s.Width)
	}
	switch s.Dash {
	case graph.DashDashed:
		st["dashed"] = "1"
	case graph.DashDotted:
		st["dashed"] = "1"
		st["dashPattern"] = "1 4"
	}
}

func exportError(reason string, err error) error {
	return &errors.ExportError{Format: formatName, Reason: reason, Cause: err}
}

func num(v float64) string { return fmt.Sprint(v) }
