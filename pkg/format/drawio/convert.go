package drawio

import (
	"html"
	"regexp"
	"strings"

	"github.com/matzehuels/diagramkit/pkg/graph"
)

// Cells decodes a drawio document and returns the flat cell list of its
// first page, structural cells included.
func Cells(data []byte) ([]MxCell, error) {
	m, err := ParseModel(data)
	if err != nil {
		return nil, err
	}
	return m.Root.Cells, nil
}

type cellKind int

const (
	kindStructural cellKind = iota // root, layers, anything without a flag
	kindVertex
	kindGroup
	kindEdge
	kindEdgeLabel // vertex attached to an edge
)

type converter struct {
	cells []MxCell
	index map[string]int
	kinds []cellKind
	style []Style
	kept  []bool
}

// Convert maps cells onto the graph IR.
//
// Vertices become nodes and edges become edges. Containers (group or
// container=1 styles, and vertices that own other vertices) become
// subgraph nodes; a group without a label is only a grouping aid and is
// dropped, its children moving up to the nearest kept container. Edges
// whose source or target does not resolve to a kept node are dropped.
// Child geometry, relative to the parent in drawio, is made absolute.
func Convert(cells []MxCell) (graph.Graph, error) {
	c := &converter{
		cells: cells,
		index: make(map[string]int, len(cells)),
		kinds: make([]cellKind, len(cells)),
		style: make([]Style, len(cells)),
		kept:  make([]bool, len(cells)),
	}
	for i, cell := range cells {
		c.index[cell.ID] = i
		c.style[i] = ParseStyle(cell.Style)
	}
	c.classify()

	g := graph.Graph{Nodes: []graph.Node{}, Edges: []graph.Edge{}}
	for i, cell := range cells {
		switch c.kinds[i] {
		case kindVertex, kindGroup:
			if c.kept[i] {
				g.Nodes = append(g.Nodes, c.node(i, cell))
			}
		}
	}
	for i, cell := range cells {
		if c.kinds[i] != kindEdge {
			continue
		}
		if e, ok := c.edge(i, cell); ok {
			g.Edges = append(g.Edges, e)
		}
	}

	g = g.ResolveEndpoints()
	if err := graph.Validate(g); err != nil {
		return graph.Graph{}, err
	}
	return g, nil
}

func (c *converter) parentOf(i int) (int, bool) {
	p, ok := c.index[c.cells[i].Parent]
	if !ok || p == i {
		return 0, false
	}
	return p, true
}

func (c *converter) classify() {
	for i, cell := range c.cells {
		switch {
		case cell.IsEdge():
			c.kinds[i] = kindEdge
		case cell.IsVertex():
			c.kinds[i] = kindVertex
			st := c.style[i]
			if st.Has("group") || st.Bool("container") || st.Has("swimlane") {
				c.kinds[i] = kindGroup
			}
		}
	}
	for i, cell := range c.cells {
		if !cell.IsVertex() {
			continue
		}
		p, ok := c.parentOf(i)
		if !ok {
			continue
		}
		switch c.kinds[p] {
		case kindEdge:
			c.kinds[i] = kindEdgeLabel
		case kindVertex:
			c.kinds[p] = kindGroup
		}
	}
	for i := range c.cells {
		switch c.kinds[i] {
		case kindVertex:
			c.kept[i] = true
		case kindGroup:
			c.kept[i] = !(c.style[i].Has("group") && strings.TrimSpace(c.cells[i].Value) == "")
		}
	}
}

// container returns the nearest kept group above cell i, or "".
func (c *converter) container(i int) string {
	seen := map[int]bool{i: true}
	for p, ok := c.parentOf(i); ok && !seen[p]; p, ok = c.parentOf(p) {
		seen[p] = true
		if c.kinds[p] == kindGroup && c.kept[p] {
			return c.cells[p].ID
		}
	}
	return ""
}

// offset returns the absolute origin of cell i's coordinate system: the
// sum of all ancestor vertex positions.
func (c *converter) offset(i int) (x, y float64) {
	seen := map[int]bool{i: true}
	for p, ok := c.parentOf(i); ok && !seen[p]; p, ok = c.parentOf(p) {
		seen[p] = true
		if g := c.cells[p].Geometry; g != nil && c.kinds[p] != kindEdge {
			x += g.X
			y += g.Y
		}
	}
	return x, y
}

func (c *converter) node(i int, cell MxCell) graph.Node {
	st := c.style[i]
	n := graph.Node{
		ID:       cell.ID,
		Label:    label(cell.Value, st),
		ParentID: c.container(i),
		Subgraph: c.kinds[i] == kindGroup,
		Style:    nodeStyle(st),
	}
	if !n.Subgraph {
		n.Shape = shapeOf(st)
	}
	if g := cell.Geometry; g != nil {
		ox, oy := c.offset(i)
		n.X, n.Y = g.X+ox, g.Y+oy
		n.Width, n.Height = g.Width, g.Height
	}
	return n
}

// terminal resolves an edge endpoint to a kept node id. Endpoints on a
// dropped group resolve to nothing.
func (c *converter) terminal(id string) (string, bool) {
	i, ok := c.index[id]
	if !ok || !c.kept[i] {
		return "", false
	}
	if k := c.kinds[i]; k != kindVertex && k != kindGroup {
		return "", false
	}
	return id, true
}

func (c *converter) edge(i int, cell MxCell) (graph.Edge, bool) {
	src, ok1 := c.terminal(cell.Source)
	dst, ok2 := c.terminal(cell.Target)
	if !ok1 || !ok2 {
		return graph.Edge{}, false
	}

	st := c.style[i]
	e := graph.Edge{
		ID:    cell.ID,
		Label: label(cell.Value, st),
		Style: edgeStyle(st),
		Data:  graph.EdgeData{SourceID: src, TargetID: dst, ParentID: c.container(i)},
	}
	if e.Label == "" {
		e.Label = c.attachedLabel(cell.ID)
	}
	if pts := cell.Geometry.Points(); len(pts) > 0 {
		ox, oy := c.offset(i)
		e.Points = make([]graph.Point, len(pts))
		for j, p := range pts {
			e.Points[j] = graph.Point{X: p.X + ox, Y: p.Y + oy}
		}
	}
	return e, true
}

// attachedLabel returns the text of the first label vertex on edge id.
func (c *converter) attachedLabel(id string) string {
	for i, cell := range c.cells {
		if c.kinds[i] == kindEdgeLabel && cell.Parent == id {
			if l := label(cell.Value, c.style[i]); l != "" {
				return l
			}
		}
	}
	return ""
}

// =============================================================================
// Labels and styles
// =============================================================================

var (
	breakTag = regexp.MustCompile(`(?i)<br\s*/?>|</div>|</p>`)
	anyTag   = regexp.MustCompile(`<[^>]*>`)
)

// label returns the plain text of a cell value. Values of html=1 cells
// are stripped of markup.
func label(value string, st Style) string {
	if st.Bool("html") {
		value = breakTag.ReplaceAllString(value, "\n")
		value = anyTag.ReplaceAllString(value, "")
		value = html.UnescapeString(value)
	}
	return strings.TrimSpace(value)
}

func shapeOf(st Style) graph.Shape {
	switch st.Shape() {
	case "ellipse", "doubleEllipse":
		if st.Value("aspect") == "fixed" {
			return graph.ShapeCircle
		}
		return graph.ShapeEllipse
	case "rhombus":
		return graph.ShapeDiamond
	case "hexagon":
		return graph.ShapeHexagon
	case "cylinder", "cylinder3", "datastore":
		return graph.ShapeCylinder
	case "text", "label":
		return graph.ShapeText
	case "image":
		return graph.ShapeImage
	}
	if st.Bool("rounded") {
		return graph.ShapeRounded
	}
	return ""
}

func nodeStyle(st Style) *graph.Style {
	var s graph.Style
	if c := st.Value("fillColor"); c != "" && c != "none" {
		s.Fill = &graph.Fill{Color: c, Style: "solid"}
	}
	s.Stroke = strokeOf(st)
	if fam, color := st.Value("fontFamily"), st.Value("fontColor"); fam != "" || color != "" || st.Has("fontSize") {
		size, _ := st.Float("fontSize")
		s.Font = &graph.Font{Family: fam, Size: size, Color: color}
	}
	if src := st.Value("image"); src != "" && src != "1" {
		s.Image = &graph.Image{Src: src}
	}
	if st.Has("spacingTop") || st.Has("spacingRight") || st.Has("spacingBottom") || st.Has("spacingLeft") {
		top, _ := st.Float("spacingTop")
		right, _ := st.Float("spacingRight")
		bottom, _ := st.Float("spacingBottom")
		left, _ := st.Float("spacingLeft")
		s.Padding = &graph.Padding{Top: top, Right: right, Bottom: bottom, Left: left}
	}
	if s == (graph.Style{}) {
		return nil
	}
	return &s
}

func edgeStyle(st Style) *graph.Style {
	var s graph.Style
	s.Stroke = strokeOf(st)
	if st.Has("startArrow") || st.Has("endArrow") {
		s.Arrow = &graph.Arrow{Start: arrowName(st.Value("startArrow")), End: arrowName(st.Value("endArrow"))}
	}
	if s == (graph.Style{}) {
		return nil
	}
	return &s
}

func strokeOf(st Style) *graph.Stroke {
	color := st.Value("strokeColor")
	width, _ := st.Float("strokeWidth")
	var dash string
	if st.Bool("dashed") {
		dash = graph.DashDashed
		if p := st.Value("dashPattern"); p != "" && strings.HasPrefix(p, "1 ") {
			dash = graph.DashDotted
		}
	}
	if (color == "" || color == "none") && width == 0 && dash == "" {
		return nil
	}
	return &graph.Stroke{Color: color, Width: width, Dash: dash}
}

var arrows = map[string]string{
	"none":    graph.ArrowNone,
	"classic": graph.ArrowArrow,
	"open":    graph.ArrowArrow,
	"block":   graph.ArrowTriangle,
	"oval":    graph.ArrowDot,
}

func arrowName(s string) string {
	if s == "" {
		return ""
	}
	if a, ok := arrows[s]; ok {
		return a
	}
	return graph.ArrowArrow
}
