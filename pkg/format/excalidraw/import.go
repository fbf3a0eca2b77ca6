package excalidraw

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io"

	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/geometry"
	"github.com/matzehuels/diagramkit/pkg/geometry/ga"
	"github.com/matzehuels/diagramkit/pkg/graph"
)

// Decode parses an .excalidraw document.
func Decode(data []byte) (*Scene, error) {
	var s Scene
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&s); err != nil {
		return nil, jsonError(err)
	}
	switch s.Type {
	case "excalidraw", "excalidraw/clipboard":
	default:
		return nil, errors.NewParseError(formatName, errors.UnexpectedToken,
			"document type %q, expected \"excalidraw\"", s.Type)
	}
	return &s, nil
}

// Import decodes an .excalidraw document into a graph.
func Import(data []byte) (graph.Graph, error) {
	s, err := Decode(data)
	if err != nil {
		return graph.Graph{}, err
	}
	return FromScene(s)
}

// FromScene maps a decoded scene onto the graph IR.
//
// Shapes and frames become nodes; a text bound to a container becomes the
// container's label instead of a node of its own. Arrows and lines bound
// at both ends become edges with absolute points. Deleted elements, unbound
// linear elements and unknown element types are ignored.
func FromScene(s *Scene) (graph.Graph, error) {
	live := make(map[string]*Element, len(s.Elements))
	for i := range s.Elements {
		if el := &s.Elements[i]; !el.IsDeleted {
			live[el.ID] = el
		}
	}

	labels := map[string]*Element{}
	for i := range s.Elements {
		el := &s.Elements[i]
		if el.IsDeleted || el.Type != TypeText {
			continue
		}
		if c, ok := live[el.container()]; ok && c.Type != TypeText {
			labels[c.ID] = el
		}
	}

	g := graph.Graph{Nodes: []graph.Node{}, Edges: []graph.Edge{}}
	nodes := map[string]*Element{}
	for i := range s.Elements {
		el := &s.Elements[i]
		if el.IsDeleted || labels[el.container()] == el {
			continue
		}
		n, ok := node(el, labels[el.ID], s.Files)
		if !ok {
			continue
		}
		nodes[el.ID] = el
		g.Nodes = append(g.Nodes, n)
	}
	// frames may follow their members
	for i := range g.Nodes {
		if f, ok := nodes[g.Nodes[i].ParentID]; !ok || f.Type != TypeFrame {
			g.Nodes[i].ParentID = ""
		}
	}

	for i := range s.Elements {
		el := &s.Elements[i]
		if el.IsDeleted || !el.linear() {
			continue
		}
		e, ok, err := edge(el, nodes, labels[el.ID])
		if err != nil {
			return graph.Graph{}, err
		}
		if ok {
			g.Edges = append(g.Edges, e)
		}
	}

	g = g.ResolveEndpoints()
	if err := graph.Validate(g); err != nil {
		return graph.Graph{}, err
	}
	return g, nil
}

func node(el *Element, label *Element, files map[string]File) (graph.Node, bool) {
	n := graph.Node{
		ID:       el.ID,
		X:        el.X,
		Y:        el.Y,
		Width:    el.Width,
		Height:   el.Height,
		ParentID: el.frame(),
	}

	switch el.Type {
	case TypeFrame:
		n.Subgraph = true
		if el.Name != nil {
			n.Label = *el.Name
		}
		return n, true
	case TypeRectangle:
		if el.Roundness != nil {
			n.Shape = graph.ShapeRounded
		}
	case TypeDiamond:
		n.Shape = graph.ShapeDiamond
	case TypeEllipse:
		n.Shape = graph.ShapeEllipse
	case TypeText:
		n.Shape = graph.ShapeText
		n.Label = el.Text
		n.Style = textStyle(el)
		return n, true
	case TypeImage:
		n.Shape = graph.ShapeImage
	default:
		return graph.Node{}, false
	}

	n.Style = shapeStyle(el, label)
	if el.Type == TypeImage && el.FileID != nil {
		if f, ok := files[*el.FileID]; ok {
			if n.Style == nil {
				n.Style = &graph.Style{}
			}
			n.Style.Image = &graph.Image{Src: f.DataURL}
		}
	}
	if label != nil {
		n.Label = label.Text
	}
	return n, true
}

func edge(el *Element, nodes map[string]*Element, label *Element) (graph.Edge, bool, error) {
	if el.StartBinding == nil || el.EndBinding == nil {
		return graph.Edge{}, false, nil
	}
	src, ok1 := nodes[el.StartBinding.ElementID]
	dst, ok2 := nodes[el.EndBinding.ElementID]
	if !ok1 || !ok2 {
		return graph.Edge{}, false, nil
	}

	e := graph.Edge{
		ID:    el.ID,
		Data:  graph.EdgeData{SourceID: src.ID, TargetID: dst.ID},
		Style: edgeStyle(el),
	}
	if f, ok := nodes[el.frame()]; ok && f.Type == TypeFrame {
		e.Data.ParentID = f.ID
	}
	if label != nil {
		e.Label = label.Text
	}

	if len(el.Points) >= 2 {
		l := linearOf(el)
		e.Points = make([]graph.Point, len(el.Points))
		for i := range el.Points {
			p := l.GlobalPoint(i)
			e.Points[i] = graph.Point{X: p.X, Y: p.Y}
		}
		return e, true, nil
	}

	pts, err := route(bindableOf(src), *el.StartBinding, bindableOf(dst), *el.EndBinding)
	if err != nil {
		return graph.Edge{}, false, err
	}
	e.Points = pts
	return e, true, nil
}

// route places the ends of a pointless linear element from its bindings.
func route(src geometry.Bindable, sb Binding, dst geometry.Bindable, eb Binding) ([]graph.Point, error) {
	start, err := geometry.BindingPoint(src, geometry.Binding{Focus: sb.Focus, Gap: sb.Gap}, dst.Center())
	if err != nil {
		return nil, err
	}
	end, err := geometry.BindingPoint(dst, geometry.Binding{Focus: eb.Focus, Gap: eb.Gap}, start)
	if err != nil {
		return nil, err
	}
	return []graph.Point{{X: start.X, Y: start.Y}, {X: end.X, Y: end.Y}}, nil
}

func linearOf(el *Element) geometry.Linear {
	pts := make([]ga.Point, len(el.Points))
	for i, p := range el.Points {
		pts[i] = ga.P(p.X, p.Y)
	}
	return geometry.Linear{X: el.X, Y: el.Y, Angle: el.Angle, Points: pts}
}

// bindableOf returns the binding outline of el. Frames bind like
// rectangles.
func bindableOf(el *Element) geometry.Bindable {
	kind, err := geometry.ParseShapeKind(el.Type)
	if err != nil {
		kind = geometry.Rectangle
	}
	return geometry.Bindable{Kind: kind, X: el.X, Y: el.Y, Width: el.Width, Height: el.Height, Angle: el.Angle}
}

// =============================================================================
// Styles
// =============================================================================

func shapeStyle(el *Element, label *Element) *graph.Style {
	var s graph.Style
	if bg := el.BackgroundColor; bg != "" && bg != transparent {
		s.Fill = &graph.Fill{Color: bg, Style: el.FillStyle}
	}
	s.Stroke = strokeOf(el)
	if label != nil {
		s.Font = fontOf(label)
	}
	if s == (graph.Style{}) {
		return nil
	}
	return &s
}

func textStyle(el *Element) *graph.Style {
	if f := fontOf(el); f != nil {
		return &graph.Style{Font: f}
	}
	return nil
}

func edgeStyle(el *Element) *graph.Style {
	var s graph.Style
	s.Stroke = strokeOf(el)

	start, end := arrowName(el.StartArrowhead), arrowName(el.EndArrowhead)
	defStart, defEnd := graph.ArrowNone, graph.ArrowArrow
	if el.Type == TypeLine {
		defEnd = graph.ArrowNone
	}
	if start != defStart || end != defEnd {
		s.Arrow = &graph.Arrow{Start: start, End: end}
	}
	if s == (graph.Style{}) {
		return nil
	}
	return &s
}

// strokeOf returns the stroke of el with values equal to the editor
// defaults left unset, or nil when nothing differs from the defaults.
func strokeOf(el *Element) *graph.Stroke {
	var st graph.Stroke
	if el.StrokeColor != "" && el.StrokeColor != defaultStroke {
		st.Color = el.StrokeColor
	}
	if el.StrokeWidth != 0 && el.StrokeWidth != defaultStrokeWidth {
		st.Width = el.StrokeWidth
	}
	if el.StrokeStyle == graph.DashDashed || el.StrokeStyle == graph.DashDotted {
		st.Dash = el.StrokeStyle
	}
	if st == (graph.Stroke{}) {
		return nil
	}
	return &st
}

func fontOf(el *Element) *graph.Font {
	var f graph.Font
	if el.FontFamily != 0 && el.FontFamily != defaultFontFamily {
		f.Family = fontNames[el.FontFamily]
	}
	if el.FontSize != 0 && el.FontSize != defaultFontSize {
		f.Size = el.FontSize
	}
	if el.StrokeColor != "" && el.StrokeColor != defaultStroke {
		f.Color = el.StrokeColor
	}
	if f == (graph.Font{}) {
		return nil
	}
	return &f
}

func arrowName(head *string) string {
	if head == nil {
		return graph.ArrowNone
	}
	switch *head {
	case "triangle", "triangle_outline":
		return graph.ArrowTriangle
	case "dot", "circle", "circle_outline":
		return graph.ArrowDot
	default:
		return graph.ArrowArrow
	}
}

// =============================================================================
// Errors
// =============================================================================

func jsonError(err error) error {
	var syn *json.SyntaxError
	if stderrors.As(err, &syn) {
		return &errors.ParseError{
			Kind:   errors.Syntax,
			Format: formatName,
			Pos:    &errors.Position{Offset: int(syn.Offset)},
			Msg:    syn.Error(),
		}
	}
	var typ *json.UnmarshalTypeError
	if stderrors.As(err, &typ) {
		return &errors.ParseError{
			Kind:   errors.UnexpectedToken,
			Format: formatName,
			Pos:    &errors.Position{Offset: int(typ.Offset)},
			Msg:    typ.Error(),
		}
	}
	if stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrUnexpectedEOF) {
		return errors.NewParseError(formatName, errors.Truncated, "unexpected end of document")
	}
	return &errors.ParseError{Kind: errors.Syntax, Format: formatName, Cause: err}
}
