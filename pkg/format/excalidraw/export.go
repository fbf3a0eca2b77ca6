package excalidraw

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/geometry"
	"github.com/matzehuels/diagramkit/pkg/geometry/ga"
	"github.com/matzehuels/diagramkit/pkg/graph"
)

// Export writes g as an Excalidraw scene.
//
// Every node becomes one element, and every labeled node gets a bound text
// element. Edges become arrows whose bindings carry the focus and gap of
// their end points. Nodes without a size get the default 100x40 box.
func Export(g graph.Graph) ([]byte, error) {
	s, err := ToScene(g)
	if err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, &errors.ExportError{Format: formatName, Reason: "encode scene", Cause: err}
	}
	return append(out, '\n'), nil
}

// ToScene builds the scene Export writes.
func ToScene(g graph.Graph) (*Scene, error) {
	g = g.ResolveEndpoints()
	b := &builder{
		g:     g,
		idx:   g.Index(),
		used:  map[string]bool{},
		pos:   map[string]int{},
		scene: &Scene{Type: "excalidraw", Version: 2, Source: "diagramkit", Elements: []Element{}},
	}
	b.scene.AppState.ViewBackgroundColor = "#ffffff"
	for _, n := range g.Nodes {
		b.used[n.ID] = true
	}
	for _, e := range g.Edges {
		b.used[e.ID] = true
	}

	for _, n := range g.Nodes {
		b.node(n)
	}
	for _, e := range g.Edges {
		if err := b.edge(e); err != nil {
			return nil, err
		}
	}
	return b.scene, nil
}

type builder struct {
	g     graph.Graph
	idx   map[string]int
	used  map[string]bool
	pos   map[string]int // element id -> index in scene.Elements
	scene *Scene
}

func (b *builder) add(el Element) {
	b.pos[el.ID] = len(b.scene.Elements)
	b.scene.Elements = append(b.scene.Elements, el)
}

func (b *builder) bind(target string, ref BoundElement) {
	el := &b.scene.Elements[b.pos[target]]
	el.BoundElements = append(el.BoundElements, ref)
}

// claim returns an element id derived from want that no other element uses.
func (b *builder) claim(want string) string {
	id := want
	for n := 2; b.used[id]; n++ {
		id = fmt.Sprintf("%s-%d", want, n)
	}
	b.used[id] = true
	return id
}

// frameOf returns the frame id for an element inside parent, or nil.
func (b *builder) frameOf(parent string) *string {
	if i, ok := b.idx[parent]; ok && b.g.Nodes[i].Subgraph {
		return ptr(parent)
	}
	return nil
}

func size(n graph.Node) (w, h float64) {
	if n.HasSize() {
		return n.Width, n.Height
	}
	return defaultWidth, defaultHeight
}

func (b *builder) node(n graph.Node) {
	w, h := size(n)
	el := base(n.ID, elementType(n))
	el.X, el.Y, el.Width, el.Height = n.X, n.Y, w, h
	el.FrameID = b.frameOf(n.ParentID)

	switch {
	case n.Subgraph:
		el.Name = ptr(n.DisplayLabel())
		b.add(el)
		return
	case n.Shape == graph.ShapeText:
		applyFont(&el, n.Style)
		el.Text = n.DisplayLabel()
		el.OriginalText = el.Text
		el.TextAlign, el.VerticalAlign = "left", "top"
		el.LineHeight = lineHeight
		b.add(el)
		return
	case n.Shape == graph.ShapeRounded:
		el.Roundness = &Roundness{Type: 3}
	}

	applyShapeStyle(&el, n.Style)
	if n.Shape == graph.ShapeImage && n.Style != nil && n.Style.Image != nil && n.Style.Image.Src != "" {
		el.FileID = ptr(b.file(n.Style.Image.Src))
		el.Status = "saved"
	}
	b.add(el)

	if label := n.DisplayLabel(); label != "" {
		var font *graph.Style
		if n.Style != nil {
			font = &graph.Style{Font: n.Style.Font}
		}
		b.label(el.ID, label, n.Center(), el.FrameID, font)
	}
}

// label adds a text element bound to container and centered on at.
func (b *builder) label(container, text string, at graph.Point, frame *string, style *graph.Style) {
	t := base(b.claim(container+"-label"), TypeText)
	applyFont(&t, style)
	t.Text, t.OriginalText = text, text
	t.Width, t.Height = measure(text, t.FontSize)
	t.X, t.Y = at.X-t.Width/2, at.Y-t.Height/2
	t.TextAlign, t.VerticalAlign = "center", "middle"
	t.ContainerID = ptr(container)
	t.FrameID = frame
	t.LineHeight = lineHeight
	b.add(t)
	b.bind(container, BoundElement{ID: t.ID, Type: TypeText})
}

func (b *builder) file(src string) string {
	h := fnv.New64a()
	h.Write([]byte(src))
	id := fmt.Sprintf("%016x", h.Sum64())

	mime := "image/png"
	if rest, ok := strings.CutPrefix(src, "data:"); ok {
		if m, _, ok := strings.Cut(rest, ";"); ok && m != "" {
			mime = m
		}
	}
	if b.scene.Files == nil {
		b.scene.Files = map[string]File{}
	}
	b.scene.Files[id] = File{ID: id, MimeType: mime, DataURL: src}
	return id
}

func (b *builder) edge(e graph.Edge) error {
	si, ok1 := b.idx[e.Data.SourceID]
	ti, ok2 := b.idx[e.Data.TargetID]
	if !ok1 || !ok2 {
		return errors.NewExportError(formatName, "edge %q has unresolved endpoints %q -> %q",
			e.ID, e.Data.Source, e.Data.Target)
	}
	src, dst := bindable(b.g.Nodes[si]), bindable(b.g.Nodes[ti])

	pts := e.Points
	if len(pts) < 2 {
		var err error
		if pts, err = route(src, Binding{}, dst, Binding{}); err != nil {
			return &errors.ExportError{Format: formatName, Reason: fmt.Sprintf("route edge %q", e.ID), Cause: err}
		}
	}

	el := base(e.ID, TypeArrow)
	el.X, el.Y = pts[0].X, pts[0].Y
	el.Roundness = &Roundness{Type: 2}
	el.FrameID = b.frameOf(e.Data.ParentID)

	rel := make([]ga.Point, len(pts))
	el.Points = make([]Point, len(pts))
	minX, minY, maxX, maxY := math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)
	for i, p := range pts {
		x, y := p.X-el.X, p.Y-el.Y
		rel[i] = ga.P(x, y)
		el.Points[i] = Point{X: x, Y: y}
		minX, minY = math.Min(minX, x), math.Min(minY, y)
		maxX, maxY = math.Max(maxX, x), math.Max(maxY, y)
	}
	el.Width, el.Height = maxX-minX, maxY-minY

	l := geometry.Linear{X: el.X, Y: el.Y, Points: rel}
	start, err := geometry.FocusAndGap(l, src, geometry.Start)
	if err != nil {
		return &errors.ExportError{Format: formatName, Reason: fmt.Sprintf("bind edge %q", e.ID), Cause: err}
	}
	end, err := geometry.FocusAndGap(l, dst, geometry.End)
	if err != nil {
		return &errors.ExportError{Format: formatName, Reason: fmt.Sprintf("bind edge %q", e.ID), Cause: err}
	}
	el.StartBinding = &Binding{ElementID: e.Data.SourceID, Focus: start.Focus, Gap: start.Gap}
	el.EndBinding = &Binding{ElementID: e.Data.TargetID, Focus: end.Focus, Gap: end.Gap}

	el.EndArrowhead = ptr("arrow")
	if e.Style != nil {
		applyStroke(&el, e.Style.Stroke)
		if a := e.Style.Arrow; a != nil {
			el.StartArrowhead = arrowhead(a.Start, graph.ArrowNone)
			el.EndArrowhead = arrowhead(a.End, graph.ArrowArrow)
		}
	}
	b.add(el)
	b.bind(e.Data.SourceID, BoundElement{ID: el.ID, Type: TypeArrow})
	if e.Data.TargetID != e.Data.SourceID {
		b.bind(e.Data.TargetID, BoundElement{ID: el.ID, Type: TypeArrow})
	}

	if e.Label != "" {
		b.label(el.ID, e.Label, midpoint(pts), el.FrameID, nil)
	}
	return nil
}

// =============================================================================
// Element construction
// =============================================================================

// base returns an element with the editor's default appearance. The seed
// is derived from the id so repeated exports are byte-identical.
func base(id, typ string) Element {
	return Element{
		ID:              id,
		Type:            typ,
		StrokeColor:     defaultStroke,
		BackgroundColor: transparent,
		FillStyle:       "solid",
		StrokeWidth:     defaultStrokeWidth,
		StrokeStyle:     graph.DashSolid,
		Roughness:       1,
		Opacity:         100,
		GroupIDs:        []string{},
		Seed:            seed(id),
		Version:         1,
		VersionNonce:    seed(id + "#nonce"),
	}
}

func seed(id string) int64 {
	h := fnv.New32a()
	h.Write([]byte(id))
	return int64(h.Sum32() & 0x7fffffff)
}

func elementType(n graph.Node) string {
	if n.Subgraph {
		return TypeFrame
	}
	switch n.Shape {
	case graph.ShapeDiamond:
		return TypeDiamond
	case graph.ShapeEllipse, graph.ShapeCircle:
		return TypeEllipse
	case graph.ShapeText:
		return TypeText
	case graph.ShapeImage:
		return TypeImage
	default:
		return TypeRectangle
	}
}

func bindable(n graph.Node) geometry.Bindable {
	kind, err := geometry.ParseShapeKind(elementType(n))
	if err != nil {
		kind = geometry.Rectangle
	}
	w, h := size(n)
	return geometry.Bindable{Kind: kind, X: n.X, Y: n.Y, Width: w, Height: h}
}

func applyShapeStyle(el *Element, s *graph.Style) {
	if s == nil {
		return
	}
	if f := s.Fill; f != nil && f.Color != "" {
		el.BackgroundColor = f.Color
		if f.Style != "" {
			el.FillStyle = f.Style
		}
	}
	applyStroke(el, s.Stroke)
}

func applyStroke(el *Element, s *graph.Stroke) {
	if s == nil {
		return
	}
	if s.Color != "" {
		el.StrokeColor = s.Color
	}
	if s.Width > 0 {
		el.StrokeWidth = s.Width
	}
	if s.Dash == graph.DashDashed || s.Dash == graph.DashDotted {
		el.StrokeStyle = s.Dash
	}
}

func applyFont(el *Element, s *graph.Style) {
	el.FontSize, el.FontFamily = defaultFontSize, defaultFontFamily
	if s == nil || s.Font == nil {
		return
	}
	f := s.Font
	if f.Size > 0 {
		el.FontSize = f.Size
	}
	for code, name := range fontNames {
		if strings.EqualFold(name, f.Family) {
			el.FontFamily = code
		}
	}
	if f.Color != "" {
		el.StrokeColor = f.Color
	}
}

func arrowhead(name, fallback string) *string {
	if name == "" {
		name = fallback
	}
	switch name {
	case graph.ArrowNone:
		return nil
	case graph.ArrowTriangle:
		return ptr("triangle")
	case graph.ArrowDot:
		return ptr("circle")
	default:
		return ptr("arrow")
	}
}

// measure approximates the box of text set in the given font size.
func measure(text string, fontSize float64) (w, h float64) {
	lines := strings.Split(text, "\n")
	longest := 0
	for _, l := range lines {
		longest = max(longest, len([]rune(l)))
	}
	return math.Ceil(float64(longest) * fontSize * 0.55), float64(len(lines)) * fontSize * lineHeight
}

// midpoint returns the point halfway along the polyline.
func midpoint(pts []graph.Point) graph.Point {
	var total float64
	for i := 1; i < len(pts); i++ {
		total += math.Hypot(pts[i].X-pts[i-1].X, pts[i].Y-pts[i-1].Y)
	}
	half := total / 2
	for i := 1; i < len(pts); i++ {
		seg := math.Hypot(pts[i].X-pts[i-1].X, pts[i].Y-pts[i-1].Y)
		if seg > 0 && half <= seg {
			t := half / seg
			return graph.Point{
				X: pts[i-1].X + t*(pts[i].X-pts[i-1].X),
				Y: pts[i-1].Y + t*(pts[i].Y-pts[i-1].Y),
			}
		}
		half -= seg
	}
	return pts[0]
}
