package graph

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Direction is the flow direction of a diagram.
type Direction string

// Flow directions shared by layout options and the DOT/Mermaid formats.
const (
	DirectionTB Direction = "TB" // top to bottom
	DirectionBT Direction = "BT" // bottom to top
	DirectionLR Direction = "LR" // left to right
	DirectionRL Direction = "RL" // right to left
)

// Directions lists every valid direction in canonical order.
var Directions = []Direction{DirectionTB, DirectionBT, DirectionLR, DirectionRL}

// Valid reports whether d is one of the four flow directions.
func (d Direction) Valid() bool {
	switch d {
	case DirectionTB, DirectionBT, DirectionLR, DirectionRL:
		return true
	}
	return false
}

// Horizontal reports whether ranks advance along the x axis.
func (d Direction) Horizontal() bool { return d == DirectionLR || d == DirectionRL }

// Shape is a format-neutral hint for how a node is drawn. Importers map their
// native shapes onto it and exporters map it back; layout ignores it.
type Shape string

// Node shapes understood by every exporter. The empty shape means rectangle.
const (
	ShapeRectangle Shape = "rectangle"
	ShapeRounded   Shape = "rounded"
	ShapeDiamond   Shape = "diamond"
	ShapeEllipse   Shape = "ellipse"
	ShapeCircle    Shape = "circle"
	ShapeHexagon   Shape = "hexagon"
	ShapeCylinder  Shape = "cylinder"
	ShapeText      Shape = "text"
	ShapeImage     Shape = "image"
)

// OrDefault returns s, or ShapeRectangle when s is empty.
func (s Shape) OrDefault() Shape {
	if s == "" {
		return ShapeRectangle
	}
	return s
}

// =============================================================================
// Graph - Canonical Intermediate Representation
// =============================================================================

// Point is a plane coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Graph is the canonical diagram representation shared by every importer,
// exporter and the layout engine.
//
// Node and edge order is significant: importers preserve first-seen order so
// that regenerated ids are stable, and exporters emit entities in slice order.
// A Graph exclusively owns its slices; use [Graph.Clone] before mutating a
// graph you did not build.
type Graph struct {
	Direction Direction `json:"direction,omitempty"`
	Nodes     []Node    `json:"nodes"`
	Edges     []Edge    `json:"edges"`
}

// Node is a drawable shape or, when Subgraph is set, a cluster boundary.
type Node struct {
	ID       string  `json:"id"`
	Label    string  `json:"label,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	ParentID string  `json:"parentId,omitempty"` // containing cluster node
	Subgraph bool    `json:"subgraph,omitempty"`
	Shape    Shape   `json:"shape,omitempty"`
	Style    *Style  `json:"style,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// HasSize reports whether both dimensions are set.
func (n Node) HasSize() bool { return n.Width > 0 && n.Height > 0 }

// Center returns the center of the node's bounding box.
func (n Node) Center() Point {
	return Point{X: n.X + n.Width/2, Y: n.Y + n.Height/2}
}

// Edge is a directed connection routed along Points.
type Edge struct {
	ID     string   `json:"id"`
	Points []Point  `json:"points,omitempty"`
	Data   EdgeData `json:"data"`
	Label  string   `json:"label,omitempty"`
	Style  *Style   `json:"style,omitempty"`
}

// EdgeData holds the endpoints of an edge. Source and Target are the human
// labels of the endpoints; SourceID and TargetID are node ids once resolved.
type EdgeData struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	SourceID string `json:"sourceId,omitempty"`
	TargetID string `json:"targetId,omitempty"`
	ParentID string `json:"parentId,omitempty"`
}

// =============================================================================
// Style Properties
// =============================================================================

// Style carries presentation attributes for export fidelity. Layout never
// reads it. Every field is optional.
type Style struct {
	Fill    *Fill    `json:"fill,omitempty"`
	Stroke  *Stroke  `json:"stroke,omitempty"`
	Font    *Font    `json:"font,omitempty"`
	Padding *Padding `json:"padding,omitempty"`
	Image   *Image   `json:"image,omitempty"`
	Arrow   *Arrow   `json:"arrow,omitempty"` // edges only
}

// Fill describes a shape's interior.
type Fill struct {
	Color string `json:"color,omitempty"`
	Style string `json:"style,omitempty"` // solid, hachure, cross-hatch, none
}

// Stroke describes an outline or edge line.
type Stroke struct {
	Color string  `json:"color,omitempty"`
	Width float64 `json:"width,omitempty"`
	Dash  string  `json:"dash,omitempty"` // solid, dashed, dotted
}

// Font describes label text.
type Font struct {
	Family string  `json:"family,omitempty"`
	Size   float64 `json:"size,omitempty"`
	Color  string  `json:"color,omitempty"`
}

// Padding is the inner spacing between a shape's outline and its label.
type Padding struct {
	Top    float64 `json:"top,omitempty"`
	Right  float64 `json:"right,omitempty"`
	Bottom float64 `json:"bottom,omitempty"`
	Left   float64 `json:"left,omitempty"`
}

// Image references a picture drawn inside a node.
type Image struct {
	Src string `json:"src,omitempty"`
}

// Arrow decorations at each end of an edge: none, arrow, triangle, dot.
type Arrow struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Dash patterns.
const (
	DashSolid  = "solid"
	DashDashed = "dashed"
	DashDotted = "dotted"
)

// Arrow heads.
const (
	ArrowNone     = "none"
	ArrowArrow    = "arrow"
	ArrowTriangle = "triangle"
	ArrowDot      = "dot"
)
