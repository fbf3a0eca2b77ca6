package geometry

import (
	"math"

	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/geometry/ga"
)

// ShapeKind is the closed set of shapes an edge endpoint can bind to.
// The zero value is not a valid kind.
type ShapeKind int

const (
	Rectangle ShapeKind = iota + 1
	Diamond
	Ellipse
	Text
	Image
)

// ShapeKinds lists every bindable kind.
var ShapeKinds = []ShapeKind{Rectangle, Diamond, Ellipse, Text, Image}

// String returns the Excalidraw element type name of the kind.
func (k ShapeKind) String() string {
	switch k {
	case Rectangle:
		return "rectangle"
	case Diamond:
		return "diamond"
	case Ellipse:
		return "ellipse"
	case Text:
		return "text"
	case Image:
		return "image"
	default:
		return "unknown"
	}
}

// Valid reports whether k is one of the bindable kinds.
func (k ShapeKind) Valid() bool { return k >= Rectangle && k <= Image }

// ParseShapeKind maps an element type name to its kind. Names outside the
// bindable set return *errors.UnsupportedShapeKind.
func ParseShapeKind(s string) (ShapeKind, error) {
	switch s {
	case "rectangle":
		return Rectangle, nil
	case "diamond":
		return Diamond, nil
	case "ellipse":
		return Ellipse, nil
	case "text":
		return Text, nil
	case "image":
		return Image, nil
	default:
		return 0, &errors.UnsupportedShapeKind{Kind: s}
	}
}

// Bindable is a shape an edge can attach to. X and Y locate the top-left
// corner of the unrotated box; Angle rotates the box about its center.
type Bindable struct {
	Kind          ShapeKind
	X, Y          float64
	Width, Height float64
	Angle         float64
}

// Center returns the center of the shape's box.
func (b Bindable) Center() ga.Point {
	return ga.P(b.X+b.Width/2, b.Y+b.Height/2)
}

// relateToCenter maps scene coordinates into the shape's frame: centered on
// the origin with the rotation undone.
func (b Bindable) relateToCenter() ga.Transform {
	c := b.Center()
	return ga.Compose(
		ga.Translation(ga.From(c).Neg()),
		ga.Rotation(c, -b.Angle),
	)
}

func (b Bindable) halves() (hw, hh float64) { return b.Width / 2, b.Height / 2 }

func (b Bindable) unsupported() error {
	return &errors.UnsupportedShapeKind{Kind: b.Kind.String()}
}

// Linear is an edge-like element: an ordered list of points relative to
// (X, Y), rotated by Angle about the center of the points' bounding box.
type Linear struct {
	X, Y   float64
	Angle  float64
	Points []ga.Point
}

// bounds returns the absolute bounding box of the unrotated points.
func (l Linear) bounds() (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, p := range l.Points {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return minX + l.X, minY + l.Y, maxX + l.X, maxY + l.Y
}

// GlobalPoint returns the absolute position of the i-th point.
func (l Linear) GlobalPoint(i int) ga.Point {
	x1, y1, x2, y2 := l.bounds()
	cx, cy := (x1+x2)/2, (y1+y2)/2
	p := l.Points[i]
	x, y := Rotate(l.X+p.X, l.Y+p.Y, cx, cy, l.Angle)
	return ga.P(x, y)
}
