// Package ga provides small immutable 2D values for rigid-motion geometry:
// points, vectors, lines and transforms.
//
// Every operation returns a new value; nothing is mutated in place. A
// [Transform] is a rotation followed by a translation. Transforms combine
// with [Compose] and invert with [Transform.Reverse], and act on points,
// vectors and lines through the Apply methods.
//
// Lines are kept normalized (N² + M² = 1) so that [Distance] is a true
// signed Euclidean distance and C is the signed distance of the origin.
package ga

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Point is a location in the plane.
type Point struct{ X, Y float64 }

// P is shorthand for Point{x, y}.
func P(x, y float64) Point { return Point{X: x, Y: y} }

// Vector is a direction with magnitude. Translations act on points but not
// on vectors.
type Vector struct{ X, Y float64 }

// V is shorthand for Vector{x, y}.
func V(x, y float64) Vector { return Vector{X: x, Y: y} }

// From returns the vector from the origin to p.
func From(p Point) Vector { return Vector(p) }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Vector { return Vector(r2.Sub(r2.Vec(p), r2.Vec(q))) }

// Add returns p moved by v.
func (p Point) Add(v Vector) Point { return Point(r2.Add(r2.Vec(p), r2.Vec(v))) }

// Abs returns the point mirrored into the positive quadrant.
func (p Point) Abs() Point { return Point{X: math.Abs(p.X), Y: math.Abs(p.Y)} }

// Scale returns v scaled by f.
func (v Vector) Scale(f float64) Vector { return Vector(r2.Scale(f, r2.Vec(v))) }

// Neg returns -v.
func (v Vector) Neg() Vector { return Vector{X: -v.X, Y: -v.Y} }

// Norm returns the length of v.
func (v Vector) Norm() float64 { return r2.Norm(r2.Vec(v)) }

// Unit returns v scaled to length 1. The zero vector yields NaN components.
func (v Vector) Unit() Vector { return Vector(r2.Unit(r2.Vec(v))) }

// Dot returns the dot product of v and w.
func (v Vector) Dot(w Vector) float64 { return r2.Dot(r2.Vec(v), r2.Vec(w)) }

// =============================================================================
// Lines
// =============================================================================

// Line is the set of points with N·x + M·y + C = 0, normalized so that
// (N, M) is a unit normal.
type Line struct{ N, M, C float64 }

// Equation returns the normalized line a·x + b·y + c = 0.
// Degenerate input (a = b = 0) yields NaN coefficients.
func Equation(a, b, c float64) Line {
	l := math.Hypot(a, b)
	return Line{N: a / l, M: b / l, C: c / l}
}

// Through returns the line through a and b, oriented so that its normal is
// the direction from a to b rotated clockwise by 90°.
func Through(a, b Point) Line {
	return Equation(a.Y-b.Y, b.X-a.X, a.X*b.Y-b.X*a.Y)
}

// OrthogonalThrough returns the line through at whose normal points from
// at towards against. The distance of against to the result is therefore
// |against - at| and positive.
func OrthogonalThrough(against, at Point) Line {
	n := against.Sub(at).Unit()
	return Line{N: n.X, M: n.Y, C: -(n.X*at.X + n.Y*at.Y)}
}

// Distance returns the signed distance of p to l. Points on the side the
// normal points to are positive.
func Distance(p Point, l Line) float64 {
	return l.N*p.X + l.M*p.Y + l.C
}

// Normal returns the unit normal of l.
func (l Line) Normal() Vector { return Vector{X: l.N, Y: l.M} }

// Valid reports whether l has finite coefficients.
func (l Line) Valid() bool {
	return !math.IsNaN(l.N) && !math.IsNaN(l.M) && !math.IsNaN(l.C) &&
		!math.IsInf(l.C, 0)
}

// =============================================================================
// Transforms
// =============================================================================

// Transform is a rigid motion: rotate by Angle about the origin, then
// translate by Shift.
type Transform struct {
	Angle float64
	Shift Vector
}

// Identity returns the transform that moves nothing.
func Identity() Transform { return Transform{} }

// Translation returns a pure translation by v.
func Translation(v Vector) Transform { return Transform{Shift: v} }

// Rotation returns a rotation by angle (radians, counter-clockwise in a
// y-up frame) about center.
func Rotation(center Point, angle float64) Transform {
	rotated := r2.Rotate(r2.Vec(center), angle, r2.Vec{})
	return Transform{Angle: angle, Shift: Vector(r2.Sub(r2.Vec(center), rotated))}
}

// Compose returns the transform that applies b first and a second.
func Compose(a, b Transform) Transform {
	return Transform{
		Angle: a.Angle + b.Angle,
		Shift: a.ApplyVector(b.Shift).Add(a.Shift),
	}
}

// Add returns v + w.
func (v Vector) Add(w Vector) Vector { return Vector(r2.Add(r2.Vec(v), r2.Vec(w))) }

// Reverse returns the inverse transform.
func (t Transform) Reverse() Transform {
	inv := Transform{Angle: -t.Angle}
	inv.Shift = inv.ApplyVector(t.Shift).Neg()
	return inv
}

// ApplyPoint moves p.
func (t Transform) ApplyPoint(p Point) Point {
	return Point(r2.Rotate(r2.Vec(p), t.Angle, r2.Vec{})).Add(t.Shift)
}

// ApplyVector rotates v. Translation does not affect directions.
func (t Transform) ApplyVector(v Vector) Vector {
	return Vector(r2.Rotate(r2.Vec(v), t.Angle, r2.Vec{}))
}

// ApplyLine moves every point of l and returns the resulting line.
func (t Transform) ApplyLine(l Line) Line {
	n := t.ApplyVector(l.Normal())
	return Line{N: n.X, M: n.Y, C: l.C - n.Dot(t.Shift)}
}
