package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/geometry/ga"
)

// ellipseIterations is the fixed number of refinement steps used to project
// a point onto an ellipse.
const ellipseIterations = 4

// Endpoint selects which end of a linear element is bound.
type Endpoint int

const (
	Start Endpoint = iota
	End
)

// Binding locates where a linear element attaches to a shape.
type Binding struct {
	Focus float64 // in [-1, 1]; 0 aims at the center
	Gap   float64 // >= 1
}

// Rotate rotates (x, y) about (cx, cy) by angle radians.
func Rotate(x, y, cx, cy, angle float64) (float64, float64) {
	p := r2.Rotate(r2.Vec{X: x, Y: y}, angle, r2.Vec{X: cx, Y: cy})
	return p.X, p.Y
}

// FocusAndGap computes the binding of one end of l to shape.
//
// The focus is measured along the ray from the point adjacent to the bound
// end towards the bound end. The gap is the distance from the bound end to
// the shape's outline, never less than 1.
func FocusAndGap(l Linear, shape Bindable, end Endpoint) (Binding, error) {
	if len(l.Points) < 2 {
		return Binding{}, errors.New(errors.ErrCodeInvalidInput, "linear element needs at least 2 points, has %d", len(l.Points))
	}
	if !shape.Kind.Valid() {
		return Binding{}, shape.unsupported()
	}

	direction := 1
	edgeIdx := len(l.Points) - 1
	if end == Start {
		direction = -1
		edgeIdx = 0
	}
	adjIdx := edgeIdx - direction

	edgePoint := l.GlobalPoint(edgeIdx)
	adjacent := l.GlobalPoint(adjIdx)

	focus, err := DetermineFocusDistance(shape, adjacent, edgePoint)
	if err != nil {
		return Binding{}, err
	}
	dist, err := DistanceToBindableElement(shape, edgePoint)
	if err != nil {
		return Binding{}, err
	}
	return Binding{Focus: focus, Gap: math.Max(1, finite(dist))}, nil
}

// DetermineFocusDistance returns the signed focus of the ray from a through
// b relative to shape, clamped to [-1, 1]. A degenerate ray (a == b) or a
// degenerate shape yields 0.
func DetermineFocusDistance(shape Bindable, a, b ga.Point) (float64, error) {
	rel := shape.relateToCenter()
	line := ga.Through(rel.ApplyPoint(a), rel.ApplyPoint(b))
	if !line.Valid() {
		return 0, nil
	}

	hw, hh := shape.halves()
	n, m, c := line.N, line.M, line.C

	var focus float64
	switch shape.Kind {
	case Rectangle, Text, Image:
		focus = c / (hw*math.Abs(n) + hh*math.Abs(m))
	case Diamond:
		if math.Abs(m) < math.Abs(n) {
			focus = c / (math.Abs(n) * hw)
		} else {
			focus = c / (math.Abs(m) * hh)
		}
	case Ellipse:
		q := 0.0
		if hw != 0 {
			q = hh / hw
		}
		focus = c / (hw * math.Sqrt(n*n+q*q*m*m))
	default:
		return 0, shape.unsupported()
	}
	return clamp(finite(focus), -1, 1), nil
}

// DistanceToBindableElement returns the signed distance from p to the
// outline of shape. Points outside the shape are positive.
func DistanceToBindableElement(shape Bindable, p ga.Point) (float64, error) {
	// The outlines are symmetric in both axes, so work in the positive quadrant.
	rel := shape.relateToCenter().ApplyPoint(p).Abs()
	hw, hh := shape.halves()

	switch shape.Kind {
	case Rectangle, Text, Image:
		return math.Max(
			ga.Distance(rel, ga.Equation(0, 1, -hh)),
			ga.Distance(rel, ga.Equation(1, 0, -hw)),
		), nil
	case Diamond:
		return ga.Distance(rel, ga.Equation(hh, hw, -hh*hw)), nil
	case Ellipse:
		return distanceToEllipse(rel, hw, hh), nil
	default:
		return 0, shape.unsupported()
	}
}

// distanceToEllipse projects rel (in the positive quadrant) onto the
// ellipse with semi-axes a and b using a fixed number of fixed-point
// iterations starting at 45°, then measures against the tangent at the
// projected point.
func distanceToEllipse(rel ga.Point, a, b float64) float64 {
	closest := closestPointOnEllipse(rel, a, b)
	tangent := ga.OrthogonalThrough(rel, closest)
	if !tangent.Valid() {
		return 0
	}
	return -sign(tangent.C) * ga.Distance(rel, tangent)
}

func closestPointOnEllipse(rel ga.Point, a, b float64) ga.Point {
	px, py := rel.X, rel.Y
	tx, ty := 0.707, 0.707

	for i := 0; i < ellipseIterations; i++ {
		ex := (a*a - b*b) * tx * tx * tx / a
		ey := (b*b - a*a) * ty * ty * ty / b

		rx, ry := a*tx-ex, b*ty-ey
		qx, qy := px-ex, py-ey

		r := math.Hypot(ry, rx)
		q := math.Hypot(qy, qx)
		if q == 0 || math.IsNaN(r) {
			break
		}

		tx = clamp((qx*r/q+ex)/a, 0, 1)
		ty = clamp((qy*r/q+ey)/b, 0, 1)
		t := math.Hypot(ty, tx)
		if t == 0 || math.IsNaN(t) {
			tx, ty = 0.707, 0.707
			break
		}
		tx /= t
		ty /= t
	}
	return ga.P(a*tx, b*ty)
}

// =============================================================================
// Inverse: from a binding back to coordinates
// =============================================================================

// focusSearchSteps bounds the bisection used to invert a focus value.
const focusSearchSteps = 48

// FocusPoint returns a point inside shape such that the ray from adjacent
// through it has the given focus. A focus of 0 yields the center.
func FocusPoint(shape Bindable, focus float64, adjacent ga.Point) (ga.Point, error) {
	if !shape.Kind.Valid() {
		return ga.Point{}, shape.unsupported()
	}
	center := shape.Center()
	focus = clamp(finite(focus), -1, 1)
	if focus == 0 {
		return center, nil
	}

	rel := shape.relateToCenter()
	back := rel.Reverse()
	adjRel := rel.ApplyPoint(adjacent)
	toward := ga.P(0, 0).Sub(adjRel).Unit()
	if math.IsNaN(toward.X) {
		return center, nil
	}
	// Slide a candidate along the axis perpendicular to the ray through the
	// center; the focus grows monotonically with the offset.
	perp := ga.V(toward.Y, -toward.X)
	hw, hh := shape.halves()
	limit := math.Hypot(hw, hh)

	at := func(t float64) ga.Point { return ga.P(0, 0).Add(perp.Scale(t)) }
	f := func(t float64) float64 {
		got, _ := DetermineFocusDistance(shape, adjacent, back.ApplyPoint(at(t)))
		return got
	}

	lo, hi := -limit, limit
	increasing := f(hi) >= f(lo)
	for i := 0; i < focusSearchSteps; i++ {
		mid := (lo + hi) / 2
		if (f(mid) < focus) == increasing {
			lo = mid
		} else {
			hi = mid
		}
	}
	return back.ApplyPoint(at((lo + hi) / 2)), nil
}

// BindingPoint returns where a linear element bound with b ends: on the
// ray from adjacent towards the focus point, b.Gap away from the outline.
func BindingPoint(shape Bindable, b Binding, adjacent ga.Point) (ga.Point, error) {
	focus, err := FocusPoint(shape, b.Focus, adjacent)
	if err != nil {
		return ga.Point{}, err
	}
	gap := math.Max(1, finite(b.Gap))

	dist := func(p ga.Point) float64 {
		d, _ := DistanceToBindableElement(shape, p)
		return d
	}
	if dist(adjacent) <= gap {
		return adjacent, nil
	}

	// focus is inside the shape (distance <= 0 < gap) and adjacent is
	// farther than gap, so the crossing lies between them.
	seg := adjacent.Sub(focus)
	lo, hi := 0.0, 1.0
	for i := 0; i < focusSearchSteps; i++ {
		mid := (lo + hi) / 2
		if dist(focus.Add(seg.Scale(mid))) < gap {
			lo = mid
		} else {
			hi = mid
		}
	}
	return focus.Add(seg.Scale(hi)), nil
}

// =============================================================================
// Helpers
// =============================================================================

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
