package geometry

import (
	stderrors "errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/geometry/ga"
)

func rect(kind ShapeKind) Bindable {
	return Bindable{Kind: kind, X: 0, Y: 0, Width: 100, Height: 40}
}

func TestRotate(t *testing.T) {
	x, y := Rotate(1, 0, 0, 0, math.Pi/2)
	assert.InDelta(t, 0, x, 1e-12)
	assert.InDelta(t, 1, y, 1e-12)

	x, y = Rotate(3, 2, 2, 2, math.Pi)
	assert.InDelta(t, 1, x, 1e-12)
	assert.InDelta(t, 2, y, 1e-12)
}

func TestGlobalPointRotatesAboutBoxCenter(t *testing.T) {
	l := Linear{X: 0, Y: 0, Angle: math.Pi, Points: []ga.Point{ga.P(0, 0), ga.P(10, 0)}}
	p := l.GlobalPoint(0)
	assert.InDelta(t, 10, p.X, 1e-9)
	assert.InDelta(t, 0, p.Y, 1e-9)
}

func TestDistanceToBindableElement(t *testing.T) {
	tests := []struct {
		name  string
		shape Bindable
		p     ga.Point
		want  float64
	}{
		{"rectangle right", rect(Rectangle), ga.P(150, 20), 50},
		{"rectangle below", rect(Rectangle), ga.P(50, 70), 30},
		{"rectangle inside", rect(Rectangle), ga.P(50, 20), -20},
		{"text like rectangle", rect(Text), ga.P(150, 20), 50},
		{"image like rectangle", rect(Image), ga.P(-50, 20), 50},
		{"diamond right", rect(Diamond), ga.P(110, 20), 200 / math.Hypot(20, 50)},
		{"circle right", Bindable{Kind: Ellipse, Width: 100, Height: 100}, ga.P(150, 50), 50},
		{"circle inside", Bindable{Kind: Ellipse, Width: 100, Height: 100}, ga.P(50, 30), -30},
		{
			"rotated rectangle",
			Bindable{Kind: Rectangle, Width: 100, Height: 40, Angle: math.Pi / 2},
			ga.P(50, 100), // 80 below center, the rotated half-width is 50
			30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DistanceToBindableElement(tt.shape, tt.p)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-3)
		})
	}
}

func TestFocusAndGap(t *testing.T) {
	shape := rect(Rectangle)

	t.Run("through center", func(t *testing.T) {
		l := Linear{X: -100, Y: 20, Points: []ga.Point{ga.P(0, 0), ga.P(90, 0)}}
		b, err := FocusAndGap(l, shape, End)
		require.NoError(t, err)
		assert.InDelta(t, 0, b.Focus, 1e-9)
		assert.InDelta(t, 10, b.Gap, 1e-9)
	})

	t.Run("offset ray", func(t *testing.T) {
		l := Linear{X: -100, Y: 30, Points: []ga.Point{ga.P(0, 0), ga.P(90, 0)}}
		b, err := FocusAndGap(l, shape, End)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, math.Abs(b.Focus), 1e-9)
	})

	t.Run("start endpoint", func(t *testing.T) {
		l := Linear{X: 110, Y: 20, Points: []ga.Point{ga.P(0, 0), ga.P(100, 0)}}
		b, err := FocusAndGap(l, shape, Start)
		require.NoError(t, err)
		assert.InDelta(t, 0, b.Focus, 1e-9)
		assert.InDelta(t, 10, b.Gap, 1e-9)
	})

	t.Run("gap clamped to one", func(t *testing.T) {
		l := Linear{X: -100, Y: 20, Points: []ga.Point{ga.P(0, 0), ga.P(110, 0)}}
		b, err := FocusAndGap(l, shape, End)
		require.NoError(t, err)
		assert.Equal(t, 1.0, b.Gap)
	})

	t.Run("too few points", func(t *testing.T) {
		_, err := FocusAndGap(Linear{Points: []ga.Point{ga.P(0, 0)}}, shape, End)
		assert.Error(t, err)
	})
}

func TestUnsupportedShapeKind(t *testing.T) {
	_, err := ParseShapeKind("star")
	var use *errors.UnsupportedShapeKind
	require.True(t, stderrors.As(err, &use))
	assert.Equal(t, "star", use.Kind)

	bad := Bindable{Width: 10, Height: 10}
	_, err = DistanceToBindableElement(bad, ga.P(0, 0))
	assert.True(t, stderrors.As(err, &use))
	_, err = DetermineFocusDistance(bad, ga.P(-10, 0), ga.P(0, 0))
	assert.True(t, stderrors.As(err, &use))
	_, err = FocusAndGap(Linear{Points: []ga.Point{ga.P(0, 0), ga.P(1, 0)}}, bad, End)
	assert.True(t, stderrors.As(err, &use))
}

func TestParseShapeKindRoundTrip(t *testing.T) {
	for _, k := range ShapeKinds {
		got, err := ParseShapeKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
}

func TestFocusAndGapRanges(t *testing.T) {
	angles := []float64{0, 0.3, math.Pi / 4, math.Pi / 2, 2.5, -1}
	sizes := [][2]float64{{100, 40}, {40, 100}, {60, 60}, {500, 2}, {1, 300}}
	starts := []ga.Point{ga.P(-300, -200), ga.P(-300, 10), ga.P(50, -400), ga.P(400, 400), ga.P(20, 15)}
	ends := []ga.Point{ga.P(0, 0), ga.P(30, 10), ga.P(-5, 25), ga.P(200, 200), ga.P(10, -50)}

	for _, kind := range ShapeKinds {
		for _, angle := range angles {
			for _, size := range sizes {
				shape := Bindable{Kind: kind, X: -10, Y: -5, Width: size[0], Height: size[1], Angle: angle}
				for _, s := range starts {
					for _, e := range ends {
						l := Linear{X: s.X, Y: s.Y, Points: []ga.Point{ga.P(0, 0), ga.P(e.X-s.X, e.Y-s.Y)}}
						for _, end := range []Endpoint{Start, End} {
							b, err := FocusAndGap(l, shape, end)
							require.NoError(t, err)
							if b.Focus < -1 || b.Focus > 1 || math.IsNaN(b.Focus) {
								t.Fatalf("%v %v: focus = %v out of range", kind, size, b.Focus)
							}
							if b.Gap < 1 || math.IsNaN(b.Gap) {
								t.Fatalf("%v %v: gap = %v below 1", kind, size, b.Gap)
							}
						}
					}
				}
			}
		}
	}
}

func TestEllipseProjectionIsBounded(t *testing.T) {
	shapes := []Bindable{
		{Kind: Ellipse, Width: 10000, Height: 1},
		{Kind: Ellipse, Width: 1, Height: 10000},
		{Kind: Ellipse, Width: 100, Height: 40},
	}
	points := []ga.Point{ga.P(0, 0), ga.P(1e6, -1e6), ga.P(50, 20), ga.P(-3, 7)}

	for _, s := range shapes {
		for _, p := range points {
			d, err := DistanceToBindableElement(s, p)
			require.NoError(t, err)
			assert.False(t, math.IsNaN(d) || math.IsInf(d, 0), "distance %v for %+v at %v", d, s, p)
		}
	}
}

func TestFocusPointInvertsFocus(t *testing.T) {
	adjacent := ga.P(-200, 35)
	for _, kind := range ShapeKinds {
		shape := rect(kind)
		for _, focus := range []float64{-0.4, 0, 0.3} {
			p, err := FocusPoint(shape, focus, adjacent)
			require.NoError(t, err)
			got, err := DetermineFocusDistance(shape, adjacent, p)
			require.NoError(t, err)
			assert.InDelta(t, focus, got, 1e-6, "%v focus %v", kind, focus)
		}
	}
}

func TestBindingPointHonorsGap(t *testing.T) {
	shape := rect(Rectangle)
	adjacent := ga.P(-200, 20)
	p, err := BindingPoint(shape, Binding{Focus: 0, Gap: 8}, adjacent)
	require.NoError(t, err)

	d, err := DistanceToBindableElement(shape, p)
	require.NoError(t, err)
	assert.InDelta(t, 8, d, 1e-6)
	assert.InDelta(t, 20, p.Y, 1e-6)
}
