package graph

import "math"

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns the horizontal extent.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Empty reports whether the box contains nothing.
func (b Bounds) Empty() bool { return b.MaxX < b.MinX || b.MaxY < b.MinY }

// Bounds returns the box enclosing every node and edge point.
// An empty graph returns a box for which Empty reports true.
func (g Graph) Bounds() Bounds {
	b := Bounds{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	for _, n := range g.Nodes {
		b.MinX = math.Min(b.MinX, n.X)
		b.MinY = math.Min(b.MinY, n.Y)
		b.MaxX = math.Max(b.MaxX, n.X+n.Width)
		b.MaxY = math.Max(b.MaxY, n.Y+n.Height)
	}
	for _, e := range g.Edges {
		for _, p := range e.Points {
			b.MinX = math.Min(b.MinX, p.X)
			b.MinY = math.Min(b.MinY, p.Y)
			b.MaxX = math.Max(b.MaxX, p.X)
			b.MaxY = math.Max(b.MaxY, p.Y)
		}
	}
	return b
}

// HasPositions reports whether any node carries a non-zero position or size.
// Importers of position-less formats (Mermaid, plain DOT) produce graphs
// for which this is false.
func (g Graph) HasPositions() bool {
	for _, n := range g.Nodes {
		if n.X != 0 || n.Y != 0 || n.Width != 0 || n.Height != 0 {
			return true
		}
	}
	return false
}

// Translate returns a copy of g shifted by (dx, dy).
func (g Graph) Translate(dx, dy float64) Graph {
	out := g.Clone()
	for i := range out.Nodes {
		out.Nodes[i].X += dx
		out.Nodes[i].Y += dy
	}
	for i := range out.Edges {
		for j := range out.Edges[i].Points {
			out.Edges[i].Points[j].X += dx
			out.Edges[i].Points[j].Y += dy
		}
	}
	return out
}
