package layout

import (
	"math"
	"slices"

	"github.com/matzehuels/diagramkit/pkg/graph"
)

// route runs a link through the virtual nodes of its chain. Endpoints are
// clipped to the boundary of the source and target boxes. A reversed link
// was laid out target-first, so its points are flipped back.
func route(l *Link, reversed bool, chain []string, centers map[string]rect) []graph.Point {
	from, to := l.From, l.To
	if reversed {
		from, to = to, from
	}
	src, dst := centers[from], centers[to]

	pts := make([]graph.Point, 0, len(chain)+2)
	pts = append(pts, graph.Point{X: src.u, Y: src.v})
	for _, id := range chain {
		r := centers[id]
		pts = append(pts, graph.Point{X: r.u, Y: r.v})
	}
	pts = append(pts, graph.Point{X: dst.u, Y: dst.v})

	pts[0] = clip(src, pts[1])
	pts[len(pts)-1] = clip(dst, pts[len(pts)-2])
	if reversed {
		slices.Reverse(pts)
	}
	return pts
}

// clip returns where the ray from the center of r toward p leaves r.
func clip(r rect, p graph.Point) graph.Point {
	dx, dy := p.X-r.u, p.Y-r.v
	if dx == 0 && dy == 0 {
		return graph.Point{X: r.u, Y: r.v}
	}
	t := math.Inf(1)
	if dx != 0 {
		t = math.Min(t, r.breadth/2/math.Abs(dx))
	}
	if dy != 0 {
		t = math.Min(t, r.depth/2/math.Abs(dy))
	}
	t = math.Min(t, 1)
	return graph.Point{X: r.u + dx*t, Y: r.v + dy*t}
}

// selfLoop draws a small rectangular loop on the far side of a box,
// within half the node separation.
func selfLoop(r rect, nodeSep float64) []graph.Point {
	reach := math.Max(nodeSep/2, 10)
	edge := r.maxU()
	top, bottom := r.v-r.depth/4, r.v+r.depth/4
	return []graph.Point{
		{X: edge, Y: top},
		{X: edge + reach, Y: top},
		{X: edge + reach, Y: bottom},
		{X: edge, Y: bottom},
	}
}

// routeGroupLinks gives links that touch a non-empty cluster a straight
// route between the two outlines. Engines only route box-to-box links.
func routeGroupLinks(c *Compound) {
	for _, l := range c.Links {
		if c.Routable(l) && len(l.Points) > 0 {
			continue
		}
		from, okFrom := c.Vertex(l.From)
		to, okTo := c.Vertex(l.To)
		if !okFrom || !okTo {
			continue
		}
		a, b := rectOf(from), rectOf(to)
		if l.From == l.To {
			l.Points = selfLoop(a, 0)
			continue
		}
		l.Points = []graph.Point{
			clip(a, graph.Point{X: b.u, Y: b.v}),
			clip(b, graph.Point{X: a.u, Y: a.v}),
		}
	}
}

// rectOf views a placed vertex as an x/y rect.
func rectOf(v *Vertex) rect {
	return rect{u: v.X, v: v.Y, breadth: v.Width, depth: v.Height}
}
