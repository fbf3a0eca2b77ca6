package layout

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/matzehuels/diagramkit/pkg/dag"
	"github.com/matzehuels/diagramkit/pkg/dag/transform"
	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/graph"
)

func init() {
	RegisterEngine(EngineLayered, &sugiyama{place: placeMedian})
	RegisterEngine(EngineConstraint, &sugiyama{relax: true, place: placeProjected})
}

// placer assigns within-rank coordinates. rows holds the final order of
// every rank; gap returns the minimum center distance between neighbours.
type placer func(g *dag.DAG, rows [][]string, gap gapFunc, opts Options) map[string]float64

type gapFunc func(left, right string) float64

// sugiyama is the layered engine family. The layered and constraint
// engines share cycle breaking, ordering and routing; they differ in how
// ranks are assigned and how nodes are placed within a rank.
//
// All work happens in rank space: u runs along a rank, v across ranks
// (downward). The result is rotated into the requested direction at the
// end.
type sugiyama struct {
	relax bool
	place placer
}

// frame is one laid-out component in rank space.
type frame struct {
	boxes  map[string]rect
	groups map[string]rect
	routes map[string][]graph.Point
}

// rect is a center plus breadth (along u) and depth (along v).
type rect struct {
	u, v, breadth, depth float64
}

func (r rect) minU() float64 { return r.u - r.breadth/2 }
func (r rect) maxU() float64 { return r.u + r.breadth/2 }
func (r rect) minV() float64 { return r.v - r.depth/2 }
func (r rect) maxV() float64 { return r.v + r.depth/2 }

func (s *sugiyama) Layout(_ context.Context, c *Compound, opts Options) error {
	horizontal := opts.Direction.Horizontal()
	sizeOf := func(v *Vertex) (breadth, depth float64) {
		if horizontal {
			return v.Height, v.Width
		}
		return v.Width, v.Height
	}

	var frames []frame
	for _, comp := range components(c) {
		f, err := s.layoutComponent(c, comp, sizeOf, opts)
		if err != nil {
			return err
		}
		frames = append(frames, f)
	}

	// Pack components side by side along u, top-aligned along v.
	offset := 0.0
	merged := frame{boxes: map[string]rect{}, groups: map[string]rect{}, routes: map[string][]graph.Point{}}
	for _, f := range frames {
		minU, maxU, minV, _ := f.extent()
		dx, dy := offset-minU, -minV
		for k, r := range f.boxes {
			merged.boxes[k] = r.shift(dx, dy)
		}
		for k, r := range f.groups {
			merged.groups[k] = r.shift(dx, dy)
		}
		for k, pts := range f.routes {
			merged.routes[k] = shiftPoints(pts, dx, dy)
		}
		offset += maxU - minU + opts.NodeSep
	}

	orient(c, merged, opts.Direction)
	return nil
}

func (r rect) shift(du, dv float64) rect {
	r.u += du
	r.v += dv
	return r
}

func shiftPoints(pts []graph.Point, du, dv float64) []graph.Point {
	out := make([]graph.Point, len(pts))
	for i, p := range pts {
		out[i] = graph.Point{X: p.X + du, Y: p.Y + dv}
	}
	return out
}

// extent returns the bounding box of everything in the frame.
func (f frame) extent() (minU, maxU, minV, maxV float64) {
	minU, minV = math.Inf(1), math.Inf(1)
	maxU, maxV = math.Inf(-1), math.Inf(-1)
	grow := func(r rect) {
		minU, maxU = math.Min(minU, r.minU()), math.Max(maxU, r.maxU())
		minV, maxV = math.Min(minV, r.minV()), math.Max(maxV, r.maxV())
	}
	for _, r := range f.boxes {
		grow(r)
	}
	for _, r := range f.groups {
		grow(r)
	}
	for _, pts := range f.routes {
		for _, p := range pts {
			grow(rect{u: p.X, v: p.Y})
		}
	}
	if math.IsInf(minU, 1) {
		return 0, 0, 0, 0
	}
	return minU, maxU, minV, maxV
}

// layoutComponent runs the layered pipeline on one connected component.
func (s *sugiyama) layoutComponent(c *Compound, comp []*Vertex, sizeOf func(*Vertex) (float64, float64), opts Options) (frame, error) {
	g, loops, err := componentDAG(c, comp, sizeOf)
	if err != nil {
		return frame{}, errors.Wrap(errors.ErrCodeLayout, err, "layered layout")
	}
	inComp := make(map[string]bool, len(comp))
	for _, v := range comp {
		inComp[v.Key] = true
	}

	passes := 0
	if s.relax {
		passes = opts.Iterations
	}
	norm := transform.Normalize(g, passes)
	rows := orderRows(g, opts.Iterations)
	gap := gapBetween(g, opts)
	us := separate(g, rows, s.place(g, rows, gap, opts), gap)
	vs := rankCoordinates(g, rows, opts)

	f := frame{boxes: map[string]rect{}, groups: map[string]rect{}, routes: map[string][]graph.Point{}}
	centers := make(map[string]rect, g.NodeCount())
	for _, n := range g.Nodes() {
		r := rect{u: us[n.ID], v: vs[n.ID], breadth: n.Width, depth: n.Height}
		centers[n.ID] = r
		if !n.IsVirtual() {
			f.boxes[n.ID] = r
		}
	}
	f.groups = clusterBounds(g, centers, opts.ClusterPadding)

	for _, l := range c.Links {
		if !inComp[l.From] || !inComp[l.To] || !c.Routable(l) || l.From == l.To {
			continue
		}
		e, _ := g.Edge(l.Key)
		f.routes[l.Key] = route(l, e.Reversed, norm.Chains[l.Key], centers)
	}
	for _, l := range loops {
		f.routes[l.Key] = selfLoop(centers[l.From], opts.NodeSep)
	}
	return f, nil
}

// componentDAG builds the DAG of one component: its boxes, the clusters
// enclosing them and the routable links. Self loops are returned apart.
func componentDAG(c *Compound, comp []*Vertex, sizeOf func(*Vertex) (float64, float64)) (*dag.DAG, []*Link, error) {
	g := dag.New()
	inComp := make(map[string]bool, len(comp))
	for _, v := range comp {
		inComp[v.Key] = true
	}

	for _, grp := range c.Groups() {
		if !encloses(c, grp.Key, comp) {
			continue
		}
		if err := g.AddCluster(dag.Cluster{ID: grp.Key, Parent: grp.Parent}); err != nil {
			return nil, nil, fmt.Errorf("cluster %q: %w", grp.Key, err)
		}
	}
	for _, v := range comp {
		breadth, depth := sizeOf(v)
		if err := g.AddNode(dag.Node{ID: v.Key, Width: breadth, Height: depth, Cluster: v.Parent}); err != nil {
			return nil, nil, fmt.Errorf("node %q: %w", v.Key, err)
		}
	}
	if err := g.CheckClusters(); err != nil {
		return nil, nil, err
	}

	var loops []*Link
	for _, l := range c.Links {
		if !inComp[l.From] || !inComp[l.To] || !c.Routable(l) {
			continue
		}
		if l.From == l.To {
			loops = append(loops, l)
			continue
		}
		if err := g.AddEdge(dag.Edge{ID: l.Key, From: l.From, To: l.To}); err != nil {
			return nil, nil, fmt.Errorf("edge %q: %w", l.Key, err)
		}
	}
	return g, loops, nil
}

// encloses reports whether the cluster contains any of the vertices,
// directly or through nested clusters.
func encloses(c *Compound, cluster string, vs []*Vertex) bool {
	for _, v := range vs {
		if slices.Contains(c.Ancestors(v.Key), cluster) {
			return true
		}
	}
	return false
}

// gapBetween returns the minimum center distance between two neighbours
// of a rank: half of each breadth, NodeSep, and one ClusterPadding for
// every cluster border between them.
func gapBetween(g *dag.DAG, opts Options) gapFunc {
	return func(left, right string) float64 {
		a, _ := g.Node(left)
		b, _ := g.Node(right)
		common := len(g.ClusterPath(g.CommonCluster(a.Cluster, b.Cluster)))
		borders := len(g.ClusterPath(a.Cluster)) - common + len(g.ClusterPath(b.Cluster)) - common
		return (a.Width+b.Width)/2 + opts.NodeSep + float64(borders)*opts.ClusterPadding
	}
}

// rankCoordinates stacks ranks: each rank is as deep as its deepest node,
// separated by RankSep plus room for the cluster borders that close below
// it or open above the next rank.
func rankCoordinates(g *dag.DAG, rows [][]string, opts Options) map[string]float64 {
	first, last := clusterSpans(g)
	borders := func(row int, spans map[string]int) int {
		most := 0
		for cluster, r := range spans {
			if r != row {
				continue
			}
			n := 0
			for _, c := range g.ClusterPath(cluster) {
				if spans[c] == row {
					n++
				}
			}
			most = max(most, n)
		}
		return most
	}

	vs := make(map[string]float64, g.NodeCount())
	top := 0.0
	for r, ids := range rows {
		depth := 0.0
		for _, id := range ids {
			n, _ := g.Node(id)
			depth = math.Max(depth, n.Height)
		}
		if r > 0 {
			top += opts.RankSep + float64(borders(r-1, last)+borders(r, first))*opts.ClusterPadding
		}
		for _, id := range ids {
			vs[id] = top + depth/2
		}
		top += depth
	}
	return vs
}

// clusterSpans returns the first and last rank each cluster occupies.
func clusterSpans(g *dag.DAG) (first, last map[string]int) {
	first, last = make(map[string]int), make(map[string]int)
	for _, n := range g.Nodes() {
		for _, c := range g.ClusterPath(n.Cluster) {
			if r, ok := first[c]; !ok || n.Row < r {
				first[c] = n.Row
			}
			if r, ok := last[c]; !ok || n.Row > r {
				last[c] = n.Row
			}
		}
	}
	return first, last
}

// clusterBounds encloses every cluster's members, nested clusters
// included, with padding on all sides.
func clusterBounds(g *dag.DAG, centers map[string]rect, padding float64) map[string]rect {
	type box struct{ minU, maxU, minV, maxV float64 }
	boxes := make(map[string]*box)
	grow := func(cluster string, r rect, pad float64) {
		b, ok := boxes[cluster]
		if !ok {
			b = &box{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
			boxes[cluster] = b
		}
		b.minU = math.Min(b.minU, r.minU()-pad)
		b.maxU = math.Max(b.maxU, r.maxU()+pad)
		b.minV = math.Min(b.minV, r.minV()-pad)
		b.maxV = math.Max(b.maxV, r.maxV()+pad)
	}

	for _, n := range g.Nodes() {
		path := g.ClusterPath(n.Cluster)
		for depth, c := range path {
			// Each enclosing level adds one padding ring.
			grow(c, centers[n.ID], float64(len(path)-depth)*padding)
		}
	}

	out := make(map[string]rect, len(boxes))
	for c, b := range boxes {
		out[c] = rect{
			u:       (b.minU + b.maxU) / 2,
			v:       (b.minV + b.maxV) / 2,
			breadth: b.maxU - b.minU,
			depth:   b.maxV - b.minV,
		}
	}
	return out
}

// orient maps rank space onto the drawing plane for the direction and
// writes the results into the compound.
func orient(c *Compound, f frame, dir graph.Direction) {
	_, _, _, maxV := f.extent()
	toXY := func(u, v float64) (float64, float64) {
		switch dir {
		case graph.DirectionBT:
			return u, maxV - v
		case graph.DirectionLR:
			return v, u
		case graph.DirectionRL:
			return maxV - v, u
		default:
			return u, v
		}
	}
	place := func(v *Vertex, r rect) {
		v.X, v.Y = toXY(r.u, r.v)
		if dir.Horizontal() {
			v.Width, v.Height = r.depth, r.breadth
		} else {
			v.Width, v.Height = r.breadth, r.depth
		}
	}

	for _, v := range c.Vertices {
		if r, ok := f.boxes[v.Key]; ok {
			place(v, r)
		} else if r, ok := f.groups[v.Key]; ok {
			place(v, r)
		}
	}
	for _, l := range c.Links {
		pts, ok := f.routes[l.Key]
		if !ok {
			continue
		}
		l.Points = make([]graph.Point, len(pts))
		for i, p := range pts {
			x, y := toXY(p.X, p.Y)
			l.Points[i] = graph.Point{X: x, Y: y}
		}
	}
}
