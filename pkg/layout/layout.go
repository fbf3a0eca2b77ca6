package layout

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/graph"
)

// idNamespace seeds the SHA-1 UUIDs given to laid-out nodes and edges.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/matzehuels/diagramkit/layout"))

// Relation is a source optionally connected to a target. A relation
// without a target only contributes its source vertex.
type Relation struct {
	Source    string
	Target    string
	HasTarget bool
}

// Layout positions g and returns a new graph. Nodes are merged by label:
// every distinct label becomes one node, every edge one edge, parallel
// edges included. Clusters (subgraph nodes, or nodes referenced as a
// parent) enclose their members. Output ids are regenerated; the input is
// not modified.
//
// Every parent reference must resolve to a node. Use [FromGraph] for
// graphs whose parent ids name clusters that have no node of their own.
func Layout(ctx context.Context, g graph.Graph, opts Options) (graph.Graph, error) {
	if err := graph.Validate(g); err != nil {
		var re *errors.ReferentialError
		if stderrors.As(err, &re) && re.Cycle {
			return graph.Graph{}, &errors.LayoutError{Reason: errors.CyclicClusterContainment, Cause: err}
		}
		return graph.Graph{}, err
	}
	return run(ctx, g, opts, false)
}

// FromGraph is [Layout] for graphs whose ParentID values may name clusters
// rather than nodes. An unresolved parent id becomes a cluster labelled
// with that id, so seven nodes spread over two named clusters lay out as
// nine nodes, two of them subgraphs.
func FromGraph(ctx context.Context, g graph.Graph, opts Options) (graph.Graph, error) {
	return run(ctx, g, opts, true)
}

// FromRelations lays out a list of relations with default-sized nodes.
// The relations [A], [B], [B→C] produce three nodes and one edge.
func FromRelations(ctx context.Context, rels []Relation, opts Options) (graph.Graph, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return graph.Graph{}, err
	}

	b := newBuilder()
	for _, r := range rels {
		if r.Source == "" {
			continue
		}
		b.c.ensure(r.Source)
		if r.HasTarget && r.Target != "" {
			b.c.ensure(r.Target)
			b.link(r.Source, r.Target, graph.Edge{})
		}
	}
	return b.finish(ctx, opts)
}

func run(ctx context.Context, g graph.Graph, opts Options, lenient bool) (graph.Graph, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return graph.Graph{}, err
	}
	b := newBuilder()
	if err := b.addGraph(g.ResolveEndpoints(), lenient); err != nil {
		return graph.Graph{}, err
	}
	return b.finish(ctx, opts)
}

// builder accumulates the compound graph of one call together with the
// presentation attributes carried over to the result.
type builder struct {
	c         *Compound
	nodeAttrs map[string]graph.Node
	edgeAttrs map[string]graph.Edge
	pairs     map[[2]string]int
}

func newBuilder() *builder {
	return &builder{
		c:         NewCompound(),
		nodeAttrs: make(map[string]graph.Node),
		edgeAttrs: make(map[string]graph.Edge),
		pairs:     make(map[[2]string]int),
	}
}

// link adds a relation. Keys follow "from->to#n" where n counts earlier
// relations between the same pair.
func (b *builder) link(from, to string, e graph.Edge) {
	pair := [2]string{from, to}
	key := fmt.Sprintf("%s->%s#%d", from, to, b.pairs[pair])
	b.pairs[pair]++
	b.c.Links = append(b.c.Links, &Link{Key: key, From: from, To: to})
	b.edgeAttrs[key] = e
}

func (b *builder) addGraph(g graph.Graph, lenient bool) error {
	keys, err := vertexKeys(g, lenient)
	if err != nil {
		return err
	}
	keyOf := func(id string) (string, bool) {
		k, ok := keys[id]
		return k, ok
	}

	for _, n := range g.Nodes {
		key := keys[n.ID]
		v := b.c.ensure(key)
		v.Label = n.DisplayLabel()
		if _, seen := b.nodeAttrs[key]; !seen {
			b.nodeAttrs[key] = n
		}
		if n.Subgraph {
			v.Cluster = true
		}
		if n.HasSize() && v.Width == 0 {
			v.Width, v.Height = n.Width, n.Height
		}
		if n.ParentID == "" || v.Parent != "" {
			continue
		}
		parent := keys[n.ParentID]
		v.Parent = parent
		pv := b.c.ensure(parent)
		pv.Cluster = true
		if pv.Label == "" {
			pv.Label = n.ParentID
		}
	}

	for _, e := range g.Edges {
		from, fromOK := keyOf(e.Data.SourceID)
		if !fromOK {
			from = e.Data.Source
		}
		to, toOK := keyOf(e.Data.TargetID)
		if !toOK {
			to = e.Data.Target
		}
		if from != "" {
			b.c.ensure(from)
		}
		if to != "" {
			b.c.ensure(to)
		}
		if from != "" && to != "" {
			b.link(from, to, e)
		}
	}
	return checkContainment(b.c)
}

// vertexKeys maps node ids, and in lenient mode unresolved parent ids, to
// compound vertex keys. Nodes sharing a label share a key, except that a
// cluster never shares the key of one of its members: such a cluster gets
// a suffixed key and keeps its label.
func vertexKeys(g graph.Graph, lenient bool) (map[string]string, error) {
	idx := g.Index()
	keys := make(map[string]string, len(g.Nodes))
	used := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		keys[n.ID] = n.DisplayLabel()
		used[n.DisplayLabel()] = true
	}
	for _, n := range g.Nodes {
		if n.ParentID == "" {
			continue
		}
		if _, ok := idx[n.ParentID]; !ok {
			if !lenient {
				return nil, &errors.ReferentialError{NodeID: n.ID, MissingNodeID: n.ParentID}
			}
			if _, seen := keys[n.ParentID]; !seen {
				keys[n.ParentID] = n.ParentID
				used[n.ParentID] = true
			}
		}
		if keys[n.ParentID] != keys[n.ID] {
			continue
		}
		key := keys[n.ParentID]
		for i := 2; used[key]; i++ {
			key = fmt.Sprintf("%s#%d", keys[n.ParentID], i)
		}
		keys[n.ParentID] = key
		used[key] = true
	}
	return keys, nil
}

// checkContainment rejects cluster parent chains that loop.
func checkContainment(c *Compound) error {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(c.Vertices))
	for _, v := range c.Vertices {
		var chain []string
		for key := v.Key; key != "" && color[key] != black; {
			if color[key] == gray {
				return errors.NewLayoutError(errors.CyclicClusterContainment, "cluster %q contains itself", key)
			}
			color[key] = gray
			chain = append(chain, key)
			next, ok := c.Vertex(key)
			if !ok {
				break
			}
			key = next.Parent
		}
		for _, key := range chain {
			color[key] = black
		}
	}
	return nil
}

func (b *builder) finish(ctx context.Context, opts Options) (graph.Graph, error) {
	engine, _ := LookupEngine(opts.Engine)
	for _, v := range b.c.Vertices {
		if v.Width <= 0 || v.Height <= 0 {
			v.Width, v.Height = opts.NodeWidth, opts.NodeHeight
		}
	}
	if err := engine.Layout(ctx, b.c, opts); err != nil {
		return graph.Graph{}, err
	}
	routeGroupLinks(b.c)
	applyMargin(b.c, opts)
	return b.export(opts), nil
}

// export reads the compound back into a graph with fresh ids. Vertex
// centers become top-left corners.
func (b *builder) export(opts Options) graph.Graph {
	ids := make(map[string]string, len(b.c.Vertices))
	for _, v := range b.c.Vertices {
		ids[v.Key] = uuid.NewSHA1(idNamespace, []byte("node:"+v.Key)).String()
	}

	out := graph.Graph{
		Direction: opts.Direction,
		Nodes:     make([]graph.Node, 0, len(b.c.Vertices)),
		Edges:     make([]graph.Edge, 0, len(b.c.Links)),
	}
	for _, v := range b.c.Vertices {
		src := b.nodeAttrs[v.Key]
		n := graph.Node{
			ID:       ids[v.Key],
			Label:    b.label(v.Key),
			X:        round(v.X - v.Width/2),
			Y:        round(v.Y - v.Height/2),
			Width:    round(v.Width),
			Height:   round(v.Height),
			ParentID: ids[v.Parent],
			Subgraph: v.Cluster,
			Style:    src.Style,
		}
		if !v.Cluster {
			n.Shape = src.Shape
		}
		out.Nodes = append(out.Nodes, n)
	}
	for _, l := range b.c.Links {
		src := b.edgeAttrs[l.Key]
		points := make([]graph.Point, len(l.Points))
		for i, p := range l.Points {
			points[i] = graph.Point{X: round(p.X), Y: round(p.Y)}
		}
		out.Edges = append(out.Edges, graph.Edge{
			ID:     uuid.NewSHA1(idNamespace, []byte("edge:"+l.Key)).String(),
			Points: points,
			Label:  src.Label,
			Style:  src.Style,
			Data: graph.EdgeData{
				Source:   b.label(l.From),
				Target:   b.label(l.To),
				SourceID: ids[l.From],
				TargetID: ids[l.To],
				ParentID: ids[b.c.CommonParent(l.From, l.To)],
			},
		})
	}
	return out
}

// label returns the display label of the vertex with the given key.
func (b *builder) label(key string) string {
	if v, ok := b.c.Vertex(key); ok && v.Label != "" {
		return v.Label
	}
	return key
}

// applyMargin shifts everything so the drawing starts at the margin.
func applyMargin(c *Compound, opts Options) {
	minX, minY := math.Inf(1), math.Inf(1)
	for _, v := range c.Vertices {
		minX = math.Min(minX, v.X-v.Width/2)
		minY = math.Min(minY, v.Y-v.Height/2)
	}
	for _, l := range c.Links {
		for _, p := range l.Points {
			minX = math.Min(minX, p.X)
			minY = math.Min(minY, p.Y)
		}
	}
	if math.IsInf(minX, 1) {
		return
	}
	dx, dy := opts.MarginX-minX, opts.MarginY-minY
	for _, v := range c.Vertices {
		v.X += dx
		v.Y += dy
	}
	for _, l := range c.Links {
		for i := range l.Points {
			l.Points[i].X += dx
			l.Points[i].Y += dy
		}
	}
}

// round keeps two decimals so output is stable across platforms.
func round(v float64) float64 { return math.Round(v*100) / 100 }
