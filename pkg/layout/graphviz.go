package layout

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/format/dot"
	"github.com/matzehuels/diagramkit/pkg/graph"
)

func init() {
	RegisterEngine(EngineGraphviz, EngineFunc(layoutGraphviz))
}

// pointsPerInch converts between graphviz inches and layout points.
const pointsPerInch = 72

// layoutGraphviz hands the compound to graphviz's dot layout and reads
// the positions back through the DOT importer. Graphviz puts the origin
// at the bottom left, so y is flipped.
func layoutGraphviz(ctx context.Context, c *Compound, opts Options) error {
	src, vertices, links := graphvizSource(c, opts)
	if err := ctx.Err(); err != nil {
		return err
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	cg, err := graphviz.ParseBytes(src)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "graphviz: parse generated DOT")
	}
	defer cg.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, cg, graphviz.XDOT, &buf); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "graphviz: layout")
	}

	out, err := dot.Import(buf.Bytes())
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "graphviz: read layout")
	}

	height := 0.0
	for _, n := range out.Nodes {
		height = math.Max(height, n.Y+n.Height)
	}
	for _, e := range out.Edges {
		for _, p := range e.Points {
			height = math.Max(height, p.Y)
		}
	}

	for _, n := range out.Nodes {
		v, ok := vertices[n.ID]
		if !ok {
			continue
		}
		if n.HasSize() {
			v.Width, v.Height = n.Width, n.Height
		}
		v.X = n.X + n.Width/2
		v.Y = height - (n.Y + n.Height/2)
	}
	for _, e := range out.Edges {
		l, ok := links[e.ID]
		if !ok {
			continue
		}
		l.Points = make([]graph.Point, len(e.Points))
		for i, p := range e.Points {
			l.Points[i] = graph.Point{X: p.X, Y: height - p.Y}
		}
	}
	return nil
}

// graphvizSource writes c as DOT for graphviz. Boxes are fixed-size
// nodes, non-empty clusters become cluster subgraphs. It returns the
// generated ids of vertices and links.
func graphvizSource(c *Compound, opts Options) ([]byte, map[string]*Vertex, map[string]*Link) {
	vertices := make(map[string]*Vertex, len(c.Vertices))
	ids := make(map[string]string, len(c.Vertices))
	for i, v := range c.Vertices {
		prefix := "n"
		if c.IsGroup(v.Key) {
			prefix = "c"
		}
		id := prefix + strconv.Itoa(i)
		ids[v.Key] = id
		vertices[id] = v
	}

	var b strings.Builder
	line := func(depth int, format string, args ...any) {
		b.WriteString(strings.Repeat("  ", depth))
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}
	inches := func(v float64) string { return strconv.FormatFloat(v/pointsPerInch, 'f', 4, 64) }

	line(0, "digraph G {")
	line(1, "rankdir=%s;", opts.Direction)
	line(1, "nodesep=%s;", inches(opts.NodeSep))
	line(1, "ranksep=%s;", inches(opts.RankSep))
	line(1, `node [shape=box, fixedsize=true, label=""];`)

	var members func(parent string, depth int)
	members = func(parent string, depth int) {
		for _, v := range c.Vertices {
			if v.Parent != parent {
				continue
			}
			if !c.IsGroup(v.Key) {
				line(depth, "%s [width=%s, height=%s];", ids[v.Key], inches(v.Width), inches(v.Height))
				continue
			}
			line(depth, "subgraph %s {", dot.Quote("cluster_"+ids[v.Key]))
			line(depth+1, "margin=%s;", strconv.FormatFloat(opts.ClusterPadding, 'f', -1, 64))
			members(v.Key, depth+1)
			line(depth, "}")
		}
	}
	members("", 1)

	links := make(map[string]*Link, len(c.Links))
	for i, l := range c.Links {
		if !c.Routable(l) {
			continue
		}
		id := "l" + strconv.Itoa(i)
		links[id] = l
		line(1, "%s -> %s [id=%s];", ids[l.From], ids[l.To], id)
	}
	line(0, "}")
	return []byte(b.String()), vertices, links
}
