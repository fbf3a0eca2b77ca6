package dot

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/graph"
)

// Export writes g as a DOT digraph. Clusters are emitted as nested
// "cluster_<id>" subgraphs; positions are written as graphviz pos, width
// and height attributes when the graph carries geometry. An edge attached
// to a cluster is drawn from the cluster's first leaf with ltail/lhead and
// compound=true; a cluster without leaves cannot carry edges.
func Export(g graph.Graph) ([]byte, error) {
	g = g.ResolveEndpoints()
	w := &writer{g: g, idx: g.Index(), positioned: g.HasPositions()}

	var (
		edges    []string
		compound bool
	)
	for _, e := range g.Edges {
		if e.Data.SourceID == "" || e.Data.TargetID == "" {
			return nil, errors.NewExportError(formatName, "edge %q has unresolved endpoints %q -> %q",
				e.ID, e.Data.Source, e.Data.Target)
		}
		from, ltail, err := w.anchor(e, e.Data.SourceID)
		if err != nil {
			return nil, err
		}
		to, lhead, err := w.anchor(e, e.Data.TargetID)
		if err != nil {
			return nil, err
		}
		attrs := edgeAttrs(e)
		if ltail != "" {
			attrs = append(attrs, attr("ltail", ltail))
		}
		if lhead != "" {
			attrs = append(attrs, attr("lhead", lhead))
		}
		compound = compound || ltail != "" || lhead != ""
		if len(attrs) == 0 {
			edges = append(edges, fmt.Sprintf("%s -> %s;", Quote(from), Quote(to)))
			continue
		}
		edges = append(edges, fmt.Sprintf("%s -> %s [%s];", Quote(from), Quote(to), strings.Join(attrs, ", ")))
	}

	w.line(0, "digraph G {")
	if compound {
		w.line(1, "compound=true;")
	}
	if g.Direction != "" {
		w.line(1, "rankdir=%s;", g.Direction)
	}
	w.children("", 1)
	for _, e := range edges {
		w.line(1, "%s", e)
	}
	w.line(0, "}")
	return w.buf.Bytes(), nil
}

type writer struct {
	g          graph.Graph
	idx        map[string]int
	positioned bool
	buf        bytes.Buffer
}

// anchor returns the node an edge endpoint is drawn from. For a cluster
// it is the first leaf inside it, together with the cluster's subgraph
// name.
func (w *writer) anchor(e graph.Edge, id string) (node, cluster string, err error) {
	i, ok := w.idx[id]
	if !ok || !w.g.Nodes[i].Subgraph {
		return id, "", nil
	}
	for _, n := range w.g.Nodes {
		if !n.Subgraph && w.inside(n, id) {
			return n.ID, clusterPrefix + "_" + id, nil
		}
	}
	return "", "", errors.NewExportError(formatName, "edge %q attaches to cluster %q, which has no nodes", e.ID, id)
}

// inside reports whether n lies somewhere within the cluster id.
func (w *writer) inside(n graph.Node, id string) bool {
	p := n.ParentID
	for steps := 0; p != "" && steps < len(w.g.Nodes); steps++ {
		if p == id {
			return true
		}
		i, ok := w.idx[p]
		if !ok {
			return false
		}
		p = w.g.Nodes[i].ParentID
	}
	return false
}

func (w *writer) line(depth int, format string, args ...any) {
	w.buf.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(&w.buf, format, args...)
	w.buf.WriteByte('\n')
}

// children writes the nodes parented by parentID, recursing into clusters.
func (w *writer) children(parentID string, depth int) {
	for _, n := range w.g.Nodes {
		if n.ParentID != parentID {
			continue
		}
		if !n.Subgraph {
			w.line(depth, "%s [%s];", Quote(n.ID), strings.Join(w.nodeAttrs(n), ", "))
			continue
		}
		w.line(depth, "subgraph %s {", Quote(clusterPrefix+"_"+n.ID))
		w.line(depth+1, "label=%s;", Quote(n.DisplayLabel()))
		if w.positioned && n.HasSize() {
			w.line(depth+1, "bb=%s;", Quote(fmt.Sprintf("%s,%s,%s,%s",
				num(n.X), num(n.Y), num(n.X+n.Width), num(n.Y+n.Height))))
		}
		w.children(n.ID, depth+1)
		w.line(depth, "}")
	}
}

var shapeNames = map[graph.Shape]string{
	graph.ShapeRectangle: "box",
	graph.ShapeRounded:   "box",
	graph.ShapeDiamond:   "diamond",
	graph.ShapeEllipse:   "ellipse",
	graph.ShapeCircle:    "circle",
	graph.ShapeHexagon:   "hexagon",
	graph.ShapeCylinder:  "cylinder",
	graph.ShapeText:      "plaintext",
	graph.ShapeImage:     "box",
}

func (w *writer) nodeAttrs(n graph.Node) []string {
	attrs := []string{attr("label", n.DisplayLabel())}
	if w.positioned && n.HasSize() {
		c := n.Center()
		attrs = append(attrs,
			attr("width", num(n.Width/pointsPerInch)),
			attr("height", num(n.Height/pointsPerInch)),
			attr("pos", num(c.X)+","+num(c.Y)),
		)
	}

	var styles []string
	if name, ok := shapeNames[n.Shape]; ok {
		attrs = append(attrs, attr("shape", name))
	}
	if n.Shape == graph.ShapeRounded {
		styles = append(styles, "rounded")
	}

	if st := n.Style; st != nil {
		if st.Fill != nil && st.Fill.Color != "" {
			attrs = append(attrs, attr("fillcolor", st.Fill.Color))
			styles = append(styles, "filled")
		}
		attrs, styles = strokeAttrs(st.Stroke, attrs, styles)
		if f := st.Font; f != nil {
			if f.Family != "" {
				attrs = append(attrs, attr("fontname", f.Family))
			}
			if f.Size > 0 {
				attrs = append(attrs, attr("fontsize", num(f.Size)))
			}
			if f.Color != "" {
				attrs = append(attrs, attr("fontcolor", f.Color))
			}
		}
		if st.Image != nil && st.Image.Src != "" {
			attrs = append(attrs, attr("image", st.Image.Src))
		}
	}
	if len(styles) > 0 {
		attrs = append(attrs, attr("style", strings.Join(styles, ",")))
	}
	return attrs
}

func edgeAttrs(e graph.Edge) []string {
	var attrs, styles []string
	if e.ID != "" {
		attrs = append(attrs, attr("id", e.ID))
	}
	if e.Label != "" {
		attrs = append(attrs, attr("label", e.Label))
	}
	if len(e.Points) > 0 {
		pts := make([]string, len(e.Points))
		for i, p := range e.Points {
			pts[i] = num(p.X) + "," + num(p.Y)
		}
		attrs = append(attrs, attr("pos", strings.Join(pts, " ")))
	}
	if st := e.Style; st != nil {
		attrs, styles = strokeAttrs(st.Stroke, attrs, styles)
		if a := st.Arrow; a != nil {
			attrs = append(attrs, arrowAttrs(*a)...)
		}
	}
	if len(styles) > 0 {
		attrs = append(attrs, attr("style", strings.Join(styles, ",")))
	}
	return attrs
}

func strokeAttrs(s *graph.Stroke, attrs, styles []string) ([]string, []string) {
	if s == nil {
		return attrs, styles
	}
	if s.Color != "" {
		attrs = append(attrs, attr("color", s.Color))
	}
	if s.Width > 0 {
		attrs = append(attrs, attr("penwidth", num(s.Width)))
	}
	if s.Dash == graph.DashDashed || s.Dash == graph.DashDotted {
		styles = append(styles, s.Dash)
	}
	return attrs, styles
}

var arrowHeads = map[string]string{
	graph.ArrowNone:     "none",
	graph.ArrowArrow:    "vee",
	graph.ArrowTriangle: "normal",
	graph.ArrowDot:      "dot",
}

func arrowAttrs(a graph.Arrow) []string {
	if a.Start == graph.ArrowNone && a.End == graph.ArrowNone {
		return []string{attr("dir", "none")}
	}
	var attrs []string
	if h, ok := arrowHeads[a.End]; ok {
		attrs = append(attrs, attr("arrowhead", h))
	}
	if t, ok := arrowHeads[a.Start]; ok {
		attrs = append(attrs, attr("arrowtail", t))
		if a.Start != graph.ArrowNone {
			attrs = append(attrs, attr("dir", "both"))
		}
	}
	return attrs
}

func attr(key, value string) string { return key + "=" + Quote(value) }

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// =============================================================================
// Identifier quoting
// =============================================================================

var (
	bareID  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	numeral = regexp.MustCompile(`^-?(\.[0-9]+|[0-9]+(\.[0-9]*)?)$`)
)

// Quote returns s as a DOT identifier: bare when it is a plain identifier or
// numeral, otherwise double-quoted with backslashes, quotes and newlines
// escaped. Keywords are always quoted.
func Quote(s string) string {
	if _, kw := keywords[strings.ToLower(s)]; !kw && (bareID.MatchString(s) || numeral.MatchString(s)) {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}
