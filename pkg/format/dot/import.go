package dot

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/diagramkit/pkg/graph"
)

// pointsPerInch converts graphviz width/height attributes to points.
const pointsPerInch = 72

// clusterPrefix marks subgraphs that graphviz draws as clusters.
const clusterPrefix = "cluster"

// Import parses DOT source into a graph.
//
// Every distinct node identifier becomes one node, in first-seen order. An
// edge chain a -> b -> c yields one edge per adjacent pair. Subgraphs whose
// name starts with "cluster" become subgraph nodes and parent the nodes
// mentioned inside them. A cluster named "cluster_x" gets the id "x" unless
// some node is called "x"; then it keeps its full name. With compound=true,
// an edge carrying lhead or ltail attaches to that cluster instead of the
// node it names. Layout attributes written by graphviz (pos, width,
// height) are read back as top-left coordinates in points.
func Import(data []byte) (graph.Graph, error) {
	ast, err := Parse(string(data))
	if err != nil {
		return graph.Graph{}, err
	}
	return FromAST(ast)
}

// FromAST converts a parsed document into a graph.
func FromAST(ast *Graph) (graph.Graph, error) {
	b := &builder{
		strict:   ast.Strict,
		nodes:    map[string]*nodeState{},
		seen:     map[[2]string]bool{},
		ids:      map[string]bool{},
		clusters: map[string]string{},
	}
	collectIDs(ast.Stmts, b.ids)
	b.walk(ast.Stmts, scope{})
	g := b.build()
	if err := graph.Validate(g); err != nil {
		return graph.Graph{}, err
	}
	return g, nil
}

type nodeState struct {
	id      string
	attrs   Attrs
	parent  string
	cluster bool
}

type edgeState struct {
	from, to string
	attrs    Attrs
}

type scope struct {
	cluster      string // innermost cluster id
	nodeDefaults Attrs
	edgeDefaults Attrs
}

type builder struct {
	strict     bool
	graphAttrs Attrs
	order      []string
	nodes      map[string]*nodeState
	edges      []edgeState
	seen       map[[2]string]bool

	ids      map[string]bool   // every node identifier in the document
	clusters map[string]string // subgraph name -> cluster node id
}

// collectIDs records every node identifier in stmts, nested subgraphs
// included.
func collectIDs(stmts []Stmt, ids map[string]bool) {
	for _, s := range stmts {
		switch s := s.(type) {
		case NodeStmt:
			ids[s.Node.ID] = true
		case *Subgraph:
			collectIDs(s.Stmts, ids)
		case EdgeStmt:
			for _, op := range s.Operands {
				switch op := op.(type) {
				case NodeID:
					ids[op.ID] = true
				case *Subgraph:
					collectIDs(op.Stmts, ids)
				}
			}
		}
	}
}

// walk processes stmts within sc and returns the ids of every node they
// mention, in first-mention order.
func (b *builder) walk(stmts []Stmt, sc scope) []string {
	var mentioned []string
	seen := map[string]bool{}
	mention := func(ids ...string) {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				mentioned = append(mentioned, id)
			}
		}
	}

	for _, s := range stmts {
		switch s := s.(type) {
		case AttrStmt:
			switch s.Kind {
			case AttrGraph:
				b.setGraphAttrs(sc, s.Attrs...)
			case AttrNode:
				sc.nodeDefaults = append(append(Attrs{}, sc.nodeDefaults...), s.Attrs...)
			case AttrEdge:
				sc.edgeDefaults = append(append(Attrs{}, sc.edgeDefaults...), s.Attrs...)
			}
		case Assignment:
			b.setGraphAttrs(sc, Attr{Key: s.Key, Value: s.Value})
		case NodeStmt:
			n := b.touch(s.Node.ID, sc)
			n.attrs = append(n.attrs, s.Attrs...)
			mention(s.Node.ID)
		case *Subgraph:
			mention(b.subgraph(s, sc)...)
		case EdgeStmt:
			mention(b.edgeChain(s, sc)...)
		}
	}
	return mentioned
}

// setGraphAttrs applies graph attributes to the innermost cluster, or to
// the root graph outside any cluster.
func (b *builder) setGraphAttrs(sc scope, attrs ...Attr) {
	if sc.cluster == "" {
		b.graphAttrs = append(b.graphAttrs, attrs...)
		return
	}
	c := b.nodes[sc.cluster]
	c.attrs = append(c.attrs, attrs...)
}

// touch returns the node for id, creating it with the scope's defaults on
// first sight, and moves it into the scope's cluster.
func (b *builder) touch(id string, sc scope) *nodeState {
	n, ok := b.nodes[id]
	if !ok {
		n = &nodeState{id: id, attrs: append(Attrs{}, sc.nodeDefaults...)}
		b.nodes[id] = n
		b.order = append(b.order, id)
	}
	if sc.cluster != "" && sc.cluster != id && b.deeper(sc.cluster, n.parent) {
		n.parent = sc.cluster
	}
	return n
}

// deeper reports whether cluster lies strictly inside current (or current
// is unset), so membership only ever narrows.
func (b *builder) deeper(cluster, current string) bool {
	if current == "" {
		return true
	}
	for c := b.nodes[cluster].parent; c != ""; c = b.nodes[c].parent {
		if c == current {
			return true
		}
	}
	return false
}

// subgraph walks a subgraph body. Cluster subgraphs become nodes of their
// own; the cluster node itself is not among the returned members.
func (b *builder) subgraph(sg *Subgraph, sc scope) []string {
	inner := sc
	if strings.HasPrefix(sg.ID, clusterPrefix) {
		id := b.clusterID(sg.ID)
		c, ok := b.nodes[id]
		if !ok {
			c = &nodeState{id: id}
			b.nodes[id] = c
			b.order = append(b.order, id)
		}
		c.cluster = true
		if sc.cluster != "" && c.parent == "" {
			c.parent = sc.cluster
		}
		inner.cluster = id
	}
	return b.walk(sg.Stmts, inner)
}

// clusterID maps a cluster subgraph name to its node id. The "cluster_"
// prefix is stripped when no node in the document uses the short name.
// Cluster ids never coincide with node ids.
func (b *builder) clusterID(name string) string {
	if id, ok := b.clusters[name]; ok {
		return id
	}
	id := strings.TrimPrefix(name, clusterPrefix+"_")
	if id == "" || b.ids[id] || b.taken(id) {
		id = name
		for i := 2; b.ids[id] || b.taken(id); i++ {
			id = fmt.Sprintf("%s_%d", name, i)
		}
	}
	b.clusters[name] = id
	return id
}

// taken reports whether id already names a cluster.
func (b *builder) taken(id string) bool {
	for _, c := range b.clusters {
		if c == id {
			return true
		}
	}
	return false
}

// edgeChain adds one edge per adjacent operand pair and returns every node
// the chain mentions.
func (b *builder) edgeChain(es EdgeStmt, sc scope) []string {
	groups := make([][]string, len(es.Operands))
	var mentioned []string
	for i, op := range es.Operands {
		switch op := op.(type) {
		case NodeID:
			b.touch(op.ID, sc)
			groups[i] = []string{op.ID}
		case *Subgraph:
			groups[i] = b.subgraph(op, sc)
		}
		mentioned = append(mentioned, groups[i]...)
	}

	attrs := append(append(Attrs{}, sc.edgeDefaults...), es.Attrs...)
	for i := 0; i+1 < len(groups); i++ {
		for _, from := range groups[i] {
			for _, to := range groups[i+1] {
				if b.strict {
					key := [2]string{from, to}
					if b.seen[key] {
						continue
					}
					b.seen[key] = true
				}
				b.edges = append(b.edges, edgeState{from: from, to: to, attrs: attrs})
			}
		}
	}
	return mentioned
}

func (b *builder) build() graph.Graph {
	g := graph.Graph{
		Direction: parseRankdir(b.graphAttrs.Value("rankdir")),
		Nodes:     make([]graph.Node, 0, len(b.order)),
		Edges:     make([]graph.Edge, 0, len(b.edges)),
	}

	compound := isTrue(b.graphAttrs.Value("compound"))
	labels := make(map[string]string, len(b.order))
	for _, id := range b.order {
		n := b.nodes[id]
		node := graph.Node{ID: id, ParentID: n.parent, Subgraph: n.cluster}
		node.Label = n.attrs.Value("label")
		if node.Label == "" || node.Label == `\N` {
			node.Label = id
		}
		if !n.cluster {
			node.Shape = parseShape(n.attrs.Value("shape"), n.attrs.Value("style"))
		}
		node.Width = inches(n.attrs.Value("width"))
		node.Height = inches(n.attrs.Value("height"))
		if x, y, ok := parsePoint(n.attrs.Value("pos")); ok {
			node.X = round(x - node.Width/2)
			node.Y = round(y - node.Height/2)
		}
		if n.cluster {
			if x1, y1, x2, y2, ok := parseBox(n.attrs.Value("bb")); ok {
				node.X, node.Y = x1, y1
				node.Width, node.Height = x2-x1, y2-y1
			}
		}
		node.Style = nodeStyle(n.attrs)
		labels[id] = node.Label
		g.Nodes = append(g.Nodes, node)
	}

	for i, e := range b.edges {
		id := e.attrs.Value("id")
		if id == "" {
			id = fmt.Sprintf("e%d", i)
		}
		from, to := e.from, e.to
		if compound {
			from = b.clusterEnd(from, e.attrs.Value("ltail"))
			to = b.clusterEnd(to, e.attrs.Value("lhead"))
		}
		g.Edges = append(g.Edges, graph.Edge{
			ID:     id,
			Points: parseSpline(e.attrs.Value("pos")),
			Label:  e.attrs.Value("label"),
			Style:  edgeStyle(e.attrs),
			Data: graph.EdgeData{
				Source:   labels[from],
				Target:   labels[to],
				SourceID: from,
				TargetID: to,
			},
		})
	}
	return g
}

// clusterEnd returns the cluster named by an lhead/ltail attribute when node
// lies inside it, and node otherwise, as graphviz does.
func (b *builder) clusterEnd(node, clusterName string) string {
	id, ok := b.clusters[clusterName]
	if !ok {
		return node
	}
	for p := b.nodes[node].parent; p != ""; p = b.nodes[p].parent {
		if p == id {
			return id
		}
	}
	return node
}

// =============================================================================
// Attribute parsing
// =============================================================================

func parseRankdir(s string) graph.Direction {
	d := graph.Direction(strings.ToUpper(s))
	if d.Valid() {
		return d
	}
	return ""
}

var shapes = map[string]graph.Shape{
	"box":          graph.ShapeRectangle,
	"rect":         graph.ShapeRectangle,
	"rectangle":    graph.ShapeRectangle,
	"square":       graph.ShapeRectangle,
	"ellipse":      graph.ShapeEllipse,
	"oval":         graph.ShapeEllipse,
	"circle":       graph.ShapeCircle,
	"doublecircle": graph.ShapeCircle,
	"point":        graph.ShapeCircle,
	"diamond":      graph.ShapeDiamond,
	"hexagon":      graph.ShapeHexagon,
	"cylinder":     graph.ShapeCylinder,
	"plaintext":    graph.ShapeText,
	"plain":        graph.ShapeText,
	"none":         graph.ShapeText,
}

func isTrue(s string) bool {
	switch strings.ToLower(s) {
	case "true", "yes", "1":
		return true
	}
	return false
}

func parseShape(shape, style string) graph.Shape {
	s, ok := shapes[strings.ToLower(shape)]
	if !ok {
		return ""
	}
	if s == graph.ShapeRectangle && strings.Contains(style, "rounded") {
		return graph.ShapeRounded
	}
	return s
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func inches(s string) float64 {
	v, ok := parseFloat(s)
	if !ok || v < 0 {
		return 0
	}
	return round(v * pointsPerInch)
}

// round trims float noise from inch conversions.
func round(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// parsePoint parses "x,y" with an optional trailing "!".
func parsePoint(s string) (x, y float64, ok bool) {
	parts := strings.Split(strings.TrimSuffix(strings.TrimSpace(s), "!"), ",")
	if len(parts) < 2 {
		return 0, 0, false
	}
	x, okX := parseFloat(parts[0])
	y, okY := parseFloat(parts[1])
	return x, y, okX && okY
}

func parseBox(s string) (x1, y1, x2, y2 float64, ok bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return 0, 0, 0, 0, false
	}
	var v [4]float64
	for i, p := range parts {
		f, ok := parseFloat(p)
		if !ok {
			return 0, 0, 0, 0, false
		}
		v[i] = f
	}
	return math.Min(v[0], v[2]), math.Min(v[1], v[3]), math.Max(v[0], v[2]), math.Max(v[1], v[3]), true
}

// parseSpline parses an edge pos attribute: optional "s,x,y" and "e,x,y"
// endpoints followed by control points. The result runs from the start
// point through the controls to the end point.
func parseSpline(s string) []graph.Point {
	var start, end *graph.Point
	var pts []graph.Point
	for _, field := range strings.Fields(s) {
		switch {
		case strings.HasPrefix(field, "s,"), strings.HasPrefix(field, "e,"):
			x, y, ok := parsePoint(field[2:])
			if !ok {
				continue
			}
			p := graph.Point{X: x, Y: y}
			if field[0] == 's' {
				start = &p
			} else {
				end = &p
			}
		default:
			if x, y, ok := parsePoint(field); ok {
				pts = append(pts, graph.Point{X: x, Y: y})
			}
		}
	}
	if start != nil {
		pts = append([]graph.Point{*start}, pts...)
	}
	if end != nil {
		pts = append(pts, *end)
	}
	return pts
}

func nodeStyle(a Attrs) *graph.Style {
	var st graph.Style
	if c := a.Value("fillcolor"); c != "" {
		st.Fill = &graph.Fill{Color: c, Style: "solid"}
	}
	st.Stroke = strokeOf(a)
	if fam, size, color := a.Value("fontname"), a.Value("fontsize"), a.Value("fontcolor"); fam != "" || size != "" || color != "" {
		sz, _ := parseFloat(size)
		st.Font = &graph.Font{Family: fam, Size: sz, Color: color}
	}
	if img := a.Value("image"); img != "" {
		st.Image = &graph.Image{Src: img}
	}
	if st == (graph.Style{}) {
		return nil
	}
	return &st
}

func edgeStyle(a Attrs) *graph.Style {
	var st graph.Style
	st.Stroke = strokeOf(a)
	head, tail := arrowName(a.Value("arrowhead")), arrowName(a.Value("arrowtail"))
	switch a.Value("dir") {
	case "none":
		head, tail = graph.ArrowNone, graph.ArrowNone
	case "both":
		if tail == "" {
			tail = graph.ArrowArrow
		}
	}
	if head != "" || tail != "" {
		st.Arrow = &graph.Arrow{Start: tail, End: head}
	}
	if st == (graph.Style{}) {
		return nil
	}
	return &st
}

func strokeOf(a Attrs) *graph.Stroke {
	color := a.Value("color")
	width, _ := parseFloat(a.Value("penwidth"))
	var dash string
	style := a.Value("style")
	switch {
	case strings.Contains(style, "dashed"):
		dash = graph.DashDashed
	case strings.Contains(style, "dotted"):
		dash = graph.DashDotted
	}
	if color == "" && width == 0 && dash == "" {
		return nil
	}
	return &graph.Stroke{Color: color, Width: width, Dash: dash}
}

func arrowName(s string) string {
	switch s {
	case "":
		return ""
	case "none":
		return graph.ArrowNone
	case "dot", "odot":
		return graph.ArrowDot
	case "normal", "inv", "empty", "onormal":
		return graph.ArrowTriangle
	default:
		return graph.ArrowArrow
	}
}
