package mermaid

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/graph"
)

// Export writes g as a Mermaid flowchart.
//
// Top-level vertices come first, then one subgraph block per cluster in
// document order, then the remaining links. A link is written inside a
// block when both endpoints lie in that block, so re-importing keeps its
// parent. Node ids are rewritten where Mermaid cannot express them.
func Export(g graph.Graph) ([]byte, error) {
	g = g.ResolveEndpoints()
	w := &writer{g: g, idx: g.Index(), ids: make(map[string]string, len(g.Nodes)), used: map[string]bool{}}
	for _, n := range g.Nodes {
		w.ids[n.ID] = w.uniqueID(n.ID)
	}

	for _, e := range g.Edges {
		if e.Data.SourceID == "" || e.Data.TargetID == "" {
			return nil, errors.NewExportError(formatName, "edge %q has unresolved endpoints %q -> %q",
				e.ID, e.Data.Source, e.Data.Target)
		}
	}

	dir := g.Direction
	if dir == "" {
		dir = graph.DirectionTB
	}
	w.line(0, "flowchart %s", dir)

	for _, n := range g.Nodes {
		if n.ParentID == "" && !n.Subgraph {
			w.vertex(n, 1)
		}
	}
	for _, n := range g.Nodes {
		if n.ParentID == "" && n.Subgraph {
			w.block(n, 1)
		}
	}
	for _, e := range g.Edges {
		if !w.written[e.ID] {
			w.link(e, 1)
		}
	}
	for _, n := range g.Nodes {
		w.style(n, 1)
	}
	return w.buf.Bytes(), nil
}

type writer struct {
	g       graph.Graph
	idx     map[string]int
	ids     map[string]string
	used    map[string]bool
	written map[string]bool
	buf     bytes.Buffer
}

func (w *writer) line(depth int, format string, args ...any) {
	w.buf.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(&w.buf, format, args...)
	w.buf.WriteByte('\n')
}

// block writes a subgraph with its direct vertices, nested subgraphs and
// the links that stay inside it.
func (w *writer) block(n graph.Node, depth int) {
	id := w.ids[n.ID]
	if label := n.DisplayLabel(); label != id {
		w.line(depth, "subgraph %s [%s]", id, quote(label))
	} else {
		w.line(depth, "subgraph %s", id)
	}
	for _, c := range w.g.Children(n.ID) {
		if !c.Subgraph {
			w.vertex(c, depth+1)
		}
	}
	for _, c := range w.g.Children(n.ID) {
		if c.Subgraph {
			w.block(c, depth+1)
		}
	}
	for _, e := range w.g.Edges {
		if e.Data.ParentID == n.ID && w.inside(e.Data.SourceID, n.ID) && w.inside(e.Data.TargetID, n.ID) {
			w.link(e, depth+1)
		}
	}
	w.line(depth, "end")
}

// inside reports whether id lies strictly within cluster.
func (w *writer) inside(id, cluster string) bool {
	for p := w.parent(id); p != ""; p = w.parent(p) {
		if p == cluster {
			return true
		}
	}
	return false
}

func (w *writer) parent(id string) string {
	if i, ok := w.idx[id]; ok {
		return w.g.Nodes[i].ParentID
	}
	return ""
}

var brackets = map[graph.Shape][2]string{
	"":                   {"[", "]"},
	graph.ShapeRectangle: {"[", "]"},
	graph.ShapeImage:     {"[", "]"},
	graph.ShapeText:      {"[", "]"},
	graph.ShapeRounded:   {"(", ")"},
	graph.ShapeDiamond:   {"{", "}"},
	graph.ShapeCircle:    {"((", "))"},
	graph.ShapeEllipse:   {"([", "])"},
	graph.ShapeCylinder:  {"[(", ")]"},
	graph.ShapeHexagon:   {"{{", "}}"},
}

func (w *writer) vertex(n graph.Node, depth int) {
	id := w.ids[n.ID]
	b, ok := brackets[n.Shape]
	if !ok {
		b = brackets[""]
	}
	label := n.DisplayLabel()
	if label == id && b == brackets[""] {
		w.line(depth, "%s", id)
		return
	}
	w.line(depth, "%s%s%s%s", id, b[0], quote(label), b[1])
}

func (w *writer) link(e graph.Edge, depth int) {
	if w.written == nil {
		w.written = map[string]bool{}
	}
	w.written[e.ID] = true

	src, dst := w.ids[e.Data.SourceID], w.ids[e.Data.TargetID]
	if e.Label != "" {
		w.line(depth, "%s %s|%s| %s", src, linkOf(e.Style), encodeText(e.Label), dst)
		return
	}
	w.line(depth, "%s %s %s", src, linkOf(e.Style), dst)
}

// linkOf renders the link operator for an edge style.
func linkOf(st *graph.Style) string {
	body := "--"
	head, tail := ">", ""
	if st != nil && st.Stroke != nil {
		switch {
		case st.Stroke.Dash == graph.DashDotted || st.Stroke.Dash == graph.DashDashed:
			body = "-.-"
		case st.Stroke.Width >= thickWidth:
			body = "=="
		}
	}
	if st != nil && st.Arrow != nil {
		switch st.Arrow.End {
		case graph.ArrowNone:
			head = ""
		case graph.ArrowDot:
			head = "o"
		}
		if st.Arrow.Start != "" && st.Arrow.Start != graph.ArrowNone {
			tail = "<"
		}
	}
	if head == "" && body != "-.-" {
		body += body[:1]
	}
	return tail + body + head
}

// style writes a style directive for nodes that carry fill, stroke or font
// settings.
func (w *writer) style(n graph.Node, depth int) {
	st := n.Style
	if st == nil {
		return
	}
	var props []string
	if st.Fill != nil && st.Fill.Color != "" {
		props = append(props, "fill:"+st.Fill.Color)
	}
	if s := st.Stroke; s != nil {
		if s.Color != "" {
			props = append(props, "stroke:"+s.Color)
		}
		if s.Width > 0 {
			props = append(props, "stroke-width:"+px(s.Width))
		}
		if s.Dash == graph.DashDashed || s.Dash == graph.DashDotted {
			props = append(props, "stroke-dasharray:5 5")
		}
	}
	if f := st.Font; f != nil {
		if f.Color != "" {
			props = append(props, "color:"+f.Color)
		}
		if f.Size > 0 {
			props = append(props, "font-size:"+px(f.Size))
		}
		if f.Family != "" {
			props = append(props, "font-family:"+f.Family)
		}
	}
	if len(props) > 0 {
		w.line(depth, "style %s %s", w.ids[n.ID], strings.Join(props, ","))
	}
}

func px(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) + "px" }

// =============================================================================
// Identifiers and text
// =============================================================================

var keywords = map[string]bool{
	"graph": true, "flowchart": true, "subgraph": true, "end": true, "direction": true,
	"style": true, "classDef": true, "class": true, "click": true, "linkStyle": true,
}

// sanitize maps id onto the characters a Mermaid vertex id may contain.
// Hyphens survive only between two id characters.
func sanitize(id string) string {
	rs := []rune(id)
	out := make([]rune, len(rs))
	for i, r := range rs {
		switch {
		case isIDChar(r):
			out[i] = r
		case r == '-' && i > 0 && i < len(rs)-1 && isIDChar(rs[i-1]) && isIDChar(rs[i+1]):
			out[i] = r
		default:
			out[i] = '_'
		}
	}
	s := string(out)
	if s == "" {
		s = "n"
	}
	if keywords[s] {
		s += "_"
	}
	return s
}

func (w *writer) uniqueID(id string) string {
	base := sanitize(id)
	s := base
	for i := 2; w.used[s]; i++ {
		s = base + "_" + strconv.Itoa(i)
	}
	w.used[s] = true
	return s
}

// quote returns text as shape content, quoting it when it holds characters
// that would end the shape early.
func quote(s string) string {
	if s != "" && s == strings.TrimSpace(s) && !strings.ContainsAny(s, "\"[](){}<>|#;&%\n") {
		return s
	}
	return `"` + encodeText(s) + `"`
}
