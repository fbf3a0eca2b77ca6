package mermaid

import "strings"

// Flow is a parsed flowchart.
type Flow struct {
	Direction   string // as written: TB, TD, BT, RL, LR; empty when omitted
	Vertices    map[string]*Vertex
	VertexOrder []string // first-mention order
	Edges       []FlowEdge
	SubGraphs   []*SubGraph // opening order; parents precede children

	// Styles holds the properties of "style <id> k:v,..." directives.
	// Later directives override earlier ones property by property.
	Styles map[string]map[string]string
}

// Vertex shapes, named after the delimiters that produce them.
const (
	ShapeSquare     = "square"     // [text]
	ShapeRound      = "round"      // (text)
	ShapeDiamond    = "diamond"    // {text}
	ShapeCircle     = "circle"     // ((text))
	ShapeStadium    = "stadium"    // ([text])
	ShapeSubroutine = "subroutine" // [[text]]
	ShapeCylinder   = "cylinder"   // [(text)]
	ShapeOdd        = "odd"        // >text]
	ShapeHexagon    = "hexagon"    // {{text}}
)

var shapeByOpener = map[string]string{
	"[":  ShapeSquare,
	"(":  ShapeRound,
	"{":  ShapeDiamond,
	"((": ShapeCircle,
	"([": ShapeStadium,
	"[[": ShapeSubroutine,
	"[(": ShapeCylinder,
	">":  ShapeOdd,
	"{{": ShapeHexagon,
}

// Vertex is a flowchart node. Text defaults to the id.
type Vertex struct {
	ID    string
	Text  string
	Shape string
}

// Edge types.
const (
	ArrowPoint  = "arrow_point"
	ArrowOpen   = "arrow_open"
	ArrowCircle = "arrow_circle"
	ArrowCross  = "arrow_cross"
)

// Edge strokes.
const (
	StrokeNormal = "normal"
	StrokeThick  = "thick"
	StrokeDotted = "dotted"
)

// FlowEdge is one link between two vertices. Chains and & groups expand
// into one FlowEdge per pair.
type FlowEdge struct {
	Start         string
	End           string
	Type          string
	Stroke        string
	Text          string
	Bidirectional bool   // <--> and friends
	SubGraph      string // innermost block the link was written in
}

// SubGraph is a subgraph block.
//
// Nodes lists the vertices the block claims, followed in source order by
// the ids of directly nested subgraphs. A vertex mentioned in several
// blocks belongs to the first block that closes, so inner blocks win.
type SubGraph struct {
	ID        string
	Title     string
	Direction string
	Nodes     []string
	Parent    string
	Depth     int // 0 for top-level blocks
}

// classifyLink derives the edge type and stroke from link syntax.
func classifyLink(link string) (typ, stroke string, bidirectional bool) {
	bidirectional = strings.HasPrefix(link, "<")
	switch {
	case strings.HasSuffix(link, ">"):
		typ = ArrowPoint
	case strings.HasSuffix(link, "o"):
		typ = ArrowCircle
	case strings.HasSuffix(link, "x"):
		typ = ArrowCross
	default:
		typ = ArrowOpen
	}
	switch {
	case strings.Contains(link, "="):
		stroke = StrokeThick
	case strings.Contains(link, "."):
		stroke = StrokeDotted
	default:
		stroke = StrokeNormal
	}
	return typ, stroke, bidirectional
}
