package mermaid

import (
	"strings"

	"github.com/matzehuels/diagramkit/pkg/errors"
)

var directions = map[string]bool{"TB": true, "TD": true, "BT": true, "RL": true, "LR": true}

type block struct {
	sg        *SubGraph
	tok       Token
	mentioned []string
	seen      map[string]bool
}

type parser struct {
	tokens  []Token
	pos     int
	flow    *Flow
	open    []*block
	claimed map[string]bool
}

// Parse parses a Mermaid flowchart. Errors are *errors.ParseError:
// Syntax for bad characters, UnexpectedToken for misplaced tokens, and
// Truncated when a shape, link label or subgraph is left open.
func Parse(input string) (*Flow, error) {
	tokens, err := Lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{
		tokens:  tokens,
		flow:    &Flow{Vertices: map[string]*Vertex{}, Styles: map[string]map[string]string{}},
		claimed: map[string]bool{},
	}
	if err := p.parseFlow(); err != nil {
		return nil, err
	}
	return p.flow, nil
}

func (p *parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) advance() Token {
	tok := p.current()
	p.pos++
	return tok
}

func (p *parser) unexpected(tok Token, want string) error {
	if tok.Type == TokenEOF {
		return errors.ParseErrorAt(formatName, errors.Truncated, tok.Line, tok.Col,
			"unexpected end of input, expected %s", want)
	}
	return errors.ParseErrorAt(formatName, errors.UnexpectedToken, tok.Line, tok.Col,
		"expected %s but got %v (%q)", want, tok.Type, tok.Value)
}

func (p *parser) skipNewlines() {
	for p.current().Type == TokenNewline {
		p.advance()
	}
}

// endStatement consumes the separator after a statement.
func (p *parser) endStatement() error {
	switch tok := p.current(); tok.Type {
	case TokenNewline:
		p.advance()
		return nil
	case TokenEOF:
		return nil
	default:
		return p.unexpected(tok, "newline or ';'")
	}
}

// parseFlow parses: header DIR? sep stmt*
func (p *parser) parseFlow() error {
	p.skipNewlines()
	if tok := p.advance(); tok.Type != TokenHeader {
		return p.unexpected(tok, "'graph' or 'flowchart'")
	}
	if tok := p.current(); tok.Type == TokenID {
		if !directions[tok.Value] {
			return p.unexpected(tok, "direction")
		}
		p.flow.Direction = tok.Value
		p.advance()
	}
	if err := p.endStatement(); err != nil {
		return err
	}

	for {
		p.skipNewlines()
		tok := p.current()
		switch tok.Type {
		case TokenEOF:
			if n := len(p.open); n > 0 {
				b := p.open[n-1]
				return errors.ParseErrorAt(formatName, errors.Truncated, b.tok.Line, b.tok.Col,
					"subgraph %q is missing 'end'", b.sg.ID)
			}
			return nil
		case TokenEnd:
			if len(p.open) == 0 {
				return p.unexpected(tok, "statement")
			}
			p.advance()
			p.closeBlock()
		case TokenSubgraph:
			if err := p.openBlock(); err != nil {
				return err
			}
			continue
		case TokenDirection:
			p.advance()
			dir := p.current()
			if dir.Type != TokenID || !directions[dir.Value] {
				return p.unexpected(dir, "direction")
			}
			p.advance()
			if n := len(p.open); n > 0 {
				p.open[n-1].sg.Direction = dir.Value
			} else {
				p.flow.Direction = dir.Value
			}
		case TokenDirective:
			p.directive(p.advance())
		case TokenID:
			if err := p.parseChain(); err != nil {
				return err
			}
		default:
			return p.unexpected(tok, "statement")
		}
		if err := p.endStatement(); err != nil {
			return err
		}
	}
}

// openBlock parses: 'subgraph' (ID title? | STRING) sep
func (p *parser) openBlock() error {
	kw := p.advance()
	sg := &SubGraph{Depth: len(p.open)}

	switch tok := p.current(); tok.Type {
	case TokenString:
		p.advance()
		sg.ID, sg.Title = tok.Value, tok.Value
	case TokenID:
		var words []string
		for p.current().Type == TokenID {
			words = append(words, p.advance().Value)
		}
		sg.ID = strings.Join(words, " ")
		sg.Title = sg.ID
		switch t := p.current(); t.Type {
		case TokenOpen:
			p.advance()
			sg.Title = p.advance().Value
			p.advance()
		case TokenString:
			p.advance()
			sg.Title = t.Value
		}
	default:
		return p.unexpected(tok, "subgraph id")
	}

	for _, other := range p.flow.SubGraphs {
		if other.ID == sg.ID {
			return errors.ParseErrorAt(formatName, errors.UnexpectedToken, kw.Line, kw.Col,
				"subgraph %q is defined twice", sg.ID)
		}
	}
	if n := len(p.open); n > 0 {
		sg.Parent = p.open[n-1].sg.ID
	}
	p.flow.SubGraphs = append(p.flow.SubGraphs, sg)
	p.open = append(p.open, &block{sg: sg, tok: kw, seen: map[string]bool{}})
	return p.endStatement()
}

func (p *parser) closeBlock() {
	b := p.open[len(p.open)-1]
	p.open = p.open[:len(p.open)-1]

	var nested []string
	for _, id := range b.mentioned {
		if p.isSubGraph(id) {
			continue
		}
		if !p.claimed[id] {
			p.claimed[id] = true
			b.sg.Nodes = append(b.sg.Nodes, id)
		}
	}
	for _, sg := range p.flow.SubGraphs {
		if sg.Parent == b.sg.ID {
			nested = append(nested, sg.ID)
		}
	}
	b.sg.Nodes = append(b.sg.Nodes, nested...)
}

func (p *parser) isSubGraph(id string) bool {
	for _, sg := range p.flow.SubGraphs {
		if sg.ID == id {
			return true
		}
	}
	return false
}

func (p *parser) mention(id string) {
	if n := len(p.open); n > 0 {
		b := p.open[n-1]
		if !b.seen[id] {
			b.seen[id] = true
			b.mentioned = append(b.mentioned, id)
		}
	}
}

// parseChain parses: group (LINK LINKTEXT? group)*
func (p *parser) parseChain() error {
	left, err := p.parseGroup()
	if err != nil {
		return err
	}
	for p.current().Type == TokenLink {
		link := p.advance().Value
		var text string
		if p.current().Type == TokenLinkText {
			text = p.advance().Value
		}
		right, err := p.parseGroup()
		if err != nil {
			return err
		}

		typ, stroke, bidi := classifyLink(link)
		var parent string
		if n := len(p.open); n > 0 {
			parent = p.open[n-1].sg.ID
		}
		for _, s := range left {
			for _, t := range right {
				p.flow.Edges = append(p.flow.Edges, FlowEdge{
					Start: s, End: t, Type: typ, Stroke: stroke, Text: text,
					Bidirectional: bidi, SubGraph: parent,
				})
			}
		}
		left = right
	}
	return nil
}

// parseGroup parses: vertex ('&' vertex)*
func (p *parser) parseGroup() ([]string, error) {
	var ids []string
	for {
		id, err := p.parseVertex()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
		if p.current().Type != TokenAmp {
			return ids, nil
		}
		p.advance()
	}
}

// parseVertex parses: ID (OPEN TEXT CLOSE)?
func (p *parser) parseVertex() (string, error) {
	tok := p.current()
	if tok.Type != TokenID {
		return "", p.unexpected(tok, "vertex id")
	}
	p.advance()

	v, ok := p.flow.Vertices[tok.Value]
	if !ok {
		v = &Vertex{ID: tok.Value, Text: tok.Value, Shape: ShapeSquare}
		p.flow.Vertices[tok.Value] = v
		p.flow.VertexOrder = append(p.flow.VertexOrder, tok.Value)
	}
	p.mention(tok.Value)

	if p.current().Type == TokenOpen {
		opener := p.advance().Value
		v.Text = p.advance().Value
		v.Shape = shapeByOpener[opener]
		p.advance()
	}
	return tok.Value, nil
}

// directive records node styles. Other directives are accepted and
// dropped.
func (p *parser) directive(tok Token) {
	fields := strings.Fields(tok.Value)
	if len(fields) < 3 || fields[0] != "style" {
		return
	}
	props := p.flow.Styles[fields[1]]
	if props == nil {
		props = map[string]string{}
		p.flow.Styles[fields[1]] = props
	}
	for _, kv := range strings.Split(strings.Join(fields[2:], " "), ",") {
		k, v, ok := strings.Cut(kv, ":")
		if !ok {
			continue
		}
		props[strings.TrimSpace(k)] = strings.TrimRight(strings.TrimSpace(v), ";")
	}
}
