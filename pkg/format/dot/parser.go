package dot

import (
	"github.com/matzehuels/diagramkit/pkg/errors"
)

type parser struct {
	tokens   []Token
	pos      int
	directed bool
}

// Parse parses a single DOT graph. Errors are *errors.ParseError: Syntax
// for bad characters, UnexpectedToken for misplaced tokens, and Truncated
// when the input ends inside a construct.
func Parse(input string) (*Graph, error) {
	tokens, err := Lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	return p.parseGraph()
}

func (p *parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) peek(offset int) Token {
	if p.pos+offset >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos+offset]
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

func (p *parser) expect(typ TokenType) (Token, error) {
	tok := p.current()
	if tok.Type != typ {
		return tok, p.unexpected(tok, typ.String())
	}
	p.advance()
	return tok, nil
}

func (p *parser) expectID() (Token, error) {
	tok := p.current()
	if !tok.Type.isID() {
		return tok, p.unexpected(tok, "identifier")
	}
	p.advance()
	return tok, nil
}

// parseGraph parses: 'strict'? ('graph' | 'digraph') ID? '{' stmt_list '}'
func (p *parser) parseGraph() (*Graph, error) {
	g := &Graph{}
	if p.current().Type == TokenStrict {
		g.Strict = true
		p.advance()
	}

	switch tok := p.advance(); tok.Type {
	case TokenDigraph:
		g.Directed = true
	case TokenGraph:
	default:
		return nil, p.unexpected(tok, "'graph' or 'digraph'")
	}
	p.directed = g.Directed

	if p.current().Type.isID() {
		g.ID = p.advance().Value
	}
	if _, err := p.expect(TokenLBrace); err != nil {
		return nil, err
	}
	stmts, err := p.parseStmtList()
	if err != nil {
		return nil, err
	}
	g.Stmts = stmts
	if _, err := p.expect(TokenRBrace); err != nil {
		return nil, err
	}
	if tok := p.current(); tok.Type != TokenEOF {
		return nil, p.unexpected(tok, "end of input")
	}
	return g, nil
}

func (p *parser) parseStmtList() ([]Stmt, error) {
	var stmts []Stmt
	for {
		switch p.current().Type {
		case TokenRBrace, TokenEOF:
			return stmts, nil
		case TokenSemicolon:
			p.advance()
			continue
		}
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
		if p.current().Type == TokenSemicolon {
			p.advance()
		}
	}
}

func (p *parser) parseStmt() (Stmt, error) {
	tok := p.current()
	switch tok.Type {
	case TokenGraph, TokenNode, TokenEdge:
		p.advance()
		attrs, err := p.parseAttrLists(true)
		if err != nil {
			return nil, err
		}
		kind := map[TokenType]AttrKind{TokenGraph: AttrGraph, TokenNode: AttrNode, TokenEdge: AttrEdge}[tok.Type]
		return AttrStmt{Kind: kind, Attrs: attrs}, nil

	case TokenSubgraph, TokenLBrace:
		sg, err := p.parseSubgraph()
		if err != nil {
			return nil, err
		}
		if p.isEdgeOp() {
			return p.parseEdgeStmt(sg)
		}
		return sg, nil
	}

	if !tok.Type.isID() {
		return nil, p.unexpected(tok, "statement")
	}

	if p.peek(1).Type == TokenEquals {
		key := p.advance().Value
		p.advance()
		val, err := p.expectID()
		if err != nil {
			return nil, err
		}
		return Assignment{Key: key, Value: val.Value}, nil
	}

	id, err := p.parseNodeID()
	if err != nil {
		return nil, err
	}
	if p.isEdgeOp() {
		return p.parseEdgeStmt(id)
	}
	attrs, err := p.parseAttrLists(false)
	if err != nil {
		return nil, err
	}
	return NodeStmt{Node: id, Attrs: attrs}, nil
}

// parseNodeID parses: ID (':' ID (':' ID)?)?
func (p *parser) parseNodeID() (NodeID, error) {
	tok, err := p.expectID()
	if err != nil {
		return NodeID{}, err
	}
	id := NodeID{ID: tok.Value, Line: tok.Line, Col: tok.Col}
	if p.current().Type == TokenColon {
		p.advance()
		port, err := p.expectID()
		if err != nil {
			return NodeID{}, err
		}
		id.Port = port.Value
		if p.current().Type == TokenColon {
			p.advance()
			compass, err := p.expectID()
			if err != nil {
				return NodeID{}, err
			}
			id.Port += ":" + compass.Value
		}
	}
	return id, nil
}

// parseSubgraph parses: ('subgraph' ID?)? '{' stmt_list '}'
func (p *parser) parseSubgraph() (*Subgraph, error) {
	sg := &Subgraph{}
	if p.current().Type == TokenSubgraph {
		p.advance()
		if p.current().Type.isID() {
			sg.ID = p.advance().Value
		}
	}
	if _, err := p.expect(TokenLBrace); err != nil {
		return nil, err
	}
	stmts, err := p.parseStmtList()
	if err != nil {
		return nil, err
	}
	sg.Stmts = stmts
	if _, err := p.expect(TokenRBrace); err != nil {
		return nil, err
	}
	return sg, nil
}

func (p *parser) isEdgeOp() bool {
	t := p.current().Type
	return t == TokenArrow || t == TokenLine
}

// parseEdgeStmt parses the rest of: operand (edgeop operand)+ attr_list?
func (p *parser) parseEdgeStmt(first any) (Stmt, error) {
	stmt := EdgeStmt{Operands: []any{first}}
	for p.isEdgeOp() {
		op := p.advance()
		if (op.Type == TokenArrow) != p.directed {
			want := "'--'"
			if p.directed {
				want = "'->'"
			}
			return nil, p.unexpected(op, want)
		}

		var operand any
		switch p.current().Type {
		case TokenSubgraph, TokenLBrace:
			sg, err := p.parseSubgraph()
			if err != nil {
				return nil, err
			}
			operand = sg
		default:
			id, err := p.parseNodeID()
			if err != nil {
				return nil, err
			}
			operand = id
		}
		stmt.Operands = append(stmt.Operands, operand)
	}

	attrs, err := p.parseAttrLists(false)
	if err != nil {
		return nil, err
	}
	stmt.Attrs = attrs
	return stmt, nil
}

// parseAttrLists parses: ('[' a_list? ']')*. When required is set at least
// one list must be present.
func (p *parser) parseAttrLists(required bool) (Attrs, error) {
	if required && p.current().Type != TokenLBracket {
		return nil, p.unexpected(p.current(), "'['")
	}

	var attrs Attrs
	for p.current().Type == TokenLBracket {
		p.advance()
		for p.current().Type != TokenRBracket {
			key, err := p.expectID()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenEquals); err != nil {
				return nil, err
			}
			val, err := p.expectID()
			if err != nil {
				return nil, err
			}
			attrs = append(attrs, Attr{Key: key.Value, Value: val.Value})
			if t := p.current().Type; t == TokenComma || t == TokenSemicolon {
				p.advance()
			}
		}
		p.advance()
	}
	return attrs, nil
}
