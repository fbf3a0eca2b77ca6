package dot

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/matzehuels/diagramkit/pkg/errors"
)

const formatName = "dot"

// TokenType identifies a lexical token.
type TokenType int

const (
	TokenEOF       TokenType = iota
	TokenStrict              // strict
	TokenGraph               // graph
	TokenDigraph             // digraph
	TokenSubgraph            // subgraph
	TokenNode                // node
	TokenEdge                // edge
	TokenLBrace              // {
	TokenRBrace              // }
	TokenLBracket            // [
	TokenRBracket            // ]
	TokenArrow               // ->
	TokenLine                // --
	TokenEquals              // =
	TokenComma               // ,
	TokenSemicolon           // ;
	TokenColon               // :
	TokenID                  // bare identifier
	TokenNumber              // numeral
	TokenString              // quoted string, unescaped
	TokenHTML                // <...> label, brackets stripped
)

// String returns a human-readable name for the token type.
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenStrict:
		return "STRICT"
	case TokenGraph:
		return "GRAPH"
	case TokenDigraph:
		return "DIGRAPH"
	case TokenSubgraph:
		return "SUBGRAPH"
	case TokenNode:
		return "NODE"
	case TokenEdge:
		return "EDGE"
	case TokenLBrace:
		return "'{'"
	case TokenRBrace:
		return "'}'"
	case TokenLBracket:
		return "'['"
	case TokenRBracket:
		return "']'"
	case TokenArrow:
		return "'->'"
	case TokenLine:
		return "'--'"
	case TokenEquals:
		return "'='"
	case TokenComma:
		return "','"
	case TokenSemicolon:
		return "';'"
	case TokenColon:
		return "':'"
	case TokenID:
		return "ID"
	case TokenNumber:
		return "NUMBER"
	case TokenString:
		return "STRING"
	case TokenHTML:
		return "HTML"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(t))
	}
}

// isID reports whether the token can serve as a DOT identifier.
func (t TokenType) isID() bool {
	return t == TokenID || t == TokenNumber || t == TokenString || t == TokenHTML
}

// Token is a lexical token with its 1-based source position.
type Token struct {
	Type  TokenType
	Value string
	Line  int
	Col   int
}

var keywords = map[string]TokenType{
	"strict":   TokenStrict,
	"graph":    TokenGraph,
	"digraph":  TokenDigraph,
	"subgraph": TokenSubgraph,
	"node":     TokenNode,
	"edge":     TokenEdge,
}

type lexer struct {
	input  []rune
	pos    int
	line   int
	col    int
	tokens []Token
}

// Lex tokenizes DOT source. Errors are *errors.ParseError carrying the
// position of the offending character.
func Lex(input string) ([]Token, error) {
	l := &lexer{input: []rune(input), line: 1, col: 1}
	if err := l.scan(); err != nil {
		return nil, err
	}
	return l.tokens, nil
}

func (l *lexer) scan() error {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		next := l.peek(1)

		switch {
		case unicode.IsSpace(ch):
			l.advance()
		case ch == '/' && next == '/', ch == '#':
			l.skipLineComment()
		case ch == '/' && next == '*':
			if err := l.skipBlockComment(); err != nil {
				return err
			}
		case ch == '"':
			if err := l.lexString(); err != nil {
				return err
			}
		case ch == '<':
			if err := l.lexHTML(); err != nil {
				return err
			}
		case ch == '-' && next == '>':
			l.emit(TokenArrow, "->")
			l.advance()
			l.advance()
		case ch == '-' && next == '-':
			l.emit(TokenLine, "--")
			l.advance()
			l.advance()
		case unicode.IsDigit(ch), ch == '.', ch == '-' && (unicode.IsDigit(next) || next == '.'):
			l.lexNumber()
		case ch == '_' || unicode.IsLetter(ch) || ch >= 0x80:
			l.lexIdentifier()
		case ch == '+' && l.lastType() == TokenString:
			// "a" + "b" concatenation is folded into the previous string.
			l.advance()
			l.skipSpace()
			if l.pos >= len(l.input) || l.input[l.pos] != '"' {
				return l.errorf(errors.UnexpectedToken, "'+' must be followed by a quoted string")
			}
			prev := l.tokens[len(l.tokens)-1]
			l.tokens = l.tokens[:len(l.tokens)-1]
			if err := l.lexString(); err != nil {
				return err
			}
			l.tokens[len(l.tokens)-1].Value = prev.Value + l.tokens[len(l.tokens)-1].Value
			l.tokens[len(l.tokens)-1].Line, l.tokens[len(l.tokens)-1].Col = prev.Line, prev.Col
		default:
			typ, ok := punctuation[ch]
			if !ok {
				return l.errorf(errors.Syntax, "unexpected character %q", string(ch))
			}
			l.emit(typ, string(ch))
			l.advance()
		}
	}

	l.tokens = append(l.tokens, Token{Type: TokenEOF, Line: l.line, Col: l.col})
	return nil
}

var punctuation = map[rune]TokenType{
	'{': TokenLBrace,
	'}': TokenRBrace,
	'[': TokenLBracket,
	']': TokenRBracket,
	'=': TokenEquals,
	',': TokenComma,
	';': TokenSemicolon,
	':': TokenColon,
}

func (l *lexer) peek(offset int) rune {
	if l.pos+offset < len(l.input) {
		return l.input[l.pos+offset]
	}
	return 0
}

func (l *lexer) lastType() TokenType {
	if len(l.tokens) == 0 {
		return TokenEOF
	}
	return l.tokens[len(l.tokens)-1].Type
}

func (l *lexer) advance() {
	if l.pos < len(l.input) {
		if l.input[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.input) && unicode.IsSpace(l.input[l.pos]) {
		l.advance()
	}
}

func (l *lexer) emit(typ TokenType, value string) {
	l.tokens = append(l.tokens, Token{Type: typ, Value: value, Line: l.line, Col: l.col})
}

func (l *lexer) errorf(kind errors.ParseErrorKind, msg string, args ...any) error {
	return errors.ParseErrorAt(formatName, kind, l.line, l.col, msg, args...)
}

func (l *lexer) skipLineComment() {
	for l.pos < len(l.input) && l.input[l.pos] != '\n' {
		l.advance()
	}
}

func (l *lexer) skipBlockComment() error {
	line, col := l.line, l.col
	l.advance()
	l.advance()
	for l.pos < len(l.input) {
		if l.input[l.pos] == '*' && l.peek(1) == '/' {
			l.advance()
			l.advance()
			return nil
		}
		l.advance()
	}
	return errors.ParseErrorAt(formatName, errors.Truncated, line, col, "unterminated block comment")
}

// lexString reads a double-quoted string. Only \" and \\ and \n are
// unescaped; a backslash-newline pair continues the line. Other escapes
// (\l, \r, \N) are preserved for graphviz.
func (l *lexer) lexString() error {
	line, col := l.line, l.col
	l.advance()

	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case ch == '\\' && l.pos+1 < len(l.input):
			esc := l.input[l.pos+1]
			switch esc {
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			case 'n':
				sb.WriteByte('\n')
			case '\n':
			default:
				sb.WriteByte('\\')
				sb.WriteRune(esc)
			}
			l.advance()
			l.advance()
		case ch == '"':
			l.advance()
			l.tokens = append(l.tokens, Token{Type: TokenString, Value: sb.String(), Line: line, Col: col})
			return nil
		default:
			sb.WriteRune(ch)
			l.advance()
		}
	}
	return errors.ParseErrorAt(formatName, errors.Truncated, line, col, "unterminated string")
}

// lexHTML reads a <...> label with balanced angle brackets.
func (l *lexer) lexHTML() error {
	line, col := l.line, l.col
	l.advance()

	depth := 1
	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch ch {
		case '<':
			depth++
		case '>':
			depth--
			if depth == 0 {
				l.advance()
				l.tokens = append(l.tokens, Token{Type: TokenHTML, Value: sb.String(), Line: line, Col: col})
				return nil
			}
		}
		sb.WriteRune(ch)
		l.advance()
	}
	return errors.ParseErrorAt(formatName, errors.Truncated, line, col, "unterminated HTML string")
}

func (l *lexer) lexNumber() {
	line, col := l.line, l.col
	var sb strings.Builder

	if l.input[l.pos] == '-' {
		sb.WriteByte('-')
		l.advance()
	}
	for l.pos < len(l.input) && unicode.IsDigit(l.input[l.pos]) {
		sb.WriteRune(l.input[l.pos])
		l.advance()
	}
	if l.pos < len(l.input) && l.input[l.pos] == '.' {
		sb.WriteByte('.')
		l.advance()
		for l.pos < len(l.input) && unicode.IsDigit(l.input[l.pos]) {
			sb.WriteRune(l.input[l.pos])
			l.advance()
		}
	}
	l.tokens = append(l.tokens, Token{Type: TokenNumber, Value: sb.String(), Line: line, Col: col})
}

func (l *lexer) lexIdentifier() {
	line, col := l.line, l.col
	var sb strings.Builder

	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch != '_' && !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && ch < 0x80 {
			break
		}
		sb.WriteRune(ch)
		l.advance()
	}

	word := sb.String()
	typ, ok := keywords[strings.ToLower(word)]
	if !ok {
		typ = TokenID
	}
	l.tokens = append(l.tokens, Token{Type: typ, Value: word, Line: line, Col: col})
}
