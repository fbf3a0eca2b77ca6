package mermaid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/matzehuels/diagramkit/pkg/errors"
)

const formatName = "mermaid"

// TokenType identifies a lexical token.
type TokenType int

const (
	TokenEOF       TokenType = iota
	TokenNewline             // newline or ;
	TokenHeader              // graph, flowchart
	TokenSubgraph            // subgraph
	TokenEnd                 // end
	TokenDirection           // direction
	TokenDirective           // style, classDef, class, click, linkStyle (rest of line)
	TokenID                  // vertex id
	TokenString              // "quoted"
	TokenAmp                 // &
	TokenOpen                // shape opener: [ ( { (( ([ [[ [( > {{
	TokenText                // text inside a shape
	TokenClose               // shape closer
	TokenLink                // --> --- -.-> ==> --o --x <-->
	TokenLinkText            // |text| or the text of -- text -->
)

// String returns a human-readable name for the token type.
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenNewline:
		return "NEWLINE"
	case TokenHeader:
		return "HEADER"
	case TokenSubgraph:
		return "SUBGRAPH"
	case TokenEnd:
		return "END"
	case TokenDirection:
		return "DIRECTION"
	case TokenDirective:
		return "DIRECTIVE"
	case TokenID:
		return "ID"
	case TokenString:
		return "STRING"
	case TokenAmp:
		return "AMP"
	case TokenOpen:
		return "OPEN"
	case TokenText:
		return "TEXT"
	case TokenClose:
		return "CLOSE"
	case TokenLink:
		return "LINK"
	case TokenLinkText:
		return "LINKTEXT"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(t))
	}
}

// Token is a lexical token with its 1-based source position.
type Token struct {
	Type  TokenType
	Value string
	Line  int
	Col   int
}

// directives are skipped to the end of the line; only their presence is
// recorded.
var directives = map[string]bool{
	"style":     true,
	"classDef":  true,
	"class":     true,
	"click":     true,
	"linkStyle": true,
}

// closers maps shape openers to their closing delimiter. Two-character
// openers are tried first.
var closers = map[string]string{
	"((": "))",
	"([": "])",
	"[[": "]]",
	"[(": ")]",
	"{{": "}}",
	"[":  "]",
	"(":  ")",
	"{":  "}",
	">":  "]",
}

type lexer struct {
	input  []rune
	pos    int
	line   int
	col    int
	tokens []Token
}

// Lex tokenizes a Mermaid flowchart. Errors are *errors.ParseError with
// the position of the offending character or of the construct left open.
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
		case ch == '\n' || ch == ';':
			l.emit(TokenNewline, string(ch))
			l.advance()
		case unicode.IsSpace(ch):
			l.advance()
		case ch == '%' && next == '%':
			l.skipLine()
		case ch == '"':
			if err := l.lexString(); err != nil {
				return err
			}
		case ch == '&':
			l.emit(TokenAmp, "&")
			l.advance()
		case ch == '|' && l.lastType() == TokenLink:
			if err := l.lexPipeText(); err != nil {
				return err
			}
		case ch == ':' && next == ':' && l.peek(2) == ':':
			// A:::className attaches a class; styling is not carried.
			for range 3 {
				l.advance()
			}
			for l.pos < len(l.input) && isIDChar(l.input[l.pos]) {
				l.advance()
			}
		case strings.ContainsRune("[({>", ch) && l.lastType() == TokenID:
			if err := l.lexShape(); err != nil {
				return err
			}
		case ch == '-' || ch == '=' || ch == '<' && (next == '-' || next == '='):
			if err := l.lexLink(); err != nil {
				return err
			}
		case isIDChar(ch):
			l.lexWord()
		default:
			return l.errorf(errors.Syntax, "unexpected character %q", string(ch))
		}
	}

	l.tokens = append(l.tokens, Token{Type: TokenEOF, Line: l.line, Col: l.col})
	return nil
}

func isIDChar(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch)
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

// atStatementStart reports whether the next token begins a statement.
func (l *lexer) atStatementStart() bool {
	t := l.lastType()
	return t == TokenEOF || t == TokenNewline
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

func (l *lexer) hasPrefix(s string) bool {
	rs := []rune(s)
	if l.pos+len(rs) > len(l.input) {
		return false
	}
	for i, r := range rs {
		if l.input[l.pos+i] != r {
			return false
		}
	}
	return true
}

func (l *lexer) emit(typ TokenType, value string) {
	l.tokens = append(l.tokens, Token{Type: typ, Value: value, Line: l.line, Col: l.col})
}

func (l *lexer) emitAt(typ TokenType, value string, line, col int) {
	l.tokens = append(l.tokens, Token{Type: typ, Value: value, Line: line, Col: col})
}

func (l *lexer) errorf(kind errors.ParseErrorKind, msg string, args ...any) error {
	return errors.ParseErrorAt(formatName, kind, l.line, l.col, msg, args...)
}

func (l *lexer) skipLine() {
	for l.pos < len(l.input) && l.input[l.pos] != '\n' {
		l.advance()
	}
}

func (l *lexer) lexWord() {
	line, col := l.line, l.col
	start := l.pos
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		// a-b is one id; a-->b is not
		if ch == '-' && isIDChar(l.peek(1)) && l.pos > start {
			l.advance()
			continue
		}
		if !isIDChar(ch) {
			break
		}
		l.advance()
	}
	word := string(l.input[start:l.pos])

	switch {
	case (word == "graph" || word == "flowchart") && l.onlyNewlines():
		l.emitAt(TokenHeader, word, line, col)
	case word == "subgraph":
		l.emitAt(TokenSubgraph, word, line, col)
	case word == "end":
		l.emitAt(TokenEnd, word, line, col)
	case word == "direction" && l.atStatementStart():
		l.emitAt(TokenDirection, word, line, col)
	case directives[word] && l.atStatementStart():
		rest := l.pos
		l.skipLine()
		l.emitAt(TokenDirective, word+string(l.input[rest:l.pos]), line, col)
	default:
		l.emitAt(TokenID, word, line, col)
	}
}

func (l *lexer) onlyNewlines() bool {
	for _, t := range l.tokens {
		if t.Type != TokenNewline {
			return false
		}
	}
	return true
}

func (l *lexer) lexString() error {
	line, col := l.line, l.col
	l.advance()
	start := l.pos
	for l.pos < len(l.input) && l.input[l.pos] != '"' {
		l.advance()
	}
	if l.pos >= len(l.input) {
		return errors.ParseErrorAt(formatName, errors.Truncated, line, col, "unterminated string")
	}
	text := string(l.input[start:l.pos])
	l.advance()
	l.emitAt(TokenString, decodeText(text), line, col)
	return nil
}

// lexShape reads opener, text and closer of a vertex shape. Quoted text
// may contain the closing delimiter.
func (l *lexer) lexShape() error {
	line, col := l.line, l.col
	opener := string(l.input[l.pos])
	if l.pos+2 <= len(l.input) {
		if two := string(l.input[l.pos : l.pos+2]); closers[two] != "" {
			opener = two
		}
	}
	closer := closers[opener]
	for range len(opener) {
		l.advance()
	}
	l.emitAt(TokenOpen, opener, line, col)

	textLine, textCol := l.line, l.col
	var text string
	for l.pos < len(l.input) && (l.input[l.pos] == ' ' || l.input[l.pos] == '\t') {
		l.advance()
	}
	if l.pos < len(l.input) && l.input[l.pos] == '"' {
		start := l.pos + 1
		l.advance()
		for l.pos < len(l.input) && l.input[l.pos] != '"' {
			l.advance()
		}
		if l.pos >= len(l.input) {
			return errors.ParseErrorAt(formatName, errors.Truncated, line, col, "unterminated %q", opener)
		}
		text = string(l.input[start:l.pos])
		l.advance()
		for l.pos < len(l.input) && (l.input[l.pos] == ' ' || l.input[l.pos] == '\t') {
			l.advance()
		}
		if l.pos >= len(l.input) {
			return errors.ParseErrorAt(formatName, errors.Truncated, line, col, "unterminated %q", opener)
		}
		if !l.hasPrefix(closer) {
			return l.errorf(errors.UnexpectedToken, "expected %q after quoted text", closer)
		}
	} else {
		start := l.pos
		for !l.hasPrefix(closer) {
			if l.pos >= len(l.input) || l.input[l.pos] == '\n' {
				return errors.ParseErrorAt(formatName, errors.Truncated, line, col, "unterminated %q", opener)
			}
			l.advance()
		}
		text = strings.TrimSpace(string(l.input[start:l.pos]))
	}
	l.emitAt(TokenText, decodeText(text), textLine, textCol)

	closeLine, closeCol := l.line, l.col
	for range len(closer) {
		l.advance()
	}
	l.emitAt(TokenClose, closer, closeLine, closeCol)
	return nil
}

func (l *lexer) lexPipeText() error {
	line, col := l.line, l.col
	l.advance()
	start := l.pos
	for l.pos < len(l.input) && l.input[l.pos] != '|' {
		if l.input[l.pos] == '\n' {
			break
		}
		l.advance()
	}
	if l.pos >= len(l.input) || l.input[l.pos] != '|' {
		return errors.ParseErrorAt(formatName, errors.Truncated, line, col, "unterminated link text")
	}
	text := strings.TrimSpace(string(l.input[start:l.pos]))
	l.advance()
	l.emitAt(TokenLinkText, decodeText(text), line, col)
	return nil
}

// lexLink reads a link such as -->, -.->, ==>, --o, <--> or the text form
// -- text -->.
func (l *lexer) lexLink() error {
	line, col := l.line, l.col
	opener := l.linkBody()

	head, body := "", opener
	if strings.HasPrefix(body, "<") {
		head, body = "<", body[1:]
	}
	last := body[len(body)-1:]
	terminated := strings.ContainsAny(last, ">ox")
	dashes := strings.TrimRight(body, ">ox")

	switch {
	case !terminated && head == "" && (dashes == "--" || dashes == "==" || dashes == "-.") && l.pos < len(l.input) && unicode.IsSpace(l.input[l.pos]):
		return l.lexLinkText(opener, line, col)
	case len(dashes) < 2, !terminated && len(dashes) < 3:
		return errors.ParseErrorAt(formatName, errors.Syntax, line, col, "invalid link %q", opener)
	}
	l.emitAt(TokenLink, opener, line, col)
	return nil
}

// linkBody consumes [<]?[-=.]+[>ox]? and returns it.
func (l *lexer) linkBody() string {
	start := l.pos
	if l.input[l.pos] == '<' {
		l.advance()
	}
	for l.pos < len(l.input) && strings.ContainsRune("-=.", l.input[l.pos]) {
		l.advance()
	}
	if l.pos < len(l.input) {
		switch ch := l.input[l.pos]; {
		case ch == '>':
			l.advance()
		case (ch == 'o' || ch == 'x') && !isIDChar(l.peek(1)):
			l.advance()
		}
	}
	return string(l.input[start:l.pos])
}

var textLinkClosers = map[string]string{"--": "--", "==": "==", "-.": ".-"}

func (l *lexer) lexLinkText(opener string, line, col int) error {
	closer := textLinkClosers[opener]
	start := l.pos
	for !l.hasPrefix(closer) {
		if l.pos >= len(l.input) || l.input[l.pos] == '\n' {
			return errors.ParseErrorAt(formatName, errors.Truncated, line, col, "unterminated link text")
		}
		l.advance()
	}
	text := strings.TrimSpace(string(l.input[start:l.pos]))
	end := l.linkBody()

	l.emitAt(TokenLink, opener+end, line, col)
	l.emitAt(TokenLinkText, decodeText(text), line, col)
	return nil
}

// =============================================================================
// Text entities
// =============================================================================

var (
	entity   = regexp.MustCompile(`#(\w+);`)
	lineBrk  = regexp.MustCompile(`(?i)<br\s*/?>`)
	entities = map[string]string{"quot": `"`, "amp": "&", "lt": "<", "gt": ">", "nbsp": " "}
)

// decodeText resolves Mermaid entity codes (#quot;, #35;) and <br> line
// breaks.
func decodeText(s string) string {
	s = lineBrk.ReplaceAllString(s, "\n")
	return entity.ReplaceAllStringFunc(s, func(m string) string {
		name := m[1 : len(m)-1]
		if v, ok := entities[name]; ok {
			return v
		}
		if n, err := strconv.Atoi(name); err == nil && n > 0 && n <= unicode.MaxRune {
			return string(rune(n))
		}
		return m
	})
}

// encodeText escapes text for a quoted shape or a |link| label.
func encodeText(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString("#quot;")
		case '#':
			b.WriteString("#35;")
		case '|':
			b.WriteString("#124;")
		case '\n':
			b.WriteString("<br>")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
