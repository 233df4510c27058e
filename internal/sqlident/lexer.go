package sqlident

import (
	"strconv"
	"strings"

	"sqlcatalog/internal/domain"
)

// TokenType represents the type of a lexical token in a path expression.
type TokenType int

// TOKEN_EOF and friends enumerate the tokens a path expression can contain.
const (
	TOKEN_EOF     TokenType = iota // end of input
	TOKEN_ILLEGAL                  // unexpected character or malformed quoted identifier
	TOKEN_IDENT                    // identifier (quoted or not)
	TOKEN_DOT                      // .
)

// Token is a lexical token. Quoted reports whether an identifier was written
// with backquotes or double quotes.
type Token struct {
	Type    TokenType
	Literal string
	Quoted  bool
	Pos     int
}

// Lexer tokenizes dotted identifier paths.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}

	start := l.pos
	if l.atEOF() {
		return Token{Type: TOKEN_EOF, Pos: start}
	}

	switch {
	case l.ch == '.':
		l.readChar()
		return Token{Type: TOKEN_DOT, Literal: ".", Pos: start}
	case l.ch == '`':
		lit, ok := l.readBackquoted()
		if !ok {
			return Token{Type: TOKEN_ILLEGAL, Literal: l.input[start:l.pos], Pos: start}
		}
		return Token{Type: TOKEN_IDENT, Literal: lit, Quoted: true, Pos: start}
	case l.ch == '"':
		lit, ok := l.readDoubleQuoted()
		if !ok {
			return Token{Type: TOKEN_ILLEGAL, Literal: l.input[start:l.pos], Pos: start}
		}
		return Token{Type: TOKEN_IDENT, Literal: lit, Quoted: true, Pos: start}
	case isLetter(l.ch) || l.ch == '_':
		return Token{Type: TOKEN_IDENT, Literal: l.readIdentifier(), Pos: start}
	}

	ch := l.ch
	l.readChar()
	return Token{Type: TOKEN_ILLEGAL, Literal: string(ch), Pos: start}
}

// readIdentifier reads an unquoted identifier.
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readBackquoted reads a backquoted identifier, undoing the escapes produced
// by ToIdentifierLiteral.
func (l *Lexer) readBackquoted() (string, bool) {
	l.readChar() // skip opening quote
	var result strings.Builder
	for !l.atEOF() {
		switch l.ch {
		case '`':
			l.readChar() // skip closing quote
			return result.String(), true
		case '\\':
			l.readChar()
			switch l.ch {
			case 'n':
				result.WriteByte('\n')
			case 'r':
				result.WriteByte('\r')
			case 't':
				result.WriteByte('\t')
			case 'x':
				if l.readPos+2 > len(l.input) {
					return "", false
				}
				v, err := strconv.ParseUint(l.input[l.readPos:l.readPos+2], 16, 8)
				if err != nil {
					return "", false
				}
				result.WriteByte(byte(v))
				l.readChar()
				l.readChar()
			case '`', '\\', '\'', '"':
				result.WriteByte(l.ch)
			default:
				return "", false
			}
			l.readChar()
		default:
			result.WriteByte(l.ch)
			l.readChar()
		}
	}
	return "", false
}

// readDoubleQuoted reads a double-quoted identifier.
// Handles "" escape for embedded double quotes.
func (l *Lexer) readDoubleQuoted() (string, bool) {
	l.readChar() // skip opening quote
	var result strings.Builder
	for !l.atEOF() {
		if l.ch == '"' {
			if l.peekChar() == '"' {
				result.WriteByte('"')
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // skip closing quote
			return result.String(), true
		}
		result.WriteByte(l.ch)
		l.readChar()
	}
	return "", false
}

func isLetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// ParsePath splits a dotted path expression such as
//
//	sales.`order items`."2024".summary
//
// into its segments. Unquoted segments must be valid identifiers; quoted
// segments may contain anything, including dots.
func ParsePath(text string) ([]string, error) {
	l := NewLexer(text)
	var path []string
	for {
		tok := l.NextToken()
		switch tok.Type {
		case TOKEN_IDENT:
			if tok.Quoted && tok.Literal == "" {
				return nil, domain.ErrValidation("empty quoted identifier at offset %d in path %q", tok.Pos, text)
			}
			path = append(path, tok.Literal)
		case TOKEN_EOF:
			if len(path) == 0 {
				return nil, domain.ErrValidation("path is required")
			}
			return nil, domain.ErrValidation("path %q ends with '.'", text)
		default:
			return nil, illegal(tok, text)
		}

		tok = l.NextToken()
		switch tok.Type {
		case TOKEN_EOF:
			return path, nil
		case TOKEN_DOT:
			continue
		default:
			return nil, illegal(tok, text)
		}
	}
}

func illegal(tok Token, text string) error {
	if tok.Type == TOKEN_ILLEGAL && len(tok.Literal) > 0 && (tok.Literal[0] == '`' || tok.Literal[0] == '"') {
		return domain.ErrValidation("malformed quoted identifier at offset %d in path %q", tok.Pos, text)
	}
	return domain.ErrValidation("unexpected %q at offset %d in path %q", tok.Literal, tok.Pos, text)
}
