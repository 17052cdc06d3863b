package expr

import "strings"

// TokenType identifies the lexical class of a token.
type TokenType int

const (
	TOKEN_ILLEGAL TokenType = iota
	TOKEN_EOF
	TOKEN_NUMBER
	TOKEN_STRING
	TOKEN_IDENT
	TOKEN_ELEMREF // #id~scalar
	TOKEN_COMMA
	TOKEN_PLUS
	TOKEN_MINUS
	TOKEN_STAR
	TOKEN_SLASH
	TOKEN_MOD
	TOKEN_LPAREN
	TOKEN_RPAREN
)

// Token is a lexed token with its byte offset in the source.
type Token struct {
	Type    TokenType
	Literal string
	Offset  int
}

// Lexer tokenizes expression input.
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

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}

	offset := l.pos
	var tok Token
	tok.Offset = offset

	switch l.ch {
	case 0:
		tok.Type = TOKEN_EOF
	case ',':
		tok = Token{Type: TOKEN_COMMA, Literal: ",", Offset: offset}
	case '+':
		tok = Token{Type: TOKEN_PLUS, Literal: "+", Offset: offset}
	case '-':
		tok = Token{Type: TOKEN_MINUS, Literal: "-", Offset: offset}
	case '*':
		tok = Token{Type: TOKEN_STAR, Literal: "*", Offset: offset}
	case '/':
		tok = Token{Type: TOKEN_SLASH, Literal: "/", Offset: offset}
	case '%':
		tok = Token{Type: TOKEN_MOD, Literal: "%", Offset: offset}
	case '(':
		tok = Token{Type: TOKEN_LPAREN, Literal: "(", Offset: offset}
	case ')':
		tok = Token{Type: TOKEN_RPAREN, Literal: ")", Offset: offset}
	case '\'', '"':
		tok.Type = TOKEN_STRING
		tok.Literal = l.readString(l.ch)
		return tok
	case '#':
		lit, ok := l.readElemRef()
		if !ok {
			tok.Type = TOKEN_ILLEGAL
			tok.Literal = lit
			return tok
		}
		tok.Type = TOKEN_ELEMREF
		tok.Literal = lit
		return tok
	default:
		switch {
		case isLetter(l.ch) || l.ch == '_':
			tok.Type = TOKEN_IDENT
			tok.Literal = l.readIdentifier()
			return tok
		case isDigit(l.ch) || l.ch == '.':
			tok.Type = TOKEN_NUMBER
			tok.Literal = l.readNumber()
			return tok
		default:
			tok.Type = TOKEN_ILLEGAL
			tok.Literal = string(l.ch)
		}
	}

	l.readChar()
	return tok
}

// readString reads a quoted string literal, either single or double quoted.
// A backslash escapes the quote character.
func (l *Lexer) readString(quote byte) string {
	l.readChar() // skip opening quote

	var result strings.Builder
	for l.ch != 0 {
		if l.ch == '\\' && l.peekChar() == quote {
			result.WriteByte(quote)
			l.readChar()
			l.readChar()
			continue
		}
		if l.ch == quote {
			l.readChar() // skip closing quote
			break
		}
		result.WriteByte(l.ch)
		l.readChar()
	}
	return result.String()
}

// readElemRef reads an element-scalar reference of the form #id~scalar.
// Returns the full literal and whether it is well-formed.
func (l *Lexer) readElemRef() (string, bool) {
	start := l.pos
	l.readChar() // skip '#'

	for isIDChar(l.ch) {
		l.readChar()
	}
	if l.pos == start+1 || l.ch != '~' {
		return l.input[start:l.pos], false
	}
	l.readChar() // skip '~'
	scalarStart := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	if l.pos == scalarStart {
		return l.input[start:l.pos], false
	}
	return l.input[start:l.pos], true
}

// readIdentifier reads an unquoted identifier.
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readNumber reads a numeric literal (integer, decimal, or scientific).
func (l *Lexer) readNumber() string {
	start := l.pos

	for isDigit(l.ch) {
		l.readChar()
	}

	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar() // skip '.'
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	if l.ch == 'e' || l.ch == 'E' {
		l.readChar() // skip 'e' or 'E'
		if l.ch == '+' || l.ch == '-' {
			l.readChar() // skip sign
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	return l.input[start:l.pos]
}

// isLetter returns true if ch is an ASCII letter.
func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

// isDigit returns true if ch is a digit.
func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// isIDChar returns true if ch may appear in an element id.
func isIDChar(ch byte) bool {
	return isLetter(ch) || isDigit(ch) || ch == '_' || ch == '-' || ch == '.'
}

// Tokenize returns all tokens from the input.
func Tokenize(input string) []Token {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TOKEN_EOF {
			break
		}
	}
	return tokens
}
