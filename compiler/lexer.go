package compiler

import "unicode/utf8"

// ---------------------------------------------------------------------------
// Lexer: tokenizer for the tape language
// ---------------------------------------------------------------------------

// Token is one command character and where it appeared.
type Token struct {
	Type TokenType
	Pos  Position
}

func (t Token) String() string {
	return t.Type.String() + "@" + t.Pos.String()
}

// Lexer splits source into command tokens. Every other character is a
// comment and is skipped.
type Lexer struct {
	input string
	pos   int // byte offset of the next character
	line  int // current line (1-based)
	col   int // current column (1-based, in runes)
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1, col: 1}
}

// position returns the location of the next character.
func (l *Lexer) position() Position {
	return Position{Offset: l.pos, Line: l.line, Column: l.col}
}

// readChar consumes one character.
func (l *Lexer) readChar() rune {
	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size

	// Track line/column
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

// NextToken returns the next command token, or a TokenEOF token positioned
// at the end of input. Calling it again after EOF keeps returning EOF.
func (l *Lexer) NextToken() Token {
	for l.pos < len(l.input) {
		pos := l.position()
		if typ := Classify(l.readChar()); typ != TokenUnknown {
			return Token{Type: typ, Pos: pos}
		}
	}
	return Token{Type: TokenEOF, Pos: l.position()}
}

// Tokenize returns all command tokens in input, without the trailing EOF.
func Tokenize(input string) []Token {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Type == TokenEOF {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}
