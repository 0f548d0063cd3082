package compiler

import (
	"testing"
)

func TestLexerTokens(t *testing.T) {
	input := "a+\n [é.]"
	expected := []struct {
		typ    TokenType
		line   int
		column int
		offset int
	}{
		{TokenIncrement, 1, 2, 1},
		{TokenLoopStart, 2, 2, 4},
		{TokenOutput, 2, 4, 7},
		{TokenLoopEnd, 2, 5, 8},
		{TokenEOF, 2, 6, 9},
	}

	l := NewLexer(input)
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != exp.typ {
			t.Fatalf("token %d: type = %v, want %v", i, tok.Type, exp.typ)
		}
		if tok.Pos.Line != exp.line || tok.Pos.Column != exp.column || tok.Pos.Offset != exp.offset {
			t.Errorf("token %d (%v): pos = %+v, want %d:%d offset %d", i, tok.Type, tok.Pos, exp.line, exp.column, exp.offset)
		}
	}
}

func TestLexerEOFRepeats(t *testing.T) {
	l := NewLexer("+")
	l.NextToken()
	for i := 0; i < 3; i++ {
		if tok := l.NextToken(); tok.Type != TokenEOF {
			t.Fatalf("call %d after end: %v", i, tok)
		}
	}
}

func TestTokenize(t *testing.T) {
	tokens := Tokenize("comment ><+-.,[] more")
	want := []TokenType{
		TokenMoveRight, TokenMoveLeft, TokenIncrement, TokenDecrement,
		TokenOutput, TokenInput, TokenLoopStart, TokenLoopEnd,
	}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(tokens), len(want))
	}
	for i, typ := range want {
		if tokens[i].Type != typ {
			t.Errorf("token %d = %v, want %v", i, tokens[i].Type, typ)
		}
	}
	if len(Tokenize("nothing here")) != 0 {
		t.Error("comment-only input should produce no tokens")
	}
}

func TestTokenString(t *testing.T) {
	tok := Token{Type: TokenLoopStart, Pos: Position{Line: 3, Column: 7}}
	if got := tok.String(); got != "[@3:7" {
		t.Errorf("String() = %q", got)
	}
}
