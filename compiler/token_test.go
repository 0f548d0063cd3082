package compiler

import "testing"

func TestClassify(t *testing.T) {
	tests := map[rune]TokenType{
		'>': TokenMoveRight,
		'<': TokenMoveLeft,
		'+': TokenIncrement,
		'-': TokenDecrement,
		'.': TokenOutput,
		',': TokenInput,
		'[': TokenLoopStart,
		']': TokenLoopEnd,
	}
	for ch, want := range tests {
		if got := Classify(ch); got != want {
			t.Errorf("Classify(%q) = %v, want %v", ch, got, want)
		}
	}

	for ch := rune(0); ch < 0x250; ch++ {
		if _, ok := tests[ch]; ok {
			continue
		}
		if got := Classify(ch); got != TokenUnknown {
			t.Errorf("Classify(%q) = %v, want TokenUnknown", ch, got)
		}
	}
}

func TestTokenTypeString(t *testing.T) {
	if TokenLoopEnd.String() != "]" {
		t.Errorf("TokenLoopEnd.String() = %q", TokenLoopEnd.String())
	}
	if got := TokenType(99).String(); got != "TokenType(99)" {
		t.Errorf("unknown String() = %q", got)
	}
}

func TestDescribe(t *testing.T) {
	for typ := TokenMoveRight; typ <= TokenLoopEnd; typ++ {
		if d := typ.Describe(); d == "" || d == "comment" {
			t.Errorf("%v has no description", typ)
		}
	}
	if TokenUnknown.Describe() != "comment" {
		t.Errorf("TokenUnknown.Describe() = %q", TokenUnknown.Describe())
	}
}
