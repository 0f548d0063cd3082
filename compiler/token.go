package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token types for the tape language
// ---------------------------------------------------------------------------

// TokenType classifies a single source character.
type TokenType int

const (
	// TokenUnknown is any character outside the instruction set. Such
	// characters are comments.
	TokenUnknown TokenType = iota

	TokenMoveRight // >
	TokenMoveLeft  // <
	TokenIncrement // +
	TokenDecrement // -
	TokenOutput    // .
	TokenInput     // ,
	TokenLoopStart // [
	TokenLoopEnd   // ]

	// TokenEOF marks the end of input.
	TokenEOF
)

var tokenNames = map[TokenType]string{
	TokenUnknown:   "UNKNOWN",
	TokenMoveRight: ">",
	TokenMoveLeft:  "<",
	TokenIncrement: "+",
	TokenDecrement: "-",
	TokenOutput:    ".",
	TokenInput:     ",",
	TokenLoopStart: "[",
	TokenLoopEnd:   "]",
	TokenEOF:       "EOF",
}

// String returns the symbol for the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Classify maps one source character to its token type.
func Classify(ch rune) TokenType {
	switch ch {
	case '>':
		return TokenMoveRight
	case '<':
		return TokenMoveLeft
	case '+':
		return TokenIncrement
	case '-':
		return TokenDecrement
	case '.':
		return TokenOutput
	case ',':
		return TokenInput
	case '[':
		return TokenLoopStart
	case ']':
		return TokenLoopEnd
	default:
		return TokenUnknown
	}
}

// Describe returns a one-line human description of a token type.
func (t TokenType) Describe() string {
	switch t {
	case TokenMoveRight:
		return "move the cursor one cell right, growing the tape if needed"
	case TokenMoveLeft:
		return "move the cursor one cell left"
	case TokenIncrement:
		return "increment the current cell (wraps 255 to 0)"
	case TokenDecrement:
		return "decrement the current cell (wraps 0 to 255)"
	case TokenOutput:
		return "write the current cell as one byte to output"
	case TokenInput:
		return "read one byte of input into the current cell"
	case TokenLoopStart:
		return "enter the loop while the current cell is non-zero"
	case TokenLoopEnd:
		return "jump back to the matching [ while the current cell is non-zero"
	default:
		return "comment"
	}
}
