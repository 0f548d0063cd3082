package compiler

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Parser: recursive descent over bracket pairs
// ---------------------------------------------------------------------------

var (
	ErrUnterminatedLoop       = errors.New("missing closing bracket")
	ErrUnexpectedCloseBracket = errors.New("unexpected closing bracket")
)

// ParseError reports a bracket mismatch and where it happened. For an
// unterminated loop Pos is the opening bracket.
type ParseError struct {
	Err error
	Pos Position
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse source code: line %d, column %d: %v", e.Pos.Line, e.Pos.Column, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse builds the instruction tree for source. Characters outside the
// instruction set are skipped. On error no instructions are returned.
func Parse(source string) ([]Instruction, error) {
	p := &parser{lexer: NewLexer(source)}
	prog, err := p.parseBlock(nil)
	if err != nil {
		return nil, err
	}
	return prog, nil
}

type parser struct {
	lexer *Lexer
}

// parseBlock parses until end of input or, when open is set, until the
// bracket matching the one at open.
func (p *parser) parseBlock(open *Position) ([]Instruction, error) {
	prog := []Instruction{}

	for {
		tok := p.lexer.NextToken()

		switch tok.Type {
		case TokenMoveRight:
			prog = append(prog, MoveRight{Count: 1})
		case TokenMoveLeft:
			prog = append(prog, MoveLeft{Count: 1})
		case TokenIncrement:
			prog = append(prog, Increment{Count: 1})
		case TokenDecrement:
			prog = append(prog, Decrement{Count: 1})
		case TokenOutput:
			prog = append(prog, Output{})
		case TokenInput:
			prog = append(prog, Input{})
		case TokenLoopStart:
			body, err := p.parseBlock(&tok.Pos)
			if err != nil {
				return nil, err
			}
			prog = append(prog, Loop{Body: body})
		case TokenLoopEnd:
			if open == nil {
				return nil, &ParseError{Err: ErrUnexpectedCloseBracket, Pos: tok.Pos}
			}
			return prog, nil
		case TokenEOF:
			if open != nil {
				return nil, &ParseError{Err: ErrUnterminatedLoop, Pos: *open}
			}
			return prog, nil
		}
	}
}
