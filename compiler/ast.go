package compiler

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// AST: instruction tree for the tape language
// ---------------------------------------------------------------------------

// Position represents a source location.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number, counted in runes
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Instruction is the interface implemented by all instruction kinds.
// The set is closed: MoveRight, MoveLeft, Increment, Decrement, Output,
// Input and Loop.
type Instruction interface {
	fmt.Stringer
	instruction() // marker method
}

// MoveRight moves the cursor Count cells to the right.
type MoveRight struct {
	Count int
}

// MoveLeft moves the cursor Count cells to the left.
type MoveLeft struct {
	Count int
}

// Increment adds Count to the current cell, modulo 256.
type Increment struct {
	Count int
}

// Decrement subtracts Count from the current cell, modulo 256.
type Decrement struct {
	Count int
}

// Output writes the current cell as one byte.
type Output struct{}

// Input reads one byte into the current cell.
type Input struct{}

// Loop runs Body while the current cell is non-zero.
type Loop struct {
	Body []Instruction
}

func (MoveRight) instruction() {}
func (MoveLeft) instruction()  {}
func (Increment) instruction() {}
func (Decrement) instruction() {}
func (Output) instruction()    {}
func (Input) instruction()     {}
func (Loop) instruction()      {}

func (i MoveRight) String() string { return fmt.Sprintf("MoveRight(%d)", i.Count) }
func (i MoveLeft) String() string  { return fmt.Sprintf("MoveLeft(%d)", i.Count) }
func (i Increment) String() string { return fmt.Sprintf("Increment(%d)", i.Count) }
func (i Decrement) String() string { return fmt.Sprintf("Decrement(%d)", i.Count) }
func (Output) String() string      { return "Output" }
func (Input) String() string       { return "Input" }
func (i Loop) String() string      { return "Loop[" + Format(i.Body) + "]" }

// Format renders a program as space separated instructions, with loop
// bodies in brackets.
func Format(prog []Instruction) string {
	parts := make([]string, len(prog))
	for i, ins := range prog {
		parts[i] = ins.String()
	}
	return strings.Join(parts, " ")
}

// Count returns the number of instructions in prog, including the
// instructions nested inside loop bodies. A loop counts as one.
func Count(prog []Instruction) int {
	n := 0
	for _, ins := range prog {
		n++
		if loop, ok := ins.(Loop); ok {
			n += Count(loop.Body)
		}
	}
	return n
}
