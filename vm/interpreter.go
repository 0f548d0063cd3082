package vm

import (
	"errors"
	"fmt"
	"io"

	"github.com/tliron/commonlog"

	"github.com/chazu/brainiac/compiler"
)

var log = commonlog.GetLogger("brainiac.vm")

var (
	ErrNegativeAddress = errors.New("negative memory addresses are invalid")
	ErrIORead          = errors.New("cannot read input")
	ErrIOWrite         = errors.New("cannot write output")
)

// RuntimeError aborts a run. Kind is one of ErrNegativeAddress, ErrIORead
// or ErrIOWrite; Err is the underlying I/O error, if any.
type RuntimeError struct {
	Kind error
	Err  error
}

func (e *RuntimeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed during execution: %v: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("failed during execution: %v", e.Kind)
}

func (e *RuntimeError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// flusher is implemented by buffered writers such as *bufio.Writer.
type flusher interface {
	Flush() error
}

// ---------------------------------------------------------------------------
// Interpreter: tree-walking executor
// ---------------------------------------------------------------------------

// Interpreter executes instructions against a tape, reading Input bytes
// from in and writing Output bytes to out.
type Interpreter struct {
	tape *Tape
	in   io.Reader
	out  io.Writer
	buf  [1]byte
}

// NewInterpreter creates an interpreter over an existing tape. The tape
// keeps its state between calls to Exec.
func NewInterpreter(tape *Tape, in io.Reader, out io.Writer) *Interpreter {
	return &Interpreter{tape: tape, in: in, out: out}
}

// Run executes prog on a fresh tape of memory cells.
func Run(memory int, prog []compiler.Instruction, in io.Reader, out io.Writer) error {
	return NewInterpreter(NewTape(memory), in, out).Exec(prog)
}

// Tape returns the interpreter's tape.
func (interp *Interpreter) Tape() *Tape {
	return interp.tape
}

// Exec runs prog from the tape's current state. The first failure aborts
// the run; output written before it is not retracted.
func (interp *Interpreter) Exec(prog []compiler.Instruction) error {
	err := compiler.Walk(interp, prog)
	if err != nil {
		log.Debugf("run aborted at cell %d: %v", interp.tape.Cursor(), err)
	}
	return err
}

// MoveRight implements compiler.Visitor.
func (interp *Interpreter) MoveRight(n int) error {
	interp.tape.MoveRight(n)
	return nil
}

// MoveLeft implements compiler.Visitor.
func (interp *Interpreter) MoveLeft(n int) error {
	if err := interp.tape.MoveLeft(n); err != nil {
		return &RuntimeError{Kind: err}
	}
	return nil
}

// Increment implements compiler.Visitor.
func (interp *Interpreter) Increment(n int) error {
	interp.tape.Increment(n)
	return nil
}

// Decrement implements compiler.Visitor.
func (interp *Interpreter) Decrement(n int) error {
	interp.tape.Decrement(n)
	return nil
}

// Output implements compiler.Visitor.
func (interp *Interpreter) Output() error {
	interp.buf[0] = interp.tape.Read()
	if _, err := interp.out.Write(interp.buf[:]); err != nil {
		return &RuntimeError{Kind: ErrIOWrite, Err: err}
	}
	return nil
}

// Input implements compiler.Visitor. Pending output is flushed first so
// prompts are visible before the read blocks.
func (interp *Interpreter) Input() error {
	if f, ok := interp.out.(flusher); ok {
		if err := f.Flush(); err != nil {
			return &RuntimeError{Kind: ErrIOWrite, Err: err}
		}
	}
	if _, err := io.ReadFull(interp.in, interp.buf[:]); err != nil {
		return &RuntimeError{Kind: ErrIORead, Err: err}
	}
	interp.tape.Write(interp.buf[0])
	return nil
}

// Loop implements compiler.Visitor. The condition is tested before every
// iteration, including the first.
func (interp *Interpreter) Loop(body func() error) error {
	for interp.tape.Read() != 0 {
		if err := body(); err != nil {
			return err
		}
	}
	return nil
}
