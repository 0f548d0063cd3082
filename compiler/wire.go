package compiler

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ErrMalformedProgram is returned when encoded instructions do not form a
// valid program.
var ErrMalformedProgram = errors.New("malformed program encoding")

// Wire opcodes. Values are part of the image format and must not change.
const (
	opMoveRight uint8 = iota + 1
	opMoveLeft
	opIncrement
	opDecrement
	opOutput
	opInput
	opLoop
)

type wireInstruction struct {
	Op    uint8             `cbor:"1,keyasint"`
	Count int               `cbor:"2,keyasint,omitempty"`
	Body  []wireInstruction `cbor:"3,keyasint,omitempty"`
}

// cborEncMode uses canonical encoding so equal programs always produce
// equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("compiler: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalProgram serializes a program to canonical CBOR bytes.
func MarshalProgram(prog []Instruction) ([]byte, error) {
	return cborEncMode.Marshal(toWire(prog))
}

// UnmarshalProgram deserializes a program from CBOR bytes.
func UnmarshalProgram(data []byte) ([]Instruction, error) {
	var w []wireInstruction
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("compiler: unmarshal program: %w", err)
	}
	return fromWire(w)
}

func toWire(prog []Instruction) []wireInstruction {
	out := make([]wireInstruction, len(prog))
	for i, ins := range prog {
		switch ins := ins.(type) {
		case MoveRight:
			out[i] = wireInstruction{Op: opMoveRight, Count: ins.Count}
		case MoveLeft:
			out[i] = wireInstruction{Op: opMoveLeft, Count: ins.Count}
		case Increment:
			out[i] = wireInstruction{Op: opIncrement, Count: ins.Count}
		case Decrement:
			out[i] = wireInstruction{Op: opDecrement, Count: ins.Count}
		case Output:
			out[i] = wireInstruction{Op: opOutput}
		case Input:
			out[i] = wireInstruction{Op: opInput}
		case Loop:
			out[i] = wireInstruction{Op: opLoop, Body: toWire(ins.Body)}
		default:
			panic(fmt.Sprintf("compiler: unknown instruction %T", ins))
		}
	}
	return out
}

func fromWire(w []wireInstruction) ([]Instruction, error) {
	prog := make([]Instruction, 0, len(w))
	for _, wi := range w {
		if wi.Op != opLoop && len(wi.Body) > 0 {
			return nil, fmt.Errorf("%w: opcode %d has a body", ErrMalformedProgram, wi.Op)
		}

		switch wi.Op {
		case opMoveRight, opMoveLeft, opIncrement, opDecrement:
			if wi.Count < 1 {
				return nil, fmt.Errorf("%w: opcode %d has count %d", ErrMalformedProgram, wi.Op, wi.Count)
			}
		}

		switch wi.Op {
		case opMoveRight:
			prog = append(prog, MoveRight{Count: wi.Count})
		case opMoveLeft:
			prog = append(prog, MoveLeft{Count: wi.Count})
		case opIncrement:
			prog = append(prog, Increment{Count: wi.Count})
		case opDecrement:
			prog = append(prog, Decrement{Count: wi.Count})
		case opOutput:
			prog = append(prog, Output{})
		case opInput:
			prog = append(prog, Input{})
		case opLoop:
			body, err := fromWire(wi.Body)
			if err != nil {
				return nil, err
			}
			prog = append(prog, Loop{Body: body})
		default:
			return nil, fmt.Errorf("%w: unknown opcode %d", ErrMalformedProgram, wi.Op)
		}
	}
	return prog, nil
}
