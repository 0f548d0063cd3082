package compiler

import "fmt"

// Visitor receives one call per instruction during Walk. Backends
// implement it to either execute or emit code for each instruction.
type Visitor interface {
	MoveRight(n int) error
	MoveLeft(n int) error
	Increment(n int) error
	Decrement(n int) error
	Output() error
	Input() error

	// Loop is called for a loop instruction. body walks the loop body
	// once; the visitor decides how often to call it.
	Loop(body func() error) error
}

// Walk dispatches every instruction of prog to v, in order, and stops at
// the first error.
func Walk(v Visitor, prog []Instruction) error {
	for _, ins := range prog {
		var err error

		switch ins := ins.(type) {
		case MoveRight:
			err = v.MoveRight(ins.Count)
		case MoveLeft:
			err = v.MoveLeft(ins.Count)
		case Increment:
			err = v.Increment(ins.Count)
		case Decrement:
			err = v.Decrement(ins.Count)
		case Output:
			err = v.Output()
		case Input:
			err = v.Input()
		case Loop:
			body := ins.Body
			err = v.Loop(func() error {
				return Walk(v, body)
			})
		default:
			panic(fmt.Sprintf("compiler: unknown instruction %T", ins))
		}

		if err != nil {
			return err
		}
	}
	return nil
}
