package compiler

// Optimize merges runs of the same move or modify instruction into one
// instruction carrying the summed count. Output, Input and Loop end a run.
// Loop bodies are optimized recursively. prog is not modified.
func Optimize(prog []Instruction) []Instruction {
	out := make([]Instruction, 0, len(prog))

	for i := 0; i < len(prog); i++ {
		switch ins := prog[i].(type) {
		case MoveRight:
			total := ins.Count
			for i+1 < len(prog) {
				next, ok := prog[i+1].(MoveRight)
				if !ok {
					break
				}
				total += next.Count
				i++
			}
			out = append(out, MoveRight{Count: total})

		case MoveLeft:
			total := ins.Count
			for i+1 < len(prog) {
				next, ok := prog[i+1].(MoveLeft)
				if !ok {
					break
				}
				total += next.Count
				i++
			}
			out = append(out, MoveLeft{Count: total})

		case Increment:
			total := ins.Count
			for i+1 < len(prog) {
				next, ok := prog[i+1].(Increment)
				if !ok {
					break
				}
				total += next.Count
				i++
			}
			out = append(out, Increment{Count: total})

		case Decrement:
			total := ins.Count
			for i+1 < len(prog) {
				next, ok := prog[i+1].(Decrement)
				if !ok {
					break
				}
				total += next.Count
				i++
			}
			out = append(out, Decrement{Count: total})

		case Loop:
			out = append(out, Loop{Body: Optimize(ins.Body)})

		default:
			out = append(out, ins)
		}
	}

	return out
}
