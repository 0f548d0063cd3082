package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/chazu/brainiac/compiler"
	"github.com/chazu/brainiac/compiler/hash"
)

// kinds lists instruction kinds in display order.
var kinds = []string{"MoveRight", "MoveLeft", "Increment", "Decrement", "Output", "Input", "Loop"}

// stats counts instructions per kind and the source commands they stand
// for. Loops count one instruction and two commands (their brackets).
type stats struct {
	instructions map[string]int
	commands     map[string]int
}

func collectStats(prog []compiler.Instruction) (*stats, error) {
	s := &stats{
		instructions: make(map[string]int),
		commands:     make(map[string]int),
	}
	if err := compiler.Walk(s, prog); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *stats) add(kind string, n int) error {
	s.instructions[kind]++
	s.commands[kind] += n
	return nil
}

func (s *stats) MoveRight(n int) error { return s.add("MoveRight", n) }
func (s *stats) MoveLeft(n int) error  { return s.add("MoveLeft", n) }
func (s *stats) Increment(n int) error { return s.add("Increment", n) }
func (s *stats) Decrement(n int) error { return s.add("Decrement", n) }
func (s *stats) Output() error         { return s.add("Output", 1) }
func (s *stats) Input() error          { return s.add("Input", 1) }

// Loop visits the body exactly once.
func (s *stats) Loop(body func() error) error {
	s.add("Loop", 2)
	return body()
}

func (s *stats) total() (instructions, commands int) {
	for _, k := range kinds {
		instructions += s.instructions[k]
		commands += s.commands[k]
	}
	return instructions, commands
}

// inspect prints the optimized listing followed by a per-kind table
// comparing the parsed and optimized programs.
func inspect(w io.Writer, o *options, p *program) error {
	before, err := collectStats(p.parsed)
	if err != nil {
		return err
	}
	after, err := collectStats(p.optimized)
	if err != nil {
		return err
	}
	sum, err := hash.Program(p.optimized, p.memory)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "source: %s\n", o.source)
	fmt.Fprintf(w, "memory: %d cells\n", p.memory)
	fmt.Fprintf(w, "hash:   %s\n\n", hash.Hex(sum))
	fmt.Fprintln(w, compiler.Format(p.optimized))
	fmt.Fprintln(w)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Instructions")
	t.AppendHeader(table.Row{"Kind", "Parsed", "Optimized", "Commands"})
	for _, k := range kinds {
		t.AppendRow(table.Row{k, before.instructions[k], after.instructions[k], after.commands[k]})
	}
	bi, _ := before.total()
	ai, ac := after.total()
	t.AppendFooter(table.Row{"Total", bi, ai, ac})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	t.Render()
	return nil
}
