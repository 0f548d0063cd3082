// Package aot compiles programs ahead of time: it emits an equivalent Go
// program and builds it into a native executable with the Go toolchain.
package aot

import (
	"io"

	"github.com/dave/jennifer/jen"
	"github.com/tliron/commonlog"

	"github.com/chazu/brainiac/compiler"
)

var log = commonlog.GetLogger("brainiac.aot")

// generator emits one Go statement per instruction. blocks is a stack of
// statement lists; loops push a list for their body and pop it when the
// body has been walked.
type generator struct {
	blocks [][]jen.Code
}

// Generate writes a complete Go main package that runs prog on a tape of
// memory cells, reading stdin and writing stdout one byte at a time.
func Generate(w io.Writer, memory int, prog []compiler.Instruction) error {
	if memory < 1 {
		memory = 1
	}

	g := &generator{blocks: [][]jen.Code{nil}}
	if err := compiler.Walk(g, prog); err != nil {
		return err
	}

	f := jen.NewFile("main")
	f.HeaderComment("Code generated by brainiac. DO NOT EDIT.")
	writeRuntime(f)

	body := []jen.Code{
		jen.Id("t").Op(":=").Op("&").Id("tape").Values(jen.Dict{
			jen.Id("cells"): jen.Make(jen.Index().Byte(), jen.Lit(memory)),
		}),
	}
	if len(prog) == 0 {
		body = append(body, jen.Id("_").Op("=").Id("t"))
	}
	body = append(body, g.blocks[0]...)
	body = append(body,
		jen.If(
			jen.Err().Op(":=").Id("stdout").Dot("Flush").Call(),
			jen.Err().Op("!=").Nil(),
		).Block(
			jen.Id("fail").Call(jen.Lit("cannot write to stdout: %v"), jen.Err()),
		),
	)
	f.Func().Id("main").Params().Block(body...)

	return f.Render(w)
}

func (g *generator) emit(c jen.Code) {
	top := len(g.blocks) - 1
	g.blocks[top] = append(g.blocks[top], c)
}

func (g *generator) call(method string, args ...jen.Code) {
	g.emit(jen.Id("t").Dot(method).Call(args...))
}

func (g *generator) MoveRight(n int) error {
	g.call("moveRight", jen.Lit(n))
	return nil
}

func (g *generator) MoveLeft(n int) error {
	g.call("moveLeft", jen.Lit(n))
	return nil
}

// Counts are reduced here because the runtime takes a byte.
func (g *generator) Increment(n int) error {
	g.call("increment", jen.Lit(n%256))
	return nil
}

func (g *generator) Decrement(n int) error {
	g.call("decrement", jen.Lit(n%256))
	return nil
}

func (g *generator) Output() error {
	g.call("output")
	return nil
}

func (g *generator) Input() error {
	g.call("input")
	return nil
}

func (g *generator) Loop(body func() error) error {
	g.blocks = append(g.blocks, nil)
	if err := body(); err != nil {
		return err
	}
	top := len(g.blocks) - 1
	stmts := g.blocks[top]
	g.blocks = g.blocks[:top]

	g.emit(jen.For(currentCell().Op("!=").Lit(0)).Block(stmts...))
	return nil
}

// currentCell renders t.cells[t.pos].
func currentCell() *jen.Statement {
	return jen.Id("t").Dot("cells").Index(jen.Id("t").Dot("pos"))
}

// writeRuntime emits the tape type and the I/O plumbing shared by every
// generated program. Semantics match vm.Tape and vm.Interpreter.
func writeRuntime(f *jen.File) {
	f.Var().Defs(
		jen.Id("stdin").Op("=").Qual("bufio", "NewReader").Call(jen.Qual("os", "Stdin")),
		jen.Id("stdout").Op("=").Qual("bufio", "NewWriter").Call(jen.Qual("os", "Stdout")),
	)

	f.Comment("tape holds zeroed byte cells and the cursor.")
	f.Type().Id("tape").Struct(
		jen.Id("cells").Index().Byte(),
		jen.Id("pos").Int(),
	)

	recv := func() *jen.Statement {
		return jen.Id("t").Op("*").Id("tape")
	}
	pos := func() *jen.Statement {
		return jen.Id("t").Dot("pos")
	}
	cells := func() *jen.Statement {
		return jen.Id("t").Dot("cells")
	}

	f.Func().Params(recv()).Id("moveRight").Params(jen.Id("n").Int()).Block(
		pos().Op("+=").Id("n"),
		jen.If(pos().Op(">=").Len(cells())).Block(
			cells().Op("=").Append(
				cells(),
				jen.Make(jen.Index().Byte(), pos().Op("+").Lit(1).Op("-").Len(cells())).Op("..."),
			),
		),
	)

	f.Func().Params(recv()).Id("moveLeft").Params(jen.Id("n").Int()).Block(
		jen.If(jen.Id("n").Op(">").Add(pos())).Block(
			jen.Id("fail").Call(jen.Lit("negative memory addresses are invalid")),
		),
		pos().Op("-=").Id("n"),
	)

	f.Func().Params(recv()).Id("increment").Params(jen.Id("n").Byte()).Block(
		currentCell().Op("+=").Id("n"),
	)

	f.Func().Params(recv()).Id("decrement").Params(jen.Id("n").Byte()).Block(
		currentCell().Op("-=").Id("n"),
	)

	f.Func().Params(recv()).Id("output").Params().Block(
		jen.If(
			jen.Err().Op(":=").Id("stdout").Dot("WriteByte").Call(currentCell()),
			jen.Err().Op("!=").Nil(),
		).Block(
			jen.Id("fail").Call(jen.Lit("cannot write to stdout: %v"), jen.Err()),
		),
	)

	f.Comment("input flushes pending output so prompts show before the read blocks.")
	f.Func().Params(recv()).Id("input").Params().Block(
		jen.If(
			jen.Err().Op(":=").Id("stdout").Dot("Flush").Call(),
			jen.Err().Op("!=").Nil(),
		).Block(
			jen.Id("fail").Call(jen.Lit("cannot write to stdout: %v"), jen.Err()),
		),
		jen.List(jen.Id("b"), jen.Err()).Op(":=").Id("stdin").Dot("ReadByte").Call(),
		jen.If(jen.Err().Op("!=").Nil()).Block(
			jen.Id("fail").Call(jen.Lit("cannot read stdin: %v"), jen.Err()),
		),
		currentCell().Op("=").Id("b"),
	)

	f.Func().Id("fail").Params(
		jen.Id("format").String(),
		jen.Id("args").Op("...").Interface(),
	).Block(
		jen.Id("stdout").Dot("Flush").Call(),
		jen.Qual("fmt", "Fprintf").Call(
			jen.Qual("os", "Stderr"),
			jen.Lit("failed during execution: ").Op("+").Id("format").Op("+").Lit("\n"),
			jen.Id("args").Op("..."),
		),
		jen.Qual("os", "Exit").Call(jen.Lit(1)),
	)
}
