package aot

import (
	"bytes"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/chazu/brainiac/compiler"
)

func generate(t *testing.T, memory int, source string) string {
	t.Helper()
	prog, err := compiler.Parse(source)
	if err != nil {
		t.Fatalf("Parse(%q): %v", source, err)
	}
	var buf bytes.Buffer
	if err := Generate(&buf, memory, compiler.Optimize(prog)); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return buf.String()
}

func TestGenerateHeader(t *testing.T) {
	code := generate(t, 4096, "+.")
	t.Logf("Generated code:\n%s", code)

	if !strings.HasPrefix(code, "// Code generated by brainiac. DO NOT EDIT.") {
		t.Error("Missing generated-code header")
	}
	if !strings.Contains(code, "package main") {
		t.Error("Missing package clause")
	}
	if !strings.Contains(code, "func main()") {
		t.Error("Missing main function")
	}
	if !strings.Contains(code, "make([]byte, 4096)") {
		t.Error("Missing tape allocation with requested memory")
	}
}

func TestGenerateStatements(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{"move right", ">>>", []string{"t.moveRight(3)"}},
		{"move left", ">><<", []string{"t.moveRight(2)", "t.moveLeft(2)"}},
		{"increment", "+++", []string{"t.increment(3)"}},
		{"decrement", "--", []string{"t.decrement(2)"}},
		{"output", ".", []string{"t.output()"}},
		{"input", ",", []string{"t.input()"}},
		{"loop", "[-]", []string{"for t.cells[t.pos] != 0 {", "t.decrement(1)"}},
		{"increment wraps", strings.Repeat("+", 300), []string{"t.increment(44)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := generate(t, 16, tt.source)
			for _, want := range tt.want {
				if !strings.Contains(code, want) {
					t.Errorf("generated code for %q missing %q\n%s", tt.source, want, code)
				}
			}
		})
	}
}

func TestGenerateNestedLoops(t *testing.T) {
	code := generate(t, 16, "+[>+[-]<-]")
	if n := strings.Count(code, "for t.cells[t.pos] != 0 {"); n != 2 {
		t.Errorf("got %d loops, want 2\n%s", n, code)
	}

	// The inner loop must appear inside the outer one, between the body
	// statements that surround it.
	outer := strings.Index(code, "for t.cells[t.pos] != 0 {")
	inner := strings.LastIndex(code, "for t.cells[t.pos] != 0 {")
	moveLeft := strings.Index(code, "t.moveLeft(1)")
	if !(outer < inner && inner < moveLeft) {
		t.Errorf("loop nesting out of order\n%s", code)
	}
}

func TestGenerateEmptyProgram(t *testing.T) {
	code := generate(t, 1, "no commands here")
	if !strings.Contains(code, "_ = t") {
		t.Errorf("empty program must still use the tape\n%s", code)
	}
}

func TestGenerateClampsMemory(t *testing.T) {
	var buf bytes.Buffer
	if err := Generate(&buf, 0, nil); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(buf.String(), "make([]byte, 1)") {
		t.Errorf("memory below one should be raised to one\n%s", buf.String())
	}
}

func TestGenerateParses(t *testing.T) {
	code := generate(t, 512, "++++++++[>++++[>++>+++>+++>+<<<<-]>+>+>->>+[<]<-]>>.>---.+++++++..+++.>>.<-.<.+++.------.--------.>>+.>++.,")
	if _, err := parser.ParseFile(token.NewFileSet(), "hello.go", code, parser.AllErrors); err != nil {
		t.Fatalf("generated code does not parse: %v\n%s", err, code)
	}
}

func TestGenerateOnlyStandardImports(t *testing.T) {
	code := generate(t, 16, ",[.,]")
	f, err := parser.ParseFile(token.NewFileSet(), "echo.go", code, parser.ImportsOnly)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	allowed := map[string]bool{`"bufio"`: true, `"fmt"`: true, `"os"`: true}
	for _, imp := range f.Imports {
		if !allowed[imp.Path.Value] {
			t.Errorf("unexpected import %s", imp.Path.Value)
		}
	}
}
