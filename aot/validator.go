package aot

// This file contains in-memory validation of generated Go source using
// go/parser and go/types.

import (
	"errors"
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"
	"strings"
)

// ErrInvalidSource is returned when generated source does not parse or
// type-check.
var ErrInvalidSource = errors.New("generated source is invalid")

// ValidationError represents a Go validation error with position info
type ValidationError struct {
	Line    int
	Column  int
	Message string
}

// SourceError collects every problem found in one generated file.
type SourceError struct {
	Filename string
	Errors   []ValidationError
}

func (e *SourceError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v: %s", ErrInvalidSource, e.Filename)
	for _, ve := range e.Errors {
		fmt.Fprintf(&b, "\n  %d:%d: %s", ve.Line, ve.Column, ve.Message)
	}
	return b.String()
}

func (e *SourceError) Unwrap() error {
	return ErrInvalidSource
}

// Validate parses and type-checks source as a standalone main package.
// filename is only used in messages.
func Validate(filename string, source []byte) error {
	fset := token.NewFileSet()

	file, err := parser.ParseFile(fset, filename, source, parser.AllErrors)
	if err != nil {
		return parseErrors(filename, err)
	}

	var problems []ValidationError
	conf := types.Config{
		Importer: importer.Default(),
		Error: func(err error) {
			// types.Error has a Pos field (not a Pos() method)
			if typeErr, ok := err.(types.Error); ok {
				pos := fset.Position(typeErr.Pos)
				problems = append(problems, ValidationError{
					Line:    pos.Line,
					Column:  pos.Column,
					Message: typeErr.Msg,
				})
			}
		},
	}

	// The first error is also reported through conf.Error.
	_, _ = conf.Check("main", fset, []*ast.File{file}, nil)

	if file.Name.Name != "main" {
		problems = append(problems, ValidationError{Line: 1, Column: 1, Message: "package is not main"})
	}
	if !hasMainFunc(file) {
		problems = append(problems, ValidationError{Line: 1, Column: 1, Message: "missing func main"})
	}

	if len(problems) > 0 {
		return &SourceError{Filename: filename, Errors: problems}
	}
	return nil
}

func parseErrors(filename string, err error) error {
	var list scanner.ErrorList
	if errors.As(err, &list) {
		se := &SourceError{Filename: filename}
		for _, e := range list {
			se.Errors = append(se.Errors, ValidationError{
				Line:    e.Pos.Line,
				Column:  e.Pos.Column,
				Message: e.Msg,
			})
		}
		return se
	}
	return &SourceError{
		Filename: filename,
		Errors:   []ValidationError{{Message: err.Error()}},
	}
}

func hasMainFunc(file *ast.File) bool {
	for _, decl := range file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok && fn.Recv == nil && fn.Name.Name == "main" {
			return true
		}
	}
	return false
}
