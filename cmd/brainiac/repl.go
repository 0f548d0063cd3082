package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/peterh/liner"

	"github.com/chazu/brainiac/compiler"
	"github.com/chazu/brainiac/manifest"
	"github.com/chazu/brainiac/vm"
)

const (
	historyFile = ".brainiac_history"
	promptMain  = "bf> "
	promptCont  = "..> "

	// tapeWindow is how many cells :tape shows around the cursor.
	tapeWindow = 8
)

// handleREPLCommand processes the `brainiac repl` subcommand.
func handleREPLCommand(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	fs := newFlagSet("repl", stderr)
	memory := fs.Int("m", manifest.DefaultMemory, "Initial number of memory cells")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *memory < 1 {
		fmt.Fprintf(stderr, "Error: memory must be positive, got %d\n", *memory)
		return 2
	}

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Fprintf(stdout, "brainiac %s. Type :help for commands.\n", version)
	s := newSession(*memory, bufio.NewReader(stdin), stdout)
	for {
		flush(stdout)
		src, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Fprintln(stdout)
			break
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
		if s.eval(src) {
			break
		}
	}
	flush(stdout)
	return 0
}

// prompter is the part of *liner.State the REPL reads lines from.
type prompter interface {
	Prompt(prompt string) (string, error)
}

// readByParseProbe reads lines until they form a complete entry. An entry
// with an unclosed loop keeps reading with the continuation prompt; any
// other parse outcome ends the entry. ok is false at end of input.
func readByParseProbe(p prompter, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = p.Prompt(prompt)
		} else {
			line, err = p.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			// Ctrl-C discards the entry being typed.
			b.Reset()
			continue
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		if _, perr := compiler.Parse(src); errors.Is(perr, compiler.ErrUnterminatedLoop) {
			continue
		}
		return src, true
	}
}

// session is the REPL state: one interpreter whose tape persists across
// entries until :reset.
type session struct {
	memory int
	in     io.Reader
	out    io.Writer
	interp *vm.Interpreter
}

func newSession(memory int, in io.Reader, out io.Writer) *session {
	s := &session{memory: memory, in: in, out: out}
	s.reset()
	return s
}

func (s *session) reset() {
	s.interp = vm.NewInterpreter(vm.NewTape(s.memory), s.in, s.out)
}

// eval runs one entry and reports whether the REPL should exit.
func (s *session) eval(src string) bool {
	if cmd := strings.TrimSpace(src); strings.HasPrefix(cmd, ":") {
		return s.command(cmd)
	}

	prog, err := compiler.Parse(src)
	if err != nil {
		fmt.Fprintf(s.out, "Parse error: %v\n", err)
		return false
	}
	if err := s.interp.Exec(compiler.Optimize(prog)); err != nil {
		flush(s.out)
		fmt.Fprintf(s.out, "\nRuntime error: %v\n", err)
	}
	return false
}

// command handles REPL meta-commands
func (s *session) command(cmd string) bool {
	switch cmd {
	case ":help", ":h", ":?":
		fmt.Fprintln(s.out, "REPL Commands:")
		fmt.Fprintln(s.out, "  :help, :h, :?     Show this help")
		fmt.Fprintln(s.out, "  :tape             Show cells around the cursor")
		fmt.Fprintln(s.out, "  :reset            Start over with a fresh tape")
		fmt.Fprintln(s.out, "  :quit, :q         Exit REPL")
		fmt.Fprintln(s.out, "Anything else is run as a program on the current tape.")
	case ":tape":
		fmt.Fprint(s.out, renderTape(s.interp.Tape(), tapeWindow))
	case ":reset":
		s.reset()
		fmt.Fprintf(s.out, "Tape reset to %d cells\n", s.memory)
	case ":quit", ":q":
		return true
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type :help for commands)\n", cmd)
	}
	return false
}

// renderTape shows up to 2*window+1 cells centred on the cursor.
func renderTape(t *vm.Tape, window int) string {
	cells := t.Cells()
	cursor := t.Cursor()
	lo := max(cursor-window, 0)
	hi := min(cursor+window+1, len(cells))

	header := table.Row{"Cell"}
	values := table.Row{"Value"}
	marks := table.Row{""}
	for i := lo; i < hi; i++ {
		header = append(header, i)
		values = append(values, cells[i])
		if i == cursor {
			marks = append(marks, "^")
		} else {
			marks = append(marks, "")
		}
	}

	tw := table.NewWriter()
	tw.AppendHeader(header)
	tw.AppendRow(values)
	tw.AppendRow(marks)
	return fmt.Sprintf("Tape: %d cells, cursor at %d\n", len(cells), cursor) + tw.Render() + "\n"
}

func flush(w io.Writer) {
	if f, ok := w.(interface{ Flush() error }); ok {
		f.Flush()
	}
}
