package aot

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrToolchainInvocationFailed is returned when the toolchain cannot be
// launched or reports a failed build.
var ErrToolchainInvocationFailed = errors.New("toolchain invocation failed")

// CompilationError wraps a toolchain failure with the process output.
type CompilationError struct {
	Err    error
	Cause  error
	Output string
}

func (e *CompilationError) Error() string {
	msg := fmt.Sprintf("failed to compile generated program: %v", e.Err)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\nOutput: " + out
	}
	return msg
}

func (e *CompilationError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// Toolchain turns a generated source file into an executable at dest.
type Toolchain interface {
	Compile(src, dest string) error
}

// ToolchainFunc adapts a plain function to the Toolchain interface.
type ToolchainFunc func(src, dest string) error

// Compile calls f(src, dest).
func (f ToolchainFunc) Compile(src, dest string) error {
	return f(src, dest)
}

// Fingerprinter is implemented by toolchains whose output depends on their
// own configuration. Builder mixes the fingerprint into build cache keys so
// a changed toolchain never restores an executable built by another.
type Fingerprinter interface {
	Fingerprint() string
}

// GoToolchain builds with `go build`.
type GoToolchain struct {
	GoBin string   // go executable; "go" when empty
	Flags []string // extra build flags, e.g. -trimpath
	Env   []string // extra environment, appended to os.Environ()
}

func (g GoToolchain) bin() string {
	if g.GoBin == "" {
		return "go"
	}
	return g.GoBin
}

// Fingerprint covers the go executable, flags, extra environment and the
// Go version and target reported by `go env`.
func (g GoToolchain) Fingerprint() string {
	bin := g.bin()
	parts := []string{
		"bin=" + bin,
		"flags=" + strings.Join(g.Flags, "\x00"),
		"env=" + strings.Join(g.Env, "\x00"),
	}

	cmd := exec.Command(bin, "env", "GOVERSION", "GOOS", "GOARCH")
	cmd.Env = append(os.Environ(), g.Env...)
	if out, err := cmd.Output(); err == nil {
		parts = append(parts, "target="+strings.Join(strings.Fields(string(out)), " "))
	} else {
		log.Debugf("go env failed, fingerprint without target: %v", err)
	}
	return strings.Join(parts, "\n")
}

// Compile runs `go build <flags> -o dest src` and blocks until it exits.
func (g GoToolchain) Compile(src, dest string) error {
	bin := g.bin()

	absDest, err := filepath.Abs(dest)
	if err != nil {
		return &CompilationError{Err: ErrToolchainInvocationFailed, Cause: err}
	}

	args := append([]string{"build"}, g.Flags...)
	args = append(args, "-o", absDest, filepath.Base(src))

	cmd := exec.Command(bin, args...)
	cmd.Dir = filepath.Dir(src)
	cmd.Env = append(os.Environ(), g.Env...)

	log.Debugf("running %s %s", bin, strings.Join(args, " "))
	output, err := cmd.CombinedOutput()
	if err != nil {
		return &CompilationError{
			Err:    ErrToolchainInvocationFailed,
			Cause:  err,
			Output: string(output),
		}
	}
	return nil
}
