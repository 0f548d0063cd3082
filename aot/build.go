package aot

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"

	"github.com/chazu/brainiac/compiler"
	"github.com/chazu/brainiac/compiler/hash"
)

// Cache stores built executables by content key.
type Cache interface {
	// Restore copies the executable stored under key to dest. It reports
	// false when there is no usable entry.
	Restore(key, dest string) (bool, error)
	// Store records the executable at path under key.
	Store(key, path string) error
}

// Builder compiles programs into native executables.
type Builder struct {
	Memory    int       // initial tape size baked into the executable
	Toolchain Toolchain // required
	Cache     Cache     // optional
	Validate  bool      // type-check generated source before building
	TempDir   string    // where generated source is written; os.TempDir() when empty
}

// Build generates Go source for prog into a uniquely named temporary file,
// hands it to the toolchain to produce dest, and removes the temporary
// file whether or not the build succeeded.
func (b *Builder) Build(prog []compiler.Instruction, dest string) error {
	if b.Toolchain == nil {
		return errors.New("aot: no toolchain configured")
	}

	sum, err := hash.Program(prog, b.Memory)
	if err != nil {
		return fmt.Errorf("hash program: %w", err)
	}
	if fp, ok := b.Toolchain.(Fingerprinter); ok && b.Cache != nil {
		sum = hash.Salted(sum, fp.Fingerprint())
	}
	key := hash.Hex(sum)

	if b.Cache != nil {
		ok, err := b.Cache.Restore(key, dest)
		if err != nil {
			log.Warningf("build cache lookup failed: %v", err)
		} else if ok {
			log.Infof("build cache hit %s -> %s", key[:12], dest)
			return nil
		}
	}

	var src bytes.Buffer
	if err := Generate(&src, b.Memory, prog); err != nil {
		return fmt.Errorf("generate source: %w", err)
	}

	tmpDir := b.TempDir
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	srcPath := filepath.Join(tmpDir, "brainiac-program-"+uuid.NewString()+".go")

	if b.Validate {
		if err := Validate(filepath.Base(srcPath), src.Bytes()); err != nil {
			return err
		}
	}

	if err := writeExclusive(srcPath, src.Bytes()); err != nil {
		return fmt.Errorf("write generated source: %w", err)
	}
	defer removeTemp(srcPath)

	log.Infof("compiling %s -> %s", srcPath, dest)
	if err := b.Toolchain.Compile(srcPath, dest); err != nil {
		var ce *CompilationError
		if !errors.As(err, &ce) {
			err = &CompilationError{Err: ErrToolchainInvocationFailed, Cause: err}
		}
		return err
	}

	if b.Cache != nil {
		if err := b.Cache.Store(key, dest); err != nil {
			log.Warningf("build cache store failed: %v", err)
		}
	}
	return nil
}

// DestinationPath derives the executable path for a source file: its base
// name without extension, placed in outputDir.
func DestinationPath(source, outputDir string) string {
	base := filepath.Base(source)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "program.out"
	}
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(outputDir, name)
}

func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

// removeTemp deletes a generated source file. Failure is logged, not
// returned.
func removeTemp(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warningf("failed to remove temporary file %s: %v", path, err)
	}
}
