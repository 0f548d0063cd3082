// Brainiac CLI - runs, compiles, and inspects tape-language programs
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

	"github.com/tebeka/atexit"
	"github.com/tliron/commonlog"

	"github.com/chazu/brainiac/aot"
	"github.com/chazu/brainiac/buildcache"
	"github.com/chazu/brainiac/compiler"
	"github.com/chazu/brainiac/manifest"
	"github.com/chazu/brainiac/vm"

	_ "github.com/tliron/commonlog/simple"
)

const version = "0.1.0"

var log = commonlog.GetLogger("brainiac")

// errUsage marks command-line mistakes, which exit with status 2.
var errUsage = errors.New("usage error")

// verbosityHelp follows commonlog's verbosity to level mapping.
const verbosityHelp = "Log verbosity (-2 errors, -1 warnings, 0 notices, 1 info, 2 debug)"

// verboseLevel is the verbosity -v selects.
const verboseLevel = 1

func main() {
	stdout := bufio.NewWriter(os.Stdout)
	atexit.Register(func() {
		stdout.Flush()
	})

	var code int
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "repl":
			code = handleREPLCommand(os.Args[2:], os.Stdin, stdout, os.Stderr)
			atexit.Exit(code)
		case "lsp":
			code = handleLSPCommand(os.Args[2:], os.Stderr)
			atexit.Exit(code)
		}
	}

	code = run(os.Args[1:], os.Stdin, stdout, os.Stderr)
	atexit.Exit(code)
}

// options holds the settings for one run after flags and brainiac.toml
// have been merged.
type options struct {
	source     string
	memory     int
	mode       string
	outputDir  string
	goBin      string
	goFlags    []string
	noCache    bool
	noValidate bool
	cacheDir   string
	verbosity  int

	memorySet bool
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// parseArgs parses command-line flags and merges them over the manifest
// found next to the source file. Flags always win.
func parseArgs(args []string, stderr io.Writer) (*options, error) {
	var (
		memory     int
		mode       string
		outputDir  string
		noCache    bool
		noValidate bool
		verbose    bool
		verbosity  int
	)

	fs := newFlagSet("brainiac", stderr)
	fs.IntVar(&memory, "m", manifest.DefaultMemory, "Initial number of memory cells")
	fs.IntVar(&memory, "memory", manifest.DefaultMemory, "Initial number of memory cells")
	fs.StringVar(&mode, "x", manifest.DefaultMode, "Execution mode: interpret, compile, image, inspect")
	fs.StringVar(&mode, "execution", manifest.DefaultMode, "Execution mode: interpret, compile, image, inspect")
	fs.StringVar(&outputDir, "o", manifest.DefaultOutputDir, "Output directory for compile and image modes")
	fs.StringVar(&outputDir, "output-dir", manifest.DefaultOutputDir, "Output directory for compile and image modes")
	fs.BoolVar(&noCache, "no-cache", false, "Bypass the build cache")
	fs.BoolVar(&noValidate, "no-validate", false, "Skip type-checking of generated source")
	fs.BoolVar(&verbose, "v", false, "Verbose output, same as -verbosity 1")
	fs.IntVar(&verbosity, "verbosity", 0, verbosityHelp)

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: brainiac [options] <source>\n")
		fmt.Fprintf(stderr, "       brainiac repl [-m cells]\n")
		fmt.Fprintf(stderr, "       brainiac lsp\n\n")
		fmt.Fprintf(stderr, "Runs a program, or compiles it to a native executable.\n")
		fmt.Fprintf(stderr, "Sources ending in %s are loaded as program images.\n\n", vm.ImageExt)
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  brainiac hello.bf                 # Interpret\n")
		fmt.Fprintf(stderr, "  brainiac -x compile -o bin hello.bf  # Build bin/hello\n")
		fmt.Fprintf(stderr, "  brainiac -x image hello.bf        # Write hello%s\n", vm.ImageExt)
		fmt.Fprintf(stderr, "  brainiac -x inspect hello.bf      # Show optimized program\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %w", errUsage, err)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, fmt.Errorf("%w: expected exactly one source file, got %d", errUsage, fs.NArg())
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "m", "memory":
			set["memory"] = true
		case "x", "execution":
			set["mode"] = true
		case "o", "output-dir":
			set["output-dir"] = true
		}
	})

	source := fs.Arg(0)
	m, err := manifest.FindAndLoad(filepath.Dir(source))
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = manifest.Default()
	} else if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Join(m.Dir, manifest.FileName), err)
	}

	o := &options{
		source:     source,
		memory:     m.Run.Memory,
		mode:       m.Run.Mode,
		outputDir:  m.OutputDirPath(),
		goBin:      m.Compile.Go,
		goFlags:    m.Compile.Flags,
		noCache:    noCache || !m.CacheEnabled(),
		noValidate: noValidate || !m.ValidateSource(),
		cacheDir:   m.CacheDirPath(),
		verbosity:  verbosity,
		memorySet:  set["memory"],
	}
	if set["memory"] {
		o.memory = memory
	}
	if set["mode"] {
		o.mode = mode
	}
	if set["output-dir"] {
		o.outputDir = outputDir
	}
	if verbose && o.verbosity < verboseLevel {
		o.verbosity = verboseLevel
	}

	// The manifest is already validated; only flag values are checked here.
	if set["memory"] && memory < 1 {
		return nil, fmt.Errorf("%w: memory must be positive, got %d", errUsage, memory)
	}
	if set["mode"] && !manifest.ValidMode(mode) {
		return nil, fmt.Errorf("%w: unknown execution mode %q (want one of %s)", errUsage, mode, strings.Join(manifest.Modes, ", "))
	}
	return o, nil
}

// run executes one CLI invocation and returns the process exit status.
func run(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	o, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	commonlog.Configure(o.verbosity, nil)

	if err := execute(o, stdin, stdout); err != nil {
		flush(stdout)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// program is a loaded source: the instructions as parsed and after
// optimization, plus the memory size to run with.
type program struct {
	parsed    []compiler.Instruction
	optimized []compiler.Instruction
	memory    int
}

func load(o *options) (*program, error) {
	if strings.EqualFold(filepath.Ext(o.source), vm.ImageExt) {
		img, err := vm.LoadImage(o.source)
		if err != nil {
			return nil, err
		}
		p := &program{parsed: img.Program, optimized: img.Program, memory: img.MemorySize}
		if o.memorySet {
			p.memory = o.memory
		}
		log.Infof("loaded image %s (%d instructions, %d cells)", o.source, compiler.Count(img.Program), p.memory)
		return p, nil
	}

	data, err := os.ReadFile(o.source)
	if err != nil {
		return nil, err
	}
	parsed, err := compiler.Parse(string(data))
	if err != nil {
		return nil, err
	}
	optimized := compiler.Optimize(parsed)
	log.Infof("parsed %s: %d instructions, %d after optimization", o.source, compiler.Count(parsed), compiler.Count(optimized))
	return &program{parsed: parsed, optimized: optimized, memory: o.memory}, nil
}

func execute(o *options, stdin io.Reader, stdout io.Writer) error {
	p, err := load(o)
	if err != nil {
		return err
	}

	switch o.mode {
	case "interpret":
		return vm.Run(p.memory, p.optimized, stdin, stdout)
	case "compile":
		return compileProgram(o, p)
	case "image":
		return writeImage(o, p)
	case "inspect":
		return inspect(stdout, o, p)
	}
	return fmt.Errorf("%w: unknown execution mode %q", errUsage, o.mode)
}

func compileProgram(o *options, p *program) error {
	if err := os.MkdirAll(o.outputDir, 0o755); err != nil {
		return err
	}
	dest := aot.DestinationPath(o.source, o.outputDir)

	b := &aot.Builder{
		Memory:    p.memory,
		Toolchain: aot.GoToolchain{GoBin: o.goBin, Flags: o.goFlags},
		Validate:  !o.noValidate,
	}
	if !o.noCache {
		cache, err := buildcache.Open(o.cacheDir)
		if err != nil {
			log.Warningf("build cache unavailable: %v", err)
		} else {
			defer cache.Close()
			b.Cache = cache
		}
	}

	if err := b.Build(p.optimized, dest); err != nil {
		return err
	}
	log.Noticef("wrote %s", dest)
	return nil
}

func writeImage(o *options, p *program) error {
	if err := os.MkdirAll(o.outputDir, 0o755); err != nil {
		return err
	}
	base := filepath.Base(o.source)
	dest := filepath.Join(o.outputDir, strings.TrimSuffix(base, filepath.Ext(base))+vm.ImageExt)
	if filepath.Clean(dest) == filepath.Clean(o.source) {
		return fmt.Errorf("refusing to overwrite source image %s", o.source)
	}

	if err := vm.SaveImage(dest, &vm.Image{MemorySize: p.memory, Program: p.optimized}); err != nil {
		return err
	}
	log.Noticef("wrote %s", dest)
	return nil
}
