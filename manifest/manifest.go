// Package manifest handles brainiac.toml project configuration.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest file looked up by Load and FindAndLoad.
const FileName = "brainiac.toml"

// Defaults applied when the manifest leaves a value unset.
const (
	DefaultMemory    = 4096
	DefaultMode      = "interpret"
	DefaultOutputDir = "."
	DefaultGo        = "go"
	DefaultCacheDir  = ".brainiac/cache"
)

// Modes lists the accepted values of run.mode.
var Modes = []string{"interpret", "compile", "image", "inspect"}

// ErrInvalidManifest is wrapped by every Validate failure.
var ErrInvalidManifest = errors.New("invalid manifest")

// Manifest represents a brainiac.toml project configuration.
type Manifest struct {
	Run     Run     `toml:"run"`
	Compile Compile `toml:"compile"`
	Cache   Cache   `toml:"cache"`

	// Dir is the directory containing the brainiac.toml file (set at load time).
	Dir string `toml:"-"`
}

// Run configures program execution.
type Run struct {
	Memory int    `toml:"memory"`
	Mode   string `toml:"mode"`
}

// Compile configures ahead-of-time builds.
type Compile struct {
	OutputDir string   `toml:"output-dir"`
	Go        string   `toml:"go"`
	Flags     []string `toml:"flags"`
	Validate  *bool    `toml:"validate"`
}

// Cache configures the build cache.
type Cache struct {
	Enabled *bool  `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Default returns the configuration used when no brainiac.toml exists.
func Default() *Manifest {
	m := &Manifest{}
	m.applyDefaults()
	if wd, err := os.Getwd(); err == nil {
		m.Dir = wd
	}
	return m
}

// Load parses a brainiac.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return m, nil
}

// Parse decodes manifest text and applies defaults. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	m.applyDefaults()
	return &m, nil
}

// FindAndLoad walks up from startDir to find a brainiac.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

func (m *Manifest) applyDefaults() {
	if m.Run.Memory == 0 {
		m.Run.Memory = DefaultMemory
	}
	if m.Run.Mode == "" {
		m.Run.Mode = DefaultMode
	}
	if m.Compile.OutputDir == "" {
		m.Compile.OutputDir = DefaultOutputDir
	}
	if m.Compile.Go == "" {
		m.Compile.Go = DefaultGo
	}
	if m.Compile.Validate == nil {
		m.Compile.Validate = boolPtr(true)
	}
	if m.Cache.Enabled == nil {
		m.Cache.Enabled = boolPtr(true)
	}
	if m.Cache.Dir == "" {
		m.Cache.Dir = DefaultCacheDir
	}
}

// Validate checks value ranges and enumerations.
func (m *Manifest) Validate() error {
	if m.Run.Memory < 1 {
		return fmt.Errorf("%w: run.memory must be positive, got %d", ErrInvalidManifest, m.Run.Memory)
	}
	if !ValidMode(m.Run.Mode) {
		return fmt.Errorf("%w: run.mode %q is not one of %v", ErrInvalidManifest, m.Run.Mode, Modes)
	}
	return nil
}

// ValidMode reports whether mode is one of Modes.
func ValidMode(mode string) bool {
	for _, m := range Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// ValidateSource reports whether generated source should be type-checked
// before building.
func (m *Manifest) ValidateSource() bool {
	return m.Compile.Validate == nil || *m.Compile.Validate
}

// CacheEnabled reports whether the build cache is in use.
func (m *Manifest) CacheEnabled() bool {
	return m.Cache.Enabled == nil || *m.Cache.Enabled
}

// OutputDirPath returns the compile output directory. Relative paths are
// resolved against the manifest directory.
func (m *Manifest) OutputDirPath() string {
	return m.resolve(m.Compile.OutputDir)
}

// CacheDirPath returns the build cache directory. Relative paths are
// resolved against the manifest directory.
func (m *Manifest) CacheDirPath() string {
	return m.resolve(m.Cache.Dir)
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) || m.Dir == "" {
		return p
	}
	return filepath.Join(m.Dir, p)
}

func boolPtr(b bool) *bool {
	return &b
}
