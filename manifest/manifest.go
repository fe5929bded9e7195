// Package manifest handles memc.toml compiler configuration.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
)

// FileName is the name Load and FindAndLoad look for.
const FileName = "memc.toml"

// Values used for keys memc.toml leaves out.
const (
	DefaultToolchain      = "gotypes"
	DefaultExtractor      = "scan"
	DefaultTimeout        = 30 * time.Second
	DefaultMaxDiagnostics = 100
)

// Manifest represents a memc.toml configuration.
type Manifest struct {
	Compiler  CompilerConfig    `toml:"compiler"`
	Toolchain ToolchainConfig   `toml:"toolchain"`
	Libraries map[string]string `toml:"libraries"` // import path -> export data file

	// Dir is the directory containing the memc.toml file (set at load time).
	// Empty for manifests built by Parse or Default.
	Dir string `toml:"-"`
}

// CompilerConfig configures the compile orchestrator.
type CompilerConfig struct {
	Toolchain      string `toml:"toolchain"`
	Extractor      string `toml:"extractor"`
	Timeout        string `toml:"timeout"`
	MaxDiagnostics int    `toml:"max-diagnostics"` // 0 keeps every diagnostic
}

// ToolchainConfig holds defaults handed to the toolchain.
type ToolchainConfig struct {
	Lang        string   `toml:"lang"`
	Arch        string   `toml:"arch"`
	PackagePath string   `toml:"package-path"`
	Dir         string   `toml:"dir"`
	Options     []string `toml:"options"`
}

// Default returns the configuration used when no memc.toml is present.
func Default() *Manifest {
	m := &Manifest{}
	m.applyDefaults(false)
	return m
}

// Parse decodes memc.toml content. Unknown keys are rejected.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&m)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	m.applyDefaults(md.IsDefined("compiler", "max-diagnostics"))
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load parses a memc.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return m, nil
}

// FindAndLoad walks up from startDir to find a memc.toml file,
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
			return nil, nil
		}
		dir = parent
	}
}

// applyDefaults fills unset fields. limitSet reports whether max-diagnostics
// was given explicitly, in which case 0 means unlimited.
func (m *Manifest) applyDefaults(limitSet bool) {
	if m.Compiler.Toolchain == "" {
		m.Compiler.Toolchain = DefaultToolchain
	}
	if m.Compiler.Extractor == "" {
		m.Compiler.Extractor = DefaultExtractor
	}
	if m.Compiler.Timeout == "" {
		m.Compiler.Timeout = DefaultTimeout.String()
	}
	if !limitSet && m.Compiler.MaxDiagnostics == 0 {
		m.Compiler.MaxDiagnostics = DefaultMaxDiagnostics
	}
}

// Validate checks values the decoder cannot.
func (m *Manifest) Validate() error {
	var errs []error
	if d, err := time.ParseDuration(m.Compiler.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("compiler.timeout: %w", err))
	} else if d < 0 {
		errs = append(errs, fmt.Errorf("compiler.timeout: negative duration %s", d))
	}
	if m.Compiler.MaxDiagnostics < 0 {
		errs = append(errs, fmt.Errorf("compiler.max-diagnostics: %d is negative", m.Compiler.MaxDiagnostics))
	}
	for path, file := range m.Libraries {
		if path == "" || file == "" {
			errs = append(errs, fmt.Errorf("libraries: empty entry %q = %q", path, file))
		}
	}
	return errors.Join(errs...)
}

// Timeout returns the compile deadline. Zero means no deadline.
func (m *Manifest) Timeout() time.Duration {
	d, err := time.ParseDuration(m.Compiler.Timeout)
	if err != nil {
		return DefaultTimeout
	}
	return d
}

// LibraryPaths returns the configured import paths in sorted order.
func (m *Manifest) LibraryPaths() []string {
	paths := make([]string, 0, len(m.Libraries))
	for p := range m.Libraries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ReadLibrary reads the export data file configured for importPath,
// relative to Dir.
func (m *Manifest) ReadLibrary(importPath string) ([]byte, error) {
	file, ok := m.Libraries[importPath]
	if !ok {
		return nil, fmt.Errorf("no library configured for %s", importPath)
	}
	if !filepath.IsAbs(file) {
		file = filepath.Join(m.Dir, file)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("cannot read library %s: %w", importPath, err)
	}
	return data, nil
}
