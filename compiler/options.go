package compiler

import (
	"io"
	"time"

	"github.com/tliron/commonlog"

	"github.com/chazu/memc/manifest"
	"github.com/chazu/memc/symbol"
	"github.com/chazu/memc/toolchain"
	"github.com/chazu/memc/vfs"
)

// Option configures a Compiler.
type Option func(*config)

type config struct {
	manifest  *manifest.Manifest
	toolchain toolchain.Toolchain
	extractor symbol.Extractor
	timeout   *time.Duration
	logger    commonlog.Logger
	libraries map[string][]byte
	shared    *vfs.Registry
	out       io.Writer
	options   []string
}

// WithManifest takes toolchain, extractor, timeout, toolchain settings and
// libraries from m. Other options override it. Without it, the defaults of
// manifest.Default apply.
func WithManifest(m *manifest.Manifest) Option {
	return func(c *config) { c.manifest = m }
}

// WithToolchain uses tc instead of looking one up by name.
func WithToolchain(tc toolchain.Toolchain) Option {
	return func(c *config) { c.toolchain = tc }
}

// WithExtractor sets how the identifying symbol is found.
func WithExtractor(e symbol.Extractor) Option {
	return func(c *config) { c.extractor = e }
}

// WithTimeout bounds each compilation. Zero disables the deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = &d }
}

// WithLogger sets the logger. Each compilation logs through a key-value
// logger derived from it.
func WithLogger(l commonlog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithLibrary makes compiled export data importable under importPath in
// every compilation.
func WithLibrary(importPath string, data []byte) Option {
	return func(c *config) {
		if c.libraries == nil {
			c.libraries = make(map[string][]byte)
		}
		c.libraries[importPath] = data
	}
}

// WithSharedRegistry makes every compilation use reg instead of a registry
// of its own. Entries then outlive the call and concurrent compilations of
// the same symbol can read each other's output; this exists to reproduce
// that behavior, not to be relied on.
func WithSharedRegistry(reg *vfs.Registry) Option {
	return func(c *config) { c.shared = reg }
}

// WithOutput sets where the toolchain prints when no diagnostics listener
// is passed to Compile.
func WithOutput(w io.Writer) Option {
	return func(c *config) { c.out = w }
}

// WithOptions appends toolchain options, after those of the manifest.
func WithOptions(args ...string) Option {
	return func(c *config) { c.options = append(c.options, args...) }
}
