// Package compiler compiles source text to an artifact without touching the
// filesystem.
//
// A Compiler finds the identifying symbol of the text, wraps the text in a
// virtual compilation unit and runs a toolchain whose file lookups go through
// a memory bridge: the unit and any in-memory libraries are served from a
// registry, outputs are captured in sinks stored back into it, and
// everything else falls through to the toolchain's standard resolver. The
// artifact is then read back from the registry under the symbol.
//
// Each call gets its own registry, so concurrent compilations never see each
// other's output.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/memc/artifact"
	"github.com/chazu/memc/manifest"
	"github.com/chazu/memc/symbol"
	"github.com/chazu/memc/toolchain"
	"github.com/chazu/memc/vfs"

	_ "github.com/chazu/memc/toolchain/gotypes"
)

var (
	// ErrInvalidSubmission is returned when no identifying symbol is found
	// in the source. The toolchain is not run.
	ErrInvalidSubmission = symbol.ErrInvalidSubmission
	// ErrToolchainUnavailable is returned when the toolchain cannot provide
	// its standard resolver.
	ErrToolchainUnavailable = toolchain.ErrToolchainUnavailable
	// ErrNoOutputProduced is returned when the toolchain succeeded but wrote
	// nothing for the symbol.
	ErrNoOutputProduced = vfs.ErrNoOutputProduced
	// ErrCompilationFailed is returned when the toolchain reported errors.
	ErrCompilationFailed = errors.New("compilation failed")
	// ErrTimeout is returned when the configured deadline passed first.
	ErrTimeout = errors.New("compilation timed out")
)

var log = commonlog.GetLogger("memc.compiler")

// Compiler runs in-memory compilations. It is safe for concurrent use.
type Compiler struct {
	tc             toolchain.Toolchain
	extractor      symbol.Extractor
	timeout        time.Duration
	log            commonlog.Logger
	libraries      map[string][]byte
	shared         *vfs.Registry
	out            io.Writer
	options        []string
	maxDiagnostics int
}

// New creates a Compiler. The toolchain is looked up by the manifest's
// toolchain name unless WithToolchain is given.
func New(opts ...Option) (*Compiler, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	m := cfg.manifest
	if m == nil {
		m = manifest.Default()
	}

	c := &Compiler{
		tc:             cfg.toolchain,
		extractor:      cfg.extractor,
		timeout:        m.Timeout(),
		log:            cfg.logger,
		libraries:      make(map[string][]byte),
		shared:         cfg.shared,
		out:            cfg.out,
		maxDiagnostics: m.Compiler.MaxDiagnostics,
	}
	if cfg.timeout != nil {
		c.timeout = *cfg.timeout
	}
	if c.log == nil {
		c.log = log
	}

	if c.tc == nil {
		tc, err := toolchain.Lookup(m.Compiler.Toolchain, toolchain.Settings{
			Lang:        m.Toolchain.Lang,
			Arch:        m.Toolchain.Arch,
			PackagePath: m.Toolchain.PackagePath,
			Dir:         m.Toolchain.Dir,
		})
		if err != nil {
			return nil, err
		}
		c.tc = tc
	}
	if c.extractor == nil {
		e, err := symbol.ByName(m.Compiler.Extractor)
		if err != nil {
			return nil, fmt.Errorf("compiler: %w", err)
		}
		c.extractor = e
	}

	for _, path := range m.LibraryPaths() {
		data, err := m.ReadLibrary(path)
		if err != nil {
			return nil, fmt.Errorf("compiler: %w", err)
		}
		c.libraries[path] = data
	}
	for path, data := range cfg.libraries {
		c.libraries[path] = data
	}

	c.options = append(c.options, m.Toolchain.Options...)
	c.options = append(c.options, cfg.options...)
	return c, nil
}

// Toolchain returns the toolchain compilations run on.
func (c *Compiler) Toolchain() toolchain.Toolchain { return c.tc }

// NewCollector returns a collector sized by the configured diagnostics limit.
func (c *Compiler) NewCollector() *toolchain.Collector {
	return toolchain.NewCollector(c.maxDiagnostics)
}

// Compile compiles source and returns the bytes the toolchain wrote for its
// identifying symbol. Diagnostics go to diags; when diags is nil the
// toolchain prints them to the output writer instead.
//
// Errors: ErrInvalidSubmission when no symbol is found (the toolchain is
// not invoked), ErrCompilationFailed when the toolchain rejects the source,
// ErrNoOutputProduced when it succeeds without writing the artifact,
// ErrTimeout when the configured deadline passes.
func (c *Compiler) Compile(ctx context.Context, source string, diags toolchain.Listener) ([]byte, error) {
	r, err := c.compile(ctx, source, diags)
	if err != nil {
		return nil, err
	}
	return r.data, nil
}

// CompileArtifact is Compile with the bytes wrapped in an envelope naming
// the symbol, the toolchain and this compilation.
func (c *Compiler) CompileArtifact(ctx context.Context, source string, diags toolchain.Listener) (*artifact.Artifact, error) {
	r, err := c.compile(ctx, source, diags)
	if err != nil {
		return nil, err
	}
	format := artifact.FormatRaw
	if f, ok := c.tc.(formatter); ok {
		format = f.Format()
	}
	return artifact.New(r.symbol, c.tc.Name(), format, r.id.String(), r.data), nil
}

// formatter is implemented by toolchains that know the format of what they
// write.
type formatter interface {
	Format() string
}

type result struct {
	symbol string
	id     uuid.UUID
	data   []byte
}

func (c *Compiler) compile(ctx context.Context, source string, diags toolchain.Listener) (*result, error) {
	name, err := c.extractor.Extract(source)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	clog := commonlog.NewKeyValueLogger(c.log, "symbol", name, "compile", id.String())

	reg := c.shared
	if reg == nil {
		reg = vfs.NewRegistry()
	}
	for path, data := range c.libraries {
		reg.Put(path, vfs.NewLibrary(path, data))
	}
	unit := vfs.NewSourceUnit("", name, source)
	reg.Put(name, unit)

	standard, err := c.tc.StandardResolver(diags)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrToolchainUnavailable, c.tc.Name(), err)
	}

	var counter *errorCounter
	listener := diags
	if diags != nil {
		counter = &errorCounter{next: diags}
		listener = counter
	}

	task, err := c.tc.NewTask(toolchain.TaskRequest{
		Out:         c.out,
		Resolver:    vfs.NewBridge(reg, "", standard),
		Diagnostics: listener,
		Options:     c.options,
		Units:       []toolchain.SourceFile{unit},
	})
	if err != nil {
		return nil, fmt.Errorf("compiler: preparing %s: %w", name, err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	clog.Debugf("compiling with %s", c.tc.Name())
	start := time.Now()
	ok, err := task.Call(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			clog.Warningf("timed out after %s", time.Since(start))
			return nil, fmt.Errorf("%w: %s after %s", ErrTimeout, name, c.timeout)
		}
		clog.Warningf("toolchain error: %v", err)
		return nil, fmt.Errorf("compiler: %s: %w", name, err)
	}
	if !ok {
		if counter != nil {
			n := counter.errors.Load()
			clog.Warningf("compilation failed with %d error(s)", n)
			return nil, fmt.Errorf("%w: %s: %d error(s)", ErrCompilationFailed, name, n)
		}
		clog.Warning("compilation failed")
		return nil, fmt.Errorf("%w: %s", ErrCompilationFailed, name)
	}

	sink, found := reg.Sink(name)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNoOutputProduced, name)
	}
	data, err := sink.CompiledBytes()
	if err != nil {
		return nil, fmt.Errorf("compiler: %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s wrote an empty artifact", ErrNoOutputProduced, name)
	}

	clog.Infof("compiled %d bytes in %s", len(data), time.Since(start))
	return &result{symbol: name, id: id, data: data}, nil
}

// errorCounter forwards diagnostics and counts the errors among them.
type errorCounter struct {
	next   toolchain.Listener
	errors atomic.Int64
}

func (e *errorCounter) Report(d toolchain.Diagnostic) {
	if d.Severity == toolchain.SevError {
		e.errors.Add(1)
	}
	e.next.Report(d)
}
