// Package gotypes is a Go toolchain for the in-memory compilation bridge.
//
// A task parses its units with go/parser, type-checks them as one package
// with go/types and writes the package's export data (see
// golang.org/x/tools/go/gcexportdata) once per unit, to the output object the
// Resolver hands back for the unit's name. Imports are resolved through the
// same Resolver at toolchain.LocationPlatform; the standard resolver finds
// compiler export data with golang.org/x/tools/go/packages.
//
// The package registers itself with the toolchain registry under Name.
package gotypes

import (
	"errors"
	"flag"
	"fmt"
	"go/types"
	"io"
	"os/exec"
	"runtime"

	"github.com/tliron/commonlog"

	"github.com/chazu/memc/artifact"
	"github.com/chazu/memc/toolchain"
)

// Name is the registry name of this toolchain.
const Name = "gotypes"

// ErrProcessorsUnsupported is returned by NewTask when source processors are
// requested; the Go toolchain has none.
var ErrProcessorsUnsupported = errors.New("gotypes: source processors are not supported")

var log = commonlog.GetLogger("memc.toolchain.gotypes")

func init() {
	toolchain.Register(Name, func(s toolchain.Settings) (toolchain.Toolchain, error) {
		return New(Config{Lang: s.Lang, Arch: s.Arch, PackagePath: s.PackagePath, Dir: s.Dir}), nil
	})
}

// Config holds the defaults a task starts from. Task options override them.
type Config struct {
	// Lang is the Go language version to check against, e.g. "go1.22".
	// Empty means the checker's default (latest).
	Lang string
	// Arch selects type sizes. Empty means runtime.GOARCH.
	Arch string
	// PackagePath is the path recorded in the export data. Empty means the
	// package clause name of the first unit.
	PackagePath string
	// Dir is the working directory the standard resolver runs the go
	// command in. Empty means the current directory.
	Dir string
}

// Toolchain is the go/types based toolchain.
type Toolchain struct {
	cfg Config
}

var _ toolchain.Toolchain = (*Toolchain)(nil)

// New creates a toolchain with the given defaults.
func New(cfg Config) *Toolchain {
	if cfg.Arch == "" {
		cfg.Arch = runtime.GOARCH
	}
	return &Toolchain{cfg: cfg}
}

// Name implements toolchain.Toolchain.
func (tc *Toolchain) Name() string { return Name }

// Format names what tasks write: Go export data.
func (tc *Toolchain) Format() string { return artifact.FormatExportData }

// Config returns the toolchain defaults.
func (tc *Toolchain) Config() Config { return tc.cfg }

// StandardResolver implements toolchain.Toolchain. When the go command is
// not on PATH a warning is reported to l: only in-memory imports will
// resolve.
func (tc *Toolchain) StandardResolver(l toolchain.Listener) (toolchain.Resolver, error) {
	if _, err := exec.LookPath("go"); err != nil && l != nil {
		l.Report(toolchain.Diagnostic{
			Severity: toolchain.SevWarning,
			Code:     "platform",
			Message:  "go command not found; only in-memory packages can be imported",
		})
	}
	return NewPackagesResolver(tc.cfg.Dir), nil
}

// NewTask implements toolchain.Toolchain. Recognised options:
//
//	-lang version   language version (default Config.Lang)
//	-arch goarch    type sizes (default Config.Arch)
//	-p path         package path (default Config.PackagePath)
func (tc *Toolchain) NewTask(req toolchain.TaskRequest) (toolchain.Task, error) {
	if len(req.Processors) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrProcessorsUnsupported, req.Processors)
	}
	if req.Resolver == nil {
		return nil, errors.New("gotypes: task has no resolver")
	}
	if len(req.Units) == 0 {
		return nil, errors.New("gotypes: task has no compilation units")
	}

	opts, err := parseOptions(tc.cfg, req.Options)
	if err != nil {
		return nil, err
	}
	sizes := types.SizesFor("gc", opts.Arch)
	if sizes == nil {
		return nil, fmt.Errorf("gotypes: unknown architecture %q", opts.Arch)
	}

	return &task{
		req:   req,
		opts:  opts,
		sizes: sizes,
	}, nil
}

func parseOptions(defaults Config, args []string) (Config, error) {
	opts := defaults
	fs := flag.NewFlagSet(Name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.Lang, "lang", defaults.Lang, "Go language version")
	fs.StringVar(&opts.Arch, "arch", defaults.Arch, "target architecture for type sizes")
	fs.StringVar(&opts.PackagePath, "p", defaults.PackagePath, "package path")
	if err := fs.Parse(args); err != nil {
		return opts, fmt.Errorf("gotypes: invalid options: %w", err)
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("gotypes: unexpected arguments %v", fs.Args())
	}
	return opts, nil
}
