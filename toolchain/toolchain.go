// Package toolchain defines the boundary between the in-memory compilation
// bridge and a compiler: the file-object capabilities a compiler reads and
// writes through, the Resolver hooks it calls, the Task it runs and the
// diagnostics it reports.
//
// A toolchain never opens files itself. Every source lookup, library lookup
// and artifact write goes through the Resolver handed to NewTask, which is
// what lets callers redirect them to memory.
package toolchain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
)

// ErrToolchainUnavailable is returned when no usable compiler toolchain is
// registered under the requested name.
var ErrToolchainUnavailable = errors.New("compiler toolchain unavailable")

// ---------------------------------------------------------------------------
// Toolchain: a pluggable compiler
// ---------------------------------------------------------------------------

// Toolchain is a compiler that can be driven entirely through a Resolver.
type Toolchain interface {
	// Name returns the name the toolchain is registered under.
	Name() string

	// StandardResolver returns the toolchain's default file resolution,
	// used as the fallback for everything that is not held in memory.
	// Problems found while resolving are reported to l, which may be nil.
	StandardResolver(l Listener) (Resolver, error)

	// NewTask prepares a compilation. Nothing is compiled until Call.
	NewTask(req TaskRequest) (Task, error)
}

// TaskRequest carries the inputs of one compilation.
type TaskRequest struct {
	// Out receives human-readable output. When Diagnostics is nil the
	// toolchain prints diagnostics here instead. May be nil.
	Out io.Writer
	// Resolver is consulted for every input and output file object.
	Resolver Resolver
	// Diagnostics receives structured diagnostics. May be nil.
	Diagnostics Listener
	// Options are toolchain-specific command-line style options.
	Options []string
	// Processors names source processors to run before compilation.
	Processors []string
	// Units are the compilation units, in order.
	Units []SourceFile
}

// Task is a prepared compilation.
type Task interface {
	// Call runs the compilation and blocks until it finishes. The boolean
	// reports whether the toolchain considers the compilation successful;
	// a non-nil error means the toolchain could not run to completion
	// (cancelled context, resolver failure, ...).
	Call(ctx context.Context) (bool, error)
}

// ---------------------------------------------------------------------------
// Registry of available toolchains
// ---------------------------------------------------------------------------

// Settings are the configuration-file defaults a toolchain is built with.
// Fields a toolchain has no use for are ignored.
type Settings struct {
	Lang        string // language version
	Arch        string // target architecture
	PackagePath string // path recorded in artifacts
	Dir         string // working directory for the standard resolver
}

// Factory constructs a toolchain instance.
type Factory func(s Settings) (Toolchain, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// Register makes a toolchain available by name. It panics if the name is
// registered twice or the factory is nil.
func Register(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	if f == nil {
		panic("toolchain: Register factory is nil")
	}
	if _, dup := factories[name]; dup {
		panic("toolchain: Register called twice for " + name)
	}
	factories[name] = f
}

// Lookup constructs the toolchain registered under name.
func Lookup(name string, s Settings) (Toolchain, error) {
	factoriesMu.RLock()
	f, ok := factories[name]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q is not registered", ErrToolchainUnavailable, name)
	}
	tc, err := f(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrToolchainUnavailable, name, err)
	}
	if tc == nil {
		return nil, fmt.Errorf("%w: %s returned no toolchain", ErrToolchainUnavailable, name)
	}
	return tc, nil
}

// Names returns the registered toolchain names, sorted.
func Names() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
