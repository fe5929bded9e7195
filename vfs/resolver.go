package vfs

import (
	"context"
	"fmt"

	"github.com/chazu/memc/toolchain"
)

// ---------------------------------------------------------------------------
// MemoryResolver: the registry-backed link of the resolution chain
// ---------------------------------------------------------------------------

// MemoryResolver answers input requests from a Registry and captures every
// output request in a fresh Sink stored back into it.
type MemoryResolver struct {
	reg   *Registry
	scope string
}

var _ toolchain.Resolver = (*MemoryResolver)(nil)

// NewMemoryResolver returns a resolver over reg. scope is embedded in the
// locations of the sinks it creates.
func NewMemoryResolver(reg *Registry, scope string) *MemoryResolver {
	return &MemoryResolver{reg: reg, scope: scope}
}

// ResolveInput returns the registry entry for name. Entries of a different
// kind than requested, and names the registry does not hold, are declined
// with toolchain.ErrNotFound.
func (m *MemoryResolver) ResolveInput(ctx context.Context, loc toolchain.Location, name string, kind toolchain.Kind) (toolchain.InputFile, error) {
	obj, ok := m.reg.Get(name)
	if !ok {
		return nil, toolchain.ErrNotFound
	}
	in, ok := obj.(toolchain.InputFile)
	if !ok || in.Kind() != kind {
		return nil, toolchain.ErrNotFound
	}
	return in, nil
}

// ResolveOutput creates a new Sink for name, registers it and returns it.
// An earlier entry under the same name is replaced.
func (m *MemoryResolver) ResolveOutput(ctx context.Context, loc toolchain.Location, name string, kind toolchain.Kind, sibling toolchain.FileObject) (toolchain.OutputFile, error) {
	if name == "" {
		return nil, fmt.Errorf("vfs: output requested without a name at %s", loc)
	}
	s := NewSink(m.scope, name, kind)
	m.reg.Put(name, s)
	return s, nil
}

// NewBridge returns the resolver handed to a toolchain: reg first, then
// standard for everything reg does not hold. standard may be nil when the
// compilation needs nothing outside memory.
func NewBridge(reg *Registry, scope string, standard toolchain.Resolver) toolchain.Resolver {
	return toolchain.Chain{NewMemoryResolver(reg, scope), standard}
}
