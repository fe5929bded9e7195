package toolchain

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by a Resolver that does not know the requested
// name. A Chain treats it as "ask the next resolver".
var ErrNotFound = errors.New("file object not found")

// Resolver answers a toolchain's "where is this file" questions.
type Resolver interface {
	// ResolveInput returns the object to read for name at loc.
	ResolveInput(ctx context.Context, loc Location, name string, kind Kind) (InputFile, error)

	// ResolveOutput returns the object the toolchain should write the
	// artifact for name into. sibling is the unit the artifact was
	// compiled from, or nil.
	ResolveOutput(ctx context.Context, loc Location, name string, kind Kind, sibling FileObject) (OutputFile, error)
}

// ---------------------------------------------------------------------------
// Chain: first resolver that recognises a name wins
// ---------------------------------------------------------------------------

// Chain is a Resolver that consults each link in order. A link declines a
// request by returning an error wrapping ErrNotFound; any other result,
// success or failure, ends the walk.
type Chain []Resolver

// ResolveInput implements Resolver.
func (c Chain) ResolveInput(ctx context.Context, loc Location, name string, kind Kind) (InputFile, error) {
	for _, r := range c {
		if r == nil {
			continue
		}
		f, err := r.ResolveInput(ctx, loc, name, kind)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return f, err
	}
	return nil, fmt.Errorf("%w: %s %s (%s)", ErrNotFound, loc, name, kind)
}

// ResolveOutput implements Resolver.
func (c Chain) ResolveOutput(ctx context.Context, loc Location, name string, kind Kind, sibling FileObject) (OutputFile, error) {
	for _, r := range c {
		if r == nil {
			continue
		}
		f, err := r.ResolveOutput(ctx, loc, name, kind, sibling)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return f, err
	}
	return nil, fmt.Errorf("%w: %s %s (%s)", ErrNotFound, loc, name, kind)
}
