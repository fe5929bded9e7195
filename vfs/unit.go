// Package vfs holds the in-memory stand-ins for files that a toolchain reads
// and writes during one compilation: the source unit built from the
// submitted text, the sink that captures the compiled artifact, in-memory
// libraries, and the Registry and MemoryResolver that hand them out.
package vfs

import (
	"errors"
	"io"
	"strings"

	"github.com/chazu/memc/toolchain"
)

var (
	// ErrMissingContent is returned when source text is requested from an
	// object that was never given any.
	ErrMissingContent = errors.New("vfs: object has no source content")
	// ErrNoOutputProduced is returned when compiled bytes are requested
	// from a sink nothing was ever written to.
	ErrNoOutputProduced = errors.New("vfs: no output produced")
)

// Scheme is the URI scheme of every fabricated location.
const Scheme = "mem"

// URI fabricates the location of an in-memory object. scope keeps objects
// from different compilations apart; it may be empty.
func URI(scope, name string, kind toolchain.Kind) string {
	var b strings.Builder
	b.WriteString(Scheme)
	b.WriteString(":///")
	if scope != "" {
		b.WriteString(scope)
		b.WriteByte('/')
	}
	b.WriteString(name)
	b.WriteString(kind.Extension())
	return b.String()
}

// ---------------------------------------------------------------------------
// Unit: the virtual compilation unit
// ---------------------------------------------------------------------------

// Unit is an immutable in-memory compilation unit.
type Unit struct {
	name    string
	uri     string
	kind    toolchain.Kind
	text    string
	hasText bool
}

var _ toolchain.SourceFile = (*Unit)(nil)

// NewSourceUnit wraps text as the source unit for symbol.
func NewSourceUnit(scope, symbol, text string) *Unit {
	return &Unit{
		name:    symbol,
		uri:     URI(scope, symbol, toolchain.KindSource),
		kind:    toolchain.KindSource,
		text:    text,
		hasText: true,
	}
}

// newStubUnit is the output-only path: the identity of a unit without any
// text. The location keeps the source extension so the stub reads as the
// output sibling of NewSourceUnit(scope, symbol, ...).
func newStubUnit(scope, symbol string, kind toolchain.Kind) Unit {
	return Unit{
		name: symbol,
		uri:  URI(scope, symbol, toolchain.KindSource),
		kind: kind,
	}
}

// Name returns the identifying symbol.
func (u *Unit) Name() string { return u.name }

// URI returns the fabricated location.
func (u *Unit) URI() string { return u.uri }

// Kind returns the kind tag.
func (u *Unit) Kind() toolchain.Kind { return u.kind }

// Content returns the source text verbatim.
func (u *Unit) Content() (string, error) {
	if !u.hasText {
		return "", ErrMissingContent
	}
	return u.text, nil
}

// Open returns a reader over the source text.
func (u *Unit) Open() (io.ReadCloser, error) {
	text, err := u.Content()
	if err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(text)), nil
}
