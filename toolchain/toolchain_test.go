package toolchain

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

type stubFile struct {
	name string
	kind Kind
}

func (f stubFile) Name() string { return f.name }
func (f stubFile) URI() string { return "stub:///" + f.name + f.kind.Extension() }
func (f stubFile) Kind() Kind { return f.kind }
func (f stubFile) Open() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(f.name)), nil }

type stubOut struct{ stubFile }

func (stubOut) Create() (io.WriteCloser, error) { return nil, errors.New("read-only stub") }

// mapResolver knows a fixed set of names.
type mapResolver struct {
	names map[string]bool
	calls int
}

func (r *mapResolver) ResolveInput(ctx context.Context, loc Location, name string, kind Kind) (InputFile, error) {
	r.calls++
	if !r.names[name] {
		return nil, ErrNotFound
	}
	return stubFile{name: name, kind: kind}, nil
}

func (r *mapResolver) ResolveOutput(ctx context.Context, loc Location, name string, kind Kind, sibling FileObject) (OutputFile, error) {
	r.calls++
	if !r.names[name] {
		return nil, ErrNotFound
	}
	return stubOut{stubFile{name: name, kind: kind}}, nil
}

type failingResolver struct{}

func (failingResolver) ResolveInput(context.Context, Location, string, Kind) (InputFile, error) {
	return nil, errors.New("disk on fire")
}

func (failingResolver) ResolveOutput(context.Context, Location, string, Kind, FileObject) (OutputFile, error) {
	return nil, errors.New("disk on fire")
}

func TestChainFirstMatchWins(t *testing.T) {
	first := &mapResolver{names: map[string]bool{"a": true}}
	second := &mapResolver{names: map[string]bool{"a": true, "b": true}}
	chain := Chain{first, second}

	if _, err := chain.ResolveInput(context.Background(), LocationSource, "a", KindSource); err != nil {
		t.Fatalf("ResolveInput(a) failed: %v", err)
	}
	if second.calls != 0 {
		t.Errorf("second resolver consulted %d times, want 0", second.calls)
	}

	f, err := chain.ResolveInput(context.Background(), LocationSource, "b", KindSource)
	if err != nil {
		t.Fatalf("ResolveInput(b) failed: %v", err)
	}
	if f.Name() != "b" {
		t.Errorf("name = %q, want b", f.Name())
	}
	if first.calls != 2 || second.calls != 1 {
		t.Errorf("calls = %d/%d, want 2/1", first.calls, second.calls)
	}
}

func TestChainMiss(t *testing.T) {
	chain := Chain{&mapResolver{}, nil, &mapResolver{}}
	_, err := chain.ResolveInput(context.Background(), LocationPlatform, "fmt", KindArtifact)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), "fmt") {
		t.Errorf("error %q does not name the missing file", err)
	}
	_, err = chain.ResolveOutput(context.Background(), LocationOutput, "N", KindArtifact, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("output err = %v, want ErrNotFound", err)
	}
}

func TestChainStopsOnHardError(t *testing.T) {
	tail := &mapResolver{names: map[string]bool{"x": true}}
	chain := Chain{failingResolver{}, tail}
	_, err := chain.ResolveInput(context.Background(), LocationSource, "x", KindSource)
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want the hard failure", err)
	}
	if tail.calls != 0 {
		t.Errorf("tail consulted after hard failure")
	}
}

func TestCollector(t *testing.T) {
	c := NewCollector(2)
	c.Report(Diagnostic{Severity: SevWarning, Message: "w", Pos: Position{File: "b.go", Line: 1, Column: 1}})
	c.Report(Diagnostic{Severity: SevError, Message: "e", Pos: Position{File: "a.go", Line: 3, Column: 2}})
	c.Report(Diagnostic{Severity: SevError, Message: "dropped"})

	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
	if c.Dropped() != 1 {
		t.Errorf("Dropped = %d, want 1", c.Dropped())
	}
	if !c.HasErrors() {
		t.Error("expected HasErrors")
	}
	if errs := c.Errors(); len(errs) != 1 || errs[0].Message != "e" {
		t.Errorf("Errors = %v, want [e]", errs)
	}
	sorted := c.Sorted()
	if sorted[0].Pos.File != "a.go" {
		t.Errorf("Sorted()[0] = %v, want a.go first", sorted[0])
	}
	if got := sorted[0].String(); got != "a.go:3:2: error: e" {
		t.Errorf("String = %q", got)
	}
}

func TestCollectorZeroValue(t *testing.T) {
	var c Collector
	for i := 0; i < 10; i++ {
		c.Report(Diagnostic{Severity: SevInfo})
	}
	if c.Len() != 10 || c.HasErrors() {
		t.Errorf("Len = %d, HasErrors = %v", c.Len(), c.HasErrors())
	}
}

type nopToolchain struct{}

func (nopToolchain) Name() string { return "nop" }
func (nopToolchain) StandardResolver(Listener) (Resolver, error) { return Chain{}, nil }
func (nopToolchain) NewTask(TaskRequest) (Task, error) { return nil, errors.New("nop") }

func TestRegistry(t *testing.T) {
	Register("test-nop", func(Settings) (Toolchain, error) { return nopToolchain{}, nil })
	Register("test-broken", func(Settings) (Toolchain, error) { return nil, errors.New("no compiler on PATH") })

	tc, err := Lookup("test-nop", Settings{})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if tc.Name() != "nop" {
		t.Errorf("Name = %q, want nop", tc.Name())
	}

	if _, err := Lookup("test-missing", Settings{}); !errors.Is(err, ErrToolchainUnavailable) {
		t.Errorf("missing: err = %v, want ErrToolchainUnavailable", err)
	}
	if _, err := Lookup("test-broken", Settings{}); !errors.Is(err, ErrToolchainUnavailable) {
		t.Errorf("broken: err = %v, want ErrToolchainUnavailable", err)
	}

	found := false
	for _, n := range Names() {
		if n == "test-nop" {
			found = true
		}
	}
	if !found {
		t.Errorf("Names() = %v, missing test-nop", Names())
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate Register")
		}
	}()
	Register("test-nop", func(Settings) (Toolchain, error) { return nopToolchain{}, nil })
}
