package toolchain

import (
	"fmt"
	"sort"
	"sync"
)

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevInfo is for informational diagnostics.
	SevInfo Severity = iota
	// SevWarning is for warning diagnostics.
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "info"
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	}
	return "unknown"
}

// Position is a 1-based line/column inside a file object. A zero Line means
// the diagnostic is not attached to any source position.
type Position struct {
	File   string
	Line   uint32
	Column uint32
}

func (p Position) String() string {
	switch {
	case p.File == "" && p.Line == 0:
		return "-"
	case p.Line == 0:
		return p.File
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Diagnostic is one finding reported by a toolchain.
type Diagnostic struct {
	Severity Severity
	// Code is a short toolchain-specific identifier, e.g. "syntax" or "type".
	Code    string
	Message string
	Pos     Position
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Pos, d.Severity, d.Message)
}

// Listener receives diagnostics as a toolchain produces them.
// Implementations must be safe for concurrent use.
type Listener interface {
	Report(d Diagnostic)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(d Diagnostic)

// Report implements Listener.
func (f ListenerFunc) Report(d Diagnostic) { f(d) }

// ---------------------------------------------------------------------------
// Collector: the caller-owned diagnostics accumulator
// ---------------------------------------------------------------------------

// Collector accumulates diagnostics. The zero value is ready to use and has
// no limit.
type Collector struct {
	mu      sync.Mutex
	items   []Diagnostic
	max     int
	dropped int
}

// NewCollector returns a Collector that keeps at most max diagnostics.
// max <= 0 means unlimited.
func NewCollector(max int) *Collector {
	return &Collector{max: max}
}

// Report implements Listener. Diagnostics beyond the limit are counted but
// not stored.
func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.max > 0 && len(c.items) >= c.max {
		c.dropped++
		return
	}
	c.items = append(c.items, d)
}

// Diagnostics returns a copy of everything collected so far, in report order.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}

// Errors returns only the error-severity diagnostics.
func (c *Collector) Errors() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Diagnostic
	for _, d := range c.items {
		if d.Severity >= SevError {
			out = append(out, d)
		}
	}
	return out
}

// HasErrors reports whether at least one error was collected.
func (c *Collector) HasErrors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

// Len returns the number of stored diagnostics.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Dropped returns how many diagnostics were discarded because of the limit.
func (c *Collector) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Sorted returns the diagnostics ordered by file, line, column and then
// severity (errors first).
func (c *Collector) Sorted() []Diagnostic {
	out := c.Diagnostics()
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].Pos, out[j].Pos
		if pi.File != pj.File {
			return pi.File < pj.File
		}
		if pi.Line != pj.Line {
			return pi.Line < pj.Line
		}
		if pi.Column != pj.Column {
			return pi.Column < pj.Column
		}
		return out[i].Severity > out[j].Severity
	})
	return out
}
