package vfs

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/chazu/memc/toolchain"
)

// ---------------------------------------------------------------------------
// Sink: the virtual output sink
// ---------------------------------------------------------------------------

// Sink captures the artifact a toolchain writes for one symbol.
// It is safe for concurrent use.
type Sink struct {
	Unit

	mu  sync.Mutex
	buf *bytes.Buffer // nil until Create is called
}

var _ toolchain.OutputFile = (*Sink)(nil)

// NewSink returns an empty sink for symbol.
func NewSink(scope, symbol string, kind toolchain.Kind) *Sink {
	return &Sink{Unit: newStubUnit(scope, symbol, kind)}
}

// Create returns a write handle onto the sink's buffer. The first call
// allocates the buffer. A later call replaces it, so bytes written through
// older handles are no longer visible.
func (s *Sink) Create() (io.WriteCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = new(bytes.Buffer)
	return &sinkWriter{sink: s, buf: s.buf}, nil
}

// Written reports whether Create has been called.
func (s *Sink) Written() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf != nil
}

// CompiledBytes returns a copy of everything written so far.
func (s *Sink) CompiledBytes() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buf == nil {
		return nil, ErrNoOutputProduced
	}
	out := make([]byte, s.buf.Len())
	copy(out, s.buf.Bytes())
	return out, nil
}

var errClosedWriter = errors.New("vfs: write to closed sink handle")

type sinkWriter struct {
	sink   *Sink
	buf    *bytes.Buffer
	closed bool
}

func (w *sinkWriter) Write(p []byte) (int, error) {
	w.sink.mu.Lock()
	defer w.sink.mu.Unlock()
	if w.closed {
		return 0, errClosedWriter
	}
	return w.buf.Write(p)
}

func (w *sinkWriter) Close() error {
	w.sink.mu.Lock()
	defer w.sink.mu.Unlock()
	w.closed = true
	return nil
}
